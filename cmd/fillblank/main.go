package main

import "github.com/mcoot/fillblank/internal/cli"

func main() {
	cli.Execute()
}
