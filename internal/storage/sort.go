package storage

import (
	"slices"
	"strings"

	"github.com/mcoot/fillblank/internal/model"
)

// SortSessions orders sessions newest first, then by name
func SortSessions(sessions []*model.GameSession) {
	slices.SortFunc(sessions, func(a, b *model.GameSession) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
}
