package auth

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mcoot/fillblank/internal/model"
)

// avatarURLFormat is the Gravatar image URL; unknown hashes get a generated identicon
const avatarURLFormat = "https://www.gravatar.com/avatar/%s?d=identicon&s=80"

// AvatarURL returns the player's avatar image, keyed by email when known and by name otherwise
func AvatarURL(player *model.Player) string {
	key := player.Email
	if key == "" {
		key = player.DisplayName
	}
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(key))))
	return fmt.Sprintf(avatarURLFormat, hex.EncodeToString(sum[:]))
}

// SeatFor is the seat an account takes when it joins a game.
// The seat is owned by the account id, so another account with the same display name cannot act for it.
func SeatFor(player *model.Player) model.Seat {
	return model.Seat{
		Owner:  player.ID,
		Name:   model.PlayerName(player.DisplayName),
		Avatar: AvatarURL(player),
	}
}
