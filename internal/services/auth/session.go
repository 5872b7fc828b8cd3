package auth

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/mcoot/fillblank/internal/model"
)

const (
	playerIDPrefix = "p_"
	tokenPrefix    = "sess_"
	tokenBytes     = 16
)

// Session is a signed-in account. Token is the bearer credential clients send back.
type Session struct {
	Token     string
	PlayerID  model.PlayerID
	Player    model.Player
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Seat returns how the session's account takes part in a game
func (s *Session) Seat() model.Seat {
	return SeatFor(&s.Player)
}

func (s *Session) expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// sessionTable maps tokens to live sessions
type sessionTable struct {
	ttl time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

func newSessionTable(ttl time.Duration) *sessionTable {
	return &sessionTable{
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

func (t *sessionTable) open(player *model.Player, now time.Time) *Session {
	session := &Session{
		Token:     newToken(tokenPrefix),
		PlayerID:  player.ID,
		Player:    *player,
		CreatedAt: now,
		ExpiresAt: now.Add(t.ttl),
	}

	t.mu.Lock()
	t.sessions[session.Token] = session
	t.mu.Unlock()
	return session
}

// lookup returns the session for token, evicting it if it has expired
func (t *sessionTable) lookup(token string, now time.Time) (*Session, bool) {
	t.mu.RLock()
	session, ok := t.sessions[token]
	t.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if session.expired(now) {
		t.close(token)
		return nil, false
	}
	return session, true
}

func (t *sessionTable) close(token string) {
	t.mu.Lock()
	delete(t.sessions, token)
	t.mu.Unlock()
}

func (t *sessionTable) sweep(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for token, session := range t.sessions {
		if session.expired(now) {
			delete(t.sessions, token)
		}
	}
}

func newToken(prefix string) string {
	b := make([]byte, tokenBytes)
	_, _ = rand.Read(b)
	return prefix + base64.RawURLEncoding.EncodeToString(b)
}
