package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/fillblank/internal/dependencies/clock"
	"github.com/mcoot/fillblank/internal/model"
	"github.com/mcoot/fillblank/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidDisplayName = errors.New("display name must not be empty")
)

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// Service owns player accounts and the bearer sessions that act for them.
// Accounts live in storage; sessions are held in memory by this process.
type Service struct {
	storage  storage.Storage
	clock    clock.Clock
	sessions *sessionTable
}

// New creates a new auth Service
func New(storage storage.Storage, clock clock.Clock, cfg Config) *Service {
	if cfg.SessionDuration <= 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		storage:  storage,
		clock:    clock,
		sessions: newSessionTable(cfg.SessionDuration),
	}
}

// CreateGuestPlayer creates a throwaway account and signs it in
func (s *Service) CreateGuestPlayer(ctx context.Context, displayName string) (*Session, error) {
	player, err := s.newPlayer(displayName, "", true)
	if err != nil {
		return nil, err
	}
	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}
	return s.sessions.open(player, s.clock.Now()), nil
}

// RegisterPlayer creates an account that can log in again with username and password.
// The email is optional and only feeds the avatar.
func (s *Service) RegisterPlayer(ctx context.Context, username, password, displayName, email string) (*Session, error) {
	player, err := s.newPlayer(displayName, email, false)
	if err != nil {
		return nil, err
	}

	switch _, err := s.storage.GetRegisteredPlayerByUsername(ctx, username); {
	case err == nil:
		return nil, ErrUsernameExists
	case !errors.Is(err, model.ErrPlayerNotFound):
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	credentials := &model.RegisteredPlayer{
		PlayerID:     player.ID,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    player.CreatedAt,
		UpdatedAt:    player.CreatedAt,
	}

	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}
	if err := s.storage.SaveRegisteredPlayer(ctx, credentials); err != nil {
		return nil, err
	}
	return s.sessions.open(player, s.clock.Now()), nil
}

// Login signs a registered account in. Unknown usernames and wrong passwords look the same to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	credentials, err := s.storage.GetRegisteredPlayerByUsername(ctx, username)
	if errors.Is(err, model.ErrPlayerNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(credentials.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	player, err := s.storage.GetPlayer(ctx, credentials.PlayerID)
	if err != nil {
		return nil, err
	}
	return s.sessions.open(player, s.clock.Now()), nil
}

// ValidateSession returns the live session for a token
func (s *Service) ValidateSession(token string) (*Session, error) {
	session, ok := s.sessions.lookup(token, s.clock.Now())
	if !ok {
		return nil, ErrInvalidSession
	}
	return session, nil
}

// InvalidateSession signs a token out. Unknown tokens are ignored.
func (s *Service) InvalidateSession(token string) {
	s.sessions.close(token)
}

// GetPlayer returns the account a token acts for
func (s *Service) GetPlayer(token string) (*model.Player, error) {
	session, err := s.ValidateSession(token)
	if err != nil {
		return nil, err
	}
	return &session.Player, nil
}

// CleanExpiredSessions drops sessions past their expiry; the factory runs it on a ticker
func (s *Service) CleanExpiredSessions() {
	s.sessions.sweep(s.clock.Now())
}

func (s *Service) newPlayer(displayName, email string, guest bool) (*model.Player, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, ErrInvalidDisplayName
	}
	return &model.Player{
		ID:          model.PlayerID(newToken(playerIDPrefix)),
		DisplayName: displayName,
		Email:       strings.TrimSpace(email),
		IsGuest:     guest,
		CreatedAt:   s.clock.Now(),
	}, nil
}
