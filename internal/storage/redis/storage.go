package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/fillblank/internal/model"
	"github.com/mcoot/fillblank/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Client exposes the underlying connection so pub/sub can share it
func (s *Storage) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	// Apply TTL only for guest players
	var ttl time.Duration
	if player.IsGuest {
		ttl = s.cfg.GuestPlayerTTL
	}

	return s.client.Set(ctx, playerKey(player.ID), data, ttl).Err()
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var player model.Player
	if err := s.getJSON(ctx, playerKey(id), &player, model.ErrPlayerNotFound); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	return s.client.Del(ctx, playerKey(id)).Err()
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	data, err := json.Marshal(rp)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, registeredPlayerKey(rp.PlayerID), data, 0) // No TTL
	pipe.Set(ctx, usernameIndexKey(rp.Username), string(rp.PlayerID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	var rp model.RegisteredPlayer
	if err := s.getJSON(ctx, registeredPlayerKey(playerID), &rp, model.ErrPlayerNotFound); err != nil {
		return nil, err
	}
	return &rp, nil
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	// Look up player ID from username index
	playerIDStr, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	return s.GetRegisteredPlayer(ctx, model.PlayerID(playerIDStr))
}

// Session operations

func (s *Storage) CreateSession(ctx context.Context, session *model.GameSession) error {
	stored := *session
	stored.Version = 1
	data, err := json.Marshal(&stored)
	if err != nil {
		return err
	}

	// Claim the name first; SETNX makes the uniqueness check atomic
	nameKey := sessionNameIndexKey(session.Name)
	claimed, err := s.client.SetNX(ctx, nameKey, string(session.ID), s.cfg.SessionTTL).Result()
	if err != nil {
		return err
	}
	if !claimed {
		return model.ErrDuplicateGameName
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(session.ID), data, s.cfg.SessionTTL)
		pipe.SAdd(ctx, allSessionsKey(), string(session.ID))
		if stored.Active {
			pipe.SAdd(ctx, activeSessionsKey(), string(session.ID))
		}
		return nil
	})
	if err != nil {
		// Release the claim so the name is not held by a session that was never written
		if delErr := s.client.Del(context.WithoutCancel(ctx), nameKey).Err(); delErr != nil {
			return errors.Join(err, fmt.Errorf("failed to release game name %q: %w", session.Name, delErr))
		}
		return err
	}

	session.Version = 1
	return nil
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.GameSession, error) {
	var session model.GameSession
	if err := s.getJSON(ctx, sessionKey(id), &session, model.ErrGameNotFound); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) GetSessionByName(ctx context.Context, name string) (*model.GameSession, error) {
	id, err := s.client.Get(ctx, sessionNameIndexKey(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrGameNotFound
		}
		return nil, err
	}
	return s.GetSession(ctx, model.SessionID(id))
}

// SaveSession writes the session if nobody else has saved it since it was loaded.
// The version check and the write run under WATCH so a concurrent writer aborts the transaction.
func (s *Storage) SaveSession(ctx context.Context, session *model.GameSession) error {
	key := sessionKey(session.ID)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		var stored model.GameSession
		if err := getJSONWith(ctx, tx, key, &stored, model.ErrGameNotFound); err != nil {
			return err
		}
		if stored.Version != session.Version {
			return model.ErrConflict
		}

		next := *session
		next.Version++
		data, err := json.Marshal(&next)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.cfg.SessionTTL)
			pipe.Expire(ctx, sessionNameIndexKey(session.Name), s.cfg.SessionTTL)
			if next.Active {
				pipe.SAdd(ctx, activeSessionsKey(), string(session.ID))
			} else {
				pipe.SRem(ctx, activeSessionsKey(), string(session.ID))
			}
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return model.ErrConflict
	}
	if err != nil {
		return err
	}

	session.Version++
	return nil
}

func (s *Storage) ListSessions(ctx context.Context, activeOnly bool) ([]*model.GameSession, error) {
	indexKey := allSessionsKey()
	if activeOnly {
		indexKey = activeSessionsKey()
	}

	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.GameSession{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(model.SessionID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	sessions := make([]*model.GameSession, 0, len(values))
	var expired []interface{}
	for i, val := range values {
		if val == nil {
			expired = append(expired, ids[i])
			continue
		}
		var session model.GameSession
		if err := json.Unmarshal([]byte(val.(string)), &session); err != nil {
			continue // Skip invalid data
		}
		if activeOnly && !session.Active {
			continue
		}
		sessions = append(sessions, &session)
	}

	// Drop index entries whose sessions have expired
	if len(expired) > 0 {
		pipe := s.client.Pipeline()
		pipe.SRem(ctx, allSessionsKey(), expired...)
		pipe.SRem(ctx, activeSessionsKey(), expired...)
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, err
		}
	}

	storage.SortSessions(sessions)
	return sessions, nil
}

// Round history operations

func (s *Storage) AppendRoundResult(ctx context.Context, result *model.RoundResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	key := historyKey(result.SessionID)
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, s.cfg.SessionTTL) // Keep history TTL in line with the session
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRoundHistory(ctx context.Context, id model.SessionID) ([]model.RoundResult, error) {
	values, err := s.client.LRange(ctx, historyKey(id), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	results := make([]model.RoundResult, 0, len(values))
	for _, val := range values {
		var result model.RoundResult
		if err := json.Unmarshal([]byte(val), &result); err != nil {
			return nil, fmt.Errorf("corrupt round history for %s: %w", id, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// Card set operations

func (s *Storage) SaveCardSet(ctx context.Context, set *model.CardSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, cardSetKey(set.Name), data, 0) // Reference data never expires
	pipe.SAdd(ctx, cardSetsIndexKey(), set.Name)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetCardSets(ctx context.Context) ([]model.CardSet, error) {
	names, err := s.client.SMembers(ctx, cardSetsIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return []model.CardSet{}, nil
	}

	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = cardSetKey(name)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	sets := make([]model.CardSet, 0, len(values))
	for i, val := range values {
		if val == nil {
			continue
		}
		var set model.CardSet
		if err := json.Unmarshal([]byte(val.(string)), &set); err != nil {
			return nil, fmt.Errorf("corrupt card set %s: %w", names[i], err)
		}
		sets = append(sets, set)
	}

	slices.SortFunc(sets, func(a, b model.CardSet) int {
		return strings.Compare(a.Name, b.Name)
	})
	return sets, nil
}

func (s *Storage) DeleteCardSet(ctx context.Context, name string) error {
	var removed *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.SRem(ctx, cardSetsIndexKey(), name)
		pipe.Del(ctx, cardSetKey(name))
		return nil
	})
	if err != nil {
		return err
	}
	if removed.Val() == 0 {
		return model.ErrCardSetNotFound
	}
	return nil
}

func (s *Storage) getJSON(ctx context.Context, key string, dest any, notFound error) error {
	return getJSONWith(ctx, s.client, key, dest, notFound)
}

// getJSONWith loads and decodes a JSON value, mapping a missing key to notFound
func getJSONWith(ctx context.Context, c redis.Cmdable, key string, dest any, notFound error) error {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return notFound
		}
		return err
	}
	return json.Unmarshal(data, dest)
}
