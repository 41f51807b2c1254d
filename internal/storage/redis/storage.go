package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/bullscows/internal/model"
	"github.com/mcoot/bullscows/internal/storage"
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
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
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

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Credential operations

// SaveToken stores the token and points the (room, player) index at it.
// Tokens carry no TTL; they live until deleted.
func (s *Storage) SaveToken(ctx context.Context, token *model.SessionToken) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, tokenKey(token.Token), data, 0)
	pipe.Set(ctx, playerTokenIndexKey(token.RoomID, token.PlayerID), token.Token, 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetToken(ctx context.Context, token string) (*model.SessionToken, error) {
	data, err := s.client.Get(ctx, tokenKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrInvalidToken
		}
		return nil, err
	}

	var stored model.SessionToken
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *Storage) GetTokenForPlayer(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) (*model.SessionToken, error) {
	token, err := s.client.Get(ctx, playerTokenIndexKey(roomID, playerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrInvalidToken
		}
		return nil, err
	}
	return s.GetToken(ctx, token)
}

func (s *Storage) DeleteToken(ctx context.Context, token string) error {
	stored, err := s.GetToken(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrInvalidToken) {
			return nil
		}
		return err
	}

	indexKey := playerTokenIndexKey(stored.RoomID, stored.PlayerID)
	current, err := s.client.Get(ctx, indexKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, tokenKey(token))
	if current == token {
		pipe.Del(ctx, indexKey)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Match history operations

// AppendMatchSummary pushes the summary onto the room's history list,
// trimming it to HistoryLimit entries
func (s *Storage) AppendMatchSummary(ctx context.Context, summary *model.MatchSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	key := matchesKey(summary.RoomID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	if s.cfg.HistoryLimit > 0 {
		pipe.LTrim(ctx, key, 0, int64(s.cfg.HistoryLimit-1))
	}
	if s.cfg.HistoryTTL > 0 {
		pipe.Expire(ctx, key, s.cfg.HistoryTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// GetMatchSummaries returns up to limit summaries for a room, newest first.
// A non-positive limit returns all of them.
func (s *Storage) GetMatchSummaries(ctx context.Context, roomID model.RoomID, limit int) ([]*model.MatchSummary, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	items, err := s.client.LRange(ctx, matchesKey(roomID), 0, stop).Result()
	if err != nil {
		return nil, err
	}

	result := make([]*model.MatchSummary, 0, len(items))
	for _, item := range items {
		var summary model.MatchSummary
		if err := json.Unmarshal([]byte(item), &summary); err != nil {
			return nil, err
		}
		result = append(result, &summary)
	}
	return result, nil
}
