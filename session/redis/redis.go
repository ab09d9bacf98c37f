// Package redis implements a SessionStore on Redis, suitable for multi-node
// deployments where session history must outlive a single process.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/showrunner-ai/showrunner/core"
)

// Config holds Redis connection configuration.
type Config struct {
	// Addr is the Redis server address (host:port).
	Addr string
	// Password is the Redis password (optional).
	Password string
	// DB is the Redis database number.
	DB int
	// Prefix is the key prefix for all session keys (default: "showrunner:session:").
	Prefix string
	// SessionTTL is the session expiry duration (0 = never expire).
	SessionTTL time.Duration
	// PoolSize is the connection pool size (default: 10).
	PoolSize int
}

// Store is a Redis-backed SessionStore. Session metadata lives under a
// "meta:" key, committed turns in a "turns:" list, and seen turn IDs in a
// "seen:" set that keeps Commit idempotent.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New connects to Redis and verifies the connection with a ping.
func New(cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: poolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewFromClient(client, cfg.Prefix, cfg.SessionTTL), nil
}

// NewFromClient wraps an existing client. Useful for testing with miniredis.
func NewFromClient(client *redis.Client, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "showrunner:session:"
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) metaKey(id string) string  { return s.prefix + "meta:" + id }
func (s *Store) turnsKey(id string) string { return s.prefix + "turns:" + id }
func (s *Store) seenKey(id string) string  { return s.prefix + "seen:" + id }
func (s *Store) indexKey() string          { return s.prefix + "ids" }

type sessionMeta struct {
	ID       string            `json:"id"`
	Created  time.Time         `json:"created"`
	Updated  time.Time         `json:"updated"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Create returns the session with the given id, allocating it on first use.
func (s *Store) Create(ctx context.Context, id string) (*core.Session, error) {
	sess, err := s.Load(ctx, id)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, core.ErrSessionNotFound) {
		return nil, err
	}

	sess = core.NewSession(id)
	data, err := json.Marshal(sessionMeta{
		ID: sess.ID, Created: sess.Created, Updated: sess.Updated, Metadata: sess.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal session metadata: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.SetNX(ctx, s.metaKey(id), data, s.ttl)
	pipe.SAdd(ctx, s.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// Load reads a session's metadata and its full turn history.
func (s *Store) Load(ctx context.Context, id string) (*core.Session, error) {
	data, err := s.client.Get(ctx, s.metaKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var meta sessionMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("unmarshal session metadata: %w", err)
	}

	raw, err := s.client.LRange(ctx, s.turnsKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load turns: %w", err)
	}

	sess := &core.Session{
		ID:       meta.ID,
		Created:  meta.Created,
		Updated:  meta.Updated,
		Metadata: meta.Metadata,
		Turns:    make([]core.Turn, 0, len(raw)),
	}
	for _, item := range raw {
		var turn core.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("unmarshal turn: %w", err)
		}
		sess.Turns = append(sess.Turns, turn)
	}
	return sess, nil
}

// Commit appends a committed turn to the session's history. The turn ID is
// guarded by a set membership check so duplicate commits are no-ops.
func (s *Store) Commit(ctx context.Context, sessionID string, turn core.Turn) error {
	exists, err := s.client.Exists(ctx, s.metaKey(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if exists == 0 {
		return core.ErrSessionNotFound
	}

	added, err := s.client.SAdd(ctx, s.seenKey(sessionID), turn.ID).Result()
	if err != nil {
		return fmt.Errorf("record turn id: %w", err)
	}
	if added == 0 {
		return nil
	}

	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, s.turnsKey(sessionID), data)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.metaKey(sessionID), s.ttl)
		pipe.Expire(ctx, s.turnsKey(sessionID), s.ttl)
		pipe.Expire(ctx, s.seenKey(sessionID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("commit turn: %w", err)
	}
	return nil
}

// List loads every known session, ordered by id.
func (s *Store) List(ctx context.Context) ([]*core.Session, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sort.Strings(ids)

	sessions := make([]*core.Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.Load(ctx, id)
		if err != nil {
			if errors.Is(err, core.ErrSessionNotFound) {
				// Expired session, drop the stale index entry.
				s.client.SRem(ctx, s.indexKey(), id)
				continue
			}
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client's connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}
