package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	domain "otterpoint/internal/domain/session"
)

// DefaultRedisPrefix namespaces session keys.
const DefaultRedisPrefix = "otter:session:"

// RedisStore keeps sealed sessions in Redis, letting several portal
// instances share visitors. Expiry is delegated to key TTLs.
type RedisStore struct {
	client *redis.Client
	sealer *Sealer
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a store on client.
func NewRedisStore(client *redis.Client, sealer *Sealer) *RedisStore {
	return &RedisStore{client: client, sealer: sealer, prefix: DefaultRedisPrefix, now: time.Now}
}

// NewRedisClient connects to addr and verifies the connection.
// PRE: addr is host:port
// POST: Returns a client that answered PING
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (r *RedisStore) key(token string) string {
	return r.prefix + tokenKey(token)
}

// Load returns the session behind token.
func (r *RedisStore) Load(ctx context.Context, token string) (*domain.Session, error) {
	payload, err := r.client.Get(ctx, r.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s, err := r.sealer.Open(token, payload)
	if err != nil {
		slog.Warn("session_unreadable", "store", "redis", "error", err)
		return nil, domain.ErrNotFound
	}
	return s, nil
}

// Save writes s with a TTL matching its remaining lifetime.
// PRE: s.ExpiresAt is in the future
// POST: An already expired session is deleted instead of written
func (r *RedisStore) Save(ctx context.Context, s *domain.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return r.Delete(ctx, s.Token)
	}
	payload, err := r.sealer.Seal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(s.Token), payload, ttl).Err()
}

// Delete removes the session behind token.
func (r *RedisStore) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, r.key(token)).Err()
}
