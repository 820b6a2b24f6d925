// Package session persists portal sessions. Every backend stores the
// session sealed, since it carries the visitor's backend cookies.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	domain "otterpoint/internal/domain/session"
)

// Store defines the interface for portal session persistence.
type Store interface {
	// Load returns the session behind token.
	// PRE: token is non-empty
	// POST: Returns domain.ErrNotFound for unknown, expired or unreadable sessions
	Load(ctx context.Context, token string) (*domain.Session, error)

	// Save creates or replaces s.
	// PRE: s.Token is non-empty, s.ExpiresAt is set
	// POST: A later Load(s.Token) returns an equal session until it expires
	Save(ctx context.Context, s *domain.Session) error

	// Delete removes the session behind token. Unknown tokens are not an error.
	Delete(ctx context.Context, token string) error
}

// Ensure implementations satisfy Store.
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*RedisStore)(nil)
)

// tokenKey hashes a token so raw tokens never reach storage.
func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
