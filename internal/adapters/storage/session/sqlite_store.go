package session

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"otterpoint/internal/adapters/storage"
	domain "otterpoint/internal/domain/session"
)

// timeLayout is fixed-width so stored UTC timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore persists sealed sessions in the portal_session table.
type SQLiteStore struct {
	db     storage.SQLDB
	sealer *Sealer
	now    func() time.Time
}

// NewSQLiteStore creates a session store backed by db.
// PRE: db has been migrated
func NewSQLiteStore(db storage.SQLDB, sealer *Sealer) *SQLiteStore {
	return &SQLiteStore{db: db, sealer: sealer, now: time.Now}
}

// Load returns the session behind token.
// PRE: token is non-empty
// POST: Expired rows are reported as domain.ErrNotFound
func (s *SQLiteStore) Load(ctx context.Context, token string) (*domain.Session, error) {
	var payload []byte
	var expires string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, expires_at FROM portal_session WHERE token_hash = ?`, tokenKey(token),
	).Scan(&payload, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if exp, perr := time.Parse(timeLayout, expires); perr == nil && s.now().After(exp) {
		return nil, domain.ErrNotFound
	}
	sess, err := s.sealer.Open(token, payload)
	if err != nil {
		slog.Warn("session_unreadable", "store", "sqlite", "error", err)
		return nil, domain.ErrNotFound
	}
	return sess, nil
}

// Save creates or replaces a session row.
// PRE: sess.Token is non-empty
// POST: Row keyed by the token hash holds the sealed session
func (s *SQLiteStore) Save(ctx context.Context, sess *domain.Session) error {
	payload, err := s.sealer.Seal(sess)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO portal_session (token_hash, payload, expires_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(token_hash) DO UPDATE SET payload = excluded.payload, expires_at = excluded.expires_at, updated_at = excluded.updated_at`,
		tokenKey(sess.Token), payload, sess.ExpiresAt.UTC().Format(timeLayout), s.now().UTC().Format(timeLayout))
	return err
}

// Delete removes the session row.
func (s *SQLiteStore) Delete(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM portal_session WHERE token_hash = ?`, tokenKey(token))
	return err
}

// Sweep deletes expired rows and returns how many were removed.
// PRE: none
// POST: No row with expires_at before now remains
func (s *SQLiteStore) Sweep(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM portal_session WHERE expires_at < ?`, s.now().UTC().Format(timeLayout))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
