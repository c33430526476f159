package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/so647/study-time-tracker/internal/auth"
	"github.com/so647/study-time-tracker/internal/observability"
)

// SessionStore provides Postgres-backed login sessions keyed by opaque
// uuid tokens.
type SessionStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewSessionStore constructs a SessionStore.
func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool, now: time.Now}
}

// Create inserts a session for userID expiring after ttl.
func (s *SessionStore) Create(ctx context.Context, userID int, ttl time.Duration) (*auth.Session, error) {
	session := &auth.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		CreatedAt: s.now(),
	}
	session.ExpiresAt = session.CreatedAt.Add(ttl)

	const query = `INSERT INTO sessions (token, user_id, expires_at, created_at)
        VALUES ($1, $2, $3, $4)`
	if _, err := s.pool.Exec(ctx, query, session.Token, session.UserID, session.ExpiresAt, session.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	observability.RecordSessionIssued()
	return session, nil
}

// Lookup resolves token to its user id. Expired rows are treated as absent
// and removed opportunistically.
func (s *SessionStore) Lookup(ctx context.Context, token string) (int, error) {
	const query = `SELECT user_id, expires_at FROM sessions WHERE token = $1`

	var userID int
	var expiresAt time.Time
	err := s.pool.QueryRow(ctx, query, token).Scan(&userID, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, auth.ErrSessionNotFound
		}
		return 0, fmt.Errorf("query session: %w", err)
	}

	if s.now().After(expiresAt) {
		_ = s.Delete(ctx, token)
		return 0, auth.ErrSessionNotFound
	}
	return userID, nil
}

// Delete removes a session by token.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	const query = `DELETE FROM sessions WHERE token = $1`
	if _, err := s.pool.Exec(ctx, query, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
