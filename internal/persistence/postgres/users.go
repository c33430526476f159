package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/so647/study-time-tracker/internal/domain"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint
// violations.
const pgUniqueViolation = "23505"

// UserRepository provides Postgres-backed persistence for users.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts the user and returns it with its assigned id. Unique
// violations are translated to the domain sentinel for the offending column.
func (r *UserRepository) Create(ctx context.Context, user domain.User) (*domain.User, error) {
	const query = `INSERT INTO users (username, email, password_hash, image_file)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, user.Username, user.Email, user.PasswordHash, user.ImageFile).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "username") {
				return nil, domain.ErrUsernameTaken
			}
			if strings.Contains(pgErr.ConstraintName, "email") {
				return nil, domain.ErrEmailTaken
			}
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &user, nil
}

// GetByID fetches a user by primary key.
func (r *UserRepository) GetByID(ctx context.Context, id int) (*domain.User, error) {
	const query = `SELECT id, username, email, password_hash, image_file, created_at
        FROM users WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// GetByEmail fetches a user by email. Emails are stored lowercased.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT id, username, email, password_hash, image_file, created_at
        FROM users WHERE email = $1`
	return r.scanOne(ctx, query, email)
}

// UpdateProfile sets username, email, and avatar reference for id.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int, username, email, imageFile string) error {
	const query = `UPDATE users SET username = $2, email = $3, image_file = $4 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, username, email, imageFile)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "username") {
				return domain.ErrUsernameTaken
			}
			if strings.Contains(pgErr.ConstraintName, "email") {
				return domain.ErrEmailTaken
			}
		}
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// UpdatePassword overwrites the stored credential hash for id.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $2 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) scanOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var user domain.User
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.ImageFile, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}
