package domain

import (
	"context"
	"errors"
	"time"
)

// DefaultImageFile is the avatar assigned to freshly registered users.
const DefaultImageFile = "default.jpg"

var (
	// ErrUserNotFound is returned when a user cannot be located.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken signals a unique violation on the username column.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrEmailTaken signals a unique violation on the email column.
	ErrEmailTaken = errors.New("email already taken")
)

// User is the canonical account record stored in PostgreSQL.
type User struct {
	ID           int
	Username     string
	Email        string
	PasswordHash string
	ImageFile    string
	CreatedAt    time.Time
}

// UserRepository captures persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user User) (*User, error)
	GetByID(ctx context.Context, id int) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, id int, username, email, imageFile string) error
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
}
