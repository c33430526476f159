package auth

import (
	"context"

	"github.com/so647/study-time-tracker/internal/domain"
)

type contextKey struct{}

// WithUser stores the authenticated user in the request context.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFrom retrieves the authenticated user from the context.
func UserFrom(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(contextKey{}).(*domain.User)
	return user, ok && user != nil
}
