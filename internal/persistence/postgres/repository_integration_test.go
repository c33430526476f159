//go:build integration

package postgres

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/so647/study-time-tracker/internal/auth"
	"github.com/so647/study-time-tracker/internal/domain"
)

func setupDatabase(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("tracker"),
		postgrescontainer.WithUsername("tracker"),
		postgrescontainer.WithPassword("tracker"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))
	require.NoError(t, RunMigrations(connStr, migrationsDir(t)))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool
}

func migrationsDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "../../../migrations")
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}

func TestUserRepositoryUniqueViolations(t *testing.T) {
	ctx := context.Background()
	pool := setupDatabase(t, ctx)
	repo := NewUserRepository(pool)

	created, err := repo.Create(ctx, domain.User{
		Username:     "alice",
		Email:        "a@b.com",
		PasswordHash: "hash",
		ImageFile:    domain.DefaultImageFile,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	_, err = repo.Create(ctx, domain.User{
		Username:     "alice",
		Email:        "other@b.com",
		PasswordHash: "hash",
		ImageFile:    domain.DefaultImageFile,
	})
	require.True(t, errors.Is(err, domain.ErrUsernameTaken))

	_, err = repo.Create(ctx, domain.User{
		Username:     "bob",
		Email:        "a@b.com",
		PasswordHash: "hash",
		ImageFile:    domain.DefaultImageFile,
	})
	require.True(t, errors.Is(err, domain.ErrEmailTaken))

	fetched, err := repo.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, fetched.ID)

	_, err = repo.GetByID(ctx, 99999)
	require.True(t, errors.Is(err, domain.ErrUserNotFound))
}

func TestActivityRepositoryWindowFilters(t *testing.T) {
	ctx := context.Background()
	pool := setupDatabase(t, ctx)

	users := NewUserRepository(pool)
	user, err := users.Create(ctx, domain.User{
		Username:     "alice",
		Email:        "a@b.com",
		PasswordHash: "hash",
		ImageFile:    domain.DefaultImageFile,
	})
	require.NoError(t, err)

	repo := NewActivityRepository(pool)
	weekStart := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	weekEnd := weekStart.AddDate(0, 0, 6)

	inside, err := repo.Create(ctx, domain.Activity{
		UserID:    user.ID,
		StartTime: weekStart.Add(8 * time.Hour),
		EndTime:   weekStart.Add(9 * time.Hour),
	})
	require.NoError(t, err)
	require.NotZero(t, inside.ID)

	// starts inside the window but ends past its end
	_, err = repo.Create(ctx, domain.Activity{
		UserID:    user.ID,
		StartTime: weekEnd.Add(-10 * time.Minute),
		EndTime:   weekEnd.Add(20 * time.Minute),
	})
	require.NoError(t, err)

	// previous year
	_, err = repo.Create(ctx, domain.Activity{
		UserID:    user.ID,
		StartTime: weekStart.AddDate(-1, 0, 0),
		EndTime:   weekStart.AddDate(-1, 0, 0).Add(time.Hour),
	})
	require.NoError(t, err)

	enclosed, err := repo.ListEnclosed(ctx, weekStart, weekEnd)
	require.NoError(t, err)
	require.Len(t, enclosed, 1)
	require.Equal(t, inside.ID, enclosed[0].ID)

	byYear, err := repo.ListByStartYear(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, byYear, 2)

	onOrAfter, err := repo.ListStartYearOnOrAfter(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, onOrAfter, 2)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// insertion order
	require.Equal(t, inside.ID, all[0].ID)
}

func TestSessionStoreExpiry(t *testing.T) {
	ctx := context.Background()
	pool := setupDatabase(t, ctx)

	users := NewUserRepository(pool)
	user, err := users.Create(ctx, domain.User{
		Username:     "alice",
		Email:        "a@b.com",
		PasswordHash: "hash",
		ImageFile:    domain.DefaultImageFile,
	})
	require.NoError(t, err)

	store := NewSessionStore(pool)
	issued := time.Now()
	store.now = func() time.Time { return issued }

	session, err := store.Create(ctx, user.ID, time.Hour)
	require.NoError(t, err)

	userID, err := store.Lookup(ctx, session.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID, userID)

	store.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = store.Lookup(ctx, session.Token)
	require.True(t, errors.Is(err, auth.ErrSessionNotFound))

	// the expired row was removed
	store.now = func() time.Time { return issued }
	_, err = store.Lookup(ctx, session.Token)
	require.True(t, errors.Is(err, auth.ErrSessionNotFound))
}
