package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/so647/study-time-tracker/internal/apperror"
)

func TestResetTokenRoundTrip(t *testing.T) {
	tokens := NewResetTokens("test-secret", 30*time.Minute)

	token, err := tokens.Issue(42)
	require.NoError(t, err)

	userID, err := tokens.Verify(token)
	require.NoError(t, err)
	require.Equal(t, 42, userID)
}

func TestResetTokenExpiry(t *testing.T) {
	issued := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	tokens := NewResetTokens("test-secret", 1800*time.Second)
	tokens.now = func() time.Time { return issued }

	token, err := tokens.Issue(7)
	require.NoError(t, err)

	tokens.now = func() time.Time { return issued.Add(1799 * time.Second) }
	userID, err := tokens.Verify(token)
	require.NoError(t, err)
	require.Equal(t, 7, userID)

	tokens.now = func() time.Time { return issued.Add(1801 * time.Second) }
	_, err = tokens.Verify(token)
	require.Error(t, err)
	require.True(t, apperror.IsType(err, apperror.Token))
}

func TestResetTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewResetTokens("secret-a", time.Hour).Issue(1)
	require.NoError(t, err)

	_, err = NewResetTokens("secret-b", time.Hour).Verify(token)
	require.Error(t, err)
	require.True(t, apperror.IsType(err, apperror.Token))
}

func TestResetTokenRejectsGarbage(t *testing.T) {
	_, err := NewResetTokens("test-secret", time.Hour).Verify("not-a-token")
	require.Error(t, err)
	require.True(t, apperror.IsType(err, apperror.Token))
}
