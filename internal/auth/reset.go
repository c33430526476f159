package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/so647/study-time-tracker/internal/apperror"
)

// resetClaims is the payload of a password-reset token.
type resetClaims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// ResetTokens issues and verifies signed, time-limited password-reset tokens.
type ResetTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewResetTokens constructs a ResetTokens signer with the given secret and
// token lifetime.
func NewResetTokens(secret string, ttl time.Duration) *ResetTokens {
	return &ResetTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token embedding userID, valid for the configured lifetime.
func (t *ResetTokens) Issue(userID int) (string, error) {
	now := t.now()
	claims := &resetClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", apperror.NewInternal("failed to sign reset token", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns the embedded
// user id. Any failure, including expiry, yields a token error.
func (t *ResetTokens) Verify(token string) (int, error) {
	claims := &resetClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return 0, apperror.NewToken("that is an invalid or expired token", err)
	}
	return claims.UserID, nil
}
