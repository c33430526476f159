// Package storage persists uploaded avatar images behind a driver-selected
// interface.
package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// AvatarStore saves avatar images and resolves their public URLs.
type AvatarStore interface {
	Save(ctx context.Context, name string, data []byte) error
	URL(name string) string
}

// RandomName returns a random hex filename preserving ext (including the
// leading dot).
func RandomName(ext string) (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate avatar name: %w", err)
	}
	return hex.EncodeToString(buf) + ext, nil
}
