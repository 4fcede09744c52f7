// Package auth holds API key credentials for mutating endpoints.
package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrKeyNotFound is returned when no credential matches the presented key.
var ErrKeyNotFound = errors.New("api key not found")

// APIKey is a stored credential. Only the HMAC of the raw key is persisted.
type APIKey struct {
	ID      string
	KeyHash string
	Name    string
}

// Repository resolves stored credentials by their hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKey, error)
}
