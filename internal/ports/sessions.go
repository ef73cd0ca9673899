package ports

import (
	"context"
	"errors"
)

// ErrSessionNotFound is returned by Load when no document is stored.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists serialized session documents keyed by game id.
type SessionStore interface {
	Save(ctx context.Context, gameID string, document []byte) error
	Load(ctx context.Context, gameID string) ([]byte, error)
}
