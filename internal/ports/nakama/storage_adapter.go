package nakama

import (
	"context"
	"fmt"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"

	"cribbage/internal/ports"
)

// storageModule is the slice of runtime.NakamaModule the storage adapters use.
type storageModule interface {
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error)
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
}

// NakamaSessionStore implements ports.SessionStore on system-owned storage objects.
type NakamaSessionStore struct {
	nk storageModule
}

// NewNakamaSessionStore creates a new session store.
func NewNakamaSessionStore(nk storageModule) *NakamaSessionStore {
	return &NakamaSessionStore{nk: nk}
}

// Save overwrites the document stored for gameID.
func (s *NakamaSessionStore) Save(ctx context.Context, gameID string, document []byte) error {
	_, err := s.nk.StorageWrite(ctx, []*runtime.StorageWrite{{
		Collection:      SessionCollection,
		Key:             gameID,
		Value:           string(document),
		PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
		PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
	}})
	if err != nil {
		return fmt.Errorf("failed to write session %s: %w", gameID, err)
	}
	return nil
}

// Load returns ports.ErrSessionNotFound when nothing is stored for gameID.
func (s *NakamaSessionStore) Load(ctx context.Context, gameID string) ([]byte, error) {
	objects, err := s.nk.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: SessionCollection,
		Key:        gameID,
	}})
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", gameID, err)
	}
	if len(objects) == 0 {
		return nil, ports.ErrSessionNotFound
	}
	return []byte(objects[0].GetValue()), nil
}

var _ ports.SessionStore = (*NakamaSessionStore)(nil)
