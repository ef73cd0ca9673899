package nakama

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"

	"cribbage/internal/bot"
)

func init() {
	// Load bot identities for testing.
	if err := bot.LoadIdentities("testdata/bot_identities.json"); err != nil {
		panic("Failed to load bot identities for tests: " + err.Error())
	}
}

// testPresence implements runtime.Presence.
type testPresence struct {
	userID string
}

func (p testPresence) GetHidden() bool                   { return false }
func (p testPresence) GetPersistence() bool              { return false }
func (p testPresence) GetUsername() string               { return "name-" + p.userID }
func (p testPresence) GetStatus() string                 { return "" }
func (p testPresence) GetReason() runtime.PresenceReason { return 0 }
func (p testPresence) GetUserId() string                 { return p.userID }
func (p testPresence) GetSessionId() string              { return "session-" + p.userID }
func (p testPresence) GetNodeId() string                 { return "node" }

type sentMessage struct {
	opCode    int64
	data      []byte
	presences []runtime.Presence
}

func (m sentMessage) sentTo(userID string) bool {
	for _, p := range m.presences {
		if p.GetUserId() == userID {
			return true
		}
	}
	return false
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	messages  []sentMessage
	lastLabel string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.messages = append(md.messages, sentMessage{opCode: opCode, data: append([]byte(nil), data...), presences: presences})
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.lastLabel = label
	return nil
}

func (md *mockDispatcher) withOp(opCode int64) []sentMessage {
	var out []sentMessage
	for _, m := range md.messages {
		if m.opCode == opCode {
			out = append(out, m)
		}
	}
	return out
}

type storedObject struct {
	value   string
	version int
}

// mockStorage is an in-memory storageModule with conditional writes.
type mockStorage struct {
	mu         sync.Mutex
	objects    map[string]storedObject
	rejectNext int
	writes     int
}

func newMockStorage() *mockStorage {
	return &mockStorage{objects: make(map[string]storedObject)}
}

func storageKey(collection, key, userID string) string {
	return collection + "/" + key + "/" + userID
}

func (m *mockStorage) StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*api.StorageObject
	for _, r := range reads {
		obj, ok := m.objects[storageKey(r.Collection, r.Key, r.UserID)]
		if !ok {
			continue
		}
		out = append(out, &api.StorageObject{
			Collection: r.Collection,
			Key:        r.Key,
			UserId:     r.UserID,
			Value:      obj.value,
			Version:    strconv.Itoa(obj.version),
		})
	}
	return out, nil
}

func (m *mockStorage) StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.rejectNext > 0 {
		m.rejectNext--
		return nil, runtime.ErrStorageRejectedVersion
	}
	for _, w := range writes {
		obj, exists := m.objects[storageKey(w.Collection, w.Key, w.UserID)]
		switch {
		case w.Version == "":
		case w.Version == "*":
			if exists {
				return nil, runtime.ErrStorageRejectedVersion
			}
		case !exists || w.Version != strconv.Itoa(obj.version):
			return nil, runtime.ErrStorageRejectedVersion
		}
	}
	acks := make([]*api.StorageObjectAck, 0, len(writes))
	for _, w := range writes {
		k := storageKey(w.Collection, w.Key, w.UserID)
		obj := m.objects[k]
		obj.value = w.Value
		obj.version++
		m.objects[k] = obj
		acks = append(acks, &api.StorageObjectAck{Collection: w.Collection, Key: w.Key, UserId: w.UserID, Version: strconv.Itoa(obj.version)})
	}
	return acks, nil
}

func (m *mockStorage) value(collection, key, userID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[storageKey(collection, key, userID)]
	return obj.value, ok
}

// mockMatches implements matchModule.
type mockMatches struct {
	existing    []*api.Match
	lastQuery   string
	createdWith map[string]interface{}
}

func (m *mockMatches) MatchList(ctx context.Context, limit int, authoritative bool, label string, minSize, maxSize *int, query string) ([]*api.Match, error) {
	m.lastQuery = query
	return m.existing, nil
}

func (m *mockMatches) MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error) {
	if module != MatchNameCribbage {
		return "", fmt.Errorf("unexpected module %s", module)
	}
	m.createdWith = params
	return "match-new", nil
}

// mockAccounts implements accountModule.
type mockAccounts struct {
	userID, username, displayName string
	metadata                      map[string]interface{}
}

func (m *mockAccounts) AccountUpdateId(ctx context.Context, userID, username string, metadata map[string]interface{}, displayName, timezone, location, langTag, avatarUrl string) error {
	m.userID, m.username, m.displayName, m.metadata = userID, username, displayName, metadata
	return nil
}
