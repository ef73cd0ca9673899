package nakama

import (
	"context"
	"errors"
	"testing"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cribbage/internal/ports"
)

func TestSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMockStorage()
	sessions := NewNakamaSessionStore(store)

	_, err := sessions.Load(ctx, "game-1")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	require.NoError(t, sessions.Save(ctx, "game-1", []byte(`{"version":1}`)))
	require.NoError(t, sessions.Save(ctx, "game-1", []byte(`{"version":2}`)))

	doc, err := sessions.Load(ctx, "game-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":2}`, string(doc), "saves overwrite unconditionally")
}

type failingStorage struct{ err error }

func (f failingStorage) StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error) {
	return nil, f.err
}

func (f failingStorage) StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	return nil, f.err
}

func TestSessionStoreWrapsErrors(t *testing.T) {
	boom := errors.New("boom")
	sessions := NewNakamaSessionStore(failingStorage{err: boom})

	assert.ErrorIs(t, sessions.Save(context.Background(), "g", nil), boom)
	_, err := sessions.Load(context.Background(), "g")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestStatsAdapterRecordsResults(t *testing.T) {
	ctx := context.Background()
	store := newMockStorage()
	stats := NewNakamaStatsAdapter(store)

	empty, err := stats.GetStats(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, ports.PlayerStats{}, empty)

	require.NoError(t, stats.RecordResults(ctx, []ports.ResultUpdate{
		{UserID: "user-1", Won: true, Points: 121, Metadata: map[string]interface{}{"game_id": "g1"}},
		{UserID: "user-2", Points: 98},
	}))
	require.NoError(t, stats.RecordResults(ctx, []ports.ResultUpdate{
		{UserID: "user-1", Points: 80},
	}))

	s, err := stats.GetStats(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, ports.PlayerStats{GamesPlayed: 2, GamesWon: 1, TotalPoints: 201}, s)

	s, err = stats.GetStats(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, ports.PlayerStats{GamesPlayed: 1, TotalPoints: 98}, s)

	raw, ok := store.value(StatsCollection, statsKey, "user-1")
	require.True(t, ok)
	assert.Contains(t, raw, `"last_game_id":"g1"`)
}

func TestStatsAdapterRetriesLostRace(t *testing.T) {
	ctx := context.Background()
	store := newMockStorage()
	stats := NewNakamaStatsAdapter(store)

	store.rejectNext = 2
	require.NoError(t, stats.RecordResults(ctx, []ports.ResultUpdate{{UserID: "user-1", Won: true, Points: 121}}))
	assert.Equal(t, 3, store.writes)

	s, err := stats.GetStats(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.GamesPlayed, "retries are not double counted")
}

func TestStatsAdapterGivesUpAfterRetries(t *testing.T) {
	store := newMockStorage()
	store.rejectNext = maxStatsWriteAttempts
	stats := NewNakamaStatsAdapter(store)

	err := stats.RecordResults(context.Background(), []ports.ResultUpdate{{UserID: "user-1"}})
	assert.ErrorIs(t, err, runtime.ErrStorageRejectedVersion)
	_, ok := store.value(StatsCollection, statsKey, "user-1")
	assert.False(t, ok)
}

func TestStatsAdapterNoUpdates(t *testing.T) {
	store := newMockStorage()
	require.NoError(t, NewNakamaStatsAdapter(store).RecordResults(context.Background(), nil))
	assert.Zero(t, store.writes)
}
