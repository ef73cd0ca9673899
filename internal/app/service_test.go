package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cribbage/internal/domain"
	"cribbage/internal/ports"
)

func TestStartGameSkipsOpenSeats(t *testing.T) {
	svc := NewService(nil, domain.WithSeed(1, 2))
	g, err := svc.StartGame("match-1", []Seat{{UserID: "a", Name: "A"}, {}, {UserID: "b", Name: "B"}, {}})
	require.NoError(t, err)

	assert.Equal(t, "match-1", g.ID())
	assert.Equal(t, []string{"a", "b"}, g.PlayerIDs())
	assert.Equal(t, domain.PhaseDealerSelection, g.Phase())
}

func TestStartGameSeatLimits(t *testing.T) {
	svc := NewService(nil)

	_, err := svc.StartGame("m", []Seat{{UserID: "a"}, {}})
	assert.ErrorIs(t, err, ErrTooFewPlayers)

	_, err = svc.StartGame("m", []Seat{{UserID: "a"}, {UserID: "b"}, {UserID: "c"}, {UserID: "d"}, {UserID: "e"}})
	assert.ErrorIs(t, err, ErrTooManyPlayers)

	_, err = svc.StartGame("m", []Seat{{UserID: "a"}, {UserID: "a"}})
	assert.ErrorIs(t, err, domain.ErrInvalidRoster)
}

func TestResumeGame(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store)

	_, err := svc.ResumeGame(context.Background(), "missing")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	g := newGame(t, 2, 3)
	doc, err := g.ToJSON()
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), g.ID(), doc))

	restored, err := svc.ResumeGame(context.Background(), g.ID())
	require.NoError(t, err)
	assert.Equal(t, g.SnapshotID(), restored.SnapshotID())

	_, err = NewService(nil).ResumeGame(context.Background(), g.ID())
	assert.ErrorIs(t, err, ErrResumeDisabled)
}
