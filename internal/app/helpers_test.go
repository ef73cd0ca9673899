package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/stretchr/testify/require"

	"cribbage/internal/domain"
	"cribbage/internal/logging"
	"cribbage/internal/ports"
)

var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func nopLogger() runtime.Logger { return logging.Discard() }

func newGame(t *testing.T, players int, seed uint64) *domain.Game {
	t.Helper()
	roster := make([]domain.PlayerInfo, players)
	for i := range roster {
		roster[i] = domain.PlayerInfo{ID: fmt.Sprintf("p%d", i), Name: fmt.Sprintf("Player %d", i)}
	}
	n := 0
	g, err := domain.NewGame("game-1", roster,
		domain.WithSeed(seed, seed+1),
		domain.WithClock(func() time.Time { return fixedNow }),
		domain.WithIDGenerator(func() string { n++; return fmt.Sprintf("req-%d", n) }),
	)
	require.NoError(t, err)
	return g
}

// answerFor is the first-legal-choice policy, computed from the request
// payload alone so remote test clients can use it too.
func answerFor(req domain.DecisionRequest) Response {
	r := Response{RequestID: req.RequestID, PlayerID: req.PlayerID, DecisionType: req.DecisionType}
	data := req.RequestData
	switch req.DecisionType {
	case domain.DecisionDiscard:
		r.Cards = append([]domain.Card(nil), data.Hand[:data.Count]...)
	case domain.DecisionPlayCard:
		for _, c := range data.Hand {
			if data.PeggingTotal+c.Value() <= domain.MaxPeggingTotal {
				card := c
				r.Card = &card
				break
			}
		}
	}
	return r
}

type firstChoiceAgent struct{}

func (firstChoiceAgent) SelectDealerCard(ctx context.Context, p Prompt, maxIndex int) (int, error) {
	return answerFor(p.Request).Index, nil
}

func (firstChoiceAgent) Discard(ctx context.Context, p Prompt, count int) ([]domain.Card, error) {
	return answerFor(p.Request).Cards, nil
}

func (firstChoiceAgent) CutDeck(ctx context.Context, p Prompt, maxIndex int) (int, error) {
	return answerFor(p.Request).Index, nil
}

func (firstChoiceAgent) PlayCard(ctx context.Context, p Prompt) (*domain.Card, error) {
	return answerFor(p.Request).Card, nil
}

func (firstChoiceAgent) Acknowledge(ctx context.Context, p Prompt) error { return nil }

func agentsFor(g *domain.Game, a Agent) map[string]Agent {
	out := make(map[string]Agent)
	for _, id := range g.PlayerIDs() {
		out[id] = a
	}
	return out
}

type recordingSink struct {
	mu        sync.Mutex
	snapshots []domain.Snapshot
	rejected  []error
	onSnap    func(domain.Snapshot)
}

var _ ports.SnapshotSink = (*recordingSink)(nil)

func (s *recordingSink) OnSnapshot(_ context.Context, snap domain.Snapshot) {
	s.mu.Lock()
	s.snapshots = append(s.snapshots, snap)
	s.mu.Unlock()
	if s.onSnap != nil {
		s.onSnap(snap)
	}
}

func (s *recordingSink) OnRejected(_ context.Context, _ string, _ domain.DecisionRequest, reason error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected = append(s.rejected, reason)
}

type memoryStore struct {
	mu    sync.Mutex
	docs  map[string][]byte
	saves int
}

func newMemoryStore() *memoryStore { return &memoryStore{docs: map[string][]byte{}} }

func (m *memoryStore) Save(_ context.Context, id string, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id] = append([]byte(nil), doc...)
	m.saves++
	return nil
}

func (m *memoryStore) Load(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, ports.ErrSessionNotFound
	}
	return doc, nil
}
