package bot

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"cribbage/internal/app"
	"cribbage/internal/bot/brain"
	"cribbage/internal/domain"
	"cribbage/internal/ports"
)

// Agent represents an autonomous bot player.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain

	mu       sync.Mutex
	memory   *brain.GameMemory
	rng      *rand.Rand
	minDelay time.Duration
	maxDelay time.Duration
}

var (
	_ app.Agent          = (*Agent)(nil)
	_ ports.SnapshotSink = (*Agent)(nil)
)

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithSeed makes the agent's blind choices reproducible.
func WithSeed(seed1, seed2 uint64) AgentOption {
	return func(a *Agent) { a.rng = rand.New(rand.NewPCG(seed1, seed2)) }
}

// WithThinkDelay pauses a random time in [lo, hi] before every choice.
func WithThinkDelay(lo, hi time.Duration) AgentOption {
	return func(a *Agent) { a.minDelay, a.maxDelay = lo, hi }
}

// NewAgent builds a bot seated as id.
func NewAgent(id, name string, strategy Brain, opts ...AgentOption) *Agent {
	a := &Agent{
		ID:       id,
		Name:     name,
		Strategy: strategy,
		memory:   brain.NewMemory(),
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// OnSnapshot feeds the bot's own view of every event into its memory.
func (a *Agent) OnSnapshot(_ context.Context, snap domain.Snapshot) {
	view := domain.RedactSnapshot(snap, a.ID)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.memory.Observe(view.GameEvent, a.ID)
	a.memory.Sync(view, a.ID)
}

func (a *Agent) OnRejected(context.Context, string, domain.DecisionRequest, error) {}

func (a *Agent) SelectDealerCard(ctx context.Context, p app.Prompt, maxIndex int) (int, error) {
	if err := a.think(ctx); err != nil {
		return 0, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rng.IntN(maxIndex + 1), nil
}

func (a *Agent) Discard(ctx context.Context, p app.Prompt, count int) ([]domain.Card, error) {
	if err := a.think(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	hand := p.Request.RequestData.Hand
	if count <= 0 || count > len(hand) {
		return nil, nil
	}
	return a.Strategy.Discard(a.situation(p), hand, count), nil
}

func (a *Agent) CutDeck(ctx context.Context, p app.Prompt, maxIndex int) (int, error) {
	if err := a.think(ctx); err != nil {
		return 0, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rng.IntN(maxIndex + 1), nil
}

// PlayCard returns nil when no card fits under the count, which is a go.
func (a *Agent) PlayCard(ctx context.Context, p app.Prompt) (*domain.Card, error) {
	if err := a.think(ctx); err != nil {
		return nil, err
	}
	data := p.Request.RequestData
	var playable []domain.Card
	for _, c := range data.Hand {
		if data.PeggingTotal+c.Value() <= domain.MaxPeggingTotal {
			playable = append(playable, c)
		}
	}
	if len(playable) == 0 {
		return nil, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	card := a.Strategy.PlayCard(a.situation(p), playable)
	return &card, nil
}

func (a *Agent) Acknowledge(ctx context.Context, _ app.Prompt) error {
	return a.think(ctx)
}

// situation must be called with a.mu held. A bot answering for another seat,
// as a fallback does, gets a memory built from that seat's view alone.
func (a *Agent) situation(p app.Prompt) Situation {
	mem := a.memory
	if p.PlayerID != a.ID {
		mem = brain.NewMemory()
	}
	mem.Sync(p.View, p.PlayerID)
	return Situation{PlayerID: p.PlayerID, View: p.View, Memory: mem, Rng: a.rng}
}

func (a *Agent) think(ctx context.Context) error {
	if a.maxDelay <= 0 {
		return ctx.Err()
	}
	d := a.minDelay
	if span := a.maxDelay - a.minDelay; span > 0 {
		a.mu.Lock()
		d += time.Duration(a.rng.Int64N(int64(span) + 1))
		a.mu.Unlock()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
