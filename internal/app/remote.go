package app

import (
	"context"
	"sort"
	"sync"

	"cribbage/internal/domain"
	"cribbage/internal/ports"
)

// Outcome is the broker's answer to a submitted response.
type Outcome int

const (
	// OutcomeAccepted means the response was handed to the waiting decision.
	OutcomeAccepted Outcome = iota
	// OutcomeStale means no open request matched: unknown or already answered
	// id, wrong player, or wrong decision type.
	OutcomeStale
)

func (o Outcome) String() string {
	if o == OutcomeAccepted {
		return "accepted"
	}
	return "stale"
}

// Response is a client's answer to one decision request.
type Response struct {
	RequestID    string              `json:"requestId"`
	PlayerID     string              `json:"playerId"`
	DecisionType domain.DecisionType `json:"decisionType"`
	Index        int                 `json:"index,omitempty"`
	Cards        []domain.Card       `json:"cards,omitempty"`
	// Card is nil for a go during pegging.
	Card *domain.Card `json:"card,omitempty"`
}

type waiter struct {
	req      domain.DecisionRequest
	ch       chan Response
	answered bool
}

// Broker matches asynchronous client responses to outstanding requests. It
// learns about requests from the snapshot stream, so it must be registered
// as a sink before the game runs.
type Broker struct {
	mu      sync.Mutex
	waiters map[string]*waiter
}

var _ ports.SnapshotSink = (*Broker)(nil)

func NewBroker() *Broker {
	return &Broker{waiters: make(map[string]*waiter)}
}

// OnSnapshot opens a waiter for every new pending request and drops waiters
// whose request was resolved some other way.
func (b *Broker) OnSnapshot(_ context.Context, snap domain.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	open := make(map[string]bool, len(snap.PendingDecisionRequests))
	for _, req := range snap.PendingDecisionRequests {
		open[req.RequestID] = true
		b.expectLocked(req)
	}
	for id := range b.waiters {
		if !open[id] {
			delete(b.waiters, id)
		}
	}
}

// OnRejected reopens the request so the player can answer again.
func (b *Broker) OnRejected(_ context.Context, _ string, req domain.DecisionRequest, _ error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.waiters[req.RequestID] = &waiter{req: req, ch: make(chan Response, 1)}
}

func (b *Broker) expectLocked(req domain.DecisionRequest) *waiter {
	if w, ok := b.waiters[req.RequestID]; ok {
		return w
	}
	w := &waiter{req: req, ch: make(chan Response, 1)}
	b.waiters[req.RequestID] = w
	return w
}

// Submit routes a response to its request. Each request accepts one response
// until it is resolved or rejected; duplicates and strays are stale.
func (b *Broker) Submit(r Response) Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.waiters[r.RequestID]
	if !ok || w.answered || w.req.PlayerID != r.PlayerID || w.req.DecisionType != r.DecisionType {
		return OutcomeStale
	}
	w.answered = true
	w.ch <- r
	return OutcomeAccepted
}

// Await blocks until a response for req arrives or ctx ends. Once ctx ends
// the request stops accepting responses, so an answer arriving after a
// timeout is stale rather than lost.
func (b *Broker) Await(ctx context.Context, req domain.DecisionRequest) (Response, error) {
	b.mu.Lock()
	w := b.expectLocked(req)
	b.mu.Unlock()

	select {
	case r := <-w.ch:
		return r, nil
	case <-ctx.Done():
	}

	b.mu.Lock()
	w.answered = true
	b.mu.Unlock()
	select {
	case r := <-w.ch:
		return r, nil
	default:
		return Response{}, ctx.Err()
	}
}

// Pending lists the open requests for a player, oldest first, so a
// reconnecting client can be prompted again.
func (b *Broker) Pending(playerID string) []domain.DecisionRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []domain.DecisionRequest
	for _, w := range b.waiters {
		if w.req.PlayerID == playerID && !w.answered {
			out = append(out, w.req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// RemoteAgent answers decisions with responses submitted to the broker.
type RemoteAgent struct {
	broker *Broker
}

var _ Agent = (*RemoteAgent)(nil)

func NewRemoteAgent(broker *Broker) *RemoteAgent {
	return &RemoteAgent{broker: broker}
}

func (a *RemoteAgent) SelectDealerCard(ctx context.Context, p Prompt, _ int) (int, error) {
	r, err := a.broker.Await(ctx, p.Request)
	return r.Index, err
}

func (a *RemoteAgent) Discard(ctx context.Context, p Prompt, _ int) ([]domain.Card, error) {
	r, err := a.broker.Await(ctx, p.Request)
	return r.Cards, err
}

func (a *RemoteAgent) CutDeck(ctx context.Context, p Prompt, _ int) (int, error) {
	r, err := a.broker.Await(ctx, p.Request)
	return r.Index, err
}

func (a *RemoteAgent) PlayCard(ctx context.Context, p Prompt) (*domain.Card, error) {
	r, err := a.broker.Await(ctx, p.Request)
	return r.Card, err
}

func (a *RemoteAgent) Acknowledge(ctx context.Context, p Prompt) error {
	_, err := a.broker.Await(ctx, p.Request)
	return err
}
