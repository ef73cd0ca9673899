package app

import (
	"context"

	"cribbage/internal/domain"
	"cribbage/internal/ports"
)

// EventKind identifies outbound events for transport dispatch.
type EventKind string

const (
	EventSnapshot  EventKind = "snapshot"
	EventRejected  EventKind = "rejected"
	EventGameEnded EventKind = "game_ended"
)

// Event is an outbound message with targeted recipients.
type Event struct {
	Kind    EventKind
	Payload any
	// Recipients are user IDs; domain.Spectator addresses everyone without a seat.
	Recipients []string
}

// RejectedPayload tells a player why an answer was refused.
type RejectedPayload struct {
	Request domain.RequestView `json:"request"`
	Reason  string             `json:"reason"`
}

// GameEndedPayload summarizes a finished game.
type GameEndedPayload struct {
	WinnerID string         `json:"winnerId"`
	Scores   map[string]int `json:"scores"`
	Rounds   int            `json:"rounds"`
}

// Publisher turns the snapshot stream into per-viewer events: every seated
// player and the spectators get their own redacted copy.
type Publisher struct {
	out chan<- Event
}

var _ ports.SnapshotSink = (*Publisher)(nil)

func NewPublisher(out chan<- Event) *Publisher {
	return &Publisher{out: out}
}

func (p *Publisher) OnSnapshot(ctx context.Context, snap domain.Snapshot) {
	viewers := make([]string, 0, len(snap.GameState.Players)+1)
	for _, pl := range snap.GameState.Players {
		viewers = append(viewers, pl.ID)
	}
	viewers = append(viewers, domain.Spectator)
	for _, viewer := range viewers {
		p.send(ctx, Event{
			Kind:       EventSnapshot,
			Payload:    domain.RedactSnapshot(snap, viewer),
			Recipients: []string{viewer},
		})
	}

	if snap.GameEvent.ActionType == domain.ActionWin {
		scores := make(map[string]int, len(snap.GameState.Players))
		for _, pl := range snap.GameState.Players {
			scores[pl.ID] = pl.Score
		}
		p.send(ctx, Event{
			Kind: EventGameEnded,
			Payload: GameEndedPayload{
				WinnerID: snap.GameState.WinnerID,
				Scores:   scores,
				Rounds:   snap.GameState.RoundNumber,
			},
		})
	}
}

func (p *Publisher) OnRejected(ctx context.Context, playerID string, req domain.DecisionRequest, reason error) {
	views := domain.RedactRequests([]domain.DecisionRequest{req}, playerID)
	p.send(ctx, Event{
		Kind:       EventRejected,
		Payload:    RejectedPayload{Request: views[0], Reason: reason.Error()},
		Recipients: []string{playerID},
	})
}

func (p *Publisher) send(ctx context.Context, e Event) {
	select {
	case p.out <- e:
	case <-ctx.Done():
	}
}
