package app

import (
	"context"

	"cribbage/internal/domain"
)

// Prompt is everything an agent is shown for one decision.
type Prompt struct {
	PlayerID string
	// View is the latest snapshot redacted for PlayerID.
	View    domain.SnapshotView
	Request domain.DecisionRequest
	// Rejection is set when the previous answer to Request was refused.
	Rejection error
}

// Agent makes decisions for one seat. Every method may block until the
// context ends; returning an error aborts the decision.
type Agent interface {
	SelectDealerCard(ctx context.Context, p Prompt, maxIndex int) (int, error)
	Discard(ctx context.Context, p Prompt, count int) ([]domain.Card, error)
	CutDeck(ctx context.Context, p Prompt, maxIndex int) (int, error)
	// PlayCard returns nil to say go.
	PlayCard(ctx context.Context, p Prompt) (*domain.Card, error)
	Acknowledge(ctx context.Context, p Prompt) error
}
