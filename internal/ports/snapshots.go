package ports

import (
	"context"

	"cribbage/internal/domain"
)

// SnapshotSink observes a running game. Calls arrive in order from the
// goroutine driving the game and must not block for long.
type SnapshotSink interface {
	// OnSnapshot receives every snapshot, unredacted, in emission order.
	OnSnapshot(ctx context.Context, snap domain.Snapshot)

	// OnRejected reports an answer that failed validation. The same request
	// stays pending and will be asked again.
	OnRejected(ctx context.Context, playerID string, req domain.DecisionRequest, reason error)
}
