package app

import (
	"context"

	"github.com/heroiclabs/nakama-common/runtime"

	"cribbage/internal/domain"
	"cribbage/internal/ports"
)

// StatsRecorder writes lifetime results when a game ends.
type StatsRecorder struct {
	stats  ports.StatsPort
	logger runtime.Logger
	skip   func(userID string) bool
}

var _ ports.SnapshotSink = (*StatsRecorder)(nil)

// NewStatsRecorder builds a sink that records every seat for which skip
// returns false. skip may be nil.
func NewStatsRecorder(stats ports.StatsPort, logger runtime.Logger, skip func(userID string) bool) *StatsRecorder {
	if skip == nil {
		skip = func(string) bool { return false }
	}
	return &StatsRecorder{stats: stats, logger: logger, skip: skip}
}

func (r *StatsRecorder) OnSnapshot(ctx context.Context, snap domain.Snapshot) {
	if snap.GameEvent.ActionType != domain.ActionWin {
		return
	}
	updates := make([]ports.ResultUpdate, 0, len(snap.GameState.Players))
	for _, p := range snap.GameState.Players {
		if r.skip(p.ID) {
			continue
		}
		updates = append(updates, ports.ResultUpdate{
			UserID: p.ID,
			Won:    p.ID == snap.GameState.WinnerID,
			Points: p.Score,
			Metadata: map[string]interface{}{
				"game_id": snap.GameState.ID,
				"rounds":  snap.GameState.RoundNumber,
			},
		})
	}
	if len(updates) == 0 {
		return
	}
	if err := r.stats.RecordResults(ctx, updates); err != nil {
		r.logger.Error("RecordResults: game %s: %v", snap.GameState.ID, err)
	}
}

func (r *StatsRecorder) OnRejected(context.Context, string, domain.DecisionRequest, error) {}
