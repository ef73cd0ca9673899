package ports

import "context"

// ResultUpdate is one player's contribution to a finished game.
type ResultUpdate struct {
	UserID   string
	Won      bool
	Points   int
	Metadata map[string]interface{}
}

// PlayerStats are the lifetime counters kept per user.
type PlayerStats struct {
	GamesPlayed int64
	GamesWon    int64
	TotalPoints int64
}

// StatsPort records finished games.
type StatsPort interface {
	// GetStats returns the counters for a user; unknown users have zero stats.
	GetStats(ctx context.Context, userID string) (PlayerStats, error)

	// RecordResults applies all updates of one game together.
	RecordResults(ctx context.Context, updates []ResultUpdate) error
}
