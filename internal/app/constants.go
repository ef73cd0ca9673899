package app

import (
	"time"

	"cribbage/internal/domain"
)

// MinPlayersToStartGame defines the minimum number of occupied seats required to start a game.
const MinPlayersToStartGame = domain.MinPlayers

const (
	// DefaultMaxInvalidAttempts bounds how often one request is re-asked after rejected answers.
	DefaultMaxInvalidAttempts = 3
	// DefaultDecisionTimeout of zero waits for agents indefinitely.
	DefaultDecisionTimeout time.Duration = 0
)
