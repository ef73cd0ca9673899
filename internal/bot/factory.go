package bot

import (
	"fmt"
	"strings"
)

// BotLevel selects a brain.
type BotLevel int

const (
	BotLevelRandom BotLevel = iota
	BotLevelGreedy
	BotLevelSmart
)

func (l BotLevel) String() string {
	switch l {
	case BotLevelRandom:
		return "random"
	case BotLevelGreedy:
		return "greedy"
	case BotLevelSmart:
		return "smart"
	default:
		return fmt.Sprintf("BotLevel(%d)", int(l))
	}
}

// ParseBotLevel accepts a level name or an identity difficulty.
func ParseBotLevel(s string) (BotLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "random", "easy":
		return BotLevelRandom, nil
	case "greedy", "medium", "":
		return BotLevelGreedy, nil
	case "smart", "hard":
		return BotLevelSmart, nil
	default:
		return 0, fmt.Errorf("unknown bot level: %q", s)
	}
}

// NewBrain creates a new AI brain based on the specified level.
func NewBrain(level BotLevel) (Brain, error) {
	switch level {
	case BotLevelRandom:
		return &RandomBot{}, nil
	case BotLevelGreedy:
		return &GreedyBot{}, nil
	case BotLevelSmart:
		return &SmartBot{Tuning: DefaultTuning}, nil
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
}
