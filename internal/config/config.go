package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// GameConfig holds table settings shared by the Nakama module and the simulator.
type GameConfig struct {
	// Players is the default table size for new matches.
	Players                int    `json:"players" env:"PLAYERS"`
	DecisionTimeoutSeconds int    `json:"decision_timeout_seconds" env:"DECISION_TIMEOUT_SECONDS"`
	MaxInvalidAttempts     int    `json:"max_invalid_attempts" env:"MAX_INVALID_ATTEMPTS"`
	BotLevel               string `json:"bot_level" env:"BOT_LEVEL"`
	BotMinDelayMillis      int    `json:"bot_min_delay_millis" env:"BOT_MIN_DELAY_MILLIS"`
	BotMaxDelayMillis      int    `json:"bot_max_delay_millis" env:"BOT_MAX_DELAY_MILLIS"`
	// BotAutoFillDelaySeconds configures how many seconds to wait before adding a bot to a solo human lobby.
	BotAutoFillDelaySeconds int  `json:"bot_auto_fill_delay_seconds" env:"BOT_AUTO_FILL_DELAY_SECONDS"`
	BotsEnabled             bool `json:"bots_enabled" env:"BOTS_ENABLED"`
	CheckpointSessions      bool `json:"checkpoint_sessions" env:"CHECKPOINT_SESSIONS"`
	SeatTokenTTLMinutes     int  `json:"seat_token_ttl_minutes" env:"SEAT_TOKEN_TTL_MINUTES"`
	// SeatTokenSecret is never read from the JSON file.
	SeatTokenSecret string `json:"-" env:"SEAT_TOKEN_SECRET"`
}

// Default returns the settings used when no file is loaded.
func Default() GameConfig {
	return GameConfig{
		Players:                 2,
		DecisionTimeoutSeconds:  30,
		MaxInvalidAttempts:      3,
		BotLevel:                "greedy",
		BotMinDelayMillis:       400,
		BotMaxDelayMillis:       1200,
		BotAutoFillDelaySeconds: 5,
		BotsEnabled:             true,
		CheckpointSessions:      true,
		SeatTokenTTLMinutes:     120,
	}
}

// DecisionTimeout converts DecisionTimeoutSeconds; zero or less means no timeout.
func (c GameConfig) DecisionTimeout() time.Duration {
	if c.DecisionTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.DecisionTimeoutSeconds) * time.Second
}

// BotDelay returns the think-time range for bots.
func (c GameConfig) BotDelay() (time.Duration, time.Duration) {
	lo, hi := c.BotMinDelayMillis, c.BotMaxDelayMillis
	if lo < 0 {
		lo = 0
	}
	if hi < lo {
		hi = lo
	}
	return time.Duration(lo) * time.Millisecond, time.Duration(hi) * time.Millisecond
}

// SeatTokenTTL converts SeatTokenTTLMinutes.
func (c GameConfig) SeatTokenTTL() time.Duration {
	return time.Duration(c.SeatTokenTTLMinutes) * time.Minute
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path. Fields
// missing from the file keep their defaults.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		c, err := readGameConfig(path)
		if err != nil {
			loadErr = err
			return
		}
		cfg = &c
	})
	return loadErr
}

func readGameConfig(path string) (GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GameConfig{}, fmt.Errorf("failed to read game config: %w", err)
	}
	c := Default()
	if err := json.Unmarshal(data, &c); err != nil {
		return GameConfig{}, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	return c, nil
}

// GetGameConfig returns a copy of the loaded configuration, or the defaults.
func GetGameConfig() GameConfig {
	if cfg == nil {
		return Default()
	}
	return *cfg
}
