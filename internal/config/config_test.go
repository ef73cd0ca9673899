package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadGameConfigKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"players": 3, "bot_level": "random", "seat_token_secret": "ignored"}`), 0o600))

	c, err := readGameConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Players)
	assert.Equal(t, "random", c.BotLevel)
	assert.Equal(t, Default().MaxInvalidAttempts, c.MaxInvalidAttempts)
	assert.Empty(t, c.SeatTokenSecret)
}

func TestReadGameConfigErrors(t *testing.T) {
	_, err := readGameConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))
	_, err = readGameConfig(path)
	assert.Error(t, err)
}

func TestApplyVarsUsesLowerCaseRuntimeKeys(t *testing.T) {
	c := Default()
	err := ApplyVars(&c, map[string]string{
		"cribbage_players":                  "4",
		"cribbage_decision_timeout_seconds": "0",
		"cribbage_checkpoint_sessions":      "false",
		"cribbage_seat_token_secret":        "s3cret",
		"other_bot_level":                 "ignored",
	})
	require.NoError(t, err)

	assert.Equal(t, 4, c.Players)
	assert.Equal(t, time.Duration(0), c.DecisionTimeout())
	assert.False(t, c.CheckpointSessions)
	assert.Equal(t, "s3cret", c.SeatTokenSecret)
	assert.Equal(t, "greedy", c.BotLevel)
}

func TestApplyVarsRejectsMalformedValue(t *testing.T) {
	c := Default()
	assert.Error(t, ApplyVars(&c, map[string]string{"cribbage_players": "many"}))
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CRIBBAGE_BOT_MIN_DELAY_MILLIS", "900")
	t.Setenv("CRIBBAGE_BOT_MAX_DELAY_MILLIS", "100")

	c := Default()
	require.NoError(t, ApplyEnv(&c))
	lo, hi := c.BotDelay()
	assert.Equal(t, 900*time.Millisecond, lo)
	assert.Equal(t, lo, hi, "max is clamped to min")
}

func TestGetGameConfigFallsBackToDefaults(t *testing.T) {
	assert.Equal(t, Default(), GetGameConfig())
	assert.Equal(t, 30*time.Second, Default().DecisionTimeout())
	assert.Equal(t, 2*time.Hour, Default().SeatTokenTTL())
}
