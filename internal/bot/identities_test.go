package bot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolPickSkipsTakenSeats(t *testing.T) {
	pool := NewPool([]Identity{
		{UserID: "bot-a", DisplayName: "Muggins", Level: "smart"},
		{UserID: "bot-b", Username: "nobs"},
	})

	first := pool.Pick(nil)
	assert.Equal(t, "bot-a", first.UserID)
	second := pool.Pick(map[string]bool{"bot-a": true})
	assert.Equal(t, "bot-b", second.UserID)

	extra := pool.Pick(map[string]bool{"bot-a": true, "bot-b": true})
	assert.True(t, strings.HasPrefix(extra.UserID, "bot-"))
	assert.True(t, pool.IsBot(extra.UserID))
	assert.NotEmpty(t, pool.DisplayName(extra.UserID))

	assert.Equal(t, "nobs", pool.DisplayName("bot-b"))
	assert.False(t, pool.IsBot("human"))
}

func TestSpawnUsesIdentityLevel(t *testing.T) {
	a, err := Spawn(Identity{UserID: "bot-a", DisplayName: "Muggins", Level: "smart"}, BotLevelRandom, 0, 0)
	require.NoError(t, err)
	assert.IsType(t, &SmartBot{}, a.Strategy)
	assert.Equal(t, "Muggins", a.Name)

	a, err = Spawn(Identity{UserID: "bot-b"}, BotLevelGreedy, time.Millisecond, 2*time.Millisecond)
	require.NoError(t, err)
	assert.IsType(t, &GreedyBot{}, a.Strategy)

	_, err = Spawn(Identity{UserID: "bot-c", Level: "god"}, BotLevelGreedy, 0, 0)
	assert.Error(t, err)
}

func TestLoadIdentities(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bots.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"user_id":"bot-x","display_name":"His Heels","level":"greedy"}]`), 0o600))

	require.NoError(t, LoadIdentities(path))
	assert.True(t, Default().IsBot("bot-x"))
	assert.Equal(t, "His Heels", Default().DisplayName("bot-x"))
}
