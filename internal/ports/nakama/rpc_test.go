package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cribbage/internal/logging"
	"cribbage/internal/ports"
)

func userContext(userID string) context.Context {
	return context.WithValue(context.Background(), runtime.RUNTIME_CTX_USER_ID, userID)
}

func TestQuickMatch(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		existing  []*api.Match
		wantID    string
		wantNew   bool
		wantQuery string
	}{
		{
			name:      "JoinsOpenLobby",
			payload:   `{"player_count":3}`,
			existing:  []*api.Match{{MatchId: "match-open"}},
			wantID:    "match-open",
			wantQuery: "+label.game:cribbage +label.phase:lobby +label.players:3 +label.open:>=1",
		},
		{
			name:      "CreatesWhenNoneOpen",
			payload:   `{"player_count":4}`,
			wantID:    "match-new",
			wantNew:   true,
			wantQuery: "+label.game:cribbage +label.phase:lobby +label.players:4 +label.open:>=1",
		},
		{
			name:      "EmptyPayloadUsesDefaultSize",
			wantID:    "match-new",
			wantNew:   true,
			wantQuery: "+label.game:cribbage +label.phase:lobby +label.players:2 +label.open:>=1",
		},
		{
			name:      "OversizedTableIsClamped",
			payload:   `{"player_count":9}`,
			wantID:    "match-new",
			wantNew:   true,
			wantQuery: "+label.game:cribbage +label.phase:lobby +label.players:4 +label.open:>=1",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			nk := &mockMatches{existing: test.existing}
			out, err := quickMatch(userContext("user-1"), logging.Discard(), nk, test.payload)
			require.NoError(t, err)

			var resp QuickMatchResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, test.wantID, resp.MatchID)
			assert.Equal(t, test.wantNew, resp.IsNew)
			assert.Equal(t, test.wantQuery, nk.lastQuery)
			if test.wantNew {
				require.NotNil(t, nk.createdWith)
				assert.Contains(t, nk.createdWith, ParamPlayerCount)
			} else {
				assert.Nil(t, nk.createdWith)
			}
		})
	}
}

func TestQuickMatchRejectsBadPayload(t *testing.T) {
	_, err := quickMatch(userContext("user-1"), logging.Discard(), &mockMatches{}, "{")
	require.Error(t, err)

	var rtErr *runtime.Error
	require.True(t, errors.As(err, &rtErr))
	assert.Equal(t, 3, rtErr.Code)
}

type stubStats struct {
	stats ports.PlayerStats
	err   error
	asked string
}

func (s *stubStats) GetStats(ctx context.Context, userID string) (ports.PlayerStats, error) {
	s.asked = userID
	return s.stats, s.err
}

func (s *stubStats) RecordResults(ctx context.Context, updates []ports.ResultUpdate) error {
	return nil
}

func TestPlayerStats(t *testing.T) {
	stats := &stubStats{stats: ports.PlayerStats{GamesPlayed: 4, GamesWon: 3, TotalPoints: 410}}
	out, err := playerStats(userContext("user-1"), logging.Discard(), stats)
	require.NoError(t, err)
	assert.Equal(t, "user-1", stats.asked)
	assert.JSONEq(t, `{"games_played":4,"games_won":3,"total_points":410}`, out)
}

func TestPlayerStatsRequiresUser(t *testing.T) {
	_, err := playerStats(context.Background(), logging.Discard(), &stubStats{})
	var rtErr *runtime.Error
	require.True(t, errors.As(err, &rtErr))
	assert.Equal(t, 16, rtErr.Code)
}

func TestPlayerStatsPropagatesErrors(t *testing.T) {
	boom := fmt.Errorf("storage down")
	_, err := playerStats(userContext("user-1"), logging.Discard(), &stubStats{err: boom})
	assert.ErrorIs(t, err, boom)
}
