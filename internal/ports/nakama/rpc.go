package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"

	"cribbage/internal/config"
	"cribbage/internal/ports"
)

// QuickMatchRequest is the optional RPC payload.
type QuickMatchRequest struct {
	PlayerCount int `json:"player_count"`
}

// QuickMatchResponse is the payload returned to clients when requesting a lobby match.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// StatsResponse is the payload of RpcStats.
type StatsResponse struct {
	GamesPlayed int64 `json:"games_played"`
	GamesWon    int64 `json:"games_won"`
	TotalPoints int64 `json:"total_points"`
}

// matchModule is the slice of runtime.NakamaModule the quick match RPC uses.
type matchModule interface {
	MatchList(ctx context.Context, limit int, authoritative bool, label string, minSize, maxSize *int, query string) ([]*api.Match, error)
	MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error)
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcStats, rpcStats)
}

func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return quickMatch(ctx, logger, nk, payload)
}

// quickMatch joins the first lobby of the requested size with an open seat,
// or creates one; seat/owner assignment happens in MatchJoin.
func quickMatch(ctx context.Context, logger runtime.Logger, nk matchModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	req := QuickMatchRequest{PlayerCount: config.GetGameConfig().Players}
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("invalid quick match payload", 3) // INVALID_ARGUMENT
		}
	}
	players := clampPlayers(req.PlayerCount)

	query := fmt.Sprintf("+label.game:%s +label.phase:%s +label.players:%d +label.%s:>=1", labelGame, phaseLobby, players, MatchLabelKeyOpenSeats)
	limit := 10
	authoritative := true
	minSize := 0
	maxSize := players - 1

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("quickMatch [User:%s]: Failed to list matches: %v", userID, err)
		return "", err
	}

	resp := QuickMatchResponse{}
	if len(matches) > 0 {
		resp.MatchID = matches[0].GetMatchId()
		logger.Info("quickMatch [User:%s]: Found existing match %s", userID, resp.MatchID)
	} else {
		resp.MatchID, err = nk.MatchCreate(ctx, MatchNameCribbage, map[string]interface{}{ParamPlayerCount: players})
		if err != nil {
			logger.Error("quickMatch [User:%s]: Failed to create match: %v", userID, err)
			return "", err
		}
		resp.IsNew = true
		logger.Info("quickMatch [User:%s]: Created new match %s", userID, resp.MatchID)
	}

	b, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func rpcStats(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return playerStats(ctx, logger, NewNakamaStatsAdapter(nk))
}

func playerStats(ctx context.Context, logger runtime.Logger, stats ports.StatsPort) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("authentication required", 16) // UNAUTHENTICATED
	}
	s, err := stats.GetStats(ctx, userID)
	if err != nil {
		logger.Error("playerStats [User:%s]: %v", userID, err)
		return "", err
	}
	b, err := json.Marshal(StatsResponse{GamesPlayed: s.GamesPlayed, GamesWon: s.GamesWon, TotalPoints: s.TotalPoints})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
