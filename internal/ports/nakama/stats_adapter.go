package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"

	"cribbage/internal/ports"
)

const maxStatsWriteAttempts = 3

// statsRecord is the stored shape of ports.PlayerStats.
type statsRecord struct {
	GamesPlayed int64  `json:"games_played"`
	GamesWon    int64  `json:"games_won"`
	TotalPoints int64  `json:"total_points"`
	LastGameID  string `json:"last_game_id,omitempty"`
}

// NakamaStatsAdapter implements ports.StatsPort with one storage object per user.
type NakamaStatsAdapter struct {
	nk storageModule
}

// NewNakamaStatsAdapter creates a new stats adapter.
func NewNakamaStatsAdapter(nk storageModule) *NakamaStatsAdapter {
	return &NakamaStatsAdapter{nk: nk}
}

// GetStats returns zero stats for users who never finished a game.
func (a *NakamaStatsAdapter) GetStats(ctx context.Context, userID string) (ports.PlayerStats, error) {
	records, _, err := a.read(ctx, []string{userID})
	if err != nil {
		return ports.PlayerStats{}, err
	}
	r := records[userID]
	return ports.PlayerStats{GamesPlayed: r.GamesPlayed, GamesWon: r.GamesWon, TotalPoints: r.TotalPoints}, nil
}

// RecordResults adds one game to every listed user. Writes are conditional
// on the versions read, and a lost race is retried.
func (a *NakamaStatsAdapter) RecordResults(ctx context.Context, updates []ports.ResultUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	ids := make([]string, len(updates))
	for i, u := range updates {
		ids[i] = u.UserID
	}

	var err error
	for attempt := 0; attempt < maxStatsWriteAttempts; attempt++ {
		records, versions, readErr := a.read(ctx, ids)
		if readErr != nil {
			return readErr
		}
		writes := make([]*runtime.StorageWrite, 0, len(updates))
		for _, u := range updates {
			r := records[u.UserID]
			r.GamesPlayed++
			if u.Won {
				r.GamesWon++
			}
			r.TotalPoints += int64(u.Points)
			if id, ok := u.Metadata["game_id"].(string); ok {
				r.LastGameID = id
			}
			value, marshalErr := json.Marshal(r)
			if marshalErr != nil {
				return fmt.Errorf("failed to marshal stats for %s: %w", u.UserID, marshalErr)
			}
			version := versions[u.UserID]
			if version == "" {
				version = "*" // only if absent
			}
			writes = append(writes, &runtime.StorageWrite{
				Collection:      StatsCollection,
				Key:             statsKey,
				UserID:          u.UserID,
				Value:           string(value),
				Version:         version,
				PermissionRead:  runtime.STORAGE_PERMISSION_PUBLIC_READ,
				PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
			})
		}
		if _, err = a.nk.StorageWrite(ctx, writes); err == nil {
			return nil
		}
		if !errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return fmt.Errorf("failed to write stats: %w", err)
		}
	}
	return fmt.Errorf("failed to write stats after %d attempts: %w", maxStatsWriteAttempts, err)
}

func (a *NakamaStatsAdapter) read(ctx context.Context, userIDs []string) (map[string]statsRecord, map[string]string, error) {
	reads := make([]*runtime.StorageRead, len(userIDs))
	for i, id := range userIDs {
		reads[i] = &runtime.StorageRead{Collection: StatsCollection, Key: statsKey, UserID: id}
	}
	objects, err := a.nk.StorageRead(ctx, reads)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read stats: %w", err)
	}
	records := make(map[string]statsRecord, len(userIDs))
	versions := make(map[string]string, len(userIDs))
	for _, obj := range objects {
		var r statsRecord
		if err := json.Unmarshal([]byte(obj.GetValue()), &r); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal stats for %s: %w", obj.GetUserId(), err)
		}
		records[obj.GetUserId()] = r
		versions[obj.GetUserId()] = obj.GetVersion()
	}
	return records, versions, nil
}

var _ ports.StatsPort = (*NakamaStatsAdapter)(nil)
