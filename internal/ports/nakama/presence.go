package nakama

import (
	"context"

	"github.com/heroiclabs/nakama-common/runtime"

	"cribbage/internal/app"
	"cribbage/internal/bot"
	"cribbage/internal/config"
	"cribbage/internal/domain"
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Seats     []string                    `json:"seats"`      // User IDs by seat, empty string means seat is empty
	Names     map[string]string           `json:"names"`      // Display names by user ID
	OwnerSeat int                         `json:"owner_seat"` // Seat index of the match owner
	Tick      int64                       `json:"tick"`       // Current tick of the match
	GameID    string                      `json:"game_id"`    // Id of the next or running game
	Presences map[string]runtime.Presence `json:"-"`          // Map UserId -> Presence for targeted messaging
	Config    config.GameConfig           `json:"-"`
	Tokens    *app.SeatTokens             `json:"-"` // nil when no secret is configured
	// Resume is a restored session waiting for its owner to start it.
	Resume *domain.Game `json:"-"`
	// Latest is the last snapshot sent to each viewer, for reconnects.
	Latest               map[string][]byte     `json:"-"`
	LastSinglePlayerTick int64                 `json:"last_single_player_tick"` // Tick when a single player started waiting
	Bots                 map[string]*bot.Agent `json:"-"`                       // Bot agents by seat user ID

	run *gameRun
}

// gameRun is a game being driven on its own goroutine.
type gameRun struct {
	cancel context.CancelFunc
	broker *app.Broker
	events chan app.Event
	done   chan runResult
}

type runResult struct {
	winner string
	err    error
}

func newMatchState(players int, cfg config.GameConfig) *MatchState {
	return &MatchState{
		Seats:     make([]string, players),
		Names:     make(map[string]string),
		OwnerSeat: -1,
		Presences: make(map[string]runtime.Presence),
		Config:    cfg,
		Latest:    make(map[string][]byte),
		Bots:      make(map[string]*bot.Agent),
	}
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	return len(ms.Seats) - ms.GetOpenSeatsCount()
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !isBotUserId(seat) {
			count++
		}
	}
	return count
}

// SeatOf returns the seat index of userID or -1.
func (ms *MatchState) SeatOf(userID string) int {
	for i, seat := range ms.Seats {
		if seat != "" && seat == userID {
			return i
		}
	}
	return -1
}

// seatList pairs each seat with its display name.
func (ms *MatchState) seatList() []app.Seat {
	seats := make([]app.Seat, len(ms.Seats))
	for i, id := range ms.Seats {
		seats[i] = app.Seat{UserID: id, Name: ms.Names[id]}
	}
	return seats
}

// spectators are connected presences without a seat.
func (ms *MatchState) spectators() []runtime.Presence {
	var out []runtime.Presence
	for id, p := range ms.Presences {
		if ms.SeatOf(id) < 0 {
			out = append(out, p)
		}
	}
	return out
}

// reassignOwner moves ownership to the first connected human once the owner
// is gone. It reports whether the owner changed.
func (ms *MatchState) reassignOwner() bool {
	if ms.connectedHuman(ms.OwnerSeat) {
		return false
	}
	prev := ms.OwnerSeat
	ms.OwnerSeat = -1
	for i := range ms.Seats {
		if ms.connectedHuman(i) {
			ms.OwnerSeat = i
			break
		}
	}
	return ms.OwnerSeat != prev
}

func (ms *MatchState) connectedHuman(seat int) bool {
	if !isHumanSeat(ms.Seats, seat) {
		return false
	}
	_, ok := ms.Presences[ms.Seats[seat]]
	return ok
}

// isBotUserId reports whether the given user id represents a bot seat.
func isBotUserId(userId string) bool {
	return bot.Default().IsBot(userId)
}

// isHumanSeat reports whether the seat index belongs to a human player.
func isHumanSeat(seats []string, seatIndex int) bool {
	if seatIndex < 0 || seatIndex >= len(seats) {
		return false
	}
	userId := seats[seatIndex]
	return userId != "" && !isBotUserId(userId)
}

// findFirstHumanSeat returns the first seat index with a human occupant or -1 if none exist.
func findFirstHumanSeat(seats []string) int {
	for i, userId := range seats {
		if userId != "" && !isBotUserId(userId) {
			return i
		}
	}
	return -1
}

// shouldTerminateNoHumans returns true when there are no humans in the match.
func shouldTerminateNoHumans(seats []string) bool {
	return findFirstHumanSeat(seats) == -1
}
