package domain

import "fmt"

const (
	// MinPlayers and MaxPlayers bound the supported table sizes.
	MinPlayers = 2
	MaxPlayers = 4
	// CribSize is the number of cards the crib must hold before cutting.
	CribSize = 4
	// WinningScore is the first score that wins; a player wins the instant
	// their score exceeds 120.
	WinningScore = 121
	// MaxPeggingTotal caps the running pegging count.
	MaxPeggingTotal = 31
)

// Rules holds the player-count dependent dealing table.
type Rules struct {
	Players       int `json:"players"`
	HandSize      int `json:"handSize"`
	Discards      int `json:"discards"`
	AutoCribCards int `json:"autoCribCards"`
}

// RulesFor returns the dealing table for the given number of players.
func RulesFor(players int) (Rules, error) {
	switch players {
	case 2:
		return Rules{Players: 2, HandSize: 6, Discards: 2}, nil
	case 3:
		return Rules{Players: 3, HandSize: 5, Discards: 1, AutoCribCards: 1}, nil
	case 4:
		return Rules{Players: 4, HandSize: 5, Discards: 1}, nil
	default:
		return Rules{}, fmt.Errorf("%w: %d players, need %d-%d", ErrInvalidRoster, players, MinPlayers, MaxPlayers)
	}
}

// ExpectedCrib is the crib size after every player has discarded.
func (r Rules) ExpectedCrib() int {
	return r.Players*r.Discards + r.AutoCribCards
}
