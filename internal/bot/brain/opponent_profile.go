package brain

import (
	"cribbage/internal/domain"
)

// OpponentProfile tracks the pegging behavior of one opponent in the current round.
type OpponentProfile struct {
	PlayerID string
	// Played counts the ranks this opponent pegged.
	Played map[domain.Rank]int
	// SaidGo is set once the opponent says go in the current count.
	SaidGo bool
	// Gos counts every go this round.
	Gos int
}

// NewOpponentProfile initializes a profile for a player.
func NewOpponentProfile(playerID string) *OpponentProfile {
	return &OpponentProfile{
		PlayerID: playerID,
		Played:   make(map[domain.Rank]int),
	}
}

// RecordPlay logs a card pegged by this opponent.
func (p *OpponentProfile) RecordPlay(c domain.Card) {
	p.Played[c.Rank]++
}

// RecordGo notes that this opponent could not play on the current count.
func (p *OpponentProfile) RecordGo() {
	p.SaidGo = true
	p.Gos++
}

// ResetCount clears the go flag when the count restarts from zero.
func (p *OpponentProfile) ResetCount() {
	p.SaidGo = false
}

// ResetRound clears everything for a new deal.
func (p *OpponentProfile) ResetRound() {
	p.Played = make(map[domain.Rank]int)
	p.SaidGo = false
	p.Gos = 0
}
