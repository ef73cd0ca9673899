package app

import (
	"context"
	"errors"
	"fmt"

	"cribbage/internal/domain"
	"cribbage/internal/ports"
)

// Service contains table use-cases: turning a seat layout into a game and
// bringing a stored session back.
type Service struct {
	sessions ports.SessionStore
	options  []domain.Option
}

// NewService constructs a Service. sessions may be nil when resuming is not
// offered; options are applied to every created or restored game.
func NewService(sessions ports.SessionStore, options ...domain.Option) *Service {
	return &Service{sessions: sessions, options: options}
}

var (
	ErrNotOwner       = errors.New("actor is not match owner")
	ErrNotInLobby     = errors.New("match not in lobby")
	ErrTooFewPlayers  = errors.New("not enough players to start")
	ErrTooManyPlayers = errors.New("too many players")
	ErrResumeDisabled = errors.New("no session store configured")
)

// Seat is one chair at the table; an empty UserID is an open seat.
type Seat struct {
	UserID string
	Name   string
}

// StartGame builds a fresh game from the occupied seats in seat order.
func (s *Service) StartGame(gameID string, seats []Seat) (*domain.Game, error) {
	roster := make([]domain.PlayerInfo, 0, len(seats))
	for _, seat := range seats {
		if seat.UserID == "" {
			continue
		}
		roster = append(roster, domain.PlayerInfo{ID: seat.UserID, Name: seat.Name})
	}
	switch {
	case len(roster) < MinPlayersToStartGame:
		return nil, ErrTooFewPlayers
	case len(roster) > domain.MaxPlayers:
		return nil, ErrTooManyPlayers
	}
	return domain.NewGame(gameID, roster, s.options...)
}

// ResumeGame loads and restores the stored session for gameID.
func (s *Service) ResumeGame(ctx context.Context, gameID string) (*domain.Game, error) {
	if s.sessions == nil {
		return nil, ErrResumeDisabled
	}
	data, err := s.sessions.Load(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", gameID, err)
	}
	game, err := domain.FromJSON(data, s.options...)
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", gameID, err)
	}
	return game, nil
}
