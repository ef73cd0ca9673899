package nakama

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	labelGame = "cribbage"

	MatchLabelKeyOpenSeats = "open" // Key for the open seats in the match label
	phaseLobby             = "lobby"
	phasePlaying           = "playing"
)

// matchLabel is what the match listing query filters on.
type matchLabel struct {
	Open    int
	Players int
	Phase   string
}

func (l matchLabel) marshal() (string, error) {
	s, err := structpb.NewStruct(map[string]interface{}{
		"game":                 labelGame,
		MatchLabelKeyOpenSeats: l.Open,
		"players":              l.Players,
		"phase":                l.Phase,
	})
	if err != nil {
		return "", fmt.Errorf("build label: %w", err)
	}
	b, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal label: %w", err)
	}
	return string(b), nil
}

func labelFor(state *MatchState) matchLabel {
	phase := phaseLobby
	if state.run != nil {
		phase = phasePlaying
	}
	return matchLabel{Open: state.GetOpenSeatsCount(), Players: len(state.Seats), Phase: phase}
}
