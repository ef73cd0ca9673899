package domain

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
)

// SessionVersion is the current session document format.
const SessionVersion = 1

// SessionDocument is the persisted form of a game. Restoring it yields a
// game whose state, history and future shuffles match the original.
type SessionDocument struct {
	Version int          `json:"version"`
	SavedAt string       `json:"savedAt"`
	Roster  []PlayerInfo `json:"roster"`
	State   GameState    `json:"state"`
	Events  []GameEvent  `json:"events"`
	RNG     []byte       `json:"rng"`
}

// Document captures the game as a session document.
func (g *Game) Document() (SessionDocument, error) {
	rng, err := g.pcg.MarshalBinary()
	if err != nil {
		return SessionDocument{}, fmt.Errorf("marshal rng: %w", err)
	}
	return SessionDocument{
		Version: SessionVersion,
		SavedAt: g.now().Format(timeLayout),
		Roster:  g.Roster(),
		State:   g.State(),
		Events:  g.Events(),
		RNG:     rng,
	}, nil
}

// ToJSON serializes the game as a session document.
func (g *Game) ToJSON() ([]byte, error) {
	doc, err := g.Document()
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// FromJSON restores a game from ToJSON output. Options apply to the restored
// game; a WithSeed option is overridden by the saved random state.
func FromJSON(data []byte, opts ...Option) (*Game, error) {
	var doc SessionDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return FromDocument(doc, opts...)
}

// FromDocument restores a game from a decoded session document.
func FromDocument(doc SessionDocument, opts ...Option) (*Game, error) {
	if doc.Version != SessionVersion {
		return nil, fmt.Errorf("session version %d: %w", doc.Version, ErrUnsupportedVersion)
	}
	if _, err := RulesFor(len(doc.Roster)); err != nil {
		return nil, err
	}
	if len(doc.State.Players) != len(doc.Roster) {
		return nil, fmt.Errorf("%w: roster has %d players, state has %d", ErrCorruptSession, len(doc.Roster), len(doc.State.Players))
	}

	g := newGame(opts)
	pcg := &rand.PCG{}
	if err := pcg.UnmarshalBinary(doc.RNG); err != nil {
		return nil, fmt.Errorf("restore rng: %w", err)
	}
	g.pcg = pcg
	g.rng = rand.New(pcg)
	g.roster = append([]PlayerInfo(nil), doc.Roster...)
	g.state = doc.State.Clone()
	g.events = make([]GameEvent, len(doc.Events))
	for i, e := range doc.Events {
		g.events[i] = cloneEvent(e)
	}
	if len(g.events) == 0 {
		return nil, fmt.Errorf("%w: no events", ErrCorruptSession)
	}
	return g, nil
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"
