package domain

import (
	"fmt"
	"strings"
)

// Suit identifies a card suit. The numeric order is the dealer-selection
// tie-break order.
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

var suitNames = [...]string{"CLUBS", "DIAMONDS", "HEARTS", "SPADES"}

func (s Suit) String() string {
	if s < Clubs || s > Spades {
		return fmt.Sprintf("Suit(%d)", int(s))
	}
	return suitNames[s]
}

// Rank identifies a card rank, Ace=1 through King=13.
type Rank int

const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

var rankNames = [...]string{"", "ACE", "TWO", "THREE", "FOUR", "FIVE", "SIX", "SEVEN", "EIGHT", "NINE", "TEN", "JACK", "QUEEN", "KING"}

func (r Rank) String() string {
	if r < Ace || r > King {
		return fmt.Sprintf("Rank(%d)", int(r))
	}
	return rankNames[r]
}

// Card is one of the 52 standard playing cards.
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard builds a card from rank and suit.
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// Valid reports whether the card is one of the 52 real cards.
func (c Card) Valid() bool {
	return c.Rank >= Ace && c.Rank <= King && c.Suit >= Clubs && c.Suit <= Spades
}

// Value is the counting value used for fifteens and the pegging total.
func (c Card) Value() int {
	if c.Rank >= Ten {
		return 10
	}
	return int(c.Rank)
}

// String renders the card as RANK_SUIT, e.g. FIVE_SPADES.
func (c Card) String() string {
	return c.Rank.String() + "_" + c.Suit.String()
}

// MarshalText implements encoding.TextMarshaler.
func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("marshal card: invalid card %d/%d", c.Rank, c.Suit)
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCard parses the RANK_SUIT form produced by String.
func ParseCard(s string) (Card, error) {
	rankName, suitName, ok := strings.Cut(strings.ToUpper(strings.TrimSpace(s)), "_")
	if !ok {
		return Card{}, fmt.Errorf("parse card %q: missing separator", s)
	}
	card := Card{}
	for r := Ace; r <= King; r++ {
		if rankNames[r] == rankName {
			card.Rank = r
		}
	}
	if card.Rank == 0 {
		return Card{}, fmt.Errorf("parse card %q: unknown rank", s)
	}
	found := false
	for i, name := range suitNames {
		if name == suitName {
			card.Suit = Suit(i)
			found = true
		}
	}
	if !found {
		return Card{}, fmt.Errorf("parse card %q: unknown suit", s)
	}
	return card, nil
}

// MustParseCards parses a list of cards and panics on malformed input.
// Intended for fixtures.
func MustParseCards(names ...string) []Card {
	out := make([]Card, 0, len(names))
	for _, name := range names {
		c, err := ParseCard(name)
		if err != nil {
			panic(err)
		}
		out = append(out, c)
	}
	return out
}

// ConcealedCardText is the textual form of a card withheld from a viewer.
const ConcealedCardText = "UNKNOWN"

// CardView is a card as seen by one viewer: either visible with its value,
// or concealed. The zero value is concealed.
type CardView struct {
	card    Card
	visible bool
}

// Visible wraps a card whose value the viewer may see.
func Visible(c Card) CardView { return CardView{card: c, visible: true} }

// Concealed returns a card whose value is withheld.
func Concealed() CardView { return CardView{} }

// Card returns the underlying card and true when it is visible.
func (v CardView) Card() (Card, bool) {
	if !v.visible {
		return Card{}, false
	}
	return v.card, true
}

// IsConcealed reports whether the card value is withheld.
func (v CardView) IsConcealed() bool { return !v.visible }

func (v CardView) String() string {
	if !v.visible {
		return ConcealedCardText
	}
	return v.card.String()
}

// MarshalText implements encoding.TextMarshaler.
func (v CardView) MarshalText() ([]byte, error) {
	if !v.visible {
		return []byte(ConcealedCardText), nil
	}
	return v.card.MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *CardView) UnmarshalText(text []byte) error {
	if string(text) == ConcealedCardText {
		*v = Concealed()
		return nil
	}
	var c Card
	if err := c.UnmarshalText(text); err != nil {
		return err
	}
	*v = Visible(c)
	return nil
}

func cardViews(cards []Card, visible bool) []CardView {
	if cards == nil {
		return nil
	}
	out := make([]CardView, len(cards))
	for i, c := range cards {
		if visible {
			out[i] = Visible(c)
		}
	}
	return out
}
