package bot

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cribbage/internal/domain"
)

func situationFor(stack []domain.Card, total int) Situation {
	return Situation{
		PlayerID: "me",
		View: domain.SnapshotView{GameState: domain.GameView{
			Players:      []domain.PlayerView{{ID: "me"}, {ID: "them"}},
			PeggingStack: stack,
			PeggingTotal: total,
		}},
		Rng: rand.New(rand.NewPCG(1, 2)),
	}
}

func TestGreedyKeepsTheFives(t *testing.T) {
	hand := domain.MustParseCards("FIVE_CLUBS", "FIVE_DIAMONDS", "FIVE_HEARTS", "JACK_SPADES", "KING_CLUBS", "QUEEN_DIAMONDS")
	discards := (&GreedyBot{}).Discard(situationFor(nil, 0), hand, 2)

	require.Len(t, discards, 2)
	for _, c := range discards {
		assert.NotEqual(t, domain.Five, c.Rank, "threw away %v", c)
	}
}

func TestGreedyPegsForFifteen(t *testing.T) {
	five := domain.MustParseCards("FIVE_HEARTS")
	playable := domain.MustParseCards("THREE_CLUBS", "TEN_SPADES")

	got := (&GreedyBot{}).PlayCard(situationFor(five, 5), playable)
	assert.Equal(t, domain.MustParseCards("TEN_SPADES")[0], got)
}

func TestSmartAvoidsLeavingFive(t *testing.T) {
	playable := domain.MustParseCards("FIVE_SPADES", "THREE_CLUBS")
	b := &SmartBot{Tuning: DefaultTuning}

	got := b.PlayCard(situationFor(nil, 0), playable)
	assert.Equal(t, domain.Three, got.Rank)
}

func TestRandomPlaysSomethingPlayable(t *testing.T) {
	playable := domain.MustParseCards("ACE_CLUBS", "TWO_CLUBS")
	got := (&RandomBot{}).PlayCard(situationFor(nil, 0), playable)
	assert.Contains(t, playable, got)
}

func TestParseBotLevel(t *testing.T) {
	cases := map[string]BotLevel{
		"random": BotLevelRandom,
		"easy":   BotLevelRandom,
		"Greedy": BotLevelGreedy,
		"":       BotLevelGreedy,
		" smart": BotLevelSmart,
		"hard":   BotLevelSmart,
	}
	for in, want := range cases {
		got, err := ParseBotLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseBotLevel("god")
	assert.Error(t, err)

	_, err = NewBrain(BotLevel(42))
	assert.Error(t, err)
}

func TestSituationScores(t *testing.T) {
	s := Situation{PlayerID: "me", View: domain.SnapshotView{GameState: domain.GameView{
		Players: []domain.PlayerView{{ID: "me", Score: 40, IsDealer: true}, {ID: "a", Score: 70}, {ID: "b", Score: 55}},
	}}}
	mine, best := s.Scores()
	assert.Equal(t, 40, mine)
	assert.Equal(t, 70, best)
	assert.True(t, s.IsDealer())
	assert.Equal(t, []string{"a", "b"}, s.Opponents())
	assert.Len(t, s.Starters(nil), 52)
}
