package domain

import (
	"fmt"
	"sort"
	"strings"
)

// ScoreType tags one scoring rule in a breakdown.
type ScoreType string

const (
	ScoreFifteen         ScoreType = "FIFTEEN"
	ScoreThirtyOne       ScoreType = "THIRTY_ONE"
	ScorePair            ScoreType = "PAIR"
	ScorePairRoyal       ScoreType = "PAIR_ROYAL"
	ScoreDoublePairRoyal ScoreType = "DOUBLE_PAIR_ROYAL"
	ScoreRun             ScoreType = "RUN"
	ScoreDoubleRun       ScoreType = "DOUBLE_RUN"
	ScoreTripleRun       ScoreType = "TRIPLE_RUN"
	ScoreQuadrupleRun    ScoreType = "QUADRUPLE_RUN"
	ScoreFlush           ScoreType = "FLUSH"
	ScoreRightJack       ScoreType = "RIGHT_JACK"
	ScoreHeels           ScoreType = "HEELS"
	ScoreLastCard        ScoreType = "LAST_CARD"
)

// ScoreBreakdownItem is one fired scoring rule.
type ScoreBreakdownItem struct {
	Type   ScoreType `json:"type"`
	Points int       `json:"points"`
	Cards  []Card    `json:"cards"`
	Label  string    `json:"label"`
}

// HandSize is the number of cards in a counted hand or crib, excluding the cut.
const HandSize = 4

// TotalPoints sums the points of a breakdown.
func TotalPoints(items []ScoreBreakdownItem) int {
	total := 0
	for _, it := range items {
		total += it.Points
	}
	return total
}

// ScoreHand scores a four-card hand or crib together with the cut card.
func ScoreHand(hand []Card, cut Card, isCrib bool) (int, error) {
	items, err := ScoreHandBreakdown(hand, cut, isCrib)
	if err != nil {
		return 0, err
	}
	return TotalPoints(items), nil
}

// ScoreHandBreakdown is ScoreHand with one item per rule fired.
func ScoreHandBreakdown(hand []Card, cut Card, isCrib bool) ([]ScoreBreakdownItem, error) {
	if len(hand) != HandSize {
		return nil, fmt.Errorf("%w: got %d cards", ErrHandSize, len(hand))
	}
	all := make([]Card, 0, HandSize+1)
	all = append(all, hand...)
	all = append(all, cut)

	var items []ScoreBreakdownItem
	items = append(items, fifteens(all)...)

	runItem, runRanks := longestRun(all)
	if runItem != nil {
		items = append(items, *runItem)
	}
	items = append(items, sets(all, runRanks)...)

	if flush := flushItem(hand, cut, isCrib); flush != nil {
		items = append(items, *flush)
	}
	for _, c := range hand {
		if c.Rank == Jack && c.Suit == cut.Suit {
			items = append(items, ScoreBreakdownItem{
				Type:   ScoreRightJack,
				Points: 1,
				Cards:  []Card{c},
				Label:  "Right jack",
			})
		}
	}
	return items, nil
}

// fifteens returns one item per distinct subset summing to 15.
func fifteens(cards []Card) []ScoreBreakdownItem {
	var items []ScoreBreakdownItem
	n := len(cards)
	for mask := 1; mask < 1<<n; mask++ {
		sum := 0
		var subset []Card
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				sum += cards[i].Value()
				subset = append(subset, cards[i])
			}
		}
		if sum == 15 && len(subset) >= 2 {
			items = append(items, ScoreBreakdownItem{
				Type:   ScoreFifteen,
				Points: 2,
				Cards:  subset,
				Label:  "Fifteen " + joinValues(subset),
			})
		}
	}
	return items
}

// longestRun finds the longest run of consecutive distinct ranks (length >= 3).
// Points are runLength times the product of each rank's frequency, which
// covers single, double, triple and quadruple runs in one rule.
func longestRun(cards []Card) (*ScoreBreakdownItem, map[Rank]bool) {
	freq := make(map[Rank]int)
	for _, c := range cards {
		freq[c.Rank]++
	}

	bestStart, bestLen := Rank(0), 0
	for start := Ace; start <= King; start++ {
		if freq[start] == 0 || (start > Ace && freq[start-1] > 0) {
			continue
		}
		length := 0
		for r := start; r <= King && freq[r] > 0; r++ {
			length++
		}
		if length > bestLen {
			bestStart, bestLen = start, length
		}
	}
	if bestLen < 3 {
		return nil, nil
	}

	product := 1
	inRun := make(map[Rank]bool, bestLen)
	for r := bestStart; r < bestStart+Rank(bestLen); r++ {
		product *= freq[r]
		inRun[r] = true
	}
	var runCards []Card
	for _, c := range cards {
		if inRun[c.Rank] {
			runCards = append(runCards, c)
		}
	}
	SortHand(runCards)

	item := &ScoreBreakdownItem{
		Points: bestLen * product,
		Cards:  runCards,
	}
	switch product {
	case 1:
		item.Type = ScoreRun
		item.Label = fmt.Sprintf("Run of %d", bestLen)
	case 2:
		item.Type = ScoreDoubleRun
		item.Label = fmt.Sprintf("Double run of %d", bestLen)
	case 3:
		item.Type = ScoreTripleRun
		item.Label = fmt.Sprintf("Triple run of %d", bestLen)
	default:
		item.Type = ScoreQuadrupleRun
		item.Label = fmt.Sprintf("Quadruple run of %d", bestLen)
	}
	return item, inRun
}

// sets scores pairs, pair royals and double pair royals outside the run.
func sets(cards []Card, absorbed map[Rank]bool) []ScoreBreakdownItem {
	byRank := make(map[Rank][]Card)
	for _, c := range cards {
		byRank[c.Rank] = append(byRank[c.Rank], c)
	}
	var items []ScoreBreakdownItem
	for r := Ace; r <= King; r++ {
		group := byRank[r]
		if len(group) < 2 || absorbed[r] {
			continue
		}
		items = append(items, setItem(group))
	}
	return items
}

func setItem(group []Card) ScoreBreakdownItem {
	n := len(group)
	item := ScoreBreakdownItem{Points: n * (n - 1), Cards: append([]Card(nil), group...)}
	switch n {
	case 2:
		item.Type, item.Label = ScorePair, "Pair"
	case 3:
		item.Type, item.Label = ScorePairRoyal, "Three of a kind"
	default:
		item.Type, item.Label = ScoreDoublePairRoyal, "Four of a kind"
	}
	return item
}

func flushItem(hand []Card, cut Card, isCrib bool) *ScoreBreakdownItem {
	suit := hand[0].Suit
	for _, c := range hand[1:] {
		if c.Suit != suit {
			return nil
		}
	}
	withCut := cut.Suit == suit
	if isCrib && !withCut {
		return nil
	}
	item := &ScoreBreakdownItem{Type: ScoreFlush, Points: 4, Cards: append([]Card(nil), hand...), Label: "Flush of 4"}
	if withCut {
		item.Points = 5
		item.Cards = append(item.Cards, cut)
		item.Label = "Flush of 5"
	}
	return item
}

// ScorePegging scores the card just added to the top of the pegging stack.
func ScorePegging(stack []Card) int {
	return TotalPoints(ScorePeggingBreakdown(stack))
}

// ScorePeggingBreakdown is ScorePegging with one item per rule fired.
func ScorePeggingBreakdown(stack []Card) []ScoreBreakdownItem {
	if len(stack) == 0 {
		return nil
	}
	var items []ScoreBreakdownItem

	total := 0
	for _, c := range stack {
		total += c.Value()
	}
	switch total {
	case 15:
		items = append(items, ScoreBreakdownItem{Type: ScoreFifteen, Points: 2, Cards: cloneCards(stack), Label: "Fifteen"})
	case 31:
		items = append(items, ScoreBreakdownItem{Type: ScoreThirtyOne, Points: 2, Cards: cloneCards(stack), Label: "Thirty-one"})
	}

	top := stack[len(stack)-1]
	same := 1
	for i := len(stack) - 2; i >= 0 && stack[i].Rank == top.Rank; i-- {
		same++
	}
	if same >= 2 {
		items = append(items, setItem(stack[len(stack)-same:]))
	}

	for length := len(stack); length >= 3; length-- {
		suffix := stack[len(stack)-length:]
		if isRun(suffix) {
			run := cloneCards(suffix)
			items = append(items, ScoreBreakdownItem{
				Type:   ScoreRun,
				Points: length,
				Cards:  run,
				Label:  fmt.Sprintf("Run of %d", length),
			})
			break
		}
	}
	return items
}

// isRun reports whether the cards, once rank-sorted, are distinct and consecutive.
func isRun(cards []Card) bool {
	ranks := make([]int, len(cards))
	for i, c := range cards {
		ranks[i] = int(c.Rank)
	}
	sort.Ints(ranks)
	for i := 1; i < len(ranks); i++ {
		if ranks[i] != ranks[i-1]+1 {
			return false
		}
	}
	return true
}

func joinValues(cards []Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = fmt.Sprint(c.Value())
	}
	return "(" + strings.Join(parts, "+") + ")"
}
