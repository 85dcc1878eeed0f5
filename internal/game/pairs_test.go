// internal/game/pairs_test.go
package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func card(suit, rank string, value int) Card {
	return Card{Suit: suit, Rank: rank, Value: value}
}

func TestRemoveMatchedPairs_BasicPair(t *testing.T) {
	hand := []Card{
		card("spades", "7", 7),
		card("hearts", "3", 3),
		card("hearts", "7", 7),
	}
	remaining, removed := RemoveMatchedPairs(hand)
	require.Len(t, remaining, 1)
	assert.Equal(t, "3", remaining[0].Rank)
	assert.Len(t, removed, 2)
}

func TestRemoveMatchedPairs_ThreeOfRankLeavesOne(t *testing.T) {
	hand := []Card{
		card("spades", "K", 13),
		card("hearts", "K", 13),
		card("clubs", "K", 13),
	}
	remaining, removed := RemoveMatchedPairs(hand)
	require.Len(t, remaining, 1)
	assert.Equal(t, "K", remaining[0].Rank)
	// The survivor is the last occurrence; the first two paired off.
	assert.Equal(t, "clubs", remaining[0].Suit)
	assert.Len(t, removed, 2)
}

func TestRemoveMatchedPairs_FourOfRankLeavesNone(t *testing.T) {
	hand := []Card{
		card("spades", "2", 2),
		card("hearts", "2", 2),
		card("diamonds", "2", 2),
		card("clubs", "2", 2),
	}
	remaining, removed := RemoveMatchedPairs(hand)
	assert.Empty(t, remaining)
	assert.Len(t, removed, 4)
}

func TestRemoveMatchedPairs_JokerNeverMatches(t *testing.T) {
	joker := Card{Suit: "joker", Rank: "JOKER", Joker: true}
	hand := []Card{joker, {Suit: "joker", Rank: "JOKER", Joker: true}}
	remaining, removed := RemoveMatchedPairs(hand)
	assert.Len(t, remaining, 2)
	assert.Empty(t, removed)
}

func TestRemoveMatchedPairs_PreservesSurvivorOrder(t *testing.T) {
	hand := []Card{
		card("spades", "5", 5),
		card("hearts", "9", 9),
		card("hearts", "5", 5),
		card("clubs", "A", 1),
	}
	remaining, _ := RemoveMatchedPairs(hand)
	require.Len(t, remaining, 2)
	assert.Equal(t, "9", remaining[0].Rank)
	assert.Equal(t, "A", remaining[1].Rank)
}

func TestRemoveMatchedPairs_NoMatch(t *testing.T) {
	hand := []Card{card("spades", "5", 5), card("hearts", "9", 9)}
	remaining, removed := RemoveMatchedPairs(hand)
	assert.Equal(t, hand, remaining)
	assert.Empty(t, removed)
}

func TestNewThiefDeckComposition(t *testing.T) {
	deck := NewThiefDeck()
	require.Len(t, deck, 53)

	jokers := 0
	byRank := map[string]int{}
	for _, c := range deck {
		if c.Joker {
			jokers++
			continue
		}
		byRank[c.Rank]++
	}
	assert.Equal(t, 1, jokers)
	assert.Len(t, byRank, 13)
	for rank, n := range byRank {
		assert.Equalf(t, 4, n, "rank %s", rank)
	}
}

func TestNewPokerDeckComposition(t *testing.T) {
	deck := NewPokerDeck()
	require.Len(t, deck, 20)

	byValue := map[int]int{}
	for _, c := range deck {
		byValue[c.Value]++
	}
	for v := 1; v <= 10; v++ {
		assert.Equalf(t, 2, byValue[v], "value %d", v)
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	deck := NewThiefDeck()
	shuffled := append([]Card{}, deck...)
	Shuffle(shuffled, rand.New(rand.NewSource(7)))

	require.Len(t, shuffled, len(deck))
	seen := map[Card]int{}
	for _, c := range shuffled {
		seen[c]++
	}
	for _, c := range deck {
		seen[c]--
	}
	for c, n := range seen {
		assert.Zerof(t, n, "card %v", c)
	}
}
