// internal/game/card.go
package game

import (
	"fmt"
	"math/rand"
)

// Card is an immutable value. Hands are mutated by filtering/splicing
// sequences of cards, never by changing a card in place.
type Card struct {
	Suit  string `json:"suit"`
	Rank  string `json:"rank"`
	Value int    `json:"value"`
	Joker bool   `json:"isJoker"`
}

const jokerSuit = "joker"

var (
	thiefSuits = []string{"spades", "hearts", "diamonds", "clubs"}
	thiefRanks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
)

// NewThiefDeck builds the 53-card Thief Catcher deck: a standard 52-card
// deck plus a single joker, in deterministic order before shuffling.
func NewThiefDeck() []Card {
	deck := make([]Card, 0, 53)
	for _, suit := range thiefSuits {
		for i, rank := range thiefRanks {
			deck = append(deck, Card{Suit: suit, Rank: rank, Value: i + 1})
		}
	}
	deck = append(deck, Card{Suit: jokerSuit, Rank: "JOKER", Joker: true})
	return deck
}

// NewPokerDeck builds the 20-card Indian Poker deck: ranks 1-10 duplicated
// across hearts and spades, in deterministic order before shuffling.
func NewPokerDeck() []Card {
	deck := make([]Card, 0, 20)
	for _, suit := range []string{"hearts", "spades"} {
		for v := 1; v <= 10; v++ {
			deck = append(deck, Card{Suit: suit, Rank: fmt.Sprintf("%d", v), Value: v})
		}
	}
	return deck
}

// Shuffle permutes cards in place with a Fisher-Yates walk from the last
// index to the first. The RNG is injected so deals are replayable in tests.
func Shuffle(cards []Card, rng *rand.Rand) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}
