package common

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
)

// NewOrderedDeck returns the identity deck [0..51].
func NewOrderedDeck() []CardID {
	deck := make([]CardID, DeckSize)
	ResetDeck(deck)
	return deck
}

// ResetDeck rewrites deck[:DeckSize] to the identity order. deck must have
// capacity for a full deck; the returned slice has length DeckSize.
func ResetDeck(deck []CardID) []CardID {
	deck = deck[:DeckSize]
	for i := range deck {
		deck[i] = CardID(i)
	}
	return deck
}

// Shuffle is a Fisher–Yates shuffle driven by rng, so every permutation is
// equally likely for a uniform source.
func Shuffle(deck []CardID, rng *rand.Rand) {
	for i := len(deck) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
}

// ParseDeck reads a list of cards separated by commas or whitespace. Each
// entry is either a card name ("AS", "10h") or a numeric id ("0".."51").
// It does not check the deck for completeness.
func ParseDeck(s string) ([]CardID, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	deck := make([]CardID, 0, len(fields))
	for i, f := range fields {
		if n, err := strconv.Atoi(f); err == nil {
			if _, err := CardFromID(CardID(n)); err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			deck = append(deck, CardID(n))
			continue
		}
		c, err := ParseCard(f)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		deck = append(deck, c.ID())
	}
	return deck, nil
}

// FormatDeck renders ids as card names joined by spaces.
func FormatDeck(deck []CardID) string {
	parts := make([]string, len(deck))
	for i, id := range deck {
		parts[i] = id.String()
	}
	return strings.Join(parts, " ")
}
