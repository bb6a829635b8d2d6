package common

import (
	"fmt"
	"strings"
)

type Suit string

const (
	Spades   Suit = "S"
	Hearts   Suit = "H"
	Diamonds Suit = "D"
	Clubs    Suit = "C"
)

// suitOrder fixes the suit index used by the id bijection: index 0 is suit 1.
var suitOrder = [4]Suit{Spades, Hearts, Diamonds, Clubs}

// Index returns the 1-based suit number (1..4), or 0 for an unknown suit.
func (s Suit) Index() int {
	for i, v := range suitOrder {
		if v == s {
			return i + 1
		}
	}
	return 0
}

type Rank int

const (
	Ace   Rank = 1
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

// CardID identifies one card of a standard deck, 0..51.
type CardID int

const DeckSize = 52

type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

// cardTable is the fixed id -> card bijection: rank = id/4+1, suit = id%4+1.
var cardTable [DeckSize]Card

func init() {
	for id := 0; id < DeckSize; id++ {
		cardTable[id] = Card{Rank: Rank(id/4 + 1), Suit: suitOrder[id%4]}
	}
}

// CardFromID returns the card for id. Out-of-range ids are an error.
func CardFromID(id CardID) (Card, error) {
	if id < 0 || int(id) >= DeckSize {
		return Card{}, fmt.Errorf("card id %d out of range", int(id))
	}
	return cardTable[id], nil
}

// MustCard is CardFromID for ids already known to be valid.
func MustCard(id CardID) Card {
	return cardTable[id]
}

// ID is the inverse of CardFromID. It returns -1 for cards outside the deck.
func (c Card) ID() CardID {
	si := c.Suit.Index()
	if si == 0 || c.Rank < Ace || c.Rank > King {
		return -1
	}
	return CardID((int(c.Rank)-1)*4 + si - 1)
}

func (id CardID) String() string {
	c, err := CardFromID(id)
	if err != nil {
		return fmt.Sprintf("#%d", int(id))
	}
	return c.String()
}

func (c Card) String() string {
	var r string
	switch c.Rank {
	case Ace:
		r = "A"
	case Jack:
		r = "J"
	case Queen:
		r = "Q"
	case King:
		r = "K"
	default:
		r = fmt.Sprintf("%d", int(c.Rank))
	}
	return r + string(c.Suit)
}

func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	suit := Suit(s[len(s)-1:])
	rankStr := s[:len(s)-1]
	var r Rank
	switch rankStr {
	case "A":
		r = Ace
	case "J":
		r = Jack
	case "Q":
		r = Queen
	case "K":
		r = King
	default:
		var v int
		_, err := fmt.Sscanf(rankStr, "%d", &v)
		if err != nil || v < 2 || v > 10 {
			return Card{}, fmt.Errorf("invalid rank in %q", s)
		}
		r = Rank(v)
	}
	if suit.Index() == 0 {
		return Card{}, fmt.Errorf("invalid suit in %q", s)
	}
	return Card{Rank: r, Suit: suit}, nil
}
