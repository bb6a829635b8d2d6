// Package elimination reduces a dealt deck by repeatedly matching each card
// against the card three positions behind it.
//
// For a window [i-3, i-2, i-1, i]:
//   - equal rank removes all four cards and rewinds the cursor by 4,
//   - otherwise equal suit removes the two middle cards and rewinds by 2,
//   - otherwise the cursor advances by 1.
//
// A rewind never goes below 3, the first position with three predecessors.
// The rank test always runs first.
package elimination

import (
	"errors"
	"fmt"

	"solitaire-sim/internal/game/common"
)

var ErrInvalidDeck = errors.New("invalid deck")

// firstWindow is the lowest cursor position that has three cards behind it.
const firstWindow = 3

// Validate checks that deck holds each of the 52 card ids exactly once.
func Validate(deck []common.CardID) error {
	if len(deck) != common.DeckSize {
		return fmt.Errorf("%w: length %d, want %d", ErrInvalidDeck, len(deck), common.DeckSize)
	}
	var seen [common.DeckSize]bool
	for pos, id := range deck {
		if id < 0 || int(id) >= common.DeckSize {
			return fmt.Errorf("%w: card id %d at position %d out of range", ErrInvalidDeck, int(id), pos)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate card id %d at position %d", ErrInvalidDeck, int(id), pos)
		}
		seen[id] = true
	}
	return nil
}

// Reduce validates deck and returns the number of cards left once no window
// matches. deck is not modified.
func Reduce(deck []common.CardID) (int, error) {
	left, err := Remaining(deck)
	if err != nil {
		return 0, err
	}
	return len(left), nil
}

// Remaining is Reduce returning the surviving cards in order.
func Remaining(deck []common.CardID) ([]common.CardID, error) {
	if err := Validate(deck); err != nil {
		return nil, err
	}
	buf := make([]common.CardID, len(deck))
	copy(buf, deck)
	return ReduceInPlace(buf), nil
}

// ReduceInPlace runs the reduction on buf without validation and returns the
// shortened slice, which shares buf's backing array. Callers own buf and must
// only pass ids in range.
func ReduceInPlace(buf []common.CardID) []common.CardID {
	i := firstWindow
	for i <= len(buf)-1 {
		cur := common.MustCard(buf[i])
		back := common.MustCard(buf[i-3])
		switch {
		case cur.Rank == back.Rank:
			buf = removeAt(buf, i-3, 4)
			if i-4 < firstWindow {
				i = firstWindow
			} else {
				i -= 4
			}
		case cur.Suit == back.Suit:
			buf = removeAt(buf, i-2, 2)
			if i-2 < firstWindow {
				i = firstWindow
			} else {
				i -= 2
			}
		default:
			i++
		}
	}
	return buf
}

// removeAt drops n elements starting at from, compacting the tail left.
func removeAt(buf []common.CardID, from, n int) []common.CardID {
	copy(buf[from:], buf[from+n:])
	return buf[:len(buf)-n]
}
