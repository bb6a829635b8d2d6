package simulation

import (
	"math/rand/v2"

	"solitaire-sim/internal/game/common"
	"solitaire-sim/internal/game/elimination"
)

// Runner plays single trials. It owns its random stream and deck buffer, so
// one Runner must not be shared between goroutines.
type Runner struct {
	rng *rand.Rand
	buf []common.CardID
}

func NewRunner(seed1, seed2 uint64) *Runner {
	return &Runner{
		rng: rand.New(rand.NewPCG(seed1, seed2)),
		buf: make([]common.CardID, common.DeckSize),
	}
}

// Trial deals a fresh identity deck, shuffles it and returns how many cards
// survive the reduction. A deck that fails validation is never reduced.
func (r *Runner) Trial() (int, error) {
	deck := common.ResetDeck(r.buf)
	common.Shuffle(deck, r.rng)
	if err := elimination.Validate(deck); err != nil {
		return 0, err
	}
	return len(elimination.ReduceInPlace(deck)), nil
}
