// Package histogram holds the per-outcome trial counts produced by the
// simulator and the stores that accumulate them across runs.
//
// Every store implements Sink. A merge only ever adds to stored counts, so
// merging H1 then H2 leaves the same state as merging H1+H2 once.
package histogram

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"solitaire-sim/internal/game/common"
)

// Buckets is the number of possible outcomes, 0..52 cards remaining.
const Buckets = common.DeckSize + 1

var (
	ErrOutOfRange = errors.New("outcome out of range")
	ErrCorrupt    = errors.New("corrupt histogram store")
	ErrDiverged   = errors.New("histogram stores diverged")
)

// Histogram maps an outcome (index) to the number of trials that produced it.
type Histogram [Buckets]int64

// Add counts one trial with the given outcome. outcome must be in [0, Buckets).
func (h *Histogram) Add(outcome int) {
	h[outcome]++
}

// AddN adds n trials for outcome, rejecting out-of-range outcomes and negative n.
func (h *Histogram) AddN(outcome int, n int64) error {
	if outcome < 0 || outcome >= Buckets {
		return fmt.Errorf("%w: %d", ErrOutOfRange, outcome)
	}
	if n < 0 {
		return fmt.Errorf("negative count %d for outcome %d", n, outcome)
	}
	h[outcome] += n
	return nil
}

// Merge adds every bucket of o into h.
func (h *Histogram) Merge(o Histogram) {
	for i, n := range o {
		h[i] += n
	}
}

// Total is the number of trials recorded.
func (h Histogram) Total() int64 {
	var t int64
	for _, n := range h {
		t += n
	}
	return t
}

// Mean is the average outcome, or 0 for an empty histogram.
func (h Histogram) Mean() float64 {
	total := h.Total()
	if total == 0 {
		return 0
	}
	var sum int64
	for outcome, n := range h {
		sum += int64(outcome) * n
	}
	return float64(sum) / float64(total)
}

// Counts returns the non-zero buckets.
func (h Histogram) Counts() map[int]int64 {
	out := map[int]int64{}
	for outcome, n := range h {
		if n != 0 {
			out[outcome] = n
		}
	}
	return out
}

// FromCounts builds a histogram from a sparse outcome -> count map.
func FromCounts(counts map[int]int64) (Histogram, error) {
	var h Histogram
	for outcome, n := range counts {
		if err := h.AddN(outcome, n); err != nil {
			return Histogram{}, err
		}
	}
	return h, nil
}

// WriteLines writes one "<outcome> <count>" line per bucket in ascending order,
// including zero buckets.
func (h Histogram) WriteLines(w io.Writer) error {
	for outcome, n := range h {
		if _, err := fmt.Fprintf(w, "%d %d\n", outcome, n); err != nil {
			return err
		}
	}
	return nil
}

// String renders the non-zero buckets in line format on a single line, for logs.
func (h Histogram) String() string {
	var b strings.Builder
	for outcome, n := range h {
		if n == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d %d", outcome, n)
	}
	return "{" + b.String() + "}"
}

// Stats summarises a histogram the way the game's statistics view does.
type Stats struct {
	Trials int64   `json:"trials"`
	Mean   float64 `json:"mean_cards_left"`
	// Best is the lowest outcome observed, or -1 when there are no trials.
	Best    int     `json:"best_result"`
	Wins    int64   `json:"wins"`
	WinRate float64 `json:"win_rate"`
}

func (h Histogram) Stats() Stats {
	s := Stats{Trials: h.Total(), Mean: h.Mean(), Best: -1, Wins: h[0]}
	for outcome, n := range h {
		if n > 0 {
			s.Best = outcome
			break
		}
	}
	if s.Trials > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Trials)
	}
	return s
}
