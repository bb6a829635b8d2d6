package histogram

import (
	"context"
	"fmt"
)

// Report compares the contents of several sinks.
type Report struct {
	Totals map[string]int64 `json:"totals"`
	// Diffs lists the outcomes whose counts are not equal across all sinks.
	Diffs []OutcomeDiff `json:"diffs,omitempty"`
}

type OutcomeDiff struct {
	Outcome int              `json:"outcome"`
	Counts  map[string]int64 `json:"counts"`
}

// Consistent reports whether every sink holds the same histogram.
func (r Report) Consistent() bool {
	if len(r.Diffs) > 0 {
		return false
	}
	var first int64
	i := 0
	for _, t := range r.Totals {
		if i > 0 && t != first {
			return false
		}
		first = t
		i++
	}
	return true
}

// Reconcile loads every sink and compares them bucket by bucket. It returns
// the report together with ErrDiverged when they disagree.
func Reconcile(ctx context.Context, sinks ...Sink) (Report, error) {
	report := Report{Totals: make(map[string]int64, len(sinks))}
	loaded := make([]Histogram, len(sinks))
	for i, s := range sinks {
		h, err := s.Load(ctx)
		if err != nil {
			return report, fmt.Errorf("reconcile: load %s: %w", s.Name(), err)
		}
		loaded[i] = h
		report.Totals[s.Name()] = h.Total()
	}
	if len(sinks) < 2 {
		return report, nil
	}

	for outcome := 0; outcome < Buckets; outcome++ {
		same := true
		for i := 1; i < len(loaded); i++ {
			if loaded[i][outcome] != loaded[0][outcome] {
				same = false
				break
			}
		}
		if same {
			continue
		}
		d := OutcomeDiff{Outcome: outcome, Counts: make(map[string]int64, len(sinks))}
		for i, s := range sinks {
			d.Counts[s.Name()] = loaded[i][outcome]
		}
		report.Diffs = append(report.Diffs, d)
	}

	if !report.Consistent() {
		return report, fmt.Errorf("%w: totals %v, %d differing outcomes", ErrDiverged, report.Totals, len(report.Diffs))
	}
	return report, nil
}
