package simulation

import (
	"context"
	"errors"
	"log"
	"time"

	"solitaire-sim/internal/histogram"

	"github.com/cenkalti/backoff/v5"
)

// mergeRound hands the round histogram to every sink in order. A sink that
// still fails after its retries marks the round skipped and the remaining
// sinks are not attempted; the round is never replayed because a write that
// reported failure may still have landed.
func (d *Driver) mergeRound(ctx context.Context, round int, h histogram.Histogram) RoundResult {
	res := RoundResult{Round: round, Histogram: h}
	for i, s := range d.sinks {
		tries, err := d.mergeSink(ctx, s, h)
		res.MergeTries += tries
		if err == nil {
			res.Merged = append(res.Merged, s.Name())
			continue
		}
		res.Skipped = true
		res.Failed = s.Name()
		res.FailErr = err
		for _, rest := range d.sinks[i+1:] {
			res.NotTried = append(res.NotTried, rest.Name())
		}
		log.Printf("round skipped: run_id=%s round=%d sink=%s tries=%d merged_into=%v not_merged_into=%v err=%v",
			d.runID, round, s.Name(), tries, res.Merged, append([]string{s.Name()}, res.NotTried...), err)
		log.Printf("round %d histogram for manual recovery: %s", round, h)
		break
	}
	return res
}

// mergeSink retries transient failures with exponential backoff. Corrupt
// stores are not retried. ctx is expected to be detached from run
// cancellation; each attempt is still bounded by MergeTimeout.
func (d *Driver) mergeSink(ctx context.Context, s histogram.Sink, h histogram.Histogram) (int, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.cfg.MergeBackoff
	b.MaxInterval = max(d.cfg.MergeBackoff*8, b.InitialInterval)

	tries := 0
	op := func() (struct{}, error) {
		tries++
		mctx, cancel := context.WithTimeout(ctx, d.cfg.MergeTimeout)
		defer cancel()
		err := s.Merge(mctx, h)
		switch {
		case err == nil:
			return struct{}{}, nil
		case errors.Is(err, histogram.ErrCorrupt):
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}
	notify := func(err error, next time.Duration) {
		log.Printf("merge retry: run_id=%s sink=%s attempt=%d next_in=%s err=%v", d.runID, s.Name(), tries, next, err)
	}
	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(d.cfg.MergeAttempts)),
		backoff.WithNotify(notify),
	)
	return tries, err
}
