// Package simulation runs rounds of independent trials on a worker pool and
// merges each round's histogram into the configured stores exactly once.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"solitaire-sim/internal/config"
	"solitaire-sim/internal/histogram"
	"solitaire-sim/internal/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// cancelCheckInterval is how many trials a worker plays between context checks.
const cancelCheckInterval = 1024

type Config struct {
	Rounds         int
	TrialsPerRound int
	Workers        int
	// Seed fixes the random streams of the run; 0 draws a random seed.
	Seed          uint64
	MergeAttempts int
	MergeBackoff  time.Duration
	MergeTimeout  time.Duration
}

// ConfigFrom maps the process configuration onto driver settings.
func ConfigFrom(c config.Config) Config {
	return Config{
		Rounds:         c.Rounds,
		TrialsPerRound: c.TrialsPerRound,
		Workers:        c.EffectiveWorkers(),
		Seed:           c.Seed,
		MergeAttempts:  c.MergeAttempts,
		MergeBackoff:   c.MergeBackoff,
		MergeTimeout:   c.MergeTimeout,
	}
}

// RoundResult describes one finished round.
type RoundResult struct {
	Round     int
	Histogram histogram.Histogram
	// Merged lists the sinks that hold this round, in merge order.
	Merged []string
	// Failed holds the sink that gave up after retries, if any. Sinks after
	// it are not attempted.
	Failed     string
	FailErr    error
	NotTried   []string
	Skipped    bool
	Elapsed    time.Duration
	MergeTries int
}

// Summary accumulates over a run.
type Summary struct {
	RunID         string
	Seed          uint64
	Rounds        int
	MergedRounds  int
	SkippedRounds int
	// Trials counts every trial played, merged or not.
	Trials       int64
	MergedTrials int64
	Histogram    histogram.Histogram
	Started      time.Time
	Finished     time.Time
}

func (s *Summary) add(r RoundResult) {
	s.Rounds++
	total := r.Histogram.Total()
	s.Trials += total
	s.Histogram.Merge(r.Histogram)
	if r.Skipped {
		s.SkippedRounds++
		return
	}
	s.MergedRounds++
	s.MergedTrials += total
}

// Reporter receives progress. Implementations must not block for long.
type Reporter interface {
	RoundDone(RoundResult)
	Done(Summary)
}

// RunLedger records run metadata. Ledger failures are logged, never fatal.
type RunLedger interface {
	Start(ctx context.Context, s Summary, cfg Config) error
	Finish(ctx context.Context, s Summary) error
}

type Driver struct {
	cfg      Config
	sinks    []histogram.Sink
	reporter Reporter
	ledger   RunLedger
	runID    string
	now      func() time.Time
}

type Option func(*Driver)

func WithReporter(r Reporter) Option { return func(d *Driver) { d.reporter = r } }

func WithLedger(l RunLedger) Option { return func(d *Driver) { d.ledger = l } }

func WithRunID(id string) Option { return func(d *Driver) { d.runID = id } }

func NewDriver(cfg Config, sinks []histogram.Sink, opts ...Option) (*Driver, error) {
	if cfg.Rounds <= 0 {
		return nil, fmt.Errorf("simulation: rounds must be > 0, got %d", cfg.Rounds)
	}
	if cfg.TrialsPerRound <= 0 {
		return nil, fmt.Errorf("simulation: trials per round must be > 0, got %d", cfg.TrialsPerRound)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MergeAttempts <= 0 {
		cfg.MergeAttempts = 1
	}
	if cfg.MergeTimeout <= 0 {
		cfg.MergeTimeout = 30 * time.Second
	}
	if len(sinks) == 0 {
		return nil, errors.New("simulation: at least one histogram sink is required")
	}
	d := &Driver{
		cfg:      cfg,
		sinks:    sinks,
		reporter: NopReporter{},
		runID:    uuid.NewString(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Run plays every round. A cancelled context abandons the round in flight
// without persisting it; the summary covers the rounds completed before that.
// Skipped rounds do not make Run fail.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	ctx, span := tracing.StartSpan(ctx, "simulation.Run")
	defer span.End()

	seed := d.cfg.Seed
	if seed == 0 {
		s, err := randomSeed()
		if err != nil {
			return Summary{}, fmt.Errorf("simulation: %w", err)
		}
		seed = s
	}
	sum := Summary{RunID: d.runID, Seed: seed, Started: d.now()}
	span.SetAttributes(
		attribute.String("simulation.run_id", d.runID),
		attribute.Int("simulation.rounds", d.cfg.Rounds),
		attribute.Int("simulation.trials_per_round", d.cfg.TrialsPerRound),
		attribute.Int("simulation.workers", d.cfg.Workers),
	)
	log.Printf("simulation start: run_id=%s seed=%d rounds=%d trials_per_round=%d workers=%d",
		d.runID, seed, d.cfg.Rounds, d.cfg.TrialsPerRound, d.cfg.Workers)

	if d.ledger != nil {
		if err := d.ledger.Start(ctx, sum, d.cfg); err != nil {
			log.Printf("run ledger start failed: run_id=%s err=%v", d.runID, err)
		}
	}

	var runErr error
	for round := 1; round <= d.cfg.Rounds; round++ {
		res, err := d.playRound(ctx, seed, round)
		if err != nil {
			runErr = err
			break
		}
		sum.add(res)
		d.reporter.RoundDone(res)
	}
	sum.Finished = d.now()
	d.reporter.Done(sum)

	if d.ledger != nil {
		// Record the outcome even when the run was cancelled.
		if err := d.ledger.Finish(context.WithoutCancel(ctx), sum); err != nil {
			log.Printf("run ledger finish failed: run_id=%s err=%v", d.runID, err)
		}
	}
	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, "run aborted")
	}
	return sum, runErr
}

func (d *Driver) playRound(ctx context.Context, seed uint64, round int) (RoundResult, error) {
	ctx, span := tracing.StartSpan(ctx, "simulation.round")
	defer span.End()
	span.SetAttributes(attribute.Int("simulation.round", round))

	start := d.now()
	h, err := d.runTrials(ctx, seed, round)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "trials")
		return RoundResult{}, fmt.Errorf("round %d: %w", round, err)
	}
	// A complete round is persisted to every sink even if the run is
	// cancelled meanwhile; the next round observes the cancellation.
	res := d.mergeRound(context.WithoutCancel(ctx), round, h)
	res.Elapsed = d.now().Sub(start)
	if res.Skipped {
		span.SetStatus(codes.Error, "round skipped")
	}
	return res, nil
}

// runTrials plays one round on a fixed pool. Each worker owns a Runner and a
// private histogram; the partial histograms are summed after the join, so
// completion order does not matter.
func (d *Driver) runTrials(ctx context.Context, seed uint64, round int) (histogram.Histogram, error) {
	trials := d.cfg.TrialsPerRound
	workers := min(d.cfg.Workers, trials)
	per, rem := trials/workers, trials%workers

	partials := make([]histogram.Histogram, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		n := per
		if w == workers-1 {
			n += rem
		}
		go func(w, n int) {
			defer wg.Done()
			r := NewRunner(streamSeed(seed, round, w))
			h := &partials[w]
			for i := 0; i < n; i++ {
				if i%cancelCheckInterval == 0 && ctx.Err() != nil {
					return
				}
				outcome, err := r.Trial()
				if err != nil {
					errs[w] = err
					return
				}
				h.Add(outcome)
			}
		}(w, n)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return histogram.Histogram{}, err
	}
	if err := errors.Join(errs...); err != nil {
		return histogram.Histogram{}, err
	}
	var h histogram.Histogram
	for _, p := range partials {
		h.Merge(p)
	}
	return h, nil
}
