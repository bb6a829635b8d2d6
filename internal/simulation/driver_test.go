package simulation

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"solitaire-sim/internal/database"
	"solitaire-sim/internal/histogram"
	"solitaire-sim/internal/models"
)

type recordingReporter struct {
	mu      sync.Mutex
	rounds  []RoundResult
	summary *Summary
	onRound func(RoundResult)
}

func (r *recordingReporter) RoundDone(res RoundResult) {
	r.mu.Lock()
	r.rounds = append(r.rounds, res)
	r.mu.Unlock()
	if r.onRound != nil {
		r.onRound(res)
	}
}

func (r *recordingReporter) Done(s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary = &s
}

// flakySink fails its first failures merges with err, then delegates to an
// in-memory histogram.
type flakySink struct {
	name     string
	failures int
	err      error
	calls    int
	h        histogram.Histogram
}

func (f *flakySink) Name() string { return f.name }

func (f *flakySink) Merge(_ context.Context, h histogram.Histogram) error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	f.h.Merge(h)
	return nil
}

func (f *flakySink) Load(context.Context) (histogram.Histogram, error) { return f.h, nil }

func testConfig() Config {
	return Config{
		Rounds:         3,
		TrialsPerRound: 500,
		Workers:        4,
		Seed:           12345,
		MergeAttempts:  3,
	}
}

func stores(t *testing.T) (*histogram.FileStore, *histogram.TableStore) {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenAndMigrate(ctx, filepath.Join(t.TempDir(), "sim.db"))
	if err != nil {
		t.Fatalf("OpenAndMigrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	table, err := histogram.NewTableStore(ctx, db)
	if err != nil {
		t.Fatalf("NewTableStore: %v", err)
	}
	return histogram.NewFileStore(filepath.Join(t.TempDir(), "solitaire.txt")), table
}

func TestDriverMergesEveryRoundIntoBothStores(t *testing.T) {
	ctx := context.Background()
	file, table := stores(t)
	rep := &recordingReporter{}
	d, err := NewDriver(testConfig(), []histogram.Sink{file, table}, WithReporter(rep))
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}

	var reconcileErrs []error
	rep.onRound = func(RoundResult) {
		if _, err := histogram.Reconcile(ctx, file, table); err != nil {
			reconcileErrs = append(reconcileErrs, err)
		}
	}

	sum, err := d.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(reconcileErrs) > 0 {
		t.Fatalf("stores diverged mid-run: %v", reconcileErrs)
	}
	if sum.Trials != 1500 || sum.MergedTrials != 1500 || sum.MergedRounds != 3 || sum.SkippedRounds != 0 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if len(rep.rounds) != 3 || rep.summary == nil {
		t.Fatalf("reporter saw %d rounds, summary=%v", len(rep.rounds), rep.summary)
	}
	for i, r := range rep.rounds {
		if r.Round != i+1 || r.Histogram.Total() != 500 || len(r.Merged) != 2 {
			t.Fatalf("round %d result %+v", i, r)
		}
	}

	report, err := histogram.Reconcile(ctx, file, table)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if report.Totals["file"] != 1500 || report.Totals["table"] != 1500 {
		t.Fatalf("totals = %v", report.Totals)
	}
	stored, _ := file.Load(ctx)
	if stored != sum.Histogram {
		t.Fatalf("stored %v != run histogram %v", stored, sum.Histogram)
	}
	for outcome := 1; outcome < histogram.Buckets; outcome += 2 {
		if sum.Histogram[outcome] != 0 {
			t.Fatalf("odd outcome %d observed %d times", outcome, sum.Histogram[outcome])
		}
	}
}

func TestDriverAccumulatesAcrossRuns(t *testing.T) {
	ctx := context.Background()
	file, table := stores(t)
	cfg := testConfig()
	cfg.Rounds = 2
	for run := 0; run < 2; run++ {
		cfg.Seed = uint64(run + 1)
		d, err := NewDriver(cfg, []histogram.Sink{file, table})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := d.Run(ctx); err != nil {
			t.Fatalf("Run #%d: %v", run, err)
		}
	}
	report, err := histogram.Reconcile(ctx, file, table)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if report.Totals["file"] != 2000 {
		t.Fatalf("cumulative total = %d, want 2000", report.Totals["file"])
	}
}

func TestDriverSameSeedSameHistogram(t *testing.T) {
	ctx := context.Background()
	var results []histogram.Histogram
	for i := 0; i < 2; i++ {
		sink := &flakySink{name: "mem"}
		d, err := NewDriver(testConfig(), []histogram.Sink{sink})
		if err != nil {
			t.Fatal(err)
		}
		sum, err := d.Run(ctx)
		if err != nil {
			t.Fatal(err)
		}
		results = append(results, sum.Histogram)
	}
	if results[0] != results[1] {
		t.Fatalf("seeded runs differ: %v vs %v", results[0], results[1])
	}
}

func TestDriverSplitsTrialsAcrossWorkers(t *testing.T) {
	cases := []struct{ trials, workers int }{
		{10, 3},
		{5, 16},
		{1, 1},
		{1001, 8},
	}
	for _, tc := range cases {
		cfg := testConfig()
		cfg.Rounds = 1
		cfg.TrialsPerRound = tc.trials
		cfg.Workers = tc.workers
		sink := &flakySink{name: "mem"}
		d, err := NewDriver(cfg, []histogram.Sink{sink})
		if err != nil {
			t.Fatal(err)
		}
		sum, err := d.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if got := sink.h.Total(); got != int64(tc.trials) {
			t.Fatalf("trials=%d workers=%d: merged %d trials", tc.trials, tc.workers, got)
		}
		if sum.Trials != int64(tc.trials) {
			t.Fatalf("summary trials = %d", sum.Trials)
		}
	}
}

func TestDriverRetriesTransientMergeFailures(t *testing.T) {
	sink := &flakySink{name: "flaky", failures: 2, err: errors.New("disk busy")}
	cfg := testConfig()
	cfg.Rounds = 1
	d, err := NewDriver(cfg, []histogram.Sink{sink})
	if err != nil {
		t.Fatal(err)
	}
	sum, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sink.calls != 3 || sum.MergedRounds != 1 || sink.h.Total() != 500 {
		t.Fatalf("calls=%d summary=%+v total=%d", sink.calls, sum, sink.h.Total())
	}
}

func TestDriverSkipsRoundAfterRetriesExhausted(t *testing.T) {
	first := &flakySink{name: "first"}
	broken := &flakySink{name: "broken", failures: 1 << 30, err: errors.New("unwritable")}
	last := &flakySink{name: "last"}
	rep := &recordingReporter{}

	cfg := testConfig()
	cfg.Rounds = 2
	d, err := NewDriver(cfg, []histogram.Sink{first, broken, last}, WithReporter(rep))
	if err != nil {
		t.Fatal(err)
	}
	sum, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.SkippedRounds != 2 || sum.MergedRounds != 0 || sum.Trials != 1000 || sum.MergedTrials != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if broken.calls != 2*cfg.MergeAttempts {
		t.Fatalf("broken sink called %d times, want %d", broken.calls, 2*cfg.MergeAttempts)
	}
	if last.calls != 0 {
		t.Fatalf("sink after the failure was called %d times", last.calls)
	}
	r := rep.rounds[0]
	if !r.Skipped || r.Failed != "broken" || len(r.Merged) != 1 || r.Merged[0] != "first" || len(r.NotTried) != 1 {
		t.Fatalf("round result = %+v", r)
	}
	if rep.summary == nil || rep.summary.SkippedRounds != 2 {
		t.Fatal("summary not reported with skipped rounds")
	}
}

func TestDriverDoesNotRetryCorruptStore(t *testing.T) {
	sink := &flakySink{name: "corrupt", failures: 1 << 30, err: histogram.ErrCorrupt}
	cfg := testConfig()
	cfg.Rounds = 1
	d, err := NewDriver(cfg, []histogram.Sink{sink})
	if err != nil {
		t.Fatal(err)
	}
	sum, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sink.calls != 1 || sum.SkippedRounds != 1 {
		t.Fatalf("calls=%d skipped=%d", sink.calls, sum.SkippedRounds)
	}
}

func TestDriverCancelledBeforeMergeWritesNothing(t *testing.T) {
	file, table := stores(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d, err := NewDriver(testConfig(), []histogram.Sink{file, table})
	if err != nil {
		t.Fatal(err)
	}
	sum, err := d.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run err = %v, want context.Canceled", err)
	}
	if sum.Rounds != 0 {
		t.Fatalf("rounds completed = %d", sum.Rounds)
	}
	report, err := histogram.Reconcile(context.Background(), file, table)
	if err != nil {
		t.Fatal(err)
	}
	if report.Totals["file"] != 0 || report.Totals["table"] != 0 {
		t.Fatalf("cancelled run persisted trials: %v", report.Totals)
	}
}

func TestDriverCancelMidRunKeepsCompletedRounds(t *testing.T) {
	file, table := stores(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rep := &recordingReporter{onRound: func(RoundResult) { cancel() }}

	d, err := NewDriver(testConfig(), []histogram.Sink{file, table}, WithReporter(rep))
	if err != nil {
		t.Fatal(err)
	}
	sum, err := d.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run err = %v, want context.Canceled", err)
	}
	if sum.MergedRounds != 1 {
		t.Fatalf("merged rounds = %d, want 1", sum.MergedRounds)
	}
	report, err := histogram.Reconcile(context.Background(), file, table)
	if err != nil {
		t.Fatal(err)
	}
	if report.Totals["table"] != 500 {
		t.Fatalf("table total = %d, want 500", report.Totals["table"])
	}
}

// cancelAfterMerge cancels the run right after its sink commits, so the
// cancellation lands between two sinks of the same round.
type cancelAfterMerge struct {
	histogram.Sink
	cancel context.CancelFunc
}

func (c cancelAfterMerge) Merge(ctx context.Context, h histogram.Histogram) error {
	err := c.Sink.Merge(ctx, h)
	c.cancel()
	return err
}

func TestDriverCancelDuringMergeKeepsStoresInStep(t *testing.T) {
	for _, rounds := range []int{1, 2} {
		file, table := stores(t)
		ctx, cancel := context.WithCancel(context.Background())

		cfg := testConfig()
		cfg.Rounds = rounds
		d, err := NewDriver(cfg, []histogram.Sink{cancelAfterMerge{Sink: file, cancel: cancel}, table})
		if err != nil {
			t.Fatal(err)
		}
		sum, err := d.Run(ctx)
		cancel()

		if rounds == 1 && err != nil {
			t.Fatalf("rounds=1: Run err = %v, want nil", err)
		}
		if rounds > 1 && !errors.Is(err, context.Canceled) {
			t.Fatalf("rounds=%d: Run err = %v, want context.Canceled", rounds, err)
		}
		if sum.MergedRounds != 1 || sum.SkippedRounds != 0 {
			t.Fatalf("rounds=%d: merged=%d skipped=%d", rounds, sum.MergedRounds, sum.SkippedRounds)
		}
		report, err := histogram.Reconcile(context.Background(), file, table)
		if err != nil {
			t.Fatalf("rounds=%d: stores diverged: %v", rounds, err)
		}
		if report.Totals["file"] != 500 || report.Totals["table"] != 500 {
			t.Fatalf("rounds=%d: totals = %v", rounds, report.Totals)
		}
	}
}

func TestDriverRecordsRunInLedger(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenAndMigrate(ctx, filepath.Join(t.TempDir(), "sim.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	table, err := histogram.NewTableStore(ctx, db)
	if err != nil {
		t.Fatal(err)
	}

	d, err := NewDriver(testConfig(), []histogram.Sink{table}, WithLedger(NewSQLLedger(db)), WithRunID("run-1"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Run(ctx); err != nil {
		t.Fatal(err)
	}
	runs, err := models.ListSimulationRuns(ctx, db, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs", len(runs))
	}
	r := runs[0]
	if r.ID != "run-1" || r.Rounds != 3 || r.TrialsPerRound != 500 || r.MergedRounds != 3 || r.FinishedAt == nil {
		t.Fatalf("ledger row = %+v", r)
	}
}

func TestNewDriverValidates(t *testing.T) {
	sink := &flakySink{name: "mem"}
	bad := []Config{
		{Rounds: 0, TrialsPerRound: 1},
		{Rounds: 1, TrialsPerRound: 0},
	}
	for _, cfg := range bad {
		if _, err := NewDriver(cfg, []histogram.Sink{sink}); err == nil {
			t.Fatalf("NewDriver(%+v) should fail", cfg)
		}
	}
	if _, err := NewDriver(Config{Rounds: 1, TrialsPerRound: 1}, nil); err == nil {
		t.Fatal("NewDriver without sinks should fail")
	}
}
