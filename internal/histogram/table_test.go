package histogram

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"solitaire-sim/internal/database"
	"solitaire-sim/internal/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenAndMigrate(context.Background(), filepath.Join(t.TempDir(), "sim.db"))
	if err != nil {
		t.Fatalf("OpenAndMigrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewTableStoreSeedsZeroRows(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	s, err := NewTableStore(ctx, db)
	if err != nil {
		t.Fatalf("NewTableStore: %v", err)
	}
	rows, err := models.ListOutcomeCounts(ctx, db)
	if err != nil {
		t.Fatalf("ListOutcomeCounts: %v", err)
	}
	if len(rows) != Buckets {
		t.Fatalf("got %d rows, want %d", len(rows), Buckets)
	}
	for i, r := range rows {
		if r.Outcome != int64(i) || r.Count != 0 {
			t.Fatalf("row %d = %+v", i, r)
		}
	}

	// Seeding again must not duplicate or reset rows.
	var h Histogram
	h.Add(5)
	if err := s.Merge(ctx, h); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if _, err := NewTableStore(ctx, db); err != nil {
		t.Fatalf("NewTableStore again: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got[5] != 1 || got.Total() != 1 {
		t.Fatalf("counts after reseed: %v", got.Counts())
	}
}

func TestTableStoreTwoMergesOfSameRound(t *testing.T) {
	ctx := context.Background()
	s, err := NewTableStore(ctx, openTestDB(t))
	if err != nil {
		t.Fatalf("NewTableStore: %v", err)
	}
	h, _ := FromCounts(map[int]int64{10: 1})
	for i := 0; i < 2; i++ {
		if err := s.Merge(ctx, h); err != nil {
			t.Fatalf("Merge #%d: %v", i, err)
		}
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for outcome, n := range got {
		want := int64(0)
		if outcome == 10 {
			want = 2
		}
		if n != want {
			t.Fatalf("outcome %d = %d, want %d", outcome, n, want)
		}
	}
}

func TestTableStoreMergeIntoEmptyThenReload(t *testing.T) {
	ctx := context.Background()
	s, err := NewTableStore(ctx, openTestDB(t))
	if err != nil {
		t.Fatalf("NewTableStore: %v", err)
	}
	h, _ := FromCounts(map[int]int64{0: 2, 6: 11, 40: 3})
	if err := s.Merge(ctx, h); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != h {
		t.Fatalf("Load = %v, want %v", got, h)
	}
}

func TestTableStoreSequentialMergesEqualUnion(t *testing.T) {
	ctx := context.Background()
	h1, _ := FromCounts(map[int]int64{0: 1, 10: 4})
	h2, _ := FromCounts(map[int]int64{10: 3, 52: 1})
	union := h1
	union.Merge(h2)

	seq, err := NewTableStore(ctx, openTestDB(t))
	if err != nil {
		t.Fatal(err)
	}
	once, err := NewTableStore(ctx, openTestDB(t))
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range []Histogram{h1, h2} {
		if err := seq.Merge(ctx, h); err != nil {
			t.Fatalf("Merge: %v", err)
		}
	}
	if err := once.Merge(ctx, union); err != nil {
		t.Fatalf("Merge union: %v", err)
	}
	a, _ := seq.Load(ctx)
	b, _ := once.Load(ctx)
	if a != b {
		t.Fatalf("sequential %v != union %v", a, b)
	}
}

func TestTableStoreMissingRowIsCorruptAndRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	s, err := NewTableStore(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM outcome_counts WHERE outcome = 20`); err != nil {
		t.Fatal(err)
	}
	h, _ := FromCounts(map[int]int64{3: 1, 20: 1})
	if err := s.Merge(ctx, h); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Merge err = %v, want ErrCorrupt", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got[3] != 0 {
		t.Fatalf("partial merge was committed: outcome 3 = %d", got[3])
	}
}
