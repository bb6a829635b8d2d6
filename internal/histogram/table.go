package histogram

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"solitaire-sim/internal/models"
	"solitaire-sim/internal/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// TableStore keeps the histogram in the outcome_counts table, one row per
// outcome. Merges add to the stored counts in SQL inside one transaction.
type TableStore struct {
	db *sql.DB
}

// NewTableStore seeds the 53 zero rows when the table is empty.
func NewTableStore(ctx context.Context, db *sql.DB) (*TableStore, error) {
	s := &TableStore{db: db}
	if err := s.ensureSeeded(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *TableStore) Name() string { return "table" }

func (s *TableStore) ensureSeeded(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("TableStore: begin seed tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	n, err := models.CountOutcomeRows(ctx, tx)
	if err != nil {
		return fmt.Errorf("TableStore: %w", err)
	}
	if n == 0 {
		if err := models.SeedOutcomeRowsTx(ctx, tx, Buckets); err != nil {
			return fmt.Errorf("TableStore: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("TableStore: commit seed tx: %w", err)
	}
	committed = true
	return nil
}

func (s *TableStore) Merge(ctx context.Context, h Histogram) error {
	ctx, span := tracing.StartSpan(ctx, "histogram.TableStore.Merge")
	defer span.End()
	span.SetAttributes(attribute.Int64("histogram.trials", h.Total()))

	if err := s.merge(ctx, h); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "merge")
		return err
	}
	return nil
}

func (s *TableStore) merge(ctx context.Context, h Histogram) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("TableStore: begin merge tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for outcome, n := range h {
		// Zero buckets keep their running total untouched.
		if n == 0 {
			continue
		}
		if err := models.AddOutcomeCountTx(ctx, tx, int64(outcome), n); err != nil {
			if errors.Is(err, models.ErrOutcomeRowMissing) {
				return fmt.Errorf("TableStore: %w: %w", ErrCorrupt, err)
			}
			return fmt.Errorf("TableStore: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("TableStore: commit merge tx: %w", err)
	}
	committed = true
	return nil
}

func (s *TableStore) Load(ctx context.Context) (Histogram, error) {
	ctx, span := tracing.StartSpan(ctx, "histogram.TableStore.Load")
	defer span.End()

	rows, err := models.ListOutcomeCounts(ctx, s.db)
	if err != nil {
		return Histogram{}, fmt.Errorf("TableStore: %w", err)
	}
	var h Histogram
	for _, r := range rows {
		if r.Outcome < 0 || r.Outcome >= Buckets || r.Count < 0 {
			return Histogram{}, fmt.Errorf("TableStore: %w: row outcome=%d count=%d", ErrCorrupt, r.Outcome, r.Count)
		}
		h[r.Outcome] = r.Count
	}
	return h, nil
}
