package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"solitaire-sim/internal/histogram"
	"solitaire-sim/internal/models"
	"solitaire-sim/internal/tracing"

	"github.com/gin-gonic/gin"
)

var errUnknownSource = errors.New("unknown histogram source")

type histogramResponse struct {
	Source  string                `json:"source"`
	Stats   histogram.Stats       `json:"stats"`
	Buckets []models.OutcomeCount `json:"buckets"`
}

func (s Stores) sink(source string) (histogram.Sink, error) {
	switch source {
	case "", "table":
		return s.Table, nil
	case "file":
		return s.File, nil
	}
	return nil, fmt.Errorf("%w: %q", errUnknownSource, source)
}

// HistogramHandler serves the cumulative histogram from one store.
// Query parameter 'source' selects "table" (default) or "file".
func HistogramHandler(stores Stores) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartSpan(c.Request.Context(), "handlers.HistogramHandler")
		defer span.End()

		sink, err := stores.sink(c.Query("source"))
		if err != nil {
			writeAPIError(c, err)
			return
		}
		h, err := sink.Load(ctx)
		if err != nil {
			writeAPIError(c, fmt.Errorf("load %s histogram: %w", sink.Name(), err))
			return
		}
		buckets := make([]models.OutcomeCount, 0, histogram.Buckets)
		for outcome, n := range h {
			buckets = append(buckets, models.OutcomeCount{Outcome: int64(outcome), Count: n})
		}
		c.JSON(http.StatusOK, histogramResponse{Source: sink.Name(), Stats: h.Stats(), Buckets: buckets})
	}
}

// ReconcileHandler compares the file and table stores. Divergence is 409.
func ReconcileHandler(stores Stores) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartSpan(c.Request.Context(), "handlers.ReconcileHandler")
		defer span.End()

		report, err := histogram.Reconcile(ctx, stores.File, stores.Table)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"consistent": true, "report": report})
		case errors.Is(err, histogram.ErrDiverged):
			c.JSON(http.StatusConflict, gin.H{"consistent": false, "report": report})
		default:
			writeAPIError(c, err)
		}
	}
}
