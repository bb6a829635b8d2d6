package handlers

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"solitaire-sim/internal/models"
	"solitaire-sim/internal/tracing"

	"github.com/gin-gonic/gin"
)

// RunsHandler lists recent simulation runs. Optional query parameter 'limit'
// (default 50, max 200).
func RunsHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartSpan(c.Request.Context(), "handlers.RunsHandler")
		defer span.End()

		limit := int64(50)
		if s := c.Query("limit"); s != "" {
			if v, err := strconv.ParseInt(s, 10, 64); err == nil {
				limit = v
			}
		}

		runs, err := models.ListSimulationRuns(ctx, db, limit)
		if err != nil {
			log.Printf("RunsHandler: %v", fmt.Errorf("ListSimulationRuns failed for limit=%d: %w", limit, err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		if runs == nil {
			runs = []models.SimulationRun{}
		}
		c.JSON(http.StatusOK, gin.H{"items": runs})
	}
}
