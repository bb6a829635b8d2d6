package handlers

import (
	"database/sql"

	"solitaire-sim/internal/histogram"

	"github.com/gin-gonic/gin"
)

// Stores are the two persisted views of the outcome histogram.
type Stores struct {
	File  *histogram.FileStore
	Table *histogram.TableStore
}

// RegisterHistogramRoutes wires the read-only histogram endpoints.
func RegisterHistogramRoutes(rg *gin.RouterGroup, stores Stores) {
	rg.GET("/histogram", HistogramHandler(stores))
	rg.GET("/histogram/reconcile", ReconcileHandler(stores))
}

// RegisterSimulationRoutes wires run history and single-deck replay.
func RegisterSimulationRoutes(rg *gin.RouterGroup, db *sql.DB) {
	rg.GET("/runs", RunsHandler(db))
	rg.POST("/replay", ReplayHandler())
}
