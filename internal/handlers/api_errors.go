package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"solitaire-sim/internal/game/elimination"
	"solitaire-sim/internal/histogram"
	"solitaire-sim/internal/models"

	"github.com/gin-gonic/gin"
)

func writeAPIError(c *gin.Context, err error) {
	if err == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if errors.Is(err, models.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	// Safe typed validation errors (do NOT echo raw errors).
	switch {
	case errors.Is(err, models.ErrInvalidJSON):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	case errors.Is(err, elimination.ErrInvalidDeck):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid deck", "detail": err.Error()})
		return
	case errors.Is(err, errUnknownSource):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown histogram source"})
		return
	case errors.Is(err, histogram.ErrCorrupt):
		log.Printf("corrupt histogram store: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "histogram store is corrupt"})
		return
	}

	// Unknown/internal errors: log details, return generic message.
	log.Printf("internal error: %v", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
