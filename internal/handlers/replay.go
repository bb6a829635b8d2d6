package handlers

import (
	"fmt"
	"net/http"

	"solitaire-sim/internal/game/common"
	"solitaire-sim/internal/game/elimination"
	"solitaire-sim/internal/models"
	"solitaire-sim/internal/tracing"

	"github.com/gin-gonic/gin"
)

type replayRequest struct {
	Deck string `json:"deck" binding:"required"`
}

type replayResponse struct {
	Outcome   int      `json:"outcome"`
	Remaining []string `json:"remaining"`
}

// ReplayHandler reduces one caller-supplied deck. The deck must list all 52
// cards once, as card names or ids.
func ReplayHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := tracing.StartSpan(c.Request.Context(), "handlers.ReplayHandler")
		defer span.End()

		var req replayRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeAPIError(c, models.ErrInvalidJSON)
			return
		}
		deck, err := common.ParseDeck(req.Deck)
		if err != nil {
			writeAPIError(c, fmt.Errorf("%w: %w", elimination.ErrInvalidDeck, err))
			return
		}
		left, err := elimination.Remaining(deck)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		names := make([]string, len(left))
		for i, id := range left {
			names[i] = id.String()
		}
		c.JSON(http.StatusOK, replayResponse{Outcome: len(left), Remaining: names})
	}
}
