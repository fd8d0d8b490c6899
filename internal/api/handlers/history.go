package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/billiards/internal/game"
	"github.com/playmatatu/billiards/internal/models"
)

// HistoryReader lists persisted table events.
type HistoryReader interface {
	Recent(ctx context.Context, eventType string, limit int) ([]models.TableEvent, error)
}

// GetHistory handles GET /table/history?type=pocket&limit=50.
func GetHistory(store HistoryReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is not enabled"})
			return
		}

		eventType := c.Query("type")
		switch eventType {
		case "", game.EventShot, game.EventPocket, game.EventScratch:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "type must be shot, pocket or scratch"})
			return
		}

		limit := 50
		if s := c.Query("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = n
		}

		events, err := store.Recent(c.Request.Context(), eventType, limit)
		if err != nil {
			log.Printf("[DB] History query failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
	}
}
