package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/billiards/internal/game"
)

const commandTimeout = 2 * time.Second

// TableControl is the subset of *game.Runner the HTTP API drives.
type TableControl interface {
	Latest() game.Frame
	Shoot(ctx context.Context, v game.Vec2) error
	Rerack(ctx context.Context) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
}

// GetTable returns the static geometry and physics constants.
func GetTable(table *game.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, table)
	}
}

// GetTableState returns the most recent frame.
func GetTableState(ctl TableControl) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, ctl.Latest())
	}
}

// TakeShot sets the cue ball velocity.
func TakeShot(ctl TableControl) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			VX *float64 `json:"vx" binding:"required"`
			VY *float64 `json:"vy" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "vx and vy required"})
			return
		}

		v := game.NewVec2(*req.VX, *req.VY)
		if !runCommand(c, "shot", func(ctx context.Context) error { return ctl.Shoot(ctx, v) }) {
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "ok", "velocity": v})
	}
}

// Rerack restores the opening layout.
func Rerack(ctl TableControl) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !runCommand(c, "rerack", ctl.Rerack) {
			return
		}
		c.JSON(http.StatusOK, ctl.Latest())
	}
}

// PauseTable stops stepping the simulation.
func PauseTable(ctl TableControl) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !runCommand(c, "pause", ctl.Pause) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": game.StatusPaused})
	}
}

// ResumeTable continues stepping after a pause.
func ResumeTable(ctl TableControl) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !runCommand(c, "resume", ctl.Resume) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": game.StatusRunning})
	}
}

// runCommand runs fn against the table and writes the error response when
// it fails. It reports whether the caller should write its own response.
func runCommand(c *gin.Context, name string, fn func(context.Context) error) bool {
	ctx, cancel := context.WithTimeout(c.Request.Context(), commandTimeout)
	defer cancel()

	err := fn(ctx)
	switch {
	case err == nil:
		return true
	case errors.Is(err, game.ErrRunnerStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "table is not running"})
	case errors.Is(err, context.DeadlineExceeded):
		log.Printf("[TABLE] %s timed out", name)
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "table did not respond"})
	default:
		log.Printf("[TABLE] %s failed: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "command failed"})
	}
	return false
}
