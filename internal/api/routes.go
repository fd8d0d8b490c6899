package api

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/billiards/internal/api/handlers"
	"github.com/playmatatu/billiards/internal/auth"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/playmatatu/billiards/internal/game"
	"github.com/playmatatu/billiards/internal/middleware"
)

// Deps carries everything the routes need. History may be nil when no
// database is configured.
type Deps struct {
	Config    *config.Config
	Table     *game.Table
	Control   handlers.TableControl
	History   handlers.HistoryReader
	Issuer    *auth.Issuer
	WebSocket gin.HandlerFunc
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, d Deps) {
	router.Use(middleware.CORSMiddleware(d.Config))

	if d.Config.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	operator := middleware.RequireOperator(d.Issuer, d.Config.RequireAuth)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)
		v1.POST("/auth/token", handlers.IssueToken(d.Issuer))

		table := v1.Group("/table")
		{
			table.GET("", handlers.GetTable(d.Table))
			table.GET("/state", handlers.GetTableState(d.Control))
			table.GET("/history", handlers.GetHistory(d.History))
			table.GET("/ws", middleware.WebSocketCORSCheck(d.Config), d.WebSocket)

			table.POST("/shot", operator, handlers.TakeShot(d.Control))
			table.POST("/rerack", operator, handlers.Rerack(d.Control))
			table.POST("/pause", operator, handlers.PauseTable(d.Control))
			table.POST("/resume", operator, handlers.ResumeTable(d.Control))
		}
	}
}
