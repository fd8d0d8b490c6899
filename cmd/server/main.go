package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	"github.com/playmatatu/billiards/internal/api"
	"github.com/playmatatu/billiards/internal/api/handlers"
	"github.com/playmatatu/billiards/internal/auth"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/playmatatu/billiards/internal/database"
	"github.com/playmatatu/billiards/internal/game"
	"github.com/playmatatu/billiards/internal/history"
	"github.com/playmatatu/billiards/internal/migrations"
	"github.com/playmatatu/billiards/internal/redis"
	"github.com/playmatatu/billiards/internal/ws"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	table := game.NewTable(game.TableConfigFrom(cfg))
	if err := table.Config.Validate(); err != nil {
		log.Fatalf("Table configuration error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database (optional)
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if db != nil {
		defer db.Close()
		if cfg.MigrateOnStart {
			log.Println("[MIGRATE] Running DB migrations on startup...")
			if err := migrations.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}
	} else {
		log.Println("[DB] DATABASE_URL not set; shot history disabled")
	}

	// Redis (optional)
	rdb, err := redis.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
	} else {
		log.Println("[REDIS] REDIS_URL not set; frame publishing disabled")
	}

	sim := restoreOrRack(ctx, rdb, table)
	runner := game.NewRunner(sim, game.NewTickerScheduler(cfg.TickRate))

	// Observers run their own goroutines so the loop never waits on I/O.
	hub := ws.NewHub()
	runner.AddObserver(hub)
	go hub.Run(ctx)

	var historyReader handlers.HistoryReader
	if db != nil {
		historyReader = startHistory(ctx, db, runner)
	}

	if rdb != nil {
		pub := redis.NewFramePublisher(rdb, time.Duration(cfg.RedisStateTTLSecs)*time.Second, 128)
		runner.AddObserver(pub)
		go pub.Run(ctx)
	}

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.OperatorPasswordHash, time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	wsHandler := ws.NewHandler(hub, runner, issuer, cfg.RequireAuth)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, api.Deps{
		Config:    cfg,
		Table:     table,
		Control:   runner,
		History:   historyReader,
		Issuer:    issuer,
		WebSocket: wsHandler.HandleWebSocket,
	})

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- runner.Run(ctx)
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Starting billiards table server on port %s (%d ticks/s, auth=%v)", cfg.Port, cfg.TickRate, cfg.RequireAuth)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[TABLE] Loop exited: %v", err)
	}
}

// restoreOrRack resumes from the frame cached in Redis when there is one,
// and racks a fresh table otherwise.
func restoreOrRack(ctx context.Context, rdb *goredis.Client, table *game.Table) *game.Simulation {
	if rdb == nil {
		return game.NewSimulation(table)
	}
	f, err := redis.LoadState(ctx, rdb)
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			log.Printf("[REDIS] Could not load cached state: %v", err)
		}
		return game.NewSimulation(table)
	}
	sim, err := game.RestoreSimulation(table, f)
	if err != nil {
		log.Printf("[REDIS] Ignoring cached state: %v", err)
		return game.NewSimulation(table)
	}
	log.Printf("[TABLE] Resumed from cached frame at tick %d (%d balls)", f.Tick, sim.Len())
	return sim
}

func startHistory(ctx context.Context, db *sqlx.DB, runner *game.Runner) *history.Store {
	store := history.NewStore(db)
	rec := history.NewRecorder(store, 256)
	runner.AddObserver(rec)
	go rec.Run(ctx)
	return store
}
