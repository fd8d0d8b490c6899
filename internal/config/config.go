package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ErrInvalidConfig is wrapped by Validate failures.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	// Environment
	Environment string

	// Database (optional; empty disables shot history)
	DatabaseURL    string
	MigrateOnStart bool
	MigrationsPath string

	// Redis (optional; empty disables frame publishing)
	RedisURL          string
	RedisStateTTLSecs int

	// Server
	Port        string
	FrontendURL string

	// Loop
	TickRate int // ticks per second

	// Table geometry
	TableWidth    float64
	TableHeight   float64
	RailThickness float64
	BallRadius    float64
	PocketRadius  float64 // 0 means twice the ball radius
	CueSpawnX     float64
	CueStartX     float64

	// Physics and input
	Friction      float64
	VelocityFloor float64
	ShotScale     float64
	GrabMargin    float64

	// Security
	RequireAuth          bool
	JWTSecret            string
	OperatorPasswordHash string // bcrypt
	TokenTTLMinutes      int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),

		// Redis
		RedisURL:          getEnv("REDIS_URL", ""),
		RedisStateTTLSecs: getEnvInt("REDIS_STATE_TTL_SECONDS", 3600),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Loop
		TickRate: getEnvInt("TICK_RATE", 60),

		// Table geometry
		TableWidth:    getEnvFloat("TABLE_WIDTH", 1000),
		TableHeight:   getEnvFloat("TABLE_HEIGHT", 500),
		RailThickness: getEnvFloat("RAIL_THICKNESS", 32),
		BallRadius:    getEnvFloat("BALL_RADIUS", 10),
		PocketRadius:  getEnvFloat("POCKET_RADIUS", 0),
		CueSpawnX:     getEnvFloat("CUE_SPAWN_X", 150),
		CueStartX:     getEnvFloat("CUE_START_X", 300),

		// Physics and input
		Friction:      getEnvFloat("FRICTION", 0.985),
		VelocityFloor: getEnvFloat("VELOCITY_FLOOR", 0.1),
		ShotScale:     getEnvFloat("SHOT_SCALE", 10),
		GrabMargin:    getEnvFloat("GRAB_MARGIN", 5),

		// Security
		RequireAuth:          getEnvBool("REQUIRE_AUTH", false),
		JWTSecret:            getEnv("JWT_SECRET", "change-me-in-production"),
		OperatorPasswordHash: getEnv("OPERATOR_PASSWORD_HASH", ""),
		TokenTTLMinutes:      getEnvInt("TOKEN_TTL_MINUTES", 60),
	}
}

// Validate checks the settings that are not table geometry; the table is
// validated by the game package once it is built.
func (c *Config) Validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("%w: TICK_RATE must be positive, got %d", ErrInvalidConfig, c.TickRate)
	}
	if c.RequireAuth && c.OperatorPasswordHash == "" {
		return fmt.Errorf("%w: REQUIRE_AUTH needs OPERATOR_PASSWORD_HASH", ErrInvalidConfig)
	}
	if c.RequireAuth && c.Environment == "production" && c.JWTSecret == "change-me-in-production" {
		return fmt.Errorf("%w: JWT_SECRET must be set in production", ErrInvalidConfig)
	}
	if c.TokenTTLMinutes <= 0 {
		return fmt.Errorf("%w: TOKEN_TTL_MINUTES must be positive", ErrInvalidConfig)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
