package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/Dosada05/snake-arena/engine"
)

// Config holds all application configuration parameters.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	// Defaults applied to tournaments that omit settings fields.
	EngineDefaults engine.Settings

	// Replay archive. Disabled when the bucket is empty.
	Archive ArchiveConfig
}

type ArchiveConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}

func (a ArchiveConfig) Enabled() bool {
	return a.BucketName != ""
}

// Load reads configuration from environment variables. A .env file is
// loaded first when present, for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := envInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	defaults := engine.DefaultSettings()
	if defaults.GridWidth, err = envInt("ENGINE_GRID_WIDTH", defaults.GridWidth); err != nil {
		return nil, err
	}
	if defaults.GridHeight, err = envInt("ENGINE_GRID_HEIGHT", defaults.GridHeight); err != nil {
		return nil, err
	}
	if defaults.MaxRounds, err = envInt("ENGINE_MAX_ROUNDS", defaults.MaxRounds); err != nil {
		return nil, err
	}
	moveTimeoutMS, err := envInt("ENGINE_MOVE_TIMEOUT_MS", int(defaults.MoveTimeout.Milliseconds()))
	if err != nil {
		return nil, err
	}
	defaults.MoveTimeout = time.Duration(moveTimeoutMS) * time.Millisecond
	if err := defaults.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine defaults: %w", err)
	}

	cfg := &Config{
		DatabaseURL:    dbURL,
		JWTSecretKey:   jwtKey,
		ServerPort:     port,
		EngineDefaults: defaults,
		Archive: ArchiveConfig{
			Endpoint:        os.Getenv("ARCHIVE_S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("ARCHIVE_S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("ARCHIVE_S3_SECRET_ACCESS_KEY"),
			BucketName:      os.Getenv("ARCHIVE_S3_BUCKET"),
			PublicBaseURL:   os.Getenv("ARCHIVE_PUBLIC_BASE_URL"),
		},
	}

	return cfg, nil
}

func envInt(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return v, nil
}
