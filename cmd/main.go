package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/snake-arena/config"
	"github.com/Dosada05/snake-arena/db"
	"github.com/Dosada05/snake-arena/handlers"
	"github.com/Dosada05/snake-arena/live"
	"github.com/Dosada05/snake-arena/middleware"
	"github.com/Dosada05/snake-arena/repositories"
	api "github.com/Dosada05/snake-arena/routes"
	"github.com/Dosada05/snake-arena/sandbox"
	"github.com/Dosada05/snake-arena/schedule"
	"github.com/Dosada05/snake-arena/services"
	"github.com/Dosada05/snake-arena/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	var archive storage.FileUploader
	if cfg.Archive.Enabled() {
		archive, err = storage.NewS3Uploader(storage.S3UploaderConfig{
			Endpoint:        cfg.Archive.Endpoint,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
			BucketName:      cfg.Archive.BucketName,
			PublicBaseURL:   cfg.Archive.PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize replay archive", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("replay archive initialized", slog.String("bucket", cfg.Archive.BucketName))
	} else {
		logger.Info("replay archive disabled")
	}

	wsHub := live.NewHub(logger)
	go wsHub.Run()

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	scriptRepo := repositories.NewPostgresScriptRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)

	authService := services.NewAuthService(userRepo)
	scriptService := services.NewScriptService(scriptRepo)
	matchService := services.NewMatchService(matchRepo)
	runner := services.NewEngineRunner(sandbox.NewGoja())
	tournamentService := services.NewTournamentService(
		cfg.EngineDefaults,
		tournamentRepo,
		participantRepo,
		matchRepo,
		scriptRepo,
		userRepo,
		schedule.NewRoundRobin(),
		runner,
		wsHub,
		archive,
		logger,
	)
	logger.Info("services initialized")

	auth := middleware.NewAuthenticator(cfg.JWTSecretKey)
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	scriptHandler := handlers.NewScriptHandler(scriptService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, logger)
	matchHandler := handlers.NewMatchHandler(matchService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		auth,
		authHandler,
		scriptHandler,
		tournamentHandler,
		matchHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
