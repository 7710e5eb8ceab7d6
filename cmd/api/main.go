package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/predictarena/arena-backend/api/routes"
	"github.com/predictarena/arena-backend/internal/config"
	"github.com/predictarena/arena-backend/internal/handlers"
	"github.com/predictarena/arena-backend/internal/queue"
	mongorepo "github.com/predictarena/arena-backend/internal/repositories/mongodb"
	"github.com/predictarena/arena-backend/internal/scheduler"
	"github.com/predictarena/arena-backend/internal/services"
	"github.com/predictarena/arena-backend/pkg/mongodb"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to MongoDB
	mongoClient, err := mongodb.NewClient(ctx, cfg.MongoDB.URI)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			slog.Error("Error disconnecting from MongoDB", "error", err)
		}
	}()
	db := mongoClient.Database(cfg.MongoDB.Database)

	// The uniqueness invariants live in these indexes; refuse to start without them.
	if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
		slog.Error("Failed to ensure indexes", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	competitionRepo := mongorepo.NewCompetitionRepository(db)
	selectionRepo := mongorepo.NewTeamSelectionRepository(db)
	walletRepo := mongorepo.NewWalletRepository(db)
	starRepo := mongorepo.NewStarReservationRepository(db)
	rankRepo := mongorepo.NewRankRepository(db)
	ledgerRepo := mongorepo.NewSettlementLedgerRepository(db)
	userRepo := mongorepo.NewUserRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, cfg)
	competitionService := services.NewCompetitionService(competitionRepo, selectionRepo)
	entryService := services.NewEntryService(competitionRepo, selectionRepo, walletRepo, starRepo, rankRepo, userRepo)
	scoringService := services.NewScoringService(selectionRepo, competitionRepo, services.NewResultPointsAdapter())
	verificationService := services.NewVerificationService(selectionRepo, competitionRepo)
	rankService := services.NewRankService(rankRepo)
	settlementService := services.NewSettlementService(
		competitionRepo, selectionRepo, walletRepo, rankRepo, ledgerRepo, userRepo, rankService)
	walletService := services.NewWalletService(walletRepo)

	// Initialize handlers
	deps := routes.HandlerDependencies{
		AuthHandler:        handlers.NewAuthHandler(authService),
		CompetitionHandler: handlers.NewCompetitionHandler(competitionService, entryService, verificationService),
		AdminHandler:       handlers.NewAdminHandler(verificationService, settlementService, competitionService, scoringService),
		RankHandler:        handlers.NewRankHandler(rankService),
		WalletHandler:      handlers.NewWalletHandler(walletService),
	}
	router := routes.SetupRouter(cfg, deps)

	// Periodic jobs: settlement of ended competitions, verification grace sweep,
	// leaderboard refresh.
	jobs := scheduler.New(cfg.Engine, competitionRepo, settlementService, verificationService, rankService)
	if err := jobs.Start(ctx); err != nil {
		slog.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer jobs.Stop()

	// Score feed consumer
	var consumer *queue.ScoreConsumer
	if cfg.Queue.Enabled {
		consumer = queue.NewScoreConsumer(cfg.Queue, scoringService)
		if err := consumer.Start(ctx); err != nil {
			slog.Error("Failed to start score consumer", "error", err)
			os.Exit(1)
		}
		defer consumer.Stop()
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	slog.Info("Server exiting")
}

// setupLogger installs the process-wide structured logger
func setupLogger(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
