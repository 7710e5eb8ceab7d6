package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/predictarena/arena-backend/internal/config"
	"github.com/predictarena/arena-backend/internal/models"
	"github.com/predictarena/arena-backend/internal/repositories"
	"github.com/predictarena/arena-backend/internal/services"
)

// Scheduler runs the engine's periodic jobs: settling competitions past their
// end date, sweeping unverified participants past the grace period and
// refreshing leaderboard positions.
type Scheduler struct {
	cfg                 config.EngineConfig
	competitionRepo     repositories.CompetitionRepository
	settlementService   services.SettlementService
	verificationService services.VerificationService
	rankService         services.RankService

	sched gocron.Scheduler
}

// New creates a new Scheduler
func New(
	cfg config.EngineConfig,
	competitionRepo repositories.CompetitionRepository,
	settlementService services.SettlementService,
	verificationService services.VerificationService,
	rankService services.RankService,
) *Scheduler {
	return &Scheduler{
		cfg:                 cfg,
		competitionRepo:     competitionRepo,
		settlementService:   settlementService,
		verificationService: verificationService,
		rankService:         rankService,
	}
}

// Start registers the jobs and starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(s.cfg.SettleInterval),
		gocron.NewTask(func() { s.settleEnded(ctx) }),
	); err != nil {
		return fmt.Errorf("failed to register settlement job: %w", err)
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(s.cfg.SettleInterval),
		gocron.NewTask(func() { s.sweepUnverified(ctx) }),
	); err != nil {
		return fmt.Errorf("failed to register verification sweep job: %w", err)
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(s.cfg.RankRecomputeInterval),
		gocron.NewTask(func() { s.recomputeRanks(ctx) }),
	); err != nil {
		return fmt.Errorf("failed to register rank recompute job: %w", err)
	}

	sched.Start()
	s.sched = sched
	slog.Info("Scheduler started",
		"settleInterval", s.cfg.SettleInterval,
		"rankRecomputeInterval", s.cfg.RankRecomputeInterval,
		"verificationGracePeriod", s.cfg.VerificationGracePeriod)
	return nil
}

// settleEnded settles every active competition whose end date has passed.
// Settlement is idempotent, so a job firing while an admin deactivates the
// same competition by hand is harmless.
func (s *Scheduler) settleEnded(ctx context.Context) {
	competitions, err := s.competitionRepo.FindActiveEndedBefore(ctx, time.Now())
	if err != nil {
		slog.Error("Settlement sweep: failed to list ended competitions", "error", err)
		return
	}
	for _, competition := range competitions {
		if err := s.settlementService.Deactivate(ctx, competition.ID); err != nil {
			slog.Error("Settlement sweep: failed to settle competition",
				"error", err, "competitionId", competition.ID.Hex())
		}
	}
}

// sweepUnverified disqualifies participants whose required proofs stayed
// unverified past the grace period
func (s *Scheduler) sweepUnverified(ctx context.Context) {
	count, err := s.verificationService.DisqualifyExpired(ctx, s.cfg.VerificationGracePeriod)
	if err != nil {
		slog.Error("Verification sweep failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Verification sweep complete", "disqualified", count)
	}
}

// recomputeRanks refreshes the world and country leaderboards
func (s *Scheduler) recomputeRanks(ctx context.Context) {
	if err := s.rankService.Recompute(ctx, models.RankScopeWorld, ""); err != nil {
		slog.Error("Rank recompute failed", "scope", models.RankScopeWorld, "error", err)
	}
	if err := s.rankService.Recompute(ctx, models.RankScopeCountry, ""); err != nil {
		slog.Error("Rank recompute failed", "scope", models.RankScopeCountry, "error", err)
	}
}

// Stop shuts the scheduler down, waiting for running jobs
func (s *Scheduler) Stop() {
	if s.sched == nil {
		return
	}
	if err := s.sched.Shutdown(); err != nil {
		slog.Warn("Scheduler shutdown failed", "error", err)
	}
}
