package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/predictarena/arena-backend/internal/models"
	"github.com/predictarena/arena-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Compile-time check to ensure ScoringServiceImpl implements ScoringService
var _ ScoringService = (*ScoringServiceImpl)(nil)

// ScoringServiceImpl folds score-feed events into per-participant point totals
type ScoringServiceImpl struct {
	selectionRepo   repositories.TeamSelectionRepository
	competitionRepo repositories.CompetitionRepository
	adapter         PointsAdapter
}

// NewScoringService creates a new ScoringServiceImpl
func NewScoringService(
	selectionRepo repositories.TeamSelectionRepository,
	competitionRepo repositories.CompetitionRepository,
	adapter PointsAdapter,
) *ScoringServiceImpl {
	return &ScoringServiceImpl{
		selectionRepo:   selectionRepo,
		competitionRepo: competitionRepo,
		adapter:         adapter,
	}
}

// ApplyFixtureResult upserts the fixture's score into every selection that
// picked it and recomputes each selection's total. Selections of deactivated
// competitions are frozen: their standings were computed from the totals at
// deactivation. A final result is never regressed to live; a non-override
// update that only hits final entries returns ErrFixtureResultFinal. override
// is the administrative correction path for an already-settled fixture result.
func (s *ScoringServiceImpl) ApplyFixtureResult(ctx context.Context, event models.FixtureResultEvent, override bool) error {
	selections, err := s.selectionRepo.FindByFixture(ctx, event.FixtureID)
	if err != nil {
		return fmt.Errorf("failed to load selections for fixture: %w", err)
	}
	if len(selections) == 0 {
		return nil
	}

	applied, skipped, frozen := 0, 0, 0
	open := make(map[primitive.ObjectID]bool)
	for _, selection := range selections {
		team, ok := selection.SelectsFixture(event.FixtureID)
		if !ok {
			continue
		}
		active, known := open[selection.CompetitionID]
		if !known {
			competition, err := s.competitionRepo.FindByID(ctx, selection.CompetitionID)
			if err != nil {
				if !models.IsNotFound(err) {
					return fmt.Errorf("failed to load competition %s: %w", selection.CompetitionID.Hex(), err)
				}
				active = false
			} else {
				active = competition.IsActive
			}
			open[selection.CompetitionID] = active
		}
		if !active {
			frozen++
			continue
		}
		point := models.TeamPoint{
			FixtureID: event.FixtureID,
			HomeScore: event.Score.Home,
			AwayScore: event.Score.Away,
			Points:    s.adapter.Points(event.FixtureID, team.SelectedTeam, event.Score),
			IsLive:    event.IsLive,
			IsFT:      event.IsFT,
		}
		ok, err := s.selectionRepo.UpsertTeamPoint(ctx, selection.ID, point, override)
		if err != nil {
			return fmt.Errorf("failed to upsert team point for selection %s: %w", selection.ID.Hex(), err)
		}
		if ok {
			applied++
		} else {
			skipped++
		}
	}

	if frozen > 0 {
		slog.Debug("Skipped selections of deactivated competitions",
			"fixtureId", event.FixtureID, "frozen", frozen)
	}
	slog.Info("Applied fixture result",
		"fixtureId", event.FixtureID,
		"home", event.Score.Home, "away", event.Score.Away,
		"isFT", event.IsFT, "applied", applied, "skipped", skipped)
	if !override && applied == 0 && skipped > 0 {
		return fmt.Errorf("fixture %s: %w", event.FixtureID, models.ErrFixtureResultFinal)
	}
	return nil
}
