package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/predictarena/arena-backend/internal/models"
	"github.com/predictarena/arena-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Compile-time check to ensure CompetitionServiceImpl implements CompetitionService
var _ CompetitionService = (*CompetitionServiceImpl)(nil)

// CompetitionServiceImpl handles competition creation and queries
type CompetitionServiceImpl struct {
	competitionRepo repositories.CompetitionRepository
	selectionRepo   repositories.TeamSelectionRepository
}

// NewCompetitionService creates a new CompetitionServiceImpl
func NewCompetitionService(
	competitionRepo repositories.CompetitionRepository,
	selectionRepo repositories.TeamSelectionRepository,
) *CompetitionServiceImpl {
	return &CompetitionServiceImpl{
		competitionRepo: competitionRepo,
		selectionRepo:   selectionRepo,
	}
}

// Create validates and persists a new competition. The prize pool is computed
// here once (entryFee x cap + host contribution) and never recomputed.
func (s *CompetitionServiceImpl) Create(ctx context.Context, input CreateCompetitionInput) (*models.Competition, error) {
	if !models.ValidCompetitionType(input.Type) {
		return nil, &models.ValidationError{Field: "type", Message: string(input.Type)}
	}
	if input.ParticipantCap < 1 {
		return nil, &models.ValidationError{Field: "participantCap", Message: "must be at least 1"}
	}
	if input.MinParticipants < 0 || input.MinParticipants > input.ParticipantCap {
		return nil, &models.ValidationError{Field: "minParticipants", Message: "must be between 0 and the cap"}
	}
	if input.EntryFee < 0 || input.HostContribution < 0 {
		return nil, &models.ValidationError{Field: "entryFee", Message: "fee and host contribution cannot be negative"}
	}
	if !input.EndDate.After(input.StartDate) {
		return nil, &models.ValidationError{Field: "endDate", Message: "must be after startDate"}
	}
	minTeams := input.MinTeams
	if minTeams < 3 {
		minTeams = 3
	}
	maxTeams := input.MaxTeams
	if maxTeams == 0 || maxTeams > 20 {
		maxTeams = 20
	}
	if maxTeams < minTeams {
		return nil, &models.ValidationError{Field: "maxTeams", Message: "must be at least minTeams"}
	}

	competition := &models.Competition{
		Name:             input.Name,
		Type:             input.Type,
		EntryFee:         input.EntryFee,
		HostContribution: input.HostContribution,
		PrizePool:        input.EntryFee*int64(input.ParticipantCap) + input.HostContribution,
		ParticipantCap:   input.ParticipantCap,
		MinParticipants:  input.MinParticipants,
		MinTeams:         minTeams,
		MaxTeams:         maxTeams,
		Rules:            input.Rules,
		AllowTiedWinners: input.AllowTiedWinners,
		IsActive:         true,
		IsPublic:         input.IsPublic,
		StartDate:        input.StartDate,
		EndDate:          input.EndDate,
		CreatedBy:        input.CreatedBy,
	}
	if err := s.competitionRepo.Create(ctx, competition); err != nil {
		return nil, fmt.Errorf("failed to create competition: %w", err)
	}
	slog.Info("Competition created",
		"competitionId", competition.ID.Hex(), "type", competition.Type,
		"prizePool", competition.PrizePool, "cap", competition.ParticipantCap)
	return competition, nil
}

// GetByID retrieves a competition
func (s *CompetitionServiceImpl) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Competition, error) {
	return s.competitionRepo.FindByID(ctx, id)
}

// List retrieves public competitions
func (s *CompetitionServiceImpl) List(ctx context.Context, activeOnly bool, page, limit int) ([]*models.Competition, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.competitionRepo.FindPublic(ctx, activeOnly, page, limit)
}

// Participants lists all selections of a competition
func (s *CompetitionServiceImpl) Participants(ctx context.Context, id primitive.ObjectID) ([]*models.TeamSelection, error) {
	if _, err := s.competitionRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.selectionRepo.FindByCompetition(ctx, id)
}

// SetWinnerOverride records an explicit winner list ahead of settlement. Every
// named user must be a non-disqualified participant; a disqualified participant
// can never be selected as winner.
func (s *CompetitionServiceImpl) SetWinnerOverride(ctx context.Context, competitionID primitive.ObjectID, userIDs []primitive.ObjectID) error {
	competition, err := s.competitionRepo.FindByID(ctx, competitionID)
	if err != nil {
		return err
	}
	if !competition.IsActive {
		return models.ErrCompetitionNotActive
	}
	if len(userIDs) == 0 {
		return &models.ValidationError{Field: "userIds", Message: "at least one winner required"}
	}
	for _, userID := range userIDs {
		selection, err := s.selectionRepo.FindByCompetitionAndUser(ctx, competitionID, userID)
		if err != nil {
			return err
		}
		if selection.IsDisqualified {
			return &models.ValidationError{Field: "userIds", Message: "disqualified participant cannot be winner"}
		}
	}
	if err := s.competitionRepo.SetWinners(ctx, competitionID, userIDs, true); err != nil {
		return fmt.Errorf("failed to set winner override: %w", err)
	}
	slog.Info("Winner override recorded", "competitionId", competitionID.Hex(), "winners", len(userIDs))
	return nil
}
