package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/predictarena/arena-backend/internal/models"
	"github.com/predictarena/arena-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Compile-time check to ensure EntryServiceImpl implements EntryService
var _ EntryService = (*EntryServiceImpl)(nil)

// EntryServiceImpl admits team selections under the capacity, uniqueness and
// star-exclusivity constraints while the entry fee changes hands
type EntryServiceImpl struct {
	competitionRepo repositories.CompetitionRepository
	selectionRepo   repositories.TeamSelectionRepository
	walletRepo      repositories.WalletRepository
	starRepo        repositories.StarReservationRepository
	rankRepo        repositories.RankRepository
	userRepo        repositories.UserRepository
}

// NewEntryService creates a new EntryServiceImpl
func NewEntryService(
	competitionRepo repositories.CompetitionRepository,
	selectionRepo repositories.TeamSelectionRepository,
	walletRepo repositories.WalletRepository,
	starRepo repositories.StarReservationRepository,
	rankRepo repositories.RankRepository,
	userRepo repositories.UserRepository,
) *EntryServiceImpl {
	return &EntryServiceImpl{
		competitionRepo: competitionRepo,
		selectionRepo:   selectionRepo,
		walletRepo:      walletRepo,
		starRepo:        starRepo,
		rankRepo:        rankRepo,
		userRepo:        userRepo,
	}
}

// Join validates and admits a team selection. The capacity slot, star fixture and
// wallet debit form one logical unit: each step is an atomic conditional write,
// and any later failure undoes the earlier steps in reverse order.
func (s *EntryServiceImpl) Join(ctx context.Context, competitionID, userID primitive.ObjectID, picks []TeamPick) (*models.TeamSelection, error) {
	// 1. Validate against the competition, with no side effects yet.
	competition, err := s.competitionRepo.FindByID(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if !competition.WithinEntryWindow(now) {
		slog.Warn("Join rejected: competition not open for entries",
			"competitionId", competitionID.Hex(), "isActive", competition.IsActive)
		return nil, models.ErrCompetitionNotActive
	}
	if len(picks) < competition.MinTeams || len(picks) > competition.MaxTeams {
		return nil, models.ErrInvalidTeamCount
	}
	starFixture := ""
	teams := make([]models.SelectedTeam, 0, len(picks))
	for _, pick := range picks {
		if pick.IsStarred {
			if starFixture != "" {
				return nil, models.ErrMissingStarTeam
			}
			starFixture = pick.FixtureID
		}
		teams = append(teams, models.SelectedTeam{
			FixtureID:    pick.FixtureID,
			SelectedTeam: pick.Team,
			OpponentTeam: pick.Opponent,
			Venue:        pick.Venue,
		})
	}
	if starFixture == "" {
		return nil, models.ErrMissingStarTeam
	}
	if existing, err := s.selectionRepo.FindByCompetitionAndUser(ctx, competitionID, userID); err == nil && existing != nil {
		return nil, models.ErrDuplicateJoin
	} else if err != nil && !models.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check for existing selection: %w", err)
	}

	// 2. Claim a capacity slot. The guarded increment loses cleanly at cap: it
	// never overshoots, the caller just gets a rejection.
	ok, err := s.competitionRepo.IncrementParticipantCount(ctx, competitionID, competition.ParticipantCap)
	if err != nil {
		return nil, fmt.Errorf("failed to claim participant slot: %w", err)
	}
	if !ok {
		slog.Warn("Join rejected: competition at capacity",
			"competitionId", competitionID.Hex(), "cap", competition.ParticipantCap)
		return nil, models.ErrCapacityExceeded
	}

	// 3. Reserve the star fixture with a single conditional insert.
	reservation := &models.StarReservation{
		CompetitionID: competitionID,
		FixtureID:     starFixture,
		UserID:        userID,
	}
	if err := s.starRepo.Reserve(ctx, reservation); err != nil {
		s.releaseSlot(ctx, competitionID, userID)
		if models.IsDuplicateKey(err) {
			slog.Warn("Join rejected: star fixture taken",
				"competitionId", competitionID.Hex(), "fixtureId", starFixture)
			return nil, models.ErrStarFixtureTaken
		}
		return nil, fmt.Errorf("failed to reserve star fixture: %w", err)
	}

	// 4. Debit the entry fee, if this competition type charges one.
	staked := int64(0)
	if competition.Type.RequiresEntryFee() && competition.EntryFee > 0 {
		debited, err := s.walletRepo.Debit(ctx, userID, competition.EntryFee)
		if err != nil {
			s.releaseStar(ctx, competitionID, starFixture)
			s.releaseSlot(ctx, competitionID, userID)
			return nil, fmt.Errorf("failed to debit entry fee: %w", err)
		}
		if !debited {
			s.releaseStar(ctx, competitionID, starFixture)
			s.releaseSlot(ctx, competitionID, userID)
			slog.Warn("Join rejected: insufficient balance",
				"competitionId", competitionID.Hex(), "userId", userID.Hex(), "fee", competition.EntryFee)
			return nil, models.ErrInsufficientBalance
		}
		staked = competition.EntryFee
	}

	// 5. Persist the selection. On failure, compensate in reverse order.
	selection := &models.TeamSelection{
		CompetitionID: competitionID,
		UserID:        userID,
		StakedAmount:  staked,
		Teams:         teams,
		StarTeam:      starFixture,
		StepsVerified: len(requiredSteps(competition.Rules)) == 0,
	}
	if err := s.selectionRepo.Create(ctx, selection); err != nil {
		if staked > 0 {
			if creditErr := s.walletRepo.Credit(ctx, userID, staked); creditErr != nil {
				slog.Error("CORRUPTION ALERT: failed to refund entry fee after join failure",
					"error", creditErr, "competitionId", competitionID.Hex(), "userId", userID.Hex(), "amount", staked)
			}
		}
		s.releaseStar(ctx, competitionID, starFixture)
		s.releaseSlot(ctx, competitionID, userID)
		if models.IsDuplicateKey(err) {
			return nil, models.ErrDuplicateJoin
		}
		return nil, fmt.Errorf("failed to persist team selection: %w", err)
	}

	// 6. Post-admission bookkeeping, best effort.
	if err := s.starRepo.AttachSelection(ctx, competitionID, starFixture, selection.ID); err != nil {
		slog.Warn("Failed to link star reservation to selection", "error", err, "selectionId", selection.ID.Hex())
	}
	if user, err := s.userRepo.FindByID(ctx, userID); err == nil {
		if err := s.rankRepo.EnsureForUser(ctx, userID, user.Country, user.CreatedAt); err != nil {
			slog.Warn("Failed to ensure leaderboard row", "error", err, "userId", userID.Hex())
		}
	}

	slog.Info("Participant joined competition",
		"competitionId", competitionID.Hex(), "userId", userID.Hex(),
		"teams", len(teams), "starFixture", starFixture, "staked", staked)
	return selection, nil
}

// releaseSlot undoes the capacity increment. A failure here leaves a phantom
// participant slot, which is escalated for manual reconciliation.
func (s *EntryServiceImpl) releaseSlot(ctx context.Context, competitionID, userID primitive.ObjectID) {
	if err := s.competitionRepo.DecrementParticipantCount(ctx, competitionID); err != nil {
		slog.Error("CORRUPTION ALERT: failed to release participant slot",
			"error", err, "competitionId", competitionID.Hex(), "userId", userID.Hex())
	}
}

// releaseStar undoes the star-fixture reservation
func (s *EntryServiceImpl) releaseStar(ctx context.Context, competitionID primitive.ObjectID, fixtureID string) {
	if err := s.starRepo.Release(ctx, competitionID, fixtureID); err != nil {
		slog.Error("CORRUPTION ALERT: failed to release star fixture reservation",
			"error", err, "competitionId", competitionID.Hex(), "fixtureId", fixtureID)
	}
}

// requiredSteps returns the rule steps that demand proof verification
func requiredSteps(rules []models.VerificationRule) []int {
	var steps []int
	for _, rule := range rules {
		if rule.Required {
			steps = append(steps, rule.Step)
		}
	}
	return steps
}
