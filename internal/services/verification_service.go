package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/predictarena/arena-backend/internal/models"
	"github.com/predictarena/arena-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Compile-time check to ensure VerificationServiceImpl implements VerificationService
var _ VerificationService = (*VerificationServiceImpl)(nil)

// VerificationServiceImpl tracks proof submission and review, and derives the
// qualified/disqualified state of each participant
type VerificationServiceImpl struct {
	selectionRepo   repositories.TeamSelectionRepository
	competitionRepo repositories.CompetitionRepository
}

// NewVerificationService creates a new VerificationServiceImpl
func NewVerificationService(
	selectionRepo repositories.TeamSelectionRepository,
	competitionRepo repositories.CompetitionRepository,
) *VerificationServiceImpl {
	return &VerificationServiceImpl{
		selectionRepo:   selectionRepo,
		competitionRepo: competitionRepo,
	}
}

// SubmitProofs attaches proof URLs to rule steps. Submitting over an existing
// step replaces the URL and resets its verified flag for re-review.
func (s *VerificationServiceImpl) SubmitProofs(ctx context.Context, selectionID, userID primitive.ObjectID, proofs map[int]string) (*models.TeamSelection, error) {
	selection, err := s.selectionRepo.FindByID(ctx, selectionID)
	if err != nil {
		return nil, err
	}
	if selection.UserID != userID {
		return nil, &models.NotFoundError{Entity: "team selection", Key: selectionID.Hex()}
	}
	competition, err := s.competitionRepo.FindByID(ctx, selection.CompetitionID)
	if err != nil {
		return nil, err
	}

	byStep := make(map[int]models.Proof, len(selection.Proofs))
	for _, p := range selection.Proofs {
		byStep[p.Step] = p
	}
	for step, url := range proofs {
		if !ruleStepExists(competition.Rules, step) {
			return nil, &models.ValidationError{Field: "step", Message: fmt.Sprintf("competition has no rule step %d", step)}
		}
		byStep[step] = models.Proof{Step: step, URL: url, Verified: false}
	}
	updated := flattenProofs(byStep)
	verified := allRequiredVerified(competition.Rules, updated)

	if err := s.selectionRepo.UpdateProofs(ctx, selectionID, updated, verified); err != nil {
		return nil, fmt.Errorf("failed to store proofs: %w", err)
	}
	selection.Proofs = updated
	selection.StepsVerified = verified
	slog.Info("Proofs submitted", "selectionId", selectionID.Hex(), "steps", len(proofs))
	return selection, nil
}

// ReviewProof records an admin verdict on one proof step
func (s *VerificationServiceImpl) ReviewProof(ctx context.Context, selectionID primitive.ObjectID, step int, verified bool) (*models.TeamSelection, error) {
	selection, err := s.selectionRepo.FindByID(ctx, selectionID)
	if err != nil {
		return nil, err
	}
	competition, err := s.competitionRepo.FindByID(ctx, selection.CompetitionID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range selection.Proofs {
		if selection.Proofs[i].Step == step {
			selection.Proofs[i].Verified = verified
			found = true
			break
		}
	}
	if !found {
		return nil, &models.NotFoundError{Entity: "proof", Key: fmt.Sprintf("%s/step %d", selectionID.Hex(), step)}
	}
	stepsVerified := allRequiredVerified(competition.Rules, selection.Proofs)

	if err := s.selectionRepo.UpdateProofs(ctx, selectionID, selection.Proofs, stepsVerified); err != nil {
		return nil, fmt.Errorf("failed to store proof review: %w", err)
	}
	selection.StepsVerified = stepsVerified
	slog.Info("Proof reviewed", "selectionId", selectionID.Hex(), "step", step, "verified", verified)
	return selection, nil
}

// Disqualify marks the participant as disqualified. The participant stays on the
// list and keeps accrued points; only winner eligibility is lost.
func (s *VerificationServiceImpl) Disqualify(ctx context.Context, selectionID primitive.ObjectID) (*models.TeamSelection, error) {
	selection, err := s.selectionRepo.FindByID(ctx, selectionID)
	if err != nil {
		return nil, err
	}
	if err := s.selectionRepo.SetDisqualified(ctx, selectionID, true); err != nil {
		return nil, fmt.Errorf("failed to disqualify: %w", err)
	}
	selection.IsDisqualified = true
	slog.Info("Participant disqualified", "selectionId", selectionID.Hex(), "competitionId", selection.CompetitionID.Hex())
	return selection, nil
}

// Requalify clears the disqualification. Hard precondition: every required proof
// must already be verified; this is not best-effort.
func (s *VerificationServiceImpl) Requalify(ctx context.Context, selectionID primitive.ObjectID) (*models.TeamSelection, error) {
	selection, err := s.selectionRepo.FindByID(ctx, selectionID)
	if err != nil {
		return nil, err
	}
	competition, err := s.competitionRepo.FindByID(ctx, selection.CompetitionID)
	if err != nil {
		return nil, err
	}
	if !allRequiredVerified(competition.Rules, selection.Proofs) {
		slog.Warn("Requalify rejected: unverified proofs remain", "selectionId", selectionID.Hex())
		return nil, models.ErrNotAllProofsVerified
	}
	if err := s.selectionRepo.SetDisqualified(ctx, selectionID, false); err != nil {
		return nil, fmt.Errorf("failed to requalify: %w", err)
	}
	if !selection.StepsVerified {
		if err := s.selectionRepo.UpdateProofs(ctx, selectionID, selection.Proofs, true); err != nil {
			return nil, fmt.Errorf("failed to update verification state: %w", err)
		}
		selection.StepsVerified = true
	}
	selection.IsDisqualified = false
	slog.Info("Participant requalified", "selectionId", selectionID.Hex())
	return selection, nil
}

// DisqualifyExpired sweeps participants whose required proofs are still
// unverified past the grace period after joining
func (s *VerificationServiceImpl) DisqualifyExpired(ctx context.Context, grace time.Duration) (int, error) {
	cutoff := time.Now().Add(-grace)
	selections, err := s.selectionRepo.FindUnverifiedJoinedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to find unverified selections: %w", err)
	}

	count := 0
	for _, selection := range selections {
		competition, err := s.competitionRepo.FindByID(ctx, selection.CompetitionID)
		if err != nil {
			slog.Error("Grace sweep: failed to load competition", "error", err, "selectionId", selection.ID.Hex())
			continue
		}
		// Only competitions that actually demand verification disqualify.
		if !competition.IsActive || len(requiredSteps(competition.Rules)) == 0 {
			continue
		}
		if err := s.selectionRepo.SetDisqualified(ctx, selection.ID, true); err != nil {
			slog.Error("Grace sweep: failed to disqualify", "error", err, "selectionId", selection.ID.Hex())
			continue
		}
		count++
	}
	if count > 0 {
		slog.Info("Grace sweep disqualified participants", "count", count, "cutoff", cutoff)
	}
	return count, nil
}

// ruleStepExists reports whether the competition defines the given rule step
func ruleStepExists(rules []models.VerificationRule, step int) bool {
	for _, rule := range rules {
		if rule.Step == step {
			return true
		}
	}
	return false
}

// allRequiredVerified reports whether every required rule step has a verified proof
func allRequiredVerified(rules []models.VerificationRule, proofs []models.Proof) bool {
	verified := make(map[int]bool, len(proofs))
	for _, p := range proofs {
		verified[p.Step] = p.Verified
	}
	for _, rule := range rules {
		if rule.Required && !verified[rule.Step] {
			return false
		}
	}
	return true
}

// flattenProofs turns the step-keyed map back into an ordered list
func flattenProofs(byStep map[int]models.Proof) []models.Proof {
	proofs := make([]models.Proof, 0, len(byStep))
	for _, p := range byStep {
		proofs = append(proofs, p)
	}
	sort.Slice(proofs, func(i, j int) bool { return proofs[i].Step < proofs[j].Step })
	return proofs
}
