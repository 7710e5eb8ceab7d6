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

// Compile-time check to ensure SettlementServiceImpl implements SettlementService
var _ SettlementService = (*SettlementServiceImpl)(nil)

// SettlementServiceImpl performs competition closeout: ranking, prize
// distribution and streak/rank-table updates, exactly once per competition
type SettlementServiceImpl struct {
	competitionRepo repositories.CompetitionRepository
	selectionRepo   repositories.TeamSelectionRepository
	walletRepo      repositories.WalletRepository
	rankRepo        repositories.RankRepository
	ledgerRepo      repositories.SettlementLedgerRepository
	userRepo        repositories.UserRepository
	rankService     RankService
}

// NewSettlementService creates a new SettlementServiceImpl
func NewSettlementService(
	competitionRepo repositories.CompetitionRepository,
	selectionRepo repositories.TeamSelectionRepository,
	walletRepo repositories.WalletRepository,
	rankRepo repositories.RankRepository,
	ledgerRepo repositories.SettlementLedgerRepository,
	userRepo repositories.UserRepository,
	rankService RankService,
) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		competitionRepo: competitionRepo,
		selectionRepo:   selectionRepo,
		walletRepo:      walletRepo,
		rankRepo:        rankRepo,
		ledgerRepo:      ledgerRepo,
		userRepo:        userRepo,
		rankService:     rankService,
	}
}

// Deactivate settles the competition. The CAS on isActive is the single
// linearization point: the winner of the swap runs the closeout from a snapshot
// taken after it. A call against an already-settled competition returns nil
// without side effects; a call against a deactivated-but-unfinished competition
// (a crashed earlier attempt) resumes the closeout, which is safe because every
// credit and counter update is gated by a settlement-ledger marker.
func (s *SettlementServiceImpl) Deactivate(ctx context.Context, competitionID primitive.ObjectID) error {
	// 1. Flip isActive true -> false.
	won, err := s.competitionRepo.Deactivate(ctx, competitionID)
	if err != nil {
		return fmt.Errorf("failed to deactivate competition: %w", err)
	}
	// The snapshot is read after the swap so a winner override committed up to
	// the swap is part of the closeout.
	competition, err := s.competitionRepo.FindByID(ctx, competitionID)
	if err != nil {
		return err
	}
	if !won {
		if !competition.SettledAt.IsZero() {
			slog.Info("Deactivate is a no-op: competition already settled", "competitionId", competitionID.Hex())
			return nil
		}
		slog.Warn("Resuming settlement of deactivated competition", "competitionId", competitionID.Hex())
	}

	// 2. Rank all non-disqualified participants from a post-CAS snapshot.
	selections, err := s.selectionRepo.FindByCompetition(ctx, competitionID)
	if err != nil {
		return fmt.Errorf("failed to load participants: %w", err)
	}
	eligible := make([]*models.TeamSelection, 0, len(selections))
	for _, sel := range selections {
		if !sel.IsDisqualified {
			eligible = append(eligible, sel)
		}
	}
	// Points descending, earlier join wins ties. Input is already join-ordered,
	// so the stable sort preserves first-come precedence.
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].TotalPoints > eligible[j].TotalPoints
	})
	for i, sel := range eligible {
		sel.Rank = i + 1
		if err := s.selectionRepo.SetRank(ctx, sel.ID, sel.Rank); err != nil {
			return fmt.Errorf("failed to persist rank for selection %s: %w", sel.ID.Hex(), err)
		}
	}

	// 3. Short competitions refund instead of paying out.
	if len(selections) < competition.MinParticipants {
		if err := s.refundStakes(ctx, competition, selections); err != nil {
			return err
		}
		if err := s.competitionRepo.MarkSettled(ctx, competitionID, time.Now()); err != nil {
			return fmt.Errorf("failed to mark competition settled: %w", err)
		}
		slog.Info("Competition settled by refund: below minimum participants",
			"competitionId", competitionID.Hex(), "participants", len(selections), "min", competition.MinParticipants)
		return nil
	}

	// 4. Determine winner(s): an explicit admin override beats rank-1 selection.
	winners := s.resolveWinners(competition, eligible)
	winnerIDs := make([]primitive.ObjectID, 0, len(winners))
	for _, w := range winners {
		winnerIDs = append(winnerIDs, w.UserID)
	}
	if err := s.competitionRepo.SetWinners(ctx, competitionID, winnerIDs, competition.WinnerOverride); err != nil {
		return fmt.Errorf("failed to record winners: %w", err)
	}

	// 5. Disburse the prize pool, exactly once per winner.
	if err := s.payOutWinners(ctx, competition, winners); err != nil {
		return err
	}

	// 6. Fold the outcome into every active participant's leaderboard row.
	if err := s.applyOutcomes(ctx, competition, eligible, winnerIDs); err != nil {
		return err
	}

	if err := s.competitionRepo.MarkSettled(ctx, competitionID, time.Now()); err != nil {
		return fmt.Errorf("failed to mark competition settled: %w", err)
	}

	// 7. Refresh the leaderboards the settlement touched.
	if err := s.rankService.RecomputeAffected(ctx, competition.Type); err != nil {
		slog.Error("Failed to recompute leaderboards after settlement",
			"error", err, "competitionId", competitionID.Hex())
	}

	slog.Info("Competition settled",
		"competitionId", competitionID.Hex(), "participants", len(selections),
		"winners", len(winners), "prizePool", competition.PrizePool)
	return nil
}

// resolveWinners picks the winner set from an override or from rank 1
func (s *SettlementServiceImpl) resolveWinners(competition *models.Competition, eligible []*models.TeamSelection) []*models.TeamSelection {
	if competition.WinnerOverride && len(competition.WinnerUserIDs) > 0 {
		override := make(map[primitive.ObjectID]bool, len(competition.WinnerUserIDs))
		for _, id := range competition.WinnerUserIDs {
			override[id] = true
		}
		var winners []*models.TeamSelection
		for _, sel := range eligible {
			if override[sel.UserID] {
				winners = append(winners, sel)
			}
		}
		// Disqualified users never appear in eligible, so an override naming one
		// silently falls through to algorithmic selection rather than paying it.
		if len(winners) > 0 {
			return winners
		}
		slog.Warn("Winner override matched no eligible participant, falling back to rank-1 selection",
			"competitionId", competition.ID.Hex())
	}

	if len(eligible) == 0 {
		return nil
	}
	top := eligible[0]
	if !competition.AllowTiedWinners {
		return []*models.TeamSelection{top}
	}
	winners := []*models.TeamSelection{top}
	for _, sel := range eligible[1:] {
		if sel.TotalPoints != top.TotalPoints {
			break
		}
		winners = append(winners, sel)
	}
	return winners
}

// payOutWinners credits prizePool/winnerCount to each winner under a ledger
// marker. Integer division leaves a remainder; it goes to the first winner by
// rank order so the split is reproducible.
func (s *SettlementServiceImpl) payOutWinners(ctx context.Context, competition *models.Competition, winners []*models.TeamSelection) error {
	if len(winners) == 0 {
		slog.Warn("No eligible winner; prize pool not disbursed", "competitionId", competition.ID.Hex())
		return nil
	}
	share := competition.PrizePool / int64(len(winners))
	remainder := competition.PrizePool % int64(len(winners))

	for i, winner := range winners {
		amount := share
		if i == 0 {
			amount += remainder
		}
		if err := s.creditOnce(ctx, competition.ID, winner.UserID, amount); err != nil {
			return err
		}
	}
	return nil
}

// refundStakes returns each participant's staked amount, exactly once
func (s *SettlementServiceImpl) refundStakes(ctx context.Context, competition *models.Competition, selections []*models.TeamSelection) error {
	for _, sel := range selections {
		if sel.StakedAmount == 0 {
			continue
		}
		if err := s.creditOnce(ctx, competition.ID, sel.UserID, sel.StakedAmount); err != nil {
			return err
		}
	}
	return nil
}

// creditOnce performs one ledger-gated wallet credit. If the marker exists the
// credit already happened on an earlier attempt and is skipped. If the credit
// fails the marker is removed again so a retry can redo it; a failed removal is
// a corruption alert for manual reconciliation.
func (s *SettlementServiceImpl) creditOnce(ctx context.Context, competitionID, userID primitive.ObjectID, amount int64) error {
	inserted, err := s.ledgerRepo.TryInsert(ctx, &models.SettlementLedgerEntry{
		CompetitionID: competitionID,
		UserID:        userID,
		Kind:          models.SettlementEntryPayout,
		Amount:        amount,
	})
	if err != nil {
		return fmt.Errorf("failed to write payout marker: %w", err)
	}
	if !inserted {
		slog.Info("Payout already applied, skipping", "competitionId", competitionID.Hex(), "userId", userID.Hex())
		return nil
	}
	if err := s.walletRepo.Credit(ctx, userID, amount); err != nil {
		if delErr := s.ledgerRepo.Delete(ctx, competitionID, userID, models.SettlementEntryPayout); delErr != nil {
			slog.Error("CORRUPTION ALERT: payout marker left without credit",
				"error", delErr, "competitionId", competitionID.Hex(), "userId", userID.Hex(), "amount", amount)
		}
		return fmt.Errorf("failed to credit payout: %w", err)
	}
	slog.Info("Payout credited", "competitionId", competitionID.Hex(), "userId", userID.Hex(), "amount", amount)
	return nil
}

// applyOutcomes updates win/streak/point counters for every non-disqualified
// participant, each under its own ledger marker. Disqualified participants are
// untouched: they neither broke nor extended a streak.
func (s *SettlementServiceImpl) applyOutcomes(ctx context.Context, competition *models.Competition, eligible []*models.TeamSelection, winnerIDs []primitive.ObjectID) error {
	wonBy := make(map[primitive.ObjectID]bool, len(winnerIDs))
	for _, id := range winnerIDs {
		wonBy[id] = true
	}

	userIDs := make([]primitive.ObjectID, 0, len(eligible))
	for _, sel := range eligible {
		userIDs = append(userIDs, sel.UserID)
	}
	users, err := s.userRepo.FindByIDs(ctx, userIDs)
	if err != nil {
		return fmt.Errorf("failed to load participants' users: %w", err)
	}
	userByID := make(map[primitive.ObjectID]*models.User, len(users))
	for _, u := range users {
		userByID[u.ID] = u
	}

	for _, sel := range eligible {
		// EnsureForUser is an idempotent upsert and needs no marker. It runs
		// before the marker insert so a failure here leaves no marker behind
		// and a retry still applies the counters.
		if user, ok := userByID[sel.UserID]; ok {
			if err := s.rankRepo.EnsureForUser(ctx, sel.UserID, user.Country, user.CreatedAt); err != nil {
				return fmt.Errorf("failed to ensure leaderboard row: %w", err)
			}
		} else {
			if err := s.rankRepo.EnsureForUser(ctx, sel.UserID, "", sel.JoinedAt); err != nil {
				return fmt.Errorf("failed to ensure leaderboard row: %w", err)
			}
		}
		inserted, err := s.ledgerRepo.TryInsert(ctx, &models.SettlementLedgerEntry{
			CompetitionID: competition.ID,
			UserID:        sel.UserID,
			Kind:          models.SettlementEntryStats,
		})
		if err != nil {
			return fmt.Errorf("failed to write stats marker: %w", err)
		}
		if !inserted {
			continue
		}
		if err := s.rankRepo.ApplyOutcome(ctx, sel.UserID, competition.Type, sel.TotalPoints, wonBy[sel.UserID]); err != nil {
			if delErr := s.ledgerRepo.Delete(ctx, competition.ID, sel.UserID, models.SettlementEntryStats); delErr != nil {
				slog.Error("CORRUPTION ALERT: stats marker left without counter update",
					"error", delErr, "competitionId", competition.ID.Hex(), "userId", sel.UserID.Hex())
			}
			return fmt.Errorf("failed to apply leaderboard outcome: %w", err)
		}
	}
	return nil
}
