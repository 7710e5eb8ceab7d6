package repositories

import (
	"context"
	"time"

	"github.com/predictarena/arena-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompetitionRepository defines the interface for competition data operations.
// IncrementParticipantCount and Deactivate are conditional writes: they return
// false (with nil error) when the guard fails, never a partial update.
type CompetitionRepository interface {
	Create(ctx context.Context, competition *models.Competition) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Competition, error)
	FindPublic(ctx context.Context, activeOnly bool, page, limit int) ([]*models.Competition, error)
	FindActiveEndedBefore(ctx context.Context, cutoff time.Time) ([]*models.Competition, error)
	// IncrementParticipantCount atomically increments participantCount while it is
	// below cap and the competition is active. Returns false if the guard failed.
	IncrementParticipantCount(ctx context.Context, id primitive.ObjectID, cap int) (bool, error)
	DecrementParticipantCount(ctx context.Context, id primitive.ObjectID) error
	// Deactivate flips isActive true->false. Returns false if it was already inactive.
	Deactivate(ctx context.Context, id primitive.ObjectID) (bool, error)
	SetWinners(ctx context.Context, id primitive.ObjectID, userIDs []primitive.ObjectID, override bool) error
	MarkSettled(ctx context.Context, id primitive.ObjectID, settledAt time.Time) error
}

// TeamSelectionRepository defines the interface for participant entries
type TeamSelectionRepository interface {
	// Create inserts a selection; a (competitionId, userId) unique index turns a
	// concurrent duplicate join into a *models.DuplicateKeyError.
	Create(ctx context.Context, selection *models.TeamSelection) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.TeamSelection, error)
	FindByCompetitionAndUser(ctx context.Context, competitionID, userID primitive.ObjectID) (*models.TeamSelection, error)
	FindByCompetition(ctx context.Context, competitionID primitive.ObjectID) ([]*models.TeamSelection, error)
	FindByFixture(ctx context.Context, fixtureID string) ([]*models.TeamSelection, error)
	// UpsertTeamPoint writes the fixture's score entry and recomputes totalPoints
	// as the sum over teamPoints. Returns false if the entry is already final and
	// override is not set.
	UpsertTeamPoint(ctx context.Context, selectionID primitive.ObjectID, point models.TeamPoint, override bool) (bool, error)
	SetRank(ctx context.Context, selectionID primitive.ObjectID, rank int) error
	UpdateProofs(ctx context.Context, selectionID primitive.ObjectID, proofs []models.Proof, stepsVerified bool) error
	SetDisqualified(ctx context.Context, selectionID primitive.ObjectID, disqualified bool) error
	FindUnverifiedJoinedBefore(ctx context.Context, cutoff time.Time) ([]*models.TeamSelection, error)
}

// WalletRepository defines the interface for the wallet ledger. Debit and Credit
// are the only mutations; no caller writes balances directly.
type WalletRepository interface {
	FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error)
	// Debit atomically subtracts amount while balance >= amount. Returns false on
	// insufficient balance.
	Debit(ctx context.Context, userID primitive.ObjectID, amount int64) (bool, error)
	// Credit adds amount, creating the wallet if absent.
	Credit(ctx context.Context, userID primitive.ObjectID, amount int64) error
	MarkFirstDeposit(ctx context.Context, userID primitive.ObjectID) error
	UpdatePayoutDetails(ctx context.Context, userID primitive.ObjectID, details models.PayoutDetails) error
}

// StarReservationRepository holds the per-competition star-fixture claims
type StarReservationRepository interface {
	// Reserve inserts the claim; a (competitionId, fixtureId) unique index turns a
	// lost race into a *models.DuplicateKeyError.
	Reserve(ctx context.Context, reservation *models.StarReservation) error
	Release(ctx context.Context, competitionID primitive.ObjectID, fixtureID string) error
	AttachSelection(ctx context.Context, competitionID primitive.ObjectID, fixtureID string, selectionID primitive.ObjectID) error
}

// RankPositionUpdate is one row's new position for a scoped leaderboard
type RankPositionUpdate struct {
	UserID   primitive.ObjectID
	Position int
	Trend    models.RankTrend
}

// RankRepository defines the interface for global leaderboard rows
type RankRepository interface {
	EnsureForUser(ctx context.Context, userID primitive.ObjectID, country string, createdAt time.Time) error
	FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Rank, error)
	// ApplyOutcome accrues a settled competition into the row: points always, and
	// either a win+streak increment or a streak reset, globally and per game type.
	ApplyOutcome(ctx context.Context, userID primitive.ObjectID, gameType models.CompetitionType, points int, won bool) error
	FindAll(ctx context.Context, country string) ([]*models.Rank, error)
	UpdatePositions(ctx context.Context, scope models.RankScope, gameType models.CompetitionType, updates []RankPositionUpdate) error
	FindPage(ctx context.Context, scope models.RankScope, gameType models.CompetitionType, country string, page, limit int) ([]*models.Rank, error)
}

// SettlementLedgerRepository records settlement side effects already applied
type SettlementLedgerRepository interface {
	// TryInsert inserts the marker; returns false if it already exists, meaning
	// the guarded side effect was applied by an earlier attempt.
	TryInsert(ctx context.Context, entry *models.SettlementLedgerEntry) (bool, error)
	Delete(ctx context.Context, competitionID, userID primitive.ObjectID, kind models.SettlementEntryKind) error
	FindByCompetition(ctx context.Context, competitionID primitive.ObjectID) ([]*models.SettlementLedgerEntry, error)
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.User, error)
}
