package services

import (
	"context"
	"time"

	"github.com/predictarena/arena-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TeamPick is one fixture pick in a join request
type TeamPick struct {
	FixtureID string `json:"fixtureId" binding:"required"`
	Team      string `json:"team" binding:"required"`
	Opponent  string `json:"opponent" binding:"required"`
	Venue     string `json:"venue"`
	IsStarred bool   `json:"isStarred"`
}

// EntryService admits team selections into competitions
type EntryService interface {
	// Join validates and admits the selection, debiting the entry fee. Race-safe
	// under concurrent joins; fully compensated on any downstream failure.
	Join(ctx context.Context, competitionID, userID primitive.ObjectID, picks []TeamPick) (*models.TeamSelection, error)
}

// ScoringService folds external fixture results into participant scores
type ScoringService interface {
	// ApplyFixtureResult updates every selection referencing the fixture in a
	// still-active competition. A final result is only overwritten with
	// override set; a non-override update that only hits final entries fails
	// with ErrFixtureResultFinal.
	ApplyFixtureResult(ctx context.Context, event models.FixtureResultEvent, override bool) error
}

// VerificationService tracks per-step proof verification and qualification
type VerificationService interface {
	SubmitProofs(ctx context.Context, selectionID, userID primitive.ObjectID, proofs map[int]string) (*models.TeamSelection, error)
	ReviewProof(ctx context.Context, selectionID primitive.ObjectID, step int, verified bool) (*models.TeamSelection, error)
	Disqualify(ctx context.Context, selectionID primitive.ObjectID) (*models.TeamSelection, error)
	// Requalify clears the disqualification only when every required proof is
	// verified; otherwise it fails with ErrNotAllProofsVerified.
	Requalify(ctx context.Context, selectionID primitive.ObjectID) (*models.TeamSelection, error)
	// DisqualifyExpired disqualifies participants whose required proofs are still
	// unverified past the grace period. Returns how many were disqualified.
	DisqualifyExpired(ctx context.Context, grace time.Duration) (int, error)
}

// SettlementService performs the one-time competition closeout
type SettlementService interface {
	// Deactivate ranks, pays and freezes the competition exactly once. Safe to
	// retry; a repeat call on a settled competition is a no-op returning nil.
	Deactivate(ctx context.Context, competitionID primitive.ObjectID) error
}

// RankService recomputes and serves the global leaderboards
type RankService interface {
	Recompute(ctx context.Context, scope models.RankScope, gameType models.CompetitionType) error
	// RecomputeAffected refreshes every scope a settled competition touches.
	RecomputeAffected(ctx context.Context, gameType models.CompetitionType) error
	GetRankings(ctx context.Context, scope models.RankScope, gameType models.CompetitionType, country string, page, limit int) ([]*models.Rank, error)
}

// CreateCompetitionInput carries the admin create payload
type CreateCompetitionInput struct {
	Name             string
	Type             models.CompetitionType
	EntryFee         int64
	HostContribution int64
	ParticipantCap   int
	MinParticipants  int
	MinTeams         int
	MaxTeams         int
	Rules            []models.VerificationRule
	AllowTiedWinners bool
	IsPublic         bool
	StartDate        time.Time
	EndDate          time.Time
	CreatedBy        primitive.ObjectID
}

// CompetitionService owns competition creation and queries
type CompetitionService interface {
	Create(ctx context.Context, input CreateCompetitionInput) (*models.Competition, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Competition, error)
	List(ctx context.Context, activeOnly bool, page, limit int) ([]*models.Competition, error)
	Participants(ctx context.Context, id primitive.ObjectID) ([]*models.TeamSelection, error)
	// SetWinnerOverride records an explicit winner list that settlement will honor
	// over algorithmic rank-1 selection. Rejected once the competition is settled
	// or when an override user is disqualified or not a participant.
	SetWinnerOverride(ctx context.Context, competitionID primitive.ObjectID, userIDs []primitive.ObjectID) error
}

// WalletService fronts the wallet ledger's read and deposit paths
type WalletService interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error)
	Deposit(ctx context.Context, userID primitive.ObjectID, amount int64) (*models.Wallet, error)
	UpdatePayoutDetails(ctx context.Context, userID primitive.ObjectID, details models.PayoutDetails) error
}

// AuthService authenticates admin accounts
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
}
