package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompetitionType enumerates the supported game types
type CompetitionType string

const (
	CompetitionTypeTopScore CompetitionType = "TOPSCORE"
	CompetitionTypeManGoSet CompetitionType = "MANGOSET"
	CompetitionTypeLeague   CompetitionType = "LEAGUE"
)

// ValidCompetitionType reports whether t is one of the supported game types
func ValidCompetitionType(t CompetitionType) bool {
	switch t {
	case CompetitionTypeTopScore, CompetitionTypeManGoSet, CompetitionTypeLeague:
		return true
	}
	return false
}

// RequiresEntryFee reports whether joining this game type debits the wallet.
// League competitions are free to enter; the prize pool is host-funded.
func (t CompetitionType) RequiresEntryFee() bool {
	return t != CompetitionTypeLeague
}

// VerificationRule is one ordered verification step a participant must satisfy
type VerificationRule struct {
	Step        int    `bson:"step" json:"step"`
	Description string `bson:"description" json:"description"`
	Required    bool   `bson:"required" json:"required"`
}

// Competition represents one time-boxed prediction competition. The prize pool
// is computed once at creation (entryFee x cap + hostContribution) and never
// recomputed. participantCount is mutated only through the repository's guarded
// increment and decrement.
type Competition struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	Name             string               `bson:"name" json:"name"`
	Type             CompetitionType      `bson:"type" json:"type"`
	EntryFee         int64                `bson:"entryFee" json:"entryFee"`
	HostContribution int64                `bson:"hostContribution" json:"hostContribution"`
	PrizePool        int64                `bson:"prizePool" json:"prizePool"`
	ParticipantCap   int                  `bson:"participantCap" json:"participantCap"`
	ParticipantCount int                  `bson:"participantCount" json:"participantCount"`
	MinParticipants  int                  `bson:"minParticipants" json:"minParticipants"`
	MinTeams         int                  `bson:"minTeams" json:"minTeams"`
	MaxTeams         int                  `bson:"maxTeams" json:"maxTeams"`
	Rules            []VerificationRule   `bson:"rules,omitempty" json:"rules,omitempty"`
	AllowTiedWinners bool                 `bson:"allowTiedWinners" json:"allowTiedWinners"`
	IsActive         bool                 `bson:"isActive" json:"isActive"`
	IsPublic         bool                 `bson:"isPublic" json:"isPublic"`
	StartDate        time.Time            `bson:"startDate" json:"startDate"`
	EndDate          time.Time            `bson:"endDate" json:"endDate"`
	WinnerUserIDs    []primitive.ObjectID `bson:"winnerUserIds,omitempty" json:"winnerUserIds,omitempty"`
	WinnerOverride   bool                 `bson:"winnerOverride" json:"winnerOverride"`
	SettledAt        time.Time            `bson:"settledAt,omitempty" json:"settledAt,omitempty"`
	CreatedBy        primitive.ObjectID   `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt        time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// WithinEntryWindow reports whether a join at time t is admissible: the
// competition is active and t falls inside [startDate, endDate].
func (c *Competition) WithinEntryWindow(t time.Time) bool {
	return c.IsActive && !t.Before(c.StartDate) && !t.After(c.EndDate)
}
