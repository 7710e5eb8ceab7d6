package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SettlementEntryKind distinguishes the idempotency-gated side effects of settlement
type SettlementEntryKind string

const (
	SettlementEntryPayout SettlementEntryKind = "PAYOUT"
	SettlementEntryStats  SettlementEntryKind = "STATS"
)

// SettlementLedgerEntry marks that one settlement side effect was applied to one user
// for one competition. A unique index on (competitionId, userId, kind) makes every
// credit and counter update exactly-once under retries.
type SettlementLedgerEntry struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	CompetitionID primitive.ObjectID  `bson:"competitionId" json:"competitionId"`
	UserID        primitive.ObjectID  `bson:"userId" json:"userId"`
	Kind          SettlementEntryKind `bson:"kind" json:"kind"`
	Amount        int64               `bson:"amount,omitempty" json:"amount,omitempty"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
}

// StarReservation claims a star fixture for one participant within a competition.
// A unique index on (competitionId, fixtureId) makes the claim atomic: the second
// insert fails with a duplicate key error instead of racing a read-then-write.
type StarReservation struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CompetitionID   primitive.ObjectID `bson:"competitionId" json:"competitionId"`
	FixtureID       string             `bson:"fixtureId" json:"fixtureId"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	TeamSelectionID primitive.ObjectID `bson:"teamSelectionId,omitempty" json:"teamSelectionId,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}
