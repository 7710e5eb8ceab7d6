package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SelectedTeam is one fixture pick inside a team selection
type SelectedTeam struct {
	FixtureID    string `bson:"fixtureId" json:"fixtureId"`
	SelectedTeam string `bson:"selectedTeam" json:"selectedTeam"`
	OpponentTeam string `bson:"opponentTeam" json:"opponentTeam"`
	Venue        string `bson:"venue,omitempty" json:"venue,omitempty"`
}

// TeamPoint is the scored state of one fixture within a selection. Written only
// by the scoring path; isFT marks the entry final.
type TeamPoint struct {
	FixtureID string `bson:"fixtureId" json:"fixtureId"`
	HomeScore int    `bson:"homeScore" json:"homeScore"`
	AwayScore int    `bson:"awayScore" json:"awayScore"`
	Points    int    `bson:"points" json:"points"`
	IsLive    bool   `bson:"isLive" json:"isLive"`
	IsFT      bool   `bson:"isFT" json:"isFT"`
}

// Proof is one uploaded verification artifact for a rule step
type Proof struct {
	Step     int    `bson:"step" json:"step"`
	URL      string `bson:"url" json:"url"`
	Verified bool   `bson:"verified" json:"verified"`
}

// TeamSelection is a user's entry into one competition. One exists per
// (competition, user) pair, enforced by a unique index. totalPoints is derived
// as the sum of teamPoints.points and recomputed on every scoring write.
type TeamSelection struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CompetitionID  primitive.ObjectID `bson:"competitionId" json:"competitionId"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	StakedAmount   int64              `bson:"stakedAmount" json:"stakedAmount"`
	Teams          []SelectedTeam     `bson:"teams" json:"teams"`
	StarTeam       string             `bson:"starTeam" json:"starTeam"` // fixtureId of the starred pick
	TeamPoints     []TeamPoint        `bson:"teamPoints,omitempty" json:"teamPoints,omitempty"`
	TotalPoints    int                `bson:"totalPoints" json:"totalPoints"`
	Rank           int                `bson:"rank,omitempty" json:"rank,omitempty"`
	StepsVerified  bool               `bson:"stepsVerified" json:"stepsVerified"`
	IsDisqualified bool               `bson:"isDisqualified" json:"isDisqualified"`
	Proofs         []Proof            `bson:"proofs,omitempty" json:"proofs,omitempty"`
	JoinedAt       time.Time          `bson:"joinedAt" json:"joinedAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SelectsFixture returns the pick for the given fixture, if any
func (s *TeamSelection) SelectsFixture(fixtureID string) (*SelectedTeam, bool) {
	for i := range s.Teams {
		if s.Teams[i].FixtureID == fixtureID {
			return &s.Teams[i], true
		}
	}
	return nil, false
}
