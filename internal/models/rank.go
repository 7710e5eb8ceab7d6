package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RankTrend is the direction a row moved in the last recompute
type RankTrend string

const (
	RankTrendUp     RankTrend = "UP"
	RankTrendDown   RankTrend = "DOWN"
	RankTrendStable RankTrend = "STABLE"
)

// RankScope selects which leaderboard a recompute or query targets
type RankScope string

const (
	RankScopeWorld   RankScope = "WORLD"
	RankScopeCountry RankScope = "COUNTRY"
)

// RankPosition is a position and its movement within one leaderboard scope
type RankPosition struct {
	Position int       `bson:"position" json:"position"`
	Trend    RankTrend `bson:"trend,omitempty" json:"trend,omitempty"`
}

// GameTypeStats accumulates one user's results within a single game type
type GameTypeStats struct {
	Points        int       `bson:"points" json:"points"`
	TotalWins     int       `bson:"totalWins" json:"totalWins"`
	WinningStreak int       `bson:"winningStreak" json:"winningStreak"`
	Position      int       `bson:"position" json:"position"`
	Trend         RankTrend `bson:"trend,omitempty" json:"trend,omitempty"`
}

// Rank is one user's leaderboard row. Points, wins and streaks accrue at
// settlement; positions and trends are derived by the recalculator and carry no
// truth of their own.
type Rank struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	Country       string             `bson:"country,omitempty" json:"country,omitempty"`
	Points        int                `bson:"points" json:"points"`
	TotalWins     int                `bson:"totalWins" json:"totalWins"`
	WinningStreak int                `bson:"winningStreak" json:"winningStreak"`
	TopScore      GameTypeStats      `bson:"topscore" json:"topscore"`
	ManGoSet      GameTypeStats      `bson:"mangoset" json:"mangoset"`
	League        GameTypeStats      `bson:"league" json:"league"`
	WorldRank     RankPosition       `bson:"worldRank" json:"worldRank"`
	CountryRank   RankPosition       `bson:"countryRank" json:"countryRank"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// GameStats returns the stats sub-document for the given game type
func (r *Rank) GameStats(t CompetitionType) *GameTypeStats {
	switch t {
	case CompetitionTypeTopScore:
		return &r.TopScore
	case CompetitionTypeManGoSet:
		return &r.ManGoSet
	case CompetitionTypeLeague:
		return &r.League
	}
	return nil
}
