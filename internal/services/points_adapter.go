package services

import (
	"github.com/predictarena/arena-backend/internal/models"
)

// PointsAdapter is the external scoring formula. The engine treats it as a black
// box: it only aggregates what the adapter returns per fixture.
type PointsAdapter interface {
	Points(fixtureID, teamID string, score models.FixtureScore) int
}

// resultPointsAdapter is the default adapter used when no external one is wired:
// a plain result-based mapping keyed on which side the selected team played.
type resultPointsAdapter struct{}

// NewResultPointsAdapter creates the default result-based points adapter.
// The selected team is matched against the home side by convention: the feed
// normalizes fixture IDs as "home-vs-away".
func NewResultPointsAdapter() PointsAdapter {
	return resultPointsAdapter{}
}

func (resultPointsAdapter) Points(fixtureID, teamID string, score models.FixtureScore) int {
	teamScore, opponentScore := score.Home, score.Away
	if !isHomeTeam(fixtureID, teamID) {
		teamScore, opponentScore = score.Away, score.Home
	}
	switch {
	case teamScore > opponentScore:
		return 3 + (teamScore - opponentScore)
	case teamScore == opponentScore:
		return 1
	default:
		return 0
	}
}

func isHomeTeam(fixtureID, teamID string) bool {
	// "home-vs-away" fixture IDs; anything else defaults to home.
	for i := 0; i+3 < len(fixtureID); i++ {
		if fixtureID[i:i+4] == "-vs-" {
			return fixtureID[:i] == teamID
		}
	}
	return true
}
