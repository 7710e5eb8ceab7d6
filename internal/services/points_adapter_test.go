package services

import (
	"testing"

	"github.com/predictarena/arena-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestResultPointsAdapter(t *testing.T) {
	adapter := NewResultPointsAdapter()

	cases := []struct {
		name    string
		fixture string
		team    string
		score   models.FixtureScore
		want    int
	}{
		{"home win by one", "lions-vs-tigers", "lions", models.FixtureScore{Home: 1, Away: 0}, 4},
		{"home win by three", "lions-vs-tigers", "lions", models.FixtureScore{Home: 4, Away: 1}, 6},
		{"draw", "lions-vs-tigers", "lions", models.FixtureScore{Home: 2, Away: 2}, 1},
		{"home loss", "lions-vs-tigers", "lions", models.FixtureScore{Home: 0, Away: 2}, 0},
		{"away win", "lions-vs-tigers", "tigers", models.FixtureScore{Home: 0, Away: 2}, 5},
		{"away draw", "lions-vs-tigers", "tigers", models.FixtureScore{Home: 1, Away: 1}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, adapter.Points(tc.fixture, tc.team, tc.score))
		})
	}
}
