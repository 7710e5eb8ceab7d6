package services

import (
	"context"
	"testing"
	"time"

	"github.com/predictarena/arena-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seedRankRow(t *testing.T, repo *fakeRankRepo, country string, createdAt time.Time, points, wins int) primitive.ObjectID {
	t.Helper()
	userID := primitive.NewObjectID()
	require.NoError(t, repo.EnsureForUser(context.Background(), userID, country, createdAt))
	repo.mu.Lock()
	row := repo.rows[userID]
	row.Points = points
	row.TotalWins = wins
	row.TopScore.Points = points / 2
	repo.mu.Unlock()
	return userID
}

func TestRecomputeAssignsUniquePositions(t *testing.T) {
	repo := newFakeRankRepo()
	service := NewRankService(repo)
	base := time.Now().Add(-time.Hour)

	leader := seedRankRow(t, repo, "NG", base, 30, 2)
	tiedOld := seedRankRow(t, repo, "NG", base.Add(time.Minute), 20, 1)
	tiedNew := seedRankRow(t, repo, "GH", base.Add(2*time.Minute), 20, 1)
	trailer := seedRankRow(t, repo, "GH", base.Add(3*time.Minute), 5, 0)

	require.NoError(t, service.Recompute(context.Background(), models.RankScopeWorld, ""))

	expect := map[primitive.ObjectID]int{leader: 1, tiedOld: 2, tiedNew: 3, trailer: 4}
	seen := map[int]bool{}
	for userID, want := range expect {
		row, err := repo.FindByUserID(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, want, row.WorldRank.Position)
		assert.False(t, seen[row.WorldRank.Position], "positions must be unique")
		seen[row.WorldRank.Position] = true
		assert.Equal(t, models.RankTrendStable, row.WorldRank.Trend, "first recompute has no movement")
	}
}

func TestRecomputeTracksTrend(t *testing.T) {
	repo := newFakeRankRepo()
	service := NewRankService(repo)
	base := time.Now().Add(-time.Hour)

	climber := seedRankRow(t, repo, "NG", base, 10, 0)
	faller := seedRankRow(t, repo, "NG", base.Add(time.Minute), 20, 0)
	require.NoError(t, service.Recompute(context.Background(), models.RankScopeWorld, ""))

	// The climber overtakes before the next recompute.
	repo.mu.Lock()
	repo.rows[climber].Points = 30
	repo.mu.Unlock()
	require.NoError(t, service.Recompute(context.Background(), models.RankScopeWorld, ""))

	climberRow, err := repo.FindByUserID(context.Background(), climber)
	require.NoError(t, err)
	assert.Equal(t, 1, climberRow.WorldRank.Position)
	assert.Equal(t, models.RankTrendUp, climberRow.WorldRank.Trend)

	fallerRow, err := repo.FindByUserID(context.Background(), faller)
	require.NoError(t, err)
	assert.Equal(t, 2, fallerRow.WorldRank.Position)
	assert.Equal(t, models.RankTrendDown, fallerRow.WorldRank.Trend)
}

func TestRecomputeCountryScopeRanksWithinCountry(t *testing.T) {
	repo := newFakeRankRepo()
	service := NewRankService(repo)
	base := time.Now().Add(-time.Hour)

	ngLeader := seedRankRow(t, repo, "NG", base, 30, 0)
	ngSecond := seedRankRow(t, repo, "NG", base.Add(time.Minute), 10, 0)
	ghLeader := seedRankRow(t, repo, "GH", base.Add(2*time.Minute), 20, 0)

	require.NoError(t, service.Recompute(context.Background(), models.RankScopeCountry, ""))

	for userID, want := range map[primitive.ObjectID]int{ngLeader: 1, ngSecond: 2, ghLeader: 1} {
		row, err := repo.FindByUserID(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, want, row.CountryRank.Position)
	}
}

func TestRecomputeGameTypeUsesGameTypeTotals(t *testing.T) {
	repo := newFakeRankRepo()
	service := NewRankService(repo)
	base := time.Now().Add(-time.Hour)

	userA := seedRankRow(t, repo, "NG", base, 10, 0)
	userB := seedRankRow(t, repo, "NG", base.Add(time.Minute), 40, 0)
	// userA dominates TopScore despite the lower overall total.
	repo.mu.Lock()
	repo.rows[userA].TopScore.Points = 50
	repo.rows[userB].TopScore.Points = 5
	repo.mu.Unlock()

	require.NoError(t, service.Recompute(context.Background(), models.RankScopeWorld, models.CompetitionTypeTopScore))

	rowA, err := repo.FindByUserID(context.Background(), userA)
	require.NoError(t, err)
	assert.Equal(t, 1, rowA.TopScore.Position)
	rowB, err := repo.FindByUserID(context.Background(), userB)
	require.NoError(t, err)
	assert.Equal(t, 2, rowB.TopScore.Position)
}

func TestGetRankingsPaginates(t *testing.T) {
	repo := newFakeRankRepo()
	service := NewRankService(repo)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		seedRankRow(t, repo, "NG", base.Add(time.Duration(i)*time.Minute), 50-i*10, 0)
	}

	first, err := service.GetRankings(context.Background(), models.RankScopeWorld, "", "", 1, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 50, first[0].Points)

	third, err := service.GetRankings(context.Background(), models.RankScopeWorld, "", "", 3, 2)
	require.NoError(t, err)
	require.Len(t, third, 1)
	assert.Equal(t, 10, third[0].Points)
}
