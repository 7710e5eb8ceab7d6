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

type scoringFixture struct {
	service         *ScoringServiceImpl
	selectionRepo   *fakeSelectionRepo
	competitionRepo *fakeCompetitionRepo
	competitionID   primitive.ObjectID
}

func newScoringHarness(t *testing.T) *scoringFixture {
	t.Helper()
	f := &scoringFixture{
		selectionRepo:   newFakeSelectionRepo(),
		competitionRepo: newFakeCompetitionRepo(),
	}
	f.service = NewScoringService(f.selectionRepo, f.competitionRepo, NewResultPointsAdapter())
	f.competitionID = f.addCompetition(t)
	return f
}

func (f *scoringFixture) addCompetition(t *testing.T) primitive.ObjectID {
	t.Helper()
	competition := &models.Competition{
		Name:      "Weekend TopScore",
		Type:      models.CompetitionTypeTopScore,
		IsActive:  true,
		StartDate: time.Now().Add(-48 * time.Hour),
		EndDate:   time.Now().Add(48 * time.Hour),
	}
	require.NoError(t, f.competitionRepo.Create(context.Background(), competition))
	return competition.ID
}

func (f *scoringFixture) addSelection(t *testing.T, competitionID primitive.ObjectID, teams ...models.SelectedTeam) primitive.ObjectID {
	t.Helper()
	selection := &models.TeamSelection{
		CompetitionID: competitionID,
		UserID:        primitive.NewObjectID(),
		Teams:         teams,
	}
	require.NoError(t, f.selectionRepo.Create(context.Background(), selection))
	return selection.ID
}

func newScoringFixture(t *testing.T, teams ...models.SelectedTeam) (*ScoringServiceImpl, *fakeSelectionRepo, primitive.ObjectID) {
	t.Helper()
	f := newScoringHarness(t)
	selectionID := f.addSelection(t, f.competitionID, teams...)
	return f.service, f.selectionRepo, selectionID
}

func fixtureEvent(fixtureID string, home, away int, isFT bool) models.FixtureResultEvent {
	return models.FixtureResultEvent{
		FixtureID: fixtureID,
		Score:     models.FixtureScore{Home: home, Away: away},
		IsLive:    !isFT,
		IsFT:      isFT,
	}
}

func TestApplyFixtureResultScoresSelection(t *testing.T) {
	service, repo, selectionID := newScoringFixture(t,
		models.SelectedTeam{FixtureID: "lions-vs-tigers", SelectedTeam: "lions", OpponentTeam: "tigers"},
		models.SelectedTeam{FixtureID: "bears-vs-wolves", SelectedTeam: "wolves", OpponentTeam: "bears"},
	)

	// Home win by 2: 3 + 2 = 5 points for the home pick.
	require.NoError(t, service.ApplyFixtureResult(context.Background(),
		fixtureEvent("lions-vs-tigers", 3, 1, true), false))
	// Away side drew: 1 point.
	require.NoError(t, service.ApplyFixtureResult(context.Background(),
		fixtureEvent("bears-vs-wolves", 2, 2, true), false))

	selection, err := repo.FindByID(context.Background(), selectionID)
	require.NoError(t, err)
	require.Len(t, selection.TeamPoints, 2)
	assert.Equal(t, 5, selection.TeamPoints[0].Points)
	assert.Equal(t, 1, selection.TeamPoints[1].Points)
	assert.Equal(t, 6, selection.TotalPoints, "totalPoints is the sum over teamPoints")
}

func TestApplyFixtureResultLiveThenFinal(t *testing.T) {
	service, repo, selectionID := newScoringFixture(t,
		models.SelectedTeam{FixtureID: "lions-vs-tigers", SelectedTeam: "lions", OpponentTeam: "tigers"},
	)

	require.NoError(t, service.ApplyFixtureResult(context.Background(),
		fixtureEvent("lions-vs-tigers", 1, 0, false), false))
	selection, err := repo.FindByID(context.Background(), selectionID)
	require.NoError(t, err)
	assert.Equal(t, 4, selection.TotalPoints)
	assert.False(t, selection.TeamPoints[0].IsFT)

	require.NoError(t, service.ApplyFixtureResult(context.Background(),
		fixtureEvent("lions-vs-tigers", 2, 0, true), false))
	selection, err = repo.FindByID(context.Background(), selectionID)
	require.NoError(t, err)
	assert.Equal(t, 5, selection.TotalPoints)
	assert.True(t, selection.TeamPoints[0].IsFT)
}

func TestApplyFixtureResultRejectsReplayOfFinal(t *testing.T) {
	service, repo, selectionID := newScoringFixture(t,
		models.SelectedTeam{FixtureID: "lions-vs-tigers", SelectedTeam: "lions", OpponentTeam: "tigers"},
	)
	final := fixtureEvent("lions-vs-tigers", 2, 0, true)

	require.NoError(t, service.ApplyFixtureResult(context.Background(), final, false))
	err := service.ApplyFixtureResult(context.Background(), final, false)
	require.ErrorIs(t, err, models.ErrFixtureResultFinal)

	selection, err := repo.FindByID(context.Background(), selectionID)
	require.NoError(t, err)
	require.Len(t, selection.TeamPoints, 1)
	assert.Equal(t, 5, selection.TotalPoints, "the stored points never change after full time")
}

func TestApplyFixtureResultNeverRegressesFinal(t *testing.T) {
	service, repo, selectionID := newScoringFixture(t,
		models.SelectedTeam{FixtureID: "lions-vs-tigers", SelectedTeam: "lions", OpponentTeam: "tigers"},
	)

	require.NoError(t, service.ApplyFixtureResult(context.Background(),
		fixtureEvent("lions-vs-tigers", 2, 0, true), false))
	// A stale live update delivered after full time must be rejected.
	err := service.ApplyFixtureResult(context.Background(),
		fixtureEvent("lions-vs-tigers", 1, 0, false), false)
	require.ErrorIs(t, err, models.ErrFixtureResultFinal)

	selection, err := repo.FindByID(context.Background(), selectionID)
	require.NoError(t, err)
	assert.True(t, selection.TeamPoints[0].IsFT)
	assert.Equal(t, 5, selection.TotalPoints)
}

func TestApplyFixtureResultOverrideCorrectsFinal(t *testing.T) {
	service, repo, selectionID := newScoringFixture(t,
		models.SelectedTeam{FixtureID: "lions-vs-tigers", SelectedTeam: "lions", OpponentTeam: "tigers"},
	)

	require.NoError(t, service.ApplyFixtureResult(context.Background(),
		fixtureEvent("lions-vs-tigers", 2, 0, true), false))
	require.NoError(t, service.ApplyFixtureResult(context.Background(),
		fixtureEvent("lions-vs-tigers", 0, 1, true), true))

	selection, err := repo.FindByID(context.Background(), selectionID)
	require.NoError(t, err)
	assert.Equal(t, 0, selection.TotalPoints, "administrative correction replaces the settled result")
}

func TestApplyFixtureResultFansOutToAllSelections(t *testing.T) {
	f := newScoringHarness(t)
	homeBacker := f.addSelection(t, f.competitionID,
		models.SelectedTeam{FixtureID: "lions-vs-tigers", SelectedTeam: "lions"})
	awayBacker := f.addSelection(t, f.competitionID,
		models.SelectedTeam{FixtureID: "lions-vs-tigers", SelectedTeam: "tigers"})
	bystander := f.addSelection(t, f.competitionID,
		models.SelectedTeam{FixtureID: "bears-vs-wolves", SelectedTeam: "bears"})

	require.NoError(t, f.service.ApplyFixtureResult(context.Background(),
		fixtureEvent("lions-vs-tigers", 3, 0, true), false))

	home, err := f.selectionRepo.FindByID(context.Background(), homeBacker)
	require.NoError(t, err)
	assert.Equal(t, 6, home.TotalPoints)
	away, err := f.selectionRepo.FindByID(context.Background(), awayBacker)
	require.NoError(t, err)
	assert.Equal(t, 0, away.TotalPoints)
	untouched, err := f.selectionRepo.FindByID(context.Background(), bystander)
	require.NoError(t, err)
	assert.Empty(t, untouched.TeamPoints)
}

func TestApplyFixtureResultFreezesDeactivatedCompetitions(t *testing.T) {
	f := newScoringHarness(t)
	settledCompetition := f.addCompetition(t)
	activeBacker := f.addSelection(t, f.competitionID,
		models.SelectedTeam{FixtureID: "lions-vs-tigers", SelectedTeam: "lions"})
	settledBacker := f.addSelection(t, settledCompetition,
		models.SelectedTeam{FixtureID: "lions-vs-tigers", SelectedTeam: "lions"})

	won, err := f.competitionRepo.Deactivate(context.Background(), settledCompetition)
	require.NoError(t, err)
	require.True(t, won)
	require.NoError(t, f.competitionRepo.MarkSettled(context.Background(), settledCompetition, time.Now()))

	// A late feed event scores the active entry and leaves the settled one
	// alone: its payout and ranks were computed from the totals at closeout.
	require.NoError(t, f.service.ApplyFixtureResult(context.Background(),
		fixtureEvent("lions-vs-tigers", 3, 0, true), false))

	active, err := f.selectionRepo.FindByID(context.Background(), activeBacker)
	require.NoError(t, err)
	assert.Equal(t, 6, active.TotalPoints)
	frozen, err := f.selectionRepo.FindByID(context.Background(), settledBacker)
	require.NoError(t, err)
	assert.Empty(t, frozen.TeamPoints)
	assert.Equal(t, 0, frozen.TotalPoints)

	t.Run("event touching only settled entries is not a conflict", func(t *testing.T) {
		f := newScoringHarness(t)
		selectionID := f.addSelection(t, f.competitionID,
			models.SelectedTeam{FixtureID: "owls-vs-hawks", SelectedTeam: "owls"})
		won, err := f.competitionRepo.Deactivate(context.Background(), f.competitionID)
		require.NoError(t, err)
		require.True(t, won)

		require.NoError(t, f.service.ApplyFixtureResult(context.Background(),
			fixtureEvent("owls-vs-hawks", 1, 0, true), false))
		frozen, err := f.selectionRepo.FindByID(context.Background(), selectionID)
		require.NoError(t, err)
		assert.Empty(t, frozen.TeamPoints)
	})
}
