package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/predictarena/arena-backend/internal/models"
	"github.com/predictarena/arena-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TeamSelectionRepository implements repositories.TeamSelectionRepository
type TeamSelectionRepository struct {
	collection *mongo.Collection
}

// NewTeamSelectionRepository creates a new TeamSelectionRepository
func NewTeamSelectionRepository(db *mongo.Database) repositories.TeamSelectionRepository {
	return &TeamSelectionRepository{
		collection: db.Collection("team_selections"),
	}
}

// Create inserts a new team selection. The unique (competitionId, userId) index
// rejects a concurrent duplicate join with a DuplicateKeyError.
func (r *TeamSelectionRepository) Create(ctx context.Context, selection *models.TeamSelection) error {
	selection.JoinedAt = time.Now()
	selection.UpdatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, selection)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &models.DuplicateKeyError{
				Key:     selection.UserID.Hex(),
				Message: "selection already exists for this competition and user",
			}
		}
		return err
	}
	selection.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID finds a team selection by ID
func (r *TeamSelectionRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.TeamSelection, error) {
	var selection models.TeamSelection
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&selection)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &models.NotFoundError{Entity: "team selection", Key: id.Hex()}
		}
		return nil, err
	}
	return &selection, nil
}

// FindByCompetitionAndUser finds the one selection for a (competition, user) pair
func (r *TeamSelectionRepository) FindByCompetitionAndUser(ctx context.Context, competitionID, userID primitive.ObjectID) (*models.TeamSelection, error) {
	filter := bson.M{"competitionId": competitionID, "userId": userID}
	var selection models.TeamSelection
	err := r.collection.FindOne(ctx, filter).Decode(&selection)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &models.NotFoundError{Entity: "team selection", Key: competitionID.Hex() + "/" + userID.Hex()}
		}
		return nil, err
	}
	return &selection, nil
}

// FindByCompetition finds all selections of a competition, earliest join first
func (r *TeamSelectionRepository) FindByCompetition(ctx context.Context, competitionID primitive.ObjectID) ([]*models.TeamSelection, error) {
	opts := options.Find().SetSort(bson.M{"joinedAt": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"competitionId": competitionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var selections []*models.TeamSelection
	if err := cursor.All(ctx, &selections); err != nil {
		return nil, err
	}
	if selections == nil {
		selections = []*models.TeamSelection{}
	}
	return selections, nil
}

// FindByFixture finds all selections that picked the given fixture
func (r *TeamSelectionRepository) FindByFixture(ctx context.Context, fixtureID string) ([]*models.TeamSelection, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"teams.fixtureId": fixtureID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var selections []*models.TeamSelection
	if err := cursor.All(ctx, &selections); err != nil {
		return nil, err
	}
	if selections == nil {
		selections = []*models.TeamSelection{}
	}
	return selections, nil
}

// UpsertTeamPoint writes the score entry for one fixture of a selection and
// recomputes totalPoints from the teamPoints array. A final entry is never
// overwritten unless override is set, so replaying a feed event or delivering
// a stale live update after full time cannot regress the stored result.
func (r *TeamSelectionRepository) UpsertTeamPoint(ctx context.Context, selectionID primitive.ObjectID, point models.TeamPoint, override bool) (bool, error) {
	// 1. Update the existing array entry, guarded on it not being final.
	elem := bson.M{"fixtureId": point.FixtureID}
	if !override {
		elem["isFT"] = false
	}
	filter := bson.M{
		"_id":        selectionID,
		"teamPoints": bson.M{"$elemMatch": elem},
	}
	update := bson.M{
		"$set": bson.M{"teamPoints.$": point, "updatedAt": time.Now()},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}

	if res.MatchedCount == 0 {
		// 2. No updatable entry: push a new one, guarded on the fixture being absent.
		pushFilter := bson.M{
			"_id":                  selectionID,
			"teamPoints.fixtureId": bson.M{"$ne": point.FixtureID},
		}
		pushUpdate := bson.M{
			"$push": bson.M{"teamPoints": point},
			"$set":  bson.M{"updatedAt": time.Now()},
		}
		pushRes, err := r.collection.UpdateOne(ctx, pushFilter, pushUpdate)
		if err != nil {
			return false, err
		}
		if pushRes.MatchedCount == 0 {
			// Entry exists but is already final: skip.
			return false, nil
		}
	}

	// 3. Recompute the derived total inside the storage engine.
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"totalPoints": bson.M{"$sum": "$teamPoints.points"},
		}}},
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": selectionID}, pipeline)
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetRank persists the within-competition rank assigned at settlement
func (r *TeamSelectionRepository) SetRank(ctx context.Context, selectionID primitive.ObjectID, rank int) error {
	update := bson.M{
		"$set": bson.M{"rank": rank, "updatedAt": time.Now()},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": selectionID}, update)
	return err
}

// UpdateProofs replaces the proof list and the derived stepsVerified flag
func (r *TeamSelectionRepository) UpdateProofs(ctx context.Context, selectionID primitive.ObjectID, proofs []models.Proof, stepsVerified bool) error {
	update := bson.M{
		"$set": bson.M{
			"proofs":        proofs,
			"stepsVerified": stepsVerified,
			"updatedAt":     time.Now(),
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": selectionID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &models.NotFoundError{Entity: "team selection", Key: selectionID.Hex()}
	}
	return nil
}

// SetDisqualified sets or clears the disqualification flag
func (r *TeamSelectionRepository) SetDisqualified(ctx context.Context, selectionID primitive.ObjectID, disqualified bool) error {
	update := bson.M{
		"$set": bson.M{"isDisqualified": disqualified, "updatedAt": time.Now()},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": selectionID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &models.NotFoundError{Entity: "team selection", Key: selectionID.Hex()}
	}
	return nil
}

// FindUnverifiedJoinedBefore finds qualified selections whose proofs were still
// unverified at the cutoff, for the grace-period sweep
func (r *TeamSelectionRepository) FindUnverifiedJoinedBefore(ctx context.Context, cutoff time.Time) ([]*models.TeamSelection, error) {
	filter := bson.M{
		"stepsVerified":  false,
		"isDisqualified": false,
		"joinedAt":       bson.M{"$lt": cutoff},
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var selections []*models.TeamSelection
	if err := cursor.All(ctx, &selections); err != nil {
		return nil, err
	}
	if selections == nil {
		selections = []*models.TeamSelection{}
	}
	return selections, nil
}
