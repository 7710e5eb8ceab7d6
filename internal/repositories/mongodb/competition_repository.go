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

// CompetitionRepository implements repositories.CompetitionRepository
type CompetitionRepository struct {
	collection *mongo.Collection
}

// NewCompetitionRepository creates a new CompetitionRepository
func NewCompetitionRepository(db *mongo.Database) repositories.CompetitionRepository {
	return &CompetitionRepository{
		collection: db.Collection("competitions"),
	}
}

// Create creates a new competition
func (r *CompetitionRepository) Create(ctx context.Context, competition *models.Competition) error {
	competition.CreatedAt = time.Now()
	competition.UpdatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, competition)
	if err != nil {
		return err
	}
	competition.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID finds a competition by ID
func (r *CompetitionRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Competition, error) {
	var competition models.Competition
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&competition)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &models.NotFoundError{Entity: "competition", Key: id.Hex()}
		}
		return nil, err
	}
	return &competition, nil
}

// FindPublic finds public competitions, newest first
func (r *CompetitionRepository) FindPublic(ctx context.Context, activeOnly bool, page, limit int) ([]*models.Competition, error) {
	filter := bson.M{"isPublic": true}
	if activeOnly {
		filter["isActive"] = true
	}
	opts := options.Find().
		SetSort(bson.M{"startDate": -1}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var competitions []*models.Competition
	if err := cursor.All(ctx, &competitions); err != nil {
		return nil, err
	}
	if competitions == nil {
		competitions = []*models.Competition{}
	}
	return competitions, nil
}

// FindActiveEndedBefore finds competitions still active past their end date
func (r *CompetitionRepository) FindActiveEndedBefore(ctx context.Context, cutoff time.Time) ([]*models.Competition, error) {
	filter := bson.M{
		"isActive": true,
		"endDate":  bson.M{"$lt": cutoff},
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var competitions []*models.Competition
	if err := cursor.All(ctx, &competitions); err != nil {
		return nil, err
	}
	if competitions == nil {
		competitions = []*models.Competition{}
	}
	return competitions, nil
}

// IncrementParticipantCount atomically increments participantCount while the
// competition is active and below cap. A filter-guarded $inc cannot overshoot:
// concurrent joiners race on the guard, not on the counter.
func (r *CompetitionRepository) IncrementParticipantCount(ctx context.Context, id primitive.ObjectID, cap int) (bool, error) {
	filter := bson.M{
		"_id":              id,
		"isActive":         true,
		"participantCount": bson.M{"$lt": cap},
	}
	update := bson.M{
		"$inc": bson.M{"participantCount": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// DecrementParticipantCount releases a slot taken by a failed join
func (r *CompetitionRepository) DecrementParticipantCount(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{
		"_id":              id,
		"participantCount": bson.M{"$gt": 0},
	}
	update := bson.M{
		"$inc": bson.M{"participantCount": -1},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

// Deactivate flips isActive true -> false. The filter on isActive makes this a
// compare-and-swap: only one caller ever observes ModifiedCount == 1.
func (r *CompetitionRepository) Deactivate(ctx context.Context, id primitive.ObjectID) (bool, error) {
	filter := bson.M{"_id": id, "isActive": true}
	update := bson.M{
		"$set": bson.M{"isActive": false, "updatedAt": time.Now()},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// SetWinners records the competition winners
func (r *CompetitionRepository) SetWinners(ctx context.Context, id primitive.ObjectID, userIDs []primitive.ObjectID, override bool) error {
	update := bson.M{
		"$set": bson.M{
			"winnerUserIds":  userIDs,
			"winnerOverride": override,
			"updatedAt":      time.Now(),
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &models.NotFoundError{Entity: "competition", Key: id.Hex()}
	}
	return nil
}

// MarkSettled records that settlement side effects completed
func (r *CompetitionRepository) MarkSettled(ctx context.Context, id primitive.ObjectID, settledAt time.Time) error {
	update := bson.M{
		"$set": bson.M{"settledAt": settledAt, "updatedAt": time.Now()},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}
