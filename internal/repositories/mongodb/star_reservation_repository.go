package mongodb

import (
	"context"
	"time"

	"github.com/predictarena/arena-backend/internal/models"
	"github.com/predictarena/arena-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// StarReservationRepository implements repositories.StarReservationRepository
type StarReservationRepository struct {
	collection *mongo.Collection
}

// NewStarReservationRepository creates a new StarReservationRepository
func NewStarReservationRepository(db *mongo.Database) repositories.StarReservationRepository {
	return &StarReservationRepository{
		collection: db.Collection("star_reservations"),
	}
}

// Reserve claims the star fixture. The unique (competitionId, fixtureId) index
// decides races between concurrent joiners: exactly one insert lands, the rest
// get a DuplicateKeyError. No read precedes the write.
func (r *StarReservationRepository) Reserve(ctx context.Context, reservation *models.StarReservation) error {
	reservation.CreatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, reservation)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &models.DuplicateKeyError{
				Key:     reservation.FixtureID,
				Message: "star fixture already reserved in this competition",
			}
		}
		return err
	}
	reservation.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// Release removes the claim, as the compensating action of a failed join
func (r *StarReservationRepository) Release(ctx context.Context, competitionID primitive.ObjectID, fixtureID string) error {
	filter := bson.M{"competitionId": competitionID, "fixtureId": fixtureID}
	_, err := r.collection.DeleteOne(ctx, filter)
	return err
}

// AttachSelection links the reservation to the persisted team selection
func (r *StarReservationRepository) AttachSelection(ctx context.Context, competitionID primitive.ObjectID, fixtureID string, selectionID primitive.ObjectID) error {
	filter := bson.M{"competitionId": competitionID, "fixtureId": fixtureID}
	update := bson.M{
		"$set": bson.M{"teamSelectionId": selectionID},
	}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}
