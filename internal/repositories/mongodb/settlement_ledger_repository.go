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

// SettlementLedgerRepository implements repositories.SettlementLedgerRepository
type SettlementLedgerRepository struct {
	collection *mongo.Collection
}

// NewSettlementLedgerRepository creates a new SettlementLedgerRepository
func NewSettlementLedgerRepository(db *mongo.Database) repositories.SettlementLedgerRepository {
	return &SettlementLedgerRepository{
		collection: db.Collection("settlement_ledger"),
	}
}

// TryInsert inserts the marker. The unique (competitionId, userId, kind) index
// turns a settlement retry into a skipped side effect instead of a double one.
func (r *SettlementLedgerRepository) TryInsert(ctx context.Context, entry *models.SettlementLedgerEntry) (bool, error) {
	entry.CreatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	entry.ID = res.InsertedID.(primitive.ObjectID)
	return true, nil
}

// Delete removes a marker, as the compensating action when the side effect it
// guards could not be applied
func (r *SettlementLedgerRepository) Delete(ctx context.Context, competitionID, userID primitive.ObjectID, kind models.SettlementEntryKind) error {
	filter := bson.M{
		"competitionId": competitionID,
		"userId":        userID,
		"kind":          kind,
	}
	_, err := r.collection.DeleteOne(ctx, filter)
	return err
}

// FindByCompetition returns all markers of a competition, for reconciliation
func (r *SettlementLedgerRepository) FindByCompetition(ctx context.Context, competitionID primitive.ObjectID) ([]*models.SettlementLedgerEntry, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"competitionId": competitionID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*models.SettlementLedgerEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*models.SettlementLedgerEntry{}
	}
	return entries, nil
}
