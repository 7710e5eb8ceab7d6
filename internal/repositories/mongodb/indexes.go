package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique indexes the engine's invariants depend on.
// Every conditional insert in the repositories assumes these exist.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	indexes := map[string]mongo.IndexModel{
		"team_selections": {
			Keys:    bson.D{{Key: "competitionId", Value: 1}, {Key: "userId", Value: 1}},
			Options: unique,
		},
		"star_reservations": {
			Keys:    bson.D{{Key: "competitionId", Value: 1}, {Key: "fixtureId", Value: 1}},
			Options: unique,
		},
		"settlement_ledger": {
			Keys:    bson.D{{Key: "competitionId", Value: 1}, {Key: "userId", Value: 1}, {Key: "kind", Value: 1}},
			Options: unique,
		},
		"wallets": {
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: unique,
		},
		"ranks": {
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: unique,
		},
		"users": {
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: unique,
		},
	}

	for collection, model := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateOne(ctx, model); err != nil {
			return err
		}
	}

	// Non-unique lookup index for the scoring aggregator's fixture fan-out.
	fixtureIdx := mongo.IndexModel{Keys: bson.D{{Key: "teams.fixtureId", Value: 1}}}
	if _, err := db.Collection("team_selections").Indexes().CreateOne(ctx, fixtureIdx); err != nil {
		return err
	}
	return nil
}
