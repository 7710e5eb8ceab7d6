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

// RankRepository implements repositories.RankRepository
type RankRepository struct {
	collection *mongo.Collection
}

// NewRankRepository creates a new RankRepository
func NewRankRepository(db *mongo.Database) repositories.RankRepository {
	return &RankRepository{
		collection: db.Collection("ranks"),
	}
}

// gameTypeField maps a competition type to its sub-document field
func gameTypeField(gameType models.CompetitionType) string {
	switch gameType {
	case models.CompetitionTypeTopScore:
		return "topscore"
	case models.CompetitionTypeManGoSet:
		return "mangoset"
	case models.CompetitionTypeLeague:
		return "league"
	}
	return ""
}

// EnsureForUser creates the leaderboard row if it does not exist yet. The stored
// createdAt mirrors the account creation time so recompute tie-breaks follow
// account creation order.
func (r *RankRepository) EnsureForUser(ctx context.Context, userID primitive.ObjectID, country string, createdAt time.Time) error {
	filter := bson.M{"userId": userID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"country":       country,
			"points":        0,
			"totalWins":     0,
			"winningStreak": 0,
			"createdAt":     createdAt,
			"updatedAt":     time.Now(),
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// FindByUserID finds a leaderboard row by user ID
func (r *RankRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Rank, error) {
	var rank models.Rank
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&rank)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &models.NotFoundError{Entity: "rank", Key: userID.Hex()}
		}
		return nil, err
	}
	return &rank, nil
}

// ApplyOutcome folds one settled competition into the row. Winners extend the
// global and per-game-type streaks; non-winning active participants have both
// reset. Points accrue either way.
func (r *RankRepository) ApplyOutcome(ctx context.Context, userID primitive.ObjectID, gameType models.CompetitionType, points int, won bool) error {
	field := gameTypeField(gameType)
	inc := bson.M{
		"points":            points,
		field + ".points":   points,
	}
	set := bson.M{"updatedAt": time.Now()}
	if won {
		inc["totalWins"] = 1
		inc["winningStreak"] = 1
		inc[field+".totalWins"] = 1
		inc[field+".winningStreak"] = 1
	} else {
		set["winningStreak"] = 0
		set[field+".winningStreak"] = 0
	}
	update := bson.M{"$inc": inc, "$set": set}
	res, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &models.NotFoundError{Entity: "rank", Key: userID.Hex()}
	}
	return nil
}

// FindAll returns all rows, optionally filtered by country
func (r *RankRepository) FindAll(ctx context.Context, country string) ([]*models.Rank, error) {
	filter := bson.M{}
	if country != "" {
		filter["country"] = country
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ranks []*models.Rank
	if err := cursor.All(ctx, &ranks); err != nil {
		return nil, err
	}
	if ranks == nil {
		ranks = []*models.Rank{}
	}
	return ranks, nil
}

// positionFieldPrefix returns the sub-document holding position/trend for a scope
func positionFieldPrefix(scope models.RankScope, gameType models.CompetitionType) string {
	if gameType != "" {
		return gameTypeField(gameType)
	}
	if scope == models.RankScopeCountry {
		return "countryRank"
	}
	return "worldRank"
}

// UpdatePositions bulk-writes recomputed positions for one leaderboard scope
func (r *RankRepository) UpdatePositions(ctx context.Context, scope models.RankScope, gameType models.CompetitionType, updates []repositories.RankPositionUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	prefix := positionFieldPrefix(scope, gameType)
	writes := make([]mongo.WriteModel, 0, len(updates))
	for _, u := range updates {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"userId": u.UserID}).
			SetUpdate(bson.M{"$set": bson.M{
				prefix + ".position": u.Position,
				prefix + ".trend":    u.Trend,
				"updatedAt":          time.Now(),
			}}))
	}
	_, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	return err
}

// FindPage returns one leaderboard page sorted by the scope's points field
func (r *RankRepository) FindPage(ctx context.Context, scope models.RankScope, gameType models.CompetitionType, country string, page, limit int) ([]*models.Rank, error) {
	filter := bson.M{}
	if scope == models.RankScopeCountry && country != "" {
		filter["country"] = country
	}
	pointsField := "points"
	winsField := "totalWins"
	if gameType != "" {
		pointsField = gameTypeField(gameType) + ".points"
		winsField = gameTypeField(gameType) + ".totalWins"
	}
	opts := options.Find().
		SetSort(bson.D{
			{Key: pointsField, Value: -1},
			{Key: winsField, Value: -1},
			{Key: "createdAt", Value: 1},
		}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ranks []*models.Rank
	if err := cursor.All(ctx, &ranks); err != nil {
		return nil, err
	}
	if ranks == nil {
		ranks = []*models.Rank{}
	}
	return ranks, nil
}
