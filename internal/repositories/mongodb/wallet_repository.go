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

// WalletRepository implements repositories.WalletRepository
type WalletRepository struct {
	collection *mongo.Collection
}

// NewWalletRepository creates a new WalletRepository
func NewWalletRepository(db *mongo.Database) repositories.WalletRepository {
	return &WalletRepository{
		collection: db.Collection("wallets"),
	}
}

// FindByUserID finds a wallet by user ID
func (r *WalletRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&wallet)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &models.NotFoundError{Entity: "wallet", Key: userID.Hex()}
		}
		return nil, err
	}
	return &wallet, nil
}

// Debit atomically subtracts amount from the balance while it covers the amount.
// The balance guard in the filter is what makes concurrent debits safe; the
// balance can never go negative.
func (r *WalletRepository) Debit(ctx context.Context, userID primitive.ObjectID, amount int64) (bool, error) {
	filter := bson.M{
		"userId":  userID,
		"balance": bson.M{"$gte": amount},
	}
	update := bson.M{
		"$inc": bson.M{"balance": -amount},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// Credit adds amount to the balance, creating the wallet if it does not exist
func (r *WalletRepository) Credit(ctx context.Context, userID primitive.ObjectID, amount int64) error {
	filter := bson.M{"userId": userID}
	update := bson.M{
		"$inc": bson.M{"balance": amount},
		"$set": bson.M{"updatedAt": time.Now()},
		"$setOnInsert": bson.M{
			"madeFirstDeposit": false,
			"createdAt":        time.Now(),
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// MarkFirstDeposit records that the user has funded the wallet at least once
func (r *WalletRepository) MarkFirstDeposit(ctx context.Context, userID primitive.ObjectID) error {
	update := bson.M{
		"$set": bson.M{"madeFirstDeposit": true, "updatedAt": time.Now()},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, update)
	return err
}

// UpdatePayoutDetails stores the user's payout destination
func (r *WalletRepository) UpdatePayoutDetails(ctx context.Context, userID primitive.ObjectID, details models.PayoutDetails) error {
	update := bson.M{
		"$set": bson.M{"payoutDetails": details, "updatedAt": time.Now()},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &models.NotFoundError{Entity: "wallet", Key: userID.Hex()}
	}
	return nil
}
