package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PayoutDetails is where a user's winnings can be withdrawn to
type PayoutDetails struct {
	Provider      string `bson:"provider,omitempty" json:"provider,omitempty"`
	AccountName   string `bson:"accountName,omitempty" json:"accountName,omitempty"`
	AccountNumber string `bson:"accountNumber,omitempty" json:"accountNumber,omitempty"`
}

// Wallet holds a user's coin balance. Balances are integer coins and only ever
// change through the repository's atomic debit and credit.
type Wallet struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID           primitive.ObjectID `bson:"userId" json:"userId"`
	Balance          int64              `bson:"balance" json:"balance"`
	MadeFirstDeposit bool               `bson:"madeFirstDeposit" json:"madeFirstDeposit"`
	PayoutDetails    PayoutDetails      `bson:"payoutDetails,omitempty" json:"payoutDetails,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}
