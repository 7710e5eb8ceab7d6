package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the engine's local record of an account. Identity and sessions are owned
// by the external auth service; this row carries what settlement and ranking need
// (country, creation order) plus credentials for admin accounts.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Username  string             `bson:"username" json:"username"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password,omitempty" json:"-"` // bcrypt hash, admin accounts only
	Role      string             `bson:"role" json:"role"`            // "user" or "admin"
	Country   string             `bson:"country,omitempty" json:"country,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
