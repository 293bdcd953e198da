package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Discount struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Code       string             `json:"code" bson:"code"`
	Percentage float64            `json:"percentage" bson:"percentage"`
	MaxAmount  float64            `json:"max_amount" bson:"max_amount"`
	ValidFrom  time.Time          `json:"valid_from" bson:"valid_from"`
	ValidUntil time.Time          `json:"valid_until" bson:"valid_until"`
	IsActive   bool               `json:"is_active" bson:"is_active"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

type DiscountSummary struct {
	ID         primitive.ObjectID `json:"id" bson:"_id"`
	Code       string             `json:"code" bson:"code"`
	Percentage float64            `json:"percentage" bson:"percentage"`
}
