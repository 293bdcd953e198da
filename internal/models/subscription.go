package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PlanInterval string

const (
	PlanIntervalMonth PlanInterval = "month"
	PlanIntervalYear  PlanInterval = "year"
)

// AddTo returns t advanced by one billing interval.
func (i PlanInterval) AddTo(t time.Time) time.Time {
	if i == PlanIntervalYear {
		return t.AddDate(1, 0, 0)
	}
	return t.AddDate(0, 1, 0)
}

type SubscriptionPlan struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name            string             `json:"name" bson:"name"`
	Description     string             `json:"description" bson:"description"`
	Price           float64            `json:"price" bson:"price"`
	Interval        PlanInterval       `json:"interval" bson:"interval"`
	Features        []string           `json:"features" bson:"features"`
	IsActive        bool               `json:"is_active" bson:"is_active"`
	StripeProductID string             `json:"-" bson:"stripe_product_id,omitempty"`
	StripePriceID   string             `json:"-" bson:"stripe_price_id,omitempty"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
)

type UserSubscription struct {
	ID                   primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID               primitive.ObjectID `json:"user_id" bson:"user"`
	PlanID               primitive.ObjectID `json:"plan_id" bson:"plan"`
	Status               SubscriptionStatus `json:"status" bson:"status"`
	StartDate            time.Time          `json:"start_date" bson:"start_date"`
	EndDate              time.Time          `json:"end_date" bson:"end_date"`
	StripeSubscriptionID string             `json:"stripe_subscription_id" bson:"stripe_subscription_id"`
	StripeCustomerID     string             `json:"-" bson:"stripe_customer_id"`
	CancelAtPeriodEnd    bool               `json:"cancel_at_period_end" bson:"cancel_at_period_end"`
	CreatedAt            time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at" bson:"updated_at"`
}

// SubscriptionWithPlan is a user subscription with its plan resolved.
type SubscriptionWithPlan struct {
	UserSubscription `bson:",inline"`
	Plan             *SubscriptionPlan `json:"plan" bson:"plan_doc"`
}
