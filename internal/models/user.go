package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID               primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Name             string               `json:"name" bson:"name"`
	Email            string               `json:"email" bson:"email"`
	Mobile           string               `json:"mobile" bson:"mobile"`
	Password         string               `json:"-" bson:"password"`
	Role             Role                 `json:"role" bson:"role"`
	EnrolledCourses  []primitive.ObjectID `json:"enrolled_courses" bson:"enrolled_courses"`
	StripeCustomerID string               `json:"-" bson:"stripe_customer_id,omitempty"`
	CreatedAt        time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at" bson:"updated_at"`
}

// UserSummary is the subset of a user embedded in admin reports.
type UserSummary struct {
	ID     primitive.ObjectID `json:"id" bson:"_id"`
	Name   string             `json:"name" bson:"name"`
	Email  string             `json:"email" bson:"email"`
	Mobile string             `json:"mobile" bson:"mobile"`
}

// Principal is the authenticated caller, built once per request by the
// auth middleware and passed into services.
type Principal struct {
	UserID    primitive.ObjectID
	Role      Role
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
