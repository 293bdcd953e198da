package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentStatus string

// Only completed is written today: an enrollment is persisted after the
// processor reports success. Pending and failed are kept for stored data.
const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type Enrollment struct {
	ID              primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID          primitive.ObjectID  `json:"user_id" bson:"user"`
	CourseID        primitive.ObjectID  `json:"course_id" bson:"course"`
	PaymentAmount   float64             `json:"payment_amount" bson:"payment_amount"`
	DiscountApplied *primitive.ObjectID `json:"discount_applied,omitempty" bson:"discount_applied,omitempty"`
	DiscountAmount  float64             `json:"discount_amount" bson:"discount_amount"`
	PaymentStatus   PaymentStatus       `json:"payment_status" bson:"payment_status"`
	PaymentDate     time.Time           `json:"payment_date" bson:"payment_date"`
	PaymentMethod   string              `json:"payment_method" bson:"payment_method"`
	TransactionID   string              `json:"transaction_id" bson:"transaction_id"`
	ReceiptSent     bool                `json:"receipt_sent" bson:"receipt_sent"`
	CreatedAt       time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at" bson:"updated_at"`
}

// EnrollmentReport is a completed enrollment with its user and course
// resolved, as shown to admins.
type EnrollmentReport struct {
	Enrollment `bson:",inline"`
	User       *UserSummary   `json:"user" bson:"user_doc"`
	Course     *CourseSummary `json:"course" bson:"course_doc"`
}

// PaymentRecord is a completed enrollment in a user's payment history.
type PaymentRecord struct {
	Enrollment `bson:",inline"`
	Course     *CourseSummary   `json:"course" bson:"course_doc"`
	Discount   *DiscountSummary `json:"discount,omitempty" bson:"discount_doc,omitempty"`
}
