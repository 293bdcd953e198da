// Package pricing computes what a user pays for a course once a discount
// code is applied.
package pricing

import (
	"math"
	"time"

	"ourskilllab/internal/models"
	"ourskilllab/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Quote struct {
	Valid          bool               `json:"valid"`
	DiscountID     primitive.ObjectID `json:"discount_id,omitempty"`
	Code           string             `json:"code,omitempty"`
	Percentage     float64            `json:"percentage"`
	OriginalPrice  float64            `json:"original_price"`
	DiscountAmount float64            `json:"discount_amount"`
	FinalPrice     float64            `json:"final_price"`
}

// HasDiscount reports whether the quote was produced with a discount.
func (q *Quote) HasDiscount() bool {
	return !q.DiscountID.IsZero()
}

// DiscountRef returns the discount id to store on an enrollment, or nil.
func (q *Quote) DiscountRef() *primitive.ObjectID {
	if !q.HasDiscount() {
		return nil
	}
	id := q.DiscountID
	return &id
}

// Evaluate prices a course with a discount at time now. The discount must be
// active and now must fall inside [ValidFrom, ValidUntil].
func Evaluate(price float64, discount *models.Discount, now time.Time) (*Quote, error) {
	if err := checkPrice(price); err != nil {
		return nil, err
	}
	if discount == nil || !IsApplicable(discount, now) {
		return nil, utils.NotFound("Invalid or expired discount code")
	}

	amount := price * discount.Percentage / 100
	if amount > discount.MaxAmount {
		amount = discount.MaxAmount
	}
	if amount > price {
		amount = price
	}
	amount = roundCents(amount)

	return &Quote{
		Valid:          true,
		DiscountID:     discount.ID,
		Code:           discount.Code,
		Percentage:     discount.Percentage,
		OriginalPrice:  roundCents(price),
		DiscountAmount: amount,
		FinalPrice:     roundCents(price - amount),
	}, nil
}

// FullPrice is the quote for a purchase without a discount code.
func FullPrice(price float64) (*Quote, error) {
	if err := checkPrice(price); err != nil {
		return nil, err
	}
	return &Quote{
		Valid:         true,
		OriginalPrice: roundCents(price),
		FinalPrice:    roundCents(price),
	}, nil
}

// IsApplicable reports whether a discount can be used at time now. Both
// window bounds are inclusive.
func IsApplicable(discount *models.Discount, now time.Time) bool {
	if discount == nil || !discount.IsActive {
		return false
	}
	return !now.Before(discount.ValidFrom) && !now.After(discount.ValidUntil)
}

// ValidateTerms checks the values an admin supplies when creating a discount.
func ValidateTerms(percentage, maxAmount float64, from, until time.Time) error {
	if !isFinite(percentage) || percentage < 0 || percentage > 100 {
		return utils.Invalid("Percentage must be between 0 and 100")
	}
	if !isFinite(maxAmount) || maxAmount < 0 {
		return utils.Invalid("Maximum discount amount cannot be negative")
	}
	if from.IsZero() || until.IsZero() {
		return utils.Invalid("Validity window is required")
	}
	if until.Before(from) {
		return utils.Invalid("Discount cannot end before it starts")
	}
	return nil
}

// ToMinorUnits converts a currency amount to integer cents.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func FromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}

func checkPrice(price float64) error {
	if !isFinite(price) || price <= 0 {
		return utils.Invalid("Course price must be positive")
	}
	return nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
