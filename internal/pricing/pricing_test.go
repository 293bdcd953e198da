package pricing

import (
	"math"
	"testing"
	"time"

	"ourskilllab/internal/models"
	"ourskilllab/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func discount(pct, max float64) *models.Discount {
	return &models.Discount{
		ID:         primitive.NewObjectID(),
		Code:       "SAVE",
		Percentage: pct,
		MaxAmount:  max,
		ValidFrom:  now.Add(-24 * time.Hour),
		ValidUntil: now.Add(24 * time.Hour),
		IsActive:   true,
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name         string
		price        float64
		pct, max     float64
		wantDiscount float64
		wantFinal    float64
	}{
		{"capped by max amount", 100, 20, 15, 15, 85},
		{"under the cap", 50, 50, 100, 25, 25},
		{"full discount", 49.99, 100, 1000, 49.99, 0},
		{"zero cap", 80, 30, 0, 0, 80},
		{"rounds to cents", 19.99, 15, 100, 3, 16.99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := discount(tt.pct, tt.max)
			q, err := Evaluate(tt.price, d, now)
			require.NoError(t, err)

			assert.True(t, q.Valid)
			assert.Equal(t, d.ID, q.DiscountID)
			assert.InDelta(t, tt.wantDiscount, q.DiscountAmount, 1e-9)
			assert.InDelta(t, tt.wantFinal, q.FinalPrice, 1e-9)
			assert.GreaterOrEqual(t, q.FinalPrice, 0.0)
		})
	}
}

func TestEvaluateProperty(t *testing.T) {
	for _, price := range []float64{0.5, 1, 9.99, 100, 1234.56} {
		for pct := 1.0; pct <= 100; pct += 7 {
			for _, max := range []float64{0, 1, 10, 500} {
				q, err := Evaluate(price, discount(pct, max), now)
				require.NoError(t, err)

				want := math.Min(price*pct/100, max)
				assert.InDelta(t, want, q.DiscountAmount, 0.005+1e-9)
				assert.LessOrEqual(t, q.DiscountAmount, max)
				assert.GreaterOrEqual(t, q.FinalPrice, 0.0)
			}
		}
	}
}

func TestEvaluateRejectsUnusableDiscount(t *testing.T) {
	inactive := discount(20, 15)
	inactive.IsActive = false

	early := discount(20, 15)
	early.ValidFrom = now.Add(time.Second)

	late := discount(20, 15)
	late.ValidUntil = now.Add(-time.Second)

	for name, d := range map[string]*models.Discount{
		"nil":      nil,
		"inactive": inactive,
		"future":   early,
		"expired":  late,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Evaluate(100, d, now)
			assert.True(t, utils.IsKind(err, utils.KindNotFound))
		})
	}
}

func TestEvaluateWindowBoundsInclusive(t *testing.T) {
	d := discount(10, 100)
	d.ValidFrom = now
	d.ValidUntil = now

	q, err := Evaluate(100, d, now)
	require.NoError(t, err)
	assert.Equal(t, 90.0, q.FinalPrice)
}

func TestEvaluateRejectsBadPrice(t *testing.T) {
	for _, price := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		_, err := Evaluate(price, discount(10, 10), now)
		assert.True(t, utils.IsKind(err, utils.KindInvalid), "price %v", price)
	}
}

func TestFullPrice(t *testing.T) {
	q, err := FullPrice(42.5)
	require.NoError(t, err)
	assert.False(t, q.HasDiscount())
	assert.Nil(t, q.DiscountRef())
	assert.Equal(t, 42.5, q.FinalPrice)
}

func TestValidateTerms(t *testing.T) {
	from, until := now, now.Add(time.Hour)

	assert.NoError(t, ValidateTerms(20, 15, from, until))
	assert.Error(t, ValidateTerms(120, 15, from, until))
	assert.Error(t, ValidateTerms(-1, 15, from, until))
	assert.Error(t, ValidateTerms(20, -1, from, until))
	assert.Error(t, ValidateTerms(20, 15, until, from))
	assert.Error(t, ValidateTerms(20, 15, time.Time{}, until))
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(8500), ToMinorUnits(85))
	assert.Equal(t, int64(1999), ToMinorUnits(19.99))
	assert.Equal(t, 19.99, FromMinorUnits(1999))
}
