package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderReceiptWithDiscount(t *testing.T) {
	html, err := RenderReceipt(&ReceiptData{
		UserName:       "Ada <Lovelace>",
		CourseTitle:    "Go Basics",
		PaymentDate:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		TransactionID:  "pi_1",
		OriginalPrice:  100,
		DiscountAmount: 15,
		TotalPaid:      85,
		Currency:       "usd",
	})
	require.NoError(t, err)

	assert.Contains(t, html, "Ada &lt;Lovelace&gt;")
	assert.Contains(t, html, "March 1, 2026")
	assert.Contains(t, html, "Original Price")
	assert.Contains(t, html, "-$15.00")
	assert.Contains(t, html, "$85.00")
	assert.Contains(t, html, "The OurSkillLab Team")
	assert.Contains(t, html, "&copy; 2026")
}

func TestRenderReceiptWithoutDiscount(t *testing.T) {
	html, err := RenderReceipt(&ReceiptData{
		UserName:      "Ada",
		CourseTitle:   "Go Basics",
		PaymentDate:   time.Now(),
		TransactionID: "pi_1",
		OriginalPrice: 100,
		TotalPaid:     100,
		Currency:      "usd",
	})
	require.NoError(t, err)

	assert.NotContains(t, html, "Discount Applied")
	assert.Contains(t, html, "$100.00")
}
