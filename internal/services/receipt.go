package services

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"ourskilllab/internal/utils"
)

// ReceiptData is everything the receipt template shows.
type ReceiptData struct {
	UserName       string
	CourseTitle    string
	PaymentDate    time.Time
	TransactionID  string
	OriginalPrice  float64
	DiscountAmount float64
	TotalPaid      float64
	Currency       string
	AppName        string
}

var receiptTemplate = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"money": utils.FormatCurrency,
	"date":  func(t time.Time) string { return t.Format("January 2, 2006") },
	"year":  func(t time.Time) int { return t.Year() },
}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Receipt for {{.CourseTitle}}</title></head>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #2563eb;">{{.AppName}}</h1>
  <h2>Payment Receipt</h2>
  <p>Dear {{.UserName}},</p>
  <p>Thank you for your purchase. Here are the details of your transaction:</p>
  <table style="width: 100%; border-collapse: collapse;">
    <tr><td style="padding: 8px; border-bottom: 1px solid #eee;"><strong>Item</strong></td><td style="padding: 8px; border-bottom: 1px solid #eee;">{{.CourseTitle}}</td></tr>
    <tr><td style="padding: 8px; border-bottom: 1px solid #eee;"><strong>Date</strong></td><td style="padding: 8px; border-bottom: 1px solid #eee;">{{date .PaymentDate}}</td></tr>
    <tr><td style="padding: 8px; border-bottom: 1px solid #eee;"><strong>Transaction ID</strong></td><td style="padding: 8px; border-bottom: 1px solid #eee;">{{.TransactionID}}</td></tr>
    {{- if gt .DiscountAmount 0.0}}
    <tr><td style="padding: 8px; border-bottom: 1px solid #eee;"><strong>Original Price</strong></td><td style="padding: 8px; border-bottom: 1px solid #eee;">{{money .OriginalPrice .Currency}}</td></tr>
    <tr><td style="padding: 8px; border-bottom: 1px solid #eee;"><strong>Discount Applied</strong></td><td style="padding: 8px; border-bottom: 1px solid #eee;">-{{money .DiscountAmount .Currency}}</td></tr>
    {{- end}}
    <tr><td style="padding: 8px;"><strong>Total Paid</strong></td><td style="padding: 8px;"><strong>{{money .TotalPaid .Currency}}</strong></td></tr>
  </table>
  <p>You can now access your course from your dashboard.</p>
  <p>Best regards,<br>The {{.AppName}} Team</p>
  <p style="font-size: 12px; color: #999;">&copy; {{year .PaymentDate}} {{.AppName}}. All rights reserved.</p>
</body>
</html>
`))

func RenderReceipt(data *ReceiptData) (string, error) {
	if data.AppName == "" {
		data.AppName = "OurSkillLab"
	}
	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render receipt: %w", err)
	}
	return buf.String(), nil
}

func receiptText(data *ReceiptData) string {
	text := fmt.Sprintf("Dear %s,\n\nThank you for your purchase.\n\nItem: %s\nDate: %s\nTransaction ID: %s\n",
		data.UserName, data.CourseTitle, data.PaymentDate.Format("January 2, 2006"), data.TransactionID)
	if data.DiscountAmount > 0 {
		text += fmt.Sprintf("Original Price: %s\nDiscount Applied: -%s\n",
			utils.FormatCurrency(data.OriginalPrice, data.Currency),
			utils.FormatCurrency(data.DiscountAmount, data.Currency))
	}
	text += fmt.Sprintf("Total Paid: %s\n\nBest regards,\nThe %s Team\n",
		utils.FormatCurrency(data.TotalPaid, data.Currency), data.AppName)
	return text
}
