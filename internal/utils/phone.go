package utils

import (
	"regexp"
	"strings"
)

var (
	phoneRegex      = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	phoneStripRegex = regexp.MustCompile(`[^\d+]`)
)

func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(phoneStripRegex.ReplaceAllString(phone, ""))
}

// NormalizePhone removes formatting characters so "+1 (555) 123-4567" and
// "+15551234567" map to the same OTP identifier.
func NormalizePhone(phone string) string {
	normalized := phoneStripRegex.ReplaceAllString(strings.TrimSpace(phone), "")
	if normalized != "" && !strings.HasPrefix(normalized, "+") {
		normalized = "+" + normalized
	}
	return normalized
}

func MaskPhone(phone string) string {
	if len(phone) < 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
