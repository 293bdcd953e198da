package utils

import (
	"strings"
)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func MaskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}

	localPart := parts[0]
	if len(localPart) <= 2 {
		return email
	}

	return string(localPart[0]) + strings.Repeat("*", len(localPart)-2) + string(localPart[len(localPart)-1]) + "@" + parts[1]
}
