package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	urlRegex   = regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)
	htmlRegex  = regexp.MustCompile(`<[^>]*>`)
)

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func IsValidName(name string) bool {
	if len(strings.TrimSpace(name)) < 2 {
		return false
	}

	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) && r != '-' && r != '\'' && r != '.' {
			return false
		}
	}
	return true
}

func IsValidURL(url string) bool {
	return urlRegex.MatchString(url)
}

// SanitizeString strips HTML tags and surrounding whitespace.
func SanitizeString(input string) string {
	return strings.TrimSpace(htmlRegex.ReplaceAllString(input, ""))
}

func IsNumericCode(code string, length int) bool {
	if len(code) != length {
		return false
	}
	for _, char := range code {
		if char < '0' || char > '9' {
			return false
		}
	}
	return true
}
