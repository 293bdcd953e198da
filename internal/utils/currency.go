package utils

import (
	"fmt"
	"math"
	"strings"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"INR": "₹",
	"CAD": "C$",
	"AUD": "A$",
}

func FormatCurrency(amount float64, currencyCode string) string {
	symbol, ok := currencySymbols[strings.ToUpper(currencyCode)]
	if !ok {
		symbol = "$"
	}
	return fmt.Sprintf("%s%.2f", symbol, RoundCurrency(amount))
}

func RoundCurrency(amount float64) float64 {
	return math.Round(amount*100) / 100
}
