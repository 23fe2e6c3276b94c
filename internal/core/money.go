// Package core holds the domain model: money handling, input validation
// and the balance derivation rules.
//
// Monetary amounts are kept in integer cents; floats only appear at the
// currency-conversion boundary where the exchange rate lives.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts a decimal amount string to cents.
//
// Both dot (12.34) and comma (12,34) separators are accepted. A third
// decimal digit rounds half-up. Only positive amounts are valid.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	whole := parts[0]
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}
	if whole == "" {
		whole = "0"
	}
	for _, r := range whole + frac {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxWhole = (1<<63 - 1) / 100
	if iv > maxWhole {
		return 0, ErrInvalidAmount
	}

	var cents int64
	if len(frac) > 0 {
		cents = int64(frac[0]-'0') * 10
		if len(frac) > 1 {
			cents += int64(frac[1] - '0')
			if len(frac) > 2 && frac[2] >= '5' {
				cents++
			}
		}
	}
	cents += iv * 100
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// CentsFromFloat converts a float amount (e.g. a converted currency value)
// to cents with half-up rounding.
func CentsFromFloat(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Value returns the amount as a float64 for display and conversion.
// Calculations should stay in cents.
func (m Money) Value() float64 {
	return float64(m.Cents) / 100.0
}

// Format renders the amount with the conventional currency symbol,
// e.g. "S/.12.34" for PEN and "$12.34" for USD.
func (m Money) Format(c Currency) string {
	symbol := "S/."
	if c == USD {
		symbol = "$"
	}
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "." + pad2(cents%100)
	if neg {
		return "-" + symbol + s
	}
	return symbol + s
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

// FormatPercentage renders a percentage with one decimal, e.g. "20.0%".
func FormatPercentage(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}
