// Package payment stands in for a real gateway: realistic card validation
// plus a staged processing simulation with a randomized outcome.
package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/blackgym/storefront/internal/models"
)

type Brand string

const (
	BrandVisa       Brand = "visa"
	BrandMastercard Brand = "mastercard"
	BrandAmex       Brand = "amex"
	BrandUnknown    Brand = "unknown"
)

func normalizeNumber(number string) string {
	return strings.ReplaceAll(number, " ", "")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

// luhnValid doubles every second digit from the right, subtracting 9 when
// the result exceeds 9; the number is valid iff the digit sum is 0 mod 10.
func luhnValid(digits string) bool {
	var sum int

	double := false

	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')

		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}

		sum += d
		double = !double
	}

	return sum%10 == 0
}

// ValidateNumber accepts 13 to 19 digits (spaces ignored) passing the Luhn
// checksum.
func ValidateNumber(number string) bool {
	n := normalizeNumber(number)

	if !isDigits(n) || len(n) < 13 || len(n) > 19 {
		return false
	}

	return luhnValid(n)
}

func ValidateHolder(name string) bool {
	trimmed := strings.TrimSpace(name)

	if len(trimmed) < 3 {
		return false
	}

	for _, r := range trimmed {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !isLetter && r != ' ' {
			return false
		}
	}

	return true
}

// ValidateExpiry rejects month/year combinations strictly in the past
// relative to now; the current month is still valid.
func ValidateExpiry(now time.Time, month, year int) bool {
	if month < 1 || month > 12 || year == 0 {
		return false
	}

	if year < now.Year() {
		return false
	}

	return year != now.Year() || month >= int(now.Month())
}

func ValidateCVV(cvv string) bool {
	return isDigits(cvv) && len(cvv) >= 3 && len(cvv) <= 4
}

// DetectBrand classifies by number prefix: 4 is Visa, 51-55 Mastercard,
// 34/37 Amex. Cosmetic only, never gates submission.
func DetectBrand(number string) Brand {
	n := normalizeNumber(number)

	switch {
	case strings.HasPrefix(n, "4"):
		return BrandVisa
	case len(n) >= 2 && n[0] == '5' && n[1] >= '1' && n[1] <= '5':
		return BrandMastercard
	case strings.HasPrefix(n, "34"), strings.HasPrefix(n, "37"):
		return BrandAmex
	default:
		return BrandUnknown
	}
}

// FormatNumber groups digits in blocks of four for display.
func FormatNumber(number string) string {
	n := normalizeNumber(number)

	var parts []string

	for i := 0; i < len(n); i += 4 {
		end := i + 4
		if end > len(n) {
			end = len(n)
		}

		parts = append(parts, n[i:end])
	}

	return strings.Join(parts, " ")
}

// MaskNumber keeps only the last four digits for post-capture display.
func MaskNumber(number string) string {
	n := normalizeNumber(number)

	if len(n) < 4 {
		return n
	}

	return "**** **** **** " + n[len(n)-4:]
}

// ValidateCard runs every capture check and returns a field-keyed error map,
// empty when the card may proceed to processing.
func ValidateCard(now time.Time, card models.CardDetails) map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(card.Number) == "" {
		errs["cardNumber"] = "Card number is required"
	} else if !ValidateNumber(card.Number) {
		errs["cardNumber"] = "Invalid card number"
	}

	if strings.TrimSpace(card.Holder) == "" {
		errs["cardHolder"] = "Card holder name is required"
	} else if !ValidateHolder(card.Holder) {
		errs["cardHolder"] = "Card holder name is too short"
	}

	if card.ExpiryMonth == 0 {
		errs["expiryMonth"] = "Month is required"
	}

	if card.ExpiryYear == 0 {
		errs["expiryYear"] = "Year is required"
	} else if card.ExpiryMonth != 0 && !ValidateExpiry(now, card.ExpiryMonth, card.ExpiryYear) {
		errs["expiryYear"] = "Card is expired"
	}

	if strings.TrimSpace(card.CVV) == "" {
		errs["cvv"] = "CVV is required"
	} else if !ValidateCVV(card.CVV) {
		errs["cvv"] = fmt.Sprintf("CVV must be 3 or 4 digits, got %d", len(card.CVV))
	}

	return errs
}
