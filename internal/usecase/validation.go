package usecase

import (
	"time"
	"unicode"

	"github.com/celustore/payserver/internal/adapter/gateway"
	domainErrors "github.com/celustore/payserver/internal/domain/errors"
)

// ValidateCardNumber checks a PAN using the Luhn algorithm.
func ValidateCardNumber(number string) bool {
	if len(number) < 13 || len(number) > 19 {
		return false
	}

	var sum int
	var alt bool
	for i := len(number) - 1; i >= 0; i-- {
		r := rune(number[i])
		if !unicode.IsDigit(r) {
			return false
		}
		digit := int(r - '0')
		if alt {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		alt = !alt
	}

	return sum%10 == 0
}

// ValidateCard rejects malformed card input before any gateway call.
func ValidateCard(card gateway.CardDetails, now time.Time) error {
	if !ValidateCardNumber(card.PAN) {
		return domainErrors.ErrInvalidCard
	}
	if !validExpiry(card.Expiry, now) {
		return domainErrors.ErrInvalidCard
	}
	if !validCVV(card.CVV) {
		return domainErrors.ErrInvalidCard
	}
	return nil
}

// validExpiry accepts YYMM not earlier than the current month.
func validExpiry(expiry string, now time.Time) bool {
	if len(expiry) != 4 || !allDigits(expiry) {
		return false
	}
	year := 2000 + int(expiry[0]-'0')*10 + int(expiry[1]-'0')
	month := int(expiry[2]-'0')*10 + int(expiry[3]-'0')
	if month < 1 || month > 12 {
		return false
	}
	if year < now.Year() {
		return false
	}
	if year == now.Year() && time.Month(month) < now.Month() {
		return false
	}
	return true
}

func validCVV(cvv string) bool {
	return (len(cvv) == 3 || len(cvv) == 4) && allDigits(cvv)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
