// Package validators checks caller input on checkout creation.
package validators

import (
	"math"
	"regexp"

	"uzpay-service/internal/payerr"
)

const (
	// Amounts are in UZS soums at the API boundary.
	MinAmountUZS = 1000
	MaxAmountUZS = 100000000

	MaxOrderIDLength = 100
)

var orderIDPattern = regexp.MustCompile(`^[\w-]+$`)

// ValidateAmount enforces the UZS amount bounds and 2-decimal precision.
func ValidateAmount(amount float64) error {
	if amount <= 0 {
		return payerr.Validation("payment amount must be greater than 0")
	}
	if amount < MinAmountUZS {
		return payerr.Validation("payment amount must be at least %d UZS", MinAmountUZS)
	}
	if amount > MaxAmountUZS {
		return payerr.Validation("payment amount must not exceed %d UZS", MaxAmountUZS)
	}
	if math.Round(amount*100)/100 != amount {
		return payerr.Validation("payment amount must have at most 2 decimal places")
	}
	return nil
}

// ValidateOrderID enforces the order id format. Validation only, the value is
// never rewritten.
func ValidateOrderID(orderID string) error {
	if orderID == "" {
		return payerr.Validation("order ID is required")
	}
	if len(orderID) > MaxOrderIDLength {
		return payerr.Validation("order ID must be at most %d characters", MaxOrderIDLength)
	}
	if !orderIDPattern.MatchString(orderID) {
		return payerr.Validation("order ID contains invalid characters, only alphanumerics, hyphens and underscores are allowed")
	}
	return nil
}
