package validators

import (
	"errors"
	"testing"

	"uzpay-service/internal/payerr"
)

func TestValidateAmount(t *testing.T) {
	cases := []struct {
		name   string
		amount float64
		valid  bool
	}{
		{"zero", 0, false},
		{"negative", -500, false},
		{"below minimum", 999, false},
		{"at minimum", 1000, true},
		{"at maximum", 100000000, true},
		{"above maximum", 100000000.01, false},
		{"three decimals", 10.005, false},
		{"two decimals", 1500.25, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ValidateAmount(c.amount)
			if c.valid && err != nil {
				t.Errorf("expected %v to be valid, got %v", c.amount, err)
			}
			if !c.valid {
				if err == nil {
					t.Errorf("expected %v to be rejected", c.amount)
				} else if !errors.Is(err, payerr.ErrValidation) {
					t.Errorf("expected validation error, got %v", err)
				}
			}
		})
	}
}

func TestValidateOrderID(t *testing.T) {
	long := make([]byte, 101)
	for i := range long {
		long[i] = 'A'
	}

	cases := []struct {
		name    string
		orderID string
		valid   bool
	}{
		{"empty", "", false},
		{"simple", "ORDER-123", true},
		{"underscore", "order_42", true},
		{"too long", string(long), false},
		{"spaces", "ORDER 123", false},
		{"sql characters", "ORDER';--", false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ValidateOrderID(c.orderID)
			if c.valid && err != nil {
				t.Errorf("expected %q to be valid, got %v", c.orderID, err)
			}
			if !c.valid && err == nil {
				t.Errorf("expected %q to be rejected", c.orderID)
			}
		})
	}
}
