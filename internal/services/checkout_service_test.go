package services

import (
	"context"
	"errors"
	"testing"

	"uzpay-service/internal/cache"
	"uzpay-service/internal/gateways"
	"uzpay-service/internal/models"
	"uzpay-service/internal/payerr"
)

func newTestCheckout(adapter gateways.Adapter) *CheckoutService {
	svc := NewCheckoutService(
		testDB,
		cache.NewSettingsCache(testDB, nil),
		NewIdempotencyService(testDB),
		gateways.NewRegistry(adapter),
	)
	svc.Post = func(url string, payload interface{}, headers map[string]string) (interface{}, error) {
		return nil, errors.New("no network in tests")
	}
	return svc
}

func TestGetPaymentURLCreatesRecord(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	adapter := &stubAdapter{
		name:           models.GatewayPayme,
		checkoutResult: gateways.CheckoutResult{TransactionID: "PMT-100", PaymentURL: "https://checkout.example/PMT-100"},
	}
	svc := newTestCheckout(adapter)
	seedSettings(t, models.GatewayPayme)

	rec, err := svc.GetPaymentURL(context.Background(), CheckoutInput{
		Gateway:          models.GatewayPayme,
		OrderID:          "ORD-3001",
		Amount:           1500.50,
		ReferenceDoctype: "Sales Order",
		ReferenceDocname: "SO-3001",
	})
	if err != nil {
		t.Fatalf("GetPaymentURL failed: %v", err)
	}

	if rec.PaymentURL != "https://checkout.example/PMT-100" {
		t.Errorf("Unexpected payment URL %q", rec.PaymentURL)
	}
	if rec.GatewayTransactionID != "PMT-100" {
		t.Errorf("Unexpected transaction id %q", rec.GatewayTransactionID)
	}
	if rec.AmountTiyin != 150050 {
		t.Errorf("Expected 150050 tiyin for 1500.50 UZS, got %d", rec.AmountTiyin)
	}
	if rec.Status != models.StatusQueued {
		t.Errorf("Expected status Queued, got %s", rec.Status)
	}
	if rec.IdempotencyKey == "" {
		t.Errorf("Expected idempotency key to be set")
	}
}

func TestGetPaymentURLReusesExistingRequest(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	adapter := &stubAdapter{
		name:           models.GatewayClick,
		checkoutResult: gateways.CheckoutResult{TransactionID: "CLK-100", PaymentURL: "https://my.click.uz/pay/CLK-100"},
	}
	svc := newTestCheckout(adapter)
	seedSettings(t, models.GatewayClick)

	input := CheckoutInput{Gateway: models.GatewayClick, OrderID: "ORD-3002", Amount: 5000}

	first, err := svc.GetPaymentURL(context.Background(), input)
	if err != nil {
		t.Fatalf("First GetPaymentURL failed: %v", err)
	}
	second, err := svc.GetPaymentURL(context.Background(), input)
	if err != nil {
		t.Fatalf("Second GetPaymentURL failed: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("Expected the same record, got %d and %d", first.ID, second.ID)
	}
	if adapter.checkoutCalls != 1 {
		t.Errorf("Expected 1 gateway call, got %d", adapter.checkoutCalls)
	}
}

func TestGetPaymentURLRetriesAfterGatewayFailure(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	adapter := &stubAdapter{
		name:        models.GatewayFreedomPay,
		checkoutErr: errors.New("gateway timeout"),
	}
	svc := newTestCheckout(adapter)
	seedSettings(t, models.GatewayFreedomPay)

	input := CheckoutInput{Gateway: models.GatewayFreedomPay, OrderID: "ORD-3003", Amount: 2500}

	_, err := svc.GetPaymentURL(context.Background(), input)
	if !errors.Is(err, payerr.ErrGateway) {
		t.Fatalf("Expected gateway error, got %v", err)
	}

	// A record without a URL must not satisfy idempotency; the next request
	// goes back to the gateway instead of returning a dead link.
	adapter.checkoutErr = nil
	adapter.checkoutResult = gateways.CheckoutResult{TransactionID: "FP-100", PaymentURL: "https://fp.example/FP-100"}

	rec, err := svc.GetPaymentURL(context.Background(), input)
	if err != nil {
		t.Fatalf("Retry GetPaymentURL failed: %v", err)
	}
	if rec.PaymentURL == "" {
		t.Errorf("Expected a payment URL on retry")
	}
	if adapter.checkoutCalls != 2 {
		t.Errorf("Expected 2 gateway calls, got %d", adapter.checkoutCalls)
	}
}

func TestGetPaymentURLValidatesInput(t *testing.T) {
	adapter := &stubAdapter{name: models.GatewayPayme}
	svc := newTestCheckout(adapter)

	cases := []struct {
		name  string
		input CheckoutInput
	}{
		{"below minimum amount", CheckoutInput{Gateway: models.GatewayPayme, OrderID: "ORD-1", Amount: 999}},
		{"zero amount", CheckoutInput{Gateway: models.GatewayPayme, OrderID: "ORD-1", Amount: 0}},
		{"too many decimals", CheckoutInput{Gateway: models.GatewayPayme, OrderID: "ORD-1", Amount: 1000.005}},
		{"empty order id", CheckoutInput{Gateway: models.GatewayPayme, OrderID: "", Amount: 5000}},
		{"order id with spaces", CheckoutInput{Gateway: models.GatewayPayme, OrderID: "ORD 1", Amount: 5000}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.GetPaymentURL(context.Background(), tc.input)
			if !errors.Is(err, payerr.ErrValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}

	_, err := svc.GetPaymentURL(context.Background(), CheckoutInput{Gateway: "PayPal", OrderID: "ORD-1", Amount: 5000})
	if !errors.Is(err, payerr.ErrValidation) {
		t.Errorf("Expected validation error for unsupported gateway, got %v", err)
	}
	if adapter.checkoutCalls != 0 {
		t.Errorf("Validation failures must not reach the gateway")
	}
}
