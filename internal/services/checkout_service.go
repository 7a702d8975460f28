package services

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"time"

	"gorm.io/gorm"

	"uzpay-service/internal/cache"
	"uzpay-service/internal/gateways"
	"uzpay-service/internal/models"
	"uzpay-service/internal/payerr"
	"uzpay-service/internal/validators"
	"uzpay-service/pkg/common"
)

// CheckoutInput is the caller-facing checkout request, amount in UZS soums.
type CheckoutInput struct {
	Gateway          string  `json:"gateway"`
	OrderID          string  `json:"order_id" binding:"required"`
	Amount           float64 `json:"amount" binding:"required"`
	Description      string  `json:"description"`
	RedirectTo       string  `json:"redirect_to"`
	ReferenceDoctype string  `json:"reference_doctype"`
	ReferenceDocname string  `json:"reference_docname"`
}

// CheckoutService creates gateway checkout URLs and records a payment request
// for every checkout, so later callbacks have something to reconcile against.
type CheckoutService struct {
	DB          *gorm.DB
	Settings    *cache.SettingsCache
	Idempotency *IdempotencyService
	Registry    *gateways.Registry

	// Post is swapped out by tests to avoid calling real gateway APIs.
	Post gateways.PostFunc
}

func NewCheckoutService(db *gorm.DB, settings *cache.SettingsCache, idem *IdempotencyService, registry *gateways.Registry) *CheckoutService {
	return &CheckoutService{
		DB:          db,
		Settings:    settings,
		Idempotency: idem,
		Registry:    registry,
		Post:        common.Post,
	}
}

// GetPaymentURL validates the input, reuses an existing live payment request
// for the same (gateway, order) when one exists, and otherwise calls the
// gateway's checkout API and persists the result.
func (s *CheckoutService) GetPaymentURL(ctx context.Context, input CheckoutInput) (*models.PaymentRequest, error) {
	if err := validators.ValidateOrderID(input.OrderID); err != nil {
		return nil, err
	}
	if err := validators.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	adapter, ok := s.Registry.Get(input.Gateway)
	if !ok {
		return nil, payerr.Validation("unsupported gateway %q", input.Gateway)
	}

	existing, err := s.Idempotency.Lookup(input.Gateway, input.OrderID)
	if err != nil {
		return nil, payerr.Reconciliation("idempotency lookup: %v", err)
	}
	if existing != nil && existing.PaymentURL != "" {
		log.Printf("Reusing %s payment request %d for order %s", input.Gateway, existing.ID, input.OrderID)
		return existing, nil
	}

	settings, err := s.Settings.Get(ctx, input.Gateway)
	if err != nil {
		return nil, payerr.Gateway("gateway %s is not configured: %v", input.Gateway, err)
	}

	amountTiyin := int64(math.Round(input.Amount * 100))

	rec := models.PaymentRequest{
		Gateway:          input.Gateway,
		OrderID:          input.OrderID,
		AmountTiyin:      amountTiyin,
		Status:           models.StatusQueued,
		ReferenceDoctype: input.ReferenceDoctype,
		ReferenceDocname: input.ReferenceDocname,
	}
	if raw, err := json.Marshal(input); err == nil {
		rec.Data = string(raw)
	}
	if err := s.DB.Create(&rec).Error; err != nil {
		return nil, payerr.Reconciliation("create payment request: %v", err)
	}

	result, err := adapter.CreateCheckout(settings, gateways.CheckoutRequest{
		OrderID:          input.OrderID,
		AmountTiyin:      amountTiyin,
		Description:      input.Description,
		RedirectTo:       input.RedirectTo,
		ReferenceDoctype: input.ReferenceDoctype,
		ReferenceDocname: input.ReferenceDocname,
	}, s.Post)
	if err != nil {
		// Record stays Queued with no URL so a repeat request goes back to the
		// gateway instead of handing out a dead link.
		log.Printf("%s checkout creation failed for order %s: %v", input.Gateway, input.OrderID, err)
		return nil, payerr.Gateway("%s checkout creation failed: %v", input.Gateway, err)
	}

	rec.GatewayTransactionID = result.TransactionID
	rec.PaymentURL = result.PaymentURL
	if err := s.DB.Save(&rec).Error; err != nil {
		return nil, payerr.Reconciliation("persist payment URL: %v", err)
	}

	key := s.Idempotency.GenerateKey(input.Gateway, input.OrderID, time.Now())
	if err := s.Idempotency.StoreKey(rec.ID, key); err != nil {
		log.Printf("Failed to store idempotency key for payment request %d: %v", rec.ID, err)
	} else {
		rec.IdempotencyKey = key
	}

	return &rec, nil
}
