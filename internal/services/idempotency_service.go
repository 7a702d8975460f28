package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"uzpay-service/internal/models"
)

// IdempotencyService prevents duplicate checkout-URL generation for the same
// (gateway, order_id). Real uniqueness comes from the lookup-before-create
// check on the indexed columns; the key itself is a best-effort token.
type IdempotencyService struct {
	DB *gorm.DB
}

func NewIdempotencyService(db *gorm.DB) *IdempotencyService {
	return &IdempotencyService{DB: db}
}

// Lookup returns the most recent Queued or Completed payment request for the
// key, or nil when there is none.
func (s *IdempotencyService) Lookup(gateway, orderID string) (*models.PaymentRequest, error) {
	if orderID == "" {
		return nil, nil
	}

	var rec models.PaymentRequest
	err := s.DB.
		Where("gateway = ? AND order_id = ? AND status IN ?", gateway, orderID,
			[]string{models.StatusQueued, models.StatusCompleted}).
		Order("created_at DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GenerateKey builds the idempotency token. Second resolution means two
// requests inside the same second can collide; that is acceptable because
// Lookup, not the key, is what enforces uniqueness.
func (s *IdempotencyService) GenerateKey(gateway, orderID string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s", gateway, orderID, now.Format("20060102150405"))
}

// StoreKey associates the key with the record, write-once.
func (s *IdempotencyService) StoreKey(recordID uint, key string) error {
	return s.DB.Model(&models.PaymentRequest{}).
		Where("id = ? AND (idempotency_key IS NULL OR idempotency_key = '')", recordID).
		Update("idempotency_key", key).Error
}
