package models

import (
	"time"
)

// Payment request statuses. Completed is terminal; Failed may still move to
// Completed through a reconciliation retry.
const (
	StatusQueued    = "Queued"
	StatusCompleted = "Completed"
	StatusFailed    = "Failed"
)

// Supported gateways.
const (
	GatewayPayme      = "Payme"
	GatewayClick      = "Click"
	GatewayFreedomPay = "FreedomPay"
)

// PaymentRequest is one checkout attempt against a gateway. order_id and
// gateway_transaction_id are indexed columns so callbacks resolve records by
// equality instead of scanning the serialized payload.
type PaymentRequest struct {
	ID                   uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Gateway              string    `gorm:"column:gateway;size:50;not null;index:idx_pr_gateway_order" json:"gateway"`
	OrderID              string    `gorm:"column:order_id;size:100;not null;index:idx_pr_gateway_order" json:"order_id"`
	GatewayTransactionID string    `gorm:"column:gateway_transaction_id;size:255;index" json:"gateway_transaction_id"`
	AmountTiyin          int64     `gorm:"column:amount_tiyin;not null" json:"amount_tiyin"`
	PaymentURL           string    `gorm:"column:payment_url;size:1024" json:"payment_url"`
	Status               string    `gorm:"column:status;size:20;not null;default:Queued;index" json:"status"`
	IdempotencyKey       string    `gorm:"column:idempotency_key;size:255" json:"idempotency_key"`
	ErrorNote            string    `gorm:"column:error_note;type:text" json:"error_note"`
	ReferenceDoctype     string    `gorm:"column:reference_doctype;size:255" json:"reference_doctype"`
	ReferenceDocname     string    `gorm:"column:reference_docname;size:255" json:"reference_docname"`
	Data                 string    `gorm:"column:data;type:longtext" json:"data"` // merged request/callback payload, audit only
	RetryCount           int       `gorm:"column:retry_count;default:0" json:"retry_count"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (PaymentRequest) TableName() string {
	return "payment_requests"
}
