package models

import (
	"time"
)

// GatewaySettings holds per-gateway merchant credentials. One row per
// gateway; reads go through the settings cache (1h TTL), which round-trips
// the row through JSON, so SecretKey must serialize. Settings rows are never
// written to API responses.
type GatewaySettings struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Gateway    string    `gorm:"column:gateway;size:50;not null;uniqueIndex" json:"gateway"`
	MerchantID string    `gorm:"column:merchant_id;size:255" json:"merchant_id"`
	ServiceID  string    `gorm:"column:service_id;size:255" json:"service_id"`   // Click only
	TerminalID string    `gorm:"column:terminal_id;size:255" json:"terminal_id"` // FreedomPay only
	SecretKey  string    `gorm:"column:secret_key;size:255" json:"secret_key"`
	BaseURL    string    `gorm:"column:base_url;size:512" json:"base_url"`
	Active     bool      `gorm:"column:active;default:true" json:"active"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (GatewaySettings) TableName() string {
	return "gateway_settings"
}
