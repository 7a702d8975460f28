package models

import (
	"time"
)

// CallbackLog records every admitted callback and retry outcome for auditing.
type CallbackLog struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Gateway       string    `gorm:"column:gateway;size:50;not null" json:"gateway"`
	Request       string    `gorm:"column:request;type:longtext" json:"request"`
	Response      string    `gorm:"column:response;type:longtext" json:"response"`
	Status        int       `gorm:"column:status;default:0" json:"status"` // 0: failed, 1: success
	RequestType   string    `gorm:"column:request_type;size:255" json:"request_type"`
	TransactionID string    `gorm:"column:transaction_id;size:255" json:"transaction_id"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (CallbackLog) TableName() string {
	return "callback_logs"
}
