package services

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"uzpay-service/internal/models"
)

// MonitorService watches for payment requests stuck in Queued, which usually
// means the gateway never delivered a callback and the retry chain was never
// started.
type MonitorService struct {
	DB *gorm.DB

	// StaleAfter is how long a Queued request may sit before it is reported.
	StaleAfter time.Duration
}

func NewMonitorService(db *gorm.DB) *MonitorService {
	return &MonitorService{DB: db, StaleAfter: time.Hour}
}

// ReportStaleRequests logs Queued payment requests older than StaleAfter.
func (s *MonitorService) ReportStaleRequests() error {
	cutoff := time.Now().Add(-s.StaleAfter)

	var stale []models.PaymentRequest
	err := s.DB.
		Where("status = ? AND created_at < ?", models.StatusQueued, cutoff).
		Order("created_at ASC").
		Limit(100).
		Find(&stale).Error
	if err != nil {
		return err
	}

	for _, rec := range stale {
		log.Printf("Stale payment request %d: %s order %s queued since %s",
			rec.ID, rec.Gateway, rec.OrderID, rec.CreatedAt.Format(time.RFC3339))
	}
	if len(stale) > 0 {
		log.Printf("Found %d stale payment requests", len(stale))
	}
	return nil
}

// StartScheduler initializes the cron job for MonitorService
func (s *MonitorService) StartScheduler() {
	c := cron.New()
	// Run every 10 minutes: "*/10 * * * *"
	_, err := c.AddFunc("*/10 * * * *", func() {
		log.Println("Running scheduled stale payment check...")
		if err := s.ReportStaleRequests(); err != nil {
			log.Printf("Error in ReportStaleRequests: %v", err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling stale payment check: %v", err)
		return
	}
	c.Start()
	log.Println("MonitorService Scheduler started (Every 10 minutes)")
}
