package services

import (
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"uzpay-service/internal/metrics"
	"uzpay-service/internal/models"
)

// Task type consumed by cmd/worker.
const TypeWebhookRetry = "webhook:retry"

// Retry policy: three reconciliation replays at growing delays, then the
// record is left Failed for manual intervention.
const MaxRetries = 3

var RetryDelays = []time.Duration{60 * time.Second, 300 * time.Second, 900 * time.Second}

// RetryPayload is the asynq task payload. Attempt is the index into
// RetryDelays and only ever advances when the failure path schedules
// attempt+1, which keeps the counter monotonic.
type RetryPayload struct {
	PaymentRequestID uint `json:"payment_request_id"`
	Attempt          int  `json:"attempt"`
}

// Enqueuer is the slice of asynq.Client the scheduler needs.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// RetryScheduler enqueues delayed reconciliation replays. Scheduling is
// fire-and-forget: failures to enqueue are logged, never propagated into the
// callback path.
type RetryScheduler struct {
	Client  Enqueuer
	DB      *gorm.DB
	Metrics *metrics.Metrics
}

func NewRetryScheduler(client Enqueuer, db *gorm.DB, m *metrics.Metrics) *RetryScheduler {
	return &RetryScheduler{Client: client, DB: db, Metrics: m}
}

// Schedule enqueues a replay of the reconciliation for the record at the
// given attempt. Attempts past MaxRetries are dropped with a terminal
// diagnostic on the record.
func (s *RetryScheduler) Schedule(recordID uint, gateway string, attempt int) {
	if attempt >= MaxRetries {
		log.Printf("Webhook retry limit exceeded for payment request %d (%s)", recordID, gateway)
		if s.DB != nil {
			err := s.DB.Model(&models.PaymentRequest{}).
				Where("id = ? AND status <> ?", recordID, models.StatusCompleted).
				Update("error_note", "retry limit exceeded").Error
			if err != nil {
				log.Printf("Failed to record retry exhaustion for payment request %d: %v", recordID, err)
			}
		}
		return
	}

	payload, err := json.Marshal(RetryPayload{PaymentRequestID: recordID, Attempt: attempt})
	if err != nil {
		log.Printf("Failed to marshal retry payload for payment request %d: %v", recordID, err)
		return
	}

	delay := RetryDelays[attempt]
	task := asynq.NewTask(TypeWebhookRetry, payload)
	// asynq's own redelivery is disabled; the attempt counter in the payload
	// is the single retry discipline.
	_, err = s.Client.Enqueue(task, asynq.ProcessIn(delay), asynq.MaxRetry(0), asynq.Queue("default"))
	if err != nil {
		log.Printf("Failed to enqueue webhook retry for payment request %d: %v", recordID, err)
		return
	}

	if s.Metrics != nil {
		s.Metrics.RetriesTotal.WithLabelValues(gateway).Inc()
	}
	log.Printf("Scheduled webhook retry for payment request %d (%s) attempt %d in %s", recordID, gateway, attempt, delay)
}
