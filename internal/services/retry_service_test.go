package services

import (
	"encoding/json"
	"testing"
	"time"

	"uzpay-service/internal/models"
)

func TestScheduleUsesGrowingDelays(t *testing.T) {
	enq := &fakeEnqueuer{}
	s := NewRetryScheduler(enq, nil, nil)

	s.Schedule(42, models.GatewayPayme, 0)
	s.Schedule(42, models.GatewayPayme, 1)
	s.Schedule(42, models.GatewayPayme, 2)

	if len(enq.tasks) != 3 {
		t.Fatalf("Expected 3 enqueued tasks, got %d", len(enq.tasks))
	}

	wantDelays := []time.Duration{60 * time.Second, 300 * time.Second, 900 * time.Second}
	for i, task := range enq.tasks {
		if task.delay != wantDelays[i] {
			t.Errorf("Attempt %d: expected delay %s, got %s", i, wantDelays[i], task.delay)
		}
		if task.task.Type() != TypeWebhookRetry {
			t.Errorf("Attempt %d: expected task type %q, got %q", i, TypeWebhookRetry, task.task.Type())
		}

		var payload RetryPayload
		if err := json.Unmarshal(task.task.Payload(), &payload); err != nil {
			t.Fatalf("Attempt %d: bad payload: %v", i, err)
		}
		if payload.PaymentRequestID != 42 {
			t.Errorf("Attempt %d: expected record 42, got %d", i, payload.PaymentRequestID)
		}
		if payload.Attempt != i {
			t.Errorf("Expected attempt %d in payload, got %d", i, payload.Attempt)
		}
	}
}

func TestScheduleDropsPastRetryLimit(t *testing.T) {
	enq := &fakeEnqueuer{}
	s := NewRetryScheduler(enq, nil, nil)

	s.Schedule(42, models.GatewayClick, MaxRetries)
	s.Schedule(42, models.GatewayClick, MaxRetries+5)

	if len(enq.tasks) != 0 {
		t.Errorf("Expected no tasks past the retry limit, got %d", len(enq.tasks))
	}
}

func TestScheduleRecordsRetryExhaustion(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	enq := &fakeEnqueuer{}
	s := NewRetryScheduler(enq, testDB, nil)

	failed := models.PaymentRequest{Gateway: models.GatewayClick, OrderID: "ORD-2001", Status: models.StatusFailed}
	completed := models.PaymentRequest{Gateway: models.GatewayClick, OrderID: "ORD-2002", Status: models.StatusCompleted}
	seedRequest(t, &failed)
	seedRequest(t, &completed)

	s.Schedule(failed.ID, models.GatewayClick, MaxRetries)
	s.Schedule(completed.ID, models.GatewayClick, MaxRetries)

	if got := reload(t, failed.ID); got.ErrorNote != "retry limit exceeded" {
		t.Errorf("Expected exhaustion note on failed record, got %q", got.ErrorNote)
	}
	if got := reload(t, completed.ID); got.ErrorNote != "" {
		t.Errorf("Completed record must not get an exhaustion note, got %q", got.ErrorNote)
	}
}
