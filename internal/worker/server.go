package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"uzpay-service/internal/services"
)

type Worker struct {
	Reconciler *services.Reconciler
}

func NewWorker(reconciler *services.Reconciler) *Worker {
	return &Worker{
		Reconciler: reconciler,
	}
}

// HandleWebhookRetry replays the reconciliation for one payment request. The
// attempt counter travels in the payload; asynq's own retry is disabled when
// the task is enqueued.
func (w *Worker) HandleWebhookRetry(ctx context.Context, t *asynq.Task) error {
	var p services.RetryPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	if err := w.Reconciler.Replay(ctx, p.PaymentRequestID, p.Attempt); err != nil {
		// The reconciler already rescheduled (or dropped at the limit);
		// surfacing the error to asynq would double the retry discipline.
		log.Printf("Webhook retry for payment request %d attempt %d: %v", p.PaymentRequestID, p.Attempt, err)
	}
	return nil
}

func StartWorker(redisOpt asynq.RedisClientOpt, reconciler *services.Reconciler) {
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			// Specify how many concurrent workers to use
			Concurrency: 10,
			// Optionally specify multiple queues with different priority.
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	worker := NewWorker(reconciler)
	mux := asynq.NewServeMux()

	mux.HandleFunc(services.TypeWebhookRetry, worker.HandleWebhookRetry)

	if err := srv.Run(mux); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}
