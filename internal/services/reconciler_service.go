package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"uzpay-service/internal/cache"
	"uzpay-service/internal/gateways"
	"uzpay-service/internal/lock"
	"uzpay-service/internal/metrics"
	"uzpay-service/internal/models"
	"uzpay-service/internal/payerr"
	"uzpay-service/pkg/common"
)

// Reconciler matches verified callbacks to payment requests and applies the
// status transition exactly once. All record mutation happens inside the
// per-order lock; Completed is absorbing, Failed may be replayed by the
// retry worker until the retry limit.
type Reconciler struct {
	DB       *gorm.DB
	Registry *gateways.Registry
	Locker   lock.Locker
	Settings *cache.SettingsCache
	Retries  *RetryScheduler
	Notifier HostNotifier
	Metrics  *metrics.Metrics

	LockLease time.Duration
}

func NewReconciler(
	db *gorm.DB,
	registry *gateways.Registry,
	locker lock.Locker,
	settings *cache.SettingsCache,
	retries *RetryScheduler,
	notifier HostNotifier,
	m *metrics.Metrics,
) *Reconciler {
	return &Reconciler{
		DB:        db,
		Registry:  registry,
		Locker:    locker,
		Settings:  settings,
		Retries:   retries,
		Notifier:  notifier,
		Metrics:   m,
		LockLease: lock.DefaultLease,
	}
}

// HandleCallback runs the full pipeline for one live callback: signature
// verification, lock, record resolution, classification, transition. The
// returned ack is the gateway-specific envelope to send back regardless of
// the error.
func (r *Reconciler) HandleCallback(ctx context.Context, adapter gateways.Adapter, cb gateways.Callback) (map[string]interface{}, error) {
	start := time.Now()

	settings, err := r.Settings.Get(ctx, adapter.Name())
	if err != nil {
		log.Printf("%s callback: failed to load gateway settings: %v", adapter.Name(), err)
		return adapter.AckError("gateway not configured"), payerr.Reconciliation("load %s settings: %v", adapter.Name(), err)
	}

	if cb.Signature == "" {
		if r.Metrics != nil {
			r.Metrics.AuthFailures.WithLabelValues(adapter.Name()).Inc()
		}
		return adapter.AckError("missing signature"), payerr.Auth("missing signature in %s callback", adapter.Name())
	}
	if !adapter.VerifySignature(settings, cb) {
		if r.Metrics != nil {
			r.Metrics.AuthFailures.WithLabelValues(adapter.Name()).Inc()
		}
		return adapter.AckError("invalid signature"), payerr.Auth("invalid signature in %s callback", adapter.Name())
	}

	orderID := adapter.OrderID(cb.Fields)
	trxID := adapter.TransactionID(cb.Fields)

	release, ok, err := r.Locker.Acquire(ctx, lockKey(adapter.Name(), orderID, trxID), r.LockLease)
	if err != nil {
		return adapter.AckError("lock unavailable"), payerr.Reconciliation("acquire order lock: %v", err)
	}
	if !ok {
		return adapter.AckError("payment is already being processed"), payerr.ErrBusy
	}
	defer release()

	ack, err := r.reconcile(adapter, cb.Fields, 0)
	r.logCallback(adapter.Name(), trxID, "Callback", cb.Fields, ack, err == nil)
	r.observe(adapter.Name(), start)
	return ack, err
}

// Replay re-runs reconciliation for a record from its last persisted payload.
// Called by the retry worker; attempt is the index this replay was scheduled
// at, so a renewed failure schedules attempt+1.
func (r *Reconciler) Replay(ctx context.Context, recordID uint, attempt int) error {
	start := time.Now()

	var rec models.PaymentRequest
	if err := r.DB.First(&rec, recordID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Webhook retry: payment request %d no longer exists, dropping", recordID)
			return nil
		}
		r.Retries.Schedule(recordID, "", attempt+1)
		return payerr.Reconciliation("load payment request %d: %v", recordID, err)
	}

	if rec.Status == models.StatusCompleted {
		return nil
	}

	adapter, ok := r.Registry.Get(rec.Gateway)
	if !ok {
		log.Printf("Webhook retry: unknown gateway %q for payment request %d", rec.Gateway, recordID)
		return nil
	}

	fields := r.persistedFields(&rec)

	release, ok, err := r.Locker.Acquire(ctx, lockKey(rec.Gateway, rec.OrderID, rec.GatewayTransactionID), r.LockLease)
	if err != nil {
		r.Retries.Schedule(rec.ID, rec.Gateway, attempt+1)
		return payerr.Reconciliation("acquire order lock: %v", err)
	}
	if !ok {
		// A live callback holds the lock and owns completion.
		log.Printf("Webhook retry: payment request %d is busy, skipping replay", recordID)
		return nil
	}
	defer release()

	ack, err := r.reconcile(adapter, fields, attempt+1)
	r.logCallback(rec.Gateway, rec.GatewayTransactionID, "Retry", fields, ack, err == nil)
	r.observe(rec.Gateway, start)
	return err
}

// reconcile applies one verified payload under the order lock. nextAttempt is
// what the failure path passes to the retry scheduler.
func (r *Reconciler) reconcile(adapter gateways.Adapter, fields map[string]string, nextAttempt int) (map[string]interface{}, error) {
	gateway := adapter.Name()
	orderID := adapter.OrderID(fields)
	trxID := adapter.TransactionID(fields)

	rec, err := r.findRecord(gateway, orderID, trxID)
	if err != nil {
		return adapter.AckError("storage error"), payerr.Reconciliation("find payment request: %v", err)
	}
	if rec == nil {
		// Likely a race with checkout creation; there is no record to key a
		// retry on, so the gateway's own redelivery has to cover this window.
		log.Printf("%s callback: no payment request for order %q / transaction %q", gateway, orderID, trxID)
		return adapter.AckError("payment request not found"), payerr.NotFound("%s order %q", gateway, orderID)
	}

	r.mergePayload(rec, fields)
	if rec.GatewayTransactionID == "" && trxID != "" {
		rec.GatewayTransactionID = trxID
	}

	success, diagnostic := adapter.ClassifyStatus(fields)

	if success {
		if rec.Status == models.StatusCompleted {
			// Idempotent replay: no mutation, no second hand-off.
			return adapter.AckSuccess(), nil
		}

		rec.Status = models.StatusCompleted
		rec.ErrorNote = ""
		if err := r.DB.Save(rec).Error; err != nil {
			r.Retries.Schedule(rec.ID, gateway, nextAttempt)
			return adapter.AckError("storage error"), payerr.Reconciliation("persist completed status: %v", err)
		}

		if r.Metrics != nil {
			r.Metrics.PaymentsTotal.WithLabelValues(gateway, models.StatusCompleted).Inc()
			r.Metrics.PaymentAmountUZS.WithLabelValues(gateway).Add(float64(rec.AmountTiyin) / 100)
		}

		// Payment truth is the gateway's; a hand-off failure is logged and
		// reconciled out-of-band, it never reverts Completed.
		if rec.ReferenceDoctype != "" && rec.ReferenceDocname != "" {
			if err := r.Notifier.OnPaymentAuthorized(rec.ReferenceDoctype, rec.ReferenceDocname, models.StatusCompleted); err != nil {
				log.Printf("%s callback: host hand-off failed for %s %s: %v", gateway, rec.ReferenceDoctype, rec.ReferenceDocname, err)
			}
		}

		return adapter.AckSuccess(), nil
	}

	rec.Status = models.StatusFailed
	rec.ErrorNote = diagnostic
	rec.RetryCount = nextAttempt
	if err := r.DB.Save(rec).Error; err != nil {
		r.Retries.Schedule(rec.ID, gateway, nextAttempt)
		return adapter.AckError("storage error"), payerr.Reconciliation("persist failed status: %v", err)
	}

	if r.Metrics != nil {
		r.Metrics.PaymentsTotal.WithLabelValues(gateway, models.StatusFailed).Inc()
	}

	// A failure callback may itself be a partial delivery; replaying the
	// reconciliation later can still find the payment completed.
	r.Retries.Schedule(rec.ID, gateway, nextAttempt)

	return adapter.AckFailure(fields, diagnostic), nil
}

// findRecord resolves by (gateway, order_id) first, then by the gateway's
// transaction id, newest first. Both are indexed columns.
func (r *Reconciler) findRecord(gateway, orderID, trxID string) (*models.PaymentRequest, error) {
	var rec models.PaymentRequest

	if orderID != "" {
		err := r.DB.Where("gateway = ? AND order_id = ?", gateway, orderID).
			Order("created_at DESC").First(&rec).Error
		if err == nil {
			return &rec, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if trxID != "" {
		err := r.DB.Where("gateway = ? AND gateway_transaction_id = ?", gateway, trxID).
			Order("created_at DESC").First(&rec).Error
		if err == nil {
			return &rec, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return nil, nil
}

// mergePayload folds the gateway-reported fields into the record's stored
// payload verbatim. Audit trail only.
func (r *Reconciler) mergePayload(rec *models.PaymentRequest, fields map[string]string) {
	payload := map[string]interface{}{}
	if rec.Data != "" {
		if err := json.Unmarshal([]byte(rec.Data), &payload); err != nil {
			log.Printf("Payment request %d has unparseable payload, rebuilding: %v", rec.ID, err)
			payload = map[string]interface{}{}
		}
	}
	for k, v := range fields {
		payload[k] = v
	}
	if raw, err := json.Marshal(payload); err == nil {
		rec.Data = string(raw)
	}
}

// persistedFields rebuilds the flattened callback fields from the record's
// stored payload, so retries replay the last persisted state rather than the
// original wire payload.
func (r *Reconciler) persistedFields(rec *models.PaymentRequest) map[string]string {
	payload := map[string]interface{}{}
	if rec.Data != "" {
		if err := json.Unmarshal([]byte(rec.Data), &payload); err != nil {
			log.Printf("Payment request %d has unparseable payload: %v", rec.ID, err)
		}
	}
	fields := common.StringFields(payload)
	if fields["order_id"] == "" && rec.OrderID != "" {
		fields["order_id"] = rec.OrderID
	}
	return fields
}

func (r *Reconciler) logCallback(gateway, trxID, requestType string, fields map[string]string, ack map[string]interface{}, ok bool) {
	reqRaw, _ := json.Marshal(fields)
	ackRaw, _ := json.Marshal(ack)
	status := 0
	if ok {
		status = 1
	}
	entry := models.CallbackLog{
		Gateway:       gateway,
		Request:       string(reqRaw),
		Response:      string(ackRaw),
		Status:        status,
		RequestType:   requestType,
		TransactionID: trxID,
	}
	if err := r.DB.Create(&entry).Error; err != nil {
		log.Printf("Failed to write callback log for %s: %v", gateway, err)
	}
}

func (r *Reconciler) observe(gateway string, start time.Time) {
	if r.Metrics == nil {
		return
	}
	r.Metrics.CallbackDuration.WithLabelValues(gateway).Observe(time.Since(start).Seconds())
}

func lockKey(gateway, orderID, trxID string) string {
	key := orderID
	if key == "" {
		key = trxID
	}
	if key == "" {
		key = "unknown"
	}
	return "payment_lock_" + gateway + "_" + key
}
