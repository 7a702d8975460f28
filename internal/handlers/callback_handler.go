package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"uzpay-service/internal/gateways"
	"uzpay-service/internal/metrics"
	"uzpay-service/internal/models"
	"uzpay-service/internal/payerr"
	"uzpay-service/internal/ratelimit"
	"uzpay-service/internal/services"
	"uzpay-service/pkg/common"
)

// CallbackHandler is the HTTP boundary for gateway webhooks. It parses the
// gateway's transport (Payme posts JSON, Click and FreedomPay post forms),
// applies the per-source rate limit and hands the flattened callback to the
// reconciler. Gateways expect HTTP 200 with their ack envelope for anything
// they should not redeliver; only auth and rate-limit rejections use 4xx.
type CallbackHandler struct {
	Reconciler *services.Reconciler
	Limiter    *ratelimit.Limiter
	Metrics    *metrics.Metrics
}

func NewCallbackHandler(reconciler *services.Reconciler, limiter *ratelimit.Limiter, m *metrics.Metrics) *CallbackHandler {
	return &CallbackHandler{Reconciler: reconciler, Limiter: limiter, Metrics: m}
}

// Handle returns the gin handler for one gateway's callback endpoint.
func (h *CallbackHandler) Handle(adapter gateways.Adapter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.Limiter.Allow(c.ClientIP()) {
			if h.Metrics != nil {
				h.Metrics.RateLimited.Inc()
			}
			c.JSON(http.StatusTooManyRequests, adapter.AckError("rate limit exceeded"))
			return
		}

		cb, err := parseCallback(c, adapter)
		if err != nil {
			c.JSON(http.StatusOK, adapter.AckError("malformed callback body"))
			return
		}

		ack, err := h.Reconciler.HandleCallback(c.Request.Context(), adapter, cb)
		if errors.Is(err, payerr.ErrAuth) {
			c.JSON(http.StatusUnauthorized, ack)
			return
		}
		// Everything else, including Busy and NotFound, answers 200 so the
		// gateway does not hammer an endpoint that already took the callback;
		// the ack body carries the outcome.
		c.JSON(http.StatusOK, ack)
	}
}

// parseCallback reads the request into the flattened field map. JSON bodies
// are flattened with gateway-specific identifier lifting; anything else is
// treated as a form post.
func parseCallback(c *gin.Context, adapter gateways.Adapter) (gateways.Callback, error) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return gateways.Callback{}, err
	}

	var fields map[string]string
	if strings.Contains(c.ContentType(), "application/json") {
		fields, err = jsonFields(raw, adapter.Name())
		if err != nil {
			return gateways.Callback{}, err
		}
	} else {
		fields, err = formFields(raw)
		if err != nil {
			return gateways.Callback{}, err
		}
	}

	cb := gateways.Callback{
		Fields:  fields,
		RawBody: raw,
	}
	cb.Signature = adapter.ExtractSignature(c.Request.Header, fields)
	return cb, nil
}

func jsonFields(raw []byte, gateway string) (map[string]string, error) {
	payload := map[string]interface{}{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	fields := common.StringFields(payload)

	// Payme nests the merchant's order reference under account and names the
	// transaction id plainly "id"; lift both to the canonical keys.
	if gateway == models.GatewayPayme {
		if account, ok := payload["account"].(map[string]interface{}); ok {
			for k, v := range common.StringFields(account) {
				if _, exists := fields[k]; !exists {
					fields[k] = v
				}
			}
		}
		if fields["payment_id"] == "" {
			fields["payment_id"] = fields["id"]
		}
	}

	return fields, nil
}

func formFields(raw []byte) (map[string]string, error) {
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, err
	}
	fields := make(map[string]string, len(values))
	for k := range values {
		fields[k] = values.Get(k)
	}
	return fields, nil
}
