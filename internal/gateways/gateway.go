// Package gateways holds the per-gateway adapters. Each gateway differs in
// how it signs callbacks, how its checkout API is called and what
// acknowledgment envelope it expects, so those capabilities live behind one
// interface with three implementations.
package gateways

import (
	"net/http"

	"uzpay-service/internal/models"
)

// PostFunc posts a JSON payload and returns the decoded response body.
// Matches pkg/common.Post so tests can substitute a fake.
type PostFunc func(url string, payload interface{}, headers map[string]string) (interface{}, error)

// CheckoutRequest carries the validated inputs for checkout-URL creation.
type CheckoutRequest struct {
	OrderID          string
	AmountTiyin      int64
	Description      string
	RedirectTo       string
	ReferenceDoctype string
	ReferenceDocname string
}

// CheckoutResult is the gateway's answer to a checkout-creation call.
type CheckoutResult struct {
	TransactionID string
	PaymentURL    string
}

// Callback is one inbound webhook after transport parsing: flattened string
// fields, the raw body (Payme signs the body itself) and the presented
// signature.
type Callback struct {
	Fields    map[string]string
	RawBody   []byte
	Signature string
}

// Adapter is the per-gateway capability set.
type Adapter interface {
	Name() string

	// ExtractSignature pulls the presented signature out of the request
	// headers or body fields, whichever the gateway uses.
	ExtractSignature(headers http.Header, fields map[string]string) string

	// VerifySignature recomputes the gateway digest and compares it in
	// constant time. Pure, no I/O.
	VerifySignature(settings *models.GatewaySettings, cb Callback) bool

	// OrderID and TransactionID read the gateway-specific identifiers out of
	// the callback fields. Either may be empty.
	OrderID(fields map[string]string) string
	TransactionID(fields map[string]string) string

	// ClassifyStatus maps the gateway's status fields onto a binary
	// success/failure decision plus a diagnostic for the failure path.
	ClassifyStatus(fields map[string]string) (success bool, diagnostic string)

	// CreateCheckout calls the gateway's checkout-creation API through post
	// and returns the transaction id and payment URL.
	CreateCheckout(settings *models.GatewaySettings, req CheckoutRequest, post PostFunc) (CheckoutResult, error)

	// Acknowledgment envelopes. Every gateway expects a different shape.
	AckSuccess() map[string]interface{}
	AckFailure(fields map[string]string, diagnostic string) map[string]interface{}
	AckError(message string) map[string]interface{}
}

// Registry resolves adapters by gateway name.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}
