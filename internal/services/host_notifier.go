package services

import (
	"log"

	"uzpay-service/internal/gateways"
	"uzpay-service/pkg/common"
)

// HostNotifier is the hand-off to the host application's business object on
// successful payment. Best-effort: a notification failure never reverts a
// Completed payment and never schedules a retry.
type HostNotifier interface {
	OnPaymentAuthorized(referenceDoctype, referenceDocname, status string) error
}

// HTTPHostNotifier posts the hand-off to the host's notification endpoint.
type HTTPHostNotifier struct {
	URL  string
	Post gateways.PostFunc
}

func NewHTTPHostNotifier(url string) *HTTPHostNotifier {
	return &HTTPHostNotifier{URL: url, Post: common.Post}
}

func (n *HTTPHostNotifier) OnPaymentAuthorized(referenceDoctype, referenceDocname, status string) error {
	if n.URL == "" {
		log.Printf("Host notify URL not configured, skipping hand-off for %s %s", referenceDoctype, referenceDocname)
		return nil
	}

	payload := map[string]interface{}{
		"reference_doctype": referenceDoctype,
		"reference_docname": referenceDocname,
		"status":            status,
	}
	_, err := n.Post(n.URL, payload, map[string]string{"Content-Type": "application/json"})
	return err
}
