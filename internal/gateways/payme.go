package gateways

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"uzpay-service/internal/models"
	"uzpay-service/internal/payerr"
)

const paymeCheckoutURL = "https://checkout.paycom.uz/api"

// Payme signs the whole callback body: HMAC-SHA256 over the JSON document
// with keys sorted lexicographically, keyed by the merchant key. The
// signature arrives in X-Payme-Signature or as a bearer token.
type Payme struct {
	CallbackURL string
}

func NewPayme(baseURL string) *Payme {
	return &Payme{CallbackURL: strings.TrimRight(baseURL, "/") + "/api/callbacks/payme"}
}

func (p *Payme) Name() string { return models.GatewayPayme }

func (p *Payme) ExtractSignature(headers http.Header, fields map[string]string) string {
	sig := headers.Get("X-Payme-Signature")
	if sig == "" {
		sig = strings.TrimPrefix(headers.Get("Authorization"), "Bearer ")
	}
	return sig
}

func (p *Payme) VerifySignature(settings *models.GatewaySettings, cb Callback) bool {
	if cb.Signature == "" {
		return false
	}

	// Re-marshalling through a map yields the canonical sorted-key form.
	var body map[string]interface{}
	if err := json.Unmarshal(cb.RawBody, &body); err != nil {
		return false
	}
	canonical, err := json.Marshal(body)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(settings.SecretKey))
	mac.Write(canonical)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(cb.Signature))
}

func (p *Payme) OrderID(fields map[string]string) string {
	return fields["order_id"]
}

func (p *Payme) TransactionID(fields map[string]string) string {
	return fields["payment_id"]
}

func (p *Payme) ClassifyStatus(fields map[string]string) (bool, string) {
	status := fields["status"]
	if status == "paid" || status == "completed" {
		return true, ""
	}
	return false, "payment status: " + status
}

func (p *Payme) CreateCheckout(settings *models.GatewaySettings, req CheckoutRequest, post PostFunc) (CheckoutResult, error) {
	url := settings.BaseURL
	if url == "" {
		url = paymeCheckoutURL
	}

	description := req.Description
	if description == "" {
		description = "Payment"
	}

	payload := map[string]interface{}{
		"merchant_id": settings.MerchantID,
		"amount":      req.AmountTiyin,
		"account": map[string]interface{}{
			"order_id":          req.OrderID,
			"reference_doctype": req.ReferenceDoctype,
			"reference_docname": req.ReferenceDocname,
		},
		"callback_url": p.CallbackURL,
		"description":  description,
	}

	headers := map[string]string{
		"X-Auth": settings.SecretKey,
	}

	resp, err := post(url, payload, headers)
	if err != nil {
		return CheckoutResult{}, payerr.Gateway("payme checkout request failed: %v", err)
	}

	body, ok := resp.(map[string]interface{})
	if !ok {
		return CheckoutResult{}, payerr.Gateway("empty or non-JSON response from Payme API")
	}
	result, ok := body["result"].(map[string]interface{})
	if !ok {
		return CheckoutResult{}, payerr.Gateway("invalid Payme API response format")
	}
	checkoutURL, _ := result["checkout_url"].(string)
	if checkoutURL == "" {
		return CheckoutResult{}, payerr.Gateway("missing checkout_url in Payme response")
	}
	id := stringField(result, "id")
	if id == "" {
		return CheckoutResult{}, payerr.Gateway("missing payment id in Payme response")
	}

	return CheckoutResult{TransactionID: id, PaymentURL: checkoutURL}, nil
}

func (p *Payme) AckSuccess() map[string]interface{} {
	return map[string]interface{}{"result": map[string]interface{}{"status": "success"}}
}

func (p *Payme) AckFailure(fields map[string]string, diagnostic string) map[string]interface{} {
	return map[string]interface{}{"result": map[string]interface{}{"status": "failed", "message": diagnostic}}
}

func (p *Payme) AckError(message string) map[string]interface{} {
	return map[string]interface{}{"result": map[string]interface{}{"status": "error", "message": message}}
}
