package gateways

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"

	"uzpay-service/internal/models"
	"uzpay-service/internal/payerr"
)

const freedomPayCheckoutURL = "https://api.freedompay.uz/payment/create"

// FreedomPay signs a fixed field concatenation with HMAC-SHA256. The secret
// key appears both as the HMAC key and at the end of the signed string, which
// mirrors the upstream protocol.
type FreedomPay struct {
	CallbackURL string
	ReturnURL   string
}

func NewFreedomPay(baseURL string) *FreedomPay {
	base := strings.TrimRight(baseURL, "/")
	return &FreedomPay{
		CallbackURL: base + "/api/callbacks/freedompay",
		ReturnURL:   base + "/payment-success",
	}
}

func (f *FreedomPay) Name() string { return models.GatewayFreedomPay }

func (f *FreedomPay) ExtractSignature(headers http.Header, fields map[string]string) string {
	sig := headers.Get("X-FreedomPay-Signature")
	if sig == "" {
		sig = headers.Get("Signature")
	}
	if sig == "" {
		sig = fields["signature"]
	}
	return sig
}

func (f *FreedomPay) VerifySignature(settings *models.GatewaySettings, cb Callback) bool {
	if cb.Signature == "" {
		return false
	}

	d := cb.Fields
	sign := settings.MerchantID + settings.TerminalID + d["transaction_id"] +
		d["order_id"] + d["amount"] + d["status"] + settings.SecretKey

	mac := hmac.New(sha256.New, []byte(settings.SecretKey))
	mac.Write([]byte(sign))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(cb.Signature))
}

func (f *FreedomPay) OrderID(fields map[string]string) string {
	return fields["order_id"]
}

func (f *FreedomPay) TransactionID(fields map[string]string) string {
	return fields["transaction_id"]
}

func (f *FreedomPay) ClassifyStatus(fields map[string]string) (bool, string) {
	switch fields["status"] {
	case "success", "completed", "paid", "1":
		return true, ""
	}
	return false, "payment status: " + fields["status"]
}

func (f *FreedomPay) CreateCheckout(settings *models.GatewaySettings, req CheckoutRequest, post PostFunc) (CheckoutResult, error) {
	url := settings.BaseURL
	if url == "" {
		url = freedomPayCheckoutURL
	}

	returnURL := req.RedirectTo
	if returnURL == "" {
		returnURL = f.ReturnURL
	}
	description := req.Description
	if description == "" {
		description = "Payment"
	}

	amount := strconv.FormatInt(req.AmountTiyin, 10)
	sign := settings.MerchantID + settings.TerminalID + amount + req.OrderID + settings.SecretKey
	mac := hmac.New(sha256.New, []byte(settings.SecretKey))
	mac.Write([]byte(sign))

	payload := map[string]interface{}{
		"merchant_id":  settings.MerchantID,
		"terminal_id":  settings.TerminalID,
		"amount":       req.AmountTiyin,
		"order_id":     req.OrderID,
		"description":  description,
		"return_url":   returnURL,
		"callback_url": f.CallbackURL,
		"signature":    hex.EncodeToString(mac.Sum(nil)),
	}

	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}

	resp, err := post(url, payload, headers)
	if err != nil {
		return CheckoutResult{}, payerr.Gateway("freedompay checkout request failed: %v", err)
	}

	body, ok := resp.(map[string]interface{})
	if !ok {
		return CheckoutResult{}, payerr.Gateway("empty or non-JSON response from FreedomPay API")
	}
	paymentURL := stringField(body, "payment_url")
	if paymentURL == "" {
		return CheckoutResult{}, payerr.Gateway("missing payment_url in FreedomPay response")
	}
	paymentID := stringField(body, "payment_id")
	if paymentID == "" {
		return CheckoutResult{}, payerr.Gateway("missing payment_id in FreedomPay response")
	}
	trxID := stringField(body, "transaction_id")
	if trxID == "" {
		trxID = paymentID
	}

	return CheckoutResult{TransactionID: trxID, PaymentURL: paymentURL}, nil
}

func (f *FreedomPay) AckSuccess() map[string]interface{} {
	return map[string]interface{}{"status": "success", "message": "Payment processed successfully"}
}

func (f *FreedomPay) AckFailure(fields map[string]string, diagnostic string) map[string]interface{} {
	return map[string]interface{}{"status": "failed", "message": diagnostic}
}

func (f *FreedomPay) AckError(message string) map[string]interface{} {
	return map[string]interface{}{"status": "error", "message": message}
}
