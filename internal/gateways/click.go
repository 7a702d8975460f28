package gateways

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"

	"uzpay-service/internal/models"
	"uzpay-service/internal/payerr"
)

const clickCheckoutURL = "https://my.click.uz/services/pay"

// Click signs callbacks with MD5 over a fixed field concatenation. MD5 is a
// known weakness of the upstream protocol; the comparison is still constant
// time, but the digest itself cannot be hardened on our side.
type Click struct {
	CallbackURL string
	ReturnURL   string
}

func NewClick(baseURL string) *Click {
	base := strings.TrimRight(baseURL, "/")
	return &Click{
		CallbackURL: base + "/api/callbacks/click",
		ReturnURL:   base + "/payment-success",
	}
}

func (c *Click) Name() string { return models.GatewayClick }

func (c *Click) ExtractSignature(headers http.Header, fields map[string]string) string {
	return fields["sign_string"]
}

func (c *Click) VerifySignature(settings *models.GatewaySettings, cb Callback) bool {
	if cb.Signature == "" {
		return false
	}

	f := cb.Fields
	sign := f["click_trans_id"] + settings.ServiceID + settings.SecretKey +
		f["merchant_trans_id"] + f["amount"] + f["action"] + f["sign_time"]
	if f["error"] != "" {
		sign += f["error"]
	}

	sum := md5.Sum([]byte(sign))
	expected := hex.EncodeToString(sum[:])

	return hmac.Equal([]byte(expected), []byte(cb.Signature))
}

func (c *Click) OrderID(fields map[string]string) string {
	// Click echoes our order id back as merchant_trans_id.
	return fields["merchant_trans_id"]
}

func (c *Click) TransactionID(fields map[string]string) string {
	return fields["click_trans_id"]
}

func (c *Click) ClassifyStatus(fields map[string]string) (bool, string) {
	action := fields["action"]
	errCode := fields["error"]
	if action == "0" && (errCode == "" || errCode == "0") {
		return true, ""
	}
	if note := fields["error_note"]; note != "" {
		return false, note
	}
	if errCode == "" {
		errCode = "-1"
	}
	return false, "payment failed: " + errCode
}

func (c *Click) CreateCheckout(settings *models.GatewaySettings, req CheckoutRequest, post PostFunc) (CheckoutResult, error) {
	url := settings.BaseURL
	if url == "" {
		url = clickCheckoutURL
	}

	returnURL := req.RedirectTo
	if returnURL == "" {
		returnURL = c.ReturnURL
	}

	amount := strconv.FormatInt(req.AmountTiyin, 10)
	sign := settings.MerchantID + settings.ServiceID + amount + req.OrderID + returnURL + settings.SecretKey
	sum := md5.Sum([]byte(sign))

	payload := map[string]interface{}{
		"merchant_id":       settings.MerchantID,
		"service_id":        settings.ServiceID,
		"amount":            req.AmountTiyin,
		"transaction_param": req.OrderID,
		"return_url":        returnURL,
		"callback_url":      c.CallbackURL,
		"sign_string":       hex.EncodeToString(sum[:]),
	}

	resp, err := post(url, payload, map[string]string{"Content-Type": "application/json"})
	if err != nil {
		return CheckoutResult{}, payerr.Gateway("click checkout request failed: %v", err)
	}

	body, ok := resp.(map[string]interface{})
	if !ok {
		return CheckoutResult{}, payerr.Gateway("empty or non-JSON response from Click API")
	}
	trxID := stringField(body, "click_trans_id")
	if trxID == "" {
		return CheckoutResult{}, payerr.Gateway("missing click_trans_id in Click response")
	}
	paymentURL := stringField(body, "payment_url")
	if paymentURL == "" {
		paymentURL = stringField(body, "redirect_url")
	}
	if paymentURL == "" {
		return CheckoutResult{}, payerr.Gateway("missing payment URL in Click response")
	}

	return CheckoutResult{TransactionID: trxID, PaymentURL: paymentURL}, nil
}

func (c *Click) AckSuccess() map[string]interface{} {
	return map[string]interface{}{"error": 0, "error_note": "Success"}
}

func (c *Click) AckFailure(fields map[string]string, diagnostic string) map[string]interface{} {
	code := -1
	if v, err := strconv.Atoi(fields["error"]); err == nil && v != 0 {
		code = v
	}
	note := diagnostic
	if note == "" {
		note = "Payment failed"
	}
	return map[string]interface{}{"error": code, "error_note": note}
}

func (c *Click) AckError(message string) map[string]interface{} {
	return map[string]interface{}{"error": -1, "error_note": message}
}
