package gateways

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"uzpay-service/internal/models"
)

func freedomPaySettings() *models.GatewaySettings {
	return &models.GatewaySettings{
		Gateway:    models.GatewayFreedomPay,
		MerchantID: "fp-merchant",
		TerminalID: "term-9",
		SecretKey:  "fp-secret",
	}
}

func freedomPaySign(settings *models.GatewaySettings, f map[string]string) string {
	sign := settings.MerchantID + settings.TerminalID + f["transaction_id"] +
		f["order_id"] + f["amount"] + f["status"] + settings.SecretKey
	mac := hmac.New(sha256.New, []byte(settings.SecretKey))
	mac.Write([]byte(sign))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestFreedomPayVerifySignature(t *testing.T) {
	fp := NewFreedomPay("https://shop.example.uz")
	settings := freedomPaySettings()

	fields := map[string]string{
		"transaction_id": "fp-100",
		"order_id":       "ORDER-1",
		"amount":         "5000000",
		"status":         "success",
	}
	sig := freedomPaySign(settings, fields)

	assert.True(t, fp.VerifySignature(settings, Callback{Fields: fields, Signature: sig}))

	fields["status"] = "failed"
	assert.False(t, fp.VerifySignature(settings, Callback{Fields: fields, Signature: sig}))

	assert.False(t, fp.VerifySignature(settings, Callback{Fields: fields}))
}

func TestFreedomPayExtractSignature(t *testing.T) {
	fp := NewFreedomPay("https://shop.example.uz")

	h := http.Header{}
	h.Set("X-FreedomPay-Signature", "h1")
	assert.Equal(t, "h1", fp.ExtractSignature(h, nil))

	h = http.Header{}
	h.Set("Signature", "h2")
	assert.Equal(t, "h2", fp.ExtractSignature(h, nil))

	assert.Equal(t, "h3", fp.ExtractSignature(http.Header{}, map[string]string{"signature": "h3"}))
}

func TestFreedomPayClassifyStatus(t *testing.T) {
	fp := NewFreedomPay("https://shop.example.uz")

	for _, status := range []string{"success", "completed", "paid", "1"} {
		ok, _ := fp.ClassifyStatus(map[string]string{"status": status})
		assert.True(t, ok, "status %q should classify as success", status)
	}

	ok, diag := fp.ClassifyStatus(map[string]string{"status": "declined"})
	assert.False(t, ok)
	assert.Contains(t, diag, "declined")
}

func TestFreedomPayCreateCheckout(t *testing.T) {
	fp := NewFreedomPay("https://shop.example.uz")
	settings := freedomPaySettings()

	var gotPayload map[string]interface{}
	post := func(url string, payload interface{}, headers map[string]string) (interface{}, error) {
		gotPayload = payload.(map[string]interface{})
		return map[string]interface{}{
			"payment_url":    "https://pay.freedompay.uz/p/1",
			"payment_id":     "fp-pay-1",
			"transaction_id": "fp-trx-1",
		}, nil
	}

	res, err := fp.CreateCheckout(settings, CheckoutRequest{OrderID: "ORDER-1", AmountTiyin: 5000000}, post)
	assert.NoError(t, err)
	assert.Equal(t, "https://pay.freedompay.uz/p/1", res.PaymentURL)
	assert.Equal(t, "fp-trx-1", res.TransactionID)
	assert.NotEmpty(t, gotPayload["signature"])
	assert.Equal(t, "https://shop.example.uz/api/callbacks/freedompay", gotPayload["callback_url"])
}

func TestFreedomPayCreateCheckoutMissingPaymentID(t *testing.T) {
	fp := NewFreedomPay("https://shop.example.uz")
	post := func(url string, payload interface{}, headers map[string]string) (interface{}, error) {
		return map[string]interface{}{"payment_url": "https://pay.freedompay.uz/p/2"}, nil
	}

	_, err := fp.CreateCheckout(freedomPaySettings(), CheckoutRequest{OrderID: "ORDER-2", AmountTiyin: 100000}, post)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "payment_id")
}
