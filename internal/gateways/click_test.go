package gateways

import (
	"crypto/md5"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"

	"uzpay-service/internal/models"
)

func clickSettings() *models.GatewaySettings {
	return &models.GatewaySettings{
		Gateway:    models.GatewayClick,
		MerchantID: "m-77",
		ServiceID:  "svc-12",
		SecretKey:  "click-secret",
	}
}

func clickSign(settings *models.GatewaySettings, f map[string]string) string {
	sign := f["click_trans_id"] + settings.ServiceID + settings.SecretKey +
		f["merchant_trans_id"] + f["amount"] + f["action"] + f["sign_time"]
	if f["error"] != "" {
		sign += f["error"]
	}
	sum := md5.Sum([]byte(sign))
	return hex.EncodeToString(sum[:])
}

func TestClickVerifySignature(t *testing.T) {
	c := NewClick("https://shop.example.uz")
	settings := clickSettings()

	fields := map[string]string{
		"click_trans_id":    "555001",
		"merchant_trans_id": "ORDER-1",
		"amount":            "5000000",
		"action":            "0",
		"sign_time":         "2026-08-25 10:00:00",
	}
	sig := clickSign(settings, fields)

	assert.True(t, c.VerifySignature(settings, Callback{Fields: fields, Signature: sig}))

	// The error field, when present, is part of the signed string.
	fields["error"] = "-5017"
	assert.False(t, c.VerifySignature(settings, Callback{Fields: fields, Signature: sig}))
	assert.True(t, c.VerifySignature(settings, Callback{Fields: fields, Signature: clickSign(settings, fields)}))
}

func TestClickVerifySignatureTamperedAmount(t *testing.T) {
	c := NewClick("https://shop.example.uz")
	settings := clickSettings()

	fields := map[string]string{
		"click_trans_id":    "555001",
		"merchant_trans_id": "ORDER-1",
		"amount":            "5000000",
		"action":            "0",
		"sign_time":         "2026-08-25 10:00:00",
	}
	sig := clickSign(settings, fields)

	fields["amount"] = "100"
	assert.False(t, c.VerifySignature(settings, Callback{Fields: fields, Signature: sig}))

	assert.False(t, c.VerifySignature(settings, Callback{Fields: fields}))
}

func TestClickClassifyStatus(t *testing.T) {
	c := NewClick("https://shop.example.uz")

	ok, _ := c.ClassifyStatus(map[string]string{"action": "0"})
	assert.True(t, ok)
	ok, _ = c.ClassifyStatus(map[string]string{"action": "0", "error": "0"})
	assert.True(t, ok)

	ok, diag := c.ClassifyStatus(map[string]string{"action": "0", "error": "-5017", "error_note": "Insufficient funds"})
	assert.False(t, ok)
	assert.Equal(t, "Insufficient funds", diag)

	ok, diag = c.ClassifyStatus(map[string]string{"action": "1"})
	assert.False(t, ok)
	assert.Contains(t, diag, "payment failed")
}

func TestClickExtractSignature(t *testing.T) {
	c := NewClick("https://shop.example.uz")
	assert.Equal(t, "sig", c.ExtractSignature(nil, map[string]string{"sign_string": "sig"}))
}

func TestClickOrderAndTransactionID(t *testing.T) {
	c := NewClick("https://shop.example.uz")
	fields := map[string]string{"merchant_trans_id": "ORDER-1", "click_trans_id": "555001"}
	assert.Equal(t, "ORDER-1", c.OrderID(fields))
	assert.Equal(t, "555001", c.TransactionID(fields))
}

func TestClickCreateCheckout(t *testing.T) {
	c := NewClick("https://shop.example.uz")
	settings := clickSettings()

	var gotPayload map[string]interface{}
	post := func(url string, payload interface{}, headers map[string]string) (interface{}, error) {
		gotPayload = payload.(map[string]interface{})
		return map[string]interface{}{
			"click_trans_id": float64(555001),
			"payment_url":    "https://my.click.uz/pay/xyz",
		}, nil
	}

	res, err := c.CreateCheckout(settings, CheckoutRequest{OrderID: "ORDER-1", AmountTiyin: 5000000}, post)
	assert.NoError(t, err)
	assert.Equal(t, "555001", res.TransactionID)
	assert.Equal(t, "https://my.click.uz/pay/xyz", res.PaymentURL)

	// sign_string covers merchant, service, amount, order and return URL.
	expected := md5.Sum([]byte(settings.MerchantID + settings.ServiceID + "5000000" + "ORDER-1" +
		"https://shop.example.uz/payment-success" + settings.SecretKey))
	assert.Equal(t, hex.EncodeToString(expected[:]), gotPayload["sign_string"])
}

func TestClickCreateCheckoutRedirectURLFallback(t *testing.T) {
	c := NewClick("https://shop.example.uz")
	post := func(url string, payload interface{}, headers map[string]string) (interface{}, error) {
		return map[string]interface{}{
			"click_trans_id": "555002",
			"redirect_url":   "https://my.click.uz/pay/redirect",
		}, nil
	}

	res, err := c.CreateCheckout(clickSettings(), CheckoutRequest{OrderID: "ORDER-2", AmountTiyin: 100000}, post)
	assert.NoError(t, err)
	assert.Equal(t, "https://my.click.uz/pay/redirect", res.PaymentURL)
}

func TestClickCreateCheckoutMissingTransactionID(t *testing.T) {
	c := NewClick("https://shop.example.uz")
	post := func(url string, payload interface{}, headers map[string]string) (interface{}, error) {
		return map[string]interface{}{"payment_url": "https://my.click.uz/pay/xyz"}, nil
	}

	_, err := c.CreateCheckout(clickSettings(), CheckoutRequest{OrderID: "ORDER-3", AmountTiyin: 100000}, post)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "click_trans_id")
}
