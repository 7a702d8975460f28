package gateways

import (
	"uzpay-service/pkg/common"
)

// stringField reads a decoded JSON field as its wire string form, so numeric
// transaction ids compare equal to the form-encoded values gateways send.
func stringField(m map[string]interface{}, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	return common.ToString(v)
}
