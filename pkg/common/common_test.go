package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToString(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want string
	}{
		{"nil", nil, ""},
		{"string", "ORD-1", "ORD-1"},
		{"integral float", float64(150000), "150000"},
		{"fractional float", 1500.5, "1500.5"},
		{"bool", true, "true"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToString(tc.in))
		})
	}
}

func TestStringFieldsSkipsNested(t *testing.T) {
	in := map[string]interface{}{
		"id":      "PMT-1",
		"amount":  float64(150000),
		"account": map[string]interface{}{"order_id": "ORD-1"},
		"items":   []interface{}{"a", "b"},
	}

	out := StringFields(in)

	assert.Equal(t, "PMT-1", out["id"])
	assert.Equal(t, "150000", out["amount"])
	assert.NotContains(t, out, "account")
	assert.NotContains(t, out, "items")
}

func TestPaginateResponse(t *testing.T) {
	res := PaginateResponse([]string{"a", "b"}, 45, 2, 20, "")

	assert.Equal(t, "success", res.Message)
	assert.Equal(t, int64(45), res.Count)
	assert.Equal(t, 2, res.CurrentPage)
	assert.Equal(t, 3, res.NextPage)
	assert.Equal(t, 1, res.PrevPage)
	assert.Equal(t, 3, res.LastPage)
}

func TestPaginateResponseBounds(t *testing.T) {
	res := PaginateResponse(nil, 5, 1, 20, "payments")

	assert.Equal(t, "payments", res.Message)
	assert.Equal(t, 1, res.LastPage)
	assert.Equal(t, 0, res.NextPage)
	assert.Equal(t, 0, res.PrevPage)
}
