package common

import (
	"fmt"
	"strconv"
)

// ToString renders a decoded JSON value the way gateways send it on the wire:
// integral floats without the trailing ".0", everything else via fmt.
func ToString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// StringFields flattens a decoded JSON object into string values, skipping
// nested objects and arrays.
func StringFields(m map[string]interface{}) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		switch v.(type) {
		case map[string]interface{}, []interface{}:
			continue
		default:
			out[k] = ToString(v)
		}
	}
	return out
}
