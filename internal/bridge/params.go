package bridge

import (
	"encoding/json"
	"math/big"
	"strconv"
)

// Helpers for the explorer's decoded parameter values. Integers and addresses
// arrive as strings, booleans as booleans, but small numeric fields can show
// up as JSON numbers depending on the decoding path.

func stringParam(params map[string]any, name, def string) string {
	v, ok := params[name]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return def
	}
}

func boolParam(params map[string]any, name string) bool {
	switch t := params[name].(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "True"
	default:
		return false
	}
}

func int64Param(params map[string]any, name string) int64 {
	v, ok := new(big.Int).SetString(stringParam(params, name, "0"), 10)
	if !ok || !v.IsInt64() {
		return 0
	}
	return v.Int64()
}
