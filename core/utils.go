package core

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// toInt converts JSON numbers (float64, json.Number, numeric strings) to int.
func toInt(val any) (int, error) {
	switch v := val.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		return int(n), err
	case string:
		return strconv.Atoi(v)
	default:
		return 0, fmt.Errorf("unexpected type for numeric field: %T", v)
	}
}

// Must panics when err is not nil and returns v otherwise.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("must: %v", err))
	}
	return v
}
