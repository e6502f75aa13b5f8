package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"
)

// ParseJSON decodes a payload into generic values, keeping numbers as
// json.Number so amounts never pass through float64.
func ParseJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// asObject returns the JSON object behind v, or a DecodeError naming target.
func asObject(v any, target string) (map[string]any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, decodeErr(target, v, nil)
	}
	return obj, nil
}

func optString(v any) *string {
	var s string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s = t
	case json.Number:
		s = t.String()
	case bool:
		s = strconv.FormatBool(t)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		s = fmt.Sprint(t)
	}
	return &s
}

func optDecimal(v any, target string) (*decimal.Decimal, error) {
	var (
		d   decimal.Decimal
		err error
	)
	switch t := v.(type) {
	case nil:
		return nil, nil
	case decimal.Decimal:
		d = t
	case string:
		d, err = decimal.NewFromString(t)
	case json.Number:
		d, err = decimal.NewFromString(t.String())
	case float64:
		d = decimal.NewFromFloat(t)
	case int:
		d = decimal.NewFromInt(int64(t))
	case int64:
		d = decimal.NewFromInt(t)
	default:
		return nil, decodeErr(target, v, nil)
	}
	if err != nil {
		return nil, decodeErr(target, v, err)
	}
	return &d, nil
}

func optInt(v any, target string) (*int64, error) {
	var n int64
	switch t := v.(type) {
	case nil:
		return nil, nil
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return nil, decodeErr(target, v, err)
		}
		n = i
	case float64:
		if t != math.Trunc(t) {
			return nil, decodeErr(target, v, nil)
		}
		n = int64(t)
	case int:
		n = int64(t)
	case int64:
		n = t
	default:
		return nil, decodeErr(target, v, nil)
	}
	return &n, nil
}

func optBool(v any, target string) (*bool, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return &t, nil
	default:
		return nil, decodeErr(target, v, nil)
	}
}

// collectExtra copies keys not in known, or nil when there are none.
func collectExtra(obj map[string]any, known ...string) map[string]any {
	var extra map[string]any
	for k, v := range obj {
		if slices.Contains(known, k) {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}
	return extra
}

// marshalWithExtra encodes v and adds extra keys that v does not already set.
func marshalWithExtra(v any, extra map[string]any) ([]byte, error) {
	base, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return base, err
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	for k, val := range extra {
		if _, ok := fields[k]; ok {
			continue
		}
		raw, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		fields[k] = raw
	}
	return json.Marshal(fields)
}
