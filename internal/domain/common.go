package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the upstream calendar date format.
const DateLayout = "2006-01-02"

// AmountValue is a fixed-point amount with its currency or unit code.
type AmountValue struct {
	Value *decimal.Decimal
	Unit  *string
}

// DecodeAmountValue accepts nil, an AmountValue or a {"value","unit"} object.
func DecodeAmountValue(v any) (*AmountValue, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *AmountValue:
		return t, nil
	case AmountValue:
		return &t, nil
	}

	obj, err := asObject(v, "AmountValue")
	if err != nil {
		return nil, err
	}
	value, err := optDecimal(obj["value"], "AmountValue.value")
	if err != nil {
		return nil, err
	}
	return &AmountValue{Value: value, Unit: optString(obj["unit"])}, nil
}

// FormatDecimal renders d keeping its scale, so 100.50 stays "100.50".
func FormatDecimal(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

// ValueString returns the formatted amount, or "" when absent.
func (a *AmountValue) ValueString() string {
	if a == nil || a.Value == nil {
		return ""
	}
	return FormatDecimal(*a.Value)
}

// UnitString returns the unit, or "" when absent.
func (a *AmountValue) UnitString() string {
	if a == nil || a.Unit == nil {
		return ""
	}
	return *a.Unit
}

func (a AmountValue) MarshalJSON() ([]byte, error) {
	out := struct {
		Value *string `json:"value,omitempty"`
		Unit  *string `json:"unit,omitempty"`
	}{Unit: a.Unit}
	if a.Value != nil {
		s := FormatDecimal(*a.Value)
		out.Value = &s
	}
	return json.Marshal(out)
}

// CurrencyString wraps an ISO-4217 code. The upstream API sends it either
// bare or as {"currency": "EUR"}.
type CurrencyString struct {
	Currency *string `json:"currency,omitempty"`
}

func DecodeCurrencyString(v any) (*CurrencyString, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *CurrencyString:
		return t, nil
	case CurrencyString:
		return &t, nil
	case map[string]any:
		return &CurrencyString{Currency: optString(t["currency"])}, nil
	default:
		return &CurrencyString{Currency: optString(t)}, nil
	}
}

// MarshalJSON emits the bare code, the shape the upstream API sends.
func (c CurrencyString) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Currency)
}

// EnumText is a key/text pair.
type EnumText struct {
	Key  *string `json:"key,omitempty"`
	Text *string `json:"text,omitempty"`
}

func DecodeEnumText(v any) (*EnumText, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *EnumText:
		return t, nil
	case EnumText:
		return &t, nil
	}

	obj, err := asObject(v, "EnumText")
	if err != nil {
		return nil, err
	}
	return &EnumText{Key: optString(obj["key"]), Text: optString(obj["text"])}, nil
}

// DateString is a calendar date without time information.
type DateString struct {
	Date time.Time
}

// DecodeDateString accepts a DateString, a time.Time, a YYYY-MM-DD string
// or an object carrying either under "date".
func DecodeDateString(v any) (*DateString, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *DateString:
		return t, nil
	case DateString:
		return &t, nil
	}

	raw := v
	if obj, ok := v.(map[string]any); ok {
		raw = obj["date"]
	}

	switch t := raw.(type) {
	case time.Time:
		return &DateString{Date: truncateDay(t)}, nil
	case string:
		d, err := time.Parse(DateLayout, t)
		if err != nil {
			return nil, decodeErr("DateString", v, err)
		}
		return &DateString{Date: d}, nil
	default:
		return nil, decodeErr("DateString", v, nil)
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// String returns YYYY-MM-DD.
func (d *DateString) String() string {
	if d == nil {
		return ""
	}
	return d.Date.Format(DateLayout)
}

func (d DateString) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"date": d.Date.Format(DateLayout)})
}

// PagingInfo is the paging metadata of a list resource.
type PagingInfo struct {
	Index   *int64 `json:"index,omitempty"`
	Matches *int64 `json:"matches,omitempty"`
}

func DecodePagingInfo(v any) (*PagingInfo, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *PagingInfo:
		return t, nil
	case PagingInfo:
		return &t, nil
	}

	obj, err := asObject(v, "PagingInfo")
	if err != nil {
		return nil, err
	}
	index, err := optInt(obj["index"], "PagingInfo.index")
	if err != nil {
		return nil, err
	}
	matches, err := optInt(obj["matches"], "PagingInfo.matches")
	if err != nil {
		return nil, err
	}
	return &PagingInfo{Index: index, Matches: matches}, nil
}

// AggregatedInfo holds aggregated metadata the upstream API does not document.
type AggregatedInfo struct {
	Data map[string]any `json:"data"`
}

func DecodeAggregatedInfo(v any) (*AggregatedInfo, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *AggregatedInfo:
		return t, nil
	case AggregatedInfo:
		return &t, nil
	}

	obj, err := asObject(v, "AggregatedInfo")
	if err != nil {
		return nil, err
	}
	if data, ok := obj["data"].(map[string]any); ok {
		return &AggregatedInfo{Data: copyMap(data)}, nil
	}
	return &AggregatedInfo{Data: copyMap(obj)}, nil
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// AccountInformation describes a transaction counterparty.
type AccountInformation struct {
	HolderName *string `json:"holderName,omitempty"`
	IBAN       *string `json:"iban,omitempty"`
	BIC        *string `json:"bic,omitempty"`
}

func DecodeAccountInformation(v any) (*AccountInformation, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *AccountInformation:
		return t, nil
	case AccountInformation:
		return &t, nil
	}

	obj, err := asObject(v, "AccountInformation")
	if err != nil {
		return nil, err
	}
	return &AccountInformation{
		HolderName: optString(obj["holderName"]),
		IBAN:       optString(obj["iban"]),
		BIC:        optString(obj["bic"]),
	}, nil
}

// String returns the holder name, falling back to the IBAN.
func (a *AccountInformation) String() string {
	switch {
	case a == nil:
		return ""
	case a.HolderName != nil:
		return *a.HolderName
	case a.IBAN != nil:
		return *a.IBAN
	default:
		return ""
	}
}
