package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, payload string) any {
	t.Helper()
	v, err := ParseJSON([]byte(payload))
	require.NoError(t, err)
	return v
}

func TestAmountValue_RoundTripKeepsPrecision(t *testing.T) {
	amount, err := DecodeAmountValue(mustParse(t, `{"value": "123.45", "unit": "EUR"}`))
	require.NoError(t, err)

	data, err := json.Marshal(amount)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value": "123.45", "unit": "EUR"}`, string(data))
}

func TestAmountValue_NumericValueDoesNotUseFloat(t *testing.T) {
	amount, err := DecodeAmountValue(mustParse(t, `{"value": 0.10000000000000000555, "unit": "EUR"}`))
	require.NoError(t, err)

	assert.Equal(t, "0.10000000000000000555", amount.ValueString())
}

func TestAmountValue_KeepsTrailingZeros(t *testing.T) {
	amount, err := DecodeAmountValue(map[string]any{"value": "100.50", "unit": "EUR"})
	require.NoError(t, err)
	assert.Equal(t, "100.50", amount.ValueString())
	assert.Equal(t, "EUR", amount.UnitString())
}

func TestDecode_NilPropagates(t *testing.T) {
	amount, err := DecodeAmountValue(nil)
	require.NoError(t, err)
	assert.Nil(t, amount)

	date, err := DecodeDateString(nil)
	require.NoError(t, err)
	assert.Nil(t, date)

	balance, err := DecodeAccountBalance(nil)
	require.NoError(t, err)
	assert.Nil(t, balance)
}

func TestDecode_AlreadyTypedPassesThrough(t *testing.T) {
	original := &AccountTransaction{Reference: strPtr("R1")}

	decoded, err := DecodeAccountTransaction(original)
	require.NoError(t, err)
	assert.Same(t, original, decoded)
}

func TestDecode_WrongShapeFails(t *testing.T) {
	_, err := DecodeAmountValue("12.00")
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "AmountValue", decodeErr.Target)

	_, err = DecodeEnumText(42)
	require.ErrorAs(t, err, &decodeErr)
}

func TestDateString_Formats(t *testing.T) {
	expected := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	fromString, err := DecodeDateString("2024-03-01")
	require.NoError(t, err)
	assert.True(t, expected.Equal(fromString.Date))

	fromObject, err := DecodeDateString(map[string]any{"date": "2024-03-01"})
	require.NoError(t, err)
	assert.True(t, expected.Equal(fromObject.Date))

	fromTime, err := DecodeDateString(time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, expected.Equal(fromTime.Date))

	data, err := json.Marshal(fromString)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-03-01"}`, string(data))

	_, err = DecodeDateString("01.03.2024")
	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)

	_, err = DecodeDateString(20240301)
	assert.ErrorAs(t, err, &decodeErr)
}

func TestCurrencyString_AcceptsBareAndObject(t *testing.T) {
	bare, err := DecodeCurrencyString("EUR")
	require.NoError(t, err)
	assert.Equal(t, "EUR", *bare.Currency)

	obj, err := DecodeCurrencyString(map[string]any{"currency": "USD"})
	require.NoError(t, err)
	assert.Equal(t, "USD", *obj.Currency)

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `"USD"`, string(data))
}

func TestAggregatedInfo_UnwrapsData(t *testing.T) {
	wrapped, err := DecodeAggregatedInfo(map[string]any{"data": map[string]any{"sum": "1"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"sum": "1"}, wrapped.Data)

	flat, err := DecodeAggregatedInfo(map[string]any{"sum": "2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"sum": "2"}, flat.Data)
}

const balancesPayload = `{
	"paging": {"index": 0, "matches": 2},
	"aggregated": {"balanceEUR": {"value": "150.50", "unit": "EUR"}},
	"values": [
		{
			"accountId": "A1",
			"account": {"accountId": "A1", "currency": "EUR", "accountType": {"key": "CA", "text": "Checking"}},
			"balance": {"value": "100.50", "unit": "EUR"},
			"availableCashAmount": {"value": "90", "unit": "EUR"},
			"overdraft": true
		},
		null,
		{
			"account": {"accountId": "A2"},
			"availableCashAmount": {"value": "50.00", "unit": "USD"}
		}
	]
}`

func TestDecodeListResourceAccountBalance(t *testing.T) {
	list, err := DecodeListResourceAccountBalance(mustParse(t, balancesPayload))
	require.NoError(t, err)

	require.NotNil(t, list.Paging)
	assert.Equal(t, int64(2), *list.Paging.Matches)
	require.Len(t, list.Values, 2, "null entries are skipped")

	first := list.Values[0]
	assert.Equal(t, "A1", first.ResolvedAccountID())
	amount, currency := first.PrimaryAmount()
	require.NotNil(t, amount)
	assert.True(t, decimal.RequireFromString("100.50").Equal(*amount))
	assert.Equal(t, "EUR", currency)
	assert.Equal(t, map[string]any{"overdraft": true}, first.Extra)
	assert.Equal(t, "Checking", *first.Account.AccountType.Text)

	second := list.Values[1]
	assert.Equal(t, "A2", second.ResolvedAccountID())
	amount, currency = second.PrimaryAmount()
	assert.Equal(t, "50.00", FormatDecimal(*amount))
	assert.Equal(t, "USD", currency)
}

func TestDecodeListResource_MalformedElementAbortsWholeList(t *testing.T) {
	payload := `{"values": [
		{"reference": "R1", "bookingDate": "2024-03-01"},
		{"reference": "R2", "bookingDate": "not-a-date"}
	]}`

	list, err := DecodeListResourceAccountTransaction(mustParse(t, payload))
	assert.Nil(t, list)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "DateString", decodeErr.Target)
}

func TestAccountTransaction_RoundTripKeepsExtra(t *testing.T) {
	payload := `{
		"reference": "R1",
		"bookingStatus": "BOOKED",
		"bookingDate": "2024-03-01",
		"amount": {"value": "-12.30", "unit": "EUR"},
		"remitter": {"holderName": "ACME GmbH"},
		"newTransaction": false,
		"transactionType": {"key": "DIRECT_DEBIT", "text": "Direct Debit"},
		"bookingKey": "005"
	}`

	tx, err := DecodeAccountTransaction(mustParse(t, payload))
	require.NoError(t, err)
	assert.Equal(t, "R1", tx.ExternalID())
	assert.Equal(t, "ACME GmbH", tx.Counterparty())

	data, err := json.Marshal(tx)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"reference": "R1",
		"bookingStatus": "BOOKED",
		"bookingDate": {"date": "2024-03-01"},
		"amount": {"value": "-12.30", "unit": "EUR"},
		"remitter": {"holderName": "ACME GmbH"},
		"newTransaction": false,
		"transactionType": {"key": "DIRECT_DEBIT", "text": "Direct Debit"},
		"bookingKey": "005"
	}`, string(data))

	// The cached form decodes back to an equal record
	again, err := DecodeAccountTransaction(mustParse(t, string(data)))
	require.NoError(t, err)
	assert.Equal(t, tx.BookingDate.String(), again.BookingDate.String())
	assert.Equal(t, tx.Amount.ValueString(), again.Amount.ValueString())
	assert.Equal(t, tx.Extra, again.Extra)
}

func TestAccountTransaction_ExternalIDFallback(t *testing.T) {
	tx := &AccountTransaction{EndToEndReference: strPtr("E2E-1")}
	assert.Equal(t, "E2E-1", tx.ExternalID())

	tx.Reference = strPtr("")
	assert.Equal(t, "E2E-1", tx.ExternalID())

	assert.Equal(t, "", (&AccountTransaction{}).ExternalID())
}

func TestDecodeSessions(t *testing.T) {
	sessions, err := DecodeSessions(mustParse(t, `[{"id": 7, "identifier": "S1", "sessionTanActive": true, "activated2FA": false}, null]`))
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, int64(7), *sessions[0].ID)
	assert.True(t, *sessions[0].SessionTanActive)
	assert.False(t, *sessions[0].Activated2FA)

	_, err = DecodeSessions(mustParse(t, `[{"id": "seven"}]`))
	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)

	_, err = DecodeSessions(mustParse(t, `{"values": []}`))
	assert.ErrorAs(t, err, &decodeErr)
}

func strPtr(s string) *string {
	return &s
}
