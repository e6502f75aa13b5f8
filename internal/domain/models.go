// Package domain provides the banking records returned by the upstream API
// and the permissive decoders that build them from generic JSON values.
package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Account is the master data of an account.
type Account struct {
	AccountID        *string         `json:"accountId,omitempty"`
	AccountDisplayID *string         `json:"accountDisplayId,omitempty"`
	Currency         *CurrencyString `json:"currency,omitempty"`
	ClientID         *string         `json:"clientId,omitempty"`
	AccountType      *EnumText       `json:"accountType,omitempty"`
	IBAN             *string         `json:"iban,omitempty"`
	CreditLimit      *AmountValue    `json:"creditLimit,omitempty"`

	Extra map[string]any `json:"-"`
}

var accountKeys = []string{"accountId", "accountDisplayId", "currency", "clientId", "accountType", "iban", "creditLimit"}

func DecodeAccount(v any) (*Account, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *Account:
		return t, nil
	case Account:
		return &t, nil
	}

	obj, err := asObject(v, "Account")
	if err != nil {
		return nil, err
	}

	a := &Account{
		AccountID:        optString(obj["accountId"]),
		AccountDisplayID: optString(obj["accountDisplayId"]),
		ClientID:         optString(obj["clientId"]),
		IBAN:             optString(obj["iban"]),
		Extra:            collectExtra(obj, accountKeys...),
	}
	if a.Currency, err = DecodeCurrencyString(obj["currency"]); err != nil {
		return nil, err
	}
	if a.AccountType, err = DecodeEnumText(obj["accountType"]); err != nil {
		return nil, err
	}
	if a.CreditLimit, err = DecodeAmountValue(obj["creditLimit"]); err != nil {
		return nil, err
	}
	return a, nil
}

func (a Account) MarshalJSON() ([]byte, error) {
	type plain Account
	return marshalWithExtra(plain(a), a.Extra)
}

// AccountBalance carries the cash balance and buying power of an account.
type AccountBalance struct {
	Account                *Account     `json:"account,omitempty"`
	AccountID              *string      `json:"accountId,omitempty"`
	Balance                *AmountValue `json:"balance,omitempty"`
	BalanceEUR             *AmountValue `json:"balanceEUR,omitempty"`
	AvailableCashAmount    *AmountValue `json:"availableCashAmount,omitempty"`
	AvailableCashAmountEUR *AmountValue `json:"availableCashAmountEUR,omitempty"`

	Extra map[string]any `json:"-"`
}

var balanceKeys = []string{"account", "accountId", "balance", "balanceEUR", "availableCashAmount", "availableCashAmountEUR"}

func DecodeAccountBalance(v any) (*AccountBalance, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *AccountBalance:
		return t, nil
	case AccountBalance:
		return &t, nil
	}

	obj, err := asObject(v, "AccountBalance")
	if err != nil {
		return nil, err
	}

	b := &AccountBalance{
		AccountID: optString(obj["accountId"]),
		Extra:     collectExtra(obj, balanceKeys...),
	}
	if b.Account, err = DecodeAccount(obj["account"]); err != nil {
		return nil, err
	}
	amounts := []struct {
		key string
		dst **AmountValue
	}{
		{"balance", &b.Balance},
		{"balanceEUR", &b.BalanceEUR},
		{"availableCashAmount", &b.AvailableCashAmount},
		{"availableCashAmountEUR", &b.AvailableCashAmountEUR},
	}
	for _, f := range amounts {
		if *f.dst, err = DecodeAmountValue(obj[f.key]); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (b AccountBalance) MarshalJSON() ([]byte, error) {
	type plain AccountBalance
	return marshalWithExtra(plain(b), b.Extra)
}

// ResolvedAccountID returns accountId, falling back to the nested account.
func (b *AccountBalance) ResolvedAccountID() string {
	if b.AccountID != nil && *b.AccountID != "" {
		return *b.AccountID
	}
	if b.Account != nil && b.Account.AccountID != nil {
		return *b.Account.AccountID
	}
	return ""
}

// PrimaryAmount returns the booked balance, falling back to available cash.
// The currency follows the same preference independently of the amount.
func (b *AccountBalance) PrimaryAmount() (*decimal.Decimal, string) {
	var amount *decimal.Decimal
	switch {
	case b.Balance != nil && b.Balance.Value != nil:
		amount = b.Balance.Value
	case b.AvailableCashAmount != nil && b.AvailableCashAmount.Value != nil:
		amount = b.AvailableCashAmount.Value
	}

	currency := b.Balance.UnitString()
	if currency == "" {
		currency = b.AvailableCashAmount.UnitString()
	}
	return amount, currency
}

// ListResourceAccountBalance is the paged envelope of account balances.
type ListResourceAccountBalance struct {
	Paging     *PagingInfo       `json:"paging,omitempty"`
	Aggregated *AggregatedInfo   `json:"aggregated,omitempty"`
	Values     []*AccountBalance `json:"values"`
}

func DecodeListResourceAccountBalance(v any) (*ListResourceAccountBalance, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *ListResourceAccountBalance:
		return t, nil
	case ListResourceAccountBalance:
		return &t, nil
	}

	obj, err := asObject(v, "ListResourceAccountBalance")
	if err != nil {
		return nil, err
	}

	out := &ListResourceAccountBalance{Values: []*AccountBalance{}}
	if out.Paging, err = DecodePagingInfo(obj["paging"]); err != nil {
		return nil, err
	}
	if out.Aggregated, err = DecodeAggregatedInfo(obj["aggregated"]); err != nil {
		return nil, err
	}
	items, err := listValues(obj["values"], "ListResourceAccountBalance.values")
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		b, err := DecodeAccountBalance(item)
		if err != nil {
			return nil, err
		}
		out.Values = append(out.Values, b)
	}
	return out, nil
}

// AccountTransaction is a single booked or pending account movement.
type AccountTransaction struct {
	Reference             *string             `json:"reference,omitempty"`
	BookingStatus         *string             `json:"bookingStatus,omitempty"`
	BookingDate           *DateString         `json:"bookingDate,omitempty"`
	Amount                *AmountValue        `json:"amount,omitempty"`
	Remitter              *AccountInformation `json:"remitter,omitempty"`
	Deptor                *AccountInformation `json:"deptor,omitempty"`
	Creditor              *AccountInformation `json:"creditor,omitempty"`
	ValutaDate            *string             `json:"valutaDate,omitempty"`
	DirectDebitCreditorID *string             `json:"directDebitCreditorId,omitempty"`
	DirectDebitMandateID  *string             `json:"directDebitMandateId,omitempty"`
	EndToEndReference     *string             `json:"endToEndReference,omitempty"`
	NewTransaction        *bool               `json:"newTransaction,omitempty"`
	RemittanceInfo        *string             `json:"remittanceInfo,omitempty"`
	TransactionType       *EnumText           `json:"transactionType,omitempty"`

	Extra map[string]any `json:"-"`
}

var transactionKeys = []string{
	"reference", "bookingStatus", "bookingDate", "amount", "remitter", "deptor", "creditor",
	"valutaDate", "directDebitCreditorId", "directDebitMandateId", "endToEndReference",
	"newTransaction", "remittanceInfo", "transactionType",
}

func DecodeAccountTransaction(v any) (*AccountTransaction, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *AccountTransaction:
		return t, nil
	case AccountTransaction:
		return &t, nil
	}

	obj, err := asObject(v, "AccountTransaction")
	if err != nil {
		return nil, err
	}

	tx := &AccountTransaction{
		Reference:             optString(obj["reference"]),
		BookingStatus:         optString(obj["bookingStatus"]),
		ValutaDate:            optString(obj["valutaDate"]),
		DirectDebitCreditorID: optString(obj["directDebitCreditorId"]),
		DirectDebitMandateID:  optString(obj["directDebitMandateId"]),
		EndToEndReference:     optString(obj["endToEndReference"]),
		RemittanceInfo:        optString(obj["remittanceInfo"]),
		Extra:                 collectExtra(obj, transactionKeys...),
	}
	if tx.BookingDate, err = DecodeDateString(obj["bookingDate"]); err != nil {
		return nil, err
	}
	if tx.Amount, err = DecodeAmountValue(obj["amount"]); err != nil {
		return nil, err
	}
	if tx.Remitter, err = DecodeAccountInformation(obj["remitter"]); err != nil {
		return nil, err
	}
	if tx.Deptor, err = DecodeAccountInformation(obj["deptor"]); err != nil {
		return nil, err
	}
	if tx.Creditor, err = DecodeAccountInformation(obj["creditor"]); err != nil {
		return nil, err
	}
	if tx.NewTransaction, err = optBool(obj["newTransaction"], "AccountTransaction.newTransaction"); err != nil {
		return nil, err
	}
	if tx.TransactionType, err = DecodeEnumText(obj["transactionType"]); err != nil {
		return nil, err
	}
	return tx, nil
}

func (t AccountTransaction) MarshalJSON() ([]byte, error) {
	type plain AccountTransaction
	return marshalWithExtra(plain(t), t.Extra)
}

// ExternalID is the reference, falling back to the end-to-end reference.
// Empty means the transaction cannot be deduplicated.
func (t *AccountTransaction) ExternalID() string {
	if t.Reference != nil && *t.Reference != "" {
		return *t.Reference
	}
	if t.EndToEndReference != nil {
		return *t.EndToEndReference
	}
	return ""
}

// Counterparty returns whoever is on the other side of the movement.
func (t *AccountTransaction) Counterparty() string {
	for _, info := range []*AccountInformation{t.Remitter, t.Creditor, t.Deptor} {
		if s := info.String(); s != "" {
			return s
		}
	}
	return ""
}

// ListResourceAccountTransaction is the paged envelope of transactions.
type ListResourceAccountTransaction struct {
	Paging     *PagingInfo           `json:"paging,omitempty"`
	Aggregated *AggregatedInfo       `json:"aggregated,omitempty"`
	Values     []*AccountTransaction `json:"values"`
}

func DecodeListResourceAccountTransaction(v any) (*ListResourceAccountTransaction, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *ListResourceAccountTransaction:
		return t, nil
	case ListResourceAccountTransaction:
		return &t, nil
	}

	obj, err := asObject(v, "ListResourceAccountTransaction")
	if err != nil {
		return nil, err
	}

	out := &ListResourceAccountTransaction{Values: []*AccountTransaction{}}
	if out.Paging, err = DecodePagingInfo(obj["paging"]); err != nil {
		return nil, err
	}
	if out.Aggregated, err = DecodeAggregatedInfo(obj["aggregated"]); err != nil {
		return nil, err
	}
	items, err := listValues(obj["values"], "ListResourceAccountTransaction.values")
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		tx, err := DecodeAccountTransaction(item)
		if err != nil {
			return nil, err
		}
		out.Values = append(out.Values, tx)
	}
	return out, nil
}

// listValues returns the non-nil elements of a JSON array. A missing array is empty.
func listValues(v any, target string) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, decodeErr(target, v, nil)
	}
	out := make([]any, 0, len(arr))
	for _, item := range arr {
		if item != nil {
			out = append(out, item)
		}
	}
	return out, nil
}

// Session is a login session of the upstream API.
type Session struct {
	ID               *int64  `json:"id,omitempty"`
	Identifier       *string `json:"identifier,omitempty"`
	SessionTanActive *bool   `json:"sessionTanActive,omitempty"`
	Activated2FA     *bool   `json:"activated2FA,omitempty"`

	Extra map[string]any `json:"-"`
}

var sessionKeys = []string{"id", "identifier", "sessionTanActive", "activated2FA"}

func DecodeSession(v any) (*Session, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *Session:
		return t, nil
	case Session:
		return &t, nil
	}

	obj, err := asObject(v, "Session")
	if err != nil {
		return nil, err
	}

	s := &Session{
		Identifier: optString(obj["identifier"]),
		Extra:      collectExtra(obj, sessionKeys...),
	}
	if s.ID, err = optInt(obj["id"], "Session.id"); err != nil {
		return nil, err
	}
	if s.SessionTanActive, err = optBool(obj["sessionTanActive"], "Session.sessionTanActive"); err != nil {
		return nil, err
	}
	if s.Activated2FA, err = optBool(obj["activated2FA"], "Session.activated2FA"); err != nil {
		return nil, err
	}
	return s, nil
}

func (s Session) MarshalJSON() ([]byte, error) {
	type plain Session
	return marshalWithExtra(plain(s), s.Extra)
}

// DecodeSessions decodes the bare JSON array returned by the sessions endpoint.
func DecodeSessions(v any) ([]*Session, error) {
	items, err := listValues(v, "[]Session")
	if err != nil {
		return nil, err
	}
	out := make([]*Session, 0, len(items))
	for _, item := range items {
		s, err := DecodeSession(item)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// MarshalRaw encodes a record for the cache's raw payload column.
func MarshalRaw(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
