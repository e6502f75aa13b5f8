package testing

import (
	"github.com/aristath/bankmirror/internal/domain"
	"github.com/shopspring/decimal"
)

// Amount builds an AmountValue from a decimal string.
func Amount(value, unit string) *domain.AmountValue {
	d := decimal.RequireFromString(value)
	return &domain.AmountValue{Value: &d, Unit: &unit}
}

// NewBalanceFixture builds a balance for accountID.
func NewBalanceFixture(accountID, value, unit string) *domain.AccountBalance {
	return &domain.AccountBalance{
		AccountID: &accountID,
		Balance:   Amount(value, unit),
	}
}

// NewTransactionFixture builds a booked transaction identified by reference.
func NewTransactionFixture(reference, date, value string) *domain.AccountTransaction {
	booking, err := domain.DecodeDateString(date)
	if err != nil {
		panic(err)
	}
	status := "BOOKED"
	tx := &domain.AccountTransaction{
		BookingStatus: &status,
		BookingDate:   booking,
		Amount:        Amount(value, "EUR"),
	}
	if reference != "" {
		tx.Reference = &reference
	}
	return tx
}
