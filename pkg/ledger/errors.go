package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientFunds is the sentinel matched by errors.Is against
	// *InsufficientFundsError.
	ErrInsufficientFunds = errors.New("ledger.errors.insufficient_funds")
	// ErrAccountNotFound is returned by reads of accounts that have
	// never been touched.
	ErrAccountNotFound = errors.New("ledger.errors.account_not_found")
	// ErrInvalidAmount is returned for zero or negative amounts.
	ErrInvalidAmount = errors.New("ledger.errors.invalid_amount")
	// ErrInvalidEntryType is returned for entry types other than
	// CREDIT and DEBIT.
	ErrInvalidEntryType = errors.New("ledger.errors.invalid_entry_type")
	// ErrAggregatorClosed is returned by fast-path writes after Close.
	ErrAggregatorClosed = errors.New("ledger.errors.aggregator_closed")
)

// InsufficientFundsError reports a rejected debit. Nothing is written
// when it is returned: no entry, no balance change.
type InsufficientFundsError struct {
	AccountType AccountType
	Required    decimal.Decimal
	Available   decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds in %s account: required %s, available %s",
		e.AccountType, e.Required, e.Available)
}

// Is lets errors.Is(err, ErrInsufficientFunds) match.
func (e *InsufficientFundsError) Is(target error) bool { return target == ErrInsufficientFunds }
