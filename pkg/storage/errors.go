package storage

import (
	"errors"
	"fmt"
)

// ErrInsufficientFunds is returned when a wallet's spendable balance cannot cover a debit.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrWalletFrozen is returned when an operation targets a frozen wallet.
var ErrWalletFrozen = errors.New("wallet is frozen")

// ErrSettlementHeld is returned when a settlement is requested for a wallet under settlement hold.
var ErrSettlementHeld = errors.New("settlements are held for this wallet")

// ErrDuplicateEntry is returned when a ledger entry with the same (reference_id, tx_type)
// already exists for the wallet.
var ErrDuplicateEntry = errors.New("duplicate ledger entry")

// ErrEntryNotFound is returned when a ledger entry lookup finds nothing.
var ErrEntryNotFound = errors.New("ledger entry not found")

// ErrWalletNotFound is returned when a wallet lookup finds nothing.
var ErrWalletNotFound = errors.New("wallet not found")

// ErrSettlementNotFound is returned when a settlement lookup finds nothing.
var ErrSettlementNotFound = errors.New("settlement not found")

// ErrStatusConflict is returned when a status transition's precondition does not hold,
// e.g. finalizing an entry that is no longer pending.
var ErrStatusConflict = errors.New("status transition conflict")

// InsufficientFundsError carries the shortfall so callers can surface
// available vs required to the user. It matches ErrInsufficientFunds in errors.Is.
type InsufficientFundsError struct {
	Available int64
	Required  int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %d, required %d", e.Available, e.Required)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}
