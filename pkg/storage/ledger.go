package storage

import (
	"context"
	"time"

	"github.com/resellpay/wallet-engine/pkg/models"
)

// WalletTotals holds the sums derived from a wallet's ledger partition.
// Completed is credits minus debits over completed entries; ReservedDebits is the
// sum of pending/hold debits, which are excluded from the balance but already
// committed against it.
type WalletTotals struct {
	Completed      int64
	ReservedDebits int64
}

// Spendable is the amount available to a new debit: the completed balance minus
// debits that are reserved but not yet finalized.
func (t WalletTotals) Spendable() int64 {
	return t.Completed - t.ReservedDebits
}

// LedgerStore defines the append-only store of ledger entries. Entries are never
// updated or deleted except for the pending/hold -> completed/failed status transition.
type LedgerStore interface {
	// PutEntry appends a new entry. It returns ErrDuplicateEntry if an entry with the
	// same ref_key already exists in the wallet's partition.
	PutEntry(ctx context.Context, entry *models.LedgerEntry) error

	// GetEntryByRefKey retrieves the entry with the given idempotency key in a wallet's
	// partition, or ErrEntryNotFound.
	GetEntryByRefKey(ctx context.Context, walletID, refKey string) (*models.LedgerEntry, error)

	// GetEntryByID retrieves an entry by its unique entry id, or ErrEntryNotFound.
	GetEntryByID(ctx context.Context, entryID string) (*models.LedgerEntry, error)

	// UpdateEntryStatus transitions an entry's status. The update only applies when the
	// current status is one of from; otherwise ErrStatusConflict is returned.
	UpdateEntryStatus(ctx context.Context, walletID, refKey string, from []models.EntryStatus, to models.EntryStatus) error

	// WalletTotals sums the wallet's ledger partition.
	WalletTotals(ctx context.Context, walletID string) (WalletTotals, error)

	// SumCompletedDebitsSince sums completed debits created at or after the given time.
	SumCompletedDebitsSince(ctx context.Context, walletID string, since time.Time) (int64, error)

	// ListEntries retrieves the most recent entries for a wallet.
	ListEntries(ctx context.Context, walletID string, limit int32) ([]models.LedgerEntry, error)
}
