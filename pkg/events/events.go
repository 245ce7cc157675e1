package events

import (
	"context"

	"github.com/resellpay/wallet-engine/pkg/models"
)

// EntryEvent is the message emitted for every committed ledger entry. Downstream
// consumers (reporting, notifications) read these instead of polling the ledger.
type EntryEvent struct {
	EntryID     string              `json:"entry_id"`
	UserID      string              `json:"user_id"`
	WalletType  models.WalletType   `json:"wallet_type"`
	TxType      models.TxType       `json:"tx_type"`
	Credit      int64               `json:"credit"`
	Debit       int64               `json:"debit"`
	ReferenceID string              `json:"reference_id"`
	Status      models.EntryStatus  `json:"status"`
	CreatedAt   string              `json:"created_at"` // ISO 8601 format
}

// Publisher defines the interface for emitting ledger entry events.
// Publishing is best-effort: the entry is already durable when Publish runs.
type Publisher interface {
	PublishEntry(ctx context.Context, entry *models.LedgerEntry) error
}

// Nop is a Publisher that discards events, for deployments without a broker.
type Nop struct{}

// PublishEntry discards the event.
func (Nop) PublishEntry(ctx context.Context, entry *models.LedgerEntry) error { return nil }

// Make sure we conform to the interface
var _ Publisher = Nop{}
