package storage

import (
	"context"
	"time"

	"github.com/resellpay/wallet-engine/pkg/models"
)

// SettlementStore defines the interface for settlement state machine rows.
type SettlementStore interface {
	// CreateSettlementWithDebit persists the settlement row and its reserving ledger
	// debit in one atomic write. Either both rows exist afterwards or neither does.
	CreateSettlementWithDebit(ctx context.Context, s *models.Settlement, debit *models.LedgerEntry) error

	// GetSettlement retrieves a settlement by id, or ErrSettlementNotFound.
	GetSettlement(ctx context.Context, id string) (*models.Settlement, error)

	// UpdateSettlementStatus transitions a settlement's status. The update only applies
	// when the current status is one of from; otherwise ErrStatusConflict is returned.
	UpdateSettlementStatus(ctx context.Context, id string, from []models.SettlementStatus, to models.SettlementStatus, failureReason string) error

	// ListPendingT1Before retrieves pending T+1 settlements created before the cutoff.
	ListPendingT1Before(ctx context.Context, cutoff time.Time) ([]models.Settlement, error)

	// SumSettledSince sums settlement amounts (excluding failed ones) requested by the
	// user at or after the given time.
	SumSettledSince(ctx context.Context, userID string, since time.Time) (int64, error)
}
