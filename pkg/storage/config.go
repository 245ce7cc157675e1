package storage

import (
	"context"

	"github.com/resellpay/wallet-engine/pkg/models"
)

// LimitStore defines the interface for per-user limit configuration.
type LimitStore interface {
	// GetLimit retrieves the configured limit row for (user, wallet type, limit type).
	// A nil row with a nil error means no limit is configured.
	GetLimit(ctx context.Context, userID string, walletType models.WalletType, limitType models.LimitType) (*models.UserLimit, error)

	// PutLimit creates or replaces a limit row.
	PutLimit(ctx context.Context, limit *models.UserLimit) error
}

// SlabStore defines the interface for settlement charge slab configuration.
// Slabs are read-mostly configuration consulted without locking.
type SlabStore interface {
	// ListActiveSlabs retrieves all active slabs.
	ListActiveSlabs(ctx context.Context) ([]models.ChargeSlab, error)
}

// CommissionStore defines the interface for commission entries.
type CommissionStore interface {
	// PutCommission appends a commission entry.
	PutCommission(ctx context.Context, c *models.CommissionEntry) error
}

// AuditStore defines the append-only interface for admin audit records.
type AuditStore interface {
	// PutAudit appends an audit record.
	PutAudit(ctx context.Context, rec *models.AuditRecord) error

	// ListAudit retrieves the most recent audit records, optionally filtered to one
	// target user. An empty targetUserID returns records for all users.
	ListAudit(ctx context.Context, targetUserID string, limit int32) ([]models.AuditRecord, error)
}
