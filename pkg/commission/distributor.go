package commission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/resellpay/wallet-engine/pkg/ledger"
	"github.com/resellpay/wallet-engine/pkg/models"
	"github.com/resellpay/wallet-engine/pkg/storage"
	"github.com/shopspring/decimal"
)

// ErrNegativeMargin is returned when the MDR configuration yields a negative
// distributor margin. That is a configuration error, never silently floored to zero.
var ErrNegativeMargin = errors.New("negative distributor margin")

// ErrInvalidCapture is returned when a capture fails validation.
var ErrInvalidCapture = errors.New("invalid capture")

// Distributor splits a captured payment's MDR across the reseller hierarchy. Each
// party's credit is an independent, independently idempotent ledger Apply keyed by
// (payment id, role), so a partial failure is retried without re-crediting the
// parties that already succeeded.
type Distributor struct {
	ledger      *ledger.Engine
	commissions storage.CommissionStore
}

// New creates a new Distributor.
func New(ledgerEngine *ledger.Engine, commissions storage.CommissionStore) *Distributor {
	return &Distributor{ledger: ledgerEngine, commissions: commissions}
}

// Capture carries a captured transaction's pre-computed MDR result.
// Invariant: DistributorMargin = retailer fee - distributor fee, and must be >= 0.
type Capture struct {
	PaymentID     string
	TransactionID string
	ServiceType   string

	GrossAmount int64

	RetailerID          string
	DistributorID       string
	MasterDistributorID string

	RetailerFee       int64
	DistributorMargin int64
	CompanyEarning    int64

	RetailerRate    decimal.Decimal
	DistributorRate decimal.Decimal
}

func (c *Capture) validate() error {
	if c.PaymentID == "" {
		return fmt.Errorf("%w: payment id is required", ErrInvalidCapture)
	}
	if c.RetailerID == "" {
		return fmt.Errorf("%w: retailer id is required", ErrInvalidCapture)
	}
	if c.GrossAmount <= 0 {
		return fmt.Errorf("%w: gross amount must be positive", ErrInvalidCapture)
	}
	if c.RetailerFee < 0 || c.CompanyEarning < 0 {
		return fmt.Errorf("%w: fees must not be negative", ErrInvalidCapture)
	}
	if c.DistributorMargin < 0 {
		return fmt.Errorf("%w: margin %d for payment %s", ErrNegativeMargin, c.DistributorMargin, c.PaymentID)
	}
	if c.RetailerFee >= c.GrossAmount {
		return fmt.Errorf("%w: retailer fee %d consumes the gross amount %d", ErrInvalidCapture, c.RetailerFee, c.GrossAmount)
	}
	return nil
}

// Result reports the ledger entries created for a capture.
type Result struct {
	RetailerEntryID    string
	DistributorEntryID string
	CompanyEntryID     string
}

// Distribute credits the retailer with the net settlement amount, the distributor
// with the margin, and the master distributor with the company earning.
func (d *Distributor) Distribute(ctx context.Context, capture Capture) (*Result, error) {
	if err := capture.validate(); err != nil {
		return nil, err
	}

	var result Result

	retailerNet := capture.GrossAmount - capture.RetailerFee
	res, err := d.ledger.Apply(ctx, ledger.Draft{
		UserID:        capture.RetailerID,
		UserRole:      models.RoleRetailer,
		WalletType:    models.WalletPrimary,
		FundCategory:  models.FundSettlement,
		ServiceType:   capture.ServiceType,
		TxType:        models.TxSettlementCredit,
		Credit:        retailerNet,
		ReferenceID:   refFor(capture.PaymentID, models.RoleRetailer),
		TransactionID: capture.TransactionID,
		Status:        models.EntryCompleted,
		Remarks:       fmt.Sprintf("T0 settlement for payment %s", capture.PaymentID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to credit retailer: %w", err)
	}
	result.RetailerEntryID = res.EntryID

	if capture.DistributorID != "" && capture.DistributorMargin > 0 {
		entryID, err := d.creditCommission(ctx, capture, capture.DistributorID,
			models.RoleDistributor, capture.DistributorMargin, capture.DistributorRate)
		if err != nil {
			return nil, fmt.Errorf("failed to credit distributor: %w", err)
		}
		result.DistributorEntryID = entryID
	}

	if capture.MasterDistributorID != "" && capture.CompanyEarning > 0 {
		entryID, err := d.creditCommission(ctx, capture, capture.MasterDistributorID,
			models.RoleMasterDistributor, capture.CompanyEarning, capture.RetailerRate)
		if err != nil {
			return nil, fmt.Errorf("failed to credit master distributor: %w", err)
		}
		result.CompanyEntryID = entryID
	}

	return &result, nil
}

func refFor(paymentID string, role models.UserRole) string {
	return paymentID + "_" + string(role)
}

func (d *Distributor) creditCommission(ctx context.Context, capture Capture, userID string, role models.UserRole, amount int64, rate decimal.Decimal) (string, error) {
	res, err := d.ledger.Apply(ctx, ledger.Draft{
		UserID:        userID,
		UserRole:      role,
		WalletType:    models.WalletPrimary,
		FundCategory:  models.FundCommission,
		ServiceType:   capture.ServiceType,
		TxType:        models.TxCommission,
		Credit:        amount,
		ReferenceID:   refFor(capture.PaymentID, role),
		TransactionID: capture.TransactionID,
		Status:        models.EntryCompleted,
		Remarks:       fmt.Sprintf("MDR commission for payment %s", capture.PaymentID),
	})
	if err != nil {
		return "", err
	}

	// The commission row shares the credit's reference id, so a retry that replays
	// the ledger credit also converges on a single row. The row is written even on
	// replay: a previous attempt may have crashed between the credit and the row.
	commission := &models.CommissionEntry{
		ID:               refFor(capture.PaymentID, role),
		UserID:           userID,
		UserRole:         role,
		ServiceType:      capture.ServiceType,
		TransactionID:    capture.TransactionID,
		ReferenceID:      refFor(capture.PaymentID, role),
		MDRAmount:        capture.RetailerFee,
		CommissionRate:   rate,
		CommissionAmount: amount,
		Status:           models.CommissionCredited,
		LedgerEntryID:    res.EntryID,
		CreatedAt:        time.Now(),
	}
	if err := d.commissions.PutCommission(ctx, commission); err != nil {
		if errors.Is(err, storage.ErrDuplicateEntry) {
			return res.EntryID, nil
		}
		return "", fmt.Errorf("failed to record commission entry: %w", err)
	}

	return res.EntryID, nil
}
