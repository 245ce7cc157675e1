package commission

import (
	"context"
	"errors"
	"testing"

	"github.com/resellpay/wallet-engine/pkg/events"
	"github.com/resellpay/wallet-engine/pkg/ledger"
	"github.com/resellpay/wallet-engine/pkg/locks"
	"github.com/resellpay/wallet-engine/pkg/models"
	"github.com/resellpay/wallet-engine/pkg/storage/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDistributor() (*Distributor, *ledger.Engine, *memory.Store) {
	store := memory.New()
	engine := ledger.New(store, store, locks.NewKeyedMutex(), events.Nop{})
	return New(engine, store), engine, store
}

// flakyCommissionStore fails the first PutCommission calls, standing in for a crash
// between the ledger credit and the commission row write.
type flakyCommissionStore struct {
	*memory.Store
	failures int
}

func (f *flakyCommissionStore) PutCommission(ctx context.Context, c *models.CommissionEntry) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("provisioned throughput exceeded")
	}
	return f.Store.PutCommission(ctx, c)
}

func newCapture() Capture {
	return Capture{
		PaymentID:           "pay-001",
		TransactionID:       "txn-001",
		ServiceType:         "pos",
		GrossAmount:         100000,
		RetailerID:          "retailer-1",
		DistributorID:       "distributor-1",
		MasterDistributorID: "master-1",
		RetailerFee:         1500,
		DistributorMargin:   500,
		CompanyEarning:      1000,
		RetailerRate:        decimal.NewFromFloat(1.5),
		DistributorRate:     decimal.NewFromFloat(0.5),
	}
}

func TestDistribute(t *testing.T) {
	ctx := context.Background()

	t.Run("Full Split", func(t *testing.T) {
		dist, engine, store := newTestDistributor()

		result, err := dist.Distribute(ctx, newCapture())
		require.NoError(t, err)
		assert.NotEmpty(t, result.RetailerEntryID)
		assert.NotEmpty(t, result.DistributorEntryID)
		assert.NotEmpty(t, result.CompanyEntryID)

		retailerBalance, err := engine.GetBalance(ctx, "retailer-1", models.WalletPrimary)
		require.NoError(t, err)
		assert.Equal(t, int64(98500), retailerBalance)

		distributorBalance, err := engine.GetBalance(ctx, "distributor-1", models.WalletPrimary)
		require.NoError(t, err)
		assert.Equal(t, int64(500), distributorBalance)

		masterBalance, err := engine.GetBalance(ctx, "master-1", models.WalletPrimary)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), masterBalance)

		// One commission row per commission credit, linked to its ledger entry.
		commissions := store.Commissions()
		require.Len(t, commissions, 2)
		for _, c := range commissions {
			assert.Equal(t, models.CommissionCredited, c.Status)
			assert.NotEmpty(t, c.LedgerEntryID)
			assert.Equal(t, "txn-001", c.TransactionID)
		}
	})

	t.Run("Retry Is Idempotent", func(t *testing.T) {
		dist, engine, store := newTestDistributor()

		first, err := dist.Distribute(ctx, newCapture())
		require.NoError(t, err)

		second, err := dist.Distribute(ctx, newCapture())
		require.NoError(t, err)
		assert.Equal(t, first.RetailerEntryID, second.RetailerEntryID)
		assert.Equal(t, first.DistributorEntryID, second.DistributorEntryID)
		assert.Equal(t, first.CompanyEntryID, second.CompanyEntryID)

		retailerBalance, err := engine.GetBalance(ctx, "retailer-1", models.WalletPrimary)
		require.NoError(t, err)
		assert.Equal(t, int64(98500), retailerBalance)

		// No duplicate commission rows on replay.
		assert.Len(t, store.Commissions(), 2)
	})

	t.Run("Commission Row Recovered On Retry", func(t *testing.T) {
		store := memory.New()
		engine := ledger.New(store, store, locks.NewKeyedMutex(), events.Nop{})
		flaky := &flakyCommissionStore{Store: store, failures: 1}
		dist := New(engine, flaky)

		// First attempt credits the distributor's ledger but loses the commission row.
		_, err := dist.Distribute(ctx, newCapture())
		require.Error(t, err)

		result, err := dist.Distribute(ctx, newCapture())
		require.NoError(t, err)
		assert.NotEmpty(t, result.DistributorEntryID)

		// The replayed credit did not double-pay, and the row now exists.
		distributorBalance, err := engine.GetBalance(ctx, "distributor-1", models.WalletPrimary)
		require.NoError(t, err)
		assert.Equal(t, int64(500), distributorBalance)
		assert.Len(t, store.Commissions(), 2)
	})

	t.Run("Negative Margin Rejected", func(t *testing.T) {
		dist, _, _ := newTestDistributor()

		capture := newCapture()
		capture.DistributorMargin = -100
		_, err := dist.Distribute(ctx, capture)
		assert.ErrorIs(t, err, ErrNegativeMargin)
	})

	t.Run("Missing Hierarchy Levels Are Skipped", func(t *testing.T) {
		dist, engine, store := newTestDistributor()

		capture := newCapture()
		capture.DistributorID = ""
		capture.MasterDistributorID = ""
		result, err := dist.Distribute(ctx, capture)
		require.NoError(t, err)
		assert.NotEmpty(t, result.RetailerEntryID)
		assert.Empty(t, result.DistributorEntryID)
		assert.Empty(t, result.CompanyEntryID)

		retailerBalance, err := engine.GetBalance(ctx, "retailer-1", models.WalletPrimary)
		require.NoError(t, err)
		assert.Equal(t, int64(98500), retailerBalance)
		assert.Empty(t, store.Commissions())
	})

	t.Run("Validation", func(t *testing.T) {
		dist, _, _ := newTestDistributor()

		capture := newCapture()
		capture.PaymentID = ""
		_, err := dist.Distribute(ctx, capture)
		assert.ErrorIs(t, err, ErrInvalidCapture)

		capture = newCapture()
		capture.GrossAmount = 0
		_, err = dist.Distribute(ctx, capture)
		assert.ErrorIs(t, err, ErrInvalidCapture)

		capture = newCapture()
		capture.RetailerFee = capture.GrossAmount
		_, err = dist.Distribute(ctx, capture)
		assert.ErrorIs(t, err, ErrInvalidCapture)
	})
}
