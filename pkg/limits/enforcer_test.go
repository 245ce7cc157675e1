package limits

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/resellpay/wallet-engine/pkg/models"
	"github.com/resellpay/wallet-engine/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEnforcer(t *testing.T) (*Enforcer, *memory.Store) {
	store := memory.New()
	enforcer := New(store, store, store)
	return enforcer, store
}

func putLimit(t *testing.T, store *memory.Store, limitType models.LimitType, amount int64, enabled, overridden bool) {
	t.Helper()
	err := store.PutLimit(context.Background(), &models.UserLimit{
		UserID:       "user-1",
		UserRole:     models.RoleRetailer,
		WalletType:   models.WalletPrimary,
		LimitType:    limitType,
		LimitAmount:  amount,
		IsEnabled:    enabled,
		IsOverridden: overridden,
	})
	require.NoError(t, err)
}

func putCompletedDebit(t *testing.T, store *memory.Store, amount int64, createdAt time.Time) {
	t.Helper()
	ref := ulid.Make().String()
	err := store.PutEntry(context.Background(), &models.LedgerEntry{
		EntryID:     ulid.Make().String(),
		WalletID:    models.WalletID("user-1", models.WalletPrimary),
		RefKey:      models.RefKeyFor(ref, models.TxDebit),
		UserID:      "user-1",
		TxType:      models.TxDebit,
		Debit:       amount,
		ReferenceID: ref,
		Status:      models.EntryCompleted,
		CreatedAt:   createdAt,
	})
	require.NoError(t, err)
}

func TestCheckLimits(t *testing.T) {
	ctx := context.Background()

	t.Run("No Limit Configured Passes", func(t *testing.T) {
		enforcer, _ := newTestEnforcer(t)
		err := enforcer.CheckLimits(ctx, "user-1", models.RoleRetailer, models.WalletPrimary, 1_000_000, models.LimitPerTransaction)
		assert.NoError(t, err)
	})

	t.Run("Disabled Limit Passes", func(t *testing.T) {
		enforcer, store := newTestEnforcer(t)
		putLimit(t, store, models.LimitPerTransaction, 100, false, false)
		err := enforcer.CheckLimits(ctx, "user-1", models.RoleRetailer, models.WalletPrimary, 5000, models.LimitPerTransaction)
		assert.NoError(t, err)
	})

	t.Run("Overridden Limit Passes", func(t *testing.T) {
		enforcer, store := newTestEnforcer(t)
		putLimit(t, store, models.LimitPerTransaction, 100, true, true)
		err := enforcer.CheckLimits(ctx, "user-1", models.RoleRetailer, models.WalletPrimary, 5000, models.LimitPerTransaction)
		assert.NoError(t, err)
	})

	t.Run("Limit For Another Role Does Not Apply", func(t *testing.T) {
		enforcer, store := newTestEnforcer(t)
		putLimit(t, store, models.LimitPerTransaction, 100, true, false)

		// The row was configured for a retailer; the same user acting as a
		// distributor is not capped by it.
		err := enforcer.CheckLimits(ctx, "user-1", models.RoleDistributor, models.WalletPrimary, 5000, models.LimitPerTransaction)
		assert.NoError(t, err)
	})

	t.Run("Per Transaction", func(t *testing.T) {
		enforcer, store := newTestEnforcer(t)
		putLimit(t, store, models.LimitPerTransaction, 5000, true, false)

		assert.NoError(t, enforcer.CheckLimits(ctx, "user-1", models.RoleRetailer, models.WalletPrimary, 5000, models.LimitPerTransaction))

		err := enforcer.CheckLimits(ctx, "user-1", models.RoleRetailer, models.WalletPrimary, 5001, models.LimitPerTransaction)
		var limitErr *LimitExceededError
		require.ErrorAs(t, err, &limitErr)
		assert.Equal(t, models.LimitPerTransaction, limitErr.LimitType)
		assert.Equal(t, int64(5000), limitErr.Limit)
		assert.Equal(t, int64(5001), limitErr.Requested)
	})

	t.Run("Daily Transaction Window", func(t *testing.T) {
		enforcer, store := newTestEnforcer(t)
		enforcer.now = func() time.Time {
			return time.Date(2026, time.September, 1, 15, 0, 0, 0, time.Local)
		}
		putLimit(t, store, models.LimitDailyTransaction, 5000, true, false)

		// 4500 already used today; yesterday's spend must not count.
		putCompletedDebit(t, store, 4500, time.Date(2026, time.September, 1, 9, 0, 0, 0, time.Local))
		putCompletedDebit(t, store, 9000, time.Date(2026, time.August, 31, 23, 0, 0, 0, time.Local))

		err := enforcer.CheckLimits(ctx, "user-1", models.RoleRetailer, models.WalletPrimary, 600, models.LimitDailyTransaction)
		var limitErr *LimitExceededError
		require.ErrorAs(t, err, &limitErr)
		assert.Equal(t, int64(4500), limitErr.Used)
		assert.Equal(t, int64(600), limitErr.Requested)

		assert.NoError(t, enforcer.CheckLimits(ctx, "user-1", models.RoleRetailer, models.WalletPrimary, 500, models.LimitDailyTransaction))
	})

	t.Run("Daily Settlement Window", func(t *testing.T) {
		enforcer, store := newTestEnforcer(t)
		enforcer.now = func() time.Time {
			return time.Date(2026, time.September, 1, 15, 0, 0, 0, time.Local)
		}
		putLimit(t, store, models.LimitDailySettlement, 100000, true, false)

		require.NoError(t, store.CreateSettlementWithDebit(ctx,
			&models.Settlement{
				ID:        "s-1",
				UserID:    "user-1",
				Mode:      models.SettlementInstant,
				Amount:    80000,
				Status:    models.SettlementSuccess,
				CreatedAt: time.Date(2026, time.September, 1, 10, 0, 0, 0, time.Local),
			},
			&models.LedgerEntry{
				EntryID:  ulid.Make().String(),
				WalletID: models.WalletID("user-1", models.WalletPrimary),
				RefKey:   models.RefKeyFor("s-1", models.TxSettlementDebit),
				Debit:    80000,
				Status:   models.EntryCompleted,
			},
		))

		err := enforcer.CheckLimits(ctx, "user-1", models.RoleRetailer, models.WalletPrimary, 30000, models.LimitDailySettlement)
		var limitErr *LimitExceededError
		require.ErrorAs(t, err, &limitErr)
		assert.Equal(t, int64(80000), limitErr.Used)

		assert.NoError(t, enforcer.CheckLimits(ctx, "user-1", models.RoleRetailer, models.WalletPrimary, 20000, models.LimitDailySettlement))
	})

	t.Run("Unknown Limit Type", func(t *testing.T) {
		enforcer, store := newTestEnforcer(t)
		putLimit(t, store, "weekly", 100, true, false)
		err := enforcer.CheckLimits(ctx, "user-1", models.RoleRetailer, models.WalletPrimary, 50, "weekly")
		assert.Error(t, err)
	})
}
