package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/resellpay/wallet-engine/pkg/events"
	"github.com/resellpay/wallet-engine/pkg/locks"
	"github.com/resellpay/wallet-engine/pkg/models"
	"github.com/resellpay/wallet-engine/pkg/storage"
	"github.com/resellpay/wallet-engine/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() (*Engine, *memory.Store) {
	store := memory.New()
	return New(store, store, locks.NewKeyedMutex(), events.Nop{}), store
}

func creditDraft(userID, ref string, amount int64) Draft {
	return Draft{
		UserID:       userID,
		UserRole:     models.RoleRetailer,
		WalletType:   models.WalletPrimary,
		FundCategory: models.FundCash,
		ServiceType:  "topup",
		TxType:       models.TxCredit,
		Credit:       amount,
		ReferenceID:  ref,
	}
}

func debitDraft(userID, ref string, amount int64) Draft {
	return Draft{
		UserID:       userID,
		UserRole:     models.RoleRetailer,
		WalletType:   models.WalletPrimary,
		FundCategory: models.FundCash,
		ServiceType:  "payout",
		TxType:       models.TxDebit,
		Debit:        amount,
		ReferenceID:  ref,
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()

	t.Run("Credit Then Debit", func(t *testing.T) {
		engine, _ := newTestEngine()

		res, err := engine.Apply(ctx, creditDraft("user-1", "TOPUP_1", 10000))
		require.NoError(t, err)
		assert.Equal(t, int64(10000), res.Balance)
		assert.False(t, res.Replayed)

		res, err = engine.Apply(ctx, debitDraft("user-1", "PAYOUT_1", 4000))
		require.NoError(t, err)
		assert.Equal(t, int64(6000), res.Balance)
	})

	t.Run("Replay Returns Original Entry", func(t *testing.T) {
		engine, _ := newTestEngine()

		first, err := engine.Apply(ctx, creditDraft("user-1", "TOPUP_1", 10000))
		require.NoError(t, err)

		second, err := engine.Apply(ctx, creditDraft("user-1", "TOPUP_1", 10000))
		require.NoError(t, err)
		assert.True(t, second.Replayed)
		assert.Equal(t, first.EntryID, second.EntryID)
		assert.Equal(t, int64(10000), second.Balance)
	})

	t.Run("Same Reference Different TxType Is A New Entry", func(t *testing.T) {
		engine, _ := newTestEngine()

		_, err := engine.Apply(ctx, creditDraft("user-1", "REF_1", 10000))
		require.NoError(t, err)

		res, err := engine.Apply(ctx, debitDraft("user-1", "REF_1", 3000))
		require.NoError(t, err)
		assert.False(t, res.Replayed)
		assert.Equal(t, int64(7000), res.Balance)
	})

	t.Run("Insufficient Funds", func(t *testing.T) {
		engine, _ := newTestEngine()

		_, err := engine.Apply(ctx, creditDraft("user-1", "TOPUP_1", 1000))
		require.NoError(t, err)

		_, err = engine.Apply(ctx, debitDraft("user-1", "PAYOUT_1", 1500))
		require.Error(t, err)
		assert.ErrorIs(t, err, storage.ErrInsufficientFunds)

		var fundsErr *storage.InsufficientFundsError
		require.ErrorAs(t, err, &fundsErr)
		assert.Equal(t, int64(1000), fundsErr.Available)
		assert.Equal(t, int64(1500), fundsErr.Required)
	})

	t.Run("Reserved Debits Reduce Spendable", func(t *testing.T) {
		engine, _ := newTestEngine()

		_, err := engine.Apply(ctx, creditDraft("user-1", "TOPUP_1", 10000))
		require.NoError(t, err)

		hold := debitDraft("user-1", "HOLD_1", 6000)
		hold.Status = models.EntryHold
		res, err := engine.Apply(ctx, hold)
		require.NoError(t, err)
		// Reserved debits do not change the completed balance.
		assert.Equal(t, int64(10000), res.Balance)

		// But they are committed against it.
		_, err = engine.Apply(ctx, debitDraft("user-1", "PAYOUT_1", 5000))
		assert.ErrorIs(t, err, storage.ErrInsufficientFunds)

		_, err = engine.Apply(ctx, debitDraft("user-1", "PAYOUT_2", 4000))
		assert.NoError(t, err)
	})

	t.Run("Frozen Wallet Rejected", func(t *testing.T) {
		engine, store := newTestEngine()

		_, err := engine.Apply(ctx, creditDraft("user-1", "TOPUP_1", 1000))
		require.NoError(t, err)
		require.NoError(t, store.SetFrozen(ctx, "user-1", models.WalletPrimary, true))

		_, err = engine.Apply(ctx, creditDraft("user-1", "TOPUP_2", 1000))
		assert.ErrorIs(t, err, storage.ErrWalletFrozen)
	})

	t.Run("Invalid Drafts", func(t *testing.T) {
		engine, _ := newTestEngine()

		both := creditDraft("user-1", "REF_1", 100)
		both.Debit = 100
		_, err := engine.Apply(ctx, both)
		assert.ErrorIs(t, err, ErrInvalidDraft)

		neither := creditDraft("user-1", "REF_2", 0)
		_, err = engine.Apply(ctx, neither)
		assert.ErrorIs(t, err, ErrInvalidDraft)

		noRef := creditDraft("user-1", "", 100)
		_, err = engine.Apply(ctx, noRef)
		assert.ErrorIs(t, err, ErrInvalidDraft)

		failed := creditDraft("user-1", "REF_3", 100)
		failed.Status = models.EntryFailed
		_, err = engine.Apply(ctx, failed)
		assert.ErrorIs(t, err, ErrInvalidDraft)

		badWallet := creditDraft("user-1", "REF_4", 100)
		badWallet.WalletType = "savings"
		_, err = engine.Apply(ctx, badWallet)
		assert.ErrorIs(t, err, ErrInvalidDraft)
	})

	t.Run("Wallets Are Isolated", func(t *testing.T) {
		engine, _ := newTestEngine()

		_, err := engine.Apply(ctx, creditDraft("user-1", "TOPUP_1", 5000))
		require.NoError(t, err)

		aeps := creditDraft("user-1", "AEPS_1", 2000)
		aeps.WalletType = models.WalletAeps
		aeps.FundCategory = models.FundAeps
		_, err = engine.Apply(ctx, aeps)
		require.NoError(t, err)

		primary, err := engine.GetBalance(ctx, "user-1", models.WalletPrimary)
		require.NoError(t, err)
		assert.Equal(t, int64(5000), primary)

		aepsBalance, err := engine.GetBalance(ctx, "user-1", models.WalletAeps)
		require.NoError(t, err)
		assert.Equal(t, int64(2000), aepsBalance)
	})
}

func TestApplyConcurrent(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine()

	_, err := engine.Apply(ctx, creditDraft("user-1", "TOPUP_1", 10000))
	require.NoError(t, err)

	// 100 concurrent debits of 500 against a 10000 balance: exactly 20 can win.
	const attempts = 100
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Apply(ctx, debitDraft("user-1", fmt.Sprintf("PAYOUT_%d", i), 500))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, storage.ErrInsufficientFunds)
		}
	}
	assert.Equal(t, 20, succeeded)

	balance, err := engine.GetBalance(ctx, "user-1", models.WalletPrimary)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestFinalizeEntry(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine()

	_, err := engine.Apply(ctx, creditDraft("user-1", "TOPUP_1", 10000))
	require.NoError(t, err)

	pending := debitDraft("user-1", "PAYOUT_1", 4000)
	pending.Status = models.EntryPending
	_, err = engine.Apply(ctx, pending)
	require.NoError(t, err)

	walletID := models.WalletID("user-1", models.WalletPrimary)
	refKey := models.RefKeyFor("PAYOUT_1", models.TxDebit)

	require.NoError(t, engine.FinalizeEntry(ctx, walletID, refKey))

	balance, err := engine.GetBalance(ctx, "user-1", models.WalletPrimary)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), balance)

	// Finalizing twice conflicts on the status guard.
	err = engine.FinalizeEntry(ctx, walletID, refKey)
	assert.ErrorIs(t, err, storage.ErrStatusConflict)

	entry, err := store.GetEntryByRefKey(ctx, walletID, refKey)
	require.NoError(t, err)
	assert.Equal(t, models.EntryCompleted, entry.Status)
}
