package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/resellpay/wallet-engine/pkg/ledger"
	"github.com/resellpay/wallet-engine/pkg/limits"
	"github.com/resellpay/wallet-engine/pkg/locks"
	"github.com/resellpay/wallet-engine/pkg/models"
	"github.com/resellpay/wallet-engine/pkg/storage"
)

// ErrInvalidRequest is returned when a settlement request fails validation.
var ErrInvalidRequest = errors.New("invalid settlement request")

// DefaultCharge applies when no active slab matches the amount. In paise.
const DefaultCharge int64 = 1000

// Engine drives the settlement state machine:
// pending -> processing -> success (instant) or pending -> success (T+1), with
// failed reachable from pending/processing.
type Engine struct {
	settlements storage.SettlementStore
	slabs       storage.SlabStore
	wallets     storage.WalletStore
	ledgerStore storage.LedgerStore
	ledger      *ledger.Engine
	enforcer    *limits.Enforcer
	locker      locks.Locker
	scheduler   Scheduler
	transferer  Transferer

	defaultCharge int64
}

// Transferer is the bank-transfer boundary consumed at finalization time.
type Transferer interface {
	Transfer(ctx context.Context, s *models.Settlement) error
}

// Scheduler enqueues a settlement id for asynchronous finalization.
type Scheduler interface {
	ScheduleFinalization(ctx context.Context, settlementID string) error
}

// New creates a new settlement Engine. The scheduler may be nil, in which case
// release and batch runs finalize inline instead of enqueueing.
func New(
	settlements storage.SettlementStore,
	slabs storage.SlabStore,
	wallets storage.WalletStore,
	ledgerStore storage.LedgerStore,
	ledgerEngine *ledger.Engine,
	enforcer *limits.Enforcer,
	locker locks.Locker,
	sched Scheduler,
	transferer Transferer,
) *Engine {
	return &Engine{
		settlements:   settlements,
		slabs:         slabs,
		wallets:       wallets,
		ledgerStore:   ledgerStore,
		ledger:        ledgerEngine,
		enforcer:      enforcer,
		locker:        locker,
		scheduler:     sched,
		transferer:    transferer,
		defaultCharge: DefaultCharge,
	}
}

// CreateRequest describes a new settlement.
type CreateRequest struct {
	UserID            string
	UserRole          models.UserRole
	Amount            int64
	Mode              models.SettlementMode
	BankAccountNumber string
	BankIFSC          string
	BankAccountName   string
}

func (r *CreateRequest) validate() error {
	if r.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	}
	if r.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}
	if !r.UserRole.Valid() {
		return fmt.Errorf("%w: unrecognized user role %q", ErrInvalidRequest, r.UserRole)
	}
	if r.Mode != models.SettlementInstant && r.Mode != models.SettlementT1 {
		return fmt.Errorf("%w: unrecognized settlement mode %q", ErrInvalidRequest, r.Mode)
	}
	if r.BankAccountNumber == "" || r.BankIFSC == "" {
		return fmt.Errorf("%w: bank account number and IFSC are required", ErrInvalidRequest)
	}
	return nil
}

// CreateSettlement computes the slab charge, verifies limits and balance, and creates
// the settlement row together with one reserving ledger debit of the gross amount.
// The debit is recorded as hold (T+1) or pending (instant): excluded from the balance
// but already committed against it, so the reserved funds cannot be spent twice.
func (e *Engine) CreateSettlement(ctx context.Context, req CreateRequest) (*models.Settlement, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	wallet, err := e.wallets.EnsureWallet(ctx, req.UserID, models.WalletPrimary)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure wallet: %w", err)
	}
	if wallet.IsFrozen {
		return nil, storage.ErrWalletFrozen
	}
	if wallet.IsSettlementHeld {
		return nil, storage.ErrSettlementHeld
	}

	slabs, err := e.slabs.ListActiveSlabs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load charge slabs: %w", err)
	}
	charge, err := ComputeCharge(slabs, req.Amount, e.defaultCharge)
	if err != nil {
		return nil, err
	}

	if err := e.enforcer.CheckLimits(ctx, req.UserID, req.UserRole, models.WalletPrimary, req.Amount, models.LimitDailySettlement); err != nil {
		return nil, err
	}

	walletID := models.WalletID(req.UserID, models.WalletPrimary)

	unlock, err := e.locker.Lock(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock wallet %s: %w", walletID, err)
	}
	defer unlock.Unlock()

	totals, err := e.ledgerStore.WalletTotals(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance: %w", err)
	}
	if totals.Spendable() < req.Amount {
		return nil, &storage.InsufficientFundsError{Available: totals.Spendable(), Required: req.Amount}
	}

	now := time.Now()
	idempotencyKey := fmt.Sprintf("SETTLE_%s_%d_%s", req.UserID, now.Unix(), uuid.New().String()[:8])

	debitStatus := models.EntryPending
	if req.Mode == models.SettlementT1 {
		debitStatus = models.EntryHold
	}

	settlement := &models.Settlement{
		ID:                uuid.New().String(),
		UserID:            req.UserID,
		UserRole:          req.UserRole,
		Mode:              req.Mode,
		Amount:            req.Amount,
		Charge:            charge,
		NetAmount:         req.Amount - charge,
		BankAccountNumber: req.BankAccountNumber,
		BankIFSC:          req.BankIFSC,
		BankAccountName:   req.BankAccountName,
		Status:            models.SettlementPending,
		IdempotencyKey:    idempotencyKey,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	debit := &models.LedgerEntry{
		EntryID:      ulid.Make().String(),
		WalletID:     walletID,
		RefKey:       models.RefKeyFor(idempotencyKey, models.TxSettlementDebit),
		UserID:       req.UserID,
		UserRole:     req.UserRole,
		WalletType:   models.WalletPrimary,
		FundCategory: models.FundSettlement,
		ServiceType:  "settlement",
		TxType:       models.TxSettlementDebit,
		Debit:        req.Amount,
		ReferenceID:  idempotencyKey,
		Status:       debitStatus,
		Remarks:      fmt.Sprintf("settlement %s (%s)", settlement.ID, req.Mode),
		CreatedAt:    now,
	}
	settlement.LedgerEntryID = debit.EntryID

	if err := e.settlements.CreateSettlementWithDebit(ctx, settlement, debit); err != nil {
		return nil, fmt.Errorf("failed to create settlement: %w", err)
	}

	if req.Mode == models.SettlementInstant {
		err := e.settlements.UpdateSettlementStatus(ctx, settlement.ID,
			[]models.SettlementStatus{models.SettlementPending}, models.SettlementProcessing, "")
		if err != nil {
			return nil, fmt.Errorf("failed to move settlement to processing: %w", err)
		}
		settlement.Status = models.SettlementProcessing
	}

	return settlement, nil
}

// ReleaseSettlement is the admin release for instant settlements. It hands the
// settlement to the finalize worker, or finalizes inline when no queue is configured.
func (e *Engine) ReleaseSettlement(ctx context.Context, settlementID string) error {
	s, err := e.settlements.GetSettlement(ctx, settlementID)
	if err != nil {
		return err
	}
	if s.Status == models.SettlementSuccess || s.Status == models.SettlementFailed {
		return fmt.Errorf("settlement %s is already %s: %w", s.ID, s.Status, storage.ErrStatusConflict)
	}

	if e.scheduler != nil {
		return e.scheduler.ScheduleFinalization(ctx, settlementID)
	}
	return e.Finalize(ctx, settlementID)
}

// Finalize completes a settlement: the reserving debit becomes a completed ledger
// fact, the bank transfer runs outside the wallet lock, and the settlement lands on
// success. When the transfer fails, the debit is compensated via reversal and the
// settlement lands on failed. Safe to call repeatedly: terminal settlements no-op.
func (e *Engine) Finalize(ctx context.Context, settlementID string) error {
	s, err := e.settlements.GetSettlement(ctx, settlementID)
	if err != nil {
		return err
	}
	if s.Status == models.SettlementSuccess || s.Status == models.SettlementFailed {
		return nil
	}

	walletID := models.WalletID(s.UserID, models.WalletPrimary)
	refKey := models.RefKeyFor(s.IdempotencyKey, models.TxSettlementDebit)

	// A compensating credit from an earlier attempt means the reserved funds already
	// went back to the wallet; transferring now would pay out money the user kept.
	revKey := models.RefKeyFor(ledger.ReversalRefID(s.IdempotencyKey), models.TxReversal)
	if _, err := e.ledgerStore.GetEntryByRefKey(ctx, walletID, revKey); err == nil {
		return e.failSettlement(ctx, s, "debit reversed by an earlier finalize attempt")
	} else if !errors.Is(err, storage.ErrEntryNotFound) {
		return fmt.Errorf("failed to check for prior reversal: %w", err)
	}

	if err := e.ledger.FinalizeEntry(ctx, walletID, refKey); err != nil {
		// A conflict means the debit already left pending/hold, e.g. a previous
		// finalize attempt got this far. The settlement status drives what follows.
		if !errors.Is(err, storage.ErrStatusConflict) {
			return fmt.Errorf("failed to finalize settlement debit: %w", err)
		}
	}

	if err := e.transferer.Transfer(ctx, s); err != nil {
		slog.Error("bank transfer failed", "settlement_id", s.ID, "error", err)
		return e.failSettlement(ctx, s, err.Error())
	}

	err = e.settlements.UpdateSettlementStatus(ctx, s.ID,
		[]models.SettlementStatus{models.SettlementPending, models.SettlementProcessing},
		models.SettlementSuccess, "")
	if err != nil && !errors.Is(err, storage.ErrStatusConflict) {
		return fmt.Errorf("failed to mark settlement success: %w", err)
	}
	return nil
}

func (e *Engine) failSettlement(ctx context.Context, s *models.Settlement, reason string) error {
	if _, err := e.ledger.Reverse(ctx, s.LedgerEntryID, "settlement failed: "+reason); err != nil {
		if !errors.Is(err, ledger.ErrAlreadyReversed) {
			return fmt.Errorf("failed to reverse settlement debit: %w", err)
		}
	}

	err := e.settlements.UpdateSettlementStatus(ctx, s.ID,
		[]models.SettlementStatus{models.SettlementPending, models.SettlementProcessing},
		models.SettlementFailed, reason)
	if err != nil && !errors.Is(err, storage.ErrStatusConflict) {
		return fmt.Errorf("failed to mark settlement failed: %w", err)
	}
	return nil
}

// RunT1Batch finalizes all pending T+1 settlements created before the cutoff.
// Running it more than once for the same day is safe: finalized settlements no-op.
// It returns the number of settlements dispatched.
func (e *Engine) RunT1Batch(ctx context.Context, before time.Time) (int, error) {
	pending, err := e.settlements.ListPendingT1Before(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending settlements: %w", err)
	}

	dispatched := 0
	for _, s := range pending {
		if e.scheduler != nil {
			if err := e.scheduler.ScheduleFinalization(ctx, s.ID); err != nil {
				slog.Error("failed to enqueue settlement", "settlement_id", s.ID, "error", err)
				continue
			}
		} else {
			if err := e.Finalize(ctx, s.ID); err != nil {
				slog.Error("failed to finalize settlement", "settlement_id", s.ID, "error", err)
				continue
			}
		}
		dispatched++
	}

	return dispatched, nil
}
