package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/resellpay/wallet-engine/pkg/events"
	"github.com/resellpay/wallet-engine/pkg/locks"
	"github.com/resellpay/wallet-engine/pkg/models"
	"github.com/resellpay/wallet-engine/pkg/storage"
)

// ErrInvalidDraft is returned when an entry draft fails validation.
var ErrInvalidDraft = errors.New("invalid entry draft")

// Engine is the single mutation entry point for the ledger. Every credit and debit in
// the system flows through Apply, under a per-wallet lock, with idempotent replay on
// the caller's reference id.
type Engine struct {
	ledger    storage.LedgerStore
	wallets   storage.WalletStore
	locker    locks.Locker
	publisher events.Publisher
}

// New creates a new Engine.
func New(ledger storage.LedgerStore, wallets storage.WalletStore, locker locks.Locker, publisher events.Publisher) *Engine {
	return &Engine{
		ledger:    ledger,
		wallets:   wallets,
		locker:    locker,
		publisher: publisher,
	}
}

// Draft describes a credit or debit to be applied. Exactly one of Credit/Debit must
// be positive.
type Draft struct {
	UserID        string
	UserRole      models.UserRole
	WalletType    models.WalletType
	FundCategory  models.FundCategory
	ServiceType   string
	TxType        models.TxType
	Credit        int64
	Debit         int64
	ReferenceID   string
	TransactionID string
	Status        models.EntryStatus
	Remarks       string
}

func (d *Draft) validate() error {
	if d.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidDraft)
	}
	if d.ReferenceID == "" {
		return fmt.Errorf("%w: reference id is required", ErrInvalidDraft)
	}
	if !d.WalletType.Valid() {
		return fmt.Errorf("%w: unrecognized wallet type %q", ErrInvalidDraft, d.WalletType)
	}
	if !d.UserRole.Valid() {
		return fmt.Errorf("%w: unrecognized user role %q", ErrInvalidDraft, d.UserRole)
	}
	if !d.TxType.Valid() {
		return fmt.Errorf("%w: unrecognized tx type %q", ErrInvalidDraft, d.TxType)
	}
	if !d.FundCategory.Valid() {
		return fmt.Errorf("%w: unrecognized fund category %q", ErrInvalidDraft, d.FundCategory)
	}
	if (d.Credit > 0) == (d.Debit > 0) {
		return fmt.Errorf("%w: exactly one of credit/debit must be positive (credit=%d, debit=%d)", ErrInvalidDraft, d.Credit, d.Debit)
	}
	if d.Credit < 0 || d.Debit < 0 {
		return fmt.Errorf("%w: amounts must not be negative", ErrInvalidDraft)
	}
	switch d.Status {
	case models.EntryPending, models.EntryHold, models.EntryCompleted:
	case "":
		d.Status = models.EntryCompleted
	default:
		return fmt.Errorf("%w: entries cannot be created with status %q", ErrInvalidDraft, d.Status)
	}
	return nil
}

// ApplyResult is the outcome of an Apply call.
type ApplyResult struct {
	EntryID string
	// Balance is the completed-entries balance after the operation.
	Balance int64
	// Replayed is true when the reference id had already been applied and the
	// original entry was returned instead of a new one.
	Replayed bool
}

// Apply validates the draft and appends exactly one immutable ledger entry, returning
// the resulting balance. The whole read-validate-append window runs under the
// wallet's lock so concurrent Applies cannot interleave a stale balance read with a
// write. A draft whose (reference_id, tx_type) was already applied returns the
// original entry unchanged; replay is not an error.
func (e *Engine) Apply(ctx context.Context, draft Draft) (*ApplyResult, error) {
	if err := draft.validate(); err != nil {
		return nil, err
	}

	walletID := models.WalletID(draft.UserID, draft.WalletType)

	unlock, err := e.locker.Lock(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock wallet %s: %w", walletID, err)
	}
	defer unlock.Unlock()

	wallet, err := e.wallets.EnsureWallet(ctx, draft.UserID, draft.WalletType)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure wallet: %w", err)
	}
	if wallet.IsFrozen {
		return nil, storage.ErrWalletFrozen
	}

	refKey := models.RefKeyFor(draft.ReferenceID, draft.TxType)

	// Idempotent replay: a retried operation returns its first application.
	existing, err := e.ledger.GetEntryByRefKey(ctx, walletID, refKey)
	if err != nil && !errors.Is(err, storage.ErrEntryNotFound) {
		return nil, fmt.Errorf("failed to check for existing entry: %w", err)
	}
	if existing != nil {
		totals, err := e.ledger.WalletTotals(ctx, walletID)
		if err != nil {
			return nil, fmt.Errorf("failed to compute balance: %w", err)
		}
		return &ApplyResult{EntryID: existing.EntryID, Balance: totals.Completed, Replayed: true}, nil
	}

	totals, err := e.ledger.WalletTotals(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance: %w", err)
	}

	if draft.Debit > 0 && totals.Spendable() < draft.Debit {
		return nil, &storage.InsufficientFundsError{Available: totals.Spendable(), Required: draft.Debit}
	}

	entry := &models.LedgerEntry{
		EntryID:       ulid.Make().String(),
		WalletID:      walletID,
		RefKey:        refKey,
		UserID:        draft.UserID,
		UserRole:      draft.UserRole,
		WalletType:    draft.WalletType,
		FundCategory:  draft.FundCategory,
		ServiceType:   draft.ServiceType,
		TxType:        draft.TxType,
		Credit:        draft.Credit,
		Debit:         draft.Debit,
		ReferenceID:   draft.ReferenceID,
		TransactionID: draft.TransactionID,
		Status:        draft.Status,
		Remarks:       draft.Remarks,
		CreatedAt:     time.Now(),
	}

	if err := e.ledger.PutEntry(ctx, entry); err != nil {
		if errors.Is(err, storage.ErrDuplicateEntry) {
			// Lost a race despite the lock (e.g. another process without shared
			// locking). The conditional write kept the ledger correct.
			prior, getErr := e.ledger.GetEntryByRefKey(ctx, walletID, refKey)
			if getErr != nil {
				return nil, fmt.Errorf("failed to load duplicate entry: %w", getErr)
			}
			return &ApplyResult{EntryID: prior.EntryID, Balance: totals.Completed, Replayed: true}, nil
		}
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	balance := totals.Completed
	if entry.Status == models.EntryCompleted {
		balance += entry.Credit - entry.Debit
	}

	e.publish(ctx, entry)

	return &ApplyResult{EntryID: entry.EntryID, Balance: balance}, nil
}

// GetBalance sums completed entries for the wallet. It is a pure read and does not
// take the wallet lock; dashboard reads may trail in-flight writes.
func (e *Engine) GetBalance(ctx context.Context, userID string, walletType models.WalletType) (int64, error) {
	totals, err := e.ledger.WalletTotals(ctx, models.WalletID(userID, walletType))
	if err != nil {
		return 0, fmt.Errorf("failed to compute balance: %w", err)
	}
	return totals.Completed, nil
}

// GetSpendableBalance returns the balance available to new debits: completed entries
// minus reserved (pending/hold) debits.
func (e *Engine) GetSpendableBalance(ctx context.Context, userID string, walletType models.WalletType) (int64, error) {
	totals, err := e.ledger.WalletTotals(ctx, models.WalletID(userID, walletType))
	if err != nil {
		return 0, fmt.Errorf("failed to compute balance: %w", err)
	}
	return totals.Spendable(), nil
}

// FinalizeEntry transitions a pending/hold entry to completed, making its amount
// count toward the balance.
func (e *Engine) FinalizeEntry(ctx context.Context, walletID, refKey string) error {
	unlock, err := e.locker.Lock(ctx, walletID)
	if err != nil {
		return fmt.Errorf("failed to lock wallet %s: %w", walletID, err)
	}
	defer unlock.Unlock()

	err = e.ledger.UpdateEntryStatus(ctx, walletID, refKey,
		[]models.EntryStatus{models.EntryPending, models.EntryHold}, models.EntryCompleted)
	if err != nil {
		return err
	}
	return nil
}

func (e *Engine) publish(ctx context.Context, entry *models.LedgerEntry) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishEntry(ctx, entry); err != nil {
		slog.Warn("failed to publish ledger entry event", "entry_id", entry.EntryID, "error", err)
	}
}
