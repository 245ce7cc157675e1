package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/resellpay/wallet-engine/pkg/models"
	"github.com/resellpay/wallet-engine/pkg/storage"
)

// ErrNotReversible is returned when the target entry is itself a reversal.
var ErrNotReversible = errors.New("entry is not reversible")

// ErrAlreadyReversed is returned when the target entry has already been reversed
// or voided.
var ErrAlreadyReversed = errors.New("entry already reversed")

// ReversalRefID returns the reference id of the compensating entry for an entry with
// the given reference id. It is deterministic so a retried reversal dedupes to the
// first compensating entry instead of applying twice, and so callers can look up
// whether an entry was already reversed.
func ReversalRefID(originalRef string) string {
	return "REVERSAL_" + originalRef
}

// Reverse undoes a previously applied entry by appending a compensating entry with
// credit and debit swapped. History is never mutated: the original row survives, with
// only a pending/hold original transitioned to failed. Reversals cannot themselves be
// reversed, and reversing an already-reversed entry is rejected.
func (e *Engine) Reverse(ctx context.Context, entryID, reason string) (string, error) {
	original, err := e.ledger.GetEntryByID(ctx, entryID)
	if err != nil {
		return "", fmt.Errorf("failed to load entry %s: %w", entryID, err)
	}

	if original.TxType == models.TxReversal || original.ReversalOf != "" {
		return "", ErrNotReversible
	}
	if original.Status == models.EntryFailed {
		return "", ErrAlreadyReversed
	}

	unlock, err := e.locker.Lock(ctx, original.WalletID)
	if err != nil {
		return "", fmt.Errorf("failed to lock wallet %s: %w", original.WalletID, err)
	}
	defer unlock.Unlock()

	revRef := ReversalRefID(original.ReferenceID)
	revRefKey := models.RefKeyFor(revRef, models.TxReversal)

	if _, err := e.ledger.GetEntryByRefKey(ctx, original.WalletID, revRefKey); err == nil {
		return "", ErrAlreadyReversed
	} else if !errors.Is(err, storage.ErrEntryNotFound) {
		return "", fmt.Errorf("failed to check for existing reversal: %w", err)
	}

	// A reserved original never counted toward the balance, so voiding it (-> failed)
	// already releases the funds; its compensating entry is recorded as failed so the
	// reversal is visible in the log without double-counting. A completed original
	// keeps its status and is offset by a completed compensating entry.
	reserved := original.Status == models.EntryPending || original.Status == models.EntryHold
	if reserved {
		err := e.ledger.UpdateEntryStatus(ctx, original.WalletID, original.RefKey,
			[]models.EntryStatus{models.EntryPending, models.EntryHold}, models.EntryFailed)
		if err != nil {
			if errors.Is(err, storage.ErrStatusConflict) {
				return "", ErrAlreadyReversed
			}
			return "", fmt.Errorf("failed to void original entry: %w", err)
		}
	}

	compensatingStatus := models.EntryCompleted
	if reserved {
		compensatingStatus = models.EntryFailed
	}

	compensating := &models.LedgerEntry{
		EntryID:       ulid.Make().String(),
		WalletID:      original.WalletID,
		RefKey:        revRefKey,
		UserID:        original.UserID,
		UserRole:      original.UserRole,
		WalletType:    original.WalletType,
		FundCategory:  original.FundCategory,
		ServiceType:   original.ServiceType,
		TxType:        models.TxReversal,
		Credit:        original.Debit,
		Debit:         original.Credit,
		ReferenceID:   revRef,
		TransactionID: original.TransactionID,
		Status:        compensatingStatus,
		ReversalOf:    original.EntryID,
		Remarks:       reason,
		CreatedAt:     time.Now(),
	}

	if err := e.ledger.PutEntry(ctx, compensating); err != nil {
		if errors.Is(err, storage.ErrDuplicateEntry) {
			return "", ErrAlreadyReversed
		}
		return "", fmt.Errorf("failed to append compensating entry: %w", err)
	}

	e.publish(ctx, compensating)

	return compensating.EntryID, nil
}
