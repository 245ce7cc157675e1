package limits

import (
	"context"
	"fmt"
	"time"

	"github.com/resellpay/wallet-engine/pkg/models"
	"github.com/resellpay/wallet-engine/pkg/storage"
)

// LimitExceededError reports a denied limit check with the figures the user needs to
// retry with a corrected amount.
type LimitExceededError struct {
	LimitType models.LimitType
	Limit     int64
	Used      int64
	Requested int64
}

func (e *LimitExceededError) Error() string {
	if e.LimitType == models.LimitPerTransaction {
		return fmt.Sprintf("%s limit exceeded: limit %d, requested %d", e.LimitType, e.Limit, e.Requested)
	}
	return fmt.Sprintf("%s limit exceeded: used %d, limit %d, requested %d", e.LimitType, e.Used, e.Limit, e.Requested)
}

// Enforcer evaluates opt-in per-user caps before a debit or settlement is allowed.
// Limits are layered on top of the ledger, not part of it: an absent, disabled or
// overridden limit row never blocks.
type Enforcer struct {
	limits      storage.LimitStore
	ledger      storage.LedgerStore
	settlements storage.SettlementStore
	now         func() time.Time
}

// New creates a new Enforcer.
func New(limits storage.LimitStore, ledger storage.LedgerStore, settlements storage.SettlementStore) *Enforcer {
	return &Enforcer{
		limits:      limits,
		ledger:      ledger,
		settlements: settlements,
		now:         time.Now,
	}
}

// localMidnight returns the start of the current day in local time. Daily windows
// reset at local midnight, matching how users read "daily limit".
func (e *Enforcer) localMidnight() time.Time {
	now := e.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// CheckLimits returns nil when the proposed amount is allowed, or a
// *LimitExceededError when it would breach the configured cap.
func (e *Enforcer) CheckLimits(ctx context.Context, userID string, userRole models.UserRole, walletType models.WalletType, amount int64, limitType models.LimitType) error {
	limit, err := e.limits.GetLimit(ctx, userID, walletType, limitType)
	if err != nil {
		return fmt.Errorf("failed to load limit config: %w", err)
	}
	if limit == nil || !limit.IsEnabled || limit.IsOverridden {
		return nil
	}
	// A limit row is bound to the role it was configured for. A stale row left over
	// from a previous role (e.g. a retailer promoted to distributor) does not apply.
	if limit.UserRole != "" && limit.UserRole != userRole {
		return nil
	}

	switch limitType {
	case models.LimitPerTransaction:
		if amount > limit.LimitAmount {
			return &LimitExceededError{LimitType: limitType, Limit: limit.LimitAmount, Requested: amount}
		}
		return nil

	case models.LimitDailyTransaction:
		used, err := e.ledger.SumCompletedDebitsSince(ctx, models.WalletID(userID, walletType), e.localMidnight())
		if err != nil {
			return fmt.Errorf("failed to sum today's debits: %w", err)
		}
		if used+amount > limit.LimitAmount {
			return &LimitExceededError{LimitType: limitType, Limit: limit.LimitAmount, Used: used, Requested: amount}
		}
		return nil

	case models.LimitDailySettlement:
		used, err := e.settlements.SumSettledSince(ctx, userID, e.localMidnight())
		if err != nil {
			return fmt.Errorf("failed to sum today's settlements: %w", err)
		}
		if used+amount > limit.LimitAmount {
			return &LimitExceededError{LimitType: limitType, Limit: limit.LimitAmount, Used: used, Requested: amount}
		}
		return nil

	default:
		return fmt.Errorf("unrecognized limit type %q", limitType)
	}
}
