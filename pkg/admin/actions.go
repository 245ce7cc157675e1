package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/resellpay/wallet-engine/pkg/ledger"
	"github.com/resellpay/wallet-engine/pkg/models"
	"github.com/resellpay/wallet-engine/pkg/storage"
)

// Service is the privileged admin surface. Every mutation here is a thin caller of
// the ledger/wallet primitives plus one append-only audit record.
type Service struct {
	ledger  *ledger.Engine
	wallets storage.WalletStore
	limits  storage.LimitStore
	audit   storage.AuditStore
}

// New creates a new admin Service.
func New(ledgerEngine *ledger.Engine, wallets storage.WalletStore, limits storage.LimitStore, audit storage.AuditStore) *Service {
	return &Service{ledger: ledgerEngine, wallets: wallets, limits: limits, audit: audit}
}

// Actor identifies the admin performing an action, for the audit trail.
type Actor struct {
	ID        string
	IPAddress string
}

// FundsRequest describes an admin push or pull of funds.
type FundsRequest struct {
	UserID     string
	UserRole   models.UserRole
	WalletType models.WalletType
	Amount     int64
	// ReferenceID is optional; when empty a fresh admin reference is generated.
	// Callers retrying a push/pull must supply their original reference.
	ReferenceID string
	Remarks     string
}

// PushFunds credits a user's wallet.
func (s *Service) PushFunds(ctx context.Context, actor Actor, req FundsRequest) (*ledger.ApplyResult, error) {
	ref := req.ReferenceID
	if ref == "" {
		ref = fmt.Sprintf("ADMIN_PUSH_%d_%s", time.Now().Unix(), uuid.New().String()[:8])
	}

	res, err := s.ledger.Apply(ctx, ledger.Draft{
		UserID:       req.UserID,
		UserRole:     req.UserRole,
		WalletType:   req.WalletType,
		FundCategory: models.FundAdjustment,
		ServiceType:  "admin",
		TxType:       models.TxAdjustment,
		Credit:       req.Amount,
		ReferenceID:  ref,
		Status:       models.EntryCompleted,
		Remarks:      req.Remarks,
	})
	if err != nil {
		return nil, err
	}

	s.writeAudit(ctx, actor, "push_funds", req, res.Balance-req.Amount, res.Balance)
	return res, nil
}

// PullFunds debits a user's wallet.
func (s *Service) PullFunds(ctx context.Context, actor Actor, req FundsRequest) (*ledger.ApplyResult, error) {
	ref := req.ReferenceID
	if ref == "" {
		ref = fmt.Sprintf("ADMIN_PULL_%d_%s", time.Now().Unix(), uuid.New().String()[:8])
	}

	res, err := s.ledger.Apply(ctx, ledger.Draft{
		UserID:       req.UserID,
		UserRole:     req.UserRole,
		WalletType:   req.WalletType,
		FundCategory: models.FundAdjustment,
		ServiceType:  "admin",
		TxType:       models.TxAdjustment,
		Debit:        req.Amount,
		ReferenceID:  ref,
		Status:       models.EntryCompleted,
		Remarks:      req.Remarks,
	})
	if err != nil {
		return nil, err
	}

	s.writeAudit(ctx, actor, "pull_funds", req, res.Balance+req.Amount, res.Balance)
	return res, nil
}

// SetFrozen freezes or unfreezes a wallet. Frozen wallets reject every
// balance-affecting operation until an admin clears the flag.
func (s *Service) SetFrozen(ctx context.Context, actor Actor, userID string, walletType models.WalletType, frozen bool, remarks string) error {
	if _, err := s.wallets.EnsureWallet(ctx, userID, walletType); err != nil {
		return fmt.Errorf("failed to ensure wallet: %w", err)
	}
	if err := s.wallets.SetFrozen(ctx, userID, walletType, frozen); err != nil {
		return err
	}

	action := "freeze_wallet"
	if !frozen {
		action = "unfreeze_wallet"
	}
	s.writeAudit(ctx, actor, action, FundsRequest{UserID: userID, WalletType: walletType, Remarks: remarks}, 0, 0)
	return nil
}

// SetSettlementHold holds or releases settlements for a wallet.
func (s *Service) SetSettlementHold(ctx context.Context, actor Actor, userID string, walletType models.WalletType, held bool, remarks string) error {
	if _, err := s.wallets.EnsureWallet(ctx, userID, walletType); err != nil {
		return fmt.Errorf("failed to ensure wallet: %w", err)
	}
	if err := s.wallets.SetSettlementHold(ctx, userID, walletType, held); err != nil {
		return err
	}

	action := "hold_settlement"
	if !held {
		action = "release_settlement_hold"
	}
	s.writeAudit(ctx, actor, action, FundsRequest{UserID: userID, WalletType: walletType, Remarks: remarks}, 0, 0)
	return nil
}

// SetLimit creates or replaces a user limit row, including overrides.
func (s *Service) SetLimit(ctx context.Context, actor Actor, limit *models.UserLimit) error {
	if !limit.LimitType.Valid() {
		return fmt.Errorf("unrecognized limit type %q", limit.LimitType)
	}
	if limit.IsOverridden && limit.OverrideReason == "" {
		return fmt.Errorf("override reason is required when overriding a limit")
	}

	if err := s.limits.PutLimit(ctx, limit); err != nil {
		return err
	}

	s.writeAudit(ctx, actor, "set_limit", FundsRequest{
		UserID:     limit.UserID,
		WalletType: limit.WalletType,
		Amount:     limit.LimitAmount,
		Remarks:    fmt.Sprintf("%s enabled=%t overridden=%t %s", limit.LimitType, limit.IsEnabled, limit.IsOverridden, limit.OverrideReason),
	}, 0, 0)
	return nil
}

// writeAudit appends the audit record. Audit failures are deliberately not allowed to
// unwind the already-committed mutation; the error is surfaced in logs by the store.
func (s *Service) writeAudit(ctx context.Context, actor Actor, action string, req FundsRequest, before, after int64) {
	_ = s.audit.PutAudit(ctx, &models.AuditRecord{
		ID:            uuid.New().String(),
		ActorID:       actor.ID,
		Action:        action,
		TargetUserID:  req.UserID,
		WalletType:    string(req.WalletType),
		BalanceBefore: before,
		BalanceAfter:  after,
		IPAddress:     actor.IPAddress,
		Remarks:       req.Remarks,
		CreatedAt:     time.Now(),
	})
}
