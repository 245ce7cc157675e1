// Package mapping converts between API types and domain models.
package mapping

import (
	"github.com/resellpay/wallet-engine/pkg/api"
	"github.com/resellpay/wallet-engine/pkg/ledger"
	"github.com/resellpay/wallet-engine/pkg/models"
	"github.com/resellpay/wallet-engine/pkg/settlement"
)

// ToDomainDraft converts an API NewTransaction to a ledger draft.
func ToDomainDraft(newTx *api.NewTransaction) ledger.Draft {
	draft := ledger.Draft{
		UserID:       newTx.UserId,
		UserRole:     models.UserRole(newTx.UserRole),
		WalletType:   models.WalletType(newTx.WalletType),
		FundCategory: models.FundCategory(newTx.FundCategory),
		ServiceType:  newTx.ServiceType,
		TxType:       models.TxType(newTx.TxType),
		ReferenceID:  newTx.ReferenceId,
	}
	if newTx.Status != nil {
		draft.Status = models.EntryStatus(*newTx.Status)
	}
	if newTx.Remarks != nil {
		draft.Remarks = *newTx.Remarks
	}
	return draft
}

// ToApiTransactionResult converts a ledger ApplyResult to its API shape.
func ToApiTransactionResult(res *ledger.ApplyResult) *api.TransactionResult {
	return &api.TransactionResult{
		EntryId:  res.EntryID,
		Balance:  res.Balance,
		Replayed: res.Replayed,
	}
}

// ToApiWallet converts a domain wallet and its derived balances to the API shape.
func ToApiWallet(wallet *models.Wallet, balance, spendable int64) *api.Wallet {
	return &api.Wallet{
		UserId:           wallet.UserID,
		WalletType:       string(wallet.WalletType),
		Balance:          balance,
		SpendableBalance: spendable,
		IsFrozen:         wallet.IsFrozen,
		IsSettlementHeld: wallet.IsSettlementHeld,
		CreatedAt:        wallet.CreatedAt,
	}
}

// ToApiLedgerEntry converts a domain ledger entry to the API shape.
func ToApiLedgerEntry(entry *models.LedgerEntry) *api.LedgerEntry {
	out := &api.LedgerEntry{
		EntryId:      entry.EntryID,
		WalletId:     entry.WalletID,
		UserId:       entry.UserID,
		WalletType:   string(entry.WalletType),
		FundCategory: string(entry.FundCategory),
		ServiceType:  entry.ServiceType,
		TxType:       string(entry.TxType),
		Credit:       entry.Credit,
		Debit:        entry.Debit,
		ReferenceId:  entry.ReferenceID,
		Status:       string(entry.Status),
		CreatedAt:    entry.CreatedAt,
	}
	if entry.TransactionID != "" {
		out.TransactionId = &entry.TransactionID
	}
	if entry.ReversalOf != "" {
		out.ReversalOf = &entry.ReversalOf
	}
	if entry.Remarks != "" {
		out.Remarks = &entry.Remarks
	}
	return out
}

// ToDomainSettlementRequest converts an API NewSettlement to a settlement request.
func ToDomainSettlementRequest(newSettlement *api.NewSettlement) settlement.CreateRequest {
	return settlement.CreateRequest{
		UserID:            newSettlement.UserId,
		UserRole:          models.UserRole(newSettlement.UserRole),
		Amount:            newSettlement.Amount,
		Mode:              models.SettlementMode(newSettlement.Mode),
		BankAccountNumber: newSettlement.BankAccountNumber,
		BankIFSC:          newSettlement.BankIfsc,
		BankAccountName:   newSettlement.BankAccountName,
	}
}

// ToApiSettlement converts a domain settlement to the API shape.
func ToApiSettlement(s *models.Settlement) *api.Settlement {
	out := &api.Settlement{
		Id:                s.ID,
		UserId:            s.UserID,
		Mode:              string(s.Mode),
		Amount:            s.Amount,
		Charge:            s.Charge,
		NetAmount:         s.NetAmount,
		BankAccountNumber: s.BankAccountNumber,
		Status:            string(s.Status),
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
	if s.FailureReason != "" {
		out.FailureReason = &s.FailureReason
	}
	return out
}

// ToDomainUserLimit converts an API UserLimit to the domain model.
func ToDomainUserLimit(limit *api.UserLimit) *models.UserLimit {
	out := &models.UserLimit{
		UserID:       limit.UserId,
		UserRole:     models.UserRole(limit.UserRole),
		WalletType:   models.WalletType(limit.WalletType),
		LimitType:    models.LimitType(limit.LimitType),
		LimitAmount:  limit.LimitAmount,
		IsEnabled:    limit.IsEnabled,
		IsOverridden: limit.IsOverridden,
	}
	if limit.OverrideReason != nil {
		out.OverrideReason = *limit.OverrideReason
	}
	return out
}

// ToApiAuditRecord converts a domain audit record to the API shape.
func ToApiAuditRecord(record *models.AuditRecord) *api.AuditRecord {
	out := &api.AuditRecord{
		Id:            record.ID,
		ActorId:       record.ActorID,
		Action:        record.Action,
		TargetUserId:  record.TargetUserID,
		BalanceBefore: record.BalanceBefore,
		BalanceAfter:  record.BalanceAfter,
		CreatedAt:     record.CreatedAt,
	}
	if record.WalletType != "" {
		out.WalletType = &record.WalletType
	}
	if record.IPAddress != "" {
		out.IpAddress = &record.IPAddress
	}
	if record.Remarks != "" {
		out.Remarks = &record.Remarks
	}
	return out
}
