// Package api contains the request and response types of the HTTP surface.
package api

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// NewTransaction is the body for crediting or debiting a wallet.
type NewTransaction struct {
	UserId       string  `json:"user_id"`
	UserRole     string  `json:"user_role"`
	WalletType   string  `json:"wallet_type"`
	FundCategory string  `json:"fund_category"`
	ServiceType  string  `json:"service_type"`
	TxType       string  `json:"tx_type"`
	Amount       int64   `json:"amount"`
	ReferenceId  string  `json:"reference_id"`
	Status       *string `json:"status,omitempty"`
	Remarks      *string `json:"remarks,omitempty"`
}

// TransactionResult reports the outcome of a credit or debit.
type TransactionResult struct {
	EntryId  string `json:"entry_id"`
	Balance  int64  `json:"balance"`
	Replayed bool   `json:"replayed"`
}

// Wallet is the API view of a wallet, with its derived balances attached.
type Wallet struct {
	UserId           string    `json:"user_id"`
	WalletType       string    `json:"wallet_type"`
	Balance          int64     `json:"balance"`
	SpendableBalance int64     `json:"spendable_balance"`
	IsFrozen         bool      `json:"is_frozen"`
	IsSettlementHeld bool      `json:"is_settlement_held"`
	CreatedAt        time.Time `json:"created_at"`
}

// LedgerEntry is the API view of one ledger entry.
type LedgerEntry struct {
	EntryId       string    `json:"entry_id"`
	WalletId      string    `json:"wallet_id"`
	UserId        string    `json:"user_id"`
	WalletType    string    `json:"wallet_type"`
	FundCategory  string    `json:"fund_category"`
	ServiceType   string    `json:"service_type"`
	TxType        string    `json:"tx_type"`
	Credit        int64     `json:"credit"`
	Debit         int64     `json:"debit"`
	ReferenceId   string    `json:"reference_id"`
	TransactionId *string   `json:"transaction_id,omitempty"`
	Status        string    `json:"status"`
	ReversalOf    *string   `json:"reversal_of,omitempty"`
	Remarks       *string   `json:"remarks,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ReverseRequest is the body for reversing a ledger entry.
type ReverseRequest struct {
	Reason string `json:"reason"`
}

// ReverseResult reports the compensating entry created by a reversal.
type ReverseResult struct {
	ReversalEntryId string `json:"reversal_entry_id"`
	OriginalEntryId string `json:"original_entry_id"`
}

// NewSettlement is the body for creating a settlement.
type NewSettlement struct {
	UserId            string `json:"user_id"`
	UserRole          string `json:"user_role"`
	Amount            int64  `json:"amount"`
	Mode              string `json:"mode"`
	BankAccountNumber string `json:"bank_account_number"`
	BankIfsc          string `json:"bank_ifsc"`
	BankAccountName   string `json:"bank_account_name"`
}

// Settlement is the API view of a settlement.
type Settlement struct {
	Id                string    `json:"id"`
	UserId            string    `json:"user_id"`
	Mode              string    `json:"mode"`
	Amount            int64     `json:"amount"`
	Charge            int64     `json:"charge"`
	NetAmount         int64     `json:"net_amount"`
	BankAccountNumber string    `json:"bank_account_number"`
	Status            string    `json:"status"`
	FailureReason     *string   `json:"failure_reason,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// T1BatchRequest triggers the T+1 payout batch. Date selects the business day
// whose pending settlements are released; it defaults to today.
type T1BatchRequest struct {
	Date *openapi_types.Date `json:"date,omitempty"`
}

// T1BatchResult reports how many settlements a batch run dispatched.
type T1BatchResult struct {
	Dispatched int `json:"dispatched"`
}

// AdminFundsRequest is the body for an admin push or pull of funds.
type AdminFundsRequest struct {
	UserId      string  `json:"user_id"`
	UserRole    string  `json:"user_role"`
	WalletType  string  `json:"wallet_type"`
	Amount      int64   `json:"amount"`
	ReferenceId *string `json:"reference_id,omitempty"`
	Remarks     *string `json:"remarks,omitempty"`
}

// AdminFlagRequest is the body for freezing a wallet or holding its settlements.
type AdminFlagRequest struct {
	Enabled bool    `json:"enabled"`
	Remarks *string `json:"remarks,omitempty"`
}

// UserLimit is the API view of a configured limit.
type UserLimit struct {
	UserId         string  `json:"user_id"`
	UserRole       string  `json:"user_role"`
	WalletType     string  `json:"wallet_type"`
	LimitType      string  `json:"limit_type"`
	LimitAmount    int64   `json:"limit_amount"`
	IsEnabled      bool    `json:"is_enabled"`
	IsOverridden   bool    `json:"is_overridden"`
	OverrideReason *string `json:"override_reason,omitempty"`
}

// AuditRecord is the API view of one audit trail record.
type AuditRecord struct {
	Id            string    `json:"id"`
	ActorId       string    `json:"actor_id"`
	Action        string    `json:"action"`
	TargetUserId  string    `json:"target_user_id"`
	WalletType    *string   `json:"wallet_type,omitempty"`
	BalanceBefore int64     `json:"balance_before"`
	BalanceAfter  int64     `json:"balance_after"`
	IpAddress     *string   `json:"ip_address,omitempty"`
	Remarks       *string   `json:"remarks,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Error is the uniform error body.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
