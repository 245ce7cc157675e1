package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletType identifies which balance bucket of a user an operation targets.
type WalletType string

const (
	WalletPrimary WalletType = "primary"
	WalletAeps    WalletType = "aeps"
)

// UserRole is the position of a user in the reseller hierarchy.
type UserRole string

const (
	RoleRetailer          UserRole = "retailer"
	RoleDistributor       UserRole = "distributor"
	RoleMasterDistributor UserRole = "master_distributor"
)

// EntryStatus defines the possible states of a ledger entry.
// Entries are immutable except for the pending/hold -> completed/failed transition.
type EntryStatus string

const (
	EntryPending   EntryStatus = "pending"
	EntryHold      EntryStatus = "hold"
	EntryCompleted EntryStatus = "completed"
	EntryFailed    EntryStatus = "failed"
)

// TxType classifies the business operation behind a ledger entry.
type TxType string

const (
	TxCredit           TxType = "CREDIT"
	TxDebit            TxType = "DEBIT"
	TxAdjustment       TxType = "ADJUSTMENT"
	TxPayout           TxType = "PAYOUT"
	TxSettlementDebit  TxType = "SETTLEMENT_DEBIT"
	TxSettlementCredit TxType = "SETTLEMENT_CREDIT"
	TxCommission       TxType = "COMMISSION"
	TxBbpsDebit        TxType = "BBPS_DEBIT"
	TxBbpsRefund       TxType = "BBPS_REFUND"
	TxReversal         TxType = "REVERSAL"
)

// FundCategory tags an entry with the bucket of money it moves.
type FundCategory string

const (
	FundCash       FundCategory = "cash"
	FundOnline     FundCategory = "online"
	FundCommission FundCategory = "commission"
	FundSettlement FundCategory = "settlement"
	FundAdjustment FundCategory = "adjustment"
	FundBbps       FundCategory = "bbps"
	FundAeps       FundCategory = "aeps"
)

// SettlementMode selects instant or next-day payout routing.
type SettlementMode string

const (
	SettlementInstant SettlementMode = "instant"
	SettlementT1      SettlementMode = "t+1"
)

// SettlementStatus defines the settlement state machine states.
// pending -> processing -> success (instant) or pending -> success (T+1);
// failed is reachable from pending and processing. success and failed are terminal.
type SettlementStatus string

const (
	SettlementPending    SettlementStatus = "pending"
	SettlementProcessing SettlementStatus = "processing"
	SettlementSuccess    SettlementStatus = "success"
	SettlementFailed     SettlementStatus = "failed"
)

// LimitType identifies which cap a UserLimit row configures.
type LimitType string

const (
	LimitPerTransaction   LimitType = "per_transaction"
	LimitDailyTransaction LimitType = "daily_transaction"
	LimitDailySettlement  LimitType = "daily_settlement"
)

// ChargeType selects how a slab's charge is computed from the settlement amount.
type ChargeType string

const (
	ChargeFixed   ChargeType = "fixed"
	ChargePercent ChargeType = "percent"
)

// Wallet is the control row for one (user, wallet type) pair.
// Balance is intentionally not a field: it is always derived from the ledger.
type Wallet struct {
	UserID           string     `json:"user_id" dynamodbav:"user_id"`
	WalletType       WalletType `json:"wallet_type" dynamodbav:"wallet_type"`
	IsFrozen         bool       `json:"is_frozen" dynamodbav:"is_frozen"`
	IsSettlementHeld bool       `json:"is_settlement_held" dynamodbav:"is_settlement_held"`
	CreatedAt        time.Time  `json:"created_at" dynamodbav:"created_at"`
}

// ID returns the composite wallet key used for partitioning and locking.
func (w *Wallet) ID() string {
	return WalletID(w.UserID, w.WalletType)
}

// WalletID builds the composite key for a (user, wallet type) pair.
func WalletID(userID string, walletType WalletType) string {
	return userID + "#" + string(walletType)
}

// LedgerEntry is one immutable fact recording a credit or debit.
// Exactly one of Credit/Debit is non-zero. Amounts are in paise.
type LedgerEntry struct {
	EntryID       string       `dynamodbav:"entry_id"`
	WalletID      string       `dynamodbav:"wallet_id"`
	RefKey        string       `dynamodbav:"ref_key"`
	UserID        string       `dynamodbav:"user_id"`
	UserRole      UserRole     `dynamodbav:"user_role"`
	WalletType    WalletType   `dynamodbav:"wallet_type"`
	FundCategory  FundCategory `dynamodbav:"fund_category"`
	ServiceType   string       `dynamodbav:"service_type"`
	TxType        TxType       `dynamodbav:"tx_type"`
	Credit        int64        `dynamodbav:"credit"`
	Debit         int64        `dynamodbav:"debit"`
	ReferenceID   string       `dynamodbav:"reference_id"`
	TransactionID string       `dynamodbav:"transaction_id,omitempty"`
	Status        EntryStatus  `dynamodbav:"status"`
	ReversalOf    string       `dynamodbav:"reversal_of,omitempty"`
	Remarks       string       `dynamodbav:"remarks,omitempty"`
	CreatedAt     time.Time    `dynamodbav:"created_at"`
}

// Amount returns the single non-zero side of the entry.
func (e *LedgerEntry) Amount() int64 {
	if e.Credit > 0 {
		return e.Credit
	}
	return e.Debit
}

// RefKeyFor builds the per-wallet idempotency key for a (reference_id, tx_type) pair.
func RefKeyFor(referenceID string, txType TxType) string {
	return referenceID + "#" + string(txType)
}

// Settlement is a request to move primary-wallet funds to an external bank account.
// Invariant: Amount = Charge + NetAmount.
type Settlement struct {
	ID                string           `dynamodbav:"id"`
	UserID            string           `dynamodbav:"user_id"`
	UserRole          UserRole         `dynamodbav:"user_role"`
	Mode              SettlementMode   `dynamodbav:"settlement_mode"`
	Amount            int64            `dynamodbav:"amount"`
	Charge            int64            `dynamodbav:"charge"`
	NetAmount         int64            `dynamodbav:"net_amount"`
	BankAccountNumber string           `dynamodbav:"bank_account_number"`
	BankIFSC          string           `dynamodbav:"bank_ifsc"`
	BankAccountName   string           `dynamodbav:"bank_account_name"`
	Status            SettlementStatus `dynamodbav:"status"`
	IdempotencyKey    string           `dynamodbav:"idempotency_key"`
	LedgerEntryID     string           `dynamodbav:"ledger_entry_id"`
	FailureReason     string           `dynamodbav:"failure_reason,omitempty"`
	CreatedAt         time.Time        `dynamodbav:"created_at"`
	UpdatedAt         time.Time        `dynamodbav:"updated_at"`
}

// UserLimit configures one opt-in cap for a user. Absence of a row means
// no configured limit; IsOverridden bypasses enforcement entirely.
type UserLimit struct {
	UserID         string     `dynamodbav:"user_id"`
	UserRole       UserRole   `dynamodbav:"user_role"`
	WalletType     WalletType `dynamodbav:"wallet_type"`
	LimitType      LimitType  `dynamodbav:"limit_type"`
	LimitAmount    int64      `dynamodbav:"limit_amount"`
	IsEnabled      bool       `dynamodbav:"is_enabled"`
	IsOverridden   bool       `dynamodbav:"is_overridden"`
	OverrideReason string     `dynamodbav:"override_reason,omitempty"`
}

// ChargeSlab maps a settlement amount range to a charge. Fixed slabs carry the
// charge in paise; percent slabs apply Value percent clamped to [MinCharge, MaxCharge].
type ChargeSlab struct {
	ID         string          `dynamodbav:"id"`
	MinAmount  int64           `dynamodbav:"min_amount"`
	MaxAmount  int64           `dynamodbav:"max_amount"`
	ChargeType ChargeType      `dynamodbav:"charge_type"`
	Charge     int64           `dynamodbav:"charge"`
	Value      decimal.Decimal `dynamodbav:"value"`
	MinCharge  int64           `dynamodbav:"min_charge"`
	MaxCharge  int64           `dynamodbav:"max_charge"`
	IsActive   bool            `dynamodbav:"is_active"`
}

// CommissionStatus records the direction of a commission entry.
type CommissionStatus string

const (
	CommissionCredited CommissionStatus = "credited"
	CommissionDebited  CommissionStatus = "debited"
)

// CommissionEntry pairs 1:1 with the ledger entry that moved the commission.
type CommissionEntry struct {
	ID               string           `dynamodbav:"id"`
	UserID           string           `dynamodbav:"user_id"`
	UserRole         UserRole         `dynamodbav:"user_role"`
	ServiceType      string           `dynamodbav:"service_type"`
	TransactionID    string           `dynamodbav:"transaction_id"`
	ReferenceID      string           `dynamodbav:"reference_id"`
	MDRAmount        int64            `dynamodbav:"mdr_amount"`
	CommissionRate   decimal.Decimal  `dynamodbav:"commission_rate"`
	CommissionAmount int64            `dynamodbav:"commission_amount"`
	IsLocked         bool             `dynamodbav:"is_locked"`
	Status           CommissionStatus `dynamodbav:"status"`
	LedgerEntryID    string           `dynamodbav:"ledger_entry_id"`
	CreatedAt        time.Time        `dynamodbav:"created_at"`
}

// AuditRecord is an append-only record of a privileged mutation.
type AuditRecord struct {
	ID            string    `dynamodbav:"id"`
	ActorID       string    `dynamodbav:"actor_id"`
	Action        string    `dynamodbav:"action"`
	TargetUserID  string    `dynamodbav:"target_user_id"`
	WalletType    string    `dynamodbav:"wallet_type,omitempty"`
	BalanceBefore int64     `dynamodbav:"balance_before"`
	BalanceAfter  int64     `dynamodbav:"balance_after"`
	IPAddress     string    `dynamodbav:"ip_address,omitempty"`
	Remarks       string    `dynamodbav:"remarks,omitempty"`
	Metadata      string    `dynamodbav:"metadata,omitempty"`
	CreatedAt     time.Time `dynamodbav:"created_at"`
}

var validWalletTypes = map[WalletType]bool{WalletPrimary: true, WalletAeps: true}

var validTxTypes = map[TxType]bool{
	TxCredit: true, TxDebit: true, TxAdjustment: true, TxPayout: true,
	TxSettlementDebit: true, TxSettlementCredit: true, TxCommission: true,
	TxBbpsDebit: true, TxBbpsRefund: true, TxReversal: true,
}

var validFundCategories = map[FundCategory]bool{
	FundCash: true, FundOnline: true, FundCommission: true, FundSettlement: true,
	FundAdjustment: true, FundBbps: true, FundAeps: true,
}

var validRoles = map[UserRole]bool{
	RoleRetailer: true, RoleDistributor: true, RoleMasterDistributor: true,
}

// Valid reports whether the value is a recognized wallet type.
func (t WalletType) Valid() bool { return validWalletTypes[t] }

// Valid reports whether the value is a recognized transaction type.
func (t TxType) Valid() bool { return validTxTypes[t] }

// Valid reports whether the value is a recognized fund category.
func (c FundCategory) Valid() bool { return validFundCategories[c] }

// Valid reports whether the value is a recognized user role.
func (r UserRole) Valid() bool { return validRoles[r] }

// Valid reports whether the value is a recognized limit type.
func (t LimitType) Valid() bool {
	return t == LimitPerTransaction || t == LimitDailyTransaction || t == LimitDailySettlement
}
