// Package memory provides an in-memory storage implementation for local
// development and tests. It mirrors the DynamoDB store's conditional-write
// semantics, including duplicate and status-guard errors.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/resellpay/wallet-engine/pkg/models"
	"github.com/resellpay/wallet-engine/pkg/storage"
)

// Store is a thread-safe in-memory implementation of storage.Storage.
type Store struct {
	mu sync.Mutex

	entriesByWallet map[string]map[string]*models.LedgerEntry
	entriesByID     map[string]*models.LedgerEntry
	entryOrder      []string

	wallets     map[string]*models.Wallet
	settlements map[string]*models.Settlement
	limits      map[string]*models.UserLimit
	slabs       []models.ChargeSlab
	commissions map[string]*models.CommissionEntry
	audit       []models.AuditRecord
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		entriesByWallet: make(map[string]map[string]*models.LedgerEntry),
		entriesByID:     make(map[string]*models.LedgerEntry),
		wallets:         make(map[string]*models.Wallet),
		settlements:     make(map[string]*models.Settlement),
		limits:          make(map[string]*models.UserLimit),
		commissions:     make(map[string]*models.CommissionEntry),
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

// SeedSlabs replaces the slab configuration.
func (s *Store) SeedSlabs(slabs []models.ChargeSlab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slabs = slabs
}

func copyEntry(e *models.LedgerEntry) *models.LedgerEntry {
	out := *e
	return &out
}

// PutEntry appends a ledger entry, rejecting duplicate ref keys per wallet.
func (s *Store) PutEntry(ctx context.Context, entry *models.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	partition, ok := s.entriesByWallet[entry.WalletID]
	if !ok {
		partition = make(map[string]*models.LedgerEntry)
		s.entriesByWallet[entry.WalletID] = partition
	}
	if _, exists := partition[entry.RefKey]; exists {
		return storage.ErrDuplicateEntry
	}

	stored := copyEntry(entry)
	partition[entry.RefKey] = stored
	s.entriesByID[entry.EntryID] = stored
	s.entryOrder = append(s.entryOrder, entry.EntryID)
	return nil
}

// GetEntryByRefKey retrieves an entry by its wallet partition and ref key.
func (s *Store) GetEntryByRefKey(ctx context.Context, walletID, refKey string) (*models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entriesByWallet[walletID][refKey]; ok {
		return copyEntry(entry), nil
	}
	return nil, storage.ErrEntryNotFound
}

// GetEntryByID retrieves an entry by its unique id.
func (s *Store) GetEntryByID(ctx context.Context, entryID string) (*models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entriesByID[entryID]; ok {
		return copyEntry(entry), nil
	}
	return nil, storage.ErrEntryNotFound
}

// UpdateEntryStatus transitions an entry's status under a current-status guard.
func (s *Store) UpdateEntryStatus(ctx context.Context, walletID, refKey string, from []models.EntryStatus, to models.EntryStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entriesByWallet[walletID][refKey]
	if !ok {
		return storage.ErrEntryNotFound
	}
	for _, status := range from {
		if entry.Status == status {
			entry.Status = to
			return nil
		}
	}
	return storage.ErrStatusConflict
}

// WalletTotals sums the wallet's partition.
func (s *Store) WalletTotals(ctx context.Context, walletID string) (storage.WalletTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var totals storage.WalletTotals
	for _, entry := range s.entriesByWallet[walletID] {
		switch entry.Status {
		case models.EntryCompleted:
			totals.Completed += entry.Credit - entry.Debit
		case models.EntryPending, models.EntryHold:
			totals.ReservedDebits += entry.Debit
		}
	}
	return totals, nil
}

// SumCompletedDebitsSince sums completed debits created at or after since.
func (s *Store) SumCompletedDebitsSince(ctx context.Context, walletID string, since time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum int64
	for _, entry := range s.entriesByWallet[walletID] {
		if entry.Status == models.EntryCompleted && entry.Debit > 0 && !entry.CreatedAt.Before(since) {
			sum += entry.Debit
		}
	}
	return sum, nil
}

// ListEntries retrieves the most recent entries for a wallet.
func (s *Store) ListEntries(ctx context.Context, walletID string, limit int32) ([]models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []models.LedgerEntry
	for i := len(s.entryOrder) - 1; i >= 0 && int32(len(entries)) < limit; i-- {
		entry := s.entriesByID[s.entryOrder[i]]
		if entry.WalletID == walletID {
			entries = append(entries, *entry)
		}
	}
	return entries, nil
}

// EnsureWallet returns the wallet, creating it if missing.
func (s *Store) EnsureWallet(ctx context.Context, userID string, walletType models.WalletType) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := models.WalletID(userID, walletType)
	if wallet, ok := s.wallets[id]; ok {
		out := *wallet
		return &out, nil
	}

	wallet := &models.Wallet{
		UserID:     userID,
		WalletType: walletType,
		CreatedAt:  time.Now(),
	}
	s.wallets[id] = wallet
	out := *wallet
	return &out, nil
}

// GetWallet retrieves a wallet.
func (s *Store) GetWallet(ctx context.Context, userID string, walletType models.WalletType) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if wallet, ok := s.wallets[models.WalletID(userID, walletType)]; ok {
		out := *wallet
		return &out, nil
	}
	return nil, storage.ErrWalletNotFound
}

// SetFrozen sets or clears the frozen flag.
func (s *Store) SetFrozen(ctx context.Context, userID string, walletType models.WalletType, frozen bool) error {
	return s.setFlag(userID, walletType, func(w *models.Wallet) { w.IsFrozen = frozen })
}

// SetSettlementHold sets or clears the settlement-held flag.
func (s *Store) SetSettlementHold(ctx context.Context, userID string, walletType models.WalletType, held bool) error {
	return s.setFlag(userID, walletType, func(w *models.Wallet) { w.IsSettlementHeld = held })
}

func (s *Store) setFlag(userID string, walletType models.WalletType, apply func(*models.Wallet)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wallet, ok := s.wallets[models.WalletID(userID, walletType)]
	if !ok {
		return storage.ErrWalletNotFound
	}
	apply(wallet)
	return nil
}

// ListWallets retrieves all wallets.
func (s *Store) ListWallets(ctx context.Context) ([]models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wallets := make([]models.Wallet, 0, len(s.wallets))
	for _, wallet := range s.wallets {
		wallets = append(wallets, *wallet)
	}
	sort.Slice(wallets, func(i, j int) bool {
		return models.WalletID(wallets[i].UserID, wallets[i].WalletType) <
			models.WalletID(wallets[j].UserID, wallets[j].WalletType)
	})
	return wallets, nil
}

// CreateSettlementWithDebit persists both rows or neither.
func (s *Store) CreateSettlementWithDebit(ctx context.Context, settlement *models.Settlement, debit *models.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.settlements[settlement.ID]; exists {
		return storage.ErrDuplicateEntry
	}
	if _, exists := s.entriesByWallet[debit.WalletID][debit.RefKey]; exists {
		return storage.ErrDuplicateEntry
	}

	stored := *settlement
	s.settlements[settlement.ID] = &stored

	partition, ok := s.entriesByWallet[debit.WalletID]
	if !ok {
		partition = make(map[string]*models.LedgerEntry)
		s.entriesByWallet[debit.WalletID] = partition
	}
	entry := copyEntry(debit)
	partition[debit.RefKey] = entry
	s.entriesByID[debit.EntryID] = entry
	s.entryOrder = append(s.entryOrder, debit.EntryID)
	return nil
}

// GetSettlement retrieves a settlement by id.
func (s *Store) GetSettlement(ctx context.Context, id string) (*models.Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if settlement, ok := s.settlements[id]; ok {
		out := *settlement
		return &out, nil
	}
	return nil, storage.ErrSettlementNotFound
}

// UpdateSettlementStatus transitions a settlement's status under a guard.
func (s *Store) UpdateSettlementStatus(ctx context.Context, id string, from []models.SettlementStatus, to models.SettlementStatus, failureReason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settlement, ok := s.settlements[id]
	if !ok {
		return storage.ErrSettlementNotFound
	}
	for _, status := range from {
		if settlement.Status == status {
			settlement.Status = to
			settlement.UpdatedAt = time.Now()
			if failureReason != "" {
				settlement.FailureReason = failureReason
			}
			return nil
		}
	}
	return storage.ErrStatusConflict
}

// ListPendingT1Before retrieves pending T+1 settlements created before the cutoff.
func (s *Store) ListPendingT1Before(ctx context.Context, cutoff time.Time) ([]models.Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Settlement
	for _, settlement := range s.settlements {
		if settlement.Status == models.SettlementPending &&
			settlement.Mode == models.SettlementT1 &&
			settlement.CreatedAt.Before(cutoff) {
			out = append(out, *settlement)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// SumSettledSince sums non-failed settlement amounts for a user since the given time.
func (s *Store) SumSettledSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum int64
	for _, settlement := range s.settlements {
		if settlement.UserID == userID &&
			settlement.Status != models.SettlementFailed &&
			!settlement.CreatedAt.Before(since) {
			sum += settlement.Amount
		}
	}
	return sum, nil
}

// GetLimit retrieves the configured limit row, or nil when absent.
func (s *Store) GetLimit(ctx context.Context, userID string, walletType models.WalletType, limitType models.LimitType) (*models.UserLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit, ok := s.limits[limitMapKey(userID, walletType, limitType)]; ok {
		out := *limit
		return &out, nil
	}
	return nil, nil
}

// PutLimit creates or replaces a limit row.
func (s *Store) PutLimit(ctx context.Context, limit *models.UserLimit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *limit
	s.limits[limitMapKey(limit.UserID, limit.WalletType, limit.LimitType)] = &stored
	return nil
}

func limitMapKey(userID string, walletType models.WalletType, limitType models.LimitType) string {
	return userID + "#" + string(walletType) + "#" + string(limitType)
}

// ListActiveSlabs retrieves all active slabs.
func (s *Store) ListActiveSlabs(ctx context.Context) ([]models.ChargeSlab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.ChargeSlab
	for _, slab := range s.slabs {
		if slab.IsActive {
			out = append(out, slab)
		}
	}
	return out, nil
}

// PutCommission appends a commission entry.
func (s *Store) PutCommission(ctx context.Context, c *models.CommissionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.commissions[c.ID]; exists {
		return storage.ErrDuplicateEntry
	}
	stored := *c
	s.commissions[c.ID] = &stored
	return nil
}

// Commissions returns all stored commission entries, for assertions in tests.
func (s *Store) Commissions() []models.CommissionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.CommissionEntry, 0, len(s.commissions))
	for _, c := range s.commissions {
		out = append(out, *c)
	}
	return out
}

// PutAudit appends an audit record.
func (s *Store) PutAudit(ctx context.Context, rec *models.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audit = append(s.audit, *rec)
	return nil
}

// ListAudit retrieves the most recent audit records, optionally filtered to one user.
func (s *Store) ListAudit(ctx context.Context, targetUserID string, limit int32) ([]models.AuditRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.AuditRecord
	for i := len(s.audit) - 1; i >= 0 && int32(len(out)) < limit; i-- {
		if targetUserID == "" || s.audit[i].TargetUserID == targetUserID {
			out = append(out, s.audit[i])
		}
	}
	return out, nil
}
