package wallets

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/resellpay/wallet-engine/pkg/api"
	"github.com/resellpay/wallet-engine/pkg/ledger"
	"github.com/resellpay/wallet-engine/pkg/limits"
	"github.com/resellpay/wallet-engine/pkg/mapping"
	"github.com/resellpay/wallet-engine/pkg/models"
	"github.com/resellpay/wallet-engine/pkg/storage"
)

// WalletsHandler holds the dependencies for wallet-related handlers.
type WalletsHandler struct {
	Engine   *ledger.Engine
	Enforcer *limits.Enforcer
	Wallets  storage.WalletStore
	Ledger   storage.LedgerStore
}

// NewWalletsHandler creates a new WalletsHandler.
func NewWalletsHandler(engine *ledger.Engine, enforcer *limits.Enforcer, wallets storage.WalletStore, ledgerStore storage.LedgerStore) *WalletsHandler {
	return &WalletsHandler{Engine: engine, Enforcer: enforcer, Wallets: wallets, Ledger: ledgerStore}
}

// Credit handles crediting a user's wallet.
func (h *WalletsHandler) Credit(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, false)
}

// Debit handles debiting a user's wallet. Debits are checked against the
// per-transaction and daily-transaction limits before they reach the ledger.
func (h *WalletsHandler) Debit(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, true)
}

func (h *WalletsHandler) apply(w http.ResponseWriter, r *http.Request, isDebit bool) {
	var newTx api.NewTransaction
	if err := json.NewDecoder(r.Body).Decode(&newTx); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	draft := mapping.ToDomainDraft(&newTx)
	if isDebit {
		draft.Debit = newTx.Amount
	} else {
		draft.Credit = newTx.Amount
	}

	if isDebit {
		walletType := models.WalletType(newTx.WalletType)
		for _, limitType := range []models.LimitType{models.LimitPerTransaction, models.LimitDailyTransaction} {
			if err := h.Enforcer.CheckLimits(r.Context(), newTx.UserId, models.UserRole(newTx.UserRole), walletType, newTx.Amount, limitType); err != nil {
				var limitErr *limits.LimitExceededError
				if errors.As(err, &limitErr) {
					http.Error(w, limitErr.Error(), http.StatusUnprocessableEntity)
					return
				}
				http.Error(w, fmt.Sprintf("Failed to check limits: %v", err), http.StatusInternalServerError)
				return
			}
		}
	}

	res, err := h.Engine.Apply(r.Context(), draft)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidDraft):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, storage.ErrInsufficientFunds):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, storage.ErrWalletFrozen):
			http.Error(w, "Wallet is frozen", http.StatusForbidden)
		default:
			slog.Error("failed to apply transaction", "reference_id", newTx.ReferenceId, "error", err)
			http.Error(w, "Failed to apply transaction", http.StatusInternalServerError)
		}
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(mapping.ToApiTransactionResult(res)); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// GetWallet handles retrieving a wallet with its derived balances.
func (h *WalletsHandler) GetWallet(w http.ResponseWriter, r *http.Request, userID string, walletType string) {
	wt := models.WalletType(walletType)
	if !wt.Valid() {
		http.Error(w, fmt.Sprintf("Unrecognized wallet type %q", walletType), http.StatusBadRequest)
		return
	}

	wallet, err := h.Wallets.GetWallet(r.Context(), userID, wt)
	if err != nil {
		if errors.Is(err, storage.ErrWalletNotFound) {
			http.Error(w, "Wallet not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Failed to retrieve wallet: %v", err), http.StatusInternalServerError)
		return
	}

	totals, err := h.Ledger.WalletTotals(r.Context(), wallet.ID())
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to compute balance: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(mapping.ToApiWallet(wallet, totals.Completed, totals.Spendable())); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// ListWallets handles retrieving all wallets with their derived balances.
func (h *WalletsHandler) ListWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := h.Wallets.ListWallets(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve wallets: %v", err), http.StatusInternalServerError)
		return
	}

	apiWallets := make([]*api.Wallet, len(wallets))
	for i, wallet := range wallets {
		totals, err := h.Ledger.WalletTotals(r.Context(), wallet.ID())
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to compute balance for %s: %v", wallet.ID(), err), http.StatusInternalServerError)
			return
		}
		apiWallets[i] = mapping.ToApiWallet(&wallet, totals.Completed, totals.Spendable())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiWallets); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
