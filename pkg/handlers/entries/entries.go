package entries

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/resellpay/wallet-engine/pkg/api"
	"github.com/resellpay/wallet-engine/pkg/ledger"
	"github.com/resellpay/wallet-engine/pkg/mapping"
	"github.com/resellpay/wallet-engine/pkg/models"
	"github.com/resellpay/wallet-engine/pkg/storage"
)

// EntriesHandler holds the dependencies for ledger-entry handlers.
type EntriesHandler struct {
	Engine *ledger.Engine
	Store  storage.LedgerStore
}

// NewEntriesHandler creates a new EntriesHandler.
func NewEntriesHandler(engine *ledger.Engine, store storage.LedgerStore) *EntriesHandler {
	return &EntriesHandler{Engine: engine, Store: store}
}

// ListEntries handles retrieving the most recent ledger entries for a wallet.
func (h *EntriesHandler) ListEntries(w http.ResponseWriter, r *http.Request, userID string, walletType string) {
	wt := models.WalletType(walletType)
	if !wt.Valid() {
		http.Error(w, fmt.Sprintf("Unrecognized wallet type %q", walletType), http.StatusBadRequest)
		return
	}

	limit := int32(50)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed <= 0 {
			http.Error(w, fmt.Sprintf("Invalid limit %q", raw), http.StatusBadRequest)
			return
		}
		limit = int32(parsed)
	}

	domainEntries, err := h.Store.ListEntries(r.Context(), models.WalletID(userID, wt), limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve ledger entries: %v", err), http.StatusInternalServerError)
		return
	}

	apiEntries := make([]*api.LedgerEntry, len(domainEntries))
	for i, entry := range domainEntries {
		apiEntries[i] = mapping.ToApiLedgerEntry(&entry)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiEntries); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// GetEntry handles retrieving one ledger entry by id.
func (h *EntriesHandler) GetEntry(w http.ResponseWriter, r *http.Request, entryID string) {
	entry, err := h.Store.GetEntryByID(r.Context(), entryID)
	if err != nil {
		if errors.Is(err, storage.ErrEntryNotFound) {
			http.Error(w, "Entry not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Failed to retrieve entry: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(mapping.ToApiLedgerEntry(entry)); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// ReverseEntry handles reversing a ledger entry by appending its compensating entry.
func (h *EntriesHandler) ReverseEntry(w http.ResponseWriter, r *http.Request, entryID string) {
	var req api.ReverseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.Reason == "" {
		http.Error(w, "Reason is required", http.StatusBadRequest)
		return
	}

	reversalID, err := h.Engine.Reverse(r.Context(), entryID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrEntryNotFound):
			http.Error(w, "Entry not found", http.StatusNotFound)
		case errors.Is(err, ledger.ErrNotReversible):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, ledger.ErrAlreadyReversed):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			slog.Error("failed to reverse entry", "entry_id", entryID, "error", err)
			http.Error(w, "Failed to reverse entry", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	result := api.ReverseResult{ReversalEntryId: reversalID, OriginalEntryId: entryID}
	if err := json.NewEncoder(w).Encode(result); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
