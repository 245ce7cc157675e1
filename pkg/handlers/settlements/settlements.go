package settlements

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/resellpay/wallet-engine/pkg/api"
	"github.com/resellpay/wallet-engine/pkg/limits"
	"github.com/resellpay/wallet-engine/pkg/mapping"
	"github.com/resellpay/wallet-engine/pkg/settlement"
	"github.com/resellpay/wallet-engine/pkg/storage"
)

// SettlementsHandler holds the dependencies for settlement-related handlers.
type SettlementsHandler struct {
	Engine *settlement.Engine
	Store  storage.SettlementStore
}

// NewSettlementsHandler creates a new SettlementsHandler.
func NewSettlementsHandler(engine *settlement.Engine, store storage.SettlementStore) *SettlementsHandler {
	return &SettlementsHandler{Engine: engine, Store: store}
}

// CreateSettlement handles the creation of a new settlement.
func (h *SettlementsHandler) CreateSettlement(w http.ResponseWriter, r *http.Request) {
	var newSettlement api.NewSettlement
	if err := json.NewDecoder(r.Body).Decode(&newSettlement); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	created, err := h.Engine.CreateSettlement(r.Context(), mapping.ToDomainSettlementRequest(&newSettlement))
	if err != nil {
		var limitErr *limits.LimitExceededError
		switch {
		case errors.Is(err, settlement.ErrInvalidRequest):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, storage.ErrInsufficientFunds):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, storage.ErrWalletFrozen):
			http.Error(w, "Wallet is frozen", http.StatusForbidden)
		case errors.Is(err, storage.ErrSettlementHeld):
			http.Error(w, "Settlements are held for this wallet", http.StatusForbidden)
		case errors.As(err, &limitErr):
			http.Error(w, limitErr.Error(), http.StatusUnprocessableEntity)
		default:
			slog.Error("failed to create settlement", "user_id", newSettlement.UserId, "error", err)
			http.Error(w, "Failed to create settlement", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(mapping.ToApiSettlement(created)); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// GetSettlement handles retrieving a settlement by its ID.
func (h *SettlementsHandler) GetSettlement(w http.ResponseWriter, r *http.Request, settlementID string) {
	s, err := h.Store.GetSettlement(r.Context(), settlementID)
	if err != nil {
		if errors.Is(err, storage.ErrSettlementNotFound) {
			http.Error(w, "Settlement not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Failed to retrieve settlement: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(mapping.ToApiSettlement(s)); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// ReleaseSettlement hands a settlement to the finalize worker.
func (h *SettlementsHandler) ReleaseSettlement(w http.ResponseWriter, r *http.Request, settlementID string) {
	err := h.Engine.ReleaseSettlement(r.Context(), settlementID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrSettlementNotFound):
			http.Error(w, "Settlement not found", http.StatusNotFound)
		case errors.Is(err, storage.ErrStatusConflict):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			slog.Error("failed to release settlement", "settlement_id", settlementID, "error", err)
			http.Error(w, "Failed to release settlement", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// RunT1Batch triggers the T+1 payout batch for a business day. Without an explicit
// date it releases everything created before today's local midnight.
func (h *SettlementsHandler) RunT1Batch(w http.ResponseWriter, r *http.Request) {
	var req api.T1BatchRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
			return
		}
	}

	now := time.Now()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if req.Date != nil {
		d := req.Date.Time
		cutoff = time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, now.Location())
	}

	dispatched, err := h.Engine.RunT1Batch(r.Context(), cutoff)
	if err != nil {
		slog.Error("T+1 batch failed", "cutoff", cutoff, "error", err)
		http.Error(w, "Failed to run T+1 batch", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(api.T1BatchResult{Dispatched: dispatched}); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
