package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	adminsvc "github.com/resellpay/wallet-engine/pkg/admin"
	"github.com/resellpay/wallet-engine/pkg/api"
	"github.com/resellpay/wallet-engine/pkg/ledger"
	"github.com/resellpay/wallet-engine/pkg/mapping"
	"github.com/resellpay/wallet-engine/pkg/models"
	"github.com/resellpay/wallet-engine/pkg/storage"
)

// AdminHandler holds the dependencies for the privileged admin endpoints.
// Authentication happens upstream; the actor id arrives in the X-Admin-Id header.
type AdminHandler struct {
	Service *adminsvc.Service
	Audit   storage.AuditStore
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service *adminsvc.Service, audit storage.AuditStore) *AdminHandler {
	return &AdminHandler{Service: service, Audit: audit}
}

func actorFrom(r *http.Request) (adminsvc.Actor, error) {
	actorID := r.Header.Get("X-Admin-Id")
	if actorID == "" {
		return adminsvc.Actor{}, errors.New("missing X-Admin-Id header")
	}
	return adminsvc.Actor{ID: actorID, IPAddress: r.RemoteAddr}, nil
}

func fundsRequestFrom(body *api.AdminFundsRequest) adminsvc.FundsRequest {
	req := adminsvc.FundsRequest{
		UserID:     body.UserId,
		UserRole:   models.UserRole(body.UserRole),
		WalletType: models.WalletType(body.WalletType),
		Amount:     body.Amount,
	}
	if body.ReferenceId != nil {
		req.ReferenceID = *body.ReferenceId
	}
	if body.Remarks != nil {
		req.Remarks = *body.Remarks
	}
	return req
}

// PushFunds handles an admin credit to a user's wallet.
func (h *AdminHandler) PushFunds(w http.ResponseWriter, r *http.Request) {
	h.moveFunds(w, r, true)
}

// PullFunds handles an admin debit from a user's wallet.
func (h *AdminHandler) PullFunds(w http.ResponseWriter, r *http.Request) {
	h.moveFunds(w, r, false)
}

func (h *AdminHandler) moveFunds(w http.ResponseWriter, r *http.Request, isPush bool) {
	actor, err := actorFrom(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var body api.AdminFundsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	req := fundsRequestFrom(&body)
	var res *ledger.ApplyResult
	if isPush {
		res, err = h.Service.PushFunds(r.Context(), actor, req)
	} else {
		res, err = h.Service.PullFunds(r.Context(), actor, req)
	}
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInsufficientFunds):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, storage.ErrWalletFrozen):
			http.Error(w, "Wallet is frozen", http.StatusForbidden)
		default:
			slog.Error("admin funds move failed", "actor", actor.ID, "user_id", body.UserId, "error", err)
			http.Error(w, "Failed to move funds", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(mapping.ToApiTransactionResult(res)); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// SetFrozen handles freezing or unfreezing a wallet.
func (h *AdminHandler) SetFrozen(w http.ResponseWriter, r *http.Request, userID string, walletType string) {
	h.setFlag(w, r, userID, walletType, "freeze")
}

// SetSettlementHold handles holding or releasing settlements for a wallet.
func (h *AdminHandler) SetSettlementHold(w http.ResponseWriter, r *http.Request, userID string, walletType string) {
	h.setFlag(w, r, userID, walletType, "hold")
}

func (h *AdminHandler) setFlag(w http.ResponseWriter, r *http.Request, userID, walletType, flag string) {
	actor, err := actorFrom(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	wt := models.WalletType(walletType)
	if !wt.Valid() {
		http.Error(w, fmt.Sprintf("Unrecognized wallet type %q", walletType), http.StatusBadRequest)
		return
	}

	var body api.AdminFlagRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	remarks := ""
	if body.Remarks != nil {
		remarks = *body.Remarks
	}

	if flag == "freeze" {
		err = h.Service.SetFrozen(r.Context(), actor, userID, wt, body.Enabled, remarks)
	} else {
		err = h.Service.SetSettlementHold(r.Context(), actor, userID, wt, body.Enabled, remarks)
	}
	if err != nil {
		slog.Error("admin flag update failed", "actor", actor.ID, "user_id", userID, "flag", flag, "error", err)
		http.Error(w, "Failed to update wallet", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetLimit handles creating or replacing a user limit, including overrides.
func (h *AdminHandler) SetLimit(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var body api.UserLimit
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if err := h.Service.SetLimit(r.Context(), actor, mapping.ToDomainUserLimit(&body)); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListAudit handles retrieving the most recent audit records. The optional user_id
// query parameter narrows the trail to one target user.
func (h *AdminHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	if _, err := actorFrom(r); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	userID := r.URL.Query().Get("user_id")

	limit := int32(50)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed <= 0 {
			http.Error(w, fmt.Sprintf("Invalid limit %q", raw), http.StatusBadRequest)
			return
		}
		limit = int32(parsed)
	}

	records, err := h.Audit.ListAudit(r.Context(), userID, limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve audit records: %v", err), http.StatusInternalServerError)
		return
	}

	apiRecords := make([]*api.AuditRecord, len(records))
	for i, record := range records {
		apiRecords[i] = mapping.ToApiAuditRecord(&record)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiRecords); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
