// Package handlers wires the per-resource HTTP handlers onto one chi router.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	adminhandler "github.com/resellpay/wallet-engine/pkg/handlers/admin"
	"github.com/resellpay/wallet-engine/pkg/handlers/entries"
	"github.com/resellpay/wallet-engine/pkg/handlers/settlements"
	"github.com/resellpay/wallet-engine/pkg/handlers/wallets"
)

// Handlers bundles the per-resource handlers mounted by NewRouter.
type Handlers struct {
	Wallets     *wallets.WalletsHandler
	Entries     *entries.EntriesHandler
	Settlements *settlements.SettlementsHandler
	Admin       *adminhandler.AdminHandler
}

// NewRouter mounts all routes onto a chi router.
func NewRouter(h Handlers, middlewares ...func(http.Handler) http.Handler) chi.Router {
	router := chi.NewRouter()
	for _, mw := range middlewares {
		router.Use(mw)
	}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Route("/wallets", func(r chi.Router) {
		r.Get("/", h.Wallets.ListWallets)
		r.Post("/credit", h.Wallets.Credit)
		r.Post("/debit", h.Wallets.Debit)
		r.Get("/{userId}/{walletType}", func(w http.ResponseWriter, req *http.Request) {
			h.Wallets.GetWallet(w, req, chi.URLParam(req, "userId"), chi.URLParam(req, "walletType"))
		})
		r.Get("/{userId}/{walletType}/entries", func(w http.ResponseWriter, req *http.Request) {
			h.Entries.ListEntries(w, req, chi.URLParam(req, "userId"), chi.URLParam(req, "walletType"))
		})
	})

	router.Route("/entries", func(r chi.Router) {
		r.Get("/{entryId}", func(w http.ResponseWriter, req *http.Request) {
			h.Entries.GetEntry(w, req, chi.URLParam(req, "entryId"))
		})
		r.Post("/{entryId}/reverse", func(w http.ResponseWriter, req *http.Request) {
			h.Entries.ReverseEntry(w, req, chi.URLParam(req, "entryId"))
		})
	})

	router.Route("/settlements", func(r chi.Router) {
		r.Post("/", h.Settlements.CreateSettlement)
		r.Get("/{settlementId}", func(w http.ResponseWriter, req *http.Request) {
			h.Settlements.GetSettlement(w, req, chi.URLParam(req, "settlementId"))
		})
		r.Post("/{settlementId}/release", func(w http.ResponseWriter, req *http.Request) {
			h.Settlements.ReleaseSettlement(w, req, chi.URLParam(req, "settlementId"))
		})
	})

	router.Route("/admin", func(r chi.Router) {
		r.Post("/funds/push", h.Admin.PushFunds)
		r.Post("/funds/pull", h.Admin.PullFunds)
		r.Post("/wallets/{userId}/{walletType}/freeze", func(w http.ResponseWriter, req *http.Request) {
			h.Admin.SetFrozen(w, req, chi.URLParam(req, "userId"), chi.URLParam(req, "walletType"))
		})
		r.Post("/wallets/{userId}/{walletType}/settlement-hold", func(w http.ResponseWriter, req *http.Request) {
			h.Admin.SetSettlementHold(w, req, chi.URLParam(req, "userId"), chi.URLParam(req, "walletType"))
		})
		r.Put("/limits", h.Admin.SetLimit)
		r.Get("/audit", h.Admin.ListAudit)
		r.Post("/settlements/t1-batch", h.Settlements.RunT1Batch)
	})

	return router
}
