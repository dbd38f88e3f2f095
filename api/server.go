/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/members/*          Member directory
  /api/plans/*            Savings plans
  /api/collections/*      Daily payments
  /api/due                Collection rounds
  /api/weeks/*            Week close
  /api/arrears/*          Arrears accounts and payments
  /api/reconciliations/*  Weekly reconciliation
  /api/vault/*            Cash ledger

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Directory routes
		r.Route("/members", func(r chi.Router) {
			r.Get("/", h.ListMembers)
			r.Post("/", h.CreateMember)
			r.Get("/{id}", h.GetMember)
		})
		r.Route("/plans", func(r chi.Router) {
			r.Get("/", h.ListPlans)
			r.Post("/", h.CreatePlan)
			r.Get("/{id}", h.GetPlan)
			r.Get("/{id}/collections", h.GetPlanCollections)
			r.Get("/{id}/statement", h.GetPlanStatement)
		})

		// Collection routes
		r.Get("/due", h.ListDue)
		r.Route("/collections", func(r chi.Router) {
			r.Post("/", h.RecordCollection)
			r.Delete("/{id}", h.CancelCollection)
		})

		// Arrears routes
		r.Post("/weeks/{week}/close", h.CloseWeek)
		r.Route("/arrears", func(r chi.Router) {
			r.Get("/", h.ListAccumulated)
			r.Post("/daily/payments", h.PayDailyArrear)
			r.Post("/rollover", h.Rollover)
			r.Post("/payments", h.RecordArrearPayment)
		})

		// Reconciliation routes
		r.Route("/reconciliations", func(r chi.Router) {
			r.Get("/", h.ListReconciliations)
			r.Post("/", h.Reconcile)
			r.Get("/{week}", h.GetReconciliation)
			r.Post("/{week}/complete", h.CompleteReconciliation)
		})

		// Vault routes
		r.Route("/vault", func(r chi.Router) {
			r.Post("/deposits", h.RecordDeposit)
			r.Post("/withdrawals", h.RecordWithdrawal)
			r.Get("/entries", h.ListVaultEntries)
			r.Get("/balance", h.GetVaultBalance)
		})
	})

	return r
}
