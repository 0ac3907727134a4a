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
  /api/stores/*     Store management
  /api/suppliers/*  Supplier management
  /api/owners/*     Factory owner registry
  /api/invoices/*   Quota-gated invoice ledger
  /api/payments/*   Payment ledger
  /api/quarters/*   Quarter lifecycle
  /api/export/*     CSV reports
  /api/backup       JSON backup export/import
  /api/advisor/*    LLM advisory endpoints

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Store routes
		r.Route("/stores", func(r chi.Router) {
			r.Get("/", h.ListStores)
			r.Post("/", h.CreateStore)
			r.Put("/{id}", h.UpdateStore)
			r.Put("/{id}/expenses", h.UpdateStoreExpenses)
			r.Delete("/{id}", h.DeleteStore)
		})

		// Supplier routes
		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", h.ListSuppliers)
			r.Post("/", h.CreateSupplier)
			r.Put("/{id}", h.UpdateSupplier)
			r.Delete("/{id}", h.DeleteSupplier)
		})

		// Owner registry routes
		r.Route("/owners", func(r chi.Router) {
			r.Get("/", h.ListOwners)
			r.Post("/", h.AddOwner)
			r.Post("/rename", h.RenameOwner)
			r.Delete("/{name}", h.DeleteOwner)
		})

		// Invoice routes
		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", h.ListInvoices)
			r.Post("/", h.SubmitInvoice)
			r.Put("/{id}/status", h.UpdateInvoiceStatus)
			r.Delete("/{id}", h.DeleteInvoice)
		})

		// Payment routes
		r.Route("/payments", func(r chi.Router) {
			r.Get("/", h.ListPayments)
			r.Post("/", h.CreatePayment)
			r.Delete("/{id}", h.DeletePayment)
		})

		r.Get("/dashboard", h.Dashboard)

		// Quarter lifecycle routes
		r.Route("/quarters", func(r chi.Router) {
			r.Get("/", h.GetQuarters)
			r.Post("/next", h.StartNewQuarter)
			r.Post("/switch", h.SwitchQuarter)
			r.Delete("/{id}", h.DeleteQuarter)
		})

		// Export and backup routes
		r.Route("/export", func(r chi.Router) {
			r.Get("/stores.csv", h.ExportStoresCSV)
			r.Get("/suppliers.csv", h.ExportSuppliersCSV)
		})
		r.Get("/backup", h.ExportBackup)
		r.Post("/backup", h.ImportBackup)

		// Advisor routes
		r.Route("/advisor", func(r chi.Router) {
			r.Post("/analysis", h.Analyze)
			r.Post("/chat", h.Chat)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Quota Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Quota Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/stores">/api/stores</a> - List stores</li>
<li><a href="/api/suppliers">/api/suppliers</a> - List suppliers</li>
<li><a href="/api/dashboard">/api/dashboard</a> - Dashboard report</li>
<li><a href="/api/quarters">/api/quarters</a> - Quarter lifecycle</li>
</ul>
</body>
</html>`))
	})

	return r
}
