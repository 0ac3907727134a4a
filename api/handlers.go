/*
handlers.go - HTTP API handlers for the quota engine

PURPOSE:
  Exposes the dataset and its derived reports via REST. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Stores:
    GET    /api/stores                 List stores (q filter)
    POST   /api/stores                 Create store
    PUT    /api/stores/{id}            Update store
    PUT    /api/stores/{id}/expenses   Replace expense breakdown
    DELETE /api/stores/{id}            Delete store

  Suppliers / Owners:
    GET    /api/suppliers              List suppliers (q filter)
    POST   /api/suppliers              Create supplier
    PUT    /api/suppliers/{id}         Update supplier
    DELETE /api/suppliers/{id}         Delete supplier
    GET    /api/owners                 Owner registry
    POST   /api/owners                 Register owner
    POST   /api/owners/rename          Cascading rename
    DELETE /api/owners/{name}          Registry-only delete

  Ledger:
    GET    /api/invoices               List invoices
    POST   /api/invoices               Submit invoice (quota-gated)
    PUT    /api/invoices/{id}/status   Verification status update
    DELETE /api/invoices/{id}          Delete invoice
    GET    /api/payments               List payments
    POST   /api/payments               Record payment
    DELETE /api/payments/{id}          Delete payment
    GET    /api/dashboard              KPI aggregates and rankings

  Quarters:
    GET    /api/quarters               Current, available, summaries
    POST   /api/quarters/next          Close books, open next quarter
    POST   /api/quarters/switch        Switch working quarter
    DELETE /api/quarters/{id}          Delete quarter snapshot

  Export / Backup:
    GET    /api/export/stores.csv      Store-centric CSV
    GET    /api/export/suppliers.csv   Supplier-centric CSV
    GET    /api/backup                 JSON backup download
    POST   /api/backup                 Atomic backup restore

  Advisor:
    POST   /api/advisor/analysis       LLM pairing plan (503 if unconfigured)
    POST   /api/advisor/chat           LLM chat (503 if unconfigured)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, malformed backups
  - 404: Record not found
  - 409: Quota or period rejections
  - 503: Advisor not configured
  - 500: Internal errors

SECURITY NOTE:
  No authentication. The system assumes a single effective writer
  per dataset.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/quotaflow/quota-engine/advisor"
	"github.com/quotaflow/quota-engine/core"
	"github.com/quotaflow/quota-engine/export"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Data    *core.Dataset
	Advisor *advisor.Advisor // nil when no API key is configured
	Log     zerolog.Logger

	validate *validator.Validate
}

// NewHandler creates a handler around the dataset. adv may be nil.
func NewHandler(data *core.Dataset, adv *advisor.Advisor, log zerolog.Logger) *Handler {
	return &Handler{
		Data:     data,
		Advisor:  adv,
		Log:      log,
		validate: validator.New(),
	}
}

// decode parses and validates a request body.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// =============================================================================
// STORE HANDLERS
// =============================================================================

// ListStores returns all stores, optionally filtered by ?q=.
func (h *Handler) ListStores(w http.ResponseWriter, r *http.Request) {
	stores := h.Data.Stores(core.MatchStore(r.URL.Query().Get("q")))
	if stores == nil {
		stores = []core.Store{}
	}
	writeJSON(w, http.StatusOK, stores)
}

// CreateStore creates a new store with zero expenses.
func (h *Handler) CreateStore(w http.ResponseWriter, r *http.Request) {
	var req StoreRequest
	if !h.decode(w, r, &req) {
		return
	}

	st, err := h.Data.AddStore(req.StoreName, req.CompanyName, req.QuarterIncome, core.StoreTaxType(req.TaxType))
	if err != nil {
		writeDomainError(w, "Failed to create store", err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

// UpdateStore edits a store's identity and income. Expenses are untouched.
func (h *Handler) UpdateStore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req StoreRequest
	if !h.decode(w, r, &req) {
		return
	}

	st, err := h.Data.UpdateStore(id, req.StoreName, req.CompanyName, req.QuarterIncome, core.StoreTaxType(req.TaxType))
	if err != nil {
		writeDomainError(w, "Failed to update store", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// UpdateStoreExpenses replaces the expense breakdown and recomputes the
// aggregate.
func (h *Handler) UpdateStoreExpenses(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req ExpensesRequest
	if !h.decode(w, r, &req) {
		return
	}

	st, err := h.Data.UpdateStoreExpenses(id, core.ExpenseBreakdown{
		Shipping:  req.Shipping,
		Promotion: req.Promotion,
		Salaries:  req.Salaries,
		Rent:      req.Rent,
		Office:    req.Office,
		Fuel:      req.Fuel,
		Other:     req.Other,
	})
	if err != nil {
		writeDomainError(w, "Failed to update expenses", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// DeleteStore removes a store. Its invoices remain as orphaned records.
func (h *Handler) DeleteStore(w http.ResponseWriter, r *http.Request) {
	if err := h.Data.RemoveStore(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete store", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SUPPLIER HANDLERS
// =============================================================================

// ListSuppliers returns all suppliers, optionally filtered by ?q=.
func (h *Handler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers := h.Data.Suppliers(core.MatchSupplier(r.URL.Query().Get("q")))
	if suppliers == nil {
		suppliers = []core.Supplier{}
	}
	writeJSON(w, http.StatusOK, suppliers)
}

// CreateSupplier creates a supplier and registers its owner.
func (h *Handler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req SupplierRequest
	if !h.decode(w, r, &req) {
		return
	}

	limit := req.QuarterlyLimit
	if limit.IsZero() && core.SupplierType(req.Type) == core.SupplierIndividual {
		limit = core.StatutoryQuarterlyLimit
	}
	sup, err := h.Data.AddSupplier(req.Name, req.Owner, core.SupplierType(req.Type), limit)
	if err != nil {
		writeDomainError(w, "Failed to create supplier", err)
		return
	}
	writeJSON(w, http.StatusCreated, sup)
}

// UpdateSupplier edits a supplier. The owner is not editable here; use the
// owner rename cascade instead.
func (h *Handler) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req SupplierRequest
	if !h.decode(w, r, &req) {
		return
	}

	status := core.SupplierStatus(req.Status)
	if status == "" {
		status = core.StatusActive
	}
	sup, err := h.Data.UpdateSupplier(id, req.Name, core.SupplierType(req.Type), req.QuarterlyLimit, status)
	if err != nil {
		writeDomainError(w, "Failed to update supplier", err)
		return
	}
	writeJSON(w, http.StatusOK, sup)
}

// DeleteSupplier removes a supplier. Its invoices remain as orphaned records.
func (h *Handler) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	if err := h.Data.RemoveSupplier(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete supplier", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// OWNER REGISTRY HANDLERS
// =============================================================================

// ListOwners returns the factory owner registry.
func (h *Handler) ListOwners(w http.ResponseWriter, r *http.Request) {
	owners := h.Data.Owners()
	if owners == nil {
		owners = []string{}
	}
	writeJSON(w, http.StatusOK, owners)
}

// AddOwner registers a factory owner.
func (h *Handler) AddOwner(w http.ResponseWriter, r *http.Request) {
	var req AddOwnerRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Data.AddOwner(req.Name); err != nil {
		writeDomainError(w, "Failed to add owner", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.Data.Owners())
}

// RenameOwner renames an owner across suppliers, payments and the registry
// in one atomic step.
func (h *Handler) RenameOwner(w http.ResponseWriter, r *http.Request) {
	var req RenameOwnerRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Data.RenameOwner(req.OldName, req.NewName); err != nil {
		writeDomainError(w, "Failed to rename owner", err)
		return
	}
	writeJSON(w, http.StatusOK, h.Data.Owners())
}

// DeleteOwner removes an owner from the registry only. Supplier and payment
// rows keep the name.
func (h *Handler) DeleteOwner(w http.ResponseWriter, r *http.Request) {
	if err := h.Data.DeleteOwner(chi.URLParam(r, "name")); err != nil {
		writeDomainError(w, "Failed to delete owner", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// INVOICE HANDLERS
// =============================================================================

// ListInvoices returns all invoices of the working quarter.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices := h.Data.Invoices(nil)
	if invoices == nil {
		invoices = []core.Invoice{}
	}
	writeJSON(w, http.StatusOK, invoices)
}

// SubmitInvoice runs the quota admission check and records the invoice.
func (h *Handler) SubmitInvoice(w http.ResponseWriter, r *http.Request) {
	var req InvoiceRequest
	if !h.decode(w, r, &req) {
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	inv, err := h.Data.SubmitInvoice(core.InvoiceInput{
		StoreID:    req.StoreID,
		SupplierID: req.SupplierID,
		Amount:     req.Amount,
		Date:       date,
	})
	if err != nil {
		writeDomainError(w, "Invoice rejected", err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// UpdateInvoiceStatus records a verification outcome.
func (h *Handler) UpdateInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req InvoiceStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	inv, err := h.Data.UpdateInvoiceStatus(id, core.InvoiceStatus(req.Status), req.Verification)
	if err != nil {
		writeDomainError(w, "Failed to update invoice status", err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// DeleteInvoice removes an invoice unconditionally, freeing quota.
func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := h.Data.RemoveInvoice(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete invoice", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// ListPayments returns all payments of the working quarter.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments := h.Data.Payments(nil)
	if payments == nil {
		payments = []core.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

// CreatePayment records a payment to a factory owner. Payments are not
// quota-gated.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	p, err := h.Data.AddPayment(req.FactoryOwner, req.Amount, date)
	if err != nil {
		writeDomainError(w, "Failed to record payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// DeletePayment removes a payment.
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	if err := h.Data.RemovePayment(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete payment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// DASHBOARD
// =============================================================================

// Dashboard returns the full derived view in one consistent read.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Data.Report())
}

// =============================================================================
// QUARTER LIFECYCLE HANDLERS
// =============================================================================

// GetQuarters lists the current quarter, available quarters and per-quarter
// archive summaries.
func (h *Handler) GetQuarters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, QuartersResponse{
		Current:   h.Data.CurrentQuarter(),
		Available: h.Data.AvailableQuarters(),
		Summaries: h.Data.QuarterSummaries(),
	})
}

// StartNewQuarter archives the working quarter and opens the next one.
func (h *Handler) StartNewQuarter(w http.ResponseWriter, r *http.Request) {
	next, err := h.Data.StartNewQuarter()
	if err != nil {
		writeDomainError(w, "Failed to start new quarter", err)
		return
	}
	h.Log.Info().Str("quarter", string(next)).Msg("new quarter started")
	writeJSON(w, http.StatusOK, map[string]any{"current": next})
}

// SwitchQuarter archives the working quarter and restores the target's
// snapshot, or a degraded empty reset when none exists.
func (h *Handler) SwitchQuarter(w http.ResponseWriter, r *http.Request) {
	var req SwitchQuarterRequest
	if !h.decode(w, r, &req) {
		return
	}

	target, err := core.ParseQuarter(req.Quarter)
	if err != nil {
		writeDomainError(w, "Invalid quarter", err)
		return
	}
	if err := h.Data.SwitchQuarter(target); err != nil {
		writeDomainError(w, "Failed to switch quarter", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"current": h.Data.CurrentQuarter()})
}

// DeleteQuarter removes a quarter's snapshot, relocating the working set if
// the deleted quarter was current.
func (h *Handler) DeleteQuarter(w http.ResponseWriter, r *http.Request) {
	id := core.QuarterID(chi.URLParam(r, "id"))
	if err := h.Data.DeleteQuarterSnapshot(id); err != nil {
		writeDomainError(w, "Failed to delete quarter", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"current": h.Data.CurrentQuarter()})
}

// =============================================================================
// EXPORT / BACKUP HANDLERS
// =============================================================================

// ExportStoresCSV streams the store-centric CSV report.
func (h *Handler) ExportStoresCSV(w http.ResponseWriter, r *http.Request) {
	state := h.Data.ExportState()
	writeCSV(w, export.StoresCSVName(state.CurrentQuarter), export.StoresCSV(state))
}

// ExportSuppliersCSV streams the supplier-centric CSV report.
func (h *Handler) ExportSuppliersCSV(w http.ResponseWriter, r *http.Request) {
	state := h.Data.ExportState()
	writeCSV(w, export.SuppliersCSVName(state.CurrentQuarter), export.SuppliersCSV(state))
}

// ExportBackup streams a full JSON backup of all quarters.
func (h *Handler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	data, err := export.EncodeBackup(h.Data.ExportState(), now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode backup", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.BackupName(now)+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ImportBackup atomically replaces all live and archived state from a backup
// document. Malformed documents are rejected without touching anything.
func (h *Handler) ImportBackup(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read backup", err)
		return
	}

	state, err := export.DecodeBackup(raw)
	if err != nil {
		writeDomainError(w, "Invalid backup document", err)
		return
	}
	if err := h.Data.Restore(state); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to restore backup", err)
		return
	}
	h.Log.Info().Str("quarter", string(h.Data.CurrentQuarter())).Msg("backup restored")
	writeJSON(w, http.StatusOK, map[string]any{"current": h.Data.CurrentQuarter()})
}

// =============================================================================
// ADVISOR HANDLERS
// =============================================================================

// Analyze asks the advisor for a quota pairing plan over the current state.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	if h.Advisor == nil {
		writeError(w, http.StatusServiceUnavailable, "Advisor not configured", nil)
		return
	}

	state := h.Data.ExportState()
	text, err := h.Advisor.Analyze(r.Context(),
		advisor.BuildStoreAnalyses(state),
		advisor.BuildSupplierAnalyses(state))
	if err != nil {
		h.Log.Error().Err(err).Msg("advisor analysis failed")
		writeError(w, http.StatusBadGateway, "无法生成分析结果，请检查API Key配置。", err)
		return
	}
	writeJSON(w, http.StatusOK, AdviceResponse{Text: text})
}

// Chat continues an advisor conversation.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	if h.Advisor == nil {
		writeError(w, http.StatusServiceUnavailable, "Advisor not configured", nil)
		return
	}

	var req ChatRequest
	if !h.decode(w, r, &req) {
		return
	}

	history := make([]advisor.ChatMessage, len(req.Messages))
	for i, m := range req.Messages {
		history[i] = advisor.ChatMessage{Role: m.Role, Content: m.Content}
	}
	text, err := h.Advisor.Chat(r.Context(), history)
	if err != nil {
		h.Log.Error().Err(err).Msg("advisor chat failed")
		writeError(w, http.StatusBadGateway, "无法生成回复，请稍后重试。", err)
		return
	}
	writeJSON(w, http.StatusOK, AdviceResponse{Text: text})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeCSV(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps core errors onto HTTP statuses. Quota and period
// rejections additionally carry the figures that explain them.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrQuotaExhausted), errors.Is(err, core.ErrAmountExceedsRemaining), errors.Is(err, core.ErrOutOfPeriod):
		status = http.StatusConflict
	case core.IsNotFound(err):
		status = http.StatusNotFound
	case core.IsClientError(err):
		status = http.StatusBadRequest
	}

	resp := ErrorResponse{Error: message, Details: err.Error()}
	var qe *core.QuotaError
	if errors.As(err, &qe) {
		resp.Code = "quota_rejected"
		resp.Details = map[string]any{
			"supplierId":   qe.SupplierID,
			"supplierName": qe.SupplierName,
			"limit":        qe.Limit,
			"used":         qe.Used,
			"remaining":    qe.Remaining,
			"requested":    qe.Requested,
		}
	}
	writeJSON(w, status, resp)
}
