/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON request bodies for mutating endpoints. Responses reuse
  the core types directly since their field tags already match the wire
  contract; only requests need a separate shape for validation.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - ErrorResponse: the standard error envelope

VALIDATION:
  Struct tags are checked with go-playground/validator in the handlers.
  Domain rules (quota, period, positive amounts) live in core, not here.

SEE ALSO:
  - handlers.go: Uses these types
  - core/types.go: Response shapes
*/
package api

import (
	"github.com/quotaflow/quota-engine/core"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// StoreRequest creates or updates a store.
type StoreRequest struct {
	StoreName     string     `json:"storeName" validate:"required"`
	CompanyName   string     `json:"companyName" validate:"required"`
	QuarterIncome core.Money `json:"quarterIncome"`
	TaxType       string     `json:"taxType" validate:"required,oneof=小规模纳税人 一般纳税人"`
}

// ExpensesRequest replaces a store's expense breakdown. The aggregate
// quarterExpenses is recomputed from the buckets server-side.
type ExpensesRequest struct {
	Shipping  core.Money `json:"shipping"`
	Promotion core.Money `json:"promotion"`
	Salaries  core.Money `json:"salaries"`
	Rent      core.Money `json:"rent"`
	Office    core.Money `json:"office"`
	Fuel      core.Money `json:"fuel"`
	Other     core.Money `json:"other"`
}

// SupplierRequest creates or updates a supplier.
type SupplierRequest struct {
	Name           string     `json:"name" validate:"required"`
	Owner          string     `json:"owner"`
	Type           string     `json:"type" validate:"required,oneof=个体工商户 小规模纳税人 一般纳税人"`
	QuarterlyLimit core.Money `json:"quarterlyLimit"`
	Status         string     `json:"status" validate:"omitempty,oneof=Active Full Suspended"`
}

// RenameOwnerRequest renames a factory owner everywhere it appears.
type RenameOwnerRequest struct {
	OldName string `json:"oldName" validate:"required"`
	NewName string `json:"newName" validate:"required"`
}

// AddOwnerRequest registers a factory owner.
type AddOwnerRequest struct {
	Name string `json:"name" validate:"required"`
}

// InvoiceRequest submits an invoice against a supplier's quota.
type InvoiceRequest struct {
	StoreID    string     `json:"storeId" validate:"required"`
	SupplierID string     `json:"supplierId" validate:"required"`
	Amount     core.Money `json:"amount"`
	Date       string     `json:"date" validate:"required"`
}

// InvoiceStatusRequest updates an invoice's verification outcome.
type InvoiceStatusRequest struct {
	Status       string                   `json:"status" validate:"required,oneof=pending verified rejected"`
	Verification *core.VerificationResult `json:"verificationResult,omitempty"`
}

// PaymentRequest records a payment to a factory owner.
type PaymentRequest struct {
	FactoryOwner string     `json:"factoryOwner" validate:"required"`
	Amount       core.Money `json:"amount"`
	Date         string     `json:"date" validate:"required"`
}

// SwitchQuarterRequest moves the working set to another quarter.
type SwitchQuarterRequest struct {
	Quarter string `json:"quarter" validate:"required"`
}

// ChatRequest carries an advisor conversation.
type ChatRequest struct {
	Messages []ChatMessageRequest `json:"messages" validate:"required,min=1,dive"`
}

// ChatMessageRequest is one turn of an advisor conversation.
type ChatMessageRequest struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// QuartersResponse describes the quarter lifecycle view.
type QuartersResponse struct {
	Current   core.QuarterID        `json:"current"`
	Available []core.QuarterID      `json:"available"`
	Summaries []core.QuarterSummary `json:"summaries"`
}

// AdviceResponse wraps advisor output.
type AdviceResponse struct {
	Text string `json:"text"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
