/*
Package core implements the quarter-scoped quota/ledger model: four record
collections (stores, suppliers, invoices, payments), a per-supplier quarterly
invoicing quota, a per-quarter archive of full snapshots, and the lifecycle
operations that roll the dataset from one fiscal quarter to the next.

KEY CONCEPTS IN THIS FILE (types.go):
  - Store: a storefront/company pair earning quarterly income
  - Supplier: an invoicing entity owned by a factory; consumes a quota
  - Invoice: one issuance event against a supplier's quota
  - Payment: money paid to a factory owner, not quota-gated
  - Snapshot: frozen copy of all four collections for one quarter

DESIGN PRINCIPLES:
  1. Precision: money uses decimal.Decimal, never float arithmetic
  2. Identity: record ids are UUIDs, not wall-clock strings
  3. Weak owner references: Supplier.Owner and Payment.FactoryOwner are
     display names, deliberately not foreign keys (see owners.go)
  4. Orphan tolerance: deleting a store or supplier never cascades; derived
     reads resolve dangling references to an "unknown" placeholder

SEE ALSO:
  - dataset.go: the state container owning all collections
  - calc.go: pure derived figures (invoiced totals, gaps, remaining quota)
  - lifecycle.go: quarter close/switch/delete
*/
package core

import "github.com/google/uuid"

// StatutoryQuarterlyLimit is the tax-exempt invoicing quota an individual
// sole-proprietorship gets each quarter, in CNY.
var StatutoryQuarterlyLimit = MoneyFromInt(280000)

// =============================================================================
// ENUMS - String values match the original dataset for wire compatibility
// =============================================================================

// SupplierType classifies an invoicing entity.
type SupplierType string

const (
	SupplierIndividual SupplierType = "个体工商户"  // statutory quota applies
	SupplierCompany    SupplierType = "小规模纳税人" // small-scale taxpayer
	SupplierGeneral    SupplierType = "一般纳税人"  // general taxpayer
)

// StoreTaxType classifies a store's company for tax purposes.
type StoreTaxType string

const (
	TaxSmallScale StoreTaxType = "小规模纳税人"
	TaxGeneral    StoreTaxType = "一般纳税人"
)

// SupplierStatus is informational only; admission is gated by computed
// remaining quota, never by this field.
type SupplierStatus string

const (
	StatusActive    SupplierStatus = "Active"
	StatusFull      SupplierStatus = "Full"
	StatusSuspended SupplierStatus = "Suspended"
)

// InvoiceStatus tracks the verification workflow of an invoice record.
type InvoiceStatus string

const (
	InvoicePending  InvoiceStatus = "pending"
	InvoiceVerified InvoiceStatus = "verified"
	InvoiceRejected InvoiceStatus = "rejected"
)

// =============================================================================
// RECORDS
// =============================================================================

// ExpenseBreakdown itemizes a store's quarterly costs into named buckets.
type ExpenseBreakdown struct {
	Shipping  Money `json:"shipping"`
	Promotion Money `json:"promotion"`
	Salaries  Money `json:"salaries"`
	Rent      Money `json:"rent"`
	Office    Money `json:"office"`
	Fuel      Money `json:"fuel"`
	Other     Money `json:"other"`
}

// Total sums all buckets. Store.QuarterExpenses must equal this whenever a
// breakdown is present.
func (b ExpenseBreakdown) Total() Money {
	return b.Shipping.Add(b.Promotion).Add(b.Salaries).Add(b.Rent).
		Add(b.Office).Add(b.Fuel).Add(b.Other)
}

// Store is a storefront/company pair generating quarterly income subject to
// tax deduction via invoices.
type Store struct {
	ID               string            `json:"id"`
	StoreName        string            `json:"storeName"`
	CompanyName      string            `json:"companyName"`
	QuarterIncome    Money             `json:"quarterIncome"`
	QuarterExpenses  Money             `json:"quarterExpenses"`
	ExpenseBreakdown *ExpenseBreakdown `json:"expenseBreakdown,omitempty"`
	TaxType          StoreTaxType      `json:"taxType"`
}

// Supplier is an invoicing entity belonging to a factory owner. Owner is a
// display name, a deliberately weak reference into the owner registry.
type Supplier struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Owner          string         `json:"owner"`
	Type           SupplierType   `json:"type"`
	QuarterlyLimit Money          `json:"quarterlyLimit"`
	Status         SupplierStatus `json:"status"`
}

// VerificationResult echoes what an external invoice-recognition step found.
type VerificationResult struct {
	IsValid     bool     `json:"isValid"`
	Issues      []string `json:"issues,omitempty"`
	FactoryName string   `json:"factoryName,omitempty"`
	CompanyName string   `json:"companyName,omitempty"`
	Amount      *Money   `json:"amount,omitempty"`
}

// Invoice is one issuance event. Never mutated in place except for
// Status/Verification.
type Invoice struct {
	ID           string              `json:"id"`
	StoreID      string              `json:"storeId"`
	SupplierID   string              `json:"supplierId"`
	Amount       Money               `json:"amount"`
	Date         Date                `json:"date"`
	Status       InvoiceStatus       `json:"status,omitempty"`
	Verification *VerificationResult `json:"verificationResult,omitempty"`
}

// Payment records money paid to a factory owner. StoreID/SupplierID are
// legacy fields kept for records written before payments were attributed to
// owners; new records set FactoryOwner only.
type Payment struct {
	ID           string `json:"id"`
	StoreID      string `json:"storeId,omitempty"`
	SupplierID   string `json:"supplierId,omitempty"`
	FactoryOwner string `json:"factoryOwner,omitempty"`
	Amount       Money  `json:"amount"`
	Date         Date   `json:"date"`
}

// NewID returns a collision-resistant record id.
func NewID() string {
	return uuid.NewString()
}

// UnknownLabel is rendered wherever a dangling store/supplier reference must
// be displayed instead of failing.
const (
	UnknownStore    = "未知店铺"
	UnknownCompany  = "未知公司"
	UnknownSupplier = "未知主体"
	UnknownFactory  = "未知工厂"
)
