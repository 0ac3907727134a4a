/*
calc.go - Ledger Calculator

PURPOSE:
  Pure derived figures over the collections: per-store invoiced totals,
  per-supplier invoiced totals and remaining quota, per-store gap, and the
  per-factory quota rollup. Stateless and recomputed on every query; the
  datasets are small enough that caching would only add invalidation bugs.

THE GAP:
  StoreGap = max(0, income - expenses - invoiced). This is the profit not
  yet covered by deductible invoices, the central figure on the dashboard.

NEGATIVE REMAINING QUOTA:
  SupplierRemainingQuota may go negative when a limit was edited downward
  after invoices were admitted. That is surfaced (OverQuota), never
  auto-corrected. Aggregate displays clamp per-supplier at zero; validation
  math must use the raw value.
*/
package core

import "sort"

// StoreInvoicedTotal sums invoice amounts issued to a store.
func StoreInvoicedTotal(invoices []Invoice, storeID string) Money {
	var total Money
	for _, inv := range invoices {
		if inv.StoreID == storeID {
			total = total.Add(inv.Amount)
		}
	}
	return total
}

// SupplierInvoicedTotal sums invoice amounts issued by a supplier.
func SupplierInvoicedTotal(invoices []Invoice, supplierID string) Money {
	var total Money
	for _, inv := range invoices {
		if inv.SupplierID == supplierID {
			total = total.Add(inv.Amount)
		}
	}
	return total
}

// SupplierRemainingQuota is quarterlyLimit minus the supplier's invoiced
// total. May be negative after a retroactive limit cut.
func SupplierRemainingQuota(s Supplier, invoices []Invoice) Money {
	return s.QuarterlyLimit.Sub(SupplierInvoicedTotal(invoices, s.ID))
}

// OverQuota reports whether a supplier's issued total exceeds its limit.
// An integrity warning for display, not an error.
func OverQuota(s Supplier, invoices []Invoice) bool {
	return SupplierRemainingQuota(s, invoices).IsNegative()
}

// StoreGap is max(0, income - expenses - invoiced): profit still exposed to
// tax without deduction coverage.
func StoreGap(st Store, invoices []Invoice) Money {
	gap := st.QuarterIncome.Sub(st.QuarterExpenses).Sub(StoreInvoicedTotal(invoices, st.ID))
	return gap.ClampZero()
}

// FactoryRemainingQuota sums remaining quota (clamped at zero per supplier)
// over all of an owner's suppliers.
func FactoryRemainingQuota(owner string, suppliers []Supplier, invoices []Invoice) Money {
	var total Money
	for _, s := range suppliers {
		if s.Owner == owner {
			total = total.Add(SupplierRemainingQuota(s, invoices).ClampZero())
		}
	}
	return total
}

// =============================================================================
// AGGREGATES - simple folds over the primitives above
// =============================================================================

// Totals are the dashboard KPI headline figures.
type Totals struct {
	Income         Money `json:"totalIncome"`
	Invoiced       Money `json:"totalInvoiced"`
	QuotaAvailable Money `json:"totalQuotaAvailable"`
	Gap            Money `json:"totalGap"`
}

// ComputeTotals folds the headline figures from the live collections.
func ComputeTotals(stores []Store, suppliers []Supplier, invoices []Invoice) Totals {
	var t Totals
	for _, st := range stores {
		t.Income = t.Income.Add(st.QuarterIncome)
		t.Gap = t.Gap.Add(StoreGap(st, invoices))
	}
	for _, inv := range invoices {
		t.Invoiced = t.Invoiced.Add(inv.Amount)
	}
	for _, s := range suppliers {
		t.QuotaAvailable = t.QuotaAvailable.Add(SupplierRemainingQuota(s, invoices).ClampZero())
	}
	return t
}

// RankEntry is one row of a descending-ordered chart series.
type RankEntry struct {
	Name  string `json:"name"`
	Value Money  `json:"value"`
}

// StoreGapRanking returns stores ordered by gap, largest first.
func StoreGapRanking(stores []Store, invoices []Invoice) []RankEntry {
	out := make([]RankEntry, 0, len(stores))
	for _, st := range stores {
		out = append(out, RankEntry{Name: st.StoreName, Value: StoreGap(st, invoices)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value.GreaterThan(out[j].Value) })
	return out
}

// FactoryQuotaRanking returns factory owners ordered by total remaining
// quota, largest first. Owners are taken from supplier rows, so orphaned
// owners (absent from the registry) still aggregate correctly.
func FactoryQuotaRanking(suppliers []Supplier, invoices []Invoice) []RankEntry {
	order := make([]string, 0)
	seen := map[string]bool{}
	for _, s := range suppliers {
		if !seen[s.Owner] {
			seen[s.Owner] = true
			order = append(order, s.Owner)
		}
	}
	out := make([]RankEntry, 0, len(order))
	for _, owner := range order {
		out = append(out, RankEntry{Name: owner, Value: FactoryRemainingQuota(owner, suppliers, invoices)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value.GreaterThan(out[j].Value) })
	return out
}

// =============================================================================
// DATASET REPORT - one consistent read of everything the dashboard needs
// =============================================================================

// StoreReport is a store with its derived figures resolved.
type StoreReport struct {
	Store         Store `json:"store"`
	InvoicedTotal Money `json:"invoicedTotal"`
	Gap           Money `json:"gap"`
}

// SupplierReport is a supplier with its derived quota figures resolved.
type SupplierReport struct {
	Supplier       Supplier `json:"supplier"`
	InvoicedTotal  Money    `json:"invoicedTotal"`
	RemainingQuota Money    `json:"remainingQuota"`
	OverQuota      bool     `json:"overQuota"`
}

// DashboardReport is a single consistent snapshot of the derived view.
type DashboardReport struct {
	Quarter      QuarterID        `json:"quarter"`
	Totals       Totals           `json:"totals"`
	Stores       []StoreReport    `json:"stores"`
	Suppliers    []SupplierReport `json:"suppliers"`
	GapRanking   []RankEntry      `json:"gapRanking"`
	QuotaRanking []RankEntry      `json:"quotaRanking"`
}

// Report computes the full derived view under one read lock.
func (d *Dataset) Report() DashboardReport {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rep := DashboardReport{
		Quarter:      d.currentQuarter,
		Totals:       ComputeTotals(d.stores, d.suppliers, d.invoices),
		GapRanking:   StoreGapRanking(d.stores, d.invoices),
		QuotaRanking: FactoryQuotaRanking(d.suppliers, d.invoices),
	}
	for _, st := range d.stores {
		rep.Stores = append(rep.Stores, StoreReport{
			Store:         cloneStore(st),
			InvoicedTotal: StoreInvoicedTotal(d.invoices, st.ID),
			Gap:           StoreGap(st, d.invoices),
		})
	}
	for _, s := range d.suppliers {
		rep.Suppliers = append(rep.Suppliers, SupplierReport{
			Supplier:       s,
			InvoicedTotal:  SupplierInvoicedTotal(d.invoices, s.ID),
			RemainingQuota: SupplierRemainingQuota(s, d.invoices),
			OverQuota:      OverQuota(s, d.invoices),
		})
	}
	return rep
}
