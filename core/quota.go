/*
quota.go - Quota Enforcement

PURPOSE:
  The invariant-preserving gate on invoice creation. An invoice is admitted
  only if its date falls inside the active quarter's range and its amount
  fits the issuing supplier's remaining quota at this moment. Checks are
  creation-time only: a later downward edit of the limit can make the issued
  total exceed it, which is surfaced as an integrity warning, not corrected.

PERIOD BINDING:
  The date check uses the nominal calendar range of the LABELED current
  quarter, not the wall clock. An operator who stays on 2025Q3 past the real
  calendar boundary keeps admitting 2025Q3-dated invoices; that is the
  documented behavior (see DESIGN.md).

NO PARTIAL ADMISSION:
  An over-limit amount is rejected whole. The caller resubmits smaller or
  picks another supplier.

PAYMENTS:
  Not quota-gated. Any positive amount against any owner name is accepted.
*/
package core

// InvoiceInput is a proposed invoice submission.
type InvoiceInput struct {
	StoreID    string
	SupplierID string
	Amount     Money
	Date       Date
}

// SubmitInvoice validates the proposal against the supplier's remaining
// quota and the active quarter's date range, then admits it with status
// pending. Rejections carry the figures that explain them.
func (d *Dataset) SubmitInvoice(in InvoiceInput) (Invoice, error) {
	if in.StoreID == "" || in.SupplierID == "" || in.Date.IsZero() {
		return Invoice{}, ErrMissingField
	}
	if !in.Amount.IsPositive() {
		return Invoice{}, ErrMissingField
	}

	var created Invoice
	err := d.mutate(func() error {
		period := d.currentQuarter.Range()
		if !period.Contains(in.Date) {
			return &PeriodError{Date: in.Date, Period: period}
		}

		var supplier *Supplier
		for i := range d.suppliers {
			if d.suppliers[i].ID == in.SupplierID {
				supplier = &d.suppliers[i]
				break
			}
		}
		if supplier == nil {
			return ErrSupplierNotFound
		}

		used := SupplierInvoicedTotal(d.invoices, supplier.ID)
		remaining := supplier.QuarterlyLimit.Sub(used)
		if !remaining.IsPositive() {
			return &QuotaError{
				SupplierID:   supplier.ID,
				SupplierName: supplier.Name,
				Limit:        supplier.QuarterlyLimit,
				Used:         used,
				Remaining:    remaining,
				Requested:    in.Amount,
				sentinel:     ErrQuotaExhausted,
			}
		}
		if in.Amount.GreaterThan(remaining) {
			return &QuotaError{
				SupplierID:   supplier.ID,
				SupplierName: supplier.Name,
				Limit:        supplier.QuarterlyLimit,
				Used:         used,
				Remaining:    remaining,
				Requested:    in.Amount,
				sentinel:     ErrAmountExceedsRemaining,
			}
		}

		created = Invoice{
			ID:         NewID(),
			StoreID:    in.StoreID,
			SupplierID: in.SupplierID,
			Amount:     in.Amount,
			Date:       in.Date,
			Status:     InvoicePending,
		}
		d.invoices = append(d.invoices, created)
		return nil
	})
	return created, err
}

// AddPayment records money paid to a factory owner. Unconditional beyond the
// positive-amount check; an unregistered owner name is accepted as-is.
func (d *Dataset) AddPayment(factoryOwner string, amount Money, date Date) (Payment, error) {
	if factoryOwner == "" || date.IsZero() {
		return Payment{}, ErrMissingField
	}
	if !amount.IsPositive() {
		return Payment{}, ErrMissingField
	}
	p := Payment{
		ID:           NewID(),
		FactoryOwner: factoryOwner,
		Amount:       amount,
		Date:         date,
	}
	err := d.mutate(func() error {
		d.payments = append(d.payments, p)
		return nil
	})
	return p, err
}
