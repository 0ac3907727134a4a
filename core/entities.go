package core

// Entity CRUD. Identity-preserving upserts, unconditional removes, copied
// reads. No cascade logic lives here: removing a store or supplier leaves
// dependent invoices and payments untouched.

// =============================================================================
// STORES
// =============================================================================

// AddStore creates a storefront/company pair. Expenses start at zero; the
// breakdown is edited separately via UpdateStoreExpenses.
func (d *Dataset) AddStore(storeName, companyName string, income Money, taxType StoreTaxType) (Store, error) {
	if storeName == "" || companyName == "" {
		return Store{}, ErrMissingField
	}
	st := Store{
		ID:            NewID(),
		StoreName:     storeName,
		CompanyName:   companyName,
		QuarterIncome: income,
		TaxType:       taxType,
	}
	err := d.mutate(func() error {
		d.stores = append(d.stores, st)
		return nil
	})
	return st, err
}

// UpdateStore edits name/company/income/tax type. Expenses are managed via
// the breakdown and left untouched here.
func (d *Dataset) UpdateStore(id, storeName, companyName string, income Money, taxType StoreTaxType) (Store, error) {
	var updated Store
	err := d.mutate(func() error {
		for i := range d.stores {
			if d.stores[i].ID == id {
				d.stores[i].StoreName = storeName
				d.stores[i].CompanyName = companyName
				d.stores[i].QuarterIncome = income
				d.stores[i].TaxType = taxType
				updated = cloneStore(d.stores[i])
				return nil
			}
		}
		return ErrStoreNotFound
	})
	return updated, err
}

// UpdateStoreExpenses replaces the expense breakdown and recomputes the
// aggregate, keeping the quarterExpenses == sum(breakdown) invariant.
func (d *Dataset) UpdateStoreExpenses(id string, breakdown ExpenseBreakdown) (Store, error) {
	var updated Store
	err := d.mutate(func() error {
		for i := range d.stores {
			if d.stores[i].ID == id {
				b := breakdown
				d.stores[i].ExpenseBreakdown = &b
				d.stores[i].QuarterExpenses = b.Total()
				updated = cloneStore(d.stores[i])
				return nil
			}
		}
		return ErrStoreNotFound
	})
	return updated, err
}

// RemoveStore deletes the store only. Its invoices stay behind as orphans.
func (d *Dataset) RemoveStore(id string) error {
	return d.mutate(func() error {
		for i := range d.stores {
			if d.stores[i].ID == id {
				d.stores = append(d.stores[:i], d.stores[i+1:]...)
				return nil
			}
		}
		return ErrStoreNotFound
	})
}

// Stores returns a copy of the live store list, optionally filtered.
func (d *Dataset) Stores(filter func(Store) bool) []Store {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Store, 0, len(d.stores))
	for _, st := range d.stores {
		if filter == nil || filter(st) {
			out = append(out, cloneStore(st))
		}
	}
	return out
}

// GetStore resolves a store id. The bool reports whether it exists; callers
// rendering derived data fall back to the unknown placeholder instead.
func (d *Dataset) GetStore(id string) (Store, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, st := range d.stores {
		if st.ID == id {
			return cloneStore(st), true
		}
	}
	return Store{}, false
}

// =============================================================================
// SUPPLIERS
// =============================================================================

// AddSupplier creates an invoicing entity. An owner not yet in the factory
// registry is added to it.
func (d *Dataset) AddSupplier(name, owner string, typ SupplierType, limit Money) (Supplier, error) {
	if name == "" || owner == "" {
		return Supplier{}, ErrMissingField
	}
	if !limit.IsPositive() {
		return Supplier{}, ErrMissingField
	}
	sup := Supplier{
		ID:             NewID(),
		Name:           name,
		Owner:          owner,
		Type:           typ,
		QuarterlyLimit: limit,
		Status:         StatusActive,
	}
	err := d.mutate(func() error {
		d.suppliers = append(d.suppliers, sup)
		d.addOwnerLocked(owner)
		return nil
	})
	return sup, err
}

// UpdateSupplier edits name/type/limit/status. The owner is changed only via
// the registry's cascading rename, never here.
func (d *Dataset) UpdateSupplier(id, name string, typ SupplierType, limit Money, status SupplierStatus) (Supplier, error) {
	var updated Supplier
	err := d.mutate(func() error {
		for i := range d.suppliers {
			if d.suppliers[i].ID == id {
				d.suppliers[i].Name = name
				d.suppliers[i].Type = typ
				d.suppliers[i].QuarterlyLimit = limit
				d.suppliers[i].Status = status
				updated = d.suppliers[i]
				return nil
			}
		}
		return ErrSupplierNotFound
	})
	return updated, err
}

// RemoveSupplier deletes the supplier only; invoices referencing it remain.
func (d *Dataset) RemoveSupplier(id string) error {
	return d.mutate(func() error {
		for i := range d.suppliers {
			if d.suppliers[i].ID == id {
				d.suppliers = append(d.suppliers[:i], d.suppliers[i+1:]...)
				return nil
			}
		}
		return ErrSupplierNotFound
	})
}

// Suppliers returns a copy of the live supplier list, optionally filtered.
func (d *Dataset) Suppliers(filter func(Supplier) bool) []Supplier {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Supplier, 0, len(d.suppliers))
	for _, sup := range d.suppliers {
		if filter == nil || filter(sup) {
			out = append(out, sup)
		}
	}
	return out
}

func (d *Dataset) GetSupplier(id string) (Supplier, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, sup := range d.suppliers {
		if sup.ID == id {
			return sup, true
		}
	}
	return Supplier{}, false
}

// =============================================================================
// INVOICES / PAYMENTS (reads and unconditional deletes; creation is gated
// in quota.go)
// =============================================================================

func (d *Dataset) Invoices(filter func(Invoice) bool) []Invoice {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Invoice, 0, len(d.invoices))
	for _, inv := range d.invoices {
		if filter == nil || filter(inv) {
			out = append(out, cloneInvoice(inv))
		}
	}
	return out
}

func (d *Dataset) GetInvoice(id string) (Invoice, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, inv := range d.invoices {
		if inv.ID == id {
			return cloneInvoice(inv), true
		}
	}
	return Invoice{}, false
}

// RemoveInvoice deletes unconditionally. No other record is re-validated;
// the supplier's quota is simply freed by the recomputation.
func (d *Dataset) RemoveInvoice(id string) error {
	return d.mutate(func() error {
		for i := range d.invoices {
			if d.invoices[i].ID == id {
				d.invoices = append(d.invoices[:i], d.invoices[i+1:]...)
				return nil
			}
		}
		return ErrInvoiceNotFound
	})
}

// UpdateInvoiceStatus is the only in-place invoice mutation: the
// verification workflow's status and result.
func (d *Dataset) UpdateInvoiceStatus(id string, status InvoiceStatus, result *VerificationResult) (Invoice, error) {
	var updated Invoice
	err := d.mutate(func() error {
		for i := range d.invoices {
			if d.invoices[i].ID == id {
				d.invoices[i].Status = status
				d.invoices[i].Verification = result
				updated = cloneInvoice(d.invoices[i])
				return nil
			}
		}
		return ErrInvoiceNotFound
	})
	return updated, err
}

func (d *Dataset) Payments(filter func(Payment) bool) []Payment {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Payment, 0, len(d.payments))
	for _, p := range d.payments {
		if filter == nil || filter(p) {
			out = append(out, p)
		}
	}
	return out
}

func (d *Dataset) RemovePayment(id string) error {
	return d.mutate(func() error {
		for i := range d.payments {
			if d.payments[i].ID == id {
				d.payments = append(d.payments[:i], d.payments[i+1:]...)
				return nil
			}
		}
		return ErrPaymentNotFound
	})
}
