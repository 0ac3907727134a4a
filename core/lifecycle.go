/*
lifecycle.go - Quarter Lifecycle Manager

PURPOSE:
  Owns the current-quarter pointer, the archive of past quarters' full
  snapshots, and the transitions between them. The rules about what is
  snapshotted, what resets, and what carries forward live here and nowhere
  else.

TRANSITIONS:
  StartNewQuarter      close the books: archive the live collections, move
                       the pointer to current+1, reset per-quarter fields
  SwitchQuarter        archive the live collections, load the target's
                       snapshot (or a degraded reset if none exists)
  DeleteQuarterSnapshot drop an archive entry, relocating the pointer if the
                       deleted quarter was current

WHAT RESETS AT QUARTER START:
  - Store.QuarterIncome and QuarterExpenses go to zero. The expense
    breakdown is NOT cleared; see DESIGN.md for the open product decision.
  - INDIVIDUAL suppliers get the statutory limit back; other supplier types
    keep whatever limit they had.
  - Invoices and payments clear entirely. From that moment the closed
    quarter's records exist only inside its archive snapshot.
  - Store and supplier identities (ids) always survive.

ROUND-TRIP GUARANTEE:
  switch(A); switch(B); switch(A) reproduces A's state exactly. Snapshots
  are deep copies on the way in and on the way out.

Each transition runs inside one critical section: snapshot current, mutate
archive, replace live state, update pointer. A reader never observes a
half-applied transition.
*/
package core

// CurrentQuarter returns the labeled quarter the live collections belong to.
func (d *Dataset) CurrentQuarter() QuarterID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.currentQuarter
}

// AvailableQuarters returns the known quarter ids in chronological order.
func (d *Dataset) AvailableQuarters() []QuarterID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]QuarterID(nil), d.availableQuarters...)
}

// ArchivedSnapshot returns the deep-copied snapshot for a quarter, if one
// exists.
func (d *Dataset) ArchivedSnapshot(id QuarterID) (Snapshot, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	snap, ok := d.archive[id]
	if !ok {
		return Snapshot{}, false
	}
	return snap.Clone(), true
}

func (d *Dataset) liveSnapshotLocked() Snapshot {
	return Snapshot{
		Stores:    d.stores,
		Suppliers: d.suppliers,
		Invoices:  d.invoices,
		Payments:  d.payments,
	}.Clone()
}

func (d *Dataset) addAvailableLocked(id QuarterID) {
	for _, q := range d.availableQuarters {
		if q == id {
			return
		}
	}
	d.availableQuarters = append(d.availableQuarters, id)
	SortQuarters(d.availableQuarters)
}

// StartNewQuarter closes the current quarter and opens the next one.
// "Next" is always current+1 and never consults the archive, so starting
// from 2025Q4 yields 2026Q1 even if 2026Q2 already exists from an earlier
// experiment.
func (d *Dataset) StartNewQuarter() (QuarterID, error) {
	var next QuarterID
	err := d.mutate(func() error {
		if !d.currentQuarter.Valid() {
			return ErrInvalidQuarter
		}
		next = d.currentQuarter.Next()

		d.archive[d.currentQuarter] = d.liveSnapshotLocked()
		d.addAvailableLocked(d.currentQuarter)
		d.addAvailableLocked(next)
		d.currentQuarter = next

		for i := range d.stores {
			d.stores[i].QuarterIncome = Money{}
			d.stores[i].QuarterExpenses = Money{}
		}
		for i := range d.suppliers {
			if d.suppliers[i].Type == SupplierIndividual {
				d.suppliers[i].QuarterlyLimit = StatutoryQuarterlyLimit
			}
		}
		d.invoices = nil
		d.payments = nil
		return nil
	})
	return next, err
}

// SwitchQuarter archives the live collections under the current label and
// loads the target quarter. A target without a snapshot gets the degraded
// fallback: suppliers kept, invoices/payments cleared, store figures zeroed.
// No-op when the target is already current.
func (d *Dataset) SwitchQuarter(target QuarterID) error {
	if !target.Valid() {
		return ErrInvalidQuarter
	}
	return d.mutate(func() error {
		if target == d.currentQuarter {
			return nil
		}

		d.archive[d.currentQuarter] = d.liveSnapshotLocked()
		d.addAvailableLocked(d.currentQuarter)
		d.addAvailableLocked(target)

		if snap, ok := d.archive[target]; ok {
			restored := snap.Clone()
			d.stores = restored.Stores
			d.suppliers = restored.Suppliers
			d.invoices = restored.Invoices
			d.payments = restored.Payments
		} else {
			for i := range d.stores {
				d.stores[i].QuarterIncome = Money{}
				d.stores[i].QuarterExpenses = Money{}
			}
			d.invoices = nil
			d.payments = nil
		}
		d.currentQuarter = target
		return nil
	})
}

// DeleteQuarterSnapshot drops an archive entry. Deleting the current
// quarter relocates to the latest remaining one; if none remain, the live
// collections are cleared and the label stays where it was.
func (d *Dataset) DeleteQuarterSnapshot(id QuarterID) error {
	return d.mutate(func() error {
		if _, ok := d.archive[id]; !ok {
			// The quarter may still be listed without a snapshot.
			found := false
			for _, q := range d.availableQuarters {
				if q == id {
					found = true
					break
				}
			}
			if !found {
				return ErrQuarterNotFound
			}
		}
		delete(d.archive, id)
		for i, q := range d.availableQuarters {
			if q == id {
				d.availableQuarters = append(d.availableQuarters[:i], d.availableQuarters[i+1:]...)
				break
			}
		}

		if id != d.currentQuarter {
			return nil
		}
		if len(d.availableQuarters) == 0 {
			d.stores = nil
			d.suppliers = nil
			d.invoices = nil
			d.payments = nil
			return nil
		}

		latest := d.availableQuarters[len(d.availableQuarters)-1]
		if snap, ok := d.archive[latest]; ok {
			restored := snap.Clone()
			d.stores = restored.Stores
			d.suppliers = restored.Suppliers
			d.invoices = restored.Invoices
			d.payments = restored.Payments
		} else {
			for i := range d.stores {
				d.stores[i].QuarterIncome = Money{}
				d.stores[i].QuarterExpenses = Money{}
			}
			d.invoices = nil
			d.payments = nil
		}
		d.currentQuarter = latest
		return nil
	})
}

// QuarterSummary describes one archive entry for listing.
type QuarterSummary struct {
	ID           QuarterID `json:"id"`
	HasSnapshot  bool      `json:"hasSnapshot"`
	TotalIncome  Money     `json:"totalIncome"`
	TotalExpense Money     `json:"totalExpense"`
	IsCurrent    bool      `json:"isCurrent"`
}

// QuarterSummaries lists every available quarter with archive totals, the
// figures the quarter-management panel shows.
func (d *Dataset) QuarterSummaries() []QuarterSummary {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]QuarterSummary, 0, len(d.availableQuarters))
	for _, q := range d.availableQuarters {
		sum := QuarterSummary{ID: q, IsCurrent: q == d.currentQuarter}
		if snap, ok := d.archive[q]; ok {
			sum.HasSnapshot = true
			for _, st := range snap.Stores {
				sum.TotalIncome = sum.TotalIncome.Add(st.QuarterIncome)
				sum.TotalExpense = sum.TotalExpense.Add(st.QuarterExpenses)
			}
		}
		out = append(out, sum)
	}
	return out
}
