/*
dataset.go - The explicit state container

PURPOSE:
  Dataset owns the four live collections plus the quarter state (current
  quarter label, archive of snapshots, available-quarter set) and the factory
  owner registry. Every mutation runs inside one critical section; an observer
  can never see, say, a cleared invoice list paired with the old quarter label.

PERSISTENCE:
  The container is authoritative. After each successful mutation the OnChange
  hook fires with a deep copy of the full state; replication to storage is
  the hook's problem and never gates or reverts the mutation.

CASCADES:
  There are none. Deleting a store or supplier leaves its invoices and
  payments in place; derived reads resolve the dangling reference to an
  "unknown" placeholder. This is a domain decision (history outlives the
  entities that produced it), not an oversight.
*/
package core

import "sync"

// =============================================================================
// SNAPSHOT - Frozen copy of all four collections for one quarter
// =============================================================================

// Snapshot captures the live collections at the moment a quarter is closed
// or switched away from. Archive entries are never mutated afterwards.
type Snapshot struct {
	Stores    []Store    `json:"stores"`
	Suppliers []Supplier `json:"suppliers"`
	Invoices  []Invoice  `json:"invoices"`
	Payments  []Payment  `json:"payments"`
}

// Clone deep-copies the snapshot so archive entries cannot alias live state.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Stores:    make([]Store, len(s.Stores)),
		Suppliers: append([]Supplier(nil), s.Suppliers...),
		Invoices:  make([]Invoice, len(s.Invoices)),
		Payments:  append([]Payment(nil), s.Payments...),
	}
	for i, st := range s.Stores {
		out.Stores[i] = cloneStore(st)
	}
	for i, inv := range s.Invoices {
		out.Invoices[i] = cloneInvoice(inv)
	}
	return out
}

func cloneStore(st Store) Store {
	if st.ExpenseBreakdown != nil {
		b := *st.ExpenseBreakdown
		st.ExpenseBreakdown = &b
	}
	return st
}

func cloneInvoice(inv Invoice) Invoice {
	if inv.Verification != nil {
		v := *inv.Verification
		v.Issues = append([]string(nil), v.Issues...)
		if v.Amount != nil {
			a := *v.Amount
			v.Amount = &a
		}
		inv.Verification = &v
	}
	return inv
}

// State is the full persistable shape of the dataset: live collections,
// quarter pointer, archive, and the owner registry.
type State struct {
	Stores            []Store                `json:"stores"`
	Suppliers         []Supplier             `json:"suppliers"`
	Invoices          []Invoice              `json:"invoices"`
	Payments          []Payment              `json:"payments"`
	CurrentQuarter    QuarterID              `json:"currentQuarter"`
	Archive           map[QuarterID]Snapshot `json:"quarterData"`
	AvailableQuarters []QuarterID            `json:"availableQuarters"`
	FactoryOwners     []string               `json:"factoryOwners"`
}

// Clone deep-copies the state.
func (s State) Clone() State {
	live := Snapshot{Stores: s.Stores, Suppliers: s.Suppliers, Invoices: s.Invoices, Payments: s.Payments}.Clone()
	out := State{
		Stores:            live.Stores,
		Suppliers:         live.Suppliers,
		Invoices:          live.Invoices,
		Payments:          live.Payments,
		CurrentQuarter:    s.CurrentQuarter,
		Archive:           make(map[QuarterID]Snapshot, len(s.Archive)),
		AvailableQuarters: append([]QuarterID(nil), s.AvailableQuarters...),
		FactoryOwners:     append([]string(nil), s.FactoryOwners...),
	}
	for q, snap := range s.Archive {
		out.Archive[q] = snap.Clone()
	}
	return out
}

// =============================================================================
// DATASET
// =============================================================================

// Dataset is the single state container. Construct with NewDataset or
// FromState, register a persistence hook with OnChange, then mutate through
// the exported operations.
type Dataset struct {
	mu sync.RWMutex

	stores    []Store
	suppliers []Supplier
	invoices  []Invoice
	payments  []Payment

	currentQuarter    QuarterID
	archive           map[QuarterID]Snapshot
	availableQuarters []QuarterID
	factoryOwners     []string

	onChange func(State)
}

// NewDataset returns an empty dataset labeled with the given quarter.
func NewDataset(current QuarterID) *Dataset {
	return &Dataset{
		currentQuarter: current,
		archive:        make(map[QuarterID]Snapshot),
	}
}

// FromState restores a dataset from persisted state.
func FromState(s State) *Dataset {
	s = s.Clone()
	d := &Dataset{
		stores:            s.Stores,
		suppliers:         s.Suppliers,
		invoices:          s.Invoices,
		payments:          s.Payments,
		currentQuarter:    s.CurrentQuarter,
		archive:           s.Archive,
		availableQuarters: s.AvailableQuarters,
		factoryOwners:     s.FactoryOwners,
	}
	if d.archive == nil {
		d.archive = make(map[QuarterID]Snapshot)
	}
	if d.currentQuarter == "" {
		d.currentQuarter = CurrentQuarterByClock()
	}
	// Older datasets predate the owner registry; seed it from suppliers.
	if len(d.factoryOwners) == 0 {
		seen := map[string]bool{}
		for _, sup := range d.suppliers {
			if sup.Owner != "" && !seen[sup.Owner] {
				seen[sup.Owner] = true
				d.factoryOwners = append(d.factoryOwners, sup.Owner)
			}
		}
	}
	SortQuarters(d.availableQuarters)
	return d
}

// OnChange registers the persistence hook. The hook receives a deep copy of
// the full state after every successful mutation, outside the lock.
func (d *Dataset) OnChange(fn func(State)) {
	d.mu.Lock()
	d.onChange = fn
	d.mu.Unlock()
}

// mutate runs fn inside the write lock, then fires the change hook with a
// state copy taken before the lock is released.
func (d *Dataset) mutate(fn func() error) error {
	d.mu.Lock()
	err := fn()
	var st *State
	if err == nil && d.onChange != nil {
		s := d.stateLocked()
		st = &s
	}
	hook := d.onChange
	d.mu.Unlock()
	if st != nil && hook != nil {
		hook(*st)
	}
	return err
}

func (d *Dataset) stateLocked() State {
	return State{
		Stores:            d.stores,
		Suppliers:         d.suppliers,
		Invoices:          d.invoices,
		Payments:          d.payments,
		CurrentQuarter:    d.currentQuarter,
		Archive:           d.archive,
		AvailableQuarters: d.availableQuarters,
		FactoryOwners:     d.factoryOwners,
	}.Clone()
}

// ExportState returns a deep copy of the full state.
func (d *Dataset) ExportState() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stateLocked()
}

// Restore replaces all live and archived state wholesale. Used by backup
// import; either everything is applied or nothing is. A state without a
// quarter label keeps the current one, and a nil owner list keeps the
// existing registry (old backups carry neither).
func (d *Dataset) Restore(s State) error {
	return d.mutate(func() error {
		s = s.Clone()
		d.stores = s.Stores
		d.suppliers = s.Suppliers
		d.invoices = s.Invoices
		d.payments = s.Payments
		if s.CurrentQuarter != "" {
			d.currentQuarter = s.CurrentQuarter
		}
		d.archive = s.Archive
		if d.archive == nil {
			d.archive = make(map[QuarterID]Snapshot)
		}
		d.availableQuarters = s.AvailableQuarters
		if s.FactoryOwners != nil {
			d.factoryOwners = s.FactoryOwners
		}
		SortQuarters(d.availableQuarters)
		return nil
	})
}
