package core

// Factory/Owner Registry. Owners are display names tracked independently of
// supplier rows: a registry entry can have zero suppliers, and a supplier
// can reference a name outside the registry. All name matching against the
// weak references lives behind this file so a future strengthening to real
// owner ids touches one module.

// Owners returns the registry in insertion order.
func (d *Dataset) Owners() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.factoryOwners...)
}

// AddOwner registers a factory owner name, creating an entry with zero
// suppliers if needed.
func (d *Dataset) AddOwner(name string) error {
	if name == "" {
		return ErrMissingField
	}
	return d.mutate(func() error {
		d.addOwnerLocked(name)
		return nil
	})
}

func (d *Dataset) addOwnerLocked(name string) {
	for _, o := range d.factoryOwners {
		if o == name {
			return
		}
	}
	d.factoryOwners = append(d.factoryOwners, name)
}

// RenameOwner cascades a rename across every supplier row, every payment
// record, and the registry entry, inside one critical section. No record is
// left holding the old name.
func (d *Dataset) RenameOwner(oldName, newName string) error {
	if oldName == "" || newName == "" {
		return ErrMissingField
	}
	return d.mutate(func() error {
		for i := range d.suppliers {
			if d.suppliers[i].Owner == oldName {
				d.suppliers[i].Owner = newName
			}
		}
		for i := range d.payments {
			if d.payments[i].FactoryOwner == oldName {
				d.payments[i].FactoryOwner = newName
			}
		}
		for i := range d.factoryOwners {
			if d.factoryOwners[i] == oldName {
				d.factoryOwners[i] = newName
			}
		}
		return nil
	})
}

// DeleteOwner removes the name from the registry only. Suppliers and
// payments keep referencing it and continue to render and aggregate under
// the orphaned name.
func (d *Dataset) DeleteOwner(name string) error {
	return d.mutate(func() error {
		for i, o := range d.factoryOwners {
			if o == name {
				d.factoryOwners = append(d.factoryOwners[:i], d.factoryOwners[i+1:]...)
				return nil
			}
		}
		return nil // deleting an absent name is a no-op
	})
}
