package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotaflow/quota-engine/core"
)

func TestAddStore_InitializesExpensesToZero(t *testing.T) {
	d := core.NewDataset("2025Q3")

	st, err := d.AddStore("摩登", "杭州维家漫家居有限公司", yuan(2832716), core.TaxSmallScale)
	require.NoError(t, err)
	assert.True(t, st.QuarterExpenses.IsZero())
	assert.Nil(t, st.ExpenseBreakdown)

	_, err = d.AddStore("", "x", yuan(0), core.TaxSmallScale)
	assert.ErrorIs(t, err, core.ErrMissingField)
}

func TestUpdateStoreExpenses_KeepsAggregateInvariant(t *testing.T) {
	// quarterExpenses == sum(breakdown) whenever a breakdown is set.
	d := core.NewDataset("2025Q3")
	st, err := d.AddStore("爱尚", "杭州元牧家居用品有限公司", yuan(100000), core.TaxSmallScale)
	require.NoError(t, err)

	updated, err := d.UpdateStoreExpenses(st.ID, core.ExpenseBreakdown{
		Shipping: yuan(1000), Promotion: yuan(2000), Salaries: yuan(3000),
		Rent: yuan(4000), Office: yuan(500), Fuel: yuan(300), Other: yuan(200),
	})
	require.NoError(t, err)
	assert.True(t, yuan(11000).Equal(updated.QuarterExpenses))
	assert.True(t, yuan(11000).Equal(updated.ExpenseBreakdown.Total()))
}

func TestRemoveStore_LeavesInvoicesOrphaned(t *testing.T) {
	// GIVEN: a store with an admitted invoice
	// WHEN:  the store is deleted
	// THEN:  the invoice survives and derived reads tolerate the dangling id
	d, st, sup := newQuarterDataset(t)
	inv, err := d.SubmitInvoice(core.InvoiceInput{
		StoreID: st.ID, SupplierID: sup.ID, Amount: yuan(5000), Date: inQuarter(d),
	})
	require.NoError(t, err)

	require.NoError(t, d.RemoveStore(st.ID))

	_, ok := d.GetStore(st.ID)
	assert.False(t, ok)
	got, ok := d.GetInvoice(inv.ID)
	require.True(t, ok)
	assert.Equal(t, st.ID, got.StoreID)

	// Aggregates keep counting the orphaned invoice.
	totals := core.ComputeTotals(d.Stores(nil), d.Suppliers(nil), d.Invoices(nil))
	assert.True(t, yuan(5000).Equal(totals.Invoiced))
}

func TestRemoveSupplier_LeavesInvoicesOrphaned(t *testing.T) {
	d, st, sup := newQuarterDataset(t)
	_, err := d.SubmitInvoice(core.InvoiceInput{
		StoreID: st.ID, SupplierID: sup.ID, Amount: yuan(5000), Date: inQuarter(d),
	})
	require.NoError(t, err)

	require.NoError(t, d.RemoveSupplier(sup.ID))
	assert.Len(t, d.Invoices(nil), 1)

	// Submitting against the deleted supplier is now a hard error.
	_, err = d.SubmitInvoice(core.InvoiceInput{
		StoreID: st.ID, SupplierID: sup.ID, Amount: yuan(5000), Date: inQuarter(d),
	})
	assert.ErrorIs(t, err, core.ErrSupplierNotFound)
}

func TestUpdateInvoiceStatus(t *testing.T) {
	d, st, sup := newQuarterDataset(t)
	inv, err := d.SubmitInvoice(core.InvoiceInput{
		StoreID: st.ID, SupplierID: sup.ID, Amount: yuan(5000), Date: inQuarter(d),
	})
	require.NoError(t, err)

	amount := yuan(5000)
	updated, err := d.UpdateInvoiceStatus(inv.ID, core.InvoiceVerified, &core.VerificationResult{
		IsValid: true, FactoryName: "雷超", Amount: &amount,
	})
	require.NoError(t, err)
	assert.Equal(t, core.InvoiceVerified, updated.Status)
	require.NotNil(t, updated.Verification)
	assert.True(t, updated.Verification.IsValid)
}

func TestOnChange_FiresAfterEveryMutation(t *testing.T) {
	d := core.NewDataset("2025Q3")
	var states []core.State
	d.OnChange(func(s core.State) { states = append(states, s) })

	_, err := d.AddStore("苏艺匠", "杭州达雷尔沃家居有限公司", yuan(1), core.TaxSmallScale)
	require.NoError(t, err)
	_, err = d.AddSupplier("安吉瓦迪家具厂", "赵国庆", core.SupplierIndividual, core.StatutoryQuarterlyLimit)
	require.NoError(t, err)

	require.Len(t, states, 2)
	assert.Len(t, states[1].Stores, 1)
	assert.Len(t, states[1].Suppliers, 1)
	assert.Equal(t, core.QuarterID("2025Q3"), states[1].CurrentQuarter)
}

func TestOnChange_DoesNotFireOnRejectedMutation(t *testing.T) {
	d, st, sup := newQuarterDataset(t)
	fired := 0
	d.OnChange(func(core.State) { fired++ })

	_, err := d.SubmitInvoice(core.InvoiceInput{
		StoreID: st.ID, SupplierID: sup.ID, Amount: yuan(999999999), Date: inQuarter(d),
	})
	require.Error(t, err)
	assert.Zero(t, fired)
}

func TestOnChange_StateIsDeepCopy(t *testing.T) {
	d := core.NewDataset("2025Q3")
	var captured core.State
	d.OnChange(func(s core.State) { captured = s })

	st, err := d.AddStore("牧席", "杭州元森启木家居用品有限公司", yuan(100), core.TaxSmallScale)
	require.NoError(t, err)

	// Mutating the dataset afterwards must not change the captured copy.
	_, err = d.UpdateStore(st.ID, "改名", "改名公司", yuan(200), core.TaxGeneral)
	require.NoError(t, err)
	assert.Equal(t, "牧席", captured.Stores[0].StoreName)
}

func TestFromState_SeedsOwnerRegistryFromSuppliers(t *testing.T) {
	// Datasets persisted before the registry existed get one derived from
	// supplier rows.
	s := core.State{
		Suppliers: []core.Supplier{
			{ID: "s1", Name: "a", Owner: "雷超"},
			{ID: "s2", Name: "b", Owner: "周娜"},
			{ID: "s3", Name: "c", Owner: "雷超"},
		},
		CurrentQuarter: "2025Q3",
	}
	d := core.FromState(s)
	assert.Equal(t, []string{"雷超", "周娜"}, d.Owners())
}

func TestRestore_ReplacesEverything(t *testing.T) {
	d := populated(t, "2025Q3")

	replacement := core.State{
		Stores:            []core.Store{{ID: "x", StoreName: "新店", CompanyName: "新公司", TaxType: core.TaxGeneral}},
		CurrentQuarter:    "2024Q1",
		AvailableQuarters: []core.QuarterID{"2024Q1"},
		Archive: map[core.QuarterID]core.Snapshot{
			"2023Q4": {Payments: []core.Payment{{ID: "p", FactoryOwner: "某厂", Amount: yuan(1), Date: core.NewDate(2023, time.December, 1)}}},
		},
	}
	require.NoError(t, d.Restore(replacement))

	assert.Equal(t, core.QuarterID("2024Q1"), d.CurrentQuarter())
	assert.Len(t, d.Stores(nil), 1)
	assert.Empty(t, d.Suppliers(nil))
	assert.Empty(t, d.Invoices(nil))
	_, ok := d.ArchivedSnapshot("2023Q4")
	assert.True(t, ok)
	_, ok = d.ArchivedSnapshot("2025Q3")
	assert.False(t, ok)
}
