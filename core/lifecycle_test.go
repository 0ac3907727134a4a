package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotaflow/quota-engine/core"
)

// populated builds a dataset on the given quarter with stores, suppliers,
// and some issued invoices and payments.
func populated(t *testing.T, quarter core.QuarterID) *core.Dataset {
	t.Helper()
	d := core.NewDataset(quarter)

	st, err := d.AddStore("达里奥", "杭州希木云品家居有限公司", yuan(500000), core.TaxSmallScale)
	require.NoError(t, err)
	_, err = d.AddStore("丹颜", "杭州北欧曼家具有限公司", yuan(300000), core.TaxSmallScale)
	require.NoError(t, err)

	sup, err := d.AddSupplier("安吉皓翔家具经营部", "雷超", core.SupplierIndividual, core.StatutoryQuarterlyLimit)
	require.NoError(t, err)
	_, err = d.AddSupplier("安吉嘉誉家具商行", "周娜", core.SupplierGeneral, yuan(500000))
	require.NoError(t, err)

	_, err = d.SubmitInvoice(core.InvoiceInput{
		StoreID: st.ID, SupplierID: sup.ID, Amount: yuan(120000), Date: quarter.Range().Start,
	})
	require.NoError(t, err)
	_, err = d.AddPayment("雷超", yuan(50000), quarter.Range().Start)
	require.NoError(t, err)
	return d
}

// =============================================================================
// START NEW QUARTER
// =============================================================================

func TestStartNewQuarter_ClosesBooks(t *testing.T) {
	// GIVEN: a populated dataset on 2025Q4
	// WHEN:  starting a new quarter
	// THEN:  pointer moves to 2026Q1, per-quarter fields reset, the closed
	//        quarter's invoices/payments live only in the archive
	d := populated(t, "2025Q4")

	// Cut one supplier's limit below the statutory default to observe the reset.
	sup := d.Suppliers(func(s core.Supplier) bool { return s.Type == core.SupplierIndividual })[0]
	_, err := d.UpdateSupplier(sup.ID, sup.Name, sup.Type, yuan(190000), sup.Status)
	require.NoError(t, err)

	next, err := d.StartNewQuarter()
	require.NoError(t, err)
	assert.Equal(t, core.QuarterID("2026Q1"), next)
	assert.Equal(t, core.QuarterID("2026Q1"), d.CurrentQuarter())

	// Live collections reset.
	assert.Empty(t, d.Invoices(nil))
	assert.Empty(t, d.Payments(nil))
	for _, st := range d.Stores(nil) {
		assert.True(t, st.QuarterIncome.IsZero())
		assert.True(t, st.QuarterExpenses.IsZero())
	}

	// Identities preserved; INDIVIDUAL limits back to statutory, others kept.
	suppliers := d.Suppliers(nil)
	require.Len(t, suppliers, 2)
	for _, s := range suppliers {
		if s.Type == core.SupplierIndividual {
			assert.Equal(t, sup.ID, s.ID)
			assert.True(t, core.StatutoryQuarterlyLimit.Equal(s.QuarterlyLimit))
		} else {
			assert.True(t, yuan(500000).Equal(s.QuarterlyLimit))
		}
	}

	// Archive holds the pre-reset records.
	snap, ok := d.ArchivedSnapshot("2025Q4")
	require.True(t, ok)
	assert.Len(t, snap.Invoices, 1)
	assert.Len(t, snap.Payments, 1)
	assert.True(t, yuan(500000).Equal(snap.Stores[0].QuarterIncome))
}

func TestStartNewQuarter_NextIsAlwaysCurrentPlusOne(t *testing.T) {
	// A pre-existing 2026Q2 snapshot must not influence the computation.
	d := populated(t, "2025Q4")
	require.NoError(t, d.SwitchQuarter("2026Q2"))
	require.NoError(t, d.SwitchQuarter("2025Q4"))

	next, err := d.StartNewQuarter()
	require.NoError(t, err)
	assert.Equal(t, core.QuarterID("2026Q1"), next)

	quarters := d.AvailableQuarters()
	assert.Equal(t, []core.QuarterID{"2025Q4", "2026Q1", "2026Q2"}, quarters)
}

func TestStartNewQuarter_BreakdownSurvivesReset(t *testing.T) {
	// The aggregate resets to zero while the breakdown is left in place;
	// intentionally preserved behavior pending a product decision.
	d := populated(t, "2025Q3")
	st := d.Stores(nil)[0]
	_, err := d.UpdateStoreExpenses(st.ID, core.ExpenseBreakdown{Rent: yuan(20000), Shipping: yuan(5000)})
	require.NoError(t, err)

	_, err = d.StartNewQuarter()
	require.NoError(t, err)

	got, ok := d.GetStore(st.ID)
	require.True(t, ok)
	assert.True(t, got.QuarterExpenses.IsZero())
	require.NotNil(t, got.ExpenseBreakdown)
	assert.True(t, yuan(20000).Equal(got.ExpenseBreakdown.Rent))
}

// =============================================================================
// SWITCH QUARTER
// =============================================================================

func TestSwitchQuarter_RoundTripIsLossless(t *testing.T) {
	// switch(B); switch(A) must reproduce A exactly.
	d := populated(t, "2025Q3")
	before := d.ExportState()

	require.NoError(t, d.SwitchQuarter("2025Q2"))
	assert.Equal(t, core.QuarterID("2025Q2"), d.CurrentQuarter())

	require.NoError(t, d.SwitchQuarter("2025Q3"))
	after := d.ExportState()

	assert.Equal(t, before.Stores, after.Stores)
	assert.Equal(t, before.Suppliers, after.Suppliers)
	assert.Equal(t, before.Invoices, after.Invoices)
	assert.Equal(t, before.Payments, after.Payments)
	assert.Equal(t, before.CurrentQuarter, after.CurrentQuarter)
}

func TestSwitchQuarter_UnchartedTargetGetsDegradedReset(t *testing.T) {
	// No snapshot for the target: suppliers unchanged, invoices/payments
	// cleared, store figures zeroed.
	d := populated(t, "2025Q3")
	suppliersBefore := d.Suppliers(nil)

	require.NoError(t, d.SwitchQuarter("2024Q1"))

	assert.Equal(t, suppliersBefore, d.Suppliers(nil))
	assert.Empty(t, d.Invoices(nil))
	assert.Empty(t, d.Payments(nil))
	for _, st := range d.Stores(nil) {
		assert.True(t, st.QuarterIncome.IsZero())
	}
}

func TestSwitchQuarter_SameTargetIsNoop(t *testing.T) {
	d := populated(t, "2025Q3")
	before := d.ExportState()

	require.NoError(t, d.SwitchQuarter("2025Q3"))
	after := d.ExportState()

	assert.Equal(t, before.Invoices, after.Invoices)
	// A no-op switch must not archive anything new.
	assert.Equal(t, len(before.Archive), len(after.Archive))
}

func TestSwitchQuarter_ArchiveEntriesDoNotAliasLiveState(t *testing.T) {
	// Mutating live state after a switch must not alter the archived copy.
	d := populated(t, "2025Q3")
	require.NoError(t, d.SwitchQuarter("2025Q4"))

	st := d.Stores(nil)[0]
	_, err := d.UpdateStore(st.ID, "改名", st.CompanyName, yuan(1), st.TaxType)
	require.NoError(t, err)

	snap, ok := d.ArchivedSnapshot("2025Q3")
	require.True(t, ok)
	assert.Equal(t, "达里奥", snap.Stores[0].StoreName)
	assert.True(t, yuan(500000).Equal(snap.Stores[0].QuarterIncome))
}

// =============================================================================
// DELETE QUARTER SNAPSHOT
// =============================================================================

func TestDeleteQuarterSnapshot_RemovesArchiveEntry(t *testing.T) {
	d := populated(t, "2025Q3")
	require.NoError(t, d.SwitchQuarter("2025Q4"))

	require.NoError(t, d.DeleteQuarterSnapshot("2025Q3"))

	_, ok := d.ArchivedSnapshot("2025Q3")
	assert.False(t, ok)
	assert.NotContains(t, d.AvailableQuarters(), core.QuarterID("2025Q3"))
	assert.Equal(t, core.QuarterID("2025Q4"), d.CurrentQuarter())
}

func TestDeleteQuarterSnapshot_CurrentFallsBackToLatestRemaining(t *testing.T) {
	d := populated(t, "2025Q3")
	require.NoError(t, d.SwitchQuarter("2025Q4"))
	require.NoError(t, d.SwitchQuarter("2026Q1"))

	require.NoError(t, d.DeleteQuarterSnapshot("2026Q1"))

	assert.Equal(t, core.QuarterID("2025Q4"), d.CurrentQuarter())
	// The restored quarter's data is live again.
	assert.NotContains(t, d.AvailableQuarters(), core.QuarterID("2026Q1"))
}

func TestDeleteQuarterSnapshot_LastQuarterClearsLiveKeepsLabel(t *testing.T) {
	d := populated(t, "2025Q3")
	_, err := d.StartNewQuarter() // archive 2025Q3, now on 2025Q4
	require.NoError(t, err)

	require.NoError(t, d.DeleteQuarterSnapshot("2025Q3"))
	require.NoError(t, d.DeleteQuarterSnapshot("2025Q4"))

	assert.Equal(t, core.QuarterID("2025Q4"), d.CurrentQuarter())
	assert.Empty(t, d.Stores(nil))
	assert.Empty(t, d.Suppliers(nil))
	assert.Empty(t, d.Invoices(nil))
	assert.Empty(t, d.Payments(nil))
	assert.Empty(t, d.AvailableQuarters())
}

func TestDeleteQuarterSnapshot_UnknownQuarter(t *testing.T) {
	d := populated(t, "2025Q3")
	assert.ErrorIs(t, d.DeleteQuarterSnapshot("1999Q1"), core.ErrQuarterNotFound)
}

// =============================================================================
// SCENARIO: full year-end close from 2025Q4
// =============================================================================

func TestYearEndClose(t *testing.T) {
	d := populated(t, "2025Q4")
	_, err := d.SubmitInvoice(core.InvoiceInput{
		StoreID:    d.Stores(nil)[1].ID,
		SupplierID: d.Suppliers(nil)[1].ID,
		Amount:     yuan(75000),
		Date:       core.NewDate(2025, time.December, 30),
	})
	require.NoError(t, err)

	next, err := d.StartNewQuarter()
	require.NoError(t, err)

	assert.Equal(t, core.QuarterID("2026Q1"), next)
	snap, ok := d.ArchivedSnapshot("2025Q4")
	require.True(t, ok)
	assert.Len(t, snap.Invoices, 2)
	assert.Empty(t, d.Invoices(nil))
}
