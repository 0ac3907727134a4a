package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotaflow/quota-engine/core"
)

func TestAddSupplier_RegistersNewOwner(t *testing.T) {
	d := core.NewDataset("2025Q3")

	_, err := d.AddSupplier("安吉星造家具厂", "付新海", core.SupplierIndividual, core.StatutoryQuarterlyLimit)
	require.NoError(t, err)
	assert.Equal(t, []string{"付新海"}, d.Owners())

	// A second supplier under the same owner does not duplicate the entry.
	_, err = d.AddSupplier("安吉云宏家具厂", "付新海", core.SupplierIndividual, core.StatutoryQuarterlyLimit)
	require.NoError(t, err)
	assert.Equal(t, []string{"付新海"}, d.Owners())
}

func TestRenameOwner_CascadesAcrossAllCollections(t *testing.T) {
	// Renaming 张三 to 李四 leaves zero records holding the old name.
	d := core.NewDataset("2025Q3")
	_, err := d.AddSupplier("甲厂", "张三", core.SupplierIndividual, core.StatutoryQuarterlyLimit)
	require.NoError(t, err)
	_, err = d.AddSupplier("乙厂", "张三", core.SupplierGeneral, yuan(500000))
	require.NoError(t, err)
	_, err = d.AddSupplier("丙厂", "王五", core.SupplierIndividual, core.StatutoryQuarterlyLimit)
	require.NoError(t, err)
	_, err = d.AddPayment("张三", yuan(10000), core.NewDate(2025, time.July, 10))
	require.NoError(t, err)

	require.NoError(t, d.RenameOwner("张三", "李四"))

	for _, s := range d.Suppliers(nil) {
		assert.NotEqual(t, "张三", s.Owner)
	}
	for _, p := range d.Payments(nil) {
		assert.NotEqual(t, "张三", p.FactoryOwner)
	}
	assert.NotContains(t, d.Owners(), "张三")
	assert.Contains(t, d.Owners(), "李四")
	assert.Contains(t, d.Owners(), "王五")

	renamed := d.Suppliers(func(s core.Supplier) bool { return s.Owner == "李四" })
	assert.Len(t, renamed, 2)
}

func TestDeleteOwner_RegistryOnly(t *testing.T) {
	// Deleting an owner orphans its suppliers without touching them; they
	// keep rendering and aggregating under the orphaned name.
	d := core.NewDataset("2025Q3")
	sup, err := d.AddSupplier("安吉博恒家具厂", "钟大奖", core.SupplierIndividual, core.StatutoryQuarterlyLimit)
	require.NoError(t, err)
	_, err = d.AddPayment("钟大奖", yuan(8000), core.NewDate(2025, time.July, 15))
	require.NoError(t, err)

	require.NoError(t, d.DeleteOwner("钟大奖"))

	assert.NotContains(t, d.Owners(), "钟大奖")
	got, ok := d.GetSupplier(sup.ID)
	require.True(t, ok)
	assert.Equal(t, "钟大奖", got.Owner)
	assert.Len(t, d.Payments(nil), 1)

	ranking := core.FactoryQuotaRanking(d.Suppliers(nil), d.Invoices(nil))
	require.Len(t, ranking, 1)
	assert.Equal(t, "钟大奖", ranking[0].Name)
}

func TestAddOwner_CreatesEmptyFactory(t *testing.T) {
	d := core.NewDataset("2025Q3")
	require.NoError(t, d.AddOwner("陈晨"))
	assert.Equal(t, []string{"陈晨"}, d.Owners())
	assert.Empty(t, d.Suppliers(func(s core.Supplier) bool { return s.Owner == "陈晨" }))
}
