package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotaflow/quota-engine/core"
)

func exportState() core.State {
	date, _ := core.ParseDate("2025-08-15")
	return core.State{
		Stores: []core.Store{{
			ID:              "s1",
			StoreName:       "达里奥",
			CompanyName:     "杭州达里奥贸易有限公司",
			QuarterIncome:   core.MoneyFromInt(500000),
			QuarterExpenses: core.MoneyFromInt(200000),
			TaxType:         core.TaxSmallScale,
		}},
		Suppliers: []core.Supplier{{
			ID:             "p1",
			Name:           "安吉皓翔家具经营部",
			Owner:          "雷超",
			Type:           core.SupplierIndividual,
			QuarterlyLimit: core.StatutoryQuarterlyLimit,
			Status:         core.StatusActive,
		}},
		Invoices: []core.Invoice{{
			ID: "i1", StoreID: "s1", SupplierID: "p1",
			Amount: core.MoneyFromInt(100000), Date: date,
		}},
		Payments: []core.Payment{
			{ID: "pay1", FactoryOwner: "雷超", Amount: core.MoneyFromInt(50000), Date: date},
			{ID: "pay2", StoreID: "s1", Amount: core.MoneyFromInt(3000), Date: date},
		},
		CurrentQuarter: "2025Q3",
	}
}

func TestStoresCSV(t *testing.T) {
	out := string(StoresCSV(exportState()))

	// GIVEN the report, the BOM must lead so spreadsheets decode UTF-8
	require.True(t, strings.HasPrefix(out, "\uFEFF"))

	lines := strings.Split(strings.TrimPrefix(out, "\uFEFF"), "\n")
	assert.Equal(t, "店铺名称,公司名称,纳税人类型,季度收入,季度支出,已收发票,待抵扣缺口", lines[0])
	// gap = 500000 - 200000 - 100000
	assert.Equal(t, "达里奥,杭州达里奥贸易有限公司,小规模纳税人,500000,200000,100000,200000", lines[1])

	// detail section after a blank line
	assert.Equal(t, "", lines[2])
	assert.Equal(t, "发票明细：", lines[3])
	assert.Equal(t, "开票日期,店铺名称,店铺绑定公司,开票主体,开票主体所属工厂,开票金额", lines[4])
	assert.Equal(t, "2025-08-15,达里奥,杭州达里奥贸易有限公司,安吉皓翔家具经营部,雷超,100000.00", lines[5])
}

func TestStoresCSV_DanglingReferences(t *testing.T) {
	state := exportState()
	state.Stores = nil
	state.Suppliers = nil

	out := string(StoresCSV(state))
	assert.Contains(t, out, "2025-08-15,未知店铺,未知公司,未知主体,未知工厂,100000.00")
}

func TestSuppliersCSV(t *testing.T) {
	out := string(SuppliersCSV(exportState()))
	require.True(t, strings.HasPrefix(out, "\uFEFF"))

	lines := strings.Split(strings.TrimPrefix(out, "\uFEFF"), "\n")
	assert.Equal(t, "工厂负责人,开票单位,类型,季度限额,已开票金额,剩余额度", lines[0])
	assert.Equal(t, "雷超,安吉皓翔家具经营部,个体工商户,280000,100000,180000", lines[1])

	assert.Contains(t, out, "\n开票明细：\n")
	assert.Contains(t, out, "2025-08-15,雷超,安吉皓翔家具经营部,达里奥,杭州达里奥贸易有限公司,100000.00")

	// payments carry an attribution note; records without an owner fall back
	assert.Contains(t, out, "\n付款明细：\n")
	assert.Contains(t, out, "2025-08-15,雷超,50000.00,其他付款")
	assert.Contains(t, out, "2025-08-15,未知工厂,3000.00,店铺付款")
}

func TestCSVNames(t *testing.T) {
	assert.Equal(t, "店铺数据_2025Q3.csv", StoresCSVName("2025Q3"))
	assert.Equal(t, "工厂数据_2025Q3.csv", SuppliersCSVName("2025Q3"))
}
