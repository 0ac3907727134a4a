/*
Package export renders dataset state into downloadable documents.

PURPOSE:
  Two CSV reports (store-centric and supplier-centric) for spreadsheet
  consumption, and a versioned JSON backup covering all quarters. The CSV
  layout, Chinese headers and the UTF-8 BOM prefix are load-bearing:
  downstream spreadsheets parse these exact sections.
*/
package export

import (
	"fmt"
	"strings"

	"github.com/quotaflow/quota-engine/core"
)

// bom makes Excel detect UTF-8 so Chinese headers render correctly.
const bom = "\uFEFF"

// StoresCSV renders the store-centric report: one summary row per store
// followed by a blank line and an invoice detail section.
func StoresCSV(state core.State) []byte {
	var b strings.Builder
	b.WriteString(bom)
	b.WriteString("店铺名称,公司名称,纳税人类型,季度收入,季度支出,已收发票,待抵扣缺口\n")
	for _, st := range state.Stores {
		invoiced := core.StoreInvoicedTotal(state.Invoices, st.ID)
		gap := st.QuarterIncome.Sub(st.QuarterExpenses).Sub(invoiced)
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s,%s,%s\n",
			st.StoreName, st.CompanyName, st.TaxType,
			st.QuarterIncome, st.QuarterExpenses, invoiced, gap)
	}

	b.WriteString("\n发票明细：\n")
	b.WriteString("开票日期,店铺名称,店铺绑定公司,开票主体,开票主体所属工厂,开票金额\n")
	for _, inv := range state.Invoices {
		storeName, companyName := storeLabels(state.Stores, inv.StoreID)
		supplierName, ownerName := supplierLabels(state.Suppliers, inv.SupplierID)
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s,%s\n",
			inv.Date, storeName, companyName, supplierName, ownerName, fixed2(inv.Amount))
	}
	return []byte(b.String())
}

// SuppliersCSV renders the supplier-centric report: one summary row per
// supplier, then invoice and payment detail sections.
func SuppliersCSV(state core.State) []byte {
	var b strings.Builder
	b.WriteString(bom)
	b.WriteString("工厂负责人,开票单位,类型,季度限额,已开票金额,剩余额度\n")
	for _, sup := range state.Suppliers {
		invoiced := core.SupplierInvoicedTotal(state.Invoices, sup.ID)
		remaining := sup.QuarterlyLimit.Sub(invoiced)
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s,%s\n",
			sup.Owner, sup.Name, sup.Type, sup.QuarterlyLimit, invoiced, remaining)
	}

	b.WriteString("\n开票明细：\n")
	b.WriteString("开票日期,工厂负责人,开票单位,开票店铺,开票店铺绑定公司,开票金额\n")
	for _, inv := range state.Invoices {
		storeName, companyName := storeLabels(state.Stores, inv.StoreID)
		supplierName, ownerName := supplierLabels(state.Suppliers, inv.SupplierID)
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s,%s\n",
			inv.Date, ownerName, supplierName, storeName, companyName, fixed2(inv.Amount))
	}

	b.WriteString("\n付款明细：\n")
	b.WriteString("付款日期,工厂负责人,付款金额,备注\n")
	for _, p := range state.Payments {
		owner := p.FactoryOwner
		if owner == "" {
			owner = core.UnknownFactory
		}
		note := "其他付款"
		if p.StoreID != "" {
			note = "店铺付款"
		}
		fmt.Fprintf(&b, "%s,%s,%s,%s\n", p.Date, owner, fixed2(p.Amount), note)
	}
	return []byte(b.String())
}

// StoresCSVName returns the download filename for the store report.
func StoresCSVName(quarter core.QuarterID) string {
	return fmt.Sprintf("店铺数据_%s.csv", quarter)
}

// SuppliersCSVName returns the download filename for the supplier report.
func SuppliersCSVName(quarter core.QuarterID) string {
	return fmt.Sprintf("工厂数据_%s.csv", quarter)
}

func fixed2(m core.Money) string {
	return m.Value.StringFixed(2)
}

func storeLabels(stores []core.Store, id string) (name, company string) {
	for _, st := range stores {
		if st.ID == id {
			return st.StoreName, st.CompanyName
		}
	}
	return core.UnknownStore, core.UnknownCompany
}

func supplierLabels(suppliers []core.Supplier, id string) (name, owner string) {
	for _, sup := range suppliers {
		if sup.ID == id {
			return sup.Name, sup.Owner
		}
	}
	return core.UnknownSupplier, core.UnknownFactory
}
