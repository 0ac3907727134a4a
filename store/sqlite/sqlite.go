/*
Package sqlite provides a SQLite-backed implementation of core.Persistence.

PURPOSE:
  Durable replication target for the in-memory dataset. The dataset stays
  authoritative at runtime; this store holds the last successfully saved
  full state and feeds it back on startup. In production the same table
  layout applies to PostgreSQL with minor dialect differences.

KEY TABLES:
  stores, suppliers, invoices, payments:  the live working-quarter records
  quarter_snapshots:  one JSON payload per archived quarter
  meta:               current quarter, available quarters, owner registry

SAVE SEMANTICS:
  Save replaces the whole state inside one SQL transaction. Either the new
  state lands completely or the previous state remains; Load never sees a
  half-saved dataset.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/quota.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - core/persist.go: Interface definition
  - store/memory.go: In-memory implementation for testing
  - store/fallback.go: JSON-file fallback wrapper
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/quotaflow/quota-engine/core"
)

// Store implements core.Persistence using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS stores (
		id TEXT PRIMARY KEY,
		store_name TEXT NOT NULL,
		company_name TEXT NOT NULL,
		quarter_income TEXT NOT NULL,
		quarter_expenses TEXT NOT NULL,
		expense_breakdown TEXT,
		tax_type TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS suppliers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		owner TEXT NOT NULL,
		type TEXT NOT NULL,
		quarterly_limit TEXT NOT NULL,
		status TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		supplier_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		date TEXT NOT NULL,
		status TEXT,
		verification TEXT,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		store_id TEXT,
		supplier_id TEXT,
		factory_owner TEXT,
		amount TEXT NOT NULL,
		date TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS quarter_snapshots (
		quarter TEXT PRIMARY KEY,
		payload TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_invoices_supplier ON invoices(supplier_id);
	CREATE INDEX IF NOT EXISTS idx_invoices_store ON invoices(store_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SAVE - full state replace in one transaction
// =============================================================================

// Save writes the complete state, replacing whatever was stored before.
func (s *Store) Save(ctx context.Context, state core.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", core.ErrPersistence, err)
	}
	defer tx.Rollback()

	for _, table := range []string{"stores", "suppliers", "invoices", "payments", "quarter_snapshots", "meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("%w: clear %s: %v", core.ErrPersistence, table, err)
		}
	}

	for i, st := range state.Stores {
		var breakdown any
		if st.ExpenseBreakdown != nil {
			b, err := json.Marshal(st.ExpenseBreakdown)
			if err != nil {
				return fmt.Errorf("%w: encode breakdown: %v", core.ErrPersistence, err)
			}
			breakdown = string(b)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO stores (id, store_name, company_name, quarter_income, quarter_expenses, expense_breakdown, tax_type, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			st.ID, st.StoreName, st.CompanyName, st.QuarterIncome.String(), st.QuarterExpenses.String(),
			breakdown, string(st.TaxType), i,
		); err != nil {
			return fmt.Errorf("%w: insert store: %v", core.ErrPersistence, err)
		}
	}

	for i, sup := range state.Suppliers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO suppliers (id, name, owner, type, quarterly_limit, status, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sup.ID, sup.Name, sup.Owner, string(sup.Type), sup.QuarterlyLimit.String(), string(sup.Status), i,
		); err != nil {
			return fmt.Errorf("%w: insert supplier: %v", core.ErrPersistence, err)
		}
	}

	for i, inv := range state.Invoices {
		var verification any
		if inv.Verification != nil {
			v, err := json.Marshal(inv.Verification)
			if err != nil {
				return fmt.Errorf("%w: encode verification: %v", core.ErrPersistence, err)
			}
			verification = string(v)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO invoices (id, store_id, supplier_id, amount, date, status, verification, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			inv.ID, inv.StoreID, inv.SupplierID, inv.Amount.String(), inv.Date.String(), string(inv.Status), verification, i,
		); err != nil {
			return fmt.Errorf("%w: insert invoice: %v", core.ErrPersistence, err)
		}
	}

	for i, p := range state.Payments {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO payments (id, store_id, supplier_id, factory_owner, amount, date, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.StoreID, p.SupplierID, p.FactoryOwner, p.Amount.String(), p.Date.String(), i,
		); err != nil {
			return fmt.Errorf("%w: insert payment: %v", core.ErrPersistence, err)
		}
	}

	for quarter, snap := range state.Archive {
		payload, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("%w: encode snapshot %s: %v", core.ErrPersistence, quarter, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO quarter_snapshots (quarter, payload) VALUES (?, ?)`,
			string(quarter), string(payload),
		); err != nil {
			return fmt.Errorf("%w: insert snapshot: %v", core.ErrPersistence, err)
		}
	}

	if err := s.saveMeta(ctx, tx, state); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", core.ErrPersistence, err)
	}
	return nil
}

func (s *Store) saveMeta(ctx context.Context, tx *sql.Tx, state core.State) error {
	quarters, err := json.Marshal(state.AvailableQuarters)
	if err != nil {
		return fmt.Errorf("%w: encode quarters: %v", core.ErrPersistence, err)
	}
	owners, err := json.Marshal(state.FactoryOwners)
	if err != nil {
		return fmt.Errorf("%w: encode owners: %v", core.ErrPersistence, err)
	}

	meta := map[string]string{
		"current_quarter":    string(state.CurrentQuarter),
		"available_quarters": string(quarters),
		"factory_owners":     string(owners),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("%w: insert meta %s: %v", core.ErrPersistence, k, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD
// =============================================================================

// Load reads the stored state. The second return value is false when the
// database has never been saved to.
func (s *Store) Load(ctx context.Context) (core.State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var state core.State

	meta, found, err := s.loadMeta(ctx)
	if err != nil {
		return state, false, err
	}
	if !found {
		return state, false, nil
	}
	state.CurrentQuarter = meta.quarter
	state.AvailableQuarters = meta.available
	state.FactoryOwners = meta.owners

	if state.Stores, err = s.loadStores(ctx); err != nil {
		return state, false, err
	}
	if state.Suppliers, err = s.loadSuppliers(ctx); err != nil {
		return state, false, err
	}
	if state.Invoices, err = s.loadInvoices(ctx); err != nil {
		return state, false, err
	}
	if state.Payments, err = s.loadPayments(ctx); err != nil {
		return state, false, err
	}
	if state.Archive, err = s.loadSnapshots(ctx); err != nil {
		return state, false, err
	}
	return state, true, nil
}

type metaRow struct {
	quarter   core.QuarterID
	available []core.QuarterID
	owners    []string
}

func (s *Store) loadMeta(ctx context.Context) (metaRow, bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return metaRow{}, false, fmt.Errorf("%w: load meta: %v", core.ErrPersistence, err)
	}
	defer rows.Close()

	var m metaRow
	found := false
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return metaRow{}, false, fmt.Errorf("%w: scan meta: %v", core.ErrPersistence, err)
		}
		found = true
		switch k {
		case "current_quarter":
			m.quarter = core.QuarterID(v)
		case "available_quarters":
			if err := json.Unmarshal([]byte(v), &m.available); err != nil {
				return metaRow{}, false, fmt.Errorf("%w: decode quarters: %v", core.ErrPersistence, err)
			}
		case "factory_owners":
			if err := json.Unmarshal([]byte(v), &m.owners); err != nil {
				return metaRow{}, false, fmt.Errorf("%w: decode owners: %v", core.ErrPersistence, err)
			}
		}
	}
	return m, found, rows.Err()
}

func (s *Store) loadStores(ctx context.Context) ([]core.Store, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, store_name, company_name, quarter_income, quarter_expenses, expense_breakdown, tax_type
		 FROM stores ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("%w: load stores: %v", core.ErrPersistence, err)
	}
	defer rows.Close()

	var out []core.Store
	for rows.Next() {
		var st core.Store
		var income, expenses, taxType string
		var breakdown sql.NullString
		if err := rows.Scan(&st.ID, &st.StoreName, &st.CompanyName, &income, &expenses, &breakdown, &taxType); err != nil {
			return nil, fmt.Errorf("%w: scan store: %v", core.ErrPersistence, err)
		}
		if st.QuarterIncome, err = core.MoneyFromString(income); err != nil {
			return nil, fmt.Errorf("%w: store income: %v", core.ErrPersistence, err)
		}
		if st.QuarterExpenses, err = core.MoneyFromString(expenses); err != nil {
			return nil, fmt.Errorf("%w: store expenses: %v", core.ErrPersistence, err)
		}
		if breakdown.Valid && breakdown.String != "" {
			var b core.ExpenseBreakdown
			if err := json.Unmarshal([]byte(breakdown.String), &b); err != nil {
				return nil, fmt.Errorf("%w: decode breakdown: %v", core.ErrPersistence, err)
			}
			st.ExpenseBreakdown = &b
		}
		st.TaxType = core.StoreTaxType(taxType)
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) loadSuppliers(ctx context.Context) ([]core.Supplier, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, owner, type, quarterly_limit, status FROM suppliers ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("%w: load suppliers: %v", core.ErrPersistence, err)
	}
	defer rows.Close()

	var out []core.Supplier
	for rows.Next() {
		var sup core.Supplier
		var typ, limit, status string
		if err := rows.Scan(&sup.ID, &sup.Name, &sup.Owner, &typ, &limit, &status); err != nil {
			return nil, fmt.Errorf("%w: scan supplier: %v", core.ErrPersistence, err)
		}
		if sup.QuarterlyLimit, err = core.MoneyFromString(limit); err != nil {
			return nil, fmt.Errorf("%w: supplier limit: %v", core.ErrPersistence, err)
		}
		sup.Type = core.SupplierType(typ)
		sup.Status = core.SupplierStatus(status)
		out = append(out, sup)
	}
	return out, rows.Err()
}

func (s *Store) loadInvoices(ctx context.Context) ([]core.Invoice, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, store_id, supplier_id, amount, date, status, verification FROM invoices ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("%w: load invoices: %v", core.ErrPersistence, err)
	}
	defer rows.Close()

	var out []core.Invoice
	for rows.Next() {
		var inv core.Invoice
		var amount, date string
		var status, verification sql.NullString
		if err := rows.Scan(&inv.ID, &inv.StoreID, &inv.SupplierID, &amount, &date, &status, &verification); err != nil {
			return nil, fmt.Errorf("%w: scan invoice: %v", core.ErrPersistence, err)
		}
		if inv.Amount, err = core.MoneyFromString(amount); err != nil {
			return nil, fmt.Errorf("%w: invoice amount: %v", core.ErrPersistence, err)
		}
		if inv.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("%w: invoice date: %v", core.ErrPersistence, err)
		}
		inv.Status = core.InvoiceStatus(status.String)
		if verification.Valid && verification.String != "" {
			var v core.VerificationResult
			if err := json.Unmarshal([]byte(verification.String), &v); err != nil {
				return nil, fmt.Errorf("%w: decode verification: %v", core.ErrPersistence, err)
			}
			inv.Verification = &v
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *Store) loadPayments(ctx context.Context) ([]core.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, store_id, supplier_id, factory_owner, amount, date FROM payments ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("%w: load payments: %v", core.ErrPersistence, err)
	}
	defer rows.Close()

	var out []core.Payment
	for rows.Next() {
		var p core.Payment
		var amount, date string
		if err := rows.Scan(&p.ID, &p.StoreID, &p.SupplierID, &p.FactoryOwner, &amount, &date); err != nil {
			return nil, fmt.Errorf("%w: scan payment: %v", core.ErrPersistence, err)
		}
		if p.Amount, err = core.MoneyFromString(amount); err != nil {
			return nil, fmt.Errorf("%w: payment amount: %v", core.ErrPersistence, err)
		}
		if p.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("%w: payment date: %v", core.ErrPersistence, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) loadSnapshots(ctx context.Context) (map[core.QuarterID]core.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT quarter, payload FROM quarter_snapshots`)
	if err != nil {
		return nil, fmt.Errorf("%w: load snapshots: %v", core.ErrPersistence, err)
	}
	defer rows.Close()

	out := make(map[core.QuarterID]core.Snapshot)
	for rows.Next() {
		var quarter, payload string
		if err := rows.Scan(&quarter, &payload); err != nil {
			return nil, fmt.Errorf("%w: scan snapshot: %v", core.ErrPersistence, err)
		}
		var snap core.Snapshot
		if err := json.Unmarshal([]byte(payload), &snap); err != nil {
			return nil, fmt.Errorf("%w: decode snapshot %s: %v", core.ErrPersistence, quarter, err)
		}
		out[core.QuarterID(quarter)] = snap
	}
	return out, rows.Err()
}
