/*
migrate.go - Forward-only schema evolution

PURPOSE:
  The schema grows by a small ordered list of idempotent steps, run once at
  startup. Each step checks "does the target shape already exist" before
  acting, so re-running against an upgraded database is a no-op. Steps that
  fail against a database that does NOT already have the expected shape
  surface as SchemaUpgradeError, which is fatal.

There is no downgrade path. Corrections ship as new forward steps.
*/
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/hibret/equb-engine/equb"
)

type migration struct {
	name string
	run  func(db *sql.DB) error
}

// migrations run in order. Append only; never reorder or edit a shipped step.
var migrations = []migration{
	{name: "base-schema", run: createBaseSchema},
	{name: "plan-grace-days", run: addColumnIfMissing("plans", "grace_days", "INTEGER NOT NULL DEFAULT 0")},
	{name: "collection-cancel-reason", run: addColumnIfMissing("daily_collections", "cancel_reason", "TEXT NOT NULL DEFAULT ''")},
	{name: "payment-history-table", run: createPaymentHistoryTable},
	{name: "reconciliation-performer", run: addColumnIfMissing("weekly_reconciliations", "performer_id", "TEXT NOT NULL DEFAULT ''")},
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return &equb.SchemaUpgradeError{Step: "schema_migrations", Err: err}
	}

	for _, m := range migrations {
		var count int
		if err := s.db.QueryRow(
			"SELECT COUNT(*) FROM schema_migrations WHERE name = ?", m.name,
		).Scan(&count); err != nil {
			return &equb.SchemaUpgradeError{Step: m.name, Err: err}
		}
		if count > 0 {
			continue
		}
		if err := m.run(s.db); err != nil {
			return &equb.SchemaUpgradeError{Step: m.name, Err: err}
		}
		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (name, applied_at) VALUES (?, datetime('now'))", m.name,
		); err != nil {
			return &equb.SchemaUpgradeError{Step: m.name, Err: err}
		}
	}
	return nil
}

func createBaseSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		member_type TEXT NOT NULL DEFAULT 'regular',
		archived INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		sequence_no INTEGER NOT NULL DEFAULT 1,
		daily_amount TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		collection_days TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_plans_member ON plans(member_id);
	CREATE INDEX IF NOT EXISTS idx_plans_status ON plans(status);

	CREATE TABLE IF NOT EXISTS daily_collections (
		id TEXT PRIMARY KEY,
		plan_id TEXT NOT NULL,
		date TEXT NOT NULL,
		week INTEGER NOT NULL,
		day INTEGER NOT NULL,
		amount TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT 'cash',
		reference TEXT NOT NULL DEFAULT '',
		collector_id TEXT NOT NULL DEFAULT '',
		recorded_at TEXT NOT NULL,
		cancelled INTEGER NOT NULL DEFAULT 0
	);

	-- CRITICAL: at most one active payment per (plan, week, day).
	-- Cancelled rows fall out of the index, reopening the slot.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_active_collection
		ON daily_collections(plan_id, week, day)
		WHERE cancelled = 0;

	CREATE INDEX IF NOT EXISTS idx_collections_week ON daily_collections(week);
	CREATE INDEX IF NOT EXISTS idx_collections_plan ON daily_collections(plan_id, week, day);

	CREATE TABLE IF NOT EXISTS daily_arrears (
		id TEXT PRIMARY KEY,
		plan_id TEXT NOT NULL,
		week INTEGER NOT NULL,
		day INTEGER NOT NULL,
		date TEXT NOT NULL,
		amount_due TEXT NOT NULL,
		paid_amount TEXT NOT NULL DEFAULT '0',
		remaining TEXT NOT NULL,
		is_paid INTEGER NOT NULL DEFAULT 0,
		paid_date TEXT,
		UNIQUE(plan_id, week, day)
	);

	CREATE INDEX IF NOT EXISTS idx_arrears_plan_week ON daily_arrears(plan_id, week);

	CREATE TABLE IF NOT EXISTS accumulated_arrears (
		plan_id TEXT PRIMARY KEY,
		last_week_number INTEGER NOT NULL,
		total_arrears TEXT NOT NULL,
		paid_amount TEXT NOT NULL DEFAULT '0',
		remaining TEXT NOT NULL,
		is_paid INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS accumulated_arrear_payments (
		id TEXT PRIMARY KEY,
		plan_id TEXT NOT NULL,
		week INTEGER NOT NULL,
		day INTEGER NOT NULL,
		amount TEXT NOT NULL,
		paid_at TEXT NOT NULL,
		recorder_id TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_arrear_payments_plan ON accumulated_arrear_payments(plan_id);
	CREATE INDEX IF NOT EXISTS idx_arrear_payments_week ON accumulated_arrear_payments(week);

	CREATE TABLE IF NOT EXISTS weekly_reconciliations (
		id TEXT PRIMARY KEY,
		week INTEGER NOT NULL UNIQUE,
		week_start TEXT NOT NULL,
		week_end TEXT NOT NULL,
		expected TEXT NOT NULL,
		actual TEXT NOT NULL,
		difference TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS vault_entries (
		id TEXT PRIMARY KEY,
		entry_type TEXT NOT NULL,
		week INTEGER NOT NULL DEFAULT 0,
		amount TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		recorder_id TEXT NOT NULL DEFAULT '',
		recorded_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_vault_week ON vault_entries(entry_type, week);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

func createPaymentHistoryTable(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS weekly_arrear_payment_history (
		id TEXT PRIMARY KEY,
		plan_id TEXT NOT NULL,
		week INTEGER NOT NULL,
		paid_at TEXT NOT NULL,
		amount TEXT NOT NULL,
		remaining_before TEXT NOT NULL,
		remaining_after TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		recorded_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_payment_history_plan ON weekly_arrear_payment_history(plan_id);
	`)
	return err
}

// addColumnIfMissing is the idempotent "add if missing" shape check: ALTER
// TABLE only when PRAGMA table_info does not already list the column.
func addColumnIfMissing(table, column, decl string) func(db *sql.DB) error {
	return func(db *sql.DB) error {
		exists, err := columnExists(db, table, column)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
		return err
	}
}

func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
