/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements equb.TxStore (the accounting core's persistence boundary),
  vault.Store (the cash ledger), and equb.SettingsSource (the cycle start
  date) on database/sql + mattn/go-sqlite3.

KEY TABLES:
  members, plans:                 directory (plans archived, never deleted)
  daily_collections:              payment slots; soft-cancelled, never deleted
  daily_arrears:                  per-day arrear rows; audit records
  accumulated_arrears:            one row per plan, the arrears account
  accumulated_arrear_payments:    append-only payment ledger
  weekly_arrear_payment_history:  append-only audit trail for statements
  weekly_reconciliations:         one row per week (UNIQUE on week)
  vault_entries:                  cash ledger
  settings:                       cycle start date

UNIQUENESS ENFORCEMENT:
  idx_unique_active_collection (partial, WHERE cancelled = 0) backs the
  at-most-one-active-payment rule at the storage layer; the engine checks
  inside the transaction first, the index is the backstop. Violations map
  to the typed errors in the equb package.

CONCURRENCY:
  Opened in WAL mode: readers never block, one writer at a time. All
  multi-entity writes run through WithTx so a partial write can never
  be observed.

SEE ALSO:
  - migrate.go: Forward-only schema steps
  - equb/store.go: Interface definitions
  - equb/store/memory: In-memory implementation for engine tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/hibret/equb-engine/equb"
	"github.com/hibret/equb-engine/vault"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339
)

// dbtx is the common surface of *sql.DB and *sql.Tx the queries run against.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements all storage interfaces using SQLite.
type Store struct {
	queries
	db *sql.DB
}

// queries carries every statement; the same method set serves both the bare
// connection and an open transaction.
type queries struct {
	q dbtx
}

// New opens (or creates) the database at dbPath and applies pending schema
// migrations. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, queries: queries{q: db}}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx executes fn within a database transaction. If fn returns an error
// the transaction is rolled back, otherwise committed.
func (s *Store) WithTx(ctx context.Context, fn func(equb.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&queries{q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// =============================================================================
// DIRECTORY - MEMBERS
// =============================================================================

func (s *queries) SaveMember(ctx context.Context, m equb.Member) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO members (id, name, phone, member_type, archived, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			phone = excluded.phone,
			member_type = excluded.member_type,
			archived = excluded.archived`,
		m.ID, m.Name, m.Phone, m.Type, boolInt(m.Archived), m.CreatedAt.Format(timeLayout),
	)
	return err
}

func (s *queries) GetMember(ctx context.Context, id equb.MemberID) (*equb.Member, error) {
	row := s.q.QueryRowContext(ctx,
		"SELECT id, name, phone, member_type, archived, created_at FROM members WHERE id = ?", id)

	var (
		m         equb.Member
		archived  int
		createdAt string
	)
	err := row.Scan(&m.ID, &m.Name, &m.Phone, &m.Type, &archived, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.Archived = archived != 0
	m.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return &m, nil
}

func (s *queries) ListMembers(ctx context.Context, includeArchived bool) ([]equb.Member, error) {
	query := "SELECT id, name, phone, member_type, archived, created_at FROM members"
	if !includeArchived {
		query += " WHERE archived = 0"
	}
	query += " ORDER BY name"

	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []equb.Member
	for rows.Next() {
		var (
			m         equb.Member
			archived  int
			createdAt string
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.Phone, &m.Type, &archived, &createdAt); err != nil {
			return nil, err
		}
		m.Archived = archived != 0
		m.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		members = append(members, m)
	}
	return members, rows.Err()
}

// =============================================================================
// DIRECTORY - PLANS
// =============================================================================

const planColumns = `id, member_id, sequence_no, daily_amount, start_date, end_date,
	total_amount, status, collection_days, grace_days, created_at, updated_at`

func (s *queries) SavePlan(ctx context.Context, p equb.SavingsPlan) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	days := ""
	if len(p.CollectionDays) > 0 {
		b, _ := json.Marshal(p.CollectionDays)
		days = string(b)
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO plans (id, member_id, sequence_no, daily_amount, start_date, end_date,
			total_amount, status, collection_days, grace_days, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			daily_amount = excluded.daily_amount,
			end_date = excluded.end_date,
			total_amount = excluded.total_amount,
			status = excluded.status,
			collection_days = excluded.collection_days,
			grace_days = excluded.grace_days,
			updated_at = excluded.updated_at`,
		p.ID, p.MemberID, p.SequenceNo, p.DailyAmount.String(),
		p.StartDate.Format(dateLayout), p.EndDate.Format(dateLayout),
		p.TotalAmount.String(), p.Status, days, p.GraceDays,
		p.CreatedAt.Format(timeLayout), p.UpdatedAt.Format(timeLayout),
	)
	return err
}

func (s *queries) GetPlan(ctx context.Context, id equb.PlanID) (*equb.SavingsPlan, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+planColumns+" FROM plans WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans, err := scanPlans(rows)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, nil
	}
	return &plans[0], nil
}

func (s *queries) GetActivePlans(ctx context.Context) ([]equb.SavingsPlan, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+planColumns+" FROM plans WHERE status = ? ORDER BY member_id, sequence_no",
		equb.PlanActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlans(rows)
}

func scanPlans(rows *sql.Rows) ([]equb.SavingsPlan, error) {
	var plans []equb.SavingsPlan
	for rows.Next() {
		var (
			p                    equb.SavingsPlan
			daily, total         string
			start, end           string
			days                 string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&p.ID, &p.MemberID, &p.SequenceNo, &daily, &start, &end,
			&total, &p.Status, &days, &p.GraceDays, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		p.DailyAmount = parseDec(daily)
		p.TotalAmount = parseDec(total)
		p.StartDate, _ = time.Parse(dateLayout, start)
		p.EndDate, _ = time.Parse(dateLayout, end)
		p.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		p.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
		if days != "" {
			json.Unmarshal([]byte(days), &p.CollectionDays)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// =============================================================================
// COLLECTIONS
// =============================================================================

const collectionColumns = `id, plan_id, date, week, day, amount, source, reference,
	collector_id, recorded_at, cancelled, cancel_reason`

func (s *queries) InsertCollection(ctx context.Context, c equb.DailyCollection) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO daily_collections (id, plan_id, date, week, day, amount, source,
			reference, collector_id, recorded_at, cancelled, cancel_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.PlanID, c.Date.Format(dateLayout), c.Week, c.Day, c.Amount.String(),
		c.Source, c.Reference, c.CollectorID, c.RecordedAt.Format(timeLayout),
		boolInt(c.Cancelled), c.CancelReason,
	)
	if err != nil && isUniqueViolation(err, "daily_collections") {
		return &equb.DuplicatePaymentError{PlanID: c.PlanID, Week: c.Week, Day: c.Day}
	}
	return err
}

func (s *queries) GetCollection(ctx context.Context, id equb.CollectionID) (*equb.DailyCollection, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+collectionColumns+" FROM daily_collections WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cs, err := scanCollections(rows)
	if err != nil {
		return nil, err
	}
	if len(cs) == 0 {
		return nil, nil
	}
	return &cs[0], nil
}

func (s *queries) ActiveCollection(ctx context.Context, planID equb.PlanID, week, day int) (*equb.DailyCollection, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+collectionColumns+` FROM daily_collections
		 WHERE plan_id = ? AND week = ? AND day = ? AND cancelled = 0
		 LIMIT 1`,
		planID, week, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cs, err := scanCollections(rows)
	if err != nil {
		return nil, err
	}
	if len(cs) == 0 || !cs[0].Active() {
		return nil, nil
	}
	return &cs[0], nil
}

func (s *queries) UpdateCollection(ctx context.Context, c equb.DailyCollection) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE daily_collections SET cancelled = ?, cancel_reason = ? WHERE id = ?`,
		boolInt(c.Cancelled), c.CancelReason, c.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return equb.ErrCollectionNotFound
	}
	return nil
}

func (s *queries) ListCollections(ctx context.Context, planID equb.PlanID) ([]equb.DailyCollection, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+collectionColumns+" FROM daily_collections WHERE plan_id = ? ORDER BY week, day, recorded_at",
		planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCollections(rows)
}

func (s *queries) SumCollections(ctx context.Context, week int) (decimal.Decimal, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT amount FROM daily_collections WHERE week = ? AND cancelled = 0", week)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()
	return sumAmounts(rows)
}

func scanCollections(rows *sql.Rows) ([]equb.DailyCollection, error) {
	var out []equb.DailyCollection
	for rows.Next() {
		var (
			c          equb.DailyCollection
			date       string
			amount     string
			recordedAt string
			cancelled  int
		)
		if err := rows.Scan(&c.ID, &c.PlanID, &date, &c.Week, &c.Day, &amount, &c.Source,
			&c.Reference, &c.CollectorID, &recordedAt, &cancelled, &c.CancelReason); err != nil {
			return nil, err
		}
		c.Date, _ = time.Parse(dateLayout, date)
		c.Amount = parseDec(amount)
		c.RecordedAt, _ = time.Parse(timeLayout, recordedAt)
		c.Cancelled = cancelled != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

// =============================================================================
// DAILY ARREARS
// =============================================================================

const arrearColumns = `id, plan_id, week, day, date, amount_due, paid_amount,
	remaining, is_paid, paid_date`

func (s *queries) UpsertDailyArrear(ctx context.Context, a equb.DailyArrear) error {
	// Existing rows win: re-closing a week never resets partial payments.
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO daily_arrears (id, plan_id, week, day, date, amount_due,
			paid_amount, remaining, is_paid, paid_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(plan_id, week, day) DO NOTHING`,
		a.ID, a.PlanID, a.Week, a.Day, a.Date.Format(dateLayout),
		a.AmountDue.String(), a.PaidAmount.String(), a.Remaining.String(),
		boolInt(a.IsPaid), nullTime(a.PaidDate),
	)
	return err
}

func (s *queries) GetDailyArrear(ctx context.Context, planID equb.PlanID, week, day int) (*equb.DailyArrear, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+arrearColumns+" FROM daily_arrears WHERE plan_id = ? AND week = ? AND day = ?",
		planID, week, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	as, err := scanArrears(rows)
	if err != nil {
		return nil, err
	}
	if len(as) == 0 {
		return nil, nil
	}
	return &as[0], nil
}

func (s *queries) UpdateDailyArrear(ctx context.Context, a equb.DailyArrear) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE daily_arrears SET paid_amount = ?, remaining = ?, is_paid = ?, paid_date = ?
		WHERE plan_id = ? AND week = ? AND day = ?`,
		a.PaidAmount.String(), a.Remaining.String(), boolInt(a.IsPaid), nullTime(a.PaidDate),
		a.PlanID, a.Week, a.Day,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return equb.ErrArrearNotFound
	}
	return nil
}

func (s *queries) ListDailyArrears(ctx context.Context, planID equb.PlanID, week int) ([]equb.DailyArrear, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+arrearColumns+" FROM daily_arrears WHERE plan_id = ? AND week = ? ORDER BY day",
		planID, week)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArrears(rows)
}

func scanArrears(rows *sql.Rows) ([]equb.DailyArrear, error) {
	var out []equb.DailyArrear
	for rows.Next() {
		var (
			a              equb.DailyArrear
			date           string
			due, paid, rem string
			isPaid         int
			paidDate       sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.PlanID, &a.Week, &a.Day, &date, &due, &paid,
			&rem, &isPaid, &paidDate); err != nil {
			return nil, err
		}
		a.Date, _ = time.Parse(dateLayout, date)
		a.AmountDue = parseDec(due)
		a.PaidAmount = parseDec(paid)
		a.Remaining = parseDec(rem)
		a.IsPaid = isPaid != 0
		if paidDate.Valid {
			t, _ := time.Parse(timeLayout, paidDate.String)
			a.PaidDate = &t
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// =============================================================================
// ACCUMULATED ARREARS
// =============================================================================

const accumulatedColumns = `plan_id, last_week_number, total_arrears, paid_amount,
	remaining, is_paid, created_at, updated_at`

func (s *queries) GetAccumulated(ctx context.Context, planID equb.PlanID) (*equb.AccumulatedArrears, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+accumulatedColumns+" FROM accumulated_arrears WHERE plan_id = ?", planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	as, err := scanAccumulated(rows)
	if err != nil {
		return nil, err
	}
	if len(as) == 0 {
		return nil, nil
	}
	return &as[0], nil
}

func (s *queries) SaveAccumulated(ctx context.Context, a equb.AccumulatedArrears) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO accumulated_arrears (plan_id, last_week_number, total_arrears,
			paid_amount, remaining, is_paid, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(plan_id) DO UPDATE SET
			last_week_number = excluded.last_week_number,
			total_arrears = excluded.total_arrears,
			paid_amount = excluded.paid_amount,
			remaining = excluded.remaining,
			is_paid = excluded.is_paid,
			updated_at = excluded.updated_at`,
		a.PlanID, a.LastWeekNumber, a.TotalArrears.String(), a.PaidAmount.String(),
		a.Remaining.String(), boolInt(a.IsPaid),
		a.CreatedAt.Format(timeLayout), a.UpdatedAt.Format(timeLayout),
	)
	return err
}

func (s *queries) ListAccumulated(ctx context.Context) ([]equb.AccumulatedArrears, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+accumulatedColumns+" FROM accumulated_arrears ORDER BY plan_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAccumulated(rows)
}

func scanAccumulated(rows *sql.Rows) ([]equb.AccumulatedArrears, error) {
	var out []equb.AccumulatedArrears
	for rows.Next() {
		var (
			a                    equb.AccumulatedArrears
			total, paid, rem     string
			isPaid               int
			createdAt, updatedAt string
		)
		if err := rows.Scan(&a.PlanID, &a.LastWeekNumber, &total, &paid, &rem,
			&isPaid, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		a.TotalArrears = parseDec(total)
		a.PaidAmount = parseDec(paid)
		a.Remaining = parseDec(rem)
		a.IsPaid = isPaid != 0
		a.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		a.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

// =============================================================================
// ARREAR PAYMENT LEDGERS
// =============================================================================

func (s *queries) InsertArrearPayment(ctx context.Context, p equb.AccumulatedArrearPayment) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO accumulated_arrear_payments (id, plan_id, week, day, amount,
			paid_at, recorder_id, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.PlanID, p.Week, p.Day, p.Amount.String(),
		p.PaidAt.Format(timeLayout), p.RecorderID, p.Notes,
	)
	return err
}

func (s *queries) ListArrearPayments(ctx context.Context, planID equb.PlanID) ([]equb.AccumulatedArrearPayment, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, plan_id, week, day, amount, paid_at, recorder_id, notes
		FROM accumulated_arrear_payments WHERE plan_id = ? ORDER BY paid_at`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []equb.AccumulatedArrearPayment
	for rows.Next() {
		var (
			p      equb.AccumulatedArrearPayment
			amount string
			paidAt string
		)
		if err := rows.Scan(&p.ID, &p.PlanID, &p.Week, &p.Day, &amount, &paidAt,
			&p.RecorderID, &p.Notes); err != nil {
			return nil, err
		}
		p.Amount = parseDec(amount)
		p.PaidAt, _ = time.Parse(timeLayout, paidAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *queries) SumArrearPayments(ctx context.Context, week int) (decimal.Decimal, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT amount FROM accumulated_arrear_payments WHERE week = ?", week)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()
	return sumAmounts(rows)
}

func (s *queries) InsertPaymentHistory(ctx context.Context, h equb.WeeklyArrearPaymentHistory) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO weekly_arrear_payment_history (id, plan_id, week, paid_at, amount,
			remaining_before, remaining_after, notes, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.PlanID, h.Week, h.PaidAt.Format(timeLayout), h.Amount.String(),
		h.RemainingBefore.String(), h.RemainingAfter.String(), h.Notes,
		h.RecordedAt.Format(timeLayout),
	)
	return err
}

func (s *queries) ListPaymentHistory(ctx context.Context, planID equb.PlanID) ([]equb.WeeklyArrearPaymentHistory, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, plan_id, week, paid_at, amount, remaining_before, remaining_after, notes, recorded_at
		FROM weekly_arrear_payment_history WHERE plan_id = ? ORDER BY recorded_at`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []equb.WeeklyArrearPaymentHistory
	for rows.Next() {
		var (
			h                     equb.WeeklyArrearPaymentHistory
			paidAt, recordedAt    string
			amount, before, after string
		)
		if err := rows.Scan(&h.ID, &h.PlanID, &h.Week, &paidAt, &amount, &before,
			&after, &h.Notes, &recordedAt); err != nil {
			return nil, err
		}
		h.PaidAt, _ = time.Parse(timeLayout, paidAt)
		h.Amount = parseDec(amount)
		h.RemainingBefore = parseDec(before)
		h.RemainingAfter = parseDec(after)
		h.RecordedAt, _ = time.Parse(timeLayout, recordedAt)
		out = append(out, h)
	}
	return out, rows.Err()
}

// =============================================================================
// RECONCILIATION
// =============================================================================

const reconciliationColumns = `id, week, week_start, week_end, expected, actual,
	difference, notes, status, performer_id, created_at, updated_at`

func (s *queries) InsertReconciliation(ctx context.Context, r equb.WeeklyReconciliation) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO weekly_reconciliations (id, week, week_start, week_end, expected,
			actual, difference, notes, status, performer_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Week, r.WeekStart.Format(dateLayout), r.WeekEnd.Format(dateLayout),
		r.Expected.String(), r.Actual.String(), r.Difference.String(),
		r.Notes, r.Status, r.PerformerID,
		r.CreatedAt.Format(timeLayout), r.UpdatedAt.Format(timeLayout),
	)
	if err != nil && isUniqueViolation(err, "weekly_reconciliations") {
		return &equb.AlreadyReconciledError{Week: r.Week}
	}
	return err
}

func (s *queries) GetReconciliation(ctx context.Context, week int) (*equb.WeeklyReconciliation, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+reconciliationColumns+" FROM weekly_reconciliations WHERE week = ?", week)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rs, err := scanReconciliations(rows)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, nil
	}
	return &rs[0], nil
}

func (s *queries) UpdateReconciliation(ctx context.Context, r equb.WeeklyReconciliation) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE weekly_reconciliations SET status = ?, notes = ?, updated_at = ? WHERE week = ?`,
		r.Status, r.Notes, r.UpdatedAt.Format(timeLayout), r.Week,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return equb.ErrReconciliationNotFound
	}
	return nil
}

func (s *queries) ListReconciliations(ctx context.Context) ([]equb.WeeklyReconciliation, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+reconciliationColumns+" FROM weekly_reconciliations ORDER BY week")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReconciliations(rows)
}

func scanReconciliations(rows *sql.Rows) ([]equb.WeeklyReconciliation, error) {
	var out []equb.WeeklyReconciliation
	for rows.Next() {
		var (
			r                      equb.WeeklyReconciliation
			start, end             string
			expected, actual, diff string
			createdAt, updatedAt   string
		)
		if err := rows.Scan(&r.ID, &r.Week, &start, &end, &expected, &actual, &diff,
			&r.Notes, &r.Status, &r.PerformerID, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		r.WeekStart, _ = time.Parse(dateLayout, start)
		r.WeekEnd, _ = time.Parse(dateLayout, end)
		r.Expected = parseDec(expected)
		r.Actual = parseDec(actual)
		r.Difference = parseDec(diff)
		r.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		r.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// VAULT
// =============================================================================

func (s *queries) InsertVaultEntry(ctx context.Context, e vault.Entry) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO vault_entries (id, entry_type, week, amount, notes, recorder_id, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Type, e.Week, e.Amount.String(), e.Notes, e.RecorderID,
		e.RecordedAt.Format(timeLayout),
	)
	return err
}

func (s *queries) ListVaultEntries(ctx context.Context) ([]vault.Entry, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, entry_type, week, amount, notes, recorder_id, recorded_at
		FROM vault_entries ORDER BY recorded_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []vault.Entry
	for rows.Next() {
		var (
			e          vault.Entry
			amount     string
			recordedAt string
		)
		if err := rows.Scan(&e.ID, &e.Type, &e.Week, &amount, &e.Notes,
			&e.RecorderID, &recordedAt); err != nil {
			return nil, err
		}
		e.Amount = parseDec(amount)
		e.RecordedAt, _ = time.Parse(timeLayout, recordedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *queries) WeeklyDepositTotal(ctx context.Context, week int) (decimal.Decimal, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT amount FROM vault_entries WHERE entry_type = ? AND week = ?",
		vault.Deposit, week)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()
	return sumAmounts(rows)
}

func (s *queries) VaultBalance(ctx context.Context) (decimal.Decimal, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT entry_type, amount FROM vault_entries")
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var typ, amount string
		if err := rows.Scan(&typ, &amount); err != nil {
			return decimal.Zero, err
		}
		if vault.EntryType(typ) == vault.Deposit {
			total = total.Add(parseDec(amount))
		} else {
			total = total.Sub(parseDec(amount))
		}
	}
	return total, rows.Err()
}

// =============================================================================
// SETTINGS
// =============================================================================

const cycleStartKey = "cycle_start_date"

func (s *queries) GetCycleStartDate(ctx context.Context) (*time.Time, error) {
	var value string
	err := s.q.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?", cycleStartKey).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("malformed cycle start date %q: %w", value, err)
	}
	return &t, nil
}

func (s *queries) SetCycleStartDate(ctx context.Context, t time.Time) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		cycleStartKey, t.Format(dateLayout),
	)
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func sumAmounts(rows *sql.Rows) (decimal.Decimal, error) {
	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(parseDec(amount))
	}
	return total, rows.Err()
}

func parseDec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(timeLayout), Valid: true}
}

func isUniqueViolation(err error, table string) bool {
	return err != nil &&
		strings.Contains(err.Error(), "UNIQUE constraint failed") &&
		strings.Contains(err.Error(), table)
}
