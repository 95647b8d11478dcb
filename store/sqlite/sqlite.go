/*
Package sqlite provides a SQLite-backed implementation of the snapshot
store.

PURPOSE:
  Persists fee obligations, ledger transactions, salaries and the
  three calendar-configuration tiers, and materializes the consistent
  Snapshot the pure engine computes over.

APPEND-ONLY ENFORCEMENT:
  - Transactions and general transactions are never updated or deleted
  - Fees are superseded on re-enrollment, never mutated: the old row
    gets superseded=1 and a fresh row is inserted
  - Invalid records (unknown kinds, negative amounts) are rejected at
    write time, so a stored snapshot is always aggregatable

SNAPSHOT CONSISTENCY:
  LoadSnapshot runs every read inside one read transaction. A settings
  save racing a snapshot load can order either way, but the snapshot
  never mixes the two versions.

KEY TABLES:
  fees:               One row per student/year enrollment (supersede chain)
  transactions:       Per-student append-only ledger
  general_transactions: School-level income/expense ledger
  salaries:           One row per employee, upserted
  calendar_overrides: At most one per date (PRIMARY KEY on date)
  weekday_settings:   At most one per weekday (PRIMARY KEY on weekday)
  settings:           Single row, versioned by last write

WAL MODE:
  SQLite is opened with WAL for better read concurrency: snapshot
  loads don't block record writes.

USAGE:
  st, err := sqlite.New("./data/ledger.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

  snap, err := st.LoadSnapshot(ctx)
  rep, err := report.Build(report.Input{Fees: snap.Fees, ...})

SEE ALSO:
  - store/store.go: Interface and Snapshot definitions
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/madrasa/finance-engine/finance"
	"github.com/madrasa/finance-engine/schedule"
	"github.com/madrasa/finance-engine/store"
)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	st := &Store{db: db}
	if err := st.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return st, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Fee obligations (supersede chain, never mutated)
	CREATE TABLE IF NOT EXISTS fees (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		academic_year_code TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		advance_payment TEXT NOT NULL,
		superseded INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fees_student_year
		ON fees(student_id, academic_year_code);
	CREATE INDEX IF NOT EXISTS idx_fees_active
		ON fees(superseded) WHERE superseded = 0;

	-- Per-student ledger (append-only)
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		academic_year_code TEXT NOT NULL,
		kind TEXT NOT NULL,
		amount TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_student
		ON transactions(student_id, academic_year_code);
	CREATE INDEX IF NOT EXISTS idx_transactions_kind
		ON transactions(kind);

	-- School-level ledger (append-only)
	CREATE TABLE IF NOT EXISTS general_transactions (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		amount TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL
	);

	-- Salaries (one row per employee)
	CREATE TABLE IF NOT EXISTS salaries (
		employee_id TEXT PRIMARY KEY,
		net_salary TEXT NOT NULL,
		status TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Calendar overrides: the PRIMARY KEY on date IS the
	-- at-most-one-per-date invariant
	CREATE TABLE IF NOT EXISTS calendar_overrides (
		date TEXT PRIMARY KEY,
		day_type TEXT NOT NULL,
		pay_rate REAL NOT NULL,
		bonus_fixed TEXT NOT NULL,
		custom_start TEXT,
		custom_end TEXT,
		note TEXT,
		updated_at TEXT NOT NULL
	);

	-- Weekday defaults: at most one per weekday
	CREATE TABLE IF NOT EXISTS weekday_settings (
		day_of_week INTEGER PRIMARY KEY,
		is_off INTEGER NOT NULL DEFAULT 0,
		start_time TEXT,
		end_time TEXT,
		pay_rate REAL,
		bonus_fixed TEXT,
		updated_at TEXT NOT NULL
	);

	-- Global settings: single row, last write wins
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		official_start TEXT NOT NULL,
		official_end TEXT NOT NULL,
		weekend_days TEXT NOT NULL,
		lateness_penalty_rate REAL NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// FINANCIAL RECORDS
// =============================================================================

// SaveFee records a fee obligation. Any previous fee for the same
// student and academic year is superseded, not mutated.
func (s *Store) SaveFee(ctx context.Context, fee finance.FeeRecord) error {
	if fee.TotalAmount.IsNegative() || fee.AdvancePayment.IsNegative() {
		return fmt.Errorf("fee for %s: %w", fee.StudentID, finance.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE fees SET superseded = 1
		WHERE student_id = ? AND academic_year_code = ? AND superseded = 0
	`, fee.StudentID, fee.AcademicYearCode)
	if err != nil {
		return fmt.Errorf("failed to supersede fee: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO fees (id, student_id, academic_year_code, total_amount, advance_payment, superseded, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)
	`,
		uuid.NewString(),
		fee.StudentID,
		fee.AcademicYearCode,
		fee.TotalAmount.String(),
		fee.AdvancePayment.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert fee: %w", err)
	}

	return tx.Commit()
}

// AppendTransaction adds a ledger entry. Append-only; unknown kinds
// and negative amounts are rejected here, at construction time.
func (s *Store) AppendTransaction(ctx context.Context, tx finance.TransactionRecord) error {
	if _, err := finance.ParseTransactionKind(string(tx.Kind)); err != nil {
		return err
	}
	if tx.Amount.IsNegative() {
		return fmt.Errorf("transaction for %s: %w", tx.StudentID, finance.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, student_id, academic_year_code, kind, amount, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		uuid.NewString(),
		tx.StudentID,
		tx.AcademicYearCode,
		string(tx.Kind),
		tx.Amount.String(),
		tx.Description,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

// AppendGeneralTransaction adds a school-level ledger entry.
func (s *Store) AppendGeneralTransaction(ctx context.Context, gt finance.GeneralTransactionRecord) error {
	if _, err := finance.ParseGeneralKind(string(gt.Kind)); err != nil {
		return err
	}
	if gt.Amount.IsNegative() {
		return fmt.Errorf("general transaction: %w", finance.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO general_transactions (id, kind, amount, description, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		uuid.NewString(),
		string(gt.Kind),
		gt.Amount.String(),
		gt.Description,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append general transaction: %w", err)
	}
	return nil
}

// SaveSalary upserts an employee's salary line.
func (s *Store) SaveSalary(ctx context.Context, sal finance.SalaryRecord) error {
	if _, err := finance.ParseSalaryStatus(string(sal.Status)); err != nil {
		return err
	}
	if sal.NetSalary.IsNegative() {
		return fmt.Errorf("salary for %s: %w", sal.EmployeeID, finance.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO salaries (employee_id, net_salary, status, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(employee_id) DO UPDATE SET
			net_salary = excluded.net_salary,
			status = excluded.status,
			updated_at = excluded.updated_at
	`,
		sal.EmployeeID,
		sal.NetSalary.String(),
		string(sal.Status),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save salary: %w", err)
	}
	return nil
}

// =============================================================================
// CALENDAR CONFIGURATION
// =============================================================================

// SaveOverride upserts the calendar override for a date.
func (s *Store) SaveOverride(ctx context.Context, ov schedule.CalendarOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calendar_overrides (date, day_type, pay_rate, bonus_fixed, custom_start, custom_end, note, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			day_type = excluded.day_type,
			pay_rate = excluded.pay_rate,
			bonus_fixed = excluded.bonus_fixed,
			custom_start = excluded.custom_start,
			custom_end = excluded.custom_end,
			note = excluded.note,
			updated_at = excluded.updated_at
	`,
		ov.Date.String(),
		string(ov.DayType),
		ov.PayRate,
		ov.BonusFixed.String(),
		nullTimeOfDay(ov.CustomStart),
		nullTimeOfDay(ov.CustomEnd),
		ov.Note,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save override: %w", err)
	}
	return nil
}

// SaveWeekDaySetting upserts the default for a weekday.
func (s *Store) SaveWeekDaySetting(ctx context.Context, ws schedule.WeekDaySetting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var bonus sql.NullString
	if ws.BonusFixed != nil {
		bonus = sql.NullString{String: ws.BonusFixed.String(), Valid: true}
	}
	var rate sql.NullFloat64
	if ws.PayRate != nil {
		rate = sql.NullFloat64{Float64: *ws.PayRate, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO weekday_settings (day_of_week, is_off, start_time, end_time, pay_rate, bonus_fixed, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(day_of_week) DO UPDATE SET
			is_off = excluded.is_off,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			pay_rate = excluded.pay_rate,
			bonus_fixed = excluded.bonus_fixed,
			updated_at = excluded.updated_at
	`,
		int(ws.DayOfWeek),
		boolToInt(ws.IsOff),
		nullTimeOfDay(ws.StartTime),
		nullTimeOfDay(ws.EndTime),
		rate,
		bonus,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save weekday setting: %w", err)
	}
	return nil
}

// SaveSettings writes the single global settings row. Last write wins;
// updated_at carries the version.
func (s *Store) SaveSettings(ctx context.Context, gs schedule.GlobalSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	weekend, err := json.Marshal(weekdayList(gs.WeekendDays))
	if err != nil {
		return fmt.Errorf("failed to encode weekend days: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (id, official_start, official_end, weekend_days, lateness_penalty_rate, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			official_start = excluded.official_start,
			official_end = excluded.official_end,
			weekend_days = excluded.weekend_days,
			lateness_penalty_rate = excluded.lateness_penalty_rate,
			updated_at = excluded.updated_at
	`,
		gs.OfficialStartTime.String(),
		gs.OfficialEndTime.String(),
		string(weekend),
		gs.LatenessPenaltyRate,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Settings returns the current global settings, or the defaults when
// nothing has been saved yet.
func (s *Store) Settings(ctx context.Context) (schedule.GlobalSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.querySettings(ctx, s.db)
}

// =============================================================================
// SNAPSHOT LOADING
// =============================================================================

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// LoadSnapshot materializes a consistent view of the books. All reads
// happen inside one read transaction so a concurrent write cannot
// tear the snapshot.
func (s *Store) LoadSnapshot(ctx context.Context) (*store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin snapshot read: %w", err)
	}
	defer tx.Rollback()

	snap := &store.Snapshot{
		Overrides:    make(map[schedule.Date]schedule.CalendarOverride),
		WeekSettings: make(map[time.Weekday]schedule.WeekDaySetting),
	}

	if snap.Fees, err = s.queryFees(ctx, tx); err != nil {
		return nil, err
	}
	if snap.Transactions, err = s.queryTransactions(ctx, tx); err != nil {
		return nil, err
	}
	if snap.General, err = s.queryGeneral(ctx, tx); err != nil {
		return nil, err
	}
	if snap.Salaries, err = s.querySalaries(ctx, tx); err != nil {
		return nil, err
	}
	if err = s.queryOverrides(ctx, tx, snap.Overrides); err != nil {
		return nil, err
	}
	if err = s.queryWeekSettings(ctx, tx, snap.WeekSettings); err != nil {
		return nil, err
	}
	if snap.Settings, err = s.querySettings(ctx, tx); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to finish snapshot read: %w", err)
	}
	return snap, nil
}

func (s *Store) queryFees(ctx context.Context, q querier) ([]finance.FeeRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT student_id, academic_year_code, total_amount, advance_payment
		FROM fees
		WHERE superseded = 0
		ORDER BY created_at ASC, student_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load fees: %w", err)
	}
	defer rows.Close()

	var fees []finance.FeeRecord
	for rows.Next() {
		var fee finance.FeeRecord
		var total, advance string
		if err := rows.Scan(&fee.StudentID, &fee.AcademicYearCode, &total, &advance); err != nil {
			return nil, fmt.Errorf("failed to scan fee: %w", err)
		}
		fee.TotalAmount = finance.MustParseMoney(total)
		fee.AdvancePayment = finance.MustParseMoney(advance)
		fees = append(fees, fee)
	}
	return fees, rows.Err()
}

func (s *Store) queryTransactions(ctx context.Context, q querier) ([]finance.TransactionRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT student_id, academic_year_code, kind, amount, COALESCE(description, '')
		FROM transactions
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	defer rows.Close()

	var txs []finance.TransactionRecord
	for rows.Next() {
		var tx finance.TransactionRecord
		var kind, amount string
		if err := rows.Scan(&tx.StudentID, &tx.AcademicYearCode, &kind, &amount, &tx.Description); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Kind = finance.TransactionKind(kind)
		tx.Amount = finance.MustParseMoney(amount)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (s *Store) queryGeneral(ctx context.Context, q querier) ([]finance.GeneralTransactionRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT kind, amount, COALESCE(description, '')
		FROM general_transactions
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load general transactions: %w", err)
	}
	defer rows.Close()

	var gts []finance.GeneralTransactionRecord
	for rows.Next() {
		var gt finance.GeneralTransactionRecord
		var kind, amount string
		if err := rows.Scan(&kind, &amount, &gt.Description); err != nil {
			return nil, fmt.Errorf("failed to scan general transaction: %w", err)
		}
		gt.Kind = finance.GeneralKind(kind)
		gt.Amount = finance.MustParseMoney(amount)
		gts = append(gts, gt)
	}
	return gts, rows.Err()
}

func (s *Store) querySalaries(ctx context.Context, q querier) ([]finance.SalaryRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT employee_id, net_salary, status
		FROM salaries
		ORDER BY employee_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load salaries: %w", err)
	}
	defer rows.Close()

	var sals []finance.SalaryRecord
	for rows.Next() {
		var sal finance.SalaryRecord
		var net, status string
		if err := rows.Scan(&sal.EmployeeID, &net, &status); err != nil {
			return nil, fmt.Errorf("failed to scan salary: %w", err)
		}
		sal.NetSalary = finance.MustParseMoney(net)
		sal.Status = finance.SalaryStatus(status)
		sals = append(sals, sal)
	}
	return sals, rows.Err()
}

func (s *Store) queryOverrides(ctx context.Context, q querier, out map[schedule.Date]schedule.CalendarOverride) error {
	rows, err := q.QueryContext(ctx, `
		SELECT date, day_type, pay_rate, bonus_fixed, custom_start, custom_end, COALESCE(note, '')
		FROM calendar_overrides
	`)
	if err != nil {
		return fmt.Errorf("failed to load overrides: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ov schedule.CalendarOverride
		var date, dayType, bonus string
		var start, end sql.NullString
		if err := rows.Scan(&date, &dayType, &ov.PayRate, &bonus, &start, &end, &ov.Note); err != nil {
			return fmt.Errorf("failed to scan override: %w", err)
		}
		d, err := schedule.ParseDate(date)
		if err != nil {
			return err
		}
		ov.Date = d
		ov.DayType = schedule.DayType(dayType)
		ov.BonusFixed = finance.MustParseMoney(bonus)
		if ov.CustomStart, err = scanTimeOfDay(start); err != nil {
			return err
		}
		if ov.CustomEnd, err = scanTimeOfDay(end); err != nil {
			return err
		}
		out[d] = ov
	}
	return rows.Err()
}

func (s *Store) queryWeekSettings(ctx context.Context, q querier, out map[time.Weekday]schedule.WeekDaySetting) error {
	rows, err := q.QueryContext(ctx, `
		SELECT day_of_week, is_off, start_time, end_time, pay_rate, bonus_fixed
		FROM weekday_settings
	`)
	if err != nil {
		return fmt.Errorf("failed to load weekday settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ws schedule.WeekDaySetting
		var dow, isOff int
		var start, end, bonus sql.NullString
		var rate sql.NullFloat64
		if err := rows.Scan(&dow, &isOff, &start, &end, &rate, &bonus); err != nil {
			return fmt.Errorf("failed to scan weekday setting: %w", err)
		}
		ws.DayOfWeek = time.Weekday(dow)
		ws.IsOff = isOff != 0
		if ws.StartTime, err = scanTimeOfDay(start); err != nil {
			return err
		}
		if ws.EndTime, err = scanTimeOfDay(end); err != nil {
			return err
		}
		if rate.Valid {
			r := rate.Float64
			ws.PayRate = &r
		}
		if bonus.Valid {
			b := finance.MustParseMoney(bonus.String)
			ws.BonusFixed = &b
		}
		out[ws.DayOfWeek] = ws
	}
	return rows.Err()
}

func (s *Store) querySettings(ctx context.Context, q querier) (schedule.GlobalSettings, error) {
	row := q.QueryRowContext(ctx, `
		SELECT official_start, official_end, weekend_days, lateness_penalty_rate
		FROM settings WHERE id = 1
	`)

	var start, end, weekend string
	gs := schedule.GlobalSettings{}
	err := row.Scan(&start, &end, &weekend, &gs.LatenessPenaltyRate)
	if err == sql.ErrNoRows {
		return schedule.DefaultSettings(), nil
	}
	if err != nil {
		return gs, fmt.Errorf("failed to load settings: %w", err)
	}

	if gs.OfficialStartTime, err = schedule.ParseTimeOfDay(start); err != nil {
		return gs, err
	}
	if gs.OfficialEndTime, err = schedule.ParseTimeOfDay(end); err != nil {
		return gs, err
	}

	var days []int
	if err := json.Unmarshal([]byte(weekend), &days); err != nil {
		return gs, fmt.Errorf("failed to decode weekend days: %w", err)
	}
	gs.WeekendDays = make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		gs.WeekendDays[time.Weekday(d)] = true
	}
	return gs, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullTimeOfDay(t *schedule.TimeOfDay) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.String(), Valid: true}
}

func scanTimeOfDay(ns sql.NullString) (*schedule.TimeOfDay, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := schedule.ParseTimeOfDay(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func weekdayList(m map[time.Weekday]bool) []int {
	days := make([]int, 0, len(m))
	for d := 0; d < 7; d++ {
		if m[time.Weekday(d)] {
			days = append(days, d)
		}
	}
	return days
}
