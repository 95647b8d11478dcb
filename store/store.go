/*
Package store defines the persistence interface the reconciliation
engine's callers use to materialize snapshots.

PURPOSE:
  The engine itself (finance, refund, schedule, report) is pure and
  knows nothing about storage. This package is the seam between the
  two worlds: implementations persist plain records and produce a
  Snapshot - one consistent, fully-materialized view of the books -
  which is then handed to the pure functions.

SNAPSHOT CONTRACT:
  LoadSnapshot must read everything inside ONE read transaction so a
  concurrently-saved settings row or fee cannot tear the view. The
  engine then computes over the snapshot without ever re-reading
  configuration mid-batch (read-snapshot-then-compute).

IMPLEMENTATIONS:
  - store/sqlite: SQLite-backed, for the server
  - store/memory: In-memory, for tests and seeding demos
*/
package store

import (
	"context"
	"time"

	"github.com/madrasa/finance-engine/finance"
	"github.com/madrasa/finance-engine/schedule"
)

// Snapshot is one consistent view of every record set the engine
// consumes. It is immutable by convention: loaders build it, the
// engine only reads it.
type Snapshot struct {
	Fees         []finance.FeeRecord
	Transactions []finance.TransactionRecord
	General      []finance.GeneralTransactionRecord
	Salaries     []finance.SalaryRecord

	Overrides    map[schedule.Date]schedule.CalendarOverride
	WeekSettings map[time.Weekday]schedule.WeekDaySetting
	Settings     schedule.GlobalSettings
}

// Store persists records and materializes snapshots.
//
// Fee and transaction ledgers are append-only: SaveFee supersedes any
// prior fee for the same student and academic year rather than
// mutating it, and transactions are never updated or deleted.
// Implementations reject invalid records (unknown kinds, negative
// amounts) at write time so a stored snapshot is always aggregatable.
type Store interface {
	SaveFee(ctx context.Context, fee finance.FeeRecord) error
	AppendTransaction(ctx context.Context, tx finance.TransactionRecord) error
	AppendGeneralTransaction(ctx context.Context, gt finance.GeneralTransactionRecord) error
	SaveSalary(ctx context.Context, sal finance.SalaryRecord) error

	// Calendar configuration. Overrides upsert by date, week settings
	// by weekday - the at-most-one-per-key invariants live here.
	SaveOverride(ctx context.Context, ov schedule.CalendarOverride) error
	SaveWeekDaySetting(ctx context.Context, ws schedule.WeekDaySetting) error

	// Settings are versioned by last write. Settings() returns the
	// current snapshot value.
	SaveSettings(ctx context.Context, gs schedule.GlobalSettings) error
	Settings(ctx context.Context) (schedule.GlobalSettings, error)

	// LoadSnapshot materializes everything in one consistent read.
	LoadSnapshot(ctx context.Context) (*Snapshot, error)

	Close() error
}
