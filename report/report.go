/*
Package report composes the engine outputs into one reconciliation
result.

PURPOSE:
  The composition layer. Takes a snapshot of raw record sets plus any
  pending withdrawal computations, runs the ledger aggregation, the
  per-student classification and the refund waterfall, and returns a
  single immutable Report for the caller (UI, export, audit log) to
  consume.

ALL-OR-NOTHING:
  If any record in the snapshot is invalid, Build returns one
  structured error identifying the first offending record. Partial,
  best-effort reports are disallowed: a financial total you can only
  partly trust is not a total.
*/
package report

import (
	"fmt"

	"github.com/madrasa/finance-engine/finance"
	"github.com/madrasa/finance-engine/refund"
)

// =============================================================================
// INPUT / OUTPUT
// =============================================================================

// Input is the full snapshot a report is built from. The data layer
// materializes it in a single consistent read before calling Build.
type Input struct {
	Fees         []finance.FeeRecord
	Transactions []finance.TransactionRecord
	General      []finance.GeneralTransactionRecord
	Salaries     []finance.SalaryRecord
	Withdrawals  []refund.Input
}

// StatusCounts is the number of students in each payment band.
type StatusCounts struct {
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	Overdue    int `json:"overdue"`
	NotPaid    int `json:"not_paid"`
}

// Report is the immutable reconciliation result.
type Report struct {
	Aggregates   finance.FinancialAggregates `json:"aggregates"`
	Students     []finance.StudentLedger     `json:"students"`
	StatusCounts StatusCounts                `json:"status_counts"`
	Refunds      []refund.Result             `json:"refunds,omitempty"`

	// Sum of FinalRefund across all withdrawals in the snapshot.
	RefundsDue finance.Money `json:"refunds_due"`
}

// =============================================================================
// COMPOSITION
// =============================================================================

// Build computes the reconciliation report for a snapshot.
//
// Pure: identical inputs produce an identical report. On invalid
// input the aggregation error is surfaced as-is - it already names
// the first bad record and which collection it sits in.
func Build(in Input) (Report, error) {
	agg, err := finance.Aggregate(in.Fees, in.Transactions, in.General, in.Salaries)
	if err != nil {
		return Report{}, fmt.Errorf("reconciliation rejected: %w", err)
	}

	students, err := finance.StudentLedgers(in.Fees, in.Transactions)
	if err != nil {
		return Report{}, fmt.Errorf("reconciliation rejected: %w", err)
	}

	rep := Report{
		Aggregates: agg,
		Students:   students,
		RefundsDue: finance.ZeroMoney(),
	}

	for _, s := range students {
		switch s.Status {
		case finance.StatusCompleted:
			rep.StatusCounts.Completed++
		case finance.StatusInProgress:
			rep.StatusCounts.InProgress++
		case finance.StatusOverdue:
			rep.StatusCounts.Overdue++
		case finance.StatusNotPaid:
			rep.StatusCounts.NotPaid++
		}
	}

	for _, w := range in.Withdrawals {
		res := refund.Compute(w)
		rep.Refunds = append(rep.Refunds, res)
		rep.RefundsDue = rep.RefundsDue.Add(res.FinalRefund)
	}

	return rep, nil
}
