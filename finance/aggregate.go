/*
aggregate.go - Ledger aggregation into canonical financial figures

PURPOSE:
  Sums fee obligations, per-student transactions, school-level
  transactions and salary lines into one FinancialAggregates value.
  This is the central calculation that answers "where does the money
  stand?" for a snapshot of the books.

KEY INSIGHT:
  Every figure is defined as an exact decimal sum with an explicit
  formula. There is no second code path that computes a figure a
  different way - the historical source of the double-counting bugs
  this engine replaces.

FIGURES:
  TotalRevenue      = general revenue + student payments + advances
  TotalExpenses     = general expenses + paid salaries
  NetBalance        = TotalRevenue - TotalExpenses
  StudentCollection = payments + advances
  CollectionRate    = StudentCollection / TotalFees * 100 (guarded)
  PendingPayments   = max(0, TotalFees - payments - advances - discounts)
  OutstandingSimple = TotalFees - StudentCollection (unclamped)

TWO "PENDING" FIGURES:
  PendingPayments subtracts discounts and clamps at zero;
  OutstandingSimple is the naive fees-minus-collected figure and may go
  negative on overpayment. Both are carried as separately named outputs
  so callers pick the one they mean instead of inheriting an ambiguous
  default.

FAILURE:
  All-or-nothing. The first invalid record (unknown kind, negative
  amount) rejects the whole batch via InvalidRecordError.

SEE ALSO:
  - students.go: Per-student balances, computed independently
  - types.go: Record and Money definitions
*/
package finance

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FINANCIAL AGGREGATES - The canonical figures for one snapshot
// =============================================================================

// FinancialAggregates is the immutable result of one aggregation run.
type FinancialAggregates struct {
	// Raw sums
	TotalFees      Money `json:"total_fees"`
	TotalAdvance   Money `json:"total_advance"`
	Payments       Money `json:"payments"`
	Discounts      Money `json:"discounts"`
	RefundsIssued  Money `json:"refunds_issued"`
	GeneralRevenue Money `json:"general_revenue"`
	GeneralExpense Money `json:"general_expense"`
	SalariesPaid   Money `json:"salaries_paid"`

	// Derived figures
	TotalRevenue      Money   `json:"total_revenue"`
	TotalExpenses     Money   `json:"total_expenses"`
	NetBalance        Money   `json:"net_balance"`
	StudentCollection Money   `json:"student_collection"`
	CollectionRate    float64 `json:"collection_rate"`

	// Both "pending" definitions, side by side (see package comment).
	PendingPayments   Money `json:"pending_payments"`
	OutstandingSimple Money `json:"outstanding_simple"`
}

// =============================================================================
// AGGREGATION - Pure function over materialized record sets
// =============================================================================

// Aggregate computes the canonical financial figures for a snapshot.
//
// Inputs are already-materialized collections; the data layer is
// responsible for filtering by tenant and academic year before calling.
// Calling twice on identical inputs yields identical output.
func Aggregate(fees []FeeRecord, transactions []TransactionRecord, general []GeneralTransactionRecord, salaries []SalaryRecord) (FinancialAggregates, error) {
	var agg FinancialAggregates

	totalFees := ZeroMoney()
	totalAdvance := ZeroMoney()
	for i, fee := range fees {
		if fee.TotalAmount.IsNegative() || fee.AdvancePayment.IsNegative() {
			return agg, &InvalidRecordError{RecordSet: "fees", Index: i, Reason: "negative amount"}
		}
		totalFees = totalFees.Add(fee.TotalAmount)
		totalAdvance = totalAdvance.Add(fee.AdvancePayment)
	}

	payments := ZeroMoney()
	discounts := ZeroMoney()
	refundsIssued := ZeroMoney()
	for i, tx := range transactions {
		if !tx.Kind.Valid() {
			return agg, &InvalidRecordError{RecordSet: "transactions", Index: i, Reason: fmt.Sprintf("unknown kind %q", tx.Kind)}
		}
		if tx.Amount.IsNegative() {
			return agg, &InvalidRecordError{RecordSet: "transactions", Index: i, Reason: "negative amount"}
		}
		switch tx.Kind {
		case KindPayment:
			payments = payments.Add(tx.Amount)
		case KindDiscount:
			discounts = discounts.Add(tx.Amount)
		case KindRefund:
			refundsIssued = refundsIssued.Add(tx.Amount)
		}
	}

	genRevenue := ZeroMoney()
	genExpense := ZeroMoney()
	for i, gt := range general {
		if !gt.Kind.Valid() {
			return agg, &InvalidRecordError{RecordSet: "general", Index: i, Reason: fmt.Sprintf("unknown kind %q", gt.Kind)}
		}
		if gt.Amount.IsNegative() {
			return agg, &InvalidRecordError{RecordSet: "general", Index: i, Reason: "negative amount"}
		}
		switch gt.Kind {
		case GeneralRevenue:
			genRevenue = genRevenue.Add(gt.Amount)
		case GeneralExpense:
			genExpense = genExpense.Add(gt.Amount)
		}
	}

	salariesPaid := ZeroMoney()
	for i, sal := range salaries {
		if !sal.Status.Valid() {
			return agg, &InvalidRecordError{RecordSet: "salaries", Index: i, Reason: fmt.Sprintf("unknown status %q", sal.Status)}
		}
		if sal.NetSalary.IsNegative() {
			return agg, &InvalidRecordError{RecordSet: "salaries", Index: i, Reason: "negative amount"}
		}
		if sal.Status == SalaryPaid {
			salariesPaid = salariesPaid.Add(sal.NetSalary)
		}
	}

	agg.TotalFees = totalFees
	agg.TotalAdvance = totalAdvance
	agg.Payments = payments
	agg.Discounts = discounts
	agg.RefundsIssued = refundsIssued
	agg.GeneralRevenue = genRevenue
	agg.GeneralExpense = genExpense
	agg.SalariesPaid = salariesPaid

	agg.TotalRevenue = genRevenue.Add(payments).Add(totalAdvance)
	agg.TotalExpenses = genExpense.Add(salariesPaid)
	agg.NetBalance = agg.TotalRevenue.Sub(agg.TotalExpenses)
	agg.StudentCollection = payments.Add(totalAdvance)

	// Guarded division: a snapshot with no fee obligations has a
	// collection rate of exactly zero, not an error.
	if totalFees.IsPositive() {
		rate := agg.StudentCollection.Value.Div(totalFees.Value).Mul(decimal.NewFromInt(100))
		agg.CollectionRate, _ = rate.Float64()
	}

	agg.PendingPayments = totalFees.Sub(payments).Sub(totalAdvance).Sub(discounts).ClampZero()
	agg.OutstandingSimple = totalFees.Sub(agg.StudentCollection)

	return agg, nil
}
