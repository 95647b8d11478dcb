/*
Package finance provides the core financial reconciliation engine.

PURPOSE:
  This package contains the types and algorithms for aggregating tuition
  ledgers into canonical financial figures: revenue, collections, pending
  dues, and per-student payment status. Everything is computed from
  immutable snapshots of plain records - there is no hidden state and no
  partial aggregation.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: An exact decimal amount (never binary floating point)
  - FeeRecord: One fee obligation per student per academic year
  - TransactionRecord: An append-only per-student ledger entry
  - GeneralTransactionRecord: A school-level income/expense entry
  - SalaryRecord: An employee salary line with payment status

DESIGN PRINCIPLES:
  1. Immutability: Records are never mutated, only superseded
  2. Precision: Uses decimal.Decimal to avoid penny drift
  3. Closed enums: Unknown kinds fail at construction, never silently
  4. Reproducibility: Same snapshot in, same figures out, every time

USAGE:
  fees := []finance.FeeRecord{{StudentID: "std-1", TotalAmount: finance.NewMoney(10000)}}
  agg, err := finance.Aggregate(fees, txs, general, salaries)

SEE ALSO:
  - aggregate.go: The ledger aggregation algorithm
  - students.go: Per-student balance and status classification
  - errors.go: Sentinel and structured error types
*/
package finance

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Exact decimal amount
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int) Money {
	return Money{Value: decimal.NewFromInt(int64(value))}
}

func ZeroMoney() Money {
	return Money{Value: decimal.Zero}
}

// ParseMoney parses a decimal amount string. A malformed string is an
// input error, never a silent zero: zeroed amounts corrupt every total
// computed downstream.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: malformed amount %q", ErrInvalidInput, s)
	}
	return Money{Value: d}, nil
}

// MustParseMoney panics on a malformed string. Only for values already
// validated at write time, such as rows scanned back from the store.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(b Money) Money           { return Money{Value: m.Value.Add(b.Value)} }
func (m Money) Sub(b Money) Money           { return Money{Value: m.Value.Sub(b.Value)} }
func (m Money) Mul(s decimal.Decimal) Money { return Money{Value: m.Value.Mul(s)} }
func (m Money) Div(s decimal.Decimal) Money { return Money{Value: m.Value.Div(s)} }
func (m Money) Neg() Money                  { return Money{Value: m.Value.Neg()} }
func (m Money) IsNegative() bool            { return m.Value.IsNegative() }
func (m Money) IsZero() bool                { return m.Value.IsZero() }
func (m Money) IsPositive() bool            { return m.Value.IsPositive() }
func (m Money) GreaterThan(b Money) bool    { return m.Value.GreaterThan(b.Value) }
func (m Money) LessThan(b Money) bool       { return m.Value.LessThan(b.Value) }
func (m Money) Equal(b Money) bool          { return m.Value.Equal(b.Value) }
func (m Money) String() string              { return m.Value.String() }

func (m Money) Min(b Money) Money {
	if m.LessThan(b) {
		return m
	}
	return b
}

func (m Money) Max(b Money) Money {
	if m.GreaterThan(b) {
		return m
	}
	return b
}

// ClampZero returns the amount floored at zero. Financial figures that are
// defined as max(0, x) use this instead of open-coded comparisons.
func (m Money) ClampZero() Money {
	if m.IsNegative() {
		return ZeroMoney()
	}
	return m
}

// MarshalJSON serializes Money as a plain decimal number string,
// not as a nested object.
func (m Money) MarshalJSON() ([]byte, error) {
	return m.Value.MarshalJSON()
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return m.Value.UnmarshalJSON(data)
}

// =============================================================================
// TRANSACTION KINDS - Closed enums, unknown values fail at construction
// =============================================================================

// TransactionKind classifies a per-student ledger entry.
// This is a CLOSED set: any other string is an input error, never a
// silently-ignored branch. That rule exists because open string matching
// is how double-counting defects sneak into financial totals.
type TransactionKind string

const (
	KindPayment  TransactionKind = "payment"
	KindDiscount TransactionKind = "discount"
	KindRefund   TransactionKind = "refund"
)

// ParseTransactionKind validates a raw kind string.
func ParseTransactionKind(s string) (TransactionKind, error) {
	switch TransactionKind(s) {
	case KindPayment, KindDiscount, KindRefund:
		return TransactionKind(s), nil
	}
	return "", &UnknownKindError{Enum: "transaction_kind", Value: s}
}

func (k TransactionKind) Valid() bool {
	switch k {
	case KindPayment, KindDiscount, KindRefund:
		return true
	}
	return false
}

// GeneralKind classifies a school-level ledger entry.
type GeneralKind string

const (
	GeneralRevenue GeneralKind = "revenue"
	GeneralExpense GeneralKind = "expense"
)

func ParseGeneralKind(s string) (GeneralKind, error) {
	switch GeneralKind(s) {
	case GeneralRevenue, GeneralExpense:
		return GeneralKind(s), nil
	}
	return "", &UnknownKindError{Enum: "general_kind", Value: s}
}

func (k GeneralKind) Valid() bool {
	return k == GeneralRevenue || k == GeneralExpense
}

// SalaryStatus is the payment state of a salary line. Only Paid lines
// count toward expenses.
type SalaryStatus string

const (
	SalaryPaid    SalaryStatus = "paid"
	SalaryPending SalaryStatus = "pending"
)

func ParseSalaryStatus(s string) (SalaryStatus, error) {
	switch SalaryStatus(s) {
	case SalaryPaid, SalaryPending:
		return SalaryStatus(s), nil
	}
	return "", &UnknownKindError{Enum: "salary_status", Value: s}
}

func (s SalaryStatus) Valid() bool {
	return s == SalaryPaid || s == SalaryPending
}

// =============================================================================
// RECORDS - Plain immutable values supplied by the data layer
// =============================================================================

// FeeRecord is one fee obligation for a student in an academic year.
// Immutable once created; re-enrollment supersedes the record rather
// than mutating it.
type FeeRecord struct {
	StudentID        string `json:"student_id"`
	AcademicYearCode string `json:"academic_year_code"`
	TotalAmount      Money  `json:"total_amount"`
	AdvancePayment   Money  `json:"advance_payment"`
}

// TransactionRecord is an append-only per-student ledger entry.
type TransactionRecord struct {
	StudentID        string          `json:"student_id"`
	AcademicYearCode string          `json:"academic_year_code"`
	Kind             TransactionKind `json:"kind"`
	Amount           Money           `json:"amount"`
	Description      string          `json:"description,omitempty"`
}

// GeneralTransactionRecord is a school-level income or expense entry.
// It lives in an independent ledger from per-student transactions.
type GeneralTransactionRecord struct {
	Kind        GeneralKind `json:"kind"`
	Amount      Money       `json:"amount"`
	Description string      `json:"description,omitempty"`
}

// SalaryRecord is an employee salary line.
type SalaryRecord struct {
	EmployeeID string       `json:"employee_id"`
	NetSalary  Money        `json:"net_salary"`
	Status     SalaryStatus `json:"status"`
}
