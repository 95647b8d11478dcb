/*
students.go - Per-student balances and payment status classification

PURPOSE:
  Computes, independently of the batch aggregates, what each student
  has paid against their fee record and classifies them into a payment
  status band. "Independently" matters: this calculation deliberately
  ignores advances and discounts, matching how collection progress is
  tracked operationally (what has the student actually handed over
  against the headline fee).

STATUS BANDS (checked in order, first match wins):
  Completed   progress >= 1
  InProgress  0.5 <= progress < 1
  Overdue     0 < progress < 0.5
  NotPaid     progress == 0
*/
package finance

import "sort"

// =============================================================================
// PAYMENT STATUS
// =============================================================================

type PaymentStatus string

const (
	StatusCompleted  PaymentStatus = "completed"
	StatusInProgress PaymentStatus = "in_progress"
	StatusOverdue    PaymentStatus = "overdue"
	StatusNotPaid    PaymentStatus = "not_paid"
)

// ClassifyProgress maps a payment progress ratio to a status band.
// Order matters: bands are checked top-down and the first match wins.
func ClassifyProgress(progress float64) PaymentStatus {
	switch {
	case progress >= 1:
		return StatusCompleted
	case progress >= 0.5:
		return StatusInProgress
	case progress > 0:
		return StatusOverdue
	default:
		return StatusNotPaid
	}
}

// =============================================================================
// STUDENT LEDGER - One line per fee record
// =============================================================================

// StudentLedger is the computed position of one student in one
// academic year.
type StudentLedger struct {
	StudentID        string        `json:"student_id"`
	AcademicYearCode string        `json:"academic_year_code"`
	TotalAmount      Money         `json:"total_amount"`
	Paid             Money         `json:"paid"`
	Remaining        Money         `json:"remaining"`
	Progress         float64       `json:"progress"`
	Status           PaymentStatus `json:"status"`
}

// StudentLedgers computes one ledger line per fee record.
//
// paid(student) sums ONLY payment transactions for that student and
// year; remaining = totalAmount - paid, and may go negative on
// overpayment (the caller decides whether to surface that). A fee of
// zero yields progress zero, not a division error.
func StudentLedgers(fees []FeeRecord, transactions []TransactionRecord) ([]StudentLedger, error) {
	type key struct {
		StudentID string
		YearCode  string
	}

	paid := make(map[key]Money)
	for i, tx := range transactions {
		if !tx.Kind.Valid() {
			return nil, &InvalidRecordError{RecordSet: "transactions", Index: i, Reason: "unknown kind"}
		}
		if tx.Amount.IsNegative() {
			return nil, &InvalidRecordError{RecordSet: "transactions", Index: i, Reason: "negative amount"}
		}
		if tx.Kind != KindPayment {
			continue
		}
		k := key{StudentID: tx.StudentID, YearCode: tx.AcademicYearCode}
		paid[k] = paid[k].Add(tx.Amount)
	}

	ledgers := make([]StudentLedger, 0, len(fees))
	for i, fee := range fees {
		if fee.TotalAmount.IsNegative() {
			return nil, &InvalidRecordError{RecordSet: "fees", Index: i, Reason: "negative amount"}
		}
		p := paid[key{StudentID: fee.StudentID, YearCode: fee.AcademicYearCode}]

		progress := 0.0
		if fee.TotalAmount.IsPositive() {
			progress, _ = p.Value.Div(fee.TotalAmount.Value).Float64()
		}

		ledgers = append(ledgers, StudentLedger{
			StudentID:        fee.StudentID,
			AcademicYearCode: fee.AcademicYearCode,
			TotalAmount:      fee.TotalAmount,
			Paid:             p,
			Remaining:        fee.TotalAmount.Sub(p),
			Progress:         progress,
			Status:           ClassifyProgress(progress),
		})
	}

	// Deterministic output order regardless of input order.
	sort.Slice(ledgers, func(i, j int) bool {
		if ledgers[i].StudentID != ledgers[j].StudentID {
			return ledgers[i].StudentID < ledgers[j].StudentID
		}
		return ledgers[i].AcademicYearCode < ledgers[j].AcademicYearCode
	})

	return ledgers, nil
}
