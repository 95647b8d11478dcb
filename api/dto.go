/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract. Most engine
  outputs (FinancialAggregates, RefundResult, ResolvedDayConfig) are
  plain value records and serialize directly; DTOs here exist only where
  the wire shape differs from the domain shape (string dates, string
  money, raw enum strings that must be validated on the way in).

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *Response: Response wrappers

VALIDATION:
  Enum validation is done in handlers via the closed-enum parsers;
  money strings are validated by the record() conversions, which reject
  malformed amounts instead of coercing them.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/settings.go: ConfigJSON, reused for settings ingestion
*/
package api

import (
	"fmt"

	"github.com/madrasa/finance-engine/finance"
	"github.com/madrasa/finance-engine/schedule"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// FeeRequest records a fee obligation for a student.
type FeeRequest struct {
	StudentID        string `json:"student_id"`
	AcademicYearCode string `json:"academic_year_code"`
	TotalAmount      string `json:"total_amount"`
	AdvancePayment   string `json:"advance_payment"`
}

// TransactionRequest appends a per-student ledger entry.
type TransactionRequest struct {
	StudentID        string `json:"student_id"`
	AcademicYearCode string `json:"academic_year_code"`
	Kind             string `json:"kind"`
	Amount           string `json:"amount"`
	Description      string `json:"description,omitempty"`
}

// GeneralTransactionRequest appends a school-level ledger entry.
type GeneralTransactionRequest struct {
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

// SalaryRequest records an employee salary line.
type SalaryRequest struct {
	EmployeeID string `json:"employee_id"`
	NetSalary  string `json:"net_salary"`
	Status     string `json:"status"`
}

// RefundPreviewRequest carries a withdrawal computation. Dates are
// optional; when both are present, months_studied is derived from them.
type RefundPreviewRequest struct {
	TotalPaid              string  `json:"total_paid"`
	TotalStudyExpenses     string  `json:"total_study_expenses,omitempty"`
	MonthsStudied          int     `json:"months_studied,omitempty"`
	TotalMonthsInYear      int     `json:"total_months_in_year,omitempty"`
	MonthlyTuitionFee      string  `json:"monthly_tuition_fee,omitempty"`
	AdminFeePercentage     float64 `json:"admin_fee_percentage,omitempty"`
	AdminFeeFixed          *string `json:"admin_fee_fixed,omitempty"`
	RegistrationFeeAmount  string  `json:"registration_fee_amount,omitempty"`
	OtherNonRefundableFees string  `json:"other_non_refundable_fees,omitempty"`
	EnrollmentDate         string  `json:"enrollment_date,omitempty"`
	WithdrawalDate         string  `json:"withdrawal_date,omitempty"`
}

// PenaltyResponse reports a lateness deduction together with the rate
// snapshot it was computed under.
type PenaltyResponse struct {
	Date        string                      `json:"date,omitempty"`
	LateMinutes uint32                      `json:"late_minutes"`
	Rate        float64                     `json:"rate"`
	Deduction   float64                     `json:"deduction"`
	DayConfig   *schedule.ResolvedDayConfig `json:"day_config,omitempty"`
}

// SettingsResponse wraps the current settings value.
type SettingsResponse struct {
	Settings schedule.GlobalSettings `json:"settings"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

// moneyField parses a money string, reporting the field name on error.
// An absent optional field parses as zero; a present but malformed value
// is rejected, never coerced.
func moneyField(name, s string) (finance.Money, error) {
	if s == "" {
		return finance.ZeroMoney(), nil
	}
	m, err := finance.ParseMoney(s)
	if err != nil {
		return finance.Money{}, fmt.Errorf("%s: %w", name, err)
	}
	return m, nil
}

func (r FeeRequest) record() (finance.FeeRecord, error) {
	total, err := moneyField("total_amount", r.TotalAmount)
	if err != nil {
		return finance.FeeRecord{}, err
	}
	advance, err := moneyField("advance_payment", r.AdvancePayment)
	if err != nil {
		return finance.FeeRecord{}, err
	}
	return finance.FeeRecord{
		StudentID:        r.StudentID,
		AcademicYearCode: r.AcademicYearCode,
		TotalAmount:      total,
		AdvancePayment:   advance,
	}, nil
}

func (r TransactionRequest) record() (finance.TransactionRecord, error) {
	amount, err := moneyField("amount", r.Amount)
	if err != nil {
		return finance.TransactionRecord{}, err
	}
	return finance.TransactionRecord{
		StudentID:        r.StudentID,
		AcademicYearCode: r.AcademicYearCode,
		Kind:             finance.TransactionKind(r.Kind),
		Amount:           amount,
		Description:      r.Description,
	}, nil
}

func (r GeneralTransactionRequest) record() (finance.GeneralTransactionRecord, error) {
	amount, err := moneyField("amount", r.Amount)
	if err != nil {
		return finance.GeneralTransactionRecord{}, err
	}
	return finance.GeneralTransactionRecord{
		Kind:        finance.GeneralKind(r.Kind),
		Amount:      amount,
		Description: r.Description,
	}, nil
}

func (r SalaryRequest) record() (finance.SalaryRecord, error) {
	net, err := moneyField("net_salary", r.NetSalary)
	if err != nil {
		return finance.SalaryRecord{}, err
	}
	return finance.SalaryRecord{
		EmployeeID: r.EmployeeID,
		NetSalary:  net,
		Status:     finance.SalaryStatus(r.Status),
	}, nil
}
