/*
Package refund computes withdrawal refunds via a fixed-order deduction
waterfall.

PURPOSE:
  When a student withdraws, the refundable amount is what they paid
  minus a sequence of deductions applied in a FIXED order:

    1. Registration fee        (flat, never refundable)
    2. Studied months          (monthly fee x months actually studied)
    3. Administrative fee      (fixed, or % of the remainder AFTER 1+2)
    4. Other non-refundable    (flat)

  The order is semantically meaningful even though the totals are
  additive: it decides which money is labeled "registration" versus
  "studied months" versus "admin" in the audit trail, and the admin
  percentage is computed on the remainder after the first two
  deductions, not on the raw total paid.

REPRODUCIBILITY:
  The deductions list is the audit trail. Same input, same list,
  byte for byte. No clock reads, no randomness, no global state.

GUARDS:
  - totalMonthsInYear = 0  => derived monthly fee is 0, not a panic
  - every final figure is clamped at zero
  - total deductions never exceed what was actually paid

SEE ALSO:
  - finance: Money type and aggregation figures
  - report: composes refund results into the reconciliation report
*/
package refund

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/madrasa/finance-engine/finance"
)

// =============================================================================
// INPUT / OUTPUT TYPES
// =============================================================================

// Input is a plain value object describing one withdrawal. It has no
// persisted identity; the caller assembles it from fee and transaction
// records.
type Input struct {
	TotalPaid              finance.Money  `json:"total_paid"`
	TotalStudyExpenses     finance.Money  `json:"total_study_expenses"`
	MonthsStudied          int            `json:"months_studied"`
	TotalMonthsInYear      int            `json:"total_months_in_year"`
	MonthlyTuitionFee      finance.Money  `json:"monthly_tuition_fee"`
	AdminFeePercentage     float64        `json:"admin_fee_percentage"`
	AdminFeeFixed          *finance.Money `json:"admin_fee_fixed,omitempty"`
	RegistrationFeeAmount  finance.Money  `json:"registration_fee_amount"`
	OtherNonRefundableFees finance.Money  `json:"other_non_refundable_fees"`
}

// DeductionType labels one step of the waterfall.
type DeductionType string

const (
	DeductionRegistration    DeductionType = "registration"
	DeductionStudiedMonths   DeductionType = "studied_months"
	DeductionAdminFee        DeductionType = "admin_fee"
	DeductionConsumedService DeductionType = "consumed_service"
)

// Deduction is one entry of the audit trail. The list order IS the
// waterfall order.
type Deduction struct {
	Type       DeductionType `json:"type"`
	Amount     finance.Money `json:"amount"`
	Percentage *float64      `json:"percentage,omitempty"`
	Reason     string        `json:"reason"`
}

// Result is the immutable outcome of one refund computation.
type Result struct {
	Input           Input         `json:"input"`
	Deductions      []Deduction   `json:"deductions"`
	MonthlyFee      finance.Money `json:"monthly_fee"`
	StudiedCost     finance.Money `json:"studied_cost"`
	AdminFee        finance.Money `json:"admin_fee"`
	TotalRefundable finance.Money `json:"total_refundable"`
	FinalRefund     finance.Money `json:"final_refund"`
	TotalDeductions finance.Money `json:"total_deductions"`
}

// =============================================================================
// WATERFALL COMPUTATION
// =============================================================================

// Compute runs the deduction waterfall for one withdrawal.
func Compute(in Input) Result {
	res := Result{Input: in}

	// Step 1: registration fee. Always recorded, even at zero - display
	// layers may filter zero-valued entries, the audit trail does not.
	registration := in.RegistrationFeeAmount.ClampZero()
	res.Deductions = append(res.Deductions, Deduction{
		Type:   DeductionRegistration,
		Amount: registration,
		Reason: "registration fee (non-refundable)",
	})

	// Step 2: monthly fee, explicit or derived from annual study
	// expenses. A year of zero months derives a monthly fee of zero.
	monthlyFee := in.MonthlyTuitionFee
	if !monthlyFee.IsPositive() {
		if in.TotalMonthsInYear > 0 {
			monthlyFee = in.TotalStudyExpenses.Div(decimal.NewFromInt(int64(in.TotalMonthsInYear)))
		} else {
			monthlyFee = finance.ZeroMoney()
		}
	}
	res.MonthlyFee = monthlyFee

	// Step 3: cost of the months actually studied.
	studiedCost := monthlyFee.Mul(decimal.NewFromInt(int64(in.MonthsStudied)))
	res.StudiedCost = studiedCost
	if studiedCost.IsPositive() {
		res.Deductions = append(res.Deductions, Deduction{
			Type:   DeductionStudiedMonths,
			Amount: studiedCost,
			Reason: fmt.Sprintf("tuition for %d studied month(s)", in.MonthsStudied),
		})
	}

	// Step 4: administrative fee. Fixed if provided; otherwise a
	// percentage of the remainder AFTER registration and studied
	// months have been taken out.
	var adminFee finance.Money
	if in.AdminFeeFixed != nil {
		adminFee = in.AdminFeeFixed.ClampZero()
		if adminFee.IsPositive() {
			res.Deductions = append(res.Deductions, Deduction{
				Type:   DeductionAdminFee,
				Amount: adminFee,
				Reason: "administrative fee (fixed)",
			})
		}
	} else if in.AdminFeePercentage > 0 {
		running := registration.Add(studiedCost)
		remainder := in.TotalPaid.Sub(running).ClampZero()
		pct := decimal.NewFromFloat(in.AdminFeePercentage).Div(decimal.NewFromInt(100))
		adminFee = remainder.Mul(pct)
		if adminFee.IsPositive() {
			p := in.AdminFeePercentage
			res.Deductions = append(res.Deductions, Deduction{
				Type:       DeductionAdminFee,
				Amount:     adminFee,
				Percentage: &p,
				Reason:     fmt.Sprintf("administrative fee (%.2f%% of remainder)", in.AdminFeePercentage),
			})
		}
	}
	res.AdminFee = adminFee

	// Step 5: other consumed, non-refundable services.
	other := in.OtherNonRefundableFees.ClampZero()
	if other.IsPositive() {
		res.Deductions = append(res.Deductions, Deduction{
			Type:   DeductionConsumedService,
			Amount: other,
			Reason: "other non-refundable fees",
		})
	}

	// Final figures. Deductions can never exceed what was paid.
	res.TotalRefundable = in.TotalPaid.Sub(registration).Sub(other).ClampZero()
	res.FinalRefund = res.TotalRefundable.Sub(studiedCost.Add(adminFee)).ClampZero()

	sum := finance.ZeroMoney()
	for _, d := range res.Deductions {
		sum = sum.Add(d.Amount)
	}
	res.TotalDeductions = sum.Min(in.TotalPaid)

	return res
}

// =============================================================================
// MONTH COUNTING
// =============================================================================

// MonthsStudied counts the months between enrollment and withdrawal,
// inclusive on both ends, with a minimum of one month charged. A
// student who withdraws the week they enrolled still pays for one
// month.
func MonthsStudied(enrollment, withdrawal time.Time) int {
	months := (withdrawal.Year()-enrollment.Year())*12 + int(withdrawal.Month()) - int(enrollment.Month()) + 1
	if months < 1 {
		return 1
	}
	return months
}
