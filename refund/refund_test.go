package refund_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madrasa/finance-engine/finance"
	"github.com/madrasa/finance-engine/refund"
)

func money(v float64) finance.Money {
	return finance.NewMoney(v)
}

// =============================================================================
// WATERFALL TESTS
// =============================================================================

func TestCompute_Waterfall(t *testing.T) {
	// 10000 paid, 500 registration, 800/month for 3 months, 5% admin
	// fee on the remainder after registration and studied months.
	in := refund.Input{
		TotalPaid:             money(10000),
		RegistrationFeeAmount: money(500),
		MonthlyTuitionFee:     money(800),
		MonthsStudied:         3,
		AdminFeePercentage:    5,
	}

	res := refund.Compute(in)

	assert.True(t, res.StudiedCost.Equal(money(2400)), "studied cost: %v", res.StudiedCost)
	assert.True(t, res.AdminFee.Equal(money(355)), "admin fee: %v", res.AdminFee)
	assert.True(t, res.TotalRefundable.Equal(money(9500)), "total refundable: %v", res.TotalRefundable)
	assert.True(t, res.FinalRefund.Equal(money(6745)), "final refund: %v", res.FinalRefund)
	assert.True(t, res.TotalDeductions.Equal(money(3255)), "total deductions: %v", res.TotalDeductions)

	// Audit trail order IS the waterfall order.
	require.Len(t, res.Deductions, 3)
	assert.Equal(t, refund.DeductionRegistration, res.Deductions[0].Type)
	assert.Equal(t, refund.DeductionStudiedMonths, res.Deductions[1].Type)
	assert.Equal(t, refund.DeductionAdminFee, res.Deductions[2].Type)
}

func TestCompute_AdminFeeOnRemainderNotTotalPaid(t *testing.T) {
	// With registration + studied months exceeding the total paid, the
	// percentage base clamps to zero: no admin fee appears.
	in := refund.Input{
		TotalPaid:             money(1000),
		RegistrationFeeAmount: money(500),
		MonthlyTuitionFee:     money(600),
		MonthsStudied:         2,
		AdminFeePercentage:    10,
	}

	res := refund.Compute(in)
	assert.True(t, res.AdminFee.IsZero(), "admin fee should be zero, got %v", res.AdminFee)
}

func TestCompute_FixedAdminFeeWinsOverPercentage(t *testing.T) {
	fixed := money(250)
	in := refund.Input{
		TotalPaid:          money(5000),
		MonthlyTuitionFee:  money(100),
		MonthsStudied:      1,
		AdminFeePercentage: 50, // ignored when a fixed fee is provided
		AdminFeeFixed:      &fixed,
	}

	res := refund.Compute(in)
	assert.True(t, res.AdminFee.Equal(money(250)), "admin fee: %v", res.AdminFee)
}

func TestCompute_MonthlyFeeDerivedFromAnnualExpenses(t *testing.T) {
	in := refund.Input{
		TotalPaid:          money(12000),
		TotalStudyExpenses: money(12000),
		TotalMonthsInYear:  12,
		MonthsStudied:      4,
	}

	res := refund.Compute(in)
	assert.True(t, res.MonthlyFee.Equal(money(1000)), "monthly fee: %v", res.MonthlyFee)
	assert.True(t, res.StudiedCost.Equal(money(4000)), "studied cost: %v", res.StudiedCost)
}

func TestCompute_ZeroMonthsInYearGuard(t *testing.T) {
	in := refund.Input{
		TotalPaid:          money(1000),
		TotalStudyExpenses: money(9000),
		TotalMonthsInYear:  0,
		MonthsStudied:      3,
	}

	res := refund.Compute(in)
	assert.True(t, res.MonthlyFee.IsZero())
	assert.True(t, res.StudiedCost.IsZero())
	assert.True(t, res.FinalRefund.Equal(money(1000)))
}

func TestCompute_RegistrationAlwaysRecorded(t *testing.T) {
	// A zero registration fee still appears in the audit trail; display
	// layers filter zero entries, the trail does not.
	res := refund.Compute(refund.Input{TotalPaid: money(100)})

	require.NotEmpty(t, res.Deductions)
	assert.Equal(t, refund.DeductionRegistration, res.Deductions[0].Type)
	assert.True(t, res.Deductions[0].Amount.IsZero())
}

func TestCompute_DeductionsNeverExceedTotalPaid(t *testing.T) {
	in := refund.Input{
		TotalPaid:              money(500),
		RegistrationFeeAmount:  money(400),
		MonthlyTuitionFee:      money(300),
		MonthsStudied:          5,
		OtherNonRefundableFees: money(200),
	}

	res := refund.Compute(in)
	assert.False(t, res.TotalDeductions.GreaterThan(in.TotalPaid),
		"total deductions %v exceed total paid %v", res.TotalDeductions, in.TotalPaid)
	assert.False(t, res.FinalRefund.IsNegative())
	assert.False(t, res.TotalRefundable.IsNegative())
}

func TestCompute_Reproducible(t *testing.T) {
	in := refund.Input{
		TotalPaid:              money(7777.77),
		RegistrationFeeAmount:  money(123.45),
		MonthlyTuitionFee:      money(333.33),
		MonthsStudied:          4,
		AdminFeePercentage:     2.5,
		OtherNonRefundableFees: money(10),
	}

	first := refund.Compute(in)
	second := refund.Compute(in)
	require.True(t, reflect.DeepEqual(first, second), "refund computation must be reproducible")
}

// =============================================================================
// MONTH COUNTING TESTS
// =============================================================================

func TestMonthsStudied(t *testing.T) {
	tests := []struct {
		name       string
		enrollment time.Time
		withdrawal time.Time
		want       int
	}{
		{
			name:       "same month counts as one",
			enrollment: time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
			withdrawal: time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC),
			want:       1,
		},
		{
			name:       "inclusive on both ends",
			enrollment: time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
			withdrawal: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
			want:       3,
		},
		{
			name:       "across year boundary",
			enrollment: time.Date(2024, time.November, 1, 0, 0, 0, 0, time.UTC),
			withdrawal: time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC),
			want:       4,
		},
		{
			name:       "withdrawal before enrollment still charges one month",
			enrollment: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
			withdrawal: time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
			want:       1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, refund.MonthsStudied(tt.enrollment, tt.withdrawal))
		})
	}
}
