package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madrasa/finance-engine/finance"
	"github.com/madrasa/finance-engine/schedule"
	"github.com/madrasa/finance-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func money(v float64) finance.Money {
	return finance.NewMoney(v)
}

// =============================================================================
// ROUND TRIPS
// =============================================================================

func TestSnapshot_RoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveFee(ctx, finance.FeeRecord{
		StudentID: "std-1", AcademicYearCode: "2025",
		TotalAmount: money(10000), AdvancePayment: money(2000),
	}))
	require.NoError(t, st.AppendTransaction(ctx, finance.TransactionRecord{
		StudentID: "std-1", AcademicYearCode: "2025",
		Kind: finance.KindPayment, Amount: money(5000), Description: "term 1",
	}))
	require.NoError(t, st.AppendGeneralTransaction(ctx, finance.GeneralTransactionRecord{
		Kind: finance.GeneralRevenue, Amount: money(3000), Description: "hall rental",
	}))
	require.NoError(t, st.SaveSalary(ctx, finance.SalaryRecord{
		EmployeeID: "emp-1", NetSalary: money(1500), Status: finance.SalaryPaid,
	}))

	snap, err := st.LoadSnapshot(ctx)
	require.NoError(t, err)

	require.Len(t, snap.Fees, 1)
	assert.True(t, snap.Fees[0].TotalAmount.Equal(money(10000)))
	require.Len(t, snap.Transactions, 1)
	assert.Equal(t, finance.KindPayment, snap.Transactions[0].Kind)
	assert.Equal(t, "term 1", snap.Transactions[0].Description)
	require.Len(t, snap.General, 1)
	require.Len(t, snap.Salaries, 1)
	assert.Equal(t, finance.SalaryPaid, snap.Salaries[0].Status)
}

func TestSaveFee_SupersedesOnReEnrollment(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveFee(ctx, finance.FeeRecord{
		StudentID: "std-1", AcademicYearCode: "2025", TotalAmount: money(8000),
	}))
	require.NoError(t, st.SaveFee(ctx, finance.FeeRecord{
		StudentID: "std-1", AcademicYearCode: "2025", TotalAmount: money(9000),
	}))

	snap, err := st.LoadSnapshot(ctx)
	require.NoError(t, err)

	// Only the latest fee is active; the old one is superseded, not
	// mutated or double counted.
	require.Len(t, snap.Fees, 1)
	assert.True(t, snap.Fees[0].TotalAmount.Equal(money(9000)))
}

func TestAppendTransaction_UnknownKindRejectedAtWrite(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	err := st.AppendTransaction(ctx, finance.TransactionRecord{
		StudentID: "std-1", Kind: finance.TransactionKind("دفعة"), Amount: money(100),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, finance.ErrUnknownKind)

	snap, err := st.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Transactions, "rejected transaction must not be stored")
}

func TestAppendTransaction_NegativeAmountRejected(t *testing.T) {
	st := newTestStore(t)

	err := st.AppendTransaction(context.Background(), finance.TransactionRecord{
		StudentID: "std-1", Kind: finance.KindPayment, Amount: money(-5),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, finance.ErrInvalidInput)
}

// =============================================================================
// CALENDAR CONFIGURATION
// =============================================================================

func TestOverride_UpsertByDate(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	date := schedule.NewDate(2025, time.March, 7)

	require.NoError(t, st.SaveOverride(ctx, schedule.CalendarOverride{
		Date: date, DayType: schedule.DayOffPaid, PayRate: 1.0, BonusFixed: money(0),
	}))
	start := schedule.TimeOfDay{Hour: 9}
	require.NoError(t, st.SaveOverride(ctx, schedule.CalendarOverride{
		Date: date, DayType: schedule.DayWork, PayRate: 1.5, BonusFixed: money(50),
		CustomStart: &start, Note: "open house",
	}))

	snap, err := st.LoadSnapshot(ctx)
	require.NoError(t, err)

	// At most one override per date: the second save replaced the first.
	require.Len(t, snap.Overrides, 1)
	ov := snap.Overrides[date]
	assert.Equal(t, schedule.DayWork, ov.DayType)
	assert.Equal(t, 1.5, ov.PayRate)
	require.NotNil(t, ov.CustomStart)
	assert.Equal(t, start, *ov.CustomStart)
	assert.Nil(t, ov.CustomEnd)
}

func TestWeekDaySetting_UpsertByWeekday(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rate := 1.25
	require.NoError(t, st.SaveWeekDaySetting(ctx, schedule.WeekDaySetting{
		DayOfWeek: time.Thursday, IsOff: false, PayRate: &rate,
	}))
	require.NoError(t, st.SaveWeekDaySetting(ctx, schedule.WeekDaySetting{
		DayOfWeek: time.Thursday, IsOff: true,
	}))

	snap, err := st.LoadSnapshot(ctx)
	require.NoError(t, err)

	require.Len(t, snap.WeekSettings, 1)
	ws := snap.WeekSettings[time.Thursday]
	assert.True(t, ws.IsOff)
	assert.Nil(t, ws.PayRate, "replaced setting must not keep the old rate")
}

func TestSettings_LastWriteWins(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// Defaults before anything is saved.
	settings, err := st.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, schedule.DefaultSettings().LatenessPenaltyRate, settings.LatenessPenaltyRate)

	first := schedule.DefaultSettings()
	first.LatenessPenaltyRate = 2.0
	require.NoError(t, st.SaveSettings(ctx, first))

	second := schedule.DefaultSettings()
	second.LatenessPenaltyRate = 5.0
	second.WeekendDays = map[time.Weekday]bool{time.Friday: true}
	require.NoError(t, st.SaveSettings(ctx, second))

	settings, err = st.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5.0, settings.LatenessPenaltyRate)
	assert.True(t, settings.IsWeekend(time.Friday))
	assert.False(t, settings.IsWeekend(time.Saturday))
}
