package factory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madrasa/finance-engine/factory"
	"github.com/madrasa/finance-engine/schedule"
)

const configDoc = `{
	"official_start_time": "08:30",
	"official_end_time": "15:30",
	"weekend_days": [5, 6],
	"lateness_penalty_rate": 2.5,
	"weekdays": [
		{"day_of_week": 4, "is_off": false, "start_time": "09:00", "pay_rate": 1.25}
	],
	"overrides": [
		{"date": "2025-03-07", "day_type": "work", "pay_rate": 1.5, "bonus_fixed": "50", "note": "open house"}
	]
}`

func TestParse_FullDocument(t *testing.T) {
	f := factory.NewSettingsFactory()
	cfg, err := f.Parse(configDoc)
	require.NoError(t, err)

	assert.Equal(t, schedule.TimeOfDay{Hour: 8, Minute: 30}, cfg.Global.OfficialStartTime)
	assert.Equal(t, schedule.TimeOfDay{Hour: 15, Minute: 30}, cfg.Global.OfficialEndTime)
	assert.True(t, cfg.Global.IsWeekend(time.Friday))
	assert.True(t, cfg.Global.IsWeekend(time.Saturday))
	assert.False(t, cfg.Global.IsWeekend(time.Sunday))
	assert.Equal(t, 2.5, cfg.Global.LatenessPenaltyRate)

	ws, ok := cfg.WeekSettings[time.Thursday]
	require.True(t, ok, "Thursday setting missing")
	require.NotNil(t, ws.PayRate)
	assert.Equal(t, 1.25, *ws.PayRate)
	require.NotNil(t, ws.StartTime)
	assert.Equal(t, schedule.TimeOfDay{Hour: 9}, *ws.StartTime)

	date := schedule.NewDate(2025, time.March, 7)
	ov, ok := cfg.Overrides[date]
	require.True(t, ok, "override missing")
	assert.Equal(t, schedule.DayWork, ov.DayType)
	assert.Equal(t, 1.5, ov.PayRate)
	assert.Equal(t, "open house", ov.Note)
}

func TestParse_ResolvesThroughSchedule(t *testing.T) {
	// Parsed configuration feeds straight into the resolver: the
	// override flips the weekend Friday into a 1.5x work day.
	f := factory.NewSettingsFactory()
	cfg, err := f.Parse(configDoc)
	require.NoError(t, err)

	resolved := schedule.Resolve(schedule.NewDate(2025, time.March, 7), cfg.Overrides, cfg.WeekSettings, cfg.Global)
	assert.False(t, resolved.IsOff)
	assert.Equal(t, 1.5, resolved.Rate)
	assert.Equal(t, schedule.SourceCalendar, resolved.Source)
}

func TestParse_UnknownDayTypeRejected(t *testing.T) {
	f := factory.NewSettingsFactory()
	_, err := f.Parse(`{"overrides": [{"date": "2025-01-01", "day_type": "festival", "pay_rate": 1}]}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown day type")
}

func TestParse_DuplicateOverrideRejected(t *testing.T) {
	f := factory.NewSettingsFactory()
	_, err := f.Parse(`{"overrides": [
		{"date": "2025-01-01", "day_type": "work", "pay_rate": 1},
		{"date": "2025-01-01", "day_type": "off_paid", "pay_rate": 1}
	]}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate calendar override")
}

func TestParse_WeekdayOutOfRangeRejected(t *testing.T) {
	f := factory.NewSettingsFactory()
	_, err := f.Parse(`{"weekdays": [{"day_of_week": 7}]}`)
	require.Error(t, err)
}

func TestParse_NegativeRateRejected(t *testing.T) {
	f := factory.NewSettingsFactory()
	_, err := f.Parse(`{"lateness_penalty_rate": -1}`)
	require.Error(t, err)
}

func TestParse_ExplicitZeroRateKept(t *testing.T) {
	// A configured zero is a valid choice (no lateness penalty) and is
	// distinct from an absent rate, which falls back to the default.
	f := factory.NewSettingsFactory()
	cfg, err := f.Parse(`{"lateness_penalty_rate": 0}`)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Global.LatenessPenaltyRate)
}

func TestParse_MalformedBonusRejected(t *testing.T) {
	f := factory.NewSettingsFactory()
	_, err := f.Parse(`{"overrides": [{"date": "2025-01-01", "day_type": "work", "pay_rate": 1, "bonus_fixed": "5O"}]}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed amount")
}

func TestParse_EmptyDocumentGetsDefaults(t *testing.T) {
	f := factory.NewSettingsFactory()
	cfg, err := f.Parse(`{}`)
	require.NoError(t, err)

	def := schedule.DefaultSettings()
	assert.Equal(t, def.OfficialStartTime, cfg.Global.OfficialStartTime)
	assert.Equal(t, def.LatenessPenaltyRate, cfg.Global.LatenessPenaltyRate)
}
