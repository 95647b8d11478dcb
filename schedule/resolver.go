/*
resolver.go - Strict-precedence day configuration resolution

PURPOSE:
  Implements the three-tier lookup that answers "what rules govern this
  date?". First match wins:

    1. Calendar override for the exact date
    2. Weekday default for the date's weekday
    3. Global fallback (weekend membership decides off/work)

  An override and a week setting both being present is NOT a conflict -
  the override always wins. Precedence resolves it, nothing is flagged.

PARTIAL TIME FALLBACK:
  Each tier independently falls back to the global official start/end
  times when its own times are unset. This is the only cross-tier
  merge and it is deliberate: an override that flips a Friday to a
  work day rarely restates the school's opening hours.
*/
package schedule

import (
	"time"

	"github.com/madrasa/finance-engine/finance"
)

// Resolve derives the single day configuration for a date.
//
// Pure and total: every date resolves to exactly one config, and
// identical inputs always produce identical output. The maps are
// snapshots owned by the caller; Resolve never mutates them.
func Resolve(date Date, overrides map[Date]CalendarOverride, weekSettings map[time.Weekday]WeekDaySetting, global GlobalSettings) ResolvedDayConfig {
	// Tier 1: calendar override.
	if ov, ok := overrides[date]; ok {
		cfg := ResolvedDayConfig{
			Date:   date,
			Type:   ov.DayType,
			Rate:   ov.PayRate,
			Bonus:  ov.BonusFixed,
			Start:  global.OfficialStartTime,
			End:    global.OfficialEndTime,
			IsOff:  ov.DayType.IsOff(),
			Source: SourceCalendar,
		}
		if ov.CustomStart != nil {
			cfg.Start = *ov.CustomStart
		}
		if ov.CustomEnd != nil {
			cfg.End = *ov.CustomEnd
		}
		return cfg
	}

	// Tier 2: weekday default.
	if ws, ok := weekSettings[date.Weekday()]; ok {
		cfg := ResolvedDayConfig{
			Date:   date,
			Type:   DayWork,
			Rate:   1.0,
			Bonus:  finance.ZeroMoney(),
			Start:  global.OfficialStartTime,
			End:    global.OfficialEndTime,
			IsOff:  ws.IsOff,
			Source: SourceWeekDefault,
		}
		if ws.IsOff {
			cfg.Type = DayOffPaid
		}
		if ws.PayRate != nil {
			cfg.Rate = *ws.PayRate
		}
		if ws.BonusFixed != nil {
			cfg.Bonus = *ws.BonusFixed
		}
		if ws.StartTime != nil {
			cfg.Start = *ws.StartTime
		}
		if ws.EndTime != nil {
			cfg.End = *ws.EndTime
		}
		return cfg
	}

	// Tier 3: global fallback. Weekend membership decides off/work.
	weekend := global.IsWeekend(date.Weekday())
	cfg := ResolvedDayConfig{
		Date:   date,
		Type:   DayWork,
		Rate:   1.0,
		Bonus:  finance.ZeroMoney(),
		Start:  global.OfficialStartTime,
		End:    global.OfficialEndTime,
		IsOff:  weekend,
		Source: SourceGlobalFallback,
	}
	if weekend {
		cfg.Type = DayOffPaid
	}
	return cfg
}
