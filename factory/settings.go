/*
Package factory provides JSON to Go schedule-configuration conversion.

PURPOSE:
  Converts a JSON school-configuration document into GlobalSettings,
  WeekDaySettings and CalendarOverrides. This enables calendar and pay
  rule configuration without code changes - an administrator edits a
  JSON document, and the factory produces the proper Go values.

WHY JSON?
  - Non-developers can adjust the school calendar
  - Easy integration with an admin UI
  - Version control for configuration documents
  - Database storage of configuration snapshots

JSON SCHEMA:
  {
    "official_start_time": "08:00",
    "official_end_time": "16:00",
    "weekend_days": [5, 6],
    "lateness_penalty_rate": 1.0,
    "weekdays": [
      {"day_of_week": 4, "is_off": false, "start_time": "08:30", "pay_rate": 1.0}
    ],
    "overrides": [
      {"date": "2025-03-10", "day_type": "work", "pay_rate": 1.5,
       "bonus_fixed": "50", "custom_start": "09:00", "note": "open house"}
    ]
  }

KEY FEATURES:
  - Validates every enum against its closed set (unknown day types fail)
  - Enforces at most one override per date and one setting per weekday
  - Sets sensible defaults (pay rate 1.0, zero bonus)

USAGE:
  f := factory.NewSettingsFactory()
  cfg, err := f.Parse(jsonDocument)
  resolved := schedule.Resolve(date, cfg.Overrides, cfg.WeekSettings, cfg.Global)

SEE ALSO:
  - schedule: The types this factory produces
  - store: Persists the parsed configuration
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/madrasa/finance-engine/finance"
	"github.com/madrasa/finance-engine/schedule"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ConfigJSON is the JSON representation of a school configuration.
type ConfigJSON struct {
	OfficialStartTime   string         `json:"official_start_time"`
	OfficialEndTime     string         `json:"official_end_time"`
	WeekendDays         []int          `json:"weekend_days"`
	LatenessPenaltyRate *float64       `json:"lateness_penalty_rate"`
	Weekdays            []WeekdayJSON  `json:"weekdays,omitempty"`
	Overrides           []OverrideJSON `json:"overrides,omitempty"`
}

// WeekdayJSON represents one weekday default.
type WeekdayJSON struct {
	DayOfWeek  int      `json:"day_of_week"` // 0=Sunday .. 6=Saturday
	IsOff      bool     `json:"is_off,omitempty"`
	StartTime  string   `json:"start_time,omitempty"`
	EndTime    string   `json:"end_time,omitempty"`
	PayRate    *float64 `json:"pay_rate,omitempty"`
	BonusFixed string   `json:"bonus_fixed,omitempty"`
}

// OverrideJSON represents one calendar override.
type OverrideJSON struct {
	Date        string  `json:"date"` // 2006-01-02
	DayType     string  `json:"day_type"`
	PayRate     float64 `json:"pay_rate"`
	BonusFixed  string  `json:"bonus_fixed,omitempty"`
	CustomStart string  `json:"custom_start,omitempty"`
	CustomEnd   string  `json:"custom_end,omitempty"`
	Note        string  `json:"note,omitempty"`
}

// Config is the parsed, validated result.
type Config struct {
	Global       schedule.GlobalSettings
	WeekSettings map[time.Weekday]schedule.WeekDaySetting
	Overrides    map[schedule.Date]schedule.CalendarOverride
}

// =============================================================================
// SETTINGS FACTORY
// =============================================================================

// SettingsFactory converts JSON configuration to schedule values.
type SettingsFactory struct{}

// NewSettingsFactory creates a new settings factory.
func NewSettingsFactory() *SettingsFactory {
	return &SettingsFactory{}
}

// Parse validates and converts a JSON configuration document.
func (f *SettingsFactory) Parse(raw string) (*Config, error) {
	var doc ConfigJSON
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("invalid configuration JSON: %w", err)
	}
	return f.Build(doc)
}

// Build converts an already-decoded document.
func (f *SettingsFactory) Build(doc ConfigJSON) (*Config, error) {
	global, err := f.buildGlobal(doc)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Global:       global,
		WeekSettings: make(map[time.Weekday]schedule.WeekDaySetting, len(doc.Weekdays)),
		Overrides:    make(map[schedule.Date]schedule.CalendarOverride, len(doc.Overrides)),
	}

	for _, wj := range doc.Weekdays {
		ws, err := f.buildWeekday(wj)
		if err != nil {
			return nil, err
		}
		if _, dup := cfg.WeekSettings[ws.DayOfWeek]; dup {
			return nil, fmt.Errorf("duplicate weekday setting for %s", ws.DayOfWeek)
		}
		cfg.WeekSettings[ws.DayOfWeek] = ws
	}

	for _, oj := range doc.Overrides {
		ov, err := f.buildOverride(oj)
		if err != nil {
			return nil, err
		}
		if _, dup := cfg.Overrides[ov.Date]; dup {
			return nil, fmt.Errorf("duplicate calendar override for %s", ov.Date)
		}
		cfg.Overrides[ov.Date] = ov
	}

	return cfg, nil
}

func (f *SettingsFactory) buildGlobal(doc ConfigJSON) (schedule.GlobalSettings, error) {
	gs := schedule.DefaultSettings()

	if doc.OfficialStartTime != "" {
		t, err := schedule.ParseTimeOfDay(doc.OfficialStartTime)
		if err != nil {
			return gs, err
		}
		gs.OfficialStartTime = t
	}
	if doc.OfficialEndTime != "" {
		t, err := schedule.ParseTimeOfDay(doc.OfficialEndTime)
		if err != nil {
			return gs, err
		}
		gs.OfficialEndTime = t
	}
	if doc.WeekendDays != nil {
		gs.WeekendDays = make(map[time.Weekday]bool, len(doc.WeekendDays))
		for _, d := range doc.WeekendDays {
			if d < 0 || d > 6 {
				return gs, fmt.Errorf("weekend day out of range: %d", d)
			}
			gs.WeekendDays[time.Weekday(d)] = true
		}
	}
	// A nil rate means unset; an explicit zero is a valid configuration
	// (no lateness penalty) and must not fall back to the default.
	if doc.LatenessPenaltyRate != nil {
		if *doc.LatenessPenaltyRate < 0 {
			return gs, fmt.Errorf("lateness penalty rate must not be negative: %v", *doc.LatenessPenaltyRate)
		}
		gs.LatenessPenaltyRate = *doc.LatenessPenaltyRate
	}
	return gs, nil
}

func (f *SettingsFactory) buildWeekday(wj WeekdayJSON) (schedule.WeekDaySetting, error) {
	var ws schedule.WeekDaySetting
	if wj.DayOfWeek < 0 || wj.DayOfWeek > 6 {
		return ws, fmt.Errorf("weekday out of range: %d", wj.DayOfWeek)
	}
	ws.DayOfWeek = time.Weekday(wj.DayOfWeek)
	ws.IsOff = wj.IsOff

	if wj.StartTime != "" {
		t, err := schedule.ParseTimeOfDay(wj.StartTime)
		if err != nil {
			return ws, err
		}
		ws.StartTime = &t
	}
	if wj.EndTime != "" {
		t, err := schedule.ParseTimeOfDay(wj.EndTime)
		if err != nil {
			return ws, err
		}
		ws.EndTime = &t
	}
	if wj.PayRate != nil {
		if *wj.PayRate < 0 {
			return ws, fmt.Errorf("weekday %s: pay rate must not be negative", ws.DayOfWeek)
		}
		ws.PayRate = wj.PayRate
	}
	if wj.BonusFixed != "" {
		b, err := finance.ParseMoney(wj.BonusFixed)
		if err != nil {
			return ws, fmt.Errorf("weekday %s: %w", ws.DayOfWeek, err)
		}
		ws.BonusFixed = &b
	}
	return ws, nil
}

func (f *SettingsFactory) buildOverride(oj OverrideJSON) (schedule.CalendarOverride, error) {
	var ov schedule.CalendarOverride

	d, err := schedule.ParseDate(oj.Date)
	if err != nil {
		return ov, err
	}
	ov.Date = d

	switch t := schedule.DayType(oj.DayType); t {
	case schedule.DayWork, schedule.DayHalf, schedule.DayOffPaid, schedule.DayOffUnpaid, schedule.DaySpecial:
		ov.DayType = t
	default:
		return ov, fmt.Errorf("override %s: unknown day type %q", d, oj.DayType)
	}

	if oj.PayRate < 0 {
		return ov, fmt.Errorf("override %s: pay rate must not be negative", d)
	}
	ov.PayRate = oj.PayRate
	ov.BonusFixed = finance.ZeroMoney()
	if oj.BonusFixed != "" {
		b, err := finance.ParseMoney(oj.BonusFixed)
		if err != nil {
			return ov, fmt.Errorf("override %s: %w", d, err)
		}
		ov.BonusFixed = b
	}

	if oj.CustomStart != "" {
		t, err := schedule.ParseTimeOfDay(oj.CustomStart)
		if err != nil {
			return ov, err
		}
		ov.CustomStart = &t
	}
	if oj.CustomEnd != "" {
		t, err := schedule.ParseTimeOfDay(oj.CustomEnd)
		if err != nil {
			return ov, err
		}
		ov.CustomEnd = &t
	}
	ov.Note = oj.Note

	return ov, nil
}
