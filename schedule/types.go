/*
Package schedule resolves which pay and attendance rules apply to a
calendar date.

PURPOSE:
  A school day can be governed by three layers of configuration:

    1. CalendarOverride   - a one-off entry for a specific date
    2. WeekDaySetting     - the default for that weekday
    3. GlobalSettings     - the process-wide fallback

  For any date exactly one ResolvedDayConfig is derivable, selected by
  strict precedence: override beats weekday default beats global
  fallback. Tiers are never partially merged, with one deliberate
  exception: each tier falls back to the global official start/end
  times when its own times are unset.

KEY CONCEPTS IN THIS FILE (types.go):
  - Date: a day-granularity calendar key (no clock, no zone ambiguity)
  - TimeOfDay: wall-clock minutes, for official/custom start and end
  - CalendarOverride / WeekDaySetting / GlobalSettings: the three tiers
  - ResolvedDayConfig: the single derived answer for one date

SEE ALSO:
  - resolver.go: The precedence algorithm
  - penalty.go: Lateness deduction fed by resolved configs
*/
package schedule

import (
	"fmt"
	"time"

	"github.com/madrasa/finance-engine/finance"
)

// =============================================================================
// DATE - Day-granularity calendar key
// =============================================================================

// Date identifies a calendar day. It is deliberately not a time.Time:
// overrides are keyed uniquely by day, and a map key must not carry
// clock or zone noise.
type Date struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf truncates a time.Time to its calendar day.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseDate parses "2006-01-02".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("malformed date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }
func (d Date) String() string        { return d.Time().Format("2006-01-02") }

// =============================================================================
// TIME OF DAY - Wall-clock minutes for start/end times
// =============================================================================

// TimeOfDay is a wall-clock time within a day.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseTimeOfDay parses "15:04".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("malformed time %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) Minutes() int   { return t.Hour*60 + t.Minute }
func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// =============================================================================
// DAY TYPES AND SOURCES
// =============================================================================

// DayType classifies what kind of day a date is.
type DayType string

const (
	DayWork      DayType = "work"
	DayHalf      DayType = "half_day"
	DayOffPaid   DayType = "off_paid"
	DayOffUnpaid DayType = "off_unpaid"
	DaySpecial   DayType = "special"
)

// IsOff reports whether the day type counts as a day off.
func (d DayType) IsOff() bool {
	return d == DayOffPaid || d == DayOffUnpaid
}

// ConfigSource records which tier produced a resolved config.
type ConfigSource string

const (
	SourceCalendar       ConfigSource = "calendar"
	SourceWeekDefault    ConfigSource = "week_default"
	SourceGlobalFallback ConfigSource = "global_fallback"
)

// =============================================================================
// THE THREE CONFIGURATION TIERS
// =============================================================================

// CalendarOverride is a one-off rule for a specific date. At most one
// per date; the store enforces the uniqueness.
type CalendarOverride struct {
	Date        Date          `json:"date"`
	DayType     DayType       `json:"day_type"`
	PayRate     float64       `json:"pay_rate"`
	BonusFixed  finance.Money `json:"bonus_fixed"`
	CustomStart *TimeOfDay    `json:"custom_start,omitempty"`
	CustomEnd   *TimeOfDay    `json:"custom_end,omitempty"`
	Note        string        `json:"note,omitempty"`
}

// WeekDaySetting is the default rule for one weekday. At most one per
// weekday.
type WeekDaySetting struct {
	DayOfWeek  time.Weekday   `json:"day_of_week"`
	IsOff      bool           `json:"is_off"`
	StartTime  *TimeOfDay     `json:"start_time,omitempty"`
	EndTime    *TimeOfDay     `json:"end_time,omitempty"`
	PayRate    *float64       `json:"pay_rate,omitempty"`
	BonusFixed *finance.Money `json:"bonus_fixed,omitempty"`
}

// GlobalSettings is the single process-wide fallback configuration.
// It is always passed as an explicit snapshot argument so a batch of
// calculations sees one consistent version (read-snapshot-then-compute).
type GlobalSettings struct {
	OfficialStartTime   TimeOfDay             `json:"official_start_time"`
	OfficialEndTime     TimeOfDay             `json:"official_end_time"`
	WeekendDays         map[time.Weekday]bool `json:"weekend_days"`
	LatenessPenaltyRate float64               `json:"lateness_penalty_rate"`
}

// IsWeekend reports weekend membership for a weekday.
func (g GlobalSettings) IsWeekend(wd time.Weekday) bool {
	return g.WeekendDays[wd]
}

// DefaultSettings is the fallback configuration used before an
// administrator has saved anything: 08:00-16:00 working hours,
// Saturday and Sunday off, one deduction unit per late minute.
func DefaultSettings() GlobalSettings {
	return GlobalSettings{
		OfficialStartTime:   TimeOfDay{Hour: 8},
		OfficialEndTime:     TimeOfDay{Hour: 16},
		WeekendDays:         map[time.Weekday]bool{time.Saturday: true, time.Sunday: true},
		LatenessPenaltyRate: 1.0,
	}
}

// =============================================================================
// RESOLVED DAY CONFIG - The single derived answer for one date
// =============================================================================

// ResolvedDayConfig is the one config derivable for a date. Resolution
// is a total function: every date resolves, there are no error cases.
type ResolvedDayConfig struct {
	Date   Date          `json:"date"`
	Type   DayType       `json:"type"`
	Rate   float64       `json:"rate"`
	Bonus  finance.Money `json:"bonus"`
	Start  TimeOfDay     `json:"start"`
	End    TimeOfDay     `json:"end"`
	IsOff  bool          `json:"is_off"`
	Source ConfigSource  `json:"source"`
}
