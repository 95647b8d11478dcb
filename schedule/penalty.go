/*
penalty.go - Lateness deduction calculation

PURPOSE:
  Converts minutes of lateness into a deduction figure using the
  configured penalty rate. The arithmetic is trivial; the contract is
  not: the rate is ALWAYS an explicit parameter, captured once by the
  caller at batch start. There is no cached settings snapshot anywhere
  in this package, so a newly saved rate is reflected by the very next
  call.
*/
package schedule

// LatenessDeduction returns the deduction for the given minutes of
// lateness at the given per-minute rate.
//
// The function must never memoize a settings snapshot: recomputing
// with a newly saved rate immediately yields the new figure for the
// same lateMinutes.
func LatenessDeduction(lateMinutes uint32, rate float64) float64 {
	return float64(lateMinutes) * rate
}

// LateMinutes computes how many minutes past the resolved start time
// an arrival was. Days off never accrue lateness, and early or on-time
// arrivals are zero.
func LateMinutes(cfg ResolvedDayConfig, arrival TimeOfDay) uint32 {
	if cfg.IsOff {
		return 0
	}
	late := arrival.Minutes() - cfg.Start.Minutes()
	if late <= 0 {
		return 0
	}
	return uint32(late)
}
