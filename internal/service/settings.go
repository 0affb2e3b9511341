package service

import "time"

// ClinicSettings carries the clinic-wide scheduling rules. Closed weekdays
// are data, not code: the default (Sunday) can be overridden from config.
type ClinicSettings struct {
	Granularity time.Duration
	ClosedDays  map[time.Weekday]bool
}

func DefaultClinicSettings() ClinicSettings {
	return ClinicSettings{
		Granularity: 30 * time.Minute,
		ClosedDays:  map[time.Weekday]bool{time.Sunday: true},
	}
}

// Closed reports whether the clinic does not operate on the given day.
func (s ClinicSettings) Closed(day time.Time) bool {
	return s.ClosedDays[day.Weekday()]
}

// RequiredSlots returns how many granularity units a treatment duration
// occupies, rounding up.
func (s ClinicSettings) RequiredSlots(durationMinutes int) int {
	unit := int(s.Granularity.Minutes())
	return (durationMinutes + unit - 1) / unit
}
