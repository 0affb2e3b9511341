package model

import "time"

type ScheduleStatus string

const (
	ScheduleStatusWorking ScheduleStatus = "working"
	ScheduleStatusDayOff  ScheduleStatus = "dayoff"
)

// ScheduleEntry is one working-hour block of a dentist on a calendar date,
// or a single dayoff marker for the whole date (Hour is 0 for dayoff rows).
type ScheduleEntry struct {
	ID        int64          `json:"id"`
	DentistID int64          `json:"dentist_id"`
	Day       time.Time      `json:"day"`
	Hour      int            `json:"hour"`
	StartsAt  time.Time      `json:"starts_at"`
	EndsAt    time.Time      `json:"ends_at"`
	Status    ScheduleStatus `json:"status"`
	Note      string         `json:"note,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
