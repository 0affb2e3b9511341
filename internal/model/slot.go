package model

import "time"

// Slot is a fixed-duration bookable unit generated from a dentist's schedule.
// IsAvailable is a hint only; appointment rows are the ground truth and are
// re-checked whenever a slot is offered or consumed.
type Slot struct {
	ID          int64     `json:"id"`
	DentistID   int64     `json:"dentist_id"`
	Day         time.Time `json:"day"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	IsAvailable bool      `json:"is_available"`
	TreatmentID *int64    `json:"treatment_id"` // set once consumed by a booking
	CreatedAt   time.Time `json:"created_at"`
}
