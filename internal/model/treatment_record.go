package model

import "time"

// TreatmentRecord holds the diagnosis and follow-up notes attached to a
// completed appointment. At most one record exists per appointment.
type TreatmentRecord struct {
	ID            int64     `json:"id"`
	AppointmentID int64     `json:"appointment_id"`
	Diagnosis     string    `json:"diagnosis"`
	FollowUp      string    `json:"follow_up,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
