package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending       AppointmentStatus = "pending"        // waiting for staff confirmation
	AppointmentStatusConfirmed     AppointmentStatus = "confirmed"      // confirmed by staff
	AppointmentStatusCompleted     AppointmentStatus = "completed"      // visit took place, diagnosis recorded
	AppointmentStatusCancelled     AppointmentStatus = "cancelled"      // cancelled by patient or staff
	AppointmentStatusAutoCancelled AppointmentStatus = "auto_cancelled" // cancelled by the system
)

// Terminal reports whether no further transition is allowed out of the status.
func (s AppointmentStatus) Terminal() bool {
	switch s {
	case AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusAutoCancelled:
		return true
	}
	return false
}

// Active reports whether the appointment still occupies its slots.
func (s AppointmentStatus) Active() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed:
		return true
	}
	return false
}

// CanTransitionTo encodes the appointment lifecycle.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	if s.Terminal() {
		return false
	}
	switch next {
	case AppointmentStatusConfirmed:
		return s == AppointmentStatusPending
	case AppointmentStatusAutoCancelled:
		// Only the expiry sweep produces this, and only for unconfirmed rows.
		return s == AppointmentStatusPending
	case AppointmentStatusCancelled, AppointmentStatusCompleted:
		return s == AppointmentStatusPending || s == AppointmentStatusConfirmed
	}
	return false
}

// AppointmentDetail holds the who/what/when of a booking. Paired one-to-one
// with an Appointment row that carries the lifecycle state.
type AppointmentDetail struct {
	ID          int64     `json:"id"`
	PatientID   int64     `json:"patient_id"`
	DentistID   int64     `json:"dentist_id"`
	TreatmentID int64     `json:"treatment_id"`
	Day         time.Time `json:"day"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Appointment struct {
	ID        int64             `json:"id"`
	DetailID  int64             `json:"detail_id"`
	DentistID int64             `json:"dentist_id"`
	Reference uuid.UUID         `json:"reference"`
	StartsAt  time.Time         `json:"starts_at"`
	EndsAt    time.Time         `json:"ends_at"`
	Status    AppointmentStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`

	// Joined rows, filled where the caller needs them.
	Detail    *AppointmentDetail `json:"detail,omitempty"`
	Treatment *Treatment         `json:"treatment,omitempty"`
	Patient   *Patient           `json:"patient,omitempty"`
	Dentist   *Dentist           `json:"dentist,omitempty"`
}
