package service

import (
	"errors"
	"fmt"

	"github.com/smilecare/clinic-scheduler/internal/model"
)

// Not-found and validation sentinels. Cross-dentist access is reported as
// not-found on purpose, so existence of foreign appointments never leaks.
var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrDentistNotFound     = errors.New("dentist not found")
	ErrTreatmentNotFound   = errors.New("treatment not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrTreatmentNotOffered = errors.New("dentist does not offer this treatment")
	ErrDiagnosisTooShort   = errors.New("diagnosis is required and must be at least 10 characters")
	ErrStartInPast         = errors.New("requested time is in the past")
	ErrInvalidRange        = errors.New("end must not be before start")
)

// ConflictError is a booking rejection: the request was valid but the
// inventory cannot satisfy it. Final for this request; nothing was written.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

var (
	ErrClinicClosed        = &ConflictError{Reason: "clinic is closed on the requested day"}
	ErrDayAlreadyBooked    = &ConflictError{Reason: "patient already has an appointment on this day"}
	ErrNoContiguousSlots   = &ConflictError{Reason: "not enough contiguous availability"}
	ErrSlotTaken           = &ConflictError{Reason: "requested time is no longer available"}
	ErrScheduleHasBookings = &ConflictError{Reason: "date range contains booked appointments"}
	ErrInventoryExists     = &ConflictError{Reason: "slot inventory already generated for this range"}
)

// IsConflict reports whether the error is a booking conflict.
func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}

// StateError rejects a transition out of a state that does not allow it.
type StateError struct {
	Current model.AppointmentStatus
}

func (e *StateError) Error() string {
	return fmt.Sprintf("appointment is already %s", e.Current)
}

// IsStateError reports whether the error is an invalid-transition rejection.
func IsStateError(err error) bool {
	var state *StateError
	return errors.As(err, &state)
}
