package notify

import (
	"context"
	"time"
)

type EventType string

const (
	EventBooked        EventType = "booked"
	EventConfirmed     EventType = "confirmed"
	EventCancelled     EventType = "cancelled"
	EventAutoCancelled EventType = "auto_cancelled"
	EventCompleted     EventType = "completed"
)

// Event describes an appointment lifecycle change for notification sinks.
type Event struct {
	Type          EventType
	AppointmentID int64
	Reference     string
	PatientName   string
	PatientEmail  string
	DentistName   string
	TreatmentName string
	StartsAt      time.Time
	EndsAt        time.Time
}

// Notifier delivers appointment events. Delivery is fire-and-forget: a failed
// notification never fails the transition that produced it.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}
