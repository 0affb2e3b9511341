package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes events to the log. Used in development and as the
// fallback when no mail credentials are configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, event Event) {
	n.logger.Info("Appointment notification",
		zap.String("type", string(event.Type)),
		zap.Int64("appointment_id", event.AppointmentID),
		zap.String("reference", event.Reference),
		zap.String("patient", event.PatientName),
		zap.String("dentist", event.DentistName),
		zap.String("treatment", event.TreatmentName),
		zap.Time("starts_at", event.StartsAt),
	)
}
