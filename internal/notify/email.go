package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

var subjects = map[EventType]string{
	EventBooked:        "Your appointment request was received",
	EventConfirmed:     "Your appointment is confirmed",
	EventCancelled:     "Your appointment was cancelled",
	EventAutoCancelled: "Your appointment expired",
	EventCompleted:     "Your visit summary is ready",
}

// EmailNotifier sends appointment events to the patient via sendgrid.
// Delivery happens in the background with a bounded retry.
type EmailNotifier struct {
	client    *sendgrid.Client
	fromEmail string
	logger    *zap.Logger
}

func NewEmailNotifier(apiKey, fromEmail string, logger *zap.Logger) *EmailNotifier {
	return &EmailNotifier{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		logger:    logger,
	}
}

func (n *EmailNotifier) Notify(_ context.Context, event Event) {
	if event.PatientEmail == "" {
		n.logger.Warn("No patient email for notification",
			zap.Int64("appointment_id", event.AppointmentID))
		return
	}

	go n.deliver(event)
}

func (n *EmailNotifier) deliver(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	from := mail.NewEmail("Clinic", n.fromEmail)
	to := mail.NewEmail(event.PatientName, event.PatientEmail)
	body := fmt.Sprintf(
		"Appointment %s\nDentist: %s\nTreatment: %s\nTime: %s - %s\nReference: %s\n",
		event.Type,
		event.DentistName,
		event.TreatmentName,
		event.StartsAt.Format("Mon, 02 Jan 2006 15:04"),
		event.EndsAt.Format("15:04"),
		event.Reference,
	)
	message := mail.NewSingleEmail(from, subjects[event.Type], to, body, "")

	backoff := retry.WithMaxRetries(3, retry.NewExponential(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := n.client.SendWithContext(ctx, message)
		if err != nil {
			return retry.RetryableError(err)
		}
		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("sendgrid responded %d", resp.StatusCode))
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("sendgrid rejected message: %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		n.logger.Warn("Failed to deliver notification",
			zap.Int64("appointment_id", event.AppointmentID),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}
