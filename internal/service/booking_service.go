package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smilecare/clinic-scheduler/internal/model"
	"github.com/smilecare/clinic-scheduler/internal/notify"
	"github.com/smilecare/clinic-scheduler/internal/repository/base"
)

type Initiator string

const (
	InitiatorPatient Initiator = "patient" // self-service booking, starts pending
	InitiatorStaff   Initiator = "staff"   // booked at the desk, starts confirmed
)

// BookingRequest asks for a treatment at an exact start time. Day is the
// calendar date at midnight; StartsAt the full requested timestamp.
type BookingRequest struct {
	PatientID   int64
	DentistID   int64
	TreatmentID int64
	Day         time.Time
	StartsAt    time.Time
	Note        string
	Initiator   Initiator
}

// BookingConfirmation is returned after a successful booking.
type BookingConfirmation struct {
	AppointmentID int64                   `json:"appointment_id"`
	Reference     string                  `json:"reference"`
	DentistName   string                  `json:"dentist_name"`
	TreatmentName string                  `json:"treatment_name"`
	StartsAt      time.Time               `json:"starts_at"`
	EndsAt        time.Time               `json:"ends_at"`
	Status        model.AppointmentStatus `json:"status"`
	Summary       string                  `json:"summary"`
}

// BookingService is the single write path that turns a booking request into
// an appointment pair plus consumed slots, all in one transaction. Candidate
// slots are locked at read time and re-verified against live appointment
// rows; the partial unique index on (dentist_id, starts_at) backstops any
// race the locks miss.
type BookingService struct {
	db             TxBeginner
	slotStore      SlotStore
	apptStore      AppointmentStore
	treatmentStore TreatmentStore
	dentistStore   DentistStore
	patientStore   PatientStore
	notifier       notify.Notifier
	settings       ClinicSettings
	logger         *zap.Logger
	now            func() time.Time
}

func NewBookingService(
	db TxBeginner,
	slotStore SlotStore,
	apptStore AppointmentStore,
	treatmentStore TreatmentStore,
	dentistStore DentistStore,
	patientStore PatientStore,
	notifier notify.Notifier,
	settings ClinicSettings,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		db:             db,
		slotStore:      slotStore,
		apptStore:      apptStore,
		treatmentStore: treatmentStore,
		dentistStore:   dentistStore,
		patientStore:   patientStore,
		notifier:       notifier,
		settings:       settings,
		logger:         logger,
		now:            time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

// Book allocates the contiguous slots a treatment needs and creates the
// appointment record set, or fails with a typed error and no partial state.
func (s *BookingService) Book(ctx context.Context, req BookingRequest) (*BookingConfirmation, error) {
	patient, err := s.patientStore.GetByID(ctx, req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	dentist, err := s.dentistStore.GetByID(ctx, req.DentistID)
	if err != nil {
		return nil, fmt.Errorf("get dentist: %w", err)
	}
	if dentist == nil {
		return nil, ErrDentistNotFound
	}

	treatment, err := s.treatmentStore.GetByID(ctx, req.TreatmentID)
	if err != nil {
		return nil, fmt.Errorf("get treatment: %w", err)
	}
	if treatment == nil {
		return nil, ErrTreatmentNotFound
	}

	offered, err := s.treatmentStore.DentistOffers(ctx, req.DentistID, req.TreatmentID)
	if err != nil {
		return nil, fmt.Errorf("check dentist treatment: %w", err)
	}
	if !offered {
		return nil, ErrTreatmentNotOffered
	}

	if s.settings.Closed(req.Day) {
		return nil, ErrClinicClosed
	}
	if req.StartsAt.Before(s.now()) {
		return nil, ErrStartInPast
	}

	required := s.settings.RequiredSlots(treatment.DurationMinutes)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// One active appointment per patient per calendar date.
	booked, err := s.apptStore.PatientHasActiveOnDay(ctx, tx, req.PatientID, req.Day)
	if err != nil {
		return nil, fmt.Errorf("check patient day: %w", err)
	}
	if booked {
		return nil, ErrDayAlreadyBooked
	}

	// Lock more candidates than strictly needed so stale-flagged slots can be
	// walked over before the contiguity check decides.
	candidates, err := s.slotStore.LockFreeFrom(ctx, tx, req.DentistID, req.Day, req.StartsAt, required*2)
	if err != nil {
		return nil, fmt.Errorf("lock candidate slots: %w", err)
	}

	appts, err := s.apptStore.ActiveForDay(ctx, tx, req.DentistID, req.Day)
	if err != nil {
		return nil, fmt.Errorf("get active appointments: %w", err)
	}

	picked, err := pickContiguous(FilterOccupied(candidates, appts), req.StartsAt, required)
	if err != nil {
		return nil, err
	}

	detail := &model.AppointmentDetail{
		PatientID:   req.PatientID,
		DentistID:   req.DentistID,
		TreatmentID: req.TreatmentID,
		Day:         req.Day,
		Note:        req.Note,
	}
	if err := s.apptStore.CreateDetail(ctx, tx, detail); err != nil {
		return nil, fmt.Errorf("create appointment detail: %w", err)
	}

	status := model.AppointmentStatusPending
	if req.Initiator == InitiatorStaff {
		status = model.AppointmentStatusConfirmed
	}

	appt := &model.Appointment{
		DetailID:  detail.ID,
		DentistID: req.DentistID,
		Reference: uuid.New(),
		StartsAt:  picked[0].StartsAt,
		EndsAt:    picked[len(picked)-1].EndsAt,
		Status:    status,
	}
	if err := s.apptStore.Create(ctx, tx, appt); err != nil {
		if base.IsUniqueViolation(err) {
			// A concurrent booking committed the same start time first.
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	slotIDs := make([]int64, len(picked))
	for i, slot := range picked {
		slotIDs[i] = slot.ID
	}

	if err := s.slotStore.MarkConsumed(ctx, tx, slotIDs, req.TreatmentID); err != nil {
		return nil, fmt.Errorf("consume slots: %w", err)
	}
	if err := s.apptStore.LinkSlots(ctx, tx, appt.ID, slotIDs); err != nil {
		return nil, fmt.Errorf("link slots: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Info("Appointment booked",
		zap.Int64("appointment_id", appt.ID),
		zap.Int64("patient_id", req.PatientID),
		zap.Int64("dentist_id", req.DentistID),
		zap.Int64("treatment_id", req.TreatmentID),
		zap.Time("starts_at", appt.StartsAt),
		zap.Int("slots", len(slotIDs)),
		zap.String("status", string(status)),
	)

	s.notifier.Notify(ctx, notify.Event{
		Type:          notify.EventBooked,
		AppointmentID: appt.ID,
		Reference:     appt.Reference.String(),
		PatientName:   patient.FullName,
		PatientEmail:  patient.Email,
		DentistName:   dentist.FullName,
		TreatmentName: treatment.Name,
		StartsAt:      appt.StartsAt,
		EndsAt:        appt.EndsAt,
	})

	return &BookingConfirmation{
		AppointmentID: appt.ID,
		Reference:     appt.Reference.String(),
		DentistName:   dentist.FullName,
		TreatmentName: treatment.Name,
		StartsAt:      appt.StartsAt,
		EndsAt:        appt.EndsAt,
		Status:        status,
		Summary: fmt.Sprintf("%s with %s on %s, %s-%s",
			treatment.Name,
			dentist.FullName,
			appt.StartsAt.Format("2006-01-02"),
			appt.StartsAt.Format("15:04"),
			appt.EndsAt.Format("15:04"),
		),
	}, nil
}

// pickContiguous takes the first required slots from candidates and checks
// they start exactly at the requested time and form one contiguous run.
func pickContiguous(candidates []*model.Slot, startsAt time.Time, required int) ([]*model.Slot, error) {
	if len(candidates) == 0 || !candidates[0].StartsAt.Equal(startsAt) {
		return nil, ErrSlotTaken
	}
	if len(candidates) < required {
		return nil, ErrNoContiguousSlots
	}

	picked := candidates[:required]
	for i := 1; i < len(picked); i++ {
		if !picked[i-1].EndsAt.Equal(picked[i].StartsAt) {
			return nil, ErrNoContiguousSlots
		}
	}

	return picked, nil
}
