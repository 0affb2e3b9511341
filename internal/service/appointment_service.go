package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/smilecare/clinic-scheduler/internal/model"
	"github.com/smilecare/clinic-scheduler/internal/notify"
)

const minDiagnosisLen = 10

// Actor identifies who requests a transition. Exactly one of the fields is
// set; the zero value matches nobody.
type Actor struct {
	PatientID int64
	DentistID int64
}

// AppointmentService drives the appointment lifecycle. Every transition is
// authorized against the appointment's own dentist (or patient, for
// cancellations); foreign appointments look like they do not exist.
type AppointmentService struct {
	db           TxBeginner
	apptStore    AppointmentStore
	slotStore    SlotStore
	recordStore  RecordStore
	patientStore PatientStore
	dentistStore DentistStore
	treatments   TreatmentStore
	notifier     notify.Notifier
	logger       *zap.Logger
	now          func() time.Time
}

func NewAppointmentService(
	db TxBeginner,
	apptStore AppointmentStore,
	slotStore SlotStore,
	recordStore RecordStore,
	patientStore PatientStore,
	dentistStore DentistStore,
	treatments TreatmentStore,
	notifier notify.Notifier,
	logger *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		db:           db,
		apptStore:    apptStore,
		slotStore:    slotStore,
		recordStore:  recordStore,
		patientStore: patientStore,
		dentistStore: dentistStore,
		treatments:   treatments,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *AppointmentService) WithClock(now func() time.Time) *AppointmentService {
	s.now = now
	return s
}

// Confirm moves a pending appointment to confirmed. Staff action.
func (s *AppointmentService) Confirm(ctx context.Context, appointmentID, actingDentistID int64) (*model.Appointment, error) {
	appt, err := s.authorizedDentist(ctx, appointmentID, actingDentistID)
	if err != nil {
		return nil, err
	}

	if !appt.Status.CanTransitionTo(model.AppointmentStatusConfirmed) {
		return nil, &StateError{Current: appt.Status}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	applied, err := s.apptStore.UpdateStatus(ctx, tx, appt.ID, transitionSources(model.AppointmentStatusConfirmed), model.AppointmentStatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if !applied {
		return nil, s.lostTransition(ctx, appt)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	appt.Status = model.AppointmentStatusConfirmed

	s.logger.Info("Appointment confirmed",
		zap.Int64("appointment_id", appt.ID),
		zap.Int64("dentist_id", actingDentistID),
	)
	s.notifier.Notify(ctx, s.event(ctx, appt, notify.EventConfirmed))

	return appt, nil
}

// Cancel moves a pending or confirmed appointment to cancelled and releases
// exactly the slots it consumed, in the same transaction.
func (s *AppointmentService) Cancel(ctx context.Context, appointmentID int64, actor Actor) (*model.Appointment, error) {
	appt, err := s.apptStore.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if appt == nil || !s.mayCancel(appt, actor) {
		return nil, ErrAppointmentNotFound
	}

	if !appt.Status.CanTransitionTo(model.AppointmentStatusCancelled) {
		return nil, &StateError{Current: appt.Status}
	}

	if err := s.cancelTx(ctx, appt, model.AppointmentStatusCancelled); err != nil {
		return nil, err
	}

	s.logger.Info("Appointment cancelled",
		zap.Int64("appointment_id", appt.ID),
		zap.Int64("patient_id", actor.PatientID),
		zap.Int64("dentist_id", actor.DentistID),
	)
	s.notifier.Notify(ctx, s.event(ctx, appt, notify.EventCancelled))

	return appt, nil
}

// Complete closes a visit: status change plus the treatment record, in one
// transaction. The diagnosis is mandatory.
func (s *AppointmentService) Complete(ctx context.Context, appointmentID, actingDentistID int64, diagnosis, followUp string) (*model.Appointment, error) {
	if utf8.RuneCountInString(diagnosis) < minDiagnosisLen {
		return nil, ErrDiagnosisTooShort
	}

	appt, err := s.authorizedDentist(ctx, appointmentID, actingDentistID)
	if err != nil {
		return nil, err
	}

	if !appt.Status.CanTransitionTo(model.AppointmentStatusCompleted) {
		return nil, &StateError{Current: appt.Status}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	applied, err := s.apptStore.UpdateStatus(ctx, tx, appt.ID, transitionSources(model.AppointmentStatusCompleted), model.AppointmentStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if !applied {
		return nil, s.lostTransition(ctx, appt)
	}

	record := &model.TreatmentRecord{
		AppointmentID: appt.ID,
		Diagnosis:     diagnosis,
		FollowUp:      followUp,
	}
	if err := s.recordStore.Upsert(ctx, tx, record); err != nil {
		return nil, fmt.Errorf("write treatment record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	appt.Status = model.AppointmentStatusCompleted

	s.logger.Info("Appointment completed",
		zap.Int64("appointment_id", appt.ID),
		zap.Int64("dentist_id", actingDentistID),
	)
	s.notifier.Notify(ctx, s.event(ctx, appt, notify.EventCompleted))

	return appt, nil
}

// AutoCancelStale cancels pending appointments whose start time has passed.
// Called by the background scheduler; returns how many were cancelled.
func (s *AppointmentService) AutoCancelStale(ctx context.Context) (int, error) {
	stale, err := s.apptStore.StalePending(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("get stale pending appointments: %w", err)
	}

	cancelled := 0
	for _, appt := range stale {
		if err := s.cancelTx(ctx, appt, model.AppointmentStatusAutoCancelled); err != nil {
			// A transition that landed after the stale read wins; the
			// appointment is no longer ours to expire.
			if IsStateError(err) {
				s.logger.Debug("Skipping concurrently transitioned appointment",
					zap.Int64("appointment_id", appt.ID))
				continue
			}
			s.logger.Error("Failed to auto-cancel appointment",
				zap.Int64("appointment_id", appt.ID),
				zap.Error(err),
			)
			continue
		}

		cancelled++
		s.notifier.Notify(ctx, s.event(ctx, appt, notify.EventAutoCancelled))
	}

	if cancelled > 0 {
		s.logger.Info("Auto-cancelled stale appointments", zap.Int("count", cancelled))
	}

	return cancelled, nil
}

// Get returns an appointment visible to the actor, with its treatment record
// when one exists.
func (s *AppointmentService) Get(ctx context.Context, appointmentID int64) (*model.Appointment, *model.TreatmentRecord, error) {
	appt, err := s.apptStore.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, nil, fmt.Errorf("get appointment: %w", err)
	}
	if appt == nil {
		return nil, nil, ErrAppointmentNotFound
	}

	record, err := s.recordStore.GetByAppointmentID(ctx, appointmentID)
	if err != nil {
		return nil, nil, fmt.Errorf("get treatment record: %w", err)
	}

	return appt, record, nil
}

// ListByPatient returns a patient's appointments, newest first.
func (s *AppointmentService) ListByPatient(ctx context.Context, patientID int64) ([]*model.Appointment, error) {
	return s.apptStore.ListByPatient(ctx, patientID)
}

// cancelTx performs the status change and slot release of a cancellation in
// one transaction. The slots stay consumed when the status write loses to a
// concurrent transition.
func (s *AppointmentService) cancelTx(ctx context.Context, appt *model.Appointment, status model.AppointmentStatus) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	applied, err := s.apptStore.UpdateStatus(ctx, tx, appt.ID, transitionSources(status), status)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if !applied {
		return s.lostTransition(ctx, appt)
	}

	slotIDs, err := s.apptStore.SlotIDs(ctx, tx, appt.ID)
	if err != nil {
		return fmt.Errorf("get consumed slots: %w", err)
	}
	if len(slotIDs) > 0 {
		if err := s.slotStore.Release(ctx, tx, slotIDs); err != nil {
			return fmt.Errorf("release slots: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	appt.Status = status
	return nil
}

// authorizedDentist loads an appointment and hides it from other dentists.
func (s *AppointmentService) authorizedDentist(ctx context.Context, appointmentID, actingDentistID int64) (*model.Appointment, error) {
	appt, err := s.apptStore.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if appt == nil {
		return nil, ErrAppointmentNotFound
	}
	if appt.DentistID != actingDentistID {
		s.logger.Debug("Cross-dentist transition attempt",
			zap.Int64("appointment_id", appointmentID),
			zap.Int64("acting_dentist_id", actingDentistID),
			zap.Int64("owner_dentist_id", appt.DentistID),
		)
		return nil, ErrAppointmentNotFound
	}

	return appt, nil
}

// lostTransition builds the rejection for a status write that found the row
// already moved on, reporting the status the row actually holds.
func (s *AppointmentService) lostTransition(ctx context.Context, appt *model.Appointment) error {
	if fresh, err := s.apptStore.GetByID(ctx, appt.ID); err == nil && fresh != nil {
		return &StateError{Current: fresh.Status}
	}
	return &StateError{Current: appt.Status}
}

// transitionSources lists the statuses a transition to next may start from.
func transitionSources(next model.AppointmentStatus) []model.AppointmentStatus {
	all := []model.AppointmentStatus{
		model.AppointmentStatusPending,
		model.AppointmentStatusConfirmed,
		model.AppointmentStatusCompleted,
		model.AppointmentStatusCancelled,
		model.AppointmentStatusAutoCancelled,
	}

	var from []model.AppointmentStatus
	for _, status := range all {
		if status.CanTransitionTo(next) {
			from = append(from, status)
		}
	}
	return from
}

func (s *AppointmentService) mayCancel(appt *model.Appointment, actor Actor) bool {
	if actor.DentistID != 0 {
		return appt.DentistID == actor.DentistID
	}
	if actor.PatientID != 0 && appt.Detail != nil {
		return appt.Detail.PatientID == actor.PatientID
	}
	return false
}

// event assembles a notification payload, filling in whatever display data
// is reachable. Lookups failing here never fail the transition.
func (s *AppointmentService) event(ctx context.Context, appt *model.Appointment, eventType notify.EventType) notify.Event {
	event := notify.Event{
		Type:          eventType,
		AppointmentID: appt.ID,
		Reference:     appt.Reference.String(),
		StartsAt:      appt.StartsAt,
		EndsAt:        appt.EndsAt,
	}

	if appt.Detail == nil {
		return event
	}

	if patient, err := s.patientStore.GetByID(ctx, appt.Detail.PatientID); err == nil && patient != nil {
		event.PatientName = patient.FullName
		event.PatientEmail = patient.Email
	}
	if dentist, err := s.dentistStore.GetByID(ctx, appt.DentistID); err == nil && dentist != nil {
		event.DentistName = dentist.FullName
	}
	if treatment, err := s.treatments.GetByID(ctx, appt.Detail.TreatmentID); err == nil && treatment != nil {
		event.TreatmentName = treatment.Name
	}

	return event
}
