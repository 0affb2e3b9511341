package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smilecare/clinic-scheduler/internal/model"
	"github.com/smilecare/clinic-scheduler/internal/repository/base"
)

type AppointmentRepository struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepository(pool *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

// CreateDetail inserts the detail row of an appointment pair inside the
// given transaction.
func (r *AppointmentRepository) CreateDetail(ctx context.Context, tx pgx.Tx, detail *model.AppointmentDetail) error {
	query := `
		INSERT INTO appointment_details (patient_id, dentist_id, treatment_id, day, note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := tx.QueryRow(
		ctx, query,
		detail.PatientID,
		detail.DentistID,
		detail.TreatmentID,
		detail.Day,
		detail.Note,
	).Scan(&detail.ID, &detail.CreatedAt)

	if err != nil {
		return fmt.Errorf("create appointment detail: %w", err)
	}

	return nil
}

// Create inserts the appointment row inside the given transaction. The partial
// unique index on (dentist_id, starts_at) over non-cancelled rows makes the
// second of two racing bookings fail here.
func (r *AppointmentRepository) Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) error {
	query := `
		INSERT INTO appointments (detail_id, dentist_id, reference, starts_at, ends_at, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(
		ctx, query,
		appt.DetailID,
		appt.DentistID,
		appt.Reference,
		appt.StartsAt,
		appt.EndsAt,
		appt.Status,
	).Scan(&appt.ID, &appt.CreatedAt, &appt.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}

	return nil
}

const appointmentSelect = `
	SELECT a.id, a.detail_id, a.dentist_id, a.reference, a.starts_at, a.ends_at,
	       a.status, a.created_at, a.updated_at,
	       d.id, d.patient_id, d.dentist_id, d.treatment_id, d.day, d.note, d.created_at
	FROM appointments a
	JOIN appointment_details d ON d.id = a.detail_id
`

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	var appt model.Appointment
	var detail model.AppointmentDetail

	err := row.Scan(
		&appt.ID,
		&appt.DetailID,
		&appt.DentistID,
		&appt.Reference,
		&appt.StartsAt,
		&appt.EndsAt,
		&appt.Status,
		&appt.CreatedAt,
		&appt.UpdatedAt,
		&detail.ID,
		&detail.PatientID,
		&detail.DentistID,
		&detail.TreatmentID,
		&detail.Day,
		&detail.Note,
		&detail.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	appt.Detail = &detail
	return &appt, nil
}

// GetByID returns the appointment with its detail row, or nil when it does
// not exist.
func (r *AppointmentRepository) GetByID(ctx context.Context, id int64) (*model.Appointment, error) {
	appt, err := scanAppointment(r.pool.QueryRow(ctx, appointmentSelect+` WHERE a.id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get appointment by id: %w", err)
	}

	return appt, nil
}

// ActiveForDay returns the non-cancelled appointments of a dentist whose span
// falls on the given day. Runs on q so the booking path can call it inside
// its transaction.
func (r *AppointmentRepository) ActiveForDay(ctx context.Context, q base.Querier, dentistID int64, day time.Time) ([]*model.Appointment, error) {
	query := appointmentSelect + `
		WHERE a.dentist_id = $1
		  AND d.day = $2
		  AND a.status IN ('pending', 'confirmed')
		ORDER BY a.starts_at
	`

	rows, err := q.Query(ctx, query, dentistID, day)
	if err != nil {
		return nil, fmt.Errorf("get active appointments for day: %w", err)
	}
	defer rows.Close()

	var appts []*model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, appt)
	}

	return appts, rows.Err()
}

// ActiveCountInRange counts the non-cancelled appointments of a dentist with
// a visit day inside [fromDay, toDay].
func (r *AppointmentRepository) ActiveCountInRange(ctx context.Context, q base.Querier, dentistID int64, fromDay, toDay time.Time) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM appointments a
		JOIN appointment_details d ON d.id = a.detail_id
		WHERE a.dentist_id = $1
		  AND d.day >= $2 AND d.day <= $3
		  AND a.status NOT IN ('cancelled', 'auto_cancelled')
	`

	var count int64
	if err := q.QueryRow(ctx, query, dentistID, fromDay, toDay).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active appointments in range: %w", err)
	}

	return count, nil
}

// PatientHasActiveOnDay reports whether the patient already has a
// non-cancelled appointment on the given calendar date.
func (r *AppointmentRepository) PatientHasActiveOnDay(ctx context.Context, q base.Querier, patientID int64, day time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1
			FROM appointments a
			JOIN appointment_details d ON d.id = a.detail_id
			WHERE d.patient_id = $1
			  AND d.day = $2
			  AND a.status NOT IN ('cancelled', 'auto_cancelled')
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, patientID, day).Scan(&exists); err != nil {
		return false, fmt.Errorf("check patient day: %w", err)
	}

	return exists, nil
}

// UpdateStatus moves an appointment to the given status inside the
// transaction, but only while the row is still in one of the expected source
// statuses. Returns false when it no longer is, so the later of two racing
// transitions loses instead of overwriting the earlier one.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id int64, from []model.AppointmentStatus, to model.AppointmentStatus) (bool, error) {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = ANY($3)
	`

	sources := make([]string, len(from))
	for i, status := range from {
		sources[i] = string(status)
	}

	tag, err := tx.Exec(ctx, query, to, id, sources)
	if err != nil {
		return false, fmt.Errorf("update appointment status: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// LinkSlots records the ordered list of slots consumed by an appointment.
func (r *AppointmentRepository) LinkSlots(ctx context.Context, tx pgx.Tx, appointmentID int64, slotIDs []int64) error {
	query := `
		INSERT INTO appointment_slots (appointment_id, slot_id, position)
		VALUES ($1, $2, $3)
	`

	for i, slotID := range slotIDs {
		if _, err := tx.Exec(ctx, query, appointmentID, slotID, i); err != nil {
			return fmt.Errorf("link slot: %w", err)
		}
	}

	return nil
}

// SlotIDs returns the slots an appointment consumed, in consumption order.
func (r *AppointmentRepository) SlotIDs(ctx context.Context, q base.Querier, appointmentID int64) ([]int64, error) {
	query := `
		SELECT slot_id
		FROM appointment_slots
		WHERE appointment_id = $1
		ORDER BY position
	`

	rows, err := q.Query(ctx, query, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("get appointment slots: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan slot id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// StalePending returns pending appointments whose start time has passed.
func (r *AppointmentRepository) StalePending(ctx context.Context, cutoff time.Time) ([]*model.Appointment, error) {
	query := appointmentSelect + `
		WHERE a.status = 'pending' AND a.starts_at < $1
		ORDER BY a.starts_at
	`

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("get stale pending appointments: %w", err)
	}
	defer rows.Close()

	var appts []*model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, appt)
	}

	return appts, rows.Err()
}

// ListByPatient returns the appointments of a patient, newest first.
func (r *AppointmentRepository) ListByPatient(ctx context.Context, patientID int64) ([]*model.Appointment, error) {
	query := appointmentSelect + `
		WHERE d.patient_id = $1
		ORDER BY a.starts_at DESC
	`

	rows, err := r.pool.Query(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("get appointments by patient: %w", err)
	}
	defer rows.Close()

	var appts []*model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, appt)
	}

	return appts, rows.Err()
}
