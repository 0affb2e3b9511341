package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smilecare/clinic-scheduler/internal/model"
	"github.com/smilecare/clinic-scheduler/internal/repository/base"
)

type TreatmentRecordRepository struct {
	pool *pgxpool.Pool
}

func NewTreatmentRecordRepository(pool *pgxpool.Pool) *TreatmentRecordRepository {
	return &TreatmentRecordRepository{pool: pool}
}

// Upsert creates the record for an appointment or updates the existing one,
// inside the given transaction.
func (r *TreatmentRecordRepository) Upsert(ctx context.Context, tx pgx.Tx, record *model.TreatmentRecord) error {
	query := `
		INSERT INTO treatment_records (appointment_id, diagnosis, follow_up)
		VALUES ($1, $2, $3)
		ON CONFLICT (appointment_id) DO UPDATE
		SET diagnosis = EXCLUDED.diagnosis,
		    follow_up = EXCLUDED.follow_up,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query, record.AppointmentID, record.Diagnosis, record.FollowUp).
		Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert treatment record: %w", err)
	}

	return nil
}

// GetByAppointmentID returns the record of an appointment, or nil when none
// was written yet.
func (r *TreatmentRecordRepository) GetByAppointmentID(ctx context.Context, appointmentID int64) (*model.TreatmentRecord, error) {
	query := `
		SELECT id, appointment_id, diagnosis, follow_up, created_at, updated_at
		FROM treatment_records
		WHERE appointment_id = $1
	`

	var record model.TreatmentRecord
	err := r.pool.QueryRow(ctx, query, appointmentID).Scan(
		&record.ID,
		&record.AppointmentID,
		&record.Diagnosis,
		&record.FollowUp,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get treatment record: %w", err)
	}

	return &record, nil
}
