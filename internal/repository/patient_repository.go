package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smilecare/clinic-scheduler/internal/model"
	"github.com/smilecare/clinic-scheduler/internal/repository/base"
)

type PatientRepository struct {
	pool *pgxpool.Pool
}

func NewPatientRepository(pool *pgxpool.Pool) *PatientRepository {
	return &PatientRepository{pool: pool}
}

// GetByID returns a patient, or nil when they do not exist.
func (r *PatientRepository) GetByID(ctx context.Context, id int64) (*model.Patient, error) {
	query := `
		SELECT id, full_name, email, phone, created_at
		FROM patients
		WHERE id = $1
	`

	var patient model.Patient
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&patient.ID,
		&patient.FullName,
		&patient.Email,
		&patient.Phone,
		&patient.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get patient by id: %w", err)
	}

	return &patient, nil
}
