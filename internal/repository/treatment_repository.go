package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smilecare/clinic-scheduler/internal/model"
	"github.com/smilecare/clinic-scheduler/internal/repository/base"
)

type TreatmentRepository struct {
	pool *pgxpool.Pool
}

func NewTreatmentRepository(pool *pgxpool.Pool) *TreatmentRepository {
	return &TreatmentRepository{pool: pool}
}

// GetByID returns a treatment, or nil when it does not exist.
func (r *TreatmentRepository) GetByID(ctx context.Context, id int64) (*model.Treatment, error) {
	query := `
		SELECT id, name, duration_minutes, description
		FROM treatments
		WHERE id = $1
	`

	var treatment model.Treatment
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&treatment.ID,
		&treatment.Name,
		&treatment.DurationMinutes,
		&treatment.Description,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get treatment by id: %w", err)
	}

	return &treatment, nil
}

// List returns the full treatment catalog.
func (r *TreatmentRepository) List(ctx context.Context) ([]*model.Treatment, error) {
	query := `
		SELECT id, name, duration_minutes, description
		FROM treatments
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list treatments: %w", err)
	}
	defer rows.Close()

	var treatments []*model.Treatment
	for rows.Next() {
		var treatment model.Treatment
		err := rows.Scan(
			&treatment.ID,
			&treatment.Name,
			&treatment.DurationMinutes,
			&treatment.Description,
		)
		if err != nil {
			return nil, fmt.Errorf("scan treatment: %w", err)
		}
		treatments = append(treatments, &treatment)
	}

	return treatments, rows.Err()
}

// DentistOffers reports whether the dentist is registered to perform the
// treatment.
func (r *TreatmentRepository) DentistOffers(ctx context.Context, dentistID, treatmentID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM dentist_treatments
			WHERE dentist_id = $1 AND treatment_id = $2
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, dentistID, treatmentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check dentist treatment: %w", err)
	}

	return exists, nil
}
