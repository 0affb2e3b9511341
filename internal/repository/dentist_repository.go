package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smilecare/clinic-scheduler/internal/model"
	"github.com/smilecare/clinic-scheduler/internal/repository/base"
)

type DentistRepository struct {
	pool *pgxpool.Pool
}

func NewDentistRepository(pool *pgxpool.Pool) *DentistRepository {
	return &DentistRepository{pool: pool}
}

// GetByID returns a dentist, or nil when they do not exist.
func (r *DentistRepository) GetByID(ctx context.Context, id int64) (*model.Dentist, error) {
	query := `
		SELECT id, full_name, email, created_at
		FROM dentists
		WHERE id = $1
	`

	var dentist model.Dentist
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&dentist.ID,
		&dentist.FullName,
		&dentist.Email,
		&dentist.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get dentist by id: %w", err)
	}

	return &dentist, nil
}
