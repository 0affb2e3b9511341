package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smilecare/clinic-scheduler/internal/model"
)

type ScheduleRepository struct {
	pool *pgxpool.Pool
}

func NewScheduleRepository(pool *pgxpool.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

// DeleteRange removes all schedule entries of a dentist in [fromDay, toDay]
// inside the given transaction.
func (r *ScheduleRepository) DeleteRange(ctx context.Context, tx pgx.Tx, dentistID int64, fromDay, toDay time.Time) error {
	query := `
		DELETE FROM schedule_entries
		WHERE dentist_id = $1 AND day >= $2 AND day <= $3
	`

	if _, err := tx.Exec(ctx, query, dentistID, fromDay, toDay); err != nil {
		return fmt.Errorf("delete schedule range: %w", err)
	}

	return nil
}

// InsertBatch creates schedule entries inside the given transaction. A unique
// constraint on (dentist_id, day, hour) rejects overlapping blocks.
func (r *ScheduleRepository) InsertBatch(ctx context.Context, tx pgx.Tx, entries []*model.ScheduleEntry) error {
	query := `
		INSERT INTO schedule_entries (dentist_id, day, hour, starts_at, ends_at, status, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	for _, entry := range entries {
		err := tx.QueryRow(
			ctx, query,
			entry.DentistID,
			entry.Day,
			entry.Hour,
			entry.StartsAt,
			entry.EndsAt,
			entry.Status,
			entry.Note,
		).Scan(&entry.ID, &entry.CreatedAt)

		if err != nil {
			return fmt.Errorf("insert schedule entry: %w", err)
		}
	}

	return nil
}

// ForRange returns the schedule entries of a dentist in [fromDay, toDay],
// ordered by start time.
func (r *ScheduleRepository) ForRange(ctx context.Context, dentistID int64, fromDay, toDay time.Time) ([]*model.ScheduleEntry, error) {
	query := `
		SELECT id, dentist_id, day, hour, starts_at, ends_at, status, note, created_at
		FROM schedule_entries
		WHERE dentist_id = $1 AND day >= $2 AND day <= $3
		ORDER BY starts_at
	`

	rows, err := r.pool.Query(ctx, query, dentistID, fromDay, toDay)
	if err != nil {
		return nil, fmt.Errorf("get schedule range: %w", err)
	}
	defer rows.Close()

	var entries []*model.ScheduleEntry
	for rows.Next() {
		var entry model.ScheduleEntry
		err := rows.Scan(
			&entry.ID,
			&entry.DentistID,
			&entry.Day,
			&entry.Hour,
			&entry.StartsAt,
			&entry.EndsAt,
			&entry.Status,
			&entry.Note,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan schedule entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
