package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smilecare/clinic-scheduler/internal/model"
)

type SlotRepository struct {
	pool *pgxpool.Pool
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

const slotColumns = `id, dentist_id, day, starts_at, ends_at, is_available, treatment_id, created_at`

func scanSlot(row pgx.Row) (*model.Slot, error) {
	var slot model.Slot
	err := row.Scan(
		&slot.ID,
		&slot.DentistID,
		&slot.Day,
		&slot.StartsAt,
		&slot.EndsAt,
		&slot.IsAvailable,
		&slot.TreatmentID,
		&slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func collectSlots(rows pgx.Rows) ([]*model.Slot, error) {
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// InsertBatch creates generated slots inside the given transaction. A unique
// constraint on (dentist_id, starts_at) rejects duplicate inventory.
func (r *SlotRepository) InsertBatch(ctx context.Context, tx pgx.Tx, slots []*model.Slot) error {
	query := `
		INSERT INTO slots (dentist_id, day, starts_at, ends_at, is_available)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	for _, slot := range slots {
		err := tx.QueryRow(
			ctx, query,
			slot.DentistID,
			slot.Day,
			slot.StartsAt,
			slot.EndsAt,
			slot.IsAvailable,
		).Scan(&slot.ID, &slot.CreatedAt)

		if err != nil {
			return fmt.Errorf("insert slot: %w", err)
		}
	}

	return nil
}

// DeleteRange removes all slots of a dentist in [fromDay, toDay] inside the
// given transaction and returns the number of rows removed.
func (r *SlotRepository) DeleteRange(ctx context.Context, tx pgx.Tx, dentistID int64, fromDay, toDay time.Time) (int64, error) {
	query := `
		DELETE FROM slots
		WHERE dentist_id = $1 AND day >= $2 AND day <= $3
	`

	tag, err := tx.Exec(ctx, query, dentistID, fromDay, toDay)
	if err != nil {
		return 0, fmt.Errorf("delete slots in range: %w", err)
	}

	return tag.RowsAffected(), nil
}

// FreeForDay returns the available slots of a dentist on a day, ordered by
// start time. The availability flag is a hint; callers re-check appointments.
func (r *SlotRepository) FreeForDay(ctx context.Context, dentistID int64, day time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE dentist_id = $1 AND day = $2 AND is_available
		ORDER BY starts_at
	`

	rows, err := r.pool.Query(ctx, query, dentistID, day)
	if err != nil {
		return nil, fmt.Errorf("get free slots: %w", err)
	}

	return collectSlots(rows)
}

// ForRange returns all slots of a dentist in [from, to], ordered by start time.
func (r *SlotRepository) ForRange(ctx context.Context, dentistID int64, fromDay, toDay time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE dentist_id = $1 AND day >= $2 AND day <= $3
		ORDER BY starts_at
	`

	rows, err := r.pool.Query(ctx, query, dentistID, fromDay, toDay)
	if err != nil {
		return nil, fmt.Errorf("get slots in range: %w", err)
	}

	return collectSlots(rows)
}

// LockFreeFrom locks and returns up to limit available slots of a dentist on a
// day starting at or after the given time. The row locks hold until the
// transaction ends, so two concurrent bookings cannot consume the same slot.
func (r *SlotRepository) LockFreeFrom(ctx context.Context, tx pgx.Tx, dentistID int64, day, from time.Time, limit int) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE dentist_id = $1 AND day = $2 AND starts_at >= $3 AND is_available
		ORDER BY starts_at
		LIMIT $4
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, dentistID, day, from, limit)
	if err != nil {
		return nil, fmt.Errorf("lock free slots: %w", err)
	}

	return collectSlots(rows)
}

// MarkConsumed flips the given slots to unavailable and tags them with the
// treatment. Fails if any of them was no longer available.
func (r *SlotRepository) MarkConsumed(ctx context.Context, tx pgx.Tx, slotIDs []int64, treatmentID int64) error {
	query := `
		UPDATE slots
		SET is_available = FALSE, treatment_id = $1
		WHERE id = ANY($2) AND is_available
	`

	tag, err := tx.Exec(ctx, query, treatmentID, slotIDs)
	if err != nil {
		return fmt.Errorf("mark slots consumed: %w", err)
	}

	if tag.RowsAffected() != int64(len(slotIDs)) {
		return fmt.Errorf("slots no longer available: wanted %d, consumed %d", len(slotIDs), tag.RowsAffected())
	}

	return nil
}

// Release flips the given slots back to available and clears the treatment tag.
func (r *SlotRepository) Release(ctx context.Context, tx pgx.Tx, slotIDs []int64) error {
	query := `
		UPDATE slots
		SET is_available = TRUE, treatment_id = NULL
		WHERE id = ANY($1)
	`

	if _, err := tx.Exec(ctx, query, slotIDs); err != nil {
		return fmt.Errorf("release slots: %w", err)
	}

	return nil
}
