package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/smilecare/clinic-scheduler/internal/model"
	"github.com/smilecare/clinic-scheduler/internal/repository/base"
)

// AvailabilityService answers "what can still be booked". The slot flag is
// treated as a pre-computed hint; live appointment rows are the ground truth
// and every offered slot is re-checked against them.
type AvailabilityService struct {
	db             base.Querier
	slotStore      SlotStore
	apptStore      AppointmentStore
	treatmentStore TreatmentStore
	logger         *zap.Logger
}

func NewAvailabilityService(
	db base.Querier,
	slotStore SlotStore,
	apptStore AppointmentStore,
	treatmentStore TreatmentStore,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		db:             db,
		slotStore:      slotStore,
		apptStore:      apptStore,
		treatmentStore: treatmentStore,
		logger:         logger,
	}
}

// SlotWindow is one bookable slot in an availability response.
type SlotWindow struct {
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	DurationMinutes int       `json:"duration_minutes"`
}

// FreeSlots returns the dentist's bookable windows on a day, ordered by start
// time. With a treatment it additionally checks the dentist performs it.
// An empty result is not an error.
func (s *AvailabilityService) FreeSlots(ctx context.Context, dentistID int64, day time.Time, treatmentID *int64) ([]SlotWindow, error) {
	if treatmentID != nil {
		treatment, err := s.treatmentStore.GetByID(ctx, *treatmentID)
		if err != nil {
			return nil, fmt.Errorf("get treatment: %w", err)
		}
		if treatment == nil {
			return nil, ErrTreatmentNotFound
		}

		offered, err := s.treatmentStore.DentistOffers(ctx, dentistID, *treatmentID)
		if err != nil {
			return nil, fmt.Errorf("check dentist treatment: %w", err)
		}
		if !offered {
			return nil, ErrTreatmentNotOffered
		}
	}

	slots, err := s.slotStore.FreeForDay(ctx, dentistID, day)
	if err != nil {
		return nil, fmt.Errorf("get free slots: %w", err)
	}

	appts, err := s.apptStore.ActiveForDay(ctx, s.db, dentistID, day)
	if err != nil {
		return nil, fmt.Errorf("get active appointments: %w", err)
	}

	free := FilterOccupied(slots, appts)

	windows := make([]SlotWindow, 0, len(free))
	for _, slot := range free {
		windows = append(windows, SlotWindow{
			StartsAt:        slot.StartsAt,
			EndsAt:          slot.EndsAt,
			DurationMinutes: int(slot.EndsAt.Sub(slot.StartsAt).Minutes()),
		})
	}

	return windows, nil
}

// FilterOccupied drops slots whose span overlaps any of the given
// appointments. It catches flag desync: a slot still flagged available but
// covered by a live appointment is never offered.
func FilterOccupied(slots []*model.Slot, appts []*model.Appointment) []*model.Slot {
	var free []*model.Slot
	for _, slot := range slots {
		occupied := false
		for _, appt := range appts {
			if slot.StartsAt.Before(appt.EndsAt) && appt.StartsAt.Before(slot.EndsAt) {
				occupied = true
				break
			}
		}
		if !occupied {
			free = append(free, slot)
		}
	}
	return free
}
