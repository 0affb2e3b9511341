package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/smilecare/clinic-scheduler/internal/model"
	"github.com/smilecare/clinic-scheduler/internal/repository/base"
)

// ScheduleService writes dentist schedules and expands them into slot
// inventory. Writing a range replaces whatever was there before; a range that
// still holds booked appointments is refused.
type ScheduleService struct {
	db            TxBeginner
	scheduleStore ScheduleStore
	slotStore     SlotStore
	apptStore     AppointmentStore
	dentistStore  DentistStore
	settings      ClinicSettings
	logger        *zap.Logger
}

func NewScheduleService(
	db TxBeginner,
	scheduleStore ScheduleStore,
	slotStore SlotStore,
	apptStore AppointmentStore,
	dentistStore DentistStore,
	settings ClinicSettings,
	logger *zap.Logger,
) *ScheduleService {
	return &ScheduleService{
		db:            db,
		scheduleStore: scheduleStore,
		slotStore:     slotStore,
		apptStore:     apptStore,
		dentistStore:  dentistStore,
		settings:      settings,
		logger:        logger,
	}
}

// ScheduleRangeInput is a bulk schedule write for one dentist. WorkStart and
// WorkEnd are offsets from midnight and only apply to working days.
type ScheduleRangeInput struct {
	DentistID int64
	StartDate time.Time
	EndDate   time.Time
	Status    model.ScheduleStatus
	WorkStart time.Duration
	WorkEnd   time.Duration
	Note      string
}

type ScheduleRangeResult struct {
	DaysWritten       int `json:"days_written"`
	ClosedDaysSkipped int `json:"closed_days_skipped"`
	SlotsCreated      int `json:"slots_created"`
}

// SetScheduleRange replaces the dentist's schedule entries and generated
// slots for [StartDate, EndDate] in one transaction. Configured closed
// weekdays are skipped entirely and counted in the result.
func (s *ScheduleService) SetScheduleRange(ctx context.Context, input ScheduleRangeInput) (*ScheduleRangeResult, error) {
	dentist, err := s.dentistStore.GetByID(ctx, input.DentistID)
	if err != nil {
		return nil, fmt.Errorf("get dentist: %w", err)
	}
	if dentist == nil {
		return nil, ErrDentistNotFound
	}

	if input.EndDate.Before(input.StartDate) {
		return nil, ErrInvalidRange
	}
	if input.Status == model.ScheduleStatusWorking && input.WorkEnd <= input.WorkStart {
		return nil, ErrInvalidRange
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// An appointment inside the range pins the old schedule.
	active, err := s.apptStore.ActiveCountInRange(ctx, tx, input.DentistID, input.StartDate, input.EndDate)
	if err != nil {
		return nil, fmt.Errorf("count active appointments: %w", err)
	}
	if active > 0 {
		return nil, ErrScheduleHasBookings
	}

	if err := s.scheduleStore.DeleteRange(ctx, tx, input.DentistID, input.StartDate, input.EndDate); err != nil {
		return nil, fmt.Errorf("clear schedule range: %w", err)
	}
	if _, err := s.slotStore.DeleteRange(ctx, tx, input.DentistID, input.StartDate, input.EndDate); err != nil {
		return nil, fmt.Errorf("clear slot range: %w", err)
	}

	var entries []*model.ScheduleEntry
	var slots []*model.Slot
	result := &ScheduleRangeResult{}

	for day := input.StartDate; !day.After(input.EndDate); day = day.AddDate(0, 0, 1) {
		if s.settings.Closed(day) {
			result.ClosedDaysSkipped++
			continue
		}

		if input.Status == model.ScheduleStatusDayOff {
			entries = append(entries, &model.ScheduleEntry{
				DentistID: input.DentistID,
				Day:       day,
				Hour:      0,
				StartsAt:  day,
				EndsAt:    day,
				Status:    model.ScheduleStatusDayOff,
				Note:      input.Note,
			})
			result.DaysWritten++
			continue
		}

		entries = append(entries, s.workingEntries(input, day)...)
		slots = append(slots, s.generateSlots(input, day)...)
		result.DaysWritten++
	}

	if err := s.scheduleStore.InsertBatch(ctx, tx, entries); err != nil {
		if base.IsUniqueViolation(err) {
			return nil, ErrInventoryExists
		}
		return nil, fmt.Errorf("write schedule entries: %w", err)
	}

	if err := s.slotStore.InsertBatch(ctx, tx, slots); err != nil {
		if base.IsUniqueViolation(err) {
			return nil, ErrInventoryExists
		}
		return nil, fmt.Errorf("write slots: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	result.SlotsCreated = len(slots)

	s.logger.Info("Schedule range written",
		zap.Int64("dentist_id", input.DentistID),
		zap.String("status", string(input.Status)),
		zap.Int("days_written", result.DaysWritten),
		zap.Int("closed_days_skipped", result.ClosedDaysSkipped),
		zap.Int("slots_created", result.SlotsCreated),
	)

	return result, nil
}

// workingEntries splits a working day into one entry per hour-of-day bucket.
func (s *ScheduleService) workingEntries(input ScheduleRangeInput, day time.Time) []*model.ScheduleEntry {
	workStart := day.Add(input.WorkStart)
	workEnd := day.Add(input.WorkEnd)

	var entries []*model.ScheduleEntry
	firstHour := int(input.WorkStart / time.Hour)
	lastHour := int((input.WorkEnd - time.Minute) / time.Hour)

	for hour := firstHour; hour <= lastHour; hour++ {
		bucketStart := day.Add(time.Duration(hour) * time.Hour)
		bucketEnd := bucketStart.Add(time.Hour)

		startsAt := bucketStart
		if workStart.After(startsAt) {
			startsAt = workStart
		}
		endsAt := bucketEnd
		if workEnd.Before(endsAt) {
			endsAt = workEnd
		}

		entries = append(entries, &model.ScheduleEntry{
			DentistID: input.DentistID,
			Day:       day,
			Hour:      hour,
			StartsAt:  startsAt,
			EndsAt:    endsAt,
			Status:    model.ScheduleStatusWorking,
			Note:      input.Note,
		})
	}

	return entries
}

// generateSlots expands a working day into granularity-sized slots. A tail
// shorter than one granularity unit is dropped.
func (s *ScheduleService) generateSlots(input ScheduleRangeInput, day time.Time) []*model.Slot {
	workEnd := day.Add(input.WorkEnd)

	var slots []*model.Slot
	for start := day.Add(input.WorkStart); !start.Add(s.settings.Granularity).After(workEnd); start = start.Add(s.settings.Granularity) {
		slots = append(slots, &model.Slot{
			DentistID:   input.DentistID,
			Day:         day,
			StartsAt:    start,
			EndsAt:      start.Add(s.settings.Granularity),
			IsAvailable: true,
		})
	}

	return slots
}

// Range returns the schedule entries of a dentist for [fromDay, toDay].
func (s *ScheduleService) Range(ctx context.Context, dentistID int64, fromDay, toDay time.Time) ([]*model.ScheduleEntry, error) {
	return s.scheduleStore.ForRange(ctx, dentistID, fromDay, toDay)
}

// Slots returns all slots of a dentist for [fromDay, toDay].
func (s *ScheduleService) Slots(ctx context.Context, dentistID int64, fromDay, toDay time.Time) ([]*model.Slot, error) {
	return s.slotStore.ForRange(ctx, dentistID, fromDay, toDay)
}
