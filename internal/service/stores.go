package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/smilecare/clinic-scheduler/internal/model"
	"github.com/smilecare/clinic-scheduler/internal/repository/base"
)

// TxBeginner starts database transactions. Satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store interfaces are defined on the consumer side; the concrete
// implementations live in internal/repository. Methods taking a pgx.Tx or a
// base.Querier participate in the caller's transaction.

type ScheduleStore interface {
	DeleteRange(ctx context.Context, tx pgx.Tx, dentistID int64, fromDay, toDay time.Time) error
	InsertBatch(ctx context.Context, tx pgx.Tx, entries []*model.ScheduleEntry) error
	ForRange(ctx context.Context, dentistID int64, fromDay, toDay time.Time) ([]*model.ScheduleEntry, error)
}

type SlotStore interface {
	InsertBatch(ctx context.Context, tx pgx.Tx, slots []*model.Slot) error
	DeleteRange(ctx context.Context, tx pgx.Tx, dentistID int64, fromDay, toDay time.Time) (int64, error)
	FreeForDay(ctx context.Context, dentistID int64, day time.Time) ([]*model.Slot, error)
	ForRange(ctx context.Context, dentistID int64, fromDay, toDay time.Time) ([]*model.Slot, error)
	LockFreeFrom(ctx context.Context, tx pgx.Tx, dentistID int64, day, from time.Time, limit int) ([]*model.Slot, error)
	MarkConsumed(ctx context.Context, tx pgx.Tx, slotIDs []int64, treatmentID int64) error
	Release(ctx context.Context, tx pgx.Tx, slotIDs []int64) error
}

type AppointmentStore interface {
	CreateDetail(ctx context.Context, tx pgx.Tx, detail *model.AppointmentDetail) error
	Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) error
	GetByID(ctx context.Context, id int64) (*model.Appointment, error)
	ActiveForDay(ctx context.Context, q base.Querier, dentistID int64, day time.Time) ([]*model.Appointment, error)
	ActiveCountInRange(ctx context.Context, q base.Querier, dentistID int64, fromDay, toDay time.Time) (int64, error)
	PatientHasActiveOnDay(ctx context.Context, q base.Querier, patientID int64, day time.Time) (bool, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id int64, from []model.AppointmentStatus, to model.AppointmentStatus) (bool, error)
	LinkSlots(ctx context.Context, tx pgx.Tx, appointmentID int64, slotIDs []int64) error
	SlotIDs(ctx context.Context, q base.Querier, appointmentID int64) ([]int64, error)
	StalePending(ctx context.Context, cutoff time.Time) ([]*model.Appointment, error)
	ListByPatient(ctx context.Context, patientID int64) ([]*model.Appointment, error)
}

type TreatmentStore interface {
	GetByID(ctx context.Context, id int64) (*model.Treatment, error)
	List(ctx context.Context) ([]*model.Treatment, error)
	DentistOffers(ctx context.Context, dentistID, treatmentID int64) (bool, error)
}

type DentistStore interface {
	GetByID(ctx context.Context, id int64) (*model.Dentist, error)
}

type PatientStore interface {
	GetByID(ctx context.Context, id int64) (*model.Patient, error)
}

type RecordStore interface {
	Upsert(ctx context.Context, tx pgx.Tx, record *model.TreatmentRecord) error
	GetByAppointmentID(ctx context.Context, appointmentID int64) (*model.TreatmentRecord, error)
}
