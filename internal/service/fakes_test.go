package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/smilecare/clinic-scheduler/internal/model"
	"github.com/smilecare/clinic-scheduler/internal/notify"
	"github.com/smilecare/clinic-scheduler/internal/repository/base"
)

// fakeTx satisfies pgx.Tx for tests; only Commit and Rollback are callable.
type fakeTx struct {
	pgx.Tx
}

func (t *fakeTx) Commit(context.Context) error   { return nil }
func (t *fakeTx) Rollback(context.Context) error { return nil }

type fakeDB struct{}

func (f *fakeDB) Begin(context.Context) (pgx.Tx, error) { return &fakeTx{}, nil }

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505"}
}

// memStore is a shared in-memory database for the store fakes, with the same
// constraints the SQL schema enforces.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	slots      map[int64]*model.Slot
	appts      map[int64]*model.Appointment
	details    map[int64]*model.AppointmentDetail
	links      map[int64][]int64
	records    map[int64]*model.TreatmentRecord
	entries    []*model.ScheduleEntry
	treatments map[int64]*model.Treatment
	offers     map[[2]int64]bool
	dentists   map[int64]*model.Dentist
	patients   map[int64]*model.Patient
}

func newMemStore() *memStore {
	return &memStore{
		slots:      make(map[int64]*model.Slot),
		appts:      make(map[int64]*model.Appointment),
		details:    make(map[int64]*model.AppointmentDetail),
		links:      make(map[int64][]int64),
		records:    make(map[int64]*model.TreatmentRecord),
		treatments: make(map[int64]*model.Treatment),
		offers:     make(map[[2]int64]bool),
		dentists:   make(map[int64]*model.Dentist),
		patients:   make(map[int64]*model.Patient),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addDentist(name string) *model.Dentist {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := &model.Dentist{ID: m.id(), FullName: name, Email: name + "@clinic.test"}
	m.dentists[d.ID] = d
	return d
}

func (m *memStore) addPatient(name string) *model.Patient {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &model.Patient{ID: m.id(), FullName: name, Email: name + "@mail.test"}
	m.patients[p.ID] = p
	return p
}

func (m *memStore) addTreatment(name string, minutes int, dentistIDs ...int64) *model.Treatment {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &model.Treatment{ID: m.id(), Name: name, DurationMinutes: minutes}
	m.treatments[t.ID] = t
	for _, dentistID := range dentistIDs {
		m.offers[[2]int64{dentistID, t.ID}] = true
	}
	return t
}

func (m *memStore) addSlot(dentistID int64, day, start time.Time, granularity time.Duration) *model.Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &model.Slot{
		ID:          m.id(),
		DentistID:   dentistID,
		Day:         day,
		StartsAt:    start,
		EndsAt:      start.Add(granularity),
		IsAvailable: true,
	}
	m.slots[s.ID] = s
	return s
}

func (m *memStore) slotByStart(dentistID int64, start time.Time) *model.Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.slots {
		if s.DentistID == dentistID && s.StartsAt.Equal(start) {
			return s
		}
	}
	return nil
}

// --- SlotStore ---

type fakeSlotStore struct{ m *memStore }

func (f *fakeSlotStore) InsertBatch(_ context.Context, _ pgx.Tx, slots []*model.Slot) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	for _, slot := range slots {
		for _, existing := range f.m.slots {
			if existing.DentistID == slot.DentistID && existing.StartsAt.Equal(slot.StartsAt) {
				return uniqueViolation()
			}
		}
		slot.ID = f.m.id()
		f.m.slots[slot.ID] = slot
	}
	return nil
}

func (f *fakeSlotStore) DeleteRange(_ context.Context, _ pgx.Tx, dentistID int64, fromDay, toDay time.Time) (int64, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var removed int64
	for id, slot := range f.m.slots {
		if slot.DentistID == dentistID && !slot.Day.Before(fromDay) && !slot.Day.After(toDay) {
			delete(f.m.slots, id)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeSlotStore) sortedForDay(dentistID int64, day time.Time, onlyFree bool) []*model.Slot {
	var slots []*model.Slot
	for _, slot := range f.m.slots {
		if slot.DentistID != dentistID || !slot.Day.Equal(day) {
			continue
		}
		if onlyFree && !slot.IsAvailable {
			continue
		}
		copied := *slot
		slots = append(slots, &copied)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartsAt.Before(slots[j].StartsAt) })
	return slots
}

func (f *fakeSlotStore) FreeForDay(_ context.Context, dentistID int64, day time.Time) ([]*model.Slot, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	return f.sortedForDay(dentistID, day, true), nil
}

func (f *fakeSlotStore) ForRange(_ context.Context, dentistID int64, fromDay, toDay time.Time) ([]*model.Slot, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var slots []*model.Slot
	for _, slot := range f.m.slots {
		if slot.DentistID == dentistID && !slot.Day.Before(fromDay) && !slot.Day.After(toDay) {
			copied := *slot
			slots = append(slots, &copied)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartsAt.Before(slots[j].StartsAt) })
	return slots, nil
}

func (f *fakeSlotStore) LockFreeFrom(_ context.Context, _ pgx.Tx, dentistID int64, day, from time.Time, limit int) ([]*model.Slot, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var slots []*model.Slot
	for _, slot := range f.sortedForDay(dentistID, day, true) {
		if slot.StartsAt.Before(from) {
			continue
		}
		slots = append(slots, slot)
		if len(slots) == limit {
			break
		}
	}
	return slots, nil
}

func (f *fakeSlotStore) MarkConsumed(_ context.Context, _ pgx.Tx, slotIDs []int64, treatmentID int64) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	for _, id := range slotIDs {
		slot, ok := f.m.slots[id]
		if !ok || !slot.IsAvailable {
			return uniqueViolation()
		}
		slot.IsAvailable = false
		tid := treatmentID
		slot.TreatmentID = &tid
	}
	return nil
}

func (f *fakeSlotStore) Release(_ context.Context, _ pgx.Tx, slotIDs []int64) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	for _, id := range slotIDs {
		if slot, ok := f.m.slots[id]; ok {
			slot.IsAvailable = true
			slot.TreatmentID = nil
		}
	}
	return nil
}

// --- AppointmentStore ---

type fakeAppointmentStore struct{ m *memStore }

func (f *fakeAppointmentStore) CreateDetail(_ context.Context, _ pgx.Tx, detail *model.AppointmentDetail) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	detail.ID = f.m.id()
	detail.CreatedAt = time.Now()
	copied := *detail
	f.m.details[detail.ID] = &copied
	return nil
}

func (f *fakeAppointmentStore) Create(_ context.Context, _ pgx.Tx, appt *model.Appointment) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	for _, existing := range f.m.appts {
		if existing.DentistID == appt.DentistID &&
			existing.StartsAt.Equal(appt.StartsAt) &&
			existing.Status != model.AppointmentStatusCancelled &&
			existing.Status != model.AppointmentStatusAutoCancelled {
			return uniqueViolation()
		}
	}
	appt.ID = f.m.id()
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = appt.CreatedAt
	copied := *appt
	copied.Detail = f.m.details[appt.DetailID]
	f.m.appts[appt.ID] = &copied
	return nil
}

func (f *fakeAppointmentStore) GetByID(_ context.Context, id int64) (*model.Appointment, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	appt, ok := f.m.appts[id]
	if !ok {
		return nil, nil
	}
	copied := *appt
	return &copied, nil
}

func (f *fakeAppointmentStore) ActiveForDay(_ context.Context, _ base.Querier, dentistID int64, day time.Time) ([]*model.Appointment, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var appts []*model.Appointment
	for _, appt := range f.m.appts {
		if appt.DentistID == dentistID && appt.Status.Active() && appt.Detail != nil && appt.Detail.Day.Equal(day) {
			copied := *appt
			appts = append(appts, &copied)
		}
	}
	sort.Slice(appts, func(i, j int) bool { return appts[i].StartsAt.Before(appts[j].StartsAt) })
	return appts, nil
}

func (f *fakeAppointmentStore) ActiveCountInRange(_ context.Context, _ base.Querier, dentistID int64, fromDay, toDay time.Time) (int64, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var count int64
	for _, appt := range f.m.appts {
		if appt.DentistID != dentistID || appt.Detail == nil {
			continue
		}
		if appt.Status == model.AppointmentStatusCancelled || appt.Status == model.AppointmentStatusAutoCancelled {
			continue
		}
		if !appt.Detail.Day.Before(fromDay) && !appt.Detail.Day.After(toDay) {
			count++
		}
	}
	return count, nil
}

func (f *fakeAppointmentStore) PatientHasActiveOnDay(_ context.Context, _ base.Querier, patientID int64, day time.Time) (bool, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	for _, appt := range f.m.appts {
		if appt.Detail == nil || appt.Detail.PatientID != patientID || !appt.Detail.Day.Equal(day) {
			continue
		}
		if appt.Status != model.AppointmentStatusCancelled && appt.Status != model.AppointmentStatusAutoCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAppointmentStore) UpdateStatus(_ context.Context, _ pgx.Tx, id int64, from []model.AppointmentStatus, to model.AppointmentStatus) (bool, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	appt, ok := f.m.appts[id]
	if !ok {
		return false, nil
	}
	for _, status := range from {
		if appt.Status == status {
			appt.Status = to
			appt.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAppointmentStore) LinkSlots(_ context.Context, _ pgx.Tx, appointmentID int64, slotIDs []int64) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	f.m.links[appointmentID] = append([]int64(nil), slotIDs...)
	return nil
}

func (f *fakeAppointmentStore) SlotIDs(_ context.Context, _ base.Querier, appointmentID int64) ([]int64, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	return append([]int64(nil), f.m.links[appointmentID]...), nil
}

func (f *fakeAppointmentStore) StalePending(_ context.Context, cutoff time.Time) ([]*model.Appointment, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var appts []*model.Appointment
	for _, appt := range f.m.appts {
		if appt.Status == model.AppointmentStatusPending && appt.StartsAt.Before(cutoff) {
			copied := *appt
			appts = append(appts, &copied)
		}
	}
	return appts, nil
}

func (f *fakeAppointmentStore) ListByPatient(_ context.Context, patientID int64) ([]*model.Appointment, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var appts []*model.Appointment
	for _, appt := range f.m.appts {
		if appt.Detail != nil && appt.Detail.PatientID == patientID {
			copied := *appt
			appts = append(appts, &copied)
		}
	}
	sort.Slice(appts, func(i, j int) bool { return appts[i].StartsAt.After(appts[j].StartsAt) })
	return appts, nil
}

// --- ScheduleStore ---

type fakeScheduleStore struct{ m *memStore }

func (f *fakeScheduleStore) DeleteRange(_ context.Context, _ pgx.Tx, dentistID int64, fromDay, toDay time.Time) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	kept := f.m.entries[:0]
	for _, entry := range f.m.entries {
		if entry.DentistID == dentistID && !entry.Day.Before(fromDay) && !entry.Day.After(toDay) {
			continue
		}
		kept = append(kept, entry)
	}
	f.m.entries = kept
	return nil
}

func (f *fakeScheduleStore) InsertBatch(_ context.Context, _ pgx.Tx, entries []*model.ScheduleEntry) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	for _, entry := range entries {
		for _, existing := range f.m.entries {
			if existing.DentistID == entry.DentistID && existing.Day.Equal(entry.Day) && existing.Hour == entry.Hour {
				return uniqueViolation()
			}
		}
		entry.ID = f.m.id()
		f.m.entries = append(f.m.entries, entry)
	}
	return nil
}

func (f *fakeScheduleStore) ForRange(_ context.Context, dentistID int64, fromDay, toDay time.Time) ([]*model.ScheduleEntry, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var entries []*model.ScheduleEntry
	for _, entry := range f.m.entries {
		if entry.DentistID == dentistID && !entry.Day.Before(fromDay) && !entry.Day.After(toDay) {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].StartsAt.Before(entries[j].StartsAt) })
	return entries, nil
}

// --- catalogs ---

type fakeTreatmentStore struct{ m *memStore }

func (f *fakeTreatmentStore) GetByID(_ context.Context, id int64) (*model.Treatment, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	return f.m.treatments[id], nil
}

func (f *fakeTreatmentStore) List(_ context.Context) ([]*model.Treatment, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var treatments []*model.Treatment
	for _, t := range f.m.treatments {
		treatments = append(treatments, t)
	}
	return treatments, nil
}

func (f *fakeTreatmentStore) DentistOffers(_ context.Context, dentistID, treatmentID int64) (bool, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	return f.m.offers[[2]int64{dentistID, treatmentID}], nil
}

type fakeDentistStore struct{ m *memStore }

func (f *fakeDentistStore) GetByID(_ context.Context, id int64) (*model.Dentist, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	return f.m.dentists[id], nil
}

type fakePatientStore struct{ m *memStore }

func (f *fakePatientStore) GetByID(_ context.Context, id int64) (*model.Patient, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	return f.m.patients[id], nil
}

type fakeRecordStore struct{ m *memStore }

func (f *fakeRecordStore) Upsert(_ context.Context, _ pgx.Tx, record *model.TreatmentRecord) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if existing, ok := f.m.records[record.AppointmentID]; ok {
		existing.Diagnosis = record.Diagnosis
		existing.FollowUp = record.FollowUp
		existing.UpdatedAt = time.Now()
		*record = *existing
		return nil
	}
	record.ID = f.m.id()
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	copied := *record
	f.m.records[record.AppointmentID] = &copied
	return nil
}

func (f *fakeRecordStore) GetByAppointmentID(_ context.Context, appointmentID int64) (*model.TreatmentRecord, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	return f.m.records[appointmentID], nil
}

// --- notifier ---

type fakeNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (f *fakeNotifier) Notify(_ context.Context, event notify.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeNotifier) types() []notify.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	var types []notify.EventType
	for _, event := range f.events {
		types = append(types, event.Type)
	}
	return types
}

// --- environment ---

// testEnv wires every fake store around one shared memStore.
type testEnv struct {
	store      *memStore
	slots      *fakeSlotStore
	appts      *fakeAppointmentStore
	schedule   *fakeScheduleStore
	treatments *fakeTreatmentStore
	dentists   *fakeDentistStore
	patients   *fakePatientStore
	records    *fakeRecordStore
	notifier   *fakeNotifier
	settings   ClinicSettings
	logger     *zap.Logger
}

func newTestEnv() *testEnv {
	m := newMemStore()
	return &testEnv{
		store:      m,
		slots:      &fakeSlotStore{m: m},
		appts:      &fakeAppointmentStore{m: m},
		schedule:   &fakeScheduleStore{m: m},
		treatments: &fakeTreatmentStore{m: m},
		dentists:   &fakeDentistStore{m: m},
		patients:   &fakePatientStore{m: m},
		records:    &fakeRecordStore{m: m},
		notifier:   &fakeNotifier{},
		settings:   DefaultClinicSettings(),
		logger:     zap.NewNop(),
	}
}

func (e *testEnv) scheduleService() *ScheduleService {
	return NewScheduleService(&fakeDB{}, e.schedule, e.slots, e.appts, e.dentists, e.settings, e.logger)
}

func (e *testEnv) availabilityService() *AvailabilityService {
	return NewAvailabilityService(nil, e.slots, e.appts, e.treatments, e.logger)
}

func (e *testEnv) bookingService() *BookingService {
	return NewBookingService(&fakeDB{}, e.slots, e.appts, e.treatments, e.dentists, e.patients, e.notifier, e.settings, e.logger)
}

func (e *testEnv) appointmentService() *AppointmentService {
	return NewAppointmentService(&fakeDB{}, e.appts, e.slots, e.records, e.patients, e.dentists, e.treatments, e.notifier, e.logger)
}

// seedDay fills one working day with free granularity slots between the given
// clock hours.
func (e *testEnv) seedDay(dentistID int64, day time.Time, fromHour, toHour int) {
	end := day.Add(time.Duration(toHour) * time.Hour)
	for start := day.Add(time.Duration(fromHour) * time.Hour); start.Before(end); start = start.Add(e.settings.Granularity) {
		e.store.addSlot(dentistID, day, start, e.settings.Granularity)
	}
}

func date(year int, month time.Month, dayOfMonth int) time.Time {
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

func at(day time.Time, hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}
