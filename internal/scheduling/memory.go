package scheduling

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory appointment store mirroring the
// Postgres adapter's semantics, including the guarded insert/update.
// It backs the test suite and any environment without a database.
type MemoryRepository struct {
	mu    sync.Mutex
	appts map[uuid.UUID]Appointment
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{appts: make(map[uuid.UUID]Appointment)}
}

func (r *MemoryRepository) overlappingLocked(vetID uuid.UUID, date Date, start, end TimeOfDay, excludeID uuid.UUID) []Appointment {
	var result []Appointment
	for _, a := range r.appts {
		if a.VetID != vetID || a.Date != date || a.Status == StatusCancelled {
			continue
		}
		if excludeID != uuid.Nil && a.ID == excludeID {
			continue
		}
		if Overlaps(start, end, a.StartTime, a.EndTime) {
			result = append(result, a)
		}
	}
	return result
}

func (r *MemoryRepository) Insert(ctx context.Context, appt Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conflicts := r.overlappingLocked(appt.VetID, appt.Date, appt.StartTime, appt.EndTime, uuid.Nil); len(conflicts) > 0 {
		return nil, &ConflictError{VetID: appt.VetID, Date: appt.Date, Start: appt.StartTime, End: appt.EndTime}
	}

	appt.ID = uuid.New()
	now := time.Now()
	appt.CreatedAt = now
	appt.UpdatedAt = now
	r.appts[appt.ID] = appt

	copied := appt
	return &copied, nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	copied := a
	return &copied, nil
}

func (r *MemoryRepository) FindOverlapping(ctx context.Context, vetID uuid.UUID, date Date, start, end TimeOfDay, excludeID uuid.UUID) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlappingLocked(vetID, date, start, end, excludeID), nil
}

func (r *MemoryRepository) UpdateTimeFields(ctx context.Context, id uuid.UUID, date Date, start, end TimeOfDay, notes string) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if conflicts := r.overlappingLocked(a.VetID, date, start, end, id); len(conflicts) > 0 {
		return nil, &ConflictError{VetID: a.VetID, Date: date, Start: start, End: end}
	}

	a.Date = date
	a.StartTime = start
	a.EndTime = end
	a.Notes = notes
	a.UpdatedAt = time.Now()
	r.appts[id] = a

	copied := a
	return &copied, nil
}

func (r *MemoryRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appts[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}

	a.Status = to
	a.UpdatedAt = time.Now()
	r.appts[id] = a

	copied := a
	return &copied, nil
}

func (r *MemoryRepository) ListByVet(ctx context.Context, vetID uuid.UUID, filter VetAppointmentsFilter) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Appointment
	for _, a := range r.appts {
		if a.VetID != vetID {
			continue
		}
		switch {
		case filter.Date != nil:
			if a.Date != *filter.Date {
				continue
			}
		case filter.Month > 0 && filter.Year > 0:
			if int(a.Date.Month) != filter.Month || a.Date.Year != filter.Year {
				continue
			}
		case filter.Year > 0:
			if a.Date.Year != filter.Year {
				continue
			}
		}
		result = append(result, a)
	}
	sortAppointments(result)
	return result, nil
}

func (r *MemoryRepository) ListTodayByClinic(ctx context.Context, clinicID uuid.UUID, today Date) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Appointment
	for _, a := range r.appts {
		if a.ClinicID == clinicID && a.Date == today {
			result = append(result, a)
		}
	}
	sortAppointments(result)
	return result, nil
}

func sortAppointments(appts []Appointment) {
	sort.Slice(appts, func(i, j int) bool {
		if appts[i].Date != appts[j].Date {
			return appts[i].Date.Before(appts[j].Date)
		}
		return appts[i].StartTime < appts[j].StartTime
	})
}

// MemoryScheduleProvider holds weekly working hours keyed by vet and
// weekday.
type MemoryScheduleProvider struct {
	mu      sync.Mutex
	windows map[uuid.UUID]map[time.Weekday]WorkingWindow
}

func NewMemoryScheduleProvider() *MemoryScheduleProvider {
	return &MemoryScheduleProvider{windows: make(map[uuid.UUID]map[time.Weekday]WorkingWindow)}
}

func (p *MemoryScheduleProvider) GetWorkingWindow(ctx context.Context, vetID uuid.UUID, date Date) (*WorkingWindow, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, ok := p.windows[vetID][date.Weekday()]
	if !ok {
		return nil, ErrScheduleNotFound
	}
	return &w, nil
}

func (p *MemoryScheduleProvider) UpsertSchedule(ctx context.Context, vetID uuid.UUID, day time.Weekday, start, end TimeOfDay) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.windows[vetID] == nil {
		p.windows[vetID] = make(map[time.Weekday]WorkingWindow)
	}
	p.windows[vetID][day] = WorkingWindow{StartTime: start, EndTime: end}
	return nil
}

// MemoryServiceCatalog is a fixed service-type table.
type MemoryServiceCatalog struct {
	durations map[uuid.UUID]int
}

func NewMemoryServiceCatalog(durations map[uuid.UUID]int) *MemoryServiceCatalog {
	return &MemoryServiceCatalog{durations: durations}
}

func (c *MemoryServiceCatalog) GetDuration(ctx context.Context, serviceTypeID uuid.UUID) (int, error) {
	minutes, ok := c.durations[serviceTypeID]
	if !ok {
		return 0, ErrInvalidServiceType
	}
	return minutes, nil
}

// PassthroughLocker runs the critical section without any external lock.
// With the memory repository the guarded insert alone upholds the
// no-overlap invariant; production wiring uses the Redis locker instead.
type PassthroughLocker struct{}

func (PassthroughLocker) WithVetDayLock(ctx context.Context, vetID uuid.UUID, date string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
