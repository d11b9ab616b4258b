package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrScheduleNotFound    = errors.New("vet schedule not found")
	ErrInvalidServiceType  = errors.New("invalid service type")
	ErrMissingFields       = errors.New("missing required fields")
	ErrPastDate            = errors.New("cannot book an appointment in the past")
	ErrInvalidStatus       = errors.New("unknown appointment status")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInvalidWindow       = errors.New("start time must be before end time")
)

// ConflictError reports a booking attempt against an occupied window.
// The conflicting interval is included so the caller can pick another
// slot.
type ConflictError struct {
	VetID uuid.UUID
	Date  Date
	Start TimeOfDay
	End   TimeOfDay
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("scheduling conflict: vet %s already booked %s %s-%s",
		e.VetID, e.Date, e.Start, e.End)
}

// VetAppointmentsFilter narrows ListByVet. Date wins over Month/Year;
// Month requires Year. Zero values mean no filtering.
type VetAppointmentsFilter struct {
	Date  *Date
	Month int
	Year  int
}

// Repository is the durable appointment store. Implementations must make
// Insert and UpdateTimeFields atomic with respect to the no-overlap
// invariant: committing a row whose interval overlaps a non-cancelled
// row for the same vet and date must fail with ConflictError even when
// the caller's own conflict check raced.
type Repository interface {
	Insert(ctx context.Context, appt Appointment) (*Appointment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// FindOverlapping returns non-cancelled appointments for the vet on
	// the date whose [start,end) interval overlaps the given one.
	// excludeID, when non-nil, omits that appointment (reschedule
	// self-exclusion).
	FindOverlapping(ctx context.Context, vetID uuid.UUID, date Date, start, end TimeOfDay, excludeID uuid.UUID) ([]Appointment, error)

	UpdateTimeFields(ctx context.Context, id uuid.UUID, date Date, start, end TimeOfDay, notes string) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	ListByVet(ctx context.Context, vetID uuid.UUID, filter VetAppointmentsFilter) ([]Appointment, error)
	ListTodayByClinic(ctx context.Context, clinicID uuid.UUID, today Date) ([]Appointment, error)
}

// ScheduleProvider resolves a vet's recurring weekly working hours into
// the window for one date.
type ScheduleProvider interface {
	GetWorkingWindow(ctx context.Context, vetID uuid.UUID, date Date) (*WorkingWindow, error)
	UpsertSchedule(ctx context.Context, vetID uuid.UUID, day time.Weekday, start, end TimeOfDay) error
}

// ServiceCatalog is the read-only service-type reference data.
type ServiceCatalog interface {
	GetDuration(ctx context.Context, serviceTypeID uuid.UUID) (int, error)
}
