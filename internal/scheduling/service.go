package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/pawdesk/vetclinic-scheduling/internal/redis"
)

type Service struct {
	repo      Repository
	schedules ScheduleProvider
	catalog   ServiceCatalog
	locker    redisclient.Locker
	now       func() time.Time
}

func NewService(repo Repository, schedules ScheduleProvider, catalog ServiceCatalog, locker redisclient.Locker) *Service {
	return &Service{
		repo:      repo,
		schedules: schedules,
		catalog:   catalog,
		locker:    locker,
		now:       time.Now,
	}
}

// GetAvailableSlots computes the bookable slots for a vet, service type
// and date. This is a snapshot, not a reservation: a returned slot may be
// taken by a concurrent booking before the caller acts on it, in which
// case CreateAppointment will reject with a ConflictError.
func (s *Service) GetAvailableSlots(ctx context.Context, vetID, serviceTypeID uuid.UUID, date Date) ([]Slot, error) {
	window, err := s.schedules.GetWorkingWindow(ctx, vetID, date)
	if err != nil {
		return nil, fmt.Errorf("load working window: %w", err)
	}

	duration, err := s.catalog.GetDuration(ctx, serviceTypeID)
	if err != nil {
		return nil, fmt.Errorf("load service type: %w", err)
	}
	if duration <= 0 {
		return nil, ErrInvalidServiceType
	}

	candidates := GenerateSlots(window.StartTime, window.EndTime, duration)

	booked, err := s.repo.FindOverlapping(ctx, vetID, date, window.StartTime, window.EndTime, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("load booked intervals: %w", err)
	}

	return FilterBooked(candidates, booked), nil
}

type CreateAppointmentInput struct {
	VetID         uuid.UUID
	ClientID      uuid.UUID
	PetID         uuid.UUID
	ServiceTypeID uuid.UUID
	ClinicID      uuid.UUID
	Date          Date
	StartTime     TimeOfDay
	Notes         string
}

// CreateAppointment books a new appointment. The end time is derived from
// the service-type duration, and the conflict check plus insert run under
// a per-vet-per-date lock so two concurrent requests for overlapping
// windows cannot both commit.
func (s *Service) CreateAppointment(ctx context.Context, in CreateAppointmentInput) (*Appointment, error) {
	if in.VetID == uuid.Nil || in.ClientID == uuid.Nil {
		return nil, fmt.Errorf("%w: vet id and client id are required", ErrMissingFields)
	}
	if in.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrMissingFields)
	}
	if in.Date.Before(DateOf(s.now())) {
		return nil, ErrPastDate
	}

	duration, err := s.catalog.GetDuration(ctx, in.ServiceTypeID)
	if err != nil {
		return nil, fmt.Errorf("load service type: %w", err)
	}
	if duration <= 0 {
		return nil, ErrInvalidServiceType
	}
	endTime := in.StartTime.Add(duration)

	var created *Appointment

	err = s.locker.WithVetDayLock(ctx, in.VetID, in.Date.String(), func(lockCtx context.Context) error {
		conflicts, err := s.repo.FindOverlapping(lockCtx, in.VetID, in.Date, in.StartTime, endTime, uuid.Nil)
		if err != nil {
			return fmt.Errorf("check conflicts: %w", err)
		}
		if len(conflicts) > 0 {
			return &ConflictError{
				VetID: in.VetID,
				Date:  conflicts[0].Date,
				Start: conflicts[0].StartTime,
				End:   conflicts[0].EndTime,
			}
		}

		appt, err := s.repo.Insert(lockCtx, Appointment{
			VetID:         in.VetID,
			ClientID:      in.ClientID,
			PetID:         in.PetID,
			ServiceTypeID: in.ServiceTypeID,
			ClinicID:      in.ClinicID,
			Date:          in.Date,
			StartTime:     in.StartTime,
			EndTime:       endTime,
			Status:        StatusScheduled,
			Notes:         in.Notes,
		})
		if err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}

		created = appt
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

type RescheduleInput struct {
	AppointmentID uuid.UUID
	Date          Date
	StartTime     TimeOfDay
	EndTime       TimeOfDay
	Notes         string
}

// RescheduleAppointment moves an existing appointment to a new window.
// The conflict check excludes the appointment itself, so moving an
// appointment onto its own current window succeeds. Status is untouched.
func (s *Service) RescheduleAppointment(ctx context.Context, in RescheduleInput) (*Appointment, error) {
	if in.AppointmentID == uuid.Nil || in.Date.IsZero() || in.Notes == "" {
		return nil, fmt.Errorf("%w: appointment id, date, start time, end time and notes are required", ErrMissingFields)
	}
	if in.StartTime >= in.EndTime {
		return nil, ErrInvalidWindow
	}

	appt, err := s.repo.FindByID(ctx, in.AppointmentID)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	var moved *Appointment

	err = s.locker.WithVetDayLock(ctx, appt.VetID, in.Date.String(), func(lockCtx context.Context) error {
		conflicts, err := s.repo.FindOverlapping(lockCtx, appt.VetID, in.Date, in.StartTime, in.EndTime, appt.ID)
		if err != nil {
			return fmt.Errorf("check conflicts: %w", err)
		}
		if len(conflicts) > 0 {
			return &ConflictError{
				VetID: appt.VetID,
				Date:  conflicts[0].Date,
				Start: conflicts[0].StartTime,
				End:   conflicts[0].EndTime,
			}
		}

		updated, err := s.repo.UpdateTimeFields(lockCtx, appt.ID, in.Date, in.StartTime, in.EndTime, in.Notes)
		if err != nil {
			return fmt.Errorf("update appointment time: %w", err)
		}

		moved = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	return moved, nil
}

// UpdateStatus drives the appointment lifecycle. Transitions are
// validated against the current status; illegal jumps (completed back to
// requested, anything out of a terminal state) are rejected. The update
// itself is a compare-and-swap on the current status, so a concurrent
// transition loses cleanly.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus Status) (string, error) {
	if id == uuid.Nil || newStatus == "" {
		return "", fmt.Errorf("%w: appointment id and status are required", ErrMissingFields)
	}
	if !newStatus.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}

	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("load appointment: %w", err)
	}

	if !appt.Status.CanTransitionTo(newStatus) {
		return "", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, newStatus)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, appt.Status, newStatus)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Row exists but the status moved under us.
			return "", fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
		}
		return "", fmt.Errorf("update status: %w", err)
	}

	return fmt.Sprintf("appointment %s marked as %s", updated.ID, updated.Status), nil
}

// CancelAppointment is the dedicated cancellation path. Once cancelled
// the interval is excluded from all conflict checks and the window is
// immediately bookable again.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: appointment id is required", ErrMissingFields)
	}

	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if !appt.Status.CanTransitionTo(StatusCancelled) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, StatusCancelled)
	}

	cancelled, err := s.repo.UpdateStatus(ctx, id, appt.Status, StatusCancelled)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	return cancelled, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// GetAppointmentsByVet lists a vet's appointments, optionally narrowed to
// a date, a month of a year, or a year.
func (s *Service) GetAppointmentsByVet(ctx context.Context, vetID uuid.UUID, filter VetAppointmentsFilter) ([]Appointment, error) {
	if vetID == uuid.Nil {
		return nil, fmt.Errorf("%w: vet id is required", ErrMissingFields)
	}
	appts, err := s.repo.ListByVet(ctx, vetID, filter)
	if err != nil {
		return nil, fmt.Errorf("list appointments by vet: %w", err)
	}
	return appts, nil
}

// GetTodaySchedule lists a clinic's appointments for the current date,
// ordered by start time.
func (s *Service) GetTodaySchedule(ctx context.Context, clinicID uuid.UUID) ([]Appointment, error) {
	if clinicID == uuid.Nil {
		return nil, fmt.Errorf("%w: clinic id is required", ErrMissingFields)
	}
	appts, err := s.repo.ListTodayByClinic(ctx, clinicID, DateOf(s.now()))
	if err != nil {
		return nil, fmt.Errorf("list today's schedule: %w", err)
	}
	return appts, nil
}

// UpsertWeeklySchedule sets a vet's working hours for one weekday.
func (s *Service) UpsertWeeklySchedule(ctx context.Context, vetID uuid.UUID, day time.Weekday, start, end TimeOfDay) error {
	if vetID == uuid.Nil {
		return fmt.Errorf("%w: vet id is required", ErrMissingFields)
	}
	if start >= end {
		return ErrInvalidWindow
	}
	if err := s.schedules.UpsertSchedule(ctx, vetID, day, start, end); err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}
	return nil
}
