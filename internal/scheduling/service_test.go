package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc      *Service
	repo     *MemoryRepository
	vetID    uuid.UUID
	clientID uuid.UUID
	petID    uuid.UUID
	typeID   uuid.UUID
	clinicID uuid.UUID
	date     Date // a Monday with a 09:00-12:00 window, one week out
}

// newFixture pins "now" to Tue 2026-09-01 and configures a vet working
// Mondays 09:00-12:00 with a 60 minute service type.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:     NewMemoryRepository(),
		vetID:    uuid.New(),
		clientID: uuid.New(),
		petID:    uuid.New(),
		typeID:   uuid.New(),
		clinicID: uuid.New(),
	}

	schedules := NewMemoryScheduleProvider()
	err := schedules.UpsertSchedule(context.Background(), f.vetID, time.Monday,
		mustTime(t, "09:00"), mustTime(t, "12:00"))
	require.NoError(t, err)

	catalog := NewMemoryServiceCatalog(map[uuid.UUID]int{f.typeID: 60})

	f.svc = NewService(f.repo, schedules, catalog, PassthroughLocker{})
	f.svc.now = func() time.Time {
		return time.Date(2026, time.September, 1, 10, 30, 0, 0, time.UTC)
	}

	f.date = NewDate(2026, time.September, 7)
	return f
}

func (f *fixture) createInput(start string, t *testing.T) CreateAppointmentInput {
	t.Helper()
	return CreateAppointmentInput{
		VetID:         f.vetID,
		ClientID:      f.clientID,
		PetID:         f.petID,
		ServiceTypeID: f.typeID,
		ClinicID:      f.clinicID,
		Date:          f.date,
		StartTime:     mustTime(t, start),
		Notes:         "annual checkup",
	}
}

func TestGetAvailableSlots_FullWindow(t *testing.T) {
	f := newFixture(t)

	slots, err := f.svc.GetAvailableSlots(context.Background(), f.vetID, f.typeID, f.date)
	require.NoError(t, err)

	require.Len(t, slots, 3)
	assert.Equal(t, "09:00", slots[0].Start.String())
	assert.Equal(t, "10:00", slots[1].Start.String())
	assert.Equal(t, "11:00", slots[2].Start.String())
}

func TestGetAvailableSlots_ExcludesBooked(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateAppointment(context.Background(), f.createInput("10:00", t))
	require.NoError(t, err)

	slots, err := f.svc.GetAvailableSlots(context.Background(), f.vetID, f.typeID, f.date)
	require.NoError(t, err)

	require.Len(t, slots, 2)
	assert.Equal(t, "09:00", slots[0].Start.String())
	assert.Equal(t, "11:00", slots[1].Start.String())
}

func TestGetAvailableSlots_IdempotentRead(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateAppointment(context.Background(), f.createInput("09:00", t))
	require.NoError(t, err)

	first, err := f.svc.GetAvailableSlots(context.Background(), f.vetID, f.typeID, f.date)
	require.NoError(t, err)
	second, err := f.svc.GetAvailableSlots(context.Background(), f.vetID, f.typeID, f.date)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGetAvailableSlots_NoSchedule(t *testing.T) {
	f := newFixture(t)

	// Tuesday has no configured hours.
	tuesday := NewDate(2026, time.September, 8)
	_, err := f.svc.GetAvailableSlots(context.Background(), f.vetID, f.typeID, tuesday)
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestGetAvailableSlots_UnknownServiceType(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetAvailableSlots(context.Background(), f.vetID, uuid.New(), f.date)
	assert.ErrorIs(t, err, ErrInvalidServiceType)
}

func TestCreateAppointment_Success(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.CreateAppointment(context.Background(), f.createInput("10:00", t))
	require.NoError(t, err)

	assert.Equal(t, StatusScheduled, appt.Status)
	assert.Equal(t, "10:00", appt.StartTime.String())
	// End time derives from the service-type duration.
	assert.Equal(t, "11:00", appt.EndTime.String())
	assert.NotEqual(t, uuid.Nil, appt.ID)
}

func TestCreateAppointment_ConflictRejected(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.CreateAppointment(context.Background(), f.createInput("10:00", t))
	require.NoError(t, err)

	_, err = f.svc.CreateAppointment(context.Background(), f.createInput("10:00", t))
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first.StartTime, conflict.Start)
	assert.Equal(t, first.EndTime, conflict.End)
}

func TestCreateAppointment_PartialOverlapRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateAppointment(context.Background(), f.createInput("10:00", t))
	require.NoError(t, err)

	// 10:30-11:30 overlaps 10:00-11:00.
	_, err = f.svc.CreateAppointment(context.Background(), f.createInput("10:30", t))
	var conflict *ConflictError
	assert.ErrorAs(t, err, &conflict)

	// Back-to-back 11:00-12:00 does not.
	_, err = f.svc.CreateAppointment(context.Background(), f.createInput("11:00", t))
	assert.NoError(t, err)
}

func TestCreateAppointment_NoOverlapInvariant(t *testing.T) {
	f := newFixture(t)

	for _, start := range []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"} {
		_, _ = f.svc.CreateAppointment(context.Background(), f.createInput(start, t))
	}

	appts, err := f.svc.GetAppointmentsByVet(context.Background(), f.vetID, VetAppointmentsFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, appts)

	for i := range appts {
		for j := range appts {
			if i == j || appts[i].Status == StatusCancelled || appts[j].Status == StatusCancelled {
				continue
			}
			assert.False(t,
				Overlaps(appts[i].StartTime, appts[i].EndTime, appts[j].StartTime, appts[j].EndTime),
				"appointments %s and %s overlap", appts[i].ID, appts[j].ID)
		}
	}
}

func TestCreateAppointment_PastDateRejected(t *testing.T) {
	f := newFixture(t)

	in := f.createInput("10:00", t)
	in.Date = NewDate(2026, time.August, 31) // yesterday
	_, err := f.svc.CreateAppointment(context.Background(), in)
	assert.ErrorIs(t, err, ErrPastDate)
}

func TestCreateAppointment_TodayAllowed(t *testing.T) {
	f := newFixture(t)

	// "Now" is Tue 2026-09-01 10:30; booking today is fine even though
	// the requested start has already passed, only the date matters.
	in := f.createInput("09:00", t)
	in.Date = NewDate(2026, time.September, 1)
	_, err := f.svc.CreateAppointment(context.Background(), in)
	assert.NoError(t, err)
}

func TestCreateAppointment_MissingIDs(t *testing.T) {
	f := newFixture(t)

	in := f.createInput("10:00", t)
	in.VetID = uuid.Nil
	_, err := f.svc.CreateAppointment(context.Background(), in)
	assert.ErrorIs(t, err, ErrMissingFields)

	in = f.createInput("10:00", t)
	in.ClientID = uuid.Nil
	_, err = f.svc.CreateAppointment(context.Background(), in)
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestCreateAppointment_UnknownServiceType(t *testing.T) {
	f := newFixture(t)

	in := f.createInput("10:00", t)
	in.ServiceTypeID = uuid.New()
	_, err := f.svc.CreateAppointment(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidServiceType)
}

func TestReschedule_SelfExclusion(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.CreateAppointment(context.Background(), f.createInput("10:00", t))
	require.NoError(t, err)

	// Moving onto its own current window must not conflict with itself.
	moved, err := f.svc.RescheduleAppointment(context.Background(), RescheduleInput{
		AppointmentID: appt.ID,
		Date:          appt.Date,
		StartTime:     appt.StartTime,
		EndTime:       appt.EndTime,
		Notes:         "unchanged window",
	})
	require.NoError(t, err)
	assert.Equal(t, appt.StartTime, moved.StartTime)
	assert.Equal(t, "unchanged window", moved.Notes)
	assert.Equal(t, appt.Status, moved.Status)
}

func TestReschedule_ConflictRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateAppointment(context.Background(), f.createInput("09:00", t))
	require.NoError(t, err)
	second, err := f.svc.CreateAppointment(context.Background(), f.createInput("11:00", t))
	require.NoError(t, err)

	_, err = f.svc.RescheduleAppointment(context.Background(), RescheduleInput{
		AppointmentID: second.ID,
		Date:          f.date,
		StartTime:     mustTime(t, "09:30"),
		EndTime:       mustTime(t, "10:30"),
		Notes:         "trying an occupied window",
	})
	var conflict *ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestReschedule_MissingFields(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.CreateAppointment(context.Background(), f.createInput("10:00", t))
	require.NoError(t, err)

	_, err = f.svc.RescheduleAppointment(context.Background(), RescheduleInput{
		AppointmentID: appt.ID,
		Date:          f.date,
		StartTime:     mustTime(t, "09:00"),
		EndTime:       mustTime(t, "10:00"),
		// Notes missing
	})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestReschedule_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RescheduleAppointment(context.Background(), RescheduleInput{
		AppointmentID: uuid.New(),
		Date:          f.date,
		StartTime:     mustTime(t, "09:00"),
		EndTime:       mustTime(t, "10:00"),
		Notes:         "ghost",
	})
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestReschedule_InvertedWindow(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.CreateAppointment(context.Background(), f.createInput("10:00", t))
	require.NoError(t, err)

	_, err = f.svc.RescheduleAppointment(context.Background(), RescheduleInput{
		AppointmentID: appt.ID,
		Date:          f.date,
		StartTime:     mustTime(t, "11:00"),
		EndTime:       mustTime(t, "10:00"),
		Notes:         "backwards",
	})
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestUpdateStatus_ScheduledToCompleted(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.CreateAppointment(context.Background(), f.createInput("10:00", t))
	require.NoError(t, err)

	msg, err := f.svc.UpdateStatus(context.Background(), appt.ID, StatusCompleted)
	require.NoError(t, err)
	assert.Contains(t, msg, appt.ID.String())
	assert.Contains(t, msg, "completed")
}

func TestUpdateStatus_IllegalJump(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.CreateAppointment(context.Background(), f.createInput("10:00", t))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), appt.ID, StatusCompleted)
	require.NoError(t, err)

	// completed is terminal
	_, err = f.svc.UpdateStatus(context.Background(), appt.ID, StatusScheduled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.svc.UpdateStatus(context.Background(), appt.ID, StatusRequested)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.CreateAppointment(context.Background(), f.createInput("10:00", t))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), appt.ID, Status("confirmed"))
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateStatus(context.Background(), uuid.New(), StatusCompleted)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestCancel_FreesTheSlot(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.CreateAppointment(context.Background(), f.createInput("10:00", t))
	require.NoError(t, err)

	cancelled, err := f.svc.CancelAppointment(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	// The freed window is immediately bookable again.
	rebooked, err := f.svc.CreateAppointment(context.Background(), f.createInput("10:00", t))
	require.NoError(t, err)
	assert.NotEqual(t, appt.ID, rebooked.ID)

	// And it shows up in availability again.
	slots, err := f.svc.GetAvailableSlots(context.Background(), f.vetID, f.typeID, f.date)
	require.NoError(t, err)
	assert.Len(t, slots, 2)
}

func TestCancel_AlreadyCancelled(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.CreateAppointment(context.Background(), f.createInput("10:00", t))
	require.NoError(t, err)

	_, err = f.svc.CancelAppointment(context.Background(), appt.ID)
	require.NoError(t, err)

	_, err = f.svc.CancelAppointment(context.Background(), appt.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGetAppointmentsByVet_Filters(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateAppointment(context.Background(), f.createInput("09:00", t))
	require.NoError(t, err)
	_, err = f.svc.CreateAppointment(context.Background(), f.createInput("11:00", t))
	require.NoError(t, err)

	byDate, err := f.svc.GetAppointmentsByVet(context.Background(), f.vetID, VetAppointmentsFilter{Date: &f.date})
	require.NoError(t, err)
	assert.Len(t, byDate, 2)
	// Ordered by start time.
	assert.Equal(t, "09:00", byDate[0].StartTime.String())
	assert.Equal(t, "11:00", byDate[1].StartTime.String())

	byMonth, err := f.svc.GetAppointmentsByVet(context.Background(), f.vetID, VetAppointmentsFilter{Month: 9, Year: 2026})
	require.NoError(t, err)
	assert.Len(t, byMonth, 2)

	otherYear, err := f.svc.GetAppointmentsByVet(context.Background(), f.vetID, VetAppointmentsFilter{Year: 2025})
	require.NoError(t, err)
	assert.Empty(t, otherYear)
}

func TestGetTodaySchedule(t *testing.T) {
	f := newFixture(t)

	in := f.createInput("14:00", t)
	in.Date = NewDate(2026, time.September, 1) // "today" in the fixture
	_, err := f.svc.CreateAppointment(context.Background(), in)
	require.NoError(t, err)

	today, err := f.svc.GetTodaySchedule(context.Background(), f.clinicID)
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, "14:00", today[0].StartTime.String())

	other, err := f.svc.GetTodaySchedule(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestUpsertWeeklySchedule_Validation(t *testing.T) {
	f := newFixture(t)

	err := f.svc.UpsertWeeklySchedule(context.Background(), uuid.Nil, time.Monday,
		mustTime(t, "09:00"), mustTime(t, "17:00"))
	assert.ErrorIs(t, err, ErrMissingFields)

	err = f.svc.UpsertWeeklySchedule(context.Background(), f.vetID, time.Monday,
		mustTime(t, "17:00"), mustTime(t, "09:00"))
	assert.ErrorIs(t, err, ErrInvalidWindow)
}
