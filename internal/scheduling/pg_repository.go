package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRepository is the production appointment store. Dates and times live
// in Postgres date/time columns and cross the wire as text, matching the
// wall-clock semantics of the domain types.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const appointmentColumns = `
	id, vet_id, client_id, pet_id, type_id, clinic_id,
	date::text, start_time::text, end_time::text, status, notes,
	created_at, updated_at
`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var date, start, end, status string

	err := row.Scan(
		&a.ID,
		&a.VetID,
		&a.ClientID,
		&a.PetID,
		&a.ServiceTypeID,
		&a.ClinicID,
		&date,
		&start,
		&end,
		&status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	if a.Date, err = ParseDate(date); err != nil {
		return nil, fmt.Errorf("scan appointment date: %w", err)
	}
	if a.StartTime, err = ParseTimeOfDay(start); err != nil {
		return nil, fmt.Errorf("scan appointment start: %w", err)
	}
	if a.EndTime, err = ParseTimeOfDay(end); err != nil {
		return nil, fmt.Errorf("scan appointment end: %w", err)
	}
	a.Status = Status(status)

	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Insert commits a new appointment only if its interval is still free.
// The guard is part of the statement itself, so even if the caller's
// conflict check raced, two overlapping inserts can never both land: the
// loser sees no row and gets a ConflictError.
func (r *PgRepository) Insert(ctx context.Context, appt Appointment) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments
			(id, vet_id, client_id, pet_id, type_id, clinic_id, date, start_time, end_time, status, notes, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6, $7::date, $8::time, $9::time, $10, $11, now(), now()
		WHERE NOT EXISTS (
			SELECT 1 FROM appointments
			WHERE vet_id = $2
			  AND date = $7::date
			  AND status <> 'cancelled'
			  AND start_time < $9::time
			  AND end_time > $8::time
		)
		RETURNING `+appointmentColumns,
		id, appt.VetID, appt.ClientID, appt.PetID, appt.ServiceTypeID, appt.ClinicID,
		appt.Date.String(), appt.StartTime.String(), appt.EndTime.String(),
		string(appt.Status), appt.Notes,
	)

	created, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, &ConflictError{VetID: appt.VetID, Date: appt.Date, Start: appt.StartTime, End: appt.EndTime}
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) FindByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) FindOverlapping(ctx context.Context, vetID uuid.UUID, date Date, start, end TimeOfDay, excludeID uuid.UUID) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE vet_id = $1
		  AND date = $2::date
		  AND status <> 'cancelled'
		  AND start_time < $4::time
		  AND end_time > $3::time
		  AND ($5::uuid IS NULL OR id <> $5::uuid)
		ORDER BY start_time ASC
	`, vetID, date.String(), start.String(), end.String(), nullableUUID(excludeID))
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

// UpdateTimeFields moves an appointment, guarded the same way as Insert:
// the update only applies while no other non-cancelled appointment of the
// same vet overlaps the new window.
func (r *PgRepository) UpdateTimeFields(ctx context.Context, id uuid.UUID, date Date, start, end TimeOfDay, notes string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments a
		SET date = $2::date,
		    start_time = $3::time,
		    end_time = $4::time,
		    notes = $5,
		    updated_at = now()
		WHERE a.id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM appointments b
			WHERE b.vet_id = a.vet_id
			  AND b.id <> a.id
			  AND b.date = $2::date
			  AND b.status <> 'cancelled'
			  AND b.start_time < $4::time
			  AND b.end_time > $3::time
		  )
		RETURNING `+appointmentColumns,
		id, date.String(), start.String(), end.String(), notes,
	)

	updated, err := scanAppointment(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, ErrAppointmentNotFound) {
		return nil, err
	}

	// No row: either the appointment is gone or the guard blocked it.
	existing, findErr := r.FindByID(ctx, id)
	if findErr != nil {
		return nil, findErr
	}
	return nil, &ConflictError{VetID: existing.VetID, Date: date, Start: start, End: end}
}

// UpdateStatus is a compare-and-swap on the current status. No row means
// the appointment does not exist or its status was no longer `from`.
func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns,
		id, string(to), string(from),
	)
	return scanAppointment(row)
}

func (r *PgRepository) ListByVet(ctx context.Context, vetID uuid.UUID, filter VetAppointmentsFilter) ([]Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE vet_id = $1`
	args := []any{vetID}

	switch {
	case filter.Date != nil:
		args = append(args, filter.Date.String())
		query += fmt.Sprintf(" AND date = $%d::date", len(args))
	case filter.Month > 0 && filter.Year > 0:
		args = append(args, filter.Month)
		query += fmt.Sprintf(" AND EXTRACT(MONTH FROM date) = $%d", len(args))
		args = append(args, filter.Year)
		query += fmt.Sprintf(" AND EXTRACT(YEAR FROM date) = $%d", len(args))
	case filter.Year > 0:
		args = append(args, filter.Year)
		query += fmt.Sprintf(" AND EXTRACT(YEAR FROM date) = $%d", len(args))
	}

	query += " ORDER BY date ASC, start_time ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) ListTodayByClinic(ctx context.Context, clinicID uuid.UUID, today Date) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE clinic_id = $1
		  AND date = $2::date
		ORDER BY start_time ASC
	`, clinicID, today.String())
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func nullableUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
