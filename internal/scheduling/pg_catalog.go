package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgScheduleProvider resolves working windows from the vet_schedules
// table, which holds one row per vet per weekday. When a vet has several
// rows for the same weekday the lowest schedule_id wins.
type PgScheduleProvider struct {
	pool *pgxpool.Pool
}

func NewPgScheduleProvider(pool *pgxpool.Pool) *PgScheduleProvider {
	return &PgScheduleProvider{pool: pool}
}

func (p *PgScheduleProvider) GetWorkingWindow(ctx context.Context, vetID uuid.UUID, date Date) (*WorkingWindow, error) {
	var start, end string

	err := p.pool.QueryRow(ctx, `
		SELECT start_time::text, end_time::text
		FROM vet_schedules
		WHERE vet_id = $1 AND day_of_week = $2
		ORDER BY schedule_id
		LIMIT 1
	`, vetID, int(date.Weekday())).Scan(&start, &end)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}

	var w WorkingWindow
	if w.StartTime, err = ParseTimeOfDay(start); err != nil {
		return nil, fmt.Errorf("scan schedule start: %w", err)
	}
	if w.EndTime, err = ParseTimeOfDay(end); err != nil {
		return nil, fmt.Errorf("scan schedule end: %w", err)
	}
	return &w, nil
}

func (p *PgScheduleProvider) UpsertSchedule(ctx context.Context, vetID uuid.UUID, day time.Weekday, start, end TimeOfDay) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO vet_schedules (vet_id, day_of_week, start_time, end_time)
		VALUES ($1, $2, $3::time, $4::time)
		ON CONFLICT (vet_id, day_of_week)
		DO UPDATE SET start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time
	`, vetID, int(day), start.String(), end.String())
	if err != nil {
		return fmt.Errorf("upsert vet schedule: %w", err)
	}
	return nil
}

// PgServiceCatalog reads service-type durations from the service_types
// reference table. Read-only for this engine.
type PgServiceCatalog struct {
	pool *pgxpool.Pool
}

func NewPgServiceCatalog(pool *pgxpool.Pool) *PgServiceCatalog {
	return &PgServiceCatalog{pool: pool}
}

func (c *PgServiceCatalog) GetDuration(ctx context.Context, serviceTypeID uuid.UUID) (int, error) {
	var minutes int

	err := c.pool.QueryRow(ctx, `
		SELECT duration_minutes
		FROM service_types
		WHERE type_id = $1
	`, serviceTypeID).Scan(&minutes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrInvalidServiceType
		}
		return 0, err
	}

	return minutes, nil
}
