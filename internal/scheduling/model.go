package scheduling

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusRequested Status = "requested"
	StatusScheduled Status = "scheduled"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusRequested, StatusScheduled, StatusRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal statuses admit no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo encodes the lifecycle:
// requested -> scheduled | rejected, scheduled -> completed,
// and any non-terminal status -> cancelled.
func (s Status) CanTransitionTo(next Status) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	switch s {
	case StatusRequested:
		return next == StatusScheduled || next == StatusRejected
	case StatusScheduled:
		return next == StatusCompleted
	}
	return false
}

type Appointment struct {
	ID            uuid.UUID
	VetID         uuid.UUID
	ClientID      uuid.UUID
	PetID         uuid.UUID
	ServiceTypeID uuid.UUID
	ClinicID      uuid.UUID
	Date          Date
	StartTime     TimeOfDay
	EndTime       TimeOfDay
	Status        Status
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ServiceType is read-only catalog data; the engine only ever needs the
// duration.
type ServiceType struct {
	ID              uuid.UUID
	Name            string
	DurationMinutes int
}

// WorkingWindow is a vet's configured hours on one date, derived from the
// weekly schedule. Never persisted or cached by this engine.
type WorkingWindow struct {
	StartTime TimeOfDay
	EndTime   TimeOfDay
}

// Slot is a candidate booking interval. Transient, never persisted.
type Slot struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}
