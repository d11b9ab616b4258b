package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/pawdesk/vetclinic-scheduling/internal/scheduling"
)

type CreateAppointmentRequest struct {
	VetID     string `json:"vet_id"`
	ClientID  string `json:"client_id"`
	PetID     string `json:"pet_id"`
	TypeID    string `json:"type_id"`
	ClinicID  string `json:"clinic_id"`
	Date      string `json:"date"`       // YYYY-MM-DD
	StartTime string `json:"start_time"` // HH:MM
	Notes     string `json:"notes"`
}

type RescheduleRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Notes     string `json:"notes"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type UpsertScheduleRequest struct {
	DayOfWeek int    `json:"day_of_week"` // 0=Sunday .. 6=Saturday
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type AppointmentResponse struct {
	ID        uuid.UUID            `json:"id"`
	VetID     uuid.UUID            `json:"vet_id"`
	ClientID  uuid.UUID            `json:"client_id"`
	PetID     uuid.UUID            `json:"pet_id"`
	TypeID    uuid.UUID            `json:"type_id"`
	ClinicID  uuid.UUID            `json:"clinic_id"`
	Date      scheduling.Date      `json:"date"`
	StartTime scheduling.TimeOfDay `json:"start_time"`
	EndTime   scheduling.TimeOfDay `json:"end_time"`
	Status    string               `json:"status"`
	Notes     string               `json:"notes,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

func toAppointmentResponse(a *scheduling.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		VetID:     a.VetID,
		ClientID:  a.ClientID,
		PetID:     a.PetID,
		TypeID:    a.ServiceTypeID,
		ClinicID:  a.ClinicID,
		Date:      a.Date,
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		Status:    string(a.Status),
		Notes:     a.Notes,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type AvailabilityResponse struct {
	VetID uuid.UUID         `json:"vet_id"`
	Date  scheduling.Date   `json:"date"`
	Slots []scheduling.Slot `json:"slots"`
}

type StatusUpdateResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
