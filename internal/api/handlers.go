package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	redisclient "github.com/pawdesk/vetclinic-scheduling/internal/redis"
	"github.com/pawdesk/vetclinic-scheduling/internal/scheduling"
)

func getAvailableSlotsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		vetID, err := uuid.Parse(q.Get("vet_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_vet_id", "vet_id must be a valid UUID")
			return
		}
		typeID, err := uuid.Parse(q.Get("type_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_type_id", "type_id must be a valid UUID")
			return
		}
		date, err := scheduling.ParseDate(q.Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		slots, err := svc.GetAvailableSlots(r.Context(), vetID, typeID, date)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		if slots == nil {
			slots = []scheduling.Slot{}
		}

		writeJSON(w, http.StatusOK, AvailabilityResponse{VetID: vetID, Date: date, Slots: slots})
	}
}

func createAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		in := scheduling.CreateAppointmentInput{Notes: req.Notes}

		// Empty ids stay uuid.Nil so the service reports the missing
		// fields; only malformed values fail here.
		var err error
		if in.VetID, err = optionalUUID(req.VetID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_vet_id", "vet_id must be a valid UUID")
			return
		}
		if in.ClientID, err = optionalUUID(req.ClientID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_client_id", "client_id must be a valid UUID")
			return
		}
		if in.PetID, err = optionalUUID(req.PetID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_pet_id", "pet_id must be a valid UUID")
			return
		}
		if in.ServiceTypeID, err = optionalUUID(req.TypeID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_type_id", "type_id must be a valid UUID")
			return
		}
		if in.ClinicID, err = optionalUUID(req.ClinicID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinic_id", "clinic_id must be a valid UUID")
			return
		}
		if req.Date != "" {
			if in.Date, err = scheduling.ParseDate(req.Date); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
				return
			}
		}
		if in.StartTime, err = scheduling.ParseTimeOfDay(req.StartTime); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be HH:MM")
			return
		}

		appt, err := svc.CreateAppointment(r.Context(), in)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func rescheduleAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req RescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Date == "" || req.StartTime == "" || req.EndTime == "" || req.Notes == "" {
			writeError(w, http.StatusBadRequest, "validation_error", "date, start_time, end_time and notes are required")
			return
		}

		in := scheduling.RescheduleInput{AppointmentID: id, Notes: req.Notes}
		if in.Date, err = scheduling.ParseDate(req.Date); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		if in.StartTime, err = scheduling.ParseTimeOfDay(req.StartTime); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be HH:MM")
			return
		}
		if in.EndTime, err = scheduling.ParseTimeOfDay(req.EndTime); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end_time", "end_time must be HH:MM")
			return
		}

		appt, err := svc.RescheduleAppointment(r.Context(), in)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func updateStatusHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		msg, err := svc.UpdateStatus(r.Context(), id, scheduling.Status(req.Status))
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, StatusUpdateResponse{Message: msg})
	}
}

func cancelAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.CancelAppointment(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func listVetAppointmentsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vetID, err := uuid.Parse(chi.URLParam(r, "vetID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_vet_id", "vetID must be a valid UUID")
			return
		}

		var filter scheduling.VetAppointmentsFilter
		q := r.URL.Query()

		if s := q.Get("date"); s != "" {
			date, err := scheduling.ParseDate(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
				return
			}
			filter.Date = &date
		}
		if s := q.Get("month"); s != "" {
			m, err := strconv.Atoi(s)
			if err != nil || m < 1 || m > 12 {
				writeError(w, http.StatusBadRequest, "invalid_month", "month must be 1-12")
				return
			}
			filter.Month = m
		}
		if s := q.Get("year"); s != "" {
			y, err := strconv.Atoi(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_year", "year must be numeric")
				return
			}
			filter.Year = y
		}

		appts, err := svc.GetAppointmentsByVet(r.Context(), vetID, filter)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, appointmentListResponse(appts))
	}
}

func todayScheduleHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, err := uuid.Parse(chi.URLParam(r, "clinicID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinic_id", "clinicID must be a valid UUID")
			return
		}

		appts, err := svc.GetTodaySchedule(r.Context(), clinicID)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, appointmentListResponse(appts))
	}
}

func upsertScheduleHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vetID, err := uuid.Parse(chi.URLParam(r, "vetID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_vet_id", "vetID must be a valid UUID")
			return
		}

		var req UpsertScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.DayOfWeek < 0 || req.DayOfWeek > 6 {
			writeError(w, http.StatusBadRequest, "invalid_day_of_week", "day_of_week must be 0 (Sunday) to 6 (Saturday)")
			return
		}

		start, err := scheduling.ParseTimeOfDay(req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be HH:MM")
			return
		}
		end, err := scheduling.ParseTimeOfDay(req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end_time", "end_time must be HH:MM")
			return
		}

		if err := svc.UpsertWeeklySchedule(r.Context(), vetID, time.Weekday(req.DayOfWeek), start, end); err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, StatusUpdateResponse{Message: "schedule updated"})
	}
}

func appointmentListResponse(appts []scheduling.Appointment) []AppointmentResponse {
	resp := make([]AppointmentResponse, 0, len(appts))
	for i := range appts {
		resp = append(resp, toAppointmentResponse(&appts[i]))
	}
	return resp
}

func optionalUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(s)
}

func handleServiceError(w http.ResponseWriter, err error) {
	var conflict *scheduling.ConflictError
	switch {
	case errors.Is(err, scheduling.ErrMissingFields):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, scheduling.ErrInvalidWindow),
		errors.Is(err, scheduling.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, scheduling.ErrScheduleNotFound):
		writeError(w, http.StatusNotFound, "schedule_not_found", err.Error())
	case errors.Is(err, scheduling.ErrPastDate):
		writeError(w, http.StatusUnprocessableEntity, "past_date", err.Error())
	case errors.Is(err, scheduling.ErrInvalidServiceType):
		writeError(w, http.StatusUnprocessableEntity, "invalid_service_type", err.Error())
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, "scheduling_conflict", conflict.Error())
	case errors.Is(err, scheduling.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "vet_being_booked", "this vet's day is currently being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
