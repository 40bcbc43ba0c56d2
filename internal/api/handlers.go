package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
)

const (
	dateLayout      = "2006-01-02"
	wallClockLayout = "2006-01-02T15:04"
)

func createAppointmentHandler(svc *appointment.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		scheduledFor, err := parseScheduledFor(req.ScheduledFor, svc.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_scheduled_for", "scheduled_for must be YYYY-MM-DDTHH:MM or RFC 3339")
			return
		}

		if req.Type == "" {
			writeError(w, http.StatusBadRequest, "invalid_type", "type is required")
			return
		}
		if req.Price < 0 {
			writeError(w, http.StatusBadRequest, "invalid_price", "price must not be negative")
			return
		}

		appt, err := svc.Book(r.Context(), appointment.BookingRequest{
			DoctorID:     doctorID,
			PatientID:    patientID,
			ScheduledFor: scheduledFor,
			Type:         req.Type,
			Price:        req.Price,
			Notes:        req.Notes,
		})
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt, svc.Location()))
	}
}

func updateStatusHandler(svc *appointment.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		actor, ok := ActorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusBadRequest, "missing_actor", "X-Actor-Role header is required")
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		status := appointment.AppointmentStatus(req.Status)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_status", "status must be one of SCHEDULED, IN_PROGRESS, DONE, CANCELLED")
			return
		}

		appt, err := svc.Transition(r.Context(), id, status, actor)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt, svc.Location()))
	}
}

func getAppointmentHandler(svc *appointment.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt, svc.Location()))
	}
}

func listAppointmentsHandler(svc *appointment.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		patientParam, doctorParam := q.Get("patient_id"), q.Get("doctor_id")
		if (patientParam == "") == (doctorParam == "") {
			writeError(w, http.StatusBadRequest, "invalid_filter", "exactly one of patient_id or doctor_id is required")
			return
		}

		limit, err := intParam(q.Get("limit"), 20)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		offset, err := intParam(q.Get("offset"), 0)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_offset", "offset must be an integer")
			return
		}
		limit = min(max(limit, 1), 100)
		offset = max(offset, 0)

		var appts []appointment.Appointment
		if patientParam != "" {
			patientID, err := uuid.Parse(patientParam)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
				return
			}
			appts, err = svc.ListAppointmentsByPatient(r.Context(), patientID, limit, offset)
			if err != nil {
				writeServiceError(w, r, logger, err)
				return
			}
		} else {
			doctorID, err := uuid.Parse(doctorParam)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
				return
			}
			appts, err = svc.ListAppointmentsByDoctor(r.Context(), doctorID, limit, offset)
			if err != nil {
				writeServiceError(w, r, logger, err)
				return
			}
		}

		resp := ListAppointmentsResponse{
			Items:  make([]AppointmentResponse, 0, len(appts)),
			Limit:  limit,
			Offset: offset,
		}
		for i := range appts {
			resp.Items = append(resp.Items, toAppointmentResponse(&appts[i], svc.Location()))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// parseScheduledFor reads a clinic wall-clock minute or an absolute RFC 3339
// timestamp.
func parseScheduledFor(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(wallClockLayout, raw, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
