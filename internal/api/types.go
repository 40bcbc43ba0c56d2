package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
)

type CreateAppointmentRequest struct {
	DoctorID     string `json:"doctor_id"`
	PatientID    string `json:"patient_id"`
	ScheduledFor string `json:"scheduled_for"` // 2006-01-02T15:04 clinic time, or RFC 3339
	Type         string `json:"type"`
	Price        int64  `json:"price"`
	Notes        string `json:"notes,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type CreateAvailabilityRequest struct {
	DayOfWeek *int   `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type AppointmentResponse struct {
	ID           uuid.UUID `json:"id"`
	DoctorID     uuid.UUID `json:"doctor_id"`
	PatientID    uuid.UUID `json:"patient_id"`
	Status       string    `json:"status"`
	Type         string    `json:"type"`
	Price        int64     `json:"price"`
	ScheduledFor time.Time `json:"scheduled_for"`
	EndsAt       time.Time `json:"ends_at"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ListAppointmentsResponse struct {
	Items  []AppointmentResponse `json:"items"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

type AvailableTimesResponse struct {
	DoctorID    uuid.UUID `json:"doctor_id"`
	Date        string    `json:"date"`
	SlotMinutes int       `json:"slot_minutes"`
	Times       []string  `json:"times"`
}

type AvailabilityWindowResponse struct {
	ID        uuid.UUID `json:"id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	DayOfWeek int       `json:"day_of_week"`
	Day       string    `json:"day"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
}

type SpecializationsResponse struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Types    []string  `json:"types"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a *appointment.Appointment, loc *time.Location) AppointmentResponse {
	return AppointmentResponse{
		ID:           a.ID,
		DoctorID:     a.DoctorID,
		PatientID:    a.PatientID,
		Status:       string(a.Status),
		Type:         a.Type,
		Price:        a.Price,
		ScheduledFor: a.ScheduledFor.In(loc),
		EndsAt:       a.EndsAt.In(loc),
		Notes:        a.Notes,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func toWindowResponse(w appointment.AvailabilityWindow) AvailabilityWindowResponse {
	return AvailabilityWindowResponse{
		ID:        w.ID,
		DoctorID:  w.DoctorID,
		DayOfWeek: int(w.DayOfWeek),
		Day:       w.DayOfWeek.String(),
		StartTime: w.StartTime.String(),
		EndTime:   w.EndTime.String(),
		CreatedAt: w.CreatedAt,
	}
}
