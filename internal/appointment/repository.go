package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tx is the view of the store available inside a booking transaction. Every
// read inside Tx observes the state the insert will be committed against.
type Tx interface {
	// LockDoctor reads the doctor and holds a shared lock on the row until the
	// transaction ends, so verification cannot be revoked underneath a booking.
	LockDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error)
	ListSpecializations(ctx context.Context, doctorID uuid.UUID) ([]Specialization, error)
	ListAvailability(ctx context.Context, doctorID uuid.UUID, day time.Weekday) ([]AvailabilityWindow, error)
	// ListActiveAppointments returns SCHEDULED and IN_PROGRESS appointments of
	// the doctor that overlap [from, to).
	ListActiveAppointments(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error)
	// CreateAppointment inserts a and fills its generated fields. It returns
	// ErrSlotNoLongerAvailable when a overlaps an active appointment of the
	// same doctor.
	CreateAppointment(ctx context.Context, a *Appointment) error
}

// Repository contains all storage interactions needed by the service.
type Repository interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
	ListSpecializations(ctx context.Context, doctorID uuid.UUID) ([]Specialization, error)

	// Availability
	ListAvailability(ctx context.Context, doctorID uuid.UUID, day time.Weekday) ([]AvailabilityWindow, error)
	ListAvailabilityByDoctor(ctx context.Context, doctorID uuid.UUID) ([]AvailabilityWindow, error)
	CreateAvailability(ctx context.Context, w *AvailabilityWindow) error
	DeleteAvailability(ctx context.Context, doctorID, windowID uuid.UUID) error

	// Appointments
	GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListActiveAppointments(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error)
	ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error)
	ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]Appointment, error)
	// UpdateAppointmentStatus moves the appointment from -> to and returns
	// ErrAppointmentNotFound when no row is in state from.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error

	// InTx runs fn inside one atomic unit of work. fn's error rolls it back.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}
