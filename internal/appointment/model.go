package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "SCHEDULED"
	StatusInProgress AppointmentStatus = "IN_PROGRESS"
	StatusDone       AppointmentStatus = "DONE"
	StatusCancelled  AppointmentStatus = "CANCELLED"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusDone, StatusCancelled:
		return true
	}
	return false
}

// Active statuses hold their interval on the doctor's calendar.
func (s AppointmentStatus) Active() bool {
	return s == StatusScheduled || s == StatusInProgress
}

func (s AppointmentStatus) Terminal() bool {
	return s == StatusDone || s == StatusCancelled
}

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleDoctor  Role = "DOCTOR"
	RolePatient Role = "PATIENT"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleDoctor || r == RolePatient
}

type Doctor struct {
	ID               uuid.UUID
	Name             string
	Role             Role
	IsDoctorVerified bool
	DoctorVerifiedAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Specialization struct {
	DoctorID uuid.UUID
	Type     string
}

// AvailabilityWindow is a weekly recurring range in which a doctor accepts
// appointments. DayOfWeek follows time.Weekday (0 = Sunday).
type AvailabilityWindow struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	DayOfWeek time.Weekday
	StartTime schedule.Clock
	EndTime   schedule.Clock
	CreatedAt time.Time
}

func (w AvailabilityWindow) Window() schedule.Window {
	return schedule.Window{Start: w.StartTime, End: w.EndTime}
}

type Appointment struct {
	ID           uuid.UUID
	DoctorID     uuid.UUID
	PatientID    uuid.UUID
	Status       AppointmentStatus
	Type         string
	Price        int64 // minor currency units
	ScheduledFor time.Time
	EndsAt       time.Time
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (a Appointment) OccupiedFrom() time.Time { return a.ScheduledFor }
func (a Appointment) BlocksSlots() bool       { return a.Status.Active() }

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// Actor is the caller driving a status transition. ID may be uuid.Nil when
// the surrounding system does not identify the caller.
type Actor struct {
	Role Role
	ID   uuid.UUID
}

type BookingRequest struct {
	DoctorID     uuid.UUID
	PatientID    uuid.UUID
	ScheduledFor time.Time
	Type         string
	Price        int64
	Notes        string
}
