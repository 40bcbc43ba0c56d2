package appointment

import (
	"time"

	"github.com/google/uuid"
)

type timing int

const (
	anyTime timing = iota
	beforeStart
	atOrAfterStart
)

type transitionKey struct {
	from AppointmentStatus
	to   AppointmentStatus
	role Role
}

// transitions is the full authority matrix. A missing entry is a refusal.
// IN_PROGRESS -> CANCELLED is only reachable through the admin override.
var transitions = map[transitionKey]timing{
	{StatusScheduled, StatusCancelled, RolePatient}: beforeStart,
	{StatusScheduled, StatusCancelled, RoleDoctor}:  beforeStart,
	{StatusScheduled, StatusCancelled, RoleAdmin}:   anyTime,

	{StatusScheduled, StatusInProgress, RoleDoctor}: atOrAfterStart,
	{StatusScheduled, StatusInProgress, RoleAdmin}:  atOrAfterStart,

	{StatusInProgress, StatusDone, RoleDoctor}: anyTime,
	{StatusInProgress, StatusDone, RoleAdmin}:  anyTime,

	{StatusInProgress, StatusCancelled, RoleAdmin}: anyTime,
}

// CheckTransition validates moving appt to status to on behalf of role at now.
func CheckTransition(appt *Appointment, to AppointmentStatus, role Role, now time.Time) error {
	rule, ok := transitions[transitionKey{appt.Status, to, role}]
	if !ok {
		return &TransitionError{From: appt.Status, To: to, Role: role}
	}

	switch rule {
	case beforeStart:
		if !now.Before(appt.ScheduledFor) {
			return &TransitionError{From: appt.Status, To: to, Role: role}
		}
	case atOrAfterStart:
		if now.Before(appt.ScheduledFor) {
			return &TransitionError{From: appt.Status, To: to, Role: role}
		}
	}
	return nil
}

// checkParticipant enforces that patients and doctors only act on their own
// appointments. Admins and anonymous actors are not restricted here.
func checkParticipant(appt *Appointment, actor Actor) error {
	if actor.ID == uuid.Nil {
		return nil
	}
	switch actor.Role {
	case RolePatient:
		if actor.ID != appt.PatientID {
			return ErrNotParticipant
		}
	case RoleDoctor:
		if actor.ID != appt.DoctorID {
			return ErrNotParticipant
		}
	}
	return nil
}
