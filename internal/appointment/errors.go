package appointment

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrDoctorNotBookable     = errors.New("doctor is not bookable")
	ErrSlotNoLongerAvailable = errors.New("slot is no longer available")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrNotParticipant        = errors.New("actor is not a participant of the appointment")
	ErrInvalidWindow         = errors.New("invalid availability window")
	ErrDuplicateWindow       = errors.New("availability window already exists")
	ErrInvalidRequest        = errors.New("invalid request")
)

var (
	ErrDoctorNotFound      = fmt.Errorf("doctor %w", ErrNotFound)
	ErrPatientNotFound     = fmt.Errorf("patient %w", ErrNotFound)
	ErrAppointmentNotFound = fmt.Errorf("appointment %w", ErrNotFound)
	ErrWindowNotFound      = fmt.Errorf("availability window %w", ErrNotFound)
)

// TransitionError reports a status change the state machine refused.
type TransitionError struct {
	From AppointmentStatus
	To   AppointmentStatus
	Role Role
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s for %s", e.From, e.To, e.Role)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
