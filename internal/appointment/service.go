package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/config"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

const (
	EventAppointmentBooked        = "APPOINTMENT_BOOKED"
	EventAppointmentStatusChanged = "APPOINTMENT_STATUS_CHANGED"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
	slot   time.Duration
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

type Option func(*Service)

// WithClock replaces the wall clock used for past-slot filtering and
// transition timing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, locker redisclient.Locker, cfg config.Config, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		locker: locker,
		slot:   cfg.SlotDuration,
		loc:    cfg.Location,
		logger: logger,
		now:    time.Now,
	}
	if s.slot <= 0 {
		s.slot = 30 * time.Minute
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) SlotDuration() time.Duration { return s.slot }

func (s *Service) Location() *time.Location { return s.loc }

// clinicDate returns midnight of date's calendar day in the clinic zone.
func (s *Service) clinicDate(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// AvailableTimes lists the bookable slots of a doctor on date. An unverified
// doctor, a doctor without windows that day, or a type the doctor does not
// offer all yield an empty result. apptType may be empty to skip the
// specialization filter.
func (s *Service) AvailableTimes(ctx context.Context, doctorID uuid.UUID, date time.Time, apptType string) ([]schedule.Interval, error) {
	doctor, err := s.repo.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !IsBookable(doctor) {
		return nil, nil
	}

	if apptType != "" {
		specs, err := s.repo.ListSpecializations(ctx, doctorID)
		if err != nil {
			return nil, fmt.Errorf("list specializations: %w", err)
		}
		if !offers(specs, apptType) {
			return nil, nil
		}
	}

	day := s.clinicDate(date)
	windows, err := s.repo.ListAvailability(ctx, doctorID, day.Weekday())
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	if len(windows) == 0 {
		return nil, nil
	}

	from, to := schedule.Day(day)
	existing, err := s.repo.ListActiveAppointments(ctx, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	candidates := schedule.GenerateSlots(toWindows(windows), day, s.slot, s.now())
	return slices.Collect(schedule.ResolveBookable(candidates, existing, s.slot)), nil
}

// Book reserves the slot starting at req.ScheduledFor. Bookability is
// re-derived from storage inside the transaction that inserts the row, so a
// booking that loses a race reports ErrSlotNoLongerAvailable.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if req.Type == "" || req.Price < 0 || req.ScheduledFor.IsZero() {
		return nil, ErrInvalidRequest
	}
	start := req.ScheduledFor.In(s.loc)

	if _, err := s.repo.GetPatient(ctx, req.PatientID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetDoctor(ctx, req.DoctorID); err != nil {
		return nil, err
	}

	var created *Appointment

	key := redisclient.BookingKey(req.DoctorID, start)
	err := s.locker.WithLock(ctx, key, func(lockCtx context.Context) error {
		return s.repo.InTx(lockCtx, func(tx Tx) error {
			doctor, err := tx.LockDoctor(lockCtx, req.DoctorID)
			if err != nil {
				return err
			}
			if !IsBookable(doctor) {
				return ErrDoctorNotBookable
			}

			specs, err := tx.ListSpecializations(lockCtx, req.DoctorID)
			if err != nil {
				return fmt.Errorf("list specializations: %w", err)
			}
			if !offers(specs, req.Type) {
				return ErrDoctorNotBookable
			}

			day := s.clinicDate(start)
			windows, err := tx.ListAvailability(lockCtx, req.DoctorID, day.Weekday())
			if err != nil {
				return fmt.Errorf("list availability: %w", err)
			}
			from, to := schedule.Day(day)
			existing, err := tx.ListActiveAppointments(lockCtx, req.DoctorID, from, to)
			if err != nil {
				return fmt.Errorf("list appointments: %w", err)
			}

			candidates := schedule.GenerateSlots(toWindows(windows), day, s.slot, s.now())
			slot, ok := schedule.Find(schedule.ResolveBookable(candidates, existing, s.slot), start)
			if !ok {
				return ErrSlotNoLongerAvailable
			}

			appt := &Appointment{
				DoctorID:     req.DoctorID,
				PatientID:    req.PatientID,
				Status:       StatusScheduled,
				Type:         req.Type,
				Price:        req.Price,
				ScheduledFor: slot.Start,
				EndsAt:       slot.End,
				Notes:        req.Notes,
			}
			if err := tx.CreateAppointment(lockCtx, appt); err != nil {
				return err
			}
			created = appt
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			s.logger.Info("booking lock contended",
				zap.String("doctor_id", req.DoctorID.String()),
				zap.Time("scheduled_for", start),
			)
			return nil, ErrSlotNoLongerAvailable
		}
		return nil, err
	}

	s.logger.Info("appointment booked",
		zap.String("appointment_id", created.ID.String()),
		zap.String("doctor_id", created.DoctorID.String()),
		zap.String("patient_id", created.PatientID.String()),
		zap.Time("scheduled_for", created.ScheduledFor),
	)
	s.logEvent(ctx, created.ID, EventAppointmentBooked, map[string]any{
		"doctor_id":     created.DoctorID.String(),
		"patient_id":    created.PatientID.String(),
		"scheduled_for": created.ScheduledFor,
		"type":          created.Type,
	})

	return created, nil
}

// Transition moves an appointment to status to on behalf of actor.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, to AppointmentStatus, actor Actor) (*Appointment, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, to)
	}

	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkParticipant(appt, actor); err != nil {
		return nil, err
	}
	if err := CheckTransition(appt, to, actor.Role, s.now()); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, appt.Status, to)
	if err != nil {
		if !errors.Is(err, ErrAppointmentNotFound) {
			return nil, fmt.Errorf("update appointment status: %w", err)
		}
		// Another transition won the compare-and-set.
		fresh, getErr := s.repo.GetAppointment(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, &TransitionError{From: fresh.Status, To: to, Role: actor.Role}
	}

	s.logger.Info("appointment status changed",
		zap.String("appointment_id", updated.ID.String()),
		zap.String("from", string(appt.Status)),
		zap.String("to", string(to)),
		zap.String("role", string(actor.Role)),
	)
	payload := map[string]any{
		"from": appt.Status,
		"to":   to,
		"role": actor.Role,
	}
	if actor.ID != uuid.Nil {
		payload["actor_id"] = actor.ID.String()
	}
	s.logEvent(ctx, updated.ID, EventAppointmentStatusChanged, payload)

	return updated, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetAppointment(ctx, id)
}

func (s *Service) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	limit, offset = clampPage(limit, offset)
	appointments, err := s.repo.ListAppointmentsByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	return appointments, nil
}

func (s *Service) ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]Appointment, error) {
	limit, offset = clampPage(limit, offset)
	appointments, err := s.repo.ListAppointmentsByDoctor(ctx, doctorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by doctor: %w", err)
	}
	return appointments, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *Service) ListSpecializations(ctx context.Context, doctorID uuid.UUID) ([]Specialization, error) {
	if _, err := s.repo.GetDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	return s.repo.ListSpecializations(ctx, doctorID)
}

func (s *Service) ListAvailability(ctx context.Context, doctorID uuid.UUID) ([]AvailabilityWindow, error) {
	if _, err := s.repo.GetDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	return s.repo.ListAvailabilityByDoctor(ctx, doctorID)
}

// AddAvailability registers a weekly window [start, end) on day.
func (s *Service) AddAvailability(ctx context.Context, doctorID uuid.UUID, day time.Weekday, start, end schedule.Clock) (*AvailabilityWindow, error) {
	if day < time.Sunday || day > time.Saturday || !start.Valid() || !end.Valid() || start >= end {
		return nil, ErrInvalidWindow
	}
	if _, err := s.repo.GetDoctor(ctx, doctorID); err != nil {
		return nil, err
	}

	w := &AvailabilityWindow{
		DoctorID:  doctorID,
		DayOfWeek: day,
		StartTime: start,
		EndTime:   end,
	}
	if err := s.repo.CreateAvailability(ctx, w); err != nil {
		return nil, err
	}

	s.logger.Info("availability added",
		zap.String("doctor_id", doctorID.String()),
		zap.String("day", day.String()),
		zap.Stringer("start", start),
		zap.Stringer("end", end),
	)
	return w, nil
}

func (s *Service) RemoveAvailability(ctx context.Context, doctorID, windowID uuid.UUID) error {
	if err := s.repo.DeleteAvailability(ctx, doctorID, windowID); err != nil {
		return err
	}
	s.logger.Info("availability removed",
		zap.String("doctor_id", doctorID.String()),
		zap.String("window_id", windowID.String()),
	)
	return nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("marshal event payload", zap.String("event_type", eventType), zap.Error(err))
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Error("insert event log",
			zap.String("event_type", eventType),
			zap.String("appointment_id", appointmentID.String()),
			zap.Error(err),
		)
	}
}

func toWindows(ws []AvailabilityWindow) []schedule.Window {
	out := make([]schedule.Window, len(ws))
	for i, w := range ws {
		out[i] = w.Window()
	}
	return out
}
