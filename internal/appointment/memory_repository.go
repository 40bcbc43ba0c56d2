package appointment

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository. InTx holds the write lock
// for the whole unit of work, which makes every transaction serializable.
type MemoryRepository struct {
	mu    sync.RWMutex
	state *memoryState
}

type memoryState struct {
	doctors         map[uuid.UUID]*Doctor
	patients        map[uuid.UUID]*Patient
	specializations map[uuid.UUID][]Specialization
	windows         map[uuid.UUID]*AvailabilityWindow
	appointments    map[uuid.UUID]*Appointment
	events          []EventLog
	now             func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		state: &memoryState{
			doctors:         make(map[uuid.UUID]*Doctor),
			patients:        make(map[uuid.UUID]*Patient),
			specializations: make(map[uuid.UUID][]Specialization),
			windows:         make(map[uuid.UUID]*AvailabilityWindow),
			appointments:    make(map[uuid.UUID]*Appointment),
			now:             time.Now,
		},
	}
}

// Seeding

func (m *MemoryRepository) AddDoctor(d Doctor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.Role == "" {
		d.Role = RoleDoctor
	}
	m.state.doctors[d.ID] = &d
}

func (m *MemoryRepository) AddPatient(p Patient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.patients[p.ID] = &p
}

func (m *MemoryRepository) AddSpecialization(doctorID uuid.UUID, apptType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offers(m.state.specializations[doctorID], apptType) {
		return
	}
	m.state.specializations[doctorID] = append(m.state.specializations[doctorID], Specialization{DoctorID: doctorID, Type: apptType})
}

// SetDoctorVerified mirrors the administrator action that lives outside the engine.
func (m *MemoryRepository) SetDoctorVerified(doctorID uuid.UUID, verified bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.state.doctors[doctorID]
	if !ok {
		return
	}
	d.IsDoctorVerified = verified
	if verified {
		at := m.state.now()
		d.DoctorVerifiedAt = &at
	} else {
		d.DoctorVerifiedAt = nil
	}
}

// Events returns a copy of the recorded event log.
func (m *MemoryRepository) Events() []EventLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.state.events)
}

// Interface methods

func (m *MemoryRepository) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.LockDoctor(ctx, id)
}

func (m *MemoryRepository) GetPatient(_ context.Context, id uuid.UUID) (*Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.state.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryRepository) ListSpecializations(ctx context.Context, doctorID uuid.UUID) ([]Specialization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.ListSpecializations(ctx, doctorID)
}

func (m *MemoryRepository) ListAvailability(ctx context.Context, doctorID uuid.UUID, day time.Weekday) ([]AvailabilityWindow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.ListAvailability(ctx, doctorID, day)
}

func (m *MemoryRepository) ListAvailabilityByDoctor(_ context.Context, doctorID uuid.UUID) ([]AvailabilityWindow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.windowsWhere(func(w *AvailabilityWindow) bool { return w.DoctorID == doctorID }), nil
}

func (m *MemoryRepository) CreateAvailability(_ context.Context, w *AvailabilityWindow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w.StartTime >= w.EndTime || w.DayOfWeek < time.Sunday || w.DayOfWeek > time.Saturday {
		return ErrInvalidWindow
	}
	for _, existing := range m.state.windows {
		if existing.DoctorID == w.DoctorID && existing.DayOfWeek == w.DayOfWeek &&
			existing.StartTime == w.StartTime && existing.EndTime == w.EndTime {
			return ErrDuplicateWindow
		}
	}

	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	w.CreatedAt = m.state.now()
	cp := *w
	m.state.windows[w.ID] = &cp
	return nil
}

func (m *MemoryRepository) DeleteAvailability(_ context.Context, doctorID, windowID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.state.windows[windowID]
	if !ok || w.DoctorID != doctorID {
		return ErrWindowNotFound
	}
	delete(m.state.windows, windowID)
	return nil
}

func (m *MemoryRepository) GetAppointment(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.state.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryRepository) ListActiveAppointments(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.ListActiveAppointments(ctx, doctorID, from, to)
}

func (m *MemoryRepository) ListAppointmentsByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.page(func(a *Appointment) bool { return a.PatientID == patientID }, limit, offset), nil
}

func (m *MemoryRepository) ListAppointmentsByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.page(func(a *Appointment) bool { return a.DoctorID == doctorID }, limit, offset), nil
}

func (m *MemoryRepository) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.state.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = m.state.now()
	cp := *a
	return &cp, nil
}

func (m *MemoryRepository) InsertEvent(_ context.Context, ev EventLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev.ID = int64(len(m.state.events) + 1)
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = m.state.now()
	}
	m.state.events = append(m.state.events, ev)
	return nil
}

func (m *MemoryRepository) InTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{memoryState: m.state}
	if err := fn(tx); err != nil {
		for _, id := range tx.created {
			delete(m.state.appointments, id)
		}
		return err
	}
	return nil
}

// memoryTx records inserts so a failed unit of work can be undone.
type memoryTx struct {
	*memoryState
	created []uuid.UUID
}

func (t *memoryTx) CreateAppointment(ctx context.Context, a *Appointment) error {
	if err := t.memoryState.CreateAppointment(ctx, a); err != nil {
		return err
	}
	t.created = append(t.created, a.ID)
	return nil
}

// Unlocked state access; callers hold MemoryRepository.mu.

func (s *memoryState) LockDoctor(_ context.Context, id uuid.UUID) (*Doctor, error) {
	d, ok := s.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *memoryState) ListSpecializations(_ context.Context, doctorID uuid.UUID) ([]Specialization, error) {
	return slices.Clone(s.specializations[doctorID]), nil
}

func (s *memoryState) ListAvailability(_ context.Context, doctorID uuid.UUID, day time.Weekday) ([]AvailabilityWindow, error) {
	return s.windowsWhere(func(w *AvailabilityWindow) bool {
		return w.DoctorID == doctorID && w.DayOfWeek == day
	}), nil
}

func (s *memoryState) ListActiveAppointments(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	var result []Appointment
	for _, a := range s.appointments {
		if a.DoctorID == doctorID && a.Status.Active() && a.ScheduledFor.Before(to) && a.EndsAt.After(from) {
			result = append(result, *a)
		}
	}
	slices.SortFunc(result, func(x, y Appointment) int { return x.ScheduledFor.Compare(y.ScheduledFor) })
	return result, nil
}

// CreateAppointment enforces the same no-overlap rule as the Postgres
// exclusion constraint.
func (s *memoryState) CreateAppointment(_ context.Context, a *Appointment) error {
	if a.Status.Active() {
		for _, other := range s.appointments {
			if other.DoctorID == a.DoctorID && other.Status.Active() &&
				a.ScheduledFor.Before(other.EndsAt) && other.ScheduledFor.Before(a.EndsAt) {
				return ErrSlotNoLongerAvailable
			}
		}
	}

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := s.now()
	a.CreatedAt = now
	a.UpdatedAt = now
	cp := *a
	s.appointments[a.ID] = &cp
	return nil
}

func (s *memoryState) windowsWhere(keep func(*AvailabilityWindow) bool) []AvailabilityWindow {
	var result []AvailabilityWindow
	for _, w := range s.windows {
		if keep(w) {
			result = append(result, *w)
		}
	}
	slices.SortFunc(result, func(x, y AvailabilityWindow) int {
		if x.DayOfWeek != y.DayOfWeek {
			return int(x.DayOfWeek - y.DayOfWeek)
		}
		if x.StartTime != y.StartTime {
			return int(x.StartTime - y.StartTime)
		}
		return int(x.EndTime - y.EndTime)
	})
	return result
}

func (s *memoryState) page(keep func(*Appointment) bool, limit, offset int) []Appointment {
	var result []Appointment
	for _, a := range s.appointments {
		if keep(a) {
			result = append(result, *a)
		}
	}
	slices.SortFunc(result, func(x, y Appointment) int { return y.ScheduledFor.Compare(x.ScheduledFor) })

	if offset >= len(result) {
		return nil
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result
}
