// Package repotest provides in-memory repositories for service tests. They
// honour the same unique constraints as the SQL schema.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/medicenter_backend/internal/repo"
)

// Store backs every repository of a repo.Client with maps guarded by one lock.
type Store struct {
	mu            sync.Mutex
	now           func() time.Time
	centers       map[uuid.UUID]*repo.Center
	sessions      map[uuid.UUID]*repo.Session
	patients      map[uuid.UUID]*repo.Patient
	appointments  map[uuid.UUID]*repo.Appointment
	prescriptions map[uuid.UUID]*repo.Prescription
}

func NewStore() *Store {
	return &Store{
		now:           time.Now,
		centers:       map[uuid.UUID]*repo.Center{},
		sessions:      map[uuid.UUID]*repo.Session{},
		patients:      map[uuid.UUID]*repo.Patient{},
		appointments:  map[uuid.UUID]*repo.Appointment{},
		prescriptions: map[uuid.UUID]*repo.Prescription{},
	}
}

// Client wires the store into a repo.Client.
func (s *Store) Client() *repo.Client {
	return &repo.Client{
		Centers:       centers{s},
		Sessions:      sessions{s},
		Patients:      patients{s},
		Appointments:  appointments{s},
		Prescriptions: prescriptions{s},
	}
}

func clone[T any](v *T) *T {
	c := *v
	return &c
}

func cloneHistory(h []repo.HistoryEntry) []repo.HistoryEntry {
	return append([]repo.HistoryEntry(nil), h...)
}

func unique(constraint string) error {
	return &repo.UniqueViolation{Constraint: constraint}
}

func page[T any](items []T, p repo.Page) []T {
	if p.Offset >= len(items) {
		return nil
	}
	end := len(items)
	if p.Limit > 0 && p.Offset+p.Limit < end {
		end = p.Offset + p.Limit
	}
	return items[p.Offset:end]
}

func lastCode(codes []string) string {
	sort.Slice(codes, func(i, j int) bool {
		if len(codes[i]) != len(codes[j]) {
			return len(codes[i]) > len(codes[j])
		}
		return codes[i] > codes[j]
	})
	if len(codes) == 0 {
		return ""
	}
	return codes[0]
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// ---------------------------------------------------------------------------
// Centers
// ---------------------------------------------------------------------------

type centers struct{ s *Store }

func (r centers) Create(_ context.Context, c *repo.Center) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.centers {
		if e.Code == c.Code {
			return unique(repo.ConstraintCenterCode)
		}
	}
	c.CreatedAt, c.UpdatedAt = r.s.now(), r.s.now()
	stored := clone(c)
	stored.History = cloneHistory(c.History)
	r.s.centers[c.ID] = stored
	return nil
}

func (r centers) GetByID(_ context.Context, id uuid.UUID) (*repo.Center, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.centers[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	out := clone(c)
	out.History = cloneHistory(c.History)
	return out, nil
}

func (r centers) GetByCode(ctx context.Context, code string) (*repo.Center, error) {
	r.s.mu.Lock()
	var id uuid.UUID
	for _, c := range r.s.centers {
		if c.Code == code {
			id = c.ID
		}
	}
	r.s.mu.Unlock()
	if id == uuid.Nil {
		return nil, repo.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r centers) GetMany(ctx context.Context, ids []uuid.UUID) ([]*repo.Center, error) {
	var out []*repo.Center
	for _, id := range ids {
		if c, err := r.GetByID(ctx, id); err == nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r centers) LastCode(context.Context) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var codes []string
	for _, c := range r.s.centers {
		codes = append(codes, c.Code)
	}
	return lastCode(codes), nil
}

func (r centers) List(_ context.Context, f repo.CenterFilter) ([]*repo.Center, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*repo.Center
	for _, c := range r.s.centers {
		if c.IsDeleted && !f.IncludeDeleted {
			continue
		}
		if f.Search != "" && !contains(c.Name, f.Search) && !contains(c.Code, f.Search) {
			continue
		}
		all = append(all, clone(c))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	return page(all, f.Page), len(all), nil
}

func (r centers) Update(_ context.Context, c *repo.Center, entry repo.HistoryEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.centers[c.ID]
	if !ok {
		return repo.ErrNotFound
	}
	stored.Name, stored.Email, stored.ContactNumber, stored.Address = c.Name, c.Email, c.ContactNumber, c.Address
	stored.History = append(stored.History, entry)
	stored.UpdatedAt = r.s.now()
	c.History = cloneHistory(stored.History)
	return nil
}

func (r centers) SoftDelete(_ context.Context, id uuid.UUID, entry repo.HistoryEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.centers[id]
	if !ok || stored.IsDeleted {
		return repo.ErrNotFound
	}
	stored.IsDeleted = true
	stored.History = append(stored.History, entry)
	return nil
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

type sessions struct{ s *Store }

func (r sessions) copy(v *repo.Session) *repo.Session {
	out := clone(v)
	out.History = cloneHistory(v.History)
	return out
}

func (r sessions) Create(_ context.Context, v *repo.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.sessions {
		if e.Code == v.Code {
			return unique(repo.ConstraintSessionCode)
		}
		if e.CenterID == v.CenterID && e.Name == v.Name && !e.IsDeleted {
			return unique(repo.ConstraintSessionName)
		}
	}
	v.CreatedAt, v.UpdatedAt = r.s.now(), r.s.now()
	r.s.sessions[v.ID] = r.copy(v)
	return nil
}

func (r sessions) GetByID(_ context.Context, id uuid.UUID) (*repo.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.sessions[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return r.copy(v), nil
}

func (r sessions) find(match func(*repo.Session) bool) []*repo.Session {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*repo.Session
	for _, v := range r.s.sessions {
		if match(v) {
			out = append(out, r.copy(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (r sessions) GetByCode(_ context.Context, code string) (*repo.Session, error) {
	found := r.find(func(v *repo.Session) bool { return v.Code == code })
	if len(found) == 0 {
		return nil, repo.ErrNotFound
	}
	return found[0], nil
}

func (r sessions) GetMany(_ context.Context, ids []uuid.UUID) ([]*repo.Session, error) {
	set := map[uuid.UUID]bool{}
	for _, id := range ids {
		set[id] = true
	}
	return r.find(func(v *repo.Session) bool { return set[v.ID] }), nil
}

func (r sessions) GetByName(_ context.Context, centerID uuid.UUID, name string) (*repo.Session, error) {
	found := r.find(func(v *repo.Session) bool {
		return v.CenterID == centerID && v.Name == name && !v.IsDeleted
	})
	if len(found) == 0 {
		return nil, repo.ErrNotFound
	}
	return found[0], nil
}

func (r sessions) ListByCenter(_ context.Context, centerID uuid.UUID, includeDeleted bool) ([]*repo.Session, error) {
	return r.find(func(v *repo.Session) bool {
		return v.CenterID == centerID && (includeDeleted || !v.IsDeleted)
	}), nil
}

func (r sessions) ListActive(context.Context) ([]*repo.Session, error) {
	return r.find(func(v *repo.Session) bool { return v.IsSessionActive && !v.IsDeleted }), nil
}

func (r sessions) LastCode(_ context.Context, centerID uuid.UUID) (string, error) {
	var codes []string
	for _, v := range r.find(func(v *repo.Session) bool { return v.CenterID == centerID }) {
		codes = append(codes, v.Code)
	}
	return lastCode(codes), nil
}

func (r sessions) Update(_ context.Context, v *repo.Session, entry repo.HistoryEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.sessions[v.ID]
	if !ok {
		return repo.ErrNotFound
	}
	for _, e := range r.s.sessions {
		if e.ID != v.ID && e.CenterID == v.CenterID && e.Name == v.Name && !e.IsDeleted {
			return unique(repo.ConstraintSessionName)
		}
	}
	stored.Name, stored.StartTime, stored.EndTime = v.Name, v.StartTime, v.EndTime
	stored.History = append(stored.History, entry)
	stored.UpdatedAt = r.s.now()
	v.History = cloneHistory(stored.History)
	return nil
}

func (r sessions) SetActive(_ context.Context, id uuid.UUID, active bool, entry repo.HistoryEntry) (*repo.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.sessions[id]
	if !ok || stored.IsDeleted {
		return nil, repo.ErrNotFound
	}
	stored.IsSessionActive = active
	stored.History = append(stored.History, entry)
	stored.UpdatedAt = r.s.now()
	return r.copy(stored), nil
}

func (r sessions) SoftDelete(_ context.Context, id uuid.UUID, entry repo.HistoryEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.sessions[id]
	if !ok || stored.IsDeleted {
		return repo.ErrNotFound
	}
	stored.IsDeleted, stored.IsSessionActive = true, false
	stored.History = append(stored.History, entry)
	return nil
}

// ---------------------------------------------------------------------------
// Patients
// ---------------------------------------------------------------------------

type patients struct{ s *Store }

func (r patients) copy(v *repo.Patient) *repo.Patient {
	out := clone(v)
	out.History = cloneHistory(v.History)
	return out
}

func (r patients) Create(_ context.Context, p *repo.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.patients {
		if e.Code == p.Code {
			return unique(repo.ConstraintPatientCode)
		}
	}
	p.CreatedAt, p.UpdatedAt = r.s.now(), r.s.now()
	r.s.patients[p.ID] = r.copy(p)
	return nil
}

func (r patients) GetByID(_ context.Context, id uuid.UUID) (*repo.Patient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.patients[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return r.copy(p), nil
}

func (r patients) GetByCode(ctx context.Context, code string) (*repo.Patient, error) {
	r.s.mu.Lock()
	var id uuid.UUID
	for _, p := range r.s.patients {
		if p.Code == code {
			id = p.ID
		}
	}
	r.s.mu.Unlock()
	if id == uuid.Nil {
		return nil, repo.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r patients) GetMany(ctx context.Context, ids []uuid.UUID) ([]*repo.Patient, error) {
	var out []*repo.Patient
	for _, id := range ids {
		if p, err := r.GetByID(ctx, id); err == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r patients) LastCode(context.Context) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var codes []string
	for _, p := range r.s.patients {
		codes = append(codes, p.Code)
	}
	return lastCode(codes), nil
}

func (r patients) List(_ context.Context, f repo.PatientFilter) ([]*repo.Patient, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*repo.Patient
	for _, p := range r.s.patients {
		if p.IsDeleted {
			continue
		}
		if f.Search != "" && !contains(p.Name, f.Search) && !contains(p.Code, f.Search) &&
			!contains(p.ContactNumber, f.Search) {
			continue
		}
		all = append(all, r.copy(p))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	return page(all, f.Page), len(all), nil
}

func (r patients) Update(_ context.Context, p *repo.Patient, entry repo.HistoryEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.patients[p.ID]
	if !ok || stored.IsDeleted {
		return repo.ErrNotFound
	}
	stored.Name, stored.ContactNumber, stored.Email = p.Name, p.ContactNumber, p.Email
	stored.Gender, stored.DateOfBirth = p.Gender, p.DateOfBirth
	stored.History = append(stored.History, entry)
	stored.UpdatedAt = r.s.now()
	p.History = cloneHistory(stored.History)
	return nil
}

// ---------------------------------------------------------------------------
// Appointments
// ---------------------------------------------------------------------------

type appointments struct{ s *Store }

func (r appointments) copy(v *repo.Appointment) *repo.Appointment {
	out := clone(v)
	out.History = cloneHistory(v.History)
	return out
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func (r appointments) Create(_ context.Context, a *repo.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.appointments {
		switch {
		case e.Code == a.Code:
			return unique(repo.ConstraintAppointmentCode)
		case e.SessionID == a.SessionID && e.Date.Equal(a.Date) && e.TokenNo == a.TokenNo:
			return unique(repo.ConstraintAppointmentToken)
		case e.Status != repo.StatusCancelled && a.Status != repo.StatusCancelled &&
			e.PatientID == a.PatientID && e.CenterID == a.CenterID &&
			e.SessionID == a.SessionID && e.Date.Equal(a.Date):
			return unique(repo.ConstraintActiveBooking)
		}
	}
	a.CreatedAt, a.UpdatedAt = r.s.now(), r.s.now()
	r.s.appointments[a.ID] = r.copy(a)
	return nil
}

func (r appointments) GetByID(_ context.Context, id uuid.UUID) (*repo.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.appointments[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return r.copy(a), nil
}

func (r appointments) GetByCode(ctx context.Context, code string) (*repo.Appointment, error) {
	r.s.mu.Lock()
	var id uuid.UUID
	for _, a := range r.s.appointments {
		if a.Code == code {
			id = a.ID
		}
	}
	r.s.mu.Unlock()
	if id == uuid.Nil {
		return nil, repo.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r appointments) ExistsActive(_ context.Context, patientID, centerID, sessionID uuid.UUID, from, to time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.appointments {
		if a.PatientID == patientID && a.CenterID == centerID && a.SessionID == sessionID &&
			inRange(a.Date, from, to) && a.Status != repo.StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r appointments) MaxTokenNo(_ context.Context, sessionID uuid.UUID, from, to time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	highest := 0
	for _, a := range r.s.appointments {
		if a.SessionID == sessionID && inRange(a.Date, from, to) && a.TokenNo > highest {
			highest = a.TokenNo
		}
	}
	return highest, nil
}

func (r appointments) ListScheduled(ctx context.Context, sessionID uuid.UUID, from, to time.Time) ([]*repo.Appointment, error) {
	out, _, err := r.List(ctx, repo.AppointmentFilter{
		SessionID:   &sessionID,
		From:        &from,
		To:          &to,
		Status:      repo.StatusScheduled,
		SortByToken: true,
	})
	return out, err
}

func (r appointments) List(_ context.Context, f repo.AppointmentFilter) ([]*repo.Appointment, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*repo.Appointment
	for _, a := range r.s.appointments {
		switch {
		case a.IsDeleted && !f.IncludeDeleted,
			f.Search != "" && !contains(a.Code, f.Search),
			f.CenterID != nil && a.CenterID != *f.CenterID,
			f.SessionID != nil && a.SessionID != *f.SessionID,
			f.PatientID != nil && a.PatientID != *f.PatientID,
			f.IsPatientVisited != nil && a.IsPatientVisited != *f.IsPatientVisited,
			f.From != nil && a.Date.Before(*f.From),
			f.To != nil && !a.Date.Before(*f.To),
			f.Status != "" && a.Status != f.Status:
			continue
		}
		all = append(all, r.copy(a))
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !f.SortByToken && !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.After(all[j].Date)
		}
		return all[i].TokenNo < all[j].TokenNo
	})
	return page(all, f.Page), len(all), nil
}

func (r appointments) UpdateStatus(_ context.Context, id uuid.UUID, status string, visited bool, entry repo.HistoryEntry) (*repo.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.appointments[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	stored.Status, stored.IsPatientVisited = status, visited
	stored.History = append(stored.History, entry)
	stored.UpdatedAt = r.s.now()
	return r.copy(stored), nil
}

// ---------------------------------------------------------------------------
// Prescriptions
// ---------------------------------------------------------------------------

type prescriptions struct{ s *Store }

func (r prescriptions) Create(_ context.Context, p *repo.Prescription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.prescriptions {
		if e.Number == p.Number {
			return unique(repo.ConstraintPrescriptionNo)
		}
	}
	p.CreatedAt = r.s.now()
	r.s.prescriptions[p.ID] = clone(p)
	return nil
}

func (r prescriptions) CountByAppointment(_ context.Context, appointmentID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, p := range r.s.prescriptions {
		if p.AppointmentID == appointmentID {
			n++
		}
	}
	return n, nil
}

func (r prescriptions) ListByAppointment(_ context.Context, appointmentID uuid.UUID) ([]*repo.Prescription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*repo.Prescription
	for _, p := range r.s.prescriptions {
		if p.AppointmentID == appointmentID {
			out = append(out, clone(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r prescriptions) GetByNumber(_ context.Context, number string) (*repo.Prescription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.prescriptions {
		if p.Number == number {
			return clone(p), nil
		}
	}
	return nil, repo.ErrNotFound
}
