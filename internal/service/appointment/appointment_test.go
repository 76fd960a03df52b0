package appointment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/medicenter_backend/internal/repo"
	"github.com/Alijeyrad/medicenter_backend/internal/repo/repotest"
	"github.com/Alijeyrad/medicenter_backend/pkg/constants"
)

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads []string
	err      error
}

func (p *recordingPublisher) Publish(subj string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subj)
	p.payloads = append(p.payloads, string(data))
	return p.err
}

type fixture struct {
	svc     Service
	db      *repo.Client
	mr      *miniredis.Miniredis
	events  *recordingPublisher
	metrics *Metrics
	loc     *time.Location
	now     time.Time
	center  *repo.Center
	session *repo.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := &fixture{
		db:      repotest.NewStore().Client(),
		mr:      mr,
		events:  &recordingPublisher{},
		metrics: NewMetrics(prometheus.NewRegistry()),
		loc:     loc,
		now:     time.Date(2026, 3, 1, 9, 30, 0, 0, loc),
	}
	ctx := context.Background()

	f.center = &repo.Center{ID: uuid.New(), Code: "MC0001", Name: "City Clinic"}
	require.NoError(t, f.db.Centers.Create(ctx, f.center))
	f.session = f.addSession(t, f.center, "MC0001-S001", "Morning", "09:00", "12:00")

	f.svc = New(f.db, repo.NewSequencer(rdb), f.events, loc,
		WithClock(func() time.Time { return f.now }),
		WithMetrics(f.metrics))
	return f
}

func (f *fixture) addSession(t *testing.T, c *repo.Center, code, name, start, end string) *repo.Session {
	t.Helper()
	st, err := repo.ParseTimeOfDay(start)
	require.NoError(t, err)
	en, err := repo.ParseTimeOfDay(end)
	require.NoError(t, err)
	s := &repo.Session{
		ID: uuid.New(), Code: code, CenterID: c.ID, CenterCode: c.Code,
		Name: name, StartTime: st, EndTime: en,
	}
	require.NoError(t, f.db.Sessions.Create(context.Background(), s))
	return s
}

func (f *fixture) addPatient(t *testing.T, n int) *repo.Patient {
	t.Helper()
	p := &repo.Patient{ID: uuid.New(), Code: fmt.Sprintf("P%06d", n), Name: fmt.Sprintf("Patient %d", n)}
	require.NoError(t, f.db.Patients.Create(context.Background(), p))
	return p
}

func (f *fixture) activate(t *testing.T, active bool) {
	t.Helper()
	_, err := f.db.Sessions.SetActive(context.Background(), f.session.ID, active,
		repo.NewEntry(repo.ActionActivate, "doctor", f.now))
	require.NoError(t, err)
}

func (f *fixture) book(patient *repo.Patient, date string) (*repo.Appointment, error) {
	return f.svc.Book(context.Background(), BookRequest{
		CenterID: f.center.Code, SessionID: f.session.Code, PatientID: patient.Code, Date: date,
	}, "reception")
}

func TestBook_SequentialTokens(t *testing.T) {
	f := newFixture(t)

	for i := 1; i <= 5; i++ {
		a, err := f.book(f.addPatient(t, i), "2026-03-01")
		require.NoError(t, err)
		assert.Equal(t, i, a.TokenNo)
		assert.Equal(t, fmt.Sprintf("MC0001-S001-20260301-A%03d", i), a.Code)
		assert.Equal(t, repo.StatusScheduled, a.Status)
		require.Len(t, a.History, 1)
		assert.Equal(t, repo.ActionCreate, a.History[0].Action)
		assert.Equal(t, "reception", a.History[0].Actor)
	}

	// a new day starts over
	a, err := f.book(f.addPatient(t, 6), "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, 1, a.TokenNo)
	assert.Equal(t, "MC0001-S001-20260302-A001", a.Code)

	require.Len(t, f.events.subjects, 6)
	assert.Equal(t, constants.SubjectAppointmentBooked+".MC0001", f.events.subjects[0])
	assert.Equal(t, a.ID.String(), f.events.payloads[5])
	assert.Equal(t, 6.0, testutil.ToFloat64(f.metrics.bookingsTotal.WithLabelValues("booked")))
}

func TestBook_AcceptsUUIDReferences(t *testing.T) {
	f := newFixture(t)
	p := f.addPatient(t, 1)

	a, err := f.svc.Book(context.Background(), BookRequest{
		CenterID: f.center.ID.String(), SessionID: f.session.ID.String(), PatientID: p.ID.String(), Date: "2026-03-01",
	}, "reception")
	require.NoError(t, err)
	assert.Equal(t, p.Code, a.PatientCode)
	assert.Equal(t, f.session.Code, a.SessionCode)
	assert.True(t, a.Date.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, f.loc)))
}

func TestBook_DuplicatePrevention(t *testing.T) {
	f := newFixture(t)
	p := f.addPatient(t, 1)

	first, err := f.book(p, "2026-03-01")
	require.NoError(t, err)

	_, err = f.book(p, "2026-03-01")
	assert.ErrorIs(t, err, ErrDuplicateBooking)

	page, err := f.svc.List(context.Background(), ListRequest{SessionID: f.session.Code})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Len(t, f.events.subjects, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.bookingsTotal.WithLabelValues("duplicate")))

	// a cancelled booking no longer blocks the slot
	f.activate(t, true)
	_, err = f.svc.Cancel(context.Background(), first.Code, "reception")
	require.NoError(t, err)

	again, err := f.book(p, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 2, again.TokenNo)
}

func TestBook_WindowEnforcement(t *testing.T) {
	f := newFixture(t)
	early := f.addSession(t, f.center, "MC0001-S002", "Early", "08:00", "10:00")
	book := func(p *repo.Patient, date string) error {
		_, err := f.svc.Book(context.Background(), BookRequest{
			CenterID: f.center.Code, SessionID: early.Code, PatientID: p.Code, Date: date,
		}, "reception")
		return err
	}

	f.now = time.Date(2026, 3, 1, 11, 0, 0, 0, f.loc)
	assert.ErrorIs(t, book(f.addPatient(t, 1), "2026-03-01"), ErrSessionWindowClosed)
	assert.NoError(t, book(f.addPatient(t, 2), "2026-03-02"), "tomorrow is still open")

	f.now = time.Date(2026, 3, 1, 9, 0, 0, 0, f.loc)
	assert.NoError(t, book(f.addPatient(t, 3), "2026-03-01"))

	f.now = time.Date(2026, 3, 1, 10, 0, 0, 0, f.loc)
	assert.NoError(t, book(f.addPatient(t, 4), "2026-03-01"), "end instant is inside the window")
}

func TestBook_Rejections(t *testing.T) {
	f := newFixture(t)
	p := f.addPatient(t, 1)

	other := &repo.Center{ID: uuid.New(), Code: "MC0002", Name: "Lake Clinic"}
	require.NoError(t, f.db.Centers.Create(context.Background(), other))
	foreign := f.addSession(t, other, "MC0002-S001", "Morning", "09:00", "12:00")

	tests := []struct {
		name string
		req  BookRequest
		want error
	}{
		{"missing date", BookRequest{CenterID: "MC0001", SessionID: "MC0001-S001", PatientID: p.Code}, ErrMissingField},
		{"bad date", BookRequest{CenterID: "MC0001", SessionID: "MC0001-S001", PatientID: p.Code, Date: "01/03/2026"}, ErrInvalidDate},
		{"unknown center", BookRequest{CenterID: "MC0404", SessionID: "MC0001-S001", PatientID: p.Code, Date: "2026-03-01"}, ErrCenterNotFound},
		{"unknown session", BookRequest{CenterID: "MC0001", SessionID: "MC0001-S404", PatientID: p.Code, Date: "2026-03-01"}, ErrSessionNotFound},
		{"session of another center", BookRequest{CenterID: "MC0001", SessionID: foreign.Code, PatientID: p.Code, Date: "2026-03-01"}, ErrSessionNotFound},
		{"unknown patient", BookRequest{CenterID: "MC0001", SessionID: "MC0001-S001", PatientID: "P999999", Date: "2026-03-01"}, ErrPatientNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Book(context.Background(), tt.req, "reception")
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Empty(t, f.events.subjects)
	page, err := f.svc.List(context.Background(), ListRequest{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestBook_SoftDeletedSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Sessions.SoftDelete(context.Background(), f.session.ID,
		repo.NewEntry(repo.ActionDelete, "admin", f.now)))

	_, err := f.book(f.addPatient(t, 1), "2026-03-01")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestBook_ReseedsAfterRedisLoss(t *testing.T) {
	f := newFixture(t)
	_, err := f.book(f.addPatient(t, 1), "2026-03-01")
	require.NoError(t, err)

	f.mr.FlushAll()

	a, err := f.book(f.addPatient(t, 2), "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 2, a.TokenNo)
}

func TestBook_RetriesOnTokenCollision(t *testing.T) {
	f := newFixture(t)
	_, err := f.book(f.addPatient(t, 1), "2026-03-01")
	require.NoError(t, err)

	// a writer that bypassed the counter took token 2
	intruder := f.addPatient(t, 99)
	require.NoError(t, f.db.Appointments.Create(context.Background(), &repo.Appointment{
		ID: uuid.New(), Code: "MC0001-S001-20260301-A002", TokenNo: 2,
		PatientID: intruder.ID, CenterID: f.center.ID, CenterCode: f.center.Code,
		SessionID: f.session.ID, SessionCode: f.session.Code,
		Date: time.Date(2026, 3, 1, 0, 0, 0, 0, f.loc), Status: repo.StatusScheduled,
	}))

	a, err := f.book(f.addPatient(t, 2), "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 3, a.TokenNo)
	assert.Equal(t, "MC0001-S001-20260301-A003", a.Code)
}

func TestBook_PublishFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("nats down")

	a, err := f.book(f.addPatient(t, 1), "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 1, a.TokenNo)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	a, err := f.book(f.addPatient(t, 1), "2026-03-01")
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), a.Code, "reception")
	assert.ErrorIs(t, err, ErrSessionNotActive)

	f.activate(t, true)
	got, err := f.svc.Cancel(context.Background(), a.ID.String(), "reception")
	require.NoError(t, err)
	assert.Equal(t, repo.StatusCancelled, got.Status)
	require.Len(t, got.History, 2)
	assert.Equal(t, repo.ActionCancel, got.History[1].Action)

	require.Len(t, f.events.subjects, 2)
	assert.Equal(t, constants.SubjectAppointmentCancelled+".MC0001", f.events.subjects[1])

	_, err = f.svc.Cancel(context.Background(), "MC0001-S001-20260301-A999", "reception")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.book(f.addPatient(t, 1), "2026-03-01")
	require.NoError(t, err)

	yes, no := true, false

	got, err := f.svc.UpdateStatus(ctx, a.Code, UpdateStatusRequest{IsPatientVisited: &yes}, "doctor")
	require.NoError(t, err)
	assert.True(t, got.IsPatientVisited)
	assert.Equal(t, repo.StatusCompleted, got.Status)
	require.Len(t, got.History, 2)
	assert.Equal(t, repo.ActionUpdate, got.History[1].Action)
	assert.Equal(t, []string{"isPatientvisited"}, got.History[1].Fields)

	// no fields still records an entry
	got, err = f.svc.UpdateStatus(ctx, a.Code, UpdateStatusRequest{}, "doctor")
	require.NoError(t, err)
	assert.Len(t, got.History, 3)
	assert.Equal(t, repo.StatusCompleted, got.Status)

	got, err = f.svc.UpdateStatus(ctx, a.Code, UpdateStatusRequest{IsCancelled: &yes}, "doctor")
	require.NoError(t, err)
	assert.Equal(t, repo.StatusCancelled, got.Status)
	assert.True(t, got.IsPatientVisited)
	assert.Equal(t, constants.SubjectAppointmentCancelled+".MC0001", f.events.subjects[len(f.events.subjects)-1])

	got, err = f.svc.UpdateStatus(ctx, a.Code, UpdateStatusRequest{IsCancelled: &no, IsPatientVisited: &no}, "doctor")
	require.NoError(t, err)
	assert.Equal(t, repo.StatusScheduled, got.Status)
	assert.Len(t, got.History, 5)

	_, err = f.svc.UpdateStatus(ctx, uuid.NewString(), UpdateStatusRequest{}, "doctor")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNextStatus(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		current string
		visited bool
		cancel  *bool
		want    string
	}{
		{repo.StatusScheduled, false, nil, repo.StatusScheduled},
		{repo.StatusScheduled, true, nil, repo.StatusCompleted},
		{repo.StatusCancelled, true, nil, repo.StatusCancelled},
		{repo.StatusCompleted, true, &yes, repo.StatusCancelled},
		{repo.StatusCancelled, false, &no, repo.StatusScheduled},
	}
	for _, tt := range tests {
		if got := nextStatus(tt.current, tt.visited, tt.cancel); got != tt.want {
			t.Errorf("nextStatus(%q, %v) = %q, want %q", tt.current, tt.visited, got, tt.want)
		}
	}
}
