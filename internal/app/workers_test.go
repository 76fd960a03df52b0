package app

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/medicenter_backend/internal/repo"
	"github.com/Alijeyrad/medicenter_backend/internal/repo/repotest"
	"github.com/Alijeyrad/medicenter_backend/internal/service/notification"
	"github.com/Alijeyrad/medicenter_backend/internal/service/session"
	"github.com/Alijeyrad/medicenter_backend/pkg/constants"
)

type capturedNotice struct {
	to  notification.Recipient
	msg notification.Message
}

type captureNotifier struct {
	sent []capturedNotice
}

func (c *captureNotifier) Notify(_ context.Context, r notification.Recipient, msg notification.Message) int {
	c.sent = append(c.sent, capturedNotice{r, msg})
	return 1
}

func TestNotificationWorker_Handle(t *testing.T) {
	ctx := context.Background()
	db := repotest.NewStore().Client()

	c := &repo.Center{ID: uuid.New(), Code: "MC0001", Name: "City Clinic"}
	require.NoError(t, db.Centers.Create(ctx, c))
	p := &repo.Patient{ID: uuid.New(), Code: "P000001", Name: "Asha", ContactNumber: "+919812345678"}
	require.NoError(t, db.Patients.Create(ctx, p))
	a := &repo.Appointment{
		ID: uuid.New(), Code: "MC0001-S001-20260301-A001", TokenNo: 1,
		PatientID: p.ID, CenterID: c.ID, CenterCode: c.Code, SessionID: uuid.New(), SessionCode: "MC0001-S001",
		Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Status: repo.StatusScheduled,
	}
	require.NoError(t, db.Appointments.Create(ctx, a))

	n := &captureNotifier{}
	w := &notificationWorker{db: db, notifier: n, loc: time.UTC, logger: slog.Default()}

	assert.Equal(t, 1, w.handle(ctx, []byte(a.ID.String()), notification.BookingConfirmed))
	require.Len(t, n.sent, 1)
	assert.Equal(t, notification.KindBookingConfirmed, n.sent[0].msg.Kind)
	assert.Equal(t, "+919812345678", n.sent[0].to.Phone)

	assert.Equal(t, 1, w.handle(ctx, []byte(" "+a.ID.String()+"\n"), notification.AppointmentCancelled))
	assert.Equal(t, notification.KindAppointmentCancelled, n.sent[1].msg.Kind)

	assert.Zero(t, w.handle(ctx, []byte("not-a-uuid"), notification.BookingConfirmed))
	assert.Zero(t, w.handle(ctx, []byte(uuid.NewString()), notification.BookingConfirmed))
	assert.Len(t, n.sent, 2)
}

type stubSessions struct {
	session.Service
	calls int
	err   error
}

func (s *stubSessions) DeactivateExpired(context.Context, time.Time) (int, error) {
	s.calls++
	return 1, s.err
}

func newSweeper(t *testing.T, rdb goredis.UniversalClient, sessions session.Service) *sessionSweeper {
	t.Helper()
	return &sessionSweeper{
		rdb:      rdb,
		sessions: sessions,
		interval: time.Minute,
		now:      time.Now,
		logger:   slog.Default(),
	}
}

func TestSessionSweeper_SingleInstancePerTick(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	one, two := &stubSessions{}, &stubSessions{}
	a, b := newSweeper(t, rdb, one), newSweeper(t, rdb, two)
	ctx := context.Background()

	assert.True(t, a.sweep(ctx))
	assert.False(t, b.sweep(ctx), "peer must skip while the lease is held")
	assert.Equal(t, 1, one.calls)
	assert.Zero(t, two.calls)
	assert.True(t, mr.Exists(constants.RedisKeySweeperLock))

	mr.FastForward(time.Minute)
	assert.True(t, b.sweep(ctx))
	assert.Equal(t, 1, two.calls)
}

func TestSessionSweeper_ReleasesOnFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	failing := &stubSessions{err: errors.New("db down")}
	s := newSweeper(t, rdb, failing)

	assert.True(t, s.sweep(context.Background()))
	assert.False(t, mr.Exists(constants.RedisKeySweeperLock))
	assert.True(t, s.sweep(context.Background()))
	assert.Equal(t, 2, failing.calls)
}
