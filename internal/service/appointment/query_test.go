package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/medicenter_backend/internal/repo"
)

func TestList_Pagination(t *testing.T) {
	f := newFixture(t)
	for i := 1; i <= 12; i++ {
		_, err := f.book(f.addPatient(t, i), "2026-03-01")
		require.NoError(t, err)
	}

	page, err := f.svc.List(context.Background(), ListRequest{Page: 2, Limit: 5})
	require.NoError(t, err)
	assert.Len(t, page.Data, 5)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 5, page.Limit)
	assert.Equal(t, 6, page.Data[0].TokenNo)

	last, err := f.svc.List(context.Background(), ListRequest{Page: 3, Limit: 5})
	require.NoError(t, err)
	assert.Len(t, last.Data, 2)
}

func TestList_FiltersAndEnrichment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	evening := f.addSession(t, f.center, "MC0001-S002", "Evening", "17:00", "20:00")

	p1, p2 := f.addPatient(t, 1), f.addPatient(t, 2)
	_, err := f.book(p1, "2026-03-01")
	require.NoError(t, err)
	_, err = f.book(p2, "2026-03-02")
	require.NoError(t, err)
	_, err = f.svc.Book(ctx, BookRequest{
		CenterID: f.center.Code, SessionID: evening.Code, PatientID: p1.Code, Date: "2026-03-01",
	}, "reception")
	require.NoError(t, err)

	t.Run("date is a civil day", func(t *testing.T) {
		page, err := f.svc.List(ctx, ListRequest{Date: "2026-03-01"})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
		for _, v := range page.Data {
			require.NotNil(t, v.Session)
			assert.Equal(t, v.SessionID, v.Session.ID)
		}
	})

	t.Run("newest date first", func(t *testing.T) {
		page, err := f.svc.List(ctx, ListRequest{})
		require.NoError(t, err)
		require.Equal(t, 3, page.Total)
		assert.Equal(t, "MC0001-S001-20260302-A001", page.Data[0].Code)
	})

	t.Run("session", func(t *testing.T) {
		page, err := f.svc.List(ctx, ListRequest{SessionID: evening.ID.String()})
		require.NoError(t, err)
		require.Equal(t, 1, page.Total)
		assert.Equal(t, "Evening", page.Data[0].Session.Name)
	})

	t.Run("patient", func(t *testing.T) {
		page, err := f.svc.List(ctx, ListRequest{PatientID: p2.Code})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
	})

	t.Run("search is case-insensitive", func(t *testing.T) {
		page, err := f.svc.List(ctx, ListRequest{Search: "mc0001-s002"})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
	})

	t.Run("visited", func(t *testing.T) {
		no := false
		page, err := f.svc.List(ctx, ListRequest{IsPatientVisited: &no})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
	})

	t.Run("unknown reference yields nothing", func(t *testing.T) {
		page, err := f.svc.List(ctx, ListRequest{CenterID: "MC0404"})
		require.NoError(t, err)
		assert.Zero(t, page.Total)
		assert.NotNil(t, page.Data)
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := f.svc.List(ctx, ListRequest{Date: "March 1"})
		assert.ErrorIs(t, err, ErrInvalidDate)
	})
}

func TestList_SingleSessionSortsByToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day1 := time.Date(2026, 3, 1, 0, 0, 0, 0, f.loc)
	p := f.addPatient(t, 1)
	for _, tc := range []struct {
		day   time.Time
		token int
	}{{day1, 2}, {day1.AddDate(0, 0, 1), 1}, {day1, 1}} {
		require.NoError(t, f.db.Appointments.Create(ctx, &repo.Appointment{
			ID: uuid.New(), Code: uuid.NewString(), TokenNo: tc.token, PatientID: p.ID,
			CenterID: f.center.ID, SessionID: f.session.ID, Date: tc.day, Status: repo.StatusCancelled,
		}))
	}

	page, err := f.svc.List(ctx, ListRequest{SessionID: f.session.Code})
	require.NoError(t, err)
	require.Len(t, page.Data, 3)
	assert.Equal(t, 1, page.Data[0].TokenNo)
	assert.Equal(t, 1, page.Data[1].TokenNo)
	assert.Equal(t, 2, page.Data[2].TokenNo)
}

func TestGetByID_Enriched(t *testing.T) {
	f := newFixture(t)
	p := f.addPatient(t, 1)
	a, err := f.book(p, "2026-03-01")
	require.NoError(t, err)

	d, err := f.svc.GetByID(context.Background(), a.Code)
	require.NoError(t, err)
	assert.Equal(t, a.ID, d.Appointment.ID)
	assert.Equal(t, f.session.Code, d.Session.Code)
	assert.Equal(t, f.center.Code, d.Center.Code)
	assert.Equal(t, p.Code, d.Patient.Code)

	_, err = f.svc.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
