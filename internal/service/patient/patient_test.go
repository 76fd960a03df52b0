package patient

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/medicenter_backend/internal/repo"
	"github.com/Alijeyrad/medicenter_backend/internal/repo/repotest"
)

func newService(t *testing.T) (Service, *repo.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	db := repotest.NewStore().Client()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return New(db, repo.NewSequencer(rdb),
		WithClock(func() time.Time { return now }),
		WithPhoneRegion("IN")), db
}

func TestCreate_SequentialCodes(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreatePatientRequest{Name: "Asha", ContactNumber: "98123 45678", Gender: "Female"}, "reception")
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreatePatientRequest{Name: "Ravi", Email: "Ravi <ravi@example.com>"}, "reception")
	require.NoError(t, err)

	assert.Equal(t, "P000001", first.Code)
	assert.Equal(t, "P000002", second.Code)
	assert.Equal(t, "+919812345678", first.ContactNumber)
	assert.Equal(t, "female", first.Gender)
	assert.Equal(t, "ravi@example.com", second.Email)
	require.Len(t, first.History, 1)
	assert.Equal(t, repo.ActionCreate, first.History[0].Action)
}

func TestCreate_ContinuesAfterExisting(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	require.NoError(t, db.Patients.Create(ctx, &repo.Patient{ID: uuid.New(), Code: "P000120", Name: "Old"}))

	p, err := svc.Create(ctx, CreatePatientRequest{Name: "New"}, "reception")
	require.NoError(t, err)
	assert.Equal(t, "P000121", p.Code)
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newService(t)
	future := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		req  CreatePatientRequest
		want error
	}{
		{"missing name", CreatePatientRequest{Name: " "}, ErrNameRequired},
		{"bad phone", CreatePatientRequest{Name: "A", ContactNumber: "call me"}, ErrInvalidContactNumber},
		{"bad email", CreatePatientRequest{Name: "A", Email: "@@"}, ErrInvalidEmail},
		{"bad gender", CreatePatientRequest{Name: "A", Gender: "robot"}, ErrInvalidGender},
		{"future birth", CreatePatientRequest{Name: "A", DateOfBirth: &future}, ErrInvalidDateOfBirth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req, "reception")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpdate_DiffedHistory(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	dob := time.Date(1990, 5, 17, 15, 0, 0, 0, time.UTC)
	p, err := svc.Create(ctx, CreatePatientRequest{Name: "Asha", ContactNumber: "+919812345678", DateOfBirth: &dob}, "reception")
	require.NoError(t, err)
	assert.Equal(t, 0, p.DateOfBirth.Hour())

	// same number in national format is not a change
	national := "09812345678"
	got, err := svc.Update(ctx, p.Code, UpdatePatientRequest{ContactNumber: &national, DateOfBirth: &dob}, "reception")
	require.NoError(t, err)
	assert.Len(t, got.History, 1)

	name, gender := "Asha K", "other"
	got, err = svc.Update(ctx, p.ID.String(), UpdatePatientRequest{Name: &name, Gender: &gender}, "doctor")
	require.NoError(t, err)
	require.Len(t, got.History, 2)
	assert.Equal(t, []string{"name", "gender"}, got.History[1].Fields)
	assert.Equal(t, "doctor", got.History[1].Actor)

	stored, err := svc.GetByCode(ctx, p.Code)
	require.NoError(t, err)
	assert.Equal(t, "Asha K", stored.Name)
	assert.Len(t, stored.History, 2)
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Get(context.Background(), "P999999")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_SearchAndPage(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	for _, n := range []string{"Asha", "Ravi", "Ashok"} {
		_, err := svc.Create(ctx, CreatePatientRequest{Name: n}, "reception")
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, ListPatientsRequest{Search: "ash", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "P000001", page.Data[0].Code)
}
