package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSequencer(t *testing.T) (*Sequencer, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSequencer(rdb), mr
}

func seedOf(n int64, calls *int) SeedFunc {
	return func(context.Context) (int64, error) {
		*calls++
		return n, nil
	}
}

func TestSequencer_NextIsContiguous(t *testing.T) {
	seq, _ := newTestSequencer(t)
	ctx := context.Background()

	var calls int
	for want := int64(1); want <= 5; want++ {
		got, err := seq.Next(ctx, "appointment:MC0001-S001:20260301", 0, seedOf(0, &calls))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 1, calls, "seed should only be read for a missing key")
}

func TestSequencer_SeedsFromStore(t *testing.T) {
	seq, _ := newTestSequencer(t)
	var calls int

	got, err := seq.Next(context.Background(), CenterScope(), 0, seedOf(41, &calls))
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}

func TestSequencer_ScopesAreIndependent(t *testing.T) {
	seq, _ := newTestSequencer(t)
	ctx := context.Background()
	var calls int

	a, err := seq.Next(ctx, SessionScope("MC0001"), 0, seedOf(0, &calls))
	require.NoError(t, err)
	b, err := seq.Next(ctx, SessionScope("MC0002"), 0, seedOf(7, &calls))
	require.NoError(t, err)

	assert.Equal(t, int64(1), a)
	assert.Equal(t, int64(8), b)
}

func TestSequencer_TTL(t *testing.T) {
	seq, mr := newTestSequencer(t)
	var calls int
	scope := AppointmentScope("MC0001-S001", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	_, err := seq.Next(context.Background(), scope, time.Hour, seedOf(0, &calls))
	require.NoError(t, err)

	assert.True(t, mr.Exists("seq:appointment:MC0001-S001:20260301"))
	assert.Equal(t, time.Hour, mr.TTL("seq:appointment:MC0001-S001:20260301"))

	mr.FastForward(2 * time.Hour)
	assert.False(t, mr.Exists("seq:appointment:MC0001-S001:20260301"))
}

func TestSequencer_ResetReseeds(t *testing.T) {
	seq, _ := newTestSequencer(t)
	ctx := context.Background()
	var calls int

	_, err := seq.Next(ctx, PatientScope(), 0, seedOf(0, &calls))
	require.NoError(t, err)
	require.NoError(t, seq.Reset(ctx, PatientScope()))

	got, err := seq.Next(ctx, PatientScope(), 0, seedOf(10, &calls))
	require.NoError(t, err)
	assert.Equal(t, int64(11), got)
	assert.Equal(t, 2, calls)
}

func TestSequencer_SeedError(t *testing.T) {
	seq, _ := newTestSequencer(t)
	boom := errors.New("db down")

	_, err := seq.Next(context.Background(), CenterScope(), 0, func(context.Context) (int64, error) {
		return 0, boom
	})
	require.ErrorIs(t, err, boom)
}
