package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourflow/tourflow/internal/config"
)

type fakeTours struct {
	n   int
	day time.Time
}

func (f *fakeTours) SweepStatuses(_ context.Context, day time.Time) (int, error) {
	f.day = day
	return f.n, nil
}

type fakeInvites struct{ n int64 }

func (f fakeInvites) DeleteExpiredInvitations(context.Context, time.Time) (int64, error) {
	return f.n, nil
}

type fakeTokens struct {
	n   int64
	err error
}

func (f fakeTokens) PurgeExpired(context.Context, time.Time) (int64, error) { return f.n, f.err }

func testConfig() config.JobsConfig {
	return config.JobsConfig{Enabled: true, StatusSchedule: "@hourly", InviteSchedule: "@every 30m", TimeZone: "UTC"}
}

func TestRunJobs(t *testing.T) {
	tours := &fakeTours{n: 3}
	r, err := New(testConfig(), tours, fakeInvites{n: 2}, fakeTokens{n: 5}, nil)
	require.NoError(t, err)
	fixed := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	assert.Equal(t, []string{Invitations, TourStatus}, r.Names())

	res := r.Run(context.Background(), TourStatus)
	assert.Equal(t, int64(3), res.Affected)
	assert.Empty(t, res.Error)
	assert.Equal(t, fixed, tours.day)

	res = r.Run(context.Background(), Invitations)
	assert.Equal(t, int64(7), res.Affected)

	assert.Len(t, r.Last(), 2)
}

func TestRunReportsErrors(t *testing.T) {
	r, err := New(testConfig(), &fakeTours{}, fakeInvites{}, fakeTokens{err: errors.New("db down")}, nil)
	require.NoError(t, err)

	res := r.Run(context.Background(), Invitations)
	assert.Equal(t, "db down", res.Error)

	res = r.Run(context.Background(), "nope")
	assert.Equal(t, "unknown job", res.Error)
}

type blockingTours struct {
	entered chan struct{}
	release chan struct{}
}

func (b blockingTours) SweepStatuses(context.Context, time.Time) (int, error) {
	close(b.entered)
	<-b.release
	return 1, nil
}

func TestRunDoesNotOverlap(t *testing.T) {
	tours := blockingTours{entered: make(chan struct{}), release: make(chan struct{})}
	r, err := New(testConfig(), tours, fakeInvites{}, fakeTokens{}, nil)
	require.NoError(t, err)

	done := make(chan Result)
	go func() { done <- r.Run(context.Background(), TourStatus) }()
	<-tours.entered

	res := r.Run(context.Background(), TourStatus)
	assert.True(t, res.Skipped)
	assert.Equal(t, "already running", res.Error)

	// other jobs are not blocked
	assert.False(t, r.Run(context.Background(), Invitations).Skipped)

	close(tours.release)
	first := <-done
	assert.False(t, first.Skipped)
	assert.Equal(t, int64(1), first.Affected)
	assert.Equal(t, int64(1), r.Last()[TourStatus].Affected)
}

func TestNewRejectsBadSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.StatusSchedule = "whenever"
	_, err := New(cfg, &fakeTours{}, fakeInvites{}, fakeTokens{}, nil)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.TimeZone = "Mars/Olympus"
	_, err = New(cfg, &fakeTours{}, fakeInvites{}, fakeTokens{}, nil)
	assert.Error(t, err)
}

func TestStartStopsOnCancel(t *testing.T) {
	r, err := New(testConfig(), &fakeTours{}, fakeInvites{}, fakeTokens{}, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return")
	}
}
