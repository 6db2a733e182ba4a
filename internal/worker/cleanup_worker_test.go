package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakePurger struct {
	calls int
	at    time.Time
	err   error
}

func (f *fakePurger) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	f.calls++
	f.at = now
	return 3, f.err
}

type countingSweeper struct{ n int }

func (s *countingSweeper) Sweep() { s.n++ }

func TestCleanupRunPurgesAndSweeps(t *testing.T) {
	p := &fakePurger{}
	s := &countingSweeper{}
	w := NewCleanupWorker(p, time.Minute, s)
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	w.run(context.Background())

	assert.Equal(t, 1, p.calls)
	assert.Equal(t, fixed, p.at)
	assert.Equal(t, 1, s.n)
}

func TestCleanupRunSweepsEvenWhenPurgeFails(t *testing.T) {
	p := &fakePurger{err: errors.New("db down")}
	s := &countingSweeper{}
	NewCleanupWorker(p, time.Minute, s).run(context.Background())
	assert.Equal(t, 1, s.n)
}

func TestCleanupStartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewCleanupWorker(&fakePurger{}, time.Hour).Start(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
