package slots

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource hands each Subscribe call its own snapshot channel and records
// how many subscriptions were opened and cancelled.
type fakeSource struct {
	mu        sync.Mutex
	subs      []chan Snapshot
	cancelled int
	failNext  bool
}

func (f *fakeSource) Subscribe(ctx context.Context, _ Key) (<-chan Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return nil, errors.New("feed down")
	}
	ch := make(chan Snapshot, 8)
	f.subs = append(f.subs, ch)
	go func() {
		<-ctx.Done()
		f.mu.Lock()
		f.cancelled++
		f.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

func (f *fakeSource) push(i int, snap Snapshot) {
	f.mu.Lock()
	ch := f.subs[i]
	f.mu.Unlock()
	ch <- snap
}

func (f *fakeSource) cancelledCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

func slotAt(start string) Slot {
	c, _ := ParseClock(start)
	return Slot{Start: c, End: c.Add(60)}
}

func waitSelected(t *testing.T, r *Reconciler, start string) {
	t.Helper()
	want, _ := ParseClock(start)
	require.Eventually(t, func() bool {
		sel, ok := r.Selected()
		return ok && sel.Start == want
	}, time.Second, 5*time.Millisecond, "selection never became %s", start)
}

func TestReconcilerAutoSelectsFirstAvailable(t *testing.T) {
	src := &fakeSource{}
	r := NewReconciler(src)
	defer r.Close()

	require.NoError(t, r.Retune(context.Background(), Key{Date: "2026-04-01"}))
	src.push(0, Snapshot{Available: []Slot{slotAt("10:00"), slotAt("11:00")}})

	waitSelected(t, r, "10:00")
	assert.Equal(t, StateReady, r.State())
	assert.Len(t, r.Available(), 2)
}

func TestReconcilerPreservesSelectionAcrossUpdates(t *testing.T) {
	src := &fakeSource{}
	r := NewReconciler(src)
	defer r.Close()

	require.NoError(t, r.Retune(context.Background(), Key{Date: "2026-04-01"}))
	src.push(0, Snapshot{Available: []Slot{slotAt("09:00"), slotAt("10:00")}})
	waitSelected(t, r, "09:00")

	require.NoError(t, r.Select(mustClock(t, "10:00")))

	// a later update still lists 10:00 and adds new earlier/later slots; the
	// user's choice must not move
	src.push(0, Snapshot{Available: []Slot{slotAt("08:00"), slotAt("10:00"), slotAt("12:00")}})
	require.Eventually(t, func() bool {
		return len(r.Available()) == 3
	}, time.Second, 5*time.Millisecond)

	sel, ok := r.Selected()
	require.True(t, ok)
	assert.Equal(t, mustClock(t, "10:00"), sel.Start)
}

func TestReconcilerReassignsWhenSelectionVanishes(t *testing.T) {
	src := &fakeSource{}
	r := NewReconciler(src)
	defer r.Close()

	require.NoError(t, r.Retune(context.Background(), Key{Date: "2026-04-01"}))
	src.push(0, Snapshot{Available: []Slot{slotAt("09:00"), slotAt("10:00")}})
	waitSelected(t, r, "09:00")

	// another session books 09:00 out from under us
	src.push(0, Snapshot{Available: []Slot{slotAt("10:00")}, Booked: []Slot{slotAt("09:00")}})
	waitSelected(t, r, "10:00")
}

func TestReconcilerSelectRejectsUnavailableStart(t *testing.T) {
	src := &fakeSource{}
	r := NewReconciler(src)
	defer r.Close()

	require.NoError(t, r.Retune(context.Background(), Key{Date: "2026-04-01"}))
	src.push(0, Snapshot{Available: []Slot{slotAt("09:00")}})
	waitSelected(t, r, "09:00")

	assert.Error(t, r.Select(mustClock(t, "13:00")))
}

func TestReconcilerRetuneTearsDownPreviousSubscription(t *testing.T) {
	src := &fakeSource{}
	r := NewReconciler(src)
	defer r.Close()

	require.NoError(t, r.Retune(context.Background(), Key{Date: "2026-04-01"}))
	require.NoError(t, r.Retune(context.Background(), Key{Date: "2026-04-02"}))

	require.Eventually(t, func() bool {
		return src.cancelledCount() == 1
	}, time.Second, 5*time.Millisecond, "previous subscription never released")

	// snapshots on the torn-down stream must not leak into current state
	src.push(1, Snapshot{Available: []Slot{slotAt("14:00")}})
	waitSelected(t, r, "14:00")
	assert.Equal(t, "2026-04-02", r.Key().Date)
}

func TestReconcilerStreamFailureIsRetryable(t *testing.T) {
	src := &fakeSource{}
	r := NewReconciler(src)
	defer r.Close()

	src.failNext = true
	err := r.Retune(context.Background(), Key{Date: "2026-04-01"})
	assert.Error(t, err)
	assert.Equal(t, StateUnavailable, r.State())
	assert.Empty(t, r.Available())

	// a retry on the same key recovers
	require.NoError(t, r.Retune(context.Background(), Key{Date: "2026-04-01"}))
	src.push(0, Snapshot{Available: []Slot{slotAt("09:00")}})
	waitSelected(t, r, "09:00")
	assert.Equal(t, StateReady, r.State())
}

func TestReconcilerCloseReleasesSubscription(t *testing.T) {
	src := &fakeSource{}
	r := NewReconciler(src)

	require.NoError(t, r.Retune(context.Background(), Key{Date: "2026-04-01"}))
	r.Close()

	require.Eventually(t, func() bool {
		return src.cancelledCount() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, StateIdle, r.State())
}
