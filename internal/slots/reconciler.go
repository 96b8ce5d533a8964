package slots

import (
	"context"
	"fmt"
	"sync"
)

// State describes what a reconciler currently knows about its key.
type State string

const (
	// StateIdle means no subscription has been opened yet.
	StateIdle State = "idle"
	// StateLoading means a subscription is open but no snapshot has arrived.
	StateLoading State = "loading"
	// StateReady means at least one snapshot has been applied.
	StateReady State = "ready"
	// StateUnavailable means the stream failed; the slot list is empty and
	// the caller may retry by retuning.
	StateUnavailable State = "unavailable"
)

// Source is the subscription surface the reconciler consumes. *Feed
// implements it; tests substitute a fake.
type Source interface {
	Subscribe(ctx context.Context, key Key) (<-chan Snapshot, error)
}

// Reconciler holds at most one live slot subscription for a booking session
// and keeps a time selection consistent with the authoritative feed:
//
//   - on the first snapshot of a subscription, if the current selection is
//     absent from the available set (or nothing is selected), the first
//     available slot is auto-selected;
//   - on later snapshots the selection is only reassigned when the chosen
//     time has become unavailable, otherwise the user's choice is preserved.
//
// Retuning to a new key tears the previous subscription down (context
// cancellation) before the next one opens, so no two subscriptions are ever
// live for the same session.
type Reconciler struct {
	source Source

	mu        sync.Mutex
	cancel    context.CancelFunc
	gen       int // increments per retune; stale goroutines check it
	key       Key
	state     State
	available []Slot
	booked    []Slot
	selected  *Slot
}

func NewReconciler(source Source) *Reconciler {
	return &Reconciler{source: source, state: StateIdle}
}

// Retune closes any previous subscription and opens one for the given key.
// The previous time selection is carried over so that re-subscribing to the
// same state (a retry) does not lose the user's choice; the first snapshot
// reassigns it only if it is no longer available.
func (r *Reconciler) Retune(ctx context.Context, key Key) error {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.gen++
	gen := r.gen
	r.key = key
	r.state = StateLoading
	r.available = nil
	r.booked = nil
	r.mu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	ch, err := r.source.Subscribe(subCtx, key)
	if err != nil {
		cancel()
		r.markUnavailable(gen)
		return fmt.Errorf("retune slot subscription: %w", err)
	}

	r.mu.Lock()
	// a concurrent Retune may have superseded us while subscribing
	if gen != r.gen {
		r.mu.Unlock()
		cancel()
		return nil
	}
	r.cancel = cancel
	r.mu.Unlock()

	go func() {
		first := true
		for snap := range ch {
			r.apply(gen, snap, first)
			first = false
		}
		// channel closed: either torn down on purpose or the stream failed
		if subCtx.Err() == nil {
			r.markUnavailable(gen)
		}
	}()

	return nil
}

// Close releases the live subscription, if any.
func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.gen++
	r.state = StateIdle
	r.available = nil
	r.booked = nil
}

func (r *Reconciler) apply(gen int, snap Snapshot, first bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return
	}

	// wholesale replacement, never an incremental patch
	r.available = snap.Available
	r.booked = snap.Booked
	r.state = StateReady

	if first {
		if r.selected == nil || !containsStart(snap.Available, r.selected.Start) {
			r.selected = firstOrNil(snap.Available)
		}
		return
	}
	if r.selected != nil && !containsStart(snap.Available, r.selected.Start) {
		r.selected = firstOrNil(snap.Available)
	}
}

func (r *Reconciler) markUnavailable(gen int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return
	}
	r.state = StateUnavailable
	r.available = nil
	r.booked = nil
}

// Select records the user's slot choice. Only currently-available starts are
// accepted.
func (r *Reconciler) Select(start Clock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.available {
		if s.Start == start {
			chosen := s
			r.selected = &chosen
			return nil
		}
	}
	return fmt.Errorf("slot %s is not available", start)
}

// ClearSelection drops the current selection (used when the package changes).
func (r *Reconciler) ClearSelection() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = nil
}

// Selected returns the current selection, if any.
func (r *Reconciler) Selected() (Slot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.selected == nil {
		return Slot{}, false
	}
	return *r.selected, true
}

// Available returns the latest available set.
func (r *Reconciler) Available() []Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Slot(nil), r.available...)
}

// State returns the reconciler's current feed state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Key returns the key of the current (or last) subscription.
func (r *Reconciler) Key() Key {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.key
}

func containsStart(slots []Slot, start Clock) bool {
	for _, s := range slots {
		if s.Start == start {
			return true
		}
	}
	return false
}

func firstOrNil(slots []Slot) *Slot {
	if len(slots) == 0 {
		return nil
	}
	first := slots[0]
	return &first
}
