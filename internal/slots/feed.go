package slots

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"zappoint/internal/shared/constants"
	"zappoint/pkg/logger"
)

// Key identifies one slot-state stream: a package on a date, in a specific
// room when the package defines rooms (RoomID is uuid.Nil otherwise).
type Key struct {
	PackageID uuid.UUID
	RoomID    uuid.UUID
	Date      string // YYYY-MM-DD
}

// Channel is the redis pub/sub channel carrying invalidation markers for
// this key.
func (k Key) Channel() string {
	return constants.BuildSlotChannel(k.PackageID.String(), k.RoomID.String(), k.Date)
}

func (k Key) String() string {
	return k.Channel()
}

// Snapshot is one authoritative slot-state message: the full available and
// booked sets for a key. Consumers replace their working set wholesale, they
// never patch incrementally.
type Snapshot struct {
	Available []Slot `json:"available_slots"`
	Booked    []Slot `json:"booked_slots"`
}

// SnapshotFunc computes the current authoritative snapshot for a key. The
// production implementation generates candidates from the package's operating
// window and reconciles them against the bookings table.
type SnapshotFunc func(ctx context.Context, key Key) (Snapshot, error)

// Feed turns booking-state changes into a push stream of snapshots. Writers
// call Invalidate after persisting a booking; every subscription on the same
// key then recomputes and re-emits. The bookings table stays authoritative,
// redis only carries the "something changed" marker.
type Feed struct {
	rdb      *redis.Client
	snapshot SnapshotFunc
	log      *logger.Logger
}

func NewFeed(rdb *redis.Client, snapshot SnapshotFunc, log *logger.Logger) *Feed {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Feed{rdb: rdb, snapshot: snapshot, log: log}
}

// Snapshot computes the current authoritative state once, without opening a
// stream.
func (f *Feed) Snapshot(ctx context.Context, key Key) (Snapshot, error) {
	return f.snapshot(ctx, key)
}

// Subscribe opens a snapshot stream for the key. The returned channel always
// delivers one initial snapshot (computed immediately), then one snapshot per
// upstream booking-state change. The channel closes when ctx is cancelled or
// the underlying stream fails; a closed channel with no pending snapshot is
// the caller's signal to enter its retryable "unavailable" state.
func (f *Feed) Subscribe(ctx context.Context, key Key) (<-chan Snapshot, error) {
	initial, err := f.snapshot(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("initial slot snapshot for %s: %w", key, err)
	}

	pubsub := f.rdb.Subscribe(ctx, key.Channel())
	// force the SUBSCRIBE round-trip so a dead redis fails here, not silently
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe slot feed for %s: %w", key, err)
	}

	out := make(chan Snapshot, 1)
	out <- initial

	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					f.log.Warn("slot feed stream closed", slog.String("key", key.String()))
					return
				}
				snap, err := f.snapshot(ctx, key)
				if err != nil {
					f.log.Error("slot snapshot recompute failed",
						slog.String("key", key.String()), slog.Any("error", err))
					return
				}
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Invalidate publishes a change marker for the key, waking every live
// subscription on it. Safe to call without subscribers.
func (f *Feed) Invalidate(ctx context.Context, key Key) error {
	if err := f.rdb.Publish(ctx, key.Channel(), "changed").Err(); err != nil {
		return fmt.Errorf("publish slot invalidation for %s: %w", key, err)
	}
	return nil
}
