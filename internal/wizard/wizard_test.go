package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zappoint/internal/bookings"
	"zappoint/internal/catalog"
	"zappoint/internal/payments"
	"zappoint/internal/slots"
)

// fakeSource pushes snapshots on demand and records teardown.
type fakeSource struct {
	mu        sync.Mutex
	current   chan slots.Snapshot
	cancelled int
	subs      int
}

func (f *fakeSource) Subscribe(ctx context.Context, key slots.Key) (<-chan slots.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs++
	ch := make(chan slots.Snapshot, 8)
	f.current = ch
	go func() {
		<-ctx.Done()
		f.mu.Lock()
		f.cancelled++
		f.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

func (f *fakeSource) push(snap slots.Snapshot) {
	f.mu.Lock()
	ch := f.current
	f.mu.Unlock()
	ch <- snap
}

type fakeSubmitter struct {
	mu       sync.Mutex
	requests []bookings.CreateBookingRequest
	response *bookings.CreateBookingResponse
	err      error
	block    chan struct{} // when set, Create waits until closed
}

func (f *fakeSubmitter) Create(ctx context.Context, req bookings.CreateBookingRequest) (*bookings.CreateBookingResponse, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.response != nil {
		return f.response, nil
	}
	return &bookings.CreateBookingResponse{BookingID: uuid.NewString(), ReferenceNumber: "ZAP-20260901-ABCDEF"}, nil
}

func wizardPackage() *catalog.Package {
	return &catalog.Package{
		ID:                      uuid.New(),
		Name:                    "Bowling Party",
		Price:                   150,
		MaxParticipants:         8,
		PricePerAdditional:      10,
		DurationValue:           90,
		DurationUnit:            catalog.DurationMinutes,
		StartTime:               "10:00",
		EndTime:                 "22:00",
		SlotIntervalMinutes:     30,
		AvailabilityType:        "daily",
		OnlineProcessingEnabled: true,
		Active:                  true,
	}
}

func mustClock(t *testing.T, s string) slots.Clock {
	t.Helper()
	c, err := slots.ParseClock(s)
	require.NoError(t, err)
	return c
}

func snapshotWith(t *testing.T, starts ...string) slots.Snapshot {
	t.Helper()
	snap := slots.Snapshot{Available: make([]slots.Slot, 0, len(starts))}
	for _, s := range starts {
		start := mustClock(t, s)
		snap.Available = append(snap.Available, slots.Slot{Start: start, End: start.Add(90)})
	}
	return snap
}

func tomorrow() string {
	return time.Now().AddDate(0, 0, 1).Format("2006-01-02")
}

// driveToSchedule selects a package and date and waits for the first snapshot.
func driveToSchedule(t *testing.T, w *Wizard, src *fakeSource, pkg *catalog.Package) {
	t.Helper()
	require.NoError(t, w.SelectPackage(pkg))
	require.NoError(t, w.Advance())
	require.NoError(t, w.SetDate(context.Background(), tomorrow()))
	src.push(snapshotWith(t, "10:00", "10:30", "11:00"))
	require.Eventually(t, func() bool {
		return w.SlotState() == slots.StateReady
	}, time.Second, 5*time.Millisecond)
}

func TestWizardHappyPath(t *testing.T) {
	src := &fakeSource{}
	sub := &fakeSubmitter{}
	w := New(src, sub)
	defer w.Close()
	pkg := wizardPackage()

	// nothing selected yet: the first guard blocks
	assert.False(t, w.CanAdvance())
	require.ErrorIs(t, w.Advance(), ErrStepBlocked)

	driveToSchedule(t, w, src, pkg)

	// first snapshot auto-selected the first slot
	selected, ok := w.SelectedTime()
	require.True(t, ok)
	assert.Equal(t, "10:00", selected.Start.String())

	// pick a different one and walk forward
	require.NoError(t, w.SetTime(mustClock(t, "11:00")))
	require.NoError(t, w.Advance()) // -> extras
	require.NoError(t, w.Advance()) // extras optional -> customer

	assert.False(t, w.CanAdvance(), "customer step blocks until contact details complete")
	w.SetCustomer(Customer{FirstName: "Sam", LastName: "Lee", Email: "sam@example.com", Phone: "555-0199"})
	require.NoError(t, w.Advance()) // -> review

	assert.True(t, w.SubmitReady())
	resp, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ZAP-20260901-ABCDEF", resp.ReferenceNumber)
	assert.Equal(t, StepSubmitted, w.Step())

	require.Len(t, sub.requests, 1)
	req := sub.requests[0]
	assert.Equal(t, pkg.ID.String(), req.PackageID)
	assert.Equal(t, "11:00", req.StartTime)
	assert.Equal(t, 8, req.Participants, "participants seeded from the package maximum")

	// submitted is terminal
	require.ErrorIs(t, w.Advance(), ErrAlreadySubmitted)
	_, err = w.Submit(context.Background())
	require.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestWizardRoomPrecondition(t *testing.T) {
	src := &fakeSource{}
	w := New(src, &fakeSubmitter{})
	defer w.Close()

	pkg := wizardPackage()
	room := catalog.Room{ID: uuid.New(), PackageID: pkg.ID, Name: "Lane 1", Active: true}
	pkg.Rooms = []catalog.Room{room}

	require.NoError(t, w.SelectPackage(pkg))
	require.NoError(t, w.Advance())

	// a date alone opens no subscription while the room is missing
	require.NoError(t, w.SetDate(context.Background(), tomorrow()))
	assert.Equal(t, 0, src.subs)
	assert.Equal(t, slots.StateIdle, w.SlotState())
	require.Error(t, w.SetTime(mustClock(t, "10:00")))

	require.ErrorIs(t, w.SetRoom(context.Background(), uuid.New()), ErrRoomUnknown)

	require.NoError(t, w.SetRoom(context.Background(), room.ID))
	assert.Equal(t, 1, src.subs)
	src.push(snapshotWith(t, "10:00"))
	require.Eventually(t, func() bool {
		return w.SlotState() == slots.StateReady
	}, time.Second, 5*time.Millisecond)
}

func TestWizardDateChangeRetunes(t *testing.T) {
	src := &fakeSource{}
	w := New(src, &fakeSubmitter{})
	defer w.Close()
	driveToSchedule(t, w, src, wizardPackage())

	require.NoError(t, w.SetDate(context.Background(), time.Now().AddDate(0, 0, 2).Format("2006-01-02")))
	assert.Equal(t, 2, src.subs)
	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.cancelled == 1
	}, time.Second, 5*time.Millisecond, "old subscription must be torn down")
}

func TestWizardDateValidation(t *testing.T) {
	src := &fakeSource{}
	w := New(src, &fakeSubmitter{})
	defer w.Close()
	require.NoError(t, w.SelectPackage(wizardPackage()))

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	require.ErrorIs(t, w.SetDate(context.Background(), yesterday), ErrDateNotAvailable)

	farOut := time.Now().AddDate(0, 0, 200).Format("2006-01-02")
	require.ErrorIs(t, w.SetDate(context.Background(), farOut), ErrDateNotAvailable)

	require.ErrorIs(t, w.SetDate(context.Background(), "not-a-date"), ErrDateNotAvailable)
	assert.Equal(t, 0, src.subs)

	// the current calendar date is in bounds regardless of the local offset
	today := time.Now().Format("2006-01-02")
	require.NoError(t, w.SetDate(context.Background(), today))
}

func TestWizardPackageChangeClearsDownstream(t *testing.T) {
	src := &fakeSource{}
	w := New(src, &fakeSubmitter{})
	defer w.Close()

	pkg := wizardPackage()
	attraction := catalog.Attraction{ID: uuid.New(), PackageID: pkg.ID, Name: "Arcade", Price: 10, PricingType: catalog.PricingPerUnit, Active: true}
	pkg.Attractions = []catalog.Attraction{attraction}

	driveToSchedule(t, w, src, pkg)
	require.NoError(t, w.SetAttraction(attraction.ID, 2))
	w.SetPromoCode("TEN-OFF")
	w.SetCustomer(Customer{FirstName: "Sam", LastName: "Lee", Email: "sam@example.com", Phone: "555-0199"})

	other := wizardPackage()
	other.MaxParticipants = 4
	require.NoError(t, w.SelectPackage(other))

	sel := w.Selection()
	assert.Empty(t, sel.Date)
	assert.Empty(t, sel.Attractions)
	assert.Empty(t, sel.PromoCode)
	assert.Equal(t, 4, sel.Participants, "participants reseed from the new package")
	assert.Equal(t, "Sam", sel.Customer.FirstName, "contact details survive a package change")

	_, ok := w.SelectedTime()
	assert.False(t, ok)
}

func TestWizardBackNavigationPreservesState(t *testing.T) {
	src := &fakeSource{}
	w := New(src, &fakeSubmitter{})
	defer w.Close()
	driveToSchedule(t, w, src, wizardPackage())
	require.NoError(t, w.Advance()) // -> extras
	require.NoError(t, w.Advance()) // -> customer
	w.SetCustomer(Customer{FirstName: "Sam", LastName: "Lee", Email: "sam@example.com", Phone: "555-0199"})

	require.NoError(t, w.Back())
	require.NoError(t, w.Back())
	assert.Equal(t, StepSelectSchedule, w.Step())

	sel := w.Selection()
	assert.Equal(t, "Sam", sel.Customer.FirstName)
	_, ok := w.SelectedTime()
	assert.True(t, ok, "going back must not drop the slot selection")
}

func TestWizardSubmitGuards(t *testing.T) {
	src := &fakeSource{}
	sub := &fakeSubmitter{}
	w := New(src, sub)
	defer w.Close()

	// incomplete selection never reaches the submitter
	_, err := w.Submit(context.Background())
	require.ErrorIs(t, err, ErrStepBlocked)
	assert.Empty(t, sub.requests)

	driveToSchedule(t, w, src, wizardPackage())
	_, err = w.Submit(context.Background())
	require.ErrorIs(t, err, ErrStepBlocked, "missing customer details block submission")
}

func TestWizardSubmitFailureIsRetryable(t *testing.T) {
	src := &fakeSource{}
	sub := &fakeSubmitter{err: errors.New("slot taken")}
	w := New(src, sub)
	defer w.Close()
	driveToSchedule(t, w, src, wizardPackage())
	w.SetCustomer(Customer{FirstName: "Sam", LastName: "Lee", Email: "sam@example.com", Phone: "555-0199"})

	_, err := w.Submit(context.Background())
	require.Error(t, err)
	assert.NotEqual(t, StepSubmitted, w.Step())

	// clearing the backend error lets the same selection go through
	sub.err = nil
	_, err = w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepSubmitted, w.Step())
}

func TestWizardSingleSubmissionInFlight(t *testing.T) {
	src := &fakeSource{}
	sub := &fakeSubmitter{block: make(chan struct{})}
	w := New(src, sub)
	defer w.Close()
	driveToSchedule(t, w, src, wizardPackage())
	w.SetCustomer(Customer{FirstName: "Sam", LastName: "Lee", Email: "sam@example.com", Phone: "555-0199"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := w.Submit(context.Background())
		assert.NoError(t, err)
	}()

	require.Eventually(t, func() bool {
		_, err := w.Submit(context.Background())
		return errors.Is(err, ErrSubmitInFlight)
	}, time.Second, 5*time.Millisecond)

	close(sub.block)
	<-done
	require.Len(t, sub.requests, 1)
}

func TestWizardCardSubFlow(t *testing.T) {
	src := &fakeSource{}
	sub := &fakeSubmitter{}
	w := New(src, sub)
	defer w.Close()
	driveToSchedule(t, w, src, wizardPackage())
	w.SetCustomer(Customer{FirstName: "Sam", LastName: "Lee", Email: "sam@example.com", Phone: "555-0199"})

	require.NoError(t, w.SetPayment(bookings.MethodCard, bookings.SplitFull, nil))
	_, err := w.Submit(context.Background())
	require.ErrorIs(t, err, ErrCardInvalid)

	bad := &payments.CardDetails{Number: "1234 5678", ExpiryMonth: 12, ExpiryYear: 2099, CVV: "123"}
	require.NoError(t, w.SetPayment(bookings.MethodCard, bookings.SplitFull, bad))
	_, err = w.Submit(context.Background())
	require.ErrorIs(t, err, ErrCardInvalid)
	assert.Empty(t, sub.requests, "invalid card details never reach the backend")

	good := &payments.CardDetails{Number: "4242 4242 4242 4242", HolderName: "Sam Lee", ExpiryMonth: 12, ExpiryYear: time.Now().Year() + 2, CVV: "123"}
	require.NoError(t, w.SetPayment(bookings.MethodCard, bookings.SplitFull, good))
	_, err = w.Submit(context.Background())
	require.NoError(t, err)
}

func TestWizardPartialSplitRequiresPolicy(t *testing.T) {
	src := &fakeSource{}
	w := New(src, &fakeSubmitter{})
	defer w.Close()

	pkg := wizardPackage() // no partial policy configured
	require.NoError(t, w.SelectPackage(pkg))
	require.ErrorIs(t, w.SetPayment(bookings.MethodCard, bookings.SplitPartial, nil), ErrPartialUnavailable)

	pkg.PartialPaymentPercentage = 25
	require.NoError(t, w.SetPayment(bookings.MethodCard, bookings.SplitPartial, nil))
}

func TestWizardPriceTracksSelection(t *testing.T) {
	src := &fakeSource{}
	w := New(src, &fakeSubmitter{})
	defer w.Close()

	pkg := wizardPackage()
	addOn := catalog.AddOn{ID: uuid.New(), PackageID: pkg.ID, Name: "Pizza Tray", Price: 18, Active: true}
	pkg.AddOns = []catalog.AddOn{addOn}

	require.NoError(t, w.SelectPackage(pkg))
	assert.Equal(t, 150.0, w.Price().Total)

	require.NoError(t, w.SetParticipants(10)) // two over the included eight
	assert.Equal(t, 170.0, w.Price().Total)

	require.NoError(t, w.SetAddOn(addOn.ID, 2))
	assert.Equal(t, 206.0, w.Price().Total)

	require.NoError(t, w.SetAddOn(addOn.ID, 0))
	assert.Equal(t, 170.0, w.Price().Total)
}
