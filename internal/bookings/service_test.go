package bookings

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zappoint/internal/catalog"
	"zappoint/internal/notifications"
	"zappoint/internal/payments"
	"zappoint/internal/slots"
)

type stubCatalog struct {
	pkg *catalog.Package
}

func (s *stubCatalog) GetPackage(ctx context.Context, id uuid.UUID) (*catalog.Package, error) {
	if s.pkg == nil || s.pkg.ID != id {
		return nil, catalog.ErrPackageNotFound
	}
	return s.pkg, nil
}

func (s *stubCatalog) ListPackages(ctx context.Context, activeOnly bool) ([]catalog.Package, error) {
	return nil, errors.New("not implemented")
}
func (s *stubCatalog) CreatePackage(ctx context.Context, pkg *catalog.Package) error {
	return errors.New("not implemented")
}
func (s *stubCatalog) UpdatePackage(ctx context.Context, pkg *catalog.Package) error {
	return errors.New("not implemented")
}
func (s *stubCatalog) DeletePackage(ctx context.Context, id uuid.UUID) error {
	return errors.New("not implemented")
}
func (s *stubCatalog) EligibleDates(ctx context.Context, id uuid.UUID, horizonDays int) ([]string, error) {
	return nil, errors.New("not implemented")
}

type stubRepo struct {
	existing  []Booking
	created   []*Booking
	createErr error
	byID      map[uuid.UUID]*Booking
	updated   []string

	// writeGuard mirrors the real repository's locked overlap re-check at
	// insert time. ListForSlotKey deliberately never sees r.created, so with
	// the guard on, a test can drive two creates whose validation reads both
	// observed the slot free.
	writeGuard bool
}

func newStubRepo() *stubRepo {
	return &stubRepo{byID: make(map[uuid.UUID]*Booking)}
}

func (r *stubRepo) Create(ctx context.Context, booking *Booking) error {
	if r.createErr != nil {
		return r.createErr
	}
	if r.writeGuard {
		for _, b := range r.created {
			if slotConflict(b, booking) {
				return fmt.Errorf("%w: taken by a concurrent booking", ErrSlotUnavailable)
			}
		}
		for i := range r.existing {
			if slotConflict(&r.existing[i], booking) {
				return fmt.Errorf("%w: taken by a concurrent booking", ErrSlotUnavailable)
			}
		}
	}
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.CreatedAt = time.Now()
	r.created = append(r.created, booking)
	r.byID[booking.ID] = booking
	return nil
}

func (r *stubRepo) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	if b, ok := r.byID[id]; ok {
		return b, nil
	}
	return nil, ErrBookingNotFound
}

func (r *stubRepo) GetByReference(ctx context.Context, reference string) (*Booking, error) {
	for _, b := range r.byID {
		if b.ReferenceNumber == reference {
			return b, nil
		}
	}
	return nil, ErrBookingNotFound
}

func (r *stubRepo) ListForSlotKey(ctx context.Context, packageID uuid.UUID, roomID *uuid.UUID, date string) ([]Booking, error) {
	out := make([]Booking, 0)
	for _, b := range r.existing {
		if b.PackageID == packageID && b.Date == date && b.Status != StatusCancelled {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *stubRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, cancelledAt *time.Time) error {
	b, ok := r.byID[id]
	if !ok {
		return ErrBookingNotFound
	}
	b.Status = status
	b.CancelledAt = cancelledAt
	r.updated = append(r.updated, status)
	return nil
}

type stubGateway struct {
	charged []float64
	decline bool
}

func (g *stubGateway) Charge(ctx context.Context, card payments.CardDetails, amount float64) (*payments.ChargeResult, error) {
	if g.decline {
		return nil, payments.ErrDeclined
	}
	g.charged = append(g.charged, amount)
	return &payments.ChargeResult{
		TransactionID: "TXN_TEST",
		Amount:        amount,
		ProcessedAt:   time.Now(),
	}, nil
}

type stubProducer struct {
	events []*notifications.BookingEvent
	fail   bool
}

func (p *stubProducer) PublishBookingEvent(ctx context.Context, event *notifications.BookingEvent) error {
	if p.fail {
		return errors.New("kafka unreachable")
	}
	p.events = append(p.events, event)
	return nil
}
func (p *stubProducer) Close() error { return nil }

func (p *stubProducer) HealthCheck(ctx context.Context) error { return nil }

type stubReceipts struct {
	stored int
	fail   bool
}

func (r *stubReceipts) Store(ctx context.Context, bookingID uuid.UUID, artifact []byte) error {
	if r.fail {
		return errors.New("redis unreachable")
	}
	r.stored++
	return nil
}

type stubInvalidator struct {
	keys []slots.Key
}

func (i *stubInvalidator) Invalidate(ctx context.Context, key slots.Key) error {
	i.keys = append(i.keys, key)
	return nil
}

func slotConflict(a, b *Booking) bool {
	if a.PackageID != b.PackageID || a.Date != b.Date || a.Status == StatusCancelled {
		return false
	}
	return spansOverlap(a.StartTime, a.EndTime, b.StartTime, b.EndTime)
}

func bookablePackage() *catalog.Package {
	return &catalog.Package{
		ID:                       uuid.New(),
		Name:                     "Laser Tag Party",
		Price:                    100,
		MaxParticipants:          10,
		PricePerAdditional:       8,
		DurationValue:            60,
		DurationUnit:             catalog.DurationMinutes,
		StartTime:                "09:00",
		EndTime:                  "17:00",
		SlotIntervalMinutes:      60,
		AvailabilityType:         "daily",
		PartialPaymentPercentage: 30,
		OnlineProcessingEnabled:  true,
		Active:                   true,
	}
}

func validCard() *payments.CardDetails {
	return &payments.CardDetails{
		Number:      "4242 4242 4242 4242",
		HolderName:  "Pat Doe",
		ExpiryMonth: 12,
		ExpiryYear:  time.Now().Year() + 2,
		CVV:         "123",
	}
}

func validRequest(pkg *catalog.Package) CreateBookingRequest {
	return CreateBookingRequest{
		PackageID:    pkg.ID.String(),
		Date:         time.Now().AddDate(0, 0, 1).Format("2006-01-02"),
		StartTime:    "10:00",
		Participants: 6,
		Customer: CustomerRequest{
			FirstName: "Pat",
			LastName:  "Doe",
			Email:     "pat@example.com",
			Phone:     "555-0100",
		},
		PaymentMethod: MethodOnSite,
		PaymentSplit:  SplitFull,
	}
}

type fixture struct {
	svc      Service
	repo     *stubRepo
	gateway  *stubGateway
	producer *stubProducer
	receipts *stubReceipts
	feed     *stubInvalidator
	pkg      *catalog.Package
}

func newFixture() *fixture {
	pkg := bookablePackage()
	repo := newStubRepo()
	gateway := &stubGateway{}
	producer := &stubProducer{}
	receipts := &stubReceipts{}
	feed := &stubInvalidator{}

	svc := NewService(repo, &stubCatalog{pkg: pkg}, gateway, producer, receipts, nil)
	svc.SetSlotFeed(feed)

	return &fixture{svc: svc, repo: repo, gateway: gateway, producer: producer,
		receipts: receipts, feed: feed, pkg: pkg}
}

func TestCreateBookingOnSite(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.Create(context.Background(), validRequest(f.pkg))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^ZAP-\d{8}-[A-Z]{6}$`), resp.ReferenceNumber)
	assert.Equal(t, StatusConfirmed, resp.Status)
	assert.Equal(t, PaymentUnpaid, resp.PaymentStatus)
	assert.Zero(t, resp.AmountPaid)
	assert.Equal(t, 100.0, resp.Breakdown.Total)

	require.Len(t, f.repo.created, 1)
	created := f.repo.created[0]
	assert.Equal(t, "10:00", created.StartTime)
	assert.Equal(t, "11:00", created.EndTime)
	assert.Empty(t, f.gateway.charged, "on-site bookings must not hit the gateway")

	// side effects fired once each
	assert.Len(t, f.feed.keys, 1)
	require.Len(t, f.producer.events, 1)
	assert.Equal(t, notifications.EventBookingConfirmed, f.producer.events[0].Type)
	assert.Equal(t, 1, f.receipts.stored)
}

func TestCreateBookingCardFullPayment(t *testing.T) {
	f := newFixture()
	req := validRequest(f.pkg)
	req.PaymentMethod = MethodCard
	req.Card = validCard()

	resp, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, PaymentPaid, resp.PaymentStatus)
	assert.Equal(t, 100.0, resp.AmountPaid)
	require.Len(t, f.gateway.charged, 1)
	assert.Equal(t, 100.0, f.gateway.charged[0])

	require.Len(t, f.repo.created, 1)
	require.Len(t, f.repo.created[0].Payments, 1)
	assert.Equal(t, "COMPLETED", f.repo.created[0].Payments[0].Status)
}

func TestCreateBookingCardPartialPayment(t *testing.T) {
	f := newFixture()
	req := validRequest(f.pkg)
	req.PaymentMethod = MethodCard
	req.PaymentSplit = SplitPartial
	req.Card = validCard()

	resp, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)

	// 30% of the 100 total is due now
	assert.Equal(t, PaymentPartiallyPaid, resp.PaymentStatus)
	assert.Equal(t, 30.0, resp.AmountPaid)
	require.Len(t, f.gateway.charged, 1)
	assert.Equal(t, 30.0, f.gateway.charged[0])
}

func TestCreateBookingCardDeclined(t *testing.T) {
	f := newFixture()
	f.gateway.decline = true
	req := validRequest(f.pkg)
	req.PaymentMethod = MethodCard
	req.Card = validCard()

	_, err := f.svc.Create(context.Background(), req)
	require.ErrorIs(t, err, ErrPaymentFailed)

	// a declined charge must leave nothing behind
	assert.Empty(t, f.repo.created)
	assert.Empty(t, f.feed.keys)
	assert.Empty(t, f.producer.events)
}

func TestCreateBookingInvalidCard(t *testing.T) {
	f := newFixture()
	req := validRequest(f.pkg)
	req.PaymentMethod = MethodCard
	req.Card = &payments.CardDetails{Number: "1234", CVV: "123", ExpiryMonth: 12, ExpiryYear: 2099}

	_, err := f.svc.Create(context.Background(), req)
	require.ErrorIs(t, err, ErrPaymentFailed)
	assert.Empty(t, f.gateway.charged)
	assert.Empty(t, f.repo.created)
}

func TestCreateBookingInactivePackage(t *testing.T) {
	f := newFixture()
	f.pkg.Active = false

	_, err := f.svc.Create(context.Background(), validRequest(f.pkg))
	require.ErrorIs(t, err, ErrPackageUnavailable)
}

func TestCreateBookingRoomPrecondition(t *testing.T) {
	f := newFixture()
	room := catalog.Room{ID: uuid.New(), PackageID: f.pkg.ID, Name: "Party Room A", Active: true}
	f.pkg.Rooms = []catalog.Room{room}

	req := validRequest(f.pkg)
	_, err := f.svc.Create(context.Background(), req)
	require.ErrorIs(t, err, ErrRoomRequired)

	req.RoomID = uuid.New().String()
	_, err = f.svc.Create(context.Background(), req)
	require.ErrorIs(t, err, ErrRoomUnknown)

	req.RoomID = room.ID.String()
	resp, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.BookingID)
	require.Len(t, f.repo.created, 1)
	require.NotNil(t, f.repo.created[0].RoomID)
	assert.Equal(t, room.ID, *f.repo.created[0].RoomID)
}

func TestCreateBookingPastDate(t *testing.T) {
	f := newFixture()
	req := validRequest(f.pkg)
	req.Date = time.Now().AddDate(0, 0, -1).Format("2006-01-02")

	_, err := f.svc.Create(context.Background(), req)
	require.ErrorIs(t, err, ErrDateNotBookable)
}

func TestCreateBookingToday(t *testing.T) {
	f := newFixture()
	req := validRequest(f.pkg)
	req.Date = time.Now().Format("2006-01-02")

	_, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err, "the current calendar date is within the horizon")
}

func TestCreateBookingBeyondHorizon(t *testing.T) {
	f := newFixture()
	req := validRequest(f.pkg)
	req.Date = time.Now().AddDate(0, 0, 120).Format("2006-01-02")

	_, err := f.svc.Create(context.Background(), req)
	require.ErrorIs(t, err, ErrDateNotBookable)
}

func TestCreateBookingDateOutsideRule(t *testing.T) {
	f := newFixture()
	f.pkg.AvailabilityType = "weekly"

	// pick a weekday the package is closed on
	tomorrow := time.Now().AddDate(0, 0, 1)
	closed := tomorrow.Weekday()
	open := (closed + 1) % 7
	f.pkg.AvailabilityDays = []string{weekdayName(open)}

	req := validRequest(f.pkg)
	req.Date = tomorrow.Format("2006-01-02")

	_, err := f.svc.Create(context.Background(), req)
	require.ErrorIs(t, err, ErrDateNotBookable)
}

func weekdayName(d time.Weekday) string {
	names := []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}
	return names[int(d)]
}

func TestCreateBookingSlotConflicts(t *testing.T) {
	f := newFixture()
	req := validRequest(f.pkg)

	t.Run("start time is not a generated candidate", func(t *testing.T) {
		bad := req
		bad.StartTime = "10:15"
		_, err := f.svc.Create(context.Background(), bad)
		require.ErrorIs(t, err, ErrSlotUnavailable)
	})

	t.Run("overlapping booking wins", func(t *testing.T) {
		f.repo.existing = []Booking{{
			ID:        uuid.New(),
			PackageID: f.pkg.ID,
			Date:      req.Date,
			StartTime: "10:00",
			EndTime:   "11:00",
			Status:    StatusConfirmed,
		}}
		_, err := f.svc.Create(context.Background(), req)
		require.ErrorIs(t, err, ErrSlotUnavailable)
	})

	t.Run("cancelled booking does not block", func(t *testing.T) {
		f.repo.existing[0].Status = StatusCancelled
		_, err := f.svc.Create(context.Background(), req)
		require.NoError(t, err)
	})
}

func TestCreateBookingConcurrentSlotRace(t *testing.T) {
	// Two requests for the same slot can both pass the availability read
	// before either persists; the repository's write-time guard decides the
	// winner and the loser surfaces as a slot conflict.
	f := newFixture()
	f.repo.writeGuard = true

	first, err := f.svc.Create(context.Background(), validRequest(f.pkg))
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), validRequest(f.pkg))
	require.ErrorIs(t, err, ErrSlotUnavailable)

	require.Len(t, f.repo.created, 1, "exactly one booking survives the race")
	assert.Equal(t, first.ReferenceNumber, f.repo.created[0].ReferenceNumber)

	// the losing request fires no side effects
	assert.Len(t, f.feed.keys, 1)
	assert.Len(t, f.producer.events, 1)
	assert.Equal(t, 1, f.receipts.stored)
}

func TestCreateBookingConcurrentOverlapRace(t *testing.T) {
	// Overlapping slots with different start times (interval shorter than
	// duration) also serialize at the write guard.
	f := newFixture()
	f.pkg.SlotIntervalMinutes = 30
	f.repo.writeGuard = true

	_, err := f.svc.Create(context.Background(), validRequest(f.pkg))
	require.NoError(t, err)

	racer := validRequest(f.pkg)
	racer.StartTime = "10:30"
	_, err = f.svc.Create(context.Background(), racer)
	require.ErrorIs(t, err, ErrSlotUnavailable)
	require.Len(t, f.repo.created, 1)
}

func TestCreateBookingSideEffectFailuresAreSwallowed(t *testing.T) {
	f := newFixture()
	f.producer.fail = true
	f.receipts.fail = true

	resp, err := f.svc.Create(context.Background(), validRequest(f.pkg))
	require.NoError(t, err, "event and receipt failures must not fail the booking")
	assert.NotEmpty(t, resp.ReferenceNumber)
	assert.Len(t, f.repo.created, 1)
}

func TestCreateBookingPricesServerSide(t *testing.T) {
	f := newFixture()
	attraction := catalog.Attraction{
		ID: uuid.New(), PackageID: f.pkg.ID, Name: "Laser Maze",
		Price: 5, PricingType: catalog.PricingPerPerson, Active: true,
	}
	f.pkg.Attractions = []catalog.Attraction{attraction}

	req := validRequest(f.pkg)
	req.Participants = 12 // two over the included ten
	req.Attractions = []ItemSelectionRequest{{ID: attraction.ID.String(), Quantity: 1}}

	resp, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)

	// 100 base + 2*8 overage + 12*5 per-person attraction
	assert.Equal(t, 176.0, resp.Breakdown.Total)
	require.Len(t, f.repo.created, 1)
	assert.Equal(t, 176.0, f.repo.created[0].Total)
	require.Len(t, f.repo.created[0].Items, 1)
	assert.Equal(t, "attraction", f.repo.created[0].Items[0].ItemType)
	assert.Equal(t, 60.0, f.repo.created[0].Items[0].LineTotal)
}

func TestCancelBooking(t *testing.T) {
	f := newFixture()
	resp, err := f.svc.Create(context.Background(), validRequest(f.pkg))
	require.NoError(t, err)

	id := uuid.MustParse(resp.BookingID)
	require.NoError(t, f.svc.CancelBooking(context.Background(), id))

	booking, err := f.svc.GetBooking(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, booking.IsCancelled())
	require.NotNil(t, booking.CancelledAt)

	// create + cancel each wake the feed, and the cancel event went out
	assert.Len(t, f.feed.keys, 2)
	require.Len(t, f.producer.events, 2)
	assert.Equal(t, notifications.EventBookingCancelled, f.producer.events[1].Type)

	// cancelling twice is rejected
	require.Error(t, f.svc.CancelBooking(context.Background(), id))
}

func TestCancelBookingNotFound(t *testing.T) {
	f := newFixture()
	err := f.svc.CancelBooking(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrBookingNotFound)
}

func TestSnapshot(t *testing.T) {
	f := newFixture()
	date := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	f.repo.existing = []Booking{{
		ID:        uuid.New(),
		PackageID: f.pkg.ID,
		Date:      date,
		StartTime: "11:00",
		EndTime:   "12:00",
		Status:    StatusConfirmed,
	}}

	snap, err := f.svc.Snapshot(context.Background(), slots.Key{PackageID: f.pkg.ID, Date: date})
	require.NoError(t, err)

	require.Len(t, snap.Booked, 1)
	assert.Equal(t, "11:00", snap.Booked[0].Start.String())

	// the 09:00 to 17:00 window yields eight hourly candidates, one taken
	assert.Len(t, snap.Available, 7)
	for _, slot := range snap.Available {
		assert.NotEqual(t, "11:00", slot.Start.String())
	}
}

func TestGetBookingByReference(t *testing.T) {
	f := newFixture()
	resp, err := f.svc.Create(context.Background(), validRequest(f.pkg))
	require.NoError(t, err)

	booking, err := f.svc.GetByReference(context.Background(), resp.ReferenceNumber)
	require.NoError(t, err)
	assert.Equal(t, resp.BookingID, booking.ID.String())

	_, err = f.svc.GetByReference(context.Background(), "ZAP-00000000-XXXXXX")
	require.ErrorIs(t, err, ErrBookingNotFound)
}
