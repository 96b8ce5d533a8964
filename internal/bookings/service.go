package bookings

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"

	"zappoint/internal/availability"
	"zappoint/internal/catalog"
	"zappoint/internal/notifications"
	"zappoint/internal/payments"
	"zappoint/internal/pricing"
	"zappoint/internal/slots"
	"zappoint/pkg/logger"
)

// SlotInvalidator wakes live slot subscriptions after a booking-state change;
// *slots.Feed implements it. Wired after construction because the feed's
// snapshot function is this service (see SetSlotFeed).
type SlotInvalidator interface {
	Invalidate(ctx context.Context, key slots.Key) error
}

// Service interface defines the contract for booking business logic
type Service interface {
	Create(ctx context.Context, req CreateBookingRequest) (*CreateBookingResponse, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByReference(ctx context.Context, reference string) (*Booking, error)
	CancelBooking(ctx context.Context, id uuid.UUID) error

	// Snapshot computes the authoritative slot state for a key: candidates
	// from the package's operating window, reconciled against non-cancelled
	// bookings. It is the slots.SnapshotFunc behind the live feed.
	Snapshot(ctx context.Context, key slots.Key) (slots.Snapshot, error)

	// SetSlotFeed injects the feed after construction (the feed needs this
	// service's Snapshot first).
	SetSlotFeed(feed SlotInvalidator)
}

type service struct {
	repo     Repository
	catalog  catalog.Service
	gateway  payments.Gateway
	feed     SlotInvalidator
	producer notifications.Producer
	receipts ReceiptStore
	log      *logger.Logger
}

// NewService creates a new booking service instance. producer, receipts and
// the slot feed are optional collaborators: their absence (or failure) never
// blocks a booking.
func NewService(repo Repository, catalogSvc catalog.Service, gateway payments.Gateway,
	producer notifications.Producer, receipts ReceiptStore, log *logger.Logger) Service {
	if log == nil {
		log = logger.GetDefault()
	}
	return &service{
		repo:     repo,
		catalog:  catalogSvc,
		gateway:  gateway,
		producer: producer,
		receipts: receipts,
		log:      log,
	}
}

func (s *service) SetSlotFeed(feed SlotInvalidator) {
	s.feed = feed
}

// Create validates, re-prices and persists a booking. Client-supplied totals
// are never trusted: the breakdown is recomputed here and the persisted
// snapshot is what the customer is charged.
func (s *service) Create(ctx context.Context, req CreateBookingRequest) (*CreateBookingResponse, error) {
	// Step 1: load the package with its nested collections
	packageID, err := uuid.Parse(req.PackageID)
	if err != nil {
		return nil, fmt.Errorf("invalid package id: %w", err)
	}
	pkg, err := s.catalog.GetPackage(ctx, packageID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPackageUnavailable, err)
	}
	if !pkg.Active {
		return nil, ErrPackageUnavailable
	}

	// Step 2: room precondition
	roomID, err := s.resolveRoom(pkg, req.RoomID)
	if err != nil {
		return nil, err
	}

	// Step 3: the date must pass the availability rule within the horizon
	if err := s.validateDate(pkg, req.Date); err != nil {
		return nil, err
	}

	// Step 4: the requested time must be a generated candidate that no other
	// booking overlaps. This re-checks what the live feed told the client,
	// because another session may have taken the slot in between.
	slot, err := s.validateSlot(ctx, pkg, roomID, req.Date, req.StartTime)
	if err != nil {
		return nil, err
	}

	// Step 5: authoritative server-side pricing
	breakdown := pricing.Quote(pkg, req.Participants,
		toSelections(req.Attractions), toSelections(req.AddOns),
		req.PromoCode, req.GiftCardCode)

	// Step 6: collect payment up front when the card sub-flow applies
	charge, amountDue, err := s.collectPayment(ctx, pkg, req, breakdown)
	if err != nil {
		return nil, err
	}

	// Step 7: assemble the snapshot and persist in one transaction
	reference, err := generateReference()
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking reference: %w", err)
	}

	booking := &Booking{
		PackageID:         packageID,
		RoomID:            roomID,
		Date:              req.Date,
		StartTime:         slot.Start.String(),
		EndTime:           slot.End.String(),
		Participants:      req.Participants,
		Subtotal:          breakdown.Subtotal,
		Discount:          breakdown.Discount,
		Total:             breakdown.Total,
		PromoID:           breakdown.PromoID,
		GiftCardID:        breakdown.GiftCardID,
		PaymentMethod:     req.PaymentMethod,
		Status:            StatusConfirmed,
		ReferenceNumber:   reference,
		CustomerFirstName: req.Customer.FirstName,
		CustomerLastName:  req.Customer.LastName,
		CustomerEmail:     req.Customer.Email,
		CustomerPhone:     req.Customer.Phone,
		Items:             buildItems(pkg, req, breakdown),
	}

	if charge != nil {
		booking.AmountPaid = charge.Amount
		booking.PaymentStatus = paymentStatusFor(charge.Amount, breakdown.Total)
		processedAt := charge.ProcessedAt
		booking.Payments = []Payment{{
			Amount:        charge.Amount,
			Status:        "COMPLETED",
			Method:        req.PaymentMethod,
			TransactionID: charge.TransactionID,
			ProcessedAt:   &processedAt,
		}}
	} else {
		booking.PaymentStatus = PaymentUnpaid
		if amountDue > 0 {
			booking.Payments = []Payment{{
				Amount: amountDue,
				Status: "PENDING",
				Method: req.PaymentMethod,
			}}
		}
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.log.LogBookingCreated(ctx, booking.ID.String(), booking.PackageID.String(), booking.ReferenceNumber)

	// Step 8: best-effort side effects. The booking is already durable; a
	// failure here is logged and swallowed.
	s.notifySlotChange(ctx, packageID, roomID, req.Date)
	s.publishEvent(ctx, notifications.EventBookingConfirmed, booking)
	s.storeReceipt(ctx, booking, breakdown)

	return &CreateBookingResponse{
		BookingID:       booking.ID.String(),
		ReferenceNumber: booking.ReferenceNumber,
		Status:          booking.Status,
		PaymentStatus:   booking.PaymentStatus,
		AmountPaid:      booking.AmountPaid,
		Breakdown:       breakdown,
		CreatedAt:       booking.CreatedAt,
	}, nil
}

func (s *service) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByReference(ctx context.Context, reference string) (*Booking, error) {
	return s.repo.GetByReference(ctx, reference)
}

func (s *service) CancelBooking(ctx context.Context, id uuid.UUID) error {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if booking.IsCancelled() {
		return fmt.Errorf("booking %s is already cancelled", booking.ReferenceNumber)
	}

	now := time.Now()
	if err := s.repo.UpdateStatus(ctx, id, StatusCancelled, &now); err != nil {
		return err
	}

	// cancelling frees the slot: wake the feed and tell downstream
	s.notifySlotChange(ctx, booking.PackageID, booking.RoomID, booking.Date)
	s.publishEvent(ctx, notifications.EventBookingCancelled, booking)
	return nil
}

func (s *service) Snapshot(ctx context.Context, key slots.Key) (slots.Snapshot, error) {
	pkg, err := s.catalog.GetPackage(ctx, key.PackageID)
	if err != nil {
		return slots.Snapshot{}, err
	}
	window, err := pkg.Window()
	if err != nil {
		return slots.Snapshot{}, err
	}

	var roomID *uuid.UUID
	if key.RoomID != uuid.Nil {
		id := key.RoomID
		roomID = &id
	}
	existing, err := s.repo.ListForSlotKey(ctx, key.PackageID, roomID, key.Date)
	if err != nil {
		return slots.Snapshot{}, err
	}

	booked := make([]slots.Slot, 0, len(existing))
	for _, b := range existing {
		slot, err := parseSlot(b.StartTime, b.EndTime)
		if err != nil {
			// a malformed stored slot must not hide the rest of the day
			s.log.Warn("skipping malformed booked slot",
				slog.String("booking_id", b.ID.String()), slog.Any("error", err))
			continue
		}
		booked = append(booked, slot)
	}

	candidates := slots.Generate(window)
	return slots.Snapshot{
		Available: slots.Reconcile(candidates, booked),
		Booked:    booked,
	}, nil
}

func (s *service) resolveRoom(pkg *catalog.Package, raw string) (*uuid.UUID, error) {
	if !pkg.HasRooms() {
		return nil, nil
	}
	if raw == "" {
		return nil, ErrRoomRequired
	}
	roomID, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRoomUnknown, err)
	}
	if pkg.FindRoom(roomID) == nil {
		return nil, ErrRoomUnknown
	}
	return &roomID, nil
}

func (s *service) validateDate(pkg *catalog.Package, rawDate string) error {
	date, err := time.Parse("2006-01-02", rawDate)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrDateNotBookable, err)
	}

	// date is UTC midnight from time.Parse; build today the same way from
	// the local calendar date so the bounds hold near midnight
	y, m, d := time.Now().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	horizon := today.AddDate(0, 0, availability.DefaultHorizonDays)
	if date.Before(today) || date.After(horizon) {
		return ErrDateNotBookable
	}

	rule, err := pkg.Rule()
	if err != nil {
		return fmt.Errorf("package %s has an invalid availability rule: %w", pkg.ID, err)
	}
	if !rule.Matches(date) {
		return ErrDateNotBookable
	}
	return nil
}

func (s *service) validateSlot(ctx context.Context, pkg *catalog.Package, roomID *uuid.UUID, date, startTime string) (slots.Slot, error) {
	window, err := pkg.Window()
	if err != nil {
		return slots.Slot{}, fmt.Errorf("package %s has an invalid operating window: %w", pkg.ID, err)
	}
	start, err := slots.ParseClock(startTime)
	if err != nil {
		return slots.Slot{}, fmt.Errorf("%w: %s", ErrSlotUnavailable, err)
	}

	var requested *slots.Slot
	for _, c := range slots.Generate(window) {
		if c.Start == start {
			candidate := c
			requested = &candidate
			break
		}
	}
	if requested == nil {
		return slots.Slot{}, ErrSlotUnavailable
	}

	existing, err := s.repo.ListForSlotKey(ctx, pkg.ID, roomID, date)
	if err != nil {
		return slots.Slot{}, err
	}
	for _, b := range existing {
		booked, err := parseSlot(b.StartTime, b.EndTime)
		if err != nil {
			continue
		}
		if requested.Overlaps(booked) {
			return slots.Slot{}, ErrSlotUnavailable
		}
	}
	return *requested, nil
}

// collectPayment runs the card sub-flow when it applies and returns the
// charge (nil when paying on site) plus the amount due now.
func (s *service) collectPayment(ctx context.Context, pkg *catalog.Package, req CreateBookingRequest, breakdown pricing.Breakdown) (*payments.ChargeResult, float64, error) {
	amountDue := breakdown.Total
	if req.PaymentSplit == SplitPartial {
		if !breakdown.PartialAvailable {
			return nil, 0, fmt.Errorf("%w: package offers no partial payment", ErrPaymentFailed)
		}
		amountDue = breakdown.DueNow
	}

	if req.PaymentMethod != MethodCard || !pkg.OnlineProcessingEnabled {
		return nil, amountDue, nil
	}
	if req.Card == nil {
		return nil, 0, fmt.Errorf("%w: card details are required", ErrPaymentFailed)
	}
	if err := req.Card.Validate(time.Now()); err != nil {
		return nil, 0, fmt.Errorf("%w: %s", ErrPaymentFailed, err)
	}
	if amountDue <= 0 {
		// fully discounted order, nothing to charge
		return nil, 0, nil
	}

	charge, err := s.gateway.Charge(ctx, *req.Card, amountDue)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s", ErrPaymentFailed, err)
	}
	return charge, amountDue, nil
}

func (s *service) notifySlotChange(ctx context.Context, packageID uuid.UUID, roomID *uuid.UUID, date string) {
	if s.feed == nil {
		return
	}
	key := slots.Key{PackageID: packageID, Date: date}
	if roomID != nil {
		key.RoomID = *roomID
	}
	if err := s.feed.Invalidate(ctx, key); err != nil {
		s.log.Error("slot feed invalidation failed",
			slog.String("key", key.String()), slog.Any("error", err))
	}
}

func (s *service) publishEvent(ctx context.Context, eventType notifications.EventType, booking *Booking) {
	if s.producer == nil {
		return
	}
	event := &notifications.BookingEvent{
		Type:            eventType,
		BookingID:       booking.ID.String(),
		ReferenceNumber: booking.ReferenceNumber,
		PackageID:       booking.PackageID.String(),
		Date:            booking.Date,
		StartTime:       booking.StartTime,
		Total:           booking.Total,
		AmountPaid:      booking.AmountPaid,
		CustomerEmail:   booking.CustomerEmail,
		OccurredAt:      time.Now(),
	}
	if err := s.producer.PublishBookingEvent(ctx, event); err != nil {
		s.log.Error("booking event publish failed",
			slog.String("booking_id", booking.ID.String()), slog.Any("error", err))
	}
}

func (s *service) storeReceipt(ctx context.Context, booking *Booking, breakdown pricing.Breakdown) {
	if s.receipts == nil {
		return
	}
	artifact, err := json.Marshal(receiptArtifact{
		ReferenceNumber: booking.ReferenceNumber,
		Date:            booking.Date,
		StartTime:       booking.StartTime,
		Customer:        booking.CustomerFirstName + " " + booking.CustomerLastName,
		Breakdown:       breakdown,
		AmountPaid:      booking.AmountPaid,
	})
	if err == nil {
		err = s.receipts.Store(ctx, booking.ID, artifact)
	}
	if err != nil {
		s.log.Error("receipt artifact storage failed",
			slog.String("booking_id", booking.ID.String()), slog.Any("error", err))
	}
}

type receiptArtifact struct {
	ReferenceNumber string            `json:"reference_number"`
	Date            string            `json:"date"`
	StartTime       string            `json:"start_time"`
	Customer        string            `json:"customer"`
	Breakdown       pricing.Breakdown `json:"breakdown"`
	AmountPaid      float64           `json:"amount_paid"`
}

func toSelections(items []ItemSelectionRequest) []pricing.ItemSelection {
	out := make([]pricing.ItemSelection, 0, len(items))
	for _, item := range items {
		id, err := uuid.Parse(item.ID)
		if err != nil {
			continue
		}
		out = append(out, pricing.ItemSelection{ID: id, Quantity: item.Quantity})
	}
	return out
}

func buildItems(pkg *catalog.Package, req CreateBookingRequest, breakdown pricing.Breakdown) []BookingItem {
	items := make([]BookingItem, 0, len(breakdown.Attractions)+len(breakdown.AddOns))
	for _, line := range breakdown.Attractions {
		items = append(items, BookingItem{
			ItemType:  "attraction",
			ItemID:    line.ItemID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.Total,
		})
	}
	for _, line := range breakdown.AddOns {
		items = append(items, BookingItem{
			ItemType:  "add_on",
			ItemID:    line.ItemID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.Total,
		})
	}
	return items
}

func paymentStatusFor(paid, total float64) string {
	switch {
	case paid <= 0:
		return PaymentUnpaid
	case paid < total:
		return PaymentPartiallyPaid
	}
	return PaymentPaid
}

func parseSlot(start, end string) (slots.Slot, error) {
	s, err := slots.ParseClock(start)
	if err != nil {
		return slots.Slot{}, err
	}
	e, err := slots.ParseClock(end)
	if err != nil {
		return slots.Slot{}, err
	}
	return slots.Slot{Start: s, End: e}, nil
}

// generateReference builds a unique human-readable booking reference,
// ZAP-YYYYMMDD-XXXXXX.
func generateReference() (string, error) {
	timestamp := time.Now().Format("20060102")

	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	randomPart := make([]byte, 6)
	for i := range randomPart {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		randomPart[i] = letters[num.Int64()]
	}

	return fmt.Sprintf("ZAP-%s-%s", timestamp, string(randomPart)), nil
}
