// Package wizard sequences a booking session: package, schedule, extras,
// customer details, payment. It owns the session's SelectionState, keeps at
// most one live slot subscription, and gates every forward transition on a
// pure guard so the UI can render buttons directly off the state.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"zappoint/internal/availability"
	"zappoint/internal/bookings"
	"zappoint/internal/catalog"
	"zappoint/internal/payments"
	"zappoint/internal/pricing"
	"zappoint/internal/slots"
)

// Step is the wizard's position in the booking flow.
type Step int

const (
	StepSelectPackage Step = iota
	StepSelectSchedule
	StepSelectExtras
	StepEnterCustomer
	StepReviewAndPay
	StepSubmitted
)

func (s Step) String() string {
	switch s {
	case StepSelectPackage:
		return "select_package"
	case StepSelectSchedule:
		return "select_schedule"
	case StepSelectExtras:
		return "select_extras"
	case StepEnterCustomer:
		return "enter_customer"
	case StepReviewAndPay:
		return "review_and_pay"
	case StepSubmitted:
		return "submitted"
	}
	return "unknown"
}

var (
	ErrNoPackage          = errors.New("no package selected")
	ErrStepBlocked        = errors.New("current step is not complete")
	ErrRoomRequired       = errors.New("package requires a room before scheduling")
	ErrRoomUnknown        = errors.New("room does not belong to the package")
	ErrDateNotAvailable   = errors.New("date is not available for this package")
	ErrPartialUnavailable = errors.New("package does not offer partial payment")
	ErrSubmitInFlight     = errors.New("a submission is already in flight")
	ErrAlreadySubmitted   = errors.New("booking already submitted")
	ErrCardInvalid        = errors.New("card details are invalid")
)

// Customer is the contact block collected at the EnterCustomer step.
type Customer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

func (c Customer) complete() bool {
	return c.FirstName != "" && c.LastName != "" && c.Email != "" && c.Phone != ""
}

// Selection is the session-scoped mutable state. It is created empty, mutated
// by the setters, and discarded with the wizard; it is never persisted.
type Selection struct {
	Package      *catalog.Package
	RoomID       *uuid.UUID
	Date         string
	Participants int
	Attractions  []pricing.ItemSelection
	AddOns       []pricing.ItemSelection
	PromoCode    string
	GiftCardCode string
	Customer     Customer

	PaymentMethod string
	PaymentSplit  string
	Card          *payments.CardDetails
}

// Submitter is the booking backend the wizard hands the finished selection to.
// bookings.Service satisfies it.
type Submitter interface {
	Create(ctx context.Context, req bookings.CreateBookingRequest) (*bookings.CreateBookingResponse, error)
}

// Wizard drives one booking session. Not safe for use from multiple sessions;
// one wizard per session, its own mutex covers the feed goroutine.
type Wizard struct {
	mu         sync.Mutex
	step       Step
	sel        Selection
	rec        *slots.Reconciler
	submitter  Submitter
	submitting bool
}

func New(source slots.Source, submitter Submitter) *Wizard {
	return &Wizard{
		step:      StepSelectPackage,
		rec:       slots.NewReconciler(source),
		submitter: submitter,
		sel:       Selection{PaymentMethod: bookings.MethodOnSite, PaymentSplit: bookings.SplitFull},
	}
}

// SelectPackage seeds the session. Room, date, time, extras and discount codes
// are package-scoped, so choosing a different package clears them all and
// reseeds the participant count to the package's included maximum.
func (w *Wizard) SelectPackage(pkg *catalog.Package) error {
	if pkg == nil || !pkg.Active {
		return ErrNoPackage
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step == StepSubmitted {
		return ErrAlreadySubmitted
	}

	w.sel = Selection{
		Package:       pkg,
		Participants:  pkg.MaxParticipants,
		PaymentMethod: bookings.MethodOnSite,
		PaymentSplit:  bookings.SplitFull,
		Customer:      w.sel.Customer, // contact details are not package-scoped
	}
	w.rec.Close()
	w.rec.ClearSelection()
	return nil
}

// SetRoom records the room choice and opens the slot subscription if a date
// is already set. Rooms only exist on packages that define them.
func (w *Wizard) SetRoom(ctx context.Context, roomID uuid.UUID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sel.Package == nil {
		return ErrNoPackage
	}
	if w.sel.Package.FindRoom(roomID) == nil {
		return ErrRoomUnknown
	}
	id := roomID
	w.sel.RoomID = &id
	return w.retuneLocked(ctx)
}

// SetDate records the date and opens (or replaces) the slot subscription.
// A package with rooms needs the room first; until then no subscription opens.
func (w *Wizard) SetDate(ctx context.Context, date string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sel.Package == nil {
		return ErrNoPackage
	}
	if err := w.validateDateLocked(date); err != nil {
		return err
	}
	w.sel.Date = date
	return w.retuneLocked(ctx)
}

func (w *Wizard) validateDateLocked(date string) error {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrDateNotAvailable, err)
	}
	// parsed is UTC midnight, so today must be the local calendar date
	// expressed the same way or the comparison shifts near midnight
	y, m, d := time.Now().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if parsed.Before(today) || parsed.After(today.AddDate(0, 0, availability.DefaultHorizonDays)) {
		return ErrDateNotAvailable
	}
	rule, err := w.sel.Package.Rule()
	if err != nil {
		return err
	}
	if !rule.Matches(parsed) {
		return ErrDateNotAvailable
	}
	return nil
}

// retuneLocked opens the subscription for the current (package, room, date)
// triple, tearing down any previous one. With rooms defined and none chosen
// it closes the subscription instead; that precondition also guards SetTime.
func (w *Wizard) retuneLocked(ctx context.Context) error {
	if w.sel.Date == "" {
		return nil
	}
	if w.sel.Package.HasRooms() && w.sel.RoomID == nil {
		return nil
	}
	key := slots.Key{PackageID: w.sel.Package.ID, Date: w.sel.Date}
	if w.sel.RoomID != nil {
		key.RoomID = *w.sel.RoomID
	}
	return w.rec.Retune(ctx, key)
}

// SetTime picks a start time from the live available set.
func (w *Wizard) SetTime(start slots.Clock) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sel.Package == nil {
		return ErrNoPackage
	}
	if w.sel.Package.HasRooms() && w.sel.RoomID == nil {
		return ErrRoomRequired
	}
	return w.rec.Select(start)
}

func (w *Wizard) SetParticipants(n int) error {
	if n < 1 {
		return fmt.Errorf("participant count must be at least 1")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sel.Participants = n
	return nil
}

// SetAttraction sets the quantity for an attraction; zero removes it.
func (w *Wizard) SetAttraction(id uuid.UUID, quantity int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sel.Package == nil {
		return ErrNoPackage
	}
	if w.sel.Package.FindAttraction(id) == nil {
		return fmt.Errorf("attraction %s is not offered by the package", id)
	}
	w.sel.Attractions = setQuantity(w.sel.Attractions, id, quantity)
	return nil
}

// SetAddOn sets the quantity for an add-on; zero removes it.
func (w *Wizard) SetAddOn(id uuid.UUID, quantity int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sel.Package == nil {
		return ErrNoPackage
	}
	if w.sel.Package.FindAddOn(id) == nil {
		return fmt.Errorf("add-on %s is not offered by the package", id)
	}
	w.sel.AddOns = setQuantity(w.sel.AddOns, id, quantity)
	return nil
}

func setQuantity(items []pricing.ItemSelection, id uuid.UUID, quantity int) []pricing.ItemSelection {
	out := items[:0]
	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
		}
	}
	if quantity > 0 {
		out = append(out, pricing.ItemSelection{ID: id, Quantity: quantity})
	}
	return out
}

func (w *Wizard) SetPromoCode(code string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sel.PromoCode = code
}

func (w *Wizard) SetGiftCardCode(code string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sel.GiftCardCode = code
}

func (w *Wizard) SetCustomer(c Customer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sel.Customer = c
}

// SetPayment chooses method and split. The partial split is only selectable
// when the package configures a partial-payment policy.
func (w *Wizard) SetPayment(method, split string, card *payments.CardDetails) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sel.Package == nil {
		return ErrNoPackage
	}
	if split == bookings.SplitPartial && !w.sel.Package.OffersPartialPayment() {
		return ErrPartialUnavailable
	}
	if split == "" {
		split = bookings.SplitFull
	}
	w.sel.PaymentMethod = method
	w.sel.PaymentSplit = split
	w.sel.Card = card
	return nil
}

// Price recomputes the breakdown from the current selection. Derived, never
// cached; cheap enough to call on every change.
func (w *Wizard) Price() pricing.Breakdown {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sel.Package == nil {
		return pricing.Breakdown{}
	}
	return pricing.Quote(w.sel.Package, w.sel.Participants,
		w.sel.Attractions, w.sel.AddOns, w.sel.PromoCode, w.sel.GiftCardCode)
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Selection returns a copy of the current state for rendering.
func (w *Wizard) Selection() Selection {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sel
}

// SelectedTime exposes the reconciler's current slot choice.
func (w *Wizard) SelectedTime() (slots.Slot, bool) {
	return w.rec.Selected()
}

// AvailableSlots exposes the live-narrowed slot list.
func (w *Wizard) AvailableSlots() []slots.Slot {
	return w.rec.Available()
}

// SlotState reports the feed's health for the schedule step.
func (w *Wizard) SlotState() slots.State {
	return w.rec.State()
}

// CanAdvance evaluates the forward guard for the current step.
func (w *Wizard) CanAdvance() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canAdvanceLocked()
}

func (w *Wizard) canAdvanceLocked() bool {
	switch w.step {
	case StepSelectPackage:
		return w.sel.Package != nil
	case StepSelectSchedule:
		return w.scheduleCompleteLocked()
	case StepSelectExtras:
		return true // extras are optional
	case StepEnterCustomer:
		return w.sel.Customer.complete()
	case StepReviewAndPay:
		return w.submitReadyLocked()
	}
	return false
}

func (w *Wizard) scheduleCompleteLocked() bool {
	if w.sel.Date == "" {
		return false
	}
	if w.sel.Package.HasRooms() && w.sel.RoomID == nil {
		return false
	}
	_, ok := w.rec.Selected()
	return ok
}

// SubmitReady is the full submit predicate, re-checked independently of the
// per-step guards because backward navigation can invalidate earlier steps.
func (w *Wizard) SubmitReady() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitReadyLocked()
}

func (w *Wizard) submitReadyLocked() bool {
	if w.sel.Package == nil || w.sel.Participants < 1 {
		return false
	}
	if !w.scheduleCompleteLocked() {
		return false
	}
	return w.sel.Customer.complete()
}

// Advance moves one step forward if the current step's guard passes.
func (w *Wizard) Advance() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step == StepSubmitted {
		return ErrAlreadySubmitted
	}
	if w.step == StepReviewAndPay {
		return fmt.Errorf("use Submit to leave the review step")
	}
	if !w.canAdvanceLocked() {
		return ErrStepBlocked
	}
	w.step++
	return nil
}

// Back moves one step backward. Downstream selections are preserved so the
// user can change a choice and return without re-entering unrelated data.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step == StepSubmitted {
		return ErrAlreadySubmitted
	}
	if w.step > StepSelectPackage {
		w.step--
	}
	return nil
}

// Submit hands the selection to the booking backend. At most one submission
// is in flight; a failure leaves the wizard on ReviewAndPay so the user can
// retry, and only success reaches Submitted.
func (w *Wizard) Submit(ctx context.Context) (*bookings.CreateBookingResponse, error) {
	w.mu.Lock()
	if w.step == StepSubmitted {
		w.mu.Unlock()
		return nil, ErrAlreadySubmitted
	}
	if w.submitting {
		w.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if !w.submitReadyLocked() {
		w.mu.Unlock()
		return nil, ErrStepBlocked
	}
	if err := w.validateCardLocked(); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	req := w.buildRequestLocked()
	w.submitting = true
	w.mu.Unlock()

	resp, err := w.submitter.Create(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false
	if err != nil {
		return nil, err
	}
	w.step = StepSubmitted
	w.rec.Close()
	return resp, nil
}

func (w *Wizard) validateCardLocked() error {
	if w.sel.PaymentMethod != bookings.MethodCard || !w.sel.Package.OnlineProcessingEnabled {
		return nil
	}
	if w.sel.Card == nil {
		return fmt.Errorf("%w: no card details entered", ErrCardInvalid)
	}
	if err := w.sel.Card.Validate(time.Now()); err != nil {
		return fmt.Errorf("%w: %s", ErrCardInvalid, err)
	}
	return nil
}

func (w *Wizard) buildRequestLocked() bookings.CreateBookingRequest {
	selected, _ := w.rec.Selected()
	req := bookings.CreateBookingRequest{
		PackageID:    w.sel.Package.ID.String(),
		Date:         w.sel.Date,
		StartTime:    selected.Start.String(),
		Participants: w.sel.Participants,
		PromoCode:    w.sel.PromoCode,
		GiftCardCode: w.sel.GiftCardCode,
		Customer: bookings.CustomerRequest{
			FirstName: w.sel.Customer.FirstName,
			LastName:  w.sel.Customer.LastName,
			Email:     w.sel.Customer.Email,
			Phone:     w.sel.Customer.Phone,
		},
		PaymentMethod: w.sel.PaymentMethod,
		PaymentSplit:  w.sel.PaymentSplit,
		Card:          w.sel.Card,
	}
	if w.sel.RoomID != nil {
		req.RoomID = w.sel.RoomID.String()
	}
	for _, item := range w.sel.Attractions {
		req.Attractions = append(req.Attractions, bookings.ItemSelectionRequest{
			ID: item.ID.String(), Quantity: item.Quantity,
		})
	}
	for _, item := range w.sel.AddOns {
		req.AddOns = append(req.AddOns, bookings.ItemSelectionRequest{
			ID: item.ID.String(), Quantity: item.Quantity,
		})
	}
	return req
}

// Close releases the slot subscription. Call on navigation away.
func (w *Wizard) Close() {
	w.rec.Close()
}
