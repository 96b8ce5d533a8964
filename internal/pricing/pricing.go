package pricing

import (
	"math"

	"github.com/google/uuid"

	"zappoint/internal/catalog"
)

// ItemSelection is one chosen attraction or add-on with its quantity.
// Selections referencing items the package does not carry are ignored.
type ItemSelection struct {
	ID       uuid.UUID `json:"id"`
	Quantity int       `json:"quantity"`
}

// Line is one priced row of the breakdown.
type Line struct {
	ItemID    uuid.UUID `json:"item_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
	Total     float64   `json:"total"`
}

// Breakdown is the fully computed price of a selection. It is a derived
// projection: recomputed from the selection on every read, never stored or
// cached, so it cannot go stale.
type Breakdown struct {
	Base        float64 `json:"base"`
	Overage     float64 `json:"overage"`
	Attractions []Line  `json:"attractions,omitempty"`
	AddOns      []Line  `json:"add_ons,omitempty"`
	Subtotal    float64 `json:"subtotal"`
	Discount    float64 `json:"discount"`
	Total       float64 `json:"total"`

	// Partial payment: DueNow is the up-front amount when a split is chosen;
	// PartialAvailable is false when the package configures no policy, in
	// which case the split option is not offered at all.
	PartialAvailable bool    `json:"partial_available"`
	DueNow           float64 `json:"due_now"`

	// Resolved discount sources, for the booking snapshot.
	PromoID    *uuid.UUID `json:"promo_id,omitempty"`
	GiftCardID *uuid.UUID `json:"gift_card_id,omitempty"`
}

// Quote prices a composite order. Pure and deterministic: same inputs, same
// breakdown, cheap enough to call on every selection change.
//
// Computation order is contractual. Discounts apply sequentially to the
// running total, not independently to the subtotal: the gift card comes off
// the subtotal first, then a percentage promo compounds on the already
// discounted amount. The total never goes below zero.
func Quote(pkg *catalog.Package, participants int, attractions, addOns []ItemSelection, promoCode, giftCardCode string) Breakdown {
	b := Breakdown{Base: pkg.Price}

	// participant overage beyond the included maximum
	if pkg.PricePerAdditional > 0 && participants > pkg.MaxParticipants {
		b.Overage = float64(participants-pkg.MaxParticipants) * pkg.PricePerAdditional
	}

	for _, sel := range attractions {
		if sel.Quantity <= 0 {
			continue
		}
		attraction := pkg.FindAttraction(sel.ID)
		if attraction == nil {
			continue
		}
		multiplier := 1
		if attraction.PricingType == catalog.PricingPerPerson {
			multiplier = participants
		}
		total := attraction.Price * float64(sel.Quantity) * float64(multiplier)
		b.Attractions = append(b.Attractions, Line{
			ItemID:    attraction.ID,
			Name:      attraction.Name,
			Quantity:  sel.Quantity,
			UnitPrice: attraction.Price,
			Total:     round2(total),
		})
	}

	for _, sel := range addOns {
		if sel.Quantity <= 0 {
			continue
		}
		addOn := pkg.FindAddOn(sel.ID)
		if addOn == nil {
			continue
		}
		b.AddOns = append(b.AddOns, Line{
			ItemID:    addOn.ID,
			Name:      addOn.Name,
			Quantity:  sel.Quantity,
			UnitPrice: addOn.Price,
			Total:     round2(addOn.Price * float64(sel.Quantity)),
		})
	}

	subtotal := b.Base + b.Overage
	for _, line := range b.Attractions {
		subtotal += line.Total
	}
	for _, line := range b.AddOns {
		subtotal += line.Total
	}

	running := subtotal

	if giftCard := pkg.FindGiftCard(giftCardCode); giftCard != nil {
		running -= discountAmount(giftCard.DiscountType, giftCard.Value, running)
		id := giftCard.ID
		b.GiftCardID = &id
	}
	// promo applies after the gift card, compounding on the discounted amount
	if promo := pkg.FindPromo(promoCode); promo != nil {
		running -= discountAmount(promo.DiscountType, promo.Value, running)
		id := promo.ID
		b.PromoID = &id
	}

	total := math.Max(0, running)

	b.Base = round2(b.Base)
	b.Overage = round2(b.Overage)
	b.Subtotal = round2(subtotal)
	b.Total = round2(total)
	b.Discount = round2(subtotal - total)

	b.PartialAvailable = pkg.OffersPartialPayment()
	b.DueNow = partialDue(pkg, b.Total)

	return b
}

// partialDue computes the up-front amount under the package's partial-payment
// policy. The percentage policy takes priority when both are configured; a
// fixed amount never exceeds the total; no policy means no partial option.
func partialDue(pkg *catalog.Package, total float64) float64 {
	switch {
	case pkg.PartialPaymentPercentage > 0:
		return round2(total * pkg.PartialPaymentPercentage / 100)
	case pkg.PartialPaymentFixed > 0:
		return round2(math.Min(pkg.PartialPaymentFixed, total))
	}
	return 0
}

func discountAmount(kind catalog.DiscountType, value, base float64) float64 {
	if kind == catalog.DiscountPercentage {
		return base * value / 100
	}
	return value
}

// round2 rounds to 2 decimal places. Applied where amounts leave the engine
// (breakdown fields, line totals) so floating-point drift never reaches a
// collaborator or the user.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
