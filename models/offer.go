package models

import (
	"time"

	"amora_server/utils"
)

// Offer is a purchasable subscription plan, possibly discounted and time boxed.
type Offer struct {
	ID              string    `dynamodbav:"id" json:"id"`
	Title           string    `dynamodbav:"title" json:"title"`
	Description     string    `dynamodbav:"description,omitempty" json:"description,omitempty"`
	Plan            string    `dynamodbav:"plan" json:"plan"`
	PriceCents      int64     `dynamodbav:"priceCents" json:"priceCents"`
	Currency        string    `dynamodbav:"currency" json:"currency"`
	DiscountPercent int       `dynamodbav:"discountPercent" json:"discountPercent"`
	DurationDays    int       `dynamodbav:"durationDays" json:"durationDays"`
	ValidFrom       time.Time `dynamodbav:"validFrom,omitempty" json:"validFrom,omitempty"`
	ValidUntil      time.Time `dynamodbav:"validUntil,omitempty" json:"validUntil,omitempty"`
	Active          bool      `dynamodbav:"active" json:"active"`
	CreatedAt       time.Time `dynamodbav:"createdAt" json:"createdAt"`
}

// IsExpired reports whether the offer's validity window has closed.
// An offer without an end date never expires.
func (o *Offer) IsExpired(now time.Time) bool {
	return !o.ValidUntil.IsZero() && !now.Before(o.ValidUntil)
}

// IsAvailable reports whether the offer can be bought at now.
func (o *Offer) IsAvailable(now time.Time) bool {
	if !o.Active || o.IsExpired(now) {
		return false
	}
	return o.ValidFrom.IsZero() || !now.Before(o.ValidFrom)
}

// FinalPriceCents applies the discount, rounding down to whole cents.
func (o *Offer) FinalPriceCents() int64 {
	d := o.DiscountPercent
	if d < 0 {
		d = 0
	}
	if d > 100 {
		d = 100
	}
	return o.PriceCents * int64(100-d) / 100
}

// FormattedPrice renders the discounted price.
func (o *Offer) FormattedPrice() string {
	return utils.FormatPrice(o.FinalPriceCents(), o.Currency)
}
