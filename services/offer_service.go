package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"amora_server/models"
	"amora_server/store"
)

// OfferInput is the editable part of an offer. Nil fields are left unchanged
// on update.
type OfferInput struct {
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Plan            *string    `json:"plan,omitempty"`
	PriceCents      *int64     `json:"priceCents,omitempty"`
	Currency        *string    `json:"currency,omitempty"`
	DiscountPercent *int       `json:"discountPercent,omitempty"`
	DurationDays    *int       `json:"durationDays,omitempty"`
	ValidFrom       *time.Time `json:"validFrom,omitempty"`
	ValidUntil      *time.Time `json:"validUntil,omitempty"`
	Active          *bool      `json:"active,omitempty"`
}

// OfferService is the offer repository.
type OfferService struct {
	Store store.DocumentStore
	Clock Clock
}

func NewOfferService(s store.DocumentStore, clock Clock) *OfferService {
	return &OfferService{Store: s, Clock: clock}
}

func (in OfferInput) apply(o *models.Offer) {
	if in.Title != nil {
		o.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		o.Description = *in.Description
	}
	if in.Plan != nil {
		o.Plan = strings.ToLower(*in.Plan)
	}
	if in.PriceCents != nil {
		o.PriceCents = *in.PriceCents
	}
	if in.Currency != nil {
		o.Currency = strings.ToLower(*in.Currency)
	}
	if in.DiscountPercent != nil {
		o.DiscountPercent = *in.DiscountPercent
	}
	if in.DurationDays != nil {
		o.DurationDays = *in.DurationDays
	}
	if in.ValidFrom != nil {
		o.ValidFrom = in.ValidFrom.UTC()
	}
	if in.ValidUntil != nil {
		o.ValidUntil = in.ValidUntil.UTC()
	}
	if in.Active != nil {
		o.Active = *in.Active
	}
}

func validateOffer(o *models.Offer) error {
	switch {
	case o.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	case o.Plan != models.PlanPlus && o.Plan != models.PlanGold:
		return fmt.Errorf("%w: plan must be %q or %q", ErrInvalidInput, models.PlanPlus, models.PlanGold)
	case o.PriceCents <= 0:
		return fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	case o.DiscountPercent < 0 || o.DiscountPercent > 100:
		return fmt.Errorf("%w: discount must be between 0 and 100", ErrInvalidInput)
	case o.DurationDays <= 0:
		return fmt.Errorf("%w: durationDays must be positive", ErrInvalidInput)
	case !o.ValidFrom.IsZero() && !o.ValidUntil.IsZero() && !o.ValidUntil.After(o.ValidFrom):
		return fmt.Errorf("%w: validUntil must be after validFrom", ErrInvalidInput)
	}
	return nil
}

// CreateOffer stores a new offer. Offers are active unless stated otherwise.
func (s *OfferService) CreateOffer(ctx context.Context, in OfferInput) (*models.Offer, error) {
	o := &models.Offer{
		ID:        uuid.NewString(),
		Currency:  "usd",
		Active:    true,
		CreatedAt: s.Clock.Now(),
	}
	in.apply(o)
	if err := validateOffer(o); err != nil {
		return nil, err
	}
	if err := s.Store.Put(ctx, models.OffersTable, o.ID, o); err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}
	return o, nil
}

// GetOffer reads one offer.
func (s *OfferService) GetOffer(ctx context.Context, id string) (*models.Offer, error) {
	var o models.Offer
	if err := s.Store.Get(ctx, models.OffersTable, id, &o); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("offer %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch offer: %w", err)
	}
	return &o, nil
}

// ListActiveOffers returns the offers that can be bought now, cheapest first.
func (s *OfferService) ListActiveOffers(ctx context.Context) ([]models.Offer, error) {
	var offers []models.Offer
	if err := s.Store.Query(ctx, models.OffersTable, []store.Filter{store.Eq("active", true)}, &offers); err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	now := s.Clock.Now()
	available := make([]models.Offer, 0, len(offers))
	for _, o := range offers {
		if o.IsAvailable(now) {
			available = append(available, o)
		}
	}
	sort.SliceStable(available, func(i, j int) bool {
		return available[i].FinalPriceCents() < available[j].FinalPriceCents()
	})
	return available, nil
}

// UpdateOffer applies a partial update.
func (s *OfferService) UpdateOffer(ctx context.Context, id string, in OfferInput) (*models.Offer, error) {
	o, err := s.GetOffer(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(o)
	if err := validateOffer(o); err != nil {
		return nil, err
	}
	if err := s.Store.Put(ctx, models.OffersTable, o.ID, o); err != nil {
		return nil, fmt.Errorf("failed to update offer: %w", err)
	}
	return o, nil
}

// DeactivateOffer withdraws an offer. Existing subscriptions are untouched.
func (s *OfferService) DeactivateOffer(ctx context.Context, id string) error {
	if err := s.Store.Update(ctx, models.OffersTable, id, map[string]interface{}{"active": false}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("offer %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to deactivate offer: %w", err)
	}
	return nil
}

// ExpireOffers deactivates active offers whose validity window has closed
// and returns how many changed.
func (s *OfferService) ExpireOffers(ctx context.Context, now time.Time) (int, error) {
	var offers []models.Offer
	if err := s.Store.Query(ctx, models.OffersTable, []store.Filter{store.Eq("active", true)}, &offers); err != nil {
		return 0, fmt.Errorf("failed to list offers: %w", err)
	}
	expired := 0
	for _, o := range offers {
		if !o.IsExpired(now) {
			continue
		}
		if err := s.DeactivateOffer(ctx, o.ID); err != nil {
			log.Warnf("failed to expire offer %s: %v", o.ID, err)
			continue
		}
		expired++
	}
	return expired, nil
}
