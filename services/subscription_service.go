package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"amora_server/metrics"
	"amora_server/models"
	"amora_server/store"
)

// Checkout is returned when a user starts buying an offer. The client
// completes the payment with the provider's SDK using ClientSecret.
type Checkout struct {
	Subscription *models.Subscription `json:"subscription"`
	Payment      *models.Payment      `json:"payment"`
	ClientSecret string               `json:"clientSecret"`
}

// SubscriptionService is the subscription and payment repository.
type SubscriptionService struct {
	Store         store.DocumentStore
	Offers        *OfferService
	Payments      PaymentProvider
	Notifications *NotificationService
	Clock         Clock
}

func NewSubscriptionService(s store.DocumentStore, offers *OfferService, payments PaymentProvider, notifications *NotificationService, clock Clock) *SubscriptionService {
	return &SubscriptionService{Store: s, Offers: offers, Payments: payments, Notifications: notifications, Clock: clock}
}

// Subscribe creates a pending subscription for the offer and a payment
// intent for its discounted price.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID, offerID string) (*Checkout, error) {
	if s.Payments == nil {
		return nil, ErrVendorNotEnabled
	}
	offer, err := s.Offers.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	now := s.Clock.Now()
	if !offer.IsAvailable(now) {
		return nil, fmt.Errorf("%w: offer is no longer available", ErrInvalidInput)
	}

	sub := &models.Subscription{
		ID:        uuid.NewString(),
		UserID:    userID,
		OfferID:   offer.ID,
		Plan:      offer.Plan,
		Status:    models.SubscriptionStatusPending,
		AutoRenew: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	payment := &models.Payment{
		ID:             uuid.NewString(),
		UserID:         userID,
		SubscriptionID: sub.ID,
		Provider:       s.Payments.Name(),
		AmountCents:    offer.FinalPriceCents(),
		Currency:       offer.Currency,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	sub.PaymentID = payment.ID

	intent, err := s.Payments.CreateIntent(ctx, payment.AmountCents, payment.Currency, map[string]string{
		"paymentId":      payment.ID,
		"subscriptionId": sub.ID,
		"userId":         userID,
		"offerId":        offer.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	payment.ProviderRef = intent.Ref
	payment.Status = intent.Status

	if err := s.Store.Put(ctx, models.SubscriptionsTable, sub.ID, sub); err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	if err := s.Store.Put(ctx, models.PaymentsTable, payment.ID, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	payment.ClientSecret = intent.ClientSecret
	log.WithFields(log.Fields{"user": userID, "subscription": sub.ID, "payment": payment.ID}).Info("checkout started")

	return &Checkout{Subscription: sub, Payment: payment, ClientSecret: intent.ClientSecret}, nil
}

// ConfirmPayment refreshes a payment from the provider and applies the
// outcome to its subscription.
func (s *SubscriptionService) ConfirmPayment(ctx context.Context, userID, paymentID string) (*models.Payment, error) {
	if s.Payments == nil {
		return nil, ErrVendorNotEnabled
	}
	payment, err := s.GetPayment(ctx, userID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.IsFinal() {
		return payment, nil
	}
	intent, err := s.Payments.GetIntent(ctx, payment.ProviderRef)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment intent: %w", err)
	}
	if err := s.applyStatus(ctx, payment, intent.Status); err != nil {
		return nil, err
	}
	return payment, nil
}

// HandleProviderEvent applies a verified webhook from the payment provider.
// Events for unknown intents are ignored.
func (s *SubscriptionService) HandleProviderEvent(ctx context.Context, payload []byte, signature string) error {
	if s.Payments == nil {
		return ErrVendorNotEnabled
	}
	intent, err := s.Payments.ParseEvent(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if intent == nil {
		return nil
	}

	var payments []models.Payment
	if err := s.Store.Query(ctx, models.PaymentsTable, []store.Filter{store.Eq("providerRef", intent.Ref)}, &payments); err != nil {
		return fmt.Errorf("failed to look up payment: %w", err)
	}
	if len(payments) == 0 {
		log.Warnf("webhook for unknown payment intent %s", intent.Ref)
		return nil
	}
	return s.applyStatus(ctx, &payments[0], intent.Status)
}

func (s *SubscriptionService) applyStatus(ctx context.Context, payment *models.Payment, status string) error {
	if status == "" || status == payment.Status {
		return nil
	}
	now := s.Clock.Now()
	if err := s.Store.Update(ctx, models.PaymentsTable, payment.ID, map[string]interface{}{
		"status":    status,
		"updatedAt": now,
	}); err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	payment.Status = status
	payment.UpdatedAt = now
	metrics.PaymentUpdated(status)

	// A failed attempt can be retried on the same intent, so only a
	// cancelled intent gives up on the subscription.
	switch status {
	case models.PaymentStatusSucceeded:
		return s.activate(ctx, payment)
	case models.PaymentStatusCancelled:
		return s.abandon(ctx, payment)
	}
	return nil
}

// activate starts the paid period. A user who already has premium time left
// gets the new period appended to it. A checkout abandoned before the charge
// landed is activated as well.
func (s *SubscriptionService) activate(ctx context.Context, payment *models.Payment) error {
	sub, err := s.getSubscription(ctx, payment.SubscriptionID)
	if err != nil {
		return err
	}
	if !sub.AwaitingPayment() {
		log.WithFields(log.Fields{"subscription": sub.ID, "status": sub.Status}).Warn("payment succeeded for a started subscription")
		return nil
	}
	offer, err := s.Offers.GetOffer(ctx, sub.OfferID)
	if err != nil {
		return err
	}

	now := s.Clock.Now()
	start := now
	if current, err := s.Active(ctx, sub.UserID); err != nil {
		return err
	} else if current != nil && current.ExpiresAt.After(start) {
		start = current.ExpiresAt
	}
	expires := start.AddDate(0, 0, offer.DurationDays)

	if err := s.Store.Update(ctx, models.SubscriptionsTable, sub.ID, map[string]interface{}{
		"status":    models.SubscriptionStatusActive,
		"startedAt": now,
		"expiresAt": expires,
		"updatedAt": now,
	}); err != nil {
		return fmt.Errorf("failed to activate subscription: %w", err)
	}
	log.WithFields(log.Fields{"user": sub.UserID, "subscription": sub.ID, "expiresAt": expires}).Info("subscription activated")

	days := strconv.Itoa(offer.DurationDays)
	if _, err := s.Notifications.Notify(ctx, sub.UserID, models.NotificationTypeSubscription, "Welcome to "+offer.Title,
		"Your premium features are active for "+days+" days", map[string]string{"subscriptionId": sub.ID}); err != nil {
		log.Warnf("failed to notify %s of subscription: %v", sub.UserID, err)
	}
	return nil
}

func (s *SubscriptionService) abandon(ctx context.Context, payment *models.Payment) error {
	sub, err := s.getSubscription(ctx, payment.SubscriptionID)
	if err != nil {
		return err
	}
	if sub.Status != models.SubscriptionStatusPending {
		return nil
	}
	if err := s.Store.Update(ctx, models.SubscriptionsTable, sub.ID, map[string]interface{}{
		"status":    models.SubscriptionStatusCancelled,
		"autoRenew": false,
		"updatedAt": s.Clock.Now(),
	}); err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}
	return nil
}

func (s *SubscriptionService) getSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.Store.Get(ctx, models.SubscriptionsTable, id, &sub); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("subscription %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch subscription: %w", err)
	}
	return &sub, nil
}

// Cancel stops renewal of an active subscription, which stays usable until
// it expires. A pending one is abandoned along with its payment intent.
func (s *SubscriptionService) Cancel(ctx context.Context, userID, subID string) (*models.Subscription, error) {
	sub, err := s.getSubscription(ctx, subID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, ErrForbidden
	}

	switch sub.Status {
	case models.SubscriptionStatusActive:
	case models.SubscriptionStatusPending:
		if s.Payments != nil && sub.PaymentID != "" {
			if payment, err := s.GetPayment(ctx, userID, sub.PaymentID); err == nil && !payment.IsFinal() {
				if err := s.Payments.CancelIntent(ctx, payment.ProviderRef); err != nil {
					log.Warnf("failed to cancel payment intent %s: %v", payment.ProviderRef, err)
				}
			}
		}
	default:
		return nil, fmt.Errorf("%w: subscription is already %s", ErrConflict, sub.Status)
	}

	now := s.Clock.Now()
	if err := s.Store.Update(ctx, models.SubscriptionsTable, sub.ID, map[string]interface{}{
		"status":    models.SubscriptionStatusCancelled,
		"autoRenew": false,
		"updatedAt": now,
	}); err != nil {
		return nil, fmt.Errorf("failed to cancel subscription: %w", err)
	}
	sub.Status = models.SubscriptionStatusCancelled
	sub.AutoRenew = false
	sub.UpdatedAt = now
	return sub, nil
}

// Active returns the subscription currently granting premium with the
// latest expiry, or nil.
func (s *SubscriptionService) Active(ctx context.Context, userID string) (*models.Subscription, error) {
	subs, err := s.History(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.Clock.Now()
	var best *models.Subscription
	for i := range subs {
		if !subs[i].IsActive(now) {
			continue
		}
		if best == nil || subs[i].ExpiresAt.After(best.ExpiresAt) {
			best = &subs[i]
		}
	}
	return best, nil
}

// IsPremium reports whether the user has an active subscription.
func (s *SubscriptionService) IsPremium(ctx context.Context, userID string) (bool, error) {
	sub, err := s.Active(ctx, userID)
	if err != nil {
		return false, err
	}
	return sub != nil, nil
}

// History returns all of the user's subscriptions, newest first.
func (s *SubscriptionService) History(ctx context.Context, userID string) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := s.Store.Query(ctx, models.SubscriptionsTable, []store.Filter{store.Eq("userId", userID)}, &subs); err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions: %w", err)
	}
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].CreatedAt.After(subs[j].CreatedAt) })
	return subs, nil
}

// ExpireDue marks lapsed subscriptions expired and withdraws offers past
// their validity window. It returns the number of subscriptions expired.
func (s *SubscriptionService) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	expired := 0
	for _, status := range []string{models.SubscriptionStatusActive, models.SubscriptionStatusCancelled} {
		var subs []models.Subscription
		if err := s.Store.Query(ctx, models.SubscriptionsTable, []store.Filter{store.Eq("status", status)}, &subs); err != nil {
			return expired, fmt.Errorf("failed to list %s subscriptions: %w", status, err)
		}
		for _, sub := range subs {
			if !sub.IsExpired(now) {
				continue
			}
			if err := s.Store.Update(ctx, models.SubscriptionsTable, sub.ID, map[string]interface{}{
				"status":    models.SubscriptionStatusExpired,
				"updatedAt": now,
			}); err != nil {
				log.Warnf("failed to expire subscription %s: %v", sub.ID, err)
				continue
			}
			expired++
		}
	}

	if s.Offers != nil {
		if n, err := s.Offers.ExpireOffers(ctx, now); err != nil {
			log.Warnf("offer expiry failed: %v", err)
		} else if n > 0 {
			log.Infof("deactivated %d expired offers", n)
		}
	}
	return expired, nil
}

// GetPayment returns one of the user's payments.
func (s *SubscriptionService) GetPayment(ctx context.Context, userID, paymentID string) (*models.Payment, error) {
	var p models.Payment
	if err := s.Store.Get(ctx, models.PaymentsTable, paymentID, &p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("payment %s: %w", paymentID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch payment: %w", err)
	}
	if p.UserID != userID {
		return nil, ErrForbidden
	}
	return &p, nil
}

// ListPayments returns the user's payments, newest first.
func (s *SubscriptionService) ListPayments(ctx context.Context, userID string) ([]models.Payment, error) {
	var payments []models.Payment
	if err := s.Store.Query(ctx, models.PaymentsTable, []store.Filter{store.Eq("userId", userID)}, &payments); err != nil {
		return nil, fmt.Errorf("failed to fetch payments: %w", err)
	}
	sort.SliceStable(payments, func(i, j int) bool { return payments[i].CreatedAt.After(payments[j].CreatedAt) })
	return payments, nil
}
