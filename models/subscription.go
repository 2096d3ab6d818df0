package models

import (
	"math"
	"time"
)

// Subscription is a user's entitlement to a premium plan.
type Subscription struct {
	ID        string    `dynamodbav:"id" json:"id"`
	UserID    string    `dynamodbav:"userId" json:"userId"`
	OfferID   string    `dynamodbav:"offerId" json:"offerId"`
	Plan      string    `dynamodbav:"plan" json:"plan"`
	Status    string    `dynamodbav:"status" json:"status"`
	PaymentID string    `dynamodbav:"paymentId,omitempty" json:"paymentId,omitempty"`
	StartedAt time.Time `dynamodbav:"startedAt,omitempty" json:"startedAt,omitempty"`
	ExpiresAt time.Time `dynamodbav:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	AutoRenew bool      `dynamodbav:"autoRenew" json:"autoRenew"`
	CreatedAt time.Time `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `dynamodbav:"updatedAt" json:"updatedAt"`
}

// IsExpired reports whether the paid period is over.
func (s *Subscription) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// IsActive reports whether the subscription grants premium features at now.
// A cancelled subscription stays usable until its paid period ends.
func (s *Subscription) IsActive(now time.Time) bool {
	switch s.Status {
	case SubscriptionStatusActive, SubscriptionStatusCancelled:
		return !s.ExpiresAt.IsZero() && !s.IsExpired(now)
	default:
		return false
	}
}

// AwaitingPayment reports whether the paid period has not started yet: the
// checkout is pending, or was cancelled before any payment succeeded.
func (s *Subscription) AwaitingPayment() bool {
	switch s.Status {
	case SubscriptionStatusPending:
		return true
	case SubscriptionStatusCancelled:
		return s.StartedAt.IsZero()
	default:
		return false
	}
}

// RemainingDays returns whole days left, rounded up, or 0 once expired.
func (s *Subscription) RemainingDays(now time.Time) int {
	if s.ExpiresAt.IsZero() || s.IsExpired(now) {
		return 0
	}
	return int(math.Ceil(s.ExpiresAt.Sub(now).Hours() / 24))
}
