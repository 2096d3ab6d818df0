package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func TestUser_Age(t *testing.T) {
	u := &User{}
	assert.Equal(t, 0, u.Age(now))

	u.BirthDate = time.Date(2000, time.June, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 24, u.Age(now))

	u.BirthDate = time.Date(2000, time.June, 16, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 23, u.Age(now))
}

func TestUser_DistanceTo(t *testing.T) {
	london := &User{HasLocation: true, Latitude: 51.5074, Longitude: -0.1278}
	paris := &User{HasLocation: true, Latitude: 48.8566, Longitude: 2.3522}
	nowhere := &User{}

	km, ok := london.DistanceTo(paris)
	assert.True(t, ok)
	assert.InDelta(t, 343.5, km, 1)

	_, ok = london.DistanceTo(nowhere)
	assert.False(t, ok)
}

func TestUser_PublicHidesPrivateFields(t *testing.T) {
	u := &User{ID: "u1", Name: "Ana", Email: "ana@example.com", Latitude: 1, Longitude: 2, HasLocation: true}
	p := u.Public(now)
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, "Ana", p.Name)
	assert.Equal(t, "", u.PrimaryPhoto())
}

func TestOffer_Availability(t *testing.T) {
	o := &Offer{Active: true, PriceCents: 1000, DiscountPercent: 25}
	assert.False(t, o.IsExpired(now))
	assert.True(t, o.IsAvailable(now))
	assert.Equal(t, int64(750), o.FinalPriceCents())

	o.ValidUntil = now
	assert.True(t, o.IsExpired(now))
	assert.False(t, o.IsAvailable(now))

	o.ValidUntil = time.Time{}
	o.ValidFrom = now.Add(time.Hour)
	assert.False(t, o.IsAvailable(now))

	o.ValidFrom = time.Time{}
	o.Active = false
	assert.False(t, o.IsAvailable(now))
}

func TestOffer_FinalPriceClampsDiscount(t *testing.T) {
	assert.Equal(t, int64(0), (&Offer{PriceCents: 999, DiscountPercent: 150}).FinalPriceCents())
	assert.Equal(t, int64(999), (&Offer{PriceCents: 999, DiscountPercent: -5}).FinalPriceCents())
	assert.Equal(t, int64(666), (&Offer{PriceCents: 999, DiscountPercent: 33}).FinalPriceCents())
}

func TestSubscription_IsActive(t *testing.T) {
	s := &Subscription{Status: SubscriptionStatusActive, ExpiresAt: now.Add(36 * time.Hour)}
	assert.True(t, s.IsActive(now))
	assert.Equal(t, 2, s.RemainingDays(now))

	s.Status = SubscriptionStatusCancelled
	assert.True(t, s.IsActive(now))

	s.Status = SubscriptionStatusPending
	assert.False(t, s.IsActive(now))

	s.Status = SubscriptionStatusActive
	s.ExpiresAt = now
	assert.False(t, s.IsActive(now))
	assert.Equal(t, 0, s.RemainingDays(now))
}

func TestSubscription_AwaitingPayment(t *testing.T) {
	s := &Subscription{Status: SubscriptionStatusPending}
	assert.True(t, s.AwaitingPayment())

	s.Status = SubscriptionStatusCancelled
	assert.True(t, s.AwaitingPayment())

	s.StartedAt = now
	assert.False(t, s.AwaitingPayment())

	s.Status = SubscriptionStatusActive
	assert.False(t, s.AwaitingPayment())
}

func TestPayment_IsFinal(t *testing.T) {
	assert.True(t, (&Payment{Status: PaymentStatusSucceeded}).IsFinal())
	assert.True(t, (&Payment{Status: PaymentStatusCancelled}).IsFinal())
	assert.False(t, (&Payment{Status: PaymentStatusFailed}).IsFinal())
	assert.False(t, (&Payment{Status: PaymentStatusProcessing}).IsFinal())
	assert.Equal(t, "Requires Payment", (&Payment{Status: PaymentStatusRequiresPayment}).StatusLabel())
}

func TestMatch_Helpers(t *testing.T) {
	assert.Equal(t, MatchID("b", "a"), MatchID("a", "b"))
	assert.Equal(t, "match_a_b", MatchID("b", "a"))

	m := &Match{Users: []string{"a", "b"}, LikedBy: []string{"a"}, Status: MatchStatusActive}
	assert.False(t, m.IsMutual())
	m.LikedBy = append(m.LikedBy, "b")
	assert.True(t, m.IsMutual())
	assert.True(t, m.IsActive())
	assert.True(t, m.Includes("a"))
	assert.False(t, m.Includes("c"))
	assert.Equal(t, "b", m.OtherUser("a"))
}

func TestAIProfile_ReplyFor(t *testing.T) {
	p := &AIProfile{Greeting: "hi", Replies: []string{"one", "two"}}
	assert.Equal(t, "one", p.ReplyFor(0))
	assert.Equal(t, "two", p.ReplyFor(1))
	assert.Equal(t, "one", p.ReplyFor(2))

	p.Replies = nil
	assert.Equal(t, "hi", p.ReplyFor(5))
}

func TestCall_Duration(t *testing.T) {
	c := &Call{CallerID: "a", CalleeID: "b", Status: CallStatusRinging}
	assert.True(t, c.IsActive())
	assert.True(t, c.HasParty("b"))
	assert.Equal(t, time.Duration(0), c.Duration())

	c.AnsweredAt = now
	c.EndedAt = now.Add(time.Minute)
	assert.Equal(t, time.Duration(0), c.Duration(), "no talk time before the media session starts")

	c.StartedAt = now
	c.EndedAt = now.Add(90 * time.Second)
	c.Status = CallStatusEnded
	assert.False(t, c.IsActive())
	assert.Equal(t, "1:30", c.DurationString())
}
