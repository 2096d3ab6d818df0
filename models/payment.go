package models

import (
	"time"

	"amora_server/utils"
)

// Payment mirrors a payment intent held by the payment provider.
type Payment struct {
	ID             string    `dynamodbav:"id" json:"id"`
	UserID         string    `dynamodbav:"userId" json:"userId"`
	SubscriptionID string    `dynamodbav:"subscriptionId" json:"subscriptionId"`
	Provider       string    `dynamodbav:"provider" json:"provider"`
	ProviderRef    string    `dynamodbav:"providerRef" json:"providerRef"`
	AmountCents    int64     `dynamodbav:"amountCents" json:"amountCents"`
	Currency       string    `dynamodbav:"currency" json:"currency"`
	Status         string    `dynamodbav:"status" json:"status"`
	CreatedAt      time.Time `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time `dynamodbav:"updatedAt" json:"updatedAt"`

	ClientSecret string `dynamodbav:"-" json:"clientSecret,omitempty"` // returned once, never stored
}

// IsFinal reports whether the provider will not change the status again.
// A failed attempt is not final: the client may retry the same intent.
func (p *Payment) IsFinal() bool {
	return p.Status == PaymentStatusSucceeded || p.Status == PaymentStatusCancelled
}

// StatusLabel renders the status for receipts.
func (p *Payment) StatusLabel() string {
	return utils.StatusLabel(p.Status)
}

// FormattedAmount renders the charged amount.
func (p *Payment) FormattedAmount() string {
	return utils.FormatPrice(p.AmountCents, p.Currency)
}
