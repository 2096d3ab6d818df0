package services

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"amora_server/models"
)

// StripeProvider implements PaymentProvider with Stripe payment intents.
type StripeProvider struct {
	API           *client.API
	WebhookSecret string
}

func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	return &StripeProvider{API: client.New(secretKey, nil), WebhookSecret: webhookSecret}
}

func (p *StripeProvider) Name() string { return "stripe" }

func (p *StripeProvider) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	pi, err := p.API.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	return toIntent(pi), nil
}

func (p *StripeProvider) GetIntent(ctx context.Context, ref string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := p.API.PaymentIntents.Get(ref, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: get payment intent %s: %w", ref, err)
	}
	return toIntent(pi), nil
}

func (p *StripeProvider) CancelIntent(ctx context.Context, ref string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := p.API.PaymentIntents.Cancel(ref, params); err != nil {
		return fmt.Errorf("stripe: cancel payment intent %s: %w", ref, err)
	}
	return nil
}

// ParseEvent verifies the Stripe-Signature header and extracts the payment
// intent from payment_intent.* events. Other events yield nil.
func (p *StripeProvider) ParseEvent(payload []byte, signature string) (*PaymentIntent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("stripe: invalid webhook: %w", err)
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.processing",
		"payment_intent.canceled", "payment_intent.payment_failed":
	default:
		log.Debugf("ignoring stripe event %s", event.Type)
		return nil, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("stripe: decode payment intent: %w", err)
	}
	intent := toIntent(&pi)
	if event.Type == "payment_intent.payment_failed" {
		intent.Status = models.PaymentStatusFailed
	}
	return intent, nil
}

func toIntent(pi *stripe.PaymentIntent) *PaymentIntent {
	return &PaymentIntent{
		Ref:          pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       stripeStatus(pi.Status),
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
	}
}

func stripeStatus(s stripe.PaymentIntentStatus) string {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return models.PaymentStatusSucceeded
	case stripe.PaymentIntentStatusProcessing:
		return models.PaymentStatusProcessing
	case stripe.PaymentIntentStatusCanceled:
		return models.PaymentStatusCancelled
	default:
		return models.PaymentStatusRequiresPayment
	}
}
