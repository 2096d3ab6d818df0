package controllers

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"amora_server/middleware"
	"amora_server/services"
)

// maxWebhookBytes bounds provider webhook payloads.
const maxWebhookBytes = 64 << 10

// SubscriptionController handles subscriptions and their payments
type SubscriptionController struct {
	SubscriptionService *services.SubscriptionService
}

func NewSubscriptionController(subscriptionService *services.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{SubscriptionService: subscriptionService}
}

func (c *SubscriptionController) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OfferID string `json:"offerId"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.OfferID == "" {
		badRequest(w, "offerId is required")
		return
	}
	checkout, err := c.SubscriptionService.Subscribe(r.Context(), middleware.UserIDFrom(r.Context()), req.OfferID)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, "Complete the payment to activate your subscription", checkout)
}

func (c *SubscriptionController) GetActive(w http.ResponseWriter, r *http.Request) {
	sub, err := c.SubscriptionService.Active(r.Context(), middleware.UserIDFrom(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	if sub == nil {
		respond(w, http.StatusOK, "No active subscription", map[string]interface{}{"premium": false})
		return
	}
	respond(w, http.StatusOK, "", map[string]interface{}{
		"premium":       true,
		"subscription":  sub,
		"remainingDays": sub.RemainingDays(c.SubscriptionService.Clock.Now()),
	})
}

func (c *SubscriptionController) GetHistory(w http.ResponseWriter, r *http.Request) {
	subs, err := c.SubscriptionService.History(r.Context(), middleware.UserIDFrom(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", subs)
}

func (c *SubscriptionController) Cancel(w http.ResponseWriter, r *http.Request) {
	sub, err := c.SubscriptionService.Cancel(r.Context(), middleware.UserIDFrom(r.Context()), mux.Vars(r)["subscriptionId"])
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "Subscription cancelled", sub)
}

func (c *SubscriptionController) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := c.SubscriptionService.ListPayments(r.Context(), middleware.UserIDFrom(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", payments)
}

func (c *SubscriptionController) GetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := c.SubscriptionService.GetPayment(r.Context(), middleware.UserIDFrom(r.Context()), mux.Vars(r)["paymentId"])
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", payment)
}

func (c *SubscriptionController) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := c.SubscriptionService.ConfirmPayment(r.Context(), middleware.UserIDFrom(r.Context()), mux.Vars(r)["paymentId"])
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, payment.StatusLabel(), payment)
}

// Webhook receives payment provider events. It is not behind Auth; the
// signature header authenticates it.
func (c *SubscriptionController) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		badRequest(w, "Invalid payload")
		return
	}
	if err := c.SubscriptionService.HandleProviderEvent(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", nil)
}
