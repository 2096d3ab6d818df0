package routes

import (
	"github.com/gorilla/mux"

	"amora_server/controllers"
	"amora_server/services"
)

// RegisterSubscriptionRoutes sets up /api/subscriptions and /api/payments
func RegisterSubscriptionRoutes(r *mux.Router, subscriptionService *services.SubscriptionService, auth mux.MiddlewareFunc) {
	controller := controllers.NewSubscriptionController(subscriptionService)

	subRouter := r.PathPrefix("/api/subscriptions").Subrouter()
	subRouter.Use(auth)
	subRouter.HandleFunc("", controller.Subscribe).Methods("POST")
	subRouter.HandleFunc("/active", controller.GetActive).Methods("GET")
	subRouter.HandleFunc("/history", controller.GetHistory).Methods("GET")
	subRouter.HandleFunc("/{subscriptionId}/cancel", controller.Cancel).Methods("POST")

	paymentRouter := r.PathPrefix("/api/payments").Subrouter()
	paymentRouter.HandleFunc("/webhook", controller.Webhook).Methods("POST")
	paymentRouter.Handle("", protect(auth, controller.ListPayments)).Methods("GET")
	paymentRouter.Handle("/{paymentId}", protect(auth, controller.GetPayment)).Methods("GET")
	paymentRouter.Handle("/{paymentId}/confirm", protect(auth, controller.ConfirmPayment)).Methods("POST")
}
