package routes

import (
	"github.com/gorilla/mux"

	"amora_server/controllers"
	"amora_server/services"
)

// RegisterOfferRoutes sets up routes under /api/offers
func RegisterOfferRoutes(r *mux.Router, offerService *services.OfferService, auth mux.MiddlewareFunc) {
	controller := controllers.NewOfferController(offerService)

	offerRouter := r.PathPrefix("/api/offers").Subrouter()
	offerRouter.Use(auth)

	offerRouter.HandleFunc("", controller.ListOffers).Methods("GET")
	offerRouter.HandleFunc("", controller.CreateOffer).Methods("POST")
	offerRouter.HandleFunc("/{offerId}", controller.GetOffer).Methods("GET")
	offerRouter.HandleFunc("/{offerId}", controller.UpdateOffer).Methods("PATCH")
	offerRouter.HandleFunc("/{offerId}", controller.DeactivateOffer).Methods("DELETE")
}
