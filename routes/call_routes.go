package routes

import (
	"github.com/gorilla/mux"

	"amora_server/controllers"
	"amora_server/services"
)

// RegisterCallRoutes sets up call signalling under /api/calls
func RegisterCallRoutes(r *mux.Router, callService *services.CallService, auth mux.MiddlewareFunc) {
	controller := controllers.NewCallController(callService)

	callRouter := r.PathPrefix("/api/calls").Subrouter()
	callRouter.Use(auth)

	callRouter.HandleFunc("", controller.StartCall).Methods("POST")
	callRouter.HandleFunc("/chat/{chatId}", controller.History).Methods("GET")
	callRouter.HandleFunc("/{callId}/answer", controller.Answer).Methods("POST")
	callRouter.HandleFunc("/{callId}/decline", controller.Decline).Methods("POST")
	callRouter.HandleFunc("/{callId}/end", controller.End).Methods("POST")
}
