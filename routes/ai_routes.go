package routes

import (
	"github.com/gorilla/mux"

	"amora_server/controllers"
	"amora_server/services"
)

// RegisterAIRoutes sets up the bot persona routes under /api/ai
func RegisterAIRoutes(r *mux.Router, aiProfileService *services.AIProfileService, auth mux.MiddlewareFunc) {
	controller := controllers.NewAIController(aiProfileService)

	aiRouter := r.PathPrefix("/api/ai").Subrouter()
	aiRouter.Use(auth)

	aiRouter.HandleFunc("/profiles", controller.ListProfiles).Methods("GET")
	aiRouter.HandleFunc("/profiles", controller.CreateProfile).Methods("POST")
	aiRouter.HandleFunc("/profiles/{aiId}/chat", controller.StartChat).Methods("POST")
}
