package routes

import (
	"github.com/gorilla/mux"

	"amora_server/controllers"
	"amora_server/services"
)

// RegisterDiscoveryRoutes sets up the swipe deck under /api/discovery
func RegisterDiscoveryRoutes(r *mux.Router, discoveryService *services.DiscoveryService, matchService *services.MatchService, auth mux.MiddlewareFunc) {
	controller := controllers.NewDiscoveryController(discoveryService, matchService)

	discoveryRouter := r.PathPrefix("/api/discovery").Subrouter()
	discoveryRouter.Use(auth)

	discoveryRouter.HandleFunc("", controller.Discover).Methods("GET")
	discoveryRouter.HandleFunc("/like", controller.Like).Methods("POST")
	discoveryRouter.HandleFunc("/superlike", controller.SuperLike).Methods("POST")
	discoveryRouter.HandleFunc("/skip", controller.Skip).Methods("POST")
	discoveryRouter.HandleFunc("/block", controller.Block).Methods("POST")
}
