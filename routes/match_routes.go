package routes

import (
	"github.com/gorilla/mux"

	"amora_server/controllers"
	"amora_server/services"
)

// RegisterMatchRoutes sets up routes under /api/matches
func RegisterMatchRoutes(r *mux.Router, matchService *services.MatchService, auth mux.MiddlewareFunc) {
	controller := controllers.NewMatchController(matchService)

	matchRouter := r.PathPrefix("/api/matches").Subrouter()
	matchRouter.Use(auth)

	matchRouter.HandleFunc("", controller.GetMatches).Methods("GET")
	matchRouter.HandleFunc("/likes", controller.GetLikesReceived).Methods("GET")
	matchRouter.HandleFunc("/{matchId}", controller.Unmatch).Methods("DELETE")
}
