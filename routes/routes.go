package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"amora_server/controllers"
	"amora_server/metrics"
)

// RegisterRoutes sets up the public routes for the application
func RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", controllers.WelcomeHandler).Methods("GET")
	r.HandleFunc("/health", controllers.HealthCheckHandler).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")
	r.HandleFunc("/privacy-policy", PrivacyPolicyHandler).Methods("GET")
}

// protect wraps a single handler with the auth middleware, for routers that
// mix public and authenticated routes.
func protect(auth mux.MiddlewareFunc, h http.HandlerFunc) http.Handler {
	return auth(h)
}
