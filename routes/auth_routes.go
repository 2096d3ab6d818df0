package routes

import (
	"github.com/gorilla/mux"

	"amora_server/controllers"
	"amora_server/services"
)

// RegisterAuthRoutes sets up account routes under /api/auth
func RegisterAuthRoutes(r *mux.Router, authService *services.AuthService, auth mux.MiddlewareFunc) {
	controller := controllers.NewAuthController(authService)

	authRouter := r.PathPrefix("/api/auth").Subrouter()
	authRouter.HandleFunc("/signup", controller.SignUp).Methods("POST")
	authRouter.HandleFunc("/signin", controller.SignIn).Methods("POST")
	authRouter.HandleFunc("/reset-password", controller.ResetPassword).Methods("POST")
	authRouter.Handle("/account", protect(auth, controller.DeleteAccount)).Methods("DELETE")
}
