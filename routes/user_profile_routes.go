package routes

import (
	"github.com/gorilla/mux"

	"amora_server/controllers"
	"amora_server/services"
)

// RegisterUserProfileRoutes sets up routes for user profile operations under /api/profiles
func RegisterUserProfileRoutes(r *mux.Router, userProfileService *services.UserProfileService, auth mux.MiddlewareFunc) {
	controller := controllers.NewUserProfileController(userProfileService)

	profileRouter := r.PathPrefix("/api/profiles").Subrouter()
	profileRouter.Use(auth)

	profileRouter.HandleFunc("/me", controller.GetMe).Methods("GET")
	profileRouter.HandleFunc("/me", controller.UpdateUserProfile).Methods("PATCH")
	profileRouter.HandleFunc("/me/location", controller.UpdateLocation).Methods("PUT")
	profileRouter.HandleFunc("/me/photos", controller.UploadPhoto).Methods("POST")
	profileRouter.HandleFunc("/me/photos", controller.RemovePhoto).Methods("DELETE")
	profileRouter.HandleFunc("/me/photos/presign", controller.GeneratePresignedURL).Methods("POST")
	profileRouter.HandleFunc("/{userId}", controller.GetUserProfileByID).Methods("GET")
}
