package routes

import (
	"github.com/gorilla/mux"

	"amora_server/controllers"
	"amora_server/services"
)

// RegisterNotificationRoutes sets up routes under /api/notifications
func RegisterNotificationRoutes(r *mux.Router, notificationService *services.NotificationService, auth mux.MiddlewareFunc) {
	controller := controllers.NewNotificationController(notificationService)

	notificationRouter := r.PathPrefix("/api/notifications").Subrouter()
	notificationRouter.Use(auth)

	notificationRouter.HandleFunc("", controller.List).Methods("GET")
	notificationRouter.HandleFunc("/unread-count", controller.UnreadCount).Methods("GET")
	notificationRouter.HandleFunc("/read-all", controller.MarkAllRead).Methods("POST")
	notificationRouter.HandleFunc("/tokens", controller.RegisterToken).Methods("POST")
	notificationRouter.HandleFunc("/tokens", controller.UnregisterToken).Methods("DELETE")
	notificationRouter.HandleFunc("/{id}/read", controller.MarkRead).Methods("POST")
	notificationRouter.HandleFunc("/{id}", controller.Delete).Methods("DELETE")
}
