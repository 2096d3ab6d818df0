package routes

import (
	"github.com/gorilla/mux"

	"amora_server/controllers"
	"amora_server/services"
)

// RegisterChatRoutes sets up routes under /api/chats
func RegisterChatRoutes(r *mux.Router, chatService *services.ChatService, auth mux.MiddlewareFunc) {
	controller := controllers.NewChatController(chatService)

	chatRouter := r.PathPrefix("/api/chats").Subrouter()
	chatRouter.Use(auth)

	chatRouter.HandleFunc("", controller.GetChats).Methods("GET")
	chatRouter.HandleFunc("/unread", controller.GetUnreadCount).Methods("GET")
	chatRouter.HandleFunc("/messages/{messageId}/like", controller.LikeMessage).Methods("PATCH")
	chatRouter.HandleFunc("/{chatId}", controller.GetChat).Methods("GET")
	chatRouter.HandleFunc("/{chatId}/messages", controller.GetMessages).Methods("GET")
	chatRouter.HandleFunc("/{chatId}/messages", controller.SendMessage).Methods("POST")
	chatRouter.HandleFunc("/{chatId}/read", controller.MarkRead).Methods("POST")
}
