package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"amora_server/middleware"
	"amora_server/services"
)

// NotificationController handles in-app notifications and device tokens
type NotificationController struct {
	NotificationService *services.NotificationService
}

func NewNotificationController(notificationService *services.NotificationService) *NotificationController {
	return &NotificationController{NotificationService: notificationService}
}

func (c *NotificationController) List(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unread") == "true"
	list, err := c.NotificationService.List(r.Context(), middleware.UserIDFrom(r.Context()), unreadOnly)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", list)
}

func (c *NotificationController) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := c.NotificationService.UnreadCount(r.Context(), middleware.UserIDFrom(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", map[string]int{"unread": n})
}

func (c *NotificationController) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := c.NotificationService.MarkRead(r.Context(), middleware.UserIDFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "Marked as read", nil)
}

func (c *NotificationController) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := c.NotificationService.MarkAllRead(r.Context(), middleware.UserIDFrom(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", map[string]int{"marked": n})
}

func (c *NotificationController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.NotificationService.Delete(r.Context(), middleware.UserIDFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "Notification deleted", nil)
}

type tokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform,omitempty"`
}

func (c *NotificationController) RegisterToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !decode(w, r, &req) {
		return
	}
	if err := c.NotificationService.RegisterToken(r.Context(), middleware.UserIDFrom(r.Context()), req.Token, req.Platform); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, "Device registered", nil)
}

func (c *NotificationController) UnregisterToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !decode(w, r, &req) {
		return
	}
	if err := c.NotificationService.UnregisterToken(r.Context(), middleware.UserIDFrom(r.Context()), req.Token); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "Device unregistered", nil)
}
