package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"amora_server/middleware"
	"amora_server/services"
)

// ChatController handles chats and messages
type ChatController struct {
	ChatService *services.ChatService
}

func NewChatController(chatService *services.ChatService) *ChatController {
	return &ChatController{ChatService: chatService}
}

func (c *ChatController) GetChats(w http.ResponseWriter, r *http.Request) {
	chats, err := c.ChatService.ListChats(r.Context(), middleware.UserIDFrom(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", chats)
}

func (c *ChatController) GetChat(w http.ResponseWriter, r *http.Request) {
	chat, err := c.ChatService.GetChat(r.Context(), middleware.UserIDFrom(r.Context()), mux.Vars(r)["chatId"])
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", chat)
}

// GetMessages pages backwards with ?limit=&before=<RFC3339 timestamp>.
func (c *ChatController) GetMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			badRequest(w, "limit must be a number")
			return
		}
		limit = n
	}
	var before time.Time
	if v := q.Get("before"); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			badRequest(w, "before must be an RFC 3339 timestamp")
			return
		}
		before = t
	}

	messages, err := c.ChatService.ListMessages(r.Context(), middleware.UserIDFrom(r.Context()), mux.Vars(r)["chatId"], limit, before)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", messages)
}

func (c *ChatController) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content  string `json:"content"`
		ImageURL string `json:"imageUrl"`
	}
	if !decode(w, r, &req) {
		return
	}
	msg, err := c.ChatService.SendMessage(r.Context(), middleware.UserIDFrom(r.Context()), mux.Vars(r)["chatId"], req.Content, req.ImageURL)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, "Message sent", msg)
}

func (c *ChatController) MarkRead(w http.ResponseWriter, r *http.Request) {
	n, err := c.ChatService.MarkRead(r.Context(), middleware.UserIDFrom(r.Context()), mux.Vars(r)["chatId"])
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", map[string]int{"marked": n})
}

func (c *ChatController) LikeMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Liked bool `json:"liked"`
	}
	if !decode(w, r, &req) {
		return
	}
	msg, err := c.ChatService.LikeMessage(r.Context(), middleware.UserIDFrom(r.Context()), mux.Vars(r)["messageId"], req.Liked)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", msg)
}

func (c *ChatController) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := c.ChatService.UnreadCount(r.Context(), middleware.UserIDFrom(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", map[string]int{"unread": n})
}
