// Package socket pushes live updates to connected clients over socket.io.
package socket

import (
	"context"
	"net/http"
	"time"

	socketio "github.com/googollee/go-socket.io"
	log "github.com/sirupsen/logrus"

	"amora_server/models"
	"amora_server/services"
)

// verifyTimeout bounds token and membership checks made for a socket event.
const verifyTimeout = 10 * time.Second

// TokenVerifier checks the ID token sent with "identify".
type TokenVerifier interface {
	VerifyToken(ctx context.Context, idToken string) (*services.TokenClaims, error)
}

// ChatAccess resolves a chat for a participant.
type ChatAccess interface {
	GetChat(ctx context.Context, userID, chatID string) (*models.Chat, error)
}

// conn is the part of socketio.Conn the handlers use.
type conn interface {
	ID() string
	Context() interface{}
	SetContext(v interface{})
	Join(room string)
	Leave(room string)
	Rooms() []string
	Emit(event string, v ...interface{})
}

// ChatRoom is the room every participant viewing a chat joins.
func ChatRoom(chatID string) string { return "chat:" + chatID }

// UserRoom is a user's personal room, joined after "identify".
func UserRoom(userID string) string { return "user:" + userID }

// Server wraps the socket.io server and implements services.Broadcaster.
// Verifier and Chats must be set before clients connect.
type Server struct {
	IO       *socketio.Server
	Verifier TokenVerifier
	Chats    ChatAccess
}

// NewServer initializes the socket.io server and its event handlers.
func NewServer() *Server {
	s := &Server{IO: socketio.NewServer(nil)}

	s.IO.OnConnect("/", func(c socketio.Conn) error {
		c.SetContext("")
		log.Debugf("Socket connected: %s", c.ID())
		return nil
	})

	s.IO.OnEvent("/", "identify", func(c socketio.Conn, data map[string]string) {
		s.identify(c, data)
	})
	s.IO.OnEvent("/", "join", func(c socketio.Conn, data map[string]string) {
		s.join(c, data)
	})
	s.IO.OnEvent("/", "leave", func(c socketio.Conn, data map[string]string) {
		s.leave(c, data)
	})
	s.IO.OnEvent("/", services.EventTyping, func(c socketio.Conn, data map[string]interface{}) {
		if !s.typing(c, data) {
			log.Debugf("dropped typing event from socket %s", c.ID())
		}
	})

	s.IO.OnError("/", func(c socketio.Conn, err error) {
		log.Warnf("socket error: %v", err)
	})
	s.IO.OnDisconnect("/", func(c socketio.Conn, reason string) {
		log.Debugf("Socket disconnected: %s (%s)", c.ID(), reason)
	})
	return s
}

func userOf(c conn) string {
	uid, _ := c.Context().(string)
	return uid
}

func (s *Server) identify(c conn, data map[string]string) {
	ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	defer cancel()

	claims, err := s.Verifier.VerifyToken(ctx, data["token"])
	if err != nil {
		c.Emit("error", map[string]string{"message": "invalid token"})
		return
	}
	c.SetContext(claims.UID)
	c.Join(UserRoom(claims.UID))
	c.Emit("identified", map[string]string{"userId": claims.UID})
	log.Debugf("socket %s identified as %s", c.ID(), claims.UID)
}

func (s *Server) join(c conn, data map[string]string) {
	uid := userOf(c)
	chatID := data["chatId"]
	if uid == "" || chatID == "" {
		c.Emit("error", map[string]string{"message": "identify before joining a chat"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	defer cancel()
	if _, err := s.Chats.GetChat(ctx, uid, chatID); err != nil {
		c.Emit("error", map[string]string{"message": "cannot join chat"})
		return
	}
	c.Join(ChatRoom(chatID))
	log.Debugf("User %s joined chat %s", uid, chatID)
}

func (s *Server) leave(c conn, data map[string]string) {
	if chatID := data["chatId"]; chatID != "" {
		c.Leave(ChatRoom(chatID))
	}
}

// typing relays a typing indicator to a chat the connection has joined.
// Joining is membership-checked, so the room stands in for the participant
// check here. It reports whether the event was relayed.
func (s *Server) typing(c conn, data map[string]interface{}) bool {
	uid := userOf(c)
	chatID, _ := data["chatId"].(string)
	if uid == "" || chatID == "" || !inRoom(c, ChatRoom(chatID)) {
		return false
	}
	typing, _ := data["typing"].(bool)
	s.IO.BroadcastToRoom("/", ChatRoom(chatID), services.EventTyping, map[string]interface{}{
		"chatId": chatID,
		"userId": uid,
		"typing": typing,
	})
	return true
}

func inRoom(c conn, room string) bool {
	for _, r := range c.Rooms() {
		if r == room {
			return true
		}
	}
	return false
}

// ToChat emits event to everyone viewing the chat.
func (s *Server) ToChat(chatID, event string, payload interface{}) {
	s.IO.BroadcastToRoom("/", ChatRoom(chatID), event, payload)
}

// ToUser emits event to all of a user's connections.
func (s *Server) ToUser(userID, event string, payload interface{}) {
	s.IO.BroadcastToRoom("/", UserRoom(userID), event, payload)
}

// Serve runs the socket.io event loop until Close.
func (s *Server) Serve() {
	if err := s.IO.Serve(); err != nil {
		log.Errorf("socket.io server stopped: %v", err)
	}
}

// Close stops the server.
func (s *Server) Close() error {
	return s.IO.Close()
}

// Handler is the HTTP handler to mount at /socket.io/.
func (s *Server) Handler() http.Handler {
	return s.IO
}
