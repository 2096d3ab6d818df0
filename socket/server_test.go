package socket

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"amora_server/models"
	"amora_server/services"
)

type fakeConn struct {
	id      string
	ctx     interface{}
	rooms   map[string]bool
	emitted []string
}

func newFakeConn() *fakeConn {
	return &fakeConn{id: "sock-1", rooms: map[string]bool{}}
}

func (c *fakeConn) ID() string               { return c.id }
func (c *fakeConn) Context() interface{}     { return c.ctx }
func (c *fakeConn) SetContext(v interface{}) { c.ctx = v }
func (c *fakeConn) Join(room string)         { c.rooms[room] = true }
func (c *fakeConn) Leave(room string)        { delete(c.rooms, room) }

func (c *fakeConn) Rooms() []string {
	rooms := make([]string, 0, len(c.rooms))
	for r := range c.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

func (c *fakeConn) Emit(event string, _ ...interface{}) {
	c.emitted = append(c.emitted, event)
}

type fakeVerifier struct{}

func (fakeVerifier) VerifyToken(_ context.Context, token string) (*services.TokenClaims, error) {
	if token == "good" {
		return &services.TokenClaims{UID: "u1"}, nil
	}
	return nil, services.ErrUnauthenticated
}

type fakeChats struct{}

func (fakeChats) GetChat(_ context.Context, userID, chatID string) (*models.Chat, error) {
	if chatID != "chat-1" {
		return nil, services.ErrNotFound
	}
	chat := &models.Chat{ID: chatID, Participants: []string{"u1", "u2"}}
	if !chat.HasParticipant(userID) {
		return nil, services.ErrForbidden
	}
	return chat, nil
}

func newTestServer() *Server {
	s := NewServer()
	s.Verifier = fakeVerifier{}
	s.Chats = fakeChats{}
	return s
}

func TestIdentify(t *testing.T) {
	s := newTestServer()

	c := newFakeConn()
	c.SetContext("")
	s.identify(c, map[string]string{"token": "bad"})
	assert.Equal(t, []string{"error"}, c.emitted)
	assert.Empty(t, c.rooms)

	s.identify(c, map[string]string{"token": "good"})
	assert.Equal(t, "u1", userOf(c))
	assert.True(t, c.rooms[UserRoom("u1")])
	assert.Contains(t, c.emitted, "identified")
}

func TestJoinRequiresIdentityAndMembership(t *testing.T) {
	s := newTestServer()

	c := newFakeConn()
	c.SetContext("")
	s.join(c, map[string]string{"chatId": "chat-1"})
	assert.False(t, c.rooms[ChatRoom("chat-1")])

	s.identify(c, map[string]string{"token": "good"})
	s.join(c, map[string]string{"chatId": "chat-404"})
	assert.False(t, c.rooms[ChatRoom("chat-404")])

	s.join(c, map[string]string{"chatId": "chat-1"})
	assert.True(t, c.rooms[ChatRoom("chat-1")])

	s.leave(c, map[string]string{"chatId": "chat-1"})
	assert.False(t, c.rooms[ChatRoom("chat-1")])
}

func TestTypingOnlyInJoinedChats(t *testing.T) {
	s := newTestServer()

	c := newFakeConn()
	c.SetContext("")
	event := map[string]interface{}{"chatId": "chat-1", "typing": true}
	assert.False(t, s.typing(c, event), "anonymous sockets cannot type")

	s.identify(c, map[string]string{"token": "good"})
	assert.False(t, s.typing(c, event), "chat not joined")
	assert.False(t, s.typing(c, map[string]interface{}{"chatId": "chat-404", "typing": true}))

	s.join(c, map[string]string{"chatId": "chat-1"})
	assert.True(t, s.typing(c, event))

	s.leave(c, map[string]string{"chatId": "chat-1"})
	assert.False(t, s.typing(c, event))
}

func TestBroadcastWithoutListeners(t *testing.T) {
	s := newTestServer()

	assert.NotPanics(t, func() {
		s.ToChat("chat-1", services.EventNewMessage, map[string]string{"id": "m1"})
		s.ToUser("u1", services.EventMatchCreated, map[string]string{"id": "m1"})
		s.typing(newFakeConn(), map[string]interface{}{"chatId": "chat-1", "typing": true})
	})
}
