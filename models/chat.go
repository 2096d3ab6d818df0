package models

import (
	"time"

	"amora_server/utils"
)

// Chat is the conversation attached to a match.
type Chat struct {
	ID            string    `dynamodbav:"id" json:"id"`
	MatchID       string    `dynamodbav:"matchId" json:"matchId"`
	Participants  []string  `dynamodbav:"participants" json:"participants"`
	LastMessage   string    `dynamodbav:"lastMessage,omitempty" json:"lastMessage,omitempty"`
	LastMessageAt time.Time `dynamodbav:"lastMessageAt,omitempty" json:"lastMessageAt,omitempty"`
	LastSenderID  string    `dynamodbav:"lastSenderId,omitempty" json:"lastSenderId,omitempty"`
	UnreadBy      []string  `dynamodbav:"unreadBy" json:"unreadBy"`
	CreatedAt     time.Time `dynamodbav:"createdAt" json:"createdAt"`
}

// HasParticipant reports whether userID belongs to the chat.
func (c *Chat) HasParticipant(userID string) bool {
	return contains(c.Participants, userID)
}

// IsUnreadFor reports whether userID has messages they have not read.
func (c *Chat) IsUnreadFor(userID string) bool {
	return contains(c.UnreadBy, userID)
}

// OtherParticipant returns the participant that is not userID.
func (c *Chat) OtherParticipant(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// Message is a single chat message.
type Message struct {
	ID        string    `dynamodbav:"id" json:"id"`
	ChatID    string    `dynamodbav:"chatId" json:"chatId"`
	SenderID  string    `dynamodbav:"senderId" json:"senderId"`
	Content   string    `dynamodbav:"content,omitempty" json:"content,omitempty"`
	ImageURL  string    `dynamodbav:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	IsAI      bool      `dynamodbav:"isAI" json:"isAI"`
	ReadBy    []string  `dynamodbav:"readBy" json:"readBy"`
	Liked     bool      `dynamodbav:"liked" json:"liked"`
	CreatedAt time.Time `dynamodbav:"createdAt" json:"createdAt"`
}

// IsReadBy reports whether userID has seen the message. A sender always has.
func (m *Message) IsReadBy(userID string) bool {
	return m.SenderID == userID || contains(m.ReadBy, userID)
}

// FormattedTime renders the timestamp for a chat bubble.
func (m *Message) FormattedTime(now time.Time) string {
	return utils.FormatChatTime(m.CreatedAt, now)
}

// Preview returns the text shown as a chat's last message.
func (m *Message) Preview() string {
	if m.Content != "" {
		return m.Content
	}
	if m.ImageURL != "" {
		return "Photo"
	}
	return ""
}
