package models

import (
	"sort"
	"strings"
	"time"
)

// Match links two users who liked each other. Every match owns one chat.
type Match struct {
	ID        string    `dynamodbav:"id" json:"id"`
	Users     []string  `dynamodbav:"users" json:"users"`
	ChatID    string    `dynamodbav:"chatId" json:"chatId"`
	Status    string    `dynamodbav:"status" json:"status"`
	LikedBy   []string  `dynamodbav:"likedBy" json:"likedBy"`
	CreatedAt time.Time `dynamodbav:"createdAt" json:"createdAt"`
}

// MatchID derives a stable id for a pair so that the same two users can
// never hold two matches.
func MatchID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return "match_" + pair[0] + "_" + pair[1]
}

// ChatIDFor derives the id of the chat that belongs to a match.
func ChatIDFor(matchID string) string {
	return "chat_" + strings.TrimPrefix(matchID, "match_")
}

// IsMutual reports whether every member of the match has liked.
func (m *Match) IsMutual() bool {
	if len(m.Users) == 0 {
		return false
	}
	for _, u := range m.Users {
		if !contains(m.LikedBy, u) {
			return false
		}
	}
	return true
}

// IsActive reports whether the match has not been undone.
func (m *Match) IsActive() bool {
	return m.Status == MatchStatusActive
}

// Includes reports whether userID is a member.
func (m *Match) Includes(userID string) bool {
	return contains(m.Users, userID)
}

// OtherUser returns the member that is not userID.
func (m *Match) OtherUser(userID string) string {
	for _, u := range m.Users {
		if u != userID {
			return u
		}
	}
	return ""
}

// MatchWithProfile is a match as listed to one of its members.
type MatchWithProfile struct {
	Match
	Profile       PublicProfile `json:"profile"`
	LastMessage   string        `json:"lastMessage,omitempty"`
	LastMessageAt string        `json:"lastMessageAt,omitempty"`
	IsUnread      bool          `json:"isUnread"`
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
