package models

import (
	"time"

	"amora_server/utils"
)

// Notification is an in-app notification, also delivered as a push.
type Notification struct {
	ID        string            `dynamodbav:"id" json:"id"`
	UserID    string            `dynamodbav:"userId" json:"userId"`
	Type      string            `dynamodbav:"type" json:"type"`
	Title     string            `dynamodbav:"title" json:"title"`
	Body      string            `dynamodbav:"body" json:"body"`
	Data      map[string]string `dynamodbav:"data,omitempty" json:"data,omitempty"`
	Read      bool              `dynamodbav:"read" json:"read"`
	CreatedAt time.Time         `dynamodbav:"createdAt" json:"createdAt"`
}

// TimeAgo renders the notification age for lists.
func (n *Notification) TimeAgo(now time.Time) string {
	return utils.TimeAgo(n.CreatedAt, now)
}

// DeviceToken is a push registration. The token itself is the id.
type DeviceToken struct {
	ID        string    `dynamodbav:"id" json:"-"`
	UserID    string    `dynamodbav:"userId" json:"userId"`
	Platform  string    `dynamodbav:"platform,omitempty" json:"platform,omitempty"`
	CreatedAt time.Time `dynamodbav:"createdAt" json:"createdAt"`
}
