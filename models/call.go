package models

import (
	"time"

	"amora_server/utils"
)

// Call is an audio or video call between the two members of a chat. Media
// flows through the real-time SDK; this record only tracks signalling state.
type Call struct {
	ID         string    `dynamodbav:"id" json:"id"`
	ChatID     string    `dynamodbav:"chatId" json:"chatId"`
	CallerID   string    `dynamodbav:"callerId" json:"callerId"`
	CalleeID   string    `dynamodbav:"calleeId" json:"calleeId"`
	Kind       string    `dynamodbav:"kind" json:"kind"`
	Status     string    `dynamodbav:"status" json:"status"`
	StartedAt  time.Time `dynamodbav:"startedAt,omitempty" json:"startedAt,omitempty"` // media session start
	AnsweredAt time.Time `dynamodbav:"answeredAt,omitempty" json:"answeredAt,omitempty"`
	EndedAt    time.Time `dynamodbav:"endedAt,omitempty" json:"endedAt,omitempty"`
	CreatedAt  time.Time `dynamodbav:"createdAt" json:"createdAt"`

	Token string `dynamodbav:"-" json:"token,omitempty"` // per-user channel token
}

// IsActive reports whether the call is still ringing or in progress.
func (c *Call) IsActive() bool {
	return c.Status == CallStatusRinging || c.Status == CallStatusOngoing
}

// HasParty reports whether userID is the caller or callee.
func (c *Call) HasParty(userID string) bool {
	return c.CallerID == userID || c.CalleeID == userID
}

// Duration is the talk time, zero for calls never answered.
func (c *Call) Duration() time.Duration {
	if c.StartedAt.IsZero() || c.EndedAt.IsZero() {
		return 0
	}
	return c.EndedAt.Sub(c.StartedAt)
}

// DurationString renders the talk time for the call log.
func (c *Call) DurationString() string {
	return utils.FormatDuration(c.Duration())
}
