package services

import (
	"context"

	log "github.com/sirupsen/logrus"

	"amora_server/models"
)

// NoopProfileCache disables profile caching.
type NoopProfileCache struct{}

func (NoopProfileCache) Get(context.Context, string) (*models.User, bool) { return nil, false }
func (NoopProfileCache) Set(context.Context, *models.User)                {}
func (NoopProfileCache) Invalidate(context.Context, string)               {}

// LogPushSender logs pushes instead of delivering them. Used when no
// messaging credentials are configured.
type LogPushSender struct{}

func (LogPushSender) SendToTokens(_ context.Context, tokens []string, msg PushMessage) ([]string, error) {
	log.WithFields(log.Fields{"tokens": len(tokens), "title": msg.Title}).Info("push delivery disabled, dropping message")
	return nil, nil
}

func (LogPushSender) SubscribeToTopic(context.Context, []string, string) error     { return nil }
func (LogPushSender) UnsubscribeFromTopic(context.Context, []string, string) error { return nil }

// NoopBroadcaster drops live events.
type NoopBroadcaster struct{}

func (NoopBroadcaster) ToChat(string, string, interface{}) {}
func (NoopBroadcaster) ToUser(string, string, interface{}) {}
