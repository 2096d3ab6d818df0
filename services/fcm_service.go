package services

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	log "github.com/sirupsen/logrus"
)

// fcmBatchSize is the multicast limit of the messaging API.
const fcmBatchSize = 500

// FCMSender delivers pushes through Firebase Cloud Messaging.
type FCMSender struct {
	Client *messaging.Client
}

func NewFCMSender(ctx context.Context, app *firebase.App) (*FCMSender, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}
	log.Info("[FCM] Client initialized successfully")
	return &FCMSender{Client: client}, nil
}

// SendToTokens multicasts msg and returns the tokens FCM reports as
// unregistered or malformed. Transient per-token failures are only logged.
func (f *FCMSender) SendToTokens(ctx context.Context, tokens []string, msg PushMessage) ([]string, error) {
	var invalid []string
	for start := 0; start < len(tokens); start += fcmBatchSize {
		end := start + fcmBatchSize
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[start:end]

		response, err := f.Client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens: batch,
			Notification: &messaging.Notification{
				Title: msg.Title,
				Body:  msg.Body,
			},
			Data: msg.Data,
			Android: &messaging.AndroidConfig{
				Priority: "high",
			},
			APNS: &messaging.APNSConfig{
				Payload: &messaging.APNSPayload{Aps: &messaging.Aps{Sound: "default"}},
			},
		})
		if err != nil {
			return invalid, fmt.Errorf("failed to send FCM multicast message: %w", err)
		}
		log.Debugf("[FCM] Multicast sent: %d success, %d failures", response.SuccessCount, response.FailureCount)

		for i, resp := range response.Responses {
			if resp.Success {
				continue
			}
			if messaging.IsUnregistered(resp.Error) || messaging.IsInvalidArgument(resp.Error) {
				invalid = append(invalid, batch[i])
				continue
			}
			log.Warnf("[FCM] Failed to send to token %s: %v", shortToken(batch[i]), resp.Error)
		}
	}
	return invalid, nil
}

func (f *FCMSender) SubscribeToTopic(ctx context.Context, tokens []string, topic string) error {
	resp, err := f.Client.SubscribeToTopic(ctx, tokens, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	if resp.FailureCount > 0 {
		log.Warnf("[FCM] %d tokens failed to subscribe to %s", resp.FailureCount, topic)
	}
	return nil
}

func (f *FCMSender) UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) error {
	if _, err := f.Client.UnsubscribeFromTopic(ctx, tokens, topic); err != nil {
		return fmt.Errorf("failed to unsubscribe from %s: %w", topic, err)
	}
	return nil
}

func shortToken(t string) string {
	if len(t) <= 20 {
		return t
	}
	return t[:20] + "..."
}
