package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"amora_server/metrics"
	"amora_server/models"
	"amora_server/store"
)

// BroadcastTopic is the push topic every registered device joins.
const BroadcastTopic = "all-users"

// NotificationService stores in-app notifications and fans them out as pushes.
type NotificationService struct {
	Store     store.DocumentStore
	Push      PushSender
	Broadcast Broadcaster
	Clock     Clock
}

func NewNotificationService(s store.DocumentStore, push PushSender, broadcast Broadcaster, clock Clock) *NotificationService {
	if push == nil {
		push = LogPushSender{}
	}
	if broadcast == nil {
		broadcast = NoopBroadcaster{}
	}
	return &NotificationService{Store: s, Push: push, Broadcast: broadcast, Clock: clock}
}

// Notify stores a notification and pushes it to the user's devices. Delivery
// problems are logged; only the store write can fail the call.
func (s *NotificationService) Notify(ctx context.Context, userID, kind, title, body string, data map[string]string) (*models.Notification, error) {
	n := &models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Body:      body,
		Data:      data,
		CreatedAt: s.Clock.Now(),
	}
	if err := s.Store.Put(ctx, models.NotificationsTable, n.ID, n); err != nil {
		return nil, fmt.Errorf("failed to store notification: %w", err)
	}

	s.Broadcast.ToUser(userID, EventNotification, n)
	s.deliver(ctx, n)
	return n, nil
}

func (s *NotificationService) deliver(ctx context.Context, n *models.Notification) {
	tokens, err := s.tokensFor(ctx, n.UserID)
	if err != nil {
		log.Warnf("failed to load device tokens for %s: %v", n.UserID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	data := map[string]string{"type": n.Type, "notificationId": n.ID}
	for k, v := range n.Data {
		data[k] = v
	}
	failed, err := s.Push.SendToTokens(ctx, tokens, PushMessage{Title: n.Title, Body: n.Body, Data: data})
	if err != nil {
		metrics.PushFailed(len(tokens))
		log.Warnf("push to %s failed: %v", n.UserID, err)
		return
	}
	metrics.PushSent(len(tokens) - len(failed))
	metrics.PushFailed(len(failed))

	for _, token := range failed {
		if err := s.Store.Delete(ctx, models.DeviceTokensTable, token); err != nil {
			log.Warnf("failed to prune device token: %v", err)
		}
	}
	if len(failed) > 0 {
		log.Infof("pruned %d stale device tokens for %s", len(failed), n.UserID)
	}
}

func (s *NotificationService) tokensFor(ctx context.Context, userID string) ([]string, error) {
	var docs []models.DeviceToken
	if err := s.Store.Query(ctx, models.DeviceTokensTable, []store.Filter{store.Eq("userId", userID)}, &docs); err != nil {
		return nil, err
	}
	tokens := make([]string, 0, len(docs))
	for _, d := range docs {
		tokens = append(tokens, d.ID)
	}
	return tokens, nil
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	filters := []store.Filter{store.Eq("userId", userID)}
	if unreadOnly {
		filters = append(filters, store.Eq("read", false))
	}
	var out []models.Notification
	if err := s.Store.Query(ctx, models.NotificationsTable, filters, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UnreadCount counts unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	unread, err := s.List(ctx, userID, true)
	if err != nil {
		return 0, err
	}
	return len(unread), nil
}

func (s *NotificationService) owned(ctx context.Context, userID, id string) (*models.Notification, error) {
	var n models.Notification
	if err := s.Store.Get(ctx, models.NotificationsTable, id, &n); err != nil {
		return nil, err
	}
	if n.UserID != userID {
		// hide other users' notifications entirely
		return nil, ErrNotFound
	}
	return &n, nil
}

// MarkRead marks one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.Store.Update(ctx, models.NotificationsTable, id, map[string]interface{}{"read": true})
}

// MarkAllRead marks every unread notification of the user as read and
// returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	unread, err := s.List(ctx, userID, true)
	if err != nil {
		return 0, err
	}
	for _, n := range unread {
		if err := s.Store.Update(ctx, models.NotificationsTable, n.ID, map[string]interface{}{"read": true}); err != nil {
			return 0, fmt.Errorf("failed to mark notification %s read: %w", n.ID, err)
		}
	}
	return len(unread), nil
}

// Delete removes one notification.
func (s *NotificationService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.Store.Delete(ctx, models.NotificationsTable, id)
}

// RegisterToken records a device push token for the user and subscribes it
// to the broadcast topic. A token moves to the latest user that registers it.
func (s *NotificationService) RegisterToken(ctx context.Context, userID, token, platform string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: token is required", ErrInvalidInput)
	}
	doc := &models.DeviceToken{ID: token, UserID: userID, Platform: platform, CreatedAt: s.Clock.Now()}
	if err := s.Store.Put(ctx, models.DeviceTokensTable, token, doc); err != nil {
		return fmt.Errorf("failed to save device token: %w", err)
	}
	if err := s.Push.SubscribeToTopic(ctx, []string{token}, BroadcastTopic); err != nil {
		log.Warnf("failed to subscribe token to %s: %v", BroadcastTopic, err)
	}
	return nil
}

// UnregisterToken removes a token the user owns.
func (s *NotificationService) UnregisterToken(ctx context.Context, userID, token string) error {
	var doc models.DeviceToken
	if err := s.Store.Get(ctx, models.DeviceTokensTable, token, &doc); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if doc.UserID != userID {
		return ErrForbidden
	}
	if err := s.Push.UnsubscribeFromTopic(ctx, []string{token}, BroadcastTopic); err != nil {
		log.Warnf("failed to unsubscribe token from %s: %v", BroadcastTopic, err)
	}
	return s.Store.Delete(ctx, models.DeviceTokensTable, token)
}

// RemoveAllTokens drops every device token of a user, e.g. on account deletion.
func (s *NotificationService) RemoveAllTokens(ctx context.Context, userID string) error {
	tokens, err := s.tokensFor(ctx, userID)
	if err != nil {
		return err
	}
	for _, token := range tokens {
		if err := s.Store.Delete(ctx, models.DeviceTokensTable, token); err != nil {
			return err
		}
	}
	return nil
}
