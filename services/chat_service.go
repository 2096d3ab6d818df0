package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"amora_server/metrics"
	"amora_server/models"
	"amora_server/store"
	"amora_server/utils"
)

// Message page sizes
const (
	DefaultMessageLimit = 50
	MaxMessageLimit     = 200
)

// ChatSummary is a chat as listed to one participant.
type ChatSummary struct {
	models.Chat
	Profile       *models.PublicProfile `json:"profile,omitempty"`
	IsUnread      bool                  `json:"isUnread"`
	LastMessageOn string                `json:"lastMessageOn,omitempty"`
}

// ChatService is the chat and message repository.
type ChatService struct {
	Store         store.DocumentStore
	Profiles      *UserProfileService
	Notifications *NotificationService
	Broadcast     Broadcaster
	Clock         Clock
}

func NewChatService(s store.DocumentStore, profiles *UserProfileService, notifications *NotificationService, broadcast Broadcaster, clock Clock) *ChatService {
	if broadcast == nil {
		broadcast = NoopBroadcaster{}
	}
	return &ChatService{Store: s, Profiles: profiles, Notifications: notifications, Broadcast: broadcast, Clock: clock}
}

// GetChat returns the chat if userID participates in it.
func (cs *ChatService) GetChat(ctx context.Context, userID, chatID string) (*models.Chat, error) {
	var chat models.Chat
	if err := cs.Store.Get(ctx, models.ChatsTable, chatID, &chat); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("chat %s: %w", chatID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch chat: %w", err)
	}
	if !chat.HasParticipant(userID) {
		return nil, ErrForbidden
	}
	return &chat, nil
}

// ListChats returns the user's chats, most recent message first.
func (cs *ChatService) ListChats(ctx context.Context, userID string) ([]ChatSummary, error) {
	var chats []models.Chat
	if err := cs.Store.Query(ctx, models.ChatsTable, []store.Filter{store.Contains("participants", userID)}, &chats); err != nil {
		return nil, fmt.Errorf("failed to fetch chats: %w", err)
	}
	sort.SliceStable(chats, func(i, j int) bool {
		return activity(&chats[i]).After(activity(&chats[j]))
	})

	now := cs.Clock.Now()
	out := make([]ChatSummary, 0, len(chats))
	for _, c := range chats {
		if !cs.matchActive(ctx, c.MatchID) {
			continue
		}
		summary := ChatSummary{Chat: c, IsUnread: c.IsUnreadFor(userID)}
		if !c.LastMessageAt.IsZero() {
			summary.LastMessageOn = utils.FormatChatTime(c.LastMessageAt, now)
		}
		if other, err := cs.Profiles.GetProfile(ctx, c.OtherParticipant(userID)); err == nil {
			p := other.Public(now)
			summary.Profile = &p
		}
		out = append(out, summary)
	}
	return out, nil
}

func activity(c *models.Chat) time.Time {
	if c.LastMessageAt.IsZero() {
		return c.CreatedAt
	}
	return c.LastMessageAt
}

func (cs *ChatService) matchActive(ctx context.Context, matchID string) bool {
	if matchID == "" {
		return true
	}
	var m models.Match
	if err := cs.Store.Get(ctx, models.MatchesTable, matchID, &m); err != nil {
		return !errors.Is(err, store.ErrNotFound)
	}
	return m.IsActive()
}

// SendMessage posts a message from userID. Chats with an AI profile get a
// canned reply right away.
func (cs *ChatService) SendMessage(ctx context.Context, userID, chatID, content, imageURL string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" && imageURL == "" {
		return nil, fmt.Errorf("%w: message must have content or an image", ErrInvalidInput)
	}
	chat, err := cs.GetChat(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if !cs.matchActive(ctx, chat.MatchID) {
		return nil, ErrForbidden
	}

	msg, err := cs.postMessage(ctx, chat, userID, content, imageURL, false)
	if err != nil {
		return nil, err
	}

	other := chat.OtherParticipant(userID)
	recipient, err := cs.Profiles.GetProfile(ctx, other)
	if err != nil {
		log.Warnf("message %s stored but recipient %s unavailable: %v", msg.ID, other, err)
		return msg, nil
	}
	if recipient.IsAI {
		if _, err := cs.Reply(ctx, chat, other); err != nil {
			log.Warnf("AI reply in chat %s failed: %v", chat.ID, err)
		}
		return msg, nil
	}

	sender, err := cs.Profiles.GetProfile(ctx, userID)
	title := "New message"
	if err == nil && sender.Name != "" {
		title = sender.Name
	}
	if _, err := cs.Notifications.Notify(ctx, other, models.NotificationTypeMessage, title, msg.Preview(),
		map[string]string{"chatId": chat.ID, "messageId": msg.ID}); err != nil {
		log.Warnf("failed to notify %s of message: %v", other, err)
	}
	return msg, nil
}

// Reply posts the AI persona's next canned message into chat.
func (cs *ChatService) Reply(ctx context.Context, chat *models.Chat, aiID string) (*models.Message, error) {
	var persona models.AIProfile
	if err := cs.Store.Get(ctx, models.AIProfilesTable, aiID, &persona); err != nil {
		return nil, fmt.Errorf("failed to fetch AI profile: %w", err)
	}
	var history []models.Message
	if err := cs.Store.Query(ctx, models.MessagesTable, []store.Filter{store.Eq("chatId", chat.ID)}, &history); err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}
	return cs.postMessage(ctx, chat, aiID, persona.ReplyFor(len(history)), "", true)
}

// postMessage stores a message, refreshes the chat summary and emits it to
// the chat room.
func (cs *ChatService) postMessage(ctx context.Context, chat *models.Chat, senderID, content, imageURL string, ai bool) (*models.Message, error) {
	now := cs.Clock.Now()
	msg := &models.Message{
		ID:        uuid.NewString(),
		ChatID:    chat.ID,
		SenderID:  senderID,
		Content:   content,
		ImageURL:  imageURL,
		IsAI:      ai,
		ReadBy:    []string{senderID},
		CreatedAt: now,
	}
	if err := cs.Store.Put(ctx, models.MessagesTable, msg.ID, msg); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	unread := []string{}
	for _, p := range chat.Participants {
		if p != senderID {
			unread = append(unread, p)
		}
	}
	if err := cs.Store.Update(ctx, models.ChatsTable, chat.ID, map[string]interface{}{
		"lastMessage":   msg.Preview(),
		"lastMessageAt": now,
		"lastSenderId":  senderID,
		"unreadBy":      unread,
	}); err != nil {
		log.Warnf("failed to update chat summary for %s: %v", chat.ID, err)
	}
	chat.LastMessage, chat.LastMessageAt, chat.LastSenderID, chat.UnreadBy = msg.Preview(), now, senderID, unread

	metrics.MessageSent(ai)
	cs.Broadcast.ToChat(chat.ID, EventNewMessage, msg)
	return msg, nil
}

// ListMessages returns up to limit messages created before the given time
// (all when zero), oldest first.
func (cs *ChatService) ListMessages(ctx context.Context, userID, chatID string, limit int, before time.Time) ([]models.Message, error) {
	if _, err := cs.GetChat(ctx, userID, chatID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	if limit > MaxMessageLimit {
		limit = MaxMessageLimit
	}

	var all []models.Message
	if err := cs.Store.Query(ctx, models.MessagesTable, []store.Filter{store.Eq("chatId", chatID)}, &all); err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	// newest first, then cut the page
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	page := make([]models.Message, 0, limit)
	for _, m := range all {
		if !before.IsZero() && !m.CreatedAt.Before(before) {
			continue
		}
		page = append(page, m)
		if len(page) == limit {
			break
		}
	}

	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}
	return page, nil
}

// MarkRead marks the other participant's messages as read by userID and
// returns how many changed.
func (cs *ChatService) MarkRead(ctx context.Context, userID, chatID string) (int, error) {
	chat, err := cs.GetChat(ctx, userID, chatID)
	if err != nil {
		return 0, err
	}
	var msgs []models.Message
	if err := cs.Store.Query(ctx, models.MessagesTable, []store.Filter{store.Eq("chatId", chatID)}, &msgs); err != nil {
		return 0, fmt.Errorf("failed to fetch messages: %w", err)
	}

	marked := 0
	for _, m := range msgs {
		if m.IsReadBy(userID) {
			continue
		}
		readBy := append(append([]string{}, m.ReadBy...), userID)
		if err := cs.Store.Update(ctx, models.MessagesTable, m.ID, map[string]interface{}{"readBy": readBy}); err != nil {
			return marked, fmt.Errorf("failed to mark message %s read: %w", m.ID, err)
		}
		marked++
	}

	if chat.IsUnreadFor(userID) {
		remaining := []string{}
		for _, u := range chat.UnreadBy {
			if u != userID {
				remaining = append(remaining, u)
			}
		}
		if err := cs.Store.Update(ctx, models.ChatsTable, chatID, map[string]interface{}{"unreadBy": remaining}); err != nil {
			return marked, fmt.Errorf("failed to update chat: %w", err)
		}
	}

	cs.Broadcast.ToChat(chatID, EventMessagesRead, map[string]interface{}{"chatId": chatID, "userId": userID, "count": marked})
	return marked, nil
}

// LikeMessage sets or clears the like on a message in one of userID's chats.
func (cs *ChatService) LikeMessage(ctx context.Context, userID, messageID string, liked bool) (*models.Message, error) {
	var msg models.Message
	if err := cs.Store.Get(ctx, models.MessagesTable, messageID, &msg); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("message %s: %w", messageID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}
	if _, err := cs.GetChat(ctx, userID, msg.ChatID); err != nil {
		return nil, err
	}
	if err := cs.Store.Update(ctx, models.MessagesTable, messageID, map[string]interface{}{"liked": liked}); err != nil {
		return nil, fmt.Errorf("failed to update message: %w", err)
	}
	msg.Liked = liked
	cs.Broadcast.ToChat(msg.ChatID, EventNewMessage, &msg)
	return &msg, nil
}

// UnreadCount is the number of the user's chats holding unread messages.
func (cs *ChatService) UnreadCount(ctx context.Context, userID string) (int, error) {
	var chats []models.Chat
	if err := cs.Store.Query(ctx, models.ChatsTable, []store.Filter{store.Contains("unreadBy", userID)}, &chats); err != nil {
		return 0, fmt.Errorf("failed to count unread chats: %w", err)
	}
	return len(chats), nil
}
