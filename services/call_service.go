package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"amora_server/models"
	"amora_server/store"
)

// CallClaims are carried by the channel token handed to the media SDK.
type CallClaims struct {
	Channel string `json:"channel"`
	UID     string `json:"uid"`
	jwt.RegisteredClaims
}

// CallService tracks call signalling between chat participants and issues
// channel tokens. Media never passes through the server.
type CallService struct {
	Store         store.DocumentStore
	Chats         *ChatService
	Notifications *NotificationService
	Broadcast     Broadcaster
	Clock         Clock
	Secret        []byte
	TokenTTL      time.Duration
}

func NewCallService(s store.DocumentStore, chats *ChatService, notifications *NotificationService, broadcast Broadcaster, clock Clock, secret string, ttl time.Duration) *CallService {
	if broadcast == nil {
		broadcast = NoopBroadcaster{}
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CallService{
		Store:         s,
		Chats:         chats,
		Notifications: notifications,
		Broadcast:     broadcast,
		Clock:         clock,
		Secret:        []byte(secret),
		TokenTTL:      ttl,
	}
}

// IssueToken signs a token admitting uid to the call's channel.
func (cs *CallService) IssueToken(callID, uid string) (string, error) {
	if len(cs.Secret) == 0 {
		return "", ErrVendorNotEnabled
	}
	now := cs.Clock.Now()
	claims := CallClaims{
		Channel: callID,
		UID:     uid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cs.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cs.Secret)
}

// VerifyToken parses a channel token and returns its claims. Expiry is
// checked against the service clock.
func (cs *CallService) VerifyToken(token string) (*CallClaims, error) {
	claims := &CallClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return cs.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if !claims.VerifyExpiresAt(cs.Clock.Now(), true) {
		return nil, fmt.Errorf("%w: token expired", ErrUnauthenticated)
	}
	return claims, nil
}

// StartCall rings the other participant of chatID.
func (cs *CallService) StartCall(ctx context.Context, callerID, chatID, kind string) (*models.Call, error) {
	if len(cs.Secret) == 0 {
		return nil, ErrVendorNotEnabled
	}
	if kind == "" {
		kind = models.CallKindAudio
	}
	if kind != models.CallKindAudio && kind != models.CallKindVideo {
		return nil, fmt.Errorf("%w: unknown call kind %q", ErrInvalidInput, kind)
	}
	chat, err := cs.Chats.GetChat(ctx, callerID, chatID)
	if err != nil {
		return nil, err
	}
	calleeID := chat.OtherParticipant(callerID)
	callee, err := cs.Chats.Profiles.GetProfile(ctx, calleeID)
	if err != nil {
		return nil, err
	}
	if callee.IsAI {
		return nil, fmt.Errorf("%w: AI profiles cannot be called", ErrInvalidInput)
	}

	busy, err := cs.inActiveCall(ctx, calleeID)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, fmt.Errorf("%w: user is already in a call", ErrConflict)
	}

	call := &models.Call{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		CallerID:  callerID,
		CalleeID:  calleeID,
		Kind:      kind,
		Status:    models.CallStatusRinging,
		CreatedAt: cs.Clock.Now(),
	}
	if err := cs.Store.Put(ctx, models.CallsTable, call.ID, call); err != nil {
		return nil, fmt.Errorf("failed to create call: %w", err)
	}

	cs.Broadcast.ToUser(calleeID, EventIncomingCall, call)
	title := "Incoming " + kind + " call"
	body := "Someone is calling you"
	if caller, err := cs.Chats.Profiles.GetProfile(ctx, callerID); err == nil && caller.Name != "" {
		body = caller.Name + " is calling you"
	}
	if _, err := cs.Notifications.Notify(ctx, calleeID, models.NotificationTypeCall, title, body,
		map[string]string{"callId": call.ID, "chatId": chatID, "kind": kind}); err != nil {
		log.Warnf("failed to notify %s of call: %v", calleeID, err)
	}

	withToken := *call
	if withToken.Token, err = cs.IssueToken(call.ID, callerID); err != nil {
		return nil, err
	}
	return &withToken, nil
}

func (cs *CallService) inActiveCall(ctx context.Context, userID string) (bool, error) {
	for _, field := range []string{"callerId", "calleeId"} {
		var calls []models.Call
		if err := cs.Store.Query(ctx, models.CallsTable, []store.Filter{store.Eq(field, userID)}, &calls); err != nil {
			return false, fmt.Errorf("failed to fetch calls: %w", err)
		}
		for _, c := range calls {
			if c.IsActive() {
				return true, nil
			}
		}
	}
	return false, nil
}

func (cs *CallService) getCall(ctx context.Context, userID, callID string) (*models.Call, error) {
	var call models.Call
	if err := cs.Store.Get(ctx, models.CallsTable, callID, &call); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("call %s: %w", callID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch call: %w", err)
	}
	if !call.HasParty(userID) {
		return nil, ErrForbidden
	}
	return &call, nil
}

// Answer accepts a ringing call and returns it with the callee's token.
func (cs *CallService) Answer(ctx context.Context, userID, callID string) (*models.Call, error) {
	call, err := cs.getCall(ctx, userID, callID)
	if err != nil {
		return nil, err
	}
	if call.CalleeID != userID {
		return nil, ErrForbidden
	}
	if call.Status != models.CallStatusRinging {
		return nil, fmt.Errorf("%w: call is %s", ErrConflict, call.Status)
	}
	now := cs.Clock.Now()
	call.AnsweredAt, call.StartedAt = now, now
	if err := cs.transition(ctx, call, models.CallStatusOngoing, map[string]interface{}{"answeredAt": now, "startedAt": now}); err != nil {
		return nil, err
	}
	answered := *call
	if answered.Token, err = cs.IssueToken(call.ID, userID); err != nil {
		return nil, err
	}
	return &answered, nil
}

// Decline rejects a ringing call.
func (cs *CallService) Decline(ctx context.Context, userID, callID string) (*models.Call, error) {
	call, err := cs.getCall(ctx, userID, callID)
	if err != nil {
		return nil, err
	}
	if call.CalleeID != userID {
		return nil, ErrForbidden
	}
	if call.Status != models.CallStatusRinging {
		return nil, fmt.Errorf("%w: call is %s", ErrConflict, call.Status)
	}
	now := cs.Clock.Now()
	call.EndedAt = now
	if err := cs.transition(ctx, call, models.CallStatusDeclined, map[string]interface{}{"endedAt": now}); err != nil {
		return nil, err
	}
	return call, nil
}

// End hangs up. A ringing call hung up by the caller is recorded as missed;
// the callee hanging up a ringing call declines it.
func (cs *CallService) End(ctx context.Context, userID, callID string) (*models.Call, error) {
	call, err := cs.getCall(ctx, userID, callID)
	if err != nil {
		return nil, err
	}
	status := models.CallStatusEnded
	switch call.Status {
	case models.CallStatusRinging:
		if userID == call.CalleeID {
			return cs.Decline(ctx, userID, callID)
		}
		status = models.CallStatusMissed
	case models.CallStatusOngoing:
	default:
		return nil, fmt.Errorf("%w: call is %s", ErrConflict, call.Status)
	}
	now := cs.Clock.Now()
	call.EndedAt = now
	if err := cs.transition(ctx, call, status, map[string]interface{}{"endedAt": now}); err != nil {
		return nil, err
	}

	if status == models.CallStatusMissed {
		if _, err := cs.Notifications.Notify(ctx, call.CalleeID, models.NotificationTypeCall, "Missed call",
			"You missed a "+call.Kind+" call", map[string]string{"callId": call.ID, "chatId": call.ChatID}); err != nil {
			log.Warnf("failed to notify %s of missed call: %v", call.CalleeID, err)
		}
	}
	return call, nil
}

func (cs *CallService) transition(ctx context.Context, call *models.Call, status string, extra map[string]interface{}) error {
	fields := map[string]interface{}{"status": status}
	for k, v := range extra {
		fields[k] = v
	}
	if err := cs.Store.Update(ctx, models.CallsTable, call.ID, fields); err != nil {
		return fmt.Errorf("failed to update call: %w", err)
	}
	call.Status = status
	cs.Broadcast.ToUser(call.CallerID, EventCallUpdated, call)
	cs.Broadcast.ToUser(call.CalleeID, EventCallUpdated, call)
	return nil
}

// History lists the calls made in a chat, newest first.
func (cs *CallService) History(ctx context.Context, userID, chatID string) ([]models.Call, error) {
	if _, err := cs.Chats.GetChat(ctx, userID, chatID); err != nil {
		return nil, err
	}
	var calls []models.Call
	if err := cs.Store.Query(ctx, models.CallsTable, []store.Filter{store.Eq("chatId", chatID)}, &calls); err != nil {
		return nil, fmt.Errorf("failed to fetch calls: %w", err)
	}
	sort.SliceStable(calls, func(i, j int) bool { return calls[i].CreatedAt.After(calls[j].CreatedAt) })
	return calls, nil
}
