package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amora_server/models"
)

func TestCallFlow_AnswerAndEnd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addUser(t, "a", "Ana", "female", 27, 0, 0)
	h.addUser(t, "b", "Ben", "male", 29, 0, 0)
	m := h.matchUsers(t, "a", "b")

	call, err := h.calls.StartCall(ctx, "a", m.ChatID, "")
	require.NoError(t, err)
	assert.Equal(t, models.CallKindAudio, call.Kind)
	assert.Equal(t, models.CallStatusRinging, call.Status)
	assert.Equal(t, "b", call.CalleeID)
	require.NotEmpty(t, call.Token)
	assert.Equal(t, 1, h.broadcast.count("user:b", EventIncomingCall))

	claims, err := h.calls.VerifyToken(call.Token)
	require.NoError(t, err)
	assert.Equal(t, call.ID, claims.Channel)
	assert.Equal(t, "a", claims.UID)

	_, err = h.calls.Answer(ctx, "a", call.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	h.clock.Advance(5 * time.Second)
	answered, err := h.calls.Answer(ctx, "b", call.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusOngoing, answered.Status)
	assert.True(t, answered.StartedAt.Equal(testNow.Add(5*time.Second)))
	bClaims, err := h.calls.VerifyToken(answered.Token)
	require.NoError(t, err)
	assert.Equal(t, "b", bClaims.UID)

	_, err = h.calls.Answer(ctx, "b", call.ID)
	assert.ErrorIs(t, err, ErrConflict)

	h.clock.Advance(90 * time.Second)
	ended, err := h.calls.End(ctx, "a", call.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusEnded, ended.Status)
	assert.Equal(t, "1:30", ended.DurationString())
	assert.Equal(t, 2, h.broadcast.count("user:a", EventCallUpdated))

	_, err = h.calls.End(ctx, "a", call.ID)
	assert.ErrorIs(t, err, ErrConflict)

	history, err := h.calls.History(ctx, "b", m.ChatID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.CallStatusEnded, history[0].Status)
}

func TestCallFlow_MissedAndDeclined(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addUser(t, "a", "Ana", "female", 27, 0, 0)
	h.addUser(t, "b", "Ben", "male", 29, 0, 0)
	m := h.matchUsers(t, "a", "b")

	call, err := h.calls.StartCall(ctx, "a", m.ChatID, models.CallKindVideo)
	require.NoError(t, err)

	_, err = h.calls.StartCall(ctx, "a", m.ChatID, models.CallKindVideo)
	assert.ErrorIs(t, err, ErrConflict)

	missed, err := h.calls.End(ctx, "a", call.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusMissed, missed.Status)

	notes, err := h.notifications.List(ctx, "b", false)
	require.NoError(t, err)
	var titles []string
	for _, n := range notes {
		if n.Type == models.NotificationTypeCall {
			titles = append(titles, n.Title)
		}
	}
	assert.Contains(t, titles, "Missed call")
	assert.Contains(t, titles, "Incoming video call")

	second, err := h.calls.StartCall(ctx, "b", m.ChatID, models.CallKindAudio)
	require.NoError(t, err)
	declined, err := h.calls.Decline(ctx, "a", second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusDeclined, declined.Status)
	assert.Zero(t, declined.Duration())

	third, err := h.calls.StartCall(ctx, "a", m.ChatID, models.CallKindAudio)
	require.NoError(t, err)
	hungUp, err := h.calls.End(ctx, "b", third.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusDeclined, hungUp.Status, "callee hanging up a ringing call declines it")
}

func TestStartCall_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addUser(t, "a", "Ana", "female", 27, 0, 0)
	h.addUser(t, "b", "Ben", "male", 29, 0, 0)
	h.addUser(t, "c", "Cat", "female", 25, 0, 0)
	m := h.matchUsers(t, "a", "b")

	_, err := h.calls.StartCall(ctx, "a", m.ChatID, "hologram")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.calls.StartCall(ctx, "c", m.ChatID, "")
	assert.ErrorIs(t, err, ErrForbidden)

	bot, err := h.ai.CreateAIProfile(ctx, NewAIProfile{Name: "Nova", Greeting: "hi"})
	require.NoError(t, err)
	chat, err := h.ai.StartAIChat(ctx, "a", bot.ID)
	require.NoError(t, err)
	_, err = h.calls.StartCall(ctx, "a", chat.ID, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	h.calls.Secret = nil
	_, err = h.calls.StartCall(ctx, "a", m.ChatID, "")
	assert.ErrorIs(t, err, ErrVendorNotEnabled)
}

func TestVerifyToken_RejectsForeignAndExpired(t *testing.T) {
	h := newHarness(t)

	token, err := h.calls.IssueToken("call-1", "a")
	require.NoError(t, err)

	other := NewCallService(h.store, h.chats, h.notifications, nil, nil, "another-secret", time.Hour)
	_, err = other.VerifyToken(token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = h.calls.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	expired := NewCallService(h.store, h.chats, h.notifications, nil, Clock(func() time.Time {
		return testNow.Add(-2 * time.Hour)
	}), "test-secret", time.Minute)
	old, err := expired.IssueToken("call-1", "a")
	require.NoError(t, err)
	_, err = h.calls.VerifyToken(old)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
