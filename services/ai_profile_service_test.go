package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAIProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.ai.CreateAIProfile(ctx, NewAIProfile{Name: "Nova"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	bot, err := h.ai.CreateAIProfile(ctx, NewAIProfile{
		Name:     "Nova",
		Gender:   "Female",
		Greeting: "Hi, I'm Nova!",
		Replies:  []string{"Tell me more", "That sounds fun"},
	})
	require.NoError(t, err)
	assert.True(t, bot.Profile.IsAI)
	assert.Equal(t, "female", bot.Profile.Gender)

	user, err := h.profiles.GetProfile(ctx, bot.ID)
	require.NoError(t, err)
	assert.True(t, user.IsAI)

	list, err := h.ai.ListAIProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, bot.ID, list[0].ID)
}

func TestStartAIChat_GreetsAndReplies(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addUser(t, "me", "Me", "male", 30, 0, 0)
	bot, err := h.ai.CreateAIProfile(ctx, NewAIProfile{
		Name:     "Nova",
		Greeting: "Hi, I'm Nova!",
		Replies:  []string{"first", "second", "third"},
	})
	require.NoError(t, err)

	chat, err := h.ai.StartAIChat(ctx, "me", bot.ID)
	require.NoError(t, err)

	again, err := h.ai.StartAIChat(ctx, "me", bot.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.ID, again.ID)

	h.clock.Advance(time.Minute)
	_, err = h.chats.SendMessage(ctx, "me", chat.ID, "hello Nova", "")
	require.NoError(t, err)

	msgs, err := h.chats.ListMessages(ctx, "me", chat.ID, 0, time.Time{})
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "Hi, I'm Nova!", msgs[0].Content)
	assert.True(t, msgs[0].IsAI)
	assert.ElementsMatch(t, []string{"hello Nova", "third"}, contents(msgs[1:]))

	chats, err := h.chats.ListChats(ctx, "me")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.True(t, chats[0].IsUnread)

	_, err = h.ai.StartAIChat(ctx, "me", "ai_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStartAIChat_ReopensAfterUnmatch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addUser(t, "me", "Me", "male", 30, 0, 0)
	bot, err := h.ai.CreateAIProfile(ctx, NewAIProfile{Name: "Nova", Greeting: "Hi!"})
	require.NoError(t, err)

	chat, err := h.ai.StartAIChat(ctx, "me", bot.ID)
	require.NoError(t, err)
	require.NoError(t, h.matches.Unmatch(ctx, "me", chat.MatchID))

	reopened, err := h.ai.StartAIChat(ctx, "me", bot.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.ID, reopened.ID)

	m, err := h.matches.GetMatch(ctx, chat.MatchID)
	require.NoError(t, err)
	assert.True(t, m.IsActive())

	msgs, err := h.chats.ListMessages(ctx, "me", chat.ID, 0, time.Time{})
	require.NoError(t, err)
	assert.Len(t, msgs, 1, "the greeting is not repeated")
}
