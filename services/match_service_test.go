package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amora_server/models"
)

func TestLike_OneSidedNotifiesTarget(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addUser(t, "a", "Ana", "female", 27, 0, 0)
	h.addUser(t, "b", "Ben", "male", 29, 0, 0)

	m, err := h.matches.Like(ctx, "a", "b", false)
	require.NoError(t, err)
	assert.Nil(t, m)

	in, err := h.matches.GetInteraction(ctx, "a", "b")
	require.NoError(t, err)
	require.NotNil(t, in)
	assert.Equal(t, models.InteractionTypeLike, in.Type)

	notes, err := h.notifications.List(ctx, "b", false)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationTypeLike, notes[0].Type)
}

func TestLike_MutualCreatesMatchAndChat(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addUser(t, "a", "Ana", "female", 27, 0, 0)
	h.addUser(t, "b", "Ben", "male", 29, 0, 0)

	m := h.matchUsers(t, "a", "b")
	assert.Equal(t, models.MatchID("a", "b"), m.ID)
	assert.True(t, m.IsMutual())
	assert.True(t, m.IsActive())

	chat, err := h.chats.GetChat(ctx, "a", m.ChatID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, chat.Participants)
	assert.Equal(t, m.ID, chat.MatchID)

	assert.Equal(t, 1, h.broadcast.count("user:a", EventMatchCreated))
	assert.Equal(t, 1, h.broadcast.count("user:b", EventMatchCreated))

	again, err := h.matches.Like(ctx, "a", "b", false)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, m.ChatID, again.ChatID)

	list, err := h.matches.ListMatches(ctx, "a")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].Profile.ID)
	assert.Equal(t, "Ben", list[0].Profile.Name)
}

func TestLike_RejectsSelfAIAndBlocked(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addUser(t, "a", "Ana", "female", 27, 0, 0)
	h.addUser(t, "b", "Ben", "male", 29, 0, 0)

	_, err := h.matches.Like(ctx, "a", "a", false)
	assert.ErrorIs(t, err, ErrInvalidInput)

	bot, err := h.ai.CreateAIProfile(ctx, NewAIProfile{Name: "Bot", Greeting: "hey"})
	require.NoError(t, err)
	_, err = h.matches.Like(ctx, "a", bot.ID, false)
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, h.matches.Block(ctx, "b", "a"))
	_, err = h.matches.Like(ctx, "a", "b", false)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = h.matches.Like(ctx, "a", "missing", false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSuperLike_RequiresPremium(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addUser(t, "a", "Ana", "female", 27, 0, 0)
	h.addUser(t, "b", "Ben", "male", 29, 0, 0)

	_, err := h.matches.Like(ctx, "a", "b", true)
	assert.ErrorIs(t, err, ErrPaymentRequired)

	h.premium["a"] = true
	_, err = h.matches.Like(ctx, "a", "b", true)
	require.NoError(t, err)

	in, err := h.matches.GetInteraction(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, models.InteractionTypeSuperLike, in.Type)
}

func TestBlock_UndoesMatch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addUser(t, "a", "Ana", "female", 27, 0, 0)
	h.addUser(t, "b", "Ben", "male", 29, 0, 0)
	m := h.matchUsers(t, "a", "b")

	require.NoError(t, h.matches.Block(ctx, "a", "b"))

	stored, err := h.matches.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusUnmatched, stored.Status)

	_, err = h.chats.SendMessage(ctx, "b", m.ChatID, "still there?", "")
	assert.ErrorIs(t, err, ErrForbidden)

	chats, err := h.chats.ListChats(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestUnmatch_OnlyMembers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addUser(t, "a", "Ana", "female", 27, 0, 0)
	h.addUser(t, "b", "Ben", "male", 29, 0, 0)
	m := h.matchUsers(t, "a", "b")

	assert.ErrorIs(t, h.matches.Unmatch(ctx, "c", m.ID), ErrForbidden)
	assert.ErrorIs(t, h.matches.Unmatch(ctx, "a", "match_missing"), ErrNotFound)
	require.NoError(t, h.matches.Unmatch(ctx, "b", m.ID))

	list, err := h.matches.ListMatches(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateMatch_SettlesOnOneMatchAndChat(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addUser(t, "a", "Ana", "female", 27, 0, 0)
	h.addUser(t, "b", "Ben", "male", 29, 0, 0)

	first, err := h.matches.CreateMatch(ctx, "a", "b", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, models.ChatIDFor(first.ID), first.ChatID)

	second, err := h.matches.CreateMatch(ctx, "b", "a", []string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ChatID, second.ChatID)
	assert.Equal(t, 1, h.broadcast.count("user:a", EventMatchCreated))

	var chats []models.Chat
	require.NoError(t, h.store.Query(ctx, models.ChatsTable, nil, &chats))
	assert.Len(t, chats, 1)
}

func TestLike_AfterUnmatchDoesNotRevive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addUser(t, "a", "Ana", "female", 27, 0, 0)
	h.addUser(t, "b", "Ben", "male", 29, 0, 0)
	m := h.matchUsers(t, "a", "b")
	require.NoError(t, h.matches.Unmatch(ctx, "a", m.ID))

	_, err := h.matches.Like(ctx, "a", "b", false)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = h.matches.CreateMatch(ctx, "a", "b", []string{"a", "b"})
	assert.ErrorIs(t, err, ErrConflict)

	stored, err := h.matches.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusUnmatched, stored.Status)
}

func TestLikesReceived_LockedForFreeUsers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addUser(t, "me", "Me", "female", 27, 0, 0)
	h.addUser(t, "x", "Xavi", "male", 29, 0, 0)
	h.addUser(t, "y", "Yann", "male", 30, 0, 0)
	h.addUser(t, "z", "Zed", "male", 31, 0, 0)

	_, err := h.matches.Like(ctx, "x", "me", false)
	require.NoError(t, err)
	h.clock.Advance(1)
	_, err = h.matches.Like(ctx, "y", "me", false)
	require.NoError(t, err)
	require.NoError(t, h.matches.Skip(ctx, "z", "me"))
	require.NoError(t, h.matches.Skip(ctx, "me", "x"))

	got, err := h.matches.LikesReceived(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count)
	assert.True(t, got.Locked)
	assert.Empty(t, got.Profiles)

	h.premium["me"] = true
	got, err = h.matches.LikesReceived(ctx, "me")
	require.NoError(t, err)
	assert.False(t, got.Locked)
	require.Len(t, got.Profiles, 1)
	assert.Equal(t, "y", got.Profiles[0].ID)
}
