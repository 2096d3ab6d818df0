package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUp_CreatesProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	session, err := h.accounts.SignUp(ctx, "  Ana@Example.com ", "secret1", "")
	require.NoError(t, err)
	require.NotNil(t, session.User)
	assert.Equal(t, "ana@example.com", session.User.Email)
	assert.Equal(t, "ana", session.User.Name)
	assert.NotEmpty(t, session.IDToken)

	profile, err := h.profiles.GetProfile(ctx, session.UID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", profile.Email)

	_, err = h.accounts.SignUp(ctx, "ana@example.com", "secret1", "Ana")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSignUp_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.accounts.SignUp(ctx, "", "secret1", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = h.accounts.SignUp(ctx, "not-an-email", "secret1", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = h.accounts.SignUp(ctx, "a@b.co", "short", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSignIn(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.accounts.SignUp(ctx, "ben@example.com", "password", "Ben")
	require.NoError(t, err)

	session, err := h.accounts.SignIn(ctx, "BEN@example.com", "password")
	require.NoError(t, err)
	assert.Equal(t, "Ben", session.User.Name)

	_, err = h.accounts.SignIn(ctx, "ben@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = h.accounts.SignIn(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSignIn_CreatesMissingProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	uid, err := h.auth.CreateUser(ctx, "cat@example.com", "password", "")
	require.NoError(t, err)

	session, err := h.accounts.SignIn(ctx, "cat@example.com", "password")
	require.NoError(t, err)
	assert.Equal(t, uid, session.User.ID)
	assert.Equal(t, "cat", session.User.Name)
}

func TestVerifyTokenAndReset(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.accounts.VerifyToken(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	claims, err := h.accounts.VerifyToken(ctx, "token-uid-9")
	require.NoError(t, err)
	assert.Equal(t, "uid-9", claims.UID)

	assert.ErrorIs(t, h.accounts.ResetPassword(ctx, " "), ErrInvalidInput)
	require.NoError(t, h.accounts.ResetPassword(ctx, "Dan@Example.com"))
	assert.Equal(t, []string{"dan@example.com"}, h.auth.resets)
}

func TestDeleteAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	session, err := h.accounts.SignUp(ctx, "eve@example.com", "password", "Eve")
	require.NoError(t, err)
	require.NoError(t, h.notifications.RegisterToken(ctx, session.UID, "device", "ios"))

	require.NoError(t, h.accounts.DeleteAccount(ctx, session.UID))
	assert.Equal(t, []string{session.UID}, h.auth.deleted)

	_, err = h.profiles.GetProfile(ctx, session.UID)
	assert.ErrorIs(t, err, ErrNotFound)

	tokens, err := h.notifications.tokensFor(ctx, session.UID)
	require.NoError(t, err)
	assert.Empty(t, tokens)
}
