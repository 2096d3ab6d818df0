package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	log "github.com/sirupsen/logrus"

	"amora_server/models"
)

// MinPasswordLength mirrors the auth provider's own rule.
const MinPasswordLength = 6

// AuthService adapts the hosted identity provider and keeps the profile
// document in step with the account.
type AuthService struct {
	Provider      AuthProvider
	Profiles      *UserProfileService
	Notifications *NotificationService
	Clock         Clock
}

func NewAuthService(provider AuthProvider, profiles *UserProfileService, notifications *NotificationService, clock Clock) *AuthService {
	return &AuthService{Provider: provider, Profiles: profiles, Notifications: notifications, Clock: clock}
}

func validateCredentials(email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return "", fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	return email, nil
}

// SignUp creates the account and its profile document, then signs in.
func (as *AuthService) SignUp(ctx context.Context, email, password, name string) (*AuthSession, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	uid, err := as.Provider.CreateUser(ctx, email, password, name)
	if err != nil {
		return nil, err
	}
	now := as.Clock.Now()
	user, err := as.Profiles.CreateProfile(ctx, &models.User{
		ID:         uid,
		Email:      email,
		Name:       name,
		LastActive: now,
		CreatedAt:  now,
	})
	if err != nil {
		return nil, err
	}
	log.WithField("uid", uid).Info("account created")

	session, err := as.Provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	session.User = user
	return session, nil
}

// SignIn authenticates with email and password. A profile is created for
// accounts that do not have one yet.
func (as *AuthService) SignIn(ctx context.Context, email, password string) (*AuthSession, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	session, err := as.Provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}

	user, err := as.Profiles.GetProfile(ctx, session.UID)
	switch {
	case errors.Is(err, ErrNotFound):
		now := as.Clock.Now()
		user, err = as.Profiles.CreateProfile(ctx, &models.User{
			ID:         session.UID,
			Email:      email,
			Name:       strings.SplitN(email, "@", 2)[0],
			LastActive: now,
		})
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		as.Profiles.Touch(ctx, session.UID)
		user.LastActive = as.Clock.Now()
	}
	session.User = user
	return session, nil
}

// VerifyToken checks an ID token and returns its claims.
func (as *AuthService) VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error) {
	if idToken == "" {
		return nil, ErrUnauthenticated
	}
	return as.Provider.VerifyIDToken(ctx, idToken)
}

// ResetPassword asks the provider to email a reset link.
func (as *AuthService) ResetPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	return as.Provider.SendPasswordReset(ctx, email)
}

// DeleteAccount removes the account, its profile and its devices.
func (as *AuthService) DeleteAccount(ctx context.Context, uid string) error {
	if err := as.Provider.DeleteUser(ctx, uid); err != nil {
		return err
	}
	if err := as.Profiles.DeleteProfile(ctx, uid); err != nil {
		return err
	}
	if as.Notifications != nil {
		if err := as.Notifications.RemoveAllTokens(ctx, uid); err != nil {
			log.Warnf("failed to remove device tokens for %s: %v", uid, err)
		}
	}
	log.WithField("uid", uid).Info("account deleted")
	return nil
}
