package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// FirebaseConfig selects the project and credentials for the Firebase app.
// With neither CredentialsFile nor CredentialsBase64 set, Application
// Default Credentials are used.
type FirebaseConfig struct {
	ProjectID         string
	CredentialsFile   string
	CredentialsBase64 string
}

// NewFirebaseApp initializes the Firebase admin app.
func NewFirebaseApp(ctx context.Context, cfg FirebaseConfig) (*firebase.App, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		log.Infof("Initializing Firebase with credentials file: %s", cfg.CredentialsFile)
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.CredentialsBase64 != "":
		jsonKey, err := base64.StdEncoding.DecodeString(cfg.CredentialsBase64)
		if err != nil {
			return nil, errors.New("FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is not a valid base64 string")
		}
		log.Info("Initializing Firebase with base64 service account JSON")
		opts = append(opts, option.WithCredentialsJSON(jsonKey))
	default:
		log.Info("Initializing Firebase using Application Default Credentials")
	}

	var conf *firebase.Config
	if cfg.ProjectID != "" {
		conf = &firebase.Config{ProjectID: cfg.ProjectID}
	}
	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}
	return app, nil
}

// FirebaseAuthProvider implements AuthProvider with the admin SDK for
// account management and token checks, and the Identity Toolkit REST API
// for password sign-in and reset emails.
type FirebaseAuthProvider struct {
	Client  *auth.Client
	Toolkit *identitytoolkit.Service
}

// NewFirebaseAuthProvider builds the provider. The web API key is what the
// client apps use; it authorizes the password endpoints.
func NewFirebaseAuthProvider(ctx context.Context, app *firebase.App, webAPIKey string) (*FirebaseAuthProvider, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Auth: %w", err)
	}
	p := &FirebaseAuthProvider{Client: client}
	if webAPIKey == "" {
		log.Warn("FIREBASE_WEB_API_KEY not set, password sign-in and reset are disabled")
		return p, nil
	}
	toolkit, err := identitytoolkit.NewService(ctx, option.WithAPIKey(webAPIKey))
	if err != nil {
		return nil, fmt.Errorf("identitytoolkit.NewService: %w", err)
	}
	p.Toolkit = toolkit
	return p, nil
}

func (p *FirebaseAuthProvider) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).Email(email).Password(password).DisplayName(displayName)
	record, err := p.Client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return "", fmt.Errorf("failed to create account: %w", err)
	}
	return record.UID, nil
}

func (p *FirebaseAuthProvider) SignInWithPassword(ctx context.Context, email, password string) (*AuthSession, error) {
	if p.Toolkit == nil {
		return nil, ErrVendorNotEnabled
	}
	resp, err := p.Toolkit.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapToolkitError(err)
	}
	return &AuthSession{
		UID:          resp.LocalId,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
	}, nil
}

func (p *FirebaseAuthProvider) VerifyIDToken(ctx context.Context, idToken string) (*TokenClaims, error) {
	token, err := p.Client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	claims := &TokenClaims{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		claims.Email = email
	}
	if admin, ok := token.Claims["admin"].(bool); ok {
		claims.Admin = admin
	}
	return claims, nil
}

func (p *FirebaseAuthProvider) SendPasswordReset(ctx context.Context, email string) error {
	if p.Toolkit == nil {
		return ErrVendorNotEnabled
	}
	_, err := p.Toolkit.Relyingparty.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		Email:       email,
		RequestType: "PASSWORD_RESET",
		Kind:        "identitytoolkit#relyingparty",
	}).Context(ctx).Do()
	if err != nil {
		// unknown emails are not reported to the caller
		if hasToolkitReason(err, "EMAIL_NOT_FOUND") {
			log.Debugf("password reset for unknown email: %v", err)
			return nil
		}
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == 400 {
			return fmt.Errorf("%w: %s", ErrInvalidInput, gerr.Message)
		}
		return fmt.Errorf("failed to send password reset: %w", err)
	}
	return nil
}

func (p *FirebaseAuthProvider) DeleteUser(ctx context.Context, uid string) error {
	if err := p.Client.DeleteUser(ctx, uid); err != nil && !auth.IsUserNotFound(err) {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

// hasToolkitReason reports whether err is an Identity Toolkit rejection with
// the given reason code. The code leads the message, as in
// "TOO_MANY_ATTEMPTS_TRY_LATER : ...".
func hasToolkitReason(err error, reason string) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Code != 400 {
		return false
	}
	if strings.HasPrefix(gerr.Message, reason) {
		return true
	}
	for _, item := range gerr.Errors {
		if strings.HasPrefix(item.Message, reason) {
			return true
		}
	}
	return false
}

// mapToolkitError turns credential rejections (HTTP 400 with codes such as
// INVALID_PASSWORD or EMAIL_NOT_FOUND) into ErrUnauthenticated.
func mapToolkitError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == 400 {
		return fmt.Errorf("%w: %s", ErrUnauthenticated, gerr.Message)
	}
	return fmt.Errorf("auth provider: %w", err)
}
