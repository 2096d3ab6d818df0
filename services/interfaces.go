package services

import (
	"context"
	"io"
	"time"

	"amora_server/models"
)

// AuthSession is what a successful sign-in returns to the client.
type AuthSession struct {
	UID          string       `json:"uid"`
	IDToken      string       `json:"idToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int64        `json:"expiresIn"`
	User         *models.User `json:"user,omitempty"`
}

// TokenClaims are the verified claims of an ID token.
type TokenClaims struct {
	UID   string
	Email string
	Admin bool
}

// AuthProvider is the hosted identity service.
type AuthProvider interface {
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	SignInWithPassword(ctx context.Context, email, password string) (*AuthSession, error)
	VerifyIDToken(ctx context.Context, idToken string) (*TokenClaims, error)
	SendPasswordReset(ctx context.Context, email string) error
	DeleteUser(ctx context.Context, uid string) error
}

// PushMessage is one push notification.
type PushMessage struct {
	Title string
	Body  string
	Data  map[string]string
}

// PushSender delivers push notifications to device tokens.
type PushSender interface {
	// SendToTokens returns the tokens the provider rejected as invalid.
	SendToTokens(ctx context.Context, tokens []string, msg PushMessage) ([]string, error)
	SubscribeToTopic(ctx context.Context, tokens []string, topic string) error
	UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) error
}

// PaymentIntent is the provider's view of a payment.
type PaymentIntent struct {
	Ref          string
	ClientSecret string
	Status       string // one of models.PaymentStatus*
	AmountCents  int64
	Currency     string
}

// PaymentProvider creates and tracks payment intents.
type PaymentProvider interface {
	Name() string
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*PaymentIntent, error)
	GetIntent(ctx context.Context, ref string) (*PaymentIntent, error)
	CancelIntent(ctx context.Context, ref string) error
	// ParseEvent verifies a webhook payload and returns the intent it reports on.
	ParseEvent(payload []byte, signature string) (*PaymentIntent, error)
}

// MediaStorage is the object store holding user photos.
type MediaStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
	KeyFromURL(url string) (string, bool)
}

// ProfileCache mirrors profile documents close to the service.
type ProfileCache interface {
	Get(ctx context.Context, id string) (*models.User, bool)
	Set(ctx context.Context, user *models.User)
	Invalidate(ctx context.Context, id string)
}

// Broadcaster pushes live events to connected clients.
type Broadcaster interface {
	ToChat(chatID, event string, payload interface{})
	ToUser(userID, event string, payload interface{})
}

// Clock returns the current time. A nil Clock uses time.Now.
type Clock func() time.Time

func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c()
}

// Live event names
const (
	EventNewMessage   = "newMessage"
	EventMessagesRead = "messagesRead"
	EventMatchCreated = "matchCreated"
	EventIncomingCall = "incomingCall"
	EventCallUpdated  = "callUpdated"
	EventNotification = "notification"
	EventTyping       = "typing"
)
