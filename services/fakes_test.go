package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"amora_server/models"
	"amora_server/store"
)

var testNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

// fixedClock returns a clock that can be moved forward by the test.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// ===== Broadcaster =====

type sentEvent struct {
	Room    string
	Event   string
	Payload interface{}
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []sentEvent
}

func (b *recordingBroadcaster) ToChat(chatID, event string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, sentEvent{Room: "chat:" + chatID, Event: event, Payload: payload})
}

func (b *recordingBroadcaster) ToUser(userID, event string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, sentEvent{Room: "user:" + userID, Event: event, Payload: payload})
}

func (b *recordingBroadcaster) count(room, event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.Room == room && e.Event == event {
			n++
		}
	}
	return n
}

// ===== Push =====

type fakePush struct {
	mu      sync.Mutex
	sent    []PushMessage
	tokens  [][]string
	invalid map[string]bool
	sendErr error
	topics  map[string][]string
}

func newFakePush() *fakePush {
	return &fakePush{invalid: map[string]bool{}, topics: map[string][]string{}}
}

func (p *fakePush) SendToTokens(_ context.Context, tokens []string, msg PushMessage) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return nil, p.sendErr
	}
	p.sent = append(p.sent, msg)
	p.tokens = append(p.tokens, tokens)
	var failed []string
	for _, t := range tokens {
		if p.invalid[t] {
			failed = append(failed, t)
		}
	}
	return failed, nil
}

func (p *fakePush) SubscribeToTopic(_ context.Context, tokens []string, topic string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics[topic] = append(p.topics[topic], tokens...)
	return nil
}

func (p *fakePush) UnsubscribeFromTopic(_ context.Context, tokens []string, topic string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.topics[topic][:0]
	for _, t := range p.topics[topic] {
		if !containsString(tokens, t) {
			kept = append(kept, t)
		}
	}
	p.topics[topic] = kept
	return nil
}

// ===== Payments =====

type fakePayments struct {
	mu        sync.Mutex
	next      int
	intents   map[string]*PaymentIntent
	cancelled []string
	event     *PaymentIntent
	eventErr  error
}

func newFakePayments() *fakePayments {
	return &fakePayments{intents: map[string]*PaymentIntent{}}
}

func (f *fakePayments) Name() string { return "fake" }

func (f *fakePayments) CreateIntent(_ context.Context, amountCents int64, currency string, _ map[string]string) (*PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	ref := fmt.Sprintf("pi_%d", f.next)
	in := &PaymentIntent{
		Ref:          ref,
		ClientSecret: ref + "_secret",
		Status:       models.PaymentStatusRequiresPayment,
		AmountCents:  amountCents,
		Currency:     currency,
	}
	f.intents[ref] = in
	copied := *in
	return &copied, nil
}

func (f *fakePayments) GetIntent(_ context.Context, ref string) (*PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	in, ok := f.intents[ref]
	if !ok {
		return nil, fmt.Errorf("no intent %s", ref)
	}
	copied := *in
	return &copied, nil
}

func (f *fakePayments) CancelIntent(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, ref)
	if in, ok := f.intents[ref]; ok {
		in.Status = models.PaymentStatusCancelled
	}
	return nil
}

func (f *fakePayments) ParseEvent(_ []byte, signature string) (*PaymentIntent, error) {
	if signature != "valid" {
		return nil, fmt.Errorf("bad signature")
	}
	return f.event, f.eventErr
}

func (f *fakePayments) setStatus(ref, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents[ref].Status = status
}

// ===== Media =====

type fakeMedia struct {
	objects map[string]string
	deleted []string
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{objects: map[string]string{}}
}

func (m *fakeMedia) Upload(_ context.Context, key, _ string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.objects[key] = string(data)
	return "https://media.test/" + key, nil
}

func (m *fakeMedia) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *fakeMedia) PresignUpload(_ context.Context, key, _ string) (string, error) {
	return "https://media.test/" + key + "?signed=1", nil
}

func (m *fakeMedia) KeyFromURL(url string) (string, bool) {
	key := strings.TrimPrefix(url, "https://media.test/")
	return key, key != url
}

// ===== Auth =====

type fakeAuth struct {
	mu      sync.Mutex
	users   map[string]fakeAccount // by email
	resets  []string
	deleted []string
}

type fakeAccount struct {
	uid      string
	password string
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{users: map[string]fakeAccount{}}
}

func (a *fakeAuth) CreateUser(_ context.Context, email, password, _ string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.users[email]; ok {
		return "", ErrConflict
	}
	uid := fmt.Sprintf("uid-%d", len(a.users)+1)
	a.users[email] = fakeAccount{uid: uid, password: password}
	return uid, nil
}

func (a *fakeAuth) SignInWithPassword(_ context.Context, email, password string) (*AuthSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.users[email]
	if !ok || acc.password != password {
		return nil, ErrUnauthenticated
	}
	return &AuthSession{UID: acc.uid, IDToken: "token-" + acc.uid, RefreshToken: "refresh", ExpiresIn: 3600}, nil
}

func (a *fakeAuth) VerifyIDToken(_ context.Context, idToken string) (*TokenClaims, error) {
	if !strings.HasPrefix(idToken, "token-") {
		return nil, ErrUnauthenticated
	}
	return &TokenClaims{UID: strings.TrimPrefix(idToken, "token-")}, nil
}

func (a *fakeAuth) SendPasswordReset(_ context.Context, email string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resets = append(a.resets, email)
	return nil
}

func (a *fakeAuth) DeleteUser(_ context.Context, uid string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deleted = append(a.deleted, uid)
	return nil
}

// ===== Premium =====

type premiumSet map[string]bool

func (p premiumSet) IsPremium(_ context.Context, userID string) (bool, error) {
	return p[userID], nil
}

// ===== Harness =====

type harness struct {
	store         *store.MemoryStore
	clock         *fixedClock
	broadcast     *recordingBroadcaster
	push          *fakePush
	payments      *fakePayments
	media         *fakeMedia
	auth          *fakeAuth
	premium       premiumSet
	profiles      *UserProfileService
	notifications *NotificationService
	matches       *MatchService
	chats         *ChatService
	ai            *AIProfileService
	offers        *OfferService
	subscriptions *SubscriptionService
	calls         *CallService
	accounts      *AuthService
	discovery     *DiscoveryService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:     store.NewMemoryStore(),
		clock:     &fixedClock{now: testNow},
		broadcast: &recordingBroadcaster{},
		push:      newFakePush(),
		payments:  newFakePayments(),
		media:     newFakeMedia(),
		auth:      newFakeAuth(),
		premium:   premiumSet{},
	}
	clock := Clock(h.clock.Now)
	h.profiles = NewUserProfileService(h.store, h.media, nil, clock)
	h.notifications = NewNotificationService(h.store, h.push, h.broadcast, clock)
	h.matches = NewMatchService(h.store, h.profiles, h.premium, h.notifications, h.broadcast, clock)
	h.chats = NewChatService(h.store, h.profiles, h.notifications, h.broadcast, clock)
	h.ai = NewAIProfileService(h.store, h.profiles, h.chats, clock)
	h.offers = NewOfferService(h.store, clock)
	h.subscriptions = NewSubscriptionService(h.store, h.offers, h.payments, h.notifications, clock)
	h.calls = NewCallService(h.store, h.chats, h.notifications, h.broadcast, clock, "test-secret", time.Hour)
	h.accounts = NewAuthService(h.auth, h.profiles, h.notifications, clock)
	h.discovery = NewDiscoveryService(h.store, h.profiles, clock, 10, 99)
	return h
}

// addUser stores a located adult profile.
func (h *harness) addUser(t *testing.T, id, name, gender string, age int, lat, lon float64) *models.User {
	t.Helper()
	u := &models.User{
		ID:           id,
		Name:         name,
		Gender:       gender,
		InterestedIn: models.GenderEveryone,
		BirthDate:    testNow.AddDate(-age, 0, -1),
		Latitude:     lat,
		Longitude:    lon,
		HasLocation:  true,
		LastActive:   testNow,
	}
	created, err := h.profiles.CreateProfile(context.Background(), u)
	require.NoError(t, err)
	return created
}

// matchUsers makes a and b like each other and returns the match.
func (h *harness) matchUsers(t *testing.T, a, b string) *models.Match {
	t.Helper()
	ctx := context.Background()
	_, err := h.matches.Like(ctx, a, b, false)
	require.NoError(t, err)
	m, err := h.matches.Like(ctx, b, a, false)
	require.NoError(t, err)
	require.NotNil(t, m)
	return m
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
