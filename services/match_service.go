package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"amora_server/metrics"
	"amora_server/models"
	"amora_server/store"
	"amora_server/utils"
)

// PremiumChecker reports whether a user holds an active subscription.
type PremiumChecker interface {
	IsPremium(ctx context.Context, userID string) (bool, error)
}

// LikesReceived is the "who liked me" view. Profiles are only filled for
// premium users; everyone sees the count.
type LikesReceived struct {
	Count    int                    `json:"count"`
	Profiles []models.PublicProfile `json:"profiles,omitempty"`
	Locked   bool                   `json:"locked"`
}

// MatchService records likes, skips and blocks and turns mutual likes into
// matches with a chat.
type MatchService struct {
	Store         store.DocumentStore
	Profiles      *UserProfileService
	Premium       PremiumChecker
	Notifications *NotificationService
	Broadcast     Broadcaster
	Clock         Clock
}

func NewMatchService(s store.DocumentStore, profiles *UserProfileService, premium PremiumChecker, notifications *NotificationService, broadcast Broadcaster, clock Clock) *MatchService {
	if broadcast == nil {
		broadcast = NoopBroadcaster{}
	}
	return &MatchService{
		Store:         s,
		Profiles:      profiles,
		Premium:       premium,
		Notifications: notifications,
		Broadcast:     broadcast,
		Clock:         clock,
	}
}

// GetInteraction returns from's latest interaction with to, or nil.
func (s *MatchService) GetInteraction(ctx context.Context, from, to string) (*models.Interaction, error) {
	var in models.Interaction
	if err := s.Store.Get(ctx, models.InteractionsTable, models.InteractionID(from, to), &in); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch interaction: %w", err)
	}
	return &in, nil
}

// GetMatch reads a match by id.
func (s *MatchService) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	var m models.Match
	if err := s.Store.Get(ctx, models.MatchesTable, matchID, &m); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("match %s: %w", matchID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch match: %w", err)
	}
	return &m, nil
}

func (s *MatchService) record(ctx context.Context, from, to, kind string) error {
	in := &models.Interaction{
		ID:         models.InteractionID(from, to),
		FromUserID: from,
		ToUserID:   to,
		Type:       kind,
		CreatedAt:  s.Clock.Now(),
	}
	if err := s.Store.Put(ctx, models.InteractionsTable, in.ID, in); err != nil {
		return fmt.Errorf("failed to record %s: %w", kind, err)
	}
	return nil
}

func (s *MatchService) blockedEitherWay(ctx context.Context, a, b string) (bool, error) {
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		in, err := s.GetInteraction(ctx, pair[0], pair[1])
		if err != nil {
			return false, err
		}
		if in != nil && in.Type == models.InteractionTypeBlock {
			return true, nil
		}
	}
	return false, nil
}

func (s *MatchService) checkTarget(ctx context.Context, from, to string) (*models.User, error) {
	if from == "" || to == "" || from == to {
		return nil, fmt.Errorf("%w: invalid target user", ErrInvalidInput)
	}
	target, err := s.Profiles.GetProfile(ctx, to)
	if err != nil {
		return nil, err
	}
	return target, nil
}

// Like records that from likes to. When to already liked from, a match with
// its chat is created and returned; otherwise the result is nil.
func (s *MatchService) Like(ctx context.Context, from, to string, super bool) (*models.Match, error) {
	target, err := s.checkTarget(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if target.IsAI {
		return nil, fmt.Errorf("%w: start a conversation with AI profiles instead", ErrInvalidInput)
	}
	blocked, err := s.blockedEitherWay(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrForbidden
	}

	kind := models.InteractionTypeLike
	if super {
		premium, err := s.Premium.IsPremium(ctx, from)
		if err != nil {
			return nil, err
		}
		if !premium {
			return nil, ErrPaymentRequired
		}
		kind = models.InteractionTypeSuperLike
	}

	existing, err := s.existingMatch(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !existing.IsActive() {
			return nil, fmt.Errorf("%w: the match with this user has ended", ErrForbidden)
		}
		return existing, nil
	}

	if err := s.record(ctx, from, to, kind); err != nil {
		return nil, err
	}

	reverse, err := s.GetInteraction(ctx, to, from)
	if err != nil {
		return nil, err
	}
	if reverse != nil && reverse.IsLike() {
		return s.CreateMatch(ctx, from, to, []string{from, to})
	}

	liker, err := s.Profiles.GetProfile(ctx, from)
	if err != nil {
		log.Warnf("like recorded but liker profile unavailable: %v", err)
		return nil, nil
	}
	title, body := "New like", "Someone liked your profile"
	if super {
		title, body = "Super like!", liker.Name+" super liked you"
	}
	if _, err := s.Notifications.Notify(ctx, to, models.NotificationTypeLike, title, body, map[string]string{"kind": kind}); err != nil {
		log.Warnf("failed to notify %s of like: %v", to, err)
	}
	return nil, nil
}

// existingMatch returns the match document of the pair in any status, or nil.
func (s *MatchService) existingMatch(ctx context.Context, a, b string) (*models.Match, error) {
	var m models.Match
	err := s.Store.Get(ctx, models.MatchesTable, models.MatchID(a, b), &m)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch match: %w", err)
	}
	return &m, nil
}

// CreateMatch writes a match between a and b together with its chat and
// tells both users about it. Both ids derive from the pair, so concurrent
// mutual likes settle on one match and one chat; the loser gets the stored
// match back without a second round of notifications.
func (s *MatchService) CreateMatch(ctx context.Context, a, b string, likedBy []string) (*models.Match, error) {
	now := s.Clock.Now()
	matchID := models.MatchID(a, b)
	chat := &models.Chat{
		ID:           models.ChatIDFor(matchID),
		MatchID:      matchID,
		Participants: []string{a, b},
		CreatedAt:    now,
	}
	if err := s.Store.Create(ctx, models.ChatsTable, chat.ID, chat); err != nil && !errors.Is(err, store.ErrAlreadyExists) {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	match := &models.Match{
		ID:        matchID,
		Users:     []string{a, b},
		ChatID:    chat.ID,
		Status:    models.MatchStatusActive,
		LikedBy:   likedBy,
		CreatedAt: now,
	}
	if err := s.Store.Create(ctx, models.MatchesTable, match.ID, match); err != nil {
		if !errors.Is(err, store.ErrAlreadyExists) {
			return nil, fmt.Errorf("failed to create match: %w", err)
		}
		existing, err := s.existingMatch(ctx, a, b)
		if err != nil {
			return nil, err
		}
		if existing == nil || !existing.IsActive() {
			return nil, fmt.Errorf("%w: the match with this user has ended", ErrConflict)
		}
		return existing, nil
	}
	metrics.MatchCreated()
	log.WithFields(log.Fields{"match": match.ID, "chat": chat.ID}).Info("match created")

	for _, u := range match.Users {
		s.Broadcast.ToUser(u, EventMatchCreated, match)
		other, err := s.Profiles.GetProfile(ctx, match.OtherUser(u))
		name := "someone"
		if err == nil && other.Name != "" {
			name = other.Name
		}
		if _, err := s.Notifications.Notify(ctx, u, models.NotificationTypeMatch, "It's a match!",
			"You and "+name+" liked each other", map[string]string{"matchId": match.ID, "chatId": chat.ID}); err != nil {
			log.Warnf("failed to notify %s of match: %v", u, err)
		}
	}
	return match, nil
}

// Skip records that from passed on to.
func (s *MatchService) Skip(ctx context.Context, from, to string) error {
	if _, err := s.checkTarget(ctx, from, to); err != nil {
		return err
	}
	return s.record(ctx, from, to, models.InteractionTypeSkip)
}

// Block records a block and undoes any match between the two users.
func (s *MatchService) Block(ctx context.Context, from, to string) error {
	if from == "" || to == "" || from == to {
		return fmt.Errorf("%w: invalid target user", ErrInvalidInput)
	}
	if err := s.record(ctx, from, to, models.InteractionTypeBlock); err != nil {
		return err
	}
	m, err := s.existingMatch(ctx, from, to)
	if err != nil {
		return err
	}
	if m != nil && m.IsActive() {
		return s.setStatus(ctx, m.ID, models.MatchStatusUnmatched)
	}
	return nil
}

// Unmatch undoes a match the user belongs to.
func (s *MatchService) Unmatch(ctx context.Context, userID, matchID string) error {
	m, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if !m.Includes(userID) {
		return ErrForbidden
	}
	return s.setStatus(ctx, matchID, models.MatchStatusUnmatched)
}

func (s *MatchService) setStatus(ctx context.Context, matchID, status string) error {
	if err := s.Store.Update(ctx, models.MatchesTable, matchID, map[string]interface{}{"status": status}); err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}
	return nil
}

// ListMatches returns the user's active matches with the other member's
// profile and the chat's latest message, most recent activity first.
func (s *MatchService) ListMatches(ctx context.Context, userID string) ([]models.MatchWithProfile, error) {
	var matches []models.Match
	if err := s.Store.Query(ctx, models.MatchesTable, []store.Filter{
		store.Contains("users", userID),
		store.Eq("status", models.MatchStatusActive),
	}, &matches); err != nil {
		return nil, fmt.Errorf("failed to fetch matches: %w", err)
	}

	now := s.Clock.Now()
	me, err := s.Profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		item     models.MatchWithProfile
		activity int64
	}
	var rows []ranked
	for _, m := range matches {
		other, err := s.Profiles.GetProfile(ctx, m.OtherUser(userID))
		if err != nil {
			log.Warnf("skipping match %s: %v", m.ID, err)
			continue
		}
		if km, ok := me.DistanceTo(other); ok {
			other.DistanceKm = utils.RoundTo(km, 2)
		}
		item := models.MatchWithProfile{Match: m, Profile: other.Public(now)}
		activity := m.CreatedAt.UnixNano()

		var chat models.Chat
		if err := s.Store.Get(ctx, models.ChatsTable, m.ChatID, &chat); err == nil {
			item.LastMessage = chat.LastMessage
			item.IsUnread = chat.IsUnreadFor(userID)
			if !chat.LastMessageAt.IsZero() {
				item.LastMessageAt = utils.FormatChatTime(chat.LastMessageAt, now)
				activity = chat.LastMessageAt.UnixNano()
			}
		} else {
			log.Warnf("failed to fetch chat for match %s: %v", m.ID, err)
		}
		rows = append(rows, ranked{item: item, activity: activity})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].activity > rows[j].activity })
	out := make([]models.MatchWithProfile, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.item)
	}
	return out, nil
}

// LikesReceived lists users who liked userID and are still pending a
// response from them.
func (s *MatchService) LikesReceived(ctx context.Context, userID string) (*LikesReceived, error) {
	var received []models.Interaction
	if err := s.Store.Query(ctx, models.InteractionsTable, []store.Filter{store.Eq("toUserId", userID)}, &received); err != nil {
		return nil, fmt.Errorf("failed to fetch likes: %w", err)
	}
	var sent []models.Interaction
	if err := s.Store.Query(ctx, models.InteractionsTable, []store.Filter{store.Eq("fromUserId", userID)}, &sent); err != nil {
		return nil, fmt.Errorf("failed to fetch interactions: %w", err)
	}
	answered := make(map[string]struct{}, len(sent))
	for _, in := range sent {
		answered[in.ToUserID] = struct{}{}
	}

	var pending []models.Interaction
	for _, in := range received {
		if !in.IsLike() {
			continue
		}
		if _, ok := answered[in.FromUserID]; ok {
			continue
		}
		pending = append(pending, in)
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.After(pending[j].CreatedAt) })

	result := &LikesReceived{Count: len(pending)}
	premium, err := s.Premium.IsPremium(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !premium {
		result.Locked = true
		return result, nil
	}

	now := s.Clock.Now()
	for _, in := range pending {
		p, err := s.Profiles.GetProfile(ctx, in.FromUserID)
		if err != nil {
			continue
		}
		result.Profiles = append(result.Profiles, p.Public(now))
	}
	return result, nil
}
