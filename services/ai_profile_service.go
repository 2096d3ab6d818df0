package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"amora_server/models"
	"amora_server/store"
)

// NewAIProfile is the input for creating a bot persona.
type NewAIProfile struct {
	Name      string   `json:"name"`
	Bio       string   `json:"bio"`
	Gender    string   `json:"gender"`
	Photos    []string `json:"photos"`
	Interests []string `json:"interests"`
	Persona   string   `json:"persona"`
	Greeting  string   `json:"greeting"`
	Replies   []string `json:"replies"`
}

// AIProfileWithUser pairs a persona with its public profile.
type AIProfileWithUser struct {
	models.AIProfile
	Profile models.PublicProfile `json:"profile"`
}

// AIProfileService manages the bot personas users can chat with.
type AIProfileService struct {
	Store    store.DocumentStore
	Profiles *UserProfileService
	Chats    *ChatService
	Clock    Clock
}

func NewAIProfileService(s store.DocumentStore, profiles *UserProfileService, chats *ChatService, clock Clock) *AIProfileService {
	return &AIProfileService{Store: s, Profiles: profiles, Chats: chats, Clock: clock}
}

// CreateAIProfile creates the persona and the User document that represents
// it in chats.
func (as *AIProfileService) CreateAIProfile(ctx context.Context, in NewAIProfile) (*AIProfileWithUser, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || strings.TrimSpace(in.Greeting) == "" {
		return nil, fmt.Errorf("%w: name and greeting are required", ErrInvalidInput)
	}
	now := as.Clock.Now()
	id := "ai_" + uuid.NewString()

	user := &models.User{
		ID:         id,
		Name:       name,
		Bio:        in.Bio,
		Gender:     strings.ToLower(in.Gender),
		Photos:     in.Photos,
		Interests:  in.Interests,
		IsAI:       true,
		LastActive: now,
	}
	if _, err := as.Profiles.CreateProfile(ctx, user); err != nil {
		return nil, err
	}

	persona := models.AIProfile{
		ID:        id,
		Persona:   in.Persona,
		Greeting:  in.Greeting,
		Replies:   in.Replies,
		CreatedAt: now,
	}
	if err := as.Store.Put(ctx, models.AIProfilesTable, id, persona); err != nil {
		return nil, fmt.Errorf("failed to store AI profile: %w", err)
	}
	log.WithField("id", id).Info("AI profile created")
	return &AIProfileWithUser{AIProfile: persona, Profile: user.Public(now)}, nil
}

// GetAIProfile returns one persona.
func (as *AIProfileService) GetAIProfile(ctx context.Context, id string) (*models.AIProfile, error) {
	var p models.AIProfile
	if err := as.Store.Get(ctx, models.AIProfilesTable, id, &p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("AI profile %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch AI profile: %w", err)
	}
	return &p, nil
}

// ListAIProfiles returns every persona with its profile, newest first.
func (as *AIProfileService) ListAIProfiles(ctx context.Context) ([]AIProfileWithUser, error) {
	var personas []models.AIProfile
	if err := as.Store.Query(ctx, models.AIProfilesTable, nil, &personas); err != nil {
		return nil, fmt.Errorf("failed to list AI profiles: %w", err)
	}
	sort.SliceStable(personas, func(i, j int) bool { return personas[i].CreatedAt.After(personas[j].CreatedAt) })

	now := as.Clock.Now()
	out := make([]AIProfileWithUser, 0, len(personas))
	for _, p := range personas {
		user, err := as.Profiles.GetProfile(ctx, p.ID)
		if err != nil {
			log.Warnf("AI profile %s has no user document: %v", p.ID, err)
			continue
		}
		out = append(out, AIProfileWithUser{AIProfile: p, Profile: user.Public(now)})
	}
	return out, nil
}

// StartAIChat opens (or reopens) a chat between userID and a bot. A new chat
// starts with the persona's greeting; a reopened one keeps its history.
func (as *AIProfileService) StartAIChat(ctx context.Context, userID, aiID string) (*models.Chat, error) {
	persona, err := as.GetAIProfile(ctx, aiID)
	if err != nil {
		return nil, err
	}

	matchID := models.MatchID(userID, aiID)
	var existing models.Match
	err = as.Store.Get(ctx, models.MatchesTable, matchID, &existing)
	switch {
	case err == nil && existing.IsActive():
		return as.Chats.GetChat(ctx, userID, existing.ChatID)
	case err == nil:
		if err := as.Store.Update(ctx, models.MatchesTable, matchID, map[string]interface{}{
			"status": models.MatchStatusActive,
		}); err != nil {
			return nil, fmt.Errorf("failed to reopen match: %w", err)
		}
		return as.Chats.GetChat(ctx, userID, existing.ChatID)
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("failed to fetch match: %w", err)
	}

	now := as.Clock.Now()
	chat := &models.Chat{
		ID:           models.ChatIDFor(matchID),
		MatchID:      matchID,
		Participants: []string{userID, aiID},
		CreatedAt:    now,
	}
	if err := as.Store.Create(ctx, models.ChatsTable, chat.ID, chat); err != nil && !errors.Is(err, store.ErrAlreadyExists) {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	match := &models.Match{
		ID:        matchID,
		Users:     []string{userID, aiID},
		ChatID:    chat.ID,
		Status:    models.MatchStatusActive,
		LikedBy:   []string{userID, aiID},
		CreatedAt: now,
	}
	if err := as.Store.Create(ctx, models.MatchesTable, match.ID, match); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return as.Chats.GetChat(ctx, userID, chat.ID)
		}
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	if _, err := as.Chats.postMessage(ctx, chat, aiID, persona.Greeting, "", true); err != nil {
		return nil, err
	}
	return chat, nil
}
