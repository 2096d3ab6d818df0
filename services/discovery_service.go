package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"amora_server/models"
	"amora_server/store"
	"amora_server/utils"
)

// DefaultPageSize is the number of candidates returned per discovery request
const DefaultPageSize = 20

// DiscoveryFilter narrows discovery candidates. Zero values mean defaults:
// MinAge 18, MaxAge the service default, no distance limit, and the viewer's
// own gender preference.
type DiscoveryFilter struct {
	MinAge        int
	MaxAge        int
	MaxDistanceKm float64
	Gender        string
}

// DiscoveryService finds profiles a user has not acted on yet.
type DiscoveryService struct {
	Store         store.DocumentStore
	Profiles      *UserProfileService
	Clock         Clock
	PageSize      int
	DefaultMaxAge int
}

func NewDiscoveryService(s store.DocumentStore, profiles *UserProfileService, clock Clock, pageSize, defaultMaxAge int) *DiscoveryService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if defaultMaxAge <= 0 {
		defaultMaxAge = 99
	}
	return &DiscoveryService{Store: s, Profiles: profiles, Clock: clock, PageSize: pageSize, DefaultMaxAge: defaultMaxAge}
}

// ExclusionSet returns the ids discovery must never show userID: the user,
// everyone they liked, skipped or blocked, everyone who blocked them, and
// everyone they have been matched with.
func (s *DiscoveryService) ExclusionSet(ctx context.Context, userID string) (map[string]struct{}, error) {
	var sent []models.Interaction
	if err := s.Store.Query(ctx, models.InteractionsTable, []store.Filter{store.Eq("fromUserId", userID)}, &sent); err != nil {
		return nil, fmt.Errorf("failed to fetch sent interactions: %w", err)
	}
	var blockedBy []models.Interaction
	if err := s.Store.Query(ctx, models.InteractionsTable, []store.Filter{
		store.Eq("toUserId", userID),
		store.Eq("type", models.InteractionTypeBlock),
	}, &blockedBy); err != nil {
		return nil, fmt.Errorf("failed to fetch blocks: %w", err)
	}
	var matches []models.Match
	if err := s.Store.Query(ctx, models.MatchesTable, []store.Filter{store.Contains("users", userID)}, &matches); err != nil {
		return nil, fmt.Errorf("failed to fetch matches: %w", err)
	}

	return BuildExclusionSet(userID, sent, blockedBy, matches), nil
}

// BuildExclusionSet is the union behind ExclusionSet.
func BuildExclusionSet(userID string, sent, blockedBy []models.Interaction, matches []models.Match) map[string]struct{} {
	excluded := map[string]struct{}{userID: {}}
	for _, in := range sent {
		excluded[in.ToUserID] = struct{}{}
	}
	for _, in := range blockedBy {
		if in.Type == models.InteractionTypeBlock {
			excluded[in.FromUserID] = struct{}{}
		}
	}
	for _, m := range matches {
		if other := m.OtherUser(userID); other != "" {
			excluded[other] = struct{}{}
		}
	}
	return excluded
}

// Discover returns up to one page of candidates for userID.
func (s *DiscoveryService) Discover(ctx context.Context, userID string, filter DiscoveryFilter) ([]models.User, error) {
	filter, err := s.normalize(filter)
	if err != nil {
		return nil, err
	}
	viewer, err := s.Profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	excluded, err := s.ExclusionSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	gender := filter.Gender
	if gender == "" {
		gender = viewer.InterestedIn
	}
	queryFilters := []store.Filter{store.Eq("isAI", false)}
	if gender != "" && gender != models.GenderEveryone {
		queryFilters = append(queryFilters, store.Eq("gender", gender))
	}
	candidates, err := s.Profiles.ListProfiles(ctx, queryFilters...)
	if err != nil {
		return nil, err
	}

	page := FilterCandidates(viewer, candidates, excluded, filter, s.Clock.Now(), s.PageSize)
	log.WithFields(log.Fields{
		"user":       userID,
		"candidates": len(candidates),
		"excluded":   len(excluded),
		"returned":   len(page),
	}).Debug("discovery page built")
	return page, nil
}

func (s *DiscoveryService) normalize(f DiscoveryFilter) (DiscoveryFilter, error) {
	if f.MinAge == 0 {
		f.MinAge = models.MinimumAge
	}
	if f.MaxAge == 0 {
		f.MaxAge = s.DefaultMaxAge
	}
	if f.MinAge < models.MinimumAge {
		f.MinAge = models.MinimumAge
	}
	if f.MinAge > f.MaxAge {
		return f, fmt.Errorf("%w: minAge must not exceed maxAge", ErrInvalidInput)
	}
	if f.MaxDistanceKm < 0 {
		return f, fmt.Errorf("%w: maxDistance must be positive", ErrInvalidInput)
	}
	return f, nil
}

// FilterCandidates drops excluded users, applies the age range and the
// optional distance limit, orders the rest and truncates to pageSize.
// Candidates get DistanceKm filled when both sides are located. With a
// distance limit, candidates without a location are dropped.
func FilterCandidates(viewer *models.User, candidates []models.User, excluded map[string]struct{}, f DiscoveryFilter, now time.Time, pageSize int) []models.User {
	out := make([]models.User, 0, len(candidates))
	for _, c := range candidates {
		if _, skip := excluded[c.ID]; skip || c.IsAI {
			continue
		}
		age := c.Age(now)
		if age < f.MinAge || age > f.MaxAge {
			continue
		}
		km, located := viewer.DistanceTo(&c)
		if f.MaxDistanceKm > 0 && (!located || km > f.MaxDistanceKm) {
			continue
		}
		c.DistanceKm = 0
		if located {
			c.DistanceKm = utils.RoundTo(km, 2)
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Located() != b.Located() {
			return a.Located()
		}
		if a.Located() && viewer.Located() && a.DistanceKm != b.DistanceKm {
			return a.DistanceKm < b.DistanceKm
		}
		return a.LastActive.After(b.LastActive)
	})

	if pageSize > 0 && len(out) > pageSize {
		out = out[:pageSize]
	}
	return out
}
