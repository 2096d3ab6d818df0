package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"amora_server/models"
	"amora_server/store"
	"amora_server/utils"
)

// MaxPhotos is the number of photos a profile can hold
const MaxPhotos = 6

// ProfilePatch carries the editable profile fields. Nil means unchanged.
type ProfilePatch struct {
	Name         *string   `json:"name,omitempty"`
	Bio          *string   `json:"bio,omitempty"`
	Gender       *string   `json:"gender,omitempty"`
	InterestedIn *string   `json:"interestedIn,omitempty"`
	BirthDate    *string   `json:"birthDate,omitempty"` // YYYY-MM-DD
	Interests    *[]string `json:"interests,omitempty"`
}

// UserProfileService is the profile repository: the Users table plus photo
// storage, fronted by the profile cache.
type UserProfileService struct {
	Store store.DocumentStore
	Media MediaStorage
	Cache ProfileCache
	Clock Clock
}

func NewUserProfileService(s store.DocumentStore, media MediaStorage, cache ProfileCache, clock Clock) *UserProfileService {
	if cache == nil {
		cache = NoopProfileCache{}
	}
	return &UserProfileService{Store: s, Media: media, Cache: cache, Clock: clock}
}

// CreateProfile writes a new profile document and mirrors it into the cache.
func (ups *UserProfileService) CreateProfile(ctx context.Context, user *models.User) (*models.User, error) {
	now := ups.Clock.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if err := ups.Store.Put(ctx, models.UsersTable, user.ID, user); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	ups.Cache.Set(ctx, user)
	return user, nil
}

// GetProfile reads a profile, cache first.
func (ups *UserProfileService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	if cached, ok := ups.Cache.Get(ctx, userID); ok {
		return cached, nil
	}
	var user models.User
	if err := ups.Store.Get(ctx, models.UsersTable, userID, &user); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("profile %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	ups.Cache.Set(ctx, &user)
	return &user, nil
}

// GetProfileWithDistance reads userID's profile and attaches the distance to
// viewerID, rounded to 2 decimals, when both have a location.
func (ups *UserProfileService) GetProfileWithDistance(ctx context.Context, userID, viewerID string) (*models.User, error) {
	profile, err := ups.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if viewerID == "" || viewerID == userID {
		return profile, nil
	}
	viewer, err := ups.GetProfile(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch viewer profile: %w", err)
	}
	withDistance := *profile
	if km, ok := viewer.DistanceTo(profile); ok {
		withDistance.DistanceKm = utils.RoundTo(km, 2)
	} else {
		log.Debugf("skipping distance between %s and %s: missing location", viewerID, userID)
	}
	return &withDistance, nil
}

// UpdateProfile applies a partial update.
func (ups *UserProfileService) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (*models.User, error) {
	user, err := ups.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	updated := *user

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		updated.Name = name
	}
	if patch.Bio != nil {
		updated.Bio = strings.TrimSpace(*patch.Bio)
	}
	if patch.Gender != nil {
		updated.Gender = strings.ToLower(strings.TrimSpace(*patch.Gender))
	}
	if patch.InterestedIn != nil {
		updated.InterestedIn = strings.ToLower(strings.TrimSpace(*patch.InterestedIn))
	}
	if patch.Interests != nil {
		updated.Interests = *patch.Interests
	}
	if patch.BirthDate != nil {
		birth, err := time.Parse("2006-01-02", *patch.BirthDate)
		if err != nil {
			return nil, fmt.Errorf("%w: birthDate must be YYYY-MM-DD", ErrInvalidInput)
		}
		if models.AgeAt(birth, ups.Clock.Now()) < models.MinimumAge {
			return nil, fmt.Errorf("%w: users must be at least %d", ErrInvalidInput, models.MinimumAge)
		}
		updated.BirthDate = birth
	}

	return ups.save(ctx, &updated)
}

// UpdateLocation stores the user's position.
func (ups *UserProfileService) UpdateLocation(ctx context.Context, userID string, lat, lon float64) (*models.User, error) {
	if !utils.ValidCoordinates(lat, lon) {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}
	user, err := ups.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	updated := *user
	updated.Latitude = lat
	updated.Longitude = lon
	updated.HasLocation = true
	return ups.save(ctx, &updated)
}

// Touch records activity without altering the profile otherwise.
func (ups *UserProfileService) Touch(ctx context.Context, userID string) {
	now := ups.Clock.Now()
	if err := ups.Store.Update(ctx, models.UsersTable, userID, map[string]interface{}{"lastActive": now}); err != nil {
		log.Debugf("failed to stamp lastActive for %s: %v", userID, err)
		return
	}
	ups.Cache.Invalidate(ctx, userID)
}

// UploadPhoto stores an image in object storage and appends its URL.
func (ups *UserProfileService) UploadPhoto(ctx context.Context, userID, fileName, contentType string, body io.Reader) (*models.User, error) {
	if ups.Media == nil {
		return nil, ErrVendorNotEnabled
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: only images can be uploaded", ErrInvalidInput)
	}
	user, err := ups.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.Photos) >= MaxPhotos {
		return nil, fmt.Errorf("%w: a profile holds at most %d photos", ErrInvalidInput, MaxPhotos)
	}

	url, err := ups.Media.Upload(ctx, ups.photoKey(userID, fileName), contentType, body)
	if err != nil {
		return nil, fmt.Errorf("failed to upload photo: %w", err)
	}
	updated := *user
	updated.Photos = append(append([]string{}, user.Photos...), url)
	return ups.save(ctx, &updated)
}

// RemovePhoto drops a photo URL from the profile and deletes the object.
func (ups *UserProfileService) RemovePhoto(ctx context.Context, userID, url string) (*models.User, error) {
	user, err := ups.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	kept := make([]string, 0, len(user.Photos))
	found := false
	for _, p := range user.Photos {
		if p == url {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return nil, fmt.Errorf("photo: %w", ErrNotFound)
	}

	if ups.Media != nil {
		if key, ok := ups.Media.KeyFromURL(url); ok {
			if err := ups.Media.Delete(ctx, key); err != nil {
				log.Warnf("failed to delete photo object %s: %v", key, err)
			}
		}
	}
	updated := *user
	updated.Photos = kept
	return ups.save(ctx, &updated)
}

// PresignUpload returns a short-lived URL the client can PUT a photo to,
// along with the object key to report back.
func (ups *UserProfileService) PresignUpload(ctx context.Context, userID, fileName, contentType string) (string, string, error) {
	if ups.Media == nil {
		return "", "", ErrVendorNotEnabled
	}
	if fileName == "" || contentType == "" {
		return "", "", fmt.Errorf("%w: fileName and fileType are required", ErrInvalidInput)
	}
	key := ups.photoKey(userID, fileName)
	url, err := ups.Media.PresignUpload(ctx, key, contentType)
	if err != nil {
		return "", "", fmt.Errorf("failed to presign upload: %w", err)
	}
	return url, key, nil
}

// DeleteProfile removes the profile document and its cache entry.
func (ups *UserProfileService) DeleteProfile(ctx context.Context, userID string) error {
	if err := ups.Store.Delete(ctx, models.UsersTable, userID); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	ups.Cache.Invalidate(ctx, userID)
	return nil
}

// ListProfiles returns every profile matching filters, bypassing the cache.
func (ups *UserProfileService) ListProfiles(ctx context.Context, filters ...store.Filter) ([]models.User, error) {
	var users []models.User
	if err := ups.Store.Query(ctx, models.UsersTable, filters, &users); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return users, nil
}

func (ups *UserProfileService) save(ctx context.Context, user *models.User) (*models.User, error) {
	user.UpdatedAt = ups.Clock.Now()
	if err := ups.Store.Put(ctx, models.UsersTable, user.ID, user); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	ups.Cache.Set(ctx, user)
	return user, nil
}

func (ups *UserProfileService) photoKey(userID, fileName string) string {
	return "profile-pics/" + userID + "/" + ups.Clock.Now().Format("20060102150405") + "-" + path.Base(fileName)
}
