package controllers

import (
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"amora_server/middleware"
	"amora_server/services"
)

// maxPhotoBytes bounds multipart photo uploads.
const maxPhotoBytes = 10 << 20

// UserProfileController handles requests related to user profiles
type UserProfileController struct {
	UserProfileService *services.UserProfileService
}

// NewUserProfileController creates a new instance of UserProfileController
func NewUserProfileController(userProfileService *services.UserProfileService) *UserProfileController {
	return &UserProfileController{UserProfileService: userProfileService}
}

func (c *UserProfileController) GetMe(w http.ResponseWriter, r *http.Request) {
	profile, err := c.UserProfileService.GetProfile(r.Context(), middleware.UserIDFrom(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", profile)
}

// GetUserProfileByID returns another user's profile with the distance to
// the caller.
func (c *UserProfileController) GetUserProfileByID(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	profile, err := c.UserProfileService.GetProfileWithDistance(r.Context(), userID, middleware.UserIDFrom(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", profile)
}

// UpdateUserProfile applies a partial update to the caller's profile
func (c *UserProfileController) UpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	var patch services.ProfilePatch
	if !decode(w, r, &patch) {
		return
	}
	updated, err := c.UserProfileService.UpdateProfile(r.Context(), middleware.UserIDFrom(r.Context()), patch)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "Profile updated successfully", updated)
}

func (c *UserProfileController) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		badRequest(w, "latitude and longitude are required")
		return
	}
	updated, err := c.UserProfileService.UpdateLocation(r.Context(), middleware.UserIDFrom(r.Context()), *req.Latitude, *req.Longitude)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "Location updated", updated)
}

// UploadPhoto accepts a multipart form with a "photo" file field.
func (c *UserProfileController) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes)
	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		badRequest(w, "Photo is too large or the form is invalid")
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		badRequest(w, "photo file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	updated, err := c.UserProfileService.UploadPhoto(r.Context(), middleware.UserIDFrom(r.Context()), header.Filename, contentType, file)
	if err != nil {
		respondError(w, err)
		return
	}
	log.Debugf("photo %s uploaded for %s", header.Filename, updated.ID)
	respond(w, http.StatusCreated, "Photo uploaded", updated)
}

func (c *UserProfileController) RemovePhoto(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if !decode(w, r, &req) {
		return
	}
	updated, err := c.UserProfileService.RemovePhoto(r.Context(), middleware.UserIDFrom(r.Context()), req.URL)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "Photo removed", updated)
}

// GeneratePresignedURL returns an upload URL for direct-to-bucket uploads
func (c *UserProfileController) GeneratePresignedURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileName string `json:"fileName"`
		FileType string `json:"fileType"`
	}
	if !decode(w, r, &req) {
		return
	}
	url, key, err := c.UserProfileService.PresignUpload(r.Context(), middleware.UserIDFrom(r.Context()), req.FileName, req.FileType)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", map[string]string{"uploadUrl": url, "key": key})
}
