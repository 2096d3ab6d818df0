package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"amora_server/middleware"
	"amora_server/services"
)

// AIController exposes the bot personas
type AIController struct {
	AIProfileService *services.AIProfileService
}

func NewAIController(aiProfileService *services.AIProfileService) *AIController {
	return &AIController{AIProfileService: aiProfileService}
}

func (c *AIController) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := c.AIProfileService.ListAIProfiles(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", profiles)
}

func (c *AIController) CreateProfile(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	var req services.NewAIProfile
	if !decode(w, r, &req) {
		return
	}
	created, err := c.AIProfileService.CreateAIProfile(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, "AI profile created", created)
}

func (c *AIController) StartChat(w http.ResponseWriter, r *http.Request) {
	chat, err := c.AIProfileService.StartAIChat(r.Context(), middleware.UserIDFrom(r.Context()), mux.Vars(r)["aiId"])
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", chat)
}
