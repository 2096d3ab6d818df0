package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"amora_server/middleware"
	"amora_server/services"
)

// MatchController handles match listing and unmatching
type MatchController struct {
	MatchService *services.MatchService
}

func NewMatchController(matchService *services.MatchService) *MatchController {
	return &MatchController{MatchService: matchService}
}

func (c *MatchController) GetMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := c.MatchService.ListMatches(r.Context(), middleware.UserIDFrom(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", matches)
}

func (c *MatchController) GetLikesReceived(w http.ResponseWriter, r *http.Request) {
	likes, err := c.MatchService.LikesReceived(r.Context(), middleware.UserIDFrom(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", likes)
}

func (c *MatchController) Unmatch(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["matchId"]
	if err := c.MatchService.Unmatch(r.Context(), middleware.UserIDFrom(r.Context()), matchID); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "Unmatched", nil)
}
