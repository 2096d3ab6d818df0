package controllers

import (
	"net/http"
	"strconv"

	"amora_server/middleware"
	"amora_server/services"
)

// DiscoveryController serves the swipe deck and swipe actions
type DiscoveryController struct {
	DiscoveryService *services.DiscoveryService
	MatchService     *services.MatchService
}

func NewDiscoveryController(discoveryService *services.DiscoveryService, matchService *services.MatchService) *DiscoveryController {
	return &DiscoveryController{DiscoveryService: discoveryService, MatchService: matchService}
}

// parseFilter reads minAge, maxAge, maxDistance and gender from the query.
func parseFilter(r *http.Request) (services.DiscoveryFilter, error) {
	q := r.URL.Query()
	var f services.DiscoveryFilter
	var err error
	if v := q.Get("minAge"); v != "" {
		if f.MinAge, err = strconv.Atoi(v); err != nil {
			return f, err
		}
	}
	if v := q.Get("maxAge"); v != "" {
		if f.MaxAge, err = strconv.Atoi(v); err != nil {
			return f, err
		}
	}
	if v := q.Get("maxDistance"); v != "" {
		if f.MaxDistanceKm, err = strconv.ParseFloat(v, 64); err != nil {
			return f, err
		}
	}
	f.Gender = q.Get("gender")
	return f, nil
}

func (c *DiscoveryController) Discover(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		badRequest(w, "minAge, maxAge and maxDistance must be numbers")
		return
	}
	profiles, err := c.DiscoveryService.Discover(r.Context(), middleware.UserIDFrom(r.Context()), filter)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", profiles)
}

type targetRequest struct {
	TargetUserID string `json:"targetUserId"`
}

func (c *DiscoveryController) like(w http.ResponseWriter, r *http.Request, super bool) {
	var req targetRequest
	if !decode(w, r, &req) {
		return
	}
	match, err := c.MatchService.Like(r.Context(), middleware.UserIDFrom(r.Context()), req.TargetUserID, super)
	if err != nil {
		respondError(w, err)
		return
	}
	if match != nil {
		respond(w, http.StatusOK, "It's a match!", map[string]interface{}{"matched": true, "match": match})
		return
	}
	respond(w, http.StatusOK, "Like recorded", map[string]interface{}{"matched": false})
}

func (c *DiscoveryController) Like(w http.ResponseWriter, r *http.Request) {
	c.like(w, r, false)
}

func (c *DiscoveryController) SuperLike(w http.ResponseWriter, r *http.Request) {
	c.like(w, r, true)
}

func (c *DiscoveryController) Skip(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if !decode(w, r, &req) {
		return
	}
	if err := c.MatchService.Skip(r.Context(), middleware.UserIDFrom(r.Context()), req.TargetUserID); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "Skipped", nil)
}

func (c *DiscoveryController) Block(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if !decode(w, r, &req) {
		return
	}
	if err := c.MatchService.Block(r.Context(), middleware.UserIDFrom(r.Context()), req.TargetUserID); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "User blocked", nil)
}
