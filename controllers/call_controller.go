package controllers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"amora_server/middleware"
	"amora_server/models"
	"amora_server/services"
)

// CallController handles call signalling
type CallController struct {
	CallService *services.CallService
}

func NewCallController(callService *services.CallService) *CallController {
	return &CallController{CallService: callService}
}

func (c *CallController) StartCall(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChatID string `json:"chatId"`
		Kind   string `json:"kind"`
	}
	if !decode(w, r, &req) {
		return
	}
	call, err := c.CallService.StartCall(r.Context(), middleware.UserIDFrom(r.Context()), req.ChatID, req.Kind)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, "Calling", call)
}

type callAction func(ctx context.Context, userID, callID string) (*models.Call, error)

func (c *CallController) handle(w http.ResponseWriter, r *http.Request, action callAction) {
	call, err := action(r.Context(), middleware.UserIDFrom(r.Context()), mux.Vars(r)["callId"])
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", map[string]interface{}{"call": call, "duration": call.DurationString()})
}

func (c *CallController) Answer(w http.ResponseWriter, r *http.Request) {
	c.handle(w, r, c.CallService.Answer)
}

func (c *CallController) Decline(w http.ResponseWriter, r *http.Request) {
	c.handle(w, r, c.CallService.Decline)
}

func (c *CallController) End(w http.ResponseWriter, r *http.Request) {
	c.handle(w, r, c.CallService.End)
}

func (c *CallController) History(w http.ResponseWriter, r *http.Request) {
	calls, err := c.CallService.History(r.Context(), middleware.UserIDFrom(r.Context()), mux.Vars(r)["chatId"])
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", calls)
}
