package controllers

import (
	"net/http"

	"amora_server/middleware"
	"amora_server/services"
)

// AuthController handles account requests
type AuthController struct {
	AuthService *services.AuthService
}

func NewAuthController(authService *services.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

func (c *AuthController) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}
	session, err := c.AuthService.SignUp(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, "Account created successfully", session)
}

func (c *AuthController) SignIn(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}
	session, err := c.AuthService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "Signed in successfully", session)
}

func (c *AuthController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := c.AuthService.ResetPassword(r.Context(), req.Email); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "If the address is registered, a reset link has been sent", nil)
}

func (c *AuthController) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := c.AuthService.DeleteAccount(r.Context(), middleware.UserIDFrom(r.Context())); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "Account deleted successfully", nil)
}
