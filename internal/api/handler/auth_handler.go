package handler

import (
	"net/http"

	"quizmaster/internal/api/middleware"
	"quizmaster/internal/app/service"
	"quizmaster/internal/common"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterPublicRoutes mounts the endpoints reachable without a token.
func (h *AuthHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/register", h.register)
}

// RegisterRoutes mounts account endpoints; r must already authenticate.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireRoles(readRoles...)).Post("/delete_account", h.deleteAccount)

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.AdminOnly)
		admin.Post("/user_activation", h.toggleActivation)
		admin.Get("/user", h.listUsers)
	})
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusCreated, "User created successfully", user.ID)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.UserFromContext(r.Context())
	var req service.CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.authService.DeleteAccount(r.Context(), caller, req); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Account deleted successfully", 0)
}

func (h *AuthHandler) toggleActivation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID int64 `json:"id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.authService.ToggleActivation(r.Context(), req.ID)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	message := "User deactivated"
	if user.Active {
		message = "User activated"
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": message,
		"id":      user.ID,
		"active":  user.Active,
	})
}

func (h *AuthHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers(r.Context())
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, users)
}
