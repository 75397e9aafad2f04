package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/inkwell-be/internal/api/response"
	"github.com/isdelr/inkwell-be/internal/auth"
	"github.com/isdelr/inkwell-be/internal/services"
)

// UserHandler handles HTTP requests for user management.
type UserHandler struct {
	service       services.UserServiceProvider
	secureCookies bool
}

// NewUserHandler creates a new UserHandler. secureCookies marks the token cookie Secure.
func NewUserHandler(service services.UserServiceProvider, secureCookies bool) *UserHandler {
	return &UserHandler{service: service, secureCookies: secureCookies}
}

func (h *UserHandler) setTokenCookie(w http.ResponseWriter, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    value,
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := response.Decode(r, &input); err != nil {
		response.Error(w, r, err)
		return
	}

	user, err := h.service.Register(r.Context(), input)
	if err != nil {
		log.Warn().Err(err).Str("username", input.Username).Msg("Failed to register user")
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, "User registered successfully.", user)
}

// Login handles user authentication and token issuance.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if err := response.Decode(r, &input); err != nil {
		response.Error(w, r, err)
		return
	}

	result, err := h.service.Login(r.Context(), input)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	h.setTokenCookie(w, result.Token, result.ExpiresAt)
	response.JSON(w, http.StatusOK, "Login successful.", result)
}

// Logout revokes the token the request was authenticated with.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), auth.TokenFromRequest(r)); err != nil {
		response.Error(w, r, err)
		return
	}
	h.setTokenCookie(w, "", time.Unix(0, 0))
	response.JSON(w, http.StatusOK, "Logged out successfully.", nil)
}

// Profile returns the currently authenticated user.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Profile(r.Context(), principal(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "Profile retrieved successfully.", user)
}

// UpdateProfile changes the currently authenticated user's account.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var input services.UpdateProfileInput
	if err := response.Decode(r, &input); err != nil {
		response.Error(w, r, err)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), principal(r), input)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "Profile updated successfully.", user)
}

// GetAll lists users. Admin only.
func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	page, err := h.service.ListAll(r.Context(), principal(r), req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "Users retrieved successfully.", page)
}

// Get handles retrieving a user by their ID. Admin only.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.service.GetByID(r.Context(), principal(r), id)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "User retrieved successfully.", user)
}

// Delete handles the permanent deletion of a user account. Admin only.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteByID(r.Context(), principal(r), id); err != nil {
		log.Warn().Err(err).Str("user_id", id).Msg("Failed to delete user")
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "User deleted successfully.", nil)
}
