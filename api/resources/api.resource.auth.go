package resources

import (
	"net/http"

	"github.com/itsatony/sensorhub/internal/hubservice"
)

// AuthHandlers encapsulates the account and session HTTP handlers
type AuthHandlers struct {
	hubservice *hubservice.HubService
}

// RefreshRequest is the body of a token refresh
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse carries the newly issued access token
type RefreshResponse struct {
	Access string `json:"access"`
}

// @Summary Register a user
// @Description Create an account and open a session for it
// @Tags auth
// @Accept json
// @Produce json
// @Param user body hubservice.RegisterInput true "Account details"
// @Success 201 {object} models.Session
// @Failure 400 {object} errors.APIError
// @Router /auth/register [post]
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var in hubservice.RegisterInput
	if apiErr := decodeBody(w, r, &in); apiErr != nil {
		respondWithError(w, r, apiErr)
		return
	}

	session, err := h.hubservice.Register(r.Context(), in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, session)
}

// @Summary Obtain a token pair
// @Description Log in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body hubservice.LoginInput true "Credentials"
// @Success 200 {object} models.Session
// @Failure 401 {object} errors.APIError
// @Router /auth/token [post]
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var in hubservice.LoginInput
	if apiErr := decodeBody(w, r, &in); apiErr != nil {
		respondWithError(w, r, apiErr)
		return
	}

	session, err := h.hubservice.Login(r.Context(), in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, session)
}

// @Summary Refresh the access token
// @Tags auth
// @Accept json
// @Produce json
// @Param refresh body RefreshRequest true "Refresh token"
// @Success 200 {object} RefreshResponse
// @Failure 401 {object} errors.APIError
// @Router /auth/refresh [post]
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var in RefreshRequest
	if apiErr := decodeBody(w, r, &in); apiErr != nil {
		respondWithError(w, r, apiErr)
		return
	}

	access, err := h.hubservice.Refresh(r.Context(), in.Refresh)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, RefreshResponse{Access: access})
}

// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} errors.APIError
// @Router /auth/me [get]
// @Security BearerAuth
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	user, apiErr := currentUser(r)
	if apiErr != nil {
		respondWithError(w, r, apiErr)
		return
	}

	profile, err := h.hubservice.CurrentUser(r.Context(), user)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}
