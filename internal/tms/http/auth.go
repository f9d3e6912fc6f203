package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tms/internal/tms/domain"
	"github.com/aussiebroadwan/tms/internal/tms/metrics"
	"github.com/aussiebroadwan/tms/internal/tms/security"
	"github.com/aussiebroadwan/tms/internal/tms/service"
	"github.com/aussiebroadwan/tms/pkg/authsdk"
	"github.com/aussiebroadwan/tms/pkg/httpx"
	"github.com/aussiebroadwan/tms/pkg/slogx"
)

type AuthHandler struct {
	SessionService *service.SessionService
	UserService    *service.UserService
	Metrics        *metrics.Metrics
}

// HandleSignin godoc
//
//	@Summary		Sign in
//	@Description	Authenticates by username or email and opens a session.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SigninRequest	true	"identifier and password"
//	@Success		200		{object}	authsdk.SigninResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"malformed body"
//	@Failure		401		{object}	authsdk.ErrorResponse	"bad credentials"
//	@Failure		429		{object}	authsdk.ErrorResponse	"rate limited"
//	@Router			/api/auth/signin [post].
func (h *AuthHandler) HandleSignin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SigninRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	session, err := h.SessionService.Login(r.Context(), req.Identifier, req.Password)
	h.Metrics.Signin(err == nil)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.SigninResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ID:           session.UserID,
		Username:     session.Username,
		Roles:        domain.RoleStrings(session.Roles),
		ExpiresIn:    int(session.ExpiresIn.Seconds()),
	})
}

// HandleRefresh godoc
//
//	@Summary		Refresh tokens
//	@Description	Exchanges a live refresh token for a new access token and refresh token.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RefreshTokenRequest	true	"refresh token"
//	@Success		200		{object}	authsdk.RefreshTokenResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"malformed body"
//	@Failure		403		{object}	authsdk.ErrorResponse	"unknown or expired refresh token"
//	@Router			/api/auth/refresh-token [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshTokenRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		badRequest(w, "refreshToken is required")
		return
	}

	pair, err := h.SessionService.Refresh(r.Context(), req.RefreshToken)
	h.Metrics.Refresh(refreshResult(err))
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.RefreshTokenResponse{
		RefreshToken: pair.RefreshToken,
		AccessToken:  pair.AccessToken,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
	})
}

func refreshResult(err error) string {
	switch {
	case err == nil:
		return metrics.RefreshIssued
	case errors.Is(err, service.ErrRefreshTokenExpired):
		return metrics.RefreshExpired
	case errors.Is(err, service.ErrRefreshTokenNotFound):
		return metrics.RefreshNotFound
	default:
		return metrics.RefreshError
	}
}

// HandleLogout godoc
//
//	@Summary		Log out
//	@Description	Deletes every refresh token of the current user. Access tokens already issued stop being accepted.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MessageResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"not authenticated"
//	@Router			/api/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	principal, ok := security.PrincipalFrom(r.Context())
	if !ok {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	if err := h.SessionService.Logout(r.Context(), principal.UserID); err != nil {
		writeError(w, r, err)
		return
	}

	slogx.FromContext(r.Context()).Info("user logged out", "user_id", principal.UserID)
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "Log out successful!"})
}

// HandleRegister godoc
//
//	@Summary		Register
//	@Description	Creates a ROLE_USER account.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest	true	"username, email, password"
//	@Success		201		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"validation failed"
//	@Failure		409		{object}	authsdk.ErrorResponse	"username or email taken"
//	@Router			/api/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	if _, err := h.UserService.Register(r.Context(), req.Username, req.Email, req.Password); err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.MessageResponse{Message: "User registered successfully!"})
}
