package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/tms/internal/tms/service"
	"github.com/aussiebroadwan/tms/pkg/authsdk"
	"github.com/aussiebroadwan/tms/pkg/slogx"
)

// writeError maps a service error onto its API error. Anything unclassified
// is logged and reported as a server error without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var refreshErr *service.RefreshTokenError

	switch {
	case errors.As(err, &refreshErr):
		authsdk.ErrRefreshTokenInvalid.WithDescription(refreshErr.Error()).WriteError(w)
	case errors.Is(err, service.ErrRefreshTokenNotFound), errors.Is(err, service.ErrRefreshTokenExpired):
		authsdk.ErrRefreshTokenInvalid.WithDescription(err.Error()).WriteError(w)
	case errors.Is(err, service.ErrAccessDenied):
		authsdk.ErrAccessDenied.WriteError(w)
	case errors.Is(err, service.ErrEntityNotFound):
		authsdk.ErrEntityNotFound.WithDescription(err.Error()).WriteError(w)
	case errors.Is(err, service.ErrAuthenticationFailed):
		authsdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrAlreadyExists):
		authsdk.ErrAlreadyExists.WithDescription(err.Error()).WriteError(w)
	case errors.Is(err, service.ErrInvalidRequest):
		authsdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}

func badRequest(w http.ResponseWriter, desc string) {
	authsdk.ErrInvalidRequest.WithDescription(desc).WriteError(w)
}
