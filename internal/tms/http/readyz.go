package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tms/pkg/authsdk"
	"github.com/aussiebroadwan/tms/pkg/httpx"
	"github.com/aussiebroadwan/tms/pkg/jwtx"
)

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

const readyzTimeout = 2 * time.Second

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Checks the database, the refresh token store and the token signer.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	db Pinger,
	refreshStore Pinger,
	signer jwtx.Signer,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyzTimeout)
		defer cancel()

		checks := &authsdk.HealthChecks{
			Database:     "ok",
			RefreshStore: "ok",
			Signer:       "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK
		fail := func(field *string, msg string) {
			*field = "error: " + msg
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if err := db.Ping(ctx); err != nil {
			fail(&checks.Database, err.Error())
		}

		if refreshStore != nil {
			if err := refreshStore.Ping(ctx); err != nil {
				fail(&checks.RefreshStore, err.Error())
			}
		}

		if signer == nil {
			fail(&checks.Signer, "no signer configured")
		} else if _, err := signer.Issue("readyz", time.Minute); err != nil {
			fail(&checks.Signer, err.Error())
		}

		httpx.WriteJSON(w, statusCode, authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
