package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/tms/internal/tms/domain"
	"github.com/aussiebroadwan/tms/internal/tms/metrics"
	"github.com/aussiebroadwan/tms/internal/tms/security"
	"github.com/aussiebroadwan/tms/internal/tms/service"
	"github.com/aussiebroadwan/tms/internal/tms/store"
	"github.com/aussiebroadwan/tms/pkg/httpx"
	"github.com/aussiebroadwan/tms/pkg/jwtx"
	"github.com/aussiebroadwan/tms/pkg/slogx"

	_ "github.com/aussiebroadwan/tms/api/docs" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store        store.Store
	refreshStore Pinger
	signer       jwtx.Signer
	metrics      *metrics.Metrics

	Gate   *security.Gate
	Policy security.Policy

	SessionService   *service.SessionService
	UserService      *service.UserService
	TaskService      *service.TaskService
	CommentService   *service.CommentService
	OwnershipService *service.OwnershipService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	refreshStore Pinger,
	signer jwtx.Signer,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		refreshStore: refreshStore,
		signer:       signer,
		metrics:      m,
		Policy:       security.Policy{Metrics: m},
	}
}

// ApplyRoutes registers every route and builds the global middleware chain.
// Gate and the services must be set before calling it.
func (r *Router) ApplyRoutes() {
	// request logger first so the gate and metrics see req_id
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		r.metrics.HTTPMiddleware,
		r.Gate.Middleware(),
	}

	r.registerAuth()
	r.registerUsers()
	r.registerTasks()
	r.registerComments()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			TMS API
//	@version		0.1.0
//	@description	Task management service with JWT access tokens and opaque refresh tokens.
//	@description
//	@description				Access tokens are HS256 signed and carry the username as subject.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/tms
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(metrics.CaptureRoute(r.Mux), r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		SessionService: r.SessionService,
		UserService:    r.UserService,
		Metrics:        r.metrics,
	}

	// Credential endpoints - strict rate limit; signin also keyed by identifier
	r.Mux.Handle("POST /api/auth/signin",
		httpx.Chain(http.HandlerFunc(h.HandleSignin),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "identifier"),
		),
	)
	r.Mux.Handle("POST /api/auth/refresh-token",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /api/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			r.Policy.RequireAuthenticated(),
			httpx.RateLimitByKey(httpx.ModerateLimit, principalKey),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UserHandler{UserService: r.UserService}

	r.Mux.Handle("GET /api/user/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			r.Policy.RequireAuthenticated(),
			r.Policy.RequireAnyRole(domain.RoleUser, domain.RoleAdmin),
			r.Policy.RequireOwnership(domain.EntityUser, r.OwnershipService, domain.RoleAdmin),
			httpx.RateLimitByKey(httpx.LenientLimit, principalKey),
		),
	)
}

func (r *Router) registerTasks() {
	h := &TaskHandler{TaskService: r.TaskService}

	r.Mux.Handle("GET /api/task/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			r.Policy.RequireAuthenticated(),
			r.Policy.RequireAnyRole(domain.RoleUser, domain.RoleAdmin),
			r.Policy.RequireOwnership(domain.EntityTask, r.OwnershipService, domain.RoleAdmin),
			httpx.RateLimitByKey(httpx.LenientLimit, principalKey),
		),
	)
	r.Mux.Handle("PUT /api/task/{id}/status",
		httpx.Chain(http.HandlerFunc(h.HandleUpdateStatus),
			r.Policy.RequireAuthenticated(),
			r.Policy.RequireAnyRole(domain.RoleUser, domain.RoleAdmin),
			r.Policy.RequireOwnership(domain.EntityTask, r.OwnershipService, domain.RoleAdmin),
			httpx.RateLimitByKey(httpx.ModerateLimit, principalKey),
		),
	)
	r.Mux.Handle("POST /api/task",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			r.Policy.RequireAuthenticated(),
			r.Policy.RequireAnyRole(domain.RoleUser, domain.RoleAdmin),
			httpx.RateLimitByKey(httpx.ModerateLimit, principalKey),
		),
	)
}

func (r *Router) registerComments() {
	h := &CommentHandler{CommentService: r.CommentService}

	r.Mux.Handle("POST /api/comment",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			r.Policy.RequireAuthenticated(),
			r.Policy.RequireAnyRole(domain.RoleUser, domain.RoleAdmin),
			httpx.RateLimitByKey(httpx.ModerateLimit, principalKey),
		),
	)
	r.Mux.Handle("DELETE /api/comment/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			r.Policy.RequireAuthenticated(),
			r.Policy.RequireAnyRole(domain.RoleAdmin),
			r.Policy.RequireOwnership(domain.EntityComment, r.OwnershipService, domain.RoleAdmin),
			httpx.RateLimitByKey(httpx.ModerateLimit, principalKey),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.refreshStore, r.signer),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics", r.metrics.Handler())
}

// principalKey groups authenticated traffic by user id.
func principalKey(req *http.Request) string {
	if p, ok := security.PrincipalFrom(req.Context()); ok {
		return "user:" + strconv.FormatInt(p.UserID, 10)
	}
	return ""
}
