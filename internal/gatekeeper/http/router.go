package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/service"
	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/store"
	"github.com/lsrpnetwork/gatekeeper/pkg/httpx"
	"github.com/lsrpnetwork/gatekeeper/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	RedeemService *service.RedeemService
	Consent       ConsentURLBuilder
	State         *StateSigner
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Redeem:  r.RedeemService,
		Consent: r.Consent,
		State:   r.State,
	}

	// GET /auth - lenient rate limit (redirect + pin form rendering)
	r.Mux.Handle("GET /auth",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// POST /auth - strict rate limit (pin brute force prevention)
	r.Mux.Handle("POST /auth",
		httpx.Chain(http.HandlerFunc(h.HandlePost),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient limits, monitoring may poll often
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
