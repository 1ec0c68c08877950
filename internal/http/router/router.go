// Package router arma el árbol de rutas HTTP sobre chi.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	mailhttp "github.com/dropDatabas3/mailgate/internal/http"
	healthctrl "github.com/dropDatabas3/mailgate/internal/http/controllers/health"
	notifyctrl "github.com/dropDatabas3/mailgate/internal/http/controllers/notify"
	httperrors "github.com/dropDatabas3/mailgate/internal/http/errors"
	mw "github.com/dropDatabas3/mailgate/internal/http/middlewares"
	"github.com/dropDatabas3/mailgate/internal/rate"
)

// Deps contiene todo lo que el router necesita.
type Deps struct {
	Notifications *notifyctrl.NotificationsController
	Verification  *notifyctrl.LedgerController
	PasswordReset *notifyctrl.LedgerController
	Health        *healthctrl.Controller

	Metrics http.Handler // nil = sin /metrics

	Auth        mw.ServiceAuth
	RateLimiter rate.Limiter // nil = sin rate limiting

	// Límite estricto para emitir códigos (verificación / reset).
	IssueLimit  int
	IssueWindow time.Duration
}

// New devuelve el handler raíz.
//
//	POST /v1/notifications
//	GET  /v1/kinds
//	POST /v1/verification            POST /v1/verification/consume
//	POST /v1/password-reset          POST /v1/password-reset/consume
//	GET  /readyz                     GET  /metrics
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		mailhttp.WithMetrics,
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithLogging(),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	if deps.Health != nil {
		r.Get("/readyz", deps.Health.Readyz)
	}
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(
			mw.WithRateLimit(mw.RateLimitConfig{Limiter: deps.RateLimiter}),
			mw.RequireServiceToken(deps.Auth),
		)

		if c := deps.Notifications; c != nil {
			r.Post("/notifications", c.Send)
			r.Get("/kinds", c.Kinds)
		}
		registerLedger(r, "/verification", deps.Verification, deps)
		registerLedger(r, "/password-reset", deps.PasswordReset, deps)
	})

	return r
}

// registerLedger monta issue y consume. Issue lleva un límite propio
// además del general.
func registerLedger(r chi.Router, prefix string, c *notifyctrl.LedgerController, deps Deps) {
	if c == nil {
		return
	}
	var issue http.Handler = http.HandlerFunc(c.Issue)
	if deps.IssueLimit > 0 && deps.IssueWindow > 0 {
		issue = mw.Chain(issue, mw.WithRateLimit(mw.RateLimitConfig{
			Limiter: deps.RateLimiter,
			Limit:   deps.IssueLimit,
			Window:  deps.IssueWindow,
			KeyFunc: issueRateKey,
		}))
	}
	r.Method(http.MethodPost, prefix, issue)
	r.Post(prefix+"/consume", c.Consume)
}

func issueRateKey(r *http.Request) string {
	return "issue|" + mw.IPPathRateKey(r)
}
