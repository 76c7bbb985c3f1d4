package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cashlens/cashlens/handler"
	"github.com/cashlens/cashlens/modules/account"
	"github.com/cashlens/cashlens/modules/ledger"
	"github.com/cashlens/cashlens/modules/twofactor"
	"github.com/cashlens/cashlens/pkg/clientip"
	"github.com/cashlens/cashlens/pkg/httpserver"
	"github.com/cashlens/cashlens/pkg/jwt"
	"github.com/cashlens/cashlens/pkg/logger"
	"github.com/cashlens/cashlens/pkg/ratelimiter"
	"github.com/cashlens/cashlens/pkg/requestid"
)

// limiters are the per-route request budgets, keyed by client IP.
type limiters struct {
	register  ratelimiter.Limiter
	login     ratelimiter.Limiter
	twoFactor ratelimiter.Limiter
}

func newLimiters(store ratelimiter.Store) (limiters, error) {
	register, err := ratelimiter.NewBucket(store, ratelimiter.PerWindow(5, 10*time.Minute))
	if err != nil {
		return limiters{}, err
	}
	login, err := ratelimiter.NewBucket(store, ratelimiter.PerWindow(10, 5*time.Minute))
	if err != nil {
		return limiters{}, err
	}
	twoFactor, err := ratelimiter.NewBucket(store, ratelimiter.PerWindow(10, 5*time.Minute))
	if err != nil {
		return limiters{}, err
	}
	return limiters{register: register, login: login, twoFactor: twoFactor}, nil
}

type routerDeps struct {
	log       *slog.Logger
	registry  *prometheus.Registry
	clientIP  *clientip.Resolver
	tokens    *jwt.Service
	limits    limiters
	account   *account.Handler
	twoFactor *twofactor.Handler
	ledger    *ledger.Handler
	checks    []httpserver.Check
	readiness time.Duration
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		d.clientIP.Middleware,
		accessLog(d.log),
		middleware.Recoverer,
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = handler.Error(handler.ErrNotFound).Render(w, r)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = handler.Error(handler.NewHTTPError(http.StatusMethodNotAllowed, "Method not allowed")).Render(w, r)
	})

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(d.log, d.readiness, d.checks...))
	r.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))

	limit := func(name string, l ratelimiter.Limiter) account.Middleware {
		return ratelimiter.Middleware(l,
			ratelimiter.Composite(ratelimiter.Static(name), ratelimiter.ByIP()),
			ratelimiter.WithDeniedHandler(rateLimited),
			ratelimiter.WithErrorHandler(rateLimiterFailed(d.log)),
		)
	}

	r.Mount("/auth", account.Router(d.account, d.tokens, account.RouterOptions{
		Register: []account.Middleware{limit("register", d.limits.register)},
		Login:    []account.Middleware{limit("login", d.limits.login)},
		Verify:   []account.Middleware{limit("2fa", d.limits.twoFactor)},
	}))

	r.Group(func(r chi.Router) {
		r.Use(account.RequireAuth(d.tokens))
		r.Get("/me", d.account.Me())
		r.Mount("/2fa", d.twoFactor.Routes(limit("2fa", d.limits.twoFactor)))
		d.ledger.Mount(r)
	})

	return r
}

func rateLimited(w http.ResponseWriter, r *http.Request, _ *ratelimiter.Result) {
	_ = handler.Error(handler.ErrTooManyRequests).Render(w, r)
}

func rateLimiterFailed(log *slog.Logger) ratelimiter.ErrorFunc {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		log.ErrorContext(r.Context(), "rate limiter unavailable", logger.Error(err))
		_ = handler.Error(err).Render(w, r)
	}
}

// accessLog writes one record per request after it completes.
func accessLog(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.InfoContext(r.Context(), "http request",
				logger.Method(r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				logger.IP(clientip.GetIPFromContext(r.Context())),
				logger.Duration(time.Since(start)),
			)
		})
	}
}
