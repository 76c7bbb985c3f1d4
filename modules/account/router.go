package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cashlens/cashlens/pkg/jwt"
)

// Middleware is a standard net/http middleware.
type Middleware = func(http.Handler) http.Handler

// RouterOptions attaches per-route middleware, usually rate limiters.
// Every field is optional.
type RouterOptions struct {
	Register []Middleware
	Login    []Middleware
	Verify   []Middleware
}

// Router mounts the unauthenticated login routes:
//
//	POST /register
//	POST /login
//	POST /2fa/verify   (challenge token)
//
// Example:
//
//	r.Mount("/auth", account.Router(h, tokens, account.RouterOptions{
//	    Login: []account.Middleware{loginLimiter},
//	}))
func Router(h *Handler, tokens *jwt.Service, opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	r.With(opts.Register...).Post("/register", h.Register())
	r.With(opts.Login...).Post("/login", h.Login())
	r.Route("/2fa", func(r chi.Router) {
		r.Use(RequireChallenge(tokens))
		r.With(opts.Verify...).Post("/verify", h.VerifyTwoFactor())
	})

	return r
}
