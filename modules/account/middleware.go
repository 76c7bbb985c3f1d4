package account

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/cashlens/cashlens/handler"
	"github.com/cashlens/cashlens/pkg/jwt"
	"github.com/cashlens/cashlens/svc/auth"
)

// RequireAuth admits requests bearing a valid access token and stores the
// caller in the request context.
func RequireAuth(tokens *jwt.Service) func(http.Handler) http.Handler {
	return requireToken(tokens, PurposeAccess)
}

// RequireChallenge admits requests bearing a valid two-factor challenge token.
func RequireChallenge(tokens *jwt.Service) func(http.Handler) http.Handler {
	return requireToken(tokens, PurposeChallenge)
}

func requireToken(tokens *jwt.Service, purpose string) func(http.Handler) http.Handler {
	verify := jwt.Middleware(tokens, purpose, unauthorized)
	return func(next http.Handler) http.Handler {
		return verify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := jwt.GetClaims(r.Context())
			if !ok {
				unauthorized(w, r, jwt.ErrMissingToken)
				return
			}
			userID, err := uuid.Parse(claims.Subject)
			if err != nil || userID == uuid.Nil {
				unauthorized(w, r, jwt.ErrInvalidToken)
				return
			}
			ctx := auth.SetIdentity(r.Context(), auth.Identity{UserID: userID, TokenID: claims.ID})
			next.ServeHTTP(w, r.WithContext(ctx))
		}))
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	resp := handler.ErrUnauthorized
	if errors.Is(err, jwt.ErrExpiredToken) {
		resp = resp.WithMessage("Session expired, please sign in again")
	}
	_ = handler.Error(resp.Wrap(err)).Render(w, r)
}
