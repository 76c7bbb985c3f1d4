// Package jwt issues and verifies purpose-scoped HS256 tokens on top of
// github.com/golang-jwt/jwt/v5.
//
// A token carries the user id as subject and a purpose claim, so a
// short-lived two-factor challenge can never be used as an access token:
//
//	svc, _ := jwt.New(cfg.Secret, "cashlens")
//	challenge, _, _ := svc.Issue(userID.String(), "2fa", 5*time.Minute)
//
//	r.With(jwt.Middleware(svc, "access", unauthorized)).Get("/me", me)
package jwt
