// Package account registers users and runs the password and two-factor
// login flow.
//
// A password login returns an access token, or a short-lived challenge token
// when two-factor authentication is enabled. The challenge is exchanged for
// an access token at POST /auth/2fa/verify with a TOTP or backup code, which
// the twofactor module checks. Tokens are HS256 JWTs from pkg/jwt; their
// purpose claim keeps a challenge from being used as an access token.
//
// RequireAuth and RequireChallenge verify bearer tokens and store the caller
// through svc/auth, where other modules read it.
package account
