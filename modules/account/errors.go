package account

import "errors"

var (
	ErrEmailTaken          = errors.New("account: email already registered")
	ErrInvalidCredentials  = errors.New("account: invalid email or password")
	ErrUserNotFound        = errors.New("account: user not found")
	ErrInvalidTwoFactor    = errors.New("account: invalid two-factor code")
	ErrTwoFactorNotEnabled = errors.New("account: two-factor authentication is not enabled")
	ErrTwoFactorCorrupted  = errors.New("account: two-factor setup corrupted")
)
