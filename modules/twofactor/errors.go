package twofactor

import "errors"

var (
	ErrPasswordRequired = errors.New("twofactor: account has no password, set one before enabling two-factor authentication")
	ErrAlreadyEnabled   = errors.New("twofactor: two-factor authentication is already enabled")
	ErrSetupNotStarted  = errors.New("twofactor: two-factor setup has not been started")
	ErrSetupCorrupted   = errors.New("twofactor: setup corrupted, please restart setup")
	ErrInvalidCode      = errors.New("twofactor: invalid verification code")
	ErrInvalidPassword  = errors.New("twofactor: invalid password")
	ErrNotEnabled       = errors.New("twofactor: two-factor authentication is not enabled")
	ErrUserNotFound     = errors.New("twofactor: user not found")
)
