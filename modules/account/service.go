package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cashlens/cashlens/modules/twofactor"
	"github.com/cashlens/cashlens/pkg/jwt"
	"github.com/cashlens/cashlens/pkg/logger"
	"github.com/cashlens/cashlens/pkg/sanitizer"
	"github.com/cashlens/cashlens/pkg/validator"
)

// Token purposes. A challenge token only unlocks the second login step.
const (
	PurposeAccess    = "access"
	PurposeChallenge = "2fa"
)

// TwoFactor is the part of the two-factor service login depends on.
type TwoFactor interface {
	VerifyLogin(ctx context.Context, userID uuid.UUID, code string, isBackupCode bool) (bool, error)
	Status(ctx context.Context, userID uuid.UUID) (*twofactor.Status, error)
}

// RegisterParams is the input to Register.
type RegisterParams struct {
	Name     string
	Email    string
	Password string
}

// LoginResult carries either an access token or, when two-factor
// authentication is on, a challenge token for the second step.
type LoginResult struct {
	AccessToken       string `json:"accessToken,omitempty"`
	ChallengeToken    string `json:"challengeToken,omitempty"`
	TokenType         string `json:"tokenType"`
	ExpiresAt         int64  `json:"expiresAt"`
	TwoFactorRequired bool   `json:"twoFactorRequired"`
}

// Service registers users and runs the login flow.
type Service struct {
	storage   Storage
	passwords *PasswordService
	tokens    *jwt.Service
	twoFactor TwoFactor
	cfg       Config
	log       *slog.Logger
	metrics   *Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics enables Prometheus counters.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewService creates the account service. Password handling is delegated to
// a PasswordService whose hooks feed the service metrics and log.
func NewService(storage Storage, tokens *jwt.Service, twoFactor TwoFactor, cfg Config, opts ...Option) (*Service, error) {
	s := &Service{
		storage:   storage,
		tokens:    tokens,
		twoFactor: twoFactor,
		cfg:       cfg,
		log:       logger.Discard(),
		metrics:   NewMetrics(nil),
	}
	for _, opt := range opts {
		opt(s)
	}

	passwords, err := NewPasswordService(storage,
		WithPasswordLogger(s.log),
		WithBcryptCost(cfg.BcryptCost),
		WithAfterRegister(s.onRegistered),
		WithAfterLogin(s.onPasswordAccepted),
		WithLoginFailed(s.onLoginFailed),
	)
	if err != nil {
		return nil, err
	}
	s.passwords = passwords
	s.log = s.log.With(logger.Component("account"))
	return s, nil
}

// Register creates a password account. The email is normalized first.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	return s.passwords.Register(ctx, params)
}

// Login checks the password. With two-factor authentication on it returns
// a challenge token instead of an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.passwords.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if user.TwoFactorEnabled {
		token, exp, err := s.tokens.Issue(user.ID.String(), PurposeChallenge, s.cfg.ChallengeTokenTTL)
		if err != nil {
			return nil, err
		}
		return &LoginResult{
			ChallengeToken:    token,
			TokenType:         "Bearer",
			ExpiresAt:         exp.Unix(),
			TwoFactorRequired: true,
		}, nil
	}
	return s.accessToken(user.ID)
}

func (s *Service) onRegistered(ctx context.Context, user *User) error {
	s.metrics.registrations.Inc()
	s.log.InfoContext(ctx, "user registered", logger.UserID(user.ID))
	return nil
}

func (s *Service) onPasswordAccepted(ctx context.Context, user *User) error {
	if user.TwoFactorEnabled {
		s.metrics.logins.WithLabelValues(loginChallenge).Inc()
		s.log.InfoContext(ctx, "password accepted, two-factor challenge issued", logger.UserID(user.ID))
		return nil
	}
	s.metrics.logins.WithLabelValues(loginSuccess).Inc()
	s.log.InfoContext(ctx, "user logged in", logger.UserID(user.ID))
	return nil
}

func (s *Service) onLoginFailed(ctx context.Context, _ string) error {
	s.metrics.logins.WithLabelValues(loginFailure).Inc()
	s.log.InfoContext(ctx, "password login rejected")
	return nil
}

// CompleteLogin exchanges a verified challenge for an access token once
// code passes as a TOTP or backup code.
func (s *Service) CompleteLogin(ctx context.Context, userID uuid.UUID, code string, isBackupCode bool) (*LoginResult, error) {
	if err := validator.Apply(validator.Required("code", sanitizer.SingleLine(code))); err != nil {
		return nil, err
	}

	ok, err := s.twoFactor.VerifyLogin(ctx, userID, code, isBackupCode)
	switch {
	case errors.Is(err, twofactor.ErrNotEnabled):
		return nil, ErrTwoFactorNotEnabled
	case errors.Is(err, twofactor.ErrSetupCorrupted):
		return nil, errors.Join(ErrTwoFactorCorrupted, err)
	case errors.Is(err, twofactor.ErrUserNotFound):
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, err
	case !ok:
		return nil, ErrInvalidTwoFactor
	}

	s.log.InfoContext(ctx, "user logged in", logger.UserID(userID), logger.Method("2fa"))
	return s.accessToken(userID)
}

// Me returns the profile of userID including two-factor status.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.storage.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	st, err := s.twoFactor.Status(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load two-factor status: %w", err)
	}
	return &Profile{
		ID:                   user.ID,
		Email:                user.Email,
		Name:                 user.Name,
		HasPassword:          user.PasswordHash != nil,
		TwoFactorEnabled:     st.Enabled,
		TwoFactorState:       string(st.State),
		BackupCodesRemaining: st.BackupCodesRemaining,
		CreatedAt:            user.CreatedAt,
	}, nil
}

func (s *Service) accessToken(userID uuid.UUID) (*LoginResult, error) {
	token, exp, err := s.tokens.Issue(userID.String(), PurposeAccess, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	return &LoginResult{AccessToken: token, TokenType: "Bearer", ExpiresAt: exp.Unix()}, nil
}
