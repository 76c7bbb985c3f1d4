package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cashlens/cashlens/pkg/logger"
	"github.com/cashlens/cashlens/pkg/sanitizer"
	"github.com/cashlens/cashlens/pkg/validator"
)

// PasswordStorage defines the storage operations required for password authentication.
type PasswordStorage interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// PasswordService registers and authenticates email/password accounts.
type PasswordService struct {
	storage          PasswordStorage
	bcryptCost       int
	log              *slog.Logger
	passwordStrength validator.PasswordStrengthConfig
	dummyHash        []byte

	// Hooks run synchronously after the outcome is decided. Their errors are
	// logged and never change the result.
	afterRegister func(ctx context.Context, user *User) error
	afterLogin    func(ctx context.Context, user *User) error
	loginFailed   func(ctx context.Context, email string) error
}

// PasswordOption configures a PasswordService.
type PasswordOption func(*PasswordService)

// WithPasswordLogger sets a custom logger for the service.
func WithPasswordLogger(log *slog.Logger) PasswordOption {
	return func(s *PasswordService) {
		if log != nil {
			s.log = log
		}
	}
}

// WithBcryptCost sets the bcrypt cost for password hashing. Zero keeps the default.
func WithBcryptCost(cost int) PasswordOption {
	return func(s *PasswordService) {
		if cost != 0 {
			s.bcryptCost = cost
		}
	}
}

// WithPasswordStrength sets custom password strength requirements.
func WithPasswordStrength(cfg validator.PasswordStrengthConfig) PasswordOption {
	return func(s *PasswordService) {
		s.passwordStrength = cfg
	}
}

// WithAfterRegister sets a hook that runs after a successful registration.
func WithAfterRegister(fn func(context.Context, *User) error) PasswordOption {
	return func(s *PasswordService) {
		s.afterRegister = fn
	}
}

// WithAfterLogin sets a hook that runs after the password is accepted.
func WithAfterLogin(fn func(context.Context, *User) error) PasswordOption {
	return func(s *PasswordService) {
		s.afterLogin = fn
	}
}

// WithLoginFailed sets a hook that runs when a login attempt is rejected.
// It receives the normalized email, which may not belong to any account.
func WithLoginFailed(fn func(context.Context, string) error) PasswordOption {
	return func(s *PasswordService) {
		s.loginFailed = fn
	}
}

// NewPasswordService creates a password service.
func NewPasswordService(storage PasswordStorage, opts ...PasswordOption) (*PasswordService, error) {
	s := &PasswordService{
		storage:          storage,
		bcryptCost:       bcrypt.DefaultCost,
		log:              logger.Discard(),
		passwordStrength: validator.DefaultPasswordStrength(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("password"))

	// Compared against on unknown emails so both paths cost one bcrypt check.
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare password hasher: %w", err)
	}
	s.dummyHash = dummy
	return s, nil
}

// Register validates the input and creates a user with a bcrypt password hash.
func (s *PasswordService) Register(ctx context.Context, params RegisterParams) (*User, error) {
	name := sanitizer.SingleLine(params.Name)
	email := sanitizer.NormalizeEmail(params.Email)

	if err := validator.Apply(
		validator.Required("name", name),
		validator.MaxLen("name", name, 100),
		validator.Required("email", email),
		validator.ValidEmail("email", email),
		validator.Required("password", params.Password),
		validator.StrongPassword("password", params.Password, s.passwordStrength),
		validator.NotCommonPassword("password", params.Password),
	); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	passwordHash := string(hash)

	user := &User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: &passwordHash,
	}
	if err := s.storage.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.runHook(ctx, "afterRegister", user.ID, func() error {
		if s.afterRegister == nil {
			return nil
		}
		return s.afterRegister(ctx, user)
	})
	return user, nil
}

// Authenticate verifies email and password and returns the user.
// Every failure is ErrInvalidCredentials so the response does not reveal
// which emails are registered.
func (s *PasswordService) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = sanitizer.NormalizeEmail(email)

	user, err := s.storage.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrUserNotFound):
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, s.rejected(ctx, email)
	case err != nil:
		return nil, err
	}

	if user.PasswordHash == nil || password == "" ||
		bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) != nil {
		return nil, s.rejected(ctx, email)
	}

	s.runHook(ctx, "afterLogin", user.ID, func() error {
		if s.afterLogin == nil {
			return nil
		}
		return s.afterLogin(ctx, user)
	})
	return user, nil
}

func (s *PasswordService) rejected(ctx context.Context, email string) error {
	s.runHook(ctx, "loginFailed", uuid.Nil, func() error {
		if s.loginFailed == nil {
			return nil
		}
		return s.loginFailed(ctx, email)
	})
	return ErrInvalidCredentials
}

func (s *PasswordService) runHook(ctx context.Context, name string, userID uuid.UUID, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.ErrorContext(ctx, name+" hook panicked", logger.UserID(userID), slog.Any("panic", r))
		}
	}()
	if err := fn(); err != nil {
		s.log.ErrorContext(ctx, name+" hook failed", logger.UserID(userID), logger.Error(err))
	}
}
