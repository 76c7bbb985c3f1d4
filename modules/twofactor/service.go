package twofactor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cashlens/cashlens/pkg/email"
	"github.com/cashlens/cashlens/pkg/logger"
	"github.com/cashlens/cashlens/pkg/qrcode"
	"github.com/cashlens/cashlens/pkg/statemachine"
	"github.com/cashlens/cashlens/pkg/totp"
)

// SetupResult is returned once when setup begins. Secret is shown to users
// who cannot scan QRCode.
type SetupResult struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
	QRCode string `json:"qrCode"`
}

// Status summarizes a user's enrollment.
type Status struct {
	State                State `json:"state"`
	Enabled              bool  `json:"enabled"`
	BackupCodesRemaining int   `json:"backupCodesRemaining"`
}

// DisableParams carries the re-authentication for Disable. Code is optional.
type DisableParams struct {
	Password     string
	Code         string
	IsBackupCode bool
}

// Service runs the enrollment and verification workflow.
type Service struct {
	storage  Storage
	codec    *totp.Codec
	qr       *qrcode.Encoder
	issuer   string
	log      *slog.Logger
	metrics  *Metrics
	notifier Notifier
	now      func() time.Time
	machine  *statemachine.Machine[State, Event, *attempt]
}

// Option configures a Service.
type Option func(*Service)

// WithIssuer sets the issuer shown in authenticator apps.
func WithIssuer(issuer string) Option {
	return func(s *Service) {
		if issuer != "" {
			s.issuer = issuer
		}
	}
}

// WithQREncoder sets the enrollment QR encoder.
func WithQREncoder(enc *qrcode.Encoder) Option {
	return func(s *Service) {
		if enc != nil {
			s.qr = enc
		}
	}
}

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

// WithNotifier sets who receives enable, disable and regenerate notifications.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithClock overrides the time used for code verification.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates the two-factor service.
func NewService(storage Storage, codec *totp.Codec, opts ...Option) *Service {
	s := &Service{
		storage:  storage,
		codec:    codec,
		qr:       qrcode.NewEncoder(qrcode.DefaultSize),
		issuer:   "CashLens",
		log:      logger.Discard(),
		metrics:  NewMetrics(nil),
		notifier: noopNotifier{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("twofactor"))
	s.machine = s.newMachine()
	return s
}

// BeginSetup generates and stores a new secret, replacing any unverified one,
// and returns the enrollment material.
func (s *Service) BeginSetup(ctx context.Context, userID uuid.UUID) (*SetupResult, error) {
	var (
		a       *attempt
		account string
	)
	err := s.storage.UpdateCredential(ctx, userID, func(cred *Credential) error {
		a = &attempt{cred: cred}
		account = cred.Email
		_, err := s.fire(ctx, EventBeginSetup, a)
		return err
	})
	if err != nil {
		return nil, err
	}

	uri, err := totp.BuildURI(totp.URIParams{Secret: a.secret, AccountName: account, Issuer: s.issuer})
	if err != nil {
		return nil, fmt.Errorf("build enrollment uri: %w", err)
	}
	qr, err := s.qr.DataURI(uri)
	if err != nil {
		return nil, fmt.Errorf("render enrollment qr code: %w", err)
	}

	s.metrics.setupStarted.Inc()
	s.log.InfoContext(ctx, "two-factor setup started", logger.UserID(userID))
	return &SetupResult{Secret: a.secret, URI: uri, QRCode: qr}, nil
}

// VerifySetup enables two-factor authentication once code matches the
// pending secret, returning the plaintext backup codes. They are not
// retrievable again.
func (s *Service) VerifySetup(ctx context.Context, userID uuid.UUID, code string) ([]string, error) {
	var a *attempt
	err := s.storage.UpdateCredential(ctx, userID, func(cred *Credential) error {
		a = &attempt{cred: cred, code: code}
		_, err := s.fire(ctx, EventVerifySetup, a)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInvalidCode) {
			s.log.InfoContext(ctx, "two-factor setup code rejected", logger.UserID(userID))
		}
		return nil, err
	}

	s.metrics.enabled.Inc()
	s.log.InfoContext(ctx, "two-factor enabled", logger.UserID(userID))
	s.notifier.Notify(ctx, email.TemplateTwoFactorEnabled, *a.cred)
	return a.backupCodes, nil
}

// Disable removes the secret and backup codes after re-checking the password
// and, when given, a TOTP or backup code.
func (s *Service) Disable(ctx context.Context, userID uuid.UUID, params DisableParams) error {
	var a *attempt
	err := s.storage.UpdateCredential(ctx, userID, func(cred *Credential) error {
		a = &attempt{
			cred:         cred,
			password:     params.Password,
			code:         params.Code,
			isBackupCode: params.IsBackupCode,
		}
		_, err := s.fire(ctx, EventDisable, a)
		return err
	})
	if err != nil {
		return err
	}

	s.metrics.disabled.Inc()
	s.log.InfoContext(ctx, "two-factor disabled", logger.UserID(userID))
	s.notifier.Notify(ctx, email.TemplateTwoFactorDisabled, *a.cred)
	return nil
}

// errCodeRejected rolls back a backup code check that did not match.
var errCodeRejected = errors.New("twofactor: code rejected")

// VerifyLogin checks a login-time code. Backup codes are consumed on success.
// An invalid code yields false with a nil error.
func (s *Service) VerifyLogin(ctx context.Context, userID uuid.UUID, code string, isBackupCode bool) (ok bool, err error) {
	method := MethodTOTP
	if isBackupCode {
		method = MethodBackup
	}
	defer func() {
		s.metrics.observeVerification(method, ok, err)
		if err == nil && !ok {
			s.log.InfoContext(ctx, "two-factor login code rejected",
				logger.UserID(userID), logger.Method(method))
		}
	}()

	if !isBackupCode {
		cred, err := s.storage.GetCredential(ctx, userID)
		if err != nil {
			return false, err
		}
		if cred.State() != StateEnabled {
			return false, ErrNotEnabled
		}
		err = s.checkTOTP(ctx, &attempt{cred: cred, code: code})
		if errors.Is(err, ErrInvalidCode) {
			return false, nil
		}
		return err == nil, err
	}

	err = s.storage.UpdateCredential(ctx, userID, func(cred *Credential) error {
		if cred.State() != StateEnabled {
			return ErrNotEnabled
		}
		remaining, matched := totp.VerifyAndConsume(code, cred.BackupCodeHashes)
		if !matched {
			return errCodeRejected
		}
		cred.BackupCodeHashes = remaining
		return nil
	})
	if errors.Is(err, errCodeRejected) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.log.InfoContext(ctx, "backup code used", logger.UserID(userID))
	return true, nil
}

// Status reports the enrollment state and remaining backup codes.
func (s *Service) Status(ctx context.Context, userID uuid.UUID) (*Status, error) {
	cred, err := s.storage.GetCredential(ctx, userID)
	if err != nil {
		return nil, err
	}
	state := cred.State()
	st := &Status{State: state, Enabled: state == StateEnabled}
	if st.Enabled {
		st.BackupCodesRemaining = len(cred.BackupCodeHashes)
	}
	return st, nil
}

// RegenerateBackupCodes replaces every backup code after a valid TOTP code.
func (s *Service) RegenerateBackupCodes(ctx context.Context, userID uuid.UUID, code string) ([]string, error) {
	var a *attempt
	err := s.storage.UpdateCredential(ctx, userID, func(cred *Credential) error {
		a = &attempt{cred: cred, code: code}
		_, err := s.fire(ctx, EventRegenerate, a)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.regenerated.Inc()
	s.log.InfoContext(ctx, "backup codes regenerated", logger.UserID(userID))
	s.notifier.Notify(ctx, email.TemplateBackupCodesRegenerated, *a.cred)
	return a.backupCodes, nil
}

// fire runs event against the credential's current state and checks that
// the guards and actions left it in the target state.
func (s *Service) fire(ctx context.Context, event Event, a *attempt) (State, error) {
	next, err := s.machine.Fire(ctx, a.cred.State(), event, a)
	if err != nil {
		return next, err
	}
	if got := a.cred.State(); got != next {
		return next, fmt.Errorf("twofactor: %s left credential %s, expected %s", event, got, next)
	}
	return next, nil
}

func (s *Service) decryptSecret(cred *Credential) (string, error) {
	if cred.SecretCiphertext == nil {
		return "", ErrSetupNotStarted
	}
	secret, err := s.codec.Decrypt(*cred.SecretCiphertext)
	if err != nil {
		return "", errors.Join(ErrSetupCorrupted, err)
	}
	if !totp.ValidSecret(secret) {
		return "", errors.Join(ErrSetupCorrupted, totp.ErrInvalidSecret)
	}
	return secret, nil
}
