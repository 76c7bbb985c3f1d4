package twofactor

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/cashlens/cashlens/pkg/statemachine"
	"github.com/cashlens/cashlens/pkg/totp"
)

// Event is a requested enrollment change.
type Event string

const (
	EventBeginSetup  Event = "begin_setup"
	EventVerifySetup Event = "verify_setup"
	EventDisable     Event = "disable"
	EventRegenerate  Event = "regenerate_backup_codes"
)

// attempt is the per-request data the guards and actions work on.
type attempt struct {
	cred         *Credential
	code         string
	isBackupCode bool
	password     string

	// outputs
	secret      string
	backupCodes []string
}

func (s *Service) newMachine() *statemachine.Machine[State, Event, *attempt] {
	type opt = statemachine.TransitionOption[*attempt]
	guard := statemachine.WithGuard[*attempt]
	action := statemachine.WithAction[*attempt]

	begin := []opt{guard(requirePassword), action(s.issueSecret)}
	return statemachine.New[State, Event, *attempt]().
		Permit(StateDisabled, EventBeginSetup, StatePending, begin...).
		Permit(StatePending, EventBeginSetup, StatePending, begin...).
		Reject(StateEnabled, EventBeginSetup, ErrAlreadyEnabled).
		Permit(StatePending, EventVerifySetup, StateEnabled, guard(s.checkTOTP), action(s.issueBackupCodes), action(enable)).
		Reject(StateDisabled, EventVerifySetup, ErrSetupNotStarted).
		Reject(StateEnabled, EventVerifySetup, ErrAlreadyEnabled).
		Permit(StateEnabled, EventDisable, StateDisabled, guard(checkPassword), guard(s.checkOptionalCode), action(disable)).
		Reject(StateDisabled, EventDisable, ErrNotEnabled).
		Reject(StatePending, EventDisable, ErrNotEnabled).
		Permit(StateEnabled, EventRegenerate, StateEnabled, guard(s.checkTOTP), action(s.issueBackupCodes)).
		Reject(StateDisabled, EventRegenerate, ErrNotEnabled).
		Reject(StatePending, EventRegenerate, ErrNotEnabled)
}

func requirePassword(_ context.Context, a *attempt) error {
	if !a.cred.HasPassword() {
		return ErrPasswordRequired
	}
	return nil
}

func checkPassword(_ context.Context, a *attempt) error {
	if !a.cred.HasPassword() || a.password == "" {
		return ErrInvalidPassword
	}
	if bcrypt.CompareHashAndPassword([]byte(*a.cred.PasswordHash), []byte(a.password)) != nil {
		return ErrInvalidPassword
	}
	return nil
}

// checkTOTP verifies a.code against the stored secret.
func (s *Service) checkTOTP(_ context.Context, a *attempt) error {
	secret, err := s.decryptSecret(a.cred)
	if err != nil {
		return err
	}
	if !totp.VerifyAt(secret, a.code, s.now()) {
		return ErrInvalidCode
	}
	return nil
}

// checkOptionalCode applies only when a code was supplied. A matching backup
// code is consumed, which is moot since disabling clears them all.
func (s *Service) checkOptionalCode(ctx context.Context, a *attempt) error {
	if a.code == "" {
		return nil
	}
	if a.isBackupCode {
		remaining, ok := totp.VerifyAndConsume(a.code, a.cred.BackupCodeHashes)
		if !ok {
			return ErrInvalidCode
		}
		a.cred.BackupCodeHashes = remaining
		return nil
	}
	return s.checkTOTP(ctx, a)
}

func (s *Service) issueSecret(_ context.Context, a *attempt) error {
	secret, err := totp.GenerateSecretKey()
	if err != nil {
		return err
	}
	ciphertext, err := s.codec.Encrypt(secret)
	if err != nil {
		return err
	}
	a.secret = secret
	a.cred.SecretCiphertext = &ciphertext
	a.cred.Enabled = false
	a.cred.BackupCodeHashes = []string{}
	return nil
}

func (s *Service) issueBackupCodes(_ context.Context, a *attempt) error {
	codes, err := totp.GenerateBackupCodes(totp.BackupCodeCount)
	if err != nil {
		return err
	}
	a.backupCodes = codes
	a.cred.BackupCodeHashes = totp.HashBackupCodes(codes)
	return nil
}

func enable(_ context.Context, a *attempt) error {
	a.cred.Enabled = true
	return nil
}

func disable(_ context.Context, a *attempt) error {
	a.cred.clear()
	return nil
}
