package twofactor_test

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cashlens/cashlens/modules/twofactor"
	"github.com/cashlens/cashlens/pkg/email"
	"github.com/cashlens/cashlens/pkg/totp"
)

const testPassword = "correct horse 42"

// memoryStorage serializes updates with a mutex and applies fn to a copy, so a
// failed fn leaves the stored record untouched like a rolled back transaction.
type memoryStorage struct {
	mu    sync.Mutex
	creds map[uuid.UUID]twofactor.Credential
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{creds: map[uuid.UUID]twofactor.Credential{}}
}

func (m *memoryStorage) put(c twofactor.Credential) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[c.UserID] = clone(c)
}

func (m *memoryStorage) get(id uuid.UUID) twofactor.Credential {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.creds[id])
}

func (m *memoryStorage) GetCredential(_ context.Context, userID uuid.UUID) (*twofactor.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.creds[userID]
	if !ok {
		return nil, twofactor.ErrUserNotFound
	}
	c = clone(c)
	return &c, nil
}

func (m *memoryStorage) UpdateCredential(_ context.Context, userID uuid.UUID, fn func(*twofactor.Credential) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.creds[userID]
	if !ok {
		return twofactor.ErrUserNotFound
	}
	c = clone(c)
	if err := fn(&c); err != nil {
		return err
	}
	m.creds[userID] = c
	return nil
}

func clone(c twofactor.Credential) twofactor.Credential {
	c.BackupCodeHashes = slices.Clone(c.BackupCodeHashes)
	if c.SecretCiphertext != nil {
		s := *c.SecretCiphertext
		c.SecretCiphertext = &s
	}
	return c
}

type notification struct {
	tpl    email.Template
	userID uuid.UUID
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) Notify(_ context.Context, tpl email.Template, cred twofactor.Credential) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{tpl: tpl, userID: cred.UserID})
}

func (n *recordingNotifier) templates() []email.Template {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []email.Template
	for _, s := range n.sent {
		out = append(out, s.tpl)
	}
	return out
}

type fixture struct {
	svc      *twofactor.Service
	storage  *memoryStorage
	notifier *recordingNotifier
	registry *prometheus.Registry
	codec    *totp.Codec
	now      time.Time
	userID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	codec, err := totp.NewCodec("test-encryption-key")
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	passwordHash := string(hash)

	f := &fixture{
		storage:  newMemoryStorage(),
		notifier: &recordingNotifier{},
		registry: prometheus.NewRegistry(),
		codec:    codec,
		now:      time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC),
		userID:   uuid.New(),
	}
	f.storage.put(twofactor.Credential{
		UserID:       f.userID,
		Email:        "ada@example.com",
		Name:         "Ada",
		PasswordHash: &passwordHash,
	})
	f.svc = twofactor.NewService(f.storage, codec,
		twofactor.WithIssuer("CashLens"),
		twofactor.WithClock(func() time.Time { return f.now }),
		twofactor.WithNotifier(f.notifier),
		twofactor.WithMetrics(twofactor.NewMetrics(f.registry)),
	)
	return f
}

// code returns the current TOTP code for the user's stored secret.
func (f *fixture) code(t *testing.T) string {
	t.Helper()
	cred := f.storage.get(f.userID)
	require.NotNil(t, cred.SecretCiphertext)
	secret, err := f.codec.Decrypt(*cred.SecretCiphertext)
	require.NoError(t, err)
	code, err := totp.GenerateCodeAt(secret, f.now)
	require.NoError(t, err)
	return code
}

// enable runs setup and verification, returning the backup codes.
func (f *fixture) enable(t *testing.T) []string {
	t.Helper()
	_, err := f.svc.BeginSetup(context.Background(), f.userID)
	require.NoError(t, err)
	codes, err := f.svc.VerifySetup(context.Background(), f.userID, f.code(t))
	require.NoError(t, err)
	return codes
}

func (f *fixture) counter(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := f.registry.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
	metrics:
		for _, m := range fam.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

// wrongCode returns a well-formed code rejected anywhere in the skew window.
func (f *fixture) wrongCode(t *testing.T) string {
	t.Helper()
	cred := f.storage.get(f.userID)
	require.NotNil(t, cred.SecretCiphertext)
	secret, err := f.codec.Decrypt(*cred.SecretCiphertext)
	require.NoError(t, err)

	valid := map[string]bool{}
	for _, offset := range []time.Duration{-30 * time.Second, 0, 30 * time.Second} {
		c, err := totp.GenerateCodeAt(secret, f.now.Add(offset))
		require.NoError(t, err)
		valid[c] = true
	}
	for _, c := range []string{"000000", "111111", "222222", "333333"} {
		if !valid[c] {
			return c
		}
	}
	t.Fatal("no invalid candidate code")
	return ""
}
