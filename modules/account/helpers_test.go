package account_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cashlens/cashlens/modules/account"
	"github.com/cashlens/cashlens/modules/twofactor"
	"github.com/cashlens/cashlens/pkg/jwt"
)

const testPassword = "Tr0ub4dor&3"

type memoryStorage struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]account.User
	byEmail map[string]uuid.UUID
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{byID: map[uuid.UUID]account.User{}, byEmail: map[string]uuid.UUID{}}
}

func (m *memoryStorage) CreateUser(_ context.Context, u *account.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[u.Email]; ok {
		return account.ErrEmailTaken
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.byID[u.ID] = *u
	m.byEmail[u.Email] = u.ID
	return nil
}

func (m *memoryStorage) GetUserByEmail(_ context.Context, email string) (*account.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[email]
	if !ok {
		return nil, account.ErrUserNotFound
	}
	u := m.byID[id]
	return &u, nil
}

func (m *memoryStorage) GetUserByID(_ context.Context, id uuid.UUID) (*account.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, account.ErrUserNotFound
	}
	return &u, nil
}

func (m *memoryStorage) setTwoFactor(email string, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.byEmail[email]
	u := m.byID[id]
	u.TwoFactorEnabled = enabled
	m.byID[id] = u
}

type twoFactorMock struct {
	mock.Mock
}

func (m *twoFactorMock) VerifyLogin(ctx context.Context, userID uuid.UUID, code string, isBackupCode bool) (bool, error) {
	args := m.Called(ctx, userID, code, isBackupCode)
	return args.Bool(0), args.Error(1)
}

func (m *twoFactorMock) Status(ctx context.Context, userID uuid.UUID) (*twofactor.Status, error) {
	args := m.Called(ctx, userID)
	st, _ := args.Get(0).(*twofactor.Status)
	return st, args.Error(1)
}

type fixture struct {
	svc       *account.Service
	storage   *memoryStorage
	twoFactor *twoFactorMock
	tokens    *jwt.Service
	registry  *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tokens, err := jwt.New(strings.Repeat("s", jwt.MinKeySize), "cashlens-test")
	require.NoError(t, err)

	f := &fixture{
		storage:   newMemoryStorage(),
		twoFactor: &twoFactorMock{},
		tokens:    tokens,
		registry:  prometheus.NewRegistry(),
	}
	f.svc, err = account.NewService(f.storage, tokens, f.twoFactor, account.Config{
		AccessTokenTTL:    time.Hour,
		ChallengeTokenTTL: 5 * time.Minute,
		BcryptCost:        bcrypt.MinCost,
	}, account.WithMetrics(account.NewMetrics(f.registry)))
	require.NoError(t, err)
	return f
}

func (f *fixture) register(t *testing.T, email string) *account.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), account.RegisterParams{
		Name: "Ada Lovelace", Email: email, Password: testPassword,
	})
	require.NoError(t, err)
	return u
}
