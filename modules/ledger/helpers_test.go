package ledger_test

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cashlens/cashlens/modules/ledger"
)

// memoryStorage mirrors the Postgres constraints the service relies on.
type memoryStorage struct {
	mu           sync.Mutex
	categories   map[uuid.UUID]ledger.Category
	transactions map[uuid.UUID]ledger.Transaction
	budgets      map[uuid.UUID]ledger.Budget
	seq          int
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{
		categories:   map[uuid.UUID]ledger.Category{},
		transactions: map[uuid.UUID]ledger.Transaction{},
		budgets:      map[uuid.UUID]ledger.Budget{},
	}
}

// tick returns strictly increasing creation times.
func (m *memoryStorage) tick() time.Time {
	m.seq++
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.seq) * time.Second)
}

func (m *memoryStorage) CreateCategory(_ context.Context, c *ledger.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.categories {
		if existing.UserID == c.UserID && existing.Name == c.Name {
			return ledger.ErrCategoryExists
		}
	}
	c.CreatedAt = m.tick()
	m.categories[c.ID] = *c
	return nil
}

func (m *memoryStorage) GetCategory(_ context.Context, userID, id uuid.UUID) (*ledger.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || c.UserID != userID {
		return nil, ledger.ErrCategoryNotFound
	}
	return &c, nil
}

func (m *memoryStorage) ListCategories(_ context.Context, userID uuid.UUID) ([]ledger.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ledger.Category
	for _, c := range m.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b ledger.Category) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (m *memoryStorage) DeleteCategory(_ context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || c.UserID != userID {
		return ledger.ErrCategoryNotFound
	}
	delete(m.categories, id)
	for tid, t := range m.transactions {
		if t.CategoryID != nil && *t.CategoryID == id {
			t.CategoryID = nil
			m.transactions[tid] = t
		}
	}
	for bid, b := range m.budgets {
		if b.CategoryID == id {
			delete(m.budgets, bid)
		}
	}
	return nil
}

func (m *memoryStorage) CreateTransaction(_ context.Context, t *ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.CreatedAt = m.tick()
	m.transactions[t.ID] = *t
	return nil
}

func (m *memoryStorage) GetTransaction(_ context.Context, userID, id uuid.UUID) (*ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok || t.UserID != userID {
		return nil, ledger.ErrTransactionNotFound
	}
	return &t, nil
}

func (m *memoryStorage) ListTransactions(_ context.Context, userID uuid.UUID, f ledger.TransactionFilter) ([]ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ledger.Transaction
	for _, t := range m.transactions {
		switch {
		case t.UserID != userID,
			f.From != nil && t.OccurredAt.Before(*f.From),
			f.To != nil && t.OccurredAt.After(*f.To),
			f.Kind != "" && t.Kind != f.Kind,
			f.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *f.CategoryID):
			continue
		}
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b ledger.Transaction) int {
		if c := b.OccurredAt.Compare(a.OccurredAt); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memoryStorage) DeleteTransaction(_ context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok || t.UserID != userID {
		return ledger.ErrTransactionNotFound
	}
	delete(m.transactions, id)
	return nil
}

func (m *memoryStorage) UpsertBudget(_ context.Context, b *ledger.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.tick()
	for id, existing := range m.budgets {
		if existing.UserID == b.UserID && existing.CategoryID == b.CategoryID && existing.Period == b.Period {
			existing.AmountCents = b.AmountCents
			existing.UpdatedAt = now
			m.budgets[id] = existing
			*b = existing
			return nil
		}
	}
	b.CreatedAt, b.UpdatedAt = now, now
	m.budgets[b.ID] = *b
	return nil
}

func (m *memoryStorage) ListBudgets(_ context.Context, userID uuid.UUID) ([]ledger.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ledger.Budget
	for _, b := range m.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b ledger.Budget) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (m *memoryStorage) DeleteBudget(_ context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok || b.UserID != userID {
		return ledger.ErrBudgetNotFound
	}
	delete(m.budgets, id)
	return nil
}

var testNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func newService() (*ledger.Service, *memoryStorage) {
	storage := newMemoryStorage()
	return ledger.NewService(storage, ledger.WithClock(func() time.Time { return testNow })), storage
}
