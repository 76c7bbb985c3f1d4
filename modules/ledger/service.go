package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cashlens/cashlens/pkg/logger"
	"github.com/cashlens/cashlens/pkg/sanitizer"
	"github.com/cashlens/cashlens/pkg/validator"
)

// Service implements category, transaction and budget management for the
// authenticated user.
type Service struct {
	storage Storage
	log     *slog.Logger
	now     func() time.Time
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

// WithClock overrides the default occurrence time of new transactions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates the ledger service.
func NewService(storage Storage, opts ...Option) *Service {
	s := &Service{storage: storage, log: logger.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("ledger"))
	return s
}

// CategoryParams is the input to CreateCategory.
type CategoryParams struct {
	Name string
	Kind Kind
}

func (s *Service) CreateCategory(ctx context.Context, userID uuid.UUID, p CategoryParams) (*Category, error) {
	name := sanitizer.SingleLine(p.Name)
	if err := validator.Apply(
		validator.Required("name", name),
		validator.MaxLen("name", name, 100),
		validator.OneOf("kind", p.Kind, KindIncome, KindExpense),
	); err != nil {
		return nil, err
	}

	c := &Category{ID: uuid.New(), UserID: userID, Name: name, Kind: p.Kind}
	if err := s.storage.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ListCategories(ctx context.Context, userID uuid.UUID) ([]Category, error) {
	return s.storage.ListCategories(ctx, userID)
}

// DeleteCategory removes the category. Its transactions stay, uncategorized;
// its budgets are removed with it.
func (s *Service) DeleteCategory(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.storage.DeleteCategory(ctx, userID, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "category deleted", logger.UserID(userID), slog.String("category_id", id.String()))
	return nil
}

// TransactionParams is the input to CreateTransaction. OccurredAt defaults
// to now.
type TransactionParams struct {
	Kind        Kind
	AmountCents int64
	Currency    string
	CategoryID  *uuid.UUID
	Description string
	OccurredAt  *time.Time
}

func (s *Service) CreateTransaction(ctx context.Context, userID uuid.UUID, p TransactionParams) (*Transaction, error) {
	description := sanitizer.SingleLine(p.Description)
	currency := sanitizer.UpperCode(p.Currency)
	now := s.now()
	occurredAt := now
	if p.OccurredAt != nil {
		occurredAt = *p.OccurredAt
	}

	if err := validator.Apply(
		validator.OneOf("kind", p.Kind, KindIncome, KindExpense),
		validator.Positive("amountCents", p.AmountCents),
		validator.Required("currency", currency),
		validator.ValidCurrencyCode("currency", currency),
		validator.MaxLen("description", description, 255),
		validator.NotAfter("occurredAt", occurredAt, now.Add(24*time.Hour)),
	); err != nil {
		return nil, err
	}

	if p.CategoryID != nil {
		cat, err := s.storage.GetCategory(ctx, userID, *p.CategoryID)
		if err != nil {
			return nil, err
		}
		if cat.Kind != p.Kind {
			return nil, ErrCategoryKind
		}
	}

	t := &Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		CategoryID:  p.CategoryID,
		Kind:        p.Kind,
		AmountCents: p.AmountCents,
		Currency:    currency,
		Description: description,
		OccurredAt:  occurredAt.UTC(),
	}
	if err := s.storage.CreateTransaction(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ListTransactions returns matching transactions, newest first. A zero
// limit means DefaultListLimit.
func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, f TransactionFilter) ([]Transaction, error) {
	if f.Limit == 0 {
		f.Limit = DefaultListLimit
	}
	rules := []validator.Rule{
		validator.Positive("limit", f.Limit),
		validator.Max("limit", f.Limit, MaxListLimit),
		validator.When(f.Kind != "", validator.OneOf("kind", f.Kind, KindIncome, KindExpense)),
	}
	if f.From != nil && f.To != nil {
		rules = append(rules, validator.TimeOrder("from", *f.From, *f.To))
	}
	if err := validator.Apply(rules...); err != nil {
		return nil, err
	}
	return s.storage.ListTransactions(ctx, userID, f)
}

func (s *Service) GetTransaction(ctx context.Context, userID, id uuid.UUID) (*Transaction, error) {
	return s.storage.GetTransaction(ctx, userID, id)
}

func (s *Service) DeleteTransaction(ctx context.Context, userID, id uuid.UUID) error {
	return s.storage.DeleteTransaction(ctx, userID, id)
}

// BudgetParams is the input to UpsertBudget.
type BudgetParams struct {
	CategoryID  uuid.UUID
	AmountCents int64
	Period      Period
}

// UpsertBudget creates the budget for the category and period, or updates
// its amount when one exists. Only expense categories take budgets.
func (s *Service) UpsertBudget(ctx context.Context, userID uuid.UUID, p BudgetParams) (*Budget, error) {
	if err := validator.Apply(
		validator.ValidUUID("categoryId", p.CategoryID.String()),
		validator.Positive("amountCents", p.AmountCents),
		validator.OneOf("period", p.Period, PeriodWeekly, PeriodMonthly, PeriodYearly),
	); err != nil {
		return nil, err
	}

	cat, err := s.storage.GetCategory(ctx, userID, p.CategoryID)
	if err != nil {
		return nil, err
	}
	if cat.Kind != KindExpense {
		return nil, ErrCategoryKind
	}

	b := &Budget{
		ID:          uuid.New(),
		UserID:      userID,
		CategoryID:  p.CategoryID,
		AmountCents: p.AmountCents,
		Period:      p.Period,
	}
	if err := s.storage.UpsertBudget(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) ListBudgets(ctx context.Context, userID uuid.UUID) ([]Budget, error) {
	return s.storage.ListBudgets(ctx, userID)
}

func (s *Service) DeleteBudget(ctx context.Context, userID, id uuid.UUID) error {
	return s.storage.DeleteBudget(ctx, userID, id)
}
