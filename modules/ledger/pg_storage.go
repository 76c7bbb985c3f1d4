package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cashlens/cashlens/pkg/pg"
)

const (
	categoryNameConstraint = "categories_user_name_key"
	budgetPeriodConstraint = "budgets_user_category_period_key"

	categoryColumns    = `id, user_id, name, kind, created_at`
	transactionColumns = `id, user_id, category_id, kind, amount_cents, currency, description, occurred_at, created_at`
	budgetColumns      = `id, user_id, category_id, amount_cents, period, created_at, updated_at`
)

// PGStorage stores the ledger in Postgres.
type PGStorage struct {
	db pg.DBTX
}

// NewPGStorage creates a Postgres-backed Storage.
func NewPGStorage(db pg.DBTX) *PGStorage {
	return &PGStorage{db: db}
}

func (s *PGStorage) CreateCategory(ctx context.Context, c *Category) error {
	err := s.db.QueryRow(ctx, `
INSERT INTO categories (id, user_id, name, kind)
VALUES ($1, $2, $3, $4)
RETURNING created_at`, c.ID, c.UserID, c.Name, c.Kind).Scan(&c.CreatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) && pg.ConstraintName(err) == categoryNameConstraint {
			return ErrCategoryExists
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (s *PGStorage) GetCategory(ctx context.Context, userID, id uuid.UUID) (*Category, error) {
	row := s.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 AND id = $2`, userID, id)
	c, err := scanCategory(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("load category: %w", err)
	}
	return &c, nil
}

func (s *PGStorage) ListCategories(ctx context.Context, userID uuid.UUID) ([]Category, error) {
	rows, err := s.db.Query(ctx, `SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Category, error) {
		return scanCategory(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (s *PGStorage) DeleteCategory(ctx context.Context, userID, id uuid.UUID) error {
	return deleteOwned(ctx, s.db, "categories", userID, id, ErrCategoryNotFound)
}

func (s *PGStorage) CreateTransaction(ctx context.Context, t *Transaction) error {
	err := s.db.QueryRow(ctx, `
INSERT INTO transactions (id, user_id, category_id, kind, amount_cents, currency, description, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING created_at`,
		t.ID, t.UserID, t.CategoryID, t.Kind, t.AmountCents, t.Currency, t.Description, t.OccurredAt,
	).Scan(&t.CreatedAt)
	if err != nil {
		if pg.IsForeignKeyViolationError(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *PGStorage) GetTransaction(ctx context.Context, userID, id uuid.UUID) (*Transaction, error) {
	row := s.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE user_id = $1 AND id = $2`, userID, id)
	t, err := scanTransaction(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("load transaction: %w", err)
	}
	return &t, nil
}

func (s *PGStorage) ListTransactions(ctx context.Context, userID uuid.UUID, f TransactionFilter) ([]Transaction, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.From != nil {
		add("occurred_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("occurred_at <= $%d", *f.To)
	}
	if f.Kind != "" {
		add("kind = $%d", f.Kind)
	}
	if f.CategoryID != nil {
		add("category_id = $%d", *f.CategoryID)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY occurred_at DESC, created_at DESC LIMIT ` + strconv.Itoa(f.Limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Transaction, error) {
		return scanTransaction(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (s *PGStorage) DeleteTransaction(ctx context.Context, userID, id uuid.UUID) error {
	return deleteOwned(ctx, s.db, "transactions", userID, id, ErrTransactionNotFound)
}

func (s *PGStorage) UpsertBudget(ctx context.Context, b *Budget) error {
	row := s.db.QueryRow(ctx, `
INSERT INTO budgets (id, user_id, category_id, amount_cents, period)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT ON CONSTRAINT `+budgetPeriodConstraint+`
DO UPDATE SET amount_cents = EXCLUDED.amount_cents, updated_at = now()
RETURNING `+budgetColumns,
		b.ID, b.UserID, b.CategoryID, b.AmountCents, b.Period)
	stored, err := scanBudget(row)
	if err != nil {
		if pg.IsForeignKeyViolationError(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("upsert budget: %w", err)
	}
	*b = stored
	return nil
}

func (s *PGStorage) ListBudgets(ctx context.Context, userID uuid.UUID) ([]Budget, error) {
	rows, err := s.db.Query(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Budget, error) {
		return scanBudget(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return out, nil
}

func (s *PGStorage) DeleteBudget(ctx context.Context, userID, id uuid.UUID) error {
	return deleteOwned(ctx, s.db, "budgets", userID, id, ErrBudgetNotFound)
}

// deleteOwned removes the row only when it belongs to userID.
func deleteOwned(ctx context.Context, db pg.DBTX, table string, userID, id uuid.UUID, notFound error) error {
	tag, err := db.Exec(ctx, `DELETE FROM `+table+` WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Kind, &c.CreatedAt)
	return c, err
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.CategoryID, &t.Kind, &t.AmountCents,
		&t.Currency, &t.Description, &t.OccurredAt, &t.CreatedAt)
	return t, err
}

func scanBudget(row pgx.Row) (Budget, error) {
	var b Budget
	err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.AmountCents, &b.Period, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}
