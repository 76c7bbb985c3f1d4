package ledger

import (
	"context"

	"github.com/google/uuid"
)

// Storage persists ledger records. Every method is scoped to userID;
// records owned by someone else are reported as not found.
type Storage interface {
	CreateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, userID, id uuid.UUID) (*Category, error)
	ListCategories(ctx context.Context, userID uuid.UUID) ([]Category, error)
	DeleteCategory(ctx context.Context, userID, id uuid.UUID) error

	CreateTransaction(ctx context.Context, t *Transaction) error
	GetTransaction(ctx context.Context, userID, id uuid.UUID) (*Transaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, filter TransactionFilter) ([]Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id uuid.UUID) error

	// UpsertBudget inserts b or updates the amount of the existing budget for
	// the same category and period, filling b with the stored row.
	UpsertBudget(ctx context.Context, b *Budget) error
	ListBudgets(ctx context.Context, userID uuid.UUID) ([]Budget, error)
	DeleteBudget(ctx context.Context, userID, id uuid.UUID) error
}
