package ledger

import "errors"

var (
	ErrCategoryNotFound    = errors.New("ledger: category not found")
	ErrCategoryExists      = errors.New("ledger: category name already used")
	ErrCategoryKind        = errors.New("ledger: category kind does not match")
	ErrTransactionNotFound = errors.New("ledger: transaction not found")
	ErrBudgetNotFound      = errors.New("ledger: budget not found")
)
