package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Kind tells income from expenses.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Period is the window a budget covers.
type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// Listing limits for transactions.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Category groups transactions. Names are unique per user.
type Category struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

// Transaction is a single income or expense. AmountCents is always positive;
// Kind carries the direction.
type Transaction struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"-"`
	CategoryID  *uuid.UUID `json:"categoryId"`
	Kind        Kind       `json:"kind"`
	AmountCents int64      `json:"amountCents"`
	Currency    string     `json:"currency"`
	Description string     `json:"description"`
	OccurredAt  time.Time  `json:"occurredAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Budget caps spending in a category per period. There is at most one
// budget per category and period.
type Budget struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"-"`
	CategoryID  uuid.UUID `json:"categoryId"`
	AmountCents int64     `json:"amountCents"`
	Period      Period    `json:"period"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TransactionFilter narrows ListTransactions. Zero fields do not filter.
type TransactionFilter struct {
	From       *time.Time
	To         *time.Time
	Kind       Kind
	CategoryID *uuid.UUID
	Limit      int
}
