// Package ledger records income and expenses, organizes them by category
// and keeps per-category budgets.
//
// All operations are scoped to the authenticated user: ids owned by another
// user behave exactly like ids that do not exist. Amounts are integer cents
// with an ISO 4217 currency code; the sign lives in Kind.
package ledger
