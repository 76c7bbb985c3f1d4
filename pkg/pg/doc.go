// Package pg wires github.com/jackc/pgx/v5 pools for CashLens storages:
// connection with retry, readiness probe, transaction helper, embedded goose
// migrations and classification of Postgres errors.
package pg
