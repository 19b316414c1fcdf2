// Package postgres holds the PostgreSQL specifics of the harness: the pgx
// driver registration, SQLSTATE-based error classification, catalog queries
// used to derive cleanup order, and the embedded goose migrations for the
// example schema.
package postgres
