// Package sqlite holds the SQLite specifics of the harness: the mattn
// go-sqlite3 driver registration, DSN normalization with foreign key
// enforcement, extended-code error classification, schema introspection and
// the embedded goose migrations for the example schema.
//
// SQLite only enforces foreign keys when the connection asks for it, so every
// DSN built here carries _foreign_keys unless the caller opts out.
package sqlite
