// Package catalog implements the artist and album stores of the example
// schema on top of database/sql.
//
// The stores accept any store.DBTX, so the same code runs on a pool, inside a
// committed transaction (seeding) or inside a rolled-back test transaction.
// Queries are written with ? placeholders and rebound per dialect.
package catalog
