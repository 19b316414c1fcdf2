// Package conformance holds integration specs shared by every backend.
//
// CatalogSuite is written once and run unchanged against each configured
// target: SQLite always, Postgres when TXSPEC_POSTGRES_URL is set. Adapter
// packages can run it against their own connections with NewCatalogSuite.
package conformance
