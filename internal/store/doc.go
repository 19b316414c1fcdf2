// Package store defines the persistence abstractions shared by the harness:
// the DBTX query surface, transaction scopes that commit or always roll back,
// schema metadata used by cleanup ordering, and the store interfaces of the
// example catalog schema.
package store
