// Package database opens connections to harness targets and applies the
// example schema to them.
//
// A Dialect names the database family behind a target and routes the small
// set of dialect-specific concerns (driver name, placeholder style,
// identifier quoting, error classification, schema introspection and
// migrations) to the postgres and sqlite packages. It is deliberately not a
// query builder.
package database
