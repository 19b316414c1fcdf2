// Package config handles configuration loading, parsing, and validation
// from environment variables, an optional .env file, and an optional config
// file. The file form exists for targets whose connection settings cannot be
// expressed as a single connection string.
package config
