// Package testdb provides utilities for PostgreSQL integration tests: locating
// the test database, applying the embedded migrations and isolating test
// writes in transactions that are always rolled back.
//
// Tests using this package should carry the integration build tag and will be
// skipped when no database URL is configured.
package testdb
