// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package.
// It handles the details of schema migrations, query execution, and data
// mapping between domain entities and database records. Trips are stored as
// JSONB documents so the itinerary shape can evolve without schema changes.
package postgres
