package database

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// PostgresDialect implements Dialect for PostgreSQL
type PostgresDialect struct{}

// NewPostgresDialect creates a new PostgreSQL dialect
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

func (d *PostgresDialect) DSN(config DialectConfig) string {
	return config.URL
}

func (d *PostgresDialect) RewriteQuery(query string) string {
	// PostgreSQL uses $1, $2, etc. instead of ?
	return rewritePlaceholdersToNumbered(query)
}

func (d *PostgresDialect) ConfigureConnection(db *sql.DB) error {
	// Configure connection pool for PostgreSQL
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	return nil
}

func (d *PostgresDialect) CreateDocumentsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			data TEXT NOT NULL,
			PRIMARY KEY (collection, id)
		);
	`
}

func (d *PostgresDialect) UpsertDocumentQuery() string {
	return "INSERT INTO documents (collection, id, data) VALUES (?, ?, ?) " +
		"ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data"
}

func (d *PostgresDialect) SelectDocumentForUpdateQuery() string {
	// Row lock so a concurrent merge update waits for this transaction
	// instead of overwriting it from a stale read
	return "SELECT data FROM documents WHERE collection = ? AND id = ? FOR UPDATE"
}
