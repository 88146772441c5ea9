package database

import (
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

func (d *MySQLDialect) DSN(config DialectConfig) string {
	return config.URL
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	// MySQL uses ? placeholders like SQLite, no rewrite needed
	return query
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	// Configure connection pool for MySQL
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	return nil
}

func (d *MySQLDialect) CreateDocumentsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS documents (
			collection VARCHAR(64) NOT NULL,
			id VARCHAR(64) NOT NULL,
			data MEDIUMTEXT NOT NULL,
			PRIMARY KEY (collection, id)
		);
	`
}

func (d *MySQLDialect) UpsertDocumentQuery() string {
	return "INSERT INTO documents (collection, id, data) VALUES (?, ?, ?) " +
		"ON DUPLICATE KEY UPDATE data = VALUES(data)"
}

func (d *MySQLDialect) SelectDocumentForUpdateQuery() string {
	// Row lock so a concurrent merge update waits for this transaction
	// instead of overwriting it from a stale read
	return "SELECT data FROM documents WHERE collection = ? AND id = ? FOR UPDATE"
}
