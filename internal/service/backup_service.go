package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"paperpile/internal/database"
)

// BackupData represents the complete document store backup structure
type BackupData struct {
	Version    string         `json:"version"`
	ExportedAt time.Time      `json:"exported_at"`
	Records    []RecordBackup `json:"records"`
}

// RecordBackup is one stored record: its collection, id and raw JSON body
type RecordBackup struct {
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	Data       json.RawMessage `json:"data"`
}

// BackupService exports and imports the SQL document store as JSON
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export writes every stored record to a JSON file
func (s *BackupService) Export(outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(file); err != nil {
		return err
	}

	log.Printf("Backup exported to %s", outputPath)
	return nil
}

// ExportToWriter writes the backup JSON to a writer
func (s *BackupService) ExportToWriter(w io.Writer) error {
	backup := BackupData{
		Version:    "1",
		ExportedAt: time.Now().UTC(),
	}

	rows, err := s.db.Query("SELECT collection, id, data FROM documents ORDER BY collection, id")
	if err != nil {
		return fmt.Errorf("failed to read documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var record RecordBackup
		var raw []byte
		if err := rows.Scan(&record.Collection, &record.ID, &raw); err != nil {
			return fmt.Errorf("failed to scan record: %w", err)
		}
		record.Data = json.RawMessage(raw)
		backup.Records = append(backup.Records, record)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read records: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Exported %d records", len(backup.Records))
	return nil
}

// Import loads records from a JSON backup file. When clear is true the
// store is emptied first.
func (s *BackupService) Import(inputPath string, clear bool) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file, clear)
}

// ImportFromReader loads records from backup JSON
func (s *BackupService) ImportFromReader(reader io.Reader, clear bool) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if clear {
		if _, err := tx.Exec("DELETE FROM documents"); err != nil {
			return fmt.Errorf("failed to clear documents: %w", err)
		}
	}

	query := s.db.Dialect.UpsertDocumentQuery()
	for _, record := range backup.Records {
		if _, err := tx.Exec(query, record.Collection, record.ID, string(record.Data)); err != nil {
			return fmt.Errorf("failed to import record %s/%s: %w", record.Collection, record.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Imported %d records (exported at %s)", len(backup.Records), backup.ExportedAt.Format(time.RFC3339))
	return nil
}
