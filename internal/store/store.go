// Package store handles the JSON files the pipeline works against: the email
// database, the categorization rules, and the AI feature settings. All three
// live in the working directory under fixed names unless overridden by config.
package store

import (
	"encoding/json"
	"fmt"
	"os"
)

// Default working-directory filenames.
const (
	DefaultDatabasePath = "database.json"
	DefaultRulesPath    = "template.json"
	DefaultSettingsPath = "AI_settings.json"
)

// Database is the persisted email collection. Read once at batch start,
// written once at batch end.
type Database struct {
	Emails   []*Email `json:"emails"`
	LastSync string   `json:"lastSync,omitempty"`
}

// Load reads the email database. A missing or unparseable file is an error;
// callers treat it as fatal for a batch run.
func Load(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read database: %w", err)
	}
	var db Database
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("failed to parse database: %w", err)
	}
	return &db, nil
}

// Save writes the full database back, pretty-printed like the original files
// so the store stays diffable.
func (db *Database) Save(path string) error {
	data, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize database: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write database: %w", err)
	}
	return nil
}

// Find returns the email with the given id, or nil.
func (db *Database) Find(id string) *Email {
	for _, e := range db.Emails {
		if e.ID == id {
			return e
		}
	}
	return nil
}
