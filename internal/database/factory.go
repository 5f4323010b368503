package database

import (
	"fmt"
	"os"
	"path/filepath"

	"hoard-go/internal/config"
	"hoard-go/internal/hoard"
)

// FileName is the name of the archive database inside data_dir.
const FileName = "hoard.db"

// NewDatabaseFromConfig creates a Database implementation based on the database config type.
func NewDatabaseFromConfig(cfg config.DatabaseConfig) (hoard.Database, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return openSQLite(filepath.Join(cfg.DataDir, FileName))
	case "memory":
		return openSQLite(":memory:")
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}

// openSQLite keeps a failed open from leaking a typed nil into the interface.
func openSQLite(path string) (hoard.Database, error) {
	db, err := NewSQLiteDatabase(path)
	if err != nil {
		return nil, err
	}
	return db, nil
}
