package storage

import (
	"fmt"

	"hoard-go/internal/config"
	"hoard-go/internal/hoard"
)

// NewStoreFromConfig creates a ContentStore implementation based on the storage config type.
func NewStoreFromConfig(cfg config.StorageConfig) (hoard.ContentStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "filesystem":
		if cfg.FileRoot == "" || cfg.ThumbnailRoot == "" {
			return nil, fmt.Errorf("filesystem storage requires file_root and thumbnail_root to be set")
		}
		store, err := NewFileSystemStore(cfg.FileRoot, cfg.ThumbnailRoot)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
