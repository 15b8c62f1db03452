package store

import (
	"fmt"
	"path/filepath"

	"taleloom/internal/config"
	"taleloom/internal/tale"
)

// NewStoreFromConfig creates a Store implementation based on the store config type.
func NewStoreFromConfig(cfg config.StoreConfig) (tale.Store, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite store")
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, "taleloom.db"))
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
