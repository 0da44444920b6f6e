// internal/storage/factory.go
package storage

import (
	"fmt"

	"github.com/hairbrush/toolpath/internal/config"
	"github.com/hairbrush/toolpath/internal/logging"
	"github.com/hairbrush/toolpath/internal/storage/memory"
	"github.com/hairbrush/toolpath/internal/storage/postgres"
	sqlitestorage "github.com/hairbrush/toolpath/internal/storage/sqlite"
)

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, logManager *logging.SlogManager) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		return postgres.New(logManager), nil
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			DumpPath: cfg.SQLite.Path,
		}, logManager)
	case "memory":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
