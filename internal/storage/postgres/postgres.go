// Package postgres implements the storage.Backend interface on
// GORM/PostgreSQL, composing the shared GORM backend and supplying the
// connection from viper db.* configuration.
package postgres

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hairbrush/toolpath/internal/database"
	"github.com/hairbrush/toolpath/internal/logging"
	gormstorage "github.com/hairbrush/toolpath/internal/storage/gorm"
)

// Backend wraps the GORM backend with a Postgres connection.
type Backend struct {
	*gormstorage.Backend
	log *logging.SlogManager
}

// New creates a new Postgres storage backend. The connection is deferred
// to Init so construction never blocks.
func New(logManager *logging.SlogManager) *Backend {
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			LogManager: logManager,
		}),
		log: logManager,
	}
}

// Init connects to Postgres and initializes the embedded GORM backend.
func (b *Backend) Init() error {
	dbManager := database.NewManager(zerolog.Nop())

	db, err := dbManager.GetPostgresDB()
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)

	b.SetDB(db)
	return b.Backend.Init()
}
