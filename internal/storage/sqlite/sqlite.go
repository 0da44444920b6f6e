// Package sqlitestorage implements the storage.Backend interface using an
// in-memory SQLite database with periodic disk dumps via VACUUM INTO.
// It wraps the GORM backend via composition — the only SQLite-specific
// concerns are (a) creating the in-memory DB and (b) the periodic dump.
package sqlitestorage

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hairbrush/toolpath/internal/database"
	"github.com/hairbrush/toolpath/internal/logging"
	gormstorage "github.com/hairbrush/toolpath/internal/storage/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DumpInterval time.Duration
	DumpPath     string // Path for periodic VACUUM INTO dumps
}

const defaultDumpInterval = 30 * time.Second

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	dbManager *database.Manager
	cfg       Config
	log       *logging.SlogManager
	stopChan  chan struct{}
}

// New creates a new SQLite storage backend.
func New(cfg Config, logManager *logging.SlogManager) (*Backend, error) {
	if cfg.DumpInterval <= 0 {
		cfg.DumpInterval = defaultDumpInterval
	}

	dbManager := database.NewManager(zerolog.Nop())
	dbManager.SqliteFilePath = cfg.DumpPath

	db, err := dbManager.GetSqliteDB("")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}
	dbManager.DB = db

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:         db,
		LogManager: logManager,
	})

	return &Backend{
		Backend:   gormBackend,
		dbManager: dbManager,
		cfg:       cfg,
		log:       logManager,
		stopChan:  make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		go b.dumpLoop()
	}

	return nil
}

// Close stops the dump goroutine, writes a final disk dump, and closes
// the embedded GORM backend.
func (b *Backend) Close() error {
	close(b.stopChan)

	err := b.Backend.Close()

	if b.cfg.DumpPath != "" {
		if dumpErr := b.dbManager.DumpMemoryToDisk(); dumpErr != nil {
			b.log.WriteLog("sqlite:Close", fmt.Sprintf("Error writing final dump: %v", dumpErr), "ERROR")
		}
	}
	return err
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via
// VACUUM INTO. VACUUM INTO creates a point-in-time snapshot, so no pause
// mechanism is needed.
func (b *Backend) dumpLoop() {
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := b.dbManager.DumpMemoryToDisk(); err != nil {
				b.log.WriteLog("sqlite:dumpLoop", fmt.Sprintf("Error dumping to disk: %v", err), "ERROR")
			} else {
				b.log.WriteLog("sqlite:dumpLoop", fmt.Sprintf("Dumped to disk in %s", time.Since(start)), "DEBUG")
			}
		}
	}
}
