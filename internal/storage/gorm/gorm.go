// Package gormstorage implements the storage.Backend interface on top of
// a GORM database handle, with session stats batched through an internal
// queue and a background writer goroutine. The SQLite and Postgres
// backends compose it and supply the connection.
package gormstorage

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hairbrush/toolpath/internal/logging"
	"github.com/hairbrush/toolpath/internal/model"
	"github.com/hairbrush/toolpath/internal/queue"
	"github.com/hairbrush/toolpath/pkg/core"
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB         *gorm.DB
	LogManager *logging.SlogManager
}

// Backend implements storage.Backend using GORM with queue-based stat writes.
type Backend struct {
	deps     Dependencies
	stats    *queue.Queue[model.SessionStat]
	stopChan chan struct{}
	dbReady  bool
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	return &Backend{
		deps: deps,
	}
}

// SetDB injects the database handle. Used by backends that defer the
// connection to Init.
func (b *Backend) SetDB(db *gorm.DB) {
	b.deps.DB = db
}

// Init runs schema migration and starts the stat writer goroutine.
func (b *Backend) Init() error {
	b.stats = queue.New[model.SessionStat]()
	b.stopChan = make(chan struct{})

	if b.deps.DB == nil {
		return fmt.Errorf("no database handle provided")
	}

	if err := b.setupDB(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.dbReady = true

	b.startStatWriter()
	return nil
}

// setupDB migrates the archive schema.
func (b *Backend) setupDB() error {
	log := b.deps.LogManager

	log.WriteLog("setupDB", "Migrating schema", "INFO")
	if err := b.deps.DB.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.WriteLog("setupDB", "Database setup complete", "INFO")
	return nil
}

// Close flushes pending session stats and stops the writer goroutine.
func (b *Backend) Close() error {
	if b.stopChan != nil {
		close(b.stopChan)
	}
	if b.stats != nil {
		b.flushStats()
	}
	return nil
}

// SaveToolpath inserts or replaces an archived toolpath by name. Replaced
// entries keep their database ID; old segments are removed first so the
// segment list always matches the saved toolpath.
func (b *Backend) SaveToolpath(tp *core.Toolpath, segments []core.Segment) error {
	if tp.CreatedAt.IsZero() {
		tp.CreatedAt = time.Now()
	}
	tp.Segments = len(segments)

	rec, err := model.FromToolpath(*tp, segments)
	if err != nil {
		return fmt.Errorf("failed to convert toolpath: %w", err)
	}

	var existing model.ToolpathRecord
	err = b.deps.DB.Where("name = ?", tp.Name).First(&existing).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		rec.ID = 0
		if err := b.deps.DB.Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to insert toolpath: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to look up toolpath: %w", err)
	default:
		rec.ID = existing.ID
		if err := b.deps.DB.Where("toolpath_record_id = ?", existing.ID).
			Delete(&model.SegmentRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear old segments: %w", err)
		}
		if err := b.deps.DB.Session(&gorm.Session{FullSaveAssociations: true}).
			Save(&rec).Error; err != nil {
			return fmt.Errorf("failed to update toolpath: %w", err)
		}
	}

	tp.ID = rec.ID
	return nil
}

// GetToolpath loads an archived toolpath and its segments by name.
func (b *Backend) GetToolpath(name string) (core.Toolpath, []core.Segment, error) {
	var rec model.ToolpathRecord
	err := b.deps.DB.Preload("Segments", func(db *gorm.DB) *gorm.DB {
		return db.Order("seq ASC")
	}).Where("name = ?", name).First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return core.Toolpath{}, nil, core.ErrToolpathNotFound
	}
	if err != nil {
		return core.Toolpath{}, nil, fmt.Errorf("failed to load toolpath: %w", err)
	}
	return rec.ToToolpath()
}

// ListToolpaths returns archived toolpath summaries sorted by name,
// without loading sources or segments.
func (b *Backend) ListToolpaths() ([]core.Toolpath, error) {
	var recs []model.ToolpathRecord
	if err := b.deps.DB.Omit("Source").Order("name ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list toolpaths: %w", err)
	}

	list := make([]core.Toolpath, 0, len(recs))
	for i := range recs {
		tp, _, err := recs[i].ToToolpath()
		if err != nil {
			return nil, err
		}

		var segmentCount int64
		b.deps.DB.Model(&model.SegmentRecord{}).
			Where("toolpath_record_id = ?", recs[i].ID).Count(&segmentCount)
		tp.Segments = int(segmentCount)

		list = append(list, tp)
	}
	return list, nil
}

// DeleteToolpath removes an archived toolpath and its segments by name.
func (b *Backend) DeleteToolpath(name string) error {
	var rec model.ToolpathRecord
	err := b.deps.DB.Where("name = ?", name).First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return core.ErrToolpathNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up toolpath: %w", err)
	}

	if err := b.deps.DB.Where("toolpath_record_id = ?", rec.ID).
		Delete(&model.SegmentRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete segments: %w", err)
	}
	if err := b.deps.DB.Unscoped().Delete(&rec).Error; err != nil {
		return fmt.Errorf("failed to delete toolpath: %w", err)
	}
	return nil
}

// RecordSessionStat queues a session stat for the background writer.
func (b *Backend) RecordSessionStat(s *core.SessionStat) error {
	b.stats.Push(model.FromSessionStat(*s))
	return nil
}

// flushStats writes all queued session stats in one transaction.
func (b *Backend) flushStats() {
	if b.stats.Empty() {
		return
	}

	tx := b.deps.DB.Begin()
	items := b.stats.GetAndEmpty()
	if err := tx.Create(&items).Error; err != nil {
		b.deps.LogManager.WriteLog("statWriter",
			fmt.Sprintf("Error creating session stats: %v", err), "ERROR")
		tx.Rollback()
		b.stats.Push(items...)
		return
	}
	tx.Commit()
}

// startStatWriter starts the background goroutine that periodically
// drains the stat queue into the DB.
func (b *Backend) startStatWriter() {
	go func() {
		for {
			select {
			case <-b.stopChan:
				return
			default:
			}

			if !b.dbReady {
				time.Sleep(1 * time.Second)
				continue
			}

			b.flushStats()
			time.Sleep(2 * time.Second)
		}
	}()
}
