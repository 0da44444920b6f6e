// internal/storage/memory/memory.go
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/hairbrush/toolpath/internal/config"
	"github.com/hairbrush/toolpath/pkg/core"
)

// ToolpathEntry groups an archived toolpath with its reconstructed segments
type ToolpathEntry struct {
	Toolpath core.Toolpath
	Segments []core.Segment
}

// Backend stores archived toolpaths in memory and exports them to JSON
type Backend struct {
	cfg config.MemoryConfig

	toolpaths    map[string]*ToolpathEntry // keyed by Name
	sessionStats []core.SessionStat

	idCounter      uint
	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:       cfg,
		toolpaths: make(map[string]*ToolpathEntry),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// SaveToolpath archives a toolpath, assigning it an ID, and writes the
// export file when an output directory is configured. Saving under an
// existing name replaces the stored entry but keeps its ID.
func (b *Backend) SaveToolpath(tp *core.Toolpath, segments []core.Segment) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.toolpaths[tp.Name]; ok {
		tp.ID = existing.Toolpath.ID
	} else {
		b.idCounter++
		tp.ID = b.idCounter
	}
	if tp.CreatedAt.IsZero() {
		tp.CreatedAt = time.Now()
	}
	tp.Segments = len(segments)

	entry := &ToolpathEntry{
		Toolpath: *tp,
		Segments: append([]core.Segment(nil), segments...),
	}
	b.toolpaths[tp.Name] = entry

	if b.cfg.OutputDir != "" {
		return b.exportJSON(entry)
	}
	return nil
}

// GetToolpath looks up an archived toolpath by name
func (b *Backend) GetToolpath(name string) (core.Toolpath, []core.Segment, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, ok := b.toolpaths[name]
	if !ok {
		return core.Toolpath{}, nil, core.ErrToolpathNotFound
	}
	return entry.Toolpath, append([]core.Segment(nil), entry.Segments...), nil
}

// ListToolpaths returns archived toolpath summaries sorted by name
func (b *Backend) ListToolpaths() ([]core.Toolpath, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	list := make([]core.Toolpath, 0, len(b.toolpaths))
	for _, entry := range b.toolpaths {
		list = append(list, entry.Toolpath)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list, nil
}

// DeleteToolpath removes an archived toolpath by name
func (b *Backend) DeleteToolpath(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.toolpaths[name]; !ok {
		return core.ErrToolpathNotFound
	}
	delete(b.toolpaths, name)
	return nil
}

// RecordSessionStat records a compile or analyze run
func (b *Backend) RecordSessionStat(s *core.SessionStat) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessionStats = append(b.sessionStats, *s)
	return nil
}

// SessionStats returns a copy of the recorded run statistics
func (b *Backend) SessionStats() []core.SessionStat {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.SessionStat(nil), b.sessionStats...)
}

// GetExportedFilePath returns the path of the last written export file
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
