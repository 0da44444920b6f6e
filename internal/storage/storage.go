// internal/storage/storage.go
package storage

import "github.com/hairbrush/toolpath/pkg/core"

// Backend is the interface all archive storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Toolpath archive (SaveToolpath assigns the ID to the passed pointer)
	SaveToolpath(tp *core.Toolpath, segments []core.Segment) error
	GetToolpath(name string) (core.Toolpath, []core.Segment, error)
	ListToolpaths() ([]core.Toolpath, error)
	DeleteToolpath(name string) error

	// Run statistics
	RecordSessionStat(s *core.SessionStat) error
}

// Exportable is an optional interface for storage backends that write
// archive files to disk.
type Exportable interface {
	GetExportedFilePath() string
}
