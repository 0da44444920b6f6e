// Package worker runs compile and analyze jobs on background
// goroutines with progress tracking and cancellation.
package worker

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hairbrush/toolpath/internal/cache"
	"github.com/hairbrush/toolpath/internal/compiler"
	"github.com/hairbrush/toolpath/internal/logging"
	"github.com/hairbrush/toolpath/internal/parser"
	"github.com/hairbrush/toolpath/internal/storage"
	"github.com/hairbrush/toolpath/pkg/core"
)

// parseChunkLines is how many lines a job processes between progress
// updates and cancellation checks.
const parseChunkLines = 500

// StatSink receives session stats for external telemetry. Optional.
type StatSink interface {
	WriteSessionStat(ctx context.Context, stat core.SessionStat) error
}

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	LogManager *logging.SlogManager
	Machine    core.MachineConfig
	Cache      *cache.ToolpathCache
	Telemetry  StatSink
}

// Manager manages background jobs against a storage backend.
type Manager struct {
	deps    Dependencies
	backend storage.Backend

	mu     sync.RWMutex
	jobs   map[string]*Job
	nextID int
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	return &Manager{
		deps:    deps,
		backend: backend,
		jobs:    make(map[string]*Job),
	}
}

// StartCompile compiles strokes to wire text on a background
// goroutine, archives the result under name, and records a session
// stat. The returned job is already registered and running.
func (m *Manager) StartCompile(ctx context.Context, name string, strokes []core.Stroke) *Job {
	job := m.newJob("compile", name)
	jobCtx, cancel := context.WithCancel(ctx)
	job.cancel = cancel

	go func() {
		defer cancel()
		job.start()

		text, err := compiler.CompileText(strokes, m.deps.Machine)
		if err != nil {
			job.finish(fmt.Errorf("compiling %q: %w", name, err))
			return
		}

		job.finish(m.parseAndArchive(jobCtx, job, name, text))
	}()

	return job
}

// StartAnalyze parses wire text on a background goroutine, archives
// the reconstruction under name, and records a session stat.
func (m *Manager) StartAnalyze(ctx context.Context, name, text string) *Job {
	job := m.newJob("analyze", name)
	jobCtx, cancel := context.WithCancel(ctx)
	job.cancel = cancel

	go func() {
		defer cancel()
		job.start()
		job.finish(m.parseAndArchive(jobCtx, job, name, text))
	}()

	return job
}

// GetJob returns the job with the given ID.
func (m *Manager) GetJob(id string) (*Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	return j, ok
}

// ListJobs returns snapshots of all known jobs, ordered by ID.
func (m *Manager) ListJobs() []Status {
	m.mu.RLock()
	statuses := make([]Status, 0, len(m.jobs))
	for _, j := range m.jobs {
		statuses = append(statuses, j.Status())
	}
	m.mu.RUnlock()

	sort.Slice(statuses, func(i, k int) bool { return statuses[i].ID < statuses[k].ID })
	return statuses
}

// ExportedFilePathProvider is an optional interface that backends can
// implement to expose where they last exported a toolpath.
type ExportedFilePathProvider interface {
	GetExportedFilePath() string
}

// GetExportedFilePath returns the path of the backend's last export.
// Returns "" if the backend doesn't export files.
func (m *Manager) GetExportedFilePath() string {
	if p, ok := m.backend.(ExportedFilePathProvider); ok {
		return p.GetExportedFilePath()
	}
	return ""
}

func (m *Manager) newJob(kind, name string) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	job := &Job{
		id:           fmt.Sprintf("%s-%d", kind, m.nextID),
		kind:         kind,
		toolpathName: name,
		state:        StateReady,
		done:         make(chan struct{}),
	}
	m.jobs[job.id] = job
	return job
}

// parseAndArchive is the shared tail of both job kinds: chunked parse
// with progress, archive, session stat.
func (m *Manager) parseAndArchive(ctx context.Context, job *Job, name, text string) error {
	start := time.Now()
	lines := strings.Split(text, "\n")
	job.setTotal(len(lines))

	session := parser.NewSession()
	for i, line := range lines {
		if i%parseChunkLines == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		session.ProcessLine(line)
		if (i+1)%parseChunkLines == 0 {
			job.setProgress(i + 1)
		}
	}
	job.setProgress(len(lines))

	segments := session.Segments()
	stats := session.Stats()

	tp := core.Toolpath{
		Name:   name,
		Source: text,
		Stats:  stats,
	}
	if err := m.backend.SaveToolpath(&tp, segments); err != nil {
		return fmt.Errorf("archiving %q: %w", name, err)
	}
	if m.deps.Cache != nil {
		m.deps.Cache.Add(tp, segments)
	}

	stat := core.SessionStat{
		Time:         time.Now(),
		Operation:    job.kind,
		ToolpathName: name,
		LineCount:    len(lines),
		SegmentCount: len(segments),
		Duration:     time.Since(start),
		Stats:        stats,
	}
	if err := m.backend.RecordSessionStat(&stat); err != nil {
		m.deps.LogManager.Logger().Error("failed to record session stat",
			"toolpath", name, "operation", job.kind, "error", err)
	}
	if m.deps.Telemetry != nil {
		if err := m.deps.Telemetry.WriteSessionStat(ctx, stat); err != nil {
			m.deps.LogManager.Logger().Error("failed to ship session stat",
				"toolpath", name, "operation", job.kind, "error", err)
		}
	}

	m.deps.LogManager.Logger().Info("job finished",
		"job", job.id, "toolpath", name, "lines", len(lines), "segments", len(segments))

	return nil
}
