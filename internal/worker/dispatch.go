package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hairbrush/toolpath/internal/dispatcher"
	"github.com/hairbrush/toolpath/pkg/core"
)

// RegisterHandlers registers all job-kind handlers with the dispatcher.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Job starts - sync (caller gets the job ID back immediately)
	d.Register("compile", m.handleCompile, dispatcher.Logged())
	d.Register("analyze", m.handleAnalyze, dispatcher.Logged())

	// Job control - sync
	d.Register("job:status", m.handleJobStatus)
	d.Register("job:cancel", m.handleJobCancel, dispatcher.Logged())

	// Archive queries - sync
	d.Register("archive:list", m.handleArchiveList, dispatcher.Logged())
	d.Register("archive:get", m.handleArchiveGet, dispatcher.Logged())

	// Archive deletes - buffered
	d.Register("archive:delete", m.handleArchiveDelete, dispatcher.Buffered(100), dispatcher.Logged())
}

// handleCompile starts a compile job. Args: toolpath name, strokes as
// a JSON array.
func (m *Manager) handleCompile(r dispatcher.Request) (any, error) {
	if len(r.Args) < 2 {
		return nil, fmt.Errorf("compile expects name and strokes, got %d args", len(r.Args))
	}

	var strokes []core.Stroke
	if err := json.Unmarshal([]byte(r.Args[1]), &strokes); err != nil {
		return nil, fmt.Errorf("failed to decode strokes: %w", err)
	}

	job := m.StartCompile(context.Background(), r.Args[0], strokes)
	return job.ID(), nil
}

// handleAnalyze starts an analyze job. Args: toolpath name, wire text.
func (m *Manager) handleAnalyze(r dispatcher.Request) (any, error) {
	if len(r.Args) < 2 {
		return nil, fmt.Errorf("analyze expects name and text, got %d args", len(r.Args))
	}

	job := m.StartAnalyze(context.Background(), r.Args[0], r.Args[1])
	return job.ID(), nil
}

func (m *Manager) handleJobStatus(r dispatcher.Request) (any, error) {
	if len(r.Args) == 0 {
		return m.ListJobs(), nil
	}

	job, ok := m.GetJob(r.Args[0])
	if !ok {
		return nil, fmt.Errorf("unknown job: %s", r.Args[0])
	}
	return job.Status(), nil
}

func (m *Manager) handleJobCancel(r dispatcher.Request) (any, error) {
	if len(r.Args) == 0 {
		return nil, fmt.Errorf("cancel expects a job ID")
	}

	job, ok := m.GetJob(r.Args[0])
	if !ok {
		return nil, fmt.Errorf("unknown job: %s", r.Args[0])
	}

	job.Cancel()
	return "cancelling", nil
}

func (m *Manager) handleArchiveList(r dispatcher.Request) (any, error) {
	toolpaths, err := m.backend.ListToolpaths()
	if err != nil {
		return nil, fmt.Errorf("failed to list toolpaths: %w", err)
	}
	return toolpaths, nil
}

func (m *Manager) handleArchiveGet(r dispatcher.Request) (any, error) {
	if len(r.Args) == 0 {
		return nil, fmt.Errorf("get expects a toolpath name")
	}

	if m.deps.Cache != nil {
		if e, ok := m.deps.Cache.Get(r.Args[0]); ok {
			return e.Toolpath, nil
		}
	}

	tp, segments, err := m.backend.GetToolpath(r.Args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get toolpath %q: %w", r.Args[0], err)
	}
	if m.deps.Cache != nil {
		m.deps.Cache.Add(tp, segments)
	}
	return tp, nil
}

func (m *Manager) handleArchiveDelete(r dispatcher.Request) (any, error) {
	if len(r.Args) == 0 {
		return nil, fmt.Errorf("delete expects a toolpath name")
	}

	if m.deps.Cache != nil {
		m.deps.Cache.Remove(r.Args[0])
	}
	if err := m.backend.DeleteToolpath(r.Args[0]); err != nil {
		return nil, fmt.Errorf("failed to delete toolpath %q: %w", r.Args[0], err)
	}
	return "deleted", nil
}
