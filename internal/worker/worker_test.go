package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairbrush/toolpath/internal/cache"
	"github.com/hairbrush/toolpath/internal/config"
	"github.com/hairbrush/toolpath/internal/dispatcher"
	"github.com/hairbrush/toolpath/internal/logging"
	"github.com/hairbrush/toolpath/internal/storage/memory"
	"github.com/hairbrush/toolpath/pkg/core"
)

func newTestManager(t *testing.T) (*Manager, *memory.Backend) {
	t.Helper()

	backend := memory.New(config.MemoryConfig{})
	require.NoError(t, backend.Init())
	t.Cleanup(func() { backend.Close() })

	m := NewManager(Dependencies{
		LogManager: logging.NewSlogManager(),
		Machine:    core.DefaultMachineConfig(),
	}, backend)
	return m, backend
}

func sampleStrokes() []core.Stroke {
	return []core.Stroke{
		{
			Brush:      core.BrushA,
			Points:     []core.XY{{X: 0, Y: 0}, {X: 100, Y: 0}},
			DrawZ:      2.0,
			Feed:       300,
			PaintAngle: 170,
		},
		{
			Brush:      core.BrushB,
			Points:     []core.XY{{X: 0, Y: 50}, {X: 100, Y: 50}},
			DrawZ:      2.0,
			Feed:       300,
			PaintAngle: 120,
		},
	}
}

func waitForJob(t *testing.T, job *Job) Status {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, job.Wait(ctx))
	return job.Status()
}

func TestStartCompile_ArchivesToolpath(t *testing.T) {
	m, backend := newTestManager(t)

	job := m.StartCompile(context.Background(), "plate_4", sampleStrokes())
	status := waitForJob(t, job)

	require.Equal(t, StateCompleted, status.State)
	assert.Equal(t, "compile", status.Kind)
	assert.Equal(t, "plate_4", status.ToolpathName)
	assert.Equal(t, 1.0, status.Progress)
	assert.Empty(t, status.Error)
	assert.False(t, status.StartedAt.IsZero())
	assert.False(t, status.FinishedAt.IsZero())

	tp, segments, err := backend.GetToolpath("plate_4")
	require.NoError(t, err)
	assert.NotEmpty(t, tp.Source)
	assert.NotEmpty(t, segments)
	assert.Greater(t, tp.Stats.DrawDistance, 0.0)
	assert.Equal(t, len(segments), tp.Segments)
}

func TestStartCompile_RecordsSessionStat(t *testing.T) {
	m, backend := newTestManager(t)

	job := m.StartCompile(context.Background(), "plate_4", sampleStrokes())
	waitForJob(t, job)

	stats := backend.SessionStats()
	require.Len(t, stats, 1)
	assert.Equal(t, "compile", stats[0].Operation)
	assert.Equal(t, "plate_4", stats[0].ToolpathName)
	assert.Greater(t, stats[0].LineCount, 0)
	assert.Greater(t, stats[0].SegmentCount, 0)
}

func TestStartCompile_InvalidStrokeFails(t *testing.T) {
	m, _ := newTestManager(t)

	strokes := sampleStrokes()
	strokes[0].PaintAngle = 400 // outside servo range

	job := m.StartCompile(context.Background(), "bad", strokes)
	status := waitForJob(t, job)

	assert.Equal(t, StateFailed, status.State)
	assert.NotEmpty(t, status.Error)
}

func TestStartAnalyze_Completes(t *testing.T) {
	m, backend := newTestManager(t)

	text := "T0\nM42 P20 S1\nG1 X0 Y0 Z2 F300\nG1 X50 Y0 F300\nM42 P20 S0\n"
	job := m.StartAnalyze(context.Background(), "imported", text)
	status := waitForJob(t, job)

	require.Equal(t, StateCompleted, status.State)
	assert.Equal(t, "analyze", status.Kind)

	tp, segments, err := backend.GetToolpath("imported")
	require.NoError(t, err)
	assert.Equal(t, text, tp.Source)
	assert.NotEmpty(t, segments)

	stats := backend.SessionStats()
	require.Len(t, stats, 1)
	assert.Equal(t, "analyze", stats[0].Operation)
}

func TestStartAnalyze_CancelledContext(t *testing.T) {
	m, backend := newTestManager(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := m.StartAnalyze(ctx, "never", "G1 X0 Y0 F300\n")
	status := waitForJob(t, job)

	assert.Equal(t, StateCancelled, status.State)
	assert.NotEmpty(t, status.Error)

	_, _, err := backend.GetToolpath("never")
	assert.ErrorIs(t, err, core.ErrToolpathNotFound)
}

func TestGetJob(t *testing.T) {
	m, _ := newTestManager(t)

	job := m.StartCompile(context.Background(), "plate_4", sampleStrokes())
	waitForJob(t, job)

	found, ok := m.GetJob(job.ID())
	require.True(t, ok)
	assert.Equal(t, job.ID(), found.ID())

	_, ok = m.GetJob("compile-999")
	assert.False(t, ok)
}

func TestListJobs(t *testing.T) {
	m, _ := newTestManager(t)

	j1 := m.StartCompile(context.Background(), "first", sampleStrokes())
	waitForJob(t, j1)
	j2 := m.StartAnalyze(context.Background(), "second", "G1 X1 Y1 F300\n")
	waitForJob(t, j2)

	statuses := m.ListJobs()
	require.Len(t, statuses, 2)
	assert.Equal(t, "first", statuses[0].ToolpathName)
	assert.Equal(t, "second", statuses[1].ToolpathName)
}

func TestGetExportedFilePath(t *testing.T) {
	backend := memory.New(config.MemoryConfig{OutputDir: t.TempDir()})
	require.NoError(t, backend.Init())
	t.Cleanup(func() { backend.Close() })

	m := NewManager(Dependencies{
		LogManager: logging.NewSlogManager(),
		Machine:    core.DefaultMachineConfig(),
	}, backend)

	job := m.StartCompile(context.Background(), "plate_4", sampleStrokes())
	waitForJob(t, job)

	assert.NotEmpty(t, m.GetExportedFilePath())
}

func TestToolpathCache_PopulatedOnArchive(t *testing.T) {
	backend := memory.New(config.MemoryConfig{})
	require.NoError(t, backend.Init())
	t.Cleanup(func() { backend.Close() })

	tpCache := cache.NewToolpathCache()
	m := NewManager(Dependencies{
		LogManager: logging.NewSlogManager(),
		Machine:    core.DefaultMachineConfig(),
		Cache:      tpCache,
	}, backend)

	job := m.StartCompile(context.Background(), "plate_4", sampleStrokes())
	waitForJob(t, job)

	e, ok := tpCache.Get("plate_4")
	require.True(t, ok)
	assert.NotEmpty(t, e.Segments)

	d, err := dispatcher.New(m.deps.LogManager.Logger())
	require.NoError(t, err)
	m.RegisterHandlers(d)

	// Served from cache even after the backend copy is gone
	require.NoError(t, backend.DeleteToolpath("plate_4"))
	result, err := d.Dispatch(dispatcher.Request{Kind: "archive:get", Args: []string{"plate_4"}})
	require.NoError(t, err)
	assert.Equal(t, "plate_4", result.(core.Toolpath).Name)

	// Dispatcher delete clears the cache entry
	_, err = d.Dispatch(dispatcher.Request{Kind: "archive:delete", Args: []string{"plate_4"}})
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		_, ok := tpCache.Get("plate_4")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

type recordingSink struct {
	mu    sync.Mutex
	stats []core.SessionStat
}

func (s *recordingSink) WriteSessionStat(ctx context.Context, stat core.SessionStat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = append(s.stats, stat)
	return nil
}

func TestTelemetrySink_ReceivesStats(t *testing.T) {
	backend := memory.New(config.MemoryConfig{})
	require.NoError(t, backend.Init())
	t.Cleanup(func() { backend.Close() })

	sink := &recordingSink{}
	m := NewManager(Dependencies{
		LogManager: logging.NewSlogManager(),
		Machine:    core.DefaultMachineConfig(),
		Telemetry:  sink,
	}, backend)

	job := m.StartCompile(context.Background(), "plate_4", sampleStrokes())
	waitForJob(t, job)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.stats, 1)
	assert.Equal(t, "compile", sink.stats[0].Operation)
}

func TestRegisterHandlers_Compile(t *testing.T) {
	m, backend := newTestManager(t)

	d, err := dispatcher.New(m.deps.LogManager.Logger())
	require.NoError(t, err)
	m.RegisterHandlers(d)

	strokesJSON, err := json.Marshal(sampleStrokes())
	require.NoError(t, err)

	result, err := d.Dispatch(dispatcher.Request{
		Kind: "compile",
		Args: []string{"plate_4", string(strokesJSON)},
	})
	require.NoError(t, err)

	jobID, ok := result.(string)
	require.True(t, ok)

	job, ok := m.GetJob(jobID)
	require.True(t, ok)
	waitForJob(t, job)

	_, _, err = backend.GetToolpath("plate_4")
	assert.NoError(t, err)
}

func TestRegisterHandlers_BadStrokesJSON(t *testing.T) {
	m, _ := newTestManager(t)

	d, err := dispatcher.New(m.deps.LogManager.Logger())
	require.NoError(t, err)
	m.RegisterHandlers(d)

	_, err = d.Dispatch(dispatcher.Request{
		Kind: "compile",
		Args: []string{"plate_4", "not json"},
	})
	assert.Error(t, err)
}

func TestRegisterHandlers_ArchiveOps(t *testing.T) {
	m, _ := newTestManager(t)

	d, err := dispatcher.New(m.deps.LogManager.Logger())
	require.NoError(t, err)
	m.RegisterHandlers(d)

	job := m.StartAnalyze(context.Background(), "imported", "G1 X1 Y1 F300\n")
	waitForJob(t, job)

	result, err := d.Dispatch(dispatcher.Request{Kind: "archive:list"})
	require.NoError(t, err)
	toolpaths, ok := result.([]core.Toolpath)
	require.True(t, ok)
	require.Len(t, toolpaths, 1)
	assert.Equal(t, "imported", toolpaths[0].Name)

	result, err = d.Dispatch(dispatcher.Request{Kind: "archive:get", Args: []string{"imported"}})
	require.NoError(t, err)
	tp, ok := result.(core.Toolpath)
	require.True(t, ok)
	assert.Equal(t, "imported", tp.Name)

	_, err = d.Dispatch(dispatcher.Request{Kind: "archive:get", Args: []string{"missing"}})
	assert.Error(t, err)
}

func TestRegisterHandlers_JobStatus(t *testing.T) {
	m, _ := newTestManager(t)

	d, err := dispatcher.New(m.deps.LogManager.Logger())
	require.NoError(t, err)
	m.RegisterHandlers(d)

	job := m.StartAnalyze(context.Background(), "imported", "G1 X1 Y1 F300\n")
	waitForJob(t, job)

	result, err := d.Dispatch(dispatcher.Request{Kind: "job:status", Args: []string{job.ID()}})
	require.NoError(t, err)
	status, ok := result.(Status)
	require.True(t, ok)
	assert.Equal(t, StateCompleted, status.State)

	result, err = d.Dispatch(dispatcher.Request{Kind: "job:status"})
	require.NoError(t, err)
	statuses, ok := result.([]Status)
	require.True(t, ok)
	assert.Len(t, statuses, 1)

	_, err = d.Dispatch(dispatcher.Request{Kind: "job:status", Args: []string{"compile-999"}})
	assert.Error(t, err)
}
