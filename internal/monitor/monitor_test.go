package monitor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairbrush/toolpath/internal/config"
	"github.com/hairbrush/toolpath/internal/logging"
	"github.com/hairbrush/toolpath/internal/storage/memory"
	"github.com/hairbrush/toolpath/internal/worker"
	"github.com/hairbrush/toolpath/pkg/core"
)

func newTestService(t *testing.T) (*Service, *worker.Manager, string) {
	t.Helper()

	backend := memory.New(config.MemoryConfig{})
	require.NoError(t, backend.Init())
	t.Cleanup(func() { backend.Close() })

	manager := worker.NewManager(worker.Dependencies{
		LogManager: logging.NewSlogManager(),
		Machine:    core.DefaultMachineConfig(),
	}, backend)

	dir := t.TempDir()
	s := NewService(Dependencies{
		LogManager:    logging.NewSlogManager(),
		WorkerManager: manager,
		StatusDir:     dir,
		Interval:      10 * time.Millisecond,
	})
	return s, manager, dir
}

func TestService_StartStop(t *testing.T) {
	s, _, _ := newTestService(t)

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	// Start is idempotent while running
	require.NoError(t, s.Start())

	s.Stop()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 10*time.Millisecond)
}

func TestService_StatusLines(t *testing.T) {
	s, manager, _ := newTestService(t)

	assert.Empty(t, s.StatusLines())

	job := manager.StartAnalyze(context.Background(), "imported", "G1 X1 Y1 F300\n")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, job.Wait(ctx))

	lines := s.StatusLines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"imported"`)
	assert.Contains(t, lines[0], `"completed"`)
}

func TestService_WritesStatusFile(t *testing.T) {
	s, manager, dir := newTestService(t)

	job := manager.StartAnalyze(context.Background(), "imported", "G1 X1 Y1 F300\n")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, job.Wait(ctx))

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return s.Cycles() > 0 }, time.Second, 10*time.Millisecond)

	data, err := os.ReadFile(filepath.Join(dir, "status.txt"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "imported"))
}
