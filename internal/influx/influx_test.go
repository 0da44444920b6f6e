package influx

import (
	"compress/gzip"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairbrush/toolpath/pkg/core"
)

func sampleStat() core.SessionStat {
	return core.SessionStat{
		Time:         time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC),
		Operation:    "compile",
		ToolpathName: "plate_4",
		LineCount:    1200,
		SegmentCount: 340,
		Duration:     35 * time.Millisecond,
		Stats: core.ToolpathStats{
			TotalDistance:  240.5,
			DrawDistance:   180.25,
			TravelDistance: 60.25,
			LayerCount:     2,
			MoveCount:      340,
		},
	}
}

func TestSessionStatPoint(t *testing.T) {
	p := SessionStatPoint(sampleStat())

	line := influxdb2_write.PointToLineProtocol(p, time.Nanosecond)

	assert.True(t, strings.HasPrefix(line, "toolpath_session,"), "line: %s", line)
	assert.Contains(t, line, "operation=compile")
	assert.Contains(t, line, "toolpath=plate_4")
	assert.Contains(t, line, "line_count=1200i")
	assert.Contains(t, line, "segment_count=340i")
	assert.Contains(t, line, "duration_ms=35")
	assert.Contains(t, line, "draw_distance_mm=180.25")
}

func TestWritePoint_BackupWriter(t *testing.T) {
	backupPath := t.TempDir() + "/backup.lp.gz"
	file, err := os.OpenFile(backupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	require.NoError(t, err)

	m := NewManager(zerolog.Nop(), backupPath)
	m.BackupWriter = gzip.NewWriter(file)

	err = m.WritePoint(context.Background(), "toolpath_sessions", SessionStatPoint(sampleStat()))
	require.NoError(t, err)

	require.NoError(t, m.BackupWriter.Close())
	require.NoError(t, file.Close())

	// Read back the gzipped line protocol
	raw, err := os.Open(backupPath)
	require.NoError(t, err)
	defer raw.Close()

	zr, err := gzip.NewReader(raw)
	require.NoError(t, err)
	defer zr.Close()

	buf := make([]byte, 4096)
	n, _ := zr.Read(buf)
	content := string(buf[:n])

	assert.Contains(t, content, "toolpath_session,")
	assert.Contains(t, content, "toolpath=plate_4")
}

func TestWritePoint_NoClientNoBackup(t *testing.T) {
	m := NewManager(zerolog.Nop(), "")

	err := m.WritePoint(context.Background(), "toolpath_sessions", SessionStatPoint(sampleStat()))
	assert.Error(t, err)
}

func TestWritePoint_UnknownBucket(t *testing.T) {
	m := NewManager(zerolog.Nop(), "")
	m.IsValid = true

	err := m.WritePoint(context.Background(), "nope", SessionStatPoint(sampleStat()))
	assert.Error(t, err)
}
