// internal/storage/memory/export_test.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hairbrush/toolpath/internal/config"
	"github.com/hairbrush/toolpath/pkg/core"
)

func TestBuildExport(t *testing.T) {
	tp, segs := sampleEntry("export-me")
	tp.CreatedAt = time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

	export := buildExport(&ToolpathEntry{Toolpath: *tp, Segments: segs})

	if export.Name != "export-me" {
		t.Errorf("expected name export-me, got %s", export.Name)
	}
	if export.Source != tp.Source {
		t.Error("source not carried into export")
	}
	if len(export.Segments) != 2 {
		t.Errorf("expected 2 segments, got %d", len(export.Segments))
	}
	// One contiguous drawing run in sampleEntry
	if len(export.DrawingPaths) != 1 {
		t.Fatalf("expected 1 drawing path, got %d", len(export.DrawingPaths))
	}
	if !strings.HasPrefix(export.DrawingPaths[0], "LINESTRING") {
		t.Errorf("expected WKT linestring, got %q", export.DrawingPaths[0])
	}
}

func TestBuildExport_NoDrawing(t *testing.T) {
	tp, _ := sampleEntry("travel-only")
	segs := []core.Segment{
		{Start: core.Position3D{Z: 10}, End: core.Position3D{X: 5, Z: 10}},
	}

	export := buildExport(&ToolpathEntry{Toolpath: *tp, Segments: segs})

	if len(export.DrawingPaths) != 0 {
		t.Errorf("expected no drawing paths, got %d", len(export.DrawingPaths))
	}
}

func TestExportJSON_WritesFile(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir})

	tp, segs := sampleEntry("my plate:4")
	tp.CreatedAt = time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	if err := b.SaveToolpath(tp, segs); err != nil {
		t.Fatalf("SaveToolpath failed: %v", err)
	}

	wantPath := filepath.Join(dir, "my_plate_4_20260115_103000.json")
	if b.GetExportedFilePath() != wantPath {
		t.Errorf("expected export path %s, got %s", wantPath, b.GetExportedFilePath())
	}

	f, err := os.Open(wantPath)
	if err != nil {
		t.Fatalf("export file not written: %v", err)
	}
	defer f.Close()

	var export ToolpathExport
	if err := json.NewDecoder(f).Decode(&export); err != nil {
		t.Fatalf("failed to decode export: %v", err)
	}
	if export.Name != "my plate:4" {
		t.Errorf("expected original name in export, got %s", export.Name)
	}
	if export.Stats.TotalDistance != 25 {
		t.Errorf("expected total distance 25, got %f", export.Stats.TotalDistance)
	}
}

func TestExportJSON_Gzip(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir, CompressOutput: true})

	tp, segs := sampleEntry("compressed")
	tp.CreatedAt = time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	if err := b.SaveToolpath(tp, segs); err != nil {
		t.Fatalf("SaveToolpath failed: %v", err)
	}

	path := b.GetExportedFilePath()
	if !strings.HasSuffix(path, ".json.gz") {
		t.Fatalf("expected .json.gz suffix, got %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("export file not written: %v", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("failed to open gzip reader: %v", err)
	}
	defer gz.Close()

	var export ToolpathExport
	if err := json.NewDecoder(gz).Decode(&export); err != nil {
		t.Fatalf("failed to decode gzipped export: %v", err)
	}
	if export.Name != "compressed" {
		t.Errorf("expected name compressed, got %s", export.Name)
	}
}

func TestSaveToolpath_NoOutputDirSkipsExport(t *testing.T) {
	b := New(config.MemoryConfig{})

	tp, segs := sampleEntry("memory-only")
	if err := b.SaveToolpath(tp, segs); err != nil {
		t.Fatalf("SaveToolpath failed: %v", err)
	}
	if b.GetExportedFilePath() != "" {
		t.Errorf("expected no export path, got %s", b.GetExportedFilePath())
	}
}
