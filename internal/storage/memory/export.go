// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hairbrush/toolpath/internal/geo"
	"github.com/hairbrush/toolpath/pkg/core"
)

// ToolpathExport is the root JSON structure written for each archived
// toolpath. DrawingPaths holds the drawing runs as WKT line strings so
// exports can be previewed without re-parsing the source.
type ToolpathExport struct {
	Name         string             `json:"name"`
	CreatedAt    time.Time          `json:"createdAt"`
	Source       string             `json:"source"`
	Stats        core.ToolpathStats `json:"stats"`
	Segments     []core.Segment     `json:"segments"`
	DrawingPaths []string           `json:"drawingPaths"`
}

// exportJSON writes one archived toolpath to a JSON file.
// Caller must hold b.mu.
func (b *Backend) exportJSON(entry *ToolpathEntry) error {
	export := buildExport(entry)

	// Build filename
	name := strings.ReplaceAll(entry.Toolpath.Name, " ", "_")
	name = strings.ReplaceAll(name, ":", "_")
	timestamp := entry.Toolpath.CreatedAt.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", name, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", name, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Write file
	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func buildExport(entry *ToolpathEntry) ToolpathExport {
	export := ToolpathExport{
		Name:         entry.Toolpath.Name,
		CreatedAt:    entry.Toolpath.CreatedAt,
		Source:       entry.Toolpath.Source,
		Stats:        entry.Toolpath.Stats,
		Segments:     entry.Segments,
		DrawingPaths: make([]string, 0),
	}

	for _, ls := range geo.DrawingLineStrings(entry.Segments) {
		export.DrawingPaths = append(export.DrawingPaths, ls.AsText())
	}
	return export
}

func writeJSON(path string, data ToolpathExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data ToolpathExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}
