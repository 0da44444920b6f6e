// Package parser reconstructs typed motion segments, brush
// attribution, bounding geometry, and distance/layer statistics from a
// stored instruction stream. It is the read-side dual of the compiler:
// the two never call each other but must agree on the wire format.
package parser

import (
	"strings"

	"github.com/hairbrush/toolpath/pkg/core"
)

// defaultChunkSize is how many lines are processed between progress
// reports when the caller does not choose a batch size.
const defaultChunkSize = 500

// ProgressFunc reports incremental parse progress as lines processed
// out of the total.
type ProgressFunc func(processed, total int)

// Options configures a parse call. The zero value parses everything in
// one pass with no progress reporting.
type Options struct {
	ChunkSize int
	Progress  ProgressFunc
}

// Parse reconstructs segments and statistics from wire text. Parsing
// never fails: malformed or unrecognized lines are skipped so results
// degrade gracefully. Each call runs an isolated session, so Parse is
// safe to call concurrently on independent inputs.
func Parse(text string, opts Options) ([]core.Segment, core.ToolpathStats) {
	return ParseLines(strings.Split(text, "\n"), opts)
}

// ParseLines is Parse over pre-split lines. Lines are processed in
// chunks; after each chunk the progress callback (if any) runs, which
// is what keeps large-file parsing responsive for callers that render
// progressively.
func ParseLines(lines []string, opts Options) ([]core.Segment, core.ToolpathStats) {
	chunk := opts.ChunkSize
	if chunk <= 0 {
		chunk = defaultChunkSize
	}

	session := NewSession()
	total := len(lines)
	reported := -1

	for i, line := range lines {
		session.ProcessLine(line)
		if opts.Progress != nil && (i+1)%chunk == 0 {
			opts.Progress(i+1, total)
			reported = i + 1
		}
	}
	if opts.Progress != nil && reported != total {
		opts.Progress(total, total)
	}

	return session.Segments(), session.Stats()
}
