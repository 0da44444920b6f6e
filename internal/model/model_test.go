package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairbrush/toolpath/pkg/core"
)

func TestTableNames(t *testing.T) {
	tests := []struct {
		name     string
		model    interface{ TableName() string }
		expected string
	}{
		{"ToolpathRecord", &ToolpathRecord{}, "toolpaths"},
		{"SegmentRecord", &SegmentRecord{}, "segments"},
		{"SessionStat", &SessionStat{}, "session_stats"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.model.TableName())
		})
	}
}

func testToolpath() (core.Toolpath, []core.Segment) {
	tp := core.Toolpath{
		Name:   "plate-4",
		Source: "G28\nG0 X10.000 Y10.000 F3000\n",
		Stats: core.ToolpathStats{
			Bounds: core.Bounds{
				MinX: 10, MaxX: 60,
				MinY: 10, MaxY: 40,
				MinZ: 2, MaxZ: 10,
			},
			TotalDistance:  120.5,
			DrawDistance:   80.25,
			TravelDistance: 40.25,
			LayerCount:     2,
			MoveCount:      7,
			BrushCommands:  4,
		},
		Segments:  2,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	segments := []core.Segment{
		{
			Start:     core.Position3D{X: 10, Y: 10, Z: 10},
			End:       core.Position3D{X: 10, Y: 10, Z: 2},
			IsDrawing: false,
			Brush:     core.BrushA,
		},
		{
			Start:      core.Position3D{X: 10, Y: 10, Z: 2},
			End:        core.Position3D{X: 60, Y: 40, Z: 2},
			IsDrawing:  true,
			Brush:      core.BrushB,
			LayerIndex: 1,
		},
	}
	return tp, segments
}

func TestFromToolpath(t *testing.T) {
	tp, segments := testToolpath()

	rec, err := FromToolpath(tp, segments)
	require.NoError(t, err)

	assert.Equal(t, "plate-4", rec.Name)
	assert.Equal(t, tp.Source, rec.Source)
	assert.Equal(t, 10.0, rec.MinX)
	assert.Equal(t, 60.0, rec.MaxX)
	assert.Equal(t, 120.5, rec.TotalDistance)
	assert.Equal(t, 80.25, rec.DrawDistance)
	assert.Equal(t, 2, rec.LayerCount)
	assert.Equal(t, 7, rec.MoveCount)
	assert.Equal(t, 4, rec.BrushCommands)
	assert.NotEmpty(t, rec.Stats)

	require.Len(t, rec.Segments, 2)
	assert.Equal(t, 0, rec.Segments[0].Seq)
	assert.Equal(t, 1, rec.Segments[1].Seq)
	assert.False(t, rec.Segments[0].IsDrawing)
	assert.True(t, rec.Segments[1].IsDrawing)
	assert.Equal(t, "A", rec.Segments[0].Brush)
	assert.Equal(t, "B", rec.Segments[1].Brush)
	assert.Equal(t, 10.0, rec.Segments[0].StartZ)
	assert.Equal(t, 2.0, rec.Segments[0].EndZ)

	xy, ok := rec.Segments[1].End.XY()
	require.True(t, ok)
	assert.Equal(t, 60.0, xy.X)
	assert.Equal(t, 40.0, xy.Y)
}

func TestToToolpath_Roundtrip(t *testing.T) {
	tp, segments := testToolpath()

	rec, err := FromToolpath(tp, segments)
	require.NoError(t, err)

	got, gotSegments, err := rec.ToToolpath()
	require.NoError(t, err)

	assert.Equal(t, tp.Name, got.Name)
	assert.Equal(t, tp.Source, got.Source)
	assert.Equal(t, tp.Stats, got.Stats)
	assert.Equal(t, len(segments), got.Segments)

	require.Len(t, gotSegments, len(segments))
	for i := range segments {
		assert.Equal(t, segments[i], gotSegments[i], "segment %d", i)
	}
}

func TestToToolpath_EmptyStats(t *testing.T) {
	rec := ToolpathRecord{Name: "bare"}

	got, gotSegments, err := rec.ToToolpath()
	require.NoError(t, err)
	assert.Equal(t, "bare", got.Name)
	assert.Zero(t, got.Stats.TotalDistance)
	assert.Empty(t, gotSegments)
}

func TestToToolpath_BadStatsJSON(t *testing.T) {
	rec := ToolpathRecord{Name: "corrupt", Stats: []byte("{not json")}

	_, _, err := rec.ToToolpath()
	assert.Error(t, err)
}
