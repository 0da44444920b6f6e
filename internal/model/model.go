package model

import (
	"encoding/json"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hairbrush/toolpath/pkg/core"
)

// DatabaseModels is a list of all the structs exported here which represent
// tables in the database schema
var DatabaseModels = []interface{}{
	&ToolpathRecord{},
	&SegmentRecord{},
	&SessionStat{},
}

// ToolpathRecord is the main model for an archived toolpath. Source holds
// the full instruction text; Stats holds the analyzer output as JSON, with
// the distance and bounds columns duplicated for querying.
type ToolpathRecord struct {
	gorm.Model
	Name   string `json:"name" gorm:"size:200;index:idx_toolpath_name"`
	Source string `json:"source"`

	Stats datatypes.JSON `json:"stats" gorm:"type:jsonb;default:'{}'"`

	MinX float64 `json:"minX"`
	MaxX float64 `json:"maxX"`
	MinY float64 `json:"minY"`
	MaxY float64 `json:"maxY"`
	MinZ float64 `json:"minZ"`
	MaxZ float64 `json:"maxZ"`

	TotalDistance  float64 `json:"totalDistance"`
	DrawDistance   float64 `json:"drawDistance"`
	TravelDistance float64 `json:"travelDistance"`
	LayerCount     int     `json:"layerCount"`
	MoveCount      int     `json:"moveCount"`
	BrushCommands  int     `json:"brushCommands"`

	Segments []SegmentRecord `json:"segments" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (*ToolpathRecord) TableName() string {
	return "toolpaths"
}

// GetOrInsert looks up a record by name and inserts it if absent. On a hit
// the receiver is overwritten with the stored record.
func (r *ToolpathRecord) GetOrInsert(db *gorm.DB) (
	created bool,
	err error,
) {
	var existing ToolpathRecord
	err = db.Where("name = ?", r.Name).First(&existing).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// insert
			err = db.Create(r).Error
			return true, err
		}
		return false, err
	}
	// overwrite with db record if found
	*r = existing
	return false, nil
}

// SegmentRecord is one reconstructed motion segment of an archived toolpath.
// Seq preserves the segment's position in the instruction stream. Start and
// End are XY points with the Z coordinate carried in its own column.
type SegmentRecord struct {
	ID               uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	ToolpathRecordID uint           `json:"toolpathId" gorm:"index:idx_segment_toolpath_id"`
	ToolpathRecord   ToolpathRecord `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:ToolpathRecordID;"`

	Seq        int        `json:"seq" gorm:"index:idx_segment_seq"`
	Start      geom.Point `json:"start"`
	StartZ     float64    `json:"startZ"`
	End        geom.Point `json:"end"`
	EndZ       float64    `json:"endZ"`
	IsDrawing  bool       `json:"isDrawing" gorm:"default:false"`
	Brush      string     `json:"brush" gorm:"size:8"`
	LayerIndex int        `json:"layerIndex"`
}

func (*SegmentRecord) TableName() string {
	return "segments"
}

// SessionStat records one compile or analyze run for performance tracking.
type SessionStat struct {
	Time             time.Time `json:"time" gorm:"type:timestamptz;index:idx_sessionstat_time"`
	Operation        string    `json:"operation" gorm:"size:32"`
	ToolpathName     string    `json:"toolpathName" gorm:"size:200"`
	LineCount        int       `json:"lineCount"`
	SegmentCount     int       `json:"segmentCount"`
	DurationMs       float64   `json:"durationMs"`
	TotalDistanceMm  float64   `json:"totalDistanceMm"`
	DrawDistanceMm   float64   `json:"drawDistanceMm"`
	TravelDistanceMm float64   `json:"travelDistanceMm"`
}

func (*SessionStat) TableName() string {
	return "session_stats"
}

// FromSessionStat converts a session stat into its database record.
func FromSessionStat(s core.SessionStat) SessionStat {
	return SessionStat{
		Time:             s.Time,
		Operation:        s.Operation,
		ToolpathName:     s.ToolpathName,
		LineCount:        s.LineCount,
		SegmentCount:     s.SegmentCount,
		DurationMs:       float64(s.Duration) / float64(time.Millisecond),
		TotalDistanceMm:  s.Stats.TotalDistance,
		DrawDistanceMm:   s.Stats.DrawDistance,
		TravelDistanceMm: s.Stats.TravelDistance,
	}
}

// FromToolpath converts an archive toolpath and its reconstructed
// segments into a database record.
func FromToolpath(tp core.Toolpath, segments []core.Segment) (ToolpathRecord, error) {
	statsJSON, err := json.Marshal(tp.Stats)
	if err != nil {
		return ToolpathRecord{}, err
	}

	rec := ToolpathRecord{
		Name:           tp.Name,
		Source:         tp.Source,
		Stats:          datatypes.JSON(statsJSON),
		MinX:           tp.Stats.Bounds.MinX,
		MaxX:           tp.Stats.Bounds.MaxX,
		MinY:           tp.Stats.Bounds.MinY,
		MaxY:           tp.Stats.Bounds.MaxY,
		MinZ:           tp.Stats.Bounds.MinZ,
		MaxZ:           tp.Stats.Bounds.MaxZ,
		TotalDistance:  tp.Stats.TotalDistance,
		DrawDistance:   tp.Stats.DrawDistance,
		TravelDistance: tp.Stats.TravelDistance,
		LayerCount:     tp.Stats.LayerCount,
		MoveCount:      tp.Stats.MoveCount,
		BrushCommands:  tp.Stats.BrushCommands,
	}
	rec.ID = tp.ID
	rec.CreatedAt = tp.CreatedAt

	rec.Segments = make([]SegmentRecord, 0, len(segments))
	for i, seg := range segments {
		rec.Segments = append(rec.Segments, SegmentRecord{
			Seq:        i,
			Start:      pointXY(seg.Start.X, seg.Start.Y),
			StartZ:     seg.Start.Z,
			End:        pointXY(seg.End.X, seg.End.Y),
			EndZ:       seg.End.Z,
			IsDrawing:  seg.IsDrawing,
			Brush:      seg.Brush.String(),
			LayerIndex: seg.LayerIndex,
		})
	}
	return rec, nil
}

// ToToolpath converts a database record back into the archive toolpath
// and its segments.
func (r *ToolpathRecord) ToToolpath() (core.Toolpath, []core.Segment, error) {
	tp := core.Toolpath{
		ID:        r.ID,
		Name:      r.Name,
		Source:    r.Source,
		Segments:  len(r.Segments),
		CreatedAt: r.CreatedAt,
	}

	if len(r.Stats) > 0 {
		if err := json.Unmarshal(r.Stats, &tp.Stats); err != nil {
			return core.Toolpath{}, nil, err
		}
	}

	segments := make([]core.Segment, 0, len(r.Segments))
	for _, sr := range r.Segments {
		seg := core.Segment{
			Start:      positionFromPoint(sr.Start, sr.StartZ),
			End:        positionFromPoint(sr.End, sr.EndZ),
			IsDrawing:  sr.IsDrawing,
			LayerIndex: sr.LayerIndex,
		}
		if sr.Brush == core.BrushB.String() {
			seg.Brush = core.BrushB
		}
		segments = append(segments, seg)
	}
	return tp, segments, nil
}

func pointXY(x, y float64) geom.Point {
	return geom.NewPoint(geom.Coordinates{XY: geom.XY{X: x, Y: y}})
}

func positionFromPoint(p geom.Point, z float64) core.Position3D {
	xy, ok := p.XY()
	if !ok {
		return core.Position3D{Z: z}
	}
	return core.Position3D{X: xy.X, Y: xy.Y, Z: z}
}
