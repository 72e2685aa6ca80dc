package stl

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/philipparndt/gomesh/pkg/geometry"
)

// Metadata describes a model as derived at creation time. It is
// computed once by the factory and replaced wholesale by transform
// operations, never field-mutated, so the triangle count and bounding
// box always agree with the triangle sequence.
type Metadata struct {
	SourceFile      string
	Format          Format
	TriangleCount   int
	BoundingBox     geometry.BoundingBox
	SurfaceArea     float64
	Volume          float64
	DegenerateCount int
	MinEdgeLength   float64
	MaxEdgeLength   float64
	AvgEdgeLength   float64
	LoadedAt        time.Time
}

var modelIDs atomic.Uint64

// Model is an immutable STL model: an ordered triangle sequence plus
// derived metadata and the raw bytes it was parsed from. Structural
// edits (Filter, Transform) return a new Model.
type Model struct {
	id        uint64
	name      string
	meta      Metadata
	triangles []geometry.Triangle
	raw       []byte
}

// NewModel validates a triangle sequence and assembles a model.
// It fails with ErrNoTriangles on an empty sequence and with
// ErrInvalidNumeric if any vertex or normal component is NaN or
// infinite. Degenerate (zero-area) triangles are accepted and reported
// through Metadata.DegenerateCount. The triangle slice is copied; the
// caller keeps no handle into the model.
func NewModel(name, source string, format Format, triangles []geometry.Triangle, raw []byte) (*Model, error) {
	if len(triangles) == 0 {
		return nil, parseErr(source, ErrNoTriangles, "%s", format)
	}
	for i, tri := range triangles {
		if !tri.IsFinite() {
			return nil, parseErr(source, ErrInvalidNumeric, "triangle %d", i)
		}
	}

	tris := make([]geometry.Triangle, len(triangles))
	copy(tris, triangles)

	return &Model{
		id:        modelIDs.Add(1),
		name:      name,
		meta:      computeMetadata(source, format, tris),
		triangles: tris,
		raw:       raw,
	}, nil
}

// computeMetadata derives all per-model statistics in a single pass
// over the triangle sequence.
func computeMetadata(source string, format Format, tris []geometry.Triangle) Metadata {
	bbox := geometry.NewBoundingBox()
	area := 0.0
	signedVolume := 0.0
	degenerate := 0

	minEdge := math.MaxFloat64
	maxEdge := 0.0
	totalEdge := 0.0

	for _, tri := range tris {
		bbox.Extend(tri.V1)
		bbox.Extend(tri.V2)
		bbox.Extend(tri.V3)

		area += tri.Area()
		signedVolume += tri.SignedVolume()
		if tri.IsDegenerate() {
			degenerate++
		}

		for _, length := range tri.EdgeLengths() {
			totalEdge += length
			if length < minEdge {
				minEdge = length
			}
			if length > maxEdge {
				maxEdge = length
			}
		}
	}

	return Metadata{
		SourceFile:      source,
		Format:          format,
		TriangleCount:   len(tris),
		BoundingBox:     bbox,
		SurfaceArea:     area,
		Volume:          math.Abs(signedVolume),
		DegenerateCount: degenerate,
		MinEdgeLength:   minEdge,
		MaxEdgeLength:   maxEdge,
		AvgEdgeLength:   totalEdge / float64(3*len(tris)),
		LoadedAt:        time.Now(),
	}
}

// ID returns the model's unique identifier.
func (m *Model) ID() uint64 { return m.id }

// Name returns the model name from the solid header, may be empty.
func (m *Model) Name() string { return m.name }

// Metadata returns the derived metadata.
func (m *Model) Metadata() Metadata { return m.meta }

// Triangles returns the ordered triangle sequence. The slice is owned
// by the model and must not be modified.
func (m *Model) Triangles() []geometry.Triangle { return m.triangles }

// TriangleCount returns the number of triangles in the model.
func (m *Model) TriangleCount() int { return len(m.triangles) }

// BoundingBox returns the axis-aligned box enclosing every vertex.
func (m *Model) BoundingBox() geometry.BoundingBox { return m.meta.BoundingBox }

// SurfaceArea returns the total area of all triangles.
func (m *Model) SurfaceArea() float64 { return m.meta.SurfaceArea }

// SourceBytes returns the raw bytes the model was parsed from, kept for
// provenance. Nil for models produced by transforms.
func (m *Model) SourceBytes() []byte { return m.raw }

// WithName returns a copy of the model under a different name.
func (m *Model) WithName(name string) *Model {
	clone := *m
	clone.id = modelIDs.Add(1)
	clone.name = name
	return &clone
}

// WithFormat returns a copy of the model routed to a different save
// format. Geometry and statistics are unchanged.
func (m *Model) WithFormat(format Format) *Model {
	clone := *m
	clone.id = modelIDs.Add(1)
	clone.meta.Format = format
	return &clone
}

// Filter returns a new model containing only the triangles keep reports
// true for, in the original order. Fails with ErrNoTriangles when
// nothing survives the predicate.
func (m *Model) Filter(keep func(geometry.Triangle) bool) (*Model, error) {
	var tris []geometry.Triangle
	for _, tri := range m.triangles {
		if keep(tri) {
			tris = append(tris, tri)
		}
	}
	return NewModel(m.name, m.meta.SourceFile, m.meta.Format, tris, nil)
}

// Transform returns a new model with every vertex transformed by the
// matrix. Normals are recomputed from the transformed vertices rather
// than transformed directly, which keeps them unit-length under
// non-uniform scaling. The raw source bytes are dropped: they no longer
// describe the geometry.
func (m *Model) Transform(mat geometry.Matrix4x4) (*Model, error) {
	tris := make([]geometry.Triangle, len(m.triangles))
	for i, tri := range m.triangles {
		t := geometry.NewTriangle(
			geometry.Vector3{},
			mat.TransformPoint(tri.V1),
			mat.TransformPoint(tri.V2),
			mat.TransformPoint(tri.V3),
		)
		t.Normal = t.CalculateNormal()
		tris[i] = t
	}
	return NewModel(m.name, m.meta.SourceFile, m.meta.Format, tris, nil)
}

// Translate returns a new model moved by the given offset.
func (m *Model) Translate(offset geometry.Vector3) (*Model, error) {
	return m.Transform(geometry.Translation(offset.X, offset.Y, offset.Z))
}

// Scale returns a new model scaled uniformly about the origin.
func (m *Model) Scale(factor float64) (*Model, error) {
	return m.Transform(geometry.Scaling(factor, factor, factor))
}
