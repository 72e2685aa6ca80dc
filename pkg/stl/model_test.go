package stl

import (
	"errors"
	"math"
	"testing"

	"github.com/philipparndt/gomesh/pkg/geometry"
)

func TestNewModelRejectsEmpty(t *testing.T) {
	_, err := NewModel("m", "m.stl", FormatASCII, nil, nil)
	if !errors.Is(err, ErrNoTriangles) {
		t.Fatalf("got %v, want %v", err, ErrNoTriangles)
	}
}

func TestNewModelRejectsNonFinite(t *testing.T) {
	tri := geometry.NewTriangle(
		geometry.NewVector3(0, 0, 1),
		geometry.NewVector3(math.NaN(), 0, 0),
		geometry.NewVector3(1, 0, 0),
		geometry.NewVector3(0, 1, 0),
	)
	_, err := NewModel("m", "m.stl", FormatASCII, []geometry.Triangle{tri}, nil)
	if !errors.Is(err, ErrInvalidNumeric) {
		t.Fatalf("got %v, want %v", err, ErrInvalidNumeric)
	}
}

// Degenerate triangles are accepted; they are surfaced through the
// metadata instead of failing the model.
func TestNewModelCountsDegenerate(t *testing.T) {
	good := geometry.NewTriangle(
		geometry.NewVector3(0, 0, 1),
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(1, 0, 0),
		geometry.NewVector3(0, 1, 0),
	)
	collinear := geometry.NewTriangle(
		geometry.NewVector3(0, 0, 1),
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(1, 0, 0),
		geometry.NewVector3(2, 0, 0),
	)

	m, err := NewModel("m", "m.stl", FormatASCII, []geometry.Triangle{good, collinear}, nil)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	if got := m.Metadata().DegenerateCount; got != 1 {
		t.Errorf("degenerate count: got %d, want 1", got)
	}
	if got := m.Metadata().TriangleCount; got != 2 {
		t.Errorf("triangle count: got %d, want 2", got)
	}
}

func TestNewModelMetadata(t *testing.T) {
	m, err := NewModel("cube", "cube.stl", FormatBinary, cubeTriangles(), nil)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}

	meta := m.Metadata()
	if meta.Format != FormatBinary {
		t.Errorf("format: got %v", meta.Format)
	}
	if meta.TriangleCount != 12 {
		t.Errorf("triangle count: got %d", meta.TriangleCount)
	}
	if meta.SourceFile != "cube.stl" {
		t.Errorf("source: got %q", meta.SourceFile)
	}
	if math.Abs(meta.SurfaceArea-6.0) > 1e-9 {
		t.Errorf("surface area: got %v, want 6", meta.SurfaceArea)
	}
	if math.Abs(meta.Volume-1.0) > 1e-9 {
		t.Errorf("volume: got %v, want 1", meta.Volume)
	}
	if meta.DegenerateCount != 0 {
		t.Errorf("degenerate count: got %d", meta.DegenerateCount)
	}

	// Cube faces split into triangles with legs 1 and hypotenuse sqrt2.
	if math.Abs(meta.MinEdgeLength-1.0) > 1e-9 {
		t.Errorf("min edge: got %v, want 1", meta.MinEdgeLength)
	}
	if math.Abs(meta.MaxEdgeLength-math.Sqrt2) > 1e-9 {
		t.Errorf("max edge: got %v, want sqrt(2)", meta.MaxEdgeLength)
	}
	if meta.LoadedAt.IsZero() {
		t.Error("LoadedAt not set")
	}

	// The bounding box must enclose every vertex.
	for _, tri := range m.Triangles() {
		for _, v := range []geometry.Vector3{tri.V1, tri.V2, tri.V3} {
			if !meta.BoundingBox.Contains(v) {
				t.Fatalf("bounding box %v..%v misses vertex %v",
					meta.BoundingBox.Min, meta.BoundingBox.Max, v)
			}
		}
	}
}

// The factory copies the caller's slice: later writes through the
// original must not show up in the model.
func TestNewModelDefensiveCopy(t *testing.T) {
	tris := cubeTriangles()
	m, err := NewModel("cube", "cube.stl", FormatASCII, tris, nil)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}

	tris[0].V1 = geometry.NewVector3(999, 999, 999)
	if m.Triangles()[0].V1 == tris[0].V1 {
		t.Error("model shares the caller's triangle slice")
	}
}

func TestModelFilter(t *testing.T) {
	good := geometry.NewTriangle(
		geometry.NewVector3(0, 0, 1),
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(1, 0, 0),
		geometry.NewVector3(0, 1, 0),
	)
	collinear := geometry.NewTriangle(
		geometry.NewVector3(0, 0, 1),
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(1, 0, 0),
		geometry.NewVector3(2, 0, 0),
	)
	m, err := NewModel("m", "m.stl", FormatASCII, []geometry.Triangle{good, collinear}, nil)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}

	clean, err := m.Filter(func(tri geometry.Triangle) bool { return !tri.IsDegenerate() })
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if clean.TriangleCount() != 1 {
		t.Errorf("filtered count: got %d, want 1", clean.TriangleCount())
	}
	if clean.Metadata().DegenerateCount != 0 {
		t.Errorf("filtered degenerate count: got %d", clean.Metadata().DegenerateCount)
	}
	if m.TriangleCount() != 2 {
		t.Error("filter mutated the original model")
	}

	// Filtering everything away is an error, not an empty model.
	if _, err := m.Filter(func(geometry.Triangle) bool { return false }); !errors.Is(err, ErrNoTriangles) {
		t.Errorf("empty filter: got %v, want %v", err, ErrNoTriangles)
	}
}

func TestModelTranslate(t *testing.T) {
	m, err := NewModel("cube", "cube.stl", FormatASCII, cubeTriangles(), nil)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}

	moved, err := m.Translate(geometry.NewVector3(10, 0, -2))
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}

	bbox := moved.BoundingBox()
	if bbox.Min != geometry.NewVector3(10, 0, -2) || bbox.Max != geometry.NewVector3(11, 1, -1) {
		t.Errorf("bbox after translate: %v..%v", bbox.Min, bbox.Max)
	}
	if math.Abs(moved.SurfaceArea()-m.SurfaceArea()) > 1e-9 {
		t.Errorf("translation changed surface area")
	}
	if moved.SourceBytes() != nil {
		t.Error("transformed model kept stale source bytes")
	}
}

func TestModelScale(t *testing.T) {
	m, err := NewModel("cube", "cube.stl", FormatASCII, cubeTriangles(), nil)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}

	big, err := m.Scale(2)
	if err != nil {
		t.Fatalf("Scale: %v", err)
	}
	if math.Abs(big.SurfaceArea()-4*m.SurfaceArea()) > 1e-9 {
		t.Errorf("area after 2x scale: got %v, want %v", big.SurfaceArea(), 4*m.SurfaceArea())
	}
	if math.Abs(big.Metadata().Volume-8*m.Metadata().Volume) > 1e-9 {
		t.Errorf("volume after 2x scale: got %v", big.Metadata().Volume)
	}

	// Normals stay unit length after transformation.
	for _, tri := range big.Triangles() {
		if math.Abs(tri.Normal.Length()-1) > 1e-9 {
			t.Fatalf("normal not unit length: %v", tri.Normal)
		}
	}
}

func TestModelWithFormat(t *testing.T) {
	m, err := NewModel("m", "m.stl", FormatASCII, cubeTriangles(), nil)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}

	b := m.WithFormat(FormatBinary)
	if b.Metadata().Format != FormatBinary {
		t.Errorf("format: got %v", b.Metadata().Format)
	}
	if m.Metadata().Format != FormatASCII {
		t.Error("WithFormat mutated the original")
	}
	if b.ID() == m.ID() {
		t.Error("copy shares the original's id")
	}
	if b.TriangleCount() != m.TriangleCount() {
		t.Error("copy changed geometry")
	}
}

func TestModelWithName(t *testing.T) {
	m, err := NewModel("old", "m.stl", FormatASCII, cubeTriangles(), nil)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}

	renamed := m.WithName("new")
	if renamed.Name() != "new" || m.Name() != "old" {
		t.Errorf("names: got %q and %q", renamed.Name(), m.Name())
	}
}
