package analysis

import (
	"math"
	"testing"

	"github.com/philipparndt/gomesh/pkg/geometry"
	"github.com/philipparndt/gomesh/pkg/stl"
)

func testModel(t *testing.T) *stl.Model {
	t.Helper()

	tris := []geometry.Triangle{
		geometry.NewTriangle(
			geometry.NewVector3(0, 0, 1),
			geometry.NewVector3(0, 0, 0),
			geometry.NewVector3(3, 0, 0),
			geometry.NewVector3(0, 4, 0),
		),
		geometry.NewTriangle(
			geometry.NewVector3(0, 0, 1),
			geometry.NewVector3(0, 0, 0),
			geometry.NewVector3(1, 0, 0),
			geometry.NewVector3(0, 1, 0),
		),
	}

	m, err := stl.NewModel("test", "test.stl", stl.FormatASCII, tris, nil)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m
}

func TestAnalyzeModel(t *testing.T) {
	result := AnalyzeModel(testModel(t))

	if result.TriangleCount != 2 {
		t.Errorf("TriangleCount: got %d, want 2", result.TriangleCount)
	}
	if result.EdgeCount != 6 {
		t.Errorf("EdgeCount: got %d, want 6", result.EdgeCount)
	}
	if math.Abs(result.SurfaceArea-6.5) > 1e-10 {
		t.Errorf("SurfaceArea: got %v, want 6.5", result.SurfaceArea)
	}
	if result.DegenerateCount != 0 {
		t.Errorf("DegenerateCount: got %d, want 0", result.DegenerateCount)
	}

	expectedMin := geometry.NewVector3(0, 0, 0)
	expectedMax := geometry.NewVector3(3, 4, 0)
	if result.BoundingBox.Min != expectedMin || result.BoundingBox.Max != expectedMax {
		t.Errorf("BoundingBox: got %v..%v", result.BoundingBox.Min, result.BoundingBox.Max)
	}

	if math.Abs(result.MinEdgeLength-1.0) > 1e-10 {
		t.Errorf("MinEdgeLength: got %v, want 1", result.MinEdgeLength)
	}
	if math.Abs(result.MaxEdgeLength-5.0) > 1e-10 {
		t.Errorf("MaxEdgeLength: got %v, want 5", result.MaxEdgeLength)
	}
}

func TestFindLongestEdges(t *testing.T) {
	result := AnalyzeModel(testModel(t))

	longest := FindLongestEdges(result, 2)
	if len(longest) != 2 {
		t.Fatalf("got %d edges, want 2", len(longest))
	}
	if math.Abs(longest[0].Length-5.0) > 1e-10 {
		t.Errorf("longest edge: got %v, want 5", longest[0].Length)
	}
	if longest[0].Length < longest[1].Length {
		t.Error("edges not sorted longest first")
	}

	// Asking for more than exist returns what there is.
	all := FindLongestEdges(result, 100)
	if len(all) != result.EdgeCount {
		t.Errorf("got %d edges, want %d", len(all), result.EdgeCount)
	}
}

func TestFindShortestEdges(t *testing.T) {
	result := AnalyzeModel(testModel(t))

	shortest := FindShortestEdges(result, 1)
	if len(shortest) != 1 {
		t.Fatalf("got %d edges, want 1", len(shortest))
	}
	if math.Abs(shortest[0].Length-1.0) > 1e-10 {
		t.Errorf("shortest edge: got %v, want 1", shortest[0].Length)
	}
}

func TestFindEdgesByLength(t *testing.T) {
	result := AnalyzeModel(testModel(t))

	edges := FindEdgesByLength(result, 2.5, 4.5)
	for _, e := range edges {
		if e.Length < 2.5 || e.Length > 4.5 {
			t.Errorf("edge length %v outside range", e.Length)
		}
	}
	// Edges of length 3 and 4 fall in the range.
	if len(edges) != 2 {
		t.Errorf("got %d edges, want 2", len(edges))
	}
}

func TestFindNearestVertex(t *testing.T) {
	m := testModel(t)

	vertex, distance := FindNearestVertex(m, geometry.NewVector3(2.9, 0.1, 0))
	if vertex != geometry.NewVector3(3, 0, 0) {
		t.Errorf("nearest vertex: got %v", vertex)
	}
	if distance > 0.2 {
		t.Errorf("distance: got %v", distance)
	}
}

func TestFormatVector(t *testing.T) {
	got := FormatVector(geometry.NewVector3(1, 2.5, -3))
	want := "(1.000000, 2.500000, -3.000000)"
	if got != want {
		t.Errorf("FormatVector: got %q, want %q", got, want)
	}
}
