package stl

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/philipparndt/gomesh/pkg/geometry"
)

func TestParseBinaryMinimal(t *testing.T) {
	data := makeBinarySTL("part", unitRecord())

	name, tris, err := parseBinary(context.Background(), data, "part.stl", DefaultLimits())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if name != "part" {
		t.Errorf("name: got %q, want %q", name, "part")
	}
	if len(tris) != 1 {
		t.Fatalf("triangle count: got %d, want 1", len(tris))
	}

	tri := tris[0]
	if tri.Normal != geometry.NewVector3(0, 0, 1) {
		t.Errorf("normal: got %v", tri.Normal)
	}
	if tri.V2 != geometry.NewVector3(1, 0, 0) {
		t.Errorf("V2: got %v", tri.V2)
	}
	if tri.V3 != geometry.NewVector3(0.5, 1, 0) {
		t.Errorf("V3: got %v", tri.V3)
	}
}

func TestParseBinaryNonZeroAttribute(t *testing.T) {
	rec := makeRecord([12]float32{0, 0, 1, 0, 0, 0, 1, 0, 0, 0.5, 1, 0}, 0xbeef)
	data := makeBinarySTL("", rec)

	_, tris, err := parseBinary(context.Background(), data, "a.stl", DefaultLimits())
	if err != nil {
		t.Fatalf("non-zero attribute rejected: %v", err)
	}
	if len(tris) != 1 {
		t.Errorf("triangle count: got %d, want 1", len(tris))
	}
}

func TestParseBinaryTrailingBytesTolerated(t *testing.T) {
	data := append(makeBinarySTL("", unitRecord()), 0, 0)

	_, tris, err := parseBinary(context.Background(), data, "a.stl", DefaultLimits())
	if err != nil {
		t.Fatalf("trailing bytes rejected: %v", err)
	}
	if len(tris) != 1 {
		t.Errorf("triangle count: got %d, want 1", len(tris))
	}
}

func TestParseBinarySizeMismatch(t *testing.T) {
	data := makeBinarySTL("", unitRecord(), unitRecord())

	// Declare 3 triangles but supply bytes for 2.
	binary.LittleEndian.PutUint32(data[80:], 3)

	_, _, err := parseBinary(context.Background(), data, "a.stl", DefaultLimits())
	if !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("got %v, want %v", err, ErrSizeMismatch)
	}
}

func TestParseBinaryTruncatedHeader(t *testing.T) {
	_, _, err := parseBinary(context.Background(), make([]byte, 40), "a.stl", DefaultLimits())
	if !errors.Is(err, ErrStructural) {
		t.Fatalf("got %v, want %v", err, ErrStructural)
	}
}

// The cap fires on the declared count, before anything is allocated and
// before the size check can report a mismatch.
func TestParseBinaryTooManyTriangles(t *testing.T) {
	data := make([]byte, binaryHeaderSize)
	binary.LittleEndian.PutUint32(data[80:], 20_000_000)

	_, _, err := parseBinary(context.Background(), data, "a.stl", DefaultLimits())
	if !errors.Is(err, ErrTooManyTriangles) {
		t.Fatalf("got %v, want %v", err, ErrTooManyTriangles)
	}
}

func TestParseBinaryNaNVertex(t *testing.T) {
	rec := makeRecord([12]float32{
		0, 0, 1,
		float32(math.NaN()), 0, 0,
		1, 0, 0,
		0, 1, 0,
	}, 0)
	data := makeBinarySTL("", rec)

	_, _, err := parseBinary(context.Background(), data, "a.stl", DefaultLimits())
	if !errors.Is(err, ErrInvalidNumeric) {
		t.Fatalf("got %v, want %v", err, ErrInvalidNumeric)
	}
}

func TestParseBinaryRecomputesZeroNormal(t *testing.T) {
	rec := makeRecord([12]float32{
		0, 0, 0,
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
	}, 0)
	data := makeBinarySTL("", rec)

	_, tris, err := parseBinary(context.Background(), data, "a.stl", DefaultLimits())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := geometry.NewVector3(0, 0, 1)
	if got := tris[0].Normal; got.Distance(want) > 1e-12 {
		t.Errorf("recomputed normal: got %v, want %v", got, want)
	}
}

func TestParseBinaryCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	data := makeBinarySTL("", unitRecord())
	_, _, err := parseBinary(ctx, data, "a.stl", DefaultLimits())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestWriteBinaryDeterministic(t *testing.T) {
	tri := geometry.NewTriangle(
		geometry.NewVector3(0, 0, 1),
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(1, 0, 0),
		geometry.NewVector3(0.5, 1, 0),
	)
	m, err := NewModel("part", "part.stl", FormatBinary, []geometry.Triangle{tri}, nil)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}

	var first, second bytes.Buffer
	if err := writeBinary(context.Background(), &first, m); err != nil {
		t.Fatalf("writeBinary: %v", err)
	}
	if err := writeBinary(context.Background(), &second, m); err != nil {
		t.Fatalf("writeBinary: %v", err)
	}

	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("two saves of the same model differ")
	}
	if got := len(first.Bytes()); got != binaryHeaderSize+binaryRecordSize {
		t.Errorf("output size: got %d, want %d", got, binaryHeaderSize+binaryRecordSize)
	}
	if count := binary.LittleEndian.Uint32(first.Bytes()[80:]); count != 1 {
		t.Errorf("declared count: got %d, want 1", count)
	}
}

func TestHeaderText(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
		want   string
	}{
		{"text padded with nul", append([]byte("my part"), make([]byte, 73)...), "my part"},
		{"all nul", make([]byte, 80), ""},
		{"binary garbage", append([]byte{0x01, 0x02, 0x7f}, make([]byte, 77)...), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := headerText(tt.header); got != tt.want {
				t.Errorf("headerText() = %q, want %q", got, tt.want)
			}
		})
	}
}
