package stl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"math"
	"unicode"

	"github.com/chewxy/math32"
	"github.com/philipparndt/gomesh/pkg/geometry"
)

// parseBinary parses the fixed-record binary STL variant: an 80-byte
// free-form header, a little-endian uint32 triangle count and one
// 50-byte record per triangle. The declared count must be consistent
// with the buffer length (trailing-byte tolerance aside); the count cap
// is enforced before any triangle is allocated.
func parseBinary(ctx context.Context, data []byte, source string, limits Limits) (string, []geometry.Triangle, error) {
	if len(data) < binaryHeaderSize {
		return "", nil, parseErr(source, ErrStructural, "truncated header: %d bytes, need %d", len(data), binaryHeaderSize)
	}

	count := binary.LittleEndian.Uint32(data[80:84])
	if count > uint32(limits.MaxTriangles) {
		return "", nil, parseErr(source, ErrTooManyTriangles, "declared %d, limit is %d", count, limits.MaxTriangles)
	}

	expected := int64(binaryHeaderSize) + int64(binaryRecordSize)*int64(count)
	diff := int64(len(data)) - expected
	if diff < 0 || diff > binarySizeTolerance {
		return "", nil, parseErr(source, ErrSizeMismatch, "%d triangles declared, expected %d bytes, got %d", count, expected, len(data))
	}

	name := headerText(data[:80])
	triangles := make([]geometry.Triangle, 0, count)

	for i := uint32(0); i < count; i++ {
		select {
		case <-ctx.Done():
			return "", nil, parseErr(source, ctx.Err(), "parse cancelled at triangle %d", i)
		default:
		}

		rec := data[binaryHeaderSize+int64(i)*binaryRecordSize:]

		normal, ok := readVector(rec, 0)
		if !ok {
			return "", nil, parseErr(source, ErrInvalidNumeric, "triangle %d normal", i)
		}
		v1, ok := readVector(rec, 12)
		if !ok {
			return "", nil, parseErr(source, ErrInvalidNumeric, "triangle %d vertex 1", i)
		}
		v2, ok := readVector(rec, 24)
		if !ok {
			return "", nil, parseErr(source, ErrInvalidNumeric, "triangle %d vertex 2", i)
		}
		v3, ok := readVector(rec, 36)
		if !ok {
			return "", nil, parseErr(source, ErrInvalidNumeric, "triangle %d vertex 3", i)
		}
		// The 2-byte attribute count at offset 48 is read and
		// discarded; non-zero values are legal in the wild.
		_ = binary.LittleEndian.Uint16(rec[48:50])

		tri := geometry.NewTriangle(normal, v1, v2, v3)
		if tri.Normal.Length() < geometry.DegenerateEpsilon {
			tri.Normal = tri.CalculateNormal()
		}
		triangles = append(triangles, tri)
	}

	return name, triangles, nil
}

// readVector decodes three consecutive little-endian float32 values,
// reporting false when any component is NaN or infinite.
func readVector(rec []byte, off int) (geometry.Vector3, bool) {
	x := math32.Float32frombits(binary.LittleEndian.Uint32(rec[off:]))
	y := math32.Float32frombits(binary.LittleEndian.Uint32(rec[off+4:]))
	z := math32.Float32frombits(binary.LittleEndian.Uint32(rec[off+8:]))
	for _, f := range [3]float32{x, y, z} {
		if math32.IsNaN(f) || math32.IsInf(f, 0) {
			return geometry.Vector3{}, false
		}
	}
	return geometry.NewVector3(float64(x), float64(y), float64(z)), true
}

// headerText extracts a printable model name from the 80-byte header,
// if it carries one. Headers are free-form; anything non-printable is
// treated as absent.
func headerText(header []byte) string {
	text := string(bytes.TrimRight(header, "\x00 "))
	for _, r := range text {
		if r != '\t' && !unicode.IsPrint(r) {
			return ""
		}
	}
	return text
}

// writeBinary serializes a model to the binary variant. Output is
// byte-for-byte reproducible for a given triangle sequence: the header
// is the model name NUL-padded to 80 bytes and every attribute word is
// zero.
func writeBinary(ctx context.Context, w io.Writer, m *Model) error {
	bw := bufio.NewWriter(w)

	var header [80]byte
	copy(header[:], m.Name())
	bw.Write(header[:])

	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(m.TriangleCount()))
	bw.Write(countBuf[:])

	var rec [binaryRecordSize]byte
	for _, tri := range m.Triangles() {
		select {
		case <-ctx.Done():
			return &ParseError{Source: m.Name(), Err: ctx.Err(), Msg: "save cancelled"}
		default:
		}

		putVector(rec[:], 0, tri.Normal)
		putVector(rec[:], 12, tri.V1)
		putVector(rec[:], 24, tri.V2)
		putVector(rec[:], 36, tri.V3)
		binary.LittleEndian.PutUint16(rec[48:50], 0)
		bw.Write(rec[:])
	}

	if err := bw.Flush(); err != nil {
		return &ParseError{Source: m.Name(), Err: ErrIO, Msg: err.Error()}
	}
	return nil
}

// putVector encodes a vector as three little-endian float32 values.
func putVector(rec []byte, off int, v geometry.Vector3) {
	binary.LittleEndian.PutUint32(rec[off:], math.Float32bits(float32(v.X)))
	binary.LittleEndian.PutUint32(rec[off+4:], math.Float32bits(float32(v.Y)))
	binary.LittleEndian.PutUint32(rec[off+8:], math.Float32bits(float32(v.Z)))
}
