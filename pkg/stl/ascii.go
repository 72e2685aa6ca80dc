package stl

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/philipparndt/gomesh/pkg/geometry"
)

// parseASCII parses the text STL variant. It scans line by line (the
// input is never materialized as a single string), dispatches on the
// first whitespace-delimited token case-insensitively and ignores
// unknown tokens for forward compatibility with dialect variations.
// Any structural violation aborts the whole parse; the returned error
// carries the 1-based source line.
func parseASCII(ctx context.Context, data []byte, source string, limits Limits) (string, []geometry.Triangle, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 256), limits.MaxLineLength)

	var (
		name      string
		triangles []geometry.Triangle
		normal    geometry.Vector3
		vertices  []geometry.Vector3
		inFacet   bool
		line      int
	)

	for scanner.Scan() {
		line++

		select {
		case <-ctx.Done():
			return "", nil, lineErr(source, line, ctx.Err(), "parse cancelled")
		default:
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch strings.ToLower(fields[0]) {
		case "solid":
			if name == "" && len(fields) > 1 {
				name = strings.Join(fields[1:], " ")
			}

		case "facet":
			if inFacet {
				return "", nil, lineErr(source, line, ErrStructural, "facet opened before previous endfacet")
			}
			if len(fields) < 5 || !strings.EqualFold(fields[1], "normal") {
				return "", nil, lineErr(source, line, ErrStructural, "facet requires 'normal' and 3 components")
			}
			n, err := parseVector(source, line, fields[2:5])
			if err != nil {
				return "", nil, err
			}
			normal = n
			vertices = vertices[:0]
			inFacet = true

		case "vertex":
			if !inFacet {
				return "", nil, lineErr(source, line, ErrStructural, "vertex outside facet")
			}
			if len(vertices) >= 3 {
				return "", nil, lineErr(source, line, ErrStructural, "facet has more than 3 vertices")
			}
			if len(fields) < 4 {
				return "", nil, lineErr(source, line, ErrStructural, "vertex requires 3 components")
			}
			v, err := parseVector(source, line, fields[1:4])
			if err != nil {
				return "", nil, err
			}
			vertices = append(vertices, v)

		case "endfacet":
			if !inFacet {
				return "", nil, lineErr(source, line, ErrStructural, "endfacet without facet")
			}
			if len(vertices) != 3 {
				return "", nil, lineErr(source, line, ErrStructural, "facet has %d vertices, expected 3", len(vertices))
			}
			if len(triangles) >= limits.MaxTriangles {
				return "", nil, lineErr(source, line, ErrTooManyTriangles, "limit is %d", limits.MaxTriangles)
			}
			tri := geometry.NewTriangle(normal, vertices[0], vertices[1], vertices[2])
			if tri.Normal.Length() < geometry.DegenerateEpsilon {
				// Lenient: a missing or zero normal is recomputed from
				// the vertex winding instead of rejected.
				tri.Normal = tri.CalculateNormal()
			}
			triangles = append(triangles, tri)
			inFacet = false

		default:
			// "outer", "endloop", "endsolid" and any dialect-specific
			// tokens carry no data we need.
		}
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return "", nil, lineErr(source, line+1, ErrStructural, "line exceeds maximum length of %d", limits.MaxLineLength)
		}
		return "", nil, parseErr(source, ErrIO, "reading input: %v", err)
	}
	if inFacet {
		return "", nil, lineErr(source, line, ErrStructural, "unexpected end of input inside facet")
	}

	return name, triangles, nil
}

// parseVector parses three whitespace-separated float tokens.
// Unparsable tokens are structural errors; tokens that parse to NaN or
// Inf are numeric errors.
func parseVector(source string, line int, fields []string) (geometry.Vector3, error) {
	var c [3]float64
	for i, field := range fields {
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return geometry.Vector3{}, lineErr(source, line, ErrStructural, "invalid number %q", field)
		}
		c[i] = f
	}
	v := geometry.NewVector3(c[0], c[1], c[2])
	if !v.IsFinite() {
		return geometry.Vector3{}, lineErr(source, line, ErrInvalidNumeric, "%s %s %s", fields[0], fields[1], fields[2])
	}
	return v, nil
}

// writeASCII serializes a model to the text variant. Floats are emitted
// in scientific notation and triangles keep the model's order.
func writeASCII(ctx context.Context, w io.Writer, m *Model) error {
	bw := bufio.NewWriter(w)

	name := m.Name()
	if name != "" {
		fmt.Fprintf(bw, "solid %s\n", name)
	} else {
		fmt.Fprintln(bw, "solid")
	}

	for _, tri := range m.Triangles() {
		select {
		case <-ctx.Done():
			return &ParseError{Source: name, Err: ctx.Err(), Msg: "save cancelled"}
		default:
		}

		fmt.Fprintf(bw, "  facet normal %e %e %e\n", tri.Normal.X, tri.Normal.Y, tri.Normal.Z)
		fmt.Fprintln(bw, "    outer loop")
		for _, v := range []geometry.Vector3{tri.V1, tri.V2, tri.V3} {
			fmt.Fprintf(bw, "      vertex %e %e %e\n", v.X, v.Y, v.Z)
		}
		fmt.Fprintln(bw, "    endloop")
		fmt.Fprintln(bw, "  endfacet")
	}

	if name != "" {
		fmt.Fprintf(bw, "endsolid %s\n", name)
	} else {
		fmt.Fprintln(bw, "endsolid")
	}

	if err := bw.Flush(); err != nil {
		return &ParseError{Source: name, Err: ErrIO, Msg: err.Error()}
	}
	return nil
}
