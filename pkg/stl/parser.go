// Package stl parses and serializes STL triangle meshes in both the
// ASCII and binary variants. Format detection is heuristic, parsing is
// streaming and bounded by safety limits, and every failure is a typed
// error value; nothing panics across the package boundary.
package stl

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/philipparndt/gomesh/pkg/geometry"
	"go.uber.org/zap"
)

// Limits bound how much input a single parse is willing to consume.
type Limits struct {
	// MaxTriangles aborts a parse before the triangle sequence grows
	// past this count.
	MaxTriangles int

	// MaxLineLength aborts an ASCII parse when a single line exceeds
	// this many bytes.
	MaxLineLength int
}

// DefaultLimits returns the standard safety limits.
func DefaultLimits() Limits {
	return Limits{
		MaxTriangles:  10_000_000,
		MaxLineLength: 1024,
	}
}

// Parser is the entry point for loading and saving STL models. It holds
// no per-call state: a single Parser is safe for concurrent use.
type Parser struct {
	Limits Limits
	Logger *zap.Logger
}

// NewParser returns a parser with default limits and a no-op logger.
func NewParser() *Parser {
	return &Parser{
		Limits: DefaultLimits(),
		Logger: zap.NewNop(),
	}
}

// Parse detects the format of the byte buffer and parses it into a
// validated model. A definite classification runs only the matching
// parser; when detection is inconclusive the binary parser is tried
// first (it rejects malformed input cheaply) and the ASCII parser
// second, and if both fail the error reports both diagnoses. No partial
// model is ever returned.
func (p *Parser) Parse(ctx context.Context, data []byte, source string) (m *Model, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, parseErr(source, ErrStructural, "internal fault: %v", r)
		}
	}()

	if len(data) == 0 {
		return nil, &ParseError{Source: source, Err: ErrEmptyInput}
	}

	format := DetectFormat(data)
	p.Logger.Debug("detected format",
		zap.String("source", source),
		zap.Stringer("format", format),
		zap.Int("bytes", len(data)))

	switch format {
	case FormatASCII:
		return p.parseAs(ctx, data, source, FormatASCII)
	case FormatBinary:
		return p.parseAs(ctx, data, source, FormatBinary)
	default:
		return p.parseFallback(ctx, data, source)
	}
}

// parseFallback handles an Unknown classification by attempting both
// parsers in turn. Cancellation short-circuits the second attempt.
func (p *Parser) parseFallback(ctx context.Context, data []byte, source string) (*Model, error) {
	m, binErr := p.parseAs(ctx, data, source, FormatBinary)
	if binErr == nil {
		return m, nil
	}
	if ctx.Err() != nil {
		return nil, binErr
	}

	m, asciiErr := p.parseAs(ctx, data, source, FormatASCII)
	if asciiErr == nil {
		return m, nil
	}
	if ctx.Err() != nil {
		return nil, asciiErr
	}

	return nil, parseErr(source, ErrAmbiguousFormat, "binary: %v; ascii: %v", binErr, asciiErr)
}

// parseAs runs one variant parser and assembles the model.
func (p *Parser) parseAs(ctx context.Context, data []byte, source string, format Format) (*Model, error) {
	var (
		name string
		tris []geometry.Triangle
		err  error
	)

	switch format {
	case FormatASCII:
		name, tris, err = parseASCII(ctx, data, source, p.Limits)
	case FormatBinary:
		name, tris, err = parseBinary(ctx, data, source, p.Limits)
	default:
		return nil, &ParseError{Source: source, Err: ErrUnknownFormat}
	}
	if err != nil {
		return nil, err
	}
	return p.finish(name, source, format, tris, data)
}

// finish validates the triangle sequence and logs a parse summary.
func (p *Parser) finish(name, source string, format Format, tris []geometry.Triangle, raw []byte) (*Model, error) {
	m, err := NewModel(name, source, format, tris, raw)
	if err != nil {
		return nil, err
	}
	p.Logger.Debug("parsed model",
		zap.String("source", source),
		zap.Stringer("format", format),
		zap.Int("triangles", m.TriangleCount()),
		zap.Int("degenerate", m.Metadata().DegenerateCount))
	return m, nil
}

// ParseFile reads and parses the file at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ParseError{Source: path, Err: ErrFileNotFound}
		}
		return nil, parseErr(path, ErrIO, "%v", err)
	}
	return p.Parse(ctx, data, filepath.Base(path))
}

// ParseReader buffers the reader fully, then parses. The binary size
// check needs the total length up front, and the raw buffer is retained
// on the model in any case.
func (p *Parser) ParseReader(ctx context.Context, r io.Reader, source string) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, parseErr(source, ErrIO, "%v", err)
	}
	return p.Parse(ctx, data, source)
}

// DetectFormat classifies a byte buffer without parsing it.
func (p *Parser) DetectFormat(data []byte) Format {
	return DetectFormat(data)
}

// Save serializes the model to w in the variant named by the model's
// metadata. It never re-detects: a model carrying FormatUnknown is an
// error.
func (p *Parser) Save(ctx context.Context, m *Model, w io.Writer) error {
	switch m.Metadata().Format {
	case FormatASCII:
		return writeASCII(ctx, w, m)
	case FormatBinary:
		return writeBinary(ctx, w, m)
	default:
		return &ParseError{Source: m.Metadata().SourceFile, Err: ErrUnknownFormat}
	}
}

// SaveFile serializes the model to the file at path.
func (p *Parser) SaveFile(ctx context.Context, m *Model, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return parseErr(path, ErrIO, "%v", err)
	}
	defer f.Close()

	if err := p.Save(ctx, m, f); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return parseErr(path, ErrIO, "%v", err)
	}
	return nil
}

// Parse loads the STL file at path with default limits.
func Parse(path string) (*Model, error) {
	return NewParser().ParseFile(context.Background(), path)
}
