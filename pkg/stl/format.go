package stl

import (
	"bytes"
	"encoding/binary"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Format identifies an STL file variant.
type Format int

const (
	FormatUnknown Format = iota
	FormatASCII
	FormatBinary
)

// String returns a human-readable format name.
func (f Format) String() string {
	switch f {
	case FormatASCII:
		return "ASCII"
	case FormatBinary:
		return "Binary"
	default:
		return "Unknown"
	}
}

// Binary STL wire layout.
const (
	binaryHeaderSize = 84 // 80-byte header + 4-byte triangle count
	binaryRecordSize = 50 // 12 float32 + 2-byte attribute count

	// Some writers append trailing bytes after the last record; the
	// structural size check tolerates up to this many.
	binarySizeTolerance = 2
)

// Detection heuristic constants. These thresholds are load-bearing:
// downstream behavior depends on them, do not tune.
const (
	minDetectSize  = 5
	solidProbeSize = 100
	sampleSize     = 1000

	minKeywordMatches = 2
	printableRatio    = 0.8
)

// asciiKeywords are the tokens counted when a "solid"-prefixed buffer
// also passes the binary size check and the two hypotheses must be
// broken apart.
var asciiKeywords = []string{"facet", "vertex", "endloop", "endfacet", "endsolid"}

// DetectFormat classifies a byte buffer as ASCII, Binary or Unknown STL
// using layered heuristics, first match wins:
//
//  1. Too-short input is Unknown.
//  2. A buffer starting with "solid" is ASCII, unless it is also a
//     structurally valid binary file, in which case keyword counting
//     decides.
//  3. A structurally valid binary file is Binary.
//  4. Otherwise a printable-character ratio over a short sample decides.
//
// The classifier is approximate: adversarial input can be misclassified.
func DetectFormat(data []byte) Format {
	if len(data) < minDetectSize {
		return FormatUnknown
	}

	probe := data
	if len(probe) > solidProbeSize {
		probe = probe[:solidProbeSize]
	}
	head := strings.TrimSpace(string(probe))

	if len(head) >= 5 && strings.EqualFold(head[:5], "solid") {
		if !IsValidBinarySTL(data) {
			return FormatASCII
		}
		// Ambiguous: the buffer reads as both variants. ASCII keywords
		// in the leading sample settle it.
		if countKeywords(data) >= minKeywordMatches {
			return FormatASCII
		}
		return FormatBinary
	}

	if IsValidBinarySTL(data) {
		return FormatBinary
	}

	return classifyByContent(data)
}

// IsValidBinarySTL reports whether the buffer is structurally consistent
// with the binary layout: the triangle count declared at bytes 80..83
// must account for the total length, within the trailing-byte tolerance.
func IsValidBinarySTL(data []byte) bool {
	if len(data) < binaryHeaderSize {
		return false
	}
	count := binary.LittleEndian.Uint32(data[80:84])
	expected := int64(binaryHeaderSize) + int64(binaryRecordSize)*int64(count)
	diff := int64(len(data)) - expected
	return diff >= 0 && diff <= binarySizeTolerance
}

// countKeywords returns how many distinct ASCII STL keywords occur in
// the leading sample, case-insensitively.
func countKeywords(data []byte) int {
	sample := data
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}
	text := strings.ToLower(string(sample))

	found := 0
	for _, kw := range asciiKeywords {
		if strings.Contains(text, kw) {
			found++
		}
	}
	return found
}

// classifyByContent is the last-resort heuristic: a mostly-printable
// sample containing an STL token is ASCII, anything else decodable is
// Binary, and undecodable bytes are Unknown.
func classifyByContent(data []byte) Format {
	sample := data
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}
	if !utf8.Valid(sample) {
		return FormatUnknown
	}

	total := 0
	printable := 0
	for _, r := range string(sample) {
		total++
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			printable++
		}
	}
	if total == 0 {
		return FormatUnknown
	}

	if float64(printable)/float64(total) > printableRatio {
		text := bytes.ToLower(sample)
		for _, token := range []string{"solid", "facet", "vertex"} {
			if bytes.Contains(text, []byte(token)) {
				return FormatASCII
			}
		}
	}
	return FormatBinary
}
