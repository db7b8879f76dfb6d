package sniff

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// SampleSize is how many bytes of the file the detector inspects.
const SampleSize = 10 * 1024

// DefaultSeparators is the candidate list in priority order. Earlier
// candidates win ties during separator detection.
var DefaultSeparators = []rune{',', ';', '\t', '|'}

// DefaultFallbackEncodings are tried in order when the statistical
// classifier is not confident enough about its best guess.
var DefaultFallbackEncodings = []string{"windows-1252", "ISO-8859-1"}

// minConfidence is the classifier confidence below which we fall back
// through DefaultFallbackEncodings.
const minConfidence = 0.5

var (
	ErrEmptyFile  = errors.New("file is empty")
	ErrNoEncoding = errors.New("no candidate encoding decodes the sample")
)

// DetectionError reports that a file's format could not be determined.
// It aborts an analysis before any row is read.
type DetectionError struct {
	Path string
	Err  error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("format detection failed for %s: %v", e.Path, e.Err)
}

func (e *DetectionError) Unwrap() error { return e.Err }

// FileProfile describes the detected format of a delimited file.
// It is produced once per file and never mutated afterwards.
type FileProfile struct {
	Encoding    string
	Confidence  float64
	Separator   rune
	ColumnCount int
}

// Detect runs the charset classifier over sample and returns the best
// encoding label with its confidence in [0,1]. When the classifier is
// unsure it falls back through the candidate list, accepting the first
// encoding that decodes the sample cleanly.
func Detect(sample []byte) (string, float64, error) {
	if len(sample) == 0 {
		return "", 0, ErrEmptyFile
	}

	detector := chardet.NewTextDetector()
	if best, err := detector.DetectBest(sample); err == nil {
		confidence := float64(best.Confidence) / 100.0
		if confidence >= minConfidence && decodes(best.Charset, sample) {
			return best.Charset, confidence, nil
		}
	}

	for _, candidate := range DefaultFallbackEncodings {
		if decodes(candidate, sample) {
			return candidate, 0, nil
		}
	}

	return "", 0, ErrNoEncoding
}

// decodes reports whether sample can be decoded as the named encoding
// without error. Single-byte encodings accept any input; UTF-8 and the
// UTF-16 variants are validated.
func decodes(name string, sample []byte) bool {
	enc, err := EncodingFor(name)
	if err != nil {
		return false
	}
	if isUTF8(name) {
		return utf8.Valid(sample)
	}
	_, err = enc.NewDecoder().Bytes(sample)
	return err == nil
}

func isUTF8(name string) bool {
	switch strings.ToUpper(name) {
	case "UTF-8", "UTF8", "ASCII", "US-ASCII":
		return true
	}
	return false
}

// EncodingFor resolves a classifier label to a decodable encoding.
// Unknown labels degrade to windows-1252, which accepts any byte.
func EncodingFor(name string) (encoding.Encoding, error) {
	if name == "" {
		return nil, errors.New("empty encoding name")
	}
	if isUTF8(name) {
		return encoding.Nop, nil
	}
	if enc, err := htmlindex.Get(name); err == nil {
		return enc, nil
	}
	return charmap.Windows1252, nil
}

// DetectSeparator splits line on each candidate separator and returns
// the one producing the most fields. Ties are broken by candidate
// priority order. Quoted fields are not specially handled.
func DetectSeparator(line string, candidates []rune) (rune, int) {
	if len(candidates) == 0 {
		candidates = DefaultSeparators
	}

	best := candidates[0]
	maxFields := 0
	for _, sep := range candidates {
		fields := len(strings.Split(line, string(sep)))
		if fields > maxFields {
			maxFields = fields
			best = sep
		}
	}
	return best, maxFields
}

// Sniff reads the first SampleSize bytes of the file at path and infers
// its encoding and field separator. The result is required before any
// row can be parsed.
func Sniff(path string, separators []rune) (*FileProfile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	sample := make([]byte, SampleSize)
	n, err := io.ReadFull(file, sample)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("failed to read sample: %w", err)
	}
	sample = sample[:n]

	enc, confidence, err := Detect(sample)
	if err != nil {
		return nil, &DetectionError{Path: path, Err: err}
	}

	firstLine, err := decodeFirstLine(enc, sample)
	if err != nil {
		return nil, &DetectionError{Path: path, Err: err}
	}

	sep, fields := DetectSeparator(firstLine, separators)

	return &FileProfile{
		Encoding:    enc,
		Confidence:  confidence,
		Separator:   sep,
		ColumnCount: fields,
	}, nil
}

func decodeFirstLine(name string, sample []byte) (string, error) {
	enc, err := EncodingFor(name)
	if err != nil {
		return "", err
	}
	decoded, err := enc.NewDecoder().Bytes(sample)
	if err != nil {
		return "", err
	}
	line := string(decoded)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line), nil
}
