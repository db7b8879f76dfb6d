package source

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/transform"

	"github.com/alexdataengineer/efficient-data-pipeline-better-collective/internal/sniff"
)

// DefaultChunkSize is the number of rows per batch.
const DefaultChunkSize = 10000

// Schema is the ordered sequence of column names from the header row.
type Schema []string

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, col := range s {
		if col == name {
			return i
		}
	}
	return -1
}

// Batch is a bounded group of consecutive decoded rows. Rows holds only
// well-formed rows; Malformed counts rows whose field count did not
// match the header and were skipped.
type Batch struct {
	Rows      [][]string
	Malformed int
}

// RowSource produces a lazy, finite sequence of row batches from a
// delimited file. It is not restartable mid-iteration: a fresh pass
// over the same file requires a fresh Open. This trades I/O for memory.
type RowSource struct {
	file      *os.File
	scanner   *bufio.Scanner
	schema    Schema
	separator string
	chunkSize int
	done      bool
}

// Open opens the file at path for one streaming pass using the detected
// profile. The header row is consumed immediately and exposed via
// Schema; batches contain data rows only.
func Open(path string, profile *sniff.FileProfile, chunkSize int) (*RowSource, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	enc, err := sniff.EncodingFor(profile.Encoding)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("unsupported encoding %q: %w", profile.Encoding, err)
	}

	scanner := bufio.NewScanner(transform.NewReader(file, enc.NewDecoder()))
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	if !scanner.Scan() {
		file.Close()
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read header: %w", err)
		}
		return nil, fmt.Errorf("failed to read header: %w", io.ErrUnexpectedEOF)
	}

	sep := string(profile.Separator)
	header := strings.Split(scanner.Text(), sep)
	schema := make(Schema, len(header))
	for i, name := range header {
		schema[i] = cleanField(name)
	}

	return &RowSource{
		file:      file,
		scanner:   scanner,
		schema:    schema,
		separator: sep,
		chunkSize: chunkSize,
	}, nil
}

// Schema returns the column names parsed from the header row.
func (s *RowSource) Schema() Schema {
	return s.schema
}

// Next returns the next batch of rows. It returns io.EOF once the file
// is exhausted.
func (s *RowSource) Next() (*Batch, error) {
	if s.done {
		return nil, io.EOF
	}

	batch := &Batch{Rows: make([][]string, 0, s.chunkSize)}
	for len(batch.Rows) < s.chunkSize {
		if !s.scanner.Scan() {
			s.done = true
			if err := s.scanner.Err(); err != nil {
				return nil, fmt.Errorf("failed to read record: %w", err)
			}
			break
		}

		line := s.scanner.Text()
		if line == "" {
			continue
		}

		fields := strings.Split(line, s.separator)
		if len(fields) != len(s.schema) {
			batch.Malformed++
			continue
		}

		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = cleanField(f)
		}
		batch.Rows = append(batch.Rows, row)
	}

	if len(batch.Rows) == 0 && batch.Malformed == 0 {
		return nil, io.EOF
	}
	return batch, nil
}

// Close releases the underlying file handle.
func (s *RowSource) Close() error {
	return s.file.Close()
}

// cleanField trims surrounding whitespace and one pair of surrounding
// double quotes. The parser has no full quoting support; this keeps
// simple quoted cells from leaking quote characters into values.
func cleanField(f string) string {
	f = strings.TrimSpace(f)
	if len(f) >= 2 && f[0] == '"' && f[len(f)-1] == '"' {
		f = f[1 : len(f)-1]
	}
	return f
}
