// Package batch reads query lists from plain text or NDJSON files, optionally
// gzip or zstd compressed.
package batch

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/valyala/fastjson"
)

// maxLineSize bounds a single input line.
const maxLineSize = 1 << 20

// ErrMissingField is returned when an NDJSON record has no string at the
// configured field.
var ErrMissingField = errors.New("query field missing or not a string")

// Record is one query read from the input.
type Record struct {
	Line  int    `json:"line"`
	Query string `json:"query"`
}

// Option configures a Reader.
type Option func(*Reader)

// WithJSONField switches the reader to NDJSON input; the query of every
// record is the string stored under name.
func WithJSONField(name string) Option {
	return func(r *Reader) {
		r.field = name
	}
}

// Reader yields one Record per non-blank input line.
type Reader struct {
	scanner *bufio.Scanner
	closers []func() error
	field   string
	parser  fastjson.Parser
	line    int
}

// Open opens path for reading. "-" reads standard input. Files ending in .gz
// or .zst are decompressed on the fly.
func Open(path string, opts ...Option) (*Reader, error) {
	if path == "-" {
		return NewReader(os.Stdin, opts...), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open query file: %w", err)
	}

	var src io.Reader = f
	closers := []func() error{f.Close}

	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip stream %s: %w", path, err)
		}
		src = gz
		closers = append([]func() error{gz.Close}, closers...)

	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open zstd stream %s: %w", path, err)
		}
		src = dec
		closers = append([]func() error{func() error { dec.Close(); return nil }}, closers...)
	}

	r := NewReader(src, opts...)
	r.closers = closers
	return r, nil
}

// NewReader reads uncompressed input from src. The caller owns src.
func NewReader(src io.Reader, opts ...Option) *Reader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	r := &Reader{scanner: scanner}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Next returns the next record, or io.EOF when the input is exhausted.
func (r *Reader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++
		raw := bytes.TrimSuffix(r.scanner.Bytes(), []byte("\r"))
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}

		if r.field == "" {
			return Record{Line: r.line, Query: string(raw)}, nil
		}

		q, err := r.queryFromJSON(raw)
		if err != nil {
			return Record{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		return Record{Line: r.line, Query: q}, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("read line %d: %w", r.line+1, err)
	}
	return Record{}, io.EOF
}

func (r *Reader) queryFromJSON(raw []byte) (string, error) {
	v, err := r.parser.ParseBytes(raw)
	if err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	field := v.Get(r.field)
	if field == nil || field.Type() != fastjson.TypeString {
		return "", fmt.Errorf("%w: %q", ErrMissingField, r.field)
	}
	b, err := field.StringBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Close releases the decompressor and the underlying file, if any.
func (r *Reader) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// ReadAll drains r.
func ReadAll(r *Reader) ([]Record, error) {
	var records []Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}
