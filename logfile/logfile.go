// Package logfile reads CAN capture logs from disk and hands their rows to
// the canplot ingestor.
//
// Capture tools write these logs in whatever code page the host uses, so
// each read sniffs the encoding: UTF-8 when the bytes are valid UTF-8, GBK
// when they decode cleanly as GBK, and Latin-1 otherwise.
package logfile

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// Encoding names a text encoding a log was decoded with.
type Encoding string

const (
	UTF8   Encoding = "utf-8"
	GBK    Encoding = "gbk"
	Latin1 Encoding = "latin1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText converts raw log bytes to a string and reports the encoding
// that was used.
func DecodeText(b []byte) (string, Encoding) {
	if utf8.Valid(b) {
		return string(bytes.TrimPrefix(b, utf8BOM)), UTF8
	}
	if s, err := simplifiedchinese.GBK.NewDecoder().Bytes(b); err == nil && !bytes.ContainsRune(s, utf8.RuneError) {
		return string(s), GBK
	}
	// Every byte sequence is valid Latin-1.
	s, _ := charmap.ISO8859_1.NewDecoder().Bytes(b)
	return string(s), Latin1
}

// ParseRows splits text into comma separated rows. Rows may have any
// number of fields.
func ParseRows(text string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("logfile: parse: %w", err)
		}
		rows = append(rows, rec)
	}
}

// completeLines drops a trailing line that has no terminating newline yet;
// the writer is usually still in the middle of it.
func completeLines(text string) string {
	if text == "" || strings.HasSuffix(text, "\n") {
		return text
	}
	i := strings.LastIndexByte(text, '\n')
	if i < 0 {
		return ""
	}
	return text[:i+1]
}

// File is a capture log on disk. It implements canplot.RowSource.
type File struct {
	path    string
	logger  *slog.Logger
	partial bool
	last    Encoding
}

// Option configures a File.
type Option func(*File)

// WithLogger sets the logger used to report encoding changes.
func WithLogger(l *slog.Logger) Option {
	return func(f *File) { f.logger = l }
}

// WithPartialLines makes Rows include a final line that is not yet
// newline terminated.
func WithPartialLines() Option {
	return func(f *File) { f.partial = true }
}

// Open returns a File reading path. The file is not opened until Rows is
// called.
func Open(path string, opts ...Option) *File {
	f := &File{path: path, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the file path.
func (f *File) Path() string { return f.path }

// Encoding returns the encoding detected by the most recent successful read.
func (f *File) Encoding() Encoding { return f.last }

// Rows reads the whole file and returns its rows in order. Rows is not
// safe for concurrent use.
func (f *File) Rows(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("logfile: %w", err)
	}
	text, enc := DecodeText(b)
	if enc != f.last {
		f.logger.Debug("logfile encoding detected", "path", f.path, "encoding", string(enc))
		f.last = enc
	}
	if !f.partial {
		text = completeLines(text)
	}
	return ParseRows(text)
}
