package canplot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// RowSource supplies the full ordered row list of the log in its current
// state. Implementations own opening and text-decoding the file.
type RowSource interface {
	Rows(ctx context.Context) ([][]string, error)
}

// RowSourceFunc adapts a function to RowSource.
type RowSourceFunc func(ctx context.Context) ([][]string, error)

func (f RowSourceFunc) Rows(ctx context.Context) ([][]string, error) { return f(ctx) }

// Rejection records a row the decoder refused. Index is the row's position
// in the log.
type Rejection struct {
	Index int
	Row   []string
	Err   *DecodeError
}

// Reason returns the rejection kind.
func (r Rejection) Reason() Reason { return r.Err.Reason }

func (r Rejection) Error() string {
	return fmt.Sprintf("row %d: %v", r.Index, r.Err)
}

// Report summarizes one ingestion pass over rows [Start, End).
type Report struct {
	Start      int
	End        int
	Total      int // rows in the log when the pass ran
	Appended   int
	Skipped    int // well-formed rows that carried no position
	Rejections []Rejection
}

// Pending returns how many rows were left for a later pass because of the
// per-pass row limit.
func (r Report) Pending() int {
	if r.Total > r.End {
		return r.Total - r.End
	}
	return 0
}

// IngestorConfig tunes an Ingestor. The zero value is usable.
type IngestorConfig struct {
	// MaxRowsPerPass caps the rows decoded per pass. Zero means no cap.
	MaxRowsPerPass int
	// Logger receives one Warn record per rejected row. Nil disables logging.
	Logger *slog.Logger
}

// Ingestor feeds newly appended log rows through a Decoder into a Sink.
//
// It keeps a cursor counting the rows already consumed. Every row is
// examined at most once: rejected rows are reported and never retried.
// Passes are serialized; the cursor moves once, after the whole pass.
type Ingestor struct {
	dec     *Decoder
	sink    Sink
	maxRows int
	logger  *slog.Logger

	mu     sync.Mutex
	cursor int
}

// NewIngestor returns an Ingestor starting at row zero.
func NewIngestor(dec *Decoder, sink Sink, cfg IngestorConfig) *Ingestor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxRows := cfg.MaxRowsPerPass
	if maxRows < 0 {
		maxRows = 0
	}
	return &Ingestor{
		dec:     dec,
		sink:    sink,
		maxRows: maxRows,
		logger:  logger,
	}
}

// Cursor returns the number of rows consumed so far.
func (in *Ingestor) Cursor() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.cursor
}

// Pass reads the current rows from src and ingests the new ones. If src
// fails the cursor is left unchanged and the error wraps ErrLogUnreadable;
// the caller should retry on the next trigger.
func (in *Ingestor) Pass(ctx context.Context, src RowSource) (Report, error) {
	rows, err := src.Rows(ctx)
	if err != nil {
		c := in.Cursor()
		return Report{Start: c, End: c}, fmt.Errorf("%w: %w", ErrLogUnreadable, err)
	}
	return in.Ingest(rows)
}

// Ingest decodes rows[cursor:] and appends every sample to the sink. A
// row list with no new rows is a no-op. A row list shorter than the cursor
// returns ErrLogShrunk and leaves the cursor unchanged.
func (in *Ingestor) Ingest(rows [][]string) (Report, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	rep := Report{Start: in.cursor, End: in.cursor, Total: len(rows)}
	if len(rows) < in.cursor {
		in.logger.Warn("canplot log shrunk", "cursor", in.cursor, "rows", len(rows))
		return rep, fmt.Errorf("%w: cursor %d, rows %d", ErrLogShrunk, in.cursor, len(rows))
	}

	end := len(rows)
	if in.maxRows > 0 && end-in.cursor > in.maxRows {
		end = in.cursor + in.maxRows
	}
	for i := in.cursor; i < end; i++ {
		s, ok, err := in.dec.Decode(rows[i])
		switch {
		case err != nil:
			rej := Rejection{Index: i, Row: rows[i], Err: asDecodeError(err)}
			rep.Rejections = append(rep.Rejections, rej)
			in.logger.Warn("canplot row rejected",
				"row", i,
				"reason", rej.Reason().String(),
				"error", err,
			)
		case ok:
			in.sink.Append(s)
			rep.Appended++
		default:
			rep.Skipped++
		}
	}
	in.cursor = end
	rep.End = end

	if rep.End > rep.Start {
		in.logger.Debug("canplot pass",
			"start", rep.Start,
			"end", rep.End,
			"appended", rep.Appended,
			"skipped", rep.Skipped,
			"rejected", len(rep.Rejections),
			"pending", rep.Pending(),
		)
	}
	return rep, nil
}

func asDecodeError(err error) *DecodeError {
	var de *DecodeError
	if errors.As(err, &de) {
		return de
	}
	return &DecodeError{Err: err}
}
