package canplot

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/notnil/canplot/canbus"
)

type recordSink struct {
	mu      sync.Mutex
	records []slog.Record
}

func (s *recordSink) Enabled(context.Context, slog.Level) bool { return true }
func (s *recordSink) Handle(_ context.Context, r slog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r.Clone())
	return nil
}
func (s *recordSink) WithAttrs(attrs []slog.Attr) slog.Handler { return s }
func (s *recordSink) WithGroup(name string) slog.Handler      { return s }

func (s *recordSink) count(level slog.Level, msg string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.records {
		if r.Level == level && r.Message == msg {
			n++
		}
	}
	return n
}

func recordAttr(r slog.Record, key string) (slog.Value, bool) {
	var v slog.Value
	found := false
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			v, found = a.Value, true
			return false
		}
		return true
	})
	return v, found
}

func TestLoggedSink_LogsAndForwards(t *testing.T) {
	sink := &recordSink{}
	store := NewStore(10)
	logged := NewLoggedSink(store, slog.New(sink), slog.LevelDebug)

	logged.Append(Sample{
		Channel:   0x201,
		Timestamp: 7,
		Position:  0.25,
		Frame:     canbus.MustFrame(0x201, []byte{1, 0x80, 0, 0, 0, 0, 0, 0}),
	})

	if store.Len(0x201) != 1 {
		t.Fatalf("sample not forwarded to inner sink")
	}
	if sink.count(slog.LevelDebug, "canplot append") != 1 {
		t.Fatalf("expected append log entry")
	}
	v, ok := recordAttr(sink.records[0], "frame")
	if !ok || v.String() != "201 [8] 01 80 00 00 00 00 00 00" {
		t.Fatalf("frame attr: got %v", v)
	}
}

func TestLoggedSink_Filter(t *testing.T) {
	sink := &recordSink{}
	store := NewStore(10)
	logged := NewLoggedSinkWithFilter(store, slog.New(sink), slog.LevelInfo, canbus.ByID(0x202))

	for _, id := range []uint32{0x201, 0x202, 0x201} {
		logged.Append(Sample{Channel: id, Frame: canbus.MustFrame(id, []byte{1, 0, 0, 0, 0, 0, 0, 0})})
	}

	if got := sink.count(slog.LevelInfo, "canplot append"); got != 1 {
		t.Fatalf("expected 1 filtered log entry, got %d", got)
	}
	if store.Len(0x201) != 2 || store.Len(0x202) != 1 {
		t.Fatalf("filter must not drop samples from the inner sink")
	}
}

func TestIngest_LogsRejections(t *testing.T) {
	sink := &recordSink{}
	in, _ := newTestIngestor(t, 10, IngestorConfig{Logger: slog.New(sink)})

	_, err := in.Ingest([][]string{
		{"short"},
		motorRow(1, 0x201, 1),
		logRow("1", "201", "01 80 ZZ 00 00 00 00 00"),
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if got := sink.count(slog.LevelWarn, "canplot row rejected"); got != 2 {
		t.Fatalf("expected 2 rejection log entries, got %d", got)
	}
	if sink.count(slog.LevelDebug, "canplot pass") != 1 {
		t.Fatalf("expected pass summary log entry")
	}
	v, ok := recordAttr(sink.records[0], "reason")
	if !ok || v.String() != "RowTooShort" {
		t.Fatalf("reason attr: got %v", v)
	}
}
