package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/notnil/canplot/config"
)

func writeLog(t *testing.T, rows int, trailingNewline bool) string {
	t.Helper()
	var b strings.Builder
	for i := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "0,Rx,%X,0,DataFrame,201,Standard,8,0,Data|01 80 00 00 00 00 00 00", i+1)
	}
	if trailingNewline {
		b.WriteByte('\n')
	}
	path := filepath.Join(t.TempDir(), "capture.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestViewer_DrainHonorsRowLimit(t *testing.T) {
	cfg := config.Default()
	cfg.MaxRowsPerPass = 2
	require.NoError(t, config.Validate(cfg))

	v, err := newViewer(cfg, writeLog(t, 5, true), slog.New(slog.DiscardHandler), viewerOptions{})
	require.NoError(t, err)

	v.drain(context.Background())
	require.Equal(t, 5, v.ingest.Cursor())
	require.Equal(t, 5, v.store.Len(0x201))
}

func TestViewer_PartialLastLine(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, config.Validate(cfg))
	path := writeLog(t, 3, false)

	v, err := newViewer(cfg, path, slog.New(slog.DiscardHandler), viewerOptions{})
	require.NoError(t, err)
	v.drain(context.Background())
	require.Equal(t, 2, v.store.Len(0x201))

	v, err = newViewer(cfg, path, slog.New(slog.DiscardHandler), viewerOptions{partialLines: true})
	require.NoError(t, err)
	v.drain(context.Background())
	require.Equal(t, 3, v.store.Len(0x201))

	latest, ok := v.store.Latest(0x201)
	require.True(t, ok)
	require.Equal(t, uint64(3), latest.Timestamp)
}
