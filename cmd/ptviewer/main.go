// Command ptviewer follows a CAN capture log and shows the motor position
// of every channel as it is written.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/notnil/canplot"
	"github.com/notnil/canplot/canbus"
	"github.com/notnil/canplot/config"
	"github.com/notnil/canplot/export"
	"github.com/notnil/canplot/internal/view"
	"github.com/notnil/canplot/logfile"
)

const (
	defaultLogPath = "data_0004.csv"
	clearScreen    = "\x1b[H\x1b[2J"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	logPath := flag.String("file", defaultLogPath, "CAN capture log to follow")
	maxPoints := flag.Int("max-points", 0, "Points kept per channel (overrides config)")
	snapshotPath := flag.String("snapshot", "", "Write a mebo snapshot of the display window here on exit")
	once := flag.Bool("once", false, "Ingest the log once, print the table and exit")
	partial := flag.Bool("partial-lines", false, "Decode a last line that has no newline yet (implied by -once)")
	trace := flag.String("trace", "", "Log every sample of this hex CAN identifier")
	debug := flag.Bool("debug", false, "Enable debug logging")
	logJSON := flag.Bool("log-json", false, "Log as JSON")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: logLevel}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, hopts)
	if *logJSON {
		handler = slog.NewJSONHandler(os.Stderr, hopts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			slog.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
	}
	if *maxPoints > 0 {
		cfg.MaxPoints = *maxPoints
	}
	if err := config.Validate(cfg); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := viewerOptions{partialLines: *partial || *once}
	if *trace != "" {
		id, err := strconv.ParseUint(strings.TrimPrefix(*trace, "0x"), 16, 32)
		if err != nil {
			slog.Error("invalid -trace identifier", "value", *trace, "error", err)
			os.Exit(2)
		}
		opts.trace = canbus.ByID(uint32(id))
	}

	v, err := newViewer(cfg, *logPath, logger, opts)
	if err != nil {
		slog.Error("failed to create viewer", "error", err)
		os.Exit(1)
	}

	if *once {
		v.drain(ctx)
		err = v.table.Render(os.Stdout, v.store)
	} else {
		slog.Info("following capture log", "file", *logPath, "max_points", cfg.MaxPoints)
		err = v.run(ctx)
	}
	if err != nil {
		slog.Error("viewer stopped", "error", err)
	}

	if *snapshotPath != "" {
		switch err := writeSnapshot(*snapshotPath, v.store); {
		case errors.Is(err, export.ErrEmpty):
			slog.Info("no points to snapshot")
		case err != nil:
			slog.Error("failed to write snapshot", "path", *snapshotPath, "error", err)
			os.Exit(1)
		default:
			slog.Info("snapshot written", "path", *snapshotPath)
		}
	}
	if err != nil {
		os.Exit(1)
	}
}

type viewer struct {
	cfg    *config.Config
	logger *slog.Logger
	file   *logfile.File
	store  *canplot.Store
	ingest *canplot.Ingestor
	table  view.Table
	dirty  atomic.Bool
}

type viewerOptions struct {
	partialLines bool
	trace        canbus.FrameFilter // frames whose samples are logged at Info
}

func newViewer(cfg *config.Config, path string, logger *slog.Logger, opts viewerOptions) (*viewer, error) {
	dec, err := canplot.NewDecoder(cfg.DecoderConfig())
	if err != nil {
		return nil, err
	}
	store := canplot.NewStore(cfg.MaxPoints)
	for _, id := range cfg.ChannelIDs() {
		store.Register(id)
	}

	var sink canplot.Sink = store
	switch {
	case opts.trace != nil:
		sink = canplot.NewLoggedSinkWithFilter(store, logger, slog.LevelInfo, opts.trace)
	case logger.Enabled(context.Background(), slog.LevelDebug):
		sink = canplot.NewLoggedSink(store, logger, slog.LevelDebug)
	}
	fopts := []logfile.Option{logfile.WithLogger(logger)}
	if opts.partialLines {
		fopts = append(fopts, logfile.WithPartialLines())
	}
	icfg := cfg.IngestorConfig()
	icfg.Logger = logger

	return &viewer{
		cfg:    cfg,
		logger: logger,
		file:   logfile.Open(path, fopts...),
		store:  store,
		ingest: canplot.NewIngestor(dec, sink, icfg),
		table: view.Table{
			Min:   cfg.PositionMin,
			Max:   cfg.PositionMax,
			Width: cfg.MaxPoints,
		},
	}, nil
}

// pass runs one ingestion pass and reports whether rows remain because of
// the per-pass limit.
func (v *viewer) pass(ctx context.Context) bool {
	rep, err := v.ingest.Pass(ctx, v.file)
	switch {
	case errors.Is(err, canplot.ErrLogUnreadable):
		// Retried on the next file event.
		v.logger.Warn("capture log unreadable", "file", v.file.Path(), "error", err)
		return false
	case err != nil:
		v.logger.Warn("ingest pass failed", "file", v.file.Path(), "error", err)
		return false
	}
	if rep.Appended > 0 {
		v.dirty.Store(true)
	}
	return rep.Pending() > 0
}

// drain runs passes until no rows are held back by the per-pass limit.
func (v *viewer) drain(ctx context.Context) {
	for v.pass(ctx) {
	}
}

func (v *viewer) run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	target, err := filepath.Abs(v.file.Path())
	if err != nil {
		return err
	}
	// Watch the directory so the log may be created or replaced later.
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	triggers := make(chan struct{}, 1)
	trigger := func() {
		select {
		case triggers <- struct{}{}:
		default:
		}
	}
	go v.watch(ctx, w, target, trigger)
	trigger()

	refresh := time.NewTicker(v.cfg.Refresh())
	defer refresh.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-triggers:
			if v.pass(ctx) {
				trigger()
			}
		case <-refresh.C:
			if v.dirty.Swap(false) {
				fmt.Fprint(os.Stdout, clearScreen)
				if err := v.table.Render(os.Stdout, v.store); err != nil {
					return err
				}
			}
		}
	}
}

// watch coalesces change events for target into trigger calls, at most one
// per debounce window.
func (v *viewer) watch(ctx context.Context, w *fsnotify.Watcher, target string, trigger func()) {
	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.After(v.cfg.Debounce())
			}
		case <-debounce:
			debounce = nil
			trigger()
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			v.logger.Warn("file watcher error", "error", err)
		}
	}
}

func writeSnapshot(path string, store *canplot.Store) error {
	data, err := export.EncodeStore(store, time.Now(), export.Options{Compress: true})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
