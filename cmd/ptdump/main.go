// Command ptdump prints the series stored in a ptviewer snapshot.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/notnil/canplot"
	"github.com/notnil/canplot/export"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] snapshot.mebo\n", os.Args[0])
		flag.PrintDefaults()
	}
	summary := flag.Bool("summary", false, "Print one line per channel instead of every point")
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		slog.Error("failed to read snapshot", "error", err)
		os.Exit(1)
	}
	snap, err := export.Decode(data)
	if err != nil {
		slog.Error("failed to decode snapshot", "error", err)
		os.Exit(1)
	}

	fmt.Printf("# start %s\n", snap.Start.Format("2006-01-02T15:04:05.000Z07:00"))
	for _, id := range snap.ChannelIDs() {
		pts := snap.Series[id]
		if *summary {
			last := pts[len(pts)-1]
			fmt.Printf("%s\t%d points\tlast %X %+.4f\n", canplot.ChannelLabel(id), len(pts), last.Timestamp, last.Position)
			continue
		}
		for _, p := range pts {
			fmt.Printf("%s\t%X\t%+.6f\n", canplot.ChannelLabel(id), p.Timestamp, p.Position)
		}
	}
}
