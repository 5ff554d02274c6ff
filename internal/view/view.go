// Package view renders channel series as a text table with one sparkline
// per channel.
package view

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/notnil/canplot"
)

var bars = []rune("▁▂▃▄▅▆▇█")

// Source is the read side of a canplot.Store.
type Source interface {
	ChannelIDs() []uint32
	Snapshot(id uint32) []canplot.Point
}

// Table renders sparklines scaled to the fixed range [Min, Max].
type Table struct {
	Min   float64
	Max   float64
	Width int // sparkline cells; the most recent points are shown
}

// Render writes one line per channel known to src. Channels without points
// are listed with a placeholder.
func (t Table) Render(w io.Writer, src Source) error {
	ids := src.ChannelIDs()
	if len(ids) == 0 {
		_, err := fmt.Fprintln(w, "waiting for motor replies...")
		return err
	}
	for _, id := range ids {
		pts := src.Snapshot(id)
		if len(pts) == 0 {
			if _, err := fmt.Fprintf(w, "%-12s %4d  %-10s %-10s\n", canplot.ChannelLabel(id), 0, "-", "-"); err != nil {
				return err
			}
			continue
		}
		last := pts[len(pts)-1]
		_, err := fmt.Fprintf(w, "%-12s %4d  %-10X %+9.4f  %s\n",
			canplot.ChannelLabel(id), len(pts), last.Timestamp, last.Position, t.Sparkline(pts))
		if err != nil {
			return err
		}
	}
	return nil
}

// Sparkline maps the last Width positions onto block characters.
func (t Table) Sparkline(pts []canplot.Point) string {
	if t.Width > 0 && len(pts) > t.Width {
		pts = pts[len(pts)-t.Width:]
	}
	span := t.Max - t.Min
	var b strings.Builder
	for _, p := range pts {
		idx := 0
		if span > 0 {
			frac := (p.Position - t.Min) / span
			idx = int(math.Round(frac * float64(len(bars)-1)))
		}
		idx = min(max(idx, 0), len(bars)-1)
		b.WriteRune(bars[idx])
	}
	return b.String()
}
