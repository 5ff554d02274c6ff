// Package export serializes channel series into compact mebo numeric blobs.
//
// Each channel becomes one metric. Timestamps are delta encoded and
// positions Gorilla encoded, which suits slowly moving motor positions
// sampled at a steady rate. mebo reserves metric ID zero, so channel IDs
// are stored offset by one.
package export

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/arloliu/mebo"
	"github.com/arloliu/mebo/blob"
	"github.com/arloliu/mebo/format"

	"github.com/notnil/canplot"
)

var (
	ErrEmpty             = errors.New("export: no points to encode")
	ErrTimestampOverflow = errors.New("export: timestamp exceeds int64 range")
	ErrBadMetricID       = errors.New("export: metric id is not a channel")
)

// Options tunes Encode.
type Options struct {
	// Compress applies S2 compression to the timestamp and value payloads.
	Compress bool
}

// EncodeStore encodes every non-empty channel of s.
func EncodeStore(s *canplot.Store, start time.Time, opts Options) ([]byte, error) {
	return Encode(s.SnapshotAll(), start, opts)
}

// Encode encodes the given series. Channels without points are left out.
// start is recorded as the blob start time.
func Encode(series map[uint32][]canplot.Point, start time.Time, opts Options) ([]byte, error) {
	enc, err := newEncoder(start, opts)
	if err != nil {
		return nil, err
	}

	ids := make([]uint32, 0, len(series))
	for id, pts := range series {
		if len(pts) > 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, ErrEmpty
	}
	slices.Sort(ids)

	for _, id := range ids {
		pts := series[id]
		ts := make([]int64, len(pts))
		vals := make([]float64, len(pts))
		for i, p := range pts {
			if p.Timestamp > math.MaxInt64 {
				return nil, fmt.Errorf("%w: channel %#x timestamp %d", ErrTimestampOverflow, id, p.Timestamp)
			}
			ts[i] = int64(p.Timestamp)
			vals[i] = p.Position
		}
		if err := enc.StartMetricID(metricID(id), len(pts)); err != nil {
			return nil, fmt.Errorf("export: channel %#x: %w", id, err)
		}
		if err := enc.AddDataPoints(ts, vals, nil); err != nil {
			return nil, fmt.Errorf("export: channel %#x: %w", id, err)
		}
		if err := enc.EndMetric(); err != nil {
			return nil, fmt.Errorf("export: channel %#x: %w", id, err)
		}
	}
	return enc.Finish()
}

func newEncoder(start time.Time, opts Options) (*blob.NumericEncoder, error) {
	if !opts.Compress {
		return mebo.NewDefaultNumericEncoder(start)
	}
	return mebo.NewNumericEncoder(start,
		blob.WithLittleEndian(),
		blob.WithTagsEnabled(false),
		blob.WithTimestampEncoding(format.TypeDelta),
		blob.WithTimestampCompression(format.CompressionS2),
		blob.WithValueEncoding(format.TypeGorilla),
		blob.WithValueCompression(format.CompressionS2),
	)
}

// Snapshot is a decoded blob.
type Snapshot struct {
	Start  time.Time
	Series map[uint32][]canplot.Point
}

// ChannelIDs returns the channels in ascending order.
func (s Snapshot) ChannelIDs() []uint32 {
	ids := make([]uint32, 0, len(s.Series))
	for id := range s.Series {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Decode parses a blob produced by Encode.
func Decode(data []byte) (Snapshot, error) {
	dec, err := mebo.NewNumericDecoder(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("export: %w", err)
	}
	b, err := dec.Decode()
	if err != nil {
		return Snapshot{}, fmt.Errorf("export: %w", err)
	}

	snap := Snapshot{
		Start:  b.StartTime(),
		Series: make(map[uint32][]canplot.Point, b.MetricCount()),
	}
	for _, mid := range b.MetricIDs() {
		id, ok := channelID(mid)
		if !ok {
			return Snapshot{}, fmt.Errorf("%w: %#x", ErrBadMetricID, mid)
		}
		pts := make([]canplot.Point, 0, b.Len(mid))
		for _, dp := range b.All(mid) {
			if dp.Ts < 0 {
				return Snapshot{}, fmt.Errorf("%w: channel %#x timestamp %d", ErrTimestampOverflow, id, dp.Ts)
			}
			pts = append(pts, canplot.Point{Timestamp: uint64(dp.Ts), Position: dp.Val})
		}
		snap.Series[id] = pts
	}
	return snap, nil
}

func metricID(channel uint32) uint64 { return uint64(channel) + 1 }

func channelID(mid uint64) (uint32, bool) {
	if mid == 0 || mid-1 > math.MaxUint32 {
		return 0, false
	}
	return uint32(mid - 1), true
}
