package export

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/notnil/canplot"
)

func filledStore(t *testing.T) *canplot.Store {
	t.Helper()
	s := canplot.NewStore(50)
	q := canplot.DefaultDecoderConfig().Position
	for i := uint64(0); i < 80; i++ {
		s.AppendPoint(0x201, canplot.Point{Timestamp: 0x1A00 + i*10, Position: q.Dequantize(i * 800)})
		if i%2 == 0 {
			s.AppendPoint(0x0, canplot.Point{Timestamp: 0x1A00 + i*10, Position: math.Sin(float64(i) / 10)})
		}
	}
	s.Register(0x7FF)
	return s
}

func TestEncodeDecode(t *testing.T) {
	for _, opts := range []Options{{}, {Compress: true}} {
		s := filledStore(t)
		start := time.UnixMicro(1_700_000_000_000_000).UTC()

		data, err := EncodeStore(s, start, opts)
		require.NoError(t, err)
		require.NotEmpty(t, data)

		snap, err := Decode(data)
		require.NoError(t, err)
		require.True(t, start.Equal(snap.Start))
		// Registered but empty channels are left out.
		require.Equal(t, []uint32{0x0, 0x201}, snap.ChannelIDs())
		require.Equal(t, s.Snapshot(0x201), snap.Series[0x201])
		require.Equal(t, s.Snapshot(0x0), snap.Series[0x0])
	}
}

func TestEncode_Empty(t *testing.T) {
	_, err := Encode(nil, time.Now(), Options{})
	require.ErrorIs(t, err, ErrEmpty)

	s := canplot.NewStore(10)
	s.Register(1)
	_, err = EncodeStore(s, time.Now(), Options{})
	require.ErrorIs(t, err, ErrEmpty)
}

func TestEncode_TimestampOverflow(t *testing.T) {
	_, err := Encode(map[uint32][]canplot.Point{
		1: {{Timestamp: math.MaxUint64}},
	}, time.Now(), Options{})
	require.ErrorIs(t, err, ErrTimestampOverflow)
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode([]byte("not a blob"))
	require.Error(t, err)
}

func TestChannelID(t *testing.T) {
	id, ok := channelID(metricID(0x1FFFFFFF))
	require.True(t, ok)
	require.Equal(t, uint32(0x1FFFFFFF), id)

	_, ok = channelID(0)
	require.False(t, ok)
	_, ok = channelID(math.MaxUint64)
	require.False(t, ok)
}
