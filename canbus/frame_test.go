package canbus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrame_Validate_String(t *testing.T) {
	cases := []struct {
		name    string
		frame   Frame
		wantStr string
	}{
		{
			name:    "standard frame with data",
			frame:   MustFrame(0x123, []byte{0xDE, 0xAD}),
			wantStr: "123 [2] DE AD",
		},
		{
			name:    "extended RTR, zero length",
			frame:   Frame{ID: 0x1ABCDEFF, Extended: true, RTR: true, Len: 0},
			wantStr: "1ABCDEFF [0] RTR",
		},
		{
			name:    "motor reply",
			frame:   MustFrame(0x201, []byte{0x01, 0x80, 0x00, 0, 0, 0, 0, 0}),
			wantStr: "201 [8] 01 80 00 00 00 00 00 00",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, tc.frame.Validate())
			require.Equal(t, tc.wantStr, tc.frame.String())
		})
	}
}

func TestFrame_Invalid(t *testing.T) {
	require.ErrorIs(t, Frame{ID: 0x800}.Validate(), ErrInvalidID)
	require.ErrorIs(t, Frame{ID: 0x20000000, Extended: true}.Validate(), ErrInvalidID)
	require.ErrorIs(t, Frame{ID: 0x1, Len: 9}.Validate(), ErrInvalidLen)

	_, err := NewFrame(0x123, make([]byte, 9))
	require.ErrorIs(t, err, ErrInvalidLen)
	_, err = NewFrame(MaxExtID+1, nil)
	require.ErrorIs(t, err, ErrInvalidID)

	require.Panics(t, func() { _ = MustFrame(0x123, make([]byte, 9)) })
}

func TestNewFrame_MarksExtended(t *testing.T) {
	f, err := NewFrame(0x800, []byte{1})
	require.NoError(t, err)
	require.True(t, f.Extended)

	f, err = NewFrame(0x7FF, []byte{1})
	require.NoError(t, err)
	require.False(t, f.Extended)
}

func TestFrame_Uint16BE(t *testing.T) {
	f := MustFrame(0x201, []byte{0x01, 0x1F, 0x4C, 0, 0, 0, 0, 0})

	v, err := f.Uint16BE(1)
	require.NoError(t, err)
	require.Equal(t, uint16(0x1F4C), v)

	_, err = f.Uint16BE(7)
	require.Error(t, err)

	short := MustFrame(0x201, []byte{0x01, 0x02})
	_, err = short.Uint16BE(1)
	require.Error(t, err)
}

func TestSplitID(t *testing.T) {
	cases := []struct {
		raw      uint32
		id       uint32
		extended bool
	}{
		{0x201, 0x201, false},
		{0x800, 0x800, true},
		{EFFFlag | 0x201, 0x201, true},
		{RTRFlag | 0x123, 0x123, false},
		{ERRFlag, 0, false},
		{0xFFFFFFFF, MaxExtID, true},
	}
	for _, tc := range cases {
		id, ext := SplitID(tc.raw)
		require.Equal(t, tc.id, id, "raw %#x", tc.raw)
		require.Equal(t, tc.extended, ext, "raw %#x", tc.raw)
		require.NoError(t, Frame{ID: id, Extended: ext}.Validate())
	}
}
