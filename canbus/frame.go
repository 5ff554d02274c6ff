package canbus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Frame represents a classical CAN (2.0A/2.0B) frame as recovered from a
// capture log.
//
// Supported features:
//   - Standard (11-bit) and Extended (29-bit) identifiers
//   - Data frames and Remote Transmission Request (RTR)
//   - Data length 0-8 bytes (classical CAN)
type Frame struct {
	ID       uint32 // 11-bit (std) or 29-bit (ext)
	Extended bool   // true for 29-bit identifier
	RTR      bool   // remote transmission request
	Len      uint8  // 0..8
	Data     [8]byte
}

// Validation limits.
const (
	MaxStdID = 0x7FF
	MaxExtID = 0x1FFFFFFF
)

// Flag bits SocketCAN tools may leave set in printed identifiers.
const (
	EFFFlag = 0x80000000 // extended frame format
	RTRFlag = 0x40000000 // remote transmission request
	ERRFlag = 0x20000000 // error message frame
)

// SplitID clears the flag bits from a raw identifier. The result is
// extended when EFFFlag is set or the identifier exceeds MaxStdID.
func SplitID(raw uint32) (id uint32, extended bool) {
	id = raw & MaxExtID
	return id, raw&EFFFlag != 0 || id > MaxStdID
}

var (
	ErrInvalidID  = errors.New("canbus: invalid identifier")
	ErrInvalidLen = errors.New("canbus: invalid data length")
)

// Validate returns an error if the frame is not valid.
func (f Frame) Validate() error {
	if f.Len > 8 {
		return ErrInvalidLen
	}
	if f.Extended {
		if f.ID > MaxExtID {
			return ErrInvalidID
		}
	} else {
		if f.ID > MaxStdID {
			return ErrInvalidID
		}
	}
	return nil
}

// NewFrame builds a frame for id and data. Identifiers above the standard
// range are marked extended.
func NewFrame(id uint32, data []byte) (Frame, error) {
	var f Frame
	f.ID = id
	if id > MaxStdID {
		f.Extended = true
	}
	if len(data) > 8 {
		return Frame{}, ErrInvalidLen
	}
	f.Len = uint8(len(data))
	copy(f.Data[:], data)
	if err := f.Validate(); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// MustFrame constructs a Frame and panics if invalid. Convenience for tests.
func MustFrame(id uint32, data []byte) Frame {
	f, err := NewFrame(id, data)
	if err != nil {
		panic(err)
	}
	return f
}

// Uint16BE returns the big-endian 16-bit value stored at data[off:off+2].
func (f Frame) Uint16BE(off int) (uint16, error) {
	if off < 0 || off+2 > int(f.Len) {
		return 0, fmt.Errorf("canbus: read of 2 bytes at offset %d exceeds length %d", off, f.Len)
	}
	return binary.BigEndian.Uint16(f.Data[off : off+2]), nil
}

// String renders the frame as "ID [LEN] B0 B1 ...", or "ID [LEN] RTR" for
// remote frames.
func (f Frame) String() string {
	var b strings.Builder
	if f.Extended {
		fmt.Fprintf(&b, "%08X", f.ID)
	} else {
		fmt.Fprintf(&b, "%03X", f.ID)
	}
	fmt.Fprintf(&b, " [%d]", f.Len)
	if f.RTR {
		b.WriteString(" RTR")
		return b.String()
	}
	n := int(f.Len)
	if n > 8 {
		n = 8
	}
	for _, c := range f.Data[:n] {
		fmt.Fprintf(&b, " %02X", c)
	}
	return b.String()
}
