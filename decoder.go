package canplot

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/notnil/canplot/canbus"
)

// Defaults for the decoder and store.
const (
	DefaultMaxPoints     = 100
	DefaultPositionMin   = -math.Pi
	DefaultPositionMax   = math.Pi
	DefaultPositionBits  = 16
	DefaultMotorReplyTag = 0x01
)

// Row layout of the capture log.
const (
	minRowFields       = 10
	fieldTimestamp     = 2
	fieldChannel       = 5
	fieldPayload       = 9
	fieldPayloadLegacy = 8
	payloadSeparator   = "|"
	payloadLen         = 8
	positionOffset     = 1
	maxPositionBits    = 16
)

// Sample is one decoded motor position reading.
type Sample struct {
	Channel   uint32
	Timestamp uint64
	Position  float64

	// Frame is the CAN frame the sample was decoded from.
	Frame canbus.Frame
}

// Point returns the (timestamp, position) pair stored per channel.
func (s Sample) Point() Point {
	return Point{Timestamp: s.Timestamp, Position: s.Position}
}

// DecoderConfig controls how rows are turned into samples.
type DecoderConfig struct {
	// Position de-quantizes the 16-bit code in payload bytes 1 and 2.
	Position Quantizer
	// MotorReplyTag is the payload byte 0 value marking a motor reply.
	// Frames with any other tag are skipped without error.
	MotorReplyTag byte
	// Filter, when set, skips frames it does not match.
	Filter canbus.FrameFilter
}

// DefaultDecoderConfig returns the configuration for the stock motor
// firmware: 16-bit positions over [-π, π] tagged 0x01.
func DefaultDecoderConfig() DecoderConfig {
	return DecoderConfig{
		Position: Quantizer{
			Min:  DefaultPositionMin,
			Max:  DefaultPositionMax,
			Bits: DefaultPositionBits,
		},
		MotorReplyTag: DefaultMotorReplyTag,
	}
}

// Decoder validates log rows and extracts motor position samples. It holds
// no mutable state and is safe for concurrent use.
type Decoder struct {
	cfg   DecoderConfig
	reply canbus.FrameFilter
}

// NewDecoder returns a Decoder for cfg.
func NewDecoder(cfg DecoderConfig) (*Decoder, error) {
	if err := cfg.Position.Validate(); err != nil {
		return nil, err
	}
	if cfg.Position.Bits > maxPositionBits {
		return nil, fmt.Errorf("%w: payload carries at most %d position bits, got %d",
			ErrInvalidQuantizer, maxPositionBits, cfg.Position.Bits)
	}
	return &Decoder{cfg: cfg, reply: canbus.ByTag(cfg.MotorReplyTag)}, nil
}

// Config returns the decoder configuration.
func (d *Decoder) Config() DecoderConfig { return d.cfg }

// Decode turns one row into a sample.
//
// It returns ok=false with a nil error for well-formed rows that carry no
// position, either because the payload tag is not the motor reply tag or
// because the Filter rejected the frame. Malformed rows yield a
// *DecodeError.
//
// The channel field may carry SocketCAN flag bits. Sample.Channel keeps the
// value as written; the frame holds the identifier with the flags cleared.
func (d *Decoder) Decode(row []string) (s Sample, ok bool, err error) {
	data, err := parsePayload(row)
	if err != nil {
		return Sample{}, false, err
	}
	// The tag decides before the identifier fields are looked at, so
	// unrelated telemetry with odd identifiers is skipped, not rejected.
	payload := canbus.Frame{Len: payloadLen, Data: data}
	if !d.reply(payload) {
		return Sample{}, false, nil
	}
	raw, err := payload.Uint16BE(positionOffset)
	if err != nil {
		return Sample{}, false, &DecodeError{Reason: BadByteCount, Value: payload.String(), Err: err}
	}

	channel, err := parseHexField(row[fieldChannel], 32)
	if err != nil {
		return Sample{}, false, &DecodeError{Reason: BadChannelID, Value: row[fieldChannel], Err: err}
	}
	ts, err := parseHexField(row[fieldTimestamp], 64)
	if err != nil {
		return Sample{}, false, &DecodeError{Reason: BadTimestamp, Value: row[fieldTimestamp], Err: err}
	}

	id, extended := canbus.SplitID(uint32(channel))
	frame, err := canbus.NewFrame(id, data[:])
	if err != nil {
		return Sample{}, false, &DecodeError{Reason: BadChannelID, Value: row[fieldChannel], Err: err}
	}
	frame.Extended = frame.Extended || extended
	if d.cfg.Filter != nil && !d.cfg.Filter(frame) {
		return Sample{}, false, nil
	}

	return Sample{
		Channel:   uint32(channel),
		Timestamp: ts,
		Position:  d.cfg.Position.Dequantize(uint64(raw)),
		Frame:     frame,
	}, true, nil
}

// parsePayload extracts the 8 payload bytes from the descriptor field,
// formatted "<label>|<8 space separated hex bytes>".
func parsePayload(row []string) ([payloadLen]byte, error) {
	var data [payloadLen]byte
	if len(row) < minRowFields {
		return data, &DecodeError{Reason: RowTooShort, Value: strconv.Itoa(len(row)) + " fields"}
	}
	// Two row widths exist in the wild; the descriptor is the 10th field
	// when present and the 9th otherwise.
	field := row[fieldPayloadLegacy]
	if len(row) > fieldPayload {
		field = row[fieldPayload]
	}

	_, hex, found := strings.Cut(field, payloadSeparator)
	if !found {
		return data, &DecodeError{Reason: MalformedPayloadField, Value: field}
	}
	tokens := strings.Fields(hex)
	if len(tokens) != payloadLen {
		return data, &DecodeError{
			Reason: BadByteCount,
			Value:  strings.TrimSpace(hex),
			Err:    fmt.Errorf("want %d bytes, got %d", payloadLen, len(tokens)),
		}
	}
	for i, tok := range tokens {
		b, err := parseHexField(tok, 8)
		if err != nil {
			return data, &DecodeError{Reason: BadHexByte, Value: tok, Err: err}
		}
		data[i] = byte(b)
	}
	return data, nil
}

// parseHexField parses a base-16 unsigned integer, tolerating surrounding
// whitespace and an optional 0x prefix.
func parseHexField(s string, bitSize int) (uint64, error) {
	s = strings.TrimSpace(s)
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	return strconv.ParseUint(s, 16, bitSize)
}

// ChannelLabel returns the display label for a channel, e.g. "ID 0x201".
func ChannelLabel(id uint32) string {
	return fmt.Sprintf("ID %#x", id)
}
