package canplot

import (
	"errors"
	"strconv"
)

// Reason classifies why a row could not be decoded.
type Reason uint8

const (
	RowTooShort Reason = iota + 1
	MalformedPayloadField
	BadByteCount
	BadHexByte
	BadChannelID
	BadTimestamp
)

func (r Reason) String() string {
	switch r {
	case RowTooShort:
		return "RowTooShort"
	case MalformedPayloadField:
		return "MalformedPayloadField"
	case BadByteCount:
		return "BadByteCount"
	case BadHexByte:
		return "BadHexByte"
	case BadChannelID:
		return "BadChannelId"
	case BadTimestamp:
		return "BadTimestamp"
	default:
		return "Reason(" + strconv.Itoa(int(r)) + ")"
	}
}

// Sentinels matched by errors.Is against a *DecodeError of the same Reason.
var (
	ErrRowTooShort           = errors.New("canplot: row too short")
	ErrMalformedPayloadField = errors.New("canplot: malformed payload field")
	ErrBadByteCount          = errors.New("canplot: bad payload byte count")
	ErrBadHexByte            = errors.New("canplot: bad payload hex byte")
	ErrBadChannelID          = errors.New("canplot: bad channel id")
	ErrBadTimestamp          = errors.New("canplot: bad timestamp")
)

// Batch level failures. Neither advances the ingestion cursor.
var (
	ErrLogUnreadable = errors.New("canplot: log unreadable")
	ErrLogShrunk     = errors.New("canplot: log has fewer rows than already consumed")
)

func (r Reason) sentinel() error {
	switch r {
	case RowTooShort:
		return ErrRowTooShort
	case MalformedPayloadField:
		return ErrMalformedPayloadField
	case BadByteCount:
		return ErrBadByteCount
	case BadHexByte:
		return ErrBadHexByte
	case BadChannelID:
		return ErrBadChannelID
	case BadTimestamp:
		return ErrBadTimestamp
	default:
		return nil
	}
}

// DecodeError reports a rejected row. Value holds the offending field text
// and Err the underlying parse error, if any.
type DecodeError struct {
	Reason Reason
	Value  string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := "canplot: decode: " + e.Reason.String()
	if e.Value != "" {
		msg += " " + strconv.Quote(e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e.Reason.
func (e *DecodeError) Is(target error) bool {
	s := e.Reason.sentinel()
	return s != nil && target == s
}
