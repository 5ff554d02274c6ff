package canplot

import (
	"errors"
	"fmt"
	"math"
)

// Quantizer maps the closed interval [Min, Max] onto the unsigned codes
// [0, 2^Bits-1] and back.
type Quantizer struct {
	Min  float64
	Max  float64
	Bits uint
}

// MaxQuantizerBits is the widest code a Quantizer accepts.
const MaxQuantizerBits = 32

var ErrInvalidQuantizer = errors.New("canplot: invalid quantizer")

// Validate returns an error if the range is empty or the width unsupported.
func (q Quantizer) Validate() error {
	if q.Bits == 0 || q.Bits > MaxQuantizerBits {
		return fmt.Errorf("%w: bits %d outside [1, %d]", ErrInvalidQuantizer, q.Bits, MaxQuantizerBits)
	}
	if math.IsNaN(q.Min) || math.IsNaN(q.Max) || math.IsInf(q.Min, 0) || math.IsInf(q.Max, 0) {
		return fmt.Errorf("%w: range must be finite", ErrInvalidQuantizer)
	}
	if !(q.Min < q.Max) {
		return fmt.Errorf("%w: min %g must be below max %g", ErrInvalidQuantizer, q.Min, q.Max)
	}
	return nil
}

// MaxCode returns the largest code, 2^Bits-1.
func (q Quantizer) MaxCode() uint64 {
	return uint64(1)<<q.Bits - 1
}

// Dequantize returns the value represented by raw. The endpoints are exact
// and the result is monotonically non-decreasing in raw. Codes above
// MaxCode saturate to Max.
func (q Quantizer) Dequantize(raw uint64) float64 {
	top := q.MaxCode()
	switch {
	case raw == 0:
		return q.Min
	case raw >= top:
		return q.Max
	}
	v := q.Min + (q.Max-q.Min)*(float64(raw)/float64(top))
	// Rounding must never push an interior code past an endpoint.
	return math.Min(math.Max(v, q.Min), q.Max)
}

// Quantize returns the code nearest to x, clamping x into [Min, Max].
func (q Quantizer) Quantize(x float64) uint64 {
	if math.IsNaN(x) || x <= q.Min {
		return 0
	}
	top := q.MaxCode()
	if x >= q.Max {
		return top
	}
	code := math.Round((x - q.Min) / (q.Max - q.Min) * float64(top))
	if code >= float64(top) {
		return top
	}
	return uint64(code)
}
