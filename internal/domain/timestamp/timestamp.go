package timestamp

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/atarasenko/framegrab/internal/types"
)

// ErrInvalidFormat reports a timestamp token that cannot be parsed. Callers
// treat it as fatal for the whole batch.
var ErrInvalidFormat = errors.New("invalid time format")

// Tokens are separated by any run of commas and whitespace, newlines included.
var separators = regexp.MustCompile(`[,\s]+`)

// Parse converts one token of the form [[hours:]minutes:]seconds into a
// TimeSpec. Components may be fractional ("1:30.5") but must be non-negative.
func Parse(tok string) (types.TimeSpec, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return types.TimeSpec{}, fmt.Errorf("%w: empty token", ErrInvalidFormat)
	}

	parts := strings.Split(tok, ":")
	if len(parts) > 3 {
		return types.TimeSpec{}, fmt.Errorf("%w: %q has %d colon-separated parts, want 1 to 3", ErrInvalidFormat, tok, len(parts))
	}

	var sec float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return types.TimeSpec{}, fmt.Errorf("%w: %q", ErrInvalidFormat, tok)
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return types.TimeSpec{}, fmt.Errorf("%w: %q: components must be non-negative numbers", ErrInvalidFormat, tok)
		}
		sec = sec*60 + v
	}
	return types.TimeSpec{Raw: tok, Seconds: sec}, nil
}

// ParseList splits a free-form user string into tokens and parses each one,
// preserving order. The first bad token fails the whole batch.
func ParseList(raw string) ([]types.TimeSpec, error) {
	fields := separators.Split(raw, -1)
	specs := make([]types.TimeSpec, 0, len(fields))
	for _, f := range fields {
		if f == "" {
			continue
		}
		ts, err := Parse(f)
		if err != nil {
			return nil, err
		}
		specs = append(specs, ts)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: no timestamps in %q", ErrInvalidFormat, raw)
	}
	return specs, nil
}
