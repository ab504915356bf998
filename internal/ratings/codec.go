// Package ratings implements the 38-value player rating scale and its
// storage codec.
//
// Display values are a base 1-10 with an optional modifier: "6-" is a
// quarter below 6, "6+" a quarter above, "6.5" half above. 10 is the
// maximum, so only "10-" and "10" exist. Stored form is base+offset as a
// quarter-step decimal: "6-" = 5.75, "6" = 6.00, "6+" = 6.25, "6.5" = 6.50.
package ratings

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidRating = errors.New("invalid rating")

const (
	minBase = 1
	maxBase = 10

	// stored values in quarter units: "1-" = 0.75 up to "10" = 10.00
	minQuarters = 4*minBase - 1
	maxQuarters = 4 * maxBase
)

type modifier int

const (
	modMinus modifier = iota // -0.25
	modPlain                 //  0
	modPlus                  // +0.25
	modHalf                  // +0.50
)

func (m modifier) suffix() string {
	switch m {
	case modMinus:
		return "-"
	case modPlus:
		return "+"
	case modHalf:
		return ".5"
	default:
		return ""
	}
}

func (m modifier) quarters() int {
	switch m {
	case modMinus:
		return -1
	case modPlus:
		return 1
	case modHalf:
		return 2
	default:
		return 0
	}
}

func splitDisplay(display string) (base int, mod modifier, err error) {
	s := display
	mod = modPlain
	switch {
	case strings.HasSuffix(s, "-"):
		mod = modMinus
		s = strings.TrimSuffix(s, "-")
	case strings.HasSuffix(s, "+"):
		mod = modPlus
		s = strings.TrimSuffix(s, "+")
	case strings.HasSuffix(s, ".5"):
		mod = modHalf
		s = strings.TrimSuffix(s, ".5")
	}
	base, aerr := strconv.Atoi(s)
	if aerr != nil || s != strconv.Itoa(base) {
		return 0, 0, ErrInvalidRating
	}
	return base, mod, nil
}

func validBase(base int, mod modifier) bool {
	if base < minBase || base > maxBase {
		return false
	}
	// 10 is the ceiling: no "10+" or "10.5"
	if base == maxBase && (mod == modPlus || mod == modHalf) {
		return false
	}
	return true
}

// Encode maps a display value to its stored decimal form.
func Encode(display string) (float64, error) {
	base, mod, err := splitDisplay(display)
	if err != nil {
		return 0, err
	}
	if !validBase(base, mod) {
		return 0, ErrInvalidRating
	}
	return float64(4*base+mod.quarters()) / 4, nil
}

// Decode inverts Encode exactly. Values outside the 38 legal points fail,
// which guards against corrupt or out-of-band writes.
func Decode(value float64) (string, error) {
	q := math.Round(value * 4)
	if math.Abs(value*4-q) > 1e-9 {
		return "", ErrInvalidRating
	}
	qi := int(q)
	if qi < minQuarters || qi > maxQuarters {
		return "", ErrInvalidRating
	}
	var base int
	var mod modifier
	switch qi % 4 {
	case 0:
		base, mod = qi/4, modPlain
	case 1:
		base, mod = (qi-1)/4, modPlus
	case 2:
		base, mod = (qi-2)/4, modHalf
	default: // 3: a quarter below the next base
		base, mod = (qi+1)/4, modMinus
	}
	if !validBase(base, mod) {
		return "", ErrInvalidRating
	}
	return fmt.Sprintf("%d%s", base, mod.suffix()), nil
}

// Values returns all 38 legal display values ordered from lowest to highest
// stored form.
func Values() []string {
	out := make([]string, 0, 38)
	for q := minQuarters; q <= maxQuarters; q++ {
		if s, err := Decode(float64(q) / 4); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// Average is the arithmetic mean of stored values. The raw mean feeds trend
// aggregation; use RoundToStep for presentation.
func Average(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

// RoundToStep rounds a mean to the nearest legal display value, clamping
// into the scale's range.
func RoundToStep(mean float64) string {
	q := int(math.Round(mean * 4))
	if q < minQuarters {
		q = minQuarters
	}
	if q > maxQuarters {
		q = maxQuarters
	}
	s, err := Decode(float64(q) / 4)
	if err != nil {
		// q is within [minQuarters, maxQuarters], so this cannot happen
		return ""
	}
	return s
}
