// Package timecode holds the frame/time conversion rules shared by the
// prober, the detectors and the range calculator. Every conversion between
// frame indices and timestamps in this service goes through this package so
// that independent requests against the same source always agree.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Rational is an exact frame rate as reported by ffprobe (e.g. 30000/1001).
// Keeping the numerator and denominator avoids the drift that a rounded
// decimal average introduces between a detection call and a later
// extraction call on the same file.
type Rational struct {
	Num int64
	Den int64
}

// ParseRational parses an ffprobe rate string of the form "num/den" or a
// plain integer such as "25".
func ParseRational(s string) (Rational, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Rational{}, fmt.Errorf("empty frame rate")
	}

	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.ParseInt(num, 10, 64)
		if err != nil {
			return Rational{}, fmt.Errorf("parse frame rate numerator %q: %w", num, err)
		}
		d, err := strconv.ParseInt(den, 10, 64)
		if err != nil {
			return Rational{}, fmt.Errorf("parse frame rate denominator %q: %w", den, err)
		}
		if n <= 0 || d <= 0 {
			return Rational{}, fmt.Errorf("non-positive frame rate %q", s)
		}
		return Rational{Num: n, Den: d}, nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Rational{}, fmt.Errorf("parse frame rate %q: %w", s, err)
	}
	if n <= 0 {
		return Rational{}, fmt.Errorf("non-positive frame rate %q", s)
	}
	return Rational{Num: n, Den: 1}, nil
}

// FPS returns the frame rate as a float. The rational form stays the
// source of truth; this is only for arithmetic that needs a scalar.
func (r Rational) FPS() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// IsZero reports whether the rational carries no rate.
func (r Rational) IsZero() bool {
	return r.Num == 0 || r.Den == 0
}

// TotalFrames computes the frame count anchoring every frame/time
// conversion for a source: round(duration × fps).
func TotalFrames(durationSec, fps float64) int {
	if durationSec <= 0 || fps <= 0 {
		return 0
	}
	return int(math.Round(durationSec * fps))
}

// FrameToSeconds maps a 1-indexed frame to the timestamp of its start.
func FrameToSeconds(frame int, fps float64) float64 {
	if fps <= 0 {
		return 0
	}
	return float64(frame-1) / fps
}

// SecondsToFrames converts a duration in seconds to a whole frame count,
// rounding to the nearest frame.
func SecondsToFrames(sec, fps float64) int {
	return int(math.Round(sec * fps))
}

// RoundMillis rounds a timestamp to millisecond precision, the precision
// scenes are reported at.
func RoundMillis(sec float64) float64 {
	return math.Round(sec*1000) / 1000
}
