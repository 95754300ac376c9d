package timecode

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrFormat is matched by every *FormatError.
var ErrFormat = errors.New("timecode: malformed clock")

type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("timecode: malformed clock %q: %s", e.Input, e.Reason)
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// ParseClock converts "H:MM:SS" into seconds. Exactly three colon-separated
// non-negative integers are accepted.
func ParseClock(s string) (int, error) {
	in := strings.TrimSpace(s)
	parts := strings.Split(in, ":")
	if len(parts) != 3 {
		return 0, &FormatError{Input: s, Reason: fmt.Sprintf("want 3 fields, got %d", len(parts))}
	}

	var v [3]int
	for i, p := range parts {
		if p == "" {
			return 0, &FormatError{Input: s, Reason: "empty field"}
		}
		for _, r := range p {
			if r < '0' || r > '9' {
				return 0, &FormatError{Input: s, Reason: fmt.Sprintf("non-digit %q", r)}
			}
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, &FormatError{Input: s, Reason: "field out of range"}
		}
		v[i] = n
	}

	h, m, sec := v[0], v[1], v[2]
	if m > (math.MaxInt-sec)/60 || h > (math.MaxInt-sec-m*60)/3600 {
		return 0, &FormatError{Input: s, Reason: "value out of range"}
	}
	return h*3600 + m*60 + sec, nil
}

// Format renders seconds as H:MM:SS(.mmm) for display.
func Format(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "-"
	}
	whole := int64(seconds)
	ms := int64(math.Round((seconds - float64(whole)) * 1000))
	if ms == 1000 {
		whole++
		ms = 0
	}
	h := whole / 3600
	m := (whole % 3600) / 60
	s := whole % 60
	if ms == 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, ms)
}
