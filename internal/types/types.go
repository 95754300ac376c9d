package types

import (
	"math"
	"time"
)

// TimeRange is a span of the source recording in seconds.
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (r TimeRange) Duration() float64 { return r.End - r.Start }

// Valid reports whether both bounds are finite, start is non-negative and end > start.
func (r TimeRange) Valid() bool {
	if math.IsNaN(r.Start) || math.IsNaN(r.End) || math.IsInf(r.Start, 0) || math.IsInf(r.End, 0) {
		return false
	}
	return r.Start >= 0 && r.End > r.Start
}

// Overlaps treats ranges as half-open, so touching ranges do not overlap.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start < o.End && o.Start < r.End
}

type Method string

const (
	MethodStructured     Method = "structured"
	MethodPatternMatched Method = "pattern-matched"
)

type Candidate struct {
	TimeRange
	Source string
	Offset int
	Method Method
}

type Recording struct {
	Path     string
	Duration time.Duration
}

// Analysis is the raw outcome of one backend call.
type Analysis struct {
	Backend string
	Model   string
	Text    string
}

type Artifact struct {
	Ordinal int
	Name    string
	Path    string
	Range   TimeRange
	Method  Method
}

type Manifest struct {
	RunID    string             `json:"run_id"`
	Input    string             `json:"input"`
	Date     string             `json:"date"`
	Backend  string             `json:"backend"`
	Model    string             `json:"model,omitempty"`
	Duration float64            `json:"duration_sec"`
	Clips    []ManifestClip     `json:"clips"`
	Rejected []ManifestRejected `json:"rejected,omitempty"`
	Failures []ManifestFailure  `json:"failures,omitempty"`
}

type ManifestClip struct {
	Ordinal  int     `json:"ordinal"`
	File     string  `json:"file"`
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
	Method   Method  `json:"method"`
}

type ManifestRejected struct {
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
	Method   Method  `json:"method"`
	Reason   string  `json:"reason"`
}

type ManifestFailure struct {
	Ordinal int    `json:"ordinal"`
	File    string `json:"file"`
	Error   string `json:"error"`
}
