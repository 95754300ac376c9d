package moments

import (
	"time"

	"github.com/forPelevin/podclip/internal/types"
)

type Reason string

const (
	ReasonUnknownDuration Reason = "unknown_duration"
	ReasonInvalidRange    Reason = "invalid_range"
	ReasonTooShort        Reason = "too_short"
	ReasonTooLong         Reason = "too_long"
	ReasonOutsideMargin   Reason = "outside_margin"
	ReasonOverlap         Reason = "overlap"
)

// Policy bounds which candidates may be extracted. Ratios are fractions of
// the recording duration.
type Policy struct {
	MinRatio   float64
	MaxRatio   float64
	EdgeMargin time.Duration
}

func DefaultPolicy() Policy {
	return Policy{MinRatio: 0.1, MaxRatio: 0.3, EdgeMargin: 20 * time.Second}
}

type Rejection struct {
	Candidate types.Candidate
	Reason    Reason
}

type Selection struct {
	Accepted []types.Candidate
	Rejected []Rejection
}

// absorbs float noise such as 0.3*1000 on inclusive bounds
const eps = 1e-9

// Select walks candidates in priority (list) order and keeps those whose
// duration lies within the ratio bounds, that stay clear of the head and tail
// margins, and that do not overlap an earlier kept candidate.
func Select(duration time.Duration, cands []types.Candidate, p Policy) Selection {
	var sel Selection
	total := duration.Seconds()
	margin := p.EdgeMargin.Seconds()
	minLen := p.MinRatio * total
	maxLen := p.MaxRatio * total

	for _, c := range cands {
		reason, ok := check(c, sel.Accepted, total, margin, minLen, maxLen)
		if !ok {
			sel.Rejected = append(sel.Rejected, Rejection{Candidate: c, Reason: reason})
			continue
		}
		sel.Accepted = append(sel.Accepted, c)
	}
	return sel
}

func check(c types.Candidate, kept []types.Candidate, total, margin, minLen, maxLen float64) (Reason, bool) {
	if total <= 0 {
		return ReasonUnknownDuration, false
	}
	if !c.Valid() {
		return ReasonInvalidRange, false
	}
	d := c.Duration()
	if d < minLen-eps {
		return ReasonTooShort, false
	}
	if d > maxLen+eps {
		return ReasonTooLong, false
	}
	if c.Start < margin-eps || c.End > total-margin+eps {
		return ReasonOutsideMargin, false
	}
	for _, k := range kept {
		if c.Overlaps(k.TimeRange) {
			return ReasonOverlap, false
		}
	}
	return "", true
}
