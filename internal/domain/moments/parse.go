package moments

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/forPelevin/podclip/internal/domain/timecode"
	"github.com/forPelevin/podclip/internal/types"
)

var reClockRange = regexp.MustCompile(`(\d+:\d+:\d+)\s*[-–—]\s*(\d+:\d+:\d+)`)

// ParseResponse extracts candidate segments from free-form backend output.
// Strategy:
//   - Prefer a JSON array of {"start","end"} objects (seconds) embedded in the text.
//   - Fall back to every "H:MM:SS - H:MM:SS" pair, in order of appearance.
//
// An empty result means no moments were found; it is not an error.
func ParseResponse(text string) []types.Candidate {
	if cands := parseStructured(text); len(cands) > 0 {
		return cands
	}
	return parsePatterns(text)
}

type rangeJSON struct {
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
}

func parseStructured(text string) []types.Candidate {
	open := strings.Index(text, "[")
	if open < 0 {
		return nil
	}

	// Models like to wrap the array in prose that may itself contain brackets,
	// so try the widest span first and then the balanced one.
	var spans [][2]int
	if last := strings.LastIndex(text, "]"); last > open {
		spans = append(spans, [2]int{open, last + 1})
	}
	if end, ok := matchingBracket(text, open); ok {
		if len(spans) == 0 || spans[0][1] != end+1 {
			spans = append(spans, [2]int{open, end + 1})
		}
	}

	for _, sp := range spans {
		var elems []json.RawMessage
		if err := json.Unmarshal([]byte(text[sp[0]:sp[1]]), &elems); err != nil {
			continue
		}
		return structuredCandidates(text, sp[0], elems)
	}
	return nil
}

func structuredCandidates(text string, base int, elems []json.RawMessage) []types.Candidate {
	var out []types.Candidate
	cursor := base
	for _, raw := range elems {
		src := string(raw)
		offset := base
		if i := strings.Index(text[cursor:], src); i >= 0 {
			offset = cursor + i
			cursor = offset + len(src)
		}

		var r rangeJSON
		if err := json.Unmarshal(raw, &r); err != nil {
			continue
		}
		if r.Start == nil || r.End == nil {
			continue
		}
		out = append(out, types.Candidate{
			TimeRange: types.TimeRange{Start: *r.Start, End: *r.End},
			Source:    src,
			Offset:    offset,
			Method:    types.MethodStructured,
		})
	}
	return out
}

// matchingBracket returns the index of the ']' closing the '[' at open,
// skipping brackets inside JSON strings.
func matchingBracket(s string, open int) (int, bool) {
	depth := 0
	inStr := false
	esc := false
	for i := open; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func parsePatterns(text string) []types.Candidate {
	var out []types.Candidate
	for _, m := range reClockRange.FindAllStringSubmatchIndex(text, -1) {
		st, err := timecode.ParseClock(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		en, err := timecode.ParseClock(text[m[4]:m[5]])
		if err != nil {
			continue
		}
		out = append(out, types.Candidate{
			TimeRange: types.TimeRange{Start: float64(st), End: float64(en)},
			Source:    text[m[0]:m[1]],
			Offset:    m[0],
			Method:    types.MethodPatternMatched,
		})
	}
	return out
}
