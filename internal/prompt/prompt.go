// Package prompt builds the instruction sent to the analysis backend.
package prompt

import (
	"math/rand/v2"
	"strings"
	"time"
)

const base = "You are an AI designed to analyze podcasts and provide timecodes. " +
	"If the file is too large, analyze it by segments. " +
	"Analyze this podcast and provide timecodes for the best moments. " +
	"The ranking is based on this order: quality, entertainment, learning, length, and uniqueness. " +
	"Each clip must be at least 1/10 and at most 3/10 of the podcast length. " +
	"The best moments should be unique and not overlapping. They should also be interesting and engaging. " +
	"Each moment should not include intro music or outro music. " +
	"Try not to end the segment on a cliffhanger or mid sentence. " +
	"Do not include the first 20 seconds and last 20 seconds of the podcast. " +
	"List the best moment first. " +
	"Format the response as a JSON array of objects, each with 'start' and 'end' keys in seconds."

var variations = []string{
	"Focus on humorous moments.",
	"Identify key insights or learnings.",
	"Look for emotional or inspiring segments.",
	"Find controversial or debate-worthy discussions.",
	"Highlight any surprising facts or revelations.",
}

// BuildInstruction returns the base instruction, optionally followed by one
// focus variation. The choice depends only on seed.
func BuildInstruction(seed int64) string {
	r := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
	if r.IntN(2) == 0 {
		return base
	}
	return base + " " + variations[r.IntN(len(variations))]
}

// Variations lists the optional focus sentences.
func Variations() []string {
	out := make([]string, len(variations))
	copy(out, variations)
	return out
}

// RandomSeed returns a non-zero seed for production runs.
func RandomSeed() int64 {
	for {
		if s := rand.Int64() ^ time.Now().UnixNano(); s != 0 {
			return s
		}
	}
}

// Variation returns the focus sentence appended to instr, if any.
func Variation(instr string) string {
	rest := strings.TrimSpace(strings.TrimPrefix(instr, base))
	for _, v := range variations {
		if rest == v {
			return v
		}
	}
	return ""
}
