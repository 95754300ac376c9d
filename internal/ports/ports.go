package ports

import (
	"context"
	"time"

	"github.com/forPelevin/podclip/internal/types"
)

// Analyzer submits a recording plus instructions to a remote inference
// backend and returns its raw free-text judgment.
type Analyzer interface {
	Analyze(ctx context.Context, audioPath, instruction string) (types.Analysis, error)
}

type AudioTool interface {
	Trim(ctx context.Context, inPath, outPath string, start, end float64) error
	ProbeDuration(ctx context.Context, inPath string) (time.Duration, error)
}
