package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ErrToolMissing is returned when the ffmpeg or ffprobe binary cannot be found.
var ErrToolMissing = errors.New("ffmpeg: tool not found")

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// Trim copies [start, end] of in into out without re-encoding. Cut points
// may snap to the nearest frame boundary. An existing out is never replaced.
func (a *Adapter) Trim(ctx context.Context, in, out string, start, end float64) error {
	if end <= start {
		return fmt.Errorf("ffmpeg trim: end %.3f must be after start %.3f", end, start)
	}
	cmd := exec.CommandContext(ctx, a.ffmpeg, trimArgs(in, out, start, end)...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrToolMissing, a.ffmpeg)
		}
		return fmt.Errorf("ffmpeg trim: %w\n%s", err, tail(string(b), 2000))
	}
	return nil
}

func trimArgs(in, out string, start, end float64) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-n",
		"-i", in,
		"-ss", fmtSeconds(start),
		"-to", fmtSeconds(end),
		"-c", "copy",
		out,
	}
}

func (a *Adapter) ProbeDuration(ctx context.Context, in string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		in,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return 0, fmt.Errorf("%w: %s", ErrToolMissing, a.ffprobe)
		}
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	return parseDuration(string(b))
}

func parseDuration(out string) (time.Duration, error) {
	s := strings.TrimSpace(out)
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	if sec <= 0 {
		return 0, fmt.Errorf("parse duration %q: not positive", s)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
