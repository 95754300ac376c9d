package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/forPelevin/podclip/internal/config"
	"github.com/forPelevin/podclip/internal/domain/moments"
	"github.com/forPelevin/podclip/internal/ports"
	"github.com/forPelevin/podclip/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/podclip/internal/ports/adapters/gemini"
	"github.com/forPelevin/podclip/internal/ports/adapters/openai"
	"github.com/forPelevin/podclip/internal/prompt"
	"github.com/forPelevin/podclip/internal/types"
	"github.com/forPelevin/podclip/internal/usecase"
)

var (
	ErrInput  = errors.New("invalid recording")
	ErrLocked = errors.New("recording is already being processed")
)

type Config struct {
	Recording string
	Settings  *config.Config
	// Seed fixes the prompt variation. Zero picks a random seed.
	Seed   int64
	Logger zerolog.Logger

	// Optional overrides; nil builds the adapters from Settings.
	Analyzer ports.Analyzer
	Audio    ports.AudioTool
	Now      func() time.Time
}

func (c Config) Validate() error {
	if c.Settings == nil {
		return errors.New("settings are required")
	}
	if c.Recording == "" {
		return fmt.Errorf("%w: path is empty", ErrInput)
	}
	info, err := os.Stat(c.Recording)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInput, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrInput, c.Recording)
	}
	return nil
}

// Run processes one recording into cfg.Settings.Output.Dir. The returned
// Result is meaningful even when err is non-nil.
func Run(ctx context.Context, cfg Config) (usecase.Result, error) {
	if err := cfg.Validate(); err != nil {
		return usecase.Result{}, err
	}
	s := cfg.Settings
	runID := uuid.NewString()
	log := cfg.Logger.With().Str("run_id", runID).Str("recording", filepath.Base(cfg.Recording)).Logger()

	outDir := s.Output.Dir
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return usecase.Result{}, fmt.Errorf("create output dir: %w", err)
	}

	lock, err := acquireLock(outDir, cfg.Recording)
	if err != nil {
		return usecase.Result{}, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn().Err(err).Msg("failed to release run lock")
		}
	}()
	log.Debug().Str("lock", lock.Path()).Msg("run lock acquired")

	analyzer := cfg.Analyzer
	if analyzer == nil {
		analyzer = newAnalyzer(s)
	}
	audio := cfg.Audio
	if audio == nil {
		audio = ffmpeg.New(s.FFmpeg.FFmpegPath, s.FFmpeg.FFprobePath)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = prompt.RandomSeed()
	}
	instruction := prompt.BuildInstruction(seed)
	log.Debug().Int64("seed", seed).Str("variation", prompt.Variation(instruction)).Msg("instruction built")

	uc := usecase.New(usecase.Deps{
		Analyzer: analyzer,
		Audio:    audio,
		Now:      cfg.Now,
		Logger:   &log,
	})
	res, runErr := uc.Run(ctx, usecase.Input{
		Recording:   cfg.Recording,
		OutDir:      outDir,
		Instruction: instruction,
		Policy:      policy(s.Selection),
		Pacing:      seconds(s.Output.PacingSeconds),
	})

	if s.Output.Manifest && !errors.Is(runErr, usecase.ErrBackend) {
		path := filepath.Join(outDir, usecase.ManifestName(res.Date, cfg.Recording))
		if err := writeManifest(path, buildManifest(runID, cfg.Recording, res)); err != nil {
			log.Warn().Err(err).Msg("manifest not written")
		} else {
			log.Info().Str("path", path).Int("clips", len(res.Artifacts)).Msg("manifest written")
		}
	}
	return res, runErr
}

func newAnalyzer(s *config.Config) ports.Analyzer {
	b := s.ActiveBackend()
	timeout := time.Duration(b.TimeoutSeconds) * time.Second
	if s.Backend == config.BackendOpenAI {
		return openai.New(b.APIKey, b.Model, b.BaseURL, timeout)
	}
	return gemini.New(b.APIKey, b.Model, b.BaseURL, timeout)
}

func policy(sel config.Selection) moments.Policy {
	return moments.Policy{
		MinRatio:   sel.MinRatio,
		MaxRatio:   sel.MaxRatio,
		EdgeMargin: seconds(sel.EdgeMarginSeconds),
	}
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// acquireLock takes {outDir}/.podclip-{hash}.lock without blocking.
func acquireLock(outDir, recording string) (*flock.Flock, error) {
	key := recording
	if abs, err := filepath.Abs(recording); err == nil {
		key = abs
	}
	lock := flock.New(filepath.Join(outDir, ".podclip-"+hash(key)+".lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, lock.Path())
	}
	return lock, nil
}

func buildManifest(runID, recording string, res usecase.Result) types.Manifest {
	m := types.Manifest{
		RunID:    runID,
		Input:    recording,
		Date:     res.Date.Format("2006-01-02"),
		Backend:  res.Analysis.Backend,
		Model:    res.Analysis.Model,
		Duration: res.Recording.Duration.Seconds(),
		Clips:    make([]types.ManifestClip, 0, len(res.Artifacts)),
	}
	for _, a := range res.Artifacts {
		m.Clips = append(m.Clips, types.ManifestClip{
			Ordinal:  a.Ordinal,
			File:     a.Name,
			StartSec: a.Range.Start,
			EndSec:   a.Range.End,
			Method:   a.Method,
		})
	}
	for _, r := range res.Rejected {
		m.Rejected = append(m.Rejected, types.ManifestRejected{
			StartSec: r.Candidate.Start,
			EndSec:   r.Candidate.End,
			Method:   r.Candidate.Method,
			Reason:   string(r.Reason),
		})
	}
	for _, f := range res.Failures {
		m.Failures = append(m.Failures, types.ManifestFailure{
			Ordinal: f.Ordinal,
			File:    f.Name,
			Error:   f.Err.Error(),
		})
	}
	return m
}

func writeManifest(path string, m types.Manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.AudioTool = (*ffmpeg.Adapter)(nil)
var _ ports.Analyzer = (*gemini.Adapter)(nil)
var _ ports.Analyzer = (*openai.Adapter)(nil)
