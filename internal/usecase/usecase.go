package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/forPelevin/podclip/internal/domain/moments"
	"github.com/forPelevin/podclip/internal/domain/timecode"
	"github.com/forPelevin/podclip/internal/ports"
	"github.com/forPelevin/podclip/internal/types"
)

var (
	ErrBackend = errors.New("analysis backend failed")
	ErrProbe   = errors.New("duration probe failed")
	ErrTrim    = errors.New("trim failed")
)

// Stage is a step of the run state machine:
// Idle -> BackendCalled -> {Failed | ParsedEmpty | Parsed} -> Done.
type Stage string

const (
	StageIdle          Stage = "idle"
	StageBackendCalled Stage = "backend_called"
	StageFailed        Stage = "failed"
	StageParsedEmpty   Stage = "parsed_empty"
	StageParsed        Stage = "parsed"
	StageDone          Stage = "done"
)

type Outcome string

const (
	OutcomeFailed    Outcome = "failed"
	OutcomeNoMoments Outcome = "no_moments"
	OutcomeDone      Outcome = "done"
)

const (
	dateLayout  = "2006-01-02"
	fallbackExt = ".mp3"
)

type Deps struct {
	Analyzer ports.Analyzer
	Audio    ports.AudioTool

	// Now and Sleep default to the wall clock.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error

	Logger *zerolog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Sleep == nil {
		d.Sleep = sleepCtx
	}
	if d.Logger == nil {
		nop := zerolog.Nop()
		d.Logger = &nop
	}
	return Usecase{d: d}
}

type Input struct {
	Recording   string
	OutDir      string
	Instruction string
	Policy      moments.Policy
	// Pacing is the pause between consecutive trims.
	Pacing time.Duration
	// Ext overrides the artifact extension (with dot). Empty keeps the source's.
	Ext string
}

type TrimFailure struct {
	Ordinal int
	Name    string
	Err     error
}

type Result struct {
	Outcome    Outcome
	Date       time.Time
	Analysis   types.Analysis
	Recording  types.Recording
	Candidates []types.Candidate
	Rejected   []moments.Rejection
	Artifacts  []types.Artifact
	Failures   []TrimFailure
}

func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	log := u.d.Logger
	res := Result{Date: u.d.Now(), Recording: types.Recording{Path: in.Recording}}
	stage := func(s Stage) { log.Debug().Str("stage", string(s)).Msg("run stage") }

	stage(StageIdle)
	log.Info().Msg("sending recording to analysis backend")
	analysis, err := u.d.Analyzer.Analyze(ctx, in.Recording, in.Instruction)
	stage(StageBackendCalled)
	if err != nil {
		stage(StageFailed)
		log.Error().Err(err).Msg("analysis failed")
		res.Outcome = OutcomeFailed
		return res, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	res.Analysis = analysis
	log.Info().Str("backend", analysis.Backend).Str("model", analysis.Model).Int("response_len", len(analysis.Text)).Msg("analysis received")

	cands := moments.ParseResponse(analysis.Text)
	if len(cands) == 0 {
		stage(StageParsedEmpty)
		log.Info().Str("response", preview(analysis.Text, 300)).Msg("no significant moments found")
		res.Outcome = OutcomeNoMoments
		stage(StageDone)
		return res, nil
	}
	stage(StageParsed)
	res.Candidates = cands
	log.Info().Int("candidates", len(cands)).Str("method", string(cands[0].Method)).Msg("candidates parsed")

	dur, err := u.d.Audio.ProbeDuration(ctx, in.Recording)
	if err != nil {
		stage(StageFailed)
		log.Error().Err(err).Msg("probe duration failed")
		res.Outcome = OutcomeFailed
		return res, fmt.Errorf("%w: %w", ErrProbe, err)
	}
	res.Recording.Duration = dur

	sel := moments.Select(dur, cands, in.Policy)
	res.Rejected = sel.Rejected
	for _, r := range sel.Rejected {
		log.Warn().
			Str("range", fmtRange(r.Candidate.TimeRange)).
			Str("reason", string(r.Reason)).
			Str("source", preview(r.Candidate.Source, 80)).
			Msg("candidate rejected")
	}
	if len(sel.Accepted) == 0 {
		log.Info().Int("rejected", len(sel.Rejected)).Msg("no candidate satisfied selection constraints")
	}

	ext := in.Ext
	if ext == "" {
		ext = filepath.Ext(in.Recording)
	}

	for i, c := range sel.Accepted {
		ordinal := i + 1
		name := ClipName(res.Date, in.Recording, ext, ordinal)
		out := filepath.Join(in.OutDir, name)
		log.Info().Int("clip", ordinal).Str("range", fmtRange(c.TimeRange)).Str("file", name).Msg("clipping")

		if err := u.d.Audio.Trim(ctx, in.Recording, out, c.Start, c.End); err != nil {
			log.Warn().Err(err).Int("clip", ordinal).Str("file", name).Msg("trim failed")
			res.Failures = append(res.Failures, TrimFailure{Ordinal: ordinal, Name: name, Err: fmt.Errorf("%w: %w", ErrTrim, err)})
		} else {
			res.Artifacts = append(res.Artifacts, types.Artifact{
				Ordinal: ordinal,
				Name:    name,
				Path:    out,
				Range:   c.TimeRange,
				Method:  c.Method,
			})
		}

		if ordinal < len(sel.Accepted) && in.Pacing > 0 {
			if err := u.d.Sleep(ctx, in.Pacing); err != nil {
				log.Warn().Err(err).Msg("run interrupted")
				break
			}
		}
	}

	stage(StageDone)
	res.Outcome = OutcomeDone
	log.Info().Int("clips", len(res.Artifacts)).Int("failed", len(res.Failures)).Msg("run complete")
	return res, nil
}

// ClipName is {YYYY-MM-DD}_{base}_clip_{ordinal}{ext}; ext defaults to .mp3.
func ClipName(date time.Time, recording, ext string, ordinal int) string {
	base := filepath.Base(recording)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if ext == "" {
		ext = fallbackExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%s_%s_clip_%d%s", date.Format(dateLayout), base, ordinal, ext)
}

// ManifestName is the run summary written next to the clips.
func ManifestName(date time.Time, recording string) string {
	base := filepath.Base(recording)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s_%s_clips.json", date.Format(dateLayout), base)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func fmtRange(r types.TimeRange) string {
	return timecode.Format(r.Start) + "-" + timecode.Format(r.End)
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
