package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/forPelevin/podclip/internal/domain/moments"
	"github.com/forPelevin/podclip/internal/types"
)

type fakeAnalyzer struct {
	text  string
	err   error
	calls int
	instr string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _, instruction string) (types.Analysis, error) {
	f.calls++
	f.instr = instruction
	if f.err != nil {
		return types.Analysis{}, f.err
	}
	return types.Analysis{Backend: "fake", Model: "m", Text: f.text}, nil
}

type trimCall struct {
	in, out    string
	start, end float64
}

type fakeAudio struct {
	duration time.Duration
	probeErr error
	failOn   map[int]error // 1-based trim call index
	trims    []trimCall
	probes   int
}

func (f *fakeAudio) Trim(_ context.Context, in, out string, start, end float64) error {
	f.trims = append(f.trims, trimCall{in: in, out: out, start: start, end: end})
	if err, ok := f.failOn[len(f.trims)]; ok {
		return err
	}
	return nil
}

func (f *fakeAudio) ProbeDuration(_ context.Context, _ string) (time.Duration, error) {
	f.probes++
	return f.duration, f.probeErr
}

type fakeSleeper struct{ waits []time.Duration }

func (f *fakeSleeper) Sleep(_ context.Context, d time.Duration) error {
	f.waits = append(f.waits, d)
	return nil
}

func fixedNow() time.Time { return time.Date(2024, 3, 1, 15, 4, 5, 0, time.Local) }

func newTestUsecase(an *fakeAnalyzer, audio *fakeAudio, sl *fakeSleeper) Usecase {
	return New(Deps{Analyzer: an, Audio: audio, Now: fixedNow, Sleep: sl.Sleep})
}

func testInput(outDir string) Input {
	return Input{
		Recording:   filepath.Join("/media", "episode.mp3"),
		OutDir:      outDir,
		Instruction: "find moments",
		Policy:      moments.DefaultPolicy(),
		Pacing:      2 * time.Second,
	}
}

func TestRun_NamesArtifactsDeterministically(t *testing.T) {
	an := &fakeAnalyzer{text: `Here: [{"start": 100, "end": 300}, {"start": 500, "end": 700}]`}
	audio := &fakeAudio{duration: 1000 * time.Second}
	sl := &fakeSleeper{}
	out := t.TempDir()

	res, err := newTestUsecase(an, audio, sl).Run(context.Background(), testInput(out))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != OutcomeDone {
		t.Fatalf("unexpected outcome: %s", res.Outcome)
	}
	want := []string{"2024-03-01_episode_clip_1.mp3", "2024-03-01_episode_clip_2.mp3"}
	if len(res.Artifacts) != len(want) {
		t.Fatalf("expected %d artifacts, got %d", len(want), len(res.Artifacts))
	}
	for i, name := range want {
		a := res.Artifacts[i]
		if a.Name != name || a.Ordinal != i+1 {
			t.Fatalf("artifact %d: got %s (#%d), want %s", i, a.Name, a.Ordinal, name)
		}
		if audio.trims[i].out != filepath.Join(out, name) {
			t.Fatalf("trim %d wrote to %s", i, audio.trims[i].out)
		}
	}
	if audio.trims[0].start != 100 || audio.trims[0].end != 300 || audio.trims[1].start != 500 {
		t.Fatalf("unexpected trim ranges: %+v", audio.trims)
	}
	if an.instr != "find moments" {
		t.Fatalf("instruction not forwarded: %q", an.instr)
	}
	if len(sl.waits) != 1 || sl.waits[0] != 2*time.Second {
		t.Fatalf("expected one 2s pause between two trims, got %v", sl.waits)
	}
}

func TestRun_NoMomentsSkipsTrim(t *testing.T) {
	an := &fakeAnalyzer{text: "Nothing stood out in this episode, sorry."}
	audio := &fakeAudio{duration: 1000 * time.Second}
	sl := &fakeSleeper{}

	res, err := newTestUsecase(an, audio, sl).Run(context.Background(), testInput(t.TempDir()))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != OutcomeNoMoments {
		t.Fatalf("expected no-moments outcome, got %s", res.Outcome)
	}
	if len(audio.trims) != 0 || audio.probes != 0 {
		t.Fatalf("expected no trim and no probe, got trims=%d probes=%d", len(audio.trims), audio.probes)
	}
	if res.Analysis.Backend != "fake" {
		t.Fatalf("expected analysis to be kept on the result")
	}
}

func TestRun_BackendFailureAborts(t *testing.T) {
	boom := errors.New("status 401")
	an := &fakeAnalyzer{err: boom}
	audio := &fakeAudio{duration: 1000 * time.Second}

	res, err := newTestUsecase(an, audio, &fakeSleeper{}).Run(context.Background(), testInput(t.TempDir()))
	if !errors.Is(err, ErrBackend) || !errors.Is(err, boom) {
		t.Fatalf("expected ErrBackend wrapping cause, got %v", err)
	}
	if res.Outcome != OutcomeFailed || len(res.Artifacts) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if an.calls != 1 {
		t.Fatalf("backend must not be retried, got %d calls", an.calls)
	}
	if len(audio.trims) != 0 {
		t.Fatalf("expected no trims")
	}
}

func TestRun_ProbeFailure(t *testing.T) {
	an := &fakeAnalyzer{text: `[{"start": 100, "end": 300}]`}
	audio := &fakeAudio{probeErr: errors.New("ffprobe missing")}

	res, err := newTestUsecase(an, audio, &fakeSleeper{}).Run(context.Background(), testInput(t.TempDir()))
	if !errors.Is(err, ErrProbe) {
		t.Fatalf("expected ErrProbe, got %v", err)
	}
	if res.Outcome != OutcomeFailed || len(audio.trims) != 0 {
		t.Fatalf("unexpected result: %+v trims=%d", res, len(audio.trims))
	}
}

func TestRun_TrimFailureDoesNotStopLaterClips(t *testing.T) {
	an := &fakeAnalyzer{text: "0:01:40 - 0:05:00\n0:06:00 - 0:09:00\n0:10:00 - 0:13:00"}
	audio := &fakeAudio{
		duration: 1000 * time.Second,
		failOn:   map[int]error{2: errors.New("exit status 1")},
	}
	sl := &fakeSleeper{}

	res, err := newTestUsecase(an, audio, sl).Run(context.Background(), testInput(t.TempDir()))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != OutcomeDone {
		t.Fatalf("unexpected outcome: %s", res.Outcome)
	}
	if len(audio.trims) != 3 {
		t.Fatalf("expected all three trims attempted, got %d", len(audio.trims))
	}
	if len(res.Artifacts) != 2 || res.Artifacts[0].Ordinal != 1 || res.Artifacts[1].Ordinal != 3 {
		t.Fatalf("unexpected artifacts: %+v", res.Artifacts)
	}
	if res.Artifacts[1].Name != "2024-03-01_episode_clip_3.mp3" {
		t.Fatalf("ordinals must follow accepted order, got %s", res.Artifacts[1].Name)
	}
	if len(res.Failures) != 1 || res.Failures[0].Ordinal != 2 || !errors.Is(res.Failures[0].Err, ErrTrim) {
		t.Fatalf("unexpected failures: %+v", res.Failures)
	}
	if res.Artifacts[0].Method != types.MethodPatternMatched {
		t.Fatalf("unexpected method: %s", res.Artifacts[0].Method)
	}
	if len(sl.waits) != 2 {
		t.Fatalf("expected 2 pauses for 3 trims, got %d", len(sl.waits))
	}
}

func TestRun_FiltersCandidatesBeforeTrim(t *testing.T) {
	an := &fakeAnalyzer{text: `[
		{"start": 0, "end": 200},
		{"start": 100, "end": 150},
		{"start": 400, "end": 650},
		{"start": 500, "end": 700},
		{"start": 100, "end": 300}
	]`}
	audio := &fakeAudio{duration: 1000 * time.Second}

	res, err := newTestUsecase(an, audio, &fakeSleeper{}).Run(context.Background(), testInput(t.TempDir()))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(audio.trims) != 2 {
		t.Fatalf("expected 2 trims, got %+v", audio.trims)
	}
	if audio.trims[0].start != 400 || audio.trims[1].start != 100 {
		t.Fatalf("trims must follow backend priority order, got %+v", audio.trims)
	}
	reasons := map[moments.Reason]int{}
	for _, r := range res.Rejected {
		reasons[r.Reason]++
	}
	if reasons[moments.ReasonOutsideMargin] != 1 || reasons[moments.ReasonTooShort] != 1 || reasons[moments.ReasonOverlap] != 1 {
		t.Fatalf("unexpected rejection reasons: %v", reasons)
	}
	if res.Recording.Duration != 1000*time.Second {
		t.Fatalf("expected probed duration on result")
	}
}

func TestRun_ZeroPacingNeverSleeps(t *testing.T) {
	an := &fakeAnalyzer{text: `[{"start": 100, "end": 300}, {"start": 500, "end": 700}]`}
	sl := &fakeSleeper{}
	in := testInput(t.TempDir())
	in.Pacing = 0

	if _, err := newTestUsecase(an, &fakeAudio{duration: 1000 * time.Second}, sl).Run(context.Background(), in); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(sl.waits) != 0 {
		t.Fatalf("expected no pauses, got %v", sl.waits)
	}
}

func TestClipName(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		recording, ext string
		ordinal        int
		want           string
	}{
		{"episode.mp3", ".mp3", 1, "2024-03-01_episode_clip_1.mp3"},
		{"/a/b/My Show.v2.m4a", ".m4a", 12, "2024-03-01_My Show.v2_clip_12.m4a"},
		{"raw", "", 2, "2024-03-01_raw_clip_2.mp3"},
		{"x.wav", "wav", 3, "2024-03-01_x_clip_3.wav"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := ClipName(date, tt.recording, tt.ext, tt.ordinal); got != tt.want {
				t.Fatalf("ClipName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestManifestName(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := ManifestName(date, "/x/episode.mp3"); got != "2024-03-01_episode_clips.json" {
		t.Fatalf("unexpected manifest name: %s", got)
	}
}

func TestSleepCtx_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepCtx(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
