package prompt

import (
	"strings"
	"testing"
)

func TestBuildInstruction_DeterministicPerSeed(t *testing.T) {
	for seed := int64(1); seed <= 50; seed++ {
		a := BuildInstruction(seed)
		b := BuildInstruction(seed)
		if a != b {
			t.Fatalf("seed %d produced different instructions:\n%s\n%s", seed, a, b)
		}
	}
}

func TestBuildInstruction_Content(t *testing.T) {
	got := BuildInstruction(7)
	for _, want := range []string{
		"JSON array",
		"'start' and 'end'",
		"first 20 seconds",
		"1/10",
		"3/10",
		"not overlapping",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("instruction missing %q:\n%s", want, got)
		}
	}
}

func TestBuildInstruction_CoversBothBranches(t *testing.T) {
	var plain, varied int
	seen := map[string]bool{}
	for seed := int64(0); seed < 500; seed++ {
		instr := BuildInstruction(seed)
		if !strings.HasPrefix(instr, base) {
			t.Fatalf("instruction does not start with base text: %q", instr)
		}
		v := Variation(instr)
		if v == "" {
			if instr != base {
				t.Fatalf("unexpected suffix: %q", strings.TrimPrefix(instr, base))
			}
			plain++
			continue
		}
		varied++
		seen[v] = true
	}
	if plain == 0 || varied == 0 {
		t.Fatalf("expected both plain and varied instructions, got plain=%d varied=%d", plain, varied)
	}
	if len(seen) != len(Variations()) {
		t.Fatalf("expected every variation to appear, saw %d of %d", len(seen), len(Variations()))
	}
}

func TestRandomSeed_NonZero(t *testing.T) {
	for i := 0; i < 10; i++ {
		if RandomSeed() == 0 {
			t.Fatalf("expected non-zero seed")
		}
	}
}
