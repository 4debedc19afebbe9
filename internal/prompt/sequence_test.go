package prompt

import (
	"strings"
	"testing"
)

func TestSequenceNatureExample(t *testing.T) {
	got := Sequence([]float64{0.5, 1.0, 1.5, 2.0, 2.5}, "nature")
	base := "natural landscapes, flowing water, trees"
	want := Plan{
		base + ", intense movement",
		base + ", subtle movement",
		base + ", subtle movement",
		base + ", subtle movement",
		base + ", intense movement",
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("plan[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSequenceAlternation(t *testing.T) {
	themes := []string{"realistic", "animated", "abstract", "nature", "", "unknown-theme"}
	for _, theme := range themes {
		for _, n := range []int{0, 1, 3, 4, 5, 17, 64} {
			beats := make([]float64, n)
			for i := range beats {
				beats[i] = 0.25 + float64(i)*0.48
			}
			plan := Sequence(beats, theme)
			if len(plan) != n {
				t.Fatalf("theme %q n=%d: len = %d", theme, n, len(plan))
			}
			for i, p := range plan {
				intense := strings.HasSuffix(p, "intense movement")
				subtle := strings.HasSuffix(p, "subtle movement")
				if intense == subtle {
					t.Fatalf("theme %q plan[%d] = %q has ambiguous emphasis", theme, i, p)
				}
				if intense != (i%4 == 0) {
					t.Fatalf("theme %q plan[%d] = %q, intense=%v", theme, i, p, intense)
				}
			}
		}
	}
}

func TestSequenceEmpty(t *testing.T) {
	for _, theme := range []string{"nature", "missing"} {
		if got := Sequence(nil, theme); len(got) != 0 {
			t.Fatalf("Sequence(nil, %q) = %v, want empty", theme, got)
		}
		if got := Sequence([]float64{}, theme); len(got) != 0 {
			t.Fatalf("Sequence([], %q) = %v, want empty", theme, got)
		}
	}
}

func TestSequenceUnknownThemeFallsBackToAbstract(t *testing.T) {
	beats := []float64{0.1, 0.6, 1.1, 1.6, 2.1, 2.6}
	abstract := Sequence(beats, "abstract")
	for _, theme := range []string{"unknown-theme", "", "Nature", " nature"} {
		got := Sequence(beats, theme)
		for i := range abstract {
			if got[i] != abstract[i] {
				t.Fatalf("theme %q plan[%d] = %q, want %q", theme, i, got[i], abstract[i])
			}
		}
	}
}

func TestThemesCatalogue(t *testing.T) {
	themes := Themes()
	if len(themes) != 4 {
		t.Fatalf("len(Themes()) = %d, want 4", len(themes))
	}
	if themes[0].Name != "realistic" || themes[0].Label != "Realistic" {
		t.Fatalf("first theme = %+v", themes[0])
	}
	for _, th := range themes {
		if th.Descriptor != Descriptor(th.Name) {
			t.Fatalf("theme %q descriptor mismatch", th.Name)
		}
	}
}

func TestComposeScript(t *testing.T) {
	cases := []struct {
		topic string
		want  string
	}{
		{"cats", "Write a short, engaging TikTok script about: cats. Keep it under 60 seconds."},
		{"", "Write a short, engaging TikTok script about: . Keep it under 60 seconds."},
	}
	for _, tc := range cases {
		if got := ComposeScript(tc.topic); got != tc.want {
			t.Fatalf("ComposeScript(%q) = %q, want %q", tc.topic, got, tc.want)
		}
	}
}
