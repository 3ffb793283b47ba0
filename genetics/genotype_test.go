package genetics

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
)

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func mustParse(t *testing.T, s string, specials int) Genotype {
	t.Helper()
	g, err := Parse(s, specials)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return g
}

func TestEmpty(t *testing.T) {
	g, err := Empty(12, 3)
	if err != nil {
		t.Fatalf("Empty: %v", err)
	}
	if g.Len() != 12 || g.Specials() != 3 {
		t.Fatalf("got len=%d specials=%d", g.Len(), g.Specials())
	}
	if g.Count(GeneEmpty) != 12 {
		t.Errorf("expected all empty genes, got %q", g)
	}
}

func TestRandomRejectsTooManySpecials(t *testing.T) {
	if _, err := Random(10, 10, newRNG(1)); !errors.Is(err, ErrTooManySpecials) {
		t.Fatalf("expected ErrTooManySpecials, got %v", err)
	}
	if _, err := Empty(10, 10); !errors.Is(err, ErrTooManySpecials) {
		t.Fatalf("expected ErrTooManySpecials from Empty, got %v", err)
	}
}

func TestRandomUsesActiveAlphabet(t *testing.T) {
	rng := newRNG(7)
	for _, specials := range []int{0, 2, 9} {
		g, err := Random(500, specials, rng)
		if err != nil {
			t.Fatalf("Random: %v", err)
		}
		chars := alphabet(specials)
		for i := 0; i < g.Len(); i++ {
			if !strings.ContainsRune(chars, rune(g.At(i))) {
				t.Fatalf("specials=%d: gene %q outside alphabet %q", specials, g.At(i), chars)
			}
		}
	}
}

func TestCostPlusEmptyEqualsLength(t *testing.T) {
	rng := newRNG(42)
	for i := 0; i < 200; i++ {
		length := 1 + rng.IntN(40)
		g, err := Random(length, rng.IntN(MaxSpecials+1), rng)
		if err != nil {
			t.Fatalf("Random: %v", err)
		}
		stats := g.Phenotype(Baseline{Speed: 1, Vision: 3, MaxOffspring: 2}, Noise{})
		if int(stats.Cost)+g.Count(GeneEmpty) != g.Len() {
			t.Fatalf("%q: cost %v + empty %d != len %d", g, stats.Cost, g.Count(GeneEmpty), g.Len())
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		specials int
		wantErr  error
	}{
		{"base alphabet", "sv.eo", 0, nil},
		{"upper case", "SVEO.", 0, nil},
		{"specials", "s12", 2, nil},
		{"special out of range", "s13", 2, ErrInvalidGene},
		{"unknown symbol", "svx", 0, ErrInvalidGene},
		{"empty", "", 0, ErrInvalidLength},
		{"too many specials", "s", 10, ErrTooManySpecials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in, tt.specials)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCountIsCaseInsensitive(t *testing.T) {
	g := mustParse(t, "sSsVv.", 0)
	if got := g.Count(GeneSpeed); got != 3 {
		t.Errorf("Count(s) = %d, want 3", got)
	}
	if got := g.Count(GeneVision); got != 2 {
		t.Errorf("Count(v) = %d, want 2", got)
	}
}

func TestMutateZeroIsIdentity(t *testing.T) {
	rng := newRNG(3)
	g, _ := Random(64, 4, rng)
	m, err := g.Mutate(0, rng)
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if m.String() != g.String() {
		t.Errorf("Mutate(0) changed genotype:\n%s\n%s", g, m)
	}
}

func TestMutateOneResamplesEveryLocus(t *testing.T) {
	g := mustParse(t, "..........", 2)

	m, err := g.Mutate(1, newRNG(11))
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	// Replay the draws: one coin and one symbol per locus.
	replay := newRNG(11)
	chars := alphabet(2)
	for i := 0; i < g.Len(); i++ {
		replay.Float64()
		want := Gene(chars[replay.IntN(len(chars))])
		if m.At(i) != want {
			t.Fatalf("locus %d: got %q, want %q", i, m.At(i), want)
		}
	}
}

func TestMutateLeavesOriginalUnchanged(t *testing.T) {
	g := mustParse(t, "svsvsvsv", 0)
	before := g.String()
	if _, err := g.Mutate(1, newRNG(5)); err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if g.String() != before {
		t.Errorf("original mutated: %q -> %q", before, g)
	}
}

func TestMutateRejectsBadProbability(t *testing.T) {
	g := mustParse(t, "sv", 0)
	for _, p := range []float64{-0.1, 1.5} {
		if _, err := g.Mutate(p, newRNG(1)); !errors.Is(err, ErrInvalidProbability) {
			t.Errorf("Mutate(%v): expected ErrInvalidProbability, got %v", p, err)
		}
	}
}

func TestCrossoverMismatch(t *testing.T) {
	rng := newRNG(9)
	a := mustParse(t, "svsv", 1)
	shorter := mustParse(t, "svs", 1)
	otherSpecials := mustParse(t, "svsv", 2)

	for _, mode := range []CrossoverMode{CrossoverUniform, CrossoverMidpoint} {
		if _, err := a.CrossoverWith(mode, shorter, rng); !errors.Is(err, ErrLengthMismatch) {
			t.Errorf("%s: expected ErrLengthMismatch, got %v", mode, err)
		}
		if _, err := a.CrossoverWith(mode, otherSpecials, rng); !errors.Is(err, ErrSpecialsMismatch) {
			t.Errorf("%s: expected ErrSpecialsMismatch, got %v", mode, err)
		}
	}

	if _, err := Recombine(a, shorter, CrossoverUniform, 0.1, rng); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("Recombine: expected ErrLengthMismatch, got %v", err)
	}
	if _, err := Recombine(a, otherSpecials, CrossoverUniform, 0.1, rng); !errors.Is(err, ErrSpecialsMismatch) {
		t.Errorf("Recombine: expected ErrSpecialsMismatch, got %v", err)
	}
}

func TestUniformCrossoverMixesLoci(t *testing.T) {
	a := mustParse(t, strings.Repeat("s", 200), 0)
	b := mustParse(t, strings.Repeat("v", 200), 0)

	child, err := a.Crossover(b, newRNG(21))
	if err != nil {
		t.Fatalf("Crossover: %v", err)
	}
	fromA := child.Count(GeneSpeed)
	fromB := child.Count(GeneVision)
	if fromA+fromB != 200 {
		t.Fatalf("child has foreign genes: %q", child)
	}
	// 200 fair coins: both sides well represented.
	if fromA < 60 || fromB < 60 {
		t.Errorf("expected roughly even mixing, got %d from a and %d from b", fromA, fromB)
	}
}

func TestMidpointCrossoverSplices(t *testing.T) {
	a := mustParse(t, "ssssssss", 0)
	b := mustParse(t, "vvvvvvvv", 0)

	child, err := a.CrossoverWith(CrossoverMidpoint, b, newRNG(2))
	if err != nil {
		t.Fatalf("CrossoverWith: %v", err)
	}
	s := child.String()
	if s != "ssssvvvv" && s != "vvvvssss" {
		t.Errorf("unexpected splice %q", s)
	}
}

func TestParseCrossoverMode(t *testing.T) {
	if m, err := ParseCrossoverMode(""); err != nil || m != CrossoverUniform {
		t.Errorf("empty mode: got %q, %v", m, err)
	}
	if m, err := ParseCrossoverMode("midpoint"); err != nil || m != CrossoverMidpoint {
		t.Errorf("midpoint: got %q, %v", m, err)
	}
	if _, err := ParseCrossoverMode("splice"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
