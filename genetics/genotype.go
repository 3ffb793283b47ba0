// Package genetics provides the symbolic genotype, its recombination operators
// and the phenotype stats derived from it.
package genetics

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

// Gene is a single genotype symbol.
type Gene byte

// Base alphabet.
const (
	GeneSpeed      Gene = 's'
	GeneVision     Gene = 'v'
	GeneEmpty      Gene = '.'
	GeneEfficiency Gene = 'e'
	GeneOffspring  Gene = 'o'
)

// MaxSpecials is the number of reserved special symbols ('1'..'9').
const MaxSpecials = 9

const baseAlphabet = "sv.eo"

// Errors returned by genotype construction and recombination.
var (
	ErrTooManySpecials    = errors.New("at most 9 special genes are supported")
	ErrLengthMismatch     = errors.New("genotype lengths differ")
	ErrSpecialsMismatch   = errors.New("genotype special counts differ")
	ErrInvalidGene        = errors.New("invalid gene symbol")
	ErrInvalidProbability = errors.New("probability must be in [0, 1]")
	ErrInvalidLength      = errors.New("genotype length must be positive")
)

// SpecialGene returns the symbol of the i-th special gene (0-based).
func SpecialGene(i int) Gene {
	return Gene('1' + i)
}

// alphabet returns the active symbols for a given specials count.
func alphabet(specials int) string {
	return baseAlphabet + "123456789"[:specials]
}

// Genotype is a fixed-length gene sequence. Values are immutable; every
// operator returns a fresh genotype.
type Genotype struct {
	genes    []Gene
	specials int
}

func checkSpecials(specials int) error {
	if specials < 0 || specials > MaxSpecials {
		return fmt.Errorf("%w: got %d", ErrTooManySpecials, specials)
	}
	return nil
}

// Empty returns a genotype made only of empty genes.
func Empty(length, specials int) (Genotype, error) {
	if err := checkSpecials(specials); err != nil {
		return Genotype{}, err
	}
	if length <= 0 {
		return Genotype{}, fmt.Errorf("%w: got %d", ErrInvalidLength, length)
	}
	genes := make([]Gene, length)
	for i := range genes {
		genes[i] = GeneEmpty
	}
	return Genotype{genes: genes, specials: specials}, nil
}

// Random returns a genotype with every locus drawn uniformly from the active alphabet.
func Random(length, specials int, rng *rand.Rand) (Genotype, error) {
	if err := checkSpecials(specials); err != nil {
		return Genotype{}, err
	}
	if length <= 0 {
		return Genotype{}, fmt.Errorf("%w: got %d", ErrInvalidLength, length)
	}
	chars := alphabet(specials)
	genes := make([]Gene, length)
	for i := range genes {
		genes[i] = Gene(chars[rng.IntN(len(chars))])
	}
	return Genotype{genes: genes, specials: specials}, nil
}

// Parse builds a genotype from its textual form. Symbols are case-insensitive.
func Parse(s string, specials int) (Genotype, error) {
	if err := checkSpecials(specials); err != nil {
		return Genotype{}, err
	}
	if len(s) == 0 {
		return Genotype{}, fmt.Errorf("%w: got 0", ErrInvalidLength)
	}
	chars := alphabet(specials)
	genes := make([]Gene, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !strings.ContainsRune(chars, rune(lower(c))) {
			return Genotype{}, fmt.Errorf("%w: %q at %d", ErrInvalidGene, c, i)
		}
		genes[i] = Gene(c)
	}
	return Genotype{genes: genes, specials: specials}, nil
}

// Len returns the number of loci.
func (g Genotype) Len() int { return len(g.genes) }

// Specials returns the number of active special genes.
func (g Genotype) Specials() int { return g.specials }

// At returns the gene at locus i.
func (g Genotype) At(i int) Gene { return g.genes[i] }

// String returns the gene sequence as text.
func (g Genotype) String() string { return string(g.genes) }

// IsZero reports whether g was never initialized.
func (g Genotype) IsZero() bool { return g.genes == nil }

// Count returns the occurrences of gene, ignoring case.
func (g Genotype) Count(gene Gene) int {
	target := lower(byte(gene))
	n := 0
	for _, c := range g.genes {
		if lower(byte(c)) == target {
			n++
		}
	}
	return n
}

// Compatible fails unless g and other share length and specials count.
func (g Genotype) Compatible(other Genotype) error {
	if len(g.genes) != len(other.genes) {
		return fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(g.genes), len(other.genes))
	}
	if g.specials != other.specials {
		return fmt.Errorf("%w: %d != %d", ErrSpecialsMismatch, g.specials, other.specials)
	}
	return nil
}

// CrossoverMode selects the recombination operator.
type CrossoverMode string

const (
	// CrossoverUniform picks every locus independently from either parent.
	CrossoverUniform CrossoverMode = "uniform"
	// CrossoverMidpoint splices the first half of one parent onto the second half of the other.
	CrossoverMidpoint CrossoverMode = "midpoint"
)

// ParseCrossoverMode validates a mode name. Empty selects uniform.
func ParseCrossoverMode(s string) (CrossoverMode, error) {
	switch CrossoverMode(s) {
	case "", CrossoverUniform:
		return CrossoverUniform, nil
	case CrossoverMidpoint:
		return CrossoverMidpoint, nil
	}
	return "", fmt.Errorf("unknown crossover mode %q", s)
}

// Crossover mixes g and other locus by locus with probability 0.5 each.
func (g Genotype) Crossover(other Genotype, rng *rand.Rand) (Genotype, error) {
	return g.CrossoverWith(CrossoverUniform, other, rng)
}

// CrossoverWith recombines g and other using the given mode.
func (g Genotype) CrossoverWith(mode CrossoverMode, other Genotype, rng *rand.Rand) (Genotype, error) {
	if err := g.Compatible(other); err != nil {
		return Genotype{}, err
	}
	genes := make([]Gene, len(g.genes))
	switch mode {
	case CrossoverMidpoint:
		// Parent order is random so neither side always contributes the head.
		a, b := g.genes, other.genes
		if rng.Float64() < 0.5 {
			a, b = b, a
		}
		mid := len(genes) / 2
		copy(genes[:mid], a[:mid])
		copy(genes[mid:], b[mid:])
	default:
		for i := range genes {
			if rng.Float64() < 0.5 {
				genes[i] = g.genes[i]
			} else {
				genes[i] = other.genes[i]
			}
		}
	}
	return Genotype{genes: genes, specials: g.specials}, nil
}

// Mutate replaces each locus with probability p by a uniformly drawn active
// symbol. The receiver is left unchanged.
func (g Genotype) Mutate(p float64, rng *rand.Rand) (Genotype, error) {
	if p < 0 || p > 1 {
		return Genotype{}, fmt.Errorf("%w: got %v", ErrInvalidProbability, p)
	}
	chars := alphabet(g.specials)
	genes := make([]Gene, len(g.genes))
	copy(genes, g.genes)
	for i := range genes {
		if rng.Float64() < p {
			genes[i] = Gene(chars[rng.IntN(len(chars))])
		}
	}
	return Genotype{genes: genes, specials: g.specials}, nil
}

// Recombine produces an offspring genotype: crossover of a and b, then mutation.
func Recombine(a, b Genotype, mode CrossoverMode, p float64, rng *rand.Rand) (Genotype, error) {
	child, err := a.CrossoverWith(mode, b, rng)
	if err != nil {
		return Genotype{}, fmt.Errorf("crossover: %w", err)
	}
	return child.Mutate(p, rng)
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
