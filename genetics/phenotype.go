package genetics

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Baseline holds the per-kind stat offsets a genotype is added to.
type Baseline struct {
	Speed        float64 `yaml:"speed"`
	Vision       float64 `yaml:"vision"`
	MaxOffspring float64 `yaml:"max_offspring"`
}

// Stats are the phenotype traits derived from a genotype and a baseline.
type Stats struct {
	Speed        float64
	Vision       float64
	Efficiency   float64
	MaxOffspring float64
	Specials     []float64
	Cost         float64
}

// Noise draws zero-mean normal perturbations whose spread scales with the
// trait baseline. A zero Scale disables noise.
type Noise struct {
	Scale float64
	RNG   *rand.Rand
}

// sample returns a normal draw with sigma = |base| * Scale.
// Inverse-CDF sampling keeps every draw on the injected generator.
func (n Noise) sample(base float64) float64 {
	sigma := math.Abs(base) * n.Scale
	if sigma == 0 || n.RNG == nil {
		return 0
	}
	u := n.RNG.Float64()
	for u == 0 {
		u = n.RNG.Float64()
	}
	return distuv.Normal{Mu: 0, Sigma: sigma}.Quantile(u)
}

// Phenotype derives stats from g. Efficiency deliberately reuses the speed
// baseline and the speed gene count.
func (g Genotype) Phenotype(base Baseline, noise Noise) Stats {
	n := float64(len(g.genes))
	speedCount := float64(g.Count(GeneSpeed))

	specials := make([]float64, g.specials)
	for i := range specials {
		specials[i] = float64(g.Count(SpecialGene(i)))
	}

	return Stats{
		Speed:        base.Speed + noise.sample(base.Speed) + speedCount/n,
		Vision:       base.Vision + noise.sample(base.Vision) + float64(g.Count(GeneVision))/n,
		Efficiency:   base.Speed + speedCount,
		MaxOffspring: base.MaxOffspring + float64(g.Count(GeneOffspring)),
		Specials:     specials,
		Cost:         n - float64(g.Count(GeneEmpty)),
	}
}

// Vector flattens the stats into a phenotype vector:
// speed, vision, efficiency, maxOffspring, specials..., cost.
func (s Stats) Vector() []float64 {
	v := make([]float64, 0, 5+len(s.Specials))
	v = append(v, s.Speed, s.Vision, s.Efficiency, s.MaxOffspring)
	v = append(v, s.Specials...)
	return append(v, s.Cost)
}

// Dominates reports whether s is at least o on every special dimension.
// Mismatched dimensions never dominate.
func (s Stats) Dominates(o Stats) bool {
	if len(s.Specials) != len(o.Specials) {
		return false
	}
	for i, v := range s.Specials {
		if v < o.Specials[i] {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (s Stats) String() string {
	return fmt.Sprintf("speed=%.2f vision=%.2f eff=%.0f offspring=%.0f specials=%v cost=%.0f",
		s.Speed, s.Vision, s.Efficiency, s.MaxOffspring, s.Specials, s.Cost)
}
