package main

import (
	"github.com/pthm-cable/ecosim/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value

	apply func(cfg *config.Config, v float64)
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "food_per_turn", Path: "food.per_turn", Min: 1, Max: 40, Default: 10,
				apply: func(c *config.Config, v float64) { c.Food.PerTurn = int(v + 0.5) }},
			{Name: "mutation_chance", Path: "genotype.mutation_chance", Min: 0, Max: 0.2, Default: 0.03,
				apply: func(c *config.Config, v float64) { c.Genotype.MutationChance = v }},
			{Name: "max_diversity", Path: "species.max_diversity", Min: 5, Max: 200, Default: 60,
				apply: func(c *config.Config, v float64) { c.Species.MaxDiversity = v }},
			{Name: "prey_hunger", Path: "entity.prey_hunger", Min: 0.3, Max: 0.95, Default: 0.75,
				apply: func(c *config.Config, v float64) { c.Entity.PreyHunger = v }},
			{Name: "predator_hunger", Path: "entity.predator_hunger", Min: 0.3, Max: 0.95, Default: 0.7,
				apply: func(c *config.Config, v float64) { c.Entity.PredatorHunger = v }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg and recomputes
// derived values.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	for i, v := range pv.Clamp(values) {
		pv.Specs[i].apply(cfg, v)
	}
	return cfg.Finalize()
}
