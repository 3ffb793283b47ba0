package systems

// Drain applies the per-step metabolic cost and returns the amount removed.
// Costlier, less efficient genotypes drain faster:
// baseCost * (1 + (cost - efficiency) / genotypeLength).
func Drain(a Actor, genotypeLength int) float64 {
	if genotypeLength <= 0 || a.Energy.BaseCost == 0 {
		return 0
	}
	s := a.Genome.Stats
	cost := a.Energy.BaseCost * (1 + (s.Cost-s.Efficiency)/float64(genotypeLength))
	a.Energy.Value -= cost
	return cost
}

// Eat moves min(1 - eater, target) energy from target to eater and marks the
// target dead. Returns the amount transferred.
func Eat(eater, target Actor) float64 {
	take := min(1-eater.Energy.Value, target.Energy.Value)
	eater.Energy.Value += take
	target.Energy.Value -= take
	target.Org.Dead = true
	return take
}

// predatorEat eats target and refills the predator to full energy, but only
// when the prey was not already a carcass.
func predatorEat(eater, target Actor) float64 {
	wasAlive := !target.Org.Dead
	take := Eat(eater, target)
	if wasAlive {
		eater.Energy.Value = 1
	}
	return take
}
