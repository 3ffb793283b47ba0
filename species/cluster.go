package species

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// maxIterations bounds Lloyd refinement in KMeans2.
const maxIterations = 100

// KMeans2 partitions points into two clusters and returns a label (0 or 1)
// per point. Seeding follows k-means++ on the given generator. Whenever there
// are at least two points both labels are used.
func KMeans2(points [][]float64, rng *rand.Rand) []int {
	n := len(points)
	labels := make([]int, n)
	if n < 2 {
		return labels
	}

	first, second := seedCenters(points, rng)
	centers := [2][]float64{
		append([]float64(nil), points[first]...),
		append([]float64(nil), points[second]...),
	}

	for iter := 0; iter < maxIterations; iter++ {
		changed := iter == 0
		for i, p := range points {
			l := 0
			if floats.Distance(p, centers[1], 2) < floats.Distance(p, centers[0], 2) {
				l = 1
			}
			if l != labels[i] {
				changed = true
				labels[i] = l
			}
		}
		if !changed {
			break
		}
		recomputeCenters(points, labels, &centers)
	}

	ensureBothClusters(points, labels, centers)
	return labels
}

// seedCenters picks a uniform first center and a second one with probability
// proportional to squared distance from the first.
func seedCenters(points [][]float64, rng *rand.Rand) (int, int) {
	n := len(points)
	first := rng.IntN(n)

	weights := make([]float64, n)
	var total float64
	for i, p := range points {
		d := floats.Distance(p, points[first], 2)
		weights[i] = d * d
		total += weights[i]
	}
	if total == 0 {
		return first, (first + 1) % n
	}

	r := rng.Float64() * total
	for i, w := range weights {
		if r < w {
			return first, i
		}
		r -= w
	}
	// Rounding left r unconsumed; take the farthest point.
	return first, floats.MaxIdx(weights)
}

// recomputeCenters moves each center to the mean of its points.
// An empty cluster keeps its previous center.
func recomputeCenters(points [][]float64, labels []int, centers *[2][]float64) {
	dim := len(points[0])
	sums := [2][]float64{make([]float64, dim), make([]float64, dim)}
	var counts [2]int
	for i, p := range points {
		floats.Add(sums[labels[i]], p)
		counts[labels[i]]++
	}
	for k := range centers {
		if counts[k] == 0 {
			continue
		}
		floats.Scale(1/float64(counts[k]), sums[k])
		centers[k] = sums[k]
	}
}

// ensureBothClusters relabels the point farthest from the occupied center
// when every point landed in the same cluster.
func ensureBothClusters(points [][]float64, labels []int, centers [2][]float64) {
	var counts [2]int
	for _, l := range labels {
		counts[l]++
	}
	if counts[0] > 0 && counts[1] > 0 {
		return
	}
	full := 0
	if counts[1] > 0 {
		full = 1
	}
	far, farDist := len(points)-1, -1.0
	for i, p := range points {
		if d := floats.Distance(p, centers[full], 2); d > farDist {
			far, farDist = i, d
		}
	}
	labels[far] = 1 - full
}
