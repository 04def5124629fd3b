package odds

import (
	"roulette_backend/internal/model"
)

// DefaultLeastBetMass - share of probability given to the least-bet numbers
const DefaultLeastBetMass = 0.8

// Distribution maps every number on the wheel to its win probability
type Distribution map[int]float64

// Uniform returns 1/30 for every number
func Uniform() Distribution {
	d := make(Distribution, model.NumbersCount)
	p := 1.0 / float64(model.NumbersCount)
	for n := model.MinNumber; n <= model.MaxNumber; n++ {
		d[n] = p
	}
	return d
}

// Skew biases the draw toward the numbers carrying the fewest bets.
// The least-bet numbers share leastMass evenly, the others share the rest.
// When every number has the same count the result is uniform.
func Skew(numbers []int, leastMass float64) Distribution {
	if leastMass <= 0 || leastMass >= 1 {
		leastMass = DefaultLeastBetMass
	}

	// Count bets per number
	counts := make(map[int]int, model.NumbersCount)
	for n := model.MinNumber; n <= model.MaxNumber; n++ {
		counts[n] = 0
	}
	for _, n := range numbers {
		if model.ValidNumber(n) {
			counts[n]++
		}
	}

	minCount := counts[model.MinNumber]
	for n := model.MinNumber; n <= model.MaxNumber; n++ {
		if counts[n] < minCount {
			minCount = counts[n]
		}
	}

	least := 0
	for n := model.MinNumber; n <= model.MaxNumber; n++ {
		if counts[n] == minCount {
			least++
		}
	}

	// All numbers tied, nothing to skew
	if least == model.NumbersCount {
		return Uniform()
	}

	perLeast := leastMass / float64(least)
	perOther := (1 - leastMass) / float64(model.NumbersCount-least)

	d := make(Distribution, model.NumbersCount)
	for n := model.MinNumber; n <= model.MaxNumber; n++ {
		if counts[n] == minCount {
			d[n] = perLeast
		} else {
			d[n] = perOther
		}
	}
	return d
}

// Sum returns the total probability mass
func (d Distribution) Sum() float64 {
	var total float64
	for n := model.MinNumber; n <= model.MaxNumber; n++ {
		total += d[n]
	}
	return total
}
