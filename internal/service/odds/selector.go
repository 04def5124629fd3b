package odds

import (
	"math/rand/v2"

	"roulette_backend/internal/model"
)

// DefaultManualWinChance - probability the manual spin lands on the chosen number
const DefaultManualWinChance = 0.02

// accumulation slack tolerated on the last number before falling back
const sumEpsilon = 1e-9

// Source of uniform randomness. *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }
func (globalSource) IntN(n int) int   { return rand.IntN(n) }

// DefaultSource draws from the goroutine-safe math/rand/v2 top-level generator
func DefaultSource() Source {
	return globalSource{}
}

// Picker draws the winning number of a round from a distribution
type Picker interface {
	Pick(d Distribution) int
}

// ManualPicker draws the winning number of a manual spin for the chosen number
type ManualPicker interface {
	Pick(chosen int) int
}

type weightedPicker struct {
	src Source
}

func NewWeightedPicker(src Source) Picker {
	if src == nil {
		src = DefaultSource()
	}
	return &weightedPicker{src: src}
}

// Pick walks the numbers in order accumulating mass and returns the first one
// whose cumulative probability reaches the drawn value.
func (p *weightedPicker) Pick(d Distribution) int {
	r := p.src.Float64()

	var cumulative float64
	for n := model.MinNumber; n <= model.MaxNumber; n++ {
		cumulative += d[n]
		if cumulative >= r {
			return n
		}
		if n == model.MaxNumber && cumulative+sumEpsilon >= r {
			return n
		}
	}

	// Malformed distribution, pick uniformly
	return p.src.IntN(model.NumbersCount) + model.MinNumber
}

type houseEdgePicker struct {
	winChance float64
	src       Source
}

// NewHouseEdgePicker - manual spin policy: with winChance the draw equals the
// chosen number, otherwise it is uniform among the other 29 numbers.
func NewHouseEdgePicker(winChance float64, src Source) ManualPicker {
	if winChance < 0 || winChance > 1 {
		winChance = DefaultManualWinChance
	}
	if src == nil {
		src = DefaultSource()
	}
	return &houseEdgePicker{winChance: winChance, src: src}
}

func (p *houseEdgePicker) Pick(chosen int) int {
	if p.src.Float64() < p.winChance {
		return chosen
	}

	// Uniform over the remaining numbers, skipping the chosen one
	n := p.src.IntN(model.NumbersCount-1) + model.MinNumber
	if n >= chosen {
		n++
	}
	return n
}
