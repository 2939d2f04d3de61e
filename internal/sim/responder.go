// Package sim provides simulated test-takers and a multi-session runner
// for regression-guarding the estimator and selector.
package sim

import (
	"github.com/irtlab/adaptest/internal/irt"
	"github.com/irtlab/adaptest/internal/itembank"
)

// FloatSource supplies uniform [0,1) draws for probabilistic responders.
type FloatSource interface {
	Float64() float64
}

// AnswerFunc decides correctness for an administered item.
type AnswerFunc func(itembank.Item) bool

// Probabilistic returns a responder whose correctness follows the 3PL
// response probability at the given true ability.
func Probabilistic(trueTheta float64, rng FloatSource) AnswerFunc {
	return func(it itembank.Item) bool {
		return rng.Float64() < irt.Probability(it, trueTheta)
	}
}

// Always returns a responder with fixed correctness, e.g. a perfect
// responder for ceiling checks.
func Always(correct bool) AnswerFunc {
	return func(itembank.Item) bool {
		return correct
	}
}
