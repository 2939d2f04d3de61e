// Package irt implements the 3-parameter logistic item response model.
// All functions are pure; parameter validation happens at item bank load
// time, never here.
package irt

import (
	"math"

	"github.com/irtlab/adaptest/internal/itembank"
)

// probEpsilon is the guard band around 0 and 1 where item information is
// treated as zero to avoid division blow-up at the logistic tails.
const probEpsilon = 1e-10

// Probability returns P(correct | theta) under the 3PL model:
// c + (1-c) / (1 + exp(-a*(theta-b))). With c = 0 this reduces to 2PL.
func Probability(it itembank.Item, theta float64) float64 {
	z := it.Discrimination * (theta - it.Difficulty)
	return it.Guessing + (1-it.Guessing)/(1+math.Exp(-z))
}

// Derivative returns dP/dtheta at the given ability value.
func Derivative(it itembank.Item, theta float64) float64 {
	z := it.Discrimination * (theta - it.Difficulty)
	logistic := 1 / (1 + math.Exp(-z))
	return (1 - it.Guessing) * it.Discrimination * logistic * (1 - logistic)
}

// Information returns the Fisher information I(theta) = P'^2 / (P*(1-P)).
// Returns 0 when P is within floating-point epsilon of 0 or 1.
func Information(it itembank.Item, theta float64) float64 {
	p := Probability(it, theta)
	if p < probEpsilon || p > 1-probEpsilon {
		return 0
	}
	d := Derivative(it, theta)
	return d * d / (p * (1 - p))
}
