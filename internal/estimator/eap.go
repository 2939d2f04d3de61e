// Package estimator computes ability estimates from administered responses.
package estimator

import (
	"math"

	"github.com/irtlab/adaptest/internal/irt"
	"github.com/irtlab/adaptest/internal/itembank"
)

// Quadrature grid bounds. The standard normal prior leaves negligible mass
// outside [-4, 4], which comfortably covers the realistic ability range.
const (
	gridMin    = -4.0
	gridMax    = 4.0
	gridPoints = 81
)

const (
	// PriorMean is the population ability mean.
	PriorMean = 0.0
	// PriorSD is the population ability standard deviation.
	PriorSD = 1.0
)

// likelihoodFloor keeps per-item log-likelihood terms finite at the
// logistic tails.
const likelihoodFloor = 1e-10

// Response pairs an administered item with the recorded correctness.
type Response struct {
	Item    itembank.Item
	Correct bool
}

// Estimate is the posterior ability summary after a set of responses.
// Degenerate is set when the posterior collapsed and the prior was used
// as a fallback; callers should log it as a warning, it is not fatal.
type Estimate struct {
	Theta      float64
	SE         float64
	Degenerate bool
}

// EAP computes the Expected A Posteriori ability estimate under a standard
// normal prior, discretized over a fixed quadrature grid. Per-item Bernoulli
// likelihoods accumulate in log-space so long histories do not underflow.
// An empty history returns exactly the prior (theta 0.0, SE 1.0).
func EAP(history []Response) Estimate {
	if len(history) == 0 {
		return Estimate{Theta: PriorMean, SE: PriorSD}
	}

	step := (gridMax - gridMin) / float64(gridPoints-1)

	logw := make([]float64, gridPoints)
	maxLog := math.Inf(-1)
	for g := 0; g < gridPoints; g++ {
		theta := gridMin + float64(g)*step

		// Log prior density; constant factors cancel in normalization.
		lw := -0.5 * theta * theta
		for _, r := range history {
			p := clampProb(irt.Probability(r.Item, theta))
			if r.Correct {
				lw += math.Log(p)
			} else {
				lw += math.Log(1 - p)
			}
		}
		logw[g] = lw
		if lw > maxLog {
			maxLog = lw
		}
	}

	// Normalize in linear space after shifting by the max log-weight.
	var total float64
	w := make([]float64, gridPoints)
	for g := range logw {
		w[g] = math.Exp(logw[g] - maxLog)
		total += w[g]
	}

	// Defensive: all posterior mass collapsed. Fall back to the prior and
	// flag the condition for the caller to log.
	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return Estimate{Theta: PriorMean, SE: PriorSD, Degenerate: true}
	}

	var mean float64
	for g := range w {
		theta := gridMin + float64(g)*step
		mean += theta * w[g] / total
	}

	var variance float64
	for g := range w {
		theta := gridMin + float64(g)*step
		d := theta - mean
		variance += d * d * w[g] / total
	}

	return Estimate{Theta: mean, SE: math.Sqrt(variance)}
}

func clampProb(p float64) float64 {
	if p < likelihoodFloor {
		return likelihoodFloor
	}
	if p > 1-likelihoodFloor {
		return 1 - likelihoodFloor
	}
	return p
}
