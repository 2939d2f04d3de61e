// Package stopping evaluates session termination criteria.
package stopping

import "math"

// Reason indicates why a session stopped.
type Reason string

const (
	// ReasonNone indicates no stop condition has been met.
	ReasonNone Reason = ""
	// ReasonMaxItems indicates the hard item ceiling was reached.
	ReasonMaxItems Reason = "max_items"
	// ReasonConverged indicates the standard error dropped below threshold.
	ReasonConverged Reason = "converged"
	// ReasonThetaStable indicates the estimate plateaued without crossing
	// the SE threshold.
	ReasonThetaStable Reason = "theta_stable"
)

// Config holds the termination thresholds for one session.
type Config struct {
	// MaxItems is the hard ceiling on administered items. Always wins:
	// it bounds user burden regardless of measurement quality.
	MaxItems int
	// MinItems must be administered before any precision-based stop.
	MinItems int
	// SEThreshold is the standard error below which the session converges.
	SEThreshold float64
	// ThetaEpsilon is the per-step theta change treated as "no movement".
	ThetaEpsilon float64
	// ThetaWindow is how many consecutive stable updates count as a plateau.
	ThetaWindow int
}

// Evaluate checks the termination criteria, in precedence order, after a
// response has been recorded. thetaHistory holds the estimate after each
// recorded response, oldest first. balanced reports whether every domain
// minimum has been met.
func Evaluate(cfg Config, administered int, se float64, thetaHistory []float64, balanced bool) (Reason, bool) {
	// 1. Hard ceiling.
	if administered >= cfg.MaxItems {
		return ReasonMaxItems, true
	}

	// 2. Precision convergence, vetoed by unmet domain minimums.
	if administered >= cfg.MinItems && se < cfg.SEThreshold && balanced {
		return ReasonConverged, true
	}

	// 3. Plateau: the estimate has stabilized without crossing the SE
	// threshold (e.g. a bank with weak discrimination at the tails).
	if administered >= cfg.MinItems && balanced &&
		cfg.ThetaWindow > 0 && stableRun(thetaHistory, cfg.ThetaEpsilon) >= cfg.ThetaWindow {
		return ReasonThetaStable, true
	}

	return ReasonNone, false
}

// stableRun counts the trailing consecutive updates whose theta change
// stayed below epsilon.
func stableRun(thetas []float64, epsilon float64) int {
	run := 0
	for i := len(thetas) - 1; i > 0; i-- {
		if math.Abs(thetas[i]-thetas[i-1]) >= epsilon {
			break
		}
		run++
	}
	return run
}
