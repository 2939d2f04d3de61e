package session

import (
	"fmt"
	"strings"

	"github.com/irtlab/adaptest/internal/itembank"
	"github.com/irtlab/adaptest/internal/stopping"
)

// Config holds every tunable for a test administration. Values are fixed
// for the lifetime of an Engine; changing policy means building a new one.
type Config struct {
	// MaxItems is the hard ceiling on administered items per session.
	MaxItems int

	// MinItems must be administered before any early stop can fire.
	MinItems int

	// SEThreshold is the standard error below which the estimate counts
	// as converged.
	SEThreshold float64

	// ThetaStabilityEpsilon bounds |Δtheta| for a step to count as stable.
	ThetaStabilityEpsilon float64

	// ThetaStabilityWindow is the number of consecutive stable steps that
	// triggers the plateau stop. Zero disables plateau detection.
	ThetaStabilityWindow int

	// RandomesqueK is the pool size for the randomesque pick among the
	// most informative candidates.
	RandomesqueK int

	// MinPerDomain is the minimum administered items per cognitive domain.
	// Domains absent from the map carry no minimum.
	MinPerDomain map[itembank.Domain]int

	// MaxExposureRate soft-caps how often a single item may appear across
	// sessions. Zero disables the cap.
	MaxExposureRate float64
}

// DefaultConfig returns the standard administration policy.
func DefaultConfig() Config {
	minPerDomain := make(map[itembank.Domain]int, len(itembank.AllDomains()))
	for _, d := range itembank.AllDomains() {
		minPerDomain[d] = 2
	}
	return Config{
		MaxItems:              24,
		MinItems:              8,
		SEThreshold:           0.35,
		ThetaStabilityEpsilon: 0.02,
		ThetaStabilityWindow:  3,
		RandomesqueK:          5,
		MinPerDomain:          minPerDomain,
		MaxExposureRate:       0.25,
	}
}

// Validate performs all structural checks on the configuration.
// Returns a combined error describing all problems found, or nil if valid.
func (c Config) Validate() error {
	var errs []string

	if c.MaxItems <= 0 {
		errs = append(errs, fmt.Sprintf("MaxItems must be > 0, got %d", c.MaxItems))
	}
	if c.MinItems < 0 {
		errs = append(errs, fmt.Sprintf("MinItems must be >= 0, got %d", c.MinItems))
	}
	if c.MinItems > c.MaxItems {
		errs = append(errs, fmt.Sprintf("MinItems (%d) exceeds MaxItems (%d)", c.MinItems, c.MaxItems))
	}
	if c.SEThreshold <= 0 {
		errs = append(errs, fmt.Sprintf("SEThreshold must be > 0, got %f", c.SEThreshold))
	}
	if c.ThetaStabilityEpsilon < 0 {
		errs = append(errs, fmt.Sprintf("ThetaStabilityEpsilon must be >= 0, got %f", c.ThetaStabilityEpsilon))
	}
	if c.ThetaStabilityWindow < 0 {
		errs = append(errs, fmt.Sprintf("ThetaStabilityWindow must be >= 0, got %d", c.ThetaStabilityWindow))
	}
	if c.RandomesqueK <= 0 {
		errs = append(errs, fmt.Sprintf("RandomesqueK must be > 0, got %d", c.RandomesqueK))
	}
	if c.MaxExposureRate < 0 || c.MaxExposureRate > 1 {
		errs = append(errs, fmt.Sprintf("MaxExposureRate must be in [0, 1], got %f", c.MaxExposureRate))
	}

	domainTotal := 0
	for d, min := range c.MinPerDomain {
		if !itembank.ValidDomain(d) {
			errs = append(errs, fmt.Sprintf("MinPerDomain references unknown domain %q", d))
		}
		if min < 0 {
			errs = append(errs, fmt.Sprintf("MinPerDomain[%q] must be >= 0, got %d", d, min))
		}
		domainTotal += min
	}
	if c.MaxItems > 0 && domainTotal > c.MaxItems {
		errs = append(errs, fmt.Sprintf("domain minimums total %d but MaxItems is %d", domainTotal, c.MaxItems))
	}

	if len(errs) > 0 {
		return fmt.Errorf("session config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// stoppingConfig projects the session policy onto the stop-rule inputs.
func (c Config) stoppingConfig() stopping.Config {
	return stopping.Config{
		MaxItems:     c.MaxItems,
		MinItems:     c.MinItems,
		SEThreshold:  c.SEThreshold,
		ThetaEpsilon: c.ThetaStabilityEpsilon,
		ThetaWindow:  c.ThetaStabilityWindow,
	}
}
