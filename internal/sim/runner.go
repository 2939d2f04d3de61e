package sim

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/irtlab/adaptest/internal/itembank"
	"github.com/irtlab/adaptest/internal/selector"
	"github.com/irtlab/adaptest/internal/session"
	"github.com/irtlab/adaptest/internal/stopping"
)

// RunConfig controls a simulation study.
type RunConfig struct {
	// Sessions is the number of simulated administrations.
	Sessions int
	// TrueTheta is the simulated population's true ability.
	TrueTheta float64
	// Seed makes the whole study reproducible.
	Seed uint64
	// Engine is the per-session engine configuration.
	Engine session.Config
}

// Stats aggregates outcomes across a simulation study.
type Stats struct {
	Sessions      int
	Converged     int
	MaxedOut      int
	ThetaStable   int
	BankExhausted int
	Degenerate    int

	MeanItems float64
	MeanTheta float64
	MeanSE    float64

	// MaxExposedItem is the item administered in the largest fraction of
	// sessions; MaxExposureShare is that fraction.
	MaxExposedItem   string
	MaxExposureShare float64

	// DomainShortfalls counts converged sessions that ended below a domain
	// minimum. Should always be zero: the stop rules veto those.
	DomainShortfalls int
}

// ConvergedRate returns the fraction of sessions that stopped on precision.
func (s Stats) ConvergedRate() float64 {
	if s.Sessions == 0 {
		return 0
	}
	return float64(s.Converged) / float64(s.Sessions)
}

// Run simulates cfg.Sessions administrations against the bank and
// aggregates the outcomes. Each session gets its own engine and random
// streams derived from cfg.Seed, so studies are fully reproducible.
func Run(bank *itembank.Bank, cfg RunConfig) (Stats, error) {
	if cfg.Sessions <= 0 {
		return Stats{}, fmt.Errorf("sessions must be > 0, got %d", cfg.Sessions)
	}

	seeder := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	stats := Stats{Sessions: cfg.Sessions}
	administeredIn := make(map[string]int, bank.Size())
	var totalItems, totalTheta, totalSE float64

	for i := 0; i < cfg.Sessions; i++ {
		selRNG := rand.New(rand.NewPCG(seeder.Uint64(), seeder.Uint64()))
		respRNG := rand.New(rand.NewPCG(seeder.Uint64(), seeder.Uint64()))

		eng, err := session.NewEngine(bank, cfg.Engine, session.WithRandSource(selRNG))
		if err != nil {
			return Stats{}, fmt.Errorf("session %d: %w", i, err)
		}

		res, exhausted, err := RunSession(eng, Probabilistic(cfg.TrueTheta, respRNG))
		if err != nil {
			return Stats{}, fmt.Errorf("session %d: %w", i, err)
		}
		if exhausted {
			stats.BankExhausted++
		}

		switch res.StopReason {
		case stopping.ReasonConverged:
			stats.Converged++
			if shortfall(res, cfg.Engine.MinPerDomain) {
				stats.DomainShortfalls++
			}
		case stopping.ReasonMaxItems:
			stats.MaxedOut++
		case stopping.ReasonThetaStable:
			stats.ThetaStable++
		}
		if res.Degenerate {
			stats.Degenerate++
		}

		seen := make(map[string]bool, len(res.Administered))
		for _, a := range res.Administered {
			if !seen[a.Item.ID] {
				seen[a.Item.ID] = true
				administeredIn[a.Item.ID]++
			}
		}

		totalItems += float64(len(res.Administered))
		totalTheta += res.Theta
		totalSE += res.SE
	}

	n := float64(cfg.Sessions)
	stats.MeanItems = totalItems / n
	stats.MeanTheta = totalTheta / n
	stats.MeanSE = totalSE / n

	for id, count := range administeredIn {
		share := float64(count) / n
		if share > stats.MaxExposureShare {
			stats.MaxExposureShare = share
			stats.MaxExposedItem = id
		}
	}

	return stats, nil
}

// RunSession drives one administration to its terminal state using the
// given responder. Returns the final result and whether the session ended
// because the bank ran out of eligible items.
func RunSession(eng *session.Engine, answer AnswerFunc) (session.Result, bool, error) {
	st := eng.NewSession()
	for {
		item, stop, err := eng.SelectNext(st)
		if err != nil {
			// Exhaustion ends the session with whatever estimate exists;
			// anything else is a programming error.
			if errors.Is(err, selector.ErrBankExhausted) ||
				errors.Is(err, itembank.ErrInsufficientDomainCoverage) {
				return eng.Result(st), true, nil
			}
			return session.Result{}, false, err
		}
		if stop != nil {
			return eng.Result(st), false, nil
		}
		if err := eng.RecordResponse(st, item.ID, answer(*item)); err != nil {
			return session.Result{}, false, err
		}
	}
}

func shortfall(res session.Result, minPerDomain map[itembank.Domain]int) bool {
	counts := make(map[itembank.Domain]int)
	for _, a := range res.Administered {
		counts[a.Item.Domain]++
	}
	for d, min := range minPerDomain {
		if counts[d] < min {
			return true
		}
	}
	return false
}
