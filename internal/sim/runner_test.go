package sim

import (
	"fmt"
	"math"
	"testing"

	"github.com/irtlab/adaptest/internal/itembank"
	"github.com/irtlab/adaptest/internal/session"
)

// simBank builds a well-calibrated bank: n items with difficulties spread
// evenly over [-2.4, 2.4], alternating between two domains.
func simBank(t *testing.T, n int) *itembank.Bank {
	t.Helper()
	items := make([]itembank.Item, n)
	for i := 0; i < n; i++ {
		domain := itembank.DomainVerbal
		if i%2 == 1 {
			domain = itembank.DomainNumerical
		}
		items[i] = itembank.Item{
			ID:             fmt.Sprintf("item-%02d", i),
			Domain:         domain,
			Discrimination: 1.4,
			Difficulty:     -2.4 + 4.8*float64(i)/float64(n-1),
		}
	}
	bank, err := itembank.NewBank(items)
	if err != nil {
		t.Fatalf("build sim bank: %v", err)
	}
	return bank
}

func regressionConfig() session.Config {
	return session.Config{
		MaxItems:              28,
		MinItems:              8,
		SEThreshold:           0.35,
		ThetaStabilityEpsilon: 0.02,
		ThetaStabilityWindow:  0, // isolate the precision stop
		RandomesqueK:          5,
		MinPerDomain: map[itembank.Domain]int{
			itembank.DomainVerbal:    2,
			itembank.DomainNumerical: 2,
		},
	}
}

func TestRun_ConvergenceRegression(t *testing.T) {
	bank := simBank(t, 60)
	stats, err := Run(bank, RunConfig{
		Sessions:  200,
		TrueTheta: 0.0,
		Seed:      1,
		Engine:    regressionConfig(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// A well-calibrated 60-item bank must bring most sessions under the SE
	// threshold well before the item cap.
	if rate := stats.ConvergedRate(); rate < 0.8 {
		t.Errorf("converged rate = %.2f, want >= 0.8", rate)
	}
	if stats.BankExhausted > 0 {
		t.Errorf("%d sessions exhausted a 60-item bank", stats.BankExhausted)
	}
	if stats.Degenerate > 0 {
		t.Errorf("%d sessions hit a degenerate posterior on clean parameters", stats.Degenerate)
	}
	if stats.DomainShortfalls != 0 {
		t.Errorf("%d converged sessions ended below a domain minimum", stats.DomainShortfalls)
	}
	if math.Abs(stats.MeanTheta) > 0.15 {
		t.Errorf("mean theta = %.3f for a true ability of 0, want within 0.15", stats.MeanTheta)
	}
	if stats.MeanItems > float64(regressionConfig().MaxItems) {
		t.Errorf("mean items %.1f exceeds the cap", stats.MeanItems)
	}
}

func TestRun_EstimateTracksTrueAbility(t *testing.T) {
	bank := simBank(t, 60)
	for _, trueTheta := range []float64{-1.0, 1.0} {
		stats, err := Run(bank, RunConfig{
			Sessions:  200,
			TrueTheta: trueTheta,
			Seed:      2,
			Engine:    regressionConfig(),
		})
		if err != nil {
			t.Fatalf("Run at theta=%.1f: %v", trueTheta, err)
		}
		if math.Abs(stats.MeanTheta-trueTheta) > 0.25 {
			t.Errorf("mean theta = %.3f for true ability %.1f", stats.MeanTheta, trueTheta)
		}
	}
}

func TestRun_RandomesqueSpreadsExposure(t *testing.T) {
	bank := simBank(t, 60)

	// Short fixed-length sessions make concentration visible: a greedy
	// selector would give one item to every single session.
	cfg := regressionConfig()
	cfg.MaxItems = 5
	cfg.MinItems = 5
	cfg.MinPerDomain = map[itembank.Domain]int{
		itembank.DomainVerbal:    1,
		itembank.DomainNumerical: 1,
	}

	stats, err := Run(bank, RunConfig{
		Sessions:  1000,
		TrueTheta: 0.0,
		Seed:      3,
		Engine:    cfg,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.MaxExposureShare > 0.45 {
		t.Errorf("most exposed item %q appeared in %.0f%% of sessions, want <= 45%%",
			stats.MaxExposedItem, 100*stats.MaxExposureShare)
	}
}

func TestRun_SameSeedSameStudy(t *testing.T) {
	bank := simBank(t, 60)
	cfg := RunConfig{Sessions: 50, TrueTheta: 0.5, Seed: 9, Engine: regressionConfig()}

	first, err := Run(bank, cfg)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := Run(bank, cfg)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if first != second {
		t.Errorf("identical seeds produced different studies:\n%+v\n%+v", first, second)
	}
}

func TestRun_RejectsNonPositiveSessions(t *testing.T) {
	bank := simBank(t, 10)
	if _, err := Run(bank, RunConfig{Sessions: 0, Engine: regressionConfig()}); err == nil {
		t.Fatal("Run accepted zero sessions")
	}
}

func TestRunSession_ReportsExhaustion(t *testing.T) {
	// A three-item bank cannot satisfy a ten-item floor; the session must
	// end with whatever estimate exists rather than error out.
	bank, err := itembank.NewBank([]itembank.Item{
		{ID: "a", Domain: itembank.DomainVerbal, Discrimination: 1.0, Difficulty: -0.5},
		{ID: "b", Domain: itembank.DomainVerbal, Discrimination: 1.0, Difficulty: 0.0},
		{ID: "c", Domain: itembank.DomainVerbal, Discrimination: 1.0, Difficulty: 0.5},
	})
	if err != nil {
		t.Fatalf("build bank: %v", err)
	}

	cfg := session.Config{
		MaxItems:     10,
		MinItems:     10,
		SEThreshold:  0.05,
		RandomesqueK: 1,
	}
	eng, err := session.NewEngine(bank, cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	res, exhausted, err := RunSession(eng, Always(true))
	if err != nil {
		t.Fatalf("RunSession: %v", err)
	}
	if !exhausted {
		t.Error("exhaustion not reported for a drained bank")
	}
	if len(res.Administered) != bank.Size() {
		t.Errorf("administered %d items, want the full bank (%d)", len(res.Administered), bank.Size())
	}
}

func TestAlways(t *testing.T) {
	it := itembank.Item{ID: "x", Domain: itembank.DomainVerbal, Discrimination: 1.0}
	if !Always(true)(it) || Always(false)(it) {
		t.Error("fixed responders returned the wrong correctness")
	}
}
