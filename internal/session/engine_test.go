package session

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/irtlab/adaptest/internal/itembank"
)

func testBank(t *testing.T) *itembank.Bank {
	t.Helper()
	bank, err := itembank.NewBank([]itembank.Item{
		{ID: "v1", Domain: itembank.DomainVerbal, Discrimination: 1.6, Difficulty: -0.5},
		{ID: "v2", Domain: itembank.DomainVerbal, Discrimination: 1.4, Difficulty: 0.0},
		{ID: "v3", Domain: itembank.DomainVerbal, Discrimination: 1.2, Difficulty: 0.8},
		{ID: "n1", Domain: itembank.DomainNumerical, Discrimination: 1.5, Difficulty: -0.2},
		{ID: "n2", Domain: itembank.DomainNumerical, Discrimination: 1.3, Difficulty: 0.4},
		{ID: "n3", Domain: itembank.DomainNumerical, Discrimination: 1.1, Difficulty: 1.2},
	})
	if err != nil {
		t.Fatalf("build test bank: %v", err)
	}
	return bank
}

func testEngineConfig() Config {
	return Config{
		MaxItems:              6,
		MinItems:              2,
		SEThreshold:           0.05, // unreachable with six items; sessions run to the cap
		ThetaStabilityEpsilon: 0.02,
		ThetaStabilityWindow:  0,
		RandomesqueK:          1,
		MinPerDomain: map[itembank.Domain]int{
			itembank.DomainVerbal:    2,
			itembank.DomainNumerical: 2,
		},
	}
}

func testEngine(t *testing.T, bank *itembank.Bank, cfg Config) *Engine {
	t.Helper()
	eng, err := NewEngine(bank, cfg, WithRandSource(rand.New(rand.NewPCG(3, 7))))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return eng
}

func TestNewEngine_RejectsInvalidConfig(t *testing.T) {
	cfg := testEngineConfig()
	cfg.MaxItems = 0
	if _, err := NewEngine(testBank(t), cfg); err == nil {
		t.Fatal("NewEngine accepted an invalid config")
	}
}

func TestNewEngine_RejectsInsufficientCoverage(t *testing.T) {
	cfg := testEngineConfig()
	cfg.MinPerDomain[itembank.DomainSpatial] = 1 // bank has no spatial items

	_, err := NewEngine(testBank(t), cfg)
	if !errors.Is(err, itembank.ErrInsufficientDomainCoverage) {
		t.Fatalf("err = %v, want ErrInsufficientDomainCoverage", err)
	}
}

func TestNewEngine_RejectsNilBank(t *testing.T) {
	if _, err := NewEngine(nil, testEngineConfig()); err == nil {
		t.Fatal("NewEngine accepted a nil bank")
	}
}

func TestSession_FullRunAllCorrect(t *testing.T) {
	bank := testBank(t)
	eng := testEngine(t, bank, testEngineConfig())
	st := eng.NewSession()

	if st.SessionID == "" {
		t.Fatal("session has no ID")
	}
	if st.Theta != 0.0 || st.SE != 1.0 {
		t.Fatalf("session not initialized at prior: theta=%f se=%f", st.Theta, st.SE)
	}

	prevTheta := st.Theta
	steps := 0
	for {
		item, stop, err := eng.SelectNext(st)
		if err != nil {
			t.Fatalf("SelectNext on step %d: %v", steps, err)
		}
		if stop != nil {
			break
		}
		if err := eng.RecordResponse(st, item.ID, true); err != nil {
			t.Fatalf("RecordResponse on step %d: %v", steps, err)
		}
		// Every correct response must push the estimate upward.
		if st.Theta <= prevTheta {
			t.Fatalf("theta not increasing after correct %d: %f <= %f", steps+1, st.Theta, prevTheta)
		}
		prevTheta = st.Theta
		steps++
		if steps > eng.Config().MaxItems {
			t.Fatal("session exceeded MaxItems without stopping")
		}
	}

	res := eng.Result(st)
	if res.StopReason == "" {
		t.Error("stopped session has no stop reason")
	}
	if len(res.Administered) != steps {
		t.Errorf("result has %d administrations, want %d", len(res.Administered), steps)
	}
	if res.Theta <= 0 {
		t.Errorf("Theta = %f after an all-correct run, want > 0", res.Theta)
	}
}

func TestSession_NeverRepeatsItems(t *testing.T) {
	bank := testBank(t)
	for seed := uint64(0); seed < 20; seed++ {
		eng, err := NewEngine(bank, testEngineConfig(),
			WithRandSource(rand.New(rand.NewPCG(seed, seed+1))))
		if err != nil {
			t.Fatalf("NewEngine: %v", err)
		}
		st := eng.NewSession()
		seen := map[string]bool{}
		for {
			item, stop, err := eng.SelectNext(st)
			if err != nil || stop != nil {
				break
			}
			if seen[item.ID] {
				t.Fatalf("seed %d: item %q administered twice", seed, item.ID)
			}
			seen[item.ID] = true
			if err := eng.RecordResponse(st, item.ID, seed%2 == 0); err != nil {
				t.Fatalf("seed %d: RecordResponse: %v", seed, err)
			}
		}
	}
}

func TestSession_MeetsDomainMinimums(t *testing.T) {
	bank := testBank(t)
	eng := testEngine(t, bank, testEngineConfig())
	st := eng.NewSession()

	for {
		item, stop, err := eng.SelectNext(st)
		if err != nil {
			t.Fatalf("SelectNext: %v", err)
		}
		if stop != nil {
			break
		}
		if err := eng.RecordResponse(st, item.ID, true); err != nil {
			t.Fatalf("RecordResponse: %v", err)
		}
	}

	for d, min := range eng.Config().MinPerDomain {
		if st.DomainCounts[d] < min {
			t.Errorf("domain %q got %d items, want >= %d", d, st.DomainCounts[d], min)
		}
	}
}

func TestSelectNext_ErrorsWhileAwaitingResponse(t *testing.T) {
	eng := testEngine(t, testBank(t), testEngineConfig())
	st := eng.NewSession()

	if _, _, err := eng.SelectNext(st); err != nil {
		t.Fatalf("first SelectNext: %v", err)
	}
	if _, _, err := eng.SelectNext(st); err == nil {
		t.Fatal("SelectNext allowed a second selection with a response pending")
	}
}

func TestRecordResponse_ErrorsWithNoPendingItem(t *testing.T) {
	eng := testEngine(t, testBank(t), testEngineConfig())
	st := eng.NewSession()

	if err := eng.RecordResponse(st, "v1", true); err == nil {
		t.Fatal("RecordResponse accepted a response with nothing pending")
	}
}

func TestRecordResponse_ErrorsOnMismatchedItem(t *testing.T) {
	eng := testEngine(t, testBank(t), testEngineConfig())
	st := eng.NewSession()

	item, _, err := eng.SelectNext(st)
	if err != nil {
		t.Fatalf("SelectNext: %v", err)
	}
	err = eng.RecordResponse(st, "not-"+item.ID, true)
	if err == nil {
		t.Fatal("RecordResponse accepted a response for the wrong item")
	}
	if !strings.Contains(err.Error(), item.ID) {
		t.Errorf("error %q does not name the pending item %q", err, item.ID)
	}
}

func TestStoppedSession_IsTerminal(t *testing.T) {
	eng := testEngine(t, testBank(t), testEngineConfig())
	st := eng.NewSession()

	for !st.Stopped() {
		item, stop, err := eng.SelectNext(st)
		if err != nil {
			t.Fatalf("SelectNext: %v", err)
		}
		if stop != nil {
			break
		}
		if err := eng.RecordResponse(st, item.ID, false); err != nil {
			t.Fatalf("RecordResponse: %v", err)
		}
	}

	item, stop, err := eng.SelectNext(st)
	if err != nil {
		t.Fatalf("SelectNext on stopped session: %v", err)
	}
	if item != nil || stop == nil {
		t.Fatal("SelectNext on a stopped session must return the stop decision")
	}
	if stop.Reason != st.StopReason {
		t.Errorf("stop reason %q, want %q", stop.Reason, st.StopReason)
	}
	if err := eng.RecordResponse(st, "v1", true); err == nil {
		t.Fatal("RecordResponse accepted input after the session stopped")
	}
}

func TestNewSession_CountsTowardExposure(t *testing.T) {
	bank := testBank(t)
	eng := testEngine(t, bank, testEngineConfig())

	before := bank.Sessions()
	st := eng.NewSession()
	if bank.Sessions() != before+1 {
		t.Fatalf("Sessions = %d, want %d", bank.Sessions(), before+1)
	}

	item, _, err := eng.SelectNext(st)
	if err != nil {
		t.Fatalf("SelectNext: %v", err)
	}
	// Exposure is charged at selection time, not at response time.
	if got := bank.ExposureCount(item.ID); got != 1 {
		t.Errorf("ExposureCount(%q) = %d, want 1", item.ID, got)
	}
}
