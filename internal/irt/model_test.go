package irt

import (
	"math"
	"testing"

	"github.com/irtlab/adaptest/internal/itembank"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func item(a, b, c float64) itembank.Item {
	return itembank.Item{ID: "i", Domain: itembank.DomainVerbal, Discrimination: a, Difficulty: b, Guessing: c}
}

func TestProbability_AtDifficulty(t *testing.T) {
	// At theta == b the logistic term is exactly 0.5.
	tests := []struct {
		name string
		it   itembank.Item
		want float64
	}{
		{"2PL", item(1.0, 0.0, 0.0), 0.5},
		{"2PL shifted", item(2.0, 1.5, 0.0), 0.5},
		{"3PL", item(1.0, 0.0, 0.2), 0.2 + 0.8*0.5},
	}
	for _, tt := range tests {
		got := Probability(tt.it, tt.it.Difficulty)
		if !almostEqual(got, tt.want) {
			t.Errorf("%s: Probability = %f, want %f", tt.name, got, tt.want)
		}
	}
}

func TestProbability_Monotone(t *testing.T) {
	it := item(1.4, 0.0, 0.1)
	prev := -1.0
	for theta := -4.0; theta <= 4.0; theta += 0.5 {
		p := Probability(it, theta)
		if p <= prev {
			t.Fatalf("Probability not increasing at theta=%f: %f <= %f", theta, p, prev)
		}
		prev = p
	}
}

func TestProbability_BoundedByGuessing(t *testing.T) {
	it := item(1.4, 0.0, 0.25)
	p := Probability(it, -10)
	if p < it.Guessing {
		t.Errorf("Probability = %f, want >= guessing floor %f", p, it.Guessing)
	}
	if Probability(it, 10) > 1.0 {
		t.Errorf("Probability exceeds 1.0 at high theta")
	}
}

func TestDerivative_PeakAtDifficulty(t *testing.T) {
	it := item(1.0, 0.5, 0.0)
	// For 2PL the slope peaks at theta == b with value a/4.
	got := Derivative(it, 0.5)
	if !almostEqual(got, 0.25) {
		t.Errorf("Derivative at peak = %f, want 0.25", got)
	}
	if Derivative(it, 3.0) >= got {
		t.Errorf("Derivative away from b should be smaller than peak")
	}
}

func TestInformation_2PLKnownValue(t *testing.T) {
	// 2PL information is a^2 * p * (1-p); at theta == b this is a^2/4.
	it := item(1.4, 0.0, 0.0)
	got := Information(it, 0.0)
	want := 1.4 * 1.4 * 0.25
	if !almostEqual(got, want) {
		t.Errorf("Information = %f, want %f", got, want)
	}
}

func TestInformation_GuardAtTails(t *testing.T) {
	// An extreme offset saturates P to exactly 1.0; information must be 0,
	// not a division blow-up.
	it := item(5.0, -200.0, 0.0)
	got := Information(it, 0.0)
	if got != 0 {
		t.Errorf("Information at saturated tail = %f, want 0", got)
	}
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Errorf("Information not finite at tail: %f", got)
	}
}

func TestInformation_NonNegative(t *testing.T) {
	it := item(0.8, 1.0, 0.2)
	for theta := -4.0; theta <= 4.0; theta += 0.25 {
		if info := Information(it, theta); info < 0 {
			t.Fatalf("Information negative at theta=%f: %f", theta, info)
		}
	}
}
