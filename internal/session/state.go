package session

import (
	"github.com/irtlab/adaptest/internal/estimator"
	"github.com/irtlab/adaptest/internal/itembank"
	"github.com/irtlab/adaptest/internal/stopping"
)

// Administration is one administered item and the recorded correctness.
// Correct is meaningful only once the response has been recorded.
type Administration struct {
	Item    itembank.Item
	Correct bool
}

// State tracks one in-flight test administration. It is owned by exactly
// one session; the engine mutates it through SelectNext/RecordResponse and
// the caller persists it between invocations.
type State struct {
	// SessionID is the UUID for this administration.
	SessionID string

	// Administered is the ordered list of items given so far. Its length
	// equals the number of selector invocations that returned an item.
	Administered []Administration

	// Theta is the current ability estimate. Initialized to the population
	// mean (0.0) and only updated after a response is recorded.
	Theta float64

	// SE is the current standard error of Theta. Initialized to the prior
	// standard deviation (1.0).
	SE float64

	// DomainCounts tracks administered items per cognitive domain.
	DomainCounts map[itembank.Domain]int

	// StopReason is empty until the session reaches a terminal state.
	StopReason stopping.Reason

	// Degenerate records that at least one estimate collapsed to the prior
	// fallback. Warning-level; callers should log it.
	Degenerate bool

	// administeredIDs guards against repeating an item within the session.
	administeredIDs map[string]bool

	// thetaHistory holds the estimate after each recorded response, for
	// plateau detection.
	thetaHistory []float64

	// awaitingResponse is true between a selection and its recorded answer.
	awaitingResponse bool
}

// newState initializes a session at the prior mean/SD.
func newState(sessionID string) *State {
	return &State{
		SessionID:       sessionID,
		Theta:           estimator.PriorMean,
		SE:              estimator.PriorSD,
		DomainCounts:    make(map[itembank.Domain]int),
		administeredIDs: make(map[string]bool),
	}
}

// Stopped reports whether the session has reached a terminal state.
func (st *State) Stopped() bool {
	return st.StopReason != stopping.ReasonNone
}

// responses converts the administered history into estimator input.
// Only called once the pending response has been recorded.
func (st *State) responses() []estimator.Response {
	out := make([]estimator.Response, len(st.Administered))
	for i, a := range st.Administered {
		out[i] = estimator.Response{Item: a.Item, Correct: a.Correct}
	}
	return out
}

// Result is the final snapshot handed back to the caller on stop.
// Translating Theta/SE into a user-facing score is the caller's job.
type Result struct {
	SessionID    string
	Theta        float64
	SE           float64
	StopReason   stopping.Reason
	Administered []Administration
	Degenerate   bool
}
