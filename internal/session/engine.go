package session

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/irtlab/adaptest/internal/balance"
	"github.com/irtlab/adaptest/internal/estimator"
	"github.com/irtlab/adaptest/internal/itembank"
	"github.com/irtlab/adaptest/internal/selector"
	"github.com/irtlab/adaptest/internal/stopping"
)

// StopDecision signals that the session reached a terminal state instead
// of producing a next item.
type StopDecision struct {
	Reason stopping.Reason
}

// Engine drives one test administration at a time: select, await the
// caller's recorded response, update the estimate, evaluate the stop rules.
// The Bank may be shared across many engines; an Engine itself is not safe
// for concurrent use because its random source is not.
type Engine struct {
	bank *itembank.Bank
	cfg  Config
	sel  *selector.Selector
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	rng selector.Source
}

// WithRandSource injects the random source used for randomesque selection.
// Tests pass a seeded generator for deterministic outcomes.
func WithRandSource(rng selector.Source) Option {
	return func(o *engineOptions) {
		o.rng = rng
	}
}

// NewEngine validates the configuration against the bank and builds an
// engine. Configuration problems and insufficient domain coverage are
// rejected eagerly here, never mid-session.
func NewEngine(bank *itembank.Bank, cfg Config, opts ...Option) (*Engine, error) {
	if bank == nil {
		return nil, errors.New("nil item bank")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := bank.CheckCoverage(cfg.MinPerDomain); err != nil {
		return nil, err
	}

	o := engineOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &Engine{
		bank: bank,
		cfg:  cfg,
		sel:  selector.New(bank, cfg.RandomesqueK, cfg.MaxExposureRate, o.rng),
	}, nil
}

// Config returns the engine's immutable configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// NewSession starts a new test administration against the shared bank.
func (e *Engine) NewSession() *State {
	e.bank.BeginSession()
	return newState(uuid.New().String())
}

// SelectNext returns the next item to administer, or a StopDecision once a
// terminal state has been reached. Selecting marks the item administered
// and increments its exposure counter; the caller must record the response
// before selecting again.
func (e *Engine) SelectNext(st *State) (*itembank.Item, *StopDecision, error) {
	if st.Stopped() {
		return nil, &StopDecision{Reason: st.StopReason}, nil
	}
	if st.awaitingResponse {
		return nil, nil, errors.New("response not yet recorded for previous item")
	}

	// Outstanding content-balance constraint: under-minimum domains take
	// precedence over pure information maximization.
	restrict := balance.Deficits(st.DomainCounts, e.cfg.MinPerDomain)

	item, err := e.sel.Next(st.Theta, st.administeredIDs, restrict)
	if err != nil {
		if errors.Is(err, selector.ErrBankExhausted) &&
			len(restrict) > 0 && len(st.Administered) < e.bank.Size() {
			// Unrestricted items remain; the mandatory domains ran dry.
			return nil, nil, fmt.Errorf("%w: domains %v exhausted mid-session",
				itembank.ErrInsufficientDomainCoverage, restrict)
		}
		return nil, nil, err
	}

	st.Administered = append(st.Administered, Administration{Item: item})
	st.administeredIDs[item.ID] = true
	balance.Record(st.DomainCounts, item.Domain)
	st.awaitingResponse = true
	e.bank.RecordAdministration(item.ID)

	return &item, nil, nil
}

// RecordResponse records the correctness of the pending item, updates the
// ability estimate, and evaluates the stopping rules.
func (e *Engine) RecordResponse(st *State, itemID string, correct bool) error {
	if st.Stopped() {
		return fmt.Errorf("session already stopped (%s)", st.StopReason)
	}
	if !st.awaitingResponse {
		return errors.New("no pending item to record a response for")
	}

	last := &st.Administered[len(st.Administered)-1]
	if last.Item.ID != itemID {
		return fmt.Errorf("response for item %q but %q is pending", itemID, last.Item.ID)
	}
	last.Correct = correct
	st.awaitingResponse = false

	est := estimator.EAP(st.responses())
	st.Theta = est.Theta
	st.SE = est.SE
	if est.Degenerate {
		st.Degenerate = true
	}
	st.thetaHistory = append(st.thetaHistory, est.Theta)

	balanced := balance.Satisfied(st.DomainCounts, e.cfg.MinPerDomain)
	reason, stop := stopping.Evaluate(e.cfg.stoppingConfig(), len(st.Administered), st.SE, st.thetaHistory, balanced)
	if stop {
		st.StopReason = reason
	}
	return nil
}

// Result returns the final snapshot for a session. Meaningful once the
// session has stopped, but callers that abandon a session early may take
// whatever estimate exists.
func (e *Engine) Result(st *State) Result {
	administered := make([]Administration, len(st.Administered))
	copy(administered, st.Administered)
	return Result{
		SessionID:    st.SessionID,
		Theta:        st.Theta,
		SE:           st.SE,
		StopReason:   st.StopReason,
		Administered: administered,
		Degenerate:   st.Degenerate,
	}
}
