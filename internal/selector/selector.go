// Package selector chooses the next item to administer.
package selector

import (
	"errors"
	"sort"

	"github.com/irtlab/adaptest/internal/irt"
	"github.com/irtlab/adaptest/internal/itembank"
)

// ErrBankExhausted indicates no eligible items remain for this session.
// Callers should treat it as a reportable condition, not a crash: a healthy
// bank should never run dry before the stopping rules fire.
var ErrBankExhausted = errors.New("item bank exhausted for session")

// Source supplies randomness for the randomesque pick. Tests inject a
// seeded generator to assert deterministic outcomes.
type Source interface {
	IntN(n int) int
}

// Selector implements maximum Fisher information selection with
// randomesque exposure control.
type Selector struct {
	bank            *itembank.Bank
	k               int
	maxExposureRate float64 // 0 disables the soft cap
	rng             Source
}

// New creates a selector over the given bank. k is the randomesque pool
// size; maxExposureRate soft-caps overused items (0 disables).
func New(bank *itembank.Bank, k int, maxExposureRate float64, rng Source) *Selector {
	return &Selector{bank: bank, k: k, maxExposureRate: maxExposureRate, rng: rng}
}

// Next returns the next item for a session with the given ability estimate.
// administered holds the IDs already given this session (never repeated).
// restrict, when non-empty, limits candidates to under-minimum domains;
// within that pool items still compete on information.
func (s *Selector) Next(theta float64, administered map[string]bool, restrict []itembank.Domain) (itembank.Item, error) {
	eligible := s.eligible(administered, restrict)
	if len(eligible) == 0 {
		// A domain restriction can empty the pool even when unrestricted
		// items remain; that is still exhaustion from the caller's view
		// because the restriction is mandatory.
		return itembank.Item{}, ErrBankExhausted
	}

	// Soft exposure cap: drop overused items unless that empties the pool.
	if s.maxExposureRate > 0 {
		capped := eligible[:0:0]
		for _, it := range eligible {
			if s.bank.ExposureRate(it.ID) <= s.maxExposureRate {
				capped = append(capped, it)
			}
		}
		if len(capped) > 0 {
			eligible = capped
		}
	}

	// Rank by information at the current estimate, ID as a stable tiebreak.
	type ranked struct {
		item itembank.Item
		info float64
	}
	rankedItems := make([]ranked, len(eligible))
	for i, it := range eligible {
		rankedItems[i] = ranked{item: it, info: irt.Information(it, theta)}
	}
	sort.Slice(rankedItems, func(i, j int) bool {
		if rankedItems[i].info != rankedItems[j].info {
			return rankedItems[i].info > rankedItems[j].info
		}
		return rankedItems[i].item.ID < rankedItems[j].item.ID
	})

	// Randomesque pick from the top-k. Deterministically taking the single
	// most informative item massively overexposes a small subset of the
	// bank across the test-taking population.
	pool := s.k
	if pool > len(rankedItems) {
		pool = len(rankedItems)
	}
	return rankedItems[s.rng.IntN(pool)].item, nil
}

func (s *Selector) eligible(administered map[string]bool, restrict []itembank.Domain) []itembank.Item {
	var out []itembank.Item
	if len(restrict) == 0 {
		for _, it := range s.bank.Items() {
			if !administered[it.ID] {
				out = append(out, it)
			}
		}
		return out
	}
	for _, d := range restrict {
		for _, it := range s.bank.DomainItems(d) {
			if !administered[it.ID] {
				out = append(out, it)
			}
		}
	}
	return out
}
