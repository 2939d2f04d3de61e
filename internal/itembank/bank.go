package itembank

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrInsufficientDomainCoverage indicates the bank cannot satisfy a
// per-domain minimum because it holds too few items in that domain.
var ErrInsufficientDomainCoverage = errors.New("insufficient domain coverage")

// Bank is the shared, read-mostly view of calibrated items used by all
// in-flight sessions. Item parameters are immutable after construction;
// only the exposure counters mutate, and those are atomic.
type Bank struct {
	items    []Item
	byID     map[string]int
	byDomain map[Domain][]Item
	exposure map[string]*ExposureCounter
	sessions atomic.Int64 // exposure-rate denominator
}

// NewBank validates the given items and builds a bank over them.
func NewBank(items []Item) (*Bank, error) {
	if len(items) == 0 {
		return nil, errors.New("item bank is empty")
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}

	b := &Bank{
		items:    make([]Item, len(items)),
		byID:     make(map[string]int, len(items)),
		byDomain: make(map[Domain][]Item),
		exposure: make(map[string]*ExposureCounter, len(items)),
	}
	copy(b.items, items)
	for i, it := range b.items {
		b.byID[it.ID] = i
		b.byDomain[it.Domain] = append(b.byDomain[it.Domain], it)
		b.exposure[it.ID] = &ExposureCounter{}
	}
	return b, nil
}

// Size returns the number of items in the bank.
func (b *Bank) Size() int {
	return len(b.items)
}

// Items returns a copy of all items.
func (b *Bank) Items() []Item {
	out := make([]Item, len(b.items))
	copy(out, b.items)
	return out
}

// Item returns the item with the given ID.
func (b *Bank) Item(id string) (Item, bool) {
	i, ok := b.byID[id]
	if !ok {
		return Item{}, false
	}
	return b.items[i], true
}

// DomainItems returns the items belonging to a domain.
func (b *Bank) DomainItems(d Domain) []Item {
	src := b.byDomain[d]
	out := make([]Item, len(src))
	copy(out, src)
	return out
}

// BeginSession bumps the session denominator used for exposure rates.
// Called once per test administration, at session start.
func (b *Bank) BeginSession() {
	b.sessions.Add(1)
}

// Sessions returns the total number of sessions observed.
func (b *Bank) Sessions() int64 {
	return b.sessions.Load()
}

// ExposureRate returns the fraction of observed sessions that administered
// the item. Returns 0 before any session has been observed.
func (b *Bank) ExposureRate(itemID string) float64 {
	c, ok := b.exposure[itemID]
	if !ok {
		return 0
	}
	n := b.sessions.Load()
	if n == 0 {
		return 0
	}
	return float64(c.Count()) / float64(n)
}

// ExposureCount returns the raw administration count for an item.
func (b *Bank) ExposureCount(itemID string) int64 {
	c, ok := b.exposure[itemID]
	if !ok {
		return 0
	}
	return c.Count()
}

// RecordAdministration increments the exposure counter for an item.
func (b *Bank) RecordAdministration(itemID string) {
	if c, ok := b.exposure[itemID]; ok {
		c.Increment()
	}
}

// SeedExposure restores persisted exposure statistics. Called at
// construction time by the provider, before sessions run.
func (b *Bank) SeedExposure(counts map[string]int64, sessions int64) {
	for id, n := range counts {
		if c, ok := b.exposure[id]; ok {
			c.Seed(n)
		}
	}
	b.sessions.Store(sessions)
}

// CheckCoverage verifies the bank holds at least the required number of
// items in each listed domain. Returns ErrInsufficientDomainCoverage
// (wrapped with the failing domains) if any minimum is unreachable.
func (b *Bank) CheckCoverage(minPerDomain map[Domain]int) error {
	for _, d := range AllDomains() {
		min := minPerDomain[d]
		if min <= 0 {
			continue
		}
		if have := len(b.byDomain[d]); have < min {
			return fmt.Errorf("%w: domain %q has %d items, need %d",
				ErrInsufficientDomainCoverage, d, have, min)
		}
	}
	return nil
}
