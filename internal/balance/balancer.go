// Package balance enforces per-domain content minimums within a session.
package balance

import "github.com/irtlab/adaptest/internal/itembank"

// Deficits returns the domains still below their configured minimum, in
// canonical domain order. Domains without a configured minimum never appear.
// No domain is prioritized over another beyond "still below minimum".
func Deficits(counts map[itembank.Domain]int, minPerDomain map[itembank.Domain]int) []itembank.Domain {
	var under []itembank.Domain
	for _, d := range itembank.AllDomains() {
		min := minPerDomain[d]
		if min <= 0 {
			continue
		}
		if counts[d] < min {
			under = append(under, d)
		}
	}
	return under
}

// Satisfied reports whether every configured domain minimum has been met.
// Consulted by the stopping rules to veto an early precision-based stop.
func Satisfied(counts map[itembank.Domain]int, minPerDomain map[itembank.Domain]int) bool {
	return len(Deficits(counts, minPerDomain)) == 0
}

// Record increments the administered count for a domain.
func Record(counts map[itembank.Domain]int, d itembank.Domain) {
	counts[d]++
}
