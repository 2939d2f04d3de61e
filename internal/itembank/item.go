package itembank

// Domain represents a cognitive content domain.
type Domain string

const (
	DomainVerbal    Domain = "verbal"
	DomainNumerical Domain = "numerical"
	DomainSpatial   Domain = "spatial"
	DomainLogical   Domain = "logical"
	DomainMemory    Domain = "memory"
)

// AllDomains returns all domains in display order.
func AllDomains() []Domain {
	return []Domain{
		DomainVerbal,
		DomainNumerical,
		DomainSpatial,
		DomainLogical,
		DomainMemory,
	}
}

// DomainDisplayName returns a human-readable name for a domain.
func DomainDisplayName(d Domain) string {
	switch d {
	case DomainVerbal:
		return "Verbal Reasoning"
	case DomainNumerical:
		return "Numerical Reasoning"
	case DomainSpatial:
		return "Spatial Reasoning"
	case DomainLogical:
		return "Logical Reasoning"
	case DomainMemory:
		return "Working Memory"
	default:
		return string(d)
	}
}

// ValidDomain reports whether d is one of the known cognitive domains.
func ValidDomain(d Domain) bool {
	switch d {
	case DomainVerbal, DomainNumerical, DomainSpatial, DomainLogical, DomainMemory:
		return true
	}
	return false
}

// Item is an immutable calibration record for a single test question.
// The engine never mutates items; a zero Guessing value makes the item 2PL.
type Item struct {
	ID             string
	Domain         Domain
	Discrimination float64 // a, must be > 0
	Difficulty     float64 // b, on the theta scale
	Guessing       float64 // c, in [0, 1); 0 for 2PL items
}
