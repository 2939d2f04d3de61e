package itembank

import (
	"fmt"
	"strings"
)

// ErrInvalidItem reports a calibration record that failed validation.
// Validation happens once at bank construction, never at scoring time.
type ErrInvalidItem struct {
	ItemID string
	Reason string
}

func (e *ErrInvalidItem) Error() string {
	return fmt.Sprintf("invalid item %q: %s", e.ItemID, e.Reason)
}

// validateItems performs all structural checks on the given item set.
// Returns a combined error describing all problems found, or nil if valid.
func validateItems(items []Item) error {
	var errs []string

	idSet := make(map[string]bool, len(items))
	for _, it := range items {
		if it.ID == "" {
			errs = append(errs, "item with empty ID")
			continue
		}
		if idSet[it.ID] {
			errs = append(errs, fmt.Sprintf("duplicate item ID: %q", it.ID))
		}
		idSet[it.ID] = true

		if !ValidDomain(it.Domain) {
			errs = append(errs, fmt.Sprintf("item %q: unknown domain %q", it.ID, it.Domain))
		}
		if it.Discrimination <= 0 {
			errs = append(errs, fmt.Sprintf("item %q: discrimination must be > 0, got %g", it.ID, it.Discrimination))
		}
		if it.Guessing < 0 || it.Guessing >= 1 {
			errs = append(errs, fmt.Sprintf("item %q: guessing must be in [0, 1), got %g", it.ID, it.Guessing))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("item bank validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// CheckItem validates a single calibration record.
// Returns *ErrInvalidItem on the first problem found, or nil if valid.
func CheckItem(it Item) error {
	switch {
	case it.ID == "":
		return &ErrInvalidItem{ItemID: it.ID, Reason: "empty ID"}
	case !ValidDomain(it.Domain):
		return &ErrInvalidItem{ItemID: it.ID, Reason: fmt.Sprintf("unknown domain %q", it.Domain)}
	case it.Discrimination <= 0:
		return &ErrInvalidItem{ItemID: it.ID, Reason: fmt.Sprintf("discrimination must be > 0, got %g", it.Discrimination)}
	case it.Guessing < 0 || it.Guessing >= 1:
		return &ErrInvalidItem{ItemID: it.ID, Reason: fmt.Sprintf("guessing must be in [0, 1), got %g", it.Guessing)}
	}
	return nil
}
