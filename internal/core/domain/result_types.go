package domain

import "fmt"

// Difference is one field-level deviation between desired and current
// configuration, rendered from the normalized forms of both sides.
type Difference struct {
	Key     string
	Desired any
	Current any
}

func (d Difference) String() string {
	return fmt.Sprintf("%s: '%v' vs '%v'", d.Key, d.Desired, d.Current)
}

// ReconciliationResult holds the per-kind outcome: the three change sets plus
// the full desired and current name sets for diagnostics. All slices are
// sorted by name.
type ReconciliationResult struct {
	Kind     ResourceKind
	Added    []string
	Removed  []string
	Modified []string
	Current  []string
	Desired  []string

	// Differences maps a modified resource name to its recorded differences.
	Differences map[string][]Difference
}

func (r ReconciliationResult) HasChanges() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0 || len(r.Modified) > 0
}

// Report aggregates the per-kind results for a full run.
type Report struct {
	Results         []ReconciliationResult
	ChangesDetected bool
}

func (r Report) ResultFor(kind ResourceKind) (ReconciliationResult, bool) {
	for _, res := range r.Results {
		if res.Kind == kind {
			return res, true
		}
	}
	return ReconciliationResult{}, false
}
