package edisync

import (
	"strings"
)

// Import report section headers, in output order
const (
	sectionImported      = "Total Imported Sale Orders are :"
	sectionValidated     = "Validated Pickings are:"
	sectionProcessed     = "Processed sale order :"
	sectionNotValidated  = "Transfers with issue in Validation:"
	sectionNotConsidered = "Picking not considered for Orders:"
	sectionUnmatched     = "Unmatched Orders are:"
)

// OrderImportResult is the reconciliation outcome of one reference group
type OrderImportResult struct {
	Reference string
	// Found is false when no order carries the reference
	Found bool
	// Completed is set when the remote status is "completed"
	Completed bool
	// Validated lists the pickings confirmed for the order
	Validated []string
	// Issues lists mismatches and picking failures, in the order they occurred
	Issues []string
}

// ImportReport aggregates the results of one import file
type ImportReport struct {
	Results []OrderImportResult
}

// ValidatedCount returns the number of confirmed pickings
func (r ImportReport) ValidatedCount() int {
	n := 0
	for _, res := range r.Results {
		n += len(res.Validated)
	}
	return n
}

// Format renders the report body. Sections come in a fixed order, empty
// sections are left out and sections are separated by a blank line.
func (r ImportReport) Format() string {
	var imported, validated, processed, notValidated, notConsidered, unmatched []string
	for _, res := range r.Results {
		imported = append(imported, res.Reference)
		validated = append(validated, res.Validated...)
		switch {
		case !res.Found:
			unmatched = append(unmatched, res.Reference)
		case res.Completed:
			processed = append(processed, res.Reference+" : completed state")
		default:
			notConsidered = append(notConsidered, res.Reference)
		}
		notValidated = append(notValidated, res.Issues...)
	}

	var sections []string
	for _, s := range []struct {
		header string
		lines  []string
	}{
		{sectionImported, imported},
		{sectionValidated, validated},
		{sectionProcessed, processed},
		{sectionNotValidated, notValidated},
		{sectionNotConsidered, notConsidered},
		{sectionUnmatched, unmatched},
	} {
		if len(s.lines) == 0 {
			continue
		}
		sections = append(sections, s.header+"\n"+strings.Join(s.lines, "\n"))
	}
	return strings.Join(sections, "\n\n")
}
