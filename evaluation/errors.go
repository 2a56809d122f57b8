package evaluation

import "fmt"

// SchemaError reports a required column missing from an input table.
type SchemaError struct {
	Column   string
	Producer string // stage expected to emit the column
}

func (e *SchemaError) Error() string {
	if e.Producer == "" {
		return fmt.Sprintf("input is missing required column %q", e.Column)
	}
	return fmt.Sprintf("input is missing required column %q (expected from %s)", e.Column, e.Producer)
}

// EmptyGroupError reports an aggregation group with no members.
type EmptyGroupError struct {
	Dimension Dimension
	Group     string
}

func (e *EmptyGroupError) Error() string {
	if e.Group == "" {
		return fmt.Sprintf("aggregate %s: no utterances to aggregate", e.Dimension)
	}
	return fmt.Sprintf("aggregate %s: group %q has no utterances", e.Dimension, e.Group)
}

// UnavailableInputError marks a record whose audio could not be used.
// It is a warning: the record is dropped and the run continues.
type UnavailableInputError struct {
	Path   string
	Reason string
}

func (e *UnavailableInputError) Error() string {
	return fmt.Sprintf("input unavailable: %s: %s", e.Path, e.Reason)
}
