package warehouse

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

// Identifiers come from configuration, never from request payloads. The
// pattern keeps them safe to splice into a quoted table path. The tail
// repeat is split in two because Go's regexp caps a single repeat count
// at 1000; the concatenation still matches 0-1023 trailing characters.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,1000}[A-Za-z0-9_-]{0,23}$`)

type Table struct {
	Columns []string
	Rows    [][]any
}

func (t Table) RowCount() int {
	return len(t.Rows)
}

type TableRef struct {
	Project string
	Dataset string
	Table   string
}

func (r TableRef) Validate() error {
	if err := validateIdentifier(r.Project, "project"); err != nil {
		return err
	}
	if err := validateIdentifier(r.Dataset, "dataset"); err != nil {
		return err
	}
	return validateIdentifier(r.Table, "table")
}

func (r TableRef) String() string {
	return fmt.Sprintf("%s.%s.%s", r.Project, r.Dataset, r.Table)
}

type Filter struct {
	Crop      string
	Region    string
	StartDate string
	EndDate   string
}

type Request struct {
	Target TableRef
	Filter Filter
}

type Result struct {
	Table    Table
	Duration time.Duration
}

type Client interface {
	Execute(ctx context.Context, request Request) (Result, error)
	Close() error
}

// ErrorTable builds the one-row table shape hosts receive in place of
// data when an invocation fails.
func ErrorTable(label, details string) Table {
	return Table{
		Columns: []string{"Error", "Details"},
		Rows:    [][]any{{label, details}},
	}
}

func validateIdentifier(value, field string) error {
	if !identifierPattern.MatchString(value) {
		return fmt.Errorf("invalid %s identifier: %q", field, value)
	}
	return nil
}
