package customer

import (
	"fmt"
	"sort"
	"strings"

	"churnlens/domain/core"
)

// ColumnViolation is one schema problem with a whole column
type ColumnViolation struct {
	Column  string
	Missing bool
	Kind    Kind
	// BadRows holds 1-based data rows whose cell could not be parsed as Kind
	BadRows []int
	Sample  string
}

func (v ColumnViolation) String() string {
	if v.Missing {
		return fmt.Sprintf("column %q is missing", v.Column)
	}
	return fmt.Sprintf("column %q expects %s values: %d bad cells (first at row %d: %q)",
		v.Column, v.Kind, len(v.BadRows), v.BadRows[0], v.Sample)
}

// SchemaError reports every missing or mistyped column found at load, and
// every row wider than the header
type SchemaError struct {
	Violations []ColumnViolation
	// RaggedRows holds 1-based data rows with cells past the last header
	RaggedRows []int
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Violations)+1)
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	if len(e.RaggedRows) > 0 {
		parts = append(parts, fmt.Sprintf("%d rows have cells past the last header (first at row %d)",
			len(e.RaggedRows), e.RaggedRows[0]))
	}
	return fmt.Sprintf("schema error (%d columns): %s", len(e.Violations), strings.Join(parts, "; "))
}

// Unwrap exposes the sentinel categories present in the violations
func (e *SchemaError) Unwrap() []error {
	var errs []error
	var missing, mistyped bool
	for _, v := range e.Violations {
		if v.Missing {
			missing = true
		} else {
			mistyped = true
		}
	}
	if missing {
		errs = append(errs, core.ErrMissingColumn)
	}
	if mistyped {
		errs = append(errs, core.ErrTypeMismatch)
	}
	if len(e.RaggedRows) > 0 {
		errs = append(errs, core.ErrRaggedRow)
	}
	return errs
}

// MissingColumns lists the columns that were absent, sorted
func (e *SchemaError) MissingColumns() []string {
	var out []string
	for _, v := range e.Violations {
		if v.Missing {
			out = append(out, v.Column)
		}
	}
	sort.Strings(out)
	return out
}

// Violation is one out-of-domain cell
type Violation struct {
	Row        int
	CustomerID string
	Column     string
	Value      string
	Reason     error
}

func (v Violation) String() string {
	return fmt.Sprintf("row %d (customer %s) %s=%q: %v", v.Row, v.CustomerID, v.Column, v.Value, v.Reason)
}

// DomainError reports every out-of-domain value found at load
type DomainError struct {
	Violations []Violation
}

func (e *DomainError) Error() string {
	const preview = 5
	parts := make([]string, 0, preview)
	for i, v := range e.Violations {
		if i == preview {
			break
		}
		parts = append(parts, v.String())
	}
	msg := fmt.Sprintf("domain error (%d violations): %s", len(e.Violations), strings.Join(parts, "; "))
	if len(e.Violations) > preview {
		msg += fmt.Sprintf("; and %d more", len(e.Violations)-preview)
	}
	return msg
}

// Unwrap exposes ErrOutOfDomain and the reason of every violation
func (e *DomainError) Unwrap() []error {
	errs := make([]error, 0, len(e.Violations)+1)
	errs = append(errs, core.ErrOutOfDomain)
	for _, v := range e.Violations {
		if v.Reason != nil {
			errs = append(errs, v.Reason)
		}
	}
	return errs
}

// RejectedRows returns the distinct data rows that carry at least one violation
func (e *DomainError) RejectedRows() map[int]bool {
	rows := make(map[int]bool, len(e.Violations))
	for _, v := range e.Violations {
		rows[v.Row] = true
	}
	return rows
}

// ComputationError is a per-record scoring failure
type ComputationError struct {
	CustomerID string
	Signal     string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("customer %s: %v: %s", e.CustomerID, core.ErrMissingSignal, e.Signal)
}

func (e *ComputationError) Unwrap() error {
	return core.ErrMissingSignal
}
