package ingest

import (
	"fmt"
	"strings"

	"churnlens/domain/core"
	"churnlens/domain/customer"
	"churnlens/domain/dataset"
	"churnlens/internal"
	apperrors "churnlens/internal/errors"
)

// DomainPolicy decides what happens to rows with out-of-domain values
type DomainPolicy string

const (
	// PolicyReject fails the whole run when any row is out of domain
	PolicyReject DomainPolicy = "reject"
	// PolicyDrop removes offending rows, reports them, and continues
	PolicyDrop DomainPolicy = "drop"
)

// ParseDomainPolicy validates a policy name
func ParseDomainPolicy(s string) (DomainPolicy, error) {
	switch DomainPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyReject, "":
		return PolicyReject, nil
	case PolicyDrop:
		return PolicyDrop, nil
	}
	return "", core.NewValidationError("domain_policy", fmt.Sprintf("%q is not reject or drop", s))
}

// LoadReport describes what the loader accepted and dropped
type LoadReport struct {
	RowsRead     int
	RowsAccepted int
	Dropped      []customer.Violation // only populated under PolicyDrop
}

// Loader validates a raw table against customer.Schema and builds records
type Loader struct {
	bounds  Bounds
	policy  DomainPolicy
	coercer *TypeCoercer
	logger  *internal.Logger
}

// NewLoader creates a loader
func NewLoader(bounds Bounds, policy DomainPolicy, logger *internal.Logger) (*Loader, error) {
	if err := bounds.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.ConfigInvalid(err.Error()), "invalid load bounds")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Loader{bounds: bounds, policy: policy, coercer: NewTypeCoercer(), logger: logger.With("Loader")}, nil
}

// Load checks the schema, then every row's domain. Schema problems are
// reported together as one *customer.SchemaError; domain problems as one
// *customer.DomainError unless the policy drops them.
func (l *Loader) Load(raw *dataset.RawTable) (*customer.Table, *LoadReport, error) {
	if raw == nil || raw.Len() == 0 {
		return nil, nil, apperrors.Wrap(apperrors.InvalidInput(core.ErrEmptyInput.Error()), "load "+sourceName(raw))
	}

	cols := customer.ResolveColumns(raw.Headers)
	if err := l.checkSchema(raw, cols); err != nil {
		l.logger.Error("%v", err)
		return nil, nil, apperrors.Schema(err)
	}

	table := &customer.Table{}
	_, table.HasCardType = cols[customer.ColCardType]
	_, table.HasPoints = cols[customer.ColPointsEarned]

	var violations []customer.Violation
	seen := make(map[string]int, raw.Len())
	records := make([]customer.Record, 0, raw.Len())
	for i, row := range raw.Rows {
		rec, vs := l.buildRecord(i+1, row, cols, table)
		if prev, dup := seen[rec.ID]; dup && rec.ID != "" {
			vs = append(vs, customer.Violation{
				Row: i + 1, CustomerID: rec.ID, Column: customer.CanonicalHeader(customer.ColCustomerID), Value: rec.ID,
				Reason: fmt.Errorf("%w (first seen at row %d)", core.ErrDuplicateID, prev),
			})
		} else if rec.ID != "" && (len(vs) == 0 || l.policy != PolicyDrop) {
			// under drop, an id only counts once its row is accepted
			seen[rec.ID] = i + 1
		}
		if len(vs) > 0 {
			violations = append(violations, vs...)
			continue
		}
		records = append(records, rec)
	}

	report := &LoadReport{RowsRead: raw.Len()}
	if len(violations) > 0 {
		derr := &customer.DomainError{Violations: violations}
		if l.policy != PolicyDrop {
			l.logger.Error("%v", derr)
			return nil, nil, apperrors.Domain(derr)
		}
		report.Dropped = violations
		l.logger.Warn("dropped %d rows with %d out-of-domain values", len(derr.RejectedRows()), len(violations))
	}
	if len(records) == 0 {
		return nil, nil, apperrors.Wrap(apperrors.InvalidInput(core.ErrEmptyInput.Error()), "no rows left after validation")
	}

	table.Records = records
	report.RowsAccepted = len(records)
	l.logger.Info("accepted %d of %d rows from %s", report.RowsAccepted, report.RowsRead, sourceName(raw))
	return table, report, nil
}

func sourceName(raw *dataset.RawTable) string {
	if raw == nil || raw.Source == "" {
		return "input"
	}
	return raw.Source
}

// checkSchema collects every missing required column, every present column
// holding cells that do not parse as its kind, and every ragged row.
func (l *Loader) checkSchema(raw *dataset.RawTable, cols map[string]int) error {
	var violations []customer.ColumnViolation
	for _, col := range customer.Schema {
		idx, ok := cols[col.Key]
		if !ok {
			if col.Required {
				violations = append(violations, customer.ColumnViolation{Column: col.Headers[0], Missing: true})
			}
			continue
		}
		var bad []int
		sample := ""
		for i, row := range raw.Rows {
			cell := row[idx]
			if cell == "" {
				continue
			}
			if !l.coercer.Accepts(col.Kind, cell) {
				if len(bad) == 0 {
					sample = cell
				}
				bad = append(bad, i+1)
			}
		}
		if len(bad) > 0 {
			violations = append(violations, customer.ColumnViolation{
				Column: raw.Headers[idx], Kind: col.Kind, BadRows: bad, Sample: sample,
			})
		}
	}
	if len(violations) > 0 || len(raw.Ragged) > 0 {
		return &customer.SchemaError{Violations: violations, RaggedRows: raw.Ragged}
	}
	return nil
}

// rowReader pulls typed values out of one row and records domain violations
type rowReader struct {
	l    *Loader
	row  []string
	num  int
	cols map[string]int
	id   string
	vs   []customer.Violation
}

func (r *rowReader) cell(key string) (string, bool) {
	idx, ok := r.cols[key]
	if !ok {
		return "", false
	}
	return r.row[idx], true
}

func (r *rowReader) fail(key, value string, reason error) {
	r.vs = append(r.vs, customer.Violation{
		Row: r.num, CustomerID: r.id, Column: customer.CanonicalHeader(key), Value: value, Reason: reason,
	})
}

// present returns the cell, failing the row when a non-nullable cell is blank
func (r *rowReader) present(key string, nullable bool) (string, bool) {
	v, ok := r.cell(key)
	if !ok {
		return "", false
	}
	if v == "" {
		if !nullable {
			r.fail(key, v, core.ErrMissingValue)
		}
		return "", false
	}
	return v, true
}

func (r *rowReader) intIn(key string, rng IntRange) int {
	v, ok := r.present(key, false)
	if !ok {
		return 0
	}
	n, _ := r.l.coercer.ParseInt(v)
	if !rng.Contains(n) {
		r.fail(key, v, fmt.Errorf("%w: want %s", core.ErrOutOfDomain, rng))
	}
	return n
}

func (r *rowReader) nonNegative(key string) float64 {
	v, ok := r.present(key, false)
	if !ok {
		return 0
	}
	f, _ := r.l.coercer.ParseFloat(v)
	if f < 0 {
		r.fail(key, v, fmt.Errorf("%w: must not be negative", core.ErrOutOfDomain))
	}
	return f
}

func (r *rowReader) boolean(key string) bool {
	v, ok := r.present(key, false)
	if !ok {
		return false
	}
	b, _ := r.l.coercer.ParseBool(v)
	return b
}

func (r *rowReader) category(key string, allowed []string) (string, bool) {
	v, ok := r.present(key, false)
	if !ok {
		return "", false
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return a, true
		}
	}
	r.fail(key, v, fmt.Errorf("%w: want one of %s", core.ErrUnknownCategory, strings.Join(allowed, ", ")))
	return "", false
}

func (l *Loader) buildRecord(num int, row []string, cols map[string]int, table *customer.Table) (customer.Record, []customer.Violation) {
	r := &rowReader{l: l, row: row, num: num, cols: cols}
	rec := customer.Record{RowNumber: num}

	if id, ok := r.present(customer.ColCustomerID, false); ok {
		rec.ID = id
		r.id = id
	}
	rec.Surname, _ = r.cell(customer.ColSurname)
	rec.CreditScore = r.intIn(customer.ColCreditScore, l.bounds.CreditScore)
	if g, ok := r.category(customer.ColGeography, l.bounds.Geographies); ok {
		rec.Geography, _ = customer.ParseGeography(g, l.bounds.Geographies)
	}
	if g, ok := r.category(customer.ColGender, l.bounds.Genders); ok {
		rec.Gender, _ = customer.ParseGender(g, l.bounds.Genders)
	}
	rec.Age = r.intIn(customer.ColAge, l.bounds.Age)
	rec.Tenure = r.intIn(customer.ColTenure, l.bounds.Tenure)
	rec.Balance = r.nonNegative(customer.ColBalance)
	rec.NumOfProducts = r.intIn(customer.ColNumOfProducts, l.bounds.NumOfProducts)
	rec.HasCreditCard = r.boolean(customer.ColHasCreditCard)
	rec.IsActiveMember = r.boolean(customer.ColIsActiveMember)
	rec.EstimatedSalary = r.nonNegative(customer.ColEstimatedSalary)
	rec.Churned = r.boolean(customer.ColChurned)

	if v, ok := r.present(customer.ColComplaint, true); ok {
		b, _ := l.coercer.ParseBool(v)
		rec.HasComplaint = &b
	}
	if v, ok := r.present(customer.ColSatisfaction, true); ok {
		n, _ := l.coercer.ParseInt(v)
		if l.bounds.Satisfaction.Contains(n) {
			rec.SatisfactionScore = &n
		} else {
			r.fail(customer.ColSatisfaction, v, fmt.Errorf("%w: want %s", core.ErrOutOfDomain, l.bounds.Satisfaction))
		}
	}
	if table.HasCardType {
		if c, ok := r.category(customer.ColCardType, l.bounds.CardTypes); ok {
			rec.CardType, _ = customer.ParseCardType(c, l.bounds.CardTypes)
		}
	}
	if table.HasPoints {
		if v, ok := r.present(customer.ColPointsEarned, true); ok {
			n, _ := l.coercer.ParseInt(v)
			if n < 0 {
				r.fail(customer.ColPointsEarned, v, fmt.Errorf("%w: must not be negative", core.ErrOutOfDomain))
			} else {
				rec.PointsEarned = &n
			}
		}
	}
	return rec, r.vs
}
