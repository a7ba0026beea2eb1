package ingest

import (
	"math"
	"strconv"
	"strings"

	"churnlens/domain/customer"
)

// TypeCoercer parses cells under strict rules. Unlike a sniffing coercer it
// never guesses: a cell either parses as the column's declared kind or it is
// reported.
type TypeCoercer struct{}

// NewTypeCoercer returns a coercer
func NewTypeCoercer() *TypeCoercer {
	return &TypeCoercer{}
}

// Accepts reports whether a non-blank cell parses as kind
func (c *TypeCoercer) Accepts(kind customer.Kind, cell string) bool {
	switch kind {
	case customer.KindInteger:
		_, ok := c.ParseInt(cell)
		return ok
	case customer.KindNumeric:
		_, ok := c.ParseFloat(cell)
		return ok
	case customer.KindBoolean:
		_, ok := c.ParseBool(cell)
		return ok
	default:
		return true
	}
}

// ParseFloat accepts finite decimal numbers, including exponent notation
func (c *TypeCoercer) ParseFloat(cell string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseInt accepts integers and integral floats such as "619.0", which
// spreadsheet exports produce for whole-number columns.
func (c *TypeCoercer) ParseInt(cell string) (int, bool) {
	cell = strings.TrimSpace(cell)
	if v, err := strconv.Atoi(cell); err == nil {
		return v, true
	}
	f, ok := c.ParseFloat(cell)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// ParseBool accepts 1/0, true/false, yes/no, y/n
func (c *TypeCoercer) ParseBool(cell string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "true", "1", "yes", "y", "1.0":
		return true, true
	case "false", "0", "no", "n", "0.0":
		return false, true
	}
	return false, false
}
