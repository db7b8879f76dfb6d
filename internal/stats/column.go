package stats

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the decided type of a column's accumulator for one analysis
// pass.
type Kind int

const (
	KindNumeric Kind = iota
	KindCategorical
)

func (k Kind) String() string {
	if k == KindNumeric {
		return "numeric"
	}
	return "categorical"
}

// IsNull reports whether a cell is a missing value: empty after
// trimming whitespace.
func IsNull(cell string) bool {
	return strings.TrimSpace(cell) == ""
}

// IsNumericValue reports whether a non-empty cell parses as a number.
func IsNumericValue(cell string) bool {
	_, err := strconv.ParseFloat(cell, 64)
	return err == nil
}

// Column is a tagged variant accumulator: exactly one of the two
// accumulators is active, decided once per pass by a type-inference
// pre-pass. Cells are never routed value-by-value.
type Column struct {
	Name string
	Kind Kind

	num *NumericAccumulator
	cat *CategoricalAccumulator
}

// NewColumn creates an accumulator of the decided kind.
func NewColumn(name string, kind Kind, sampleCap, maxDistinct int) *Column {
	c := &Column{Name: name, Kind: kind}
	if kind == KindNumeric {
		c.num = NewNumeric(sampleCap)
	} else {
		c.cat = NewCategorical(maxDistinct)
	}
	return c
}

// Update folds one cell into the column. Null cells are skipped; they
// are accounted for by the NullTracker.
func (c *Column) Update(cell string) {
	if IsNull(cell) {
		return
	}
	if c.Kind == KindNumeric {
		c.num.Update(cell)
	} else {
		c.cat.Update(cell)
	}
}

// Merge folds other into c. Both sides must be accumulators for the
// same column kind.
func (c *Column) Merge(other *Column) error {
	if c.Kind != other.Kind {
		return fmt.Errorf("cannot merge %s accumulator into %s for column %s",
			other.Kind, c.Kind, c.Name)
	}
	if c.Kind == KindNumeric {
		c.num.Merge(other.num)
	} else {
		c.cat.Merge(other.cat)
	}
	return nil
}

// Numeric returns the numeric accumulator, or nil for categorical
// columns.
func (c *Column) Numeric() *NumericAccumulator { return c.num }

// Categorical returns the frequency accumulator, or nil for numeric
// columns.
func (c *Column) Categorical() *CategoricalAccumulator { return c.cat }
