package stats

import (
	"math"
	"testing"
)

func feedNumeric(a *NumericAccumulator, values ...string) {
	for _, v := range values {
		a.Update(v)
	}
}

func TestNumericUpdate(t *testing.T) {
	a := NewNumeric(10)
	feedNumeric(a, "10.5", "20.0")

	if a.Count != 2 {
		t.Errorf("expected count 2, got %d", a.Count)
	}
	if a.Sum != 30.5 {
		t.Errorf("expected sum 30.5, got %f", a.Sum)
	}
	if a.Min != 10.5 || a.Max != 20.0 {
		t.Errorf("expected min 10.5 max 20.0, got %f %f", a.Min, a.Max)
	}
}

func TestNumericInvalidTracked(t *testing.T) {
	a := NewNumeric(10)
	feedNumeric(a, "1", "oops", "2")

	if a.Count != 2 {
		t.Errorf("expected count 2, got %d", a.Count)
	}
	if a.Invalid != 1 {
		t.Errorf("expected 1 invalid value, got %d", a.Invalid)
	}
}

func TestNumericReservoirCap(t *testing.T) {
	a := NewNumeric(3)
	feedNumeric(a, "1", "2", "3", "4", "5")

	if len(a.Reservoir()) != 3 {
		t.Errorf("expected reservoir capped at 3, got %d", len(a.Reservoir()))
	}
	if a.Count != 5 {
		t.Errorf("expected count 5, got %d", a.Count)
	}
}

func TestNumericMergeAssociativeCommutative(t *testing.T) {
	build := func(values ...string) *NumericAccumulator {
		a := NewNumeric(100)
		feedNumeric(a, values...)
		return a
	}

	// merge(merge(a,b),c)
	left := build("1", "2")
	left.Merge(build("3"))
	left.Merge(build("4", "5"))

	// merge(a,merge(b,c))
	bc := build("3")
	bc.Merge(build("4", "5"))
	right := build("1", "2")
	right.Merge(bc)

	if left.Sum != right.Sum || left.Count != right.Count ||
		left.Min != right.Min || left.Max != right.Max {
		t.Errorf("associativity violated: %+v vs %+v", left, right)
	}

	// merge(a,b) == merge(b,a) on the scalar fields
	ab := build("1", "9")
	ab.Merge(build("5"))
	ba := build("5")
	ba.Merge(build("1", "9"))
	if ab.Sum != ba.Sum || ab.Count != ba.Count || ab.Min != ba.Min || ab.Max != ba.Max {
		t.Errorf("commutativity violated: %+v vs %+v", ab, ba)
	}
}

func TestNumericMergeReservoirCapped(t *testing.T) {
	a := NewNumeric(3)
	feedNumeric(a, "1", "2")
	b := NewNumeric(3)
	feedNumeric(b, "3", "4", "5")

	a.Merge(b)
	if len(a.Reservoir()) != 3 {
		t.Errorf("expected merged reservoir capped at 3, got %d", len(a.Reservoir()))
	}
	if a.Count != 5 {
		t.Errorf("expected merged count 5, got %d", a.Count)
	}
}

func TestNumericFinalize(t *testing.T) {
	a := NewNumeric(10)
	feedNumeric(a, "10.5", "20.0")

	s := a.Finalize(3)
	if s.Mean != 15.25 {
		t.Errorf("expected mean 15.25, got %f", s.Mean)
	}
	if s.NullCount != 1 {
		t.Errorf("expected null count 1, got %d", s.NullCount)
	}
	if s.Undefined {
		t.Error("mean should be defined")
	}
}

func TestNumericFinalizeZeroCount(t *testing.T) {
	a := NewNumeric(10)
	s := a.Finalize(5)

	if !s.Undefined {
		t.Error("expected undefined mean for zero-count column")
	}
	if !math.IsNaN(s.Mean) {
		t.Errorf("expected NaN mean, got %f", s.Mean)
	}
	if s.NullCount != 5 {
		t.Errorf("expected null count 5, got %d", s.NullCount)
	}
}
