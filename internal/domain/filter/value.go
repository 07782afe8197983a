package filter

import (
	"fmt"
	"strconv"
)

// ValueKind discriminates the shape of a query value.
type ValueKind int

// Query value shapes.
const (
	KindNone ValueKind = iota
	KindScalar
	KindSet
	KindRange
)

// Value is one query value: a scalar literal, a set of literals, or a
// numeric range. Literals are kept in their string form; dtype-aware
// parsing happens at the registry boundary.
type Value struct {
	kind  ValueKind
	items []string
	rng   *Range
}

// Scalar creates a single-literal value.
func Scalar(s string) Value {
	return Value{kind: KindScalar, items: []string{s}}
}

// Set creates a set value preserving order and dropping duplicates.
func Set(items ...string) Value {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return Value{kind: KindSet, items: out}
}

// Bounds creates a range value.
func Bounds(r Range) Value {
	return Value{kind: KindRange, rng: &r}
}

// Kind returns the value shape.
func (v Value) Kind() ValueKind { return v.kind }

// IsZero reports whether the value is unset.
func (v Value) IsZero() bool { return v.kind == KindNone }

// Scalar returns the single literal. Empty unless KindScalar.
func (v Value) Scalar() string {
	if v.kind != KindScalar || len(v.items) == 0 {
		return ""
	}
	return v.items[0]
}

// Items returns the literals of a scalar or set value.
func (v Value) Items() []string {
	out := make([]string, len(v.items))
	copy(out, v.items)
	return out
}

// Range returns the range bounds, or nil for non-range values.
func (v Value) Range() *Range {
	if v.rng == nil {
		return nil
	}
	r := *v.rng
	return &r
}

// Union merges another scalar/set value into this one as a set,
// preserving first-seen order. Range values replace wholesale.
func (v Value) Union(other Value) Value {
	if other.kind == KindRange || v.kind == KindRange {
		return other
	}
	if v.IsZero() {
		if other.kind == KindScalar {
			return Set(other.items...)
		}
		return other
	}
	return Set(append(v.Items(), other.items...)...)
}

// Equal reports deep equality of two values.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind || len(v.items) != len(other.items) {
		return false
	}
	for i := range v.items {
		if v.items[i] != other.items[i] {
			return false
		}
	}
	if (v.rng == nil) != (other.rng == nil) {
		return false
	}
	if v.rng != nil && *v.rng != *other.rng {
		return false
	}
	return true
}

// Range is a numeric range with gt/gte/lt/lte boundaries.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewRange validates and creates a Range.
// At least one boundary required. gt/gte and lt/lte are mutually exclusive.
func NewRange(gt, gte, lt, lte *float64) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return Range{}, fmt.Errorf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Range{}, fmt.Errorf("cannot specify both lt and lte")
	}
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

// RangeFromBounds builds a Range from a bound-key map (lt/lte/gt/gte).
func RangeFromBounds(bounds map[string]float64) (Range, error) {
	var gt, gte, lt, lte *float64
	for key, val := range bounds {
		v := val
		switch key {
		case "gt":
			gt = &v
		case "gte":
			gte = &v
		case "lt":
			lt = &v
		case "lte":
			lte = &v
		default:
			return Range{}, fmt.Errorf("unknown bound key %q", key)
		}
	}
	return NewRange(gt, gte, lt, lte)
}

// GT returns the lower exclusive bound.
func (r Range) GT() *float64 { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() *float64 { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() *float64 { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *float64 { return r.lte }

// Bounds returns the set bounds as a key map (lt/lte/gt/gte).
func (r Range) Bounds() map[string]float64 {
	out := make(map[string]float64, 2)
	if r.gt != nil {
		out["gt"] = *r.gt
	}
	if r.gte != nil {
		out["gte"] = *r.gte
	}
	if r.lt != nil {
		out["lt"] = *r.lt
	}
	if r.lte != nil {
		out["lte"] = *r.lte
	}
	return out
}

func (r Range) String() string {
	s := ""
	if r.gt != nil {
		s += "gt:" + strconv.FormatFloat(*r.gt, 'g', -1, 64)
	}
	if r.gte != nil {
		s += "gte:" + strconv.FormatFloat(*r.gte, 'g', -1, 64)
	}
	if r.lt != nil {
		if s != "" {
			s += ","
		}
		s += "lt:" + strconv.FormatFloat(*r.lt, 'g', -1, 64)
	}
	if r.lte != nil {
		if s != "" {
			s += ","
		}
		s += "lte:" + strconv.FormatFloat(*r.lte, 'g', -1, 64)
	}
	return s
}
