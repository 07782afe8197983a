// Package expr parses one line of free-text search-bar input into a
// (filter name, value) pair. Parse errors are categorized values meant
// for inline display; nothing here panics or propagates past the
// caller.
package expr

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/matdex-io/matdex/internal/domain/filter"
	"github.com/matdex-io/matdex/internal/registry"
)

// Parse error categories.
var (
	// ErrUnknownQuantity signals a name that is not a registered filter.
	ErrUnknownQuantity = errors.New("unknown quantity")
	// ErrInvalidNumber signals a bound that does not parse as a number.
	ErrInvalidNumber = errors.New("invalid number")
	// ErrInvalidQuery signals input matching none of the supported forms.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrUnsupportedRangeType signals a range query on a non-numeric filter.
	ErrUnsupportedRangeType = errors.New("range query on non-numeric quantity")
)

// QuantityError wraps ErrUnknownQuantity with the offending token.
type QuantityError struct {
	Name string
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownQuantity.Error(), e.Name)
}

func (e *QuantityError) Unwrap() error { return ErrUnknownQuantity }

// Expression is one parsed search-bar statement.
type Expression struct {
	// Name is the resolved full filter name.
	Name string
	// Value is the parsed value: a scalar literal for equality, a
	// range for bound forms.
	Value filter.Value
}

// Operand and operator shapes. Operands exclude comparison characters
// so the three forms are unambiguous.
var (
	reEquality = regexp.MustCompile(`^\s*([^<>=\s]+)\s*=\s*(.+?)\s*$`)
	reSingle   = regexp.MustCompile(`^\s*([^<>=\s]+)\s*(<=|>=|<|>)\s*([^<>=\s]+)\s*$`)
	reDouble   = regexp.MustCompile(`^\s*([^<>=\s]+)\s*(<=|>=|<|>)\s*([^<>=\s]+)\s*(<=|>=|<|>)\s*([^<>=\s]+)\s*$`)
)

// Bound keys for an operator with the filter on its left, and the
// reversed table for the filter on its right.
var (
	directBound   = map[string]string{"<": "lt", "<=": "lte", ">": "gt", ">=": "gte"}
	reversedBound = map[string]string{"<": "gt", "<=": "gte", ">": "lt", ">=": "lte"}
)

func lessOp(op string) bool { return op == "<" || op == "<=" }

// Parse translates one input line against the registry. The three
// supported forms are tried in order; the first match wins.
func Parse(reg *registry.Registry, input string) (Expression, error) {
	if m := reEquality.FindStringSubmatch(input); m != nil {
		return parseEquality(reg, m[1], m[2])
	}
	if m := reSingle.FindStringSubmatch(input); m != nil {
		return parseSingleBound(reg, m[1], m[2], m[3])
	}
	if m := reDouble.FindStringSubmatch(input); m != nil {
		return parseDoubleBound(reg, m[1], m[2], m[3], m[4], m[5])
	}
	return Expression{}, ErrInvalidQuery
}

func parseEquality(reg *registry.Registry, name, value string) (Expression, error) {
	f, ok := reg.Resolve(name)
	if !ok {
		return Expression{}, &QuantityError{Name: name}
	}
	return Expression{Name: f.Name(), Value: filter.Scalar(value)}, nil
}

func parseSingleBound(reg *registry.Registry, left, op, right string) (Expression, error) {
	lf, lok := reg.Resolve(left)
	rf, rok := reg.Resolve(right)

	// Exactly one side must name a filter.
	if lok == rok {
		return Expression{}, ErrInvalidQuery
	}

	var f registry.Filter
	var numToken string
	bounds := directBound
	if lok {
		f, numToken = lf, right
	} else {
		f, numToken = rf, left
		bounds = reversedBound
	}

	if !f.Config().DType.IsNumeric() {
		return Expression{}, ErrUnsupportedRangeType
	}
	num, err := strconv.ParseFloat(numToken, 64)
	if err != nil {
		return Expression{}, fmt.Errorf("%w: %q", ErrInvalidNumber, numToken)
	}

	rng, err := filter.RangeFromBounds(map[string]float64{bounds[op]: num})
	if err != nil {
		return Expression{}, ErrInvalidQuery
	}
	return Expression{Name: f.Name(), Value: filter.Bounds(rng)}, nil
}

func parseDoubleBound(reg *registry.Registry, low, op1, mid, op2, high string) (Expression, error) {
	f, ok := reg.Resolve(mid)
	if !ok {
		return Expression{}, &QuantityError{Name: mid}
	}
	if !f.Config().DType.IsNumeric() {
		return Expression{}, ErrUnsupportedRangeType
	}
	// Both operators must run the same direction, ascending
	// ("3 < a < 7") or descending ("7 > a > 3").
	if lessOp(op1) != lessOp(op2) {
		return Expression{}, ErrInvalidQuery
	}

	lowNum, err := strconv.ParseFloat(low, 64)
	if err != nil {
		return Expression{}, fmt.Errorf("%w: %q", ErrInvalidNumber, low)
	}
	highNum, err := strconv.ParseFloat(high, 64)
	if err != nil {
		return Expression{}, fmt.Errorf("%w: %q", ErrInvalidNumber, high)
	}

	// The filter sits right of op1 and left of op2.
	rng, err := filter.RangeFromBounds(map[string]float64{
		reversedBound[op1]: lowNum,
		directBound[op2]:   highNum,
	})
	if err != nil {
		return Expression{}, ErrInvalidQuery
	}
	return Expression{Name: f.Name(), Value: filter.Bounds(rng)}, nil
}
