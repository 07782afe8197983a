package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Literal canonicalization per dtype. Timestamps canonicalize to epoch
// milliseconds; RFC 3339 input is accepted.

// ParseLiteral validates one raw literal against the dtype and returns
// its canonical string form.
func (c Config) ParseLiteral(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	switch c.DType {
	case Int:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return "", fmt.Errorf("not an integer: %q", raw)
		}
		return strconv.FormatInt(n, 10), nil
	case Float:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return "", fmt.Errorf("not a number: %q", raw)
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case Timestamp:
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return strconv.FormatInt(ms, 10), nil
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return "", fmt.Errorf("not a timestamp: %q", raw)
		}
		return strconv.FormatInt(t.UnixMilli(), 10), nil
	case Boolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return "", fmt.Errorf("not a boolean: %q", raw)
		}
		return strconv.FormatBool(b), nil
	case Enum:
		for _, opt := range c.Options {
			if opt.Value == raw {
				return raw, nil
			}
		}
		return "", fmt.Errorf("not a declared option: %q", raw)
	default:
		return raw, nil
	}
}

// EncodeValue renders a value as a single query-string parameter.
// Sets join with commas, ranges use the bound:number notation.
func (c Config) EncodeValue(v Value) (string, error) {
	switch v.Kind() {
	case KindScalar:
		return v.Scalar(), nil
	case KindSet:
		return strings.Join(v.Items(), ","), nil
	case KindRange:
		return v.Range().String(), nil
	default:
		return "", fmt.Errorf("cannot encode empty value")
	}
}

// DecodeValue parses a query-string parameter back into a typed value.
func (c Config) DecodeValue(raw string) (Value, error) {
	if isRangeLiteral(raw) {
		if !c.DType.IsNumeric() {
			return Value{}, fmt.Errorf("range value on non-numeric filter")
		}
		r, err := parseRangeLiteral(raw)
		if err != nil {
			return Value{}, err
		}
		return Bounds(r), nil
	}

	if c.Multiple {
		parts := strings.Split(raw, ",")
		items := make([]string, 0, len(parts))
		for _, p := range parts {
			if p == "" {
				continue
			}
			lit, err := c.ParseLiteral(p)
			if err != nil {
				return Value{}, err
			}
			items = append(items, lit)
		}
		if len(items) == 0 {
			return Value{}, fmt.Errorf("empty value")
		}
		return Set(items...), nil
	}

	lit, err := c.ParseLiteral(raw)
	if err != nil {
		return Value{}, err
	}
	return Scalar(lit), nil
}

var boundKeys = []string{"gte", "lte", "gt", "lt"}

func isRangeLiteral(raw string) bool {
	for _, k := range boundKeys {
		if strings.HasPrefix(raw, k+":") {
			return true
		}
	}
	return false
}

func parseRangeLiteral(raw string) (Range, error) {
	bounds := make(map[string]float64, 2)
	for _, part := range strings.Split(raw, ",") {
		key, num, ok := strings.Cut(part, ":")
		if !ok {
			return Range{}, fmt.Errorf("malformed range segment %q", part)
		}
		f, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return Range{}, fmt.Errorf("malformed range bound %q", part)
		}
		bounds[key] = f
	}
	return RangeFromBounds(bounds)
}
