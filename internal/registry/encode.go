package registry

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/matdex-io/matdex/internal/domain"
	"github.com/matdex-io/matdex/internal/domain/filter"
)

// EncodeQuery renders a query as the backend's JSON shape: literals
// converted to their dtype, sets as arrays keyed with an ":all" suffix
// under query mode all, ranges as bound objects.
func (r *Registry) EncodeQuery(q filter.Query) (map[string]any, error) {
	out := make(map[string]any, len(q))
	for name, v := range q {
		f, ok := r.filters[name]
		if !ok {
			return nil, domain.NewUnknownFilter(name)
		}
		key, enc, err := encodeFilterValue(f, v)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", name, err)
		}
		out[key] = enc
	}
	return out, nil
}

func encodeFilterValue(f Filter, v filter.Value) (string, any, error) {
	cfg := f.config
	switch v.Kind() {
	case filter.KindScalar:
		lit, err := typedLiteral(cfg, v.Scalar())
		if err != nil {
			return "", nil, err
		}
		return f.name, lit, nil
	case filter.KindSet:
		items := v.Items()
		arr := make([]any, len(items))
		for i, it := range items {
			lit, err := typedLiteral(cfg, it)
			if err != nil {
				return "", nil, err
			}
			arr[i] = lit
		}
		key := f.name
		if cfg.QueryMode == filter.QueryAll {
			key += ":all"
		}
		return key, arr, nil
	case filter.KindRange:
		if !cfg.DType.IsNumeric() {
			return "", nil, fmt.Errorf("range value on non-numeric filter")
		}
		bounds := v.Range().Bounds()
		obj := make(map[string]any, len(bounds))
		for k, f64 := range bounds {
			obj[k] = f64
		}
		return f.name, obj, nil
	default:
		return "", nil, fmt.Errorf("empty value")
	}
}

func typedLiteral(cfg filter.Config, raw string) (any, error) {
	canonical, err := cfg.ParseLiteral(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidValue, err)
	}
	switch cfg.DType {
	case filter.Int, filter.Timestamp:
		n, _ := strconv.ParseInt(canonical, 10, 64)
		return n, nil
	case filter.Float:
		f, _ := strconv.ParseFloat(canonical, 64)
		return f, nil
	case filter.Boolean:
		return canonical == "true", nil
	default:
		return canonical, nil
	}
}

// DecodeQuery parses the backend JSON shape back into a typed query.
// Keys may carry an ":any"/":all" suffix and may be abbreviated.
// Unknown names are rejected.
func (r *Registry) DecodeQuery(raw map[string]json.RawMessage) (filter.Query, error) {
	q := make(filter.Query, len(raw))
	for key, msg := range raw {
		name := r.FullName(stripModeSuffix(key))
		f, ok := r.filters[name]
		if !ok {
			return nil, domain.NewUnknownFilter(key)
		}
		v, err := decodeJSONValue(f.config, msg)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", key, err)
		}
		q[name] = v
	}
	return q, nil
}

func decodeJSONValue(cfg filter.Config, msg json.RawMessage) (filter.Value, error) {
	var decoded any
	if err := json.Unmarshal(msg, &decoded); err != nil {
		return filter.Value{}, fmt.Errorf("%w: %w", domain.ErrInvalidValue, err)
	}

	switch val := decoded.(type) {
	case []any:
		items := make([]string, 0, len(val))
		for _, el := range val {
			lit, err := canonicalScalar(cfg, el)
			if err != nil {
				return filter.Value{}, err
			}
			items = append(items, lit)
		}
		return filter.Set(items...), nil
	case map[string]any:
		bounds := make(map[string]float64, len(val))
		for k, el := range val {
			f64, ok := el.(float64)
			if !ok {
				return filter.Value{}, fmt.Errorf("%w: bound %q is not a number", domain.ErrInvalidValue, k)
			}
			bounds[k] = f64
		}
		rng, err := filter.RangeFromBounds(bounds)
		if err != nil {
			return filter.Value{}, fmt.Errorf("%w: %w", domain.ErrInvalidValue, err)
		}
		return filter.Bounds(rng), nil
	default:
		lit, err := canonicalScalar(cfg, decoded)
		if err != nil {
			return filter.Value{}, err
		}
		return filter.Scalar(lit), nil
	}
}

func canonicalScalar(cfg filter.Config, el any) (string, error) {
	var raw string
	switch t := el.(type) {
	case string:
		raw = t
	case float64:
		raw = strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		raw = strconv.FormatBool(t)
	default:
		return "", fmt.Errorf("%w: unsupported literal %T", domain.ErrInvalidValue, el)
	}
	lit, err := cfg.ParseLiteral(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidValue, err)
	}
	return lit, nil
}
