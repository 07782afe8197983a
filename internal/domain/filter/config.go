package filter

import "fmt"

// Option is one enumerated value a filter can take.
type Option struct {
	Value       string `json:"value"`
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
}

// Config declares how one attribute is searched. It is a plain
// declarative struct; Normalize fills defaults and Validate catches
// broken declarations before a registry is built.
type Config struct {
	DType     DType
	Multiple  bool
	Exclusive bool
	QueryMode QueryMode
	Unit      string
	Options   []Option
	Global    bool
	Default   Value
	Resources []Resource
	// Aggregation defaults requested alongside the query.
	Aggregation *Aggregation
}

// Aggregation declares the default server-side summary for a filter.
type Aggregation struct {
	Type AggType
	Size int
}

// AggType is the kind of aggregation requested for a filter.
type AggType string

// Supported aggregation kinds.
const (
	AggTerms     AggType = "terms"
	AggHistogram AggType = "histogram"
	AggMinMax    AggType = "min_max"
)

// Normalize returns a copy with defaults filled in: dtype string,
// query mode any for multi-valued filters, resources entries+materials.
func (c Config) Normalize() Config {
	if c.DType == "" {
		c.DType = String
	}
	if c.Multiple && c.QueryMode == "" {
		c.QueryMode = QueryAny
	}
	if len(c.Resources) == 0 {
		c.Resources = []Resource{Entries, Materials}
	}
	return c
}

// Validate rejects broken declarations. These are programming errors
// in the registration table, caught when the registry is built.
func (c Config) Validate() error {
	if !c.DType.IsValid() {
		return fmt.Errorf("invalid dtype %q", c.DType)
	}
	if c.QueryMode != "" && !c.QueryMode.IsValid() {
		return fmt.Errorf("invalid query mode %q", c.QueryMode)
	}
	if c.QueryMode != "" && !c.Multiple {
		return fmt.Errorf("query mode %q requires multiple", c.QueryMode)
	}
	if !c.Default.IsZero() && !c.Global {
		return fmt.Errorf("default value requires global")
	}
	if c.DType == Enum && len(c.Options) == 0 {
		return fmt.Errorf("enum filter declares no options")
	}
	return nil
}

// HasResource reports whether the filter applies to the given kind.
func (c Config) HasResource(r Resource) bool {
	for _, res := range c.Resources {
		if res == r {
			return true
		}
	}
	return false
}

// Merge combines an existing query value with a newly set one per the
// filter's multiplicity semantics: exclusive and single-valued filters
// replace; multi-valued filters union under query mode all and replace
// the whole set under query mode any.
func (c Config) Merge(old, incoming Value) Value {
	if !c.Multiple || c.Exclusive {
		return incoming
	}
	if c.QueryMode == QueryAll {
		return old.Union(incoming)
	}
	if incoming.Kind() == KindScalar {
		return Set(incoming.Items()...)
	}
	return incoming
}
