package expr

import (
	"errors"
	"testing"

	"github.com/matdex-io/matdex/internal/domain/filter"
	"github.com/matdex-io/matdex/internal/registry"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	b := registry.NewBuilder()
	b.Register("results.properties.electronic.band_gap", "electronic", filter.Config{
		DType: filter.Float,
		Unit:  "eV",
	})
	b.Register("results.material.n_elements", "material", filter.Config{
		DType: filter.Int,
	})
	b.Register("results.material.chemical_formula_hill", "material", filter.Config{
		DType: filter.String,
	})
	b.Register("authors.name", "metadata", filter.Config{
		DType: filter.String,
	})
	reg, err := b.Build()
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func TestParseEquality(t *testing.T) {
	reg := testRegistry(t)

	expr, err := Parse(reg, "authors.name = Curie")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if expr.Name != "authors.name" {
		t.Fatalf("unexpected name %q", expr.Name)
	}
	if got := expr.Value.Scalar(); got != "Curie" {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestParseEqualityAbbreviation(t *testing.T) {
	reg := testRegistry(t)

	expr, err := Parse(reg, "band_gap = 1.1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if expr.Name != "results.properties.electronic.band_gap" {
		t.Fatalf("abbreviation did not resolve, got %q", expr.Name)
	}
}

func TestParseEqualitySpacedValue(t *testing.T) {
	reg := testRegistry(t)

	expr, err := Parse(reg, "authors.name = Marie Curie")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := expr.Value.Scalar(); got != "Marie Curie" {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestParseSingleBound(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		bounds map[string]float64
	}{
		{
			name:   "filter left lt",
			input:  "band_gap < 2",
			bounds: map[string]float64{"lt": 2},
		},
		{
			name:   "filter left gte",
			input:  "band_gap >= 0.5",
			bounds: map[string]float64{"gte": 0.5},
		},
		{
			name:   "filter right reverses operator",
			input:  "2 < band_gap",
			bounds: map[string]float64{"gt": 2},
		},
		{
			name:   "filter right reverses lte",
			input:  "2 >= band_gap",
			bounds: map[string]float64{"lte": 2},
		},
	}

	reg := testRegistry(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			expr, err := Parse(reg, tc.input)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if expr.Name != "results.properties.electronic.band_gap" {
				t.Fatalf("unexpected name %q", expr.Name)
			}
			got := expr.Value.Range().Bounds()
			if len(got) != len(tc.bounds) {
				t.Fatalf("unexpected bounds %v", got)
			}
			for k, want := range tc.bounds {
				if got[k] != want {
					t.Fatalf("bound %s: got %v want %v", k, got[k], want)
				}
			}
		})
	}
}

func TestParseDoubleBound(t *testing.T) {
	reg := testRegistry(t)

	expr, err := Parse(reg, "3 < band_gap < 7")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := expr.Value.Range().Bounds()
	if got["gt"] != 3 || got["lt"] != 7 {
		t.Fatalf("unexpected bounds %v", got)
	}
}

func TestParseDoubleBoundInclusive(t *testing.T) {
	reg := testRegistry(t)

	expr, err := Parse(reg, "0 <= n_elements <= 4")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if expr.Name != "results.material.n_elements" {
		t.Fatalf("unexpected name %q", expr.Name)
	}
	got := expr.Value.Range().Bounds()
	if got["gte"] != 0 || got["lte"] != 4 {
		t.Fatalf("unexpected bounds %v", got)
	}
}

func TestParseDoubleBoundDescending(t *testing.T) {
	reg := testRegistry(t)

	expr, err := Parse(reg, "7 > band_gap > 3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := expr.Value.Range().Bounds()
	if got["lt"] != 7 || got["gt"] != 3 {
		t.Fatalf("unexpected bounds %v", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{name: "unknown equality name", input: "nonsense = 5", want: ErrUnknownQuantity},
		{name: "unknown sandwiched name", input: "3 < nonsense < 7", want: ErrUnknownQuantity},
		{name: "non numeric bound", input: "band_gap < foo", want: ErrInvalidNumber},
		{name: "non numeric bound filter right", input: "foo < band_gap", want: ErrInvalidNumber},
		{name: "both sides filters", input: "band_gap < n_elements", want: ErrInvalidQuery},
		{name: "neither side a filter", input: "3 < 7", want: ErrInvalidQuery},
		{name: "range on string filter", input: "authors.name < 3", want: ErrUnsupportedRangeType},
		{name: "bad number in double bound", input: "x < band_gap < 7", want: ErrInvalidNumber},
		{name: "bare text", input: "just some words", want: ErrInvalidQuery},
		{name: "empty input", input: "", want: ErrInvalidQuery},
		{name: "contradictory bounds", input: "3 < band_gap > 7", want: ErrInvalidQuery},
	}

	reg := testRegistry(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(reg, tc.input)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestQuantityErrorCarriesName(t *testing.T) {
	reg := testRegistry(t)

	_, err := Parse(reg, "nonsense = 5")
	var qerr *QuantityError
	if !errors.As(err, &qerr) {
		t.Fatalf("expected QuantityError, got %v", err)
	}
	if qerr.Name != "nonsense" {
		t.Fatalf("unexpected name %q", qerr.Name)
	}
}
