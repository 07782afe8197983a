package suggest

import "testing"

func TestMatch_TokenPrefix(t *testing.T) {
	ix := Build([]string{"band_structure", "density_of_states", "geometry_optimization"})

	got := ix.Match("band")
	if len(got) != 1 || got[0] != "band_structure" {
		t.Errorf("Match(band) = %v", got)
	}

	got = ix.Match("struct")
	if len(got) != 1 || got[0] != "band_structure" {
		t.Errorf("Match(struct) = %v", got)
	}
}

func TestMatch_UnderscoreInsensitive(t *testing.T) {
	ix := Build([]string{"band_gap"})
	got := ix.Match("bandgap")
	if len(got) != 1 || got[0] != "band_gap" {
		t.Errorf("Match(bandgap) = %v", got)
	}
}

func TestMatch_MidTokenSuffix(t *testing.T) {
	ix := Build([]string{"hexagonal"})
	got := ix.Match("gonal")
	if len(got) != 1 || got[0] != "hexagonal" {
		t.Errorf("Match(gonal) = %v", got)
	}
}

func TestMatch_CaseInsensitive(t *testing.T) {
	ix := Build([]string{"VASP", "Quantum Espresso"})
	got := ix.Match("vas")
	if len(got) != 1 || got[0] != "VASP" {
		t.Errorf("Match(vas) = %v", got)
	}
	got = ix.Match("espre")
	if len(got) != 1 || got[0] != "Quantum Espresso" {
		t.Errorf("Match(espre) = %v", got)
	}
}

func TestMatch_ExactTokenHitsFirst(t *testing.T) {
	ix := Build([]string{"optical", "topological"})
	// "op" starts a token of "optical" but only appears mid-token in
	// "topological".
	got := ix.Match("op")
	if len(got) != 2 {
		t.Fatalf("Match(op) = %v", got)
	}
	if got[0] != "optical" {
		t.Errorf("expected token-prefix match first, got %v", got)
	}
}

func TestMatch_Empty(t *testing.T) {
	ix := Build([]string{"cubic"})
	if got := ix.Match(""); got != nil {
		t.Errorf("Match(\"\") = %v", got)
	}
	if got := ix.Match("   "); got != nil {
		t.Errorf("Match(blank) = %v", got)
	}
}

func TestMatch_NoDuplicates(t *testing.T) {
	ix := Build([]string{"band_band"})
	got := ix.Match("band")
	if len(got) != 1 {
		t.Errorf("Match(band) = %v", got)
	}
}
