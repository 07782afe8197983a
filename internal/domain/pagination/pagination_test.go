package pagination

import (
	"strings"
	"testing"
)

func TestNewRequest_ModeExclusivity(t *testing.T) {
	_, err := NewRequest(2, 10, "", "", "cursor-token")
	if err == nil {
		t.Fatal("expected error for page together with page_after_value")
	}
	if !strings.Contains(err.Error(), "mutually exclusive") {
		t.Errorf("error = %q", err)
	}
}

func TestNewRequest_Validation(t *testing.T) {
	if _, err := NewRequest(-1, 0, "", "", ""); err == nil {
		t.Fatal("expected error for negative page")
	}
	if _, err := NewRequest(0, MaxPageSize+1, "", "", ""); err == nil {
		t.Fatal("expected error for oversized page size")
	}
	if _, err := NewRequest(0, 10, "band_gap", "upwards", ""); err == nil {
		t.Fatal("expected error for invalid order")
	}
	if _, err := NewRequest(1, 10, "band_gap", Desc, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCombine_RequestOverridesResponse(t *testing.T) {
	req, _ := NewRequest(0, 10, "", "", "")
	c := Combine(req, Response{PageSize: 20, Total: 5})
	if c.PageSize() != 10 {
		t.Errorf("PageSize() = %d, want 10", c.PageSize())
	}
	if c.Total() != 5 {
		t.Errorf("Total() = %d, want 5", c.Total())
	}
}

func TestCombine_ResponseFillsDefaults(t *testing.T) {
	req, _ := NewRequest(0, 0, "", "", "")
	c := Combine(req, Response{Page: 1, PageSize: 20, OrderBy: "upload_create_time", Order: Desc, Total: 100})
	if c.Page() != 1 || c.PageSize() != 20 {
		t.Errorf("page/size = %d/%d", c.Page(), c.PageSize())
	}
	if c.OrderBy() != "upload_create_time" || c.Order() != Desc {
		t.Errorf("order = %q %q", c.OrderBy(), c.Order())
	}
}

func TestCombine_CursorMode(t *testing.T) {
	req, _ := NewRequest(0, 10, "entry_id", Asc, "abc")
	c := Combine(req, Response{Total: 42, NextPageAfterValue: "def"})
	if c.PageAfterValue() != "abc" {
		t.Errorf("PageAfterValue() = %q", c.PageAfterValue())
	}
	if c.NextPageAfterValue() != "def" {
		t.Errorf("NextPageAfterValue() = %q", c.NextPageAfterValue())
	}
	if !c.HasMore() {
		t.Error("HasMore() = false with a fresh cursor")
	}
}

func TestCombine_PageModeIgnoresCursors(t *testing.T) {
	req, _ := NewRequest(3, 10, "", "", "")
	c := Combine(req, Response{Total: 42, NextPageAfterValue: "def"})
	if c.PageAfterValue() != "" || c.NextPageAfterValue() != "" {
		t.Error("page mode must not carry cursor values")
	}
	if c.Page() != 3 {
		t.Errorf("Page() = %d", c.Page())
	}
}

func TestHasMore_InFlightCursor(t *testing.T) {
	req, _ := NewRequest(0, 10, "", "", "same")
	c := Combine(req, Response{NextPageAfterValue: "same"})
	if c.HasMore() {
		t.Error("HasMore() = true while cursor equals next cursor")
	}
}

func TestRequestWith(t *testing.T) {
	req, _ := NewRequest(0, 10, "", "", "abc")
	paged := req.WithPage(2)
	if paged.Page() != 2 || paged.PageAfterValue() != "" {
		t.Error("WithPage should clear cursor state")
	}
	scrolled := paged.WithPageAfterValue("xyz")
	if scrolled.Page() != 0 || scrolled.PageAfterValue() != "xyz" {
		t.Error("WithPageAfterValue should clear page state")
	}
	if !scrolled.CursorMode() {
		t.Error("CursorMode() = false after WithPageAfterValue")
	}
}
