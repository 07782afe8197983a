// Package table models the column layout and pagination mode of a
// result list. It is pure view bookkeeping: column declarations get
// defaults filled in, visibility is client-only state and rows are
// read through first-class accessor functions.
package table

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/matdex-io/matdex/internal/domain/result"
)

// Align is the horizontal alignment of a column.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Mode selects how a list paginates. It is fixed per table instance.
type Mode int

const (
	// ModePage renders one fixed-size page with page controls.
	ModePage Mode = iota
	// ModeLoadMore accumulates rows behind an explicit button.
	ModeLoadMore
	// ModeInfiniteScroll accumulates rows on scroll.
	ModeInfiniteScroll
)

// Extending reports whether the mode accumulates rows across fetches.
func (m Mode) Extending() bool { return m == ModeLoadMore || m == ModeInfiniteScroll }

// Accessor extracts a cell value from a row.
type Accessor func(result.Row) any

// PathAccessor builds an accessor for a dotted key path. The path is
// parsed once; lookups walk nested maps and return nil on any miss.
func PathAccessor(path string) Accessor {
	segments := strings.Split(path, ".")
	return func(row result.Row) any {
		var cur any = map[string]any(row)
		for _, seg := range segments {
			m, ok := cur.(map[string]any)
			if !ok {
				return nil
			}
			if cur, ok = m[seg]; !ok {
				return nil
			}
		}
		return cur
	}
}

// Spec declares one column. Omitted fields get defaults: the label is
// derived from the key's last dot-segment, alignment is center,
// columns sort unless said otherwise and the renderer is a path lookup
// on the key.
type Spec struct {
	Key      string
	Label    string
	Align    Align
	Sortable *bool
	Render   Accessor
}

// Column is a fully defaulted column.
type Column struct {
	Key      string
	Label    string
	Align    Align
	Sortable bool
	Render   Accessor
}

func (s Spec) normalize() Column {
	c := Column{
		Key:      s.Key,
		Label:    s.Label,
		Align:    s.Align,
		Sortable: true,
		Render:   s.Render,
	}
	if c.Label == "" {
		c.Label = labelFor(s.Key)
	}
	if c.Align == "" {
		c.Align = AlignCenter
	}
	if s.Sortable != nil {
		c.Sortable = *s.Sortable
	}
	if c.Render == nil {
		c.Render = PathAccessor(s.Key)
	}
	return c
}

// labelFor turns the last dot-segment of a key into a display label,
// "results.material.band_gap" becoming "Band gap".
func labelFor(key string) string {
	seg := key
	if i := strings.LastIndex(key, "."); i >= 0 {
		seg = key[i+1:]
	}
	seg = strings.ReplaceAll(seg, "_", " ")
	r := []rune(seg)
	if len(r) > 0 {
		r[0] = unicode.ToUpper(r[0])
	}
	return string(r)
}

// Model holds the declared columns of one table plus which of them are
// currently shown. Visibility is never persisted or sent anywhere.
type Model struct {
	mode    Mode
	columns []Column
	index   map[string]int
	hidden  map[string]bool
}

// New builds a model from column declarations. Keys must be non-empty
// and unique.
func New(mode Mode, specs ...Spec) (*Model, error) {
	m := &Model{
		mode:   mode,
		index:  make(map[string]int, len(specs)),
		hidden: make(map[string]bool),
	}
	for _, s := range specs {
		if s.Key == "" {
			return nil, fmt.Errorf("column with empty key")
		}
		if _, ok := m.index[s.Key]; ok {
			return nil, fmt.Errorf("duplicate column key %q", s.Key)
		}
		m.index[s.Key] = len(m.columns)
		m.columns = append(m.columns, s.normalize())
	}
	return m, nil
}

// MustNew is New for statically declared column sets.
func MustNew(mode Mode, specs ...Spec) *Model {
	m, err := New(mode, specs...)
	if err != nil {
		panic(err)
	}
	return m
}

// Mode returns the pagination mode the table was built with.
func (m *Model) Mode() Mode { return m.mode }

// Columns returns the full declared column set in declaration order.
func (m *Model) Columns() []Column {
	return append([]Column(nil), m.columns...)
}

// Visible returns the shown columns in declaration order.
func (m *Model) Visible() []Column {
	out := make([]Column, 0, len(m.columns))
	for _, c := range m.columns {
		if !m.hidden[c.Key] {
			out = append(out, c)
		}
	}
	return out
}

// Column looks a declared column up by key.
func (m *Model) Column(key string) (Column, bool) {
	i, ok := m.index[key]
	if !ok {
		return Column{}, false
	}
	return m.columns[i], true
}

// Show marks a column visible. Unknown keys are ignored.
func (m *Model) Show(key string) { delete(m.hidden, key) }

// Hide marks a column hidden. Unknown keys are ignored.
func (m *Model) Hide(key string) {
	if _, ok := m.index[key]; ok {
		m.hidden[key] = true
	}
}

// SetVisible replaces the visible set with exactly the given keys.
func (m *Model) SetVisible(keys ...string) {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	for _, c := range m.columns {
		if want[c.Key] {
			delete(m.hidden, c.Key)
		} else {
			m.hidden[c.Key] = true
		}
	}
}

// Cells renders one row through the visible columns, in order.
func (m *Model) Cells(row result.Row) []any {
	cols := m.Visible()
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = c.Render(row)
	}
	return out
}

// NextPageInFlight reports whether an extended list is already loading
// its next page: the cursor being requested equals the last cursor the
// server reported. Further load requests should be suppressed while it
// holds.
func NextPageInFlight(requestCursor, nextCursor string) bool {
	return nextCursor != "" && requestCursor == nextCursor
}
