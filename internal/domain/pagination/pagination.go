// Package pagination models the two paging modes a result list can
// run in: page-number paging and cursor ("after value") scrolling.
// Exactly one mode drives a given list.
package pagination

import "fmt"

// Order is the sort direction.
type Order string

// Sort directions.
const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// IsValid checks if the order is one of the supported values.
func (o Order) IsValid() bool { return o == Asc || o == Desc }

// Paging limits.
const (
	DefaultPageSize = 20
	MaxPageSize     = 500
)

// Request is the client-side paging state sent with a search.
type Request struct {
	page           int
	pageSize       int
	orderBy        string
	order          Order
	pageAfterValue string
}

// NewRequest validates paging parameters. A page number and a cursor
// value are mutually exclusive drivers of the same list.
func NewRequest(page, pageSize int, orderBy string, order Order, pageAfterValue string) (Request, error) {
	if page < 0 {
		return Request{}, fmt.Errorf("page must not be negative, got %d", page)
	}
	if page > 0 && pageAfterValue != "" {
		return Request{}, fmt.Errorf("page and page_after_value are mutually exclusive")
	}
	if pageSize < 0 || pageSize > MaxPageSize {
		return Request{}, fmt.Errorf("page_size must be between 0 and %d, got %d", MaxPageSize, pageSize)
	}
	if order != "" && !order.IsValid() {
		return Request{}, fmt.Errorf("invalid order %q", order)
	}
	return Request{
		page:           page,
		pageSize:       pageSize,
		orderBy:        orderBy,
		order:          order,
		pageAfterValue: pageAfterValue,
	}, nil
}

// Page returns the 1-based page number, 0 in cursor mode.
func (r Request) Page() int { return r.page }

// PageSize returns the requested page size, 0 for server default.
func (r Request) PageSize() int { return r.pageSize }

// OrderBy returns the sort quantity.
func (r Request) OrderBy() string { return r.orderBy }

// Order returns the sort direction.
func (r Request) Order() Order { return r.order }

// PageAfterValue returns the cursor token, empty in page mode.
func (r Request) PageAfterValue() string { return r.pageAfterValue }

// CursorMode reports whether the request scrolls by cursor.
func (r Request) CursorMode() bool { return r.page == 0 }

// WithPage returns a copy switched to the given page number,
// clearing any cursor state.
func (r Request) WithPage(page int) Request {
	r.page = page
	r.pageAfterValue = ""
	return r
}

// WithPageSize returns a copy with the given page size.
func (r Request) WithPageSize(size int) Request {
	r.pageSize = size
	return r
}

// WithOrder returns a copy sorted by the given quantity and direction.
func (r Request) WithOrder(orderBy string, order Order) Request {
	r.orderBy = orderBy
	r.order = order
	return r
}

// WithPageAfterValue returns a copy scrolled to the given cursor,
// clearing any page number.
func (r Request) WithPageAfterValue(cursor string) Request {
	r.pageAfterValue = cursor
	r.page = 0
	return r
}

// Response is the paging state reported by the search backend.
type Response struct {
	Total              int64
	Page               int
	PageSize           int
	OrderBy            string
	Order              Order
	NextPageAfterValue string
}

// Combined is the effective paging state a result list renders:
// explicit request values override response-provided defaults, the
// total always comes from the response, and cursor tokens are carried
// from both sides.
type Combined struct {
	page               int
	pageSize           int
	orderBy            string
	order              Order
	total              int64
	pageAfterValue     string
	nextPageAfterValue string
}

// Combine merges a request with the response it produced.
func Combine(req Request, resp Response) Combined {
	c := Combined{
		page:     req.page,
		pageSize: req.pageSize,
		orderBy:  req.orderBy,
		order:    req.order,
		total:    resp.Total,
	}
	if c.page == 0 {
		c.page = resp.Page
	}
	if c.pageSize == 0 {
		c.pageSize = resp.PageSize
	}
	if c.orderBy == "" {
		c.orderBy = resp.OrderBy
	}
	if c.order == "" {
		c.order = resp.Order
	}
	if req.CursorMode() && resp.Page == 0 {
		c.pageAfterValue = req.pageAfterValue
		c.nextPageAfterValue = resp.NextPageAfterValue
	}
	return c
}

// Page returns the effective page number, 0 in cursor mode.
func (c Combined) Page() int { return c.page }

// PageSize returns the effective page size.
func (c Combined) PageSize() int { return c.pageSize }

// OrderBy returns the effective sort quantity.
func (c Combined) OrderBy() string { return c.orderBy }

// Order returns the effective sort direction.
func (c Combined) Order() Order { return c.order }

// Total returns the server-reported result count.
func (c Combined) Total() int64 { return c.total }

// PageAfterValue returns the cursor the current slice was fetched with.
func (c Combined) PageAfterValue() string { return c.pageAfterValue }

// NextPageAfterValue returns the cursor for the next slice.
func (c Combined) NextPageAfterValue() string { return c.nextPageAfterValue }

// HasMore reports whether a further cursor fetch can yield rows.
func (c Combined) HasMore() bool {
	return c.nextPageAfterValue != "" && c.nextPageAfterValue != c.pageAfterValue
}
