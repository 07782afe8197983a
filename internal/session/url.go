package session

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/matdex-io/matdex/internal/domain"
	"github.com/matdex-io/matdex/internal/domain/filter"
	"github.com/matdex-io/matdex/internal/domain/pagination"
)

// Pagination query-string keys.
const (
	paramPage           = "page"
	paramPageSize       = "page_size"
	paramOrderBy        = "order_by"
	paramOrder          = "order"
	paramPageAfterValue = "page_after_value"
)

// EncodeURL serializes the user-set query and non-default pagination
// into query-string parameters. Filter names are abbreviated when the
// short form is unique; global and locked values are left out so a
// shared link carries only what the user chose.
func (s *Session) EncodeURL() (url.Values, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := url.Values{}
	for name, v := range s.query {
		f, ok := s.reg.Get(name)
		if !ok {
			return nil, domain.NewUnknownFilter(name)
		}
		raw, err := f.Config().EncodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		values.Set(s.reg.Abbreviate(name), raw)
	}

	if s.page.CursorMode() {
		if cursor := s.page.PageAfterValue(); cursor != "" {
			values.Set(paramPageAfterValue, cursor)
		}
	} else if s.page.Page() > 1 {
		values.Set(paramPage, strconv.Itoa(s.page.Page()))
	}
	if s.page.PageSize() != pagination.DefaultPageSize {
		values.Set(paramPageSize, strconv.Itoa(s.page.PageSize()))
	}
	if s.page.OrderBy() != "" {
		values.Set(paramOrderBy, s.reg.Abbreviate(s.page.OrderBy()))
		values.Set(paramOrder, string(s.page.Order()))
	}
	return values, nil
}

// ApplyURL replaces the user-set query and pagination with the state
// encoded in query-string parameters and schedules one fetch. Unknown
// filter keys and undecodable values fail the whole call without
// touching current state.
func (s *Session) ApplyURL(values url.Values) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parsed := filter.Query{}

	page := s.firstPage()
	pageSize := s.page.PageSize()
	orderBy := ""
	order := pagination.Desc
	cursor := ""

	for key, vs := range values {
		if len(vs) == 0 {
			continue
		}
		raw := vs[0]
		switch key {
		case paramPage:
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				return fmt.Errorf("invalid page %q", raw)
			}
			page = n
		case paramPageSize:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("invalid page size %q", raw)
			}
			pageSize = n
		case paramOrderBy:
			orderBy = s.reg.FullName(raw)
		case paramOrder:
			order = pagination.Order(raw)
		case paramPageAfterValue:
			cursor = raw
		default:
			f, ok := s.reg.Resolve(key)
			if !ok {
				return domain.NewUnknownFilter(key)
			}
			v, err := f.Config().DecodeValue(raw)
			if err != nil {
				return fmt.Errorf("decode %s: %w", key, err)
			}
			f.Apply(parsed, v)
		}
	}

	// The paging mode is fixed for the session's lifetime: a page
	// number cannot be restored into a cursor session, and a cursor
	// token is meaningless to a page session.
	if s.cursor && page != 0 {
		return ErrCursorMode
	}
	if !s.cursor {
		cursor = ""
	}
	req, err := pagination.NewRequest(page, pageSize, orderBy, order, cursor)
	if err != nil {
		return err
	}

	s.query = parsed
	s.page = req
	s.extending = false
	s.rows = nil
	s.schedule()
	return nil
}
