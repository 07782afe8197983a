package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/matdex-io/matdex/internal/domain"
	"github.com/matdex-io/matdex/internal/domain/filter"
	"github.com/matdex-io/matdex/internal/domain/pagination"
	"github.com/matdex-io/matdex/internal/domain/result"
	"github.com/matdex-io/matdex/internal/expr"
	"github.com/matdex-io/matdex/internal/logger"
	"github.com/matdex-io/matdex/internal/registry"
	healthuc "github.com/matdex-io/matdex/internal/usecase/health"
	searchuc "github.com/matdex-io/matdex/internal/usecase/search"
)

// ErrorCode identifies the class of an API error.
type ErrorCode string

const (
	CodeBadRequest          ErrorCode = "bad_request"
	CodeValidationFailed    ErrorCode = "validation_failed"
	CodeUnknownFilter       ErrorCode = "unknown_filter"
	CodeRateLimited         ErrorCode = "rate_limited"
	CodeUpstreamRejected    ErrorCode = "upstream_rejected"
	CodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	CodeUnauthorized        ErrorCode = "unauthorized"
	CodeInternalError       ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Filter  string    `json:"filter,omitempty"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the search gateway over HTTP.
type Server struct {
	reg           *registry.Registry
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	maxPageSize   int
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	reg *registry.Registry,
	search *searchuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
	maxPageSize int,
) *Server {
	if maxPageSize <= 0 {
		maxPageSize = pagination.MaxPageSize
	}
	s := &Server{
		reg:         reg,
		search:      search,
		health:      health,
		logger:      logger,
		maxPageSize: maxPageSize,
	}
	s.errorHandlers = []errorHandler{
		unknownFilterHandler,
		sentinelHandler(domain.ErrInvalidValue, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrUpstreamRejected, http.StatusUnprocessableEntity, CodeUpstreamRejected),
		sentinelHandler(domain.ErrUpstreamUnavailable, http.StatusBadGateway, CodeUpstreamUnavailable),
	}
	return s
}

// Routes mounts all API endpoints on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/v1/entries/query", s.QueryEntries)
	r.Post("/api/v1/materials/query", s.QueryMaterials)
	r.Post("/api/v1/suggestions", s.Suggest)
	r.Post("/api/v1/parse", s.ParseQuery)
	r.Get("/api/v1/filters", s.Filters)
	r.Get("/api/v1/filters/names", s.FilterNames)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type paginationRequest struct {
	Page           int    `json:"page,omitempty"`
	PageSize       int    `json:"page_size,omitempty"`
	OrderBy        string `json:"order_by,omitempty"`
	Order          string `json:"order,omitempty"`
	PageAfterValue string `json:"page_after_value,omitempty"`
}

type queryRequest struct {
	Query        map[string]json.RawMessage `json:"query"`
	Pagination   *paginationRequest         `json:"pagination"`
	Aggregations []string                   `json:"aggregations,omitempty"`
	Required     []string                   `json:"required,omitempty"`
}

type paginationResponse struct {
	Page               int    `json:"page,omitempty"`
	PageSize           int    `json:"page_size"`
	OrderBy            string `json:"order_by,omitempty"`
	Order              string `json:"order,omitempty"`
	Total              int64  `json:"total"`
	PageAfterValue     string `json:"page_after_value,omitempty"`
	NextPageAfterValue string `json:"next_page_after_value,omitempty"`
}

type queryResponse struct {
	Data         []result.Row                 `json:"data"`
	Pagination   paginationResponse           `json:"pagination"`
	Aggregations map[string][]registry.Bucket `json:"aggregations,omitempty"`
}

// QueryEntries handles POST /api/v1/entries/query.
func (s *Server) QueryEntries(w http.ResponseWriter, r *http.Request) {
	s.queryResource(w, r, filter.Entries)
}

// QueryMaterials handles POST /api/v1/materials/query.
func (s *Server) QueryMaterials(w http.ResponseWriter, r *http.Request) {
	s.queryResource(w, r, filter.Materials)
}

func (s *Server) queryResource(w http.ResponseWriter, r *http.Request, res filter.Resource) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	query, err := s.reg.DecodeQuery(req.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	page, err := s.paginationFromRequest(req.Pagination)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	resu, err := s.search.Search(r.Context(), searchuc.Request{
		Resource:     res,
		Query:        query,
		Pagination:   page,
		Aggregations: req.Aggregations,
		Required:     req.Required,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Data:         resu.Rows,
		Pagination:   paginationToResponse(resu.Pagination),
		Aggregations: resu.Aggregations,
	})
}

func (s *Server) paginationFromRequest(p *paginationRequest) (pagination.Request, error) {
	if p == nil {
		p = &paginationRequest{}
	}
	if p.PageSize > s.maxPageSize {
		return pagination.Request{}, errors.New("page_size exceeds the allowed maximum")
	}
	orderBy := p.OrderBy
	if orderBy != "" {
		orderBy = s.reg.FullName(orderBy)
	}
	return pagination.NewRequest(p.Page, p.PageSize, orderBy, pagination.Order(p.Order), p.PageAfterValue)
}

func paginationToResponse(c pagination.Combined) paginationResponse {
	return paginationResponse{
		Page:               c.Page(),
		PageSize:           c.PageSize(),
		OrderBy:            c.OrderBy(),
		Order:              string(c.Order()),
		Total:              c.Total(),
		PageAfterValue:     c.PageAfterValue(),
		NextPageAfterValue: c.NextPageAfterValue(),
	}
}

type suggestRequest struct {
	Input      string   `json:"input"`
	Quantities []string `json:"quantities,omitempty"`
}

type suggestResponse struct {
	Suggestions map[string][]searchuc.Suggestion `json:"suggestions"`
}

// Suggest handles POST /api/v1/suggestions.
func (s *Server) Suggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Input == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "input is required")
		return
	}

	suggestions, err := s.search.Suggest(r.Context(), req.Quantities, req.Input)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, suggestResponse{Suggestions: suggestions})
}

type parseRequest struct {
	Input string `json:"input"`
}

type parseResponse struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ParseQuery handles POST /api/v1/parse. It turns a free-text
// expression like "band_gap >= 1.5" into a filter assignment.
func (s *Server) ParseQuery(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	name, value, err := s.search.Parse(req.Input)
	if err != nil {
		var qe *expr.QuantityError
		if errors.As(err, &qe) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Code:    CodeUnknownFilter,
				Message: err.Error(),
				Filter:  qe.Name,
			})
			return
		}
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	f, ok := s.reg.Get(name)
	if !ok {
		s.handleDomainError(w, r, domain.NewUnknownFilter(name))
		return
	}
	encoded, err := f.Config().EncodeValue(value)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, parseResponse{Name: name, Value: encoded})
}

// Filters handles GET /api/v1/filters.
func (s *Server) Filters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"filters": s.search.Filters(),
	})
}

// FilterNames handles GET /api/v1/filters/names. With an input
// parameter it returns matching filter names, otherwise all of them.
func (s *Server) FilterNames(w http.ResponseWriter, r *http.Request) {
	input := r.URL.Query().Get("input")

	var names []string
	if input == "" {
		names = s.reg.Names()
	} else {
		names = s.search.SuggestNames(input)
	}

	writeJSON(w, http.StatusOK, map[string]any{"names": names})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrUnknownFilter,
		domain.ErrInvalidValue,
		domain.ErrFilterLocked,
		domain.ErrRateLimited,
		domain.ErrUpstreamRejected,
		domain.ErrUpstreamUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// unknownFilterHandler handles ErrUnknownFilter with the offending name in the body.
func unknownFilterHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrUnknownFilter) {
		return false
	}
	var ufe *domain.UnknownFilterError
	if errors.As(err, &ufe) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:    CodeUnknownFilter,
			Message: msg,
			Filter:  ufe.Name,
		})
		return true
	}
	writeError(w, http.StatusBadRequest, CodeUnknownFilter, msg)
	return true
}

// handleDomainError logs with the request-scoped logger when the
// middleware stored one, falling back to the server logger.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.logger
	if ctxLog, ok := logger.TryFromContext(r.Context()); ok {
		log = ctxLog
	}
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
