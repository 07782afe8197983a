package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFilter signals a query key that is not a registered filter.
	ErrUnknownFilter = errors.New("unknown filter")
	// ErrInvalidValue signals a value that does not fit the filter's dtype.
	ErrInvalidValue = errors.New("invalid filter value")
	// ErrFilterLocked signals a mutation attempt on a locked filter.
	ErrFilterLocked = errors.New("filter is locked")
	// ErrUpstreamUnavailable signals a failed call to the search backend.
	ErrUpstreamUnavailable = errors.New("search backend unavailable")
	// ErrUpstreamRejected signals a request the search backend refused.
	ErrUpstreamRejected = errors.New("search backend rejected request")
	// ErrRateLimited signals a rate limit hit on the search backend.
	ErrRateLimited = errors.New("rate limited")
)

// UnknownFilterError wraps ErrUnknownFilter with the offending name.
type UnknownFilterError struct {
	Name string
}

func (e *UnknownFilterError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownFilter.Error(), e.Name)
}

func (e *UnknownFilterError) Unwrap() error { return ErrUnknownFilter }

// NewUnknownFilter creates an unknown filter error for the given name.
func NewUnknownFilter(name string) error {
	return &UnknownFilterError{Name: name}
}
