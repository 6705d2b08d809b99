package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a category or bill key is unknown
var ErrNotFound = errors.New("not found")

// FetchError describes a failed call to a remote data source
type FetchError struct {
	Resource string
	ID       string
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("failed to fetch %s %s: status %d", e.Resource, e.ID, e.Status)
	}
	return fmt.Sprintf("failed to fetch %s %s: %v", e.Resource, e.ID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
