package catalog

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrStaleResponse reports that a response arrived for a filter set that
	// has since been replaced. The response was dropped; it is not a
	// user-facing failure.
	ErrStaleResponse = errors.New("response belongs to a superseded filter set")

	ErrBusy        = errors.New("a page request is already in flight")
	ErrNoMorePages = errors.New("no more pages to load")
)

// CatalogLoadError means the filter catalog could not be obtained, so no
// query can be compiled.
type CatalogLoadError struct {
	Err error
}

func (e *CatalogLoadError) Error() string {
	return fmt.Sprintf("loading filter catalog: %v", e.Err)
}

func (e *CatalogLoadError) Unwrap() error { return e.Err }

// PageFetchError means a page request failed. Pagination state is left at
// its last good value.
type PageFetchError struct {
	Page       int
	Generation uint64
	Err        error
}

func (e *PageFetchError) Error() string {
	return fmt.Sprintf("fetching page %d: %v", e.Page, e.Err)
}

func (e *PageFetchError) Unwrap() error { return e.Err }
