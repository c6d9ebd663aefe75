package catalog

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/pokedexsocial/pokedex/pkg/data"
)

const DefaultRequestTimeout = 15 * time.Second

// Fetcher runs a compiled query against the backend
type Fetcher interface {
	Search(ctx context.Context, query url.Values) (*data.ResultPage, error)
}

type Options struct {
	// RequestTimeout bounds every page request. Zero uses
	// DefaultRequestTimeout, a negative value disables the bound.
	RequestTimeout time.Duration
	Logger         *zap.Logger
	// SkipInitialFetch makes OpenSession stop after applying the default
	// filters, leaving the first fetch to the caller.
	SkipInitialFetch bool
}

// PaginationState is a copy of the controller's view of the result set
type PaginationState struct {
	CurrentPage int
	TotalPages  int
	Items       []data.CatalogEntry
	Loading     bool
	// Generation increases every time a new filter set is applied
	Generation uint64
}

func (s PaginationState) HasMore() bool {
	return s.CurrentPage+1 < s.TotalPages
}

// Controller owns the accumulated result list for the applied filter set.
//
// Every Apply starts a new generation. A response is merged only if the
// generation it was requested under is still current; anything older is
// dropped with ErrStaleResponse. Within a generation at most one request is
// in flight.
type Controller struct {
	fetcher Fetcher
	catalog *data.FilterCatalog
	timeout time.Duration
	logger  *zap.Logger

	mu          sync.Mutex
	applied     AppliedFilterSet
	generation  uint64
	inflight    bool
	currentPage int
	totalPages  int
	items       []data.CatalogEntry
}

func NewController(fetcher Fetcher, catalog *data.FilterCatalog, opts Options) *Controller {
	timeout := opts.RequestTimeout
	if timeout == 0 {
		timeout = DefaultRequestTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		fetcher: fetcher,
		catalog: catalog,
		timeout: timeout,
		logger:  logger,
	}
}

// Apply snapshots draft into a new applied filter set, clears the result
// list and starts a new generation. It does not fetch.
func (c *Controller) Apply(draft *FilterDraft) uint64 {
	applied := draft.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.applied = applied
	c.generation++
	c.inflight = false
	c.currentPage = 0
	c.totalPages = 0
	c.items = nil

	c.logger.Debug("filters applied",
		zap.Uint64("generation", c.generation),
		zap.String("query", Compile(applied, c.catalog, 0).Encode()))
	return c.generation
}

// ApplyFilters applies draft and fetches the first page of the new result
// set, replacing the list.
func (c *Controller) ApplyFilters(ctx context.Context, draft *FilterDraft) error {
	gen := c.Apply(draft)
	return c.fetchPage(ctx, gen, 0, true)
}

// LoadNextPage appends the page after the current one. The page index and
// the generation are read together, so an Apply racing this call turns it
// into ErrStaleResponse instead of appending to the new result set.
func (c *Controller) LoadNextPage(ctx context.Context) error {
	c.mu.Lock()
	next := c.currentPage + 1
	more := next < c.totalPages
	gen := c.generation
	c.mu.Unlock()

	if !more {
		return ErrNoMorePages
	}
	return c.fetchPage(ctx, gen, next, false)
}

// FetchPage requests one page of the applied filter set. With resetList
// the items replace the current list, otherwise they are appended.
//
// Failures leave the state untouched and come back as *PageFetchError.
// A response for a superseded filter set returns ErrStaleResponse.
func (c *Controller) FetchPage(ctx context.Context, page int, resetList bool) error {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()
	return c.fetchPage(ctx, gen, page, resetList)
}

// fetchPage runs the request only if gen is still the current generation
func (c *Controller) fetchPage(ctx context.Context, gen uint64, page int, resetList bool) error {
	if page < 0 {
		return errors.Errorf("invalid page index %d", page)
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return ErrStaleResponse
	}
	if c.inflight {
		c.mu.Unlock()
		return ErrBusy
	}
	query := Compile(c.applied, c.catalog, page)
	c.inflight = true
	c.mu.Unlock()

	logger := c.logger.With(
		zap.String("request", uuid.NewString()),
		zap.Uint64("generation", gen),
		zap.Int("page", page))
	logger.Debug("fetching page", zap.String("query", query.Encode()))

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := c.fetcher.Search(ctx, query)
	if err == nil && result == nil {
		err = errors.New("empty response")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		logger.Debug("discarding stale response", zap.Uint64("current", c.generation))
		return ErrStaleResponse
	}
	c.inflight = false

	if err != nil {
		logger.Warn("page fetch failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return &PageFetchError{Page: page, Generation: gen, Err: err}
	}

	if resetList {
		c.items = append([]data.CatalogEntry(nil), result.Items...)
	} else {
		c.items = append(c.items, result.Items...)
	}
	c.currentPage = result.Page
	c.totalPages = result.TotalPages

	logger.Debug("page merged",
		zap.Int("received", len(result.Items)),
		zap.Int("total", len(c.items)),
		zap.Int("totalPages", result.TotalPages),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (c *Controller) State() PaginationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return PaginationState{
		CurrentPage: c.currentPage,
		TotalPages:  c.totalPages,
		Items:       append([]data.CatalogEntry(nil), c.items...),
		Loading:     c.inflight,
		Generation:  c.generation,
	}
}

func (c *Controller) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentPage+1 < c.totalPages
}

// Fork returns a controller over the same fetcher and applied filter set
// with an empty result list. Pages fetched through it leave c untouched.
func (c *Controller) Fork() *Controller {
	applied := c.Applied()

	c.mu.Lock()
	defer c.mu.Unlock()
	return &Controller{
		fetcher:    c.fetcher,
		catalog:    c.catalog,
		timeout:    c.timeout,
		logger:     c.logger,
		applied:    applied,
		generation: 1,
	}
}

// Applied returns the current applied filter set
func (c *Controller) Applied() AppliedFilterSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	a := c.applied
	a.TypeIDs = append([]int(nil), a.TypeIDs...)
	return a
}
