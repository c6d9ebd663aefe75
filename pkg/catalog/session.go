package catalog

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/pokedexsocial/pokedex/pkg/data"
)

// Source is the part of the backend a catalog session needs
type Source interface {
	Fetcher
	Filters(ctx context.Context) (*data.FilterCatalog, error)
}

// Session ties one browsing session together: the filter catalog, the
// user's draft and the pagination controller.
type Session struct {
	catalog    *data.FilterCatalog
	draft      *FilterDraft
	controller *Controller
	logger     *zap.Logger
}

// OpenSession loads the filter catalog and fetches the first page with no
// filters applied.
//
// If the catalog cannot be loaded the result is a nil session and a
// *CatalogLoadError. If only the first page fails, the session is returned
// together with the *PageFetchError so the caller can show the error and
// let the user apply again.
func OpenSession(ctx context.Context, src Source, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	catalog, err := src.Filters(ctx)
	if err != nil {
		return nil, &CatalogLoadError{Err: err}
	}
	if catalog == nil {
		return nil, &CatalogLoadError{Err: errors.New("empty filter catalog")}
	}
	if err := catalog.Validate(); err != nil {
		return nil, &CatalogLoadError{Err: err}
	}

	logger.Info("filter catalog loaded",
		zap.Int("types", len(catalog.Types)),
		zap.Int("abilities", len(catalog.Abilities)),
		zap.Int("ndexMin", catalog.NdexRange.Min),
		zap.Int("ndexMax", catalog.NdexRange.Max))

	opts.Logger = logger
	s := &Session{
		catalog:    catalog,
		draft:      NewFilterDraft(catalog),
		controller: NewController(src, catalog, opts),
		logger:     logger,
	}

	if opts.SkipInitialFetch {
		s.controller.Apply(s.draft)
		return s, nil
	}
	if err := s.Apply(ctx); err != nil {
		return s, err
	}
	return s, nil
}

func (s *Session) Catalog() *data.FilterCatalog { return s.catalog }

func (s *Session) Draft() *FilterDraft { return s.draft }

func (s *Session) Controller() *Controller { return s.controller }

func (s *Session) Mutate(m Mutation) { s.draft.Mutate(m) }

// Apply submits the draft and fetches page 0 of the new result set
func (s *Session) Apply(ctx context.Context) error {
	return s.controller.ApplyFilters(ctx, s.draft)
}

// Reset restores the draft to its defaults. The applied filters, and the
// results on screen, stay as they are until the next Apply.
func (s *Session) Reset() {
	s.draft.Reset(s.catalog)
}

func (s *Session) LoadMore(ctx context.Context) error {
	return s.controller.LoadNextPage(ctx)
}

func (s *Session) State() PaginationState { return s.controller.State() }

func (s *Session) HasMore() bool { return s.controller.HasMore() }

// Fork returns a session over the applied filter set of s with its own
// result list and a fresh draft. The first page is fetched.
func (s *Session) Fork(ctx context.Context) (*Session, error) {
	fork := &Session{
		catalog:    s.catalog,
		draft:      NewFilterDraft(s.catalog),
		controller: s.controller.Fork(),
		logger:     s.logger,
	}
	if err := fork.controller.FetchPage(ctx, 0, true); err != nil {
		return nil, err
	}
	return fork, nil
}

// FetchAll loads pages until the result set is exhausted or limit entries
// are held (limit <= 0 means no limit), and returns the accumulated items.
func (s *Session) FetchAll(ctx context.Context, limit int) ([]data.CatalogEntry, error) {
	for s.controller.HasMore() {
		if limit > 0 && len(s.controller.State().Items) >= limit {
			break
		}
		if err := s.controller.LoadNextPage(ctx); err != nil {
			return nil, err
		}
	}

	items := s.controller.State().Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
