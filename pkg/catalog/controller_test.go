package catalog

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pokedexsocial/pokedex/pkg/data"
)

// fetchFunc adapts a function to the Fetcher interface
type fetchFunc func(ctx context.Context, query url.Values) (*data.ResultPage, error)

func (f fetchFunc) Search(ctx context.Context, query url.Values) (*data.ResultPage, error) {
	return f(ctx, query)
}

func entries(ndex ...int) []data.CatalogEntry {
	out := make([]data.CatalogEntry, len(ndex))
	for i, n := range ndex {
		out[i] = data.CatalogEntry{ID: n, Ndex: n, Species: "species-" + strconv.Itoa(n)}
	}
	return out
}

func ndexes(items []data.CatalogEntry) []int {
	out := make([]int, len(items))
	for i, item := range items {
		out[i] = item.Ndex
	}
	return out
}

// pagedFetcher serves two entries per page out of totalPages pages
func pagedFetcher(totalPages int) fetchFunc {
	return func(ctx context.Context, query url.Values) (*data.ResultPage, error) {
		page, _ := strconv.Atoi(query.Get("page"))
		return &data.ResultPage{
			Items:      entries(page*2+1, page*2+2),
			Page:       page,
			TotalPages: totalPages,
		}, nil
	}
}

func TestApplyReplacesAndLoadMoreAppends(t *testing.T) {
	defer goleak.VerifyNone(t)

	catalog := testCatalog()
	c := NewController(pagedFetcher(3), catalog, Options{})
	ctx := context.Background()

	require.NoError(t, c.ApplyFilters(ctx, NewFilterDraft(catalog)))
	state := c.State()
	assert.Equal(t, []int{1, 2}, ndexes(state.Items))
	assert.Equal(t, 0, state.CurrentPage)
	assert.Equal(t, 3, state.TotalPages)
	assert.True(t, state.HasMore())

	require.NoError(t, c.LoadNextPage(ctx))
	require.NoError(t, c.LoadNextPage(ctx))
	state = c.State()
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, ndexes(state.Items), "appends keep prior order")
	assert.Equal(t, 2, state.CurrentPage)
	assert.False(t, state.HasMore())

	assert.ErrorIs(t, c.LoadNextPage(ctx), ErrNoMorePages)

	require.NoError(t, c.FetchPage(ctx, 0, true))
	assert.Equal(t, []int{1, 2}, ndexes(c.State().Items), "reset replaces the list")
}

func TestLoadNextPageBeforeAnyFetch(t *testing.T) {
	c := NewController(pagedFetcher(3), testCatalog(), Options{})
	assert.ErrorIs(t, c.LoadNextPage(context.Background()), ErrNoMorePages)
}

func TestFetchPageRejectsNegativePage(t *testing.T) {
	c := NewController(pagedFetcher(3), testCatalog(), Options{})
	assert.Error(t, c.FetchPage(context.Background(), -1, false))
	assert.False(t, c.State().Loading)
}

func TestFetchUsesAppliedFilters(t *testing.T) {
	catalog := testCatalog()
	var (
		mu      sync.Mutex
		queries []url.Values
	)
	fetcher := fetchFunc(func(ctx context.Context, query url.Values) (*data.ResultPage, error) {
		mu.Lock()
		queries = append(queries, query)
		mu.Unlock()
		return &data.ResultPage{Items: entries(1), TotalPages: 2}, nil
	})
	c := NewController(fetcher, catalog, Options{})

	draft := NewFilterDraft(catalog)
	draft.Mutate(SetQuery{Query: "bulba"})
	require.NoError(t, c.ApplyFilters(context.Background(), draft))

	// Edits after Apply stay in the draft
	draft.Mutate(SetQuery{Query: "ivy"})
	require.NoError(t, c.LoadNextPage(context.Background()))

	require.Len(t, queries, 2)
	assert.Equal(t, "bulba", queries[0].Get("q"))
	assert.Equal(t, "0", queries[0].Get("page"))
	assert.Equal(t, "bulba", queries[1].Get("q"))
	assert.Equal(t, "1", queries[1].Get("page"))
	assert.Equal(t, "bulba", c.Applied().Query)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	defer goleak.VerifyNone(t)

	catalog := testCatalog()
	startedA := make(chan struct{})
	releaseA := make(chan struct{})

	fetcher := fetchFunc(func(ctx context.Context, query url.Values) (*data.ResultPage, error) {
		switch query.Get("q") {
		case "a":
			close(startedA)
			<-releaseA
			return &data.ResultPage{Items: entries(100, 101), TotalPages: 9}, nil
		default:
			return &data.ResultPage{Items: entries(200), TotalPages: 1}, nil
		}
	})
	c := NewController(fetcher, catalog, Options{RequestTimeout: -1})
	ctx := context.Background()

	draftA := NewFilterDraft(catalog)
	draftA.Mutate(SetQuery{Query: "a"})
	errA := make(chan error, 1)
	go func() { errA <- c.ApplyFilters(ctx, draftA) }()
	<-startedA

	assert.True(t, c.State().Loading)

	draftB := NewFilterDraft(catalog)
	draftB.Mutate(SetQuery{Query: "b"})
	require.NoError(t, c.ApplyFilters(ctx, draftB))

	close(releaseA)
	assert.ErrorIs(t, <-errA, ErrStaleResponse)

	state := c.State()
	assert.Equal(t, []int{200}, ndexes(state.Items))
	assert.Equal(t, 1, state.TotalPages)
	assert.False(t, state.Loading)
	assert.Equal(t, uint64(2), state.Generation)
}

func TestStaleResponseDoesNotClearLoading(t *testing.T) {
	defer goleak.VerifyNone(t)

	catalog := testCatalog()
	startedA, releaseA := make(chan struct{}), make(chan struct{})
	startedB, releaseB := make(chan struct{}), make(chan struct{})

	fetcher := fetchFunc(func(ctx context.Context, query url.Values) (*data.ResultPage, error) {
		if query.Get("q") == "a" {
			close(startedA)
			<-releaseA
			return nil, errors.New("late failure")
		}
		close(startedB)
		<-releaseB
		return &data.ResultPage{Items: entries(7), TotalPages: 1}, nil
	})
	c := NewController(fetcher, catalog, Options{RequestTimeout: -1})
	ctx := context.Background()

	draftA := NewFilterDraft(catalog)
	draftA.Mutate(SetQuery{Query: "a"})
	errA := make(chan error, 1)
	go func() { errA <- c.ApplyFilters(ctx, draftA) }()
	<-startedA

	draftB := NewFilterDraft(catalog)
	draftB.Mutate(SetQuery{Query: "b"})
	errB := make(chan error, 1)
	go func() { errB <- c.ApplyFilters(ctx, draftB) }()
	<-startedB

	close(releaseA)
	assert.ErrorIs(t, <-errA, ErrStaleResponse)
	assert.True(t, c.State().Loading, "the newer request is still in flight")

	close(releaseB)
	require.NoError(t, <-errB)
	assert.False(t, c.State().Loading)
	assert.Equal(t, []int{7}, ndexes(c.State().Items))
}

func TestSingleFlightWithinGeneration(t *testing.T) {
	defer goleak.VerifyNone(t)

	catalog := testCatalog()
	started, release := make(chan struct{}), make(chan struct{})
	var once sync.Once

	fetcher := fetchFunc(func(ctx context.Context, query url.Values) (*data.ResultPage, error) {
		once.Do(func() { close(started) })
		<-release
		return &data.ResultPage{Items: entries(1), TotalPages: 5}, nil
	})
	c := NewController(fetcher, catalog, Options{RequestTimeout: -1})

	done := make(chan error, 1)
	go func() { done <- c.ApplyFilters(context.Background(), NewFilterDraft(catalog)) }()
	<-started

	assert.ErrorIs(t, c.FetchPage(context.Background(), 1, false), ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, []int{1}, ndexes(c.State().Items))
}

func TestFailedFetchLeavesStateUnchanged(t *testing.T) {
	catalog := testCatalog()
	var fail bool
	backendErr := errors.New("backend unavailable")

	fetcher := fetchFunc(func(ctx context.Context, query url.Values) (*data.ResultPage, error) {
		if fail {
			return nil, backendErr
		}
		return pagedFetcher(4)(ctx, query)
	})
	c := NewController(fetcher, catalog, Options{})
	ctx := context.Background()

	require.NoError(t, c.ApplyFilters(ctx, NewFilterDraft(catalog)))
	before := c.State()

	fail = true
	err := c.LoadNextPage(ctx)
	require.Error(t, err)

	var fetchErr *PageFetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, 1, fetchErr.Page)
	assert.ErrorIs(t, err, backendErr)

	after := c.State()
	assert.Equal(t, before, after)
	assert.False(t, after.Loading)

	// The user retries by loading more again
	fail = false
	require.NoError(t, c.LoadNextPage(ctx))
	assert.Equal(t, []int{1, 2, 3, 4}, ndexes(c.State().Items))
}

func TestNilResponseIsAFailure(t *testing.T) {
	fetcher := fetchFunc(func(ctx context.Context, query url.Values) (*data.ResultPage, error) {
		return nil, nil
	})
	c := NewController(fetcher, testCatalog(), Options{})

	err := c.ApplyFilters(context.Background(), NewFilterDraft(testCatalog()))
	var fetchErr *PageFetchError
	assert.True(t, errors.As(err, &fetchErr))
	assert.False(t, c.State().Loading)
}

func TestHungRequestTimesOut(t *testing.T) {
	defer goleak.VerifyNone(t)

	fetcher := fetchFunc(func(ctx context.Context, query url.Values) (*data.ResultPage, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	c := NewController(fetcher, testCatalog(), Options{RequestTimeout: 20 * time.Millisecond})

	err := c.ApplyFilters(context.Background(), NewFilterDraft(testCatalog()))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, c.State().Loading, "a request that never resolves must not leave the controller busy")

	// and the controller accepts new work afterwards
	assert.ErrorIs(t, c.FetchPage(context.Background(), 0, true), context.DeadlineExceeded)
}

func TestApplyClearsPreviousResults(t *testing.T) {
	catalog := testCatalog()
	c := NewController(pagedFetcher(2), catalog, Options{})
	ctx := context.Background()

	require.NoError(t, c.ApplyFilters(ctx, NewFilterDraft(catalog)))
	require.NoError(t, c.LoadNextPage(ctx))
	require.Len(t, c.State().Items, 4)

	gen := c.Apply(NewFilterDraft(catalog))
	state := c.State()
	assert.Empty(t, state.Items)
	assert.Equal(t, 0, state.TotalPages)
	assert.Equal(t, gen, state.Generation)
}

func TestStateReturnsCopy(t *testing.T) {
	catalog := testCatalog()
	c := NewController(pagedFetcher(1), catalog, Options{})
	require.NoError(t, c.ApplyFilters(context.Background(), NewFilterDraft(catalog)))

	state := c.State()
	state.Items[0].Species = "tampered"

	assert.Equal(t, "species-1", c.State().Items[0].Species)
}

func TestLoadNextPageAcrossApplyIsStale(t *testing.T) {
	catalog := testCatalog()
	var calls int
	fetcher := fetchFunc(func(ctx context.Context, query url.Values) (*data.ResultPage, error) {
		calls++
		return pagedFetcher(3)(ctx, query)
	})
	c := NewController(fetcher, catalog, Options{})
	ctx := context.Background()

	require.NoError(t, c.ApplyFilters(ctx, NewFilterDraft(catalog)))
	old := c.State().Generation

	// A new filter set lands between reading the next page and fetching it
	c.Apply(NewFilterDraft(catalog))
	err := c.fetchPage(ctx, old, 1, false)

	assert.ErrorIs(t, err, ErrStaleResponse)
	assert.Equal(t, 1, calls, "no request is sent for a superseded generation")
	state := c.State()
	assert.Empty(t, state.Items)
	assert.False(t, state.Loading)

	require.NoError(t, c.FetchPage(ctx, 0, true), "the first page of the new set is not blocked")
	assert.Equal(t, []int{1, 2}, ndexes(c.State().Items))
}
