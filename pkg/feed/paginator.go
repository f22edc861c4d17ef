package feed

import (
	"context"
	"errors"
	"sync"

	"fanclub/pkg/apperr"
	"fanclub/pkg/metrics"
)

var (
	// ErrInFlight is returned when a page request is already running for the list; the call is dropped.
	ErrInFlight = errors.New("feed: page request already in flight")
	// ErrExhausted is returned once the server has reported has_more=false.
	ErrExhausted = errors.New("feed: no more pages")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("feed: paginator closed")
	// ErrStale is returned to the caller whose response arrived after a filter change or Close.
	ErrStale = errors.New("feed: response discarded")
)

// Common filters for postings lists. Other lists use FilterAll.
const (
	FilterAll        = "all"
	FilterMembership = "membership"
	FilterPurchase   = "purchase"
)

// Page is one server page. NextCursor is opaque and nil when there is nothing after it.
type Page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// PageFetcher loads one page. A nil cursor means from the start.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, filter string, cursor *string, limit int) (Page[T], error)
}

// FetcherFunc adapts a function to PageFetcher.
type FetcherFunc[T any] func(ctx context.Context, filter string, cursor *string, limit int) (Page[T], error)

func (f FetcherFunc[T]) FetchPage(ctx context.Context, filter string, cursor *string, limit int) (Page[T], error) {
	return f(ctx, filter, cursor, limit)
}

// Paginator accumulates the pages of one list.
//
// At most one request runs at a time. Responses are applied only if no filter
// change, reset or Close happened while they were in flight.
type Paginator[T Identifiable] struct {
	name     string
	fetcher  PageFetcher[T]
	pageSize int

	mu         sync.Mutex
	filter     string
	items      []T
	cursor     *string
	hasMore    bool
	inFlight   bool
	generation uint64
	cancel     context.CancelFunc
	closed     bool
}

// New creates a paginator. name labels its metrics (e.g. "postings").
func New[T Identifiable](name string, fetcher PageFetcher[T], pageSize int, filter string) *Paginator[T] {
	if filter == "" {
		filter = FilterAll
	}
	return &Paginator[T]{
		name:     name,
		fetcher:  fetcher,
		pageSize: pageSize,
		filter:   filter,
		hasMore:  true,
	}
}

// NextPage fetches the page after the current cursor and merges it into Items.
// It returns the page as received from the server.
func (p *Paginator[T]) NextPage(ctx context.Context) (Page[T], error) {
	p.mu.Lock()
	switch {
	case p.closed:
		p.mu.Unlock()
		return Page[T]{}, ErrClosed
	case p.inFlight:
		p.mu.Unlock()
		metrics.PaginatorFetches.WithLabelValues(p.name, "dropped").Inc()
		return Page[T]{}, ErrInFlight
	case !p.hasMore:
		p.mu.Unlock()
		return Page[T]{}, ErrExhausted
	}

	reqCtx, cancel := context.WithCancel(ctx)
	p.inFlight = true
	p.cancel = cancel
	generation := p.generation
	filter := p.filter
	cursor := copyCursor(p.cursor)
	p.mu.Unlock()

	page, err := p.fetcher.FetchPage(reqCtx, filter, cursor, p.pageSize)
	cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	if generation != p.generation {
		metrics.PaginatorFetches.WithLabelValues(p.name, "stale").Inc()
		return Page[T]{}, ErrStale
	}
	p.inFlight = false
	p.cancel = nil

	if err != nil {
		metrics.PaginatorFetches.WithLabelValues(p.name, "error").Inc()
		if _, classified := asAppErr(err); classified {
			return Page[T]{}, err
		}
		return Page[T]{}, apperr.Network(err, "failed to load %s", p.name)
	}

	p.items = MergeAndDedupe(p.items, page.Items)
	p.cursor = copyCursor(page.NextCursor)
	// has_more without a cursor would restart the list from the top
	p.hasMore = page.HasMore && page.NextCursor != nil
	metrics.PaginatorFetches.WithLabelValues(p.name, "ok").Inc()
	return page, nil
}

// SetFilter switches the list to filter. Items and cursor are cleared before
// the next fetch, and any in-flight response is discarded.
func (p *Paginator[T]) SetFilter(filter string) {
	if filter == "" {
		filter = FilterAll
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filter = filter
	p.resetLocked()
}

// Reset restarts the list under the current filter.
func (p *Paginator[T]) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
}

// Close is called when the view owning the list goes away. The in-flight
// request is cancelled and its response ignored.
func (p *Paginator[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	p.closed = true
}

func (p *Paginator[T]) resetLocked() {
	p.generation++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.inFlight = false
	p.items = nil
	p.cursor = nil
	p.hasMore = true
}

// Items returns a copy of the accumulated items.
func (p *Paginator[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]T, len(p.items))
	copy(out, p.items)
	return out
}

// Update replaces the item with the same key in place, e.g. after a like toggled locally.
// It reports whether the item was found.
func (p *Paginator[T]) Update(item T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.items {
		if p.items[i].Key() == item.Key() {
			p.items[i] = item
			return true
		}
	}
	return false
}

// Find returns the accumulated item with key.
func (p *Paginator[T]) Find(key string) (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, item := range p.items {
		if item.Key() == key {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (p *Paginator[T]) Cursor() *string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyCursor(p.cursor)
}

func (p *Paginator[T]) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

func (p *Paginator[T]) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight
}

func (p *Paginator[T]) Filter() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

func copyCursor(c *string) *string {
	if c == nil {
		return nil
	}
	v := *c
	return &v
}

func asAppErr(err error) (*apperr.Error, bool) {
	var e *apperr.Error
	ok := errors.As(err, &e)
	return e, ok
}
