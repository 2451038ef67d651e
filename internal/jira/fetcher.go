package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Searcher runs a single page of a JQL search. *Client implements it.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) (*Outcome, error)
}

// Page describes one fetched page of a paginated search.
type Page struct {
	Number  int
	StartAt int
	Count   int
	Total   int
}

// SearchResult holds every issue matched by a paginated search.
type SearchResult struct {
	Issues []json.RawMessage
	Total  int
	Pages  int
}

// Fetcher drives sequential search pages until the total reported by the
// first page is covered.
type Fetcher struct {
	searcher Searcher
	pageSize int
	onPage   func(Page)
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithPageObserver registers fn to be called after each page is fetched.
func WithPageObserver(fn func(Page)) FetcherOption {
	return func(f *Fetcher) {
		f.onPage = fn
	}
}

// NewFetcher creates a Fetcher over s. A pageSize below 1 means
// DefaultPageSize.
func NewFetcher(s Searcher, pageSize int, opts ...FetcherOption) *Fetcher {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	f := &Fetcher{searcher: s, pageSize: pageSize}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// PageSize returns the number of issues requested per page.
func (f *Fetcher) PageSize() int {
	return f.pageSize
}

// FetchAll returns every issue matching jql. Any failure, on any page,
// discards what was accumulated so far: the result is all or nothing.
func (f *Fetcher) FetchAll(
	ctx context.Context,
	jql string,
	fields []string,
) (*SearchResult, error) {
	var (
		issues []json.RawMessage
		offset int
		total  int
		pages  int
	)

	for {
		out, err := f.searcher.Search(ctx, SearchRequest{
			JQL:        jql,
			StartAt:    offset,
			MaxResults: f.pageSize,
			Fields:     fields,
		})
		if err != nil {
			return nil, err
		}
		if err := out.Expect(http.StatusOK); err != nil {
			return nil, err
		}

		var page SearchResponse
		if err := out.Decode(&page); err != nil {
			return nil, fmt.Errorf("reading search page at %d: %w", offset, err)
		}

		// The first page fixes the total; later pages are assumed to agree.
		if pages == 0 {
			total = page.Total
		}
		pages++
		issues = append(issues, page.Issues...)

		if f.onPage != nil {
			f.onPage(Page{
				Number:  pages,
				StartAt: offset,
				Count:   len(page.Issues),
				Total:   total,
			})
		}

		if offset+f.pageSize >= total {
			break
		}
		offset += f.pageSize
	}

	if issues == nil {
		issues = []json.RawMessage{}
	}

	return &SearchResult{Issues: issues, Total: total, Pages: pages}, nil
}
