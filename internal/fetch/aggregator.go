package fetch

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/hnterm/internal/metrics"
	"github.com/abelbrown/hnterm/internal/store"
)

// maxConcurrentPages limits parallel page fetches for page-numbered categories.
const maxConcurrentPages = 3

// getter interface for dependency injection (testing).
type getter interface {
	Get(ctx context.Context, url string) (string, error)
}

// Aggregator collects a category's stories across several listing pages.
type Aggregator struct {
	fetcher getter
	base    *url.URL
}

// NewAggregator creates an Aggregator resolving category paths against baseURL.
// An empty baseURL means DefaultBaseURL.
func NewAggregator(f getter, baseURL string) (*Aggregator, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if base.Path == "" {
		base.Path = "/"
	}
	return &Aggregator{fetcher: f, base: base}, nil
}

// BaseURL returns the site root the aggregator scrapes.
func (a *Aggregator) BaseURL() *url.URL {
	u := *a.base
	return &u
}

// CategoryStories fetches the first page of cat plus extraPages more and
// returns every story in page order. Any failed page fails the whole call
// and nothing fetched so far is returned.
func (a *Aggregator) CategoryStories(ctx context.Context, cat store.Category, extraPages int) ([]store.Story, error) {
	src, err := SourceFor(cat)
	if err != nil {
		return nil, err
	}
	if extraPages < 0 {
		extraPages = 0
	}

	var stories []store.Story
	switch src.Pagination {
	case PageParam:
		stories, err = a.byPageNumber(ctx, src, extraPages+1)
	default:
		stories, err = a.byMoreLinks(ctx, src, extraPages+1)
	}
	if err != nil {
		return nil, err
	}

	metrics.StoriesParsed.Add(float64(len(stories)))
	return stories, nil
}

// byPageNumber fetches pages 1..pages concurrently. Each page lands in its
// own slot so the concatenation keeps page order.
func (a *Aggregator) byPageNumber(ctx context.Context, src Source, pages int) ([]store.Story, error) {
	results := make([][]store.Story, pages)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPages)

	for i := 0; i < pages; i++ {
		pageURL := a.resolve(src.PagePath(i + 1))
		g.Go(func() error {
			page, err := a.page(gctx, pageURL)
			if err != nil {
				return err
			}
			results[i] = page.Stories
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var stories []store.Story
	for _, r := range results {
		stories = append(stories, r...)
	}
	return stories, nil
}

// byMoreLinks fetches the base page and then follows up to extra "More"
// links, stopping early on the last page.
func (a *Aggregator) byMoreLinks(ctx context.Context, src Source, extra int) ([]store.Story, error) {
	next := a.resolve(src.Path)
	seen := make(map[string]bool)

	var stories []store.Story
	for fetched := 0; fetched <= extra && next != "" && !seen[next]; fetched++ {
		seen[next] = true
		page, err := a.page(ctx, next)
		if err != nil {
			return nil, err
		}
		stories = append(stories, page.Stories...)
		next = page.Next
	}
	return stories, nil
}

func (a *Aggregator) page(ctx context.Context, pageURL string) (Page, error) {
	html, err := a.fetcher.Get(ctx, pageURL)
	if err != nil {
		return Page{}, err
	}
	page, err := ParsePage(html, a.base)
	if err != nil {
		return Page{}, fmt.Errorf("%s: %w", pageURL, err)
	}
	return page, nil
}

func (a *Aggregator) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return a.base.String() + path
	}
	return a.base.ResolveReference(ref).String()
}
