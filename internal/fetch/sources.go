package fetch

import (
	"fmt"

	"github.com/abelbrown/hnterm/internal/store"
)

// Pagination says how a category reaches its later pages.
type Pagination int

const (
	// PageParam substitutes an explicit page number into the path template.
	PageParam Pagination = iota
	// FollowMore follows each page's "More" link.
	FollowMore
)

// Source describes where a category's listing lives, relative to the site root.
type Source struct {
	Category   store.Category
	Path       string // for PageParam, a template with one %d
	Pagination Pagination
}

// sources is keyed by category; paths mirror the site's own URLs.
var sources = map[store.Category]Source{
	store.CategoryTop:        {Category: store.CategoryTop, Path: "news?p=%d", Pagination: PageParam},
	store.CategoryBest:       {Category: store.CategoryBest, Path: "best?p=%d", Pagination: PageParam},
	store.CategoryAsk:        {Category: store.CategoryAsk, Path: "ask?p=%d", Pagination: PageParam},
	store.CategoryNewest:     {Category: store.CategoryNewest, Path: "newest", Pagination: FollowMore},
	store.CategoryShow:       {Category: store.CategoryShow, Path: "show", Pagination: FollowMore},
	store.CategoryShowNewest: {Category: store.CategoryShowNewest, Path: "shownew", Pagination: FollowMore},
	store.CategoryJobs:       {Category: store.CategoryJobs, Path: "jobs", Pagination: FollowMore},
}

// SourceFor returns the listing source of a category.
func SourceFor(cat store.Category) (Source, error) {
	src, ok := sources[cat]
	if !ok {
		return Source{}, fmt.Errorf("no listing source for category %q", cat)
	}
	return src, nil
}

// PagePath returns the relative path of page n (1-based) for PageParam sources.
func (s Source) PagePath(n int) string {
	return fmt.Sprintf(s.Path, n)
}
