package store

import (
	"fmt"
	"strings"
	"time"
)

// Category identifies one Hacker News story feed.
type Category string

const (
	CategoryTop        Category = "top"
	CategoryNewest     Category = "newest"
	CategoryBest       Category = "best"
	CategoryShow       Category = "show"
	CategoryShowNewest Category = "show_newest"
	CategoryAsk        Category = "ask"
	CategoryJobs       Category = "jobs"
)

// categories is the menu order.
var categories = []Category{
	CategoryTop,
	CategoryNewest,
	CategoryBest,
	CategoryShow,
	CategoryShowNewest,
	CategoryAsk,
	CategoryJobs,
}

// Categories returns every known category in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory maps a user-supplied name onto a Category.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "top", "news":
		return CategoryTop, nil
	case "newest", "new":
		return CategoryNewest, nil
	case "best":
		return CategoryBest, nil
	case "show":
		return CategoryShow, nil
	case "show_newest", "show-newest", "shownew":
		return CategoryShowNewest, nil
	case "ask":
		return CategoryAsk, nil
	case "jobs", "job":
		return CategoryJobs, nil
	}
	return "", fmt.Errorf("unknown category %q (valid: top, newest, best, show, show_newest, ask, jobs)", s)
}

// Label is the human-readable name shown in the header.
func (c Category) Label() string {
	switch c {
	case CategoryTop:
		return "Top stories"
	case CategoryNewest:
		return "Newest stories"
	case CategoryBest:
		return "Best stories"
	case CategoryShow:
		return "Show HN"
	case CategoryShowNewest:
		return "Show HN (newest)"
	case CategoryAsk:
		return "Ask HN"
	case CategoryJobs:
		return "Jobs"
	}
	return string(c)
}

// Story is one listing row. Pointer fields are nil when the listing did
// not carry the value; a nil Score means "unknown", not zero points.
type Story struct {
	ID           *int    `json:"id,omitempty"`
	Rank         *int    `json:"rank,omitempty"`
	Title        string  `json:"title"`
	URL          string  `json:"url"`
	Domain       string  `json:"domain"`
	Score        *int    `json:"score,omitempty"`
	Submitter    *string `json:"submitter,omitempty"`
	SubmitterURL *string `json:"submitter_url,omitempty"`
	CommentCount *int    `json:"comment_count,omitempty"`
	CommentsURL  string  `json:"comments_url"`
	Published    *string `json:"published,omitempty"`
}

// Entry is the cached story list for one category.
type Entry struct {
	Category  Category
	Stories   []Story
	FetchedAt time.Time
}

// Age reports how old the entry is relative to now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}
