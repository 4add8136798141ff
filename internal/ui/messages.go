// Package ui provides the Bubble Tea TUI for hnterm.
package ui

import (
	"time"

	"github.com/abelbrown/hnterm/internal/store"
)

// StoriesLoaded is sent when a category's stories are read from the cache.
type StoriesLoaded struct {
	Category  store.Category
	Stories   []store.Story
	FetchedAt time.Time // zero if the category was never fetched
	Err       error
}

// RefreshDone is sent when a category refresh finishes.
type RefreshDone struct {
	Category store.Category
	Err      error
}

// PollTick asks the UI to refresh the category on screen.
type PollTick struct{}

// statusCleared resets the status line after a link was shown or copied.
type statusCleared struct {
	seq int
}
