// Package otel provides structured observability for hnterm.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// events asynchronously via a buffered channel and background drain goroutine,
// so emitting from the fetch path never waits on disk.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an observability event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Fetch events, one per HTTP request
	KindFetchStart    EventKind = "fetch.start"
	KindFetchComplete EventKind = "fetch.complete"
	KindFetchError    EventKind = "fetch.error"

	// Category refresh events, one per Refresh call
	KindRefreshStart    EventKind = "refresh.start"
	KindRefreshComplete EventKind = "refresh.complete"
	KindRefreshError    EventKind = "refresh.error"

	// Cache events
	KindCacheHit   EventKind = "cache.hit"
	KindCacheStale EventKind = "cache.stale"
	KindStoreError EventKind = "store.error"

	// Poller
	KindPollTick EventKind = "poll.tick"

	// UI events
	KindKeyPress EventKind = "ui.key"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
)

// Event is the universal observability record. Every field except Kind and
// Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"`       // component: "fetch", "cache", "coord", "ui", "main"
	SessionID string         `json:"session_id,omitempty"` // random hex, same for entire app run
	RefreshID string         `json:"rid,omitempty"`        // refresh correlation ID
	Category  string         `json:"category,omitempty"`
	URL       string         `json:"url,omitempty"`
	Dur       time.Duration  `json:"-"`                // not serialized directly
	DurMs     float64        `json:"dur_ms,omitempty"` // computed from Dur at marshal time
	Count     int            `json:"count,omitempty"`
	Status    int            `json:"status,omitempty"` // HTTP status code
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`   // free text
	Extra     map[string]any `json:"extra,omitempty"` // escape hatch for unusual fields
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
