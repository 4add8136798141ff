package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/abelbrown/hnterm/internal/store"
)

func intp(n int) *int       { return &n }
func strp(s string) *string { return &s }

func TestRefreshTargets(t *testing.T) {
	tests := []struct {
		name string
		args []string
		all  bool
		want []store.Category
		err  bool
	}{
		{"fallback", nil, false, []store.Category{store.CategoryBest}, false},
		{"all", []string{"ask"}, true, store.Categories(), false},
		{"named", []string{"ask", "jobs"}, false, []store.Category{store.CategoryAsk, store.CategoryJobs}, false},
		{"dedupe", []string{"top", "top", "newest"}, false, []store.Category{store.CategoryTop, store.CategoryNewest}, false},
		{"unknown", []string{"frontpage2"}, false, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := refreshTargets(tt.args, tt.all, store.CategoryBest)
			if tt.err {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRefreshTimeout(t *testing.T) {
	if got := refreshTimeout(10*time.Second, 2); got != 40*time.Second {
		t.Errorf("refreshTimeout(10s, 2) = %v, want 40s", got)
	}
	if got := refreshTimeout(10*time.Second, 0); got != 20*time.Second {
		t.Errorf("refreshTimeout(10s, 0) = %v, want 20s", got)
	}
}

func TestPrintStories(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	stories := []store.Story{
		{
			Rank:         intp(1),
			Title:        "Show HN: A thing",
			URL:          "https://example.com/thing",
			CommentsURL:  "https://news.ycombinator.com/item?id=1",
			Score:        intp(1234),
			Submitter:    strp("alice"),
			Published:    strp("3 hours ago"),
			CommentCount: intp(56),
		},
		{
			Title: "Acme is hiring",
			URL:   "https://acme.example/jobs",
		},
	}

	var buf bytes.Buffer
	printStories(&buf, store.CategoryShow, stories, now.Add(-10*time.Minute), true, now)
	out := buf.String()

	for _, want := range []string{
		"Show HN (fetched 10 minutes ago)",
		" 1. Show HN: A thing",
		"1,234 points | by alice | 3 hours ago | 56 comments",
		"https://example.com/thing",
		"https://news.ycombinator.com/item?id=1",
		"    Acme is hiring",
		"https://acme.example/jobs",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// The job row has no metadata line and no comments link.
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if last := lines[len(lines)-1]; strings.TrimSpace(last) != "https://acme.example/jobs" {
		t.Errorf("last line = %q, want job link", last)
	}
}

func TestReadTailLines(t *testing.T) {
	input := strings.Join([]string{
		`{"t":"2024-05-01T12:00:00Z","level":"info","kind":"fetch.complete","comp":"fetch","category":"top"}`,
		`not json`,
		`{"t":"2024-05-01T12:00:01Z","level":"debug","kind":"cache.hit","comp":"cache","category":"top"}`,
		``,
		`{"t":"2024-05-01T12:00:02Z","level":"warn","kind":"fetch.error","comp":"fetch","category":"ask"}`,
		`{"t":"2024-05-01T12:00:03Z","level":"error","kind":"refresh.error","comp":"cache","category":"ask"}`,
	}, "\n")

	all := readTailLines(strings.NewReader(input), 50, eventFilter{}.match)
	if len(all) != 4 {
		t.Fatalf("got %d lines, want 4", len(all))
	}

	last2 := readTailLines(strings.NewReader(input), 2, eventFilter{}.match)
	if len(last2) != 2 || last2[0].ev.Kind != "fetch.error" || last2[1].ev.Kind != "refresh.error" {
		t.Errorf("tail 2 = %+v", last2)
	}

	fetches := readTailLines(strings.NewReader(input), 50, eventFilter{kind: "fetch"}.match)
	if len(fetches) != 2 {
		t.Errorf("kind filter: got %d lines, want 2", len(fetches))
	}

	severe := readTailLines(strings.NewReader(input), 50, eventFilter{level: "warn"}.match)
	if len(severe) != 2 {
		t.Errorf("level filter: got %d lines, want 2", len(severe))
	}

	ask := readTailLines(strings.NewReader(input), 50, eventFilter{category: "ask", comp: "cache"}.match)
	if len(ask) != 1 || ask[0].ev.Kind != "refresh.error" {
		t.Errorf("category+comp filter = %+v", ask)
	}
}

func TestFormatEvent(t *testing.T) {
	ev := eventRecord{
		Time:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Level:     "warn",
		Kind:      "fetch.error",
		Comp:      "fetch",
		Category:  "top",
		Status:    503,
		DurMs:     12.5,
		URL:       "https://news.ycombinator.com/news?p=1",
		RefreshID: "0123456789abcdef",
		Err:       "unexpected status",
	}
	got := formatEvent(ev, []byte(`{"raw":true}`), false)
	for _, want := range []string{"WARN", "fetch.error", "cat=top", "http=503", "(12.5ms)", "rid=01234567 ", "err=unexpected status"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatEvent missing %q: %s", want, got)
		}
	}

	if raw := formatEvent(ev, []byte(`{"raw":true}`), true); raw != `{"raw":true}` {
		t.Errorf("json mode = %q", raw)
	}
}
