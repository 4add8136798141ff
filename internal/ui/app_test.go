package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/hnterm/internal/config"
	"github.com/abelbrown/hnterm/internal/store"
)

// mockCache records the commands the App asks for.
type mockCache struct {
	loads     []store.Category
	refreshes []store.Category
	outdated  map[store.Category]bool
	stories   map[store.Category][]store.Story
	copied    []string
	copyErr   error
}

func (m *mockCache) load(cat store.Category) tea.Cmd {
	m.loads = append(m.loads, cat)
	stories := m.stories[cat]
	return func() tea.Msg {
		return StoriesLoaded{Category: cat, Stories: stories, FetchedAt: time.Now()}
	}
}

func (m *mockCache) isOutdated(cat store.Category) bool {
	return m.outdated[cat]
}

func (m *mockCache) refresh(cat store.Category) tea.Cmd {
	m.refreshes = append(m.refreshes, cat)
	return func() tea.Msg {
		return RefreshDone{Category: cat}
	}
}

func (m *mockCache) copy(text string) error {
	if m.copyErr != nil {
		return m.copyErr
	}
	m.copied = append(m.copied, text)
	return nil
}

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func testStories(n int) []store.Story {
	stories := make([]store.Story, n)
	for i := range stories {
		id := 100 + i
		stories[i] = store.Story{
			ID:           intPtr(id),
			Rank:         intPtr(i + 1),
			Title:        "Story " + string(rune('A'+i%26)),
			URL:          "https://example.com/" + string(rune('a'+i%26)),
			Domain:       "https://example.com",
			Score:        intPtr(10 * (i + 1)),
			Submitter:    strPtr("alice"),
			SubmitterURL: strPtr("https://news.ycombinator.com/user?id=alice"),
			CommentCount: intPtr(i),
			CommentsURL:  "https://news.ycombinator.com/item?id=" + string(rune('0'+i%10)),
		}
	}
	return stories
}

func newTestApp(t *testing.T, m *mockCache) App {
	t.Helper()
	cfg, err := config.Defaults()
	if err != nil {
		t.Fatalf("config defaults: %v", err)
	}
	return NewApp(Config{
		Load:        m.load,
		Outdated:    m.isOutdated,
		Refresh:     m.refresh,
		Category:    store.CategoryTop,
		Keybindings: cfg.Keybindings,
		Interface:   cfg.Interface,
		Copy:        m.copy,
	})
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	model, cmd := a.Update(msg)
	return model.(App), cmd
}

func TestAppInitLoadsFreshCategory(t *testing.T) {
	m := &mockCache{}
	app := newTestApp(t, m)

	if cmd := app.Init(); cmd == nil {
		t.Fatal("Init should return a command")
	}
	if len(m.loads) != 1 || m.loads[0] != store.CategoryTop {
		t.Errorf("Init should load top, got %v", m.loads)
	}
	if len(m.refreshes) != 0 {
		t.Errorf("fresh category should not be refreshed, got %v", m.refreshes)
	}
}

func TestAppInitRefreshesOutdatedCategory(t *testing.T) {
	m := &mockCache{outdated: map[store.Category]bool{store.CategoryTop: true}}
	app := newTestApp(t, m)

	app.Init()
	if len(m.refreshes) != 1 || m.refreshes[0] != store.CategoryTop {
		t.Errorf("outdated category should be refreshed, got %v", m.refreshes)
	}
}

func TestAppStoriesLoaded(t *testing.T) {
	m := &mockCache{}
	app := newTestApp(t, m)

	app, _ = update(t, app, StoriesLoaded{Category: store.CategoryTop, Stories: testStories(3)})
	if len(app.Stories()) != 3 {
		t.Fatalf("expected 3 stories, got %d", len(app.Stories()))
	}

	// Stale result for another category is ignored.
	app, _ = update(t, app, StoriesLoaded{Category: store.CategoryJobs, Stories: testStories(1)})
	if len(app.Stories()) != 3 {
		t.Errorf("stories from another category replaced the list")
	}
}

func TestAppNavigation(t *testing.T) {
	app := newTestApp(t, &mockCache{})
	app.stories = testStories(3)

	app, _ = update(t, app, keyRune('j'))
	if app.Cursor() != 1 {
		t.Errorf("j should move cursor to 1, got %d", app.Cursor())
	}

	app, _ = update(t, app, keyRune('k'))
	if app.Cursor() != 0 {
		t.Errorf("k should move cursor to 0, got %d", app.Cursor())
	}

	app, _ = update(t, app, keyRune('k'))
	if app.Cursor() != 0 {
		t.Errorf("k at top should keep cursor at 0, got %d", app.Cursor())
	}

	app, _ = update(t, app, keyRune('G'))
	if app.Cursor() != 2 {
		t.Errorf("G should move cursor to 2, got %d", app.Cursor())
	}

	app, _ = update(t, app, keyRune('j'))
	if app.Cursor() != 2 {
		t.Errorf("j at bottom should keep cursor at 2, got %d", app.Cursor())
	}

	app, _ = update(t, app, keyRune('g'))
	if app.Cursor() != 0 {
		t.Errorf("g should move cursor to 0, got %d", app.Cursor())
	}

	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyDown})
	if app.Cursor() != 1 {
		t.Errorf("down arrow should move cursor to 1, got %d", app.Cursor())
	}

	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyUp})
	if app.Cursor() != 0 {
		t.Errorf("up arrow should move cursor to 0, got %d", app.Cursor())
	}
}

func TestAppPaging(t *testing.T) {
	app := newTestApp(t, &mockCache{})
	app, _ = update(t, app, tea.WindowSizeMsg{Width: 100, Height: 12})
	app.stories = testStories(60)

	page := app.pageSize()
	if page < 1 {
		t.Fatalf("page size = %d", page)
	}

	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyCtrlD})
	if app.Cursor() != page {
		t.Errorf("ctrl+d should move one page to %d, got %d", page, app.Cursor())
	}

	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyCtrlU})
	if app.Cursor() != 0 {
		t.Errorf("ctrl+u should move back to 0, got %d", app.Cursor())
	}

	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyCtrlU})
	if app.Cursor() != 0 {
		t.Errorf("ctrl+u at top should stay at 0, got %d", app.Cursor())
	}

	app.cursor = 58
	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyCtrlD})
	if app.Cursor() != 59 {
		t.Errorf("ctrl+d near the end should clamp to 59, got %d", app.Cursor())
	}
}

func TestAppSwitchCategory(t *testing.T) {
	m := &mockCache{outdated: map[store.Category]bool{store.CategoryNewest: true}}
	app := newTestApp(t, m)
	app.stories = testStories(3)
	app.cursor = 2

	app, cmd := update(t, app, keyRune('n'))
	if app.Category() != store.CategoryNewest {
		t.Fatalf("n should switch to newest, got %q", app.Category())
	}
	if cmd == nil {
		t.Fatal("switching category should return a command")
	}
	if app.Cursor() != 0 || len(app.Stories()) != 0 {
		t.Errorf("switch should reset the list, cursor=%d stories=%d", app.Cursor(), len(app.Stories()))
	}
	if len(m.loads) != 1 || m.loads[0] != store.CategoryNewest {
		t.Errorf("expected a load of newest, got %v", m.loads)
	}
	if len(m.refreshes) != 1 || m.refreshes[0] != store.CategoryNewest {
		t.Errorf("outdated newest should be refreshed, got %v", m.refreshes)
	}

	// Fresh category: load only.
	app, _ = update(t, app, keyRune('J'))
	if app.Category() != store.CategoryJobs {
		t.Fatalf("J should switch to jobs, got %q", app.Category())
	}
	if len(m.refreshes) != 1 {
		t.Errorf("fresh jobs should not be refreshed, got %v", m.refreshes)
	}

	// Same category again is a no-op.
	_, cmd = update(t, app, keyRune('J'))
	if cmd != nil {
		t.Error("selecting the current category should do nothing")
	}
}

func TestAppAllCategoryKeys(t *testing.T) {
	keys := map[rune]store.Category{
		'n': store.CategoryNewest,
		'b': store.CategoryBest,
		'd': store.CategoryShow,
		'D': store.CategoryShowNewest,
		'a': store.CategoryAsk,
		'J': store.CategoryJobs,
		't': store.CategoryTop,
	}
	for r, want := range keys {
		app := newTestApp(t, &mockCache{})
		if want == store.CategoryTop {
			app.category = store.CategoryAsk
		}
		app, _ = update(t, app, keyRune(r))
		if app.Category() != want {
			t.Errorf("%q: category = %q, want %q", r, app.Category(), want)
		}
	}
}

func TestAppRefreshKey(t *testing.T) {
	m := &mockCache{}
	app := newTestApp(t, m)

	app, cmd := update(t, app, keyRune('r'))
	if cmd == nil {
		t.Fatal("r should return a refresh command")
	}
	if len(m.refreshes) != 1 {
		t.Fatalf("expected 1 refresh, got %d", len(m.refreshes))
	}

	// A second press while the first is running is ignored.
	_, cmd = update(t, app, keyRune('r'))
	if cmd != nil || len(m.refreshes) != 1 {
		t.Errorf("refresh already in flight should not start another (refreshes=%d)", len(m.refreshes))
	}
}

func TestAppRefreshDone(t *testing.T) {
	m := &mockCache{}
	app := newTestApp(t, m)
	app, _ = update(t, app, keyRune('r'))

	app, cmd := update(t, app, RefreshDone{Category: store.CategoryTop})
	if cmd == nil {
		t.Fatal("successful refresh should reload the list")
	}
	if len(m.loads) != 1 {
		t.Errorf("expected a reload, got %v", m.loads)
	}
	if app.isRefreshing() {
		t.Error("refresh flag should be cleared")
	}
}

func TestAppRefreshFailureKeepsList(t *testing.T) {
	m := &mockCache{}
	app := newTestApp(t, m)
	app.stories = testStories(2)

	app, cmd := update(t, app, RefreshDone{Category: store.CategoryTop, Err: errors.New("HTTP 503")})
	if cmd != nil {
		t.Error("failed refresh should not reload")
	}
	if app.Err() == nil {
		t.Error("failed refresh should show an error")
	}
	if len(app.Stories()) != 2 {
		t.Errorf("old list should remain, got %d stories", len(app.Stories()))
	}

	// Any key dismisses the error.
	app, _ = update(t, app, keyRune('j'))
	if app.Err() != nil {
		t.Error("key press should clear the error")
	}
}

func TestAppPollTick(t *testing.T) {
	m := &mockCache{}
	app := newTestApp(t, m)
	app.category = store.CategoryBest

	_, cmd := update(t, app, PollTick{})
	if cmd == nil {
		t.Fatal("poll tick should refresh")
	}
	if len(m.refreshes) != 1 || m.refreshes[0] != store.CategoryBest {
		t.Errorf("poll should refresh the category on screen, got %v", m.refreshes)
	}
}

func TestAppShowLinks(t *testing.T) {
	app := newTestApp(t, &mockCache{})
	app.stories = testStories(2)

	app, cmd := update(t, app, keyRune('s'))
	if app.Status() != "https://example.com/a" {
		t.Errorf("s status = %q", app.Status())
	}
	if cmd == nil {
		t.Error("showing a link should schedule clearing it")
	}

	app, _ = update(t, app, keyRune('c'))
	if !strings.HasPrefix(app.Status(), "https://news.ycombinator.com/item?id=") {
		t.Errorf("c status = %q", app.Status())
	}

	app, _ = update(t, app, keyRune('u'))
	if app.Status() != "https://news.ycombinator.com/user?id=alice" {
		t.Errorf("u status = %q", app.Status())
	}
}

func TestAppShowLinkMissing(t *testing.T) {
	app := newTestApp(t, &mockCache{})
	app.stories = []store.Story{{Title: "Acme is hiring", URL: "https://acme.example/jobs"}}

	app, _ = update(t, app, keyRune('c'))
	if !strings.Contains(app.Status(), "no comments link") {
		t.Errorf("status = %q", app.Status())
	}
	app, _ = update(t, app, keyRune('u'))
	if !strings.Contains(app.Status(), "no submitter link") {
		t.Errorf("status = %q", app.Status())
	}
}

func TestAppCopyLinks(t *testing.T) {
	m := &mockCache{}
	app := newTestApp(t, m)
	app.stories = testStories(1)

	app, _ = update(t, app, keyRune('S'))
	app, _ = update(t, app, keyRune('U'))
	if len(m.copied) != 2 {
		t.Fatalf("expected 2 copies, got %v", m.copied)
	}
	if m.copied[0] != "https://example.com/a" || m.copied[1] != "https://news.ycombinator.com/user?id=alice" {
		t.Errorf("copied = %v", m.copied)
	}
	if !strings.HasPrefix(app.Status(), "copied ") {
		t.Errorf("status = %q", app.Status())
	}

	m.copyErr = errors.New("no clipboard")
	app, _ = update(t, app, keyRune('C'))
	if app.Err() == nil {
		t.Error("clipboard failure should surface as an error")
	}
}

func TestAppStatusClears(t *testing.T) {
	app := newTestApp(t, &mockCache{})
	app.stories = testStories(1)

	app, _ = update(t, app, keyRune('s'))
	first := app.statusSeq
	app, _ = update(t, app, keyRune('c'))

	// The older timer must not clear the newer message.
	app, _ = update(t, app, statusCleared{seq: first})
	if app.Status() == "" {
		t.Error("stale clear removed a newer status")
	}
	app, _ = update(t, app, statusCleared{seq: app.statusSeq})
	if app.Status() != "" {
		t.Errorf("status should be cleared, got %q", app.Status())
	}
}

func TestAppNoStoriesKeysAreSafe(t *testing.T) {
	app := newTestApp(t, &mockCache{})
	for _, r := range []rune{'j', 'k', 'g', 'G', 's', 'S', 'c', 'u'} {
		app, _ = update(t, app, keyRune(r))
	}
	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyCtrlD})
	if app.Cursor() != 0 {
		t.Errorf("cursor moved on an empty list: %d", app.Cursor())
	}
}

func TestAppQuit(t *testing.T) {
	app := newTestApp(t, &mockCache{})
	_, cmd := update(t, app, keyRune('q'))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestAppHelpToggle(t *testing.T) {
	app := newTestApp(t, &mockCache{})
	app, _ = update(t, app, tea.WindowSizeMsg{Width: 120, Height: 40})
	short := app.listHeight()

	app, _ = update(t, app, keyRune('?'))
	if !app.help.ShowAll {
		t.Fatal("? should show full help")
	}
	if app.listHeight() >= short {
		t.Errorf("full help should take rows from the list (%d >= %d)", app.listHeight(), short)
	}
}

func TestAppView(t *testing.T) {
	app := newTestApp(t, &mockCache{})
	if app.View() != "Loading..." {
		t.Errorf("view before size = %q", app.View())
	}

	app, _ = update(t, app, tea.WindowSizeMsg{Width: 120, Height: 20})
	app, _ = update(t, app, StoriesLoaded{Category: store.CategoryTop, Stories: testStories(3), FetchedAt: time.Now()})

	view := app.View()
	for _, want := range []string{"TOP STORIES", "Story A", "example.com", "1/3"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
