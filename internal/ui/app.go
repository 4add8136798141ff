package ui

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/hnterm/internal/config"
	"github.com/abelbrown/hnterm/internal/otel"
	"github.com/abelbrown/hnterm/internal/store"
)

// statusTTL is how long a shown or copied link stays in the status line.
const statusTTL = 8 * time.Second

// Config wires the App to the cache. The App never touches the store
// directly; everything arrives through these commands as messages.
type Config struct {
	// Load returns a Cmd producing StoriesLoaded for a category.
	Load func(store.Category) tea.Cmd
	// Outdated reports whether a category needs refreshing before display.
	Outdated func(store.Category) bool
	// Refresh returns a Cmd producing RefreshDone for a category.
	Refresh func(store.Category) tea.Cmd

	Category    store.Category
	Keybindings config.Keybindings
	Interface   config.Interface

	// Copy writes text to the system clipboard. Nil means atotto/clipboard.
	Copy   func(string) error
	Logger *otel.Logger
}

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT hold the cache. It receives stories via messages.
type App struct {
	load     func(store.Category) tea.Cmd
	outdated func(store.Category) bool
	refresh  func(store.Category) tea.Cmd
	copy     func(string) error
	logger   *otel.Logger

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	iface   config.Interface

	category   store.Category
	stories    []store.Story
	fetchedAt  time.Time
	cursor     int
	refreshing map[store.Category]bool
	loading    bool
	status     string
	statusSeq  int
	err        error
	width      int
	height     int
	ready      bool
}

// NewApp creates a new App showing cfg.Category (top when empty).
func NewApp(cfg Config) App {
	cat := cfg.Category
	if cat == "" {
		cat = store.CategoryTop
	}
	cp := cfg.Copy
	if cp == nil {
		cp = clipboard.WriteAll
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	h := help.New()
	h.ShortSeparator = "  "

	return App{
		load:       cfg.Load,
		outdated:   cfg.Outdated,
		refresh:    cfg.Refresh,
		copy:       cp,
		logger:     cfg.Logger,
		keys:       newKeyMap(cfg.Keybindings),
		help:       h,
		spinner:    s,
		iface:      cfg.Interface,
		category:   cat,
		refreshing: make(map[store.Category]bool),
	}
}

// Init loads the starting category, refreshing it first if it is outdated.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.open(a.category))
}

// open shows cat: cached stories first, then a refresh if they are outdated.
func (a *App) open(cat store.Category) tea.Cmd {
	var cmds []tea.Cmd
	if a.load != nil {
		a.loading = true
		cmds = append(cmds, a.load(cat))
	}
	if a.outdated != nil && a.outdated(cat) {
		cmds = append(cmds, a.startRefresh(cat))
	}
	return tea.Batch(cmds...)
}

// startRefresh issues at most one refresh per category at a time.
func (a *App) startRefresh(cat store.Category) tea.Cmd {
	if a.refresh == nil || a.refreshing[cat] {
		return nil
	}
	a.refreshing[cat] = true
	return a.refresh(cat)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.ready = true
		return a, nil

	case StoriesLoaded:
		if msg.Category != a.category {
			return a, nil
		}
		a.loading = false
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.stories = msg.Stories
		a.fetchedAt = msg.FetchedAt
		// Reset cursor if it's out of bounds
		if a.cursor >= len(a.stories) {
			a.cursor = max(len(a.stories)-1, 0)
		}
		return a, nil

	case RefreshDone:
		delete(a.refreshing, msg.Category)
		if msg.Category != a.category {
			return a, nil
		}
		if msg.Err != nil {
			// Keep showing the old list.
			a.err = msg.Err
			return a, nil
		}
		a.err = nil
		if a.load != nil {
			a.loading = true
			return a, a.load(a.category)
		}
		return a, nil

	case PollTick:
		return a, a.startRefresh(a.category)

	case statusCleared:
		if msg.seq == a.statusSeq {
			a.status = ""
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.logger.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindKeyPress, Comp: "ui", Msg: msg.String()})

	// Clear any existing error on key press
	if a.err != nil {
		a.err = nil
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return a, nil

	case key.Matches(msg, a.keys.Down):
		if a.cursor < len(a.stories)-1 {
			a.cursor++
		}
		return a, nil

	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil

	case key.Matches(msg, a.keys.PageDown):
		a.cursor = min(a.cursor+a.pageSize(), max(len(a.stories)-1, 0))
		return a, nil

	case key.Matches(msg, a.keys.PageUp):
		a.cursor = max(a.cursor-a.pageSize(), 0)
		return a, nil

	case key.Matches(msg, a.keys.First):
		a.cursor = 0
		return a, nil

	case key.Matches(msg, a.keys.Last):
		if len(a.stories) > 0 {
			a.cursor = len(a.stories) - 1
		}
		return a, nil

	case key.Matches(msg, a.keys.Refresh):
		return a, a.startRefresh(a.category)

	case key.Matches(msg, a.keys.ShowStory):
		return a.showLink("story", func(s store.Story) string { return s.URL })
	case key.Matches(msg, a.keys.ShowComments):
		return a.showLink("comments", func(s store.Story) string { return s.CommentsURL })
	case key.Matches(msg, a.keys.ShowSubmitter):
		return a.showLink("submitter", submitterURL)

	case key.Matches(msg, a.keys.CopyStory):
		return a.copyLink("story", func(s store.Story) string { return s.URL })
	case key.Matches(msg, a.keys.CopyComments):
		return a.copyLink("comments", func(s store.Story) string { return s.CommentsURL })
	case key.Matches(msg, a.keys.CopySubmitter):
		return a.copyLink("submitter", submitterURL)
	}

	for _, c := range a.keys.Categories {
		if key.Matches(msg, c.Binding) {
			return a.switchCategory(c.Category)
		}
	}

	return a, nil
}

func (a App) switchCategory(cat store.Category) (tea.Model, tea.Cmd) {
	if cat == a.category {
		return a, nil
	}
	a.category = cat
	a.stories = nil
	a.fetchedAt = time.Time{}
	a.cursor = 0
	a.status = ""
	return a, a.open(cat)
}

func submitterURL(s store.Story) string {
	if s.SubmitterURL == nil {
		return ""
	}
	return *s.SubmitterURL
}

// selected returns the story under the cursor.
func (a App) selected() (store.Story, bool) {
	if a.cursor < 0 || a.cursor >= len(a.stories) {
		return store.Story{}, false
	}
	return a.stories[a.cursor], true
}

func (a App) showLink(what string, link func(store.Story) string) (tea.Model, tea.Cmd) {
	s, ok := a.selected()
	if !ok {
		return a, nil
	}
	url := link(s)
	if url == "" {
		return a.setStatus(fmt.Sprintf("no %s link for this story", what))
	}
	return a.setStatus(url)
}

func (a App) copyLink(what string, link func(store.Story) string) (tea.Model, tea.Cmd) {
	s, ok := a.selected()
	if !ok {
		return a, nil
	}
	url := link(s)
	if url == "" {
		return a.setStatus(fmt.Sprintf("no %s link for this story", what))
	}
	if err := a.copy(url); err != nil {
		a.err = fmt.Errorf("copy %s link: %w", what, err)
		return a, nil
	}
	return a.setStatus("copied " + url)
}

func (a App) setStatus(text string) (tea.Model, tea.Cmd) {
	a.statusSeq++
	a.status = text
	seq := a.statusSeq
	return a, tea.Tick(statusTTL, func(time.Time) tea.Msg { return statusCleared{seq: seq} })
}

// pageSize is the number of story rows visible at once.
func (a App) pageSize() int {
	return max(a.listHeight(), 1)
}

// listHeight is the terminal height minus header, error bar, status bar and help.
func (a App) listHeight() int {
	h := a.height - 2
	if a.err != nil {
		h--
	}
	h -= lipgloss.Height(a.help.View(a.keys))
	return max(h, 1)
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	header := RenderHeader(a.category, a.fetchedAt, a.width, a.isRefreshing(), a.spinner.View())
	list := RenderStories(a.stories, a.cursor, a.width, a.listHeight(), a.iface)

	// Render error bar if there's an error (shown above status bar)
	errorBar := ""
	if a.err != nil {
		errorBar = ErrorStyle.Width(a.width).Render("Error: "+a.err.Error()+" (press any key to dismiss)") + "\n"
	}

	statusBar := RenderStatusBar(a.cursor, len(a.stories), a.width, a.loading, a.status, a.selectedFooter())
	helpView := HelpBar.Render(a.help.View(a.keys))

	return header + "\n" + list + errorBar + statusBar + "\n" + helpView
}

func (a App) isRefreshing() bool {
	return a.refreshing[a.category]
}

// selectedFooter describes the story under the cursor: "submitted 3 hours ago by alice".
func (a App) selectedFooter() string {
	s, ok := a.selected()
	if !ok {
		return ""
	}
	return submittedLine(s)
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Stories returns the current stories (for testing).
func (a App) Stories() []store.Story {
	return a.stories
}

// Category returns the category on screen.
func (a App) Category() store.Category {
	return a.category
}

// Status returns the status line text (for testing).
func (a App) Status() string {
	return a.status
}

// Err returns the error shown in the error bar, if any.
func (a App) Err() error {
	return a.err
}
