package ui

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/hnterm/internal/config"
	"github.com/abelbrown/hnterm/internal/store"
)

// minTitleWidth keeps titles readable on narrow terminals.
const minTitleWidth = 20

// RenderHeader renders the category title with the cache age on the right.
func RenderHeader(cat store.Category, fetchedAt time.Time, width int, refreshing bool, spin string) string {
	title := strings.ToUpper(cat.Label())

	var right string
	switch {
	case refreshing:
		right = spin + " refreshing"
	case !fetchedAt.IsZero():
		right = "fetched " + humanize.Time(fetchedAt)
	}

	left := HeaderStyle.Render(title)
	meta := HeaderMeta.Render(right + " ")
	padding := width - lipgloss.Width(left) - lipgloss.Width(meta)
	if padding < 0 {
		padding = 0
	}
	return left + HeaderMeta.Render(strings.Repeat(" ", padding)) + meta
}

// RenderStories renders one line per story, scrolled so the cursor stays visible.
func RenderStories(stories []store.Story, cursor, width, height int, iface config.Interface) string {
	if len(stories) == 0 {
		return HelpStyle.Render("No stories to display. Press 'r' to refresh.") + "\n"
	}

	if height < 1 {
		height = 1
	}
	offset := calcScrollOffset(len(stories), cursor, height)

	var b strings.Builder
	for i := offset; i < len(stories) && i < offset+height; i++ {
		b.WriteString(renderStoryLine(stories[i], i == cursor, width, iface))
		b.WriteString("\n")
	}
	return b.String()
}

// calcScrollOffset returns the first visible index so that cursor fits in height rows.
func calcScrollOffset(total, cursor, height int) int {
	if total == 0 || cursor < 0 {
		return 0
	}
	if cursor >= total {
		cursor = total - 1
	}
	if cursor >= height {
		return cursor - height + 1
	}
	return 0
}

// renderStoryLine lays out "  1. Title (host)   ...   100 pts  5 comments  3 hours ago".
func renderStoryLine(s store.Story, selected bool, width int, iface config.Interface) string {
	rank := "    "
	if s.Rank != nil {
		rank = fmt.Sprintf("%3d.", *s.Rank)
	}

	meta := storyMeta(s, iface)
	metaWidth := runewidth.StringWidth(meta)

	domain := ""
	if host := displayHost(s.Domain); host != "" {
		domain = " (" + host + ")"
	}

	titleWidth := width - runewidth.StringWidth(rank) - 1 - runewidth.StringWidth(domain) - metaWidth - 2
	if titleWidth < minTitleWidth {
		titleWidth = minTitleWidth
	}
	title := runewidth.Truncate(s.Title, titleWidth, "…")

	leftPlain := rank + " " + title + domain
	gap := width - runewidth.StringWidth(leftPlain) - metaWidth
	if gap < 1 {
		gap = 1
	}

	if selected {
		line := runewidth.FillRight(leftPlain+strings.Repeat(" ", gap)+meta, width)
		return SelectedItem.Render(line)
	}
	return RankStyle.Render(rank) + " " + NormalItem.Render(title) + DomainStyle.Render(domain) +
		strings.Repeat(" ", gap) + MetaItem.Render(meta)
}

// storyMeta joins the enabled metadata columns. Absent values are left
// out, never shown as zero.
func storyMeta(s store.Story, iface config.Interface) string {
	var parts []string
	if iface.ShowScore && s.Score != nil {
		parts = append(parts, humanize.Comma(int64(*s.Score))+" "+plural(*s.Score, "pt", "pts"))
	}
	if iface.ShowComments && s.CommentCount != nil {
		parts = append(parts, humanize.Comma(int64(*s.CommentCount))+" "+plural(*s.CommentCount, "comment", "comments"))
	}
	if iface.ShowPublishedTime && s.Published != nil {
		parts = append(parts, *s.Published)
	}
	return strings.Join(parts, "  ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// displayHost strips the scheme from a story's origin.
func displayHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}

// submittedLine renders "submitted 3 hours ago by alice" from whatever is known.
func submittedLine(s store.Story) string {
	var b strings.Builder
	if s.Published != nil {
		b.WriteString("submitted " + *s.Published)
	}
	if s.Submitter != nil {
		if b.Len() == 0 {
			b.WriteString("submitted")
		}
		b.WriteString(" by " + *s.Submitter)
	}
	return b.String()
}

// RenderStatusBar renders the bottom status bar: position on the left, then
// either the status message (a shown link) or the selected story's byline.
func RenderStatusBar(cursor, total int, width int, loading bool, status, footer string) string {
	var position string
	switch {
	case loading:
		position = "Loading..."
	case total == 0:
		position = "0/0"
	default:
		position = fmt.Sprintf("%d/%d", cursor+1, total)
	}

	text, style := footer, StatusBarText
	if status != "" {
		text, style = status, StatusBarLink
	}

	// Keep the bar on one line
	inner := width - 2
	if avail := inner - runewidth.StringWidth(position) - 2; inner > 0 && runewidth.StringWidth(text) > avail {
		text = runewidth.Truncate(text, max(avail, 0), "…")
	}

	bar := position + "  " + style.Render(text)
	return StatusBar.Width(width).Render(bar)
}
