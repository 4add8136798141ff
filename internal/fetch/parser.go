package fetch

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/abelbrown/hnterm/internal/store"
)

// DefaultBaseURL is the site every relative listing link resolves against.
const DefaultBaseURL = "https://news.ycombinator.com/"

var (
	rankRe      = regexp.MustCompile(`^\s*(\d+)\.`)
	itemIDRe    = regexp.MustCompile(`item\?id=(\d+)`)
	scoreIDRe   = regexp.MustCompile(`^score_(\d+)$`)
	publishedRe = regexp.MustCompile(`\d+ (?:minutes?|hours?|days?) ago`)
)

// Page is the result of scraping one listing document.
type Page struct {
	Stories []store.Story
	// Next is the absolute URL of the "More" link, or "" on the last page.
	Next string
}

// ParsePage scrapes one listing page. base is the site root used to make
// links absolute; nil means DefaultBaseURL.
//
// Listing rows are matched up positionally: the n-th rank/title cell pair
// belongs to the n-th subtext cell. When the page carries different numbers
// of rank markers, title pairs and subtext cells, the result is truncated
// to the shortest of the three.
func ParsePage(html string, base *url.URL) (Page, error) {
	if base == nil {
		base, _ = url.Parse(DefaultBaseURL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Page{}, fmt.Errorf("parse listing: %w", err)
	}

	rows := doc.Find("span.rank").Length()
	titleCells := doc.Find("td.title")
	subtexts := doc.Find("td.subtext")

	// A trailing "More" row adds one unpaired title cell; integer division drops it.
	n := min(rows, titleCells.Length()/2, subtexts.Length())

	stories := make([]store.Story, 0, n)
	for i := 0; i < n; i++ {
		s := parseTitleCells(titleCells.Eq(2*i), titleCells.Eq(2*i+1), base)
		parseSubtext(&s, subtexts.Eq(i))
		stories = append(stories, finalize(s, base))
	}

	return Page{Stories: stories, Next: moreLink(doc, base)}, nil
}

// parseTitleCells reads rank from the rank cell and link/title from the title cell.
func parseTitleCells(rankCell, titleCell *goquery.Selection, base *url.URL) store.Story {
	var s store.Story

	rankText := rankCell.Find("span.rank").First().Text()
	if rankCell.Find("span.rank").Length() == 0 {
		rankText = rankCell.Text()
	}
	if m := rankRe.FindStringSubmatch(rankText); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			s.Rank = &n
		}
	}

	link := titleCell.Find("span.titleline > a").First()
	if link.Length() == 0 {
		link = titleCell.Find("a").First()
	}

	href, _ := link.Attr("href")
	s.URL = storyURL(href, base)
	s.Domain = origin(s.URL)

	s.Title = strings.TrimSpace(link.Text())
	if s.Title == "" {
		s.Title = strings.TrimSpace(titleCell.Text())
	}
	return s
}

// storyURL makes a listing href absolute. "item?id=" links (Ask HN and
// friends) point back at the site itself.
func storyURL(href string, base *url.URL) string {
	href = strings.TrimSpace(href)
	href = strings.ReplaceAll(href, "&amp;", "&")
	href = strings.TrimSuffix(href, `rel="nofollow`)
	href = strings.TrimSuffix(href, `" `)
	href = strings.TrimRight(href, `"`)
	if href == "" {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// origin returns scheme://host of an absolute URL, or "".
func origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// parseSubtext fills score, submitter, comment count, id and age from the
// metadata cell. Anything not found stays nil.
func parseSubtext(s *store.Story, cell *goquery.Selection) {
	scoreText := cell.Find("span.score").First().Text()
	if scoreText == "" {
		scoreText = cell.Text()
	}
	s.Score = parseScore(scoreText)

	user := cell.Find("a.hnuser").First()
	if user.Length() == 0 {
		user = cell.Find(`a[href^="user?id="]`).First()
	}
	if name := strings.TrimSpace(user.Text()); name != "" {
		s.Submitter = &name
	}

	cell.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if n, ok := parseCommentCount(a.Text()); ok {
			s.CommentCount = &n
			return false
		}
		return true
	})

	cell.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if m := itemIDRe.FindStringSubmatch(href); m != nil {
			if id, err := strconv.Atoi(m[1]); err == nil {
				s.ID = &id
				return false
			}
		}
		return true
	})
	if s.ID == nil {
		if attr, ok := cell.Find("span.score").First().Attr("id"); ok {
			if m := scoreIDRe.FindStringSubmatch(attr); m != nil {
				if id, err := strconv.Atoi(m[1]); err == nil {
					s.ID = &id
				}
			}
		}
	}

	if published := publishedRe.FindString(cell.Text()); published != "" {
		s.Published = &published
	}
}

// parseScore returns the numeric token right before "points"/"point".
func parseScore(text string) *int {
	fields := strings.Fields(text)
	for i := 1; i < len(fields); i++ {
		if !strings.HasPrefix(fields[i], "point") {
			continue
		}
		if n, err := strconv.Atoi(fields[i-1]); err == nil {
			return &n
		}
		return nil
	}
	return nil
}

// parseCommentCount reads "12 comments", "1 comment" or "discuss" (zero).
func parseCommentCount(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if strings.EqualFold(text, "discuss") {
		return 0, true
	}
	if !strings.Contains(strings.ToLower(text), "comment") {
		return 0, false
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, false
	}
	return n, true
}

// finalize derives the link fields. Rows without an id or without a rank
// are not discussable listings (job posts): they get no comments link and
// no submitter.
func finalize(s store.Story, base *url.URL) store.Story {
	if s.ID == nil || s.Rank == nil {
		s.CommentsURL = ""
		s.Submitter = nil
		s.SubmitterURL = nil
		return s
	}

	s.CommentsURL = CommentsURL(base, *s.ID)
	if s.Submitter != nil {
		u := SubmitterURL(base, *s.Submitter)
		s.SubmitterURL = &u
	}
	return s
}

// CommentsURL is the discussion page for a story id.
func CommentsURL(base *url.URL, id int) string {
	if base == nil {
		base, _ = url.Parse(DefaultBaseURL)
	}
	return base.ResolveReference(&url.URL{Path: "item", RawQuery: "id=" + strconv.Itoa(id)}).String()
}

// SubmitterURL is the profile page for a username.
func SubmitterURL(base *url.URL, name string) string {
	if base == nil {
		base, _ = url.Parse(DefaultBaseURL)
	}
	q := url.Values{"id": []string{name}}
	return base.ResolveReference(&url.URL{Path: "user", RawQuery: q.Encode()}).String()
}

// moreLink finds the pagination anchor and makes it absolute.
func moreLink(doc *goquery.Document, base *url.URL) string {
	more := doc.Find("a").FilterFunction(func(_ int, a *goquery.Selection) bool {
		return strings.TrimSpace(a.Text()) == "More"
	}).First()
	if more.Length() == 0 {
		return ""
	}
	href, ok := more.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return ""
	}
	return storyURL(href, base)
}
