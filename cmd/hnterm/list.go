package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/abelbrown/hnterm/internal/store"
)

var (
	flagListLimit int
	flagListLinks bool
)

var listCmd = &cobra.Command{
	Use:   "list [category]",
	Short: "Print cached stories of a category",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	listCmd.Flags().IntVarP(&flagListLimit, "limit", "n", 30, "maximum number of stories (0 = all)")
	listCmd.Flags().BoolVar(&flagListLinks, "links", false, "print story and comments links")
}

func runList(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	cat := e.cfg.DefaultCategory()
	if len(args) == 1 {
		if cat, err = store.ParseCategory(args[0]); err != nil {
			return err
		}
	}

	fetchedAt, ok := e.cache.FetchedAt(cat)
	if !ok {
		return fmt.Errorf("%s is not cached yet; run 'hnterm refresh %s'", cat, cat)
	}

	stories := e.cache.GetStories(cat)
	if flagListLimit > 0 && len(stories) > flagListLimit {
		stories = stories[:flagListLimit]
	}

	printStories(cmd.OutOrStdout(), cat, stories, fetchedAt, flagListLinks, time.Now())
	return nil
}

// printStories writes a plain-text listing, one story per line.
func printStories(w io.Writer, cat store.Category, stories []store.Story, fetchedAt time.Time, links bool, now time.Time) {
	fmt.Fprintf(w, "%s (fetched %s)\n\n", cat.Label(), humanize.RelTime(fetchedAt, now, "ago", "from now"))

	for _, s := range stories {
		rank := "   "
		if s.Rank != nil {
			rank = fmt.Sprintf("%2d.", *s.Rank)
		}
		fmt.Fprintf(w, "%s %s\n", rank, s.Title)

		var meta []string
		if s.Score != nil {
			meta = append(meta, fmt.Sprintf("%s points", humanize.Comma(int64(*s.Score))))
		}
		if s.Submitter != nil {
			meta = append(meta, "by "+*s.Submitter)
		}
		if s.Published != nil {
			meta = append(meta, *s.Published)
		}
		if s.CommentCount != nil {
			meta = append(meta, fmt.Sprintf("%d comments", *s.CommentCount))
		}
		if len(meta) > 0 {
			fmt.Fprintf(w, "    %s\n", strings.Join(meta, " | "))
		}
		if links {
			fmt.Fprintf(w, "    %s\n", s.URL)
			if s.CommentsURL != "" {
				fmt.Fprintf(w, "    %s\n", s.CommentsURL)
			}
		}
	}
}
