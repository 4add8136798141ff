package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abelbrown/hnterm/internal/store"
)

var flagRefreshAll bool

var refreshCmd = &cobra.Command{
	Use:   "refresh [category...]",
	Short: "Fetch categories into the cache without starting the UI",
	Long: `Fetch one or more categories and store them in the cache.
With no arguments the configured default category is refreshed; --all
refreshes every category.`,
	RunE: runRefresh,
}

func init() {
	refreshCmd.Flags().BoolVar(&flagRefreshAll, "all", false, "refresh every category")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	cats, err := refreshTargets(args, flagRefreshAll, e.cfg.DefaultCategory())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), refreshTimeout(e.cfg.FetchTimeoutDuration(), e.cfg.Settings.ExtraPage)*2)
	defer cancel()

	err = e.cache.RefreshAll(ctx, cats)
	out := cmd.OutOrStdout()
	for _, cat := range cats {
		if at, ok := e.cache.FetchedAt(cat); ok {
			fmt.Fprintf(out, "%-12s %3d stories  fetched %s\n", cat, len(e.cache.GetStories(cat)), at.Local().Format("15:04:05"))
		}
	}
	return err
}

// refreshTargets resolves the categories named on the command line.
func refreshTargets(args []string, all bool, fallback store.Category) ([]store.Category, error) {
	if all {
		return store.Categories(), nil
	}
	if len(args) == 0 {
		return []store.Category{fallback}, nil
	}

	seen := make(map[store.Category]bool)
	var cats []store.Category
	for _, arg := range args {
		cat, err := store.ParseCategory(arg)
		if err != nil {
			return nil, err
		}
		if !seen[cat] {
			seen[cat] = true
			cats = append(cats, cat)
		}
	}
	return cats, nil
}
