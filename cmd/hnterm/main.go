package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/abelbrown/hnterm/internal/coord"
	"github.com/abelbrown/hnterm/internal/logging"
	"github.com/abelbrown/hnterm/internal/metrics"
	"github.com/abelbrown/hnterm/internal/otel"
	"github.com/abelbrown/hnterm/internal/store"
	"github.com/abelbrown/hnterm/internal/ui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig      string
	flagLogLevel    string
	flagCategory    string
	flagRefresh     bool
	flagMetricsAddr string
)

var rootCmd = &cobra.Command{
	Use:          "hnterm",
	Short:        "Hacker News in the terminal",
	Long:         "hnterm scrapes Hacker News listings, caches them locally and shows them in a keyboard-driven list.",
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default $XDG_CONFIG_HOME/hnterm/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, error")

	rootCmd.Flags().StringVarP(&flagCategory, "category", "c", "", "category to open (top, newest, best, show, show_newest, ask, jobs)")
	rootCmd.Flags().BoolVar(&flagRefresh, "refresh", false, "refresh the category before launching")
	rootCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(eventsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "hnterm %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	cat := e.cfg.DefaultCategory()
	if flagCategory != "" {
		if cat, err = store.ParseCategory(flagCategory); err != nil {
			return err
		}
	}

	if flagMetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, flagMetricsAddr); err != nil {
				logging.Error("metrics server failed", "addr", flagMetricsAddr, "err", err)
			}
		}()
	}

	if flagRefresh {
		fmt.Fprintf(cmd.ErrOrStderr(), "Refreshing %s...\n", cat)
		if err := e.cache.Refresh(ctx, cat); err != nil {
			// Non-fatal: the UI shows whatever is cached.
			fmt.Fprintf(cmd.ErrOrStderr(), "refresh failed: %v\n", err)
		}
	}

	e.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindStartup, Comp: "main", Category: string(cat), Msg: version})

	// Create UI app with dependency injection
	app := ui.NewApp(ui.Config{
		Load:        e.loadCmd,
		Outdated:    e.cache.IsOutdated,
		Refresh:     func(c store.Category) tea.Cmd { return e.refreshCmd(ctx, c) },
		Category:    cat,
		Keybindings: e.cfg.Keybindings,
		Interface:   e.cfg.Interface,
		Logger:      e.events,
	})

	// Create program
	program := tea.NewProgram(app, tea.WithAltScreen())

	poller := coord.NewPoller(e.cfg.PollInterval(), e.events)
	poller.Start(ctx, program)

	// Run UI (blocks until quit)
	_, runErr := program.Run()

	// Graceful shutdown
	cancel()
	poller.Wait()
	e.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindShutdown, Comp: "main"})

	if runErr != nil {
		return fmt.Errorf("running program: %w", runErr)
	}
	return nil
}

// loadCmd reads a category from the cache without touching the network.
func (e *env) loadCmd(cat store.Category) tea.Cmd {
	return func() tea.Msg {
		fetchedAt, _ := e.cache.FetchedAt(cat)
		return ui.StoriesLoaded{
			Category:  cat,
			Stories:   e.cache.GetStories(cat),
			FetchedAt: fetchedAt,
		}
	}
}

// refreshCmd refreshes a category, bounded by the fetch timeout per page.
func (e *env) refreshCmd(ctx context.Context, cat store.Category) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, refreshTimeout(e.cfg.FetchTimeoutDuration(), e.cfg.Settings.ExtraPage))
		defer cancel()
		return ui.RefreshDone{Category: cat, Err: e.cache.Refresh(ctx, cat)}
	}
}

// refreshTimeout allows every page of a category its own fetch timeout.
func refreshTimeout(perPage time.Duration, extraPages int) time.Duration {
	return perPage * time.Duration(max(extraPages, 0)+2)
}
