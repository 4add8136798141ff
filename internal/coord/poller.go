// Package coord runs the background refresh loop for hnterm.
package coord

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/hnterm/internal/config"
	"github.com/abelbrown/hnterm/internal/otel"
	"github.com/abelbrown/hnterm/internal/ui"
)

// sender receives messages; *tea.Program satisfies it.
type sender interface {
	Send(msg tea.Msg)
}

// Poller asks the UI to refresh the category on screen every interval.
// The UI owns the selection, so the poller holds no category state.
// Uses context cancellation as the ONLY stop mechanism.
type Poller struct {
	interval time.Duration
	logger   *otel.Logger
	wg       sync.WaitGroup
}

// NewPoller creates a Poller. Intervals below config.MinRefreshInterval
// are raised to it.
func NewPoller(interval time.Duration, logger *otel.Logger) *Poller {
	if interval < config.MinRefreshInterval {
		interval = config.MinRefreshInterval
	}
	return &Poller{interval: interval, logger: logger}
}

// Interval returns the effective poll period.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Start begins polling. Call with a cancellable context.
func (p *Poller) Start(ctx context.Context, program sender) {
	ticker := time.NewTicker(p.interval)
	p.run(ctx, program, ticker.C, ticker.Stop)
}

// run is Start with an injectable tick source. stop runs when the loop exits.
func (p *Poller) run(ctx context.Context, program sender, ticks <-chan time.Time, stop func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticks:
				p.logger.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindPollTick, Comp: "coord"})
				// Handle nil program gracefully for testing
				if program != nil {
					program.Send(ui.PollTick{})
				}
			}
		}
	}()
}

// Wait blocks until the background goroutine exits.
// Call after canceling the context passed to Start.
func (p *Poller) Wait() {
	p.wg.Wait()
}
