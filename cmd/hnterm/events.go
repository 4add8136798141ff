package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	flagEventsTail     int
	flagEventsFollow   bool
	flagEventsKind     string
	flagEventsLevel    string
	flagEventsComp     string
	flagEventsCategory string
	flagEventsJSON     bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the event journal",
	Long:  "Print recent fetch, refresh and cache events recorded by hnterm, optionally following new ones.",
	Args:  cobra.NoArgs,
	RunE:  runEvents,
}

func init() {
	eventsCmd.Flags().IntVarP(&flagEventsTail, "tail", "n", 50, "number of recent lines to show")
	eventsCmd.Flags().BoolVarP(&flagEventsFollow, "follow", "f", false, "follow mode (like tail -f)")
	eventsCmd.Flags().StringVar(&flagEventsKind, "kind", "", "filter by event kind prefix (e.g. 'fetch')")
	eventsCmd.Flags().StringVar(&flagEventsLevel, "level", "", "minimum level: debug, info, warn, error")
	eventsCmd.Flags().StringVar(&flagEventsComp, "comp", "", "filter by component name")
	eventsCmd.Flags().StringVar(&flagEventsCategory, "category", "", "filter by category")
	eventsCmd.Flags().BoolVar(&flagEventsJSON, "json", false, "output raw JSON lines")
}

// eventRecord mirrors otel.Event for JSON decoding.
// We decode from JSONL rather than importing otel to keep this
// subcommand usable even if the event schema evolves.
type eventRecord struct {
	Time      time.Time `json:"t"`
	Level     string    `json:"level"`
	Kind      string    `json:"kind"`
	Comp      string    `json:"comp"`
	SessionID string    `json:"session_id"`
	RefreshID string    `json:"rid"`
	Category  string    `json:"category"`
	URL       string    `json:"url"`
	DurMs     float64   `json:"dur_ms"`
	Count     int       `json:"count"`
	Status    int       `json:"status"`
	Err       string    `json:"err"`
	Msg       string    `json:"msg"`
}

// eventFilter selects journal lines.
type eventFilter struct {
	kind     string
	level    string
	comp     string
	category string
}

func (f eventFilter) match(ev eventRecord) bool {
	if f.kind != "" && !strings.HasPrefix(ev.Kind, f.kind) {
		return false
	}
	if f.level != "" && levelRank(ev.Level) < levelRank(f.level) {
		return false
	}
	if f.comp != "" && ev.Comp != f.comp {
		return false
	}
	if f.category != "" && ev.Category != f.category {
		return false
	}
	return true
}

// levelRank returns a numeric rank for filtering (higher = more severe).
func levelRank(level string) int {
	switch level {
	case "debug":
		return 0
	case "info":
		return 1
	case "warn":
		return 2
	case "error":
		return 3
	default:
		return 0
	}
}

func runEvents(cmd *cobra.Command, args []string) error {
	logPath := eventLogPath()

	f, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("event log not found at %s (run hnterm first to generate events): %w", logPath, err)
	}
	defer f.Close()

	filter := eventFilter{
		kind:     flagEventsKind,
		level:    flagEventsLevel,
		comp:     flagEventsComp,
		category: flagEventsCategory,
	}
	out := cmd.OutOrStdout()

	for _, l := range readTailLines(f, flagEventsTail, filter.match) {
		fmt.Fprintln(out, formatEvent(l.ev, l.raw, flagEventsJSON))
	}
	if !flagEventsFollow {
		return nil
	}

	// Follow mode: poll for new lines until interrupted
	reader := bufio.NewReader(f)
	for {
		select {
		case <-cmd.Context().Done():
			return nil
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return err
		}
		line = trimLine(line)
		if len(line) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(line, &ev) != nil {
			continue
		}
		if filter.match(ev) {
			fmt.Fprintln(out, formatEvent(ev, line, flagEventsJSON))
		}
	}
}

func formatEvent(ev eventRecord, raw []byte, rawJSON bool) string {
	if rawJSON {
		return string(raw)
	}
	ts := ev.Time.Local().Format("15:04:05.000")
	lvl := strings.ToUpper(ev.Level)
	if lvl == "" {
		lvl = "?"
	}

	parts := []string{fmt.Sprintf("%s %-5s [%-5s] %-16s", ts, lvl, ev.Comp, ev.Kind)}

	if ev.Category != "" {
		parts = append(parts, "cat="+ev.Category)
	}
	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if ev.Status != 0 {
		parts = append(parts, fmt.Sprintf("http=%d", ev.Status))
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.URL != "" {
		parts = append(parts, "url="+ev.URL)
	}
	if ev.RefreshID != "" {
		rid := ev.RefreshID
		if len(rid) > 8 {
			rid = rid[:8]
		}
		parts = append(parts, "rid="+rid)
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}

	return strings.Join(parts, " ")
}

type parsedLine struct {
	ev  eventRecord
	raw []byte
}

// readTailLines reads r and returns the last n lines matching the filter.
func readTailLines(r io.Reader, n int, match func(eventRecord) bool) []parsedLine {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	var ring []parsedLine
	if n > 0 {
		ring = make([]parsedLine, 0, n)
	}

	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(raw, &ev) != nil {
			continue
		}
		if !match(ev) {
			continue
		}
		// Make a copy of raw since scanner reuses the buffer
		rawCopy := make([]byte, len(raw))
		copy(rawCopy, raw)

		if n <= 0 {
			continue
		}
		if len(ring) < n {
			ring = append(ring, parsedLine{ev: ev, raw: rawCopy})
		} else {
			// Shift left
			copy(ring, ring[1:])
			ring[n-1] = parsedLine{ev: ev, raw: rawCopy}
		}
	}

	return ring
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}
