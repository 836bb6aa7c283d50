package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/courrier/internal/observability"
)

var (
	eventsType  string
	eventsLevel string
	eventsSince string
	eventsLimit int
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the activity log",
	Long: `Show recorded events: generated, failed, deleted and exported letters,
profile changes, and degraded store reads.

--type matches exactly, or by prefix when it ends with a dot (e.g. letter.).
--since takes a window such as 24h or 7d.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log not available (storage.event_log is disabled)")
		}

		filter := observability.EventFilter{
			Type:  eventsType,
			Level: eventsLevel,
			Limit: eventsLimit,
		}
		if eventsSince != "" {
			since, err := parseSince(eventsSince, time.Now())
			if err != nil {
				return err
			}
			filter.Since = &since
		}

		events, err := EventLog.Read(filter)
		if err != nil {
			return fmt.Errorf("reading events: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No events found.")
			return nil
		}
		for _, e := range events {
			fmt.Fprintf(out, "%s  %-5s  %-26s %s\n",
				e.Time.Local().Format("2006-01-02 15:04:05"), e.Level, e.Type, formatEventData(e.Data))
		}
		return nil
	},
}

// parseSince parses a window like "7d" or "24h" into the time that far before now.
func parseSince(s string, now time.Time) (time.Time, error) {
	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	num, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || num < 0 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}

func formatEventData(data map[string]any) string {
	if len(data) == 0 {
		return ""
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, data[k])
	}
	return strings.Join(parts, " ")
}

func init() {
	eventsCmd.Flags().StringVar(&eventsType, "type", "", "Filter by event type, or type prefix ending with '.'")
	eventsCmd.Flags().StringVar(&eventsLevel, "level", "", "Filter by level (INFO, WARN, ERROR)")
	eventsCmd.Flags().StringVar(&eventsSince, "since", "", "Only events within this window (e.g. 24h, 7d)")
	eventsCmd.Flags().IntVarP(&eventsLimit, "limit", "n", 50, "Show at most this many of the latest events (0 for all)")
	rootCmd.AddCommand(eventsCmd)
}
