package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"wrapbeep.click/internal/tracking"
)

func newStatsCommand() *cobra.Command {
	var since string
	var kind string
	var instance string
	var asJSON bool

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize recorded toggles, unlocks and triggers",
		Long: `Summarize the playback history recorded by the listener.

--since takes a preset (today, yesterday, week, month, all) or a natural
phrase such as "3 days ago" or "last monday".

Examples:
  wrapbeep stats
  wrapbeep stats --since today
  wrapbeep stats --since "2 hours ago" --kind trigger
  wrapbeep stats --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, since, kind, instance, asJSON)
		},
	}

	statsCmd.Flags().StringVar(&since, "since", "all", "Start of the reporting window")
	statsCmd.Flags().StringVar(&kind, "kind", "", "Only records of this kind (toggle, unlock, trigger)")
	statsCmd.Flags().StringVar(&instance, "instance", "", "Only records from this widget instance")
	statsCmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")

	return statsCmd
}

func runStats(cmd *cobra.Command, since, kind, instance string, asJSON bool) error {
	cli, _, err := prepare(cmd)
	if err != nil {
		return err
	}
	if cli.trackingDB == nil {
		return fmt.Errorf("playback tracking is not enabled or database is not available")
	}

	now := time.Now()
	start, err := tracking.ParseSince(since, now)
	if err != nil {
		return fmt.Errorf("invalid --since value: %w", err)
	}

	filter := tracking.QueryFilter{
		Since:      start,
		Kind:       kind,
		InstanceID: instance,
	}
	summary, err := tracking.Summarize(cli.trackingDB, filter)
	if err != nil {
		slog.Error("failed to summarize playback history", "error", err)
		return fmt.Errorf("failed to summarize playback history: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	return outputSummary(cmd.OutOrStdout(), summary, start)
}

func outputSummary(w io.Writer, summary *tracking.Summary, since time.Time) error {
	window := "all time"
	if !since.IsZero() {
		window = "since " + since.Format("2006-01-02 15:04")
	}
	fmt.Fprintf(w, "Playback history (%s)\n", window)

	if summary.Total == 0 {
		fmt.Fprintln(w, "No records.")
		return nil
	}

	fmt.Fprintf(w, "Records: %d across %d instance(s)\n", summary.Total, summary.Instances)
	fmt.Fprintf(w, "First: %s  Last: %s\n\n",
		summary.FirstSeen.Format(time.DateTime), summary.LastSeen.Format(time.DateTime))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tOUTCOME\tCOUNT")
	for _, c := range summary.ByOutcome {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Kind, c.Outcome, c.Count)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if summary.LastFailed != "" {
		fmt.Fprintf(w, "\nLast unlock failure: %s\n", summary.LastFailed)
	}
	return nil
}
