package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent operations",
	Long: `Show the most recent profile and shared-pool operations, newest first.

Examples:
  pmm history
  pmm history -n 50`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show")
	rootCmd.AddCommand(historyCmd)
}

type activityJSON struct {
	OpID       string    `json:"op_id"`
	Action     string    `json:"action"`
	Subject    string    `json:"subject"`
	Profiles   []string  `json:"profiles"`
	Outcome    string    `json:"outcome"`
	Detail     string    `json:"detail,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	entries, err := svc.History(historyLimit)
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		items := make([]activityJSON, 0, len(entries))
		for _, e := range entries {
			items = append(items, activityJSON{
				OpID:       e.OpID,
				Action:     e.Action,
				Subject:    e.Subject,
				Profiles:   e.Profiles,
				Outcome:    e.Outcome,
				Detail:     e.Detail,
				DurationMS: e.Duration.Milliseconds(),
				CreatedAt:  e.CreatedAt,
			})
		}
		return printJSON(out, items)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No operations recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tSUBJECT\tPROFILES\tOUTCOME")
	fmt.Fprintln(w, "----\t------\t-------\t--------\t-------")
	for _, e := range entries {
		outcome := colorGreen(e.Outcome)
		if e.Outcome != "ok" {
			outcome = colorRed(e.Outcome)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			e.Action,
			e.Subject,
			strings.Join(e.Profiles, ", "),
			outcome,
		)
	}
	return w.Flush()
}
