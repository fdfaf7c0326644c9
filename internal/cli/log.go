// log.go implements the "pictoria log" command, which prints the event log.
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pictoria-app/pictoria/internal/log"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent client events",
	Long: `Print the structured event log: logins, logouts, requests, album
loads and speech failures.`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

var logLimit int

func init() {
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 20, "Show only the last N events (0 = all)")
}

func runLog(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	events, err := e.logger.ReadAll()
	if err != nil {
		return fmt.Errorf("reading event log: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(events) == 0 {
		fmt.Fprintln(out, "No events logged.")
		return nil
	}
	if logLimit > 0 && len(events) > logLimit {
		events = events[len(events)-logLimit:]
	}
	for _, ev := range events {
		fmt.Fprintln(out, formatEvent(ev))
	}
	return nil
}

func formatEvent(ev log.LogEvent) string {
	parts := []string{
		ev.Time.Local().Format(time.DateTime),
		fmt.Sprintf("%-20s", ev.Event),
	}
	if ev.Method != "" {
		parts = append(parts, ev.Method+" "+ev.Path)
	}
	if ev.Status != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", ev.Status))
	}
	if ev.Folder != "" {
		parts = append(parts, "folder="+ev.Folder)
	}
	if ev.DurationMs != 0 {
		parts = append(parts, fmt.Sprintf("%dms", ev.DurationMs))
	}
	if ev.Error != "" {
		parts = append(parts, "error="+ev.Error)
	}
	return strings.Join(parts, "  ")
}
