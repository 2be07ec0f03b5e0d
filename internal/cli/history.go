package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"zonix/internal/store"
)

func newHistoryCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <symbol>",
		Short: "Show archived index values",
		Long: `Show the archived values of an index, oldest first.

The symbol is BHARAT or a state code. History is written by 'zonix serve' and
'zonix simulate --record' when [history] is enabled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := openHistory(app)
			if err != nil {
				return err
			}
			defer rec.Close()

			points, err := rec.History(cmd.Context(), strings.ToUpper(args[0]), limit)
			if err != nil {
				return err
			}

			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(points)
			}

			table := NewTable(output, "Time", "Session", "Step", "Value", "Change", "Sentiment")
			for _, p := range points {
				table.AddRow(
					FormatTime(p.Timestamp),
					TruncateString(p.SessionID, 8),
					fmt.Sprintf("%d", p.Sequence),
					PadLeft(FormatIndex(p.Value), 12),
					output.Change(p.ChangePercent),
					p.Sentiment,
				)
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 50, "maximum points to show")

	cmd.AddCommand(&cobra.Command{
		Use:   "sessions",
		Short: "List recorded sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := openHistory(app)
			if err != nil {
				return err
			}
			defer rec.Close()

			sessions, err := rec.Sessions(cmd.Context())
			if err != nil {
				return err
			}

			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(sessions)
			}
			if len(sessions) == 0 {
				output.Warning("No sessions recorded")
				return nil
			}

			table := NewTable(output, "Session", "Points", "First", "Last", "Duration")
			for _, s := range sessions {
				table.AddRow(
					s.SessionID,
					fmt.Sprintf("%d", s.Points),
					FormatTime(s.FirstSeen),
					FormatTime(s.LastSeen),
					FormatDuration(s.LastSeen.Sub(s.FirstSeen)),
				)
			}
			table.Render()
			return nil
		},
	})

	return cmd
}

func openHistory(app *App) (*store.SQLiteRecorder, error) {
	cfg := app.Config.History
	return store.NewSQLiteRecorder(store.RecorderConfig{
		Path:      cfg.Path,
		BatchSize: cfg.BatchSize,
		QueueSize: cfg.QueueSize,
	}, app.Logger)
}
