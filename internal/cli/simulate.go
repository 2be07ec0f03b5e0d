package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	zerrors "zonix/internal/errors"
	"zonix/internal/models"
)

func newSimulateCmd(app *App) *cobra.Command {
	var steps int
	var record bool
	var state string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the district engine offline and print the resulting indices",
		Long: `Advance a fresh session by the given number of steps without waiting on the
tick interval, then print the Bharat index and every state index.

Use --state to list the district prices of one state, and --record to archive
every step to the history database.`,
		Example: `  zonix simulate --steps 100
  zonix simulate --steps 20 --state MH
  zonix simulate --steps 500 --record --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 0 {
				return zerrors.NewValidationErrorFor(zerrors.ErrConfigInvalid, "steps", steps, "must not be negative")
			}

			cfg := *app.Config
			if record {
				cfg.History.Enabled = true
			}
			rt, err := NewRuntime(cmd.Context(), &cfg, app.Logger, RuntimeOptions{History: record})
			if err != nil {
				return err
			}
			defer rt.Close()

			snap := rt.Engine.Snapshot()
			for i := 0; i < steps; i++ {
				if snap, err = rt.Engine.Step(); err != nil {
					return err
				}
			}

			output := NewOutput(cmd)
			if state != "" {
				return displayDistricts(output, snap, strings.ToUpper(state))
			}
			if output.IsJSON() {
				return output.JSON(snap)
			}
			displaySnapshot(output, snap)
			if rt.History != nil {
				output.Println()
				output.Dim("Recorded %d steps to %s", steps, cfg.History.Path)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 10, "number of engine steps")
	cmd.Flags().BoolVar(&record, "record", false, "archive every step to the history database")
	cmd.Flags().StringVar(&state, "state", "", "show the districts of one state")

	return cmd
}

func displaySnapshot(output *Output, snap *models.Snapshot) {
	nw := snap.Nationwide
	output.Bold("Bharat Index")
	output.Printf("  %s  %s  %s\n", FormatIndex(nw.Value), output.Change(nw.Change), output.Sentiment(nw.Sentiment))
	output.Dim("  Session %s  step %d  %s", snap.SessionID, snap.Sequence, FormatTime(snap.Timestamp))
	output.Println()

	table := NewTable(output, "Code", "State", "Index", "Change", "Sentiment", "Trend", "Districts")
	for _, st := range snap.States {
		table.AddRow(
			st.Code,
			TruncateString(st.Name, 20),
			PadLeft(FormatIndex(st.Value), 12),
			output.Change(st.Change),
			output.Sentiment(st.Sentiment),
			trendArrow(st.AITrend),
			fmt.Sprintf("%d", st.DistrictCount),
		)
	}
	table.Render()
}

func displayDistricts(output *Output, snap *models.Snapshot, code string) error {
	st, ok := snap.State(code)
	if !ok {
		return zerrors.Wrapf(zerrors.ErrUnknownState, "state %q", code)
	}
	districts := snap.DistrictsOf(code)
	if output.IsJSON() {
		return output.JSON(map[string]interface{}{
			"state":     st,
			"districts": districts,
		})
	}

	output.Bold("%s (%s)", st.Name, st.Code)
	output.Printf("  Index: %s  %s\n\n", FormatIndex(st.Value), output.Change(st.Change))

	table := NewTable(output, "District", "Price")
	for _, d := range districts {
		table.AddRow(d.Name, PadLeft(FormatPrice(d.Price), 12))
	}
	table.Render()
	return nil
}

func trendArrow(t models.Trend) string {
	switch t {
	case models.TrendUp:
		return "↑"
	case models.TrendDown:
		return "↓"
	default:
		return "→"
	}
}
