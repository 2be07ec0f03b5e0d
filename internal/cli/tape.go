package cli

import (
	"strings"

	"github.com/spf13/cobra"

	zerrors "zonix/internal/errors"
	"zonix/internal/models"
	"zonix/internal/tape"
)

func newTapeCmd(app *App) *cobra.Command {
	var updates int

	cmd := &cobra.Command{
		Use:   "tape [symbol]",
		Short: "Run the ticker tape and print the latest quotes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if updates < 0 {
				return zerrors.NewValidationErrorFor(zerrors.ErrConfigInvalid, "updates", updates, "must not be negative")
			}

			cfg := app.Config
			t, err := tape.New(tape.DefaultInstruments(cfg.Tape.MaxChangePercent), newRand(cfg.Seed()+1))
			if err != nil {
				return err
			}
			ticks := t.Ticks()
			for i := 0; i < updates; i++ {
				ticks = t.Update()
			}

			if len(args) == 1 {
				symbol := strings.ToUpper(args[0])
				tick, ok := t.Tick(symbol)
				if !ok {
					return zerrors.Wrapf(zerrors.ErrUnknownSymbol, "tape symbol %q", symbol)
				}
				ticks = []models.Tick{tick}
			}

			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(ticks)
			}

			table := NewTable(output, "Symbol", "Name", "LTP", "Change", "High", "Low", "Volume")
			for _, tick := range ticks {
				table.AddRow(
					tick.Symbol,
					tick.Name,
					PadLeft(FormatIndex(tick.LTP), 12),
					output.Change(tick.ChangePercent),
					FormatIndex(tick.High),
					FormatIndex(tick.Low),
					FormatOI(tick.Volume),
				)
			}
			table.Render()
			output.Println()
			output.Dim("%d updates", updates)
			return nil
		},
	}

	cmd.Flags().IntVarP(&updates, "updates", "n", 10, "number of tape updates")
	return cmd
}
