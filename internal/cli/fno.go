package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	zerrors "zonix/internal/errors"
	"zonix/internal/models"
)

func newFNOCmd(app *App) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:     "fno",
		Aliases: []string{"derivatives"},
		Short:   "Futures and options analytics on an index",
		Long: `Generate synthetic futures and options analytics for an index.

The symbol is BHARAT for the nationwide index or a state code such as MH.`,
	}
	cmd.PersistentFlags().IntVarP(&steps, "steps", "n", 0, "engine steps to run before reading the spot")

	// spot starts a session, runs the warm-up steps and resolves the symbol.
	spot := func(ctx context.Context, symbol string) (*Runtime, float64, error) {
		rt, err := NewRuntime(ctx, app.Config, app.Logger, RuntimeOptions{})
		if err != nil {
			return nil, 0, err
		}
		snap := rt.Engine.Snapshot()
		for i := 0; i < steps; i++ {
			if snap, err = rt.Engine.Step(); err != nil {
				rt.Close()
				return nil, 0, err
			}
		}
		value, ok := snap.Spot(symbol)
		if !ok {
			rt.Close()
			return nil, 0, zerrors.Wrapf(zerrors.ErrUnknownSymbol, "symbol %q", symbol)
		}
		return rt, value, nil
	}

	futuresCmd := &cobra.Command{
		Use:   "futures <symbol>",
		Short: "Show the futures term structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.ToUpper(args[0])
			rt, value, err := spot(cmd.Context(), symbol)
			if err != nil {
				return err
			}
			defer rt.Close()

			chain, err := rt.Analyzer.Futures(cmd.Context(), symbol, value)
			if err != nil {
				return err
			}
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(chain)
			}
			displayFutures(output, chain)
			return nil
		},
	}

	var strikes int
	chainCmd := &cobra.Command{
		Use:     "chain <symbol>",
		Aliases: []string{"options"},
		Short:   "Show the option chain with Greeks, max pain and PCR",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.ToUpper(args[0])
			rt, value, err := spot(cmd.Context(), symbol)
			if err != nil {
				return err
			}
			defer rt.Close()

			chain, err := rt.Analyzer.Options(cmd.Context(), symbol, value)
			if err != nil {
				return err
			}
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(chain)
			}
			displayOptionChain(output, chain, strikes)
			return nil
		},
	}
	chainCmd.Flags().IntVar(&strikes, "strikes", 5, "strikes to show on each side of ATM")

	cmd.AddCommand(futuresCmd, chainCmd)
	return cmd
}

func displayFutures(output *Output, chain *models.FuturesChain) {
	output.Bold("Futures - %s", chain.Symbol)
	output.Printf("  Spot: %s\n\n", FormatIndex(chain.SpotPrice))

	table := NewTable(output, "Expiry", "LTP", "Change", "Basis", "Volume", "OI", "OI Chg", "Sentiment")
	for _, c := range chain.Contracts {
		expiry := c.Expiry
		if c.NearMonth {
			expiry = output.BoldText(expiry + " *")
		}
		table.AddRow(
			expiry,
			PadLeft(FormatIndex(c.LTP), 12),
			output.Change(c.ChangePercent),
			fmt.Sprintf("%s (%.2f%%)", FormatIndex(c.Basis), c.BasisPercent),
			FormatOI(c.Volume),
			FormatOI(c.OI),
			FormatChange(c.OIChange),
			output.Sentiment(c.Sentiment),
		)
	}
	table.Render()
	output.Println()
	output.Dim("* near month")
}

func displayOptionChain(output *Output, oc *models.OptionChain, strikes int) {
	output.Bold("Option Chain - %s", oc.Symbol)
	output.Printf("  Spot: %s  ATM: %s  Interval: %s\n\n",
		FormatIndex(oc.SpotPrice), FormatIndex(oc.ATMStrike), FormatIndex(oc.Interval))

	output.Printf("%10s %8s %7s %7s │ %12s │ %7s %7s %8s %10s\n",
		"Call OI", "Call IV", "Delta", "Call", "Strike", "Put", "Delta", "Put IV", "Put OI")
	output.Println(strings.Repeat("─", 88))

	center := len(oc.Strikes) / 2
	for i, s := range oc.Strikes {
		if strikes > 0 && (i < center-strikes || i > center+strikes) {
			continue
		}

		strikeStr := fmt.Sprintf("%12s", FormatIndex(s.Strike))
		if s.Moneyness == models.MoneynessATM {
			strikeStr = output.BoldText(strikeStr)
		}

		output.Printf("%10s %8s %7.2f %7.2f │ %s │ %7.2f %7.2f %8s %10s\n",
			FormatOI(s.Call.OI), FormatIV(s.Call.IV), s.Call.Greeks.Delta, s.Call.LTP,
			strikeStr,
			s.Put.LTP, s.Put.Greeks.Delta, FormatIV(s.Put.IV), FormatOI(s.Put.OI))
	}

	output.Println()
	output.Printf("  Max Pain:  %s\n", FormatIndex(oc.MaxPain))
	output.Printf("  PCR:       %s\n", FormatPCR(oc.PutCallRatio))
	output.Printf("  Call OI:   %s   Put OI: %s\n", FormatTotalOI(oc.TotalCallOI), FormatTotalOI(oc.TotalPutOI))
}
