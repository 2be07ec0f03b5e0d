// Command zonix runs the ZONIX synthetic market simulation.
package main

import (
	"os"

	"zonix/internal/cli"
)

func main() {
	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		cli.PrintError(cmd, err)
		os.Exit(1)
	}
}
