// Command radarctl exercises the load, query and station-search paths
// in place of the (out of scope) HTTP surface and diagram renderer,
// per this repository's §4.L. Adapted from the teacher's cmd package:
// same cobra root-command-plus-subcommands layout, same "print errors
// and exit 1" main().
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "radarctl",
	Short:        "transit-radar tool",
	Long:         "Loads GTFS feeds and runs earliest-arrival queries against them",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(stationsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
