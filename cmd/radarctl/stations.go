package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var stationsCmd = &cobra.Command{
	Use:   "stations <query>",
	Short: "Runs the station name search and prints ranked matches",
	Args:  cobra.ExactArgs(1),
	RunE:  runStations,
}

func runStations(cmd *cobra.Command, args []string) error {
	snap, err := loadSnapshot(context.Background())
	if err != nil {
		return err
	}

	matches := snap.Stations.Search(args[0], 0)
	if len(matches) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for _, m := range matches {
		fmt.Printf("%d\t%s\n", m.Station, m.Name)
	}
	return nil
}
