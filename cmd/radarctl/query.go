package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"transitradar.dev/radar"
	"transitradar.dev/radar/queryconfig"
	"transitradar.dev/radar/queryservice"
)

var queryModes []string

var queryCmd = &cobra.Command{
	Use:   "query <station> <HH:MM:SS> <duration_minutes>",
	Short: "Runs a query through the query service and prints stops/trips/connections",
	Args:  cobra.ExactArgs(3),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringSliceVarP(&queryModes, "mode", "m", nil, "Restrict to specific modes (repeatable)")
}

// fixedSnapshotSource adapts a single already-built snapshot to
// queryservice.SnapshotSource, since the CLI builds one snapshot per
// invocation rather than running a long-lived Manager.
type fixedSnapshotSource struct {
	snapshot *radar.Snapshot
}

func (f fixedSnapshotSource) Current() *radar.Snapshot {
	return f.snapshot
}

func runQuery(cmd *cobra.Command, args []string) error {
	station, clock, durationArg := args[0], args[1], args[2]

	duration, err := strconv.Atoi(durationArg)
	if err != nil {
		return fmt.Errorf("invalid duration_minutes %q: %w", durationArg, err)
	}

	now := time.Now()
	at, err := time.ParseInLocation("15:04:05", clock, now.Location())
	if err != nil {
		return fmt.Errorf("invalid time %q, expected HH:MM:SS: %w", clock, err)
	}
	at = time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), at.Second(), 0, now.Location())

	filter, err := queryconfig.NewFilter(queryModes, duration, 0, at)
	if err != nil {
		return err
	}

	snap, err := loadSnapshot(context.Background())
	if err != nil {
		return err
	}

	svc := queryservice.New(fixedSnapshotSource{snapshot: snap}, nil)
	result, err := svc.Query(context.Background(), queryservice.Request{StationQuery: station, Filter: filter})
	if err != nil {
		return err
	}

	fmt.Printf("departing %s, duration %d min (truncated=%v)\n", result.DepartureTime, result.DurationMinutes, result.Truncated)
	for _, stop := range result.Stops {
		fmt.Printf("  %-30s %6.1f deg  %5ds\n", stop.Name, stop.Bearing, stop.Seconds)
	}
	for _, trip := range result.Trips {
		fmt.Printf("trip %s (%s):\n", trip.RouteName, trip.Mode)
		for _, seg := range trip.Segments {
			fmt.Printf("  %s (%ds) -> %s (%ds)\n", seg.FromStop, seg.FromSeconds, seg.ToStop, seg.ToSeconds)
		}
	}

	return nil
}
