package loader

import (
	"io"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"transitradar.dev/radar/model"
)

type transferCSV struct {
	FromStopID      string `csv:"from_stop_id"`
	ToStopID        string `csv:"to_stop_id"`
	TransferType    string `csv:"transfer_type"`
	MinTransferTime string `csv:"min_transfer_time"`
}

// parseTransfers reads the feed's optional transfers.txt, keeping only
// rows with an explicit min_transfer_time, whatever their
// transfer_type; rows without one carry no duration for the original
// spec's §4.C transfer-edge model to represent and are skipped.
func parseTransfers(data io.Reader, stops map[string]bool) ([]model.TransferEdge, error) {
	rows := []*transferCSV{}
	if err := gocsv.Unmarshal(data, &rows); err != nil {
		return nil, errors.Wrap(err, "unmarshaling transfers csv")
	}

	var edges []model.TransferEdge
	for _, t := range rows {
		if t.FromStopID == "" || t.ToStopID == "" {
			return nil, errors.New("transfer row missing from_stop_id or to_stop_id")
		}
		if !stops[t.FromStopID] {
			return nil, errors.Errorf("transfer references unknown from_stop_id %q", t.FromStopID)
		}
		if !stops[t.ToStopID] {
			return nil, errors.Errorf("transfer references unknown to_stop_id %q", t.ToStopID)
		}

		if t.MinTransferTime == "" {
			continue
		}
		seconds, err := strconv.Atoi(t.MinTransferTime)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing min_transfer_time for %s->%s", t.FromStopID, t.ToStopID)
		}

		edges = append(edges, model.TransferEdge{
			FromStop: t.FromStopID,
			ToStop:   t.ToStopID,
			Seconds:  seconds,
		})
	}

	return edges, nil
}
