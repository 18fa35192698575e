// Package search implements the Radar: a time-expanded multi-source
// earliest-arrival search over a ScheduleIndex. It is the engine
// behind the original spec's §4.E, implemented as a tagged-union
// event queue (Arrive / AlightAtNext) ordered by time, then event
// kind, then insertion sequence, so that two runs against the same
// snapshot with the same inputs produce bit-identical output trees
// (the original spec's P5).
package search

import (
	"container/heap"
	"context"

	"transitradar.dev/radar/calendarday"
	"transitradar.dev/radar/ids"
	"transitradar.dev/radar/index"
	"transitradar.dev/radar/model"
)

// Unreached marks a stop or station not (yet) reached by the search.
const Unreached = 1<<31 - 1

// DefaultTransferCap is the upper bound, in seconds, on a single
// transfer walk considered during the search, per the original
// spec's §4.E default.
const DefaultTransferCap = 600

type PredecessorKind int

const (
	PredOrigin PredecessorKind = iota
	PredTransfer
	PredTrip
)

// Predecessor is the edge that produced a stop's earliest arrival:
// either the search origin, a transfer from another stop, or a leg of
// a trip boarded at an earlier stop.
type Predecessor struct {
	Kind PredecessorKind

	// Valid when Kind == PredTransfer.
	FromStop        ids.StopID
	TransferSeconds int

	// Valid when Kind == PredTrip. Board and Alight carry
	// service-day-relative seconds already adjusted for the
	// day-wrap overlay (see qualifyingDepartures), so callers
	// never need to know whether the leg happened on the origin's
	// service day or the one after.
	Trip   ids.TripID
	Board  index.StopTime
	Alight index.StopTime
}

// Tree is the result of one Radar.Search: earliest arrival per stop
// and per station, and the predecessor edge that achieved it.
type Tree struct {
	Origin    ids.StationID
	Day       calendarday.Day
	QueryTime int
	Budget    int

	EarliestAtStop    []int
	EarliestAtStation []int
	Predecessor       []Predecessor

	Truncated bool
}

func (t *Tree) Reached(stop ids.StopID) bool {
	return t.EarliestAtStop[stop] != Unreached
}

func (t *Tree) StationReached(station ids.StationID) bool {
	return t.EarliestAtStation[station] != Unreached
}

// Radar runs earliest-arrival searches against one immutable
// ScheduleIndex snapshot. A Radar holds no per-query state; every
// Search call allocates its own queue and arrays, so concurrent
// searches never interfere (the original spec's §5).
type Radar struct {
	Index *index.ScheduleIndex
}

func New(idx *index.ScheduleIndex) *Radar {
	return &Radar{Index: idx}
}

// Request bundles one query's inputs, per the original spec's §4.E.
type Request struct {
	Origin      ids.StationID
	Day         calendarday.Day
	QueryTime   int // seconds since the start of Day
	Budget      int // seconds
	Modes       model.ModeSet
	TransferCap int // seconds; DefaultTransferCap if <= 0
}

type eventKind uint8

const (
	kindArrive eventKind = 0
	kindAlight eventKind = 1
)

// pqEvent is the tagged union described in the original spec's
// design notes (§9): one struct, two shapes, disambiguated by kind.
type pqEvent struct {
	t    int
	kind eventKind
	seq  int

	// kindArrive
	stop ids.StopID
	via  Predecessor

	// kindAlight
	trip          index.Trip
	dayOffset     int
	position      int
	boardStopTime index.StopTime
}

type priorityQueue []pqEvent

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	a, b := pq[i], pq[j]
	if a.t != b.t {
		return a.t < b.t
	}
	if a.kind != b.kind {
		return a.kind < b.kind
	}
	return a.seq < b.seq
}

func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue) Push(x any) { *pq = append(*pq, x.(pqEvent)) }

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	e := old[n-1]
	*pq = old[:n-1]
	return e
}

// Search runs a time-expanded earliest-arrival search from every stop
// of req.Origin's station, within [req.QueryTime, req.QueryTime +
// req.Budget]. ctx's deadline/cancellation is honored between events
// (not mid-event), and on expiry the returned Tree is flagged
// Truncated with whatever was accumulated so far, per the original
// spec's §5.
func (r *Radar) Search(ctx context.Context, req Request) *Tree {
	idx := r.Index

	tree := &Tree{
		Origin:            req.Origin,
		Day:               req.Day,
		QueryTime:         req.QueryTime,
		Budget:            req.Budget,
		EarliestAtStop:    make([]int, idx.NumStops()),
		EarliestAtStation: make([]int, idx.NumStations()),
		Predecessor:       make([]Predecessor, idx.NumStops()),
	}
	for i := range tree.EarliestAtStop {
		tree.EarliestAtStop[i] = Unreached
	}
	for i := range tree.EarliestAtStation {
		tree.EarliestAtStation[i] = Unreached
	}

	deadline := req.QueryTime + req.Budget

	transferCap := req.TransferCap
	if transferCap <= 0 {
		transferCap = DefaultTransferCap
	}

	tripBoarded := make([]bool, idx.NumTrips())

	pq := &priorityQueue{}
	heap.Init(pq)
	seq := 0

	for _, stop := range idx.StopsOfStation(req.Origin) {
		heap.Push(pq, pqEvent{t: req.QueryTime, kind: kindArrive, seq: seq, stop: stop, via: Predecessor{Kind: PredOrigin}})
		seq++
	}

	iterations := 0
	for pq.Len() > 0 {
		iterations++
		if iterations%256 == 0 {
			select {
			case <-ctx.Done():
				tree.Truncated = true
				return tree
			default:
			}
		}

		ev := heap.Pop(pq).(pqEvent)
		if ev.t > deadline {
			continue
		}

		switch ev.kind {
		case kindArrive:
			r.relaxArrive(idx, tree, pq, &seq, ev, deadline, transferCap, req, tripBoarded)
		case kindAlight:
			r.relaxAlight(tree, pq, &seq, ev, deadline)
		}
	}

	return tree
}

func (r *Radar) relaxArrive(
	idx *index.ScheduleIndex,
	tree *Tree,
	pq *priorityQueue,
	seq *int,
	ev pqEvent,
	deadline int,
	transferCap int,
	req Request,
	tripBoarded []bool,
) {
	stop, t := ev.stop, ev.t

	if t >= tree.EarliestAtStop[stop] {
		return // domination
	}
	tree.EarliestAtStop[stop] = t
	tree.Predecessor[stop] = ev.via

	station := idx.Stop(stop).Station
	if t < tree.EarliestAtStation[station] {
		tree.EarliestAtStation[station] = t
	}

	for _, te := range idx.TransfersFrom(stop) {
		if te.Seconds > transferCap {
			continue
		}
		nt := t + te.Seconds
		if nt <= deadline && nt < tree.EarliestAtStop[te.To] {
			heap.Push(pq, pqEvent{
				t: nt, kind: kindArrive, seq: *seq, stop: te.To,
				via: Predecessor{Kind: PredTransfer, FromStop: stop, TransferSeconds: te.Seconds},
			})
			*seq++
		}
	}

	for _, qd := range r.qualifyingDepartures(idx, stop, t, deadline, req) {
		if tripBoarded[qd.trip.ID] {
			continue
		}
		if qd.position == len(qd.trip.StopTimes)-1 {
			continue // last stop of the trip, not boardable onward
		}
		tripBoarded[qd.trip.ID] = true

		nextPos := qd.position + 1
		nextArrival := qd.trip.StopTimes[nextPos].Arrival + qd.dayOffset
		heap.Push(pq, pqEvent{
			t: nextArrival, kind: kindAlight, seq: *seq,
			trip: qd.trip, dayOffset: qd.dayOffset, position: nextPos,
			boardStopTime: qd.boardStopTime,
		})
		*seq++
	}
}

func (r *Radar) relaxAlight(tree *Tree, pq *priorityQueue, seq *int, ev pqEvent, deadline int) {
	alight := offsetStopTime(ev.trip.StopTimes[ev.position], ev.dayOffset)

	heap.Push(pq, pqEvent{
		t: alight.Arrival, kind: kindArrive, seq: *seq, stop: alight.Stop,
		via: Predecessor{Kind: PredTrip, Trip: ev.trip.ID, Board: ev.boardStopTime, Alight: alight},
	})
	*seq++

	if ev.position+1 < len(ev.trip.StopTimes) {
		nextArrival := ev.trip.StopTimes[ev.position+1].Arrival + ev.dayOffset
		if nextArrival <= deadline {
			heap.Push(pq, pqEvent{
				t: nextArrival, kind: kindAlight, seq: *seq,
				trip: ev.trip, dayOffset: ev.dayOffset, position: ev.position + 1,
				boardStopTime: ev.boardStopTime,
			})
			*seq++
		}
	}
}

type qualifyingDeparture struct {
	trip          index.Trip
	dayOffset     int
	position      int
	boardStopTime index.StopTime
}

// qualifyingDepartures returns every trip departure boardable at stop
// no earlier than t, within the query's remaining budget. When the
// window [t, deadline] crosses the service-day boundary (deadline >
// 86400), next-day departures are overlaid with a +86400 offset
// applied to every time the boarded trip subsequently reports, per
// the original spec's §4.E "Service-day wrap".
func (r *Radar) qualifyingDepartures(idx *index.ScheduleIndex, stop ids.StopID, t, deadline int, req Request) []qualifyingDeparture {
	var out []qualifyingDeparture

	for _, e := range idx.NextDepartures(stop, t, deadline, req.Modes, req.Day.Weekday) {
		out = append(out, qualifyingDeparture{
			trip:          e.Trip,
			dayOffset:     0,
			position:      e.StopTime.Position,
			boardStopTime: e.StopTime,
		})
	}

	if deadline > 86400 {
		localFrom := t - 86400
		localUntil := deadline - 86400
		nextDay := req.Day.Next().Weekday
		for _, e := range idx.NextDepartures(stop, localFrom, localUntil, req.Modes, nextDay) {
			out = append(out, qualifyingDeparture{
				trip:          e.Trip,
				dayOffset:     86400,
				position:      e.StopTime.Position,
				boardStopTime: offsetStopTime(e.StopTime, 86400),
			})
		}
	}

	return out
}

func offsetStopTime(st index.StopTime, offset int) index.StopTime {
	if offset == 0 {
		return st
	}
	st.Arrival += offset
	st.Departure += offset
	return st
}
