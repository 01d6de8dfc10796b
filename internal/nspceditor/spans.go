package nspceditor

import "github.com/ntrak-go/nspccore/internal/nspc"

// span describes one tick-consuming event's occupied row range
// [Start, Start+Length) within a single event stream (§4.3.1).
type span struct {
	AnchorIndex   int
	Start         uint32
	Length        uint8
	DurationIndex int // index of the Duration entry governing Length, or -1 if implicit (leading ticks=1)
}

// trackAnalysis is the result of walking one event stream top-level
// (never descending into subroutine calls) to locate spans, subroutine
// call positions, and the stream's end tick.
type trackAnalysis struct {
	Spans             []span
	SubroutineCallIdx map[uint32][]int // tick -> event indices of SubroutineCall VCMDs at that tick
	TickOf            []uint32         // per-index tick position (valid for every entry)
	EndTick           uint32
	HasEnd            bool
	HasSubroutineCalls bool
}

// analyzeTrack walks events once, computing every span's start tick and
// governing length, every subroutine call's tick position, and a per-index
// tick map used to locate VCMDs belonging to a given row.
func analyzeTrack(events []nspc.Entry) trackAnalysis {
	ta := trackAnalysis{SubroutineCallIdx: map[uint32][]int{}, TickOf: make([]uint32, len(events))}
	var tick uint32
	duration := nspc.Duration{Ticks: 1}
	lastDurationIdx := -1
	for i, e := range events {
		ta.TickOf[i] = tick
		switch e.Event.Kind {
		case nspc.EventDuration:
			duration = e.Event.Duration
			lastDurationIdx = i
		case nspc.EventVcmd:
			if e.Event.Vcmd.Kind == nspc.VcmdSubroutineCall {
				ta.HasSubroutineCalls = true
				ta.SubroutineCallIdx[tick] = append(ta.SubroutineCallIdx[tick], i)
			}
		case nspc.EventEnd:
			ta.EndTick = tick
			ta.HasEnd = true
		default:
			if e.Event.IsTickConsuming() {
				ta.Spans = append(ta.Spans, span{AnchorIndex: i, Start: tick, Length: duration.Ticks, DurationIndex: lastDurationIdx})
				tick += uint32(duration.Ticks)
			}
		}
	}
	if !ta.HasEnd {
		ta.EndTick = tick
	}
	return ta
}

// vcmdsAtTick returns the indices of every Vcmd entry at tick row matching
// pred, in stream order.
func (ta trackAnalysis) vcmdsAtTick(events []nspc.Entry, row uint32, pred func(nspc.Vcmd) bool) []int {
	var out []int
	for i, e := range events {
		if e.Event.Kind != nspc.EventVcmd {
			continue
		}
		if ta.TickOf[i] != row {
			continue
		}
		if pred(e.Event.Vcmd) {
			out = append(out, i)
		}
	}
	return out
}

// spanAt returns the span covering row, if any.
func (ta trackAnalysis) spanAt(row uint32) (span, bool) {
	for _, sp := range ta.Spans {
		if row >= sp.Start && row < sp.Start+uint32(sp.Length) {
			return sp, true
		}
	}
	return span{}, false
}

// spanBefore returns the last span whose range ends at or before row, i.e.
// the span immediately preceding row with nothing covering it.
func (ta trackAnalysis) spanBefore(row uint32) (span, bool) {
	var best span
	found := false
	for _, sp := range ta.Spans {
		end := sp.Start + uint32(sp.Length)
		if end <= row && (!found || end > best.Start+uint32(best.Length)) {
			best = sp
			found = true
		}
	}
	return best, found
}

// subroutineCallAt returns the index of a SubroutineCall VCMD sitting
// exactly at tick row, if any.
func (ta trackAnalysis) subroutineCallAt(row uint32) (int, bool) {
	idxs, ok := ta.SubroutineCallIdx[row]
	if !ok || len(idxs) == 0 {
		return 0, false
	}
	return idxs[0], true
}
