package nspceditor

import "github.com/ntrak-go/nspccore/internal/nspc"

// SetRowEvent writes a Note/Tie/Rest/Percussion at loc (§4.3.2).
func SetRowEvent(song *nspc.Song, loc Location, event nspc.Event) bool {
	if !event.IsTickConsuming() {
		return false
	}
	pattern := song.PatternByID(loc.PatternID)
	if pattern == nil {
		return false
	}
	track, wasCreated := trackForChannel(song, pattern, loc.Channel)
	ta := analyzeTrack(track.Events)

	switch {
	case func() bool { _, ok := ta.spanAt(loc.Row); return ok }():
		sp, _ := ta.spanAt(loc.Row)
		if sp.Start == loc.Row {
			track.Events[sp.AnchorIndex].Event = event
			compactWithPrevious(song, track, sp.AnchorIndex)
		} else {
			splitSpanForWrite(song, track, sp, loc.Row, event)
		}
	case func() bool { _, ok := ta.subroutineCallAt(loc.Row); return ok }():
		idx, _ := ta.subroutineCallAt(loc.Row)
		vc := track.Events[idx].Event.Vcmd
		sub := song.SubroutineByID(vc.SubroutineID)
		if sub == nil {
			return false
		}
		writeFirstTimedSlot(song, sub, event)
	default:
		fillGapAndAppend(song, track, ta, loc.Row, event)
		if wasCreated {
			baseline := patternBaselineEndTick(song, pattern)
			extendTrackTo(song, track, baseline)
		}
	}
	markUserProvided(song)
	return true
}

// fillGapAndAppend implements the "no span covers, no subroutine call"
// branch of §4.3.2: fill from the last span's end with a continuation
// filler, then append Duration{1} + event.
func fillGapAndAppend(song *nspc.Song, track *nspc.Track, ta trackAnalysis, row uint32, event nspc.Event) {
	insertAt := len(track.Events)
	if ta.HasEnd {
		insertAt = lastEndIndex(track.Events)
	}
	var filler []nspc.Entry
	if last, ok := lastSpan(ta); ok {
		fillFrom := last.Start + uint32(last.Length)
		if row > fillFrom {
			gapTicks := row - fillFrom
			cont := nspc.ContinuationEvent(track.Events[last.AnchorIndex].Event)
			filler = chunkedFiller(song, gapTicks, cont)
		}
	} else if row > 0 {
		// No prior span at all: per §8.4 scenario 2 no filler is emitted
		// before the very first write; the brand-new track starts with
		// Duration{1} at row 0 regardless of a nonzero target row. Rows
		// between 0 and `row` simply don't exist yet in the stream; this
		// mirrors the original's behavior of only ever filling forward
		// from a real previous span.
	}
	filler = append(filler,
		nspc.Entry{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventDuration, Duration: nspc.Duration{Ticks: 1}}},
		nspc.Entry{ID: song.AllocEventID(), Event: event},
	)
	track.Events = insertEntries(track.Events, insertAt, filler...)
}

func chunkedFiller(song *nspc.Song, ticks uint32, event nspc.Event) []nspc.Entry {
	var out []nspc.Entry
	for ticks > 0 {
		chunk := ticks
		if chunk > uint32(nspc.MaxDurationTicks) {
			chunk = uint32(nspc.MaxDurationTicks)
		}
		out = append(out,
			nspc.Entry{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventDuration, Duration: nspc.Duration{Ticks: uint8(chunk)}}},
			nspc.Entry{ID: song.AllocEventID(), Event: event},
		)
		ticks -= chunk
	}
	return out
}

func lastSpan(ta trackAnalysis) (span, bool) {
	if len(ta.Spans) == 0 {
		return span{}, false
	}
	return ta.Spans[len(ta.Spans)-1], true
}

func lastEndIndex(events []nspc.Entry) int {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Event.Kind == nspc.EventEnd {
			return i
		}
	}
	return len(events)
}

// splitSpanForWrite handles writing into a span's interior (§4.3.2):
// insert Duration{row-span.start} before the original anchor, insert
// Duration{span.length-(row-span.start)} + the new event after it, and
// restore the original governing duration before the next tick-consuming
// event so later spans keep their original length.
func splitSpanForWrite(song *nspc.Song, track *nspc.Track, sp span, row uint32, event nspc.Event) {
	prefixTicks := uint8(row - sp.Start)
	suffixTicks := sp.Length - prefixTicks

	newEntries := []nspc.Entry{
		{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventDuration, Duration: nspc.Duration{Ticks: prefixTicks}}},
		track.Events[sp.AnchorIndex],
		{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventDuration, Duration: nspc.Duration{Ticks: suffixTicks}}},
		{ID: song.AllocEventID(), Event: event},
		{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventDuration, Duration: nspc.Duration{Ticks: sp.Length}}},
	}
	track.Events = removeEntries(track.Events, sp.AnchorIndex, sp.AnchorIndex+1)
	track.Events = insertEntries(track.Events, sp.AnchorIndex, newEntries...)
}

// DeleteRowEvent deletes the event at loc (§4.3.3). Only meaningful when
// row is a span's anchor; deleting a continuation row is a no-op.
func DeleteRowEvent(song *nspc.Song, loc Location) bool {
	pattern := song.PatternByID(loc.PatternID)
	if pattern == nil {
		return false
	}
	track, _ := trackForChannel(song, pattern, loc.Channel)
	ta := analyzeTrack(track.Events)
	sp, ok := ta.spanAt(loc.Row)
	if !ok || sp.Start != loc.Row {
		return false
	}

	anchor := track.Events[sp.AnchorIndex]
	isTie := anchor.Event.Kind == nspc.EventTie
	hasPredecessor := spanImmediatelyBefore(ta, sp)

	switch {
	case isTie && hasPredecessor != nil:
		mergeWithPrevious(song, track, *hasPredecessor, sp)
	case !hasPredecessorExists(ta, sp):
		track.Events[sp.AnchorIndex].Event = nspc.Event{Kind: nspc.EventTie}
		compactWithPrevious(song, track, sp.AnchorIndex)
	default:
		prev := findPredecessorEvent(track.Events, sp.DurationIndex)
		track.Events[sp.AnchorIndex].Event = nspc.ContinuationEvent(prev)
		compactWithPrevious(song, track, sp.AnchorIndex)
	}
	markUserProvided(song)
	return true
}

func hasPredecessorExists(ta trackAnalysis, sp span) bool {
	for _, s := range ta.Spans {
		if s.Start+uint32(s.Length) == sp.Start {
			return true
		}
	}
	return false
}

func spanImmediatelyBefore(ta trackAnalysis, sp span) *span {
	for i := range ta.Spans {
		if ta.Spans[i].Start+uint32(ta.Spans[i].Length) == sp.Start {
			s := ta.Spans[i]
			return &s
		}
	}
	return nil
}

func findPredecessorEvent(events []nspc.Entry, beforeDurationIdx int) nspc.Event {
	// Find the tick-consuming event immediately preceding the Duration at
	// beforeDurationIdx in stream order.
	for i := beforeDurationIdx - 1; i >= 0; i-- {
		if events[i].Event.IsTickConsuming() {
			return events[i].Event
		}
	}
	return nspc.Event{Kind: nspc.EventRest}
}

// mergeWithPrevious merges prevSpan and sp (deleting a Tie anchor that
// follows another span), clamping the combined length to MaxDurationTicks
// (§4.3.3, §4.3.5).
func mergeWithPrevious(song *nspc.Song, track *nspc.Track, prevSpan, sp span) {
	combined := uint32(prevSpan.Length) + uint32(sp.Length)
	if combined > uint32(nspc.MaxDurationTicks) {
		combined = uint32(nspc.MaxDurationTicks)
	}
	if prevSpan.DurationIndex >= 0 {
		track.Events[prevSpan.DurationIndex].Event.Duration.Ticks = uint8(combined)
	}
	// Erase the Tie anchor only; a Duration that governed it stays in the
	// stream.
	from := sp.AnchorIndex
	to := sp.AnchorIndex + 1
	track.Events = removeEntries(track.Events, from, to)
}

// compactWithPrevious applies the merge-adjacent-continuation rule of
// §4.3.5 after a write produced a boundary at anchorIndex.
func compactWithPrevious(song *nspc.Song, track *nspc.Track, anchorIndex int) {
	ta := analyzeTrack(track.Events)
	var cur span
	found := false
	for _, s := range ta.Spans {
		if s.AnchorIndex == anchorIndex {
			cur = s
			found = true
			break
		}
	}
	if !found {
		return
	}
	prev := spanImmediatelyBefore(ta, cur)
	if prev == nil {
		return
	}
	curEvent := track.Events[cur.AnchorIndex].Event
	prevEvent := track.Events[prev.AnchorIndex].Event
	if curEvent != nspc.ContinuationEvent(prevEvent) {
		return
	}
	combined := uint32(prev.Length) + uint32(cur.Length)
	if combined > uint32(nspc.MaxDurationTicks) {
		return
	}
	if prev.DurationIndex >= 0 {
		track.Events[prev.DurationIndex].Event.Duration.Ticks = uint8(combined)
	}
	track.Events = removeEntries(track.Events, cur.AnchorIndex, cur.AnchorIndex+1)
}

// writeFirstTimedSlot writes event into the first timed (tick-consuming)
// slot of sub, or appends one before sub's End if sub has none (§4.3.2
// "only a subroutine call at the tick").
func writeFirstTimedSlot(song *nspc.Song, sub *nspc.Subroutine, event nspc.Event) {
	for i := range sub.Events {
		if sub.Events[i].Event.IsTickConsuming() {
			sub.Events[i].Event = event
			return
		}
	}
	insertAt := lastEndIndex(sub.Events)
	sub.Events = insertEntries(sub.Events, insertAt,
		nspc.Entry{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventDuration, Duration: nspc.Duration{Ticks: 1}}},
		nspc.Entry{ID: song.AllocEventID(), Event: event},
	)
}
