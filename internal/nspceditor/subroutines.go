package nspceditor

import "github.com/ntrak-go/nspccore/internal/nspc"

// CreateSubroutineFromRowRange extracts the events spanning
// [startRow, endRow] on loc's channel into a new Subroutine, replacing them
// in the caller with a single SubroutineCall (§4.3.8).
func CreateSubroutineFromRowRange(song *nspc.Song, loc Location, startRow, endRow uint32) bool {
	pattern := song.PatternByID(loc.PatternID)
	if pattern == nil {
		return false
	}
	track, _ := trackForChannel(song, pattern, loc.Channel)
	ta := analyzeTrack(track.Events)
	if ta.HasSubroutineCalls {
		return false
	}

	var first, last *span
	for i := range ta.Spans {
		sp := ta.Spans[i]
		if sp.Start >= startRow && sp.Start <= endRow {
			if first == nil {
				first = &ta.Spans[i]
			}
			last = &ta.Spans[i]
		}
	}
	if first == nil || last == nil {
		return false
	}

	startIdx := first.AnchorIndex
	endIdx := last.AnchorIndex

	var newEvents []nspc.Entry
	if first.DurationIndex < 0 || first.DurationIndex < startIdx {
		newEvents = append(newEvents, nspc.Entry{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventDuration, Duration: nspc.Duration{Ticks: first.Length}}})
	}
	for i := startIdx; i <= endIdx; i++ {
		clone := track.Events[i]
		clone.ID = song.AllocEventID()
		newEvents = append(newEvents, clone)
	}
	newEvents = append(newEvents, nspc.Entry{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventEnd}})

	newSubID := int32(len(song.Subroutines))
	song.Subroutines = append(song.Subroutines, nspc.Subroutine{ID: newSubID, Events: newEvents})

	callEntry := nspc.Entry{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventVcmd, Vcmd: nspc.Vcmd{
		Kind: nspc.VcmdSubroutineCall, SubroutineID: newSubID, OriginalAddr: 0, Count: 1,
	}}}
	track.Events = removeEntries(track.Events, startIdx, endIdx+1)
	track.Events = insertEntries(track.Events, startIdx, callEntry)

	markUserProvided(song)
	return true
}

// cloneEventsFreshIDs clones events, assigning each a fresh ID.
func cloneEventsFreshIDs(song *nspc.Song, events []nspc.Entry) []nspc.Entry {
	out := make([]nspc.Entry, len(events))
	for i, e := range events {
		e.ID = song.AllocEventID()
		out[i] = e
	}
	return out
}

// FlattenSubroutineOnChannel replaces every call to subID in loc's channel
// track with Count copies of the subroutine's events (excluding End),
// each cloned with fresh event IDs (§4.3.8).
func FlattenSubroutineOnChannel(song *nspc.Song, loc Location, subID int32) bool {
	pattern := song.PatternByID(loc.PatternID)
	if pattern == nil {
		return false
	}
	track, _ := trackForChannel(song, pattern, loc.Channel)
	sub := song.SubroutineByID(subID)
	if sub == nil {
		return false
	}
	body := sub.Events
	if len(body) > 0 && body[len(body)-1].Event.Kind == nspc.EventEnd {
		body = body[:len(body)-1]
	}

	changed := false
	var out []nspc.Entry
	for _, e := range track.Events {
		if e.Event.Kind == nspc.EventVcmd && e.Event.Vcmd.Kind == nspc.VcmdSubroutineCall && e.Event.Vcmd.SubroutineID == subID {
			changed = true
			for iter := uint8(0); iter < e.Event.Vcmd.Count; iter++ {
				out = append(out, cloneEventsFreshIDs(song, body)...)
			}
			continue
		}
		out = append(out, e)
	}
	if !changed {
		return false
	}
	track.Events = out
	markUserProvided(song)
	return true
}

// DeleteSubroutine inlines every call site to subID across every track and
// every other subroutine, then removes subID and renumbers densely
// (§4.3.8).
func DeleteSubroutine(song *nspc.Song, subID int32) bool {
	sub := song.SubroutineByID(subID)
	if sub == nil {
		return false
	}
	body := sub.Events
	if len(body) > 0 && body[len(body)-1].Event.Kind == nspc.EventEnd {
		body = body[:len(body)-1]
	}

	inline := func(events []nspc.Entry) []nspc.Entry {
		var out []nspc.Entry
		for _, e := range events {
			if e.Event.Kind == nspc.EventVcmd && e.Event.Vcmd.Kind == nspc.VcmdSubroutineCall && e.Event.Vcmd.SubroutineID == subID {
				for iter := uint8(0); iter < e.Event.Vcmd.Count; iter++ {
					out = append(out, cloneEventsFreshIDs(song, body)...)
				}
				continue
			}
			out = append(out, e)
		}
		return out
	}

	for i := range song.Tracks {
		song.Tracks[i].Events = inline(song.Tracks[i].Events)
	}
	for i := range song.Subroutines {
		if song.Subroutines[i].ID == subID {
			continue
		}
		song.Subroutines[i].Events = inline(song.Subroutines[i].Events)
	}

	kept := make([]nspc.Subroutine, 0, len(song.Subroutines)-1)
	for _, s := range song.Subroutines {
		if s.ID == subID {
			continue
		}
		kept = append(kept, s)
	}
	song.Subroutines = kept
	song.Renumber()
	markUserProvided(song)
	return true
}

