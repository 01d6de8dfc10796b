package nspceditor

import "github.com/ntrak-go/nspccore/internal/nspc"

// InsertTickAtRow extends the span at loc.Row by one tick (§4.3.4, §8.3).
func InsertTickAtRow(song *nspc.Song, loc Location) bool {
	pattern := song.PatternByID(loc.PatternID)
	if pattern == nil {
		return false
	}
	track, wasCreated := trackForChannel(song, pattern, loc.Channel)
	if wasCreated {
		extendTrackTo(song, track, patternBaselineEndTick(song, pattern))
	}
	ta := analyzeTrack(track.Events)
	if ta.HasSubroutineCalls {
		return false
	}

	if sp, ok := ta.spanAt(loc.Row); ok {
		if sp.Start == loc.Row {
			prev := spanImmediatelyBefore(ta, sp)
			var contEvent nspc.Event
			if prev != nil {
				contEvent = nspc.ContinuationEvent(track.Events[prev.AnchorIndex].Event)
			} else {
				contEvent = nspc.Event{Kind: nspc.EventTie}
			}
			// Restore the anchor's own Duration after the inserted 1-tick
			// row so the anchor keeps its length.
			restore := nspc.Duration{Ticks: sp.Length}
			if sp.DurationIndex >= 0 {
				restore = track.Events[sp.DurationIndex].Event.Duration
			}
			track.Events = insertEntries(track.Events, sp.AnchorIndex,
				nspc.Entry{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventDuration, Duration: nspc.Duration{Ticks: 1}}},
				nspc.Entry{ID: song.AllocEventID(), Event: contEvent},
				nspc.Entry{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventDuration, Duration: restore}})
		} else {
			if sp.Length >= nspc.MaxDurationTicks {
				return false
			}
			if sp.DurationIndex < 0 {
				return false
			}
			track.Events[sp.DurationIndex].Event.Duration.Ticks++
		}
		markUserProvided(song)
		return true
	}

	// Beyond all spans: extend the track.
	extendTrackTo(song, track, loc.Row+1)
	markUserProvided(song)
	return true
}

// RemoveTickAtRow shrinks the span covering loc.Row by one tick (§4.3.4).
func RemoveTickAtRow(song *nspc.Song, loc Location) bool {
	pattern := song.PatternByID(loc.PatternID)
	if pattern == nil {
		return false
	}
	var trackID int32 = -1
	if pattern.ChannelTrackIDs != nil {
		trackID = pattern.ChannelTrackIDs[loc.Channel]
	}
	if trackID < 0 {
		return false
	}
	track := song.TrackByID(trackID)
	if track == nil {
		return false
	}
	ta := analyzeTrack(track.Events)
	if ta.HasSubroutineCalls {
		return false
	}
	sp, ok := ta.spanAt(loc.Row)
	if !ok {
		return false
	}

	if sp.Length > 1 {
		track.Events[sp.DurationIndex].Event.Duration.Ticks--
		markUserProvided(song)
		return true
	}

	// Length 1: remove the anchor entirely.
	track.Events = removeEntries(track.Events, sp.AnchorIndex, sp.AnchorIndex+1)
	if sp.DurationIndex >= 0 {
		removeOrphanDuration(track, sp.DurationIndex)
	}
	markUserProvided(song)
	return true
}

// removeOrphanDuration removes the Duration at idx if nothing between it
// and the next Duration/End is a tick-consuming event (it now governs
// nothing).
func removeOrphanDuration(track *nspc.Track, idx int) {
	if idx >= len(track.Events) {
		return
	}
	for i := idx + 1; i < len(track.Events); i++ {
		k := track.Events[i].Event.Kind
		if k == nspc.EventDuration || k == nspc.EventEnd {
			track.Events = removeEntries(track.Events, idx, idx+1)
			return
		}
		if track.Events[i].Event.IsTickConsuming() {
			return
		}
	}
}
