// Package nspceditor implements structural mutations on a song: per-cell
// row edits, tick insert/remove, subroutine lifecycle, and pattern length
// changes (§4.3). Every exported operation returns false on "no change or
// precondition violated" rather than an error (§6.5, §7).
package nspceditor

import "github.com/ntrak-go/nspccore/internal/nspc"

// DefaultVisibleRows is the bootstrap pattern length used when a brand new
// track is created in an otherwise-empty pattern (§8.4 scenario 2).
const DefaultVisibleRows = 128

// Location addresses one cell in a pattern: a channel (0..8) and a row
// (tick).
type Location struct {
	PatternID int32
	Channel   int
	Row       uint32
}

// trackForChannel returns the track bound to loc's channel in loc's
// pattern, creating and binding a bare empty one if absent. Callers decide
// whether and how far to extend a freshly created track (§4.3.2, §4.3.6).
func trackForChannel(song *nspc.Song, pattern *nspc.Pattern, channel int) (track *nspc.Track, wasCreated bool) {
	var ids [8]int32
	if pattern.ChannelTrackIDs != nil {
		ids = *pattern.ChannelTrackIDs
	} else {
		for i := range ids {
			ids[i] = -1
		}
	}
	if ids[channel] >= 0 {
		if t := song.TrackByID(ids[channel]); t != nil {
			return t, false
		}
	}

	newID := int32(len(song.Tracks))
	song.Tracks = append(song.Tracks, nspc.Track{ID: newID})
	track = &song.Tracks[len(song.Tracks)-1]

	ids[channel] = newID
	pattern.ChannelTrackIDs = &ids
	return track, true
}

// patternBaselineEndTick returns the end tick of the first other channel
// track in the pattern, or DefaultVisibleRows-1 if the pattern has none
// (§8.4 scenario 2: "the pattern end tick equals the prior pattern end or
// a bootstrap kDefaultVisibleRows-1 = 127"). A track with no End yet (the
// one being created) is not counted.
func patternBaselineEndTick(song *nspc.Song, pattern *nspc.Pattern) uint32 {
	if pattern.ChannelTrackIDs != nil {
		for _, tid := range pattern.ChannelTrackIDs {
			if tid < 0 {
				continue
			}
			t := song.TrackByID(tid)
			if t == nil {
				continue
			}
			ta := analyzeTrack(t.Events)
			if !ta.HasEnd {
				continue
			}
			return ta.EndTick
		}
	}
	return DefaultVisibleRows - 1
}

// extendTrackTo appends continuation filler rows until the track's total
// ticks equal target, then terminates the track with End (an End it already
// had is moved to the new tail).
func extendTrackTo(song *nspc.Song, track *nspc.Track, target uint32) {
	ta := analyzeTrack(track.Events)
	if ta.HasEnd {
		// Remove the trailing End; it's re-appended after extension.
		track.Events = track.Events[:len(track.Events)-1]
	}
	current := ta.EndTick
	lastEvent := nspc.Event{Kind: nspc.EventRest}
	if len(ta.Spans) > 0 {
		last := ta.Spans[len(ta.Spans)-1]
		lastEvent = track.Events[last.AnchorIndex].Event
	}
	for current < target {
		chunk := target - current
		if chunk > uint32(nspc.MaxDurationTicks) {
			chunk = uint32(nspc.MaxDurationTicks)
		}
		track.Events = append(track.Events,
			nspc.Entry{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventDuration, Duration: nspc.Duration{Ticks: uint8(chunk)}}},
			nspc.Entry{ID: song.AllocEventID(), Event: nspc.ContinuationEvent(lastEvent)},
		)
		current += chunk
		lastEvent = nspc.ContinuationEvent(lastEvent)
	}
	track.Events = append(track.Events, nspc.Entry{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventEnd}})
}

// markUserProvided applies the content-origin side effect of §4.3.10: any
// successful mutation marks the owning song UserProvided.
func markUserProvided(song *nspc.Song) { song.ContentOrigin = nspc.UserProvided }

// insertEntries inserts newEntries into events at index i.
func insertEntries(events []nspc.Entry, i int, newEntries ...nspc.Entry) []nspc.Entry {
	out := make([]nspc.Entry, 0, len(events)+len(newEntries))
	out = append(out, events[:i]...)
	out = append(out, newEntries...)
	out = append(out, events[i:]...)
	return out
}

// removeEntries removes events[from:to).
func removeEntries(events []nspc.Entry, from, to int) []nspc.Entry {
	out := make([]nspc.Entry, 0, len(events)-(to-from))
	out = append(out, events[:from]...)
	out = append(out, events[to:]...)
	return out
}
