package nspceditor

import "github.com/ntrak-go/nspccore/internal/nspc"

// SetPatternLength trims or extends every track referenced by pattern to
// newLength ticks (§4.3.9). It refuses when any affected track calls a
// subroutine, since subroutine-spanning trims/extends can't be expressed as
// a simple per-tick edit.
func SetPatternLength(song *nspc.Song, patternID int32, newLength uint32) bool {
	pattern := song.PatternByID(patternID)
	if pattern == nil || newLength == 0 {
		return false
	}
	if pattern.ChannelTrackIDs == nil {
		return true
	}

	tracks := make([]*nspc.Track, 0, 8)
	for _, tid := range pattern.ChannelTrackIDs {
		if tid < 0 {
			continue
		}
		t := song.TrackByID(tid)
		if t == nil {
			continue
		}
		ta := analyzeTrack(t.Events)
		if ta.HasSubroutineCalls {
			return false
		}
		tracks = append(tracks, t)
	}

	for _, t := range tracks {
		ta := analyzeTrack(t.Events)
		switch {
		case ta.EndTick < newLength:
			extendTrackTo(song, t, newLength)
		case ta.EndTick > newLength:
			trimTrackTo(song, t, ta, newLength)
		}
	}
	markUserProvided(song)
	return true
}

// trimTrackTo cuts t's stream down to exactly target ticks, splitting the
// span that straddles the boundary (if any) so its prefix is preserved.
func trimTrackTo(song *nspc.Song, t *nspc.Track, ta trackAnalysis, target uint32) {
	sp, covers := ta.spanAt(target)
	var cutIdx int
	switch {
	case covers && sp.Start < target:
		prefixTicks := uint8(target - sp.Start)
		t.Events[sp.DurationIndex].Event.Duration.Ticks = prefixTicks
		cutIdx = sp.AnchorIndex + 1
	default:
		cutIdx = len(t.Events)
		for _, s := range ta.Spans {
			if s.Start >= target {
				cutIdx = s.DurationIndex
				if cutIdx < 0 {
					cutIdx = s.AnchorIndex
				}
				break
			}
		}
	}
	t.Events = t.Events[:cutIdx]
	t.Events = append(t.Events, nspc.Entry{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventEnd}})
}
