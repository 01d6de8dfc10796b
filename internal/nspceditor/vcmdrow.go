package nspceditor

import "github.com/ntrak-go/nspccore/internal/nspc"

// ensureBoundaryAt guarantees an anchor entry begins exactly at tick row,
// splitting the covering span (without changing its event) if row falls in
// its interior. Returns false if no span covers row at all.
func ensureBoundaryAt(song *nspc.Song, track *nspc.Track, row uint32) (int, bool) {
	ta := analyzeTrack(track.Events)
	sp, found := ta.spanAt(row)
	if !found {
		return 0, false
	}
	if sp.Start == row {
		return sp.AnchorIndex, true
	}
	orig := track.Events[sp.AnchorIndex].Event
	splitSpanForWrite(song, track, sp, row, orig)
	ta2 := analyzeTrack(track.Events)
	sp2, _ := ta2.spanAt(row)
	return sp2.AnchorIndex, true
}

func prepareTrackForVcmdEdit(song *nspc.Song, loc Location) (*nspc.Track, bool) {
	pattern := song.PatternByID(loc.PatternID)
	if pattern == nil {
		return nil, false
	}
	track, wasCreated := trackForChannel(song, pattern, loc.Channel)
	if wasCreated {
		extendTrackTo(song, track, patternBaselineEndTick(song, pattern))
	}
	return track, true
}

func isInstVcmd(v nspc.Vcmd) bool   { return v.Kind == nspc.VcmdInst }
func isVolumeVcmd(v nspc.Vcmd) bool { return v.Kind == nspc.VcmdVolume }
func isEffectVcmd(v nspc.Vcmd) bool {
	return v.Kind != nspc.VcmdInst && v.Kind != nspc.VcmdVolume && v.Kind != nspc.VcmdSubroutineCall
}

// setSingleVcmdAtRow implements the shared shape of §4.3.6: replace any
// existing matches at row's tick with one value (or clear if value is
// nil), inserting immediately before the row's anchor when none exist.
func setSingleVcmdAtRow(song *nspc.Song, loc Location, pred func(nspc.Vcmd) bool, value *nspc.Vcmd) bool {
	track, ok := prepareTrackForVcmdEdit(song, loc)
	if !ok {
		return false
	}
	ta := analyzeTrack(track.Events)
	matches := ta.vcmdsAtTick(track.Events, loc.Row, pred)

	if value == nil {
		if len(matches) == 0 {
			return false
		}
		removeIndices(track, matches)
		markUserProvided(song)
		return true
	}

	if len(matches) > 0 {
		track.Events[matches[0]].Event.Vcmd = *value
		if len(matches) > 1 {
			removeIndices(track, matches[1:])
		}
		markUserProvided(song)
		return true
	}

	anchorIdx, found := ensureBoundaryAt(song, track, loc.Row)
	if !found {
		return false
	}
	track.Events = insertEntries(track.Events, anchorIdx,
		nspc.Entry{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventVcmd, Vcmd: *value}})
	markUserProvided(song)
	return true
}

// removeIndices deletes track.Events at the given indices (must be sorted
// ascending, as returned by vcmdsAtTick).
func removeIndices(track *nspc.Track, indices []int) {
	keep := make([]nspc.Entry, 0, len(track.Events)-len(indices))
	skip := make(map[int]bool, len(indices))
	for _, i := range indices {
		skip[i] = true
	}
	for i, e := range track.Events {
		if skip[i] {
			continue
		}
		keep = append(keep, e)
	}
	track.Events = keep
}

// SetInstrumentAtRow sets (or clears, if value is nil) the instrument VCMD
// governing loc's row (§4.3.6).
func SetInstrumentAtRow(song *nspc.Song, loc Location, value *uint8) bool {
	var vc *nspc.Vcmd
	if value != nil {
		vc = &nspc.Vcmd{Kind: nspc.VcmdInst, Value: *value}
	}
	return setSingleVcmdAtRow(song, loc, isInstVcmd, vc)
}

// SetVolumeAtRow sets (or clears) the volume VCMD governing loc's row.
func SetVolumeAtRow(song *nspc.Song, loc Location, value *uint8) bool {
	var vc *nspc.Vcmd
	if value != nil {
		vc = &nspc.Vcmd{Kind: nspc.VcmdVolume, Value: *value}
	}
	return setSingleVcmdAtRow(song, loc, isVolumeVcmd, vc)
}

// SetQVAtRow writes (quant, velocity) into the Duration governing loc's
// row, inserting one with the row's current span length if none sits
// immediately before the anchor. Passing both nil clears both fields
// (§4.3.6, §8.3).
func SetQVAtRow(song *nspc.Song, loc Location, quant, velocity *uint8) bool {
	track, ok := prepareTrackForVcmdEdit(song, loc)
	if !ok {
		return false
	}
	ta := analyzeTrack(track.Events)
	sp, found := ta.spanAt(loc.Row)
	if !found {
		return false
	}
	if sp.Start != loc.Row {
		anchorIdx, _ := ensureBoundaryAt(song, track, loc.Row)
		ta = analyzeTrack(track.Events)
		for _, s := range ta.Spans {
			if s.AnchorIndex == anchorIdx {
				sp = s
				break
			}
		}
	}
	if sp.DurationIndex < 0 || sp.DurationIndex != sp.AnchorIndex-1 {
		d := nspc.Entry{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventDuration, Duration: nspc.Duration{Ticks: sp.Length}}}
		track.Events = insertEntries(track.Events, sp.AnchorIndex, d)
		sp.DurationIndex = sp.AnchorIndex
	}
	track.Events[sp.DurationIndex].Event.Duration.Quant = quant
	track.Events[sp.DurationIndex].Event.Duration.Velocity = velocity
	markUserProvided(song)
	return true
}

// SetEffectAtRow replaces every non-Inst/Volume/SubroutineCall VCMD at
// loc's row with effect (§4.3.7).
func SetEffectAtRow(song *nspc.Song, loc Location, effect nspc.Vcmd) bool {
	return setSingleVcmdAtRow(song, loc, isEffectVcmd, &effect)
}

// ClearEffectsAtRow removes every effect VCMD at loc's row.
func ClearEffectsAtRow(song *nspc.Song, loc Location) bool {
	return setSingleVcmdAtRow(song, loc, isEffectVcmd, nil)
}

// AddEffectAtRow appends a new effect VCMD after the last effect already
// present at loc's row (§4.3.7), rather than replacing.
func AddEffectAtRow(song *nspc.Song, loc Location, effect nspc.Vcmd) bool {
	track, ok := prepareTrackForVcmdEdit(song, loc)
	if !ok {
		return false
	}
	ta := analyzeTrack(track.Events)
	matches := ta.vcmdsAtTick(track.Events, loc.Row, isEffectVcmd)

	insertAt := -1
	if len(matches) > 0 {
		insertAt = matches[len(matches)-1] + 1
	} else {
		anchorIdx, found := ensureBoundaryAt(song, track, loc.Row)
		if !found {
			return false
		}
		insertAt = anchorIdx
	}
	track.Events = insertEntries(track.Events, insertAt,
		nspc.Entry{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventVcmd, Vcmd: effect}})
	markUserProvided(song)
	return true
}
