package nspc

// FlattenAllSubroutines inlines every subroutine call it can safely inline
// across the whole song and drops now-unreferenced subroutines. Distinct
// from a per-channel flatten: this is a song-wide pass used by the
// compiler's optional optimize step as one candidate strategy alongside
// true dedup/compression (original_source NspcData.hpp flattenSubroutines()).
func (s *Song) FlattenAllSubroutines() {
	inlineAll := func(events []Entry) ([]Entry, bool) {
		changed := false
		var out []Entry
		for _, e := range events {
			if e.Event.Kind == EventVcmd && e.Event.Vcmd.Kind == VcmdSubroutineCall {
				sub := s.SubroutineByID(e.Event.Vcmd.SubroutineID)
				if sub == nil {
					out = append(out, e)
					continue
				}
				body := sub.Events
				if len(body) > 0 && body[len(body)-1].Event.Kind == EventEnd {
					body = body[:len(body)-1]
				}
				changed = true
				for iter := uint8(0); iter < e.Event.Vcmd.Count; iter++ {
					out = append(out, s.cloneEventsFreshIDs(body)...)
				}
				continue
			}
			out = append(out, e)
		}
		return out, changed
	}

	anyChanged := true
	for anyChanged {
		anyChanged = false
		for i := range s.Tracks {
			newEvents, changed := inlineAll(s.Tracks[i].Events)
			if changed {
				s.Tracks[i].Events = newEvents
				anyChanged = true
			}
		}
	}

	referenced := map[int32]bool{}
	for i := range s.Tracks {
		s.markReferencedSubroutines(s.Tracks[i].Events, referenced)
	}
	kept := make([]Subroutine, 0, len(s.Subroutines))
	for _, sub := range s.Subroutines {
		if referenced[sub.ID] {
			kept = append(kept, sub)
		}
	}
	s.Subroutines = kept
	s.Renumber()
}

// cloneEventsFreshIDs clones events, assigning each a fresh event ID.
func (s *Song) cloneEventsFreshIDs(events []Entry) []Entry {
	out := make([]Entry, len(events))
	for i, e := range events {
		e.ID = s.AllocEventID()
		out[i] = e
	}
	return out
}

func (s *Song) markReferencedSubroutines(events []Entry, seen map[int32]bool) {
	for _, e := range events {
		if e.Event.Kind == EventVcmd && e.Event.Vcmd.Kind == VcmdSubroutineCall {
			id := e.Event.Vcmd.SubroutineID
			if seen[id] {
				continue
			}
			seen[id] = true
			if sub := s.SubroutineByID(id); sub != nil {
				s.markReferencedSubroutines(sub.Events, seen)
			}
		}
	}
}
