package nspc

// Clone returns a deep copy of the song, suitable for snapshotting before a
// mutation so the original can be restored verbatim on undo (§4.4).
func (s *Song) Clone() *Song {
	out := &Song{
		ID:            s.ID,
		Name:          s.Name,
		Author:        s.Author,
		ContentOrigin: s.ContentOrigin,
		NextEventID:   s.NextEventID,
	}
	out.Sequence = append([]SeqOp(nil), s.Sequence...)

	out.Patterns = make([]Pattern, len(s.Patterns))
	for i, p := range s.Patterns {
		out.Patterns[i] = p
		if p.ChannelTrackIDs != nil {
			var ids [8]int32
			ids = *p.ChannelTrackIDs
			out.Patterns[i].ChannelTrackIDs = &ids
		}
	}

	out.Tracks = make([]Track, len(s.Tracks))
	for i, t := range s.Tracks {
		out.Tracks[i] = Track{ID: t.ID, OriginalAddr: t.OriginalAddr, Events: cloneEntries(t.Events)}
	}

	out.Subroutines = make([]Subroutine, len(s.Subroutines))
	for i, sub := range s.Subroutines {
		out.Subroutines[i] = Subroutine{ID: sub.ID, OriginalAddr: sub.OriginalAddr, Events: cloneEntries(sub.Events)}
	}

	return out
}

// RestoreFrom overwrites s's mutable fields with a deep copy of snap's,
// without changing s's identity (pointer).
func (s *Song) RestoreFrom(snap *Song) {
	clone := snap.Clone()
	*s = *clone
}

func cloneEntries(events []Entry) []Entry {
	out := make([]Entry, len(events))
	for i, e := range events {
		out[i] = e
		if e.OriginalAddr != nil {
			addr := *e.OriginalAddr
			out[i].OriginalAddr = &addr
		}
	}
	return out
}
