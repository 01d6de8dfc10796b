package nspc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func endStream() []Entry {
	return []Entry{{ID: 1, Event: Event{Kind: EventEnd}}}
}

func TestRenumberMakesIDsDense(t *testing.T) {
	s := NewEmptySong(1)
	s.Tracks = []Track{{ID: 5, Events: endStream()}, {ID: 2, Events: endStream()}}
	s.Subroutines = []Subroutine{{ID: 9, Events: endStream()}}
	s.Patterns = []Pattern{{ID: 7}}
	s.Sequence = []SeqOp{{Kind: SeqOpPlayPattern, PatternID: 7}}

	s.Renumber()

	assert.Equal(t, int32(0), s.Tracks[0].ID)
	assert.Equal(t, int32(1), s.Tracks[1].ID)
	assert.Equal(t, int32(0), s.Subroutines[0].ID)
	assert.Equal(t, int32(0), s.Patterns[0].ID)
	assert.Equal(t, int32(0), s.Sequence[0].PatternID)
}

func TestRenumberRemapsSubroutineCalls(t *testing.T) {
	s := NewEmptySong(1)
	s.Subroutines = []Subroutine{{ID: 3, Events: endStream()}}
	s.Tracks = []Track{{
		ID: 0,
		Events: []Entry{
			{ID: 1, Event: Event{Kind: EventVcmd, Vcmd: Vcmd{Kind: VcmdSubroutineCall, SubroutineID: 3}}},
			{ID: 2, Event: Event{Kind: EventEnd}},
		},
	}}

	s.Renumber()

	assert.Equal(t, int32(0), s.Subroutines[0].ID)
	assert.Equal(t, int32(0), s.Tracks[0].Events[0].Event.Vcmd.SubroutineID)
}

func TestCheckInvariantsRejectsNonDenseTrackID(t *testing.T) {
	s := NewEmptySong(1)
	s.Tracks = []Track{{ID: 5, Events: endStream()}}
	assert.Error(t, s.CheckInvariants())
}

func TestCheckInvariantsRejectsStreamNotEndingInEnd(t *testing.T) {
	s := NewEmptySong(1)
	s.Tracks = []Track{{ID: 0, Events: []Entry{{ID: 1, Event: Event{Kind: EventNote, Note: Note{Pitch: 0x30}}}}}}
	assert.Error(t, s.CheckInvariants())
}

func TestCheckInvariantsAcceptsWellFormedSong(t *testing.T) {
	s := NewEmptySong(1)
	s.Tracks = []Track{{ID: 0, Events: endStream()}}
	s.NextEventID = 2
	assert.NoError(t, s.CheckInvariants())
}

func TestResolveEventFallsBackToIDScanWhenIndexStale(t *testing.T) {
	s := NewEmptySong(1)
	s.Tracks = []Track{{ID: 0, Events: []Entry{
		{ID: 1, Event: Event{Kind: EventNote, Note: Note{Pitch: 0x10}}},
		{ID: 2, Event: Event{Kind: EventEnd}},
	}}}

	ref := EventRef{Owner: OwnerTrack, OwnerID: 0, EventIndex: 0, EventID: 2}
	entry, ok := s.ResolveEvent(ref)
	assert.True(t, ok)
	assert.Equal(t, EventEnd, entry.Event.Kind)
}

func TestMaxEventIDAcrossTracksAndSubroutines(t *testing.T) {
	s := NewEmptySong(1)
	s.Tracks = []Track{{ID: 0, Events: []Entry{{ID: 5, Event: Event{Kind: EventEnd}}}}}
	s.Subroutines = []Subroutine{{ID: 0, Events: []Entry{{ID: 12, Event: Event{Kind: EventEnd}}}}}
	assert.Equal(t, EventID(12), s.MaxEventID())
}
