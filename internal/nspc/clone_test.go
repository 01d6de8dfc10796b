package nspc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneIsDeepCopy(t *testing.T) {
	ids := [8]int32{0, -1, -1, -1, -1, -1, -1, -1}
	s := &Song{
		ID:          1,
		NextEventID: 3,
		Patterns:    []Pattern{{ID: 0, ChannelTrackIDs: &ids}},
		Tracks: []Track{{
			ID:     0,
			Events: []Entry{{ID: 1, Event: Event{Kind: EventEnd}}},
		}},
	}

	clone := s.Clone()
	clone.Tracks[0].Events[0].ID = 99
	clone.Patterns[0].ChannelTrackIDs[0] = 5

	assert.Equal(t, EventID(1), s.Tracks[0].Events[0].ID)
	assert.Equal(t, int32(0), s.Patterns[0].ChannelTrackIDs[0])
}

func TestRestoreFromResetsIdentity(t *testing.T) {
	s := NewEmptySong(1)
	snap := s.Clone()

	s.Tracks = []Track{{ID: 0, Events: []Entry{{ID: 1, Event: Event{Kind: EventEnd}}}}}
	assert.Len(t, s.Tracks, 1)

	s.RestoreFrom(snap)
	assert.Empty(t, s.Tracks)
	assert.Equal(t, int32(1), s.ID)
}
