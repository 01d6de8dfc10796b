package nspcverify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ntrak-go/nspccore/internal/nspc"
)

func sampleSong() *nspc.Song {
	s := nspc.NewEmptySong(1)
	s.Tracks = []nspc.Track{{
		ID:           0,
		OriginalAddr: 0x1000,
		Events: []nspc.Entry{
			{ID: 1, Event: nspc.Event{Kind: nspc.EventDuration, Duration: nspc.Duration{Ticks: 1}}},
			{ID: 2, Event: nspc.Event{Kind: nspc.EventNote, Note: nspc.Note{Pitch: 0x30}}},
			{ID: 3, Event: nspc.Event{Kind: nspc.EventEnd}},
		},
	}}
	return s
}

func TestCompareSongsIdenticalIsEquivalent(t *testing.T) {
	a := sampleSong()
	b := sampleSong()

	report := &RoundTripReport{Equivalent: true}
	compareSongs(a, b, report)
	report.Equivalent = report.DifferingBytes == 0

	assert.True(t, report.Equivalent)
	assert.Zero(t, report.DifferingBytes)
}

func TestCompareSongsIgnoresOriginalAddrDifference(t *testing.T) {
	a := sampleSong()
	b := sampleSong()
	b.Tracks[0].OriginalAddr = 0x2000 // relocated by the compiler

	report := &RoundTripReport{Equivalent: true}
	compareSongs(a, b, report)
	report.Equivalent = report.DifferingBytes == 0

	assert.True(t, report.Equivalent)
	assert.Equal(t, 1, report.PointerDifferencesIgnored)
}

func TestCompareSongsFlagsEventDivergence(t *testing.T) {
	a := sampleSong()
	b := sampleSong()
	b.Tracks[0].Events[1].Event.Note.Pitch = 0x31

	report := &RoundTripReport{Equivalent: true}
	compareSongs(a, b, report)
	report.Equivalent = report.DifferingBytes == 0

	assert.False(t, report.Equivalent)
	assert.NotZero(t, report.DifferingBytes)
}

func TestVerifySongRoundTripRejectsOutOfRangeIndex(t *testing.T) {
	proj := nspc.NewEmptyProject(&nspc.EngineConfig{})
	_, err := VerifySongRoundTrip(proj, 0)
	assert.Error(t, err)
}
