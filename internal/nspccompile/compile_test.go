package nspccompile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ntrak-go/nspccore/internal/nspc"
)

func minimalProject() (*nspc.Project, *nspc.Song) {
	cfg := testEngineConfig()
	cfg.SongIndexPointers = 0x1000

	song := nspc.NewEmptySong(0)
	ids := [8]int32{0, -1, -1, -1, -1, -1, -1, -1}
	song.Patterns = []nspc.Pattern{{ID: 0, ChannelTrackIDs: &ids}}
	song.Tracks = []nspc.Track{{
		ID: 0,
		Events: []nspc.Entry{
			{ID: 1, Event: nspc.Event{Kind: nspc.EventDuration, Duration: nspc.Duration{Ticks: 4}}},
			{ID: 2, Event: nspc.Event{Kind: nspc.EventNote, Note: nspc.Note{Pitch: 0x30}}},
			{ID: 3, Event: nspc.Event{Kind: nspc.EventEnd}},
		},
	}}
	song.Sequence = []nspc.SeqOp{
		{Kind: nspc.SeqOpPlayPattern, PatternID: 0},
		{Kind: nspc.SeqOpEndSequence},
	}

	project := nspc.NewEmptyProject(cfg)
	project.Songs = []*nspc.Song{song}
	return project, song
}

func TestBuildSongScopedUploadProducesTrackSequenceAndPatternChunks(t *testing.T) {
	project, _ := minimalProject()

	upload, err := BuildSongScopedUpload(project, 0, Options{})
	assert.NoError(t, err)
	assert.NotEmpty(t, upload.Chunks)

	labels := make(map[string]bool)
	for _, c := range upload.Chunks {
		labels[c.Label] = true
	}
	assert.True(t, labels["Sequence"])
	assert.True(t, labels["Song Index Entry"])
	assert.True(t, labels["Track 0"])
	assert.True(t, labels["Pattern 0 Table"])
}

func TestBuildSongScopedUploadRejectsOutOfRangeIndex(t *testing.T) {
	project, _ := minimalProject()
	_, err := BuildSongScopedUpload(project, 5, Options{})
	assert.Error(t, err)
}

func TestBuildSongScopedUploadRejectsEmptySequence(t *testing.T) {
	project, song := minimalProject()
	song.Sequence = nil

	_, err := BuildSongScopedUpload(project, 0, Options{})
	assert.Error(t, err)
}

func TestBuildSongScopedUploadPatchesSubroutineCallAddress(t *testing.T) {
	project, song := minimalProject()
	song.Subroutines = []nspc.Subroutine{{
		ID: 0,
		Events: []nspc.Entry{
			{ID: 10, Event: nspc.Event{Kind: nspc.EventEnd}},
		},
	}}
	song.Tracks[0].Events = []nspc.Entry{
		{ID: 1, Event: nspc.Event{Kind: nspc.EventVcmd, Vcmd: nspc.Vcmd{Kind: nspc.VcmdSubroutineCall, SubroutineID: 0, Count: 1}}},
		{ID: 2, Event: nspc.Event{Kind: nspc.EventEnd}},
	}

	upload, err := BuildSongScopedUpload(project, 0, Options{})
	assert.NoError(t, err)

	var subAddr uint16
	for _, c := range upload.Chunks {
		if c.Label == "Subroutine 0" {
			subAddr = c.Address
		}
	}

	var trackBytes []byte
	for _, c := range upload.Chunks {
		if c.Label == "Track 0" {
			trackBytes = c.Bytes
		}
	}
	assert.NotEmpty(t, trackBytes)
	patched := uint16(trackBytes[1]) | uint16(trackBytes[2])<<8
	assert.Equal(t, subAddr, patched)
}

func TestBuildUserContentUploadSkipsEngineProvidedContent(t *testing.T) {
	project, _ := minimalProject()
	project.Instruments = []*nspc.Instrument{{ID: 0, ContentOrigin: nspc.EngineProvided}}

	upload, err := BuildUserContentUpload(project, Options{})
	assert.NoError(t, err)
	for _, c := range upload.Chunks {
		assert.NotEqual(t, "Instrument 0", c.Label)
	}
}
