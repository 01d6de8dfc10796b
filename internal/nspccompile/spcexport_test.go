package nspccompile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStampMetadataWritesSpacePaddedFields(t *testing.T) {
	spc := make([]byte, spcArtistOffset+spcArtistLen)
	StampMetadata(spc, SpcMetadata{Title: "Song", Artist: "Composer"})

	title := string(spc[spcTitleOffset : spcTitleOffset+spcTitleLen])
	assert.True(t, strings.HasPrefix(title, "Song"))
	assert.Equal(t, spcTitleLen, len(title))

	artist := string(spc[spcArtistOffset : spcArtistOffset+spcArtistLen])
	assert.True(t, strings.HasPrefix(artist, "Composer"))
}

func TestStampMetadataSkipsUndersizedImage(t *testing.T) {
	spc := make([]byte, 4)
	assert.NotPanics(t, func() { StampMetadata(spc, SpcMetadata{Title: "x"}) })
}

func TestApplyPlaybackStateStampsRegistersAndDsp(t *testing.T) {
	spc := make([]byte, 0x10200)
	st := PlaybackState{PC: 0x1234, A: 0x01, X: 0x02, Y: 0x03, PSW: 0x04, SP: 0xEF}
	st.DspRegisters[0] = 0x55
	st.ExtraRAM[0] = 0x66

	ApplyPlaybackState(spc, st)
	assert.Equal(t, uint8(0x34), spc[0x25])
	assert.Equal(t, uint8(0x12), spc[0x26])
	assert.Equal(t, uint8(0x01), spc[0x27])
	assert.Equal(t, uint8(0xEF), spc[0x2B])
	assert.Equal(t, uint8(0x55), spc[0x10100])
	assert.Equal(t, uint8(0x66), spc[0x101C0])
}

func TestApplyPlaybackStateSkipsUndersizedImage(t *testing.T) {
	spc := make([]byte, 0x10)
	assert.NotPanics(t, func() { ApplyPlaybackState(spc, PlaybackState{}) })
}

func TestBuildAutoPlaySpcAppliesUploadAndWarmup(t *testing.T) {
	project, _ := minimalProject()
	baseSpc := make([]byte, 0x10200)

	called := false
	warmup := func(spc []byte) (PlaybackState, error) {
		called = true
		return PlaybackState{PC: 0xABCD}, nil
	}

	out, err := BuildAutoPlaySpc(project, 0, baseSpc, Options{}, warmup)
	assert.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, uint8(0xCD), out[0x25])
	assert.NotSame(t, &baseSpc[0], &out[0])
}

func TestBuildAutoPlaySpcSkipsWarmupWhenNil(t *testing.T) {
	project, _ := minimalProject()
	baseSpc := make([]byte, 0x10200)

	out, err := BuildAutoPlaySpc(project, 0, baseSpc, Options{}, nil)
	assert.NoError(t, err)
	assert.Equal(t, uint8(0x00), out[0x25])
}
