package nspcparser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ntrak-go/nspccore/internal/nspc"
)

func testConfig() *nspc.EngineConfig {
	return &nspc.EngineConfig{
		Name:              "test",
		Bytes:             []byte{0xAA, 0xBB},
		EntryPoint:        0x10,
		SongIndexPointers: 0x200,
		VcmdRemap:         map[uint8]nspc.VcmdKind{},
	}
}

// buildSpcImage assembles a minimal SPC file: magic header, one song whose
// sequence plays a one-channel pattern containing a single note.
func buildSpcImage(cfg *nspc.EngineConfig) []byte {
	buf := make([]byte, headerTotalSize)
	copy(buf, SpcHeaderMagic)

	put := func(addr uint16, bs ...byte) {
		copy(buf[aramOffset+int(addr):], bs)
	}

	put(cfg.EntryPoint, cfg.Bytes...)
	put(cfg.SongIndexPointers, 0x00, 0x03) // song 0 sequence at ARAM addr 0x0300

	put(0x300, 0x80, 0x04) // PlayPattern: track-table pointer 0x0480
	put(0x302, 0x00)       // EndSequence

	put(0x482, 0x00, 0x05) // channel 0 -> track at 0x0500
	put(0x500, 0x04, 0xB0, 0x00) // Duration(4), Note(0x30), End

	return buf
}

func TestParseDecodesMinimalSong(t *testing.T) {
	cfg := testConfig()
	proj, err := Parse(buildSpcImage(cfg), []*nspc.EngineConfig{cfg})
	assert.NoError(t, err)
	assert.Len(t, proj.Songs, 1)

	song := proj.Songs[0]
	assert.Len(t, song.Sequence, 2)
	assert.Equal(t, nspc.SeqOpPlayPattern, song.Sequence[0].Kind)
	assert.Equal(t, nspc.SeqOpEndSequence, song.Sequence[1].Kind)

	assert.Len(t, song.Patterns, 1)
	assert.Equal(t, int32(0), song.Patterns[0].ChannelTrackIDs[0])

	assert.Len(t, song.Tracks, 1)
	events := song.Tracks[0].Events
	assert.Equal(t, nspc.EventDuration, events[0].Event.Kind)
	assert.Equal(t, uint8(4), events[0].Event.Duration.Ticks)
	assert.Equal(t, nspc.EventNote, events[1].Event.Kind)
	assert.Equal(t, uint8(0x30), events[1].Event.Note.Pitch)
	assert.Equal(t, nspc.EventEnd, events[2].Event.Kind)
}

func TestParseRejectsEmptyConfigList(t *testing.T) {
	cfg := testConfig()
	_, err := Parse(buildSpcImage(cfg), nil)
	assert.Error(t, err)
	perr, ok := err.(*ParseError)
	assert.True(t, ok)
	assert.Equal(t, ErrInvalidConfig, perr.Kind)
}

func TestParseRejectsShortBuffer(t *testing.T) {
	cfg := testConfig()
	_, err := Parse([]byte("too short"), []*nspc.EngineConfig{cfg})
	assert.Error(t, err)
	perr := err.(*ParseError)
	assert.Equal(t, ErrUnexpectedEndOfData, perr.Kind)
}

func TestParseRejectsMissingMagic(t *testing.T) {
	cfg := testConfig()
	buf := buildSpcImage(cfg)
	copy(buf, "NOT THE RIGHT MAGIC")
	_, err := Parse(buf, []*nspc.EngineConfig{cfg})
	assert.Error(t, err)
	perr := err.(*ParseError)
	assert.Equal(t, ErrInvalidHeader, perr.Kind)
}

func TestParseRejectsUnmatchedSignature(t *testing.T) {
	cfg := testConfig()
	buf := buildSpcImage(cfg)
	other := testConfig()
	other.Bytes = []byte{0x01, 0x02}
	_, err := Parse(buf, []*nspc.EngineConfig{other})
	assert.Error(t, err)
	perr := err.(*ParseError)
	assert.Equal(t, ErrUnsupportedVersion, perr.Kind)
}

func TestParseRejectsRecursiveSubroutine(t *testing.T) {
	cfg := testConfig()
	buf := buildSpcImage(cfg)

	put := func(addr uint16, bs ...byte) {
		copy(buf[aramOffset+int(addr):], bs)
	}
	// Replace channel 0's track with one that calls a subroutine which
	// immediately calls itself; the parser must reject this outright
	// rather than looping or silently memoizing a half-parsed subroutine.
	put(0x482, 0x00, 0x06)                   // channel 0 -> track at 0x0600
	put(0x600, 0xEF, 0x00, 0x07, 0x01, 0x00) // SubroutineCall(0x0700, count 1), End
	put(0x700, 0xEF, 0x00, 0x07, 0x01)       // subroutine calls itself

	_, err := Parse(buf, []*nspc.EngineConfig{cfg})
	assert.Error(t, err)
	perr := err.(*ParseError)
	assert.Equal(t, ErrInvalidEventData, perr.Kind)
}
