package nspccompile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntrak-go/nspccore/internal/nspc"
	"github.com/ntrak-go/nspccore/internal/nspcparser"
)

// TestEchoParamsSurvivesCompileParseRoundTrip guards against the §8.2
// parse/compile round-trip law for the EchoParams VCMD specifically: its
// three parameter bytes (Delay, Feedback, FirIndex) must be written in the
// same wire order the parser reads them in, or a reparse silently rotates
// the fields into each other.
func TestEchoParamsSurvivesCompileParseRoundTrip(t *testing.T) {
	cfg := testEngineConfig()
	cfg.EntryPoint = 0xFF00
	cfg.SongIndexPointers = 0xFE00
	cfg.ReservedRegions = []nspc.ReservedRegion{
		{From: 0xFE00, To: 0xFE10},
		{From: 0xFF00, To: 0xFF00 + uint16(len(cfg.Bytes))},
	}

	song := nspc.NewEmptySong(0)
	ids := [8]int32{0, -1, -1, -1, -1, -1, -1, -1}
	song.Patterns = []nspc.Pattern{{ID: 0, ChannelTrackIDs: &ids}}
	song.Tracks = []nspc.Track{{
		ID: 0,
		Events: []nspc.Entry{
			{ID: 1, Event: nspc.Event{Kind: nspc.EventVcmd, Vcmd: nspc.Vcmd{
				Kind: nspc.VcmdEchoParams, Delay: 0x01, Feedback: 0x02, FirIndex: 0x03,
			}}},
			{ID: 2, Event: nspc.Event{Kind: nspc.EventEnd}},
		},
	}}
	song.Sequence = []nspc.SeqOp{
		{Kind: nspc.SeqOpPlayPattern, PatternID: 0},
		{Kind: nspc.SeqOpEndSequence},
	}

	project := nspc.NewEmptyProject(cfg)
	project.Songs = []*nspc.Song{song}

	upload, err := BuildSongScopedUpload(project, 0, Options{})
	require.NoError(t, err)

	base := make([]byte, 0x10200) // full SPC file size (§6.1): header + 64KiB ARAM + DSP/extra-RAM tail
	copy(base, nspcparser.SpcHeaderMagic)
	copy(base[0x100+int(cfg.EntryPoint):], cfg.Bytes) // engine signature in its reserved region
	out := ApplyUploadToSpcImage(upload, base)

	reparsed, err := nspcparser.Parse(out, []*nspc.EngineConfig{cfg})
	require.NoError(t, err)
	require.Len(t, reparsed.Songs, 1)

	events := reparsed.Songs[0].Tracks[0].Events
	require.NotEmpty(t, events)
	vc := events[0].Event.Vcmd
	assert.Equal(t, nspc.VcmdEchoParams, vc.Kind)
	assert.Equal(t, uint8(0x01), vc.Delay)
	assert.Equal(t, uint8(0x02), vc.Feedback)
	assert.Equal(t, uint8(0x03), vc.FirIndex)
}
