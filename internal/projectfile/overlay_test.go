package projectfile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ntrak-go/nspccore/internal/nspc"
)

func testEngineConfig() *nspc.EngineConfig {
	return &nspc.EngineConfig{
		Name:              "test",
		InstrumentTable:   0x2000,
		SampleHeaders:     0x3000,
		SongIndexPointers: 0x4000,
	}
}

func TestApplyProjectIrOverlayPrunesUnretainedEngineSong(t *testing.T) {
	proj := nspc.NewEmptyProject(testEngineConfig())
	proj.Songs = []*nspc.Song{
		{ID: 0, ContentOrigin: nspc.EngineProvided},
		{ID: 1, ContentOrigin: nspc.EngineProvided},
	}
	overlay := &ProjectIrData{
		Format:         FormatTag,
		Version:        CurrentVersion,
		EngineRetained: EngineRetainedIr{Songs: []int32{0}},
	}

	err := ApplyProjectIrOverlay(proj, overlay)
	assert.NoError(t, err)
	assert.Len(t, proj.Songs, 1)
	assert.Equal(t, int32(0), proj.Songs[0].ID)
}

func TestApplyProjectIrOverlayReplacesMatchingID(t *testing.T) {
	proj := nspc.NewEmptyProject(testEngineConfig())
	proj.Songs = []*nspc.Song{{ID: 1, Name: "old", ContentOrigin: nspc.EngineProvided}}
	overlay := &ProjectIrData{
		Format:         FormatTag,
		Version:        CurrentVersion,
		Songs:          []SongIr{{ID: 1, Name: "new", NextEventID: 1}},
		EngineRetained: EngineRetainedIr{Songs: []int32{1}},
	}

	err := ApplyProjectIrOverlay(proj, overlay)
	assert.NoError(t, err)
	assert.Len(t, proj.Songs, 1)
	assert.Equal(t, "new", proj.Songs[0].Name)
	assert.Equal(t, nspc.UserProvided, proj.Songs[0].ContentOrigin)
}

func TestApplyProjectIrOverlayWritesInstrumentFootprint(t *testing.T) {
	proj := nspc.NewEmptyProject(testEngineConfig())
	overlay := &ProjectIrData{
		Format:  FormatTag,
		Version: CurrentVersion,
		Instruments: []InstrumentIr{
			{ID: 2, SampleIndex: 5, ADSR1: 0x8F, ADSR2: 0xE0, Gain: 0x7F, BasePitchMult: 1, FracPitchMult: 0},
		},
	}

	err := ApplyProjectIrOverlay(proj, overlay)
	assert.NoError(t, err)
	assert.Len(t, proj.Instruments, 1)

	addr := proj.EngineConfig.InstrumentTable + uint16(2)*6
	assert.Equal(t, []byte{5, 0x8F, 0xE0, 0x7F, 1, 0}, proj.Aram[addr:addr+6])
}

func TestApplyProjectIrOverlayZeroesPrunedSampleBytes(t *testing.T) {
	proj := nspc.NewEmptyProject(testEngineConfig())
	proj.Samples = []*nspc.BrrSample{
		{ID: 0, ContentOrigin: nspc.EngineProvided, OriginalAddr: 0x5000, Data: []byte{1, 2, 3, 4}},
	}
	copy(proj.Aram[0x5000:0x5004], []byte{1, 2, 3, 4})

	overlay := &ProjectIrData{Format: FormatTag, Version: CurrentVersion}
	err := ApplyProjectIrOverlay(proj, overlay)
	assert.NoError(t, err)
	assert.Empty(t, proj.Samples)
	assert.Equal(t, []byte{0, 0, 0, 0}, proj.Aram[0x5000:0x5004])
}
