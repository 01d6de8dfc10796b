package projectfile

import "github.com/ntrak-go/nspccore/internal/nspc"

// ApplyProjectIrOverlay merges overlay onto project in place (§4.6):
//
//  1. Prune engine content not named in overlay.EngineRetained — those
//     songs/instruments/samples are removed from the project and their
//     ARAM footprint is zeroed.
//  2. For every overlay song/instrument/sample, replace any existing entry
//     with a matching ID (engine- or user-owned) wholesale and write its
//     ARAM footprint.
//  3. project.EngineConfig is left untouched.
//
// A song's ARAM footprint (where its sequence and tracks finally live) is
// decided by the compiler at build time, not by the overlay; only
// instruments and samples occupy a fixed per-ID slot the overlay can write
// directly (instrument table entry, sample directory entry, sample bytes).
func ApplyProjectIrOverlay(project *nspc.Project, overlay *ProjectIrData) error {
	retainedSongs := toSet(overlay.EngineRetained.Songs)
	retainedInstruments := toSet(overlay.EngineRetained.Instruments)
	retainedSamples := toSet(overlay.EngineRetained.Samples)

	pruneSongs(project, retainedSongs)
	pruneInstruments(project, retainedInstruments)
	pruneSamples(project, retainedSamples)

	for _, ir := range overlay.Songs {
		song, err := songFromIr(ir)
		if err != nil {
			return err
		}
		replaceSong(project, song)
	}
	for _, ir := range overlay.Instruments {
		inst := instrumentFromIr(ir)
		replaceInstrument(project, inst)
		writeInstrumentFootprint(project, inst)
	}
	for _, ir := range overlay.Samples {
		smp, err := sampleFromIr(ir)
		if err != nil {
			return err
		}
		replaceSample(project, smp)
		writeSampleFootprint(project, smp)
	}
	return nil
}

func toSet(ids []int32) map[int32]bool {
	out := make(map[int32]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func pruneSongs(project *nspc.Project, retained map[int32]bool) {
	var kept []*nspc.Song
	for _, s := range project.Songs {
		if s.ContentOrigin == nspc.EngineProvided && !retained[s.ID] {
			zeroSongIndexEntry(project, s.ID)
			continue
		}
		kept = append(kept, s)
	}
	project.Songs = kept
}

func pruneInstruments(project *nspc.Project, retained map[int32]bool) {
	var kept []*nspc.Instrument
	for _, inst := range project.Instruments {
		if inst.ContentOrigin == nspc.EngineProvided && !retained[inst.ID] {
			zeroInstrumentFootprint(project, inst)
			continue
		}
		kept = append(kept, inst)
	}
	project.Instruments = kept
}

func pruneSamples(project *nspc.Project, retained map[int32]bool) {
	var kept []*nspc.BrrSample
	for _, smp := range project.Samples {
		if smp.ContentOrigin == nspc.EngineProvided && !retained[smp.ID] {
			zeroSampleFootprint(project, smp)
			continue
		}
		kept = append(kept, smp)
	}
	project.Samples = kept
}

func replaceSong(project *nspc.Project, song *nspc.Song) {
	for i, s := range project.Songs {
		if s.ID == song.ID {
			project.Songs[i] = song
			return
		}
	}
	project.Songs = append(project.Songs, song)
}

func replaceInstrument(project *nspc.Project, inst *nspc.Instrument) {
	for i, ex := range project.Instruments {
		if ex.ID == inst.ID {
			project.Instruments[i] = inst
			return
		}
	}
	project.Instruments = append(project.Instruments, inst)
}

func replaceSample(project *nspc.Project, smp *nspc.BrrSample) {
	for i, ex := range project.Samples {
		if ex.ID == smp.ID {
			project.Samples[i] = smp
			return
		}
	}
	project.Samples = append(project.Samples, smp)
}

func zeroSongIndexEntry(project *nspc.Project, songID int32) {
	if project.EngineConfig == nil {
		return
	}
	addr := project.EngineConfig.SongIndexPointers + uint16(songID)*2
	zeroAram(project, addr, 2)
}

func zeroInstrumentFootprint(project *nspc.Project, inst *nspc.Instrument) {
	if project.EngineConfig == nil {
		return
	}
	addr := project.EngineConfig.InstrumentTable + uint16(inst.ID)*6
	zeroAram(project, addr, 6)
}

func zeroSampleFootprint(project *nspc.Project, smp *nspc.BrrSample) {
	if project.EngineConfig == nil {
		return
	}
	dirAddr := project.EngineConfig.SampleHeaders + uint16(smp.ID)*4
	zeroAram(project, dirAddr, 4)
	zeroAram(project, smp.OriginalAddr, len(smp.Data))
}

func writeInstrumentFootprint(project *nspc.Project, inst *nspc.Instrument) {
	if project.EngineConfig == nil {
		return
	}
	addr := project.EngineConfig.InstrumentTable + uint16(inst.ID)*6
	writeAram(project, addr, []byte{inst.SampleIndex, inst.ADSR1, inst.ADSR2, inst.Gain, inst.BasePitchMult, inst.FracPitchMult})
}

func writeSampleFootprint(project *nspc.Project, smp *nspc.BrrSample) {
	if project.EngineConfig == nil {
		return
	}
	dirAddr := project.EngineConfig.SampleHeaders + uint16(smp.ID)*4
	writeAram(project, dirAddr, []byte{
		uint8(smp.OriginalAddr), uint8(smp.OriginalAddr >> 8),
		uint8(smp.OriginalLoopAddr), uint8(smp.OriginalLoopAddr >> 8),
	})
	writeAram(project, smp.OriginalAddr, smp.Data)
}

func zeroAram(project *nspc.Project, addr uint16, length int) {
	writeAram(project, addr, make([]byte, length))
}

func writeAram(project *nspc.Project, addr uint16, data []byte) {
	end := int(addr) + len(data)
	if end > len(project.Aram) {
		end = len(project.Aram)
	}
	copy(project.Aram[addr:end], data)
}
